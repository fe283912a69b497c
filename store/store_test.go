package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProjectLifecycle(t *testing.T) {
	s := openTestStore(t)

	p, err := s.CreateProject("The Lighthouse", "A keeper loses his light", "noir")
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)

	got, err := s.GetProject(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Lighthouse", got.Title)
	assert.Equal(t, "noir", got.Style)

	require.NoError(t, s.SetProjectScript(p.ID, "INT. LIGHTHOUSE - NIGHT"))
	got, err = s.GetProject(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "INT. LIGHTHOUSE - NIGHT", got.Script)

	all, err := s.ListProjects()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.DeleteProject(p.ID))
	_, err = s.GetProject(p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProjectCascades(t *testing.T) {
	s := openTestStore(t)

	p, err := s.CreateProject("Cascade", "", "")
	require.NoError(t, err)

	scenes, err := s.CreateScenes(p.ID, []Scene{{Heading: "INT. HOUSE - DAY"}})
	require.NoError(t, err)

	_, err = s.CreateShots(scenes[0].ID, p.ID, []Shot{{Size: "WIDE"}, {Size: "CLOSE"}})
	require.NoError(t, err)

	require.NoError(t, s.DeleteProject(p.ID))

	remaining, err := s.ListShotsByProject(p.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestSceneAndShotOrdering(t *testing.T) {
	s := openTestStore(t)

	p, err := s.CreateProject("Order", "", "")
	require.NoError(t, err)

	scenes, err := s.CreateScenes(p.ID, []Scene{
		{Heading: "EXT. BEACH - DAY"},
		{Heading: "INT. CAR - NIGHT"},
	})
	require.NoError(t, err)
	require.Len(t, scenes, 2)
	assert.Equal(t, 0, scenes[0].Idx)
	assert.Equal(t, 1, scenes[1].Idx)

	_, err = s.CreateShots(scenes[1].ID, p.ID, []Shot{{Size: "MEDIUM"}})
	require.NoError(t, err)
	_, err = s.CreateShots(scenes[0].ID, p.ID, []Shot{{Size: "WIDE"}, {Size: "CLOSE"}})
	require.NoError(t, err)

	// Timeline order follows scene idx, then shot idx, regardless of
	// insertion order.
	all, err := s.ListShotsByProject(p.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "WIDE", all[0].Size)
	assert.Equal(t, "CLOSE", all[1].Size)
	assert.Equal(t, "MEDIUM", all[2].Size)
}

func TestShotUpdates(t *testing.T) {
	s := openTestStore(t)

	p, err := s.CreateProject("Shots", "", "")
	require.NoError(t, err)
	scenes, err := s.CreateScenes(p.ID, []Scene{{Heading: "INT. LAB - DAY"}})
	require.NoError(t, err)
	shots, err := s.CreateShots(scenes[0].ID, p.ID, []Shot{{Size: "WIDE", ImagePrompt: "a lab"}})
	require.NoError(t, err)

	sh := shots[0]
	sh.Movement = "PUSH-IN"
	sh.Narration = "The machine hums to life."
	require.NoError(t, s.UpdateShot(&sh))

	require.NoError(t, s.SetShotImage(sh.ID, "/assets/shot1.png"))
	require.NoError(t, s.SetShotAudio(sh.ID, "/audio/shot1.wav", 4.2))

	got, err := s.GetShot(sh.ID)
	require.NoError(t, err)
	assert.Equal(t, "PUSH-IN", got.Movement)
	assert.Equal(t, "/assets/shot1.png", got.ImagePath)
	assert.Equal(t, "/audio/shot1.wav", got.AudioPath)
	assert.InDelta(t, 4.2, got.DurationSec, 0.001)
}

func TestCharacterSheet(t *testing.T) {
	s := openTestStore(t)

	p, err := s.CreateProject("Chars", "", "")
	require.NoError(t, err)

	c := &Character{ProjectID: p.ID, Name: "MARA", Description: "a weary detective", PromptFrag: "woman in a trench coat"}
	require.NoError(t, s.CreateCharacter(c))
	require.NoError(t, s.SetCharacterSheet(c.ID, "/assets/mara.png"))

	chars, err := s.ListCharacters(p.ID)
	require.NoError(t, err)
	require.Len(t, chars, 1)
	assert.Equal(t, "/assets/mara.png", chars[0].SheetPath)
}

func TestTaskTerminalStatusIsSticky(t *testing.T) {
	s := openTestStore(t)

	task := &Task{ProjectID: "p1", ShotID: "sh1", Type: TaskTypeShotImage}
	require.NoError(t, s.CreateTask(task))
	assert.Equal(t, TaskStatusPending, task.Status)

	task.Status = TaskStatusCanceled
	require.NoError(t, s.UpdateTask(task))

	// A late completion from the worker must not resurrect the task.
	task.Status = TaskStatusCompleted
	task.ResultPath = "/assets/late.png"
	require.NoError(t, s.UpdateTask(task))

	got, err := s.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, TaskStatusCanceled, got.Status)
	assert.Empty(t, got.ResultPath)
}

func TestActiveTasksForShot(t *testing.T) {
	s := openTestStore(t)

	active := &Task{ProjectID: "p1", ShotID: "sh1", Type: TaskTypeShotVideo, Status: TaskStatusProcessing}
	require.NoError(t, s.CreateTask(active))
	done := &Task{ProjectID: "p1", ShotID: "sh1", Type: TaskTypeShotImage, Status: TaskStatusCompleted}
	require.NoError(t, s.CreateTask(done))
	other := &Task{ProjectID: "p1", ShotID: "sh2", Type: TaskTypeShotImage, Status: TaskStatusPending}
	require.NoError(t, s.CreateTask(other))

	tasks, err := s.ActiveTasksForShot("sh1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, active.ID, tasks[0].ID)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopen against the already-migrated file.
	s, err = Open(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.CreateProject("reopened", "", "")
	require.NoError(t, err)
}
