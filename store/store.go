// Package store persists storycut projects, scenes, shots, characters and
// generation tasks in a local sqlite database.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY churn under the task workers.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// ---- projects ----

func (s *Store) CreateProject(title, logline, style string) (*Project, error) {
	now := time.Now().UTC()
	p := &Project{
		ID:        uuid.NewString(),
		Title:     title,
		Logline:   logline,
		Style:     style,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.Exec(
		`INSERT INTO project (id, title, logline, style, script, created_at, updated_at) VALUES (?, ?, ?, ?, '', ?, ?)`,
		p.ID, p.Title, p.Logline, p.Style, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return p, nil
}

func (s *Store) GetProject(id string) (*Project, error) {
	var p Project
	err := s.db.QueryRow(
		`SELECT id, title, logline, style, script, created_at, updated_at FROM project WHERE id = ?`, id).
		Scan(&p.ID, &p.Title, &p.Logline, &p.Style, &p.Script, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

func (s *Store) ListProjects() ([]Project, error) {
	rows, err := s.db.Query(
		`SELECT id, title, logline, style, script, created_at, updated_at FROM project ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Logline, &p.Style, &p.Script, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) SetProjectScript(id, script string) error {
	res, err := s.db.Exec(
		`UPDATE project SET script = ?, updated_at = ? WHERE id = ?`, script, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update project script: %w", err)
	}
	return requireRow(res)
}

// DeleteProject removes a project; scenes, shots and characters cascade.
// Task rows are kept for history but detached from nothing (project_id has
// no FK on task so finished task records survive project deletion).
func (s *Store) DeleteProject(id string) error {
	res, err := s.db.Exec(`DELETE FROM project WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return requireRow(res)
}

// ---- characters ----

func (s *Store) CreateCharacter(c *Character) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := s.db.Exec(
		`INSERT INTO character (id, project_id, name, description, prompt_fragment, sheet_path) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.ProjectID, c.Name, c.Description, c.PromptFrag, c.SheetPath)
	if err != nil {
		return fmt.Errorf("failed to create character: %w", err)
	}
	return nil
}

func (s *Store) ListCharacters(projectID string) ([]Character, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, name, description, prompt_fragment, sheet_path FROM character WHERE project_id = ? ORDER BY name`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	defer rows.Close()

	var chars []Character
	for rows.Next() {
		var c Character
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Name, &c.Description, &c.PromptFrag, &c.SheetPath); err != nil {
			return nil, err
		}
		chars = append(chars, c)
	}
	return chars, rows.Err()
}

func (s *Store) GetCharacter(id string) (*Character, error) {
	var c Character
	err := s.db.QueryRow(
		`SELECT id, project_id, name, description, prompt_fragment, sheet_path FROM character WHERE id = ?`, id).
		Scan(&c.ID, &c.ProjectID, &c.Name, &c.Description, &c.PromptFrag, &c.SheetPath)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get character: %w", err)
	}
	return &c, nil
}

func (s *Store) SetCharacterSheet(id, sheetPath string) error {
	res, err := s.db.Exec(`UPDATE character SET sheet_path = ? WHERE id = ?`, sheetPath, id)
	if err != nil {
		return fmt.Errorf("failed to update character sheet: %w", err)
	}
	return requireRow(res)
}

// ---- scenes ----

// CreateScenes inserts a batch of scenes in one transaction, assigning IDs
// and sequential indexes in slice order.
func (s *Store) CreateScenes(projectID string, scenes []Scene) ([]Scene, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin scene batch: %w", err)
	}
	defer tx.Rollback()

	for i := range scenes {
		scenes[i].ID = uuid.NewString()
		scenes[i].ProjectID = projectID
		scenes[i].Idx = i
		_, err := tx.Exec(
			`INSERT INTO scene (id, project_id, idx, heading, summary, body, prompt, image_path) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			scenes[i].ID, projectID, i, scenes[i].Heading, scenes[i].Summary, scenes[i].Body, scenes[i].Prompt, scenes[i].ImagePath)
		if err != nil {
			return nil, fmt.Errorf("failed to insert scene %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit scene batch: %w", err)
	}
	return scenes, nil
}

func (s *Store) ListScenes(projectID string) ([]Scene, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, idx, heading, summary, body, prompt, image_path FROM scene WHERE project_id = ? ORDER BY idx`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenes: %w", err)
	}
	defer rows.Close()

	var scenes []Scene
	for rows.Next() {
		var sc Scene
		if err := rows.Scan(&sc.ID, &sc.ProjectID, &sc.Idx, &sc.Heading, &sc.Summary, &sc.Body, &sc.Prompt, &sc.ImagePath); err != nil {
			return nil, err
		}
		scenes = append(scenes, sc)
	}
	return scenes, rows.Err()
}

func (s *Store) GetScene(id string) (*Scene, error) {
	var sc Scene
	err := s.db.QueryRow(
		`SELECT id, project_id, idx, heading, summary, body, prompt, image_path FROM scene WHERE id = ?`, id).
		Scan(&sc.ID, &sc.ProjectID, &sc.Idx, &sc.Heading, &sc.Summary, &sc.Body, &sc.Prompt, &sc.ImagePath)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scene: %w", err)
	}
	return &sc, nil
}

func (s *Store) UpdateScene(sc *Scene) error {
	res, err := s.db.Exec(
		`UPDATE scene SET heading = ?, summary = ?, prompt = ?, image_path = ? WHERE id = ?`,
		sc.Heading, sc.Summary, sc.Prompt, sc.ImagePath, sc.ID)
	if err != nil {
		return fmt.Errorf("failed to update scene: %w", err)
	}
	return requireRow(res)
}

func (s *Store) SetSceneImage(id, imagePath string) error {
	res, err := s.db.Exec(`UPDATE scene SET image_path = ? WHERE id = ?`, imagePath, id)
	if err != nil {
		return fmt.Errorf("failed to update scene image: %w", err)
	}
	return requireRow(res)
}

// ---- shots ----

func (s *Store) CreateShots(sceneID, projectID string, shots []Shot) ([]Shot, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin shot batch: %w", err)
	}
	defer tx.Rollback()

	for i := range shots {
		shots[i].ID = uuid.NewString()
		shots[i].SceneID = sceneID
		shots[i].ProjectID = projectID
		shots[i].Idx = i
		_, err := tx.Exec(
			`INSERT INTO shot (id, scene_id, project_id, idx, size, movement, image_prompt, video_prompt, narration, image_path, video_path, audio_path, duration_sec)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			shots[i].ID, sceneID, projectID, i, shots[i].Size, shots[i].Movement,
			shots[i].ImagePrompt, shots[i].VideoPrompt, shots[i].Narration,
			shots[i].ImagePath, shots[i].VideoPath, shots[i].AudioPath, shots[i].DurationSec)
		if err != nil {
			return nil, fmt.Errorf("failed to insert shot %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit shot batch: %w", err)
	}
	return shots, nil
}

const shotColumns = `id, scene_id, project_id, idx, size, movement, image_prompt, video_prompt, narration, image_path, video_path, audio_path, duration_sec`

// shotColumnsQualified disambiguates the shot columns in queries that join
// other tables sharing column names (id, project_id, idx).
const shotColumnsQualified = `shot.id, shot.scene_id, shot.project_id, shot.idx, shot.size, shot.movement, shot.image_prompt, shot.video_prompt, shot.narration, shot.image_path, shot.video_path, shot.audio_path, shot.duration_sec`

func scanShot(row interface{ Scan(...any) error }) (Shot, error) {
	var sh Shot
	err := row.Scan(&sh.ID, &sh.SceneID, &sh.ProjectID, &sh.Idx, &sh.Size, &sh.Movement,
		&sh.ImagePrompt, &sh.VideoPrompt, &sh.Narration,
		&sh.ImagePath, &sh.VideoPath, &sh.AudioPath, &sh.DurationSec)
	return sh, err
}

func (s *Store) GetShot(id string) (*Shot, error) {
	sh, err := scanShot(s.db.QueryRow(`SELECT `+shotColumns+` FROM shot WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shot: %w", err)
	}
	return &sh, nil
}

func (s *Store) listShots(where string, arg string) ([]Shot, error) {
	rows, err := s.db.Query(`SELECT `+shotColumns+` FROM shot WHERE `+where+` ORDER BY idx`, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list shots: %w", err)
	}
	defer rows.Close()

	var shots []Shot
	for rows.Next() {
		sh, err := scanShot(rows)
		if err != nil {
			return nil, err
		}
		shots = append(shots, sh)
	}
	return shots, rows.Err()
}

func (s *Store) ListShotsByScene(sceneID string) ([]Shot, error) {
	return s.listShots("scene_id = ?", sceneID)
}

// ListShotsByProject returns every shot in the project in timeline order.
func (s *Store) ListShotsByProject(projectID string) ([]Shot, error) {
	rows, err := s.db.Query(
		`SELECT `+shotColumnsQualified+` FROM shot
		 JOIN scene ON shot.scene_id = scene.id
		 WHERE shot.project_id = ? ORDER BY scene.idx, shot.idx`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project shots: %w", err)
	}
	defer rows.Close()

	var shots []Shot
	for rows.Next() {
		sh, err := scanShot(rows)
		if err != nil {
			return nil, err
		}
		shots = append(shots, sh)
	}
	return shots, rows.Err()
}

func (s *Store) UpdateShot(sh *Shot) error {
	res, err := s.db.Exec(
		`UPDATE shot SET size = ?, movement = ?, image_prompt = ?, video_prompt = ?, narration = ?, duration_sec = ? WHERE id = ?`,
		sh.Size, sh.Movement, sh.ImagePrompt, sh.VideoPrompt, sh.Narration, sh.DurationSec, sh.ID)
	if err != nil {
		return fmt.Errorf("failed to update shot: %w", err)
	}
	return requireRow(res)
}

func (s *Store) SetShotImage(id, imagePath string) error {
	return s.setShotPath("image_path", id, imagePath)
}

func (s *Store) SetShotVideo(id, videoPath string) error {
	return s.setShotPath("video_path", id, videoPath)
}

func (s *Store) SetShotAudio(id, audioPath string, durationSec float64) error {
	res, err := s.db.Exec(`UPDATE shot SET audio_path = ?, duration_sec = ? WHERE id = ?`, audioPath, durationSec, id)
	if err != nil {
		return fmt.Errorf("failed to update shot audio: %w", err)
	}
	return requireRow(res)
}

func (s *Store) setShotPath(column, id, path string) error {
	res, err := s.db.Exec(`UPDATE shot SET `+column+` = ? WHERE id = ?`, path, id)
	if err != nil {
		return fmt.Errorf("failed to update shot %s: %w", column, err)
	}
	return requireRow(res)
}

func (s *Store) DeleteShot(id string) error {
	res, err := s.db.Exec(`DELETE FROM shot WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete shot: %w", err)
	}
	return requireRow(res)
}

// ---- tasks ----

func (s *Store) CreateTask(t *Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Status == "" {
		t.Status = TaskStatusPending
	}
	_, err := s.db.Exec(
		`INSERT INTO task (id, project_id, shot_id, type, status, progress, message, result_path, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.ShotID, t.Type, t.Status, t.Progress, t.Message, t.ResultPath, t.Error, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (s *Store) GetTask(id string) (*Task, error) {
	var t Task
	err := s.db.QueryRow(
		`SELECT id, project_id, shot_id, type, status, progress, message, result_path, error, created_at, updated_at FROM task WHERE id = ?`, id).
		Scan(&t.ID, &t.ProjectID, &t.ShotID, &t.Type, &t.Status, &t.Progress, &t.Message, &t.ResultPath, &t.Error, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

// UpdateTask persists status, progress, message, result path and error.
// Terminal statuses are sticky: a canceled or failed task never flips back.
func (s *Store) UpdateTask(t *Task) error {
	res, err := s.db.Exec(
		`UPDATE task SET status = ?, progress = ?, message = ?, result_path = ?, error = ?, updated_at = ?
		 WHERE id = ? AND status NOT IN (?, ?, ?)`,
		t.Status, t.Progress, t.Message, t.ResultPath, t.Error, time.Now().UTC(),
		t.ID, TaskStatusCompleted, TaskStatusFailed, TaskStatusCanceled)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	// Zero rows here means the task already reached a terminal state; the
	// late update is dropped on purpose.
	_, _ = res.RowsAffected()
	return nil
}

// ActiveTasksForShot returns pending/processing tasks attached to a shot.
func (s *Store) ActiveTasksForShot(shotID string) ([]Task, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, shot_id, type, status, progress, message, result_path, error, created_at, updated_at
		 FROM task WHERE shot_id = ? AND status IN (?, ?)`,
		shotID, TaskStatusPending, TaskStatusProcessing)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.ShotID, &t.Type, &t.Status, &t.Progress, &t.Message, &t.ResultPath, &t.Error, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
