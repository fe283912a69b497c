// Package studio is the orchestration layer: it composes the store, the
// generation clients, the narration synth and the task engine into the
// operations the API and CLI expose.
package studio

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"storycut/config"
	"storycut/export"
	"storycut/generate"
	"storycut/script"
	"storycut/store"
	"storycut/task"
	"storycut/voice"
)

type Studio struct {
	Store     *store.Store
	Engine    *task.Engine
	Images    *generate.ImageClient
	Videos    *generate.VideoClient
	Breakdown *script.Breakdown
	Synth     *voice.Synth
	Exporter  *export.Exporter

	AssetsDir string
	AudioDir  string
	ExportDir string

	logger *zap.Logger
}

// New wires a Studio from config. workers bounds the task pool.
func New(cfg *config.Config, st *store.Store, workers int, logger *zap.Logger) *Studio {
	videos := generate.NewVideoClient(cfg.Video.BaseURL, cfg.Video.APIKey, cfg.Video.Model, logger)
	if cfg.Video.PollInterval > 0 {
		videos.PollInterval = cfg.Video.PollInterval
	}
	if cfg.Video.PollTimeout > 0 {
		videos.PollTimeout = cfg.Video.PollTimeout
	}
	if cfg.Video.MaxRetries > 0 {
		videos.MaxRetries = cfg.Video.MaxRetries
	}

	return &Studio{
		Store:     st,
		Engine:    task.NewEngine(st, workers, logger),
		Images:    generate.NewImageClient(cfg.Image.BaseURL, cfg.Image.APIKey, cfg.Image.Model, cfg.Image.Size, logger),
		Videos:    videos,
		Breakdown: script.NewBreakdown(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, logger),
		Synth:     voice.NewSynth(cfg.Voice.Command, cfg.Voice.Args, logger),
		Exporter:  export.NewExporter(st, logger),
		AssetsDir: cfg.AssetsDir(),
		AudioDir:  cfg.AudioDir(),
		ExportDir: cfg.ExportDir(),
		logger:    logger.Named("studio"),
	}
}

// Close drains the task pool and closes the database.
func (s *Studio) Close() error {
	s.Engine.Shutdown()
	return s.Store.Close()
}

// ImportScript parses screenplay text into scenes and characters and stores
// them on the project. Parsing is deterministic and fast, so this runs
// synchronously; the LLM shot breakdown is a separate task (PlanProject).
func (s *Studio) ImportScript(projectID, text string) ([]store.Scene, error) {
	project, err := s.Store.GetProject(projectID)
	if err != nil {
		return nil, err
	}

	drafts, err := script.ParseScreenplay(text)
	if err != nil {
		return nil, err
	}

	if err := s.Store.SetProjectScript(projectID, text); err != nil {
		return nil, err
	}

	scenes := make([]store.Scene, len(drafts))
	for i, d := range drafts {
		scenes[i] = store.Scene{
			Heading: d.Heading,
			Summary: d.Summary(),
			Body:    d.Body,
		}
	}
	created, err := s.Store.CreateScenes(projectID, scenes)
	if err != nil {
		return nil, err
	}

	if err := s.importCharacters(projectID, drafts); err != nil {
		return nil, err
	}

	s.logger.Info("script imported",
		zap.String("project", project.Title),
		zap.Int("scenes", len(created)))
	return created, nil
}

// importCharacters creates a character record for every cue name not already
// in the project's cast.
func (s *Studio) importCharacters(projectID string, drafts []script.SceneDraft) error {
	existing, err := s.Store.ListCharacters(projectID)
	if err != nil {
		return err
	}
	known := map[string]bool{}
	for _, c := range existing {
		known[strings.ToUpper(c.Name)] = true
	}

	for _, d := range drafts {
		for _, name := range d.Characters {
			key := strings.ToUpper(name)
			if known[key] {
				continue
			}
			known[key] = true
			if err := s.Store.CreateCharacter(&store.Character{ProjectID: projectID, Name: name}); err != nil {
				return err
			}
		}
	}
	return nil
}

// PlanProject submits a task that runs the LLM breakdown over every scene
// that has no shots yet, creating the planned shots.
func (s *Studio) PlanProject(projectID string) (*store.Task, error) {
	project, err := s.Store.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	scenes, err := s.Store.ListScenes(projectID)
	if err != nil {
		return nil, err
	}
	if len(scenes) == 0 {
		return nil, fmt.Errorf("project %q has no scenes; import a script first", project.Title)
	}

	t := &store.Task{ProjectID: projectID, Type: store.TaskTypeScriptImport}
	return s.Engine.Submit(t, func(ctx context.Context, report task.Report) (string, error) {
		planned := 0
		for i, scene := range scenes {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			existing, err := s.Store.ListShotsByScene(scene.ID)
			if err != nil {
				return "", err
			}
			if len(existing) > 0 {
				continue
			}

			report(i*100/len(scenes), fmt.Sprintf("planning scene %d/%d", i+1, len(scenes)))
			plan, err := s.Breakdown.PlanScene(ctx, scene.Heading, scene.Body)
			if err != nil {
				return "", fmt.Errorf("scene %d (%s): %w", scene.Idx, scene.Heading, err)
			}

			shots := make([]store.Shot, len(plan.Shots))
			for j, sp := range plan.Shots {
				shots[j] = store.Shot{
					Size:        sp.Size,
					Movement:    sp.Movement,
					ImagePrompt: sp.ImagePrompt,
					VideoPrompt: sp.VideoPrompt,
					Narration:   sp.Narration,
					DurationSec: sp.DurationSec,
				}
			}
			if _, err := s.Store.CreateShots(scene.ID, projectID, shots); err != nil {
				return "", err
			}
			if plan.Summary != "" {
				scene.Summary = plan.Summary
				if err := s.Store.UpdateScene(&scene); err != nil {
					return "", err
				}
			}
			planned++
		}
		return "", s.noteIfEmpty(planned, "all scenes already have shots")
	})
}

func (s *Studio) noteIfEmpty(n int, msg string) error {
	if n == 0 {
		s.logger.Info(msg)
	}
	return nil
}

// ExportProject submits a task writing the project's FCPXML timeline under
// the export dir. Returns the task; the result path is on the finished task.
func (s *Studio) ExportProject(projectID string) (*store.Task, error) {
	project, err := s.Store.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	outPath := filepath.Join(s.ExportDir, slug(project.Title)+".fcpxml")

	t := &store.Task{ProjectID: projectID, Type: store.TaskTypeExportProject}
	return s.Engine.Submit(t, func(ctx context.Context, report task.Report) (string, error) {
		report(10, "building timeline")
		if err := s.Exporter.Export(projectID, outPath); err != nil {
			return "", err
		}
		return outPath, nil
	})
}

// slug turns a project title into a safe filename stem.
func slug(title string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			sb.WriteRune('_')
		}
	}
	if sb.Len() == 0 {
		return "project"
	}
	return sb.String()
}
