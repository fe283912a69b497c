package studio

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storycut/generate"
	"storycut/prompt"
	"storycut/store"
	"storycut/task"
	"storycut/voice"
)

// sceneBatchParallelism bounds concurrent shot generations within one batch
// task, on top of the engine-level worker bound.
const sceneBatchParallelism = 2

func (s *Studio) shotImagePath(shotID string) string {
	return filepath.Join(s.AssetsDir, shotID+".png")
}

func (s *Studio) shotVideoPath(shotID string) string {
	return filepath.Join(s.AssetsDir, shotID+".mp4")
}

// GenerateShotImage submits a task rendering the shot's still frame.
func (s *Studio) GenerateShotImage(shotID string) (*store.Task, error) {
	shot, err := s.Store.GetShot(shotID)
	if err != nil {
		return nil, err
	}
	t := &store.Task{ProjectID: shot.ProjectID, ShotID: shot.ID, Type: store.TaskTypeShotImage}
	return s.Engine.Submit(t, func(ctx context.Context, report task.Report) (string, error) {
		report(10, "building prompt")
		return s.renderShotImage(ctx, shot)
	})
}

func (s *Studio) renderShotImage(ctx context.Context, shot *store.Shot) (string, error) {
	project, err := s.Store.GetProject(shot.ProjectID)
	if err != nil {
		return "", err
	}
	characters, err := s.Store.ListCharacters(shot.ProjectID)
	if err != nil {
		return "", err
	}
	p, err := prompt.BuildImagePrompt(*shot, project.Style, characters)
	if err != nil {
		return "", err
	}

	outPath := s.shotImagePath(shot.ID)
	if err := s.Images.Generate(ctx, p, outPath); err != nil {
		return "", err
	}
	if err := s.Store.SetShotImage(shot.ID, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// GenerateShotVideo submits a task animating the shot: submit the vendor job
// from the shot's image, poll until it finishes, download and record the clip.
func (s *Studio) GenerateShotVideo(shotID string) (*store.Task, error) {
	shot, err := s.Store.GetShot(shotID)
	if err != nil {
		return nil, err
	}
	if shot.ImagePath == "" {
		return nil, fmt.Errorf("shot %s has no image yet; generate the still first", shotID)
	}

	t := &store.Task{ProjectID: shot.ProjectID, ShotID: shot.ID, Type: store.TaskTypeShotVideo}
	return s.Engine.Submit(t, func(ctx context.Context, report task.Report) (string, error) {
		p, err := prompt.BuildVideoPrompt(*shot)
		if err != nil {
			return "", err
		}

		report(5, "submitting video job")
		job, err := s.Videos.Submit(ctx, p, shot.ImagePath)
		if err != nil {
			return "", err
		}

		outPath := s.shotVideoPath(shot.ID)
		err = s.Videos.WaitForVideo(ctx, job.ID, outPath, func(state generate.State) {
			switch state {
			case generate.StateQueued:
				report(10, "queued at vendor")
			case generate.StateRunning:
				report(50, "rendering")
			}
		})
		if err != nil {
			// Tell the vendor to stop if we bailed out first.
			if ctx.Err() != nil {
				_ = s.Videos.Cancel(context.Background(), job.ID)
			}
			return "", err
		}

		if err := s.Store.SetShotVideo(shot.ID, outPath); err != nil {
			return "", err
		}
		return outPath, nil
	})
}

// GenerateSceneBatch submits one task rendering stills for every shot in the
// scene that has none, a bounded number at a time.
func (s *Studio) GenerateSceneBatch(sceneID string) (*store.Task, error) {
	scene, err := s.Store.GetScene(sceneID)
	if err != nil {
		return nil, err
	}
	shots, err := s.Store.ListShotsByScene(sceneID)
	if err != nil {
		return nil, err
	}
	if len(shots) == 0 {
		return nil, fmt.Errorf("scene %q has no shots to generate", scene.Heading)
	}

	t := &store.Task{ProjectID: scene.ProjectID, Type: store.TaskTypeSceneBatch}
	return s.Engine.Submit(t, func(ctx context.Context, report task.Report) (string, error) {
		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(sceneBatchParallelism)

		done := make(chan int, len(shots))
		for i := range shots {
			shot := shots[i]
			if shot.ImagePath != "" {
				done <- 1
				continue
			}
			g.Go(func() error {
				if _, err := s.renderShotImage(ctx, &shot); err != nil {
					return fmt.Errorf("shot %d: %w", shot.Idx, err)
				}
				done <- 1
				return nil
			})
		}

		// Progress reporting rides on the completion channel so the task
		// record moves while the group is still running.
		go func() {
			finished := 0
			for range done {
				finished++
				report(finished*100/len(shots), fmt.Sprintf("%d/%d shots done", finished, len(shots)))
			}
		}()

		err := g.Wait()
		close(done)
		if err != nil {
			return "", err
		}
		return "", nil
	})
}

// GenerateCharacterSheet submits a task rendering a character's reference sheet.
func (s *Studio) GenerateCharacterSheet(characterID string) (*store.Task, error) {
	c, err := s.Store.GetCharacter(characterID)
	if err != nil {
		return nil, err
	}
	project, err := s.Store.GetProject(c.ProjectID)
	if err != nil {
		return nil, err
	}
	p, err := prompt.BuildSheetPrompt(*c, project.Style)
	if err != nil {
		return nil, err
	}

	t := &store.Task{ProjectID: c.ProjectID, Type: store.TaskTypeCharacterArt}
	return s.Engine.Submit(t, func(ctx context.Context, report task.Report) (string, error) {
		outPath := filepath.Join(s.AssetsDir, "sheet_"+c.ID+".png")
		report(10, "rendering sheet")
		if err := s.Images.Generate(ctx, p, outPath); err != nil {
			return "", err
		}
		if err := s.Store.SetCharacterSheet(c.ID, outPath); err != nil {
			return "", err
		}
		return outPath, nil
	})
}

// NarrateProject submits a task voicing every shot with narration text and
// recording each clip's probed duration on the shot.
func (s *Studio) NarrateProject(projectID string) (*store.Task, error) {
	shots, err := s.Store.ListShotsByProject(projectID)
	if err != nil {
		return nil, err
	}

	var pending []store.Shot
	for _, shot := range shots {
		if shot.Narration != "" {
			pending = append(pending, shot)
		}
	}
	if len(pending) == 0 {
		return nil, fmt.Errorf("no shots with narration in project %s", projectID)
	}

	t := &store.Task{ProjectID: projectID, Type: store.TaskTypeVoiceNarrate}
	return s.Engine.Submit(t, func(ctx context.Context, report task.Report) (string, error) {
		scenes, err := s.Store.ListScenes(projectID)
		if err != nil {
			return "", err
		}
		sceneIdx := map[string]int{}
		for _, sc := range scenes {
			sceneIdx[sc.ID] = sc.Idx
		}

		for i, shot := range pending {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			report(i*100/len(pending), fmt.Sprintf("narrating %d/%d", i+1, len(pending)))

			outPath := filepath.Join(s.AudioDir, voice.ShotAudioName(sceneIdx[shot.SceneID], shot.Idx))
			if err := s.Synth.Narrate(shot.Narration, outPath); err != nil {
				return "", fmt.Errorf("shot %d: %w", shot.Idx, err)
			}

			seconds, err := voice.Duration(outPath)
			if err != nil {
				// Keep the planned duration when ffprobe is unavailable.
				s.logger.Warn("duration probe failed, keeping planned duration",
					zap.String("path", outPath), zap.Error(err))
				seconds = shot.DurationSec
			}
			if err := s.Store.SetShotAudio(shot.ID, outPath, seconds); err != nil {
				return "", err
			}
		}
		return s.AudioDir, nil
	})
}
