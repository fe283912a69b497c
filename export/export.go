package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"storycut/store"
)

// Timeline timebase. 23.976 fps: one frame is 1001/24000s, matching what
// Final Cut writes for its own projects.
const (
	timebase = 24000
	frameDur = 1001
)

// rational renders seconds as a frame-boundary-aligned rational duration.
func rational(seconds float64) string {
	frames := int64(seconds*float64(timebase)/float64(frameDur) + 0.5)
	if frames < 1 {
		frames = 1
	}
	return fmt.Sprintf("%d/%ds", frames*frameDur, timebase)
}

// defaultShotSeconds is used for shots with no narration to pace them.
const defaultShotSeconds = 4.0

// Exporter builds FCPXML timelines from stored projects.
type Exporter struct {
	store  *store.Store
	logger *zap.Logger
}

func NewExporter(st *store.Store, logger *zap.Logger) *Exporter {
	return &Exporter{store: st, logger: logger.Named("export")}
}

// Export writes the project's timeline to outPath. Every shot becomes a
// spine element: its generated video clip when one exists, otherwise its
// still image held for the narration duration. Narration audio is attached
// on lane -1. Shots with no generated media are skipped with a warning.
func (e *Exporter) Export(projectID, outPath string) error {
	project, err := e.store.GetProject(projectID)
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}
	shots, err := e.store.ListShotsByProject(projectID)
	if err != nil {
		return fmt.Errorf("failed to load shots: %w", err)
	}
	if len(shots) == 0 {
		return fmt.Errorf("project %q has no shots to export", project.Title)
	}

	doc := &FCPXML{
		Version: "1.13",
		Resources: Resources{
			Formats: []Format{
				{
					ID:            "r1",
					Name:          "FFVideoFormat1080p2398",
					FrameDuration: fmt.Sprintf("%d/%ds", frameDur, timebase),
					Width:         "1920",
					Height:        "1080",
					ColorSpace:    "1-1-1 (Rec. 709)",
				},
				{
					ID:         "r2",
					Name:       "FFVideoFormatRateUndefined",
					Width:      "1920",
					Height:     "1080",
					ColorSpace: "1-13-1",
				},
			},
		},
	}

	var spine Spine
	var offset float64
	assetID := 2 // r1/r2 are the formats
	skipped := 0

	for _, shot := range shots {
		seconds := shot.DurationSec
		if seconds <= 0 {
			seconds = defaultShotSeconds
		}

		mediaPath := shot.VideoPath
		isVideo := mediaPath != ""
		if !isVideo {
			mediaPath = shot.ImagePath
		}
		if mediaPath == "" {
			e.logger.Warn("shot has no generated media, skipping",
				zap.String("shot_id", shot.ID),
				zap.Int("idx", shot.Idx))
			skipped++
			continue
		}

		assetID++
		ref := fmt.Sprintf("r%d", assetID)
		asset, err := e.makeAsset(ref, mediaPath, seconds, isVideo)
		if err != nil {
			return fmt.Errorf("failed to build asset for shot %s: %w", shot.ID, err)
		}
		doc.Resources.Assets = append(doc.Resources.Assets, asset)

		var audioClip *AssetClip
		if shot.AudioPath != "" {
			assetID++
			audioRef := fmt.Sprintf("r%d", assetID)
			audioAsset, err := e.makeAudioAsset(audioRef, shot.AudioPath, seconds)
			if err != nil {
				return fmt.Errorf("failed to build audio asset for shot %s: %w", shot.ID, err)
			}
			doc.Resources.Assets = append(doc.Resources.Assets, audioAsset)
			audioClip = &AssetClip{
				Ref:      audioRef,
				Lane:     "-1",
				Offset:   "0s",
				Name:     clipName(shot.AudioPath),
				Duration: rational(seconds),
			}
		}

		if isVideo {
			clip := AssetClip{
				Ref:      ref,
				Offset:   rational(offset),
				Name:     clipName(mediaPath),
				Duration: rational(seconds),
			}
			spine.AssetClips = append(spine.AssetClips, clip)
			// FCP nests connected audio inside the primary clip; for
			// video shots the narration is muxed separately, keep the
			// audio as its own lane -1 clip anchored at the same offset.
			if audioClip != nil {
				audioClip.Offset = rational(offset)
				spine.AssetClips = append(spine.AssetClips, *audioClip)
			}
		} else {
			video := Video{
				Ref:      ref,
				Offset:   rational(offset),
				Name:     clipName(mediaPath),
				Duration: rational(seconds),
			}
			if audioClip != nil {
				video.AssetClips = append(video.AssetClips, *audioClip)
			}
			spine.Videos = append(spine.Videos, video)
		}

		offset += seconds
	}

	if assetID == 2 {
		return fmt.Errorf("project %q has no generated media yet; run generate first", project.Title)
	}

	doc.Library.Events = []Event{{
		Name: project.Title,
		Projects: []Project{{
			Name: project.Title,
			Sequences: []Sequence{{
				Format:      "r1",
				Duration:    rational(offset),
				TCStart:     "0s",
				TCFormat:    "NDF",
				AudioLayout: "stereo",
				AudioRate:   "48k",
				Spine:       spine,
			}},
		}},
	}}

	if err := doc.WriteFile(outPath); err != nil {
		return err
	}
	e.logger.Info("timeline exported",
		zap.String("project", project.Title),
		zap.String("path", outPath),
		zap.Int("shots", len(shots)-skipped),
		zap.Int("skipped", skipped),
		zap.Float64("duration_sec", offset))
	return nil
}

func (e *Exporter) makeAsset(ref, path string, seconds float64, isVideo bool) (Asset, error) {
	uid, err := mediaUID(path)
	if err != nil {
		return Asset{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Asset{}, err
	}

	asset := Asset{
		ID:       ref,
		Name:     clipName(path),
		UID:      uid,
		Start:    "0s",
		HasVideo: "1",
		Format:   "r2",
		MediaRep: MediaRep{Kind: "original-media", Sig: uid, Src: "file://" + abs},
	}
	if isVideo {
		asset.Duration = rational(seconds)
	} else {
		// Still images carry a zero duration; the clip stretches them.
		asset.Duration = "0s"
	}
	return asset, nil
}

func (e *Exporter) makeAudioAsset(ref, path string, seconds float64) (Asset, error) {
	uid, err := mediaUID(path)
	if err != nil {
		return Asset{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Asset{}, err
	}
	return Asset{
		ID:            ref,
		Name:          clipName(path),
		UID:           uid,
		Start:         "0s",
		Duration:      rational(seconds),
		HasAudio:      "1",
		AudioSources:  "1",
		AudioChannels: "2",
		MediaRep:      MediaRep{Kind: "original-media", Sig: uid, Src: "file://" + abs},
	}, nil
}

func clipName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
