// Package voice renders shot narration to audio by shelling out to an
// external TTS command, and probes durations with ffprobe.
package voice

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Synth runs an external text-to-speech command. The command receives the
// text as its last argument after an -o <output> pair, matching the
// say/chatterbox CLI shape; extra args come from config.
type Synth struct {
	Command string
	Args    []string
	logger  *zap.Logger
}

func NewSynth(command string, args []string, logger *zap.Logger) *Synth {
	return &Synth{Command: command, Args: args, logger: logger.Named("voice")}
}

// Narrate renders text to outPath. An existing non-empty file is kept, so
// re-running narration for a project only fills gaps.
func (s *Synth) Narrate(text, outPath string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("narration text is empty")
	}
	if info, err := os.Stat(outPath); err == nil && info.Size() > 0 {
		s.logger.Debug("narration exists, skipping", zap.String("path", outPath))
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("failed to create audio directory: %v", err)
	}

	args := append(append([]string{}, s.Args...), "-o", outPath, text)
	cmd := exec.Command(s.Command, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("tts command failed: %v (output: %s)", err, strings.TrimSpace(string(output)))
	}
	if _, err := os.Stat(outPath); err != nil {
		return fmt.Errorf("tts command produced no output file: %s", outPath)
	}

	s.logger.Info("narration rendered", zap.String("path", outPath))
	return nil
}

// Duration returns the length of an audio file in seconds via ffprobe.
func Duration(audioPath string) (float64, error) {
	cmd := exec.Command("ffprobe", "-v", "quiet", "-print_format", "json", "-show_entries", "format=duration", audioPath)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to run ffprobe: %v", err)
	}

	var result struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &result); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %v", err)
	}

	duration, err := strconv.ParseFloat(result.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %v", err)
	}
	return duration, nil
}

// ShotAudioName is the stable audio filename for a shot, ordered by scene
// and shot index so a directory listing matches timeline order.
func ShotAudioName(sceneIdx, shotIdx int) string {
	return fmt.Sprintf("s%03d_%02d.wav", sceneIdx, shotIdx)
}
