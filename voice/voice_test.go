package voice

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

// fakeTTS is a shell script standing in for the external TTS command: it
// writes its text argument into the -o target.
func fakeTTS(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	script := filepath.Join(dir, "fake-tts")
	content := `#!/bin/sh
out=""
while [ $# -gt 1 ]; do
  if [ "$1" = "-o" ]; then out="$2"; shift; fi
  shift
done
printf '%s' "$1" > "$out"
`
	if err := os.WriteFile(script, []byte(content), 0755); err != nil {
		t.Fatalf("failed to write fake tts: %v", err)
	}
	return script
}

func TestNarrate(t *testing.T) {
	s := NewSynth(fakeTTS(t), nil, zap.NewNop())
	outPath := filepath.Join(t.TempDir(), "audio", "s000_00.wav")

	if err := s.Narrate("The light had gone out.", outPath); err != nil {
		t.Fatalf("Narrate failed: %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if string(data) != "The light had gone out." {
		t.Errorf("unexpected output: %q", data)
	}
}

func TestNarrateSkipsExisting(t *testing.T) {
	s := NewSynth(fakeTTS(t), nil, zap.NewNop())
	outPath := filepath.Join(t.TempDir(), "existing.wav")
	if err := os.WriteFile(outPath, []byte("original"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := s.Narrate("replacement text", outPath); err != nil {
		t.Fatalf("Narrate failed: %v", err)
	}
	data, _ := os.ReadFile(outPath)
	if string(data) != "original" {
		t.Error("existing narration was overwritten")
	}
}

func TestNarrateEmptyText(t *testing.T) {
	s := NewSynth(fakeTTS(t), nil, zap.NewNop())
	if err := s.Narrate("   ", filepath.Join(t.TempDir(), "x.wav")); err == nil {
		t.Error("expected error for empty narration")
	}
}

func TestNarrateCommandFailure(t *testing.T) {
	s := NewSynth("/nonexistent/tts-binary", nil, zap.NewNop())
	if err := s.Narrate("text", filepath.Join(t.TempDir(), "x.wav")); err == nil {
		t.Error("expected error for missing command")
	}
}

func TestShotAudioName(t *testing.T) {
	tests := []struct {
		sceneIdx, shotIdx int
		want              string
	}{
		{0, 0, "s000_00.wav"},
		{2, 11, "s002_11.wav"},
		{123, 4, "s123_04.wav"},
	}
	for _, tt := range tests {
		if got := ShotAudioName(tt.sceneIdx, tt.shotIdx); got != tt.want {
			t.Errorf("ShotAudioName(%d, %d) = %q, want %q", tt.sceneIdx, tt.shotIdx, got, tt.want)
		}
	}
}
