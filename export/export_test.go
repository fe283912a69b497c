package export

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"storycut/store"
)

func TestRational(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{1.0, "24024/24000s"},  // 24 frames
		{4.0, "96096/24000s"},  // 96 frames
		{0.0, "1001/24000s"},   // clamped to one frame
		{-1.0, "1001/24000s"},  // clamped to one frame
		{0.5, "12012/24000s"},  // 12 frames
	}
	for _, tt := range tests {
		if got := rational(tt.seconds); got != tt.want {
			t.Errorf("rational(%v) = %s, want %s", tt.seconds, got, tt.want)
		}
	}
}

func TestRationalFrameAligned(t *testing.T) {
	// Every result must be a whole multiple of the frame duration.
	for _, s := range []float64{0.1, 1.7, 3.33333, 12.345} {
		got := rational(s)
		var num, den int64
		if _, err := fmt.Sscanf(got, "%d/%ds", &num, &den); err != nil {
			t.Fatalf("rational(%v) = %q: %v", s, got, err)
		}
		if num%frameDur != 0 {
			t.Errorf("rational(%v) = %s is not frame aligned", s, got)
		}
	}
}

func writeAsset(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func exportTestProject(t *testing.T) (*Exporter, *store.Store, string) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	p, err := st.CreateProject("Harbor Light", "", "noir")
	if err != nil {
		t.Fatal(err)
	}
	return NewExporter(st, zap.NewNop()), st, p.ID
}

func TestExport(t *testing.T) {
	e, st, projectID := exportTestProject(t)
	assetDir := t.TempDir()

	scenes, err := st.CreateScenes(projectID, []store.Scene{{Heading: "EXT. HARBOR - NIGHT"}})
	if err != nil {
		t.Fatal(err)
	}
	shots, err := st.CreateShots(scenes[0].ID, projectID, []store.Shot{
		{Size: "WIDE", DurationSec: 5},
		{Size: "CLOSE", DurationSec: 3},
		{Size: "MEDIUM"}, // no media: skipped
	})
	if err != nil {
		t.Fatal(err)
	}

	img := writeAsset(t, assetDir, "shot0.png", "png-bytes")
	wav := writeAsset(t, assetDir, "shot0.wav", "wav-bytes")
	vid := writeAsset(t, assetDir, "shot1.mp4", "mp4-bytes")
	if err := st.SetShotImage(shots[0].ID, img); err != nil {
		t.Fatal(err)
	}
	if err := st.SetShotAudio(shots[0].ID, wav, 5); err != nil {
		t.Fatal(err)
	}
	if err := st.SetShotVideo(shots[1].ID, vid); err != nil {
		t.Fatal(err)
	}

	outPath := filepath.Join(t.TempDir(), "harbor.fcpxml")
	if err := e.Export(projectID, outPath); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	content := string(data)

	if !strings.HasPrefix(content, xml.Header) {
		t.Error("missing xml header")
	}
	if !strings.Contains(content, "<!DOCTYPE fcpxml>") {
		t.Error("missing fcpxml doctype")
	}

	var doc FCPXML
	trimmed := content[strings.Index(content, "<fcpxml"):]
	if err := xml.Unmarshal([]byte(trimmed), &doc); err != nil {
		t.Fatalf("output is not valid xml: %v", err)
	}

	// 1 image + 1 audio + 1 video asset.
	if len(doc.Resources.Assets) != 3 {
		t.Fatalf("expected 3 assets, got %d", len(doc.Resources.Assets))
	}

	seq := doc.Library.Events[0].Projects[0].Sequences[0]
	if len(seq.Spine.Videos) != 1 {
		t.Errorf("expected 1 still on the spine, got %d", len(seq.Spine.Videos))
	}
	if len(seq.Spine.AssetClips) != 1 {
		t.Errorf("expected 1 video clip on the spine, got %d", len(seq.Spine.AssetClips))
	}
	// Still shot carries its narration on lane -1.
	if len(seq.Spine.Videos[0].AssetClips) != 1 || seq.Spine.Videos[0].AssetClips[0].Lane != "-1" {
		t.Errorf("expected narration clip on lane -1: %+v", seq.Spine.Videos[0].AssetClips)
	}
	// Sequence spans both exported shots: 5s + 3s = 8s = 192 frames.
	if seq.Duration != "192192/24000s" {
		t.Errorf("unexpected sequence duration: %s", seq.Duration)
	}
	// Second clip starts after the first: 5s = 120 frames.
	if seq.Spine.AssetClips[0].Offset != "120120/24000s" {
		t.Errorf("unexpected video clip offset: %s", seq.Spine.AssetClips[0].Offset)
	}

	// Asset UIDs are content hashes, uppercase hex.
	for _, a := range doc.Resources.Assets {
		if len(a.UID) != 32 || strings.ToUpper(a.UID) != a.UID {
			t.Errorf("asset %s has non-md5 uid %q", a.ID, a.UID)
		}
	}
}

func TestExportEmptyProject(t *testing.T) {
	e, _, projectID := exportTestProject(t)
	err := e.Export(projectID, filepath.Join(t.TempDir(), "out.fcpxml"))
	if err == nil {
		t.Error("expected error for project with no shots")
	}
}

func TestExportNoGeneratedMedia(t *testing.T) {
	e, st, projectID := exportTestProject(t)
	scenes, err := st.CreateScenes(projectID, []store.Scene{{Heading: "INT. NOWHERE"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.CreateShots(scenes[0].ID, projectID, []store.Shot{{Size: "WIDE"}}); err != nil {
		t.Fatal(err)
	}

	err = e.Export(projectID, filepath.Join(t.TempDir(), "out.fcpxml"))
	if err == nil {
		t.Error("expected error when no shot has media")
	}
}
