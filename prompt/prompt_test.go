package prompt

import (
	"strings"
	"testing"

	"storycut/store"
)

func TestBuildImagePrompt(t *testing.T) {
	shot := store.Shot{
		ID:          "sh1",
		Size:        "WIDE",
		ImagePrompt: "MARA stands at the end of a rain-slicked pier",
		Narration:   "She waited longer than she should have.",
	}
	characters := []store.Character{
		{Name: "MARA", PromptFrag: "a woman in a grey trench coat, mid 40s"},
		{Name: "VICTOR", PromptFrag: "a tall man with a scarred jaw"},
	}

	got, err := BuildImagePrompt(shot, "noir", characters)
	if err != nil {
		t.Fatalf("BuildImagePrompt failed: %v", err)
	}

	if !strings.HasPrefix(got, "wide shot.") {
		t.Errorf("expected wide shot prefix, got: %s", got)
	}
	if !strings.Contains(got, "MARA is a woman in a grey trench coat") {
		t.Errorf("expected MARA fragment, got: %s", got)
	}
	// VICTOR is not in this shot and must not leak into the frame.
	if strings.Contains(got, "VICTOR") {
		t.Errorf("unexpected VICTOR fragment in: %s", got)
	}
	if !strings.Contains(got, "film noir") {
		t.Errorf("expected noir style addition, got: %s", got)
	}
}

func TestBuildImagePromptDefaults(t *testing.T) {
	shot := store.Shot{ID: "sh1", ImagePrompt: "an empty street"}
	got, err := BuildImagePrompt(shot, "", nil)
	if err != nil {
		t.Fatalf("BuildImagePrompt failed: %v", err)
	}
	if !strings.HasPrefix(got, "medium shot.") {
		t.Errorf("expected default medium size, got: %s", got)
	}
}

func TestBuildImagePromptRequiresPrompt(t *testing.T) {
	if _, err := BuildImagePrompt(store.Shot{ID: "sh1"}, "", nil); err == nil {
		t.Error("expected error for empty image prompt")
	}
}

func TestBuildVideoPrompt(t *testing.T) {
	shot := store.Shot{
		ID:          "sh1",
		Movement:    "PUSH-IN",
		VideoPrompt: "Rain intensifies as she turns toward the camera",
	}
	got, err := BuildVideoPrompt(shot)
	if err != nil {
		t.Fatalf("BuildVideoPrompt failed: %v", err)
	}
	if !strings.Contains(got, "Camera: push-in") {
		t.Errorf("expected camera movement, got: %s", got)
	}
	if !strings.Contains(got, "no cuts") {
		t.Errorf("expected continuity constraint, got: %s", got)
	}
}

func TestBuildVideoPromptFallsBackToImagePrompt(t *testing.T) {
	shot := store.Shot{ID: "sh1", ImagePrompt: "a lighthouse in fog"}
	got, err := BuildVideoPrompt(shot)
	if err != nil {
		t.Fatalf("BuildVideoPrompt failed: %v", err)
	}
	if !strings.Contains(got, "a lighthouse in fog") {
		t.Errorf("expected image prompt fallback, got: %s", got)
	}
}

func TestBuildSheetPrompt(t *testing.T) {
	c := store.Character{ID: "c1", Name: "MARA", Description: "a weary detective"}
	got, err := BuildSheetPrompt(c, "anime")
	if err != nil {
		t.Fatalf("BuildSheetPrompt failed: %v", err)
	}
	if !strings.Contains(got, "Character reference sheet for MARA") {
		t.Errorf("unexpected sheet prompt: %s", got)
	}
	if !strings.Contains(got, "anime key visual") {
		t.Errorf("expected anime style, got: %s", got)
	}
}

func TestLookupStyleUnknownPassesThrough(t *testing.T) {
	p := LookupStyle("claymation diorama")
	if p.Addition != "claymation diorama" {
		t.Errorf("expected raw pass-through, got %q", p.Addition)
	}
}

func TestStyleNamesSorted(t *testing.T) {
	names := StyleNames()
	if len(names) < 3 {
		t.Fatalf("expected built-in presets, got %v", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("style names not sorted: %v", names)
		}
	}
}
