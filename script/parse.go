// Package script turns screenplay text into scene drafts and, with an LLM,
// into per-shot generation plans.
package script

import (
	"bufio"
	"fmt"
	"strings"
)

// SceneDraft is one scene as cut from the screenplay text.
type SceneDraft struct {
	Heading    string
	Body       string
	Characters []string
}

var headingPrefixes = []string{"INT.", "EXT.", "INT/EXT.", "EXT/INT.", "INT ", "EXT "}

func isSceneHeading(line string) bool {
	upper := strings.ToUpper(strings.TrimSpace(line))
	for _, p := range headingPrefixes {
		if strings.HasPrefix(upper, p) {
			return true
		}
	}
	return false
}

// isCharacterCue detects screenplay character cue lines: short, fully
// uppercase, no terminal punctuation. Parentheticals like (V.O.) are allowed.
func isCharacterCue(line string) bool {
	if isSceneHeading(line) {
		return false
	}
	s := strings.TrimSpace(line)
	if i := strings.Index(s, "("); i > 0 {
		s = strings.TrimSpace(s[:i])
	}
	if s == "" || len(s) > 30 {
		return false
	}
	if strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?") || strings.HasSuffix(s, ":") {
		return false
	}
	hasLetter := false
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= 'a' && r <= 'z':
			return false
		case r >= '0' && r <= '9', r == ' ', r == '\'', r == '-', r == '.':
		default:
			return false
		}
	}
	return hasLetter
}

// ParseScreenplay splits plain-text screenplay into scenes at INT./EXT.
// headings. Text before the first heading becomes a scene with an empty
// heading so nothing is dropped. Character names are collected from cue
// lines within each scene.
func ParseScreenplay(text string) ([]SceneDraft, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("screenplay text is empty")
	}

	var scenes []SceneDraft
	var current *SceneDraft
	var body []string
	seen := map[string]bool{}

	flush := func() {
		if current == nil {
			return
		}
		current.Body = strings.TrimSpace(strings.Join(body, "\n"))
		if current.Body != "" || current.Heading != "" {
			scenes = append(scenes, *current)
		}
		body = body[:0]
		seen = map[string]bool{}
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if isSceneHeading(line) {
			flush()
			current = &SceneDraft{Heading: strings.ToUpper(strings.TrimSpace(line))}
			continue
		}
		if current == nil {
			current = &SceneDraft{}
		}
		if isCharacterCue(line) {
			name := strings.TrimSpace(line)
			if i := strings.Index(name, "("); i > 0 {
				name = strings.TrimSpace(name[:i])
			}
			if !seen[name] && !isTransition(name) {
				seen[name] = true
				current.Characters = append(current.Characters, name)
			}
		}
		body = append(body, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan screenplay: %w", err)
	}
	flush()

	if len(scenes) == 0 {
		return nil, fmt.Errorf("no scenes found in screenplay")
	}
	return scenes, nil
}

var transitions = map[string]bool{
	"FADE IN":   true,
	"FADE OUT":  true,
	"CUT TO":    true,
	"DISSOLVE":  true,
	"SMASH CUT": true,
	"THE END":   true,
	"CONTINUED": true,
}

func isTransition(s string) bool {
	s = strings.TrimSuffix(strings.TrimSpace(s), ":")
	s = strings.TrimSuffix(s, ".")
	return transitions[s]
}

// Summary derives a short scene summary from the first action line.
func (d SceneDraft) Summary() string {
	for _, line := range strings.Split(d.Body, "\n") {
		s := strings.TrimSpace(line)
		if s == "" || isCharacterCue(s) {
			continue
		}
		if len(s) > 140 {
			return s[:140]
		}
		return s
	}
	return d.Heading
}
