// Package prompt assembles the text prompts sent to the image and video
// generation endpoints from shot data, style presets and character sheets.
package prompt

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"storycut/store"
)

// StylePreset names a visual style and the prompt text that enforces it.
type StylePreset struct {
	Name     string
	Addition string
}

// Built-in presets; LookupStyle falls back to treating unknown names as a
// raw prompt addition so projects can carry custom styles.
var presets = map[string]StylePreset{
	"cinematic": {Name: "cinematic", Addition: "cinematic still, anamorphic lens, shallow depth of field, film grain"},
	"noir":      {Name: "noir", Addition: "black and white film noir, hard shadows, venetian blind light, 1940s"},
	"anime":     {Name: "anime", Addition: "anime key visual, clean line art, cel shading, vibrant palette"},
	"storybook": {Name: "storybook", Addition: "watercolor storybook illustration, soft edges, warm light"},
	"concept":   {Name: "concept", Addition: "concept art, matte painting, dramatic lighting, wide dynamic range"},
}

// LookupStyle resolves a style name to a preset.
func LookupStyle(name string) StylePreset {
	if p, ok := presets[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p
	}
	return StylePreset{Name: name, Addition: name}
}

// StyleNames lists the built-in preset names, sorted.
func StyleNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var imageTmpl = template.Must(template.New("image").Parse(
	`{{.Size}} shot. {{.Prompt}}{{if .Characters}} Characters: {{.Characters}}.{{end}}{{if .Style}} Style: {{.Style}}.{{end}}`))

var videoTmpl = template.Must(template.New("video").Parse(
	`{{.Prompt}}{{if .Movement}} Camera: {{.Movement}}, smooth and deliberate.{{end}} The motion is continuous and natural; no cuts, no text, no sound.`))

var sheetTmpl = template.Must(template.New("sheet").Parse(
	`Character reference sheet for {{.Name}}: {{.Description}}. Neutral background, full body and face visible, consistent design.{{if .Style}} Style: {{.Style}}.{{end}}`))

type imageData struct {
	Size       string
	Prompt     string
	Characters string
	Style      string
}

// BuildImagePrompt assembles the still-frame prompt for a shot. Character
// prompt fragments are appended only for characters actually named in the
// shot's prompt or narration, keeping unrelated cast out of the frame.
func BuildImagePrompt(shot store.Shot, style string, characters []store.Character) (string, error) {
	size := shot.Size
	if size == "" {
		size = "MEDIUM"
	}

	var frags []string
	haystack := strings.ToUpper(shot.ImagePrompt + " " + shot.Narration)
	for _, c := range characters {
		if c.Name == "" || c.PromptFrag == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToUpper(c.Name)) {
			frags = append(frags, fmt.Sprintf("%s is %s", c.Name, c.PromptFrag))
		}
	}

	data := imageData{
		Size:       strings.ToLower(size),
		Prompt:     strings.TrimSpace(shot.ImagePrompt),
		Characters: strings.Join(frags, "; "),
		Style:      LookupStyle(style).Addition,
	}
	if data.Prompt == "" {
		return "", fmt.Errorf("shot %s has no image prompt", shot.ID)
	}
	return execute(imageTmpl, data)
}

type videoData struct {
	Prompt   string
	Movement string
}

// BuildVideoPrompt assembles the motion prompt used to animate a shot's image.
func BuildVideoPrompt(shot store.Shot) (string, error) {
	prompt := strings.TrimSpace(shot.VideoPrompt)
	if prompt == "" {
		prompt = strings.TrimSpace(shot.ImagePrompt)
	}
	if prompt == "" {
		return "", fmt.Errorf("shot %s has no video or image prompt", shot.ID)
	}
	return execute(videoTmpl, videoData{Prompt: prompt, Movement: strings.ToLower(shot.Movement)})
}

type sheetData struct {
	Name        string
	Description string
	Style       string
}

// BuildSheetPrompt assembles the character reference sheet prompt.
func BuildSheetPrompt(c store.Character, style string) (string, error) {
	if c.Name == "" {
		return "", fmt.Errorf("character %s has no name", c.ID)
	}
	desc := c.Description
	if desc == "" {
		desc = c.PromptFrag
	}
	if desc == "" {
		return "", fmt.Errorf("character %s has no description", c.Name)
	}
	return execute(sheetTmpl, sheetData{Name: c.Name, Description: desc, Style: LookupStyle(style).Addition})
}

func execute(tmpl *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %v", err)
	}
	return sb.String(), nil
}
