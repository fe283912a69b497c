// Package preview renders a project's storyboard as a contact-sheet PNG,
// either by screenshotting an HTML sheet in a headless browser or by tiling
// the shot stills directly.
package preview

import (
	"fmt"
	"html/template"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"storycut/store"
	"storycut/storyboard"
)

type Renderer struct {
	logger *zap.Logger
}

func NewRenderer(logger *zap.Logger) *Renderer {
	return &Renderer{logger: logger.Named("preview")}
}

// SheetScene is one scene's block on the contact sheet.
type SheetScene struct {
	Heading string
	Summary string
	Shots   []store.Shot
}

// SheetData feeds the contact-sheet template.
type SheetData struct {
	Title  string
	Scenes []SheetScene
}

var sheetTmpl = template.Must(template.New("sheet").Funcs(template.FuncMap{
	"fileURL": func(path string) string { return "file://" + path },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { background: #111; color: #eee; font-family: sans-serif; margin: 24px; width: 1600px; }
h1 { font-size: 28px; }
h2 { font-size: 18px; color: #9cf; border-bottom: 1px solid #333; padding-bottom: 4px; }
.shots { display: flex; flex-wrap: wrap; gap: 12px; }
.shot { width: 360px; }
.shot img { width: 100%; display: block; background: #222; }
.shot .frame { width: 100%; height: 202px; background: #222; }
.meta { font-size: 12px; color: #aaa; margin-top: 4px; }
.narration { font-size: 12px; font-style: italic; color: #ccc; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Scenes}}
<h2>{{.Heading}}{{if .Summary}} &mdash; {{.Summary}}{{end}}</h2>
<div class="shots">
{{range .Shots}}
<div class="shot">
{{if .ImagePath}}<img src="{{fileURL .ImagePath}}">{{else}}<div class="frame"></div>{{end}}
<div class="meta">#{{.Idx}} {{.Size}}{{if .Movement}} / {{.Movement}}{{end}}</div>
{{if .Narration}}<div class="narration">{{.Narration}}</div>{{end}}
</div>
{{end}}
</div>
{{end}}
</body>
</html>
`))

// BuildHTML assembles the contact-sheet page for a project.
func BuildHTML(project *store.Project, scenes []store.Scene, shotsByScene map[string][]store.Shot) (string, error) {
	data := SheetData{Title: project.Title}
	for _, sc := range scenes {
		data.Scenes = append(data.Scenes, SheetScene{
			Heading: sc.Heading,
			Summary: sc.Summary,
			Shots:   shotsByScene[sc.ID],
		})
	}

	var sb strings.Builder
	if err := sheetTmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render sheet template: %v", err)
	}
	return sb.String(), nil
}

// Render writes the HTML sheet next to outPath, loads it headless and
// screenshots the full page to outPath as PNG.
func (r *Renderer) Render(project *store.Project, scenes []store.Scene, shotsByScene map[string][]store.Shot, outPath string) error {
	html, err := BuildHTML(project, scenes, shotsByScene)
	if err != nil {
		return err
	}

	htmlPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".html"
	if err := os.WriteFile(htmlPath, []byte(html), 0644); err != nil {
		return fmt.Errorf("failed to write sheet html: %v", err)
	}

	sess, err := newSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	abs, err := filepath.Abs(htmlPath)
	if err != nil {
		return err
	}
	if err := sess.open("file://" + abs); err != nil {
		return err
	}

	data, err := sess.screenshot()
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write preview %s: %v", outPath, err)
	}

	r.logger.Info("preview rendered",
		zap.String("path", outPath),
		zap.Int("scenes", len(scenes)))
	return nil
}

// ComposeSheet tiles shot stills into a plain PNG contact sheet without a
// browser. Missing trailing cells are filled with black panels sized like
// the first still; all stills must share dimensions.
func ComposeSheet(imagePaths []string, g storyboard.Grid, outPath string) error {
	if len(imagePaths) == 0 {
		return fmt.Errorf("no images to compose")
	}
	if len(imagePaths) > g.Rows*g.Cols {
		return fmt.Errorf("%d images do not fit a %dx%d grid", len(imagePaths), g.Rows, g.Cols)
	}

	panels := make([]image.Image, 0, g.Rows*g.Cols)
	for _, path := range imagePaths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %v", path, err)
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to decode %s: %v", path, err)
		}
		panels = append(panels, img)
	}

	blank := image.NewRGBA(image.Rect(0, 0, panels[0].Bounds().Dx(), panels[0].Bounds().Dy()))
	for len(panels) < g.Rows*g.Cols {
		panels = append(panels, blank)
	}

	sheet, err := storyboard.Compose(panels, g)
	if err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v", outPath, err)
	}
	defer f.Close()
	if err := png.Encode(f, sheet); err != nil {
		return fmt.Errorf("failed to encode sheet: %v", err)
	}
	return nil
}
