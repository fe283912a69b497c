// Package storyboard slices contact-sheet images into per-panel images
// using a fixed uniform grid, and composes sheets back from panels.
package storyboard

import (
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

// Grid describes a fixed uniform slicing of a contact sheet.
type Grid struct {
	Rows int
	Cols int
}

func (g Grid) validate() error {
	if g.Rows < 1 || g.Cols < 1 {
		return fmt.Errorf("invalid grid %dx%d: rows and cols must be positive", g.Rows, g.Cols)
	}
	return nil
}

// Cell is one panel's position in the sheet plus its pixel bounds.
type Cell struct {
	Row    int
	Col    int
	Bounds image.Rectangle
}

// Index returns the row-major panel index.
func (c Cell) Index(g Grid) int { return c.Row*g.Cols + c.Col }

// Layout computes the pixel bounds of every cell for an image of the given
// size. Cells are uniform; when the dimensions do not divide evenly the
// remainder pixels go to the last column and last row so the cells tile the
// image exactly.
func Layout(width, height int, g Grid) ([]Cell, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	if width < g.Cols || height < g.Rows {
		return nil, fmt.Errorf("image %dx%d too small for %dx%d grid", width, height, g.Rows, g.Cols)
	}

	cellW := width / g.Cols
	cellH := height / g.Rows

	cells := make([]Cell, 0, g.Rows*g.Cols)
	for row := 0; row < g.Rows; row++ {
		y0 := row * cellH
		y1 := y0 + cellH
		if row == g.Rows-1 {
			y1 = height
		}
		for col := 0; col < g.Cols; col++ {
			x0 := col * cellW
			x1 := x0 + cellW
			if col == g.Cols-1 {
				x1 = width
			}
			cells = append(cells, Cell{
				Row:    row,
				Col:    col,
				Bounds: image.Rect(x0, y0, x1, y1),
			})
		}
	}
	return cells, nil
}

// Split slices img into row-major panels.
func Split(img image.Image, g Grid) ([]image.Image, error) {
	b := img.Bounds()
	cells, err := Layout(b.Dx(), b.Dy(), g)
	if err != nil {
		return nil, err
	}

	panels := make([]image.Image, len(cells))
	for i, cell := range cells {
		dst := image.NewRGBA(image.Rect(0, 0, cell.Bounds.Dx(), cell.Bounds.Dy()))
		src := cell.Bounds.Add(b.Min)
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Src)
		panels[i] = dst
	}
	return panels, nil
}

// SplitFile decodes the sheet at inputPath, splits it, and writes one file
// per panel into outDir named <base>_r<row>c<col> with the same extension.
// It returns the written paths in row-major order.
func SplitFile(inputPath, outDir string, g Grid) ([]string, error) {
	img, format, err := decodeImage(inputPath)
	if err != nil {
		return nil, err
	}

	panels, err := Split(img, g)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %v", err)
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	ext := ".png"
	if format == "jpeg" {
		ext = ".jpg"
	}

	paths := make([]string, len(panels))
	for i, panel := range panels {
		row, col := i/g.Cols, i%g.Cols
		path := filepath.Join(outDir, fmt.Sprintf("%s_r%dc%d%s", base, row, col, ext))
		if err := encodeImage(path, panel, format); err != nil {
			return nil, err
		}
		paths[i] = path
	}
	return paths, nil
}

// Compose is the inverse of Split: it tiles panels (row-major) into a single
// sheet. All panels in a row must share a height and all panels in a column
// must share a width; Compose lays them out edge to edge.
func Compose(panels []image.Image, g Grid) (image.Image, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	if len(panels) != g.Rows*g.Cols {
		return nil, fmt.Errorf("panel count %d does not match %dx%d grid", len(panels), g.Rows, g.Cols)
	}

	// Column widths from the first row, row heights from the first column.
	colW := make([]int, g.Cols)
	rowH := make([]int, g.Rows)
	for col := 0; col < g.Cols; col++ {
		colW[col] = panels[col].Bounds().Dx()
	}
	for row := 0; row < g.Rows; row++ {
		rowH[row] = panels[row*g.Cols].Bounds().Dy()
	}

	width, height := 0, 0
	for _, w := range colW {
		width += w
	}
	for _, h := range rowH {
		height += h
	}

	sheet := image.NewRGBA(image.Rect(0, 0, width, height))
	y := 0
	for row := 0; row < g.Rows; row++ {
		x := 0
		for col := 0; col < g.Cols; col++ {
			panel := panels[row*g.Cols+col]
			pb := panel.Bounds()
			if pb.Dx() != colW[col] || pb.Dy() != rowH[row] {
				return nil, fmt.Errorf("panel r%dc%d is %dx%d, expected %dx%d",
					row, col, pb.Dx(), pb.Dy(), colW[col], rowH[row])
			}
			draw.Draw(sheet, image.Rect(x, y, x+colW[col], y+rowH[row]), panel, pb.Min, draw.Src)
			x += colW[col]
		}
		y += rowH[row]
	}
	return sheet, nil
}

func decodeImage(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image: %v", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image %s: %v", path, err)
	}
	if format != "png" && format != "jpeg" {
		return nil, "", fmt.Errorf("unsupported image format %q (want png or jpeg)", format)
	}
	return img, format, nil
}

func encodeImage(path string, img image.Image, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v", path, err)
	}
	defer f.Close()

	switch format {
	case "jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 92})
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %v", path, err)
	}
	return nil
}
