package storyboard

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// gradientImage gives every pixel a unique color derived from its
// coordinates so slicing mistakes show up as value mismatches.
func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: uint8((x + y) % 256), A: 255})
		}
	}
	return img
}

func TestLayoutEvenGrid(t *testing.T) {
	cells, err := Layout(300, 200, Grid{Rows: 2, Cols: 3})
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}
	if len(cells) != 6 {
		t.Fatalf("expected 6 cells, got %d", len(cells))
	}

	// Every cell should be exactly 100x100.
	for _, c := range cells {
		if c.Bounds.Dx() != 100 || c.Bounds.Dy() != 100 {
			t.Errorf("cell r%dc%d is %dx%d, expected 100x100", c.Row, c.Col, c.Bounds.Dx(), c.Bounds.Dy())
		}
	}
	if cells[4].Bounds != image.Rect(100, 100, 200, 200) {
		t.Errorf("cell r1c1 bounds wrong: %v", cells[4].Bounds)
	}
}

func TestLayoutRemainderGoesToTrailingEdges(t *testing.T) {
	// 10 % 3 = 1 extra pixel in both dimensions.
	cells, err := Layout(10, 10, Grid{Rows: 3, Cols: 3})
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}

	last := cells[len(cells)-1]
	if last.Bounds.Dx() != 4 || last.Bounds.Dy() != 4 {
		t.Errorf("last cell is %dx%d, expected 4x4", last.Bounds.Dx(), last.Bounds.Dy())
	}
	if cells[0].Bounds.Dx() != 3 || cells[0].Bounds.Dy() != 3 {
		t.Errorf("first cell is %dx%d, expected 3x3", cells[0].Bounds.Dx(), cells[0].Bounds.Dy())
	}

	// The union of cells must tile the image exactly: area check.
	area := 0
	for _, c := range cells {
		area += c.Bounds.Dx() * c.Bounds.Dy()
	}
	if area != 100 {
		t.Errorf("cells cover %d pixels, expected 100", area)
	}
	if last.Bounds.Max.X != 10 || last.Bounds.Max.Y != 10 {
		t.Errorf("last cell does not reach image edge: %v", last.Bounds)
	}
}

func TestLayoutRejectsBadInput(t *testing.T) {
	if _, err := Layout(100, 100, Grid{Rows: 0, Cols: 3}); err == nil {
		t.Error("expected error for zero rows")
	}
	if _, err := Layout(2, 100, Grid{Rows: 3, Cols: 3}); err == nil {
		t.Error("expected error for image narrower than grid")
	}
}

func TestSplitIdentity(t *testing.T) {
	src := gradientImage(50, 40)
	panels, err := Split(src, Grid{Rows: 1, Cols: 1})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(panels) != 1 {
		t.Fatalf("expected 1 panel, got %d", len(panels))
	}
	if panels[0].Bounds().Dx() != 50 || panels[0].Bounds().Dy() != 40 {
		t.Errorf("1x1 split changed dimensions: %v", panels[0].Bounds())
	}
}

func TestSplitComposeRoundTrip(t *testing.T) {
	grid := Grid{Rows: 2, Cols: 3}
	src := gradientImage(91, 53) // deliberately not divisible

	panels, err := Split(src, grid)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	sheet, err := Compose(panels, grid)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	if sheet.Bounds() != src.Bounds() {
		t.Fatalf("round trip changed bounds: %v vs %v", sheet.Bounds(), src.Bounds())
	}
	for y := 0; y < 53; y++ {
		for x := 0; x < 91; x++ {
			r1, g1, b1, _ := src.At(x, y).RGBA()
			r2, g2, b2, _ := sheet.At(x, y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 {
				t.Fatalf("pixel (%d,%d) changed in round trip", x, y)
			}
		}
	}
}

func TestSplitPanelContents(t *testing.T) {
	src := gradientImage(100, 100)
	panels, err := Split(src, Grid{Rows: 2, Cols: 2})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	// Panel 3 (r1c1) origin should match source pixel (50,50).
	r1, g1, b1, _ := src.At(50, 50).RGBA()
	r2, g2, b2, _ := panels[3].At(0, 0).RGBA()
	if r1 != r2 || g1 != g2 || b1 != b2 {
		t.Error("panel r1c1 does not start at source (50,50)")
	}
}

func TestSplitFile(t *testing.T) {
	tempDir := t.TempDir()
	sheetPath := filepath.Join(tempDir, "sheet.png")

	f, err := os.Create(sheetPath)
	if err != nil {
		t.Fatalf("failed to create sheet file: %v", err)
	}
	if err := png.Encode(f, gradientImage(60, 60)); err != nil {
		t.Fatalf("failed to encode sheet: %v", err)
	}
	f.Close()

	outDir := filepath.Join(tempDir, "panels")
	paths, err := SplitFile(sheetPath, outDir, Grid{Rows: 3, Cols: 2})
	if err != nil {
		t.Fatalf("SplitFile failed: %v", err)
	}
	if len(paths) != 6 {
		t.Fatalf("expected 6 panel files, got %d", len(paths))
	}
	if filepath.Base(paths[0]) != "sheet_r0c0.png" {
		t.Errorf("unexpected first panel name: %s", filepath.Base(paths[0]))
	}
	if filepath.Base(paths[5]) != "sheet_r2c1.png" {
		t.Errorf("unexpected last panel name: %s", filepath.Base(paths[5]))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("panel file missing: %v", err)
		}
	}
}

func TestComposeRejectsMismatchedPanels(t *testing.T) {
	panels := []image.Image{
		gradientImage(10, 10), gradientImage(10, 10),
		gradientImage(10, 10), gradientImage(12, 10), // wrong width
	}
	if _, err := Compose(panels, Grid{Rows: 2, Cols: 2}); err == nil {
		t.Error("expected error for mismatched panel width")
	}
	if _, err := Compose(panels[:3], Grid{Rows: 2, Cols: 2}); err == nil {
		t.Error("expected error for wrong panel count")
	}
}
