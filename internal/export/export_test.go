package export

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func checker() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 128})
	img.SetNRGBA(0, 1, color.NRGBA{B: 255, A: 255})
	return img
}

func TestScale(t *testing.T) {
	img := checker()

	if got := Scale(img, 1); got != image.Image(img) {
		t.Error("scale 1 should return the input")
	}

	big := Scale(img, 3)
	if big.Bounds().Dx() != 6 || big.Bounds().Dy() != 6 {
		t.Fatalf("expected 6x6, got %v", big.Bounds())
	}

	tests := []struct {
		x, y int
		want color.NRGBA
	}{
		{0, 0, color.NRGBA{R: 255, A: 255}},
		{2, 2, color.NRGBA{R: 255, A: 255}},
		{3, 0, color.NRGBA{G: 255, A: 128}},
		{5, 2, color.NRGBA{G: 255, A: 128}},
		{1, 4, color.NRGBA{B: 255, A: 255}},
		{4, 4, color.NRGBA{}},
	}
	for _, tt := range tests {
		got := color.NRGBAModel.Convert(big.At(tt.x, tt.y)).(color.NRGBA)
		if got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, checker(), 2); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 4 {
		t.Errorf("expected 4x4 PNG, got %v", img.Bounds())
	}
}

func TestEncodeEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, image.NewNRGBA(image.Rectangle{}), 1); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}
	if err := Encode(&buf, nil, 1); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage for nil, got %v", err)
	}
}

func TestFilename(t *testing.T) {
	e := NewExporter("/out", "sheet")

	if got := e.Filename("thing_128"); got != filepath.Join("/out", "thing_128.png") {
		t.Errorf("unexpected filename %s", got)
	}
	if got := e.Filename("frame.PNG"); got != filepath.Join("/out", "frame.PNG") {
		t.Errorf("extension should not be doubled, got %s", got)
	}
	if got := e.Filename("/abs/x.png"); got != "/abs/x.png" {
		t.Errorf("absolute names should be kept, got %s", got)
	}

	gen := e.Filename("")
	if !strings.HasPrefix(filepath.Base(gen), "sheet_") || filepath.Ext(gen) != ".png" {
		t.Errorf("unexpected generated name %s", gen)
	}
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	e := NewExporter("", "x")
	e.SetOutputDir(dir)

	path, err := e.Save("palette", checker(), 4)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if path != filepath.Join(dir, "palette.png") {
		t.Errorf("unexpected path %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decoding saved file: %v", err)
	}
	if cfg.Width != 8 || cfg.Height != 8 {
		t.Errorf("expected 8x8, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestSaveEmptyLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, "x")

	_, err := e.Save("empty", image.NewNRGBA(image.Rect(0, 0, 0, 0)), 1)
	if !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "empty.png")); !os.IsNotExist(err) {
		t.Errorf("expected no file after a failed save, stat err = %v", err)
	}

	// an existing file is not truncated by a failed save
	path := filepath.Join(dir, "keep.png")
	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Save("keep", nil, 1); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
	if data, _ := os.ReadFile(path); string(data) != "old" {
		t.Errorf("existing file changed to %q", data)
	}
}
