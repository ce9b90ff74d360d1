// Package export writes rendered sheets and frames as PNG files.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/draw"
)

// ErrEmptyImage is returned when asked to export an image with no pixels.
var ErrEmptyImage = errors.New("image is empty")

// Exporter writes PNG files into one directory.
type Exporter struct {
	outputDir string
	prefix    string
}

// NewExporter creates an exporter. Generated file names start with prefix.
func NewExporter(outputDir, prefix string) *Exporter {
	return &Exporter{
		outputDir: outputDir,
		prefix:    prefix,
	}
}

// SetOutputDir sets the output directory.
func (e *Exporter) SetOutputDir(dir string) {
	e.outputDir = dir
}

// Filename returns the path Save uses for name. An empty name generates
// "<prefix>_<timestamp>.png".
func (e *Exporter) Filename(name string) string {
	if name == "" {
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		name = fmt.Sprintf("%s_%s", e.prefix, timestamp)
	}
	if !strings.EqualFold(filepath.Ext(name), ".png") {
		name += ".png"
	}
	if e.outputDir != "" && !filepath.IsAbs(name) {
		name = filepath.Join(e.outputDir, name)
	}
	return name
}

// Save writes img upscaled by scale and returns the written path.
func (e *Exporter) Save(name string, img image.Image, scale int) (string, error) {
	if img == nil || img.Bounds().Empty() {
		return "", ErrEmptyImage
	}
	filename := e.Filename(name)

	// Create output directory if needed
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}

	if err := Encode(file, img, scale); err != nil {
		file.Close()
		os.Remove(filename)
		return "", err
	}
	if err := file.Close(); err != nil {
		os.Remove(filename)
		return "", fmt.Errorf("closing %s: %w", filename, err)
	}
	return filename, nil
}

// Encode writes img as PNG, upscaled by scale.
func Encode(w io.Writer, img image.Image, scale int) error {
	if img == nil || img.Bounds().Empty() {
		return ErrEmptyImage
	}
	if err := png.Encode(w, Scale(img, scale)); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}

// Scale returns img enlarged by an integer factor with nearest-neighbour
// sampling, so tile pixels stay sharp. Factors below 2 return img as is.
func Scale(img image.Image, factor int) image.Image {
	if factor < 2 {
		return img
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
