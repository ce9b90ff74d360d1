package outfit

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette layout: 19 hue steps per row, 7 saturation/intensity rows. The
// first entry of every row is a grey.
const (
	HueSteps    = 19
	PaletteRows = 7
	PaletteSize = HueSteps * PaletteRows
)

// saturation and value per palette row.
var rowSV = [PaletteRows][2]float64{
	{0.25, 1.00},
	{0.25, 0.75},
	{0.50, 0.75},
	{0.667, 0.75},
	{1.00, 1.00},
	{1.00, 0.75},
	{1.00, 0.50},
}

// Color returns palette entry index as an opaque colour. Out-of-range
// indices fold to entry 0.
func Color(index int) color.RGBA {
	if index < 0 || index >= PaletteSize {
		index = 0
	}

	var hue, sat, val float64
	if index%HueSteps != 0 {
		hue = float64(index%HueSteps) / 18
		sat = rowSV[index/HueSteps][0]
		val = rowSV[index/HueSteps][1]
	} else {
		val = 1 - float64(index)/HueSteps/PaletteRows
	}

	if val == 0 {
		return color.RGBA{A: 255}
	}
	if sat == 0 {
		v := uint8(val * 255)
		return color.RGBA{R: v, G: v, B: v, A: 255}
	}

	// hue 1.0 is red again
	c := colorful.Hsv(math.Mod(hue*360, 360), sat, val)
	return color.RGBA{
		R: truncate(c.R),
		G: truncate(c.G),
		B: truncate(c.B),
		A: 255,
	}
}

// ARGB returns palette entry index packed as 0xAARRGGBB.
func ARGB(index int) uint32 {
	c := Color(index)
	return 0xFF000000 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// Nearest returns the palette index perceptually closest to c (CIE L*a*b*
// distance). Fully transparent colours map to 0.
func Nearest(c color.Color) int {
	target, ok := colorful.MakeColor(c)
	if !ok {
		return 0
	}

	best, bestDist := 0, math.Inf(1)
	for i := 0; i < PaletteSize; i++ {
		p := Color(i)
		d := target.DistanceLab(colorful.Color{
			R: float64(p.R) / 255,
			G: float64(p.G) / 255,
			B: float64(p.B) / 255,
		})
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Swatch renders the palette as a HueSteps x PaletteRows grid of cell x
// cell squares.
func Swatch(cell int) *image.RGBA {
	if cell <= 0 {
		cell = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, HueSteps*cell, PaletteRows*cell))
	for i := 0; i < PaletteSize; i++ {
		c := Color(i)
		x0, y0 := i%HueSteps*cell, i/HueSteps*cell
		for y := y0; y < y0+cell; y++ {
			for x := x0; x < x0+cell; x++ {
				img.SetRGBA(x, y, c)
			}
		}
	}
	return img
}

func truncate(v float64) uint8 {
	v *= 255
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
