package sprite

import (
	"image"
	"image/color"
	"math"
)

// Tile geometry. The byte layout is shared with downstream consumers that
// hash tile pixels, so it must not change.
const (
	TileSize      = 32
	BytesPerPixel = 4
	TileBytes     = TileSize * TileSize * BytesPerPixel
)

// Rect is a sub-region of a pixel buffer.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Image returns r as an image.Rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Pixmap is a packed ARGB pixel buffer.
type Pixmap struct {
	Pixels []byte // A, R, G, B per pixel
	Width  int
	Height int
}

// NewPixmap allocates a fully transparent pixmap.
func NewPixmap(width, height int) Pixmap {
	if width <= 0 || height <= 0 {
		return Pixmap{}
	}
	return Pixmap{
		Pixels: make([]byte, width*height*BytesPerPixel),
		Width:  width,
		Height: height,
	}
}

// PixOffset returns the index of the alpha byte of pixel (x, y).
func (p *Pixmap) PixOffset(x, y int) int {
	return (y*p.Width + x) * BytesPerPixel
}

// ColorModel implements image.Image.
func (p *Pixmap) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements image.Image.
func (p *Pixmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.Width, p.Height)
}

// At implements image.Image.
func (p *Pixmap) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= p.Width || y >= p.Height {
		return color.NRGBA{}
	}
	i := p.PixOffset(x, y)
	return color.NRGBA{R: p.Pixels[i+1], G: p.Pixels[i+2], B: p.Pixels[i+3], A: p.Pixels[i]}
}

// NRGBA converts the pixmap into a standard library image.
func (p *Pixmap) NRGBA() *image.NRGBA {
	img := image.NewNRGBA(p.Bounds())
	for i := 0; i+3 < len(p.Pixels) && i+3 < len(img.Pix); i += BytesPerPixel {
		img.Pix[i] = p.Pixels[i+1]
		img.Pix[i+1] = p.Pixels[i+2]
		img.Pix[i+2] = p.Pixels[i+3]
		img.Pix[i+3] = p.Pixels[i]
	}
	return img
}

// Fill sets every pixel to argb (0xAARRGGBB).
func (p *Pixmap) Fill(argb uint32) {
	a, r, g, b := byte(argb>>24), byte(argb>>16), byte(argb>>8), byte(argb)
	for i := 0; i+3 < len(p.Pixels); i += BytesPerPixel {
		p.Pixels[i] = a
		p.Pixels[i+1] = r
		p.Pixels[i+2] = g
		p.Pixels[i+3] = b
	}
}

// BlendPixel composites one straight-alpha source pixel over dst[i:i+4]
// using source-over:
//
//	outA = sa + da*(1-sa)
//	outC = (sc*sa + dc*da*(1-sa)) / outA
//
// with alphas normalised to [0,1] and results rounded half up. A zero
// source alpha leaves dst untouched; a full source alpha overwrites it.
func BlendPixel(dst []byte, i int, sa, sr, sg, sb byte) {
	switch sa {
	case 0:
		return
	case 255:
		dst[i] = 255
		dst[i+1] = sr
		dst[i+2] = sg
		dst[i+3] = sb
		return
	}

	srcA := float64(sa) / 255
	dstW := float64(dst[i]) / 255 * (1 - srcA)
	outA := srcA + dstW
	if outA == 0 {
		return
	}

	dst[i+1] = blendChannel(sr, dst[i+1], srcA, dstW, outA)
	dst[i+2] = blendChannel(sg, dst[i+2], srcA, dstW, outA)
	dst[i+3] = blendChannel(sb, dst[i+3], srcA, dstW, outA)
	dst[i] = clampByte(round(outA * 255))
}

func blendChannel(s, d byte, srcA, dstW, outA float64) byte {
	return clampByte(round((float64(s)*srcA + float64(d)*dstW) / outA))
}

// Blit alpha-composites the sr region of src onto dst with its top-left
// corner at (dx, dy). Pixels falling outside either buffer are clipped.
func Blit(dst, src *Pixmap, sr Rect, dx, dy int) {
	sr, dx, dy, ok := clip(dst, src, sr, dx, dy)
	if !ok {
		return
	}
	for y := 0; y < sr.Height; y++ {
		si := src.PixOffset(sr.X, sr.Y+y)
		di := dst.PixOffset(dx, dy+y)
		for x := 0; x < sr.Width; x++ {
			BlendPixel(dst.Pixels, di, src.Pixels[si], src.Pixels[si+1], src.Pixels[si+2], src.Pixels[si+3])
			si += BytesPerPixel
			di += BytesPerPixel
		}
	}
}

// BlitTile alpha-composites a 32x32 tile onto dst at (dx, dy). Tiles with
// fewer than TileBytes bytes are treated as absent.
func BlitTile(dst *Pixmap, tile []byte, dx, dy int) {
	if len(tile) < TileBytes {
		return
	}
	src := Pixmap{Pixels: tile, Width: TileSize, Height: TileSize}
	Blit(dst, &src, Rect{Width: TileSize, Height: TileSize}, dx, dy)
}

// CopyTile copies a 32x32 tile onto dst at (dx, dy) without blending.
// Tiles with fewer than TileBytes bytes are treated as absent.
func CopyTile(dst *Pixmap, tile []byte, dx, dy int) {
	if len(tile) < TileBytes {
		return
	}
	src := Pixmap{Pixels: tile, Width: TileSize, Height: TileSize}
	CopyRect(dst, &src, Rect{Width: TileSize, Height: TileSize}, dx, dy)
}

// CopyRect copies the sr region of src onto dst at (dx, dy) row by row,
// replacing the destination bytes without blending.
func CopyRect(dst, src *Pixmap, sr Rect, dx, dy int) {
	sr, dx, dy, ok := clip(dst, src, sr, dx, dy)
	if !ok {
		return
	}
	n := sr.Width * BytesPerPixel
	for y := 0; y < sr.Height; y++ {
		si := src.PixOffset(sr.X, sr.Y+y)
		di := dst.PixOffset(dx, dy+y)
		copy(dst.Pixels[di:di+n], src.Pixels[si:si+n])
	}
}

func clearRect(p *Pixmap, r Rect) {
	r, _, _, ok := clip(p, p, r, r.X, r.Y)
	if !ok {
		return
	}
	n := r.Width * BytesPerPixel
	for y := 0; y < r.Height; y++ {
		i := p.PixOffset(r.X, r.Y+y)
		clear(p.Pixels[i : i+n])
	}
}

// clip trims sr so that both the source region and its destination lie
// inside their buffers.
func clip(dst, src *Pixmap, sr Rect, dx, dy int) (Rect, int, int, bool) {
	if sr.X < 0 {
		dx -= sr.X
		sr.Width += sr.X
		sr.X = 0
	}
	if sr.Y < 0 {
		dy -= sr.Y
		sr.Height += sr.Y
		sr.Y = 0
	}
	if dx < 0 {
		sr.X -= dx
		sr.Width += dx
		dx = 0
	}
	if dy < 0 {
		sr.Y -= dy
		sr.Height += dy
		dy = 0
	}
	sr.Width = min(sr.Width, src.Width-sr.X, dst.Width-dx)
	sr.Height = min(sr.Height, src.Height-sr.Y, dst.Height-dy)
	if sr.Width <= 0 || sr.Height <= 0 {
		return sr, dx, dy, false
	}
	if len(src.Pixels) < src.Width*src.Height*BytesPerPixel || len(dst.Pixels) < dst.Width*dst.Height*BytesPerPixel {
		return sr, dx, dy, false
	}
	return sr, dx, dy, true
}

// round rounds half up.
func round(v float64) float64 {
	return math.Floor(v + 0.5)
}

func clampByte(v float64) byte {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return byte(v)
}

func clampInt(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
