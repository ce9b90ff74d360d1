package sprite

import (
	"image/color"

	"github.com/valerioleite/electron-object-builder-sub003/pkg/outfit"
)

// Channel selects a colour channel by its byte offset inside an ARGB pixel.
type Channel int

// Channels.
const (
	Alpha Channel = iota
	Red
	Green
	Blue
)

// String returns the channel name.
func (c Channel) String() string {
	switch c {
	case Alpha:
		return "alpha"
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	default:
		return "unknown"
	}
}

// BuildColoredSpriteSheet renders a two-layer outfit (grey layer plus blend
// mask) tinted with the colours of od. Layers are collapsed to one and the
// addon axis (patternY) to the selected composite: y=0 is always drawn, y>0
// only when addon bit y-1 is set. The result is described by
// fg.Flattened().
//
// Grey tiles are alpha-composited; mask tiles are copied verbatim so that
// every channel, including zero-alpha pixels, reaches the tint passes.
//
// Groups with fewer than two layers cannot be colorized and are built as a
// plain sheet.
func BuildColoredSpriteSheet(fg *FrameGroup, src TileSource, od outfit.Data, opts ...Option) *SpriteSheet {
	if fg == nil || fg.Layers < 2 {
		return BuildSpriteSheet(fg, src, opts...)
	}
	if fg.IsEmpty() {
		return &SpriteSheet{}
	}
	o := applyOptions(opts)

	flat := fg.Flattened()
	cols := flat.Columns()
	bw, bh := flat.BlockSize()
	out := &SpriteSheet{
		Pixmap:   NewPixmap(cols*bw, flat.Rows()*bh),
		Textures: make([]Rect, flat.TotalTextures()),
	}
	if o.background>>24 != 0 {
		out.Fill(o.background)
	}

	grey := NewPixmap(out.Width, out.Height)
	blend := NewPixmap(out.Width, out.Height)
	whole := Rect{Width: out.Width, Height: out.Height}

	for y := 0; y < fg.PatternY; y++ {
		if y > 0 && !od.HasAddon(y) {
			continue
		}

		for f := 0; f < fg.Frames; f++ {
			for z := 0; z < fg.PatternZ; z++ {
				for x := 0; x < fg.PatternX; x++ {
					ti := flat.TextureIndex(0, x, 0, z, f)
					r := Rect{X: ti % cols * bw, Y: ti / cols * bh, Width: bw, Height: bh}
					out.Textures[ti] = r

					clearRect(&grey, r)
					clearRect(&blend, r)
					drawBlock(&grey, fg, src, r, 0, x, y, z, f, BlitTile)
					drawBlock(&blend, fg, src, r, 1, x, y, z, f, CopyTile)
				}
			}
		}

		// Feet sit in the raw blue channel, which the filter reassigns to
		// the head, so they are tinted first.
		SetColor(&grey, &blend, Blue, outfit.Color(od.Feet))
		ApplyChannelFilter(&blend)
		SetColor(&grey, &blend, Blue, outfit.Color(od.Head))
		SetColor(&grey, &blend, Red, outfit.Color(od.Body))
		SetColor(&grey, &blend, Green, outfit.Color(od.Legs))

		Blit(&out.Pixmap, &grey, whole, 0, 0)
	}
	return out
}

// SetColor tints grey with c, using channel ch of blend as the per-pixel
// alpha of the tint. Both buffers must share dimensions.
func SetColor(grey, blend *Pixmap, ch Channel, c color.RGBA) {
	n := min(len(grey.Pixels), len(blend.Pixels))
	off := int(ch)
	for i := 0; i+3 < n; i += BytesPerPixel {
		BlendPixel(grey.Pixels, i, blend.Pixels[i+off], c.R, c.G, c.B)
	}
}

// ApplyChannelFilter separates the regions of a blend mask in place:
//
//	A' = A - B
//	R' = R - G
//	G' = G - R
//	B' = R + G - 255
//
// each saturated to [0,255]. Afterwards blue marks the head (yellow in the
// mask), red the body and green the legs.
func ApplyChannelFilter(p *Pixmap) {
	pix := p.Pixels
	for i := 0; i+3 < len(pix); i += BytesPerPixel {
		a, r, g, b := int(pix[i]), int(pix[i+1]), int(pix[i+2]), int(pix[i+3])
		pix[i] = clampInt(a - b)
		pix[i+1] = clampInt(r - g)
		pix[i+2] = clampInt(g - r)
		pix[i+3] = clampInt(r + g - 255)
	}
}
