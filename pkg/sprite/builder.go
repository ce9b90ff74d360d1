package sprite

// Option configures atlas building.
type Option func(*options)

type options struct {
	background uint32
}

// WithBackground fills the atlas with argb (0xAARRGGBB) before any tile is
// drawn. A zero alpha leaves the atlas transparent.
func WithBackground(argb uint32) Option {
	return func(o *options) {
		o.background = argb
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// BuildSpriteSheet assembles every tile-block of fg into one atlas.
//
// The atlas has Columns() blocks per row and Rows() rows; block i sits at
// column i%Columns(), row i/Columns(). Inside a block the tile columns are
// drawn right to left: logical column w lands at pixel column
// (Width-w-1)*32. Absent tiles are skipped. An empty group yields an empty
// sheet.
func BuildSpriteSheet(fg *FrameGroup, src TileSource, opts ...Option) *SpriteSheet {
	if fg == nil || fg.IsEmpty() {
		return &SpriteSheet{}
	}
	o := applyOptions(opts)

	cols := fg.Columns()
	bw, bh := fg.BlockSize()
	sheet := &SpriteSheet{
		Pixmap:   NewPixmap(cols*bw, fg.Rows()*bh),
		Textures: make([]Rect, fg.TotalTextures()),
	}
	if o.background>>24 != 0 {
		sheet.Fill(o.background)
	}

	for f := 0; f < fg.Frames; f++ {
		for z := 0; z < fg.PatternZ; z++ {
			for y := 0; y < fg.PatternY; y++ {
				for x := 0; x < fg.PatternX; x++ {
					for l := 0; l < fg.Layers; l++ {
						ti := fg.TextureIndex(l, x, y, z, f)
						r := Rect{X: ti % cols * bw, Y: ti / cols * bh, Width: bw, Height: bh}
						sheet.Textures[ti] = r
						drawBlock(&sheet.Pixmap, fg, src, r, l, x, y, z, f, BlitTile)
					}
				}
			}
		}
	}
	return sheet
}

// drawBlock places the tiles of one block inside r using put.
func drawBlock(dst *Pixmap, fg *FrameGroup, src TileSource, r Rect, l, x, y, z, f int, put func(*Pixmap, []byte, int, int)) {
	for w := 0; w < fg.Width; w++ {
		for h := 0; h < fg.Height; h++ {
			tile := tileAt(fg, src, fg.SlotIndex(w, h, l, x, y, z, f))
			if tile == nil {
				continue
			}
			put(dst, tile, r.X+(fg.Width-w-1)*TileSize, r.Y+h*TileSize)
		}
	}
}
