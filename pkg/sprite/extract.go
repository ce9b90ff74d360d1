package sprite

// Selector picks one tile-block out of a sheet. Pattern and frame values
// wrap modulo their axis sizes.
type Selector struct {
	Layer    int
	PatternX int
	PatternY int
	PatternZ int
	Frame    int

	// IncludeBlendLayer composites every layer of the group instead of
	// only Layer.
	IncludeBlendLayer bool
}

// ExtractFrame renders the tile-block chosen by sel from a sheet described
// by fg (use fg.Flattened() for colorized sheets). Texture indices outside
// the sheet fall back to block 0. An empty sheet or a group without tiles
// yields an empty frame.
func ExtractFrame(sheet *SpriteSheet, fg *FrameGroup, sel Selector) *Frame {
	if sheet == nil || fg == nil || sheet.Empty() || fg.Width <= 0 || fg.Height <= 0 {
		return &Frame{}
	}

	bw, bh := fg.BlockSize()
	frame := &Frame{Pixmap: NewPixmap(bw, bh)}

	x := wrap(sel.PatternX, fg.PatternX)
	y := wrap(sel.PatternY, fg.PatternY)
	z := wrap(sel.PatternZ, fg.PatternZ)

	first, last := wrap(sel.Layer, fg.Layers), wrap(sel.Layer, fg.Layers)+1
	if sel.IncludeBlendLayer {
		first, last = 0, max(fg.Layers, 1)
	}

	for l := first; l < last; l++ {
		r, ok := sheet.Texture(fg.TextureIndex(l, x, y, z, sel.Frame))
		if !ok {
			r = sheet.Textures[0]
		}
		Blit(&frame.Pixmap, &sheet.Pixmap, r, 0, 0)
	}
	return frame
}
