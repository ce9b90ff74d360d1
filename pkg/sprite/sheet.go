package sprite

// SpriteSheet is an assembled atlas: one pixel buffer packing every
// tile-block of a frame group, addressed through Textures.
type SpriteSheet struct {
	Pixmap

	// Textures is indexed by FrameGroup.TextureIndex of the group that
	// describes the sheet.
	Textures []Rect
}

// Texture returns the rectangle of tile-block i.
func (s *SpriteSheet) Texture(i int) (Rect, bool) {
	if i < 0 || i >= len(s.Textures) {
		return Rect{}, false
	}
	return s.Textures[i], true
}

// Empty reports whether the sheet holds no tile-blocks.
func (s *SpriteSheet) Empty() bool {
	return len(s.Textures) == 0 || s.Width == 0 || s.Height == 0
}

// Frame is a single rendered tile-block, owned by the caller.
type Frame struct {
	Pixmap
}

// TileSource resolves a slot index of a frame group to a 32x32 ARGB tile.
// A nil result means the slot is absent and is drawn as transparent.
type TileSource interface {
	Tile(slot int) []byte
}

// TileSourceFunc adapts a function to TileSource.
type TileSourceFunc func(slot int) []byte

// Tile implements TileSource.
func (f TileSourceFunc) Tile(slot int) []byte {
	return f(slot)
}

// SpriteTiles returns a TileSource that maps each slot of fg to its sprite
// id and fetches the pixels with lookup. Sprite id 0 means "no sprite".
func SpriteTiles(fg *FrameGroup, lookup func(id uint32) []byte) TileSource {
	return TileSourceFunc(func(slot int) []byte {
		if slot < 0 || slot >= len(fg.SpriteIndex) {
			return nil
		}
		id := fg.SpriteIndex[slot]
		if id == 0 {
			return nil
		}
		return lookup(id)
	})
}

// tileAt fetches a slot defensively: out-of-range slots, missing sources
// and short buffers are all absent.
func tileAt(fg *FrameGroup, src TileSource, slot int) []byte {
	if src == nil || slot < 0 || slot >= len(fg.SpriteIndex) {
		return nil
	}
	tile := src.Tile(slot)
	if len(tile) < TileBytes {
		return nil
	}
	return tile
}
