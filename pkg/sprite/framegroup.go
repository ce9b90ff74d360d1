// Package sprite composes multi-tile, multi-layer object sprites into texture
// atlases and derives colorized outfit variants from them.
//
// All pixel buffers handled by this package are packed ARGB, 4 bytes per
// pixel, in the order A, R, G, B. Tiles are 32x32 pixels.
package sprite

import (
	"errors"
	"fmt"
)

// ErrSpriteIndexLength is reported by Validate when a FrameGroup's sprite
// index does not hold exactly one entry per slot.
var ErrSpriteIndexLength = errors.New("sprite index length does not match frame group dimensions")

// FrameGroup describes one renderable state of an object: its tile grid,
// render layers, pattern axes and animation length, plus the flat list of
// sprite ids for every slot.
type FrameGroup struct {
	Width    int // tiles
	Height   int // tiles
	Layers   int
	PatternX int
	PatternY int
	PatternZ int
	Frames   int

	// SpriteIndex is ordered frame, patternZ, patternY, patternX, layer,
	// height, width (outermost first).
	SpriteIndex []uint32
}

// TotalSlots returns the number of tile slots in the group.
func (fg *FrameGroup) TotalSlots() int {
	return fg.Width * fg.Height * fg.TotalTextures()
}

// TotalTextures returns the number of tile-blocks in the group, one per
// layer, pattern and frame combination.
func (fg *FrameGroup) TotalTextures() int {
	return fg.PatternX * fg.PatternY * fg.PatternZ * fg.Frames * fg.Layers
}

// Columns returns how many tile-blocks an atlas row holds.
func (fg *FrameGroup) Columns() int {
	return fg.PatternZ * fg.PatternX * fg.Layers
}

// Rows returns how many tile-block rows an atlas holds.
func (fg *FrameGroup) Rows() int {
	return fg.Frames * fg.PatternY
}

// BlockSize returns the pixel size of one tile-block.
func (fg *FrameGroup) BlockSize() (int, int) {
	return fg.Width * TileSize, fg.Height * TileSize
}

// SlotIndex returns the position of a single tile inside SpriteIndex.
// frame wraps modulo Frames, so any animation counter may be passed.
func (fg *FrameGroup) SlotIndex(w, h, layer, px, py, pz, frame int) int {
	return ((((((wrap(frame, fg.Frames)*fg.PatternZ+pz)*fg.PatternY+py)*fg.PatternX+px)*fg.Layers+layer)*fg.Height+h)*fg.Width + w)
}

// TextureIndex returns the position of a tile-block inside an atlas built
// from this group. frame wraps modulo Frames.
func (fg *FrameGroup) TextureIndex(layer, px, py, pz, frame int) int {
	return (((wrap(frame, fg.Frames)*fg.PatternZ+pz)*fg.PatternY+py)*fg.PatternX+px)*fg.Layers + layer
}

// HasArea reports whether every dimension is positive.
func (fg *FrameGroup) HasArea() bool {
	return fg.Width > 0 && fg.Height > 0 && fg.Layers > 0 &&
		fg.PatternX > 0 && fg.PatternY > 0 && fg.PatternZ > 0 && fg.Frames > 0
}

// IsEmpty reports whether building an atlas from the group would produce
// nothing.
func (fg *FrameGroup) IsEmpty() bool {
	return !fg.HasArea() || len(fg.SpriteIndex) == 0
}

// Flattened returns the view that describes a colorized atlas built from
// fg: same grid, pattern X/Z and frames, but a single layer and no addon
// axis. The returned group carries no sprite index.
func (fg *FrameGroup) Flattened() *FrameGroup {
	return &FrameGroup{
		Width:    fg.Width,
		Height:   fg.Height,
		Layers:   1,
		PatternX: fg.PatternX,
		PatternY: 1,
		PatternZ: fg.PatternZ,
		Frames:   fg.Frames,
	}
}

// Validate checks the sprite index length against the dimensions.
func (fg *FrameGroup) Validate() error {
	if want := fg.TotalSlots(); len(fg.SpriteIndex) != want {
		return fmt.Errorf("%w: have %d, want %d", ErrSpriteIndexLength, len(fg.SpriteIndex), want)
	}
	return nil
}

// String returns the dimensions in a compact form.
func (fg *FrameGroup) String() string {
	return fmt.Sprintf("%dx%d layers=%d patterns=%dx%dx%d frames=%d",
		fg.Width, fg.Height, fg.Layers, fg.PatternX, fg.PatternY, fg.PatternZ, fg.Frames)
}

// wrap folds v into [0, n). n <= 0 yields 0.
func wrap(v, n int) int {
	if n <= 0 {
		return 0
	}
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
