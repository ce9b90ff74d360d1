// Package tiles provides sprite pixel sources for the sprite package: an
// in-memory store with an edit overlay and a lazily decoded PNG directory.
package tiles

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/valerioleite/electron-object-builder-sub003/pkg/sprite"
)

// Tile errors.
var (
	ErrTileSize   = errors.New("tile must be 32x32")
	ErrNotFound   = errors.New("sprite not found")
	ErrInvalidID  = errors.New("sprite id 0 is reserved")
	ErrNotADir    = errors.New("not a directory")
	ErrDecodeTile = errors.New("decoding tile image")
)

// Lookup resolves sprite ids to ARGB tiles. A nil result means absent.
type Lookup interface {
	Sprite(id uint32) []byte
}

// Store holds tiles in memory. Overrides shadow stored tiles until they are
// reverted, so edited sprites can be previewed without touching the files
// they came from. Sprites the store does not hold are read from its base.
type Store struct {
	base Lookup

	mu        sync.RWMutex
	sprites   map[uint32][]byte
	overrides map[uint32][]byte
}

// NewStore creates an empty store.
func NewStore() *Store {
	return NewOverlay(nil)
}

// NewOverlay creates an empty store in front of base. A nil base is
// allowed.
func NewOverlay(base Lookup) *Store {
	return &Store{
		base:      base,
		sprites:   make(map[uint32][]byte),
		overrides: make(map[uint32][]byte),
	}
}

// Set stores a copy of pix under id.
func (s *Store) Set(id uint32, pix []byte) error {
	if err := checkTile(id, pix); err != nil {
		return err
	}
	s.mu.Lock()
	s.sprites[id] = clone(pix)
	s.mu.Unlock()
	return nil
}

// Override shadows id with a copy of pix.
func (s *Store) Override(id uint32, pix []byte) error {
	if err := checkTile(id, pix); err != nil {
		return err
	}
	s.mu.Lock()
	s.overrides[id] = clone(pix)
	s.mu.Unlock()
	return nil
}

// Revert drops the override of id and reports whether there was one.
func (s *Store) Revert(id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.overrides[id]
	delete(s.overrides, id)
	return ok
}

// Overridden reports whether id is currently shadowed.
func (s *Store) Overridden(id uint32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.overrides[id]
	return ok
}

// Overrides returns the overridden sprite ids in ascending order.
func (s *Store) Overrides() []uint32 {
	s.mu.RLock()
	ids := make([]uint32, 0, len(s.overrides))
	for id := range s.overrides {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// Sprite implements Lookup. The returned slice must not be modified.
func (s *Store) Sprite(id uint32) []byte {
	s.mu.RLock()
	pix, ok := s.overrides[id]
	if !ok {
		pix, ok = s.sprites[id]
	}
	s.mu.RUnlock()
	if !ok && s.base != nil {
		return s.base.Sprite(id)
	}
	return pix
}

// Len returns the number of stored sprites, not counting overrides or the
// base.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sprites)
}

// DecodePNG reads a 32x32 PNG into an ARGB tile.
func DecodePNG(r io.Reader) ([]byte, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeTile, err)
	}
	return FromImage(img)
}

// ReadPNG decodes the 32x32 PNG file at path.
func ReadPNG(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	pix, err := DecodePNG(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pix, nil
}

// FromImage converts a 32x32 image into an ARGB tile.
func FromImage(img image.Image) ([]byte, error) {
	b := img.Bounds()
	if b.Dx() != sprite.TileSize || b.Dy() != sprite.TileSize {
		return nil, fmt.Errorf("%w: got %dx%d", ErrTileSize, b.Dx(), b.Dy())
	}

	pix := make([]byte, sprite.TileBytes)
	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < sprite.TileSize; y++ {
			row := src.Pix[(y+b.Min.Y-src.Rect.Min.Y)*src.Stride+(b.Min.X-src.Rect.Min.X)*4:]
			for x := 0; x < sprite.TileSize; x++ {
				i := (y*sprite.TileSize + x) * sprite.BytesPerPixel
				pix[i] = row[x*4+3]
				pix[i+1] = row[x*4]
				pix[i+2] = row[x*4+1]
				pix[i+3] = row[x*4+2]
			}
		}
		return pix, nil
	}

	for y := 0; y < sprite.TileSize; y++ {
		for x := 0; x < sprite.TileSize; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			i := (y*sprite.TileSize + x) * sprite.BytesPerPixel
			pix[i] = c.A
			pix[i+1] = c.R
			pix[i+2] = c.G
			pix[i+3] = c.B
		}
	}
	return pix, nil
}

// ToImage converts an ARGB tile into an image.
func ToImage(pix []byte) (*image.NRGBA, error) {
	if len(pix) != sprite.TileBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTileSize, len(pix))
	}
	p := sprite.Pixmap{Pixels: pix, Width: sprite.TileSize, Height: sprite.TileSize}
	return p.NRGBA(), nil
}

func checkTile(id uint32, pix []byte) error {
	if id == 0 {
		return ErrInvalidID
	}
	if len(pix) != sprite.TileBytes {
		return fmt.Errorf("%w: %d bytes", ErrTileSize, len(pix))
	}
	return nil
}

func clone(pix []byte) []byte {
	return append([]byte(nil), pix...)
}
