// Package render turns catalog things into sprite sheets and frames,
// keeping recently built sheets in a bounded cache.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"slices"
	"sync"
	"time"

	"github.com/cenkalti/dominantcolor"
	"go.uber.org/zap"

	"github.com/valerioleite/electron-object-builder-sub003/pkg/outfit"
	"github.com/valerioleite/electron-object-builder-sub003/pkg/sprite"
	"github.com/valerioleite/electron-object-builder-sub003/pkg/thing"
	"github.com/valerioleite/electron-object-builder-sub003/pkg/tiles"
)

// Render errors.
var (
	ErrThingNotFound = errors.New("thing not found")
	ErrEmptyFrame    = errors.New("frame has no visible pixels")
)

// Options configures a Renderer.
type Options struct {
	// Background is an 0xAARRGGBB fill for every sheet; zero alpha keeps
	// sheets transparent.
	Background uint32
	// CacheEntries bounds the sheet cache. Zero or less disables caching.
	CacheEntries int
}

// Sheet is a built atlas together with the frame group that describes it.
// Colored sheets are described by the flattened group. Sheets may be
// shared between callers and must not be modified.
type Sheet struct {
	*sprite.SpriteSheet
	Group   *sprite.FrameGroup
	Colored bool
}

type cacheKey struct {
	id     uint32
	group  thing.GroupType
	outfit string
}

// Renderer builds sheets for the things of a catalog.
type Renderer struct {
	log     *zap.Logger
	catalog *thing.Catalog
	lookup  tiles.Lookup
	opts    Options

	mu    sync.Mutex
	cache map[cacheKey]*Sheet
	order []cacheKey // insertion order, oldest first
}

// New creates a Renderer. A nil logger disables logging.
func New(catalog *thing.Catalog, lookup tiles.Lookup, opts Options, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{
		log:     log,
		catalog: catalog,
		lookup:  lookup,
		opts:    opts,
		cache:   make(map[cacheKey]*Sheet),
	}
}

// Catalog returns the catalog things are looked up in.
func (r *Renderer) Catalog() *thing.Catalog {
	return r.catalog
}

// Sheet returns the atlas of one frame group of thing id. With a non-nil
// outfit, things with a blend layer are colorized; other things ignore it.
func (r *Renderer) Sheet(id uint32, group thing.GroupType, od *outfit.Data) (*Sheet, error) {
	t, ok := r.catalog.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrThingNotFound, id)
	}
	fg, ok := t.Group(group)
	if !ok {
		return nil, fmt.Errorf("%w: %d has no %s group", ErrThingNotFound, id, group)
	}

	colored := od != nil && t.Colorizable() && fg.Layers >= 2
	key := cacheKey{id: id, group: group}
	if colored {
		key.outfit = od.String()
	}

	if s := r.cached(key); s != nil {
		return s, nil
	}

	start := time.Now()
	src := sprite.SpriteTiles(fg, r.lookup.Sprite)
	opts := []sprite.Option{sprite.WithBackground(r.opts.Background)}

	s := &Sheet{Group: fg, Colored: colored}
	if colored {
		s.SpriteSheet = sprite.BuildColoredSpriteSheet(fg, src, *od, opts...)
		s.Group = fg.Flattened()
	} else {
		s.SpriteSheet = sprite.BuildSpriteSheet(fg, src, opts...)
	}

	r.log.Debug("sheet built",
		zap.Uint32("thing", id),
		zap.String("group", string(group)),
		zap.Bool("colored", colored),
		zap.Int("width", s.Width),
		zap.Int("height", s.Height),
		zap.Duration("took", time.Since(start)))

	return r.store(key, s), nil
}

// Frame renders one tile-block of a thing.
func (r *Renderer) Frame(id uint32, group thing.GroupType, od *outfit.Data, sel sprite.Selector) (*sprite.Frame, error) {
	s, err := r.Sheet(id, group, od)
	if err != nil {
		return nil, err
	}
	return sprite.ExtractFrame(s.SpriteSheet, s.Group, sel), nil
}

// Invalidate drops every cached sheet of thing id, e.g. after one of its
// sprites was overridden.
func (r *Renderer) Invalidate(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.order[:0]
	for _, k := range r.order {
		if k.id == id {
			delete(r.cache, k)
			continue
		}
		kept = append(kept, k)
	}
	r.order = kept
}

// InvalidateSprite drops the cached sheets of every thing drawing sprite
// spriteID and returns the ids of those things.
func (r *Renderer) InvalidateSprite(spriteID uint32) []uint32 {
	var ids []uint32
	for _, t := range r.catalog.List() {
		if uses(t, spriteID) {
			r.Invalidate(t.ID)
			ids = append(ids, t.ID)
		}
	}
	r.log.Debug("sprite invalidated", zap.Uint32("sprite", spriteID), zap.Int("things", len(ids)))
	return ids
}

func uses(t *thing.Thing, spriteID uint32) bool {
	for _, fg := range t.Groups {
		if slices.Contains(fg.SpriteIndex, spriteID) {
			return true
		}
	}
	return false
}

// Purge empties the cache.
func (r *Renderer) Purge() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[cacheKey]*Sheet)
	r.order = nil
}

// Cached returns the number of cached sheets.
func (r *Renderer) Cached() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

func (r *Renderer) cached(key cacheKey) *Sheet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache[key]
}

// store inserts s unless another caller cached the same key first, evicting
// the oldest entries beyond the limit.
func (r *Renderer) store(key cacheKey, s *Sheet) *Sheet {
	if r.opts.CacheEntries <= 0 {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.cache[key]; ok {
		return prev
	}
	r.cache[key] = s
	r.order = append(r.order, key)
	for len(r.order) > r.opts.CacheEntries {
		delete(r.cache, r.order[0])
		r.order = r.order[1:]
	}
	return s
}

// Swatch is one dominant colour of an image.
type Swatch struct {
	Color   color.RGBA
	Weight  float64
	Palette int // nearest outfit palette index
}

// Dominant returns up to n dominant colours of img, heaviest first.
func Dominant(img image.Image, n int) ([]Swatch, error) {
	if n <= 0 {
		n = 1
	}
	if !hasVisible(img) {
		return nil, ErrEmptyFrame
	}

	found := dominantcolor.FindWeight(img, n)
	if len(found) == 0 {
		return nil, ErrEmptyFrame
	}
	out := make([]Swatch, 0, len(found))
	for _, c := range found {
		out = append(out, Swatch{
			Color:   c.RGBA,
			Weight:  c.Weight,
			Palette: outfit.Nearest(c.RGBA),
		})
	}
	return out, nil
}

func hasVisible(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0 {
				return true
			}
		}
	}
	return false
}
