// Package thing describes game objects (items, outfits, effects and
// missiles) and the frame groups used to render them.
package thing

import (
	"fmt"
	"sort"

	"github.com/valerioleite/electron-object-builder-sub003/pkg/sprite"
)

// Category is the kind of a thing.
type Category string

// Categories.
const (
	Item    Category = "item"
	Outfit  Category = "outfit"
	Effect  Category = "effect"
	Missile Category = "missile"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case Item, Outfit, Effect, Missile:
		return true
	}
	return false
}

// GroupType names a frame group. Outfits may carry a separate walking
// animation; every other thing only has the default group.
type GroupType string

// Frame group types.
const (
	GroupDefault GroupType = "default"
	GroupWalking GroupType = "walking"
)

// Valid reports whether g is a known group type.
func (g GroupType) Valid() bool {
	return g == GroupDefault || g == GroupWalking
}

// Thing is one renderable object.
type Thing struct {
	ID       uint32
	Category Category
	Name     string
	Groups   map[GroupType]*sprite.FrameGroup
}

// Group returns the frame group of type g, falling back to the default
// group when g is missing.
func (t *Thing) Group(g GroupType) (*sprite.FrameGroup, bool) {
	if fg, ok := t.Groups[g]; ok {
		return fg, true
	}
	fg, ok := t.Groups[GroupDefault]
	return fg, ok
}

// GroupTypes returns the group types present, default first.
func (t *Thing) GroupTypes() []GroupType {
	types := make([]GroupType, 0, len(t.Groups))
	for g := range t.Groups {
		types = append(types, g)
	}
	sort.Slice(types, func(i, j int) bool {
		if types[i] == GroupDefault {
			return true
		}
		if types[j] == GroupDefault {
			return false
		}
		return types[i] < types[j]
	})
	return types
}

// Colorizable reports whether the thing is an outfit whose default group
// has a blend-mask layer.
func (t *Thing) Colorizable() bool {
	if t.Category != Outfit {
		return false
	}
	fg, ok := t.Groups[GroupDefault]
	return ok && fg.Layers >= 2
}

// String returns a short description.
func (t *Thing) String() string {
	return fmt.Sprintf("%s #%d", t.Category, t.ID)
}

// Catalog is an ordered set of things.
type Catalog struct {
	// SpriteDir is the directory holding <id>.png tiles.
	SpriteDir string

	things map[uint32]*Thing
	order  []uint32
}

// NewCatalog creates an empty catalog.
func NewCatalog(spriteDir string) *Catalog {
	return &Catalog{
		SpriteDir: spriteDir,
		things:    make(map[uint32]*Thing),
	}
}

// Add inserts t, replacing any thing with the same id.
func (c *Catalog) Add(t *Thing) {
	if _, ok := c.things[t.ID]; !ok {
		c.order = append(c.order, t.ID)
	}
	c.things[t.ID] = t
}

// Get returns the thing with the given id.
func (c *Catalog) Get(id uint32) (*Thing, bool) {
	t, ok := c.things[id]
	return t, ok
}

// List returns all things in insertion order.
func (c *Catalog) List() []*Thing {
	out := make([]*Thing, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.things[id])
	}
	return out
}

// Len returns the number of things.
func (c *Catalog) Len() int {
	return len(c.order)
}
