package thing

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/valerioleite/electron-object-builder-sub003/pkg/sprite"
)

// Manifest errors.
var (
	ErrInvalidManifest = errors.New("invalid manifest")
	ErrDuplicateThing  = errors.New("duplicate thing id")
)

// manifestFile is the on-disk YAML layout.
type manifestFile struct {
	Sprites string      `yaml:"sprites"`
	Things  []thingSpec `yaml:"things"`
}

type thingSpec struct {
	ID       uint32               `yaml:"id"`
	Category string               `yaml:"category"`
	Name     string               `yaml:"name,omitempty"`
	Groups   map[string]groupSpec `yaml:"groups"`
}

type groupSpec struct {
	Width    int      `yaml:"width"`
	Height   int      `yaml:"height"`
	Layers   int      `yaml:"layers"`
	PatternX int      `yaml:"pattern_x"`
	PatternY int      `yaml:"pattern_y"`
	PatternZ int      `yaml:"pattern_z"`
	Frames   int      `yaml:"frames"`
	Sprites  []uint32 `yaml:"sprites"`
}

// LoadManifest reads a YAML manifest from disk. A relative sprite directory
// is resolved against the manifest's directory.
func LoadManifest(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return ParseManifest(data, filepath.Dir(path))
}

// ParseManifest parses a YAML manifest. baseDir anchors a relative sprite
// directory.
func ParseManifest(data []byte, baseDir string) (*Catalog, error) {
	var mf manifestFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	spriteDir := mf.Sprites
	if spriteDir == "" {
		spriteDir = "sprites"
	}
	if !filepath.IsAbs(spriteDir) {
		spriteDir = filepath.Join(baseDir, spriteDir)
	}

	cat := NewCatalog(spriteDir)
	for i, ts := range mf.Things {
		t, err := ts.build()
		if err != nil {
			return nil, fmt.Errorf("thing %d (id %d): %w", i, ts.ID, err)
		}
		if _, dup := cat.Get(t.ID); dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateThing, t.ID)
		}
		cat.Add(t)
	}
	return cat, nil
}

func (ts thingSpec) build() (*Thing, error) {
	cat := Category(ts.Category)
	if cat == "" {
		cat = Item
	}
	if !cat.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidManifest, ts.Category)
	}
	if len(ts.Groups) == 0 {
		return nil, fmt.Errorf("%w: no frame groups", ErrInvalidManifest)
	}

	t := &Thing{
		ID:       ts.ID,
		Category: cat,
		Name:     ts.Name,
		Groups:   make(map[GroupType]*sprite.FrameGroup, len(ts.Groups)),
	}
	for name, gs := range ts.Groups {
		gt := GroupType(name)
		if !gt.Valid() {
			return nil, fmt.Errorf("%w: unknown group %q", ErrInvalidManifest, name)
		}
		if gt == GroupWalking && cat != Outfit {
			return nil, fmt.Errorf("%w: only outfits have a walking group", ErrInvalidManifest)
		}
		fg := gs.frameGroup()
		if err := fg.Validate(); err != nil {
			return nil, fmt.Errorf("group %s: %w", name, err)
		}
		t.Groups[gt] = fg
	}
	if _, ok := t.Groups[GroupDefault]; !ok {
		return nil, fmt.Errorf("%w: missing default group", ErrInvalidManifest)
	}
	return t, nil
}

// frameGroup converts a manifest group entry; omitted dimensions default to 1.
func (gs groupSpec) frameGroup() *sprite.FrameGroup {
	return &sprite.FrameGroup{
		Width:       orOne(gs.Width),
		Height:      orOne(gs.Height),
		Layers:      orOne(gs.Layers),
		PatternX:    orOne(gs.PatternX),
		PatternY:    orOne(gs.PatternY),
		PatternZ:    orOne(gs.PatternZ),
		Frames:      orOne(gs.Frames),
		SpriteIndex: gs.Sprites,
	}
}

// MarshalManifest encodes a catalog back to YAML. The sprite directory is
// written as given.
func MarshalManifest(c *Catalog) ([]byte, error) {
	mf := manifestFile{Sprites: c.SpriteDir}
	for _, t := range c.List() {
		ts := thingSpec{
			ID:       t.ID,
			Category: string(t.Category),
			Name:     t.Name,
			Groups:   make(map[string]groupSpec, len(t.Groups)),
		}
		for gt, fg := range t.Groups {
			ts.Groups[string(gt)] = groupSpec{
				Width:    fg.Width,
				Height:   fg.Height,
				Layers:   fg.Layers,
				PatternX: fg.PatternX,
				PatternY: fg.PatternY,
				PatternZ: fg.PatternZ,
				Frames:   fg.Frames,
				Sprites:  fg.SpriteIndex,
			}
		}
		mf.Things = append(mf.Things, ts)
	}
	return yaml.Marshal(&mf)
}

func orOne(v int) int {
	if v <= 0 {
		return 1
	}
	return v
}
