package tiles

import (
	"errors"
	"fmt"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Dir serves tiles stored as <root>/<id>.png, decoding each file on first
// use. Decoded tiles and misses are cached for the lifetime of the Dir.
type Dir struct {
	root string

	mu    sync.Mutex
	cache map[uint32][]byte // nil value = known missing or undecodable
}

// OpenDir prepares a tile directory.
func OpenDir(root string) (*Dir, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("opening tile directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADir, root)
	}
	return &Dir{
		root:  root,
		cache: make(map[uint32][]byte),
	}, nil
}

// Root returns the directory path.
func (d *Dir) Root() string {
	return d.root
}

// Path returns the file path of sprite id.
func (d *Dir) Path(id uint32) string {
	return filepath.Join(d.root, strconv.FormatUint(uint64(id), 10)+".png")
}

// Load decodes sprite id, bypassing the cache.
func (d *Dir) Load(id uint32) ([]byte, error) {
	if id == 0 {
		return nil, ErrInvalidID
	}
	f, err := os.Open(d.Path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("opening sprite %d: %w", id, err)
	}
	defer f.Close()

	pix, err := DecodePNG(f)
	if err != nil {
		return nil, fmt.Errorf("sprite %d: %w", id, err)
	}
	return pix, nil
}

// Sprite implements Lookup. Missing or unreadable sprites are absent.
func (d *Dir) Sprite(id uint32) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	if pix, ok := d.cache[id]; ok {
		return pix
	}
	pix, err := d.Load(id)
	if err != nil {
		pix = nil
	}
	d.cache[id] = pix
	return pix
}

// Forget drops id from the cache so the next lookup re-reads the file.
func (d *Dir) Forget(id uint32) {
	d.mu.Lock()
	delete(d.cache, id)
	d.mu.Unlock()
}

// Save encodes pix as <root>/<id>.png.
func (d *Dir) Save(id uint32, pix []byte) error {
	if err := checkTile(id, pix); err != nil {
		return err
	}
	img, err := ToImage(pix)
	if err != nil {
		return err
	}

	f, err := os.Create(d.Path(id))
	if err != nil {
		return fmt.Errorf("creating sprite %d: %w", id, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding sprite %d: %w", id, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	d.Forget(id)
	return nil
}
