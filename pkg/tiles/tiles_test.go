package tiles

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/valerioleite/electron-object-builder-sub003/pkg/sprite"
)

func solid(a, r, g, b byte) []byte {
	pix := make([]byte, sprite.TileBytes)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = a, r, g, b
	}
	return pix
}

func TestStoreOverride(t *testing.T) {
	s := NewStore()
	original := solid(255, 1, 2, 3)
	edited := solid(255, 9, 9, 9)

	if err := s.Set(7, original); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !bytes.Equal(s.Sprite(7), original) {
		t.Error("expected stored sprite")
	}

	if err := s.Override(7, edited); err != nil {
		t.Fatalf("Override: %v", err)
	}
	if !s.Overridden(7) || !bytes.Equal(s.Sprite(7), edited) {
		t.Error("expected override to shadow stored sprite")
	}

	if !s.Revert(7) || s.Revert(7) {
		t.Error("expected Revert to report the override once")
	}
	if s.Overridden(7) || !bytes.Equal(s.Sprite(7), original) {
		t.Error("expected revert to restore stored sprite")
	}

	if s.Sprite(8) != nil {
		t.Error("expected unknown sprite to be absent")
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 sprite, got %d", s.Len())
	}
}

func TestStoreCopiesInput(t *testing.T) {
	s := NewStore()
	pix := solid(255, 1, 1, 1)
	if err := s.Set(1, pix); err != nil {
		t.Fatal(err)
	}
	pix[0] = 0
	if s.Sprite(1)[0] != 255 {
		t.Error("store kept a reference to the caller's buffer")
	}
}

func TestStoreRejectsBadTiles(t *testing.T) {
	s := NewStore()
	if err := s.Set(0, solid(255, 0, 0, 0)); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
	if err := s.Set(1, make([]byte, 10)); !errors.Is(err, ErrTileSize) {
		t.Errorf("expected ErrTileSize, got %v", err)
	}
	if err := s.Override(1, make([]byte, 10)); !errors.Is(err, ErrTileSize) {
		t.Errorf("expected ErrTileSize, got %v", err)
	}
}

func TestStoreFeedsSpriteSheet(t *testing.T) {
	s := NewStore()
	tile := solid(255, 40, 50, 60)
	if err := s.Set(3, tile); err != nil {
		t.Fatal(err)
	}

	fg := &sprite.FrameGroup{Width: 1, Height: 1, Layers: 1, PatternX: 1, PatternY: 1, PatternZ: 1, Frames: 1, SpriteIndex: []uint32{3}}
	sheet := sprite.BuildSpriteSheet(fg, sprite.SpriteTiles(fg, s.Sprite))
	if !bytes.Equal(sheet.Pixels, tile) {
		t.Error("sheet built from store differs from tile")
	}
}

func TestImageConversion(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	img.SetNRGBA(3, 4, color.NRGBA{R: 10, G: 20, B: 30, A: 40})

	pix, err := FromImage(img)
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	i := (4*32 + 3) * 4
	if got := [4]byte(pix[i : i+4]); got != [4]byte{40, 10, 20, 30} {
		t.Errorf("pixel (3,4) = %v, want ARGB 40,10,20,30", got)
	}

	back, err := ToImage(pix)
	if err != nil {
		t.Fatalf("ToImage: %v", err)
	}
	if !bytes.Equal(back.Pix, img.Pix) {
		t.Error("image did not survive conversion")
	}

	// non-NRGBA path
	rgba := image.NewRGBA(image.Rect(0, 0, 32, 32))
	rgba.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	pix, err = FromImage(rgba)
	if err != nil {
		t.Fatalf("FromImage(RGBA): %v", err)
	}
	if got := [4]byte(pix[:4]); got != [4]byte{255, 255, 0, 0} {
		t.Errorf("RGBA pixel 0 = %v", got)
	}

	if _, err := FromImage(image.NewNRGBA(image.Rect(0, 0, 16, 32))); !errors.Is(err, ErrTileSize) {
		t.Errorf("expected ErrTileSize, got %v", err)
	}
}

func TestFromImageSubImage(t *testing.T) {
	sheet := image.NewNRGBA(image.Rect(0, 0, 64, 32))
	sheet.SetNRGBA(32, 0, color.NRGBA{G: 200, A: 255})

	pix, err := FromImage(sheet.SubImage(image.Rect(32, 0, 64, 32)))
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	if got := [4]byte(pix[:4]); got != [4]byte{255, 0, 200, 0} {
		t.Errorf("pixel 0 = %v", got)
	}
}

func TestDir(t *testing.T) {
	root := t.TempDir()
	d, err := OpenDir(root)
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}

	tile := solid(255, 12, 34, 56)
	if err := d.Save(5, tile); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "5.png")); err != nil {
		t.Fatalf("expected 5.png: %v", err)
	}

	if got := d.Sprite(5); !bytes.Equal(got, tile) {
		t.Error("decoded tile differs from saved tile")
	}
	if d.Sprite(6) != nil {
		t.Error("expected missing sprite to be absent")
	}
	if _, err := d.Load(6); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// a later save is picked up
	edited := solid(255, 1, 1, 1)
	if err := d.Save(5, edited); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(d.Sprite(5), edited) {
		t.Error("expected re-saved tile after Save")
	}
}

func TestDirBadFiles(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "1.png"), []byte("not a png"), 0644); err != nil {
		t.Fatal(err)
	}
	d, err := OpenDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Load(1); !errors.Is(err, ErrDecodeTile) {
		t.Errorf("expected ErrDecodeTile, got %v", err)
	}
	if d.Sprite(1) != nil {
		t.Error("expected undecodable sprite to be absent")
	}

	file := filepath.Join(root, "1.png")
	if _, err := OpenDir(file); !errors.Is(err, ErrNotADir) {
		t.Errorf("expected ErrNotADir, got %v", err)
	}
	if _, err := OpenDir(filepath.Join(root, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestOverlay(t *testing.T) {
	root := t.TempDir()
	d, err := OpenDir(root)
	if err != nil {
		t.Fatal(err)
	}
	onDisk := solid(255, 10, 20, 30)
	if err := d.Save(3, onDisk); err != nil {
		t.Fatal(err)
	}

	s := NewOverlay(d)
	if !bytes.Equal(s.Sprite(3), onDisk) {
		t.Error("expected base sprite through the overlay")
	}

	edited := solid(255, 99, 0, 0)
	for _, id := range []uint32{9, 3} {
		if err := s.Override(id, edited); err != nil {
			t.Fatal(err)
		}
	}
	if !bytes.Equal(s.Sprite(3), edited) {
		t.Error("expected override to shadow the base")
	}
	if got := s.Overrides(); len(got) != 2 || got[0] != 3 || got[1] != 9 {
		t.Errorf("Overrides() = %v, want [3 9]", got)
	}

	s.Revert(3)
	if !bytes.Equal(s.Sprite(3), onDisk) {
		t.Error("expected base sprite after revert")
	}
	if s.Sprite(4) != nil {
		t.Error("expected sprite missing from both layers to be absent")
	}
}

func TestReadPNG(t *testing.T) {
	root := t.TempDir()
	d, err := OpenDir(root)
	if err != nil {
		t.Fatal(err)
	}
	tile := solid(128, 1, 2, 3)
	if err := d.Save(1, tile); err != nil {
		t.Fatal(err)
	}

	got, err := ReadPNG(d.Path(1))
	if err != nil {
		t.Fatalf("ReadPNG: %v", err)
	}
	if !bytes.Equal(got, tile) {
		t.Error("decoded tile differs")
	}

	bad := filepath.Join(root, "bad.png")
	if err := os.WriteFile(bad, []byte("nope"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadPNG(bad); !errors.Is(err, ErrDecodeTile) {
		t.Errorf("expected ErrDecodeTile, got %v", err)
	}
	if _, err := ReadPNG(filepath.Join(root, "missing.png")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
