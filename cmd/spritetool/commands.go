package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/valerioleite/electron-object-builder-sub003/internal/config"
	"github.com/valerioleite/electron-object-builder-sub003/internal/export"
	"github.com/valerioleite/electron-object-builder-sub003/internal/logger"
	"github.com/valerioleite/electron-object-builder-sub003/internal/render"
	"github.com/valerioleite/electron-object-builder-sub003/internal/server"
	"github.com/valerioleite/electron-object-builder-sub003/pkg/outfit"
	"github.com/valerioleite/electron-object-builder-sub003/pkg/sprite"
	"github.com/valerioleite/electron-object-builder-sub003/pkg/thing"
	"github.com/valerioleite/electron-object-builder-sub003/pkg/tiles"
)

func cmdSheet(args []string) error {
	var cf config.Flags
	fs := flag.NewFlagSet("sheet", flag.ExitOnError)
	cf.Register(fs)
	group := fs.String("group", "default", "Frame group (default or walking)")
	raw := fs.Bool("raw", false, "Do not colorize outfits")
	out := fs.String("o", "", "Output file (- for stdout)")
	ov := spriteOverrides{}
	fs.Var(ov, "override", "Draw `id=file.png` in place of sprite id (repeatable)")
	fs.Parse(args)

	cfg, err := loadConfig(&cf)
	if err != nil {
		return err
	}
	defer logger.Sync()

	manifest, id, err := thingArgs(fs, cfg)
	if err != nil {
		return err
	}
	gt, err := groupType(*group)
	if err != nil {
		return err
	}
	r, _, err := openRenderer(cfg, manifest, ov)
	if err != nil {
		return err
	}

	s, err := r.Sheet(id, gt, outfitFor(cfg, *raw))
	if err != nil {
		return err
	}
	logger.Log.Info("sheet rendered",
		zap.Uint32("thing", id),
		zap.String("group", *group),
		zap.Bool("colored", s.Colored),
		zap.Int("blocks", len(s.Textures)))

	return writeImage(cfg, *out, fmt.Sprintf("thing_%d_%s", id, *group), s.NRGBA())
}

func cmdFrame(args []string) error {
	var cf config.Flags
	fs := flag.NewFlagSet("frame", flag.ExitOnError)
	cf.Register(fs)
	group := fs.String("group", "default", "Frame group (default or walking)")
	var sel sprite.Selector
	fs.IntVar(&sel.PatternX, "x", 0, "Pattern X (direction)")
	fs.IntVar(&sel.PatternY, "y", 0, "Pattern Y (addon)")
	fs.IntVar(&sel.PatternZ, "z", 0, "Pattern Z (mount)")
	fs.IntVar(&sel.Frame, "frame", 0, "Animation frame")
	fs.IntVar(&sel.Layer, "layer", 0, "Layer")
	fs.BoolVar(&sel.IncludeBlendLayer, "blend", false, "Composite every layer")
	raw := fs.Bool("raw", false, "Do not colorize outfits")
	out := fs.String("o", "", "Output file (- for stdout)")
	ov := spriteOverrides{}
	fs.Var(ov, "override", "Draw `id=file.png` in place of sprite id (repeatable)")
	fs.Parse(args)

	cfg, err := loadConfig(&cf)
	if err != nil {
		return err
	}
	defer logger.Sync()

	manifest, id, err := thingArgs(fs, cfg)
	if err != nil {
		return err
	}
	gt, err := groupType(*group)
	if err != nil {
		return err
	}
	r, _, err := openRenderer(cfg, manifest, ov)
	if err != nil {
		return err
	}

	f, err := r.Frame(id, gt, outfitFor(cfg, *raw), sel)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("thing_%d_%s_x%d_y%d_z%d_f%d", id, *group, sel.PatternX, sel.PatternY, sel.PatternZ, sel.Frame)
	return writeImage(cfg, *out, name, f.NRGBA())
}

func cmdPalette(args []string) error {
	var cf config.Flags
	fs := flag.NewFlagSet("palette", flag.ExitOnError)
	cf.Register(fs)
	cell := fs.Int("cell", 16, "Swatch cell size in pixels")
	out := fs.String("o", "", "Output file (- for stdout)")
	list := fs.Bool("list", false, "Print the palette as text")
	fs.Parse(args)

	cfg, err := loadConfig(&cf)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if *list {
		for i := 0; i < outfit.PaletteSize; i++ {
			c := outfit.Color(i)
			fmt.Printf("%3d  #%02X%02X%02X\n", i, c.R, c.G, c.B)
		}
		return nil
	}
	if *cell < 1 {
		return fmt.Errorf("-cell must be positive")
	}
	return writeImage(cfg, *out, "palette", outfit.Swatch(*cell))
}

func cmdInfo(args []string) error {
	var cf config.Flags
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	cf.Register(fs)
	colors := fs.Int("colors", 3, "Dominant colours to report per group")
	asYAML := fs.Bool("yaml", false, "Print the normalised manifest instead")
	fs.Parse(args)

	cfg, err := loadConfig(&cf)
	if err != nil {
		return err
	}
	defer logger.Sync()

	manifest := cfg.Data.Manifest
	idArg := ""
	switch fs.NArg() {
	case 0:
	case 1:
		if _, err := strconv.ParseUint(fs.Arg(0), 10, 32); err == nil {
			idArg = fs.Arg(0)
		} else {
			manifest = fs.Arg(0)
		}
	default:
		manifest, idArg = fs.Arg(0), fs.Arg(1)
	}

	r, _, err := openRenderer(cfg, manifest, nil)
	if err != nil {
		return err
	}
	cat := r.Catalog()

	if *asYAML {
		data, err := thing.MarshalManifest(cat)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	if idArg == "" {
		fmt.Printf("Manifest: %s\n", manifest)
		fmt.Printf("Sprites:  %s\n", cat.SpriteDir)
		fmt.Printf("Things:   %d\n", cat.Len())
		fmt.Println()
		for _, t := range cat.List() {
			fmt.Printf("  %-6d %-8s %-20s", t.ID, t.Category, t.Name)
			for _, gt := range t.GroupTypes() {
				fmt.Printf(" %s[%s]", gt, t.Groups[gt])
			}
			fmt.Println()
		}
		return nil
	}

	id, err := parseID(idArg)
	if err != nil {
		return err
	}
	t, ok := cat.Get(id)
	if !ok {
		return fmt.Errorf("%w: %d", render.ErrThingNotFound, id)
	}

	fmt.Printf("Thing:       %s\n", t)
	if t.Name != "" {
		fmt.Printf("Name:        %s\n", t.Name)
	}
	fmt.Printf("Colorizable: %v\n", t.Colorizable())
	for _, gt := range t.GroupTypes() {
		fg := t.Groups[gt]
		fmt.Printf("\nGroup %s: %s\n", gt, fg)
		fmt.Printf("  slots %d, blocks %d, atlas %dx%d blocks\n",
			fg.TotalSlots(), fg.TotalTextures(), fg.Columns(), fg.Rows())

		f, err := r.Frame(id, gt, nil, sprite.Selector{IncludeBlendLayer: true})
		if err != nil {
			return err
		}
		swatches, err := render.Dominant(f.NRGBA(), *colors)
		if err != nil {
			fmt.Printf("  dominant colours: none (%v)\n", err)
			continue
		}
		fmt.Println("  dominant colours:")
		for _, s := range swatches {
			fmt.Printf("    #%02X%02X%02X  weight %.2f  palette %d\n", s.Color.R, s.Color.G, s.Color.B, s.Weight, s.Palette)
		}
	}
	return nil
}

func cmdServe(args []string) error {
	var cf config.Flags
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cf.Register(fs)
	ov := spriteOverrides{}
	fs.Var(ov, "override", "Start with `id=file.png` in place of sprite id (repeatable)")
	fs.Parse(args)

	cfg, err := loadConfig(&cf)
	if err != nil {
		return err
	}
	defer logger.Sync()

	manifest := cfg.Data.Manifest
	if fs.NArg() > 0 {
		manifest = fs.Arg(0)
	}
	r, store, err := openRenderer(cfg, manifest, ov)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(r, store, cfg.Server, logger.Log).ListenAndServe(ctx)
}

func cmdImport(args []string) error {
	var cf config.Flags
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	cf.Register(fs)
	fs.Parse(args)

	cfg, err := loadConfig(&cf)
	if err != nil {
		return err
	}
	defer logger.Sync()

	manifest := cfg.Data.Manifest
	var idArg, file string
	switch fs.NArg() {
	case 2:
		idArg, file = fs.Arg(0), fs.Arg(1)
	case 3:
		manifest, idArg, file = fs.Arg(0), fs.Arg(1), fs.Arg(2)
	default:
		return fmt.Errorf("usage: spritetool import [options] [manifest] <sprite-id> <file.png>")
	}
	id, err := parseID(idArg)
	if err != nil {
		return err
	}

	cat, err := thing.LoadManifest(manifest)
	if err != nil {
		return err
	}
	dir, err := tiles.OpenDir(cat.SpriteDir)
	if err != nil {
		return err
	}
	pix, err := tiles.ReadPNG(file)
	if err != nil {
		return err
	}
	if err := dir.Save(id, pix); err != nil {
		return err
	}

	logger.Log.Info("sprite imported", zap.Uint32("sprite", id), zap.String("path", dir.Path(id)))
	fmt.Fprintln(os.Stderr, dir.Path(id))
	return nil
}

func cmdConfig(args []string) error {
	var cf config.Flags
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	cf.Register(fs)
	out := fs.String("o", "", "Write the effective config to this file")
	save := fs.Bool("save", false, "Write the effective config to the user config directory")
	fs.Parse(args)

	cfg, err := loadConfig(&cf)
	if err != nil {
		return err
	}
	defer logger.Sync()

	switch {
	case *save:
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintln(os.Stderr, filepath.Join(config.ConfigDir(), "config.yaml"))
	case *out != "":
		if err := cfg.SaveTo(*out); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintln(os.Stderr, *out)
	default:
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}
	return nil
}

func loadConfig(cf *config.Flags) (*config.Config, error) {
	cfg, err := config.Load(cf)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.LogFile)
	return cfg, nil
}

// thingArgs reads "[manifest] <thing-id>" from the remaining arguments.
func thingArgs(fs *flag.FlagSet, cfg *config.Config) (string, uint32, error) {
	manifest := cfg.Data.Manifest
	var idArg string
	switch fs.NArg() {
	case 1:
		idArg = fs.Arg(0)
	case 2:
		manifest, idArg = fs.Arg(0), fs.Arg(1)
	default:
		return "", 0, fmt.Errorf("usage: spritetool %s [options] [manifest] <thing-id>", fs.Name())
	}
	id, err := parseID(idArg)
	return manifest, id, err
}

func groupType(s string) (thing.GroupType, error) {
	gt := thing.GroupType(s)
	if !gt.Valid() {
		return "", fmt.Errorf("unknown group %q", s)
	}
	return gt, nil
}

func parseID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid thing id %q", s)
	}
	return uint32(id), nil
}

// openRenderer loads manifest and returns a renderer reading tiles through
// an override store layered over the sprite directory.
func openRenderer(cfg *config.Config, manifest string, ov spriteOverrides) (*render.Renderer, *tiles.Store, error) {
	cat, err := thing.LoadManifest(manifest)
	if err != nil {
		return nil, nil, err
	}
	dir, err := tiles.OpenDir(cat.SpriteDir)
	if err != nil {
		return nil, nil, err
	}
	bg, err := cfg.BackgroundARGB()
	if err != nil {
		return nil, nil, err
	}

	logger.Log.Info("manifest loaded",
		zap.String("path", manifest),
		zap.Int("things", cat.Len()),
		zap.String("sprites", cat.SpriteDir))

	store := tiles.NewOverlay(dir)
	r := render.New(cat, store, render.Options{
		Background:   bg,
		CacheEntries: cfg.Render.CacheEntries,
	}, logger.Log)

	if err := ov.apply(store, r); err != nil {
		return nil, nil, err
	}
	return r, store, nil
}

// spriteOverrides collects repeated -override id=file.png flags.
type spriteOverrides map[uint32]string

func (o spriteOverrides) String() string {
	parts := make([]string, 0, len(o))
	for id, file := range o {
		parts = append(parts, fmt.Sprintf("%d=%s", id, file))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func (o spriteOverrides) Set(v string) error {
	idStr, file, ok := strings.Cut(v, "=")
	if !ok || file == "" {
		return fmt.Errorf("expected id=file.png, got %q", v)
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid sprite id %q", idStr)
	}
	o[uint32(id)] = file
	return nil
}

func (o spriteOverrides) apply(store *tiles.Store, r *render.Renderer) error {
	for id, file := range o {
		pix, err := tiles.ReadPNG(file)
		if err != nil {
			return fmt.Errorf("override %d: %w", id, err)
		}
		if err := store.Override(id, pix); err != nil {
			return fmt.Errorf("override %d: %w", id, err)
		}
		things := r.InvalidateSprite(id)
		logger.Log.Info("sprite overridden",
			zap.Uint32("sprite", id),
			zap.String("file", file),
			zap.Int("things", len(things)))
	}
	return nil
}

// outfitFor returns the configured outfit, or nil when colorization is off.
func outfitFor(cfg *config.Config, raw bool) *outfit.Data {
	if raw {
		return nil
	}
	od := cfg.Outfit.Data()
	return &od
}

func writeImage(cfg *config.Config, out, name string, img image.Image) error {
	if out == "-" {
		return export.Encode(os.Stdout, img, cfg.Render.Scale)
	}
	if out == "" {
		out = name
	}

	e := export.NewExporter(cfg.Render.OutputDir, "spritetool")
	path, err := e.Save(out, img, cfg.Render.Scale)
	if err != nil {
		return err
	}
	logger.Log.Info("image written", zap.String("path", path), zap.Int("scale", cfg.Render.Scale))
	fmt.Fprintln(os.Stderr, path)
	return nil
}
