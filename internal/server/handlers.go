package server

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/valerioleite/electron-object-builder-sub003/internal/export"
	"github.com/valerioleite/electron-object-builder-sub003/internal/render"
	"github.com/valerioleite/electron-object-builder-sub003/pkg/outfit"
	"github.com/valerioleite/electron-object-builder-sub003/pkg/sprite"
	"github.com/valerioleite/electron-object-builder-sub003/pkg/thing"
	"github.com/valerioleite/electron-object-builder-sub003/pkg/tiles"
)

// maxTileUpload bounds PUT /sprites/{id} bodies.
const maxTileUpload = 1 << 20

type groupInfo struct {
	Type     thing.GroupType `json:"type"`
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	Layers   int             `json:"layers"`
	PatternX int             `json:"pattern_x"`
	PatternY int             `json:"pattern_y"`
	PatternZ int             `json:"pattern_z"`
	Frames   int             `json:"frames"`
}

type thingInfo struct {
	ID          uint32         `json:"id"`
	Category    thing.Category `json:"category"`
	Name        string         `json:"name,omitempty"`
	Colorizable bool           `json:"colorizable"`
	Groups      []groupInfo    `json:"groups"`
}

func describe(t *thing.Thing) thingInfo {
	info := thingInfo{
		ID:          t.ID,
		Category:    t.Category,
		Name:        t.Name,
		Colorizable: t.Colorizable(),
	}
	for _, gt := range t.GroupTypes() {
		fg := t.Groups[gt]
		info.Groups = append(info.Groups, groupInfo{
			Type:     gt,
			Width:    fg.Width,
			Height:   fg.Height,
			Layers:   fg.Layers,
			PatternX: fg.PatternX,
			PatternY: fg.PatternY,
			PatternZ: fg.PatternZ,
			Frames:   fg.Frames,
		})
	}
	return info
}

type healthResponse struct {
	Status       string `json:"status"`
	CachedSheets int    `json:"cached_sheets"`
	Overrides    int    `json:"overrides"`
}

// health GET /health
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", CachedSheets: s.renderer.Cached()}
	if s.sprites != nil {
		resp.Overrides = len(s.sprites.Overrides())
	}
	writeJSON(w, http.StatusOK, resp)
}

// purgeCache DELETE /cache
func (s *Server) purgeCache(w http.ResponseWriter, r *http.Request) {
	s.renderer.Purge()
	w.WriteHeader(http.StatusNoContent)
}

type overrideResponse struct {
	Sprite uint32   `json:"sprite"`
	Things []uint32 `json:"things"`
}

// listOverrides GET /sprites/overrides
func (s *Server) listOverrides(w http.ResponseWriter, r *http.Request) {
	ids := s.sprites.Overrides()
	writeJSON(w, http.StatusOK, apiListResponse[uint32]{Items: ids, TotalItems: len(ids)})
}

// overrideSprite PUT /sprites/{id} with a 32x32 PNG body
func (s *Server) overrideSprite(w http.ResponseWriter, r *http.Request) {
	id, ok := thingID(w, r)
	if !ok {
		return
	}
	pix, err := tiles.DecodePNG(http.MaxBytesReader(w, r.Body, maxTileUpload))
	if err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.sprites.Override(id, pix); err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	things := s.renderer.InvalidateSprite(id)
	s.log.Info("sprite overridden", zap.Uint32("sprite", id), zap.Int("things", len(things)))
	writeJSON(w, http.StatusOK, overrideResponse{Sprite: id, Things: nonNil(things)})
}

// revertSprite DELETE /sprites/{id}
func (s *Server) revertSprite(w http.ResponseWriter, r *http.Request) {
	id, ok := thingID(w, r)
	if !ok {
		return
	}
	if !s.sprites.Revert(id) {
		errorJSON(w, http.StatusNotFound, "sprite is not overridden")
		return
	}
	things := s.renderer.InvalidateSprite(id)
	s.log.Info("sprite override reverted", zap.Uint32("sprite", id), zap.Int("things", len(things)))
	w.WriteHeader(http.StatusNoContent)
}

func nonNil(ids []uint32) []uint32 {
	if ids == nil {
		return []uint32{}
	}
	return ids
}

// listThings GET /things
func (s *Server) listThings(w http.ResponseWriter, r *http.Request) {
	things := s.renderer.Catalog().List()
	items := make([]thingInfo, 0, len(things))
	for _, t := range things {
		items = append(items, describe(t))
	}
	writeJSON(w, http.StatusOK, apiListResponse[thingInfo]{Items: items, TotalItems: len(items)})
}

// getThing GET /things/{id}
func (s *Server) getThing(w http.ResponseWriter, r *http.Request) {
	id, ok := thingID(w, r)
	if !ok {
		return
	}
	t, found := s.renderer.Catalog().Get(id)
	if !found {
		errorJSON(w, http.StatusNotFound, "thing not found")
		return
	}
	writeJSON(w, http.StatusOK, describe(t))
}

// sheet GET /things/{id}/sheet.png?group=&outfit=&scale=
func (s *Server) sheet(w http.ResponseWriter, r *http.Request) {
	id, ok := thingID(w, r)
	if !ok {
		return
	}
	q, err := s.parseCommon(r)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	sh, err := s.renderer.Sheet(id, q.group, q.outfit)
	if err != nil {
		s.renderError(w, err)
		return
	}
	s.writePNG(w, sh.NRGBA(), q.scale)
}

// frame GET /things/{id}/frame.png?group=&x=&y=&z=&frame=&layer=&blend=&outfit=&scale=
func (s *Server) frame(w http.ResponseWriter, r *http.Request) {
	id, ok := thingID(w, r)
	if !ok {
		return
	}
	q, err := s.parseCommon(r)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	sel, err := parseSelector(r)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	f, err := s.renderer.Frame(id, q.group, q.outfit, sel)
	if err != nil {
		s.renderError(w, err)
		return
	}
	s.writePNG(w, f.NRGBA(), q.scale)
}

// palette GET /palette.png?scale=
func (s *Server) palette(w http.ResponseWriter, r *http.Request) {
	scale, err := parseBounded(r, "scale", 16, 1, 64)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writePNG(w, outfit.Swatch(scale), 1)
}

type commonQuery struct {
	group  thing.GroupType
	outfit *outfit.Data
	scale  int
}

func (s *Server) parseCommon(r *http.Request) (commonQuery, error) {
	q := commonQuery{group: thing.GroupDefault}
	v := r.URL.Query()

	if g := v.Get("group"); g != "" {
		q.group = thing.GroupType(g)
		if !q.group.Valid() {
			return q, fmt.Errorf("unknown group %q", g)
		}
	}
	if o := v.Get("outfit"); o != "" {
		od, err := outfit.Parse(o)
		if err != nil {
			return q, err
		}
		q.outfit = &od
	}

	scale, err := parseBounded(r, "scale", 1, 1, s.cfg.MaxScale)
	if err != nil {
		return q, err
	}
	q.scale = scale
	return q, nil
}

func parseSelector(r *http.Request) (sprite.Selector, error) {
	var sel sprite.Selector
	fields := []struct {
		name string
		dst  *int
	}{
		{"x", &sel.PatternX},
		{"y", &sel.PatternY},
		{"z", &sel.PatternZ},
		{"frame", &sel.Frame},
		{"layer", &sel.Layer},
	}
	v := r.URL.Query()
	for _, f := range fields {
		s := v.Get(f.name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return sel, fmt.Errorf("invalid %s %q", f.name, s)
		}
		*f.dst = n
	}
	if b := v.Get("blend"); b != "" {
		blend, err := strconv.ParseBool(b)
		if err != nil {
			return sel, fmt.Errorf("invalid blend %q", b)
		}
		sel.IncludeBlendLayer = blend
	}
	return sel, nil
}

func parseBounded(r *http.Request, name string, def, minV, maxV int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minV || n > maxV {
		return 0, fmt.Errorf("%s must be an integer in [%d,%d]", name, minV, maxV)
	}
	return n, nil
}

func thingID(w http.ResponseWriter, r *http.Request) (uint32, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint32(id), true
}

func (s *Server) renderError(w http.ResponseWriter, err error) {
	if errors.Is(err, render.ErrThingNotFound) {
		errorJSON(w, http.StatusNotFound, err.Error())
		return
	}
	s.log.Error("render failed", zap.Error(err))
	errorJSON(w, http.StatusInternalServerError, "render failed")
}

// writePNG encodes before writing so encoder failures still get a JSON error.
func (s *Server) writePNG(w http.ResponseWriter, img image.Image, scale int) {
	var buf bytes.Buffer
	if err := export.Encode(&buf, img, scale); err != nil {
		if errors.Is(err, export.ErrEmptyImage) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.log.Error("encoding png", zap.Error(err))
		errorJSON(w, http.StatusInternalServerError, "encoding failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
