package server

import (
	"bytes"
	"encoding/json"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/valerioleite/electron-object-builder-sub003/internal/config"
	"github.com/valerioleite/electron-object-builder-sub003/internal/render"
	"github.com/valerioleite/electron-object-builder-sub003/pkg/outfit"
	"github.com/valerioleite/electron-object-builder-sub003/pkg/sprite"
	"github.com/valerioleite/electron-object-builder-sub003/pkg/thing"
	"github.com/valerioleite/electron-object-builder-sub003/pkg/tiles"
)

func solidTile(a, r, g, b byte) []byte {
	tile := make([]byte, sprite.TileBytes)
	for i := 0; i < len(tile); i += sprite.BytesPerPixel {
		tile[i], tile[i+1], tile[i+2], tile[i+3] = a, r, g, b
	}
	return tile
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := tiles.NewStore()
	for id, pix := range map[uint32][]byte{
		10: solidTile(255, 200, 10, 10),
		20: solidTile(255, 255, 255, 255),
		21: solidTile(255, 255, 0, 0),
	} {
		if err := store.Set(id, pix); err != nil {
			t.Fatal(err)
		}
	}

	cat := thing.NewCatalog("")
	cat.Add(&thing.Thing{
		ID:       100,
		Category: thing.Item,
		Name:     "crate",
		Groups: map[thing.GroupType]*sprite.FrameGroup{
			thing.GroupDefault: {Width: 1, Height: 1, Layers: 1, PatternX: 1, PatternY: 1, PatternZ: 1, Frames: 1, SpriteIndex: []uint32{10}},
		},
	})
	cat.Add(&thing.Thing{
		ID:       128,
		Category: thing.Outfit,
		Groups: map[thing.GroupType]*sprite.FrameGroup{
			thing.GroupDefault: {Width: 1, Height: 1, Layers: 2, PatternX: 1, PatternY: 1, PatternZ: 1, Frames: 1, SpriteIndex: []uint32{20, 21}},
		},
	})
	cat.Add(&thing.Thing{
		ID:       200,
		Category: thing.Effect,
		Groups: map[thing.GroupType]*sprite.FrameGroup{
			thing.GroupDefault: {Width: 1, Height: 1, Layers: 1, PatternX: 1, PatternY: 1, PatternZ: 1, Frames: 1},
		},
	})

	r := render.New(cat, store, render.Options{CacheEntries: 8}, nil)
	cfg := config.ServerConfig{
		AllowedOrigins: []string{"*"},
		MaxScale:       4,
		ReadTimeout:    time.Second,
		WriteTimeout:   time.Second,
	}
	ts := httptest.NewServer(New(r, store, cfg, nil).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, ts *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp := get(t, ts, "/v1/health")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.CachedSheets != 0 || body.Overrides != 0 {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestListThings(t *testing.T) {
	ts := newTestServer(t)
	resp := get(t, ts, "/v1/things")

	var body apiListResponse[thingInfo]
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.TotalItems != 3 || len(body.Items) != 3 {
		t.Fatalf("expected 3 things, got %+v", body)
	}
	if body.Items[0].ID != 100 || body.Items[0].Name != "crate" {
		t.Errorf("unexpected first thing %+v", body.Items[0])
	}
	if !body.Items[1].Colorizable || body.Items[1].Groups[0].Layers != 2 {
		t.Errorf("unexpected outfit entry %+v", body.Items[1])
	}
}

func TestGetThing(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		path   string
		status int
	}{
		{"/v1/things/100", http.StatusOK},
		{"/v1/things/999", http.StatusNotFound},
		{"/v1/things/abc", http.StatusBadRequest},
		{"/v1/things/-1", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if resp := get(t, ts, tt.path); resp.StatusCode != tt.status {
			t.Errorf("GET %s: expected %d, got %d", tt.path, tt.status, resp.StatusCode)
		}
	}
}

func TestSheetPNG(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		status int
		size   int
	}{
		{"plain", "/v1/things/100/sheet.png", http.StatusOK, 32},
		{"scaled", "/v1/things/100/sheet.png?scale=2", http.StatusOK, 64},
		{"walking falls back", "/v1/things/100/sheet.png?group=walking", http.StatusOK, 32},
		{"scale too large", "/v1/things/100/sheet.png?scale=99", http.StatusBadRequest, 0},
		{"bad scale", "/v1/things/100/sheet.png?scale=x", http.StatusBadRequest, 0},
		{"bad group", "/v1/things/100/sheet.png?group=idle", http.StatusBadRequest, 0},
		{"bad outfit", "/v1/things/128/sheet.png?outfit=1,2", http.StatusBadRequest, 0},
		{"unknown thing", "/v1/things/5/sheet.png", http.StatusNotFound, 0},
		{"no sprites", "/v1/things/200/sheet.png", http.StatusNoContent, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, ts, tt.path)
			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			if tt.status != http.StatusOK {
				return
			}
			if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
				t.Errorf("unexpected content type %s", ct)
			}
			img, err := png.Decode(resp.Body)
			if err != nil {
				t.Fatalf("decoding PNG: %v", err)
			}
			if img.Bounds().Dx() != tt.size || img.Bounds().Dy() != tt.size {
				t.Errorf("expected %dx%d, got %v", tt.size, tt.size, img.Bounds())
			}
		})
	}
}

func TestSheetPNGErrorBody(t *testing.T) {
	ts := newTestServer(t)
	resp := get(t, ts, "/v1/things/5/sheet.png")

	var body apiError
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("expected JSON error body: %v", err)
	}
	if body.Error == "" {
		t.Error("expected an error message")
	}
}

func TestFramePNG(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		status int
		want   color.NRGBA
	}{
		{"item", "/v1/things/100/frame.png", http.StatusOK, color.NRGBA{R: 200, G: 10, B: 10, A: 255}},
		{"grey layer", "/v1/things/128/frame.png", http.StatusOK, color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
		{"mask layer", "/v1/things/128/frame.png?layer=1", http.StatusOK, color.NRGBA{R: 255, A: 255}},
		{"colored", "/v1/things/128/frame.png?outfit=0,88,0,0", http.StatusOK, color.NRGBA{B: 255, A: 255}},
		{"wrapped selectors", "/v1/things/100/frame.png?x=3&frame=-2&blend=true", http.StatusOK, color.NRGBA{R: 200, G: 10, B: 10, A: 255}},
		{"bad selector", "/v1/things/100/frame.png?x=abc", http.StatusBadRequest, color.NRGBA{}},
		{"bad blend", "/v1/things/100/frame.png?blend=maybe", http.StatusBadRequest, color.NRGBA{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, ts, tt.path)
			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			if tt.status != http.StatusOK {
				return
			}
			img, err := png.Decode(resp.Body)
			if err != nil {
				t.Fatalf("decoding PNG: %v", err)
			}
			got := color.NRGBAModel.Convert(img.At(5, 5)).(color.NRGBA)
			if got != tt.want {
				t.Errorf("pixel = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPalettePNG(t *testing.T) {
	ts := newTestServer(t)
	resp := get(t, ts, "/v1/palette.png?scale=2")

	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decoding PNG: %v", err)
	}
	if img.Bounds().Dx() != outfit.HueSteps*2 || img.Bounds().Dy() != outfit.PaletteRows*2 {
		t.Errorf("unexpected palette size %v", img.Bounds())
	}
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard CORS header, got %q", got)
	}
}

func do(t *testing.T, method, url string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func tilePNG(t *testing.T, pix []byte) []byte {
	t.Helper()
	img, err := tiles.ToImage(pix)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func sheetPixel(t *testing.T, ts *httptest.Server, path string) color.NRGBA {
	t.Helper()
	resp := get(t, ts, path)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: expected 200, got %d", path, resp.StatusCode)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return color.NRGBAModel.Convert(img.At(0, 0)).(color.NRGBA)
}

func TestSpriteOverride(t *testing.T) {
	ts := newTestServer(t)

	if got := sheetPixel(t, ts, "/v1/things/100/sheet.png"); got != (color.NRGBA{R: 200, G: 10, B: 10, A: 255}) {
		t.Fatalf("unexpected original pixel %v", got)
	}

	resp := do(t, http.MethodPut, ts.URL+"/v1/sprites/10", tilePNG(t, solidTile(255, 1, 2, 3)))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT: expected 200, got %d", resp.StatusCode)
	}
	var body overrideResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Sprite != 10 || len(body.Things) != 1 || body.Things[0] != 100 {
		t.Errorf("unexpected override response %+v", body)
	}

	if got := sheetPixel(t, ts, "/v1/things/100/sheet.png"); got != (color.NRGBA{R: 1, G: 2, B: 3, A: 255}) {
		t.Errorf("expected overridden pixel, got %v", got)
	}

	var list apiListResponse[uint32]
	if err := json.NewDecoder(get(t, ts, "/v1/sprites/overrides").Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if list.TotalItems != 1 || list.Items[0] != 10 {
		t.Errorf("unexpected override list %+v", list)
	}

	if resp := do(t, http.MethodDelete, ts.URL+"/v1/sprites/10", nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE: expected 204, got %d", resp.StatusCode)
	}
	if got := sheetPixel(t, ts, "/v1/things/100/sheet.png"); got != (color.NRGBA{R: 200, G: 10, B: 10, A: 255}) {
		t.Errorf("expected original pixel after revert, got %v", got)
	}
	if resp := do(t, http.MethodDelete, ts.URL+"/v1/sprites/10", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("second DELETE: expected 404, got %d", resp.StatusCode)
	}
}

func TestSpriteOverrideRejectsBadUploads(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		path string
		body []byte
	}{
		{"not a png", "/v1/sprites/10", []byte("nope")},
		{"reserved id", "/v1/sprites/0", tilePNG(t, solidTile(255, 1, 1, 1))},
		{"bad id", "/v1/sprites/x", tilePNG(t, solidTile(255, 1, 1, 1))},
	}
	for _, tt := range tests {
		if resp := do(t, http.MethodPut, ts.URL+tt.path, tt.body); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tt.name, resp.StatusCode)
		}
	}
}

func TestPurgeCache(t *testing.T) {
	ts := newTestServer(t)
	get(t, ts, "/v1/things/100/sheet.png")

	var h healthResponse
	if err := json.NewDecoder(get(t, ts, "/v1/health").Body).Decode(&h); err != nil {
		t.Fatal(err)
	}
	if h.CachedSheets != 1 {
		t.Fatalf("expected 1 cached sheet, got %d", h.CachedSheets)
	}

	if resp := do(t, http.MethodDelete, ts.URL+"/v1/cache", nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if err := json.NewDecoder(get(t, ts, "/v1/health").Body).Decode(&h); err != nil {
		t.Fatal(err)
	}
	if h.CachedSheets != 0 {
		t.Errorf("expected empty cache, got %d", h.CachedSheets)
	}
}
