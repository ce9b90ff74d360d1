// Package server exposes rendered sheets and frames over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/valerioleite/electron-object-builder-sub003/internal/config"
	"github.com/valerioleite/electron-object-builder-sub003/internal/render"
	"github.com/valerioleite/electron-object-builder-sub003/pkg/tiles"
)

// Server serves the preview API.
type Server struct {
	log      *zap.Logger
	renderer *render.Renderer
	sprites  *tiles.Store
	cfg      config.ServerConfig
	router   chi.Router
}

// New builds the router. Sprite overrides are applied to sprites, which
// must be the lookup the renderer reads from; a nil store disables the
// sprite routes. A nil logger disables request logging.
func New(renderer *render.Renderer, sprites *tiles.Store, cfg config.ServerConfig, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxScale < 1 {
		cfg.MaxScale = 1
	}
	s := &Server{
		log:      log,
		renderer: renderer,
		sprites:  sprites,
		cfg:      cfg,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/v1", func(sub chi.Router) {
		sub.Get("/health", s.health)
		sub.Get("/palette.png", s.palette)
		sub.Delete("/cache", s.purgeCache)
		sub.Get("/things", s.listThings)
		sub.Get("/things/{id}", s.getThing)
		sub.Get("/things/{id}/sheet.png", s.sheet)
		sub.Get("/things/{id}/frame.png", s.frame)

		if s.sprites != nil {
			sub.Get("/sprites/overrides", s.listOverrides)
			sub.Put("/sprites/{id}", s.overrideSprite)
			sub.Delete("/sprites/{id}", s.revertSprite)
		}
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("preview server started", zap.String("addr", s.cfg.Listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("preview server stopping")
		return srv.Shutdown(shutdownCtx)
	}
}

// requestLogger logs one structured line per request.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("took", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
