// Package server exposes the card images over HTTP.
//
// ImageHandler serves the artifact routes the build tool calls once per
// image. PreviewServer adds a browsable index, vector output and live
// reload on top of the same handler for local development.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/conneroisu/ogcard/internal/config"
	"github.com/conneroisu/ogcard/internal/errors"
	"github.com/conneroisu/ogcard/internal/logging"
	"github.com/conneroisu/ogcard/internal/preview"
	"github.com/conneroisu/ogcard/internal/registry"
	"github.com/conneroisu/ogcard/internal/renderer"
	"github.com/conneroisu/ogcard/internal/scanner"
	"github.com/conneroisu/ogcard/internal/templates"
	"github.com/conneroisu/ogcard/internal/version"
	"github.com/conneroisu/ogcard/internal/watcher"
)

// PreviewServer serves images, the preview index and live reload.
type PreviewServer struct {
	cfg       *config.Config
	generator *renderer.Generator
	registry  *registry.PostRegistry
	scanner   *scanner.PostScanner
	images    *ImageHandler
	hub       *Hub
	errors    *errors.ErrorHandler
	logger    logging.Logger

	watcher      *watcher.FileWatcher
	server       *http.Server
	cancel       context.CancelFunc
	shutdownOnce sync.Once
}

// New creates a preview server. The scanner may be nil when content is not
// rescanned on change.
func New(gen *renderer.Generator, sc *scanner.PostScanner, logger logging.Logger) *PreviewServer {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.WithComponent("server")
	cfg := gen.Config()

	var reg *registry.PostRegistry
	if sc != nil {
		reg = sc.GetRegistry()
	} else {
		reg = registry.NewPostRegistry()
	}

	return &PreviewServer{
		cfg:       cfg,
		generator: gen,
		registry:  reg,
		scanner:   sc,
		images:    NewImageHandler(gen, reg, logger),
		hub:       NewHub(cfg.Server.AllowedOrigins, logger),
		errors:    errors.NewErrorHandler(logger),
		logger:    logger,
	}
}

// Hub returns the live reload hub.
func (s *PreviewServer) Hub() *Hub {
	return s.hub
}

// Handler returns the full route table wrapped in middleware.
func (s *PreviewServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.images.Register(mux)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /svg/site", s.handleSiteSVG)
	mux.HandleFunc("GET /svg/posts/{id}", s.handlePostSVG)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /ws", s.hub)

	return Chain(mux,
		WithRequestID(),
		WithAccessLog(s.logger),
		WithSecurityHeaders(),
		WithRecovery(s.errors),
	)
}

// Addr returns the configured listen address.
func (s *PreviewServer) Addr() string {
	return net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port))
}

// Start runs the server until ctx is cancelled or Shutdown is called.
// Content changes trigger a rescan and a reload broadcast when a scanner
// is attached.
func (s *PreviewServer) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(ctx)

	if s.scanner != nil {
		if err := s.startWatcher(ctx); err != nil {
			s.logger.Warn(ctx, err, "live reload disabled")
		}
	}

	s.server = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "preview server listening", "addr", "http://"+s.Addr())
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.NewIOError(errors.ErrCodeInternalError, "preview server failed", err).
			WithComponent("server").WithContext("addr", s.Addr())
	}
	return nil
}

// Shutdown stops the server, the watcher and every websocket client.
func (s *PreviewServer) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "shutting down preview server")

		if s.cancel != nil {
			s.cancel()
		}
		if s.watcher != nil {
			if err := s.watcher.Stop(); err != nil {
				s.logger.Warn(ctx, err, "failed to stop watcher")
			}
		}
		if s.server != nil {
			if err := s.server.Shutdown(ctx); err != nil {
				shutdownErr = fmt.Errorf("failed to shut down http server: %w", err)
			}
		}
	})

	return shutdownErr
}

func (s *PreviewServer) startWatcher(ctx context.Context) error {
	fw, err := watcher.NewFileWatcher(300*time.Millisecond, s.logger)
	if err != nil {
		return err
	}

	fw.AddFilter(watcher.AnyOf(
		watcher.ExtensionFilter(s.cfg.Content.Extensions...),
		watcher.ConfigFilter,
		watcher.FontFilter,
	))
	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddHandler(s.HandleChanges)

	if err := fw.AddRecursive(s.cfg.ResolvePath(s.cfg.Content.Dir)); err != nil {
		fw.Stop()
		return fmt.Errorf("failed to watch content: %w", err)
	}
	for _, f := range s.cfg.Fonts {
		if err := fw.AddPath(filepath.Dir(s.cfg.ResolvePath(f.Path))); err != nil {
			s.logger.Warn(ctx, err, "failed to watch font directory", "path", f.Path)
		}
	}

	s.watcher = fw
	return fw.Start(ctx)
}

// HandleChanges rescans changed content files and tells connected previews
// to reload. Config and font changes only take effect after a restart.
func (s *PreviewServer) HandleChanges(events []watcher.ChangeEvent) error {
	ctx := context.Background()
	var changed []string
	var failed error

	for _, event := range events {
		if s.scanner != nil && s.scanner.IsContentFile(event.Path) {
			if err := s.scanner.ScanFile(event.Path); err != nil {
				s.errors.Handle(ctx, err, "failed to rescan content", "path", event.Path)
				failed = err
				continue
			}
			changed = append(changed, event.Path)
			continue
		}
		s.logger.Warn(ctx, nil, "configuration or font changed; restart to apply", "path", event.Path)
	}

	if len(changed) > 0 {
		s.hub.Broadcast(UpdateMessage{
			Type:      "reload",
			Target:    changed,
			Timestamp: time.Now(),
		})
	}
	return failed
}

func (s *PreviewServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	ext := s.images.Extension()
	page := preview.Page{
		SiteTitle: s.cfg.Site.Title,
		Format:    s.cfg.Image.Format,
		Site: preview.Artifact{
			ID:          templates.VariantSite,
			Title:       s.cfg.Site.Title,
			Description: s.cfg.Site.Description,
			ImageURL:    SitePath(ext),
			SVGURL:      "/svg/site",
		},
	}

	posts := s.registry.Published()
	if s.cfg.Content.IncludeDrafts {
		posts = s.registry.All()
	}
	for _, post := range posts {
		page.Posts = append(page.Posts, preview.Artifact{
			ID:          post.ID,
			Title:       post.Title,
			Description: post.Description,
			ImageURL:    PostPath(post.ID, ext),
			SVGURL:      "/svg/posts/" + post.ID,
			Draft:       post.Draft,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := preview.Index(page).Render(r.Context(), w); err != nil {
		s.errors.Handle(r.Context(), err, "failed to render preview index")
	}
}

func (s *PreviewServer) handleSiteSVG(w http.ResponseWriter, r *http.Request) {
	s.writeSVG(w, r, templates.VariantSite, renderer.SiteParams(s.cfg))
}

func (s *PreviewServer) handlePostSVG(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	post, ok := s.registry.Get(id)
	if !ok || (post.Draft && !s.cfg.Content.IncludeDrafts) {
		http.NotFound(w, r)
		return
	}
	s.writeSVG(w, r, templates.VariantPost, renderer.PostParams(s.cfg, post))
}

// writeSVG renders fully before writing so that a failure still yields the
// generic 500.
func (s *PreviewServer) writeSVG(w http.ResponseWriter, r *http.Request, variant string, p templates.Params) {
	var buf bytes.Buffer
	if err := s.generator.RenderSVG(r.Context(), variant, p, &buf); err != nil {
		s.errors.Handle(r.Context(), err, "svg generation failed",
			"variant", variant, "id", p.Identifier, "request_id", RequestID(r.Context()))
		writeInternalError(w)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Format  string `json:"format"`
	Posts   int    `json:"posts"`
	Clients int    `json:"clients"`
}

func (s *PreviewServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(HealthResponse{
		Status:  "ok",
		Version: version.GetVersion(),
		Format:  s.cfg.Image.Format,
		Posts:   s.registry.Count(),
		Clients: s.hub.Count(),
	})
}
