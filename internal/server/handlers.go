package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/conneroisu/ogcard/internal/errors"
	"github.com/conneroisu/ogcard/internal/logging"
	"github.com/conneroisu/ogcard/internal/raster"
	"github.com/conneroisu/ogcard/internal/registry"
	"github.com/conneroisu/ogcard/internal/renderer"
	"github.com/conneroisu/ogcard/internal/templates"
)

// internalErrorBody is the whole response body of a failed generation.
// Error detail goes to the log only.
const internalErrorBody = "Internal Server Error"

// SitePath returns the route of the site-wide image.
func SitePath(ext string) string {
	return "/og/site." + ext
}

// PostPath returns the route of a post image.
func PostPath(id, ext string) string {
	return "/og/posts/" + id + "." + ext
}

// ImageHandler serves generated card images. The build tool invokes it once
// per artifact; the preview server mounts it alongside its own routes.
type ImageHandler struct {
	generator     *renderer.Generator
	registry      *registry.PostRegistry
	errors        *errors.ErrorHandler
	logger        logging.Logger
	ext           string
	includeDrafts bool
	mux           *http.ServeMux
}

// NewImageHandler creates the image route handler.
func NewImageHandler(gen *renderer.Generator, reg *registry.PostRegistry, logger logging.Logger) *ImageHandler {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.WithComponent("server")
	cfg := gen.Config()

	h := &ImageHandler{
		generator:     gen,
		registry:      reg,
		errors:        errors.NewErrorHandler(logger),
		logger:        logger,
		ext:           cfg.Image.Extension(),
		includeDrafts: cfg.Content.IncludeDrafts,
		mux:           http.NewServeMux(),
	}
	h.Register(h.mux)
	return h
}

// Extension returns the file extension every image route uses.
func (h *ImageHandler) Extension() string {
	return h.ext
}

// Register mounts the image routes on mux.
func (h *ImageHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /og/{file}", h.handleSite)
	mux.HandleFunc("GET /og/posts/{file}", h.handlePost)
}

// ServeHTTP serves the image routes without any other route attached.
func (h *ImageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *ImageHandler) handleSite(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("file") != "site."+h.ext {
		http.NotFound(w, r)
		return
	}

	img, err := h.generator.GenerateSite(r.Context())
	if err != nil {
		h.fail(w, r, err, templates.VariantSite, templates.VariantSite)
		return
	}
	writeImage(w, img)
}

func (h *ImageHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	id, ok := strings.CutSuffix(r.PathValue("file"), "."+h.ext)
	if !ok || id == "" {
		http.NotFound(w, r)
		return
	}

	post, found := h.registry.Get(id)
	if !found || (post.Draft && !h.includeDrafts) {
		h.logger.Debug(r.Context(), "post not found", "id", id)
		http.NotFound(w, r)
		return
	}

	img, err := h.generator.GeneratePost(r.Context(), post)
	if err != nil {
		h.fail(w, r, err, templates.VariantPost, id)
		return
	}
	writeImage(w, img)
}

// fail logs err with its structured fields and answers with the generic
// plain-text 500.
func (h *ImageHandler) fail(w http.ResponseWriter, r *http.Request, err error, variant, id string) {
	h.errors.Handle(r.Context(), err, "image generation failed",
		"variant", variant, "id", id, "request_id", RequestID(r.Context()))
	writeInternalError(w)
}

func writeImage(w http.ResponseWriter, img *raster.Image) {
	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

func writeInternalError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Length", strconv.Itoa(len(internalErrorBody)))
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = io.WriteString(w, internalErrorBody)
}
