// Package build writes every card image to disk by invoking the image
// route handler once per artifact, the way a static site build would.
package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/conneroisu/ogcard/internal/config"
	"github.com/conneroisu/ogcard/internal/errors"
	"github.com/conneroisu/ogcard/internal/logging"
	"github.com/conneroisu/ogcard/internal/registry"
	"github.com/conneroisu/ogcard/internal/server"
	"github.com/conneroisu/ogcard/internal/templates"
)

// ManifestFile is the name of the manifest written next to the images.
const ManifestFile = "manifest.json"

// Artifact is one image the build produces.
type Artifact struct {
	ID      string
	Variant string
	// Route is the request path served by the image handler.
	Route string
	// Path is the output file, relative to the output directory.
	Path string
}

// Result is the outcome of one artifact.
type Result struct {
	Artifact    Artifact
	Status      int
	ContentType string
	Bytes       int
	SHA256      string
	Duration    time.Duration
	Err         error
}

// ManifestEntry describes one written image.
type ManifestEntry struct {
	Path        string `json:"path" yaml:"path"`
	ID          string `json:"id" yaml:"id"`
	Variant     string `json:"variant" yaml:"variant"`
	ContentType string `json:"content_type" yaml:"content_type"`
	Bytes       int    `json:"bytes" yaml:"bytes"`
	SHA256      string `json:"sha256" yaml:"sha256"`
}

// Manifest lists every image of a successful export.
type Manifest struct {
	Format    string          `json:"format"`
	Generated time.Time       `json:"generated"`
	Images    []ManifestEntry `json:"images"`
}

// Report summarizes an export.
type Report struct {
	OutputDir string
	Entries   []ManifestEntry
	Failures  []errors.ArtifactError
	Removed   []string
	Stats     Stats
	Duration  time.Duration
}

// Exporter renders every artifact through an http.Handler and writes the
// responses to the output directory.
type Exporter struct {
	cfg      *config.Config
	handler  http.Handler
	registry *registry.PostRegistry
	logger   logging.Logger
	workers  int
	outDir   string
	ext      string
}

// NewExporter creates an exporter. handler must serve the image routes.
func NewExporter(cfg *config.Config, handler http.Handler, reg *registry.PostRegistry, logger logging.Logger) *Exporter {
	if logger == nil {
		logger = logging.Discard()
	}

	workers := cfg.Build.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Exporter{
		cfg:      cfg,
		handler:  handler,
		registry: reg,
		logger:   logger.WithComponent("build"),
		workers:  workers,
		outDir:   cfg.ResolvePath(cfg.Output.Dir),
		ext:      cfg.Image.Extension(),
	}
}

// OutputDir returns the resolved output directory.
func (e *Exporter) OutputDir() string {
	return e.outDir
}

// Artifacts enumerates the site image followed by one image per post, in
// registry order. Drafts are included only when configured.
func (e *Exporter) Artifacts() []Artifact {
	artifacts := []Artifact{{
		ID:      templates.VariantSite,
		Variant: templates.VariantSite,
		Route:   server.SitePath(e.ext),
		Path:    "site." + e.ext,
	}}

	posts := e.registry.Published()
	if e.cfg.Content.IncludeDrafts {
		posts = e.registry.All()
	}
	for _, post := range posts {
		artifacts = append(artifacts, Artifact{
			ID:      post.ID,
			Variant: templates.VariantPost,
			Route:   server.PostPath(post.ID, e.ext),
			Path:    filepath.ToSlash(filepath.Join("posts", post.ID+"."+e.ext)),
		})
	}
	return artifacts
}

// Export builds every artifact. Every artifact is attempted; the returned
// error reports all failures once the run is complete.
func (e *Exporter) Export(ctx context.Context) (*Report, error) {
	perf := logging.StartOperation(e.logger, "export")
	start := time.Now()

	if e.cfg.Output.Clean {
		if err := os.RemoveAll(e.outDir); err != nil {
			return nil, errors.NewIOError(errors.ErrCodeWriteFailed, "failed to clean output directory", err).
				WithComponent("build").WithFile(e.outDir)
		}
	}
	if err := os.MkdirAll(filepath.Join(e.outDir, "posts"), 0o755); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeWriteFailed, "failed to create output directory", err).
			WithComponent("build").WithFile(e.outDir)
	}

	artifacts := e.Artifacts()
	results := e.run(ctx, artifacts)

	collector := errors.NewErrorCollector()
	metrics := NewMetrics()
	report := &Report{OutputDir: e.outDir}

	for _, result := range results {
		metrics.Record(result)
		if result.Err != nil {
			collector.Add(errors.ArtifactError{
				Artifact: result.Artifact.Path,
				Path:     result.Artifact.Route,
				Status:   result.Status,
				Message:  result.Err.Error(),
				Severity: errors.ErrorSeverityError,
				Cause:    result.Err,
			})
			e.logger.Error(ctx, result.Err, "artifact failed",
				"artifact", result.Artifact.Path, "status", result.Status)
			continue
		}
		report.Entries = append(report.Entries, ManifestEntry{
			Path:        result.Artifact.Path,
			ID:          result.Artifact.ID,
			Variant:     result.Artifact.Variant,
			ContentType: result.ContentType,
			Bytes:       result.Bytes,
			SHA256:      result.SHA256,
		})
	}
	sort.Slice(report.Entries, func(i, j int) bool { return report.Entries[i].Path < report.Entries[j].Path })

	if ctx.Err() == nil {
		removed, err := e.prune(artifacts)
		if err != nil {
			collector.AddError(err)
		}
		report.Removed = removed
	}

	if e.cfg.Output.Manifest {
		if err := e.writeManifest(report.Entries); err != nil {
			collector.AddError(err)
		}
	}

	report.Failures = collector.GetErrors()
	report.Stats = metrics.Snapshot()
	report.Duration = time.Since(start)

	if collector.HasErrors() {
		err := fmt.Errorf("build completed with %d errors: %w", collector.Count(), collector.Err())
		perf.EndWithError(ctx, err, "artifacts", len(artifacts))
		return report, err
	}

	perf.End(ctx, "artifacts", len(artifacts), "bytes", report.Stats.Bytes, "removed", len(report.Removed))
	return report, nil
}

// run fans artifacts out to the worker pool. Results keep artifact order.
func (e *Exporter) run(ctx context.Context, artifacts []Artifact) []Result {
	results := make([]Result, len(artifacts))
	jobs := make(chan int)

	workers := e.workers
	if workers > len(artifacts) {
		workers = len(artifacts)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = e.exportOne(ctx, artifacts[idx])
			}
		}()
	}

	for i := range artifacts {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func (e *Exporter) exportOne(ctx context.Context, a Artifact) Result {
	perf := logging.StartOperation(e.logger, "export_artifact")
	result := Result{Artifact: a}

	if err := ctx.Err(); err != nil {
		result.Err = errors.NewInternalError(errors.ErrCodeInternalError, "build cancelled", err).
			WithComponent("build")
		result.Duration = perf.Elapsed()
		return result
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, a.Route, nil).WithContext(ctx)
	e.handler.ServeHTTP(rec, req)

	result.Status = rec.Code
	if rec.Code != http.StatusOK {
		result.Err = errors.NewRenderError(errors.ErrCodeArtifactFailed,
			fmt.Sprintf("%s returned %d %s", a.Route, rec.Code, strings.TrimSpace(rec.Body.String())), nil).
			WithComponent("build").WithContext("route", a.Route).WithContext("status", rec.Code)
		result.Duration = perf.Elapsed()
		return result
	}

	data := rec.Body.Bytes()
	target := filepath.Join(e.outDir, filepath.FromSlash(a.Path))
	if err := writeFileAtomic(target, data); err != nil {
		result.Err = errors.NewIOError(errors.ErrCodeWriteFailed, "failed to write image", err).
			WithComponent("build").WithFile(target)
		result.Duration = perf.Elapsed()
		return result
	}

	sum := sha256.Sum256(data)
	result.ContentType = rec.Header().Get("Content-Type")
	result.Bytes = len(data)
	result.SHA256 = hex.EncodeToString(sum[:])
	result.Duration = perf.Elapsed()

	perf.End(ctx, "artifact", a.Path, "bytes", result.Bytes)
	return result
}

// prune removes post images in the output directory that no artifact
// produced, such as images of deleted posts.
func (e *Exporter) prune(artifacts []Artifact) ([]string, error) {
	keep := make(map[string]bool, len(artifacts))
	for _, a := range artifacts {
		keep[a.Path] = true
	}

	entries, err := os.ReadDir(filepath.Join(e.outDir, "posts"))
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotFound, "failed to list output directory", err).
			WithComponent("build").WithFile(e.outDir)
	}

	var removed []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != "."+e.ext {
			continue
		}
		rel := "posts/" + entry.Name()
		if keep[rel] {
			continue
		}
		if err := os.Remove(filepath.Join(e.outDir, "posts", entry.Name())); err != nil {
			return removed, errors.NewIOError(errors.ErrCodeWriteFailed, "failed to remove stale image", err).
				WithComponent("build").WithFile(rel)
		}
		removed = append(removed, rel)
	}
	return removed, nil
}

func (e *Exporter) writeManifest(entries []ManifestEntry) error {
	if entries == nil {
		entries = []ManifestEntry{}
	}
	data, err := json.MarshalIndent(Manifest{
		Format:    config.NormalizeFormat(e.cfg.Image.Format),
		Generated: time.Now().UTC(),
		Images:    entries,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	path := filepath.Join(e.outDir, ManifestFile)
	if err := writeFileAtomic(path, append(data, '\n')); err != nil {
		return errors.NewIOError(errors.ErrCodeWriteFailed, "failed to write manifest", err).
			WithComponent("build").WithFile(path)
	}
	return nil
}

// ReadManifest loads a manifest written by Export.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// writeFileAtomic writes through a temporary file so readers never see a
// partial image.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
