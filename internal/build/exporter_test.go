package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/ogcard/internal/config"
	"github.com/conneroisu/ogcard/internal/errors"
	"github.com/conneroisu/ogcard/internal/fonts"
	"github.com/conneroisu/ogcard/internal/registry"
	"github.com/conneroisu/ogcard/internal/renderer"
	"github.com/conneroisu/ogcard/internal/server"
	"github.com/conneroisu/ogcard/internal/types"
)

func testConfig(t *testing.T, mutate func(*config.Config)) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Site.Title = "Field Notes"
	cfg.Image.Format = config.FormatPNG
	cfg.Canvas.Width = 400
	cfg.Canvas.Height = 210
	cfg.Output.Dir = filepath.Join(t.TempDir(), "og")
	cfg.Build.Workers = 3
	if mutate != nil {
		mutate(cfg)
	}
	return cfg
}

func testRegistry() *registry.PostRegistry {
	reg := registry.NewPostRegistry()
	reg.Register(&types.Post{ID: "first", Title: "First", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
	reg.Register(&types.Post{ID: "second", Title: "Second", Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)})
	reg.Register(&types.Post{ID: "draft", Title: "Draft", Draft: true})
	return reg
}

func newExporter(t *testing.T, cfg *config.Config, reg *registry.PostRegistry) *Exporter {
	t.Helper()
	fs, err := fonts.Builtin()
	require.NoError(t, err)
	gen := renderer.NewGenerator(cfg, fs, nil)
	return NewExporter(cfg, server.NewImageHandler(gen, reg, nil), reg, nil)
}

func TestArtifacts(t *testing.T) {
	e := newExporter(t, testConfig(t, nil), testRegistry())

	artifacts := e.Artifacts()
	require.Len(t, artifacts, 3)
	assert.Equal(t, Artifact{ID: "site", Variant: "site", Route: "/og/site.png", Path: "site.png"}, artifacts[0])
	assert.Equal(t, "/og/posts/second.png", artifacts[1].Route)
	assert.Equal(t, "posts/second.png", artifacts[1].Path)
	assert.Equal(t, "posts/first.png", artifacts[2].Path)

	withDrafts := newExporter(t, testConfig(t, func(c *config.Config) { c.Content.IncludeDrafts = true }), testRegistry())
	assert.Len(t, withDrafts.Artifacts(), 4)
}

func TestExport(t *testing.T) {
	cfg := testConfig(t, nil)
	e := newExporter(t, cfg, testRegistry())

	report, err := e.Export(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Entries, 3)
	assert.Empty(t, report.Failures)
	assert.Equal(t, int64(3), report.Stats.Succeeded)
	assert.Equal(t, 100.0, report.Stats.SuccessRate())
	assert.Positive(t, report.Stats.TotalDuration)

	for _, entry := range report.Entries {
		data, err := os.ReadFile(filepath.Join(cfg.Output.Dir, filepath.FromSlash(entry.Path)))
		require.NoError(t, err, entry.Path)

		sum := sha256.Sum256(data)
		assert.Equal(t, hex.EncodeToString(sum[:]), entry.SHA256)
		assert.Equal(t, len(data), entry.Bytes)
		assert.Equal(t, "image/png", entry.ContentType)
	}

	_, err = os.Stat(filepath.Join(cfg.Output.Dir, "posts", "draft.png"))
	assert.True(t, os.IsNotExist(err))

	manifest, err := ReadManifest(cfg.Output.Dir)
	require.NoError(t, err)
	assert.Equal(t, "png", manifest.Format)
	assert.Equal(t, report.Entries, manifest.Images)
	assert.Equal(t, "posts/first.png", manifest.Images[0].Path)
	assert.Equal(t, "site.png", manifest.Images[2].Path)
}

func TestExportIsReproducible(t *testing.T) {
	cfg := testConfig(t, nil)
	e := newExporter(t, cfg, testRegistry())

	first, err := e.Export(context.Background())
	require.NoError(t, err)
	second, err := e.Export(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Entries, second.Entries)
}

func TestExportRemovesStaleImages(t *testing.T) {
	cfg := testConfig(t, nil)
	reg := testRegistry()
	e := newExporter(t, cfg, reg)

	_, err := e.Export(context.Background())
	require.NoError(t, err)

	unrelated := filepath.Join(cfg.Output.Dir, "posts", "notes.txt")
	require.NoError(t, os.WriteFile(unrelated, []byte("keep"), 0o644))

	reg.Remove("first")
	report, err := e.Export(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"posts/first.png"}, report.Removed)
	_, err = os.Stat(filepath.Join(cfg.Output.Dir, "posts", "first.png"))
	assert.True(t, os.IsNotExist(err))
	assert.FileExists(t, unrelated)
}

func TestExportReportsEveryFailure(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) { c.Image.PNG.Compression = "maximum" })
	e := newExporter(t, cfg, testRegistry())

	report, err := e.Export(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build completed with 3 errors")

	require.Len(t, report.Failures, 3)
	for _, failure := range report.Failures {
		assert.Equal(t, http.StatusInternalServerError, failure.Status)
		assert.Contains(t, failure.Message, "Internal Server Error")
	}
	assert.Empty(t, report.Entries)
	assert.Equal(t, int64(3), report.Stats.Failed)

	_, statErr := os.Stat(filepath.Join(cfg.Output.Dir, "site.png"))
	assert.True(t, os.IsNotExist(statErr))

	manifest, err := ReadManifest(cfg.Output.Dir)
	require.NoError(t, err)
	assert.Empty(t, manifest.Images)
}

func TestExportTreatsNon200AsFailure(t *testing.T) {
	cfg := testConfig(t, nil)
	reg := testRegistry()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/og/posts/first.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png"))
	})
	e := NewExporter(cfg, handler, reg, nil)

	report, err := e.Export(context.Background())
	require.Error(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "posts/first.png", report.Failures[0].Artifact)
	assert.Equal(t, http.StatusNotFound, report.Failures[0].Status)
	assert.Equal(t, errors.ErrCodeArtifactFailed, errors.CodeOf(report.Failures[0].Cause))
	assert.Len(t, report.Entries, 2)
}

func TestExportClean(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) { c.Output.Clean = true })
	require.NoError(t, os.MkdirAll(cfg.Output.Dir, 0o755))
	leftover := filepath.Join(cfg.Output.Dir, "old.txt")
	require.NoError(t, os.WriteFile(leftover, []byte("x"), 0o644))

	_, err := newExporter(t, cfg, testRegistry()).Export(context.Background())
	require.NoError(t, err)
	assert.NoFileExists(t, leftover)
}

func TestExportCancelled(t *testing.T) {
	cfg := testConfig(t, nil)
	e := newExporter(t, cfg, testRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := e.Export(ctx)
	require.Error(t, err)
	assert.Len(t, report.Failures, 3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	assert.Equal(t, 0.0, m.Snapshot().SuccessRate())

	m.Record(Result{Bytes: 10, Duration: 2 * time.Millisecond})
	m.Record(Result{Bytes: 99, Duration: 4 * time.Millisecond, Err: assert.AnError})

	s := m.Snapshot()
	assert.Equal(t, int64(2), s.Total)
	assert.Equal(t, int64(1), s.Failed)
	assert.Equal(t, int64(10), s.Bytes)
	assert.Equal(t, 3*time.Millisecond, s.AverageDuration)
	assert.Equal(t, 50.0, s.SuccessRate())
}
