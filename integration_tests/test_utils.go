//go:build integration
// +build integration

package integration_tests

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conneroisu/ogcard/internal/config"
	"github.com/conneroisu/ogcard/internal/fonts"
	"github.com/conneroisu/ogcard/internal/registry"
	"github.com/conneroisu/ogcard/internal/renderer"
	"github.com/conneroisu/ogcard/internal/scanner"
)

// testSite is a temporary site with a content directory and an output
// directory inside its public root.
type testSite struct {
	Root      string
	Content   string
	Public    string
	Config    *config.Config
	Registry  *registry.PostRegistry
	Scanner   *scanner.PostScanner
	Generator *renderer.Generator
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.Site.Title = "Field Notes"
	cfg.Site.URL = "https://notes.example.org"
	cfg.Image.Format = config.FormatPNG
	cfg.Canvas.Width = 400
	cfg.Canvas.Height = 210
	cfg.Content.Dir = filepath.Join(root, "content")
	cfg.Output.Dir = filepath.Join(root, "public", "og")
	cfg.Build.Workers = 2
	require.NoError(t, cfg.Validate())

	fs, err := fonts.Load(cfg)
	require.NoError(t, err)

	reg := registry.NewPostRegistry()
	site := &testSite{
		Root:      root,
		Content:   cfg.Content.Dir,
		Public:    filepath.Join(root, "public"),
		Config:    cfg,
		Registry:  reg,
		Scanner:   scanner.NewPostScanner(reg, cfg.Content.Extensions, nil),
		Generator: renderer.NewGenerator(cfg, fs, nil),
	}
	require.NoError(t, os.MkdirAll(site.Content, 0o755))
	require.NoError(t, os.MkdirAll(site.Public, 0o755))
	return site
}

func (s *testSite) writePost(t *testing.T, name, frontmatter string) string {
	t.Helper()
	path := filepath.Join(s.Content, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("---\n"+frontmatter+"\n---\nBody.\n"), 0o644))
	return path
}

func (s *testSite) writePage(t *testing.T, name, head string) {
	t.Helper()
	path := filepath.Join(s.Public, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("<!doctype html><html><head>"+head+"</head><body></body></html>"), 0o644))
}
