//go:build integration
// +build integration

package integration_tests

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/ogcard/internal/audit"
	"github.com/conneroisu/ogcard/internal/build"
	"github.com/conneroisu/ogcard/internal/server"
)

func TestIntegration_ScanBuildAudit(t *testing.T) {
	site := newTestSite(t)
	site.writePost(t, "hello.md", "title: Hello\ndate: 2024-03-09\ntags: [go]")
	site.writePost(t, "trip/index.md", "title: A Trip\ndate: 2024-04-01")
	site.writePost(t, "wip.md", "title: Unfinished\ndraft: true")

	require.NoError(t, site.Scanner.ScanDirectory(site.Content))
	require.Equal(t, 3, site.Registry.Count())

	handler := server.NewImageHandler(site.Generator, site.Registry, nil)
	exporter := build.NewExporter(site.Config, handler, site.Registry, nil)

	report, err := exporter.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), report.Stats.Succeeded)
	assert.Empty(t, report.Failures)

	for _, rel := range []string{"site.png", "posts/hello.png", "posts/trip.png"} {
		data, err := os.ReadFile(filepath.Join(site.Config.Output.Dir, rel))
		require.NoError(t, err, rel)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err, rel)
		assert.Equal(t, 400, img.Bounds().Dx(), rel)
	}
	assert.NoFileExists(t, filepath.Join(site.Config.Output.Dir, "posts", "wip.png"))

	site.writePage(t, "index.html",
		`<meta property="og:image" content="https://notes.example.org/og/site.png">`+
			`<meta name="twitter:image" content="/og/site.png">`)
	site.writePage(t, "posts/hello/index.html",
		`<meta property="og:image" content="../../og/posts/hello.png">`+
			`<meta name="twitter:image" content="https://notes.example.org/og/posts/hello.png">`)
	site.writePage(t, "posts/wip/index.html",
		`<meta property="og:image" content="/og/posts/wip.png">`)

	result, err := audit.Run(site.Public, site.Config.Site.URL)
	require.NoError(t, err)
	require.Len(t, result.Pages, 3)
	assert.Equal(t, 1, result.Errors())

	var broken []string
	for _, issue := range result.Issues {
		if issue.Kind == audit.KindBrokenImage {
			broken = append(broken, issue.Page)
		}
	}
	assert.Equal(t, []string{"posts/wip/index.html"}, broken)
}

func TestIntegration_RebuildIsByteIdentical(t *testing.T) {
	site := newTestSite(t)
	site.writePost(t, "hello.md", "title: Hello")
	require.NoError(t, site.Scanner.ScanDirectory(site.Content))

	handler := server.NewImageHandler(site.Generator, site.Registry, nil)
	exporter := build.NewExporter(site.Config, handler, site.Registry, nil)

	_, err := exporter.Export(context.Background())
	require.NoError(t, err)
	first, err := build.ReadManifest(site.Config.Output.Dir)
	require.NoError(t, err)

	_, err = exporter.Export(context.Background())
	require.NoError(t, err)
	second, err := build.ReadManifest(site.Config.Output.Dir)
	require.NoError(t, err)

	assert.Equal(t, first.Images, second.Images)
}
