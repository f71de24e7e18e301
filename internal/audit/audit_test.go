package audit

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParsePage(t *testing.T) {
	page, err := ParsePage("index.html", []byte(`<!doctype html><html><head>
<meta property="og:image" content=" https://example.com/og/site.webp ">
<meta property="OG:IMAGE:SECURE_URL" content="https://example.com/og/site.webp">
<meta name="twitter:image" content="/og/site.webp">
<meta property="og:title" content="ignored">
<meta property="og:image" content="">
</head><body></body></html>`))
	require.NoError(t, err)

	assert.Equal(t, "index.html", page.Path)
	assert.Equal(t, []string{"https://example.com/og/site.webp", "https://example.com/og/site.webp"}, page.OGImages)
	assert.Equal(t, []string{"/og/site.webp"}, page.TwitterImages)
}

func TestLocalPath(t *testing.T) {
	base, err := url.Parse("https://example.com/blog/")
	require.NoError(t, err)

	tests := []struct {
		ref   string
		want  string
		local bool
	}{
		{"https://example.com/blog/og/site.webp", "og/site.webp", true},
		{"https://EXAMPLE.com/og/site.webp", "og/site.webp", true},
		{"https://cdn.example.net/og/site.webp", "", false},
		{"https://example.com:8443/og/site.webp", "", false},
		{"data:image/png;base64,AAAA", "", false},
		{"/og/posts/a.webp", "og/posts/a.webp", true},
		{"../../og/posts/a.webp", "og/posts/a.webp", true},
		{"cover.webp", "posts/a/cover.webp", true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, ok, err := LocalPath(base, "posts/a/index.html", tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.local, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRun(t *testing.T) {
	site := t.TempDir()
	writeFile(t, filepath.Join(site, "og", "site.webp"), "img")
	writeFile(t, filepath.Join(site, "og", "posts", "hello.webp"), "img")

	writeFile(t, filepath.Join(site, "index.html"), `<html><head>
<meta property="og:image" content="https://example.com/og/site.webp">
<meta name="twitter:image" content="https://example.com/og/site.webp">
</head></html>`)
	writeFile(t, filepath.Join(site, "posts", "hello", "index.html"), `<html><head>
<meta property="og:image" content="/og/posts/hello.webp">
</head></html>`)
	writeFile(t, filepath.Join(site, "posts", "gone", "index.html"), `<html><head>
<meta property="og:image" content="/og/posts/gone.webp">
<meta name="twitter:image" content="https://cdn.example.net/gone.webp">
</head></html>`)
	writeFile(t, filepath.Join(site, "about.html"), `<html><head><title>About</title></head></html>`)
	writeFile(t, filepath.Join(site, "notes.txt"), "not html")

	report, err := Run(site, "https://example.com")
	require.NoError(t, err)

	require.Len(t, report.Pages, 4)
	assert.Equal(t, "about.html", report.Pages[0].Path)

	kinds := map[string][]string{}
	for _, issue := range report.Issues {
		kinds[issue.Page] = append(kinds[issue.Page], issue.Kind)
	}

	assert.Empty(t, kinds["index.html"])
	assert.Equal(t, []string{KindMissingOGImage, KindMissingTwitterImage}, kinds["about.html"])
	assert.Equal(t, []string{KindMissingTwitterImage}, kinds["posts/hello/index.html"])
	assert.Equal(t, []string{KindBrokenImage}, kinds["posts/gone/index.html"])

	assert.Equal(t, 2, report.Errors())
}

func TestRunErrors(t *testing.T) {
	_, err := Run(filepath.Join(t.TempDir(), "missing"), "https://example.com")
	assert.Error(t, err)

	_, err = Run(t.TempDir(), "://bad")
	assert.Error(t, err)
}
