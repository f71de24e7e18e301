package preview

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex(t *testing.T) {
	page := Page{
		SiteTitle: "Field Notes",
		Format:    "webp",
		Site: Artifact{
			ID:       "site",
			Title:    "Field Notes",
			ImageURL: "/og/site.webp",
			SVGURL:   "/svg/site",
		},
		Posts: []Artifact{
			{ID: "hello", Title: "Tips & <tricks>", ImageURL: "/og/posts/hello.webp", SVGURL: "/svg/posts/hello", Draft: true},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Index(page).Render(context.Background(), &buf))
	html := buf.String()

	assert.Contains(t, html, `<meta property="og:image" content="/og/site.webp">`)
	assert.Contains(t, html, `<img src="/og/posts/hello.webp"`)
	assert.Contains(t, html, `id="card-hello"`)
	assert.Contains(t, html, "Tips &amp; &lt;tricks&gt;")
	assert.NotContains(t, html, "<tricks>")
	assert.Contains(t, html, `class="draft"`)
	assert.Contains(t, html, `"/ws"`)
}

func TestIndexCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	assert.Error(t, Index(Page{}).Render(ctx, &buf))
}
