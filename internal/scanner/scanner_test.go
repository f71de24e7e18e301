package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/ogcard/internal/errors"
	"github.com/conneroisu/ogcard/internal/registry"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewPostScanner(t *testing.T) {
	reg := registry.NewPostRegistry()
	scanner := NewPostScanner(reg, nil, nil)

	assert.NotNil(t, scanner)
	assert.Equal(t, reg, scanner.GetRegistry())
	assert.True(t, scanner.IsContentFile("post.md"))
	assert.True(t, scanner.IsContentFile("post.MARKDOWN"))
	assert.False(t, scanner.IsContentFile("post.txt"))
}

func TestParsePost(t *testing.T) {
	content := `---
title: "Hello, World"
description: First post
author: Ada
date: 2024-03-09
tags: [go, images]
slug: Hello World!
---
# Body
`
	post, err := ParsePost("/content/whatever.md", []byte(content))
	require.NoError(t, err)

	assert.Equal(t, "hello-world", post.ID)
	assert.Equal(t, "Hello, World", post.Title)
	assert.Equal(t, "First post", post.Description)
	assert.Equal(t, "Ada", post.Author)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), post.Date)
	assert.Equal(t, []string{"go", "images"}, post.Tags)
	assert.False(t, post.Draft)
	assert.Equal(t, "/content/whatever.md", post.FilePath)
}

func TestParsePostDefaults(t *testing.T) {
	t.Run("no frontmatter", func(t *testing.T) {
		post, err := ParsePost("/content/my_first-post.md", []byte("# just markdown\n"))
		require.NoError(t, err)
		assert.Equal(t, "my-first-post", post.ID)
		assert.Equal(t, "My First Post", post.Title)
		assert.True(t, post.Date.IsZero())
	})

	t.Run("page bundle", func(t *testing.T) {
		post, err := ParsePost("/content/trip-report/index.md", []byte("---\ntitle: Trip\n---\n"))
		require.NoError(t, err)
		assert.Equal(t, "trip-report", post.ID)
	})

	t.Run("summary and rfc3339 date", func(t *testing.T) {
		content := "---\nsummary: Short\ndate: \"2024-03-09T10:30:00Z\"\ndraft: true\nid: custom\n---\n"
		post, err := ParsePost("/content/x.md", []byte(content))
		require.NoError(t, err)
		assert.Equal(t, "custom", post.ID)
		assert.Equal(t, "Short", post.Description)
		assert.Equal(t, 10, post.Date.Hour())
		assert.True(t, post.Draft)
	})

	t.Run("crlf", func(t *testing.T) {
		post, err := ParsePost("/content/x.md", []byte("---\r\ntitle: Windows\r\n---\r\nbody"))
		require.NoError(t, err)
		assert.Equal(t, "Windows", post.Title)
	})
}

func TestParsePostErrors(t *testing.T) {
	tests := map[string]string{
		"unclosed":   "---\ntitle: x\n",
		"bad yaml":   "---\ntitle: [unclosed\n---\n",
		"bad date":   "---\ndate: yesterday\n---\n",
		"empty slug": "---\nslug: \"!!!\"\n---\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePost("/content/post.md", []byte(content))
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeFrontmatter, errors.CodeOf(err))
			assert.True(t, errors.IsRecoverable(err))
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello World":           "hello-world",
		"  --Already-slugged--": "already-slugged",
		"Blåbærsyltetøy":        "blaabaersyltetoey",
		"Crème Brûlée":          "creme-brulee",
		"Straße 42":             "strasse-42",
		"Go 1.24: what's new?":  "go-1-24-what-s-new",
		"日本語":                   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "first.md"), "---\ntitle: First\ndate: 2024-01-01\n---\n")
	writeFile(t, filepath.Join(dir, "nested", "second.markdown"), "---\ntitle: Second\ndate: 2024-02-01\n---\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(dir, ".drafts", "hidden.md"), "---\ntitle: Hidden\n---\n")

	reg := registry.NewPostRegistry()
	scanner := NewPostScanner(reg, nil, nil)

	require.NoError(t, scanner.ScanDirectory(dir))
	assert.Equal(t, 2, reg.Count())

	all := reg.All()
	assert.Equal(t, "second", all[0].ID)
	assert.Equal(t, "first", all[1].ID)
	assert.NotEmpty(t, all[0].Hash)
	assert.False(t, all[0].LastMod.IsZero())

	// Deleted files disappear on rescan.
	require.NoError(t, os.Remove(filepath.Join(dir, "first.md")))
	require.NoError(t, scanner.ScanDirectory(dir))
	_, ok := reg.Get("first")
	assert.False(t, ok)
	assert.Equal(t, 1, reg.Count())
}

func TestScanDirectoryReportsBadFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "good.md"), "---\ntitle: Good\n---\n")
	writeFile(t, filepath.Join(dir, "bad.md"), "---\ntitle: [\n---\n")
	writeFile(t, filepath.Join(dir, "a", "dup.md"), "---\nslug: same\n---\n")
	writeFile(t, filepath.Join(dir, "b", "dup.md"), "---\nslug: same\n---\n")

	reg := registry.NewPostRegistry()
	err := NewPostScanner(reg, nil, nil).ScanDirectory(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan completed with 2 errors")

	_, ok := reg.Get("good")
	assert.True(t, ok)
	same, ok := reg.Get("same")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "a", "dup.md"), same.FilePath)
}

func TestScanDirectoryMissing(t *testing.T) {
	err := NewPostScanner(registry.NewPostRegistry(), nil, nil).ScanDirectory(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.IsIOError(err))
}

func TestScanDirectoryManyFiles(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 40; i++ {
		writeFile(t, filepath.Join(dir, fmt.Sprintf("post-%02d.md", i)), fmt.Sprintf("---\ntitle: Post %d\n---\n", i))
	}

	reg := registry.NewPostRegistry()
	require.NoError(t, NewPostScanner(reg, nil, nil).ScanDirectory(dir))
	assert.Equal(t, 40, reg.Count())
}

func TestScanFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "post.md")
	writeFile(t, path, "---\ntitle: One\n---\n")

	reg := registry.NewPostRegistry()
	scanner := NewPostScanner(reg, []string{".md"}, nil)

	require.NoError(t, scanner.ScanFile(path))
	post, ok := reg.Get("post")
	require.True(t, ok)
	assert.Equal(t, "One", post.Title)

	// Changing the slug replaces the old id.
	writeFile(t, path, "---\ntitle: One\nslug: renamed\n---\n")
	require.NoError(t, scanner.ScanFile(path))
	_, ok = reg.Get("post")
	assert.False(t, ok)
	_, ok = reg.Get("renamed")
	assert.True(t, ok)

	other := filepath.Join(dir, "other.md")
	writeFile(t, other, "---\nslug: renamed\n---\n")
	err := scanner.ScanFile(other)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidationFailed, errors.CodeOf(err))

	require.NoError(t, os.Remove(path))
	require.NoError(t, scanner.ScanFile(path))
	assert.Equal(t, 0, reg.Count())
}
