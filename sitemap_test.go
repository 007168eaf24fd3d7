package buildpipe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePage(t *testing.T, dest string, rel string) {
	t.Helper()
	path := filepath.Join(dest, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("<html></html>"), 0o644))
}

func runSitemap(t *testing.T, dest string, opts SitemapOptions) string {
	t.Helper()

	task := newSitemapTask()
	err := task.Execute(&TaskContext{
		GoContext: context.Background(),
		Options: Options{
			Dest:    dest,
			Sitemap: Enabled(opts),
		},
		Logger: &TestLogger{t},
	})
	require.NoError(t, err)

	filename := opts.Filename
	if filename == "" {
		filename = DefaultSitemapFilename
	}
	data, err := os.ReadFile(filepath.Join(dest, filename))
	require.NoError(t, err)
	return string(data)
}

func TestSitemapExcludesErrorPagesAtAnyDepth(t *testing.T) {
	dest := t.TempDir()
	writePage(t, dest, "404.html")
	writePage(t, dest, "a/500.html")
	writePage(t, dest, "index.html")
	writePage(t, dest, "b/c/page.html")

	out := runSitemap(t, dest, SitemapOptions{SiteURL: "https://example.com"})

	assert.Contains(t, out, "<loc>https://example.com/</loc>")
	assert.Contains(t, out, "<loc>https://example.com/b/c/page.html</loc>")
	assert.NotContains(t, out, "404.html")
	assert.NotContains(t, out, "500.html")
	assert.Equal(t, 2, strings.Count(out, "<loc>"))
}

func TestSitemapIncludesOnlyHTML(t *testing.T) {
	dest := t.TempDir()
	writePage(t, dest, "page.html")
	require.NoError(t, os.WriteFile(filepath.Join(dest, "style.css"), []byte("body{}"), 0o644))

	out := runSitemap(t, dest, SitemapOptions{SiteURL: "https://example.com"})

	assert.Contains(t, out, "page.html")
	assert.NotContains(t, out, "style.css")
}

func TestSitemapEmitsOptionalFields(t *testing.T) {
	dest := t.TempDir()
	writePage(t, dest, "page.html")

	out := runSitemap(t, dest, SitemapOptions{
		SiteURL:    "https://example.com",
		ChangeFreq: "daily",
		Priority:   "0.5",
	})

	assert.Contains(t, out, "<changefreq>daily</changefreq>")
	assert.Contains(t, out, "<priority>0.5</priority>")
	assert.Contains(t, out, "<lastmod>")
}

func TestSitemapHonorsCustomFilename(t *testing.T) {
	dest := t.TempDir()
	writePage(t, dest, "page.html")

	runSitemap(t, dest, SitemapOptions{
		SiteURL:  "https://example.com",
		Filename: "map.xml",
	})

	assert.FileExists(t, filepath.Join(dest, "map.xml"))
}

func TestSitemapRequiresDest(t *testing.T) {
	task := newSitemapTask()
	err := task.Execute(&TaskContext{
		GoContext: context.Background(),
		Options:   Options{Sitemap: Enabled(SitemapOptions{})},
		Logger:    &TestLogger{t},
	})
	assert.Error(t, err)
}

func TestSitemapIsDeterministic(t *testing.T) {
	dest := t.TempDir()
	writePage(t, dest, "z.html")
	writePage(t, dest, "a.html")
	writePage(t, dest, "m/page.html")

	first := runSitemap(t, dest, SitemapOptions{SiteURL: "https://example.com"})
	second := runSitemap(t, dest, SitemapOptions{SiteURL: "https://example.com"})

	assert.Equal(t, first, second)
	assert.Less(t, strings.Index(first, "a.html"), strings.Index(first, "z.html"))
}
