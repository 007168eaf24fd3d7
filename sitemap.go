package buildpipe

import (
	"encoding/xml"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultSitemapFilename is the output document name used when
// SitemapOptions.Filename is empty.
const DefaultSitemapFilename = "sitemap.xml"

// sitemapTask generates a sitemap for every HTML file the views stage
// emitted under Dest, excluding the error pages.
type sitemapTask struct {
	BaseTask
}

func newSitemapTask() Task {
	return &sitemapTask{
		BaseTask: NewBaseTask(TaskSitemap, "Generates the sitemap document from emitted HTML"),
	}
}

// urlSet is the sitemap protocol document.
type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc        string `xml:"loc"`
	Lastmod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// Execute implements Task.Execute. It reads every HTML file under Dest
// except files named 404.html or 500.html at any depth, generates the
// urlset for exactly that file set, and writes it back under Dest.
func (t *sitemapTask) Execute(ctx *TaskContext) error {
	opts := ctx.Options.Sitemap.Value
	dest := ctx.Options.Dest
	if dest == "" {
		return fmt.Errorf("sitemap: no destination root configured")
	}

	pages, err := collectSitemapPages(dest)
	if err != nil {
		return fmt.Errorf("sitemap: %w", err)
	}

	set := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
	}
	for _, page := range pages {
		set.URLs = append(set.URLs, urlEntry{
			Loc:        pageURL(opts.SiteURL, page.rel),
			Lastmod:    page.lastmod,
			ChangeFreq: opts.ChangeFreq,
			Priority:   opts.Priority,
		})
	}

	data, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("sitemap: encoding: %w", err)
	}
	data = append([]byte(xml.Header), data...)

	filename := opts.Filename
	if filename == "" {
		filename = DefaultSitemapFilename
	}
	out := filepath.Join(dest, filename)
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("sitemap: writing %s: %w", out, err)
	}

	ctx.Logger.Info("Wrote %s with %d URLs", out, len(set.URLs))
	return nil
}

type sitemapPage struct {
	rel     string
	lastmod string
}

// collectSitemapPages walks dest for *.html files, excluding the reserved
// error pages 404.html and 500.html regardless of directory depth. Paths
// come back sorted so the generated document is deterministic.
func collectSitemapPages(dest string) ([]sitemapPage, error) {
	var pages []sitemapPage

	err := filepath.WalkDir(dest, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		base := d.Name()
		if filepath.Ext(base) != ".html" {
			return nil
		}
		if base == "404.html" || base == "500.html" {
			return nil
		}

		rel, err := filepath.Rel(dest, path)
		if err != nil {
			return err
		}

		var lastmod string
		if info, err := d.Info(); err == nil {
			lastmod = info.ModTime().UTC().Format("2006-01-02")
		}

		pages = append(pages, sitemapPage{
			rel:     filepath.ToSlash(rel),
			lastmod: lastmod,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].rel < pages[j].rel })
	return pages, nil
}

// pageURL maps a relative HTML path to its site URL. Index pages map to
// their directory.
func pageURL(siteURL, rel string) string {
	rel = strings.TrimSuffix(rel, "index.html")
	return strings.TrimSuffix(siteURL, "/") + "/" + rel
}
