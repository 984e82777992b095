package export

import (
	"context"
	"encoding/xml"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitetree/internal/page"
)

// SitemapFile is the sitemap written at the output root.
const SitemapFile = "sitemap.xml"

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func (r *run) writeSitemap(_ context.Context) error {
	pages, err := r.scans.All(r.reg.Root(), page.DepthAny)
	if err != nil {
		return err
	}
	data, err := Sitemap(baseURL(r.opts.Site), pages)
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(r.opts.OutputDir, SitemapFile), data)
}

// Sitemap renders a sitemaps.org urlset for pages. Floating pages are
// included; they are reachable even though navigation skips them.
func Sitemap(base string, pages []*page.Page) ([]byte, error) {
	set := urlset{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	base = strings.TrimSuffix(base, "/")
	for _, p := range pages {
		u := sitemapURL{Loc: base + p.Permalink()}
		if t, err := p.UpdatedAt(); err == nil {
			u.LastMod = t.UTC().Format(time.DateOnly)
		}
		set.URLs = append(set.URLs, u)
	}
	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

// baseURL reads the site's public URL from the site globals.
func baseURL(site map[string]any) string {
	for _, key := range []string{"base_url", "url"} {
		if s, ok := site[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
