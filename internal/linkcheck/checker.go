package linkcheck

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitetree/internal/foundation/errors"
)

// BrokenLink is an internal link whose target is missing from the output.
type BrokenLink struct {
	// Source is the site path of the page holding the link.
	Source string `json:"source" yaml:"source"`
	URL    string `json:"url" yaml:"url"`
	Tag    string `json:"tag" yaml:"tag"`
}

// Check scans every HTML file under outputDir and reports internal links
// whose target does not exist. Results are sorted by source then URL.
func Check(outputDir string) ([]BrokenLink, error) {
	var broken []BrokenLink
	err := filepath.WalkDir(outputDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".html") {
			return nil
		}
		rel, err := filepath.Rel(outputDir, p)
		if err != nil {
			return err
		}
		source := "/" + filepath.ToSlash(rel)

		links, err := ExtractLinks(p)
		if err != nil {
			return err
		}
		for _, l := range links {
			u, ok := internalPath(l.URL)
			if !ok {
				continue
			}
			if !exists(outputDir, resolve(source, u.Path)) {
				broken = append(broken, BrokenLink{Source: source, URL: l.URL, Tag: l.Tag})
			}
		}
		return nil
	})
	if err != nil {
		if _, ok := errors.AsClassified(err); ok {
			return nil, err
		}
		return nil, errors.FileSystemError("scan output for links").WithCause(err).WithContext("path", outputDir).Build()
	}
	sort.SliceStable(broken, func(i, j int) bool {
		if broken[i].Source != broken[j].Source {
			return broken[i].Source < broken[j].Source
		}
		return broken[i].URL < broken[j].URL
	})
	return broken, nil
}

// resolve turns a link into an absolute site path relative to the page at source.
func resolve(source, link string) string {
	if strings.HasPrefix(link, "/") {
		return link
	}
	resolved := path.Join(path.Dir(source), link)
	if strings.HasSuffix(link, "/") {
		resolved += "/"
	}
	return resolved
}

// exists accepts a file, a directory holding index.html, or a flat page
// written as "<path>.html".
func exists(outputDir, sitePath string) bool {
	target := filepath.Join(outputDir, filepath.FromSlash(strings.TrimPrefix(sitePath, "/")))
	if fi, err := os.Stat(target); err == nil {
		if !fi.IsDir() {
			return true
		}
		_, err := os.Stat(filepath.Join(target, "index.html"))
		return err == nil
	}
	trimmed := strings.TrimSuffix(target, string(filepath.Separator))
	_, err := os.Stat(trimmed + ".html")
	return err == nil
}
