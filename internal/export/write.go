package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/inful/mdfp"

	ferrors "git.home.luguber.info/inful/sitetree/internal/foundation/errors"
	"git.home.luguber.info/inful/sitetree/internal/logfields"
	"git.home.luguber.info/inful/sitetree/internal/page"
)

// IndexPermalink is the page rendered as the site root.
const IndexPermalink = "index"

// ReadmeFile is written next to the published site.
const ReadmeFile = "ABOUT-THIS-SITE.txt"

func (r *run) teardown(_ context.Context) error {
	if err := os.RemoveAll(r.opts.OutputDir); err != nil {
		return ferrors.FileSystemError("remove output directory").WithCause(err).WithContext("path", r.opts.OutputDir).Build()
	}
	return nil
}

func (r *run) setup(_ context.Context) error {
	if err := os.MkdirAll(r.opts.OutputDir, 0o750); err != nil {
		return ferrors.FileSystemError("create output directory").WithCause(err).WithContext("path", r.opts.OutputDir).Build()
	}
	return nil
}

func (r *run) writeIndex(_ context.Context) error {
	index, err := r.reg.Find(IndexPermalink)
	if errors.Is(err, page.ErrPageNotFound) {
		slog.Warn("No index page; site root left without index.html", logfields.Permalink(IndexPermalink))
		return nil
	}
	if err != nil {
		return err
	}
	return r.writePage(index, "/index.html", false)
}

func (r *run) writePages(ctx context.Context) error {
	pages, err := r.scans.All(r.reg.Root(), page.DepthAny)
	if err != nil {
		return err
	}
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := p.WritePath()
		if r.opts.Flat {
			target = p.FlatWritePath()
		}
		slog.Debug("Writing page", logfields.Permalink(p.Permalink()), logfields.Output(target))
		if err := r.writePage(p, target, true); err != nil {
			return err
		}
	}
	return nil
}

// writePage renders p to sitePath below the output directory.
func (r *run) writePage(p *page.Page, sitePath string, report bool) error {
	html, err := r.builder.Render(p)
	if err != nil {
		return err
	}
	dest, err := r.outputPath(sitePath)
	if err != nil {
		return err
	}
	if err := writeFile(dest, []byte(html)); err != nil {
		return err
	}
	if !report {
		return nil
	}
	source, err := p.Source()
	if err != nil {
		return err
	}
	r.report.Pages = append(r.report.Pages, PageReport{
		Permalink:   p.Permalink(),
		WritePath:   sitePath,
		Fingerprint: mdfp.CalculateFingerprintFromParts(string(source), html),
	})
	return nil
}

func (r *run) writeReadme(_ context.Context) error {
	version := r.opts.Version
	if version == "" {
		version = "dev"
	}
	readme := fmt.Sprintf(`This site was built using sitetree.

To make changes to the site you will require the original source files.
Please contact the author of your site for details.

It may also be a good idea to ensure that you've got sitetree version %s or higher.
`, version)
	return writeFile(filepath.Join(r.opts.OutputDir, ReadmeFile), []byte(readme))
}

// outputPath maps a site path onto the output directory, refusing paths that
// would escape it.
func (r *run) outputPath(sitePath string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(sitePath, "/")))
	if rel == "." || filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ferrors.ExportError(fmt.Sprintf("output path %q escapes the output directory", sitePath)).
			WithContext("path", sitePath).
			Build()
	}
	return filepath.Join(r.opts.OutputDir, rel), nil
}

func writeFile(dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return ferrors.FileSystemError("create output directory").WithCause(err).WithContext("path", dest).Build()
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil { // #nosec G306 -- published site files are world-readable
		return ferrors.FileSystemError("write output file").WithCause(err).WithContext("path", dest).Build()
	}
	return nil
}
