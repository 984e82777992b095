package export

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/sitetree/internal/foundation/errors"
	"git.home.luguber.info/inful/sitetree/internal/logfields"
	"git.home.luguber.info/inful/sitetree/internal/page"
)

// stylesheetSources are removed from the output after copying. Nothing compiles
// them, so a site ships its compiled .css in public/.
var stylesheetSources = []string{".less", ".sass", ".scss"}

func (r *run) copyAssets(ctx context.Context) error {
	pages, err := r.scans.All(r.reg.Root(), page.DepthAny)
	if err != nil {
		return err
	}
	// Assets are listed recursively, so ancestors repeat their children's files.
	copied := make(map[string]bool)
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		assets, err := p.Assets()
		if err != nil {
			return err
		}
		for _, a := range assets {
			if copied[a.Path] {
				continue
			}
			copied[a.Path] = true
			dest, err := r.outputPath(a.Path)
			if err != nil {
				return err
			}
			if err := copyFile(a.DiskPath, dest); err != nil {
				return err
			}
			r.report.Assets++
		}
	}
	slog.Debug("Copied page assets", logfields.Count(r.report.Assets))
	return nil
}

// copyPublic copies the public directory into the output, overwriting files.
func (r *run) copyPublic(_ context.Context) error {
	src := r.opts.PublicDir
	if src == "" {
		return nil
	}
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		slog.Debug("No public directory", logfields.Path(src))
		return nil
	}
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(r.opts.OutputDir, rel)
		if d.IsDir() {
			return os.MkdirAll(dest, 0o750)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, dest)
	})
	if err != nil {
		if _, ok := ferrors.AsClassified(err); ok {
			return err
		}
		return ferrors.FileSystemError("copy public files").WithCause(err).WithContext("path", src).Build()
	}
	return nil
}

// cleanup removes stylesheet sources that were copied along with public files.
func (r *run) cleanup(_ context.Context) error {
	err := filepath.WalkDir(r.opts.OutputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isStylesheetSource(path) {
			return nil
		}
		slog.Debug("Removing stylesheet source", logfields.Path(path))
		return os.Remove(path)
	})
	if err != nil {
		return ferrors.FileSystemError("remove stylesheet sources").WithCause(err).WithContext("path", r.opts.OutputDir).Build()
	}
	return nil
}

func isStylesheetSource(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range stylesheetSources {
		if ext == s {
			return true
		}
	}
	return false
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return ferrors.FileSystemError("create directory").WithCause(err).WithContext("path", dst).Build()
	}
	// #nosec G304 -- src comes from a scan of the content or public directory
	in, err := os.Open(src)
	if err != nil {
		return ferrors.FileSystemError("open source file").WithCause(err).WithContext("path", src).Build()
	}
	defer func() { _ = in.Close() }()

	// #nosec G304 -- dst is validated to stay under the output directory
	out, err := os.Create(dst)
	if err != nil {
		return ferrors.FileSystemError("create destination file").WithCause(err).WithContext("path", dst).Build()
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return ferrors.FileSystemError("copy file").WithCause(err).WithContext("path", dst).Build()
	}
	return out.Close()
}
