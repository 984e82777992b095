package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitetree/internal/config"
	"git.home.luguber.info/inful/sitetree/internal/descriptor"
	ferrors "git.home.luguber.info/inful/sitetree/internal/foundation/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

const skeletonTemplate = `<!doctype html>
<html>
<head><title>{{ .title }} | {{ default "sitetree" .site_name }}</title></head>
<body>
<nav>{{ range .navigation }}<a href="{{ .Permalink }}">{{ .Name }}</a> {{ end }}</nav>
<h1>{{ .title }}</h1>
{{ .body }}
</body>
</html>
`

// skeleton lists the starter files written next to a fresh configuration.
var skeleton = []struct {
	path   string
	fields map[string]any
	raw    string
}{
	{path: "content/index/default.yml", fields: map[string]any{"title": "Home", "body": "Welcome to your new site.\n\nEdit `content/index/default.yml` to change this page.\n"}},
	{path: "content/1.about/default.yml", fields: map[string]any{"title": "About", "body": "Pages live in numbered directories.\n\nThe number sets their order.\n"}},
	{path: "templates/default.html", raw: skeletonTemplate},
	{path: "public/css/site.css", raw: "body { font-family: sans-serif; }\n"},
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	_, _ = fmt.Fprintln(g.Out, "Initializing sitetree project")
	_, _ = fmt.Fprintf(g.Out, "Writing configuration to %s\n", root.Config)
	if err := config.Init(root.Config, i.Force); err != nil {
		_, _ = fmt.Fprintln(g.Out, "Initialization failed")
		return err
	}
	base := filepath.Dir(root.Config)
	for _, f := range skeleton {
		path := filepath.Join(base, filepath.FromSlash(f.path))
		written, err := writeSkeletonFile(path, f.fields, f.raw)
		if err != nil {
			return err
		}
		if written {
			_, _ = fmt.Fprintf(g.Out, "Created %s\n", f.path)
		}
	}
	_, _ = fmt.Fprintln(g.Out, "initialized successfully")
	return nil
}

// writeSkeletonFile writes a starter file unless one already exists.
func writeSkeletonFile(path string, fields map[string]any, raw string) (bool, error) {
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	data := []byte(raw)
	if fields != nil {
		var err error
		if data, err = descriptor.Encode(fields); err != nil {
			return false, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return false, ferrors.FileSystemError("create skeleton directory").WithCause(err).WithContext("path", path).Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return false, ferrors.FileSystemError("write skeleton file").WithCause(err).WithContext("path", path).Build()
	}
	return true, nil
}
