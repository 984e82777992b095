package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/sitetree/internal/foundation/errors"
)

// ErrTemplateNotFound reports that no template file exists for a name.
var ErrTemplateNotFound = errors.New("template not found")

// Extensions lists the template file extensions tried, in order.
var Extensions = []string{".html", ".tmpl", ".txt"}

// Template is a resolved template file.
type Template struct {
	Name string
	// Path is the template file.
	Path string
	// Root is the template directory, used to locate partials.
	Root string
}

// TemplateResolver maps a template name to a template file.
type TemplateResolver interface {
	Resolve(name string) (Template, error)
}

// TemplateRegistry resolves templates from a single directory.
type TemplateRegistry struct {
	dir string
}

// NewTemplateRegistry creates a resolver rooted at dir.
func NewTemplateRegistry(dir string) *TemplateRegistry {
	return &TemplateRegistry{dir: filepath.Clean(dir)}
}

// Dir returns the template directory.
func (r *TemplateRegistry) Dir() string { return r.dir }

// Resolve returns the first existing "<dir>/<name><ext>" for Extensions.
func (r *TemplateRegistry) Resolve(name string) (Template, error) {
	if name == "" || filepath.Base(name) != name {
		return Template{}, ferrors.ValidationError(fmt.Sprintf("invalid template name %q", name)).
			WithContext("template", name).
			Build()
	}
	for _, ext := range Extensions {
		path := filepath.Join(r.dir, name+ext)
		if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
			return Template{Name: name, Path: path, Root: r.dir}, nil
		}
	}
	return Template{}, ferrors.RenderError(fmt.Sprintf("template %q not found in %s", name, r.dir)).
		WithCause(ErrTemplateNotFound).
		WithContext("template", name).
		Build()
}
