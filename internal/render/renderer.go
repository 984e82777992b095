package render

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"text/template"
	"time"

	ferrors "git.home.luguber.info/inful/sitetree/internal/foundation/errors"
)

// Renderer executes a template against a render context.
type Renderer interface {
	Render(tpl Template, ctx map[string]any) (string, error)
}

// TextRenderer renders with text/template. Output is not HTML-escaped, so
// Markdown-rendered content values pass through intact.
type TextRenderer struct{}

// Render parses tpl (with any partials) and executes it.
func (TextRenderer) Render(tpl Template, ctx map[string]any) (string, error) {
	// #nosec G304 -- template paths come from the configured template directory
	body, err := os.ReadFile(tpl.Path)
	if err != nil {
		return "", ferrors.FileSystemError("read template").WithCause(err).WithContext("path", tpl.Path).Build()
	}

	t := template.New(tpl.Name).Funcs(Funcs())
	partials, err := partialFiles(tpl.Root)
	if err != nil {
		return "", err
	}
	if len(partials) > 0 {
		if t, err = t.ParseFiles(partials...); err != nil {
			return "", renderFailed(tpl, "parse partials", err)
		}
	}
	if t, err = t.New(tpl.Name).Parse(string(body)); err != nil {
		return "", renderFailed(tpl, "parse template", err)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, tpl.Name, ctx); err != nil {
		return "", renderFailed(tpl, "execute template", err)
	}
	return buf.String(), nil
}

func partialFiles(root string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(root, "partials"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list partials: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(root, "partials", e.Name()))
		}
	}
	return files, nil
}

func renderFailed(tpl Template, msg string, err error) error {
	return ferrors.RenderError(msg).
		WithCause(err).
		WithContext("template", tpl.Name).
		WithContext("path", tpl.Path).
		Build()
}

// Funcs returns the helper functions available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"join":    join,
		"default": defaultValue,
		"date":    formatDate,
		"upper":   strings.ToUpper,
		"lower":   strings.ToLower,
	}
}

// join concatenates the elements of a slice: {{ join ", " .tags }}.
func join(sep string, v any) string {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return ""
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Sprint(v)
	}
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = fmt.Sprint(rv.Index(i).Interface())
	}
	return strings.Join(parts, sep)
}

// defaultValue returns fallback when v is nil or the zero value:
// {{ default "Untitled" .title }}.
func defaultValue(fallback, v any) any {
	if v == nil {
		return fallback
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
		if rv.Len() == 0 {
			return fallback
		}
	default:
		if rv.IsZero() {
			return fallback
		}
	}
	return v
}

func formatDate(layout string, t time.Time) string {
	return t.Format(layout)
}
