package render

import (
	"log/slog"

	"git.home.luguber.info/inful/sitetree/internal/logfields"
	"git.home.luguber.info/inful/sitetree/internal/page"
)

// Job pairs a page with its template and render context.
type Job struct {
	Page     *page.Page
	Template Template
	Context  map[string]any
}

// Builder resolves templates and assembles render contexts.
type Builder struct {
	Resolver TemplateResolver
	Renderer Renderer
	Env      page.Environment
}

// NewBuilder wires a template directory to the text renderer.
func NewBuilder(templateDir string, env page.Environment) *Builder {
	return &Builder{
		Resolver: NewTemplateRegistry(templateDir),
		Renderer: TextRenderer{},
		Env:      env,
	}
}

// Build resolves the page template and its render context.
func (b *Builder) Build(p *page.Page) (Job, error) {
	tpl, err := b.Resolver.Resolve(p.TemplateName())
	if err != nil {
		return Job{}, err
	}
	ctx, err := p.RenderContext(b.Env)
	if err != nil {
		return Job{}, err
	}
	return Job{Page: p, Template: tpl, Context: ctx}, nil
}

// Render builds the job and executes it.
func (b *Builder) Render(p *page.Page) (string, error) {
	job, err := b.Build(p)
	if err != nil {
		return "", err
	}
	slog.Debug("Rendering page", logfields.Permalink(p.Permalink()), logfields.Template(job.Template.Path))
	return b.Renderer.Render(job.Template, job.Context)
}
