package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitetree/internal/export"
	"git.home.luguber.info/inful/sitetree/internal/logfields"
	"git.home.luguber.info/inful/sitetree/internal/page"
	"git.home.luguber.info/inful/sitetree/internal/source"
)

// ResolveCmd implements the 'resolve' command.
type ResolveCmd struct {
	Permalink string `arg:"" help:"Permalink of the page, e.g. /about/team/"`
	Format    string `name:"format" enum:"yaml,json" default:"yaml" help:"Output format (yaml, json)"`
}

// Resolution is the printed summary of one page.
type Resolution struct {
	Permalink string         `json:"permalink" yaml:"permalink"`
	DiskPath  string         `json:"disk_path" yaml:"disk_path"`
	Template  string         `json:"template,omitempty" yaml:"template,omitempty"`
	Context   map[string]any `json:"context" yaml:"context"`
}

func (r *ResolveCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	exp := export.New(export.Options{
		ContentRoot:  source.New(cfg.Content).Root(),
		TemplatesDir: cfg.Templates.Dir,
		Site:         cfg.Site,
	})
	reg := exp.Registry()
	p, err := reg.Find(r.Permalink)
	if err != nil {
		return err
	}
	builder, err := exp.Builder(reg)
	if err != nil {
		return err
	}
	ctx, err := p.RenderContext(builder.Env)
	if err != nil {
		return err
	}

	res := Resolution{Permalink: p.Permalink(), DiskPath: p.DiskPath, Context: summarize(ctx)}
	if tpl, err := builder.Resolver.Resolve(p.TemplateName()); err == nil {
		res.Template = tpl.Path
	} else {
		slog.Warn("Page template not found", logfields.Permalink(p.Permalink()), logfields.Template(p.TemplateName()))
	}

	var out []byte
	if r.Format == "json" {
		out, err = json.MarshalIndent(res, "", "  ")
		out = append(out, '\n')
	} else {
		out, err = yaml.Marshal(res)
	}
	if err != nil {
		return fmt.Errorf("encode resolution: %w", err)
	}
	_, err = g.Out.Write(out)
	return err
}

// summarize replaces page references with their permalinks so the context
// can be printed.
func summarize(ctx map[string]any) map[string]any {
	out := make(map[string]any, len(ctx))
	for k, v := range ctx {
		switch x := v.(type) {
		case *page.Page:
			if x == nil {
				out[k] = nil
				continue
			}
			out[k] = x.Permalink()
		case []*page.Page:
			links := make([]string, 0, len(x))
			for _, p := range x {
				links = append(links, p.Permalink())
			}
			out[k] = links
		default:
			out[k] = v
		}
	}
	return out
}
