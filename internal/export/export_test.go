package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitetree/internal/eventstore"
	ferrors "git.home.luguber.info/inful/sitetree/internal/foundation/errors"
	"git.home.luguber.info/inful/sitetree/internal/metrics"
	"git.home.luguber.info/inful/sitetree/internal/notify"
	"git.home.luguber.info/inful/sitetree/internal/page"
	"git.home.luguber.info/inful/sitetree/internal/render"
	"git.home.luguber.info/inful/sitetree/internal/testutil"
)

type project struct {
	content, templates, public, output string
}

func newProject(t *testing.T) project {
	t.Helper()
	base := t.TempDir()
	p := project{
		content:   filepath.Join(base, "content"),
		templates: filepath.Join(base, "templates"),
		public:    filepath.Join(base, "public"),
		output:    filepath.Join(base, "output"),
	}
	testutil.WriteTree(t, p.content, map[string]string{
		"index/default.yml":          "title: Home\n",
		"1.about/default.yml":        "title: About\nbody: |\n  Hello\n  world\n",
		"1.about/images/logo.png":    "png",
		"1.about/2.team/default.yml": "title: Team\n",
		"1.about/2.team/photo.jpg":   "jpg",
		"2.contact/default.yml":      "title: Contact\n",
	})
	testutil.WriteTree(t, p.templates, map[string]string{
		"default.html": `<h1>{{ .title }}</h1>{{ range .navigation }}<a href="{{ .Permalink }}">{{ .Name }}</a>{{ end }}`,
	})
	testutil.WriteTree(t, p.public, map[string]string{
		"css/site.css":  "body{}",
		"css/site.less": "@x: 1;",
	})
	return p
}

func (p project) options() Options {
	return Options{
		ContentRoot:  p.content,
		TemplatesDir: p.templates,
		PublicDir:    p.public,
		OutputDir:    p.output,
		Clean:        true,
		Site:         map[string]any{"base_url": "https://example.com"},
		Version:      "1.2.3",
	}
}

func (p project) site(t *testing.T) *testutil.FileAssertions {
	return testutil.NewFileAssertions(t, p.output)
}

type recordingNotifier struct {
	notify.Nop
	events []notify.PublishedEvent
}

func (n *recordingNotifier) Published(_ context.Context, e notify.PublishedEvent) error {
	n.events = append(n.events, e)
	return nil
}

type outcomeRecorder struct {
	metrics.NoopRecorder
	outcomes []metrics.Outcome
	stages   []string
	pages    int
	scans    map[metrics.ScanKind]int
}

func (o *outcomeRecorder) IncDiskScan(kind metrics.ScanKind) {
	if o.scans == nil {
		o.scans = make(map[metrics.ScanKind]int)
	}
	o.scans[kind]++
}

func (o *outcomeRecorder) IncPublishOutcome(out metrics.Outcome) { o.outcomes = append(o.outcomes, out) }
func (o *outcomeRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	o.stages = append(o.stages, stage)
}
func (o *outcomeRecorder) SetPagesPublished(n int) { o.pages = n }

func TestPublish_Nested(t *testing.T) {
	p := newProject(t)
	store, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	notifier := &recordingNotifier{}
	rec := &outcomeRecorder{}

	opts := p.options()
	opts.History, opts.Notifier, opts.Recorder = store, notifier, rec
	report, err := New(opts).Publish(t.Context())
	require.NoError(t, err)

	p.site(t).
		Equals("index.html", `<h1>Home</h1><a href="/about/">About</a><a href="/contact/">Contact</a>`).
		Contains("about/index.html", "<h1>About</h1>").
		Contains("about/team/index.html", "<h1>Team</h1>").
		Contains("index/index.html", "<h1>Home</h1>").
		Equals("about/images/logo.png", "png").
		Equals("about/team/photo.jpg", "jpg").
		Equals("css/site.css", "body{}").
		Missing("css/site.less").
		Contains(SitemapFile, "<loc>https://example.com/about/team/</loc>").
		Contains(ReadmeFile, "version 1.2.3")

	require.Len(t, report.Pages, 4)
	require.Equal(t, 2, report.Assets)
	for _, pr := range report.Pages {
		require.NotEmpty(t, pr.Fingerprint)
	}

	builds, err := eventstore.Builds(t.Context(), store, 0)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	require.Equal(t, report.BuildID, builds[0].BuildID)
	require.Equal(t, eventstore.StatusCompleted, builds[0].Status)
	require.Equal(t, 4, builds[0].Pages)

	require.Len(t, notifier.events, 1)
	require.Equal(t, report.BuildID, notifier.events[0].BuildID)
	require.Equal(t, []metrics.Outcome{metrics.OutcomeSuccess}, rec.outcomes)
	require.Equal(t, 4, rec.pages)
	require.Equal(t, []string{"teardown", "setup", "copy_assets", "copy_public", "write_index", "write_pages", "write_sitemap", "write_readme", "cleanup"}, rec.stages)
}

func TestPublish_ScansEachDirectoryOnce(t *testing.T) {
	p := newProject(t)
	rec := &outcomeRecorder{}
	opts := p.options()
	opts.Recorder = rec

	_, err := New(opts).Publish(t.Context())
	require.NoError(t, err)
	// Root, about and contact for navigation; the recursive root scan shared by
	// asset copy, page writes and the sitemap; then index and team children.
	require.Equal(t, 6, rec.scans[metrics.ScanAll])
}

func TestPublish_Flat(t *testing.T) {
	p := newProject(t)
	opts := p.options()
	opts.Flat = true

	report, err := New(opts).Publish(t.Context())
	require.NoError(t, err)
	p.site(t).
		Contains("about.html", "<h1>About</h1>").
		Contains("about/team.html", "<h1>Team</h1>").
		Missing("about/index.html")

	paths := make([]string, 0, len(report.Pages))
	for _, pr := range report.Pages {
		paths = append(paths, pr.WritePath)
	}
	require.ElementsMatch(t, []string{"/index.html", "/about.html", "/about/team.html", "/contact.html"}, paths)
}

func TestPublish_CleanControlsTeardown(t *testing.T) {
	p := newProject(t)
	testutil.WriteTree(t, p.output, map[string]string{"stale.html": "old"})

	opts := p.options()
	opts.Clean = false
	_, err := New(opts).Publish(t.Context())
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(p.output, "stale.html"))

	opts.Clean = true
	_, err = New(opts).Publish(t.Context())
	require.NoError(t, err)
	require.NoFileExists(t, filepath.Join(p.output, "stale.html"))
}

func TestPublish_MissingTemplateFails(t *testing.T) {
	p := newProject(t)
	testutil.WriteTree(t, p.content, map[string]string{"3.special/special.yml": "title: Special\n"})
	store, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	rec := &outcomeRecorder{}

	opts := p.options()
	opts.History, opts.Recorder = store, rec
	_, err = New(opts).Publish(t.Context())
	require.ErrorIs(t, err, render.ErrTemplateNotFound)
	require.Equal(t, []metrics.Outcome{metrics.OutcomeFailed}, rec.outcomes)

	builds, err := eventstore.Builds(t.Context(), store, 0)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	require.Equal(t, eventstore.StatusFailed, builds[0].Status)
	require.Equal(t, string(StageWritePages), builds[0].ErrorStage)
}

func TestPublish_MissingIndexIsSkipped(t *testing.T) {
	p := newProject(t)
	require.NoError(t, os.RemoveAll(filepath.Join(p.content, "index")))

	_, err := New(p.options()).Publish(t.Context())
	require.NoError(t, err)
	require.NoFileExists(t, filepath.Join(p.output, "index.html"))
}

func TestPublish_Canceled(t *testing.T) {
	p := newProject(t)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := New(p.options()).Publish(ctx)
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, ferrors.CategoryRuntime, ferrors.GetCategory(err))
}

func TestPublish_CheckLinks(t *testing.T) {
	p := newProject(t)
	testutil.WriteTree(t, p.templates, map[string]string{
		"default.html": `<h1>{{ .title }}</h1><a href="/nowhere/">x</a>`,
	})
	opts := p.options()
	opts.CheckLinks = true

	report, err := New(opts).Publish(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, report.BrokenLinks)
	for _, b := range report.BrokenLinks {
		require.Equal(t, "/nowhere/", b.URL)
	}
}

func TestProcess_CopiesWithoutRendering(t *testing.T) {
	p := newProject(t)

	require.NoError(t, New(p.options()).Process(t.Context()))
	p.site(t).
		Exists("about/images/logo.png").
		Exists("css/site.css").
		Missing("css/site.less").
		Missing("index.html")
}

func TestOutputPath_RejectsEscapes(t *testing.T) {
	r := &run{opts: Options{OutputDir: t.TempDir()}}
	_, err := r.outputPath("/../../etc/passwd")
	require.Error(t, err)
	require.Equal(t, ferrors.CategoryExport, ferrors.GetCategory(err))

	got, err := r.outputPath("/about/index.html")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(r.opts.OutputDir, "about", "index.html"), got)
}

func TestSitemap(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{"1.about/default.yml": "title: About\n"})
	reg := page.NewRegistry(root)
	pages, err := reg.All(root, page.DepthAny)
	require.NoError(t, err)

	out, err := Sitemap("https://example.com/", pages)
	require.NoError(t, err)
	require.Contains(t, string(out), `<?xml version="1.0" encoding="UTF-8"?>`)
	require.Contains(t, string(out), `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	require.Contains(t, string(out), "<loc>https://example.com/about/</loc>")
	require.Contains(t, string(out), "<lastmod>")
}
