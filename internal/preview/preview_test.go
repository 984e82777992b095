package preview

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitetree/internal/export"
	ferrors "git.home.luguber.info/inful/sitetree/internal/foundation/errors"
)

type fakeBuilder struct {
	mu        sync.Mutex
	publishes int
	processes int
	err       error
}

func (f *fakeBuilder) Publish(context.Context) (*export.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publishes++
	return &export.Report{}, f.err
}

func (f *fakeBuilder) Process(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processes++
	return f.err
}

func (f *fakeBuilder) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.publishes, f.processes
}

func TestShouldIgnoreEvent(t *testing.T) {
	require.True(t, shouldIgnoreEvent("/tmp/.hidden.yml"))
	require.True(t, shouldIgnoreEvent("/tmp/#foo#"))
	require.True(t, shouldIgnoreEvent("/tmp/foo.swp"))
	require.True(t, shouldIgnoreEvent("/tmp/foo.yml~"))
	require.True(t, shouldIgnoreEvent("/tmp/.DS_Store"))
	require.False(t, shouldIgnoreEvent("/tmp/about.yml"))
}

func TestWithin(t *testing.T) {
	require.True(t, within("/site/public", "/site/public/css/a.css"))
	require.False(t, within("/site/public", "/site/content/a.yml"))
	require.False(t, within("/site/public", "/site/publicity/a"))
	require.False(t, within("", "/site/public/a"))
}

func TestHandler_ServesOutput(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "index.html"), []byte("<h1>Home</h1>"), 0o600))
	s := New(Options{Builder: &fakeBuilder{}, OutputDir: out})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "<h1>Home</h1>")
}

func TestHandler_ShowsBuildError(t *testing.T) {
	b := &fakeBuilder{err: ferrors.RenderError("template broken").Build()}
	s := New(Options{Builder: b, OutputDir: t.TempDir()})
	s.build(t.Context(), true)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/about/", nil))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body ferrors.HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "template broken", body.Error)
	require.Equal(t, "render", body.Code)

	b.err = nil
	s.build(t.Context(), true)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEqual(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandler_Metrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "sitetree_up 1\n") })
	s := New(Options{Builder: &fakeBuilder{}, OutputDir: t.TempDir(), Metrics: metrics})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, "sitetree_up 1\n", rec.Body.String())
}

func TestTrigger_Debounces(t *testing.T) {
	b := &fakeBuilder{}
	s := New(Options{Builder: b, OutputDir: t.TempDir(), Debounce: 30 * time.Millisecond})
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go s.rebuildWorker(ctx)

	for range 5 {
		s.trigger(false)
	}
	s.trigger(true)
	require.Eventually(t, func() bool { p, _ := b.counts(); return p == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	p, proc := b.counts()
	require.Equal(t, 1, p)
	require.Equal(t, 0, proc)

	s.trigger(false)
	require.Eventually(t, func() bool { _, proc := b.counts(); return proc == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestRun_RebuildsOnChange(t *testing.T) {
	content := t.TempDir()
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "index.html"), []byte("ok"), 0o600))
	b := &fakeBuilder{}
	s := New(Options{Builder: b, OutputDir: out, ContentDir: content, Addr: "127.0.0.1:0", Debounce: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(t.Context())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()
	select {
	case <-s.Ready():
	case err := <-errc:
		t.Fatalf("run exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("preview server not ready")
	}

	resp, err := http.Get("http://" + s.Addr().String() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, "ok", string(body))

	require.NoError(t, os.WriteFile(filepath.Join(content, "about.yml"), []byte("title: About\n"), 0o600))
	require.Eventually(t, func() bool { p, _ := b.counts(); return p >= 2 }, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not stop")
	}
}
