// Package preview serves a published site locally and republishes it when
// content, templates, or public files change.
package preview

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitetree/internal/export"
	ferrors "git.home.luguber.info/inful/sitetree/internal/foundation/errors"
	"git.home.luguber.info/inful/sitetree/internal/logfields"
)

// DefaultDebounce is the quiet period before a rebuild starts.
const DefaultDebounce = 300 * time.Millisecond

// Builder produces the site. Each call starts from a fresh page registry.
type Builder interface {
	Publish(ctx context.Context) (*export.Report, error)
	Process(ctx context.Context) error
}

// Options configures a preview Server.
type Options struct {
	Builder   Builder
	OutputDir string

	// Watched directories. Changes confined to PublicDir only recopy files.
	ContentDir   string
	TemplatesDir string
	PublicDir    string

	Addr     string
	Debounce time.Duration
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// Server is a local preview server.
type Server struct {
	opts   Options
	status buildStatus
	errors *ferrors.HTTPErrorAdapter

	ready    chan struct{}
	listener net.Listener
	rebuild  chan struct{}

	mu    sync.Mutex
	timer *time.Timer
	full  bool
}

// New creates a Server.
func New(opts Options) *Server {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Server{
		opts:    opts,
		errors:  ferrors.NewHTTPErrorAdapter(nil),
		ready:   make(chan struct{}),
		rebuild: make(chan struct{}, 1),
	}
}

// Ready is closed once the server listens and watches for changes.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr returns the listening address after Ready.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Run builds the site, serves it, and rebuilds on change until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	s.build(ctx, true)

	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return ferrors.NetworkError("listen for preview").WithCause(err).WithContext("addr", s.opts.Addr).Build()
	}
	s.listener = ln
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Preview server stopped", logfields.Error(err))
		}
	}()
	slog.Info("Preview server listening", logfields.URL("http://"+ln.Addr().String()))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		_ = srv.Close()
		return ferrors.FileSystemError("create file watcher").WithCause(err).Build()
	}
	defer func() { _ = watcher.Close() }()
	for _, dir := range s.watchedDirs() {
		addDirsRecursive(watcher, dir)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.rebuildWorker(ctx)
	}()
	close(s.ready)

	err = s.loop(ctx, watcher)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		slog.Warn("HTTP server shutdown error", logfields.Error(serr))
	}
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	<-done
	return err
}

// Handler serves the output directory, or the last build error while the
// site is broken.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.opts.Metrics != nil {
		mux.Handle("/metrics", s.opts.Metrics)
	}
	files := http.FileServer(http.Dir(s.opts.OutputDir))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.status.lastErr(); err != nil {
			s.errors.WriteErrorResponse(w, r, err)
			return
		}
		files.ServeHTTP(w, r)
	}))
	return mux
}

func (s *Server) watchedDirs() []string {
	var dirs []string
	for _, d := range []string{s.opts.ContentDir, s.opts.TemplatesDir, s.opts.PublicDir} {
		if d == "" {
			continue
		}
		if st, err := os.Stat(d); err == nil && st.IsDir() {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

func (s *Server) loop(ctx context.Context, watcher *fsnotify.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			slog.Info("Shutting down preview server")
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handleEvent(watcher, ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (s *Server) handleEvent(watcher *fsnotify.Watcher, ev fsnotify.Event) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			addDirsRecursive(watcher, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	s.trigger(!within(s.opts.PublicDir, ev.Name))
}

// trigger schedules a rebuild after the debounce period. A full rebuild wins
// over a public-only one within the same window.
func (s *Server) trigger(full bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.full = s.full || full
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.opts.Debounce, func() {
		select {
		case s.rebuild <- struct{}{}:
		default:
		}
	})
}

// rebuildWorker runs builds one at a time. Requests arriving during a build
// collapse into one follow-up build.
func (s *Server) rebuildWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.rebuild:
			s.mu.Lock()
			full := s.full
			s.full = false
			s.mu.Unlock()
			slog.Info("Change detected; rebuilding site")
			s.build(ctx, full)
		}
	}
}

func (s *Server) build(ctx context.Context, full bool) {
	var err error
	if full {
		_, err = s.opts.Builder.Publish(ctx)
	} else {
		err = s.opts.Builder.Process(ctx)
	}
	if err != nil {
		slog.Warn("Preview build failed", logfields.Error(err))
		s.status.setError(err)
		return
	}
	s.status.setSuccess()
}

func addDirsRecursive(w *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if err := w.Add(path); err != nil {
				slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

func within(dir, path string) bool {
	if dir == "" {
		return false
	}
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// shouldIgnoreEvent reports hidden, editor swap, and OS metadata files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db", base == "4913":
		return true
	}
	return false
}

// buildStatus tracks the most recent build result.
type buildStatus struct {
	mu        sync.RWMutex
	lastError error
}

func (bs *buildStatus) setError(err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = err
}

func (bs *buildStatus) setSuccess() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = nil
}

func (bs *buildStatus) lastErr() error {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.lastError
}
