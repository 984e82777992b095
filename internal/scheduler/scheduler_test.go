package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sitetree/internal/foundation/errors"
)

func TestEvery_RunsRepeatedly(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	var runs atomic.Int32
	id, err := s.Every(20*time.Millisecond, "count", func(context.Context) error {
		runs.Add(1)
		return errors.New("failures do not stop the schedule")
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	s.Start(t.Context())
	t.Cleanup(func() { _ = s.Stop() })
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestEvery_PassesStartContext(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	type key struct{}
	got := make(chan any, 1)
	_, err = s.Every(time.Hour, "ctx", func(ctx context.Context) error {
		select {
		case got <- ctx.Value(key{}):
		default:
		}
		return nil
	})
	require.NoError(t, err)

	s.Start(context.WithValue(t.Context(), key{}, "marker"))
	t.Cleanup(func() { _ = s.Stop() })
	select {
	case v := <-got:
		require.Equal(t, "marker", v)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not start immediately")
	}
}

func TestEvery_RejectsZeroInterval(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	_, err = s.Every(0, "bad", func(context.Context) error { return nil })
	require.Equal(t, ferrors.CategoryValidation, ferrors.GetCategory(err))
}

type fakeSyncer struct {
	root string
	err  error
}

func (f fakeSyncer) Sync(context.Context) (string, error) { return f.root, f.err }

func TestSyncAndPublish(t *testing.T) {
	var published string
	task := SyncAndPublish(fakeSyncer{root: "/content"}, func(_ context.Context, root string) error {
		published = root
		return nil
	})
	require.NoError(t, task(t.Context()))
	require.Equal(t, "/content", published)

	boom := errors.New("sync failed")
	called := false
	task = SyncAndPublish(fakeSyncer{err: boom}, func(context.Context, string) error {
		called = true
		return nil
	})
	require.ErrorIs(t, task(t.Context()), boom)
	require.False(t, called)
}

func TestExecute_LogLevelFollowsSeverity(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	s, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })
	s.mu.Lock()
	s.ctx = t.Context()
	s.mu.Unlock()

	s.execute("publish", func(context.Context) error { return ferrors.ContentError("bad descriptor").Build() })
	require.Contains(t, buf.String(), `"level":"ERROR"`)
	require.Contains(t, buf.String(), `"category":"content"`)

	buf.Reset()
	s.execute("publish", func(context.Context) error { return ferrors.NetworkError("remote hung up").Build() })
	require.Contains(t, buf.String(), `"level":"WARN"`)
	require.NotContains(t, buf.String(), `"level":"ERROR"`)
}
