package source

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitetree/internal/config"
	ferrors "git.home.luguber.info/inful/sitetree/internal/foundation/errors"
)

// remote is a bare repository seeded through a working clone.
type remote struct {
	bare string
	work string
	repo *git.Repository
}

func newRemote(t *testing.T) *remote {
	t.Helper()
	tmp := t.TempDir()
	r := &remote{bare: filepath.Join(tmp, "remote.git"), work: filepath.Join(tmp, "seed")}
	_, err := git.PlainInit(r.bare, true)
	require.NoError(t, err)
	r.repo, err = git.PlainInit(r.work, false)
	require.NoError(t, err)
	_, err = r.repo.CreateRemote(&ggitcfg.RemoteConfig{Name: "origin", URLs: []string{r.bare}})
	require.NoError(t, err)
	return r
}

func (r *remote) commit(t *testing.T, rel, body string) plumbing.Hash {
	t.Helper()
	full := filepath.Join(r.work, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
	require.NoError(t, os.WriteFile(full, []byte(body), 0o600))
	wt, err := r.repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(rel)
	require.NoError(t, err)
	h, err := wt.Commit("add "+rel, &git.CommitOptions{Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()}})
	require.NoError(t, err)
	require.NoError(t, r.repo.Push(&git.PushOptions{RemoteName: "origin"}))
	return h
}

func TestRoot_Directory(t *testing.T) {
	s := New(config.ContentConfig{Root: "/srv/content"})
	require.False(t, s.IsGit())
	require.Equal(t, "/srv/content", s.Root())

	root, err := s.Sync(t.Context())
	require.NoError(t, err)
	require.Equal(t, "/srv/content", root)
}

func TestRoot_GitPath(t *testing.T) {
	s := New(config.ContentConfig{Git: &config.GitConfig{URL: "https://example.com/site.git", CheckoutDir: "/var/checkout", Path: "site/content"}})
	require.True(t, s.IsGit())
	require.Equal(t, filepath.Join("/var/checkout", "site", "content"), s.Root())
}

func TestSync_ClonesThenUpdates(t *testing.T) {
	r := newRemote(t)
	r.commit(t, "content/1.about/about.yml", "title: About\n")

	checkout := filepath.Join(t.TempDir(), "checkout")
	s := New(config.ContentConfig{Git: &config.GitConfig{URL: r.bare, Branch: "master", Path: "content", CheckoutDir: checkout}})

	root, err := s.Sync(t.Context())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(checkout, "content"), root)
	require.FileExists(t, filepath.Join(root, "1.about", "about.yml"))

	latest := r.commit(t, "content/2.contact/contact.yml", "title: Contact\n")
	_, err = s.Sync(t.Context())
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(root, "2.contact", "contact.yml"))

	repo, err := git.PlainOpen(checkout)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	require.Equal(t, latest, head.Hash())

	// A second sync with nothing new is a no-op.
	_, err = s.Sync(t.Context())
	require.NoError(t, err)
}

func TestSync_DiscardsLocalChanges(t *testing.T) {
	r := newRemote(t)
	r.commit(t, "index/index.yml", "title: Home\n")

	checkout := filepath.Join(t.TempDir(), "checkout")
	s := New(config.ContentConfig{Git: &config.GitConfig{URL: r.bare, Branch: "master", CheckoutDir: checkout}})
	_, err := s.Sync(t.Context())
	require.NoError(t, err)

	edited := filepath.Join(checkout, "index", "index.yml")
	require.NoError(t, os.WriteFile(edited, []byte("title: Local\n"), 0o600))
	r.commit(t, "index/index.yml", "title: Remote\n")

	_, err = s.Sync(t.Context())
	require.NoError(t, err)
	data, err := os.ReadFile(edited)
	require.NoError(t, err)
	require.Equal(t, "title: Remote\n", string(data))
}

func TestSync_MissingContentPath(t *testing.T) {
	r := newRemote(t)
	r.commit(t, "README.md", "hello")

	s := New(config.ContentConfig{Git: &config.GitConfig{URL: r.bare, Branch: "master", Path: "content", CheckoutDir: filepath.Join(t.TempDir(), "c")}})
	_, err := s.Sync(t.Context())
	require.Error(t, err)
	require.Equal(t, ferrors.CategoryContent, ferrors.GetCategory(err))
}

func TestSync_CloneFailureIsClassified(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.git")
	s := New(config.ContentConfig{Git: &config.GitConfig{URL: missing, CheckoutDir: filepath.Join(t.TempDir(), "c")}})
	_, err := s.Sync(t.Context())
	require.Error(t, err)
	require.True(t, ferrors.IsClassified(err))
}

func TestAuthMethod(t *testing.T) {
	a, err := authMethod(nil)
	require.NoError(t, err)
	require.Nil(t, a)

	a, err = authMethod(&config.AuthConfig{Type: config.AuthTypeNone})
	require.NoError(t, err)
	require.Nil(t, a)

	a, err = authMethod(&config.AuthConfig{Type: config.AuthTypeToken, Token: "s3cret"})
	require.NoError(t, err)
	require.Equal(t, &http.BasicAuth{Username: "token", Password: "s3cret"}, a)

	a, err = authMethod(&config.AuthConfig{Type: config.AuthTypeBasic, Username: "u", Password: "p"})
	require.NoError(t, err)
	require.Equal(t, &http.BasicAuth{Username: "u", Password: "p"}, a)

	_, err = authMethod(&config.AuthConfig{Type: config.AuthTypeBasic, Username: "u"})
	require.Equal(t, ferrors.CategoryConfig, ferrors.GetCategory(err))

	_, err = authMethod(&config.AuthConfig{Type: config.AuthTypeSSH, KeyPath: filepath.Join(t.TempDir(), "missing")})
	require.Equal(t, ferrors.CategoryConfig, ferrors.GetCategory(err))

	_, err = authMethod(&config.AuthConfig{Type: "kerberos"})
	require.Equal(t, ferrors.CategoryConfig, ferrors.GetCategory(err))
}

func TestClassify(t *testing.T) {
	cases := []struct {
		msg  string
		want ferrors.ErrorCategory
	}{
		{"authentication required", ferrors.CategoryConfig},
		{"repository not found", ferrors.CategoryNotFound},
		{"dial tcp: i/o timeout", ferrors.CategoryNetwork},
		{"object not found", ferrors.CategoryGit},
	}
	for _, tc := range cases {
		t.Run(tc.msg, func(t *testing.T) {
			err := classify(errString(tc.msg), "fetch", "https://example.com/x.git")
			require.Equal(t, tc.want, ferrors.GetCategory(err))
		})
	}
}

type errString string

func (e errString) Error() string { return string(e) }
