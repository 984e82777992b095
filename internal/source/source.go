// Package source resolves the content root. A plain directory is used as is;
// a configured git repository is cloned on first use and kept in step with
// its remote branch afterwards.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/sitetree/internal/config"
	ferrors "git.home.luguber.info/inful/sitetree/internal/foundation/errors"
	"git.home.luguber.info/inful/sitetree/internal/logfields"
	"git.home.luguber.info/inful/sitetree/internal/retry"
)

// Source locates the content tree for one configuration.
type Source struct {
	root string
	git  *config.GitConfig
}

// New creates a Source for the content section of a configuration.
func New(cfg config.ContentConfig) *Source {
	return &Source{root: cfg.Root, git: cfg.Git}
}

// IsGit reports whether content comes from a git repository.
func (s *Source) IsGit() bool { return s.git != nil }

// Root returns the effective content root without touching the network.
func (s *Source) Root() string {
	if s.git == nil {
		return s.root
	}
	return filepath.Join(s.git.CheckoutDir, filepath.FromSlash(s.git.Path))
}

// Sync clones or updates the repository when one is configured and returns
// the effective content root.
func (s *Source) Sync(ctx context.Context) (string, error) {
	if s.git == nil {
		return s.root, nil
	}
	dir := s.git.CheckoutDir
	err := retry.Do(ctx, s.policy(), "git sync", func(ctx context.Context) error {
		if _, statErr := os.Stat(filepath.Join(dir, ".git")); statErr == nil {
			return s.update(ctx, dir)
		}
		return s.clone(ctx, dir)
	})
	if err != nil {
		return "", err
	}

	root := s.Root()
	if info, statErr := os.Stat(root); statErr != nil || !info.IsDir() {
		return "", ferrors.ContentError(fmt.Sprintf("content path %q not found in repository", s.git.Path)).
			WithContext("url", s.git.URL).
			WithContext("path", root).
			Build()
	}
	return root, nil
}

func (s *Source) policy() retry.Policy {
	r := s.git.Retry
	initial, _ := time.ParseDuration(r.InitialDelay)
	maxDelay, _ := time.ParseDuration(r.MaxDelay)
	return retry.NewPolicy(retry.BackoffMode(r.Backoff), initial, maxDelay, r.MaxRetries)
}

func (s *Source) clone(ctx context.Context, dir string) error {
	slog.Debug("Cloning content repository", logfields.URL(s.git.URL), slog.String("branch", s.git.Branch), logfields.Path(dir))
	if err := os.RemoveAll(dir); err != nil {
		return ferrors.FileSystemError("remove checkout directory").WithCause(err).WithContext("path", dir).Build()
	}
	auth, err := authMethod(s.git.Auth)
	if err != nil {
		return err
	}
	opts := &git.CloneOptions{URL: s.git.URL, Auth: auth, Tags: git.NoTags}
	if s.git.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(s.git.Branch)
		opts.SingleBranch = true
	}
	repo, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		return classify(err, "clone", s.git.URL)
	}
	logHead(repo, "Content repository cloned", s.git.URL)
	return nil
}

// update fetches the remote branch and hard resets the checkout onto it.
// The checkout is managed by sitetree, so local changes are discarded.
func (s *Source) update(ctx context.Context, dir string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return classify(err, "open", s.git.URL)
	}
	auth, err := authMethod(s.git.Auth)
	if err != nil {
		return err
	}
	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: git.DefaultRemoteName,
		Auth:       auth,
		Tags:       git.NoTags,
		RefSpecs:   []ggitcfg.RefSpec{"+refs/heads/*:refs/remotes/origin/*"},
		Force:      true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return classify(err, "fetch", s.git.URL)
	}

	branch := s.targetBranch(repo)
	remote, err := repo.Reference(plumbing.NewRemoteReferenceName(git.DefaultRemoteName, branch), true)
	if err != nil {
		return classify(err, "resolve branch", s.git.URL)
	}
	head, _ := repo.Head()
	if head != nil && head.Hash() == remote.Hash() {
		slog.Info("Content repository up to date", logfields.URL(s.git.URL), slog.String("branch", branch))
		return nil
	}

	wt, err := repo.Worktree()
	if err != nil {
		return classify(err, "worktree", s.git.URL)
	}
	local := plumbing.NewBranchReferenceName(branch)
	if err := repo.Storer.SetReference(plumbing.NewHashReference(local, remote.Hash())); err != nil {
		return classify(err, "update branch", s.git.URL)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: local, Force: true}); err != nil {
		return classify(err, "checkout", s.git.URL)
	}
	if err := wt.Reset(&git.ResetOptions{Commit: remote.Hash(), Mode: git.HardReset}); err != nil {
		return classify(err, "reset", s.git.URL)
	}
	logHead(repo, "Content repository updated", s.git.URL)
	return nil
}

// targetBranch is the configured branch, else the checked out one, else main.
func (s *Source) targetBranch(repo *git.Repository) string {
	if s.git.Branch != "" {
		return s.git.Branch
	}
	if head, err := repo.Head(); err == nil && head.Name().IsBranch() {
		return head.Name().Short()
	}
	return "main"
}

func logHead(repo *git.Repository, msg, url string) {
	if ref, err := repo.Head(); err == nil {
		slog.Info(msg, logfields.URL(url), slog.String("commit", ref.Hash().String()[:8]))
		return
	}
	slog.Info(msg, logfields.URL(url))
}
