package page

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sitetree/internal/foundation/errors"
	"git.home.luguber.info/inful/sitetree/internal/metrics"
	"git.home.luguber.info/inful/sitetree/internal/testutil"
)

func TestFind_ResolvesPrefixedDirectories(t *testing.T) {
	root := siteFixture(t)
	reg := NewRegistry(root)

	p, err := reg.Find("/about/team/")
	require.NoError(t, err)
	require.Equal(t, "/about/team/", p.Permalink())
	require.Equal(t, filepath.Join(root, "1.about", "2.team", "default.yml"), p.DiskPath)
}

func TestFind_AcceptsUnnormalizedPermalinks(t *testing.T) {
	reg := NewRegistry(siteFixture(t))

	for _, link := range []string{"index", "/index", "index/", "/index/"} {
		p, err := reg.Find(link)
		require.NoError(t, err, link)
		require.Equal(t, "/index/", p.Permalink())
	}
	require.Equal(t, 1, reg.Len())
}

func TestFind_SkipsGlobHitsWithLongerNames(t *testing.T) {
	// "*team" also matches "1.myteam-archive"-style names; only exact names win.
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"1.myteam/default.yml": "title: Decoy\n",
		"2.team/default.yml":   "title: Team\n",
	})

	p, err := NewRegistry(root).Find("/team/")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "2.team", "default.yml"), p.DiskPath)
}

func TestFind_CachesWithoutSecondScan(t *testing.T) {
	rec := newCountingRecorder()
	reg := NewRegistry(siteFixture(t), WithRecorder(rec))

	first, err := reg.Find("/about/")
	require.NoError(t, err)
	second, err := reg.Find("/about/")
	require.NoError(t, err)

	require.Same(t, first, second)
	require.True(t, first.Equal(second))
	require.Equal(t, 1, rec.scans[metrics.ScanFind])
	require.Equal(t, 1, rec.misses)
	require.Equal(t, 1, rec.hits)
}

func TestFind_CacheSurvivesDiskChangesUntilReset(t *testing.T) {
	root := siteFixture(t)
	reg := NewRegistry(root)

	p, err := reg.Find("/products/")
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(filepath.Join(root, "2.products")))

	cached, err := reg.Find("/products/")
	require.NoError(t, err)
	require.Same(t, p, cached)

	reg.Reset()
	require.Equal(t, 0, reg.Len())
	_, err = reg.Find("/products/")
	require.ErrorIs(t, err, ErrPageNotFound)
}

func TestFind_NotFoundIsClassified(t *testing.T) {
	reg := NewRegistry(siteFixture(t))

	_, err := reg.Find("/nope/")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrPageNotFound))
	require.Equal(t, ferrors.CategoryNotFound, ferrors.GetCategory(err))

	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	v, _ := ce.Context().GetString("permalink")
	require.Equal(t, "/nope/", v)
	require.Equal(t, 0, reg.Len())
}

func TestLookup_MissingIsNone(t *testing.T) {
	reg := NewRegistry(siteFixture(t))

	opt, err := reg.Lookup("/gap/")
	require.NoError(t, err)
	require.True(t, opt.IsNone())

	opt, err = reg.Lookup("/gap/deep/")
	require.NoError(t, err)
	require.True(t, opt.IsSome())
}

func TestAll_DepthAnyFindsNestedPagesOnly(t *testing.T) {
	root := siteFixture(t)
	testutil.WriteTree(t, root, map[string]string{"root.yml": "title: Root\n"})
	reg := NewRegistry(root)

	pages, err := reg.All(root, DepthAny)
	require.NoError(t, err)
	links := permalinks(pages)
	require.Contains(t, links, "/about/team/lead/")
	require.Contains(t, links, "/gap/deep/")
	require.Contains(t, links, "/index/")
	require.NotContains(t, links, "/")
	require.Len(t, links, 10)
	require.Equal(t, 0, reg.Len())
}

func TestAll_DepthOne(t *testing.T) {
	root := siteFixture(t)
	reg := NewRegistry(root)

	pages, err := reg.All(root, DepthOne)
	require.NoError(t, err)
	require.Equal(t, []string{"/about/", "/myteam-archive/", "/products/", "/index/"}, permalinks(pages))
}

func TestAll_MissingDirectoryIsEmpty(t *testing.T) {
	reg := NewRegistry(t.TempDir())

	pages, err := reg.All(filepath.Join(reg.Root(), "missing"), DepthAny)
	require.NoError(t, err)
	require.Empty(t, pages)

	pages, err = reg.All(filepath.Join(reg.Root(), "missing"), DepthOne)
	require.NoError(t, err)
	require.Empty(t, pages)
}
