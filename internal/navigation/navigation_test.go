package navigation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitetree/internal/page"
	"git.home.luguber.info/inful/sitetree/internal/testutil"
)

func TestTree(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"index/default.yml":              "title: Home\n",
		"1.about/default.yml":            "title: About\n",
		"1.about/2.team/default.yml":     "title: Team\n",
		"1.about/hidden-page/page.yml":   "title: Floating\n",
		"2.contact-us/default.yml":       "title: Contact\n",
		"legal/default.yml":              "title: Legal\n",
		"2.contact-us/images/map.png":    "png",
		"1.about/2.team/1.lead/lead.yml": "title: Lead\n",
	})

	items, err := Tree(page.NewScanMemo(page.NewRegistry(root)))
	require.NoError(t, err)
	require.Equal(t, []Item{
		{Name: "About", Permalink: "/about/", Children: []Item{{Name: "Team", Permalink: "/about/team/"}}},
		{Name: "Contact us", Permalink: "/contact-us/"},
	}, items)
}

func TestTree_EmptyRoot(t *testing.T) {
	items, err := Tree(page.NewScanMemo(page.NewRegistry(t.TempDir())))
	require.NoError(t, err)
	require.Empty(t, items)
}
