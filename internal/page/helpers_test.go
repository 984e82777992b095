package page

import (
	"testing"
	"time"

	"git.home.luguber.info/inful/sitetree/internal/metrics"
	"git.home.luguber.info/inful/sitetree/internal/testutil"
)

// siteFixture is a small content tree covering ordered, floating and gap
// directories plus asset buckets.
func siteFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"index/default.yml":               "title: Home\n",
		"1.about/default.yml":             "title: About\nbody: |\n  Line1\n  Line2\n",
		"1.about/images/logo.png":         "png",
		"1.about/2.team/default.yml":      "title: Team\n",
		"1.about/2.team/photo.jpg":        "jpg",
		"1.about/2.team/1.lead/lead.yml":  "title: Lead\n",
		"1.about/10.history/default.yml":  "title: History\n",
		"1.about/extra/default.yml":       "title: Floating\n",
		"2.products/product.yml":          "title: Products\n",
		"3.gap/1.deep/default.yml":        "title: Deep\n",
		"1.myteam-archive/default.yml":    "title: Decoy\n",
		"2.products/1.widget/widget.yml":  "title: Widget\n",
		"2.products/1.widget/.hidden.png": "x",
	})
	return root
}

type countingRecorder struct {
	metrics.NoopRecorder
	hits, misses int
	scans        map[metrics.ScanKind]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{scans: make(map[metrics.ScanKind]int)}
}

func (c *countingRecorder) IncCacheLookup(hit bool) {
	if hit {
		c.hits++
		return
	}
	c.misses++
}

func (c *countingRecorder) IncDiskScan(kind metrics.ScanKind) { c.scans[kind]++ }

func (c *countingRecorder) ObserveStageDuration(string, time.Duration) {}

func permalinks(pages []*Page) []string {
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		out = append(out, p.Permalink())
	}
	return out
}
