package export

import (
	"time"

	"git.home.luguber.info/inful/sitetree/internal/linkcheck"
)

// Report summarises one publish run.
type Report struct {
	BuildID     string                 `json:"build_id" yaml:"build_id"`
	Output      string                 `json:"output" yaml:"output"`
	Start       time.Time              `json:"start" yaml:"start"`
	Duration    time.Duration          `json:"duration" yaml:"duration"`
	Pages       []PageReport           `json:"pages" yaml:"pages"`
	Assets      int                    `json:"assets" yaml:"assets"`
	BrokenLinks []linkcheck.BrokenLink `json:"broken_links,omitempty" yaml:"broken_links,omitempty"`
}

// PageReport describes one written page.
type PageReport struct {
	Permalink string `json:"permalink" yaml:"permalink"`
	WritePath string `json:"write_path" yaml:"write_path"`
	// Fingerprint hashes the descriptor together with the rendered output.
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
}
