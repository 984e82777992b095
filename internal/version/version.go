// Package version holds build metadata, set at link time:
//
//	go build -ldflags "-X git.home.luguber.info/inful/sitetree/internal/version.Version=v1.2.0"
package version

import "fmt"

// Version is the release version.
var Version = "dev"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String describes the build for --version output.
func String() string {
	return fmt.Sprintf("sitetree %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
