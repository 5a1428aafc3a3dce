// Package version holds build metadata injected with -ldflags.
package version

import "fmt"

// Set at build time, e.g. -ldflags "-X .../internal/version.Version=v1.2.0".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// String formats the build metadata on one line.
func String() string {
	return fmt.Sprintf("docweave %s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
