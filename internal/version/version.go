// Package version holds build metadata injected via ldflags:
//
//	-X github.com/kailas-cloud/searchgate/internal/version.Version=v1.2.0
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the build metadata for humans.
func String() string {
	return fmt.Sprintf("searchgate %s (commit %s, built %s)", Version, Commit, Date)
}
