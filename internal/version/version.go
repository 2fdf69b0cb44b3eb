// Package appversion provides build version information injected via ldflags.
//
//	-ldflags="-X github.com/jwhited/mpreach/internal/version.Version=v0.1.0
//	          -X github.com/jwhited/mpreach/internal/version.GitCommit=abc1234
//	          -X github.com/jwhited/mpreach/internal/version.BuildDate=2026-10-18T12:00:00Z"
package appversion

import "fmt"

var (
	// Version is the semantic version (e.g., "v0.1.0" or "dev").
	Version = "dev"
	// GitCommit is the short git commit hash at build time.
	GitCommit = "unknown"
	// BuildDate is the RFC 3339 build timestamp.
	BuildDate = "unknown"
)

// Full returns a human-readable multi-line version string.
func Full(binary string) string {
	return fmt.Sprintf("%s %s\n  commit:  %s\n  built:   %s", binary, Version, GitCommit, BuildDate)
}
