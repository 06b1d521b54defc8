package version

import "fmt"

// Build information set by ldflags
var (
	Version = "dev"     // Set by goreleaser: -X github.com/arthur-debert/slack-send/internal/version.Version={{.Version}}
	Commit  = "unknown" // Set by goreleaser: -X github.com/arthur-debert/slack-send/internal/version.Commit={{.Commit}}
	Date    = "unknown" // Set by goreleaser: -X github.com/arthur-debert/slack-send/internal/version.Date={{.Date}}
)

// Summary formats the build information for `slack-send version`.
func Summary(name string) string {
	return fmt.Sprintf("%s version %s\n  commit: %s\n  built:  %s\n", name, Version, Commit, Date)
}
