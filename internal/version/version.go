// Package version provides version information for the application.
package version

import "fmt"

// These variables are set at build time using -ldflags.
// buildstamp stamps itself through the same mechanism it applies to other
// projects, so the names here match the ones the assembler emits.
var (
	// BuiltAt is the local time the binary was built
	BuiltAt = "unknown"

	// GoVersion is the compiler version reported by `go version`
	GoVersion = "unknown"

	// GitAuthor is the committer of HEAD as "Name <email>"
	GitAuthor = "unknown <unknown>"

	// GitCommit is the abbreviated git commit hash
	GitCommit = "unknown"

	// Version is the describe-style version (e.g., v1.2.0-3-gabc1234-dirty)
	Version = "dev"

	// WebVersion is the release of the companion web project
	WebVersion = "0.0.0"
)

// Info returns version information as a map
func Info() map[string]string {
	return map[string]string{
		"built_at":    BuiltAt,
		"go_version":  GoVersion,
		"git_author":  GitAuthor,
		"git_commit":  GitCommit,
		"version":     Version,
		"web_version": WebVersion,
	}
}

// String returns a one-line summary.
func String() string {
	return fmt.Sprintf("%s (%s) built %s with %s, web %s", Version, GitCommit, BuiltAt, GoVersion, WebVersion)
}
