// Package version holds build information for govinv.
package version

// Overridable at build time:
// go build -ldflags "-X govinv/internal/version.Version=1.2.0 -X govinv/internal/version.Commit=abc123"
var (
	// Version is the semantic version of govinv
	Version = "0.4.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// ServerName identifies govinv to MCP clients.
const ServerName = "govinv"

// Info returns the version, with a short commit suffix when known.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns complete version information
func Full() string {
	return "govinv version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}
