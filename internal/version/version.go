// Package version holds the build version string.
package version

// Version is the current release, overridable at build time with
// -ldflags "-X github.com/aristath/signalboard/internal/version.Version=..."
var Version = "0.1.0"
