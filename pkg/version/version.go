// Package version holds the build version, overridden with -ldflags at release time.
package version

// Version is the console's release version.
var Version = "v0.3.0"
