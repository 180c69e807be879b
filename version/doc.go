// Package version provides build version information embedding.
//
// Version, git commit, branch, and build time are set at compile time
// via -ldflags:
//
//	go build -ldflags "-X github.com/maltyxx/zenject/version.Version=1.0.0"
//
// When ldflags are absent, values fall back to the module build info
// recorded by the Go toolchain (vcs.revision, vcs.time, vcs.modified).
package version
