// Package buildinfo carries values stamped at link time:
//
//	go build -ldflags "-X github.com/m3rciful/bookbot/core/buildinfo.Version=v0.3.0 \
//	  -X github.com/m3rciful/bookbot/core/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/m3rciful/bookbot/core/buildinfo.Date=$(date -u +%FT%TZ)"
package buildinfo

var (
	// Version is the release tag of the build.
	Version = "dev"
	// Commit is the source revision of the build.
	Commit = "local"
	// Date is the RFC3339 build timestamp.
	Date = ""
)
