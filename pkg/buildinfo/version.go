// Package buildinfo identifies the uvm build. The release and commit are
// printed by "uvm --version" and sent in the User-Agent of every catalog
// and artifact request, so mirror operators can tell clients apart.
//
// Release builds stamp the variables with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/uvm/pkg/buildinfo.Version=v0.4.0 \
//	    -X github.com/matzehuels/uvm/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/uvm/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/uvm
package buildinfo

import "fmt"

// Stamped at link time; unstamped builds report "dev".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Template returns the text cobra prints for --version.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}

// Short returns the release with an abbreviated commit, e.g. "v0.4.0+0123456".
func Short() string {
	if Commit == "none" || len(Commit) < 7 {
		return Version
	}
	return Version + "+" + Commit[:7]
}

// UserAgent is the User-Agent header value for outgoing requests.
func UserAgent() string {
	return "uvm/" + Short()
}
