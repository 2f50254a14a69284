package weave

import "fmt"

// Release numbers of the splitter ledger. Bump Maj on incompatible state or
// wire format changes.
const (
	Maj = 0
	Min = 1
	Fix = 0
)

// Suffix marks builds that are not a tagged release, for example "-dev".
const Suffix = "-dev"

// GitCommit is set at build time with
//   -ldflags "-X github.com/iov-one/weave-splitter.GitCommit=<hash>"
var GitCommit = ""

// Version returns the release string, followed by the commit hash when known.
func Version() string {
	v := fmt.Sprintf("v%d.%d.%d%s", Maj, Min, Fix, Suffix)
	if GitCommit != "" {
		v += " " + GitCommit
	}
	return v
}
