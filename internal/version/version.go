// Package version holds build metadata injected with -ldflags, e.g.
//
//	-X crawldash/internal/version.Version=v1.2.0 -X crawldash/internal/version.Commit=abc1234
package version

var (
	// Version is a SemVer tag for releases. Empty for dev builds.
	Version = ""
	// Commit is the short git SHA.
	Commit = ""
	// Date is the UTC build time, RFC3339.
	Date = ""
	// Dirty is "dirty" when the tree had uncommitted changes.
	Dirty = ""
)

// Info is the build metadata as served by /version.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Date    string `json:"date,omitempty"`
	Dirty   bool   `json:"dirty,omitempty"`
}

// Get returns the current build metadata.
func Get() Info {
	return Info{Version: String(), Commit: Commit, Date: Date, Dirty: Dirty == "dirty"}
}

// String returns Version for releases, "dev-<sha>" (with a trailing "*"
// when dirty) for untagged builds, and "dev" when nothing was injected.
func String() string {
	if Version != "" {
		return Version
	}
	if Commit != "" {
		suffix := Commit
		if Dirty == "dirty" {
			suffix += "*"
		}
		return "dev-" + suffix
	}
	return "dev"
}
