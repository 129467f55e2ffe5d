package version

import "fmt"

var (
	// Version is the released version, overridden at build time with
	// -ldflags "-X".
	Version = "0.1.0"

	// GitCommit is the commit the binary was built from.
	GitCommit string
)

// HumanVersion returns the version with the commit, if known.
func HumanVersion() string {
	if GitCommit == "" {
		return fmt.Sprintf("v%s", Version)
	}
	return fmt.Sprintf("v%s (%s)", Version, GitCommit)
}
