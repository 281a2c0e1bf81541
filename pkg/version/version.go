package version

import (
	"runtime/debug"
)

// Set with -ldflags at build time.
var (
	Version  = ""
	Revision = ""
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		if Version == "" {
			Version = info.Main.Version
		}

		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && Revision == "" {
				Revision = s.Value
			}
		}
	}

	if Version == "" || Version == "(devel)" {
		Version = "0.0.0-dev"
	}

	if Revision == "" {
		Revision = "unknown"
	}
}

// String returns the version and revision.
func String() string {
	return Version + "+" + Revision
}
