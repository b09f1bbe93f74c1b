// Package version provides build version information and runtime metadata.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

var (
	// These are set via ldflags at release build time; dev builds fall
	// back to the build info the toolchain embeds in the binary.
	Version = ""
	Commit  = ""
	Date    = ""

	once sync.Once
)

func ensureInitialized() {
	once.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if ok {
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					if Commit == "" && len(s.Value) >= 12 {
						Commit = s.Value[:12]
					}
				case "vcs.time":
					if Date == "" {
						Date = s.Value
					}
				}
			}
			if Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
				Version = info.Main.Version
			}
		}
		if Version == "" {
			Version = "dev"
		}
		if Commit == "" {
			Commit = "unknown"
		}
		if Date == "" {
			Date = "unknown"
		}
	})
}

// Get returns the bare version string.
func Get() string {
	ensureInitialized()
	return Version
}

func Info() string {
	ensureInitialized()
	return fmt.Sprintf("antigravity-quota-monitor %s (commit: %s, built: %s, %s/%s)",
		Version, Commit, Date, runtime.GOOS, runtime.GOARCH)
}
