package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"time"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/muurk/musikremote/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/musikremote/internal/version.Commit=abc123"
//
// When unset they are filled from the module build info, or fall back to
// "dev-<timestamp>" and "unknown".
var (
	Version = ""
	Commit  = ""
)

var resolveOnce sync.Once

func resolve() {
	resolveOnce.Do(func() {
		if Version == "" || Commit == "" {
			if info, ok := debug.ReadBuildInfo(); ok {
				applyBuildSettings(info.Settings)
			}
		}
		if Version == "" {
			Version = fmt.Sprintf("dev-%s", time.Now().Format("20060102-150405"))
		}
		if Commit == "" {
			Commit = "unknown"
		}
	})
}

// applyBuildSettings fills Version and Commit from VCS build settings
func applyBuildSettings(settings []debug.BuildSetting) {
	var revision, modified, vcsTime string
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value
		case "vcs.time":
			vcsTime = s.Value
		}
	}

	if Commit == "" && revision != "" {
		Commit = revision
		if len(Commit) > 7 {
			Commit = Commit[:7]
		}
		if modified == "true" {
			Commit += "-dirty"
		}
	}
	if Version == "" && vcsTime != "" {
		if t, err := time.Parse(time.RFC3339, vcsTime); err == nil {
			Version = fmt.Sprintf("dev-%s", t.Format("20060102"))
		}
	}
}

// Short returns the version string
func Short() string {
	resolve()
	return Version
}

// Full returns the version including commit and Go runtime
func Full() string {
	resolve()
	return fmt.Sprintf("%s (commit: %s, %s)", Version, Commit, runtime.Version())
}

// UserAgent is sent with upstream HTTP requests
func UserAgent() string {
	return "musikremote/" + Short()
}
