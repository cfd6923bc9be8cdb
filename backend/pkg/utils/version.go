package utils

import (
	"fmt"
	"runtime/debug"
)

// Version is the semantic version of the application. Overridable at build
// time with -ldflags "-X relay-bridge/backend/pkg/utils.Version=x.y.z".
var Version = "0.1.0"

// GetBuildVersion returns the full version string including build time.
func GetBuildVersion() string {
	commit, buildTime, modified := getVCSInfo()

	return fmt.Sprintf("v%s%s (%s) built at %s", Version, dirtySuffix(modified), commit, buildTime)
}

// GetVersionShort returns the version and commit without build time.
func GetVersionShort() string {
	commit, _, modified := getVCSInfo()

	return fmt.Sprintf("v%s%s (%s)", Version, dirtySuffix(modified), commit)
}

// GetBuildInfo returns version metadata as a flat map.
func GetBuildInfo() map[string]string {
	commit, buildTime, modified := getVCSInfo()

	info := map[string]string{
		"version":      Version,
		"commit":       commit,
		"build_time":   buildTime,
		"vcs_modified": modified,
	}

	if bi, ok := debug.ReadBuildInfo(); ok && bi.GoVersion != "" {
		info["go_version"] = bi.GoVersion
	}

	return info
}

func dirtySuffix(modified string) string {
	if modified == "true" {
		return "-dirty"
	}

	return ""
}

// getVCSInfo extracts commit hash, build time and modified flag from the
// binary's embedded VCS metadata. Missing values default to "unknown"/"false".
func getVCSInfo() (string, string, string) {
	commit := "unknown"
	buildTime := "unknown"
	modified := "false"

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return commit, buildTime, modified
	}

	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			commit = setting.Value
			if len(commit) > 7 {
				commit = commit[:7]
			}
		case "vcs.time":
			buildTime = setting.Value
		case "vcs.modified":
			modified = setting.Value
		}
	}

	return commit, buildTime, modified
}
