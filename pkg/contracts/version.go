package contracts

import "runtime"

// Version of trendlens. BuildTime and GitCommit are overridden with -ldflags.
const (
	Version    = "0.3.0"
	APIVersion = "v1"
)

var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo is served by GET /api/version and printed by trendlens-cli -version.
type VersionInfo struct {
	Version      string `json:"version"`
	APIVersion   string `json:"api_version"`
	BuildTime    string `json:"build_time,omitempty"`
	GitCommit    string `json:"git_commit,omitempty"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
}

// GetVersionInfo describes the running binary. Unset ldflags values are left empty.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		APIVersion:   APIVersion,
		BuildTime:    stamped(BuildTime),
		GitCommit:    stamped(GitCommit),
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
	}
}

func stamped(v string) string {
	if v == "unknown" {
		return ""
	}
	return v
}
