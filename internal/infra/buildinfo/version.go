// Package buildinfo exposes version information injected at build time:
//
//	go build -ldflags "-X github.com/yndnr/scriptloader-go/internal/infra/buildinfo.Version=v1.0.0"
package buildinfo

import (
	"runtime"
	"runtime/debug"
)

// Program is the product name used in user agents and version output.
const Program = "scriptloader"

// Set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info contains build information.
type Info struct {
	Program   string `json:"program" yaml:"program"`
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildTime string `json:"build_time" yaml:"build_time"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

// Get returns the build information. When Commit was not injected, the VCS
// revision recorded by the Go toolchain is used if present.
func Get() Info {
	info := Info{
		Program:   Program,
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
	if info.Commit == "unknown" {
		if rev := vcsRevision(); rev != "" {
			info.Commit = rev
		}
	}
	return info
}

func vcsRevision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return ""
}

// String returns a formatted version string.
func String() string {
	info := Get()
	return info.Program + " " + info.Version + " (" + info.Commit + ") built at " + info.BuildTime
}

// UserAgent returns the default User-Agent header for outgoing fetches.
func UserAgent() string {
	return Program + "/" + Version
}
