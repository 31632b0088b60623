package server

import (
	"fmt"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Options are the daemon's effective settings. A deterministic snapshot of
// them detects configuration changes that require a restart; the snapshot
// also rides across the daemonization boundary as YAML.
type Options struct {
	Platform      string   `yaml:"platform"`
	VersionMajor  int      `yaml:"version_major"`
	VersionMinor  int      `yaml:"version_minor"`
	Incremental   bool     `yaml:"incremental"`
	FollowImports string   `yaml:"follow_imports"`
	ErrorSummary  bool     `yaml:"error_summary"`
	ColorOutput   bool     `yaml:"color_output"`
	Pretty        bool     `yaml:"pretty"`
	SearchPaths   []string `yaml:"search_paths"`

	// UseFineGrainedCache seeds the watcher with the file identities saved
	// under CacheDir on the first check and marks cache hits fresh. The saved
	// per-target signatures are not loaded back; every source is still
	// analyzed on that check.
	UseFineGrainedCache bool   `yaml:"use_fine_grained_cache"`
	CacheDir            string `yaml:"cache_dir"`
}

// DefaultOptions returns the settings a freshly started daemon runs with.
func DefaultOptions() Options {
	return Options{
		Platform:      runtime.GOOS,
		VersionMajor:  3,
		VersionMinor:  8,
		Incremental:   true,
		FollowImports: "skip",
		ErrorSummary:  true,
		ColorOutput:   true,
	}
}

// Snapshot serializes the options deterministically. Two option sets are
// considered equal exactly when their snapshots match.
func (o Options) Snapshot() string {
	data, err := yaml.Marshal(o)
	if err != nil {
		return fmt.Sprintf("!err:%v", err)
	}
	return string(data)
}

// OptionsFromSnapshot decodes a snapshot produced by Snapshot. An empty
// search path list decodes as nil, as in DefaultOptions.
func OptionsFromSnapshot(data string) (Options, error) {
	var o Options
	if err := yaml.Unmarshal([]byte(data), &o); err != nil {
		return Options{}, fmt.Errorf("invalid options data: %w", err)
	}
	if len(o.SearchPaths) == 0 {
		o.SearchPaths = nil
	}
	return o, nil
}

// ProcessStartFlags validates and applies the flag list accepted by
// start/restart/run. Unknown flags are a configuration error.
func ProcessStartFlags(o Options, flags []string) (Options, error) {
	for i := 0; i < len(flags); i++ {
		switch flag := flags[i]; flag {
		case "--no-error-summary":
			o.ErrorSummary = false
		case "--error-summary":
			o.ErrorSummary = true
		case "--no-color-output":
			o.ColorOutput = false
		case "--color-output":
			o.ColorOutput = true
		case "--pretty":
			o.Pretty = true
		case "--use-fine-grained-cache":
			o.UseFineGrainedCache = true
		case "--follow-imports":
			if i+1 >= len(flags) {
				return o, fmt.Errorf("%s requires a value", flag)
			}
			i++
			o.FollowImports = flags[i]
		case "--no-incremental":
			return o, fmt.Errorf("daemon mode requires incremental mode")
		default:
			return o, fmt.Errorf("unrecognized flag %q", flag)
		}
	}
	if o.FollowImports != "skip" && o.FollowImports != "error" {
		return o, fmt.Errorf("follow-imports must be 'skip' or 'error'")
	}
	return o, nil
}
