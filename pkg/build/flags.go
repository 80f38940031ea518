// SPDX-License-Identifier: MIT
//
// Package build provides the build information embedded into the binary at
// compile time using linker flags:
//
//	go build -ldflags "-X lava/pkg/build.buildVersion=0.2.0 -X lava/pkg/build.buildCommit=$(git rev-parse --short HEAD)"
//
// Flags left unset fall back to development values so the binary still runs
// under go run.
package build

import (
	"fmt"
	"time"
)

// Development fallbacks for unset linker flags.
const (
	defaultName    = "lava"
	defaultVersion = "dev"
	defaultCommit  = "none"
	defaultTime    = "unknown"
)

// Description is the one-line summary shown by the CLI.
const Description = "Live log-frequency audio analysis with a phase-locked waveform"

type ldFlags struct {
	Name        string
	Time        string
	Commit      string
	Version     string
	Description string
}

// Package-level variables for build information, populated by -ldflags.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:        defaultName,
		Time:        defaultTime,
		Commit:      defaultCommit,
		Version:     defaultVersion,
		Description: Description,
	}
)

// Initialize copies the linker flags into the build information, using
// development values for any that are unset. A build time that is set but
// not RFC3339 is an error.
func Initialize() error {
	flags := ldFlags{
		Name:        orDefault(buildName, defaultName),
		Time:        orDefault(buildTime, defaultTime),
		Commit:      orDefault(buildCommit, defaultCommit),
		Version:     orDefault(buildVersion, defaultVersion),
		Description: Description,
	}
	if buildTime != "" {
		if _, err := time.Parse(time.RFC3339, buildTime); err != nil {
			return fmt.Errorf("invalid build time %q: %w", buildTime, err)
		}
	}
	*buildFlags = flags
	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// String formats the build information for the version command.
func (f *ldFlags) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", f.Name, f.Version, f.Commit, f.Time)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
