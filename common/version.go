// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/samber/lo"
)

const ProgramName = "horizon"

var (
	// commitHash contains the current Git revision.
	// Use mage to build to make sure this gets set.
	commitHash string

	// buildDate contains the date of the current build.
	buildDate string
)

// Version represents a SemVer 2.0.0 compatible build version
type Version struct {
	// Increment this for backwards incompatible changes
	Major int

	// Increment this for feature releases
	Minor int

	// Increment this for bug releases
	Patch int

	// Suffix is blank for release versions
	Suffix string
}

// BuildInfo identifies the binary that produced a set of results
type BuildInfo struct {
	Version   string `json:"version" toml:"version"`
	Commit    string `json:"commit" toml:"commit"`
	BuildDate string `json:"buildDate" toml:"build_date"`
	GoVersion string `json:"goVersion" toml:"go_version"`
}

// GetDependencyList returns a sorted dependency list on the format package="version".
func GetDependencyList() []string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return []string{}
	}

	deps := lo.Map(bi.Deps, func(dep *debug.Module, _ int) string {
		return fmt.Sprintf("%s=%q", dep.Path, dep.Version)
	})
	sort.Strings(deps)
	return deps
}

func (v Version) String() string {
	metadata := ""
	preRelease := ""

	if v.Suffix != "" {
		preRelease = fmt.Sprintf("-%s", v.Suffix)
		if commitHash != "" {
			metadata = fmt.Sprintf("+%s", strings.ToLower(commitHash))
		}
	}

	return fmt.Sprintf("%d.%d.%d%s%s", v.Major, v.Minor, v.Patch, preRelease, metadata)
}

// CurrentBuild describes the running binary
func CurrentBuild() BuildInfo {
	date := buildDate
	if date == "" {
		date = "unknown"
	}
	return BuildInfo{
		Version:   "v" + CurrentVersion.String(),
		Commit:    commitHash,
		BuildDate: date,
		GoVersion: runtime.Version(),
	}
}

// BuildVersionString creates a version string. This is what you see when
// running "horizon version".
func BuildVersionString() string {
	info := CurrentBuild()
	osArch := runtime.GOOS + "/" + runtime.GOARCH

	versionString := fmt.Sprintf(`%s %s %s

Build Date: %s
Commit: %s
Built with: %s`,
		ProgramName, info.Version, osArch, info.BuildDate, info.Commit, info.GoVersion)

	versionString += "\n\nDependencies:\n\n" + strings.Join(GetDependencyList(), "\n")

	return versionString
}
