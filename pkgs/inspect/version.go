package inspect

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/aledsdavies/cmakeparse/pkgs/ast"
)

// MinimumRequired returns the VERSION argument of the first
// cmake_minimum_required call, as written. A policy range such as
// "3.20...3.28" is returned whole.
func MinimumRequired(file *ast.File) (string, bool) {
	cmd := Find(file, "cmake_minimum_required")
	if cmd == nil {
		return "", false
	}

	args := Args(cmd)
	for i, arg := range args {
		if strings.EqualFold(arg, "VERSION") && i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}

// VersionRange splits "min...max" into its bounds. max is empty when v is a
// single version.
func VersionRange(v string) (minVersion, maxVersion string) {
	minVersion, maxVersion, _ = strings.Cut(v, "...")
	return minVersion, maxVersion
}

// SatisfiesMinimum reports whether CMake at version meets the file's
// cmake_minimum_required. A file that declares no minimum accepts any version.
func SatisfiesMinimum(file *ast.File, version string) (bool, error) {
	declared, ok := MinimumRequired(file)
	if !ok {
		return true, nil
	}

	minVersion, _ := VersionRange(declared)
	cmp, err := CompareVersions(version, minVersion)
	if err != nil {
		return false, err
	}
	return cmp >= 0, nil
}

// CompareVersions compares two CMake versions and returns -1, 0 or +1.
// Missing components count as zero and the fourth (tweak) component is
// ignored, so "3.20" equals "3.20.0.1".
func CompareVersions(a, b string) (int, error) {
	ca, err := canonicalVersion(a)
	if err != nil {
		return 0, err
	}
	cb, err := canonicalVersion(b)
	if err != nil {
		return 0, err
	}
	return semver.Compare(ca, cb), nil
}

// canonicalVersion turns a CMake version into a semver string
func canonicalVersion(v string) (string, error) {
	core, pre, hasPre := strings.Cut(strings.TrimSpace(v), "-")
	parts := strings.Split(core, ".")
	if len(parts) > 4 {
		return "", fmt.Errorf("invalid version %q: too many components", v)
	}
	if len(parts) == 4 {
		parts = parts[:3]
	}
	for len(parts) < 3 {
		parts = append(parts, "0")
	}

	s := "v" + strings.Join(parts, ".")
	if hasPre {
		s += "-" + pre
	}
	if !semver.IsValid(s) {
		return "", fmt.Errorf("invalid version %q", v)
	}
	return s, nil
}
