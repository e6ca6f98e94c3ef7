package document

import (
	"fmt"
	"regexp"
	"strconv"
)

var versionPattern = regexp.MustCompile(`^v(\d+)\.(\d+)$`)

// Version is a document version of the form vMAJOR.MINOR.
type Version struct {
	Major int
	Minor int
}

// ParseVersion parses a version string like "v1.0".
func ParseVersion(s string) (Version, error) {
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return Version{}, fmt.Errorf("%w: invalid version format %q, expected vMAJOR.MINOR", ErrValidation, s)
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	return Version{Major: major, Minor: minor}, nil
}

func (v Version) String() string {
	return fmt.Sprintf("v%d.%d", v.Major, v.Minor)
}

// BumpMajor returns the next major version; the minor component resets to 0.
func (v Version) BumpMajor() Version {
	return Version{Major: v.Major + 1, Minor: 0}
}

// BumpMinor returns the next minor version; the major component is unchanged.
func (v Version) BumpMinor() Version {
	return Version{Major: v.Major, Minor: v.Minor + 1}
}

// FirstControlled is the version every document receives on first approval.
func FirstControlled() Version {
	return Version{Major: 1, Minor: 0}
}

// Newer reports whether v supersedes other.
func (v Version) Newer(other Version) bool {
	if v.Major != other.Major {
		return v.Major > other.Major
	}
	return v.Minor > other.Minor
}
