package fileio

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a schema version tuple.
type Version struct {
	Major, Minor, Patch uint32
}

var (
	V000 = Version{0, 0, 0} // flat text
	V010 = Version{0, 1, 0}
	V011 = Version{0, 1, 1}
	V012 = Version{0, 1, 2}
	V020 = Version{0, 2, 0}
	V030 = Version{0, 3, 0}

	// DefaultVersion is written unless a caller asks otherwise.
	DefaultVersion = V030

	// Versions lists the binary schema versions, oldest first.
	Versions = []Version{V010, V011, V012, V020, V030}
)

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Supported reports whether v is a known binary schema version.
func (v Version) Supported() bool {
	for _, s := range Versions {
		if s == v {
			return true
		}
	}
	return false
}

// ParseVersion parses "major.minor.patch".
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid version %q: want major.minor.patch", s)
	}
	var nums [3]uint32
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
		}
		nums[i] = uint32(n)
	}
	return Version{nums[0], nums[1], nums[2]}, nil
}
