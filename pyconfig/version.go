package pyconfig

import (
	"fmt"
	"strconv"
	"strings"
)

// Version identifies a hosted runtime release and build variant.
type Version struct {
	Major        int
	Minor        int
	FreeThreaded bool
}

// ID packs the version into the dispatch key: (major*100+minor)<<1 | ft.
func (v Version) ID() int {
	id := (v.Major*100 + v.Minor) << 1
	if v.FreeThreaded {
		id |= 1
	}
	return id
}

func (v Version) String() string {
	s := strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor)
	if v.FreeThreaded {
		s += "t"
	}
	return s
}

// ParseVersion parses "3.12" or "3.13t". Patch components are ignored.
func ParseVersion(s string) (Version, error) {
	var v Version
	if rest, ok := strings.CutSuffix(s, "t"); ok {
		v.FreeThreaded = true
		s = rest
	}

	parts := strings.Split(s, ".")
	if len(parts) < 2 {
		return Version{}, fmt.Errorf("malformed version %q", s)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return Version{}, fmt.Errorf("malformed major version %q: %w", parts[0], err)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return Version{}, fmt.Errorf("malformed minor version %q: %w", parts[1], err)
	}
	v.Major = major
	v.Minor = minor
	return v, nil
}
