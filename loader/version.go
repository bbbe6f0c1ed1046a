package loader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/pyboot/pyconfig"
)

const freeThreadingMarker = "free-threading build"

// ParseVersionString parses the text returned by Py_GetVersion, for example
// "3.13.0 experimental free-threading build (main, Oct  7 2024) [Clang 18]".
func ParseVersionString(s string) (pyconfig.Version, error) {
	head, _, _ := strings.Cut(strings.TrimSpace(s), " ")
	parts := strings.SplitN(head, ".", 3)
	if len(parts) < 2 {
		return pyconfig.Version{}, fmt.Errorf("unrecognized version string %q", s)
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return pyconfig.Version{}, fmt.Errorf("unrecognized major version in %q", s)
	}
	minor, err := strconv.Atoi(leadingDigits(parts[1]))
	if err != nil {
		return pyconfig.Version{}, fmt.Errorf("unrecognized minor version in %q", s)
	}

	return pyconfig.Version{
		Major:        major,
		Minor:        minor,
		FreeThreaded: strings.Contains(s, freeThreadingMarker),
	}, nil
}

// leadingDigits trims pre-release suffixes such as "13rc1" or "14a1+".
func leadingDigits(s string) string {
	end := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if end < 0 {
		return s
	}
	return s[:end]
}
