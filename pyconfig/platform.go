package pyconfig

import (
	"github.com/wippyai/pyboot/layout"
	"github.com/wippyai/pyboot/wchar"
)

// Platform describes the ABI the hosted runtime was compiled for.
type Platform struct {
	Name  string
	Model layout.DataModel

	// WcharSize is sizeof(wchar_t).
	WcharSize uint32

	// Sep is the path separator used to build module search paths.
	Sep byte

	// HostWide selects host-side wide conversion for strings handed to the
	// runtime. When false the runtime decodes them with its own locale.
	HostWide bool

	// Windows compiles in MS_WINDOWS-only struct fields.
	Windows bool
}

var (
	// WASI is CPython built for wasm32-wasi.
	WASI = &Platform{Name: "wasi", Model: layout.ILP32, WcharSize: 4, Sep: '/'}

	// Linux64 is CPython on 64-bit Linux and macOS.
	Linux64 = &Platform{Name: "linux64", Model: layout.LP64, WcharSize: 4, Sep: '/'}

	// Windows64 is CPython on 64-bit Windows.
	Windows64 = &Platform{Name: "windows64", Model: layout.LLP64, WcharSize: 2, Sep: '\\', HostWide: true, Windows: true}
)

// Platforms lists the built-in platforms.
var Platforms = []*Platform{WASI, Linux64, Windows64}

// PlatformByName returns a built-in platform.
func PlatformByName(name string) (*Platform, bool) {
	for _, p := range Platforms {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Encoding returns the host-side wchar_t encoding for the platform.
func (p *Platform) Encoding() *wchar.Encoding {
	if p.WcharSize == 2 {
		return wchar.UTF16
	}
	return wchar.UTF32
}

func (p *Platform) target(freeThreaded bool) layout.Target {
	return layout.Target{
		Model:        p.Model,
		Windows:      p.Windows,
		FreeThreaded: freeThreaded,
	}
}

// JoinPath joins home and name with the platform separator.
func (p *Platform) JoinPath(home, name string) string {
	return home + string(p.Sep) + name
}
