package pyconfig_test

import (
	"testing"

	"github.com/wippyai/pyboot/internal/fakepy"
	"github.com/wippyai/pyboot/pyconfig"
)

var v312 = pyconfig.Version{Major: 3, Minor: 12}

func newStartup(t *testing.T, p *pyconfig.Platform, v pyconfig.Version) (*pyconfig.Startup, *fakepy.Runtime) {
	t.Helper()
	rt := fakepy.New(p, v)
	home := "/app"
	exe := "/app/myapp"
	if p.Sep == '\\' {
		home = `C:\app`
		exe = `C:\app\myapp.exe`
	}
	return &pyconfig.Startup{
		API:        rt,
		Platform:   p,
		Version:    v,
		Executable: exe,
		Home:       home,
		Argv:       []string{exe, "--flag", "value"},
	}, rt
}
