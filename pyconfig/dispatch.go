package pyconfig

import (
	"sync"

	"github.com/wippyai/pyboot/errors"
	"github.com/wippyai/pyboot/layout"
)

var supported = []struct {
	decl    *layout.Struct
	version Version
}{
	{configV38, Version{Major: 3, Minor: 8}},
	{configV39, Version{Major: 3, Minor: 9}},
	{configV310, Version{Major: 3, Minor: 10}},
	{configV311, Version{Major: 3, Minor: 11}},
	{configV312, Version{Major: 3, Minor: 12}},
	{configV313, Version{Major: 3, Minor: 13}},
	{configV313, Version{Major: 3, Minor: 13, FreeThreaded: true}},
}

// Layout is one dispatch table entry: the PyConfig and PyPreConfig layouts
// of a runtime version on a platform.
type Layout struct {
	Platform  *Platform
	Decl      *layout.Struct
	Config    layout.Info
	PreConfig layout.Info
	Version   Version
}

// Table maps Version IDs to layouts for one platform.
type Table struct {
	platform *Platform
	byID     map[int]*Layout
	entries  []*Layout
}

// NewTable computes every supported layout for p.
func NewTable(p *Platform) *Table {
	t := &Table{
		platform: p,
		byID:     make(map[int]*Layout, len(supported)),
		entries:  make([]*Layout, 0, len(supported)),
	}

	calcs := map[bool]*layout.Calculator{
		false: layout.NewCalculator(p.target(false)),
		true:  layout.NewCalculator(p.target(true)),
	}

	for _, s := range supported {
		calc := calcs[s.version.FreeThreaded]
		l := &Layout{
			Platform:  p,
			Decl:      s.decl,
			Version:   s.version,
			Config:    calc.Struct(s.decl),
			PreConfig: calc.Struct(preConfigStruct),
		}
		t.byID[s.version.ID()] = l
		t.entries = append(t.entries, l)
	}
	return t
}

// Lookup returns the layout for v, or an UnsupportedVersion error.
func (t *Table) Lookup(v Version) (*Layout, error) {
	l, ok := t.byID[v.ID()]
	if !ok {
		return nil, errors.UnsupportedVersion(v.String())
	}
	return l, nil
}

// Layouts returns all entries in ascending version order.
func (t *Table) Layouts() []*Layout {
	return t.entries
}

var (
	tablesMu sync.Mutex
	tables   = make(map[*Platform]*Table)
)

// TableFor returns the dispatch table of p, building it on first use.
func TableFor(p *Platform) *Table {
	tablesMu.Lock()
	defer tablesMu.Unlock()

	if t, ok := tables[p]; ok {
		return t
	}
	t := NewTable(p)
	tables[p] = t
	return t
}
