package layout

import "testing"

func TestCalculateKinds(t *testing.T) {
	tests := []struct {
		model DataModel
		kind  Kind
		size  uint32
		align uint32
	}{
		{ILP32, Int, 4, 4},
		{ILP32, ULong, 4, 4},
		{ILP32, WideString, 4, 4},
		{ILP32, WideStringList, 8, 4},
		{LP64, Int, 4, 4},
		{LP64, ULong, 8, 8},
		{LP64, WideString, 8, 8},
		{LP64, WideStringList, 16, 8},
		{LLP64, ULong, 4, 4},
		{LLP64, WideStringList, 16, 8},
	}

	for _, tc := range tests {
		t.Run(tc.model.Name+"/"+tc.kind.String(), func(t *testing.T) {
			info := NewCalculator(Target{Model: tc.model}).Calculate(tc.kind)
			if info.Size != tc.size {
				t.Errorf("size: got %d, want %d", info.Size, tc.size)
			}
			if info.Align != tc.align {
				t.Errorf("align: got %d, want %d", info.Align, tc.align)
			}
		})
	}
}

func TestStructPadding(t *testing.T) {
	s := &Struct{
		Name: "padded",
		Fields: []Field{
			{Name: "a", Kind: Int},
			{Name: "p", Kind: WideString},
			{Name: "b", Kind: Int},
		},
	}

	t.Run("ILP32", func(t *testing.T) {
		info := NewCalculator(Target{Model: ILP32}).Struct(s)
		if info.Size != 12 {
			t.Errorf("size: got %d, want 12", info.Size)
		}
		if off, _ := info.Offset("p"); off != 4 {
			t.Errorf("p: got %d, want 4", off)
		}
	})

	t.Run("LP64", func(t *testing.T) {
		info := NewCalculator(Target{Model: LP64}).Struct(s)
		if info.Size != 24 {
			t.Errorf("size: got %d, want 24", info.Size)
		}
		if off, _ := info.Offset("p"); off != 8 {
			t.Errorf("p: got %d, want 8", off)
		}
		if off, _ := info.Offset("b"); off != 16 {
			t.Errorf("b: got %d, want 16", off)
		}
		if info.Align != 8 {
			t.Errorf("align: got %d, want 8", info.Align)
		}
	})
}

func TestStructConditions(t *testing.T) {
	s := &Struct{
		Name: "conditional",
		Fields: []Field{
			{Name: "a", Kind: Int},
			{Name: "win", Kind: Int, When: WindowsOnly},
			{Name: "gil", Kind: Int, When: FreeThreaded},
			{Name: "z", Kind: Int},
		},
	}

	tests := []struct {
		name    string
		target  Target
		size    uint32
		hasWin  bool
		hasGIL  bool
		zOffset uint32
	}{
		{"plain", Target{Model: ILP32}, 8, false, false, 4},
		{"windows", Target{Model: LLP64, Windows: true}, 12, true, false, 8},
		{"free-threaded", Target{Model: LP64, FreeThreaded: true}, 12, false, true, 8},
		{"both", Target{Model: LLP64, Windows: true, FreeThreaded: true}, 16, true, true, 12},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info := NewCalculator(tc.target).Struct(s)
			if info.Size != tc.size {
				t.Errorf("size: got %d, want %d", info.Size, tc.size)
			}
			if info.Has("win") != tc.hasWin {
				t.Errorf("has win: got %v, want %v", info.Has("win"), tc.hasWin)
			}
			if info.Has("gil") != tc.hasGIL {
				t.Errorf("has gil: got %v, want %v", info.Has("gil"), tc.hasGIL)
			}
			if off, _ := info.Offset("z"); off != tc.zOffset {
				t.Errorf("z: got %d, want %d", off, tc.zOffset)
			}
		})
	}
}

func TestStructCached(t *testing.T) {
	s := &Struct{Fields: []Field{{Name: "a", Kind: ULong}}}
	c := NewCalculator(Target{Model: LP64})

	first := c.Struct(s)
	second := c.Struct(s)
	if first.Size != second.Size || len(c.cache) != 1 {
		t.Errorf("expected one cached entry, got %d", len(c.cache))
	}
}

func TestAlignTo(t *testing.T) {
	tests := []struct{ offset, align, want uint32 }{
		{0, 4, 0},
		{1, 4, 4},
		{4, 4, 4},
		{5, 8, 8},
		{7, 0, 7},
	}
	for _, tc := range tests {
		if got := AlignTo(tc.offset, tc.align); got != tc.want {
			t.Errorf("AlignTo(%d, %d): got %d, want %d", tc.offset, tc.align, got, tc.want)
		}
	}
}

func TestEmptyStruct(t *testing.T) {
	info := NewCalculator(Target{Model: ILP32}).Struct(&Struct{})
	if info.Size != 0 || info.Align != 1 {
		t.Errorf("got size %d align %d, want 0/1", info.Size, info.Align)
	}
}
