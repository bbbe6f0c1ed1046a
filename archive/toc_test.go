package archive

import (
	"testing"
)

func TestParseTypeCode(t *testing.T) {
	tests := []struct {
		in   string
		want TypeCode
		ok   bool
	}{
		{"option", TypeRuntimeOption, true},
		{"o", TypeRuntimeOption, true},
		{"zipfile", TypeZipFile, true},
		{"Z", TypePYZ, true},
		{"q", 0, false},
		{"options", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTypeCode(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseTypeCode(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestOptionsFiltersAndKeepsOrder(t *testing.T) {
	toc := List{
		{Name: "pyi-splash", Type: TypeRuntimeOption},
		{Name: "base_library.zip", Type: TypeZipFile},
		{Name: "v", Type: TypeRuntimeOption},
		{Name: "main", Type: TypePySource},
		{Name: "W ignore", Type: TypeRuntimeOption},
	}

	var names []string
	for e := range Options(toc) {
		names = append(names, e.Name)
	}

	want := []string{"pyi-splash", "v", "W ignore"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("entry %d: got %q, want %q", i, names[i], want[i])
		}
	}
}

func TestOptionsStopsEarly(t *testing.T) {
	toc := List{
		{Name: "a", Type: TypeRuntimeOption},
		{Name: "b", Type: TypeRuntimeOption},
	}
	n := 0
	for range Options(toc) {
		n++
		break
	}
	if n != 1 {
		t.Errorf("iterated %d entries after break, want 1", n)
	}
}
