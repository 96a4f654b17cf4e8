package game

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultLayout(t *testing.T) {
	l, err := LoadLayout("")
	if err != nil {
		t.Fatalf("default layout: %v", err)
	}
	if len(l) == 0 {
		t.Fatal("expected crates in the default layout")
	}
	for i, c := range l {
		if c.Type != layoutCrate && c.Type != layoutLongCrate {
			t.Errorf("entry %d: unexpected type %q", i, c.Type)
		}
	}
}

func TestLoadLayoutFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crates.json")
	data := `[{"type":"crate","x":100,"y":200},{"type":"longCrate","x":300,"y":400,"angle":90}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := LoadLayout(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(l) != 2 || l[1].Type != layoutLongCrate || l[1].Angle != 90 || l[0].Y != 200 {
		t.Errorf("unexpected layout %+v", l)
	}
}

func TestParseLayoutRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown type", `[{"type":"barrel","x":1,"y":1}]`},
		{"missing y", `[{"type":"crate","x":1}]`},
		{"outside arena", `[{"type":"crate","x":8000,"y":1}]`},
		{"extra field", `[{"type":"crate","x":1,"y":1,"hp":5}]`},
		{"not an array", `{"type":"crate"}`},
		{"malformed", `[{`},
	}
	for _, tt := range tests {
		if _, err := ParseLayout([]byte(tt.data)); err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}
}

func TestLoadLayoutMissingFile(t *testing.T) {
	if _, err := LoadLayout(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
