package theme

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadGPL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "two.gpl")
	data := "GIMP Palette\nName: two\nColumns: 2\n# comment\n0 0 0 black\n255 255 255 white\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadGPL(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "two" || len(p.Colors) != 2 {
		t.Fatalf("got %+v", p)
	}
	if got := p.Lookup(0.5); got != (RGB{127, 127, 127}) {
		t.Errorf("Lookup(0.5) = %v", got)
	}
	if got := p.Lookup(2); got != (RGB{255, 255, 255}) {
		t.Errorf("Lookup(2) = %v", got)
	}
}

func TestLoadGPLEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.gpl")
	if err := os.WriteFile(path, []byte("GIMP Palette\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadGPL(path); err == nil {
		t.Errorf("expected an error for a palette without colors")
	}
}

func TestLoadOrDefault(t *testing.T) {
	p, err := LoadOrDefault("")
	if err != nil {
		t.Fatal(err)
	}
	th := New(p)
	if th.Accent() == "" || th.FG() == th.BG() {
		t.Errorf("default theme colors look wrong: fg=%v bg=%v", th.FG(), th.BG())
	}
}

func TestParseGPLSkipsComments(t *testing.T) {
	data := "GIMP Palette\n# 1 2 3 not a color\n10 20 30\n\n40 50 300 too bright\n"
	p, err := ParseGPL(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Colors) != 1 || p.Colors[0] != (RGB{10, 20, 30}) {
		t.Errorf("colors = %v", p.Colors)
	}
}

func TestRoles(t *testing.T) {
	th := New(&Palette{Colors: []RGB{{0, 0, 0}, {255, 255, 255}}})
	if th.BG() != "#000000" || th.Success() != "#ffffff" {
		t.Errorf("BG = %v, Success = %v", th.BG(), th.Success())
	}
	if th.Warning() == th.Cursor() {
		t.Errorf("roles collapse to one color")
	}
}
