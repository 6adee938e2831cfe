package grid

import (
	"math/rand"
	"testing"

	"termseq/pitch"
)

func mustNew(t *testing.T, n, percussion int) *Grid {
	t.Helper()
	g, err := New(n, percussion)
	if err != nil {
		t.Fatalf("New(%d, %d): %v", n, percussion, err)
	}
	return g
}

func column(g *Grid, ch int) string {
	out := make([]rune, g.Rows())
	for row := range out {
		out[row] = rune(g.Cell(ch, row))
	}
	return string(out)
}

func TestNew(t *testing.T) {
	g := mustNew(t, 3, 2)
	if g.Channels() != 3 || g.Rows() != 1 {
		t.Fatalf("got %d channels x %d rows, want 3 x 1", g.Channels(), g.Rows())
	}
	for ch := 0; ch < 3; ch++ {
		if g.Cell(ch, 0) != pitch.Rest {
			t.Errorf("channel %d does not start with a rest", ch)
		}
	}
	if g.Kind(2) != pitch.Percussion || g.Kind(0) != pitch.Melodic {
		t.Errorf("wrong channel kinds")
	}

	if _, err := New(0, NoPercussion); err == nil {
		t.Errorf("New(0) should fail")
	}
	if _, err := New(2, 5); err == nil {
		t.Errorf("New with percussion out of range should fail")
	}
}

func TestMoveCursorClamps(t *testing.T) {
	g := mustNew(t, 4, NoPercussion)
	g.MoveCursorChannel(-1)
	if ch, _ := g.Cursor(); ch != 0 {
		t.Errorf("channel = %d, want 0", ch)
	}
	g.MoveCursorChannel(10)
	if ch, _ := g.Cursor(); ch != 3 {
		t.Errorf("channel = %d, want 3", ch)
	}
	g.MoveCursorRow(5)
	if _, row := g.Cursor(); row != 0 {
		t.Errorf("row = %d, want 0", row)
	}
}

func TestSetCellGrows(t *testing.T) {
	g := mustNew(t, 2, NoPercussion)
	for i, sym := range []pitch.Symbol{'q', 'w', 'e'} {
		before := g.Rows()
		if !g.SetCell(sym) {
			t.Fatalf("SetCell(%q) rejected", sym)
		}
		if g.Rows() != before+1 {
			t.Errorf("step %d: rows = %d, want %d", i, g.Rows(), before+1)
		}
		last := g.Rows() - 1
		for ch := 0; ch < g.Channels(); ch++ {
			if g.Cell(ch, last) != pitch.Rest {
				t.Errorf("step %d: channel %d last row is %q, want rest", i, ch, g.Cell(ch, last))
			}
		}
	}
	if got := column(g, 0); got != "qwe " {
		t.Errorf("channel 0 = %q, want %q", got, "qwe ")
	}
	if got := column(g, 1); got != "    " {
		t.Errorf("channel 1 = %q, want all rests", got)
	}
	if _, row := g.Cursor(); row != 3 {
		t.Errorf("cursor row = %d, want 3", row)
	}
}

func TestSetCellOverwriteDoesNotGrow(t *testing.T) {
	g := mustNew(t, 1, NoPercussion)
	g.SetCell('q')
	g.SetCell('w')
	g.MoveCursorRow(-2)
	g.SetCell('e')
	if g.Rows() != 3 {
		t.Errorf("rows = %d, want 3", g.Rows())
	}
	if got := column(g, 0); got != "ew " {
		t.Errorf("channel = %q", got)
	}
}

func TestPercussionIsolation(t *testing.T) {
	g := mustNew(t, 2, 1)

	// 'q' is melodic only.
	g.MoveCursorChannel(1)
	if g.SetCell('q') {
		t.Errorf("melodic symbol accepted on percussion channel")
	}
	if g.Rows() != 1 {
		t.Errorf("rejected symbol changed the grid")
	}
	if !g.SetCell('f') {
		t.Errorf("snare rejected on percussion channel")
	}

	// 'f' is percussion only.
	g.MoveCursorChannel(-1)
	_, rowBefore := g.Cursor()
	if g.SetCell('f') {
		t.Errorf("percussion symbol accepted on melodic channel")
	}
	if _, row := g.Cursor(); row != rowBefore {
		t.Errorf("rejected symbol moved the cursor")
	}
}

func TestInsertAt(t *testing.T) {
	g := mustNew(t, 2, NoPercussion)
	g.SetCell('q')
	g.SetCell('w')
	g.MoveCursorRow(-1)
	g.InsertAt(1)
	if got := column(g, 0); got != "q w " {
		t.Errorf("channel 0 = %q", got)
	}
	if got := column(g, 1); got != "    " {
		t.Errorf("channel 1 = %q", got)
	}
	if _, row := g.Cursor(); row != 2 {
		t.Errorf("cursor row = %d, want 2", row)
	}
}

func TestDeleteAt(t *testing.T) {
	g := mustNew(t, 2, NoPercussion)
	for _, sym := range []pitch.Symbol{'q', 'w', 'e', 'r'} {
		g.SetCell(sym)
	}
	g.MoveCursorChannel(1)
	g.MoveCursorRow(-4)
	g.SetCell('t')

	g.DeleteAt(0)
	if got := column(g, 0); got != "wer " {
		t.Errorf("channel 0 = %q", got)
	}
	if got := column(g, 1); got != "    " {
		t.Errorf("channel 1 = %q", got)
	}
	if err := g.Check(); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteAtTailFallsBackToBackspace(t *testing.T) {
	g := mustNew(t, 1, NoPercussion)
	for _, sym := range []pitch.Symbol{'q', 'w', 'e'} {
		g.SetCell(sym)
	}
	// Deleting the trailing rest removes the second-to-last row instead.
	g.DeleteAt(g.Rows() - 1)
	if got := column(g, 0); got != "qw " {
		t.Errorf("channel = %q, want %q", got, "qw ")
	}

	one := mustNew(t, 1, NoPercussion)
	one.DeleteAt(0)
	if one.Rows() != 1 {
		t.Errorf("deleted the only row")
	}
}

func TestBackspace(t *testing.T) {
	g := mustNew(t, 3, NoPercussion)
	for ch := 0; ch < 3; ch++ {
		g.SetCell('q')
		g.MoveCursorRow(-1)
		g.MoveCursorChannel(1)
	}
	// Cursor is on channel 2, row 0. Every channel holds 'q' at row 0.
	g.MoveCursorRow(1)
	g.SetCell('w')
	if g.Rows() != 3 {
		t.Fatalf("rows = %d, want 3", g.Rows())
	}

	g.Backspace()
	if g.Rows() != 2 {
		t.Fatalf("rows = %d, want 2", g.Rows())
	}
	if got := column(g, 2); got != "q " {
		t.Errorf("channel 2 = %q", got)
	}

	// Two rows: channels before the cursor channel are reset, nothing shrinks.
	g.Backspace()
	if g.Rows() != 2 {
		t.Fatalf("rows = %d, want 2", g.Rows())
	}
	for ch, want := range []string{"  ", "  ", "q "} {
		if got := column(g, ch); got != want {
			t.Errorf("channel %d = %q, want %q", ch, got, want)
		}
	}
	if err := g.Check(); err != nil {
		t.Fatal(err)
	}

	single := mustNew(t, 2, NoPercussion)
	single.Backspace()
	if single.Rows() != 1 {
		t.Errorf("backspace shrank a one-row grid")
	}
}

func TestWindow(t *testing.T) {
	g := mustNew(t, 1, NoPercussion)
	for i := 0; i < 20; i++ {
		g.SetCell('q')
	}
	if top := g.Window(0, 5); top != 16 {
		t.Errorf("Window = %d, want 16", top)
	}
	g.MoveCursorRow(-20)
	if top := g.Window(16, 5); top != 0 {
		t.Errorf("Window = %d, want 0", top)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	g := mustNew(t, 2, 1)
	g.SetCell('q')
	s := g.Snapshot()
	g.MoveCursorRow(-1)
	g.SetCell('w')
	if s.Channels[0][0] != 'q' {
		t.Errorf("snapshot changed after editing the grid")
	}
	if s.Kind(1) != pitch.Percussion || s.Rows() != 2 {
		t.Errorf("snapshot metadata wrong: %+v", s)
	}
}

// Random edit sessions must never break the grid invariants.
func TestInvariantUnderRandomEdits(t *testing.T) {
	syms := []pitch.Symbol{'q', 'w', 'a', 'f', pitch.Rest, 'Z'}
	r := rand.New(rand.NewSource(1))
	for run := 0; run < 50; run++ {
		g := mustNew(t, 1+r.Intn(5), NoPercussion)
		if r.Intn(2) == 0 {
			g = mustNew(t, 4, 3)
		}
		for step := 0; step < 200; step++ {
			switch r.Intn(7) {
			case 0:
				g.MoveCursorChannel(r.Intn(5) - 2)
			case 1:
				g.MoveCursorRow(r.Intn(7) - 3)
			case 2, 3:
				g.SetCell(syms[r.Intn(len(syms))])
			case 4:
				g.DeleteAt(r.Intn(g.Rows() + 1))
			case 5:
				g.Backspace()
			case 6:
				g.InsertAt(r.Intn(g.Rows()))
			}
			if err := g.Check(); err != nil {
				t.Fatalf("run %d step %d: %v", run, step, err)
			}
		}
	}
}

func TestFromSnapshot(t *testing.T) {
	s := Snapshot{
		Channels: [][]pitch.Symbol{
			{'q', 'w', 'e'},
			{' ', 'a', 'a'},
		},
		Percussion: 1,
	}
	g, err := FromSnapshot(s)
	if err != nil {
		t.Fatal(err)
	}
	if got := column(g, 0); got != "qwe " {
		t.Errorf("channel 0 = %q, want trailing rest row", got)
	}
	if got := column(g, 1); got != " aa " {
		t.Errorf("channel 1 = %q", got)
	}
	if ch, row := g.Cursor(); ch != 0 || row != 0 {
		t.Errorf("cursor = (%d, %d)", ch, row)
	}
	if err := g.Check(); err != nil {
		t.Error(err)
	}

	// The grid owns its cells.
	s.Channels[0][0] = 'z'
	if g.Cell(0, 0) != 'q' {
		t.Errorf("grid shares memory with the snapshot")
	}
}

func TestFromSnapshotRejects(t *testing.T) {
	tests := []struct {
		name string
		s    Snapshot
	}{
		{"ragged", Snapshot{Channels: [][]pitch.Symbol{{' ', ' '}, {' '}}, Percussion: NoPercussion}},
		{"drum key on melodic channel", Snapshot{Channels: [][]pitch.Symbol{{'a'}}, Percussion: NoPercussion}},
		{"melodic key on drums", Snapshot{Channels: [][]pitch.Symbol{{'q'}}, Percussion: 0}},
		{"no channels", Snapshot{Percussion: NoPercussion}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromSnapshot(tt.s); err == nil {
				t.Errorf("FromSnapshot accepted %v", tt.s)
			}
		})
	}
}
