package pitch

import "fmt"

// Symbol is a single input key as typed by the user.
type Symbol rune

// Rest means "no note at this row".
const Rest Symbol = ' '

// Kind selects which mapping table a channel uses.
type Kind int

const (
	Melodic Kind = iota
	Percussion
)

func (k Kind) String() string {
	if k == Percussion {
		return "drums"
	}
	return "melodic"
}

// LabelWidth is the column width of every string returned by Label.
const LabelWidth = 5

// Two rows of a QWERTY keyboard laid out like piano keys.
// Upper row starts at C4, lower row at C3.
var melodic = map[Symbol]uint8{
	'q': 60, // C4
	'2': 61,
	'w': 62,
	'3': 63,
	'e': 64,
	'r': 65,
	'5': 66,
	't': 67,
	'6': 68,
	'y': 69,
	'7': 70,
	'u': 71,
	'i': 72, // C5
	'9': 73,
	'o': 74,
	'0': 75,
	'p': 76,

	'z': 48, // C3
	's': 49,
	'x': 50,
	'd': 51,
	'c': 52,
	'v': 53,
	'g': 54,
	'b': 55,
	'h': 56,
	'n': 57,
	'j': 58,
	'm': 59,
}

type drum struct {
	Note  uint8
	Label string
}

// General MIDI percussion keys. None of these overlap the melodic layout.
var percussion = map[Symbol]drum{
	'a':  {36, "KICK"},
	'f':  {38, "SNARE"},
	'k':  {39, "CLAP"},
	'l':  {42, "CLHAT"},
	';':  {44, "PDHAT"},
	'\'': {46, "OPHAT"},
	'1':  {41, "LOTOM"},
	'4':  {47, "MDTOM"},
	'8':  {50, "HITOM"},
	'-':  {49, "CRASH"},
	'=':  {51, "RIDE"},
	'[':  {52, "CHINA"},
	']':  {55, "SPLSH"},
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// MelodicPitch returns the MIDI note for sym on a melodic channel.
func MelodicPitch(sym Symbol) (uint8, bool) {
	n, ok := melodic[sym]
	return n, ok
}

// PercussionPitch returns the General MIDI percussion note for sym.
func PercussionPitch(sym Symbol) (uint8, bool) {
	d, ok := percussion[sym]
	return d.Note, ok
}

// Lookup maps sym through the table for kind.
func Lookup(sym Symbol, kind Kind) (uint8, bool) {
	if kind == Percussion {
		return PercussionPitch(sym)
	}
	return MelodicPitch(sym)
}

// Valid reports whether sym may be stored in a channel of the given kind.
// Rest is valid everywhere.
func Valid(sym Symbol, kind Kind) bool {
	if sym == Rest {
		return true
	}
	_, ok := Lookup(sym, kind)
	return ok
}

// Lowest and highest notes reachable from the melodic layout.
const (
	MelodicLow  uint8 = 48
	MelodicHigh uint8 = 76
)

var (
	melodicKeys    = map[uint8]Symbol{}
	percussionKeys = map[uint8]Symbol{}
)

func init() {
	for sym, n := range melodic {
		melodicKeys[n] = sym
	}
	for sym, d := range percussion {
		percussionKeys[d.Note] = sym
	}
}

// SymbolFor returns the key that plays note on a channel of the given kind.
// Melodic notes outside MelodicLow..MelodicHigh are moved by octaves into
// range; percussion notes without a key report false.
func SymbolFor(note uint8, kind Kind) (Symbol, bool) {
	if kind == Percussion {
		sym, ok := percussionKeys[note]
		return sym, ok
	}
	if note > 127 {
		return 0, false
	}
	for note < MelodicLow {
		note += 12
	}
	for note > MelodicHigh {
		note -= 12
	}
	sym, ok := melodicKeys[note]
	return sym, ok
}

// NoteName returns the scientific pitch name of a MIDI note, e.g. 61 -> "C#4".
func NoteName(note uint8) string {
	return fmt.Sprintf("%s%d", noteNames[note%12], int(note)/12-1)
}

// Label renders sym as a fixed width cell.
func Label(sym Symbol, kind Kind) string {
	if sym == Rest {
		return pad("  -")
	}
	if kind == Percussion {
		if d, ok := percussion[sym]; ok {
			return pad(d.Label)
		}
		return pad("?")
	}
	if n, ok := melodic[sym]; ok {
		return pad(NoteName(n))
	}
	return pad("?")
}

func pad(s string) string {
	return fmt.Sprintf("%-*s", LabelWidth, s)
}

// Keys returns the symbols accepted for kind, in keyboard order. Used for help
// text.
func Keys(kind Kind) string {
	if kind == Percussion {
		return "a f k l ; ' 1 4 8 - = [ ]"
	}
	return "q2w3er5t6y7ui9o0p zsxdcvgbhnjm"
}
