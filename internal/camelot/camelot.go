// Package camelot implements the Camelot wheel key model: the 24-key
// bijection with musical key names, compatibility rules and wheel
// distance used by the key analyzer.
package camelot

import (
	"fmt"
	"strconv"
	"strings"
)

// Key is a Camelot wheel position: a number 1..12 and a mode (major/minor).
type Key struct {
	Number  int
	IsMajor bool
}

// minorNames holds 1A..12A, majorNames holds 1B..12B, per the fixed
// circle-of-fifths table in §4.2.
var minorNames = [13]string{
	"", "Abm", "Ebm", "Bbm", "Fm", "Cm", "Gm", "Dm", "Am", "Em", "Bm", "Gbm", "Dbm",
}

var majorNames = [13]string{
	"", "B", "Gb", "Db", "Ab", "Eb", "Bb", "F", "C", "G", "D", "A", "E",
}

// String renders a Key as "8A" / "12B".
func (k Key) String() string {
	letter := "A"
	if k.IsMajor {
		letter = "B"
	}
	return fmt.Sprintf("%d%s", k.Number, letter)
}

// Musical renders the Key as a musical key name, e.g. "Am" or "C".
func (k Key) Musical() string {
	if k.IsMajor {
		return majorNames[k.Number]
	}
	return minorNames[k.Number]
}

// Parse parses a Camelot string such as "8A" or "12B". Returns false for
// out-of-range numbers (must be 1..12) or an unrecognized letter.
func Parse(s string) (Key, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Key{}, false
	}
	letter := s[len(s)-1]
	numStr := s[:len(s)-1]
	n, err := strconv.Atoi(numStr)
	if err != nil || n < 1 || n > 12 {
		return Key{}, false
	}
	switch letter {
	case 'A', 'a':
		return Key{Number: n, IsMajor: false}, true
	case 'B', 'b':
		return Key{Number: n, IsMajor: true}, true
	default:
		return Key{}, false
	}
}

// FromMusical maps a musical key name back to its Camelot position; the
// inverse of Musical, used to verify the round-trip bijection in tests.
func FromMusical(name string) (Key, bool) {
	for n := 1; n <= 12; n++ {
		if majorNames[n] == name {
			return Key{Number: n, IsMajor: true}, true
		}
		if minorNames[n] == name {
			return Key{Number: n, IsMajor: false}, true
		}
	}
	return Key{}, false
}

// mod12 keeps a wheel number in the 1..12 range after wraparound math.
func mod12(n int) int {
	n = ((n - 1) % 12)
	if n < 0 {
		n += 12
	}
	return n + 1
}

// Compatible reports whether b is harmonically mixable with a: identical
// key, the relative-mode partner (same number, opposite mode), or an
// adjacent wheel number (±1 mod 12) at the same mode.
func (a Key) Compatible(b Key) bool {
	if a == b {
		return true
	}
	if a.Number == b.Number && a.IsMajor != b.IsMajor {
		return true
	}
	if a.IsMajor == b.IsMajor && (mod12(a.Number+1) == b.Number || mod12(a.Number-1) == b.Number) {
		return true
	}
	return false
}

// CompatibleKeys returns k itself, its relative-mode partner, and both
// numeric wheel neighbors at the same mode — the full compatible set.
func CompatibleKeys(k Key) []Key {
	return []Key{
		k,
		{Number: k.Number, IsMajor: !k.IsMajor},
		{Number: mod12(k.Number + 1), IsMajor: k.IsMajor},
		{Number: mod12(k.Number - 1), IsMajor: k.IsMajor},
	}
}

// Distance is the shortest modular wheel-number distance between a and b,
// plus a penalty of 1 when their modes differ (relative-mode partners
// excepted in the caller's own comparisons — this is the raw metric).
func Distance(a, b Key) int {
	d := a.Number - b.Number
	if d < 0 {
		d = -d
	}
	if d > 6 {
		d = 12 - d
	}
	if a.IsMajor != b.IsMajor {
		d++
	}
	return d
}
