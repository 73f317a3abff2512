package compat

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Key is one of the 24 musical keys: 0-11 are the major keys by pitch class
// starting at C, 12-23 the minor keys in the same order.
type Key int

const NumKeys = 24

type Mode int

const (
	Major Mode = iota
	Minor
)

type KeyRelationship string

const (
	KeyPerfectMatch  KeyRelationship = "perfect_match"
	KeyRelativeMinor KeyRelationship = "relative_minor"
	KeyRelativeMajor KeyRelationship = "relative_major"
	KeyDominant      KeyRelationship = "dominant"
	KeySubdominant   KeyRelationship = "subdominant"
	KeyCompatible    KeyRelationship = "compatible"
	KeyIncompatible  KeyRelationship = "incompatible"
	KeyUnknown       KeyRelationship = "unknown"
)

type HarmonicFunction string

const (
	FunctionTonic       HarmonicFunction = "tonic"
	FunctionDominant    HarmonicFunction = "dominant"
	FunctionSubdominant HarmonicFunction = "subdominant"
)

type KeyCompatibility struct {
	Score            float64          `json:"compatibility"`
	Relationship     KeyRelationship  `json:"relationship"`
	HarmonicFunction HarmonicFunction `json:"harmonic_function"`
}

var keyScores = map[KeyRelationship]float64{
	KeyPerfectMatch:  1.0,
	KeyRelativeMinor: 0.9,
	KeyRelativeMajor: 0.9,
	KeyDominant:      0.8,
	KeySubdominant:   0.8,
	KeyCompatible:    0.6,
	KeyUnknown:       0.5,
}

// incompatibleScores is indexed by effective wheel distance.
var incompatibleScores = [...]float64{3: 0.4, 4: 0.3, 5: 0.2, 6: 0.1}

var pitchNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// camelotNumbers maps pitch class to the Camelot wheel number, per mode.
var camelotNumbers = [2][12]int{
	Major: {8, 3, 10, 5, 12, 7, 2, 9, 4, 11, 6, 1},
	Minor: {5, 12, 7, 2, 9, 4, 11, 6, 1, 8, 3, 10},
}

var enharmonics = map[string]string{
	"DB": "C#", "EB": "D#", "GB": "F#", "AB": "G#", "BB": "A#",
	"CB": "B", "FB": "E", "E#": "F", "B#": "C",
}

// keyTable[from][to] is filled once at init from the Camelot wheel.
var keyTable [NumKeys][NumKeys]KeyCompatibility

func init() {
	for from := range Key(NumKeys) {
		for to := range Key(NumKeys) {
			keyTable[from][to] = relate(from, to)
		}
	}
}

func NewKey(pitchClass int, mode Mode) Key {
	return Key(int(mode)*12 + ((pitchClass%12)+12)%12)
}

func (k Key) PitchClass() int {
	return int(k) % 12
}

func (k Key) Mode() Mode {
	if k >= 12 {
		return Minor
	}
	return Major
}

func (k Key) Valid() bool {
	return k >= 0 && k < NumKeys
}

func (k Key) String() string {
	if !k.Valid() {
		return "?"
	}
	if k.Mode() == Minor {
		return pitchNames[k.PitchClass()] + "m"
	}
	return pitchNames[k.PitchClass()]
}

func (k Key) CamelotNumber() int {
	return camelotNumbers[k.Mode()][k.PitchClass()]
}

// Camelot returns the wheel notation, e.g. "8B" for C major.
func (k Key) Camelot() string {
	letter := "B"
	if k.Mode() == Minor {
		letter = "A"
	}
	return strconv.Itoa(k.CamelotNumber()) + letter
}

var (
	camelotRegex = regexp.MustCompile(`^(\d{1,2})([ABab])$`)
	noteRegex    = regexp.MustCompile(`^([A-Ga-g])([#b♯♭]?)\s*(.*)$`)
)

// ParseKey accepts letter notation ("C", "F#m", "Bb minor", "Ebmaj") and
// Camelot notation ("8B", "5A").
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return -1, fmt.Errorf("empty key")
	}

	if m := camelotRegex.FindStringSubmatch(s); nil != m {
		return parseCamelot(m[1], m[2])
	}

	m := noteRegex.FindStringSubmatch(s)
	if nil == m {
		return -1, fmt.Errorf("invalid key %q", s)
	}

	mode, err := parseMode(m[3])
	if nil != err {
		return -1, fmt.Errorf("invalid key %q: %v", s, err)
	}

	accidental := strings.NewReplacer("♯", "#", "♭", "b").Replace(m[2])
	note := strings.ToUpper(m[1]) + accidental
	if canonical, ok := enharmonics[strings.ToUpper(note)]; ok {
		note = canonical
	}
	pc := slices.Index(pitchNames[:], note)
	if pc < 0 {
		return -1, fmt.Errorf("invalid key %q: unknown note %q", s, note)
	}
	return NewKey(pc, mode), nil
}

func MustParseKey(s string) Key {
	k, err := ParseKey(s)
	if nil != err {
		panic(err)
	}
	return k
}

func parseMode(suffix string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(suffix)) {
	case "", "maj", "major":
		return Major, nil
	case "m", "min", "minor":
		return Minor, nil
	default:
		return Major, fmt.Errorf("unknown mode %q", suffix)
	}
}

func parseCamelot(number, letter string) (Key, error) {
	n, err := strconv.Atoi(number)
	if nil != err || n < 1 || n > 12 {
		return -1, fmt.Errorf("invalid camelot number %q", number)
	}
	mode := Major
	if strings.EqualFold(letter, "A") {
		mode = Minor
	}
	pc := slices.Index(camelotNumbers[mode][:], n)
	return NewKey(pc, mode), nil
}

// KeyFromPitchClass converts the integer key/mode pair used by Spotify-style
// feature APIs (mode 1 = major, 0 = minor, key -1 = undetected).
func KeyFromPitchClass(pitchClass, mode int) (Key, bool) {
	if pitchClass < 0 || pitchClass > 11 {
		return -1, false
	}
	if mode == 0 {
		return NewKey(pitchClass, Minor), true
	}
	return NewKey(pitchClass, Major), true
}

// KeyCompat compares two keys given in any notation ParseKey accepts.
// Unparseable input yields a neutral "unknown" result.
func KeyCompat(from, to string) KeyCompatibility {
	fk, err := ParseKey(from)
	if nil != err {
		return unknownKey()
	}
	tk, err := ParseKey(to)
	if nil != err {
		return unknownKey()
	}
	return KeyCompatOf(fk, tk)
}

func KeyCompatOf(from, to Key) KeyCompatibility {
	if !from.Valid() || !to.Valid() {
		return unknownKey()
	}
	return keyTable[from][to]
}

// CompatibleKeys lists every key scoring at least KeyScore(KeyCompatible)
// from k, best first.
func CompatibleKeys(k Key) []Key {
	if !k.Valid() {
		return nil
	}
	out := make([]Key, 0, 8)
	for to := range Key(NumKeys) {
		if keyTable[k][to].Score >= keyScores[KeyCompatible] {
			out = append(out, to)
		}
	}
	slices.SortStableFunc(out, func(a, b Key) int {
		sa, sb := keyTable[k][a].Score, keyTable[k][b].Score
		switch {
		case sa > sb:
			return -1
		case sa < sb:
			return 1
		default:
			return 0
		}
	})
	return out
}

func KeyScore(r KeyRelationship) float64 {
	return keyScores[r]
}

func unknownKey() KeyCompatibility {
	return KeyCompatibility{Score: keyScores[KeyUnknown], Relationship: KeyUnknown, HarmonicFunction: FunctionTonic}
}

func relate(from, to Key) KeyCompatibility {
	if from == to {
		return scored(KeyPerfectMatch, FunctionTonic)
	}

	steps := (to.CamelotNumber() - from.CamelotNumber() + 12) % 12
	dist := min(steps, 12-steps)
	sameMode := from.Mode() == to.Mode()

	switch {
	case steps == 0 && from.Mode() == Major:
		return scored(KeyRelativeMinor, FunctionSubdominant)
	case steps == 0:
		return scored(KeyRelativeMajor, FunctionTonic)
	case sameMode && steps == 1:
		return scored(KeyDominant, FunctionDominant)
	case sameMode && steps == 11:
		return scored(KeySubdominant, FunctionSubdominant)
	case sameMode && dist == 2, !sameMode && dist == 1:
		return scored(KeyCompatible, direction(steps))
	}

	if !sameMode {
		dist = min(dist+1, 6)
	}
	return KeyCompatibility{
		Score:            incompatibleScores[max(dist, 3)],
		Relationship:     KeyIncompatible,
		HarmonicFunction: direction(steps),
	}
}

func scored(r KeyRelationship, fn HarmonicFunction) KeyCompatibility {
	return KeyCompatibility{Score: keyScores[r], Relationship: r, HarmonicFunction: fn}
}

// direction labels clockwise moves on the wheel as dominant-side.
func direction(steps int) HarmonicFunction {
	if steps > 6 {
		return FunctionSubdominant
	}
	return FunctionDominant
}
