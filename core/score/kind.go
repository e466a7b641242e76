package score

import "fmt"

// Kind is the tag discriminating the node variants of the Score Tree.
// The integer codes are stable and deterministic; the token-stream and
// tree-edit visitors rely on them being dense and ordered.
type Kind int

// Node kind constants in canonical order.
const (
	KindScore Kind = iota
	KindPart
	KindMeasure
	KindVoice
	KindBeam
	KindTuplet
	KindChord
	KindNote
	KindRest
	KindClef
	KindKey
	KindTime
	KindTie
	KindSlur
	KindBarline
	KindDirection
	numKinds
)

var kindNames = [numKinds]string{
	"score", "part", "measure", "voice", "beam", "tuplet", "chord",
	"note", "rest", "clef", "key", "time", "tie", "slur", "barline",
	"direction",
}

// String returns the lowercase label of the kind.
func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsValid returns true for kinds within the defined range.
func (k Kind) IsValid() bool {
	return k >= 0 && k < numKinds
}

// Code returns the stable integer code of the kind.
func (k Kind) Code() int { return int(k) }

// Kinds returns all node kinds in canonical order.
func Kinds() []Kind {
	out := make([]Kind, numKinds)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// KindFromString maps a lowercase label back to its kind.
func KindFromString(s string) (Kind, bool) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), true
		}
	}
	return 0, false
}
