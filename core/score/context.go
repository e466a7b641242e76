package score

import (
	"fmt"

	cerr "github.com/comref/converter/core/errors"
)

// Context is a value-type snapshot of the musical context in effect at a
// point in the score: divisions per quarter note, clef, key signature, time
// signature, active voice, and the default stem direction. Translators
// record one on each Measure node as it is parsed; visitors read it but
// never change it.
type Context struct {
	// Divisions per quarter note. Durations everywhere in the tree are
	// expressed in these units.
	Divisions int

	// Clef in effect, when HasClef.
	ClefSign string
	ClefLine int
	HasClef  bool

	// Key signature in fifths, when HasKey. Zero fifths (C major) is a
	// valid signature, hence the explicit flag.
	KeyFifths int
	HasKey    bool

	// Time signature, when HasTime.
	TimeBeats    int
	TimeBeatType int
	HasTime      bool

	// Voice is the active voice number.
	Voice int

	// Stem is the default stem direction ("" when unset).
	Stem string
}

// MeasureDivisions returns the declared duration of a measure under this
// context, in divisions. It fails when no time signature is in effect or
// when the signature does not yield a whole number of divisions.
func (c Context) MeasureDivisions() (int, error) {
	if !c.HasTime {
		return 0, cerr.NewDurationMismatch("measure", "no time signature in effect", "")
	}
	total := c.Divisions * 4 * c.TimeBeats
	if total%c.TimeBeatType != 0 {
		detail := fmt.Sprintf("time %d/%d does not divide %d divisions per quarter",
			c.TimeBeats, c.TimeBeatType, c.Divisions)
		return 0, cerr.NewDurationMismatch("measure", detail, "")
	}
	return total / c.TimeBeatType, nil
}

// Clone returns a copy of the context. Context is a value type with no
// reference fields, so assignment already copies; Clone exists to make the
// snapshot intent explicit at call sites.
func (c Context) Clone() Context { return c }
