// Package state tracks the running musical context of a translator pass:
// divisions per quarter note, clef, key signature, time signature, active
// voice and default stem direction. Context changes are ordered: later
// measures see every change declared at or before their position. A voice
// switch never resets clef or key, which are per-part properties.
package state

import (
	"fmt"

	cerr "github.com/comref/converter/core/errors"
	"github.com/comref/converter/core/score"
)

// State is the mutable context carried by one translator pass. It is
// pass-scoped: a conversion owns exactly one live instance and copies
// immutable snapshots into the tree as measures become visible.
type State struct {
	ctx score.Context
}

// New creates a state with one division per quarter note and voice 1, the
// defaults every modeled notation assumes before the first attribute block.
func New() *State {
	return &State{ctx: score.Context{Divisions: 1, Voice: 1}}
}

// Apply folds one context-changing node (clef, key or time) into the state.
// Non-context kinds are rejected so translators cannot silently misroute
// content nodes through the state.
func (s *State) Apply(n *score.Node) error {
	switch n.Kind {
	case score.KindClef:
		s.SetClef(n.Attr(score.AttrSign), n.IntAttr(score.AttrLine))
	case score.KindKey:
		s.SetKey(n.IntAttr(score.AttrFifths))
	case score.KindTime:
		s.SetTime(n.IntAttr(score.AttrBeats), n.IntAttr(score.AttrBeatType))
	default:
		return cerr.NewUnsupportedConstruct(n.Kind.String(),
			fmt.Sprintf("%s is not a context-changing construct", n.Kind), "")
	}
	return nil
}

// SetDivisions changes the divisions-per-quarter-note resolution.
func (s *State) SetDivisions(divisions int) {
	if divisions > 0 {
		s.ctx.Divisions = divisions
	}
}

// SetClef changes the active clef.
func (s *State) SetClef(sign string, line int) {
	s.ctx.ClefSign = sign
	s.ctx.ClefLine = line
	s.ctx.HasClef = true
}

// SetKey changes the active key signature.
func (s *State) SetKey(fifths int) {
	s.ctx.KeyFifths = fifths
	s.ctx.HasKey = true
}

// SetTime changes the active time signature.
func (s *State) SetTime(beats, beatType int) {
	if beats > 0 && beatType > 0 {
		s.ctx.TimeBeats = beats
		s.ctx.TimeBeatType = beatType
		s.ctx.HasTime = true
	}
}

// SetVoice switches the active voice. Clef and key are untouched.
func (s *State) SetVoice(voice int) {
	s.ctx.Voice = voice
}

// SetStem changes the default stem direction.
func (s *State) SetStem(stem string) {
	s.ctx.Stem = stem
}

// Snapshot returns an immutable copy of the current context, suitable for
// recording on a Measure node. Later state changes do not affect snapshots
// already taken.
func (s *State) Snapshot() score.Context {
	return s.ctx.Clone()
}

// Divisions returns the current divisions per quarter note.
func (s *State) Divisions() int { return s.ctx.Divisions }

// Voice returns the active voice number.
func (s *State) Voice() int { return s.ctx.Voice }

// MeasureDivisions returns the declared measure duration in divisions under
// the current context.
func (s *State) MeasureDivisions() (int, error) {
	return s.ctx.MeasureDivisions()
}

// Reset returns the state to its initial defaults for a new pass.
func (s *State) Reset() {
	s.ctx = score.Context{Divisions: 1, Voice: 1}
}
