package visitor

import (
	"github.com/comref/converter/core/score"
)

// NoteEvent is one sounding note flattened out of the tree, with its onset
// within the measure expressed in divisions.
type NoteEvent struct {
	Part     string
	Measure  int
	Voice    int
	Onset    int
	Duration int
	Step     string
	Alter    int
	Octave   int
	Pitch    string // compact form, e.g. "F#3"
}

// visitNotes flattens every note into an ordered event list. Chord notes
// share an onset; groups contribute their children sequentially.
func visitNotes(t *score.Tree) (*Output, error) {
	var events []NoteEvent

	for _, part := range t.Root.Children {
		if part.Kind != score.KindPart {
			continue
		}
		for _, measure := range part.Children {
			if measure.Kind != score.KindMeasure {
				continue
			}
			for _, voice := range measure.Children {
				if voice.Kind != score.KindVoice {
					continue
				}
				onset := 0
				for _, item := range voice.Children {
					collectNotes(item, part.ID, measure.IntAttr(score.AttrNumber),
						voice.IntAttr(score.AttrVoice), &onset, &events)
				}
			}
		}
	}
	return &Output{Kind: KindNoteList, Notes: events}, nil
}

func collectNotes(n *score.Node, part string, measure, voice int, onset *int, events *[]NoteEvent) {
	switch n.Kind {
	case score.KindNote:
		step, alter, octave := n.Pitch()
		*events = append(*events, NoteEvent{
			Part: part, Measure: measure, Voice: voice,
			Onset: *onset, Duration: n.Duration(),
			Step: step, Alter: alter, Octave: octave,
			Pitch: n.PitchString(),
		})
		*onset += n.Duration()
	case score.KindRest:
		*onset += n.Duration()
	case score.KindChord:
		start := *onset
		for _, c := range n.Children {
			if c.Kind != score.KindNote {
				continue
			}
			at := start
			collectNotes(c, part, measure, voice, &at, events)
		}
		*onset = start + n.Duration()
	case score.KindBeam, score.KindTuplet:
		for _, c := range n.Children {
			collectNotes(c, part, measure, voice, onset, events)
		}
	}
}
