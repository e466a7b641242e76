package score

import (
	"errors"
	"testing"

	cerr "github.com/comref/converter/core/errors"
)

// buildMeasureTree builds a one-part tree with a single 4/4 measure holding
// the given voice children, with divisions per quarter set to div.
func buildMeasureTree(div int, voiceItems ...*Node) *Tree {
	root := NewScore("test")
	part := NewPart("P1")
	measure := NewMeasure(1, false)
	measure.Ctx = &Context{
		Divisions: div, TimeBeats: 4, TimeBeatType: 4, HasTime: true,
		ClefSign: "G", ClefLine: 2, HasClef: true, Voice: 1,
	}
	voice := NewVoice(1)
	for _, item := range voiceItems {
		voice.AppendChild(item)
	}
	measure.AppendChild(voice)
	part.AppendChild(measure)
	root.AppendChild(part)
	return NewTree(root)
}

// TestValidateBalancedMeasure verifies a 4/4 measure with two half notes.
func TestValidateBalancedMeasure(t *testing.T) {
	tree := buildMeasureTree(1, NewNote("C", 0, 4, 2), NewNote("G", 0, 4, 2))
	if errs := Validate(tree); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

// TestValidateDurationMismatch verifies that overfull measures are reported.
func TestValidateDurationMismatch(t *testing.T) {
	tree := buildMeasureTree(1, NewNote("C", 0, 4, 3), NewNote("G", 0, 4, 2))
	errs := Validate(tree)
	if len(errs) == 0 {
		t.Fatal("expected a duration mismatch")
	}
	if !errors.Is(errs[0], cerr.ErrDurationMismatch) {
		t.Errorf("expected ErrDurationMismatch, got %v", errs[0])
	}
}

// TestValidateImplicitMeasure verifies pickup measures may undershoot but
// never overshoot the declared duration.
func TestValidateImplicitMeasure(t *testing.T) {
	tree := buildMeasureTree(1, NewNote("C", 0, 4, 1))
	measure := tree.Root.Children[0].Children[0]
	measure.SetAttr(AttrImplicit, "yes")
	if errs := Validate(tree); len(errs) != 0 {
		t.Fatalf("pickup measure should validate: %v", errs)
	}

	over := buildMeasureTree(1, NewNote("C", 0, 4, 5))
	overMeasure := over.Root.Children[0].Children[0]
	overMeasure.SetAttr(AttrImplicit, "yes")
	if errs := Validate(over); len(errs) == 0 {
		t.Fatal("overfull pickup measure should fail")
	}
}

// TestValidateGroupDurations verifies chords count once and groups sum.
func TestValidateGroupDurations(t *testing.T) {
	chord := NewChord()
	chord.AppendChild(NewNote("C", 0, 4, 2))
	chord.AppendChild(NewNote("E", 0, 4, 2))

	beam := NewBeam()
	beam.AppendChild(NewNote("D", 0, 4, 1))
	beam.AppendChild(NewNote("E", 0, 4, 1))

	tree := buildMeasureTree(1, chord, beam)
	if errs := Validate(tree); len(errs) != 0 {
		t.Fatalf("expected balanced measure, got %v", errs)
	}
}

// TestValidateDanglingReference verifies unpaired tie endpoints fail.
func TestValidateDanglingReference(t *testing.T) {
	note := NewNote("C", 0, 4, 4)
	note.AppendChild(NewTie(SideStart, "t1"))
	tree := buildMeasureTree(1, note)

	errs := Validate(tree)
	if len(errs) == 0 {
		t.Fatal("expected unresolved reference")
	}
	if !errors.Is(errs[0], cerr.ErrUnresolvedReference) {
		t.Errorf("expected ErrUnresolvedReference, got %v", errs[0])
	}
}

// TestValidatePairedReference verifies matched tie endpoints pass.
func TestValidatePairedReference(t *testing.T) {
	first := NewNote("C", 0, 4, 2)
	first.AppendChild(NewTie(SideStart, "t1"))
	second := NewNote("C", 0, 4, 2)
	second.AppendChild(NewTie(SideStop, "t1"))

	tree := buildMeasureTree(1, first, second)
	if errs := Validate(tree); len(errs) != 0 {
		t.Fatalf("expected paired tie to validate, got %v", errs)
	}
}

// TestValidateIllegalChild verifies parent/child kind constraints.
func TestValidateIllegalChild(t *testing.T) {
	root := NewScore("bad")
	root.AppendChild(NewNote("C", 0, 4, 1))
	errs := Validate(NewTree(root))
	if len(errs) == 0 {
		t.Fatal("note directly under score should fail")
	}
	if !errors.Is(errs[0], cerr.ErrUnsupportedConstruct) {
		t.Errorf("expected ErrUnsupportedConstruct, got %v", errs[0])
	}
}

// TestPitchString verifies compact pitch rendering.
func TestPitchString(t *testing.T) {
	tests := []struct {
		step   string
		alter  int
		octave int
		want   string
	}{
		{"C", 0, 4, "C4"},
		{"F", 1, 3, "F#3"},
		{"B", -1, 2, "Bb2"},
		{"G", 2, 5, "G##5"},
		{"E", -2, 4, "Ebb4"},
	}
	for _, tt := range tests {
		n := NewNote(tt.step, tt.alter, tt.octave, 1)
		if got := n.PitchString(); got != tt.want {
			t.Errorf("PitchString(%s %d %d) = %q, want %q", tt.step, tt.alter, tt.octave, got, tt.want)
		}
	}
}

// TestMeasureDivisions verifies declared duration computation.
func TestMeasureDivisions(t *testing.T) {
	ctx := Context{Divisions: 2, TimeBeats: 3, TimeBeatType: 4, HasTime: true}
	got, err := ctx.MeasureDivisions()
	if err != nil {
		t.Fatalf("MeasureDivisions failed: %v", err)
	}
	if got != 6 {
		t.Errorf("MeasureDivisions = %d, want 6", got)
	}

	noTime := Context{Divisions: 2}
	if _, err := noTime.MeasureDivisions(); err == nil {
		t.Error("expected error without time signature")
	}
}

// TestFingerprintStability verifies identical trees hash identically and
// different trees differ.
func TestFingerprintStability(t *testing.T) {
	a := buildMeasureTree(1, NewNote("C", 0, 4, 2), NewNote("G", 0, 4, 2))
	b := buildMeasureTree(1, NewNote("C", 0, 4, 2), NewNote("G", 0, 4, 2))
	c := buildMeasureTree(1, NewNote("C", 0, 4, 2), NewNote("A", 0, 4, 2))

	if Fingerprint(a) != Fingerprint(b) {
		t.Error("identical trees should share a fingerprint")
	}
	if Fingerprint(a) == Fingerprint(c) {
		t.Error("different trees should not share a fingerprint")
	}
	if len(Fingerprint(a)) != 64 {
		t.Errorf("fingerprint should be 64 hex chars, got %d", len(Fingerprint(a)))
	}
}

// TestKindRoundTrip verifies kind label mapping.
func TestKindRoundTrip(t *testing.T) {
	for _, k := range Kinds() {
		got, ok := KindFromString(k.String())
		if !ok || got != k {
			t.Errorf("KindFromString(%q) = %v, %v", k.String(), got, ok)
		}
	}
	if _, ok := KindFromString("nonsense"); ok {
		t.Error("unknown label should not map")
	}
}

// TestWalkOrder verifies document-order traversal.
func TestWalkOrder(t *testing.T) {
	tree := buildMeasureTree(1, NewNote("C", 0, 4, 2), NewRest(2))
	var kinds []Kind
	tree.Walk(func(n *Node, depth int) bool {
		kinds = append(kinds, n.Kind)
		return true
	})
	want := []Kind{KindScore, KindPart, KindMeasure, KindVoice, KindNote, KindRest}
	if len(kinds) != len(want) {
		t.Fatalf("walked %d nodes, want %d", len(kinds), len(want))
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("position %d: got %v, want %v", i, kinds[i], want[i])
		}
	}
}
