package visitor

import (
	"bytes"
	"strings"
	"testing"

	"github.com/comref/converter/core/score"
)

// halfNotesTree builds one part with a single 4/4 measure holding two tied
// half notes, the running example used across the visitor tests.
func halfNotesTree() *score.Tree {
	root := score.NewScore("s1")
	part := score.NewPart("P1")
	root.AppendChild(part)

	measure := score.NewMeasure(1, false)
	measure.Ctx = &score.Context{
		Divisions: 2,
		ClefSign:  "G", ClefLine: 2, HasClef: true,
		KeyFifths: 0, HasKey: true,
		TimeBeats: 4, TimeBeatType: 4, HasTime: true,
		Voice: 1,
	}
	measure.AppendChild(score.NewClef("G", 2))
	measure.AppendChild(score.NewKey(0))
	measure.AppendChild(score.NewTime(4, 4))

	voice := score.NewVoice(1)
	n1 := score.NewNote("C", 0, 4, 4)
	n1.AppendChild(score.NewTie(score.SideStart, "t1"))
	n2 := score.NewNote("C", 0, 4, 4)
	n2.AppendChild(score.NewTie(score.SideStop, "t1"))
	voice.AppendChild(n1)
	voice.AppendChild(n2)
	measure.AppendChild(voice)
	part.AppendChild(measure)

	return score.NewTree(root)
}

// groupedTree builds a measure exercising chord, beam and tuplet grouping.
func groupedTree() *score.Tree {
	root := score.NewScore("s2")
	part := score.NewPart("P1")
	root.AppendChild(part)

	measure := score.NewMeasure(1, false)
	measure.Ctx = &score.Context{
		Divisions: 2,
		TimeBeats: 4, TimeBeatType: 4, HasTime: true,
		Voice: 1,
	}
	voice := score.NewVoice(1)

	voice.AppendChild(score.NewNote("C", 0, 4, 2))
	voice.AppendChild(score.NewRest(2))

	chord := score.NewChord()
	chord.AppendChild(score.NewNote("E", 0, 4, 2))
	chord.AppendChild(score.NewNote("G", 0, 4, 2))
	voice.AppendChild(chord)

	beam := score.NewBeam()
	beam.AppendChild(score.NewNote("A", 0, 4, 1))
	beam.AppendChild(score.NewNote("B", 0, 4, 1))
	voice.AppendChild(beam)

	measure.AppendChild(voice)
	part.AppendChild(measure)
	return score.NewTree(root)
}

func TestCounts(t *testing.T) {
	out, err := Visit(KindNodeCounts, halfNotesTree())
	if err != nil {
		t.Fatalf("Visit: %v", err)
	}
	r := out.Counts
	want := map[score.Kind]int{
		score.KindScore:   1,
		score.KindPart:    1,
		score.KindMeasure: 1,
		score.KindVoice:   1,
		score.KindNote:    2,
		score.KindTie:     2,
		score.KindClef:    1,
		score.KindKey:     1,
		score.KindTime:    1,
	}
	for k, n := range want {
		if got := r.Count(k); got != n {
			t.Errorf("count %s = %d, want %d", k, got, n)
		}
	}
	if r.Total != 11 {
		t.Errorf("total = %d, want 11", r.Total)
	}
	if !strings.Contains(r.String(), "note") {
		t.Errorf("report missing note line:\n%s", r)
	}
}

func TestCountReportMerge(t *testing.T) {
	a := NewCountReport()
	a.ByKind[score.KindNote] = 2
	a.Total = 2
	b := NewCountReport()
	b.ByKind[score.KindNote] = 3
	b.ByKind[score.KindRest] = 1
	b.Total = 4
	a.Merge(b)
	if a.Count(score.KindNote) != 5 || a.Count(score.KindRest) != 1 || a.Total != 6 {
		t.Fatalf("merged report wrong: %+v", a)
	}
}

func TestTokensDeterministic(t *testing.T) {
	tree := halfNotesTree()
	first, err := Visit(KindTokenStream, tree)
	if err != nil {
		t.Fatalf("Visit: %v", err)
	}
	second, err := Visit(KindTokenStream, tree)
	if err != nil {
		t.Fatalf("Visit: %v", err)
	}
	if strings.Join(first.Tokens, " ") != strings.Join(second.Tokens, " ") {
		t.Fatal("token stream not deterministic")
	}
	joined := strings.Join(first.Tokens, " ")
	if !strings.Contains(joined, "note:duration=4&octave=4&step=C") {
		t.Errorf("missing note token in %q", joined)
	}
	if !strings.Contains(joined, "/measure") {
		t.Errorf("missing container close token in %q", joined)
	}
	if strings.Contains(joined, "t1") {
		t.Errorf("cross-reference label leaked into token stream: %q", joined)
	}
}

func TestNoteOnsets(t *testing.T) {
	out, err := Visit(KindNoteList, groupedTree())
	if err != nil {
		t.Fatalf("Visit: %v", err)
	}
	notes := out.Notes
	if len(notes) != 5 {
		t.Fatalf("got %d notes, want 5", len(notes))
	}
	wantOnsets := []int{0, 4, 4, 6, 7}
	wantPitches := []string{"C4", "E4", "G4", "A4", "B4"}
	for i, ev := range notes {
		if ev.Onset != wantOnsets[i] {
			t.Errorf("note %d (%s) onset = %d, want %d", i, ev.Pitch, ev.Onset, wantOnsets[i])
		}
		if ev.Pitch != wantPitches[i] {
			t.Errorf("note %d pitch = %s, want %s", i, ev.Pitch, wantPitches[i])
		}
	}
	if notes[1].Onset != notes[2].Onset {
		t.Error("chord notes do not share an onset")
	}
	if notes[0].Part != "P1" || notes[0].Measure != 1 || notes[0].Voice != 1 {
		t.Errorf("note location wrong: %+v", notes[0])
	}
}

func TestDotGraph(t *testing.T) {
	out, err := Visit(KindDotGraph, halfNotesTree())
	if err != nil {
		t.Fatalf("Visit: %v", err)
	}
	text := string(out.Bytes)
	if !strings.HasPrefix(text, "digraph score {") {
		t.Errorf("missing digraph header: %q", text[:40])
	}
	if !strings.Contains(text, "shape=box") {
		t.Error("leaf nodes not boxed")
	}
	if !strings.Contains(text, "n0 -> n1;") {
		t.Error("missing root edge")
	}
	if !strings.Contains(text, "note C4/4") {
		t.Errorf("missing note label in:\n%s", text)
	}
}

func TestTreeEditEncoding(t *testing.T) {
	out, err := Visit(KindTreeEditEncoding, halfNotesTree())
	if err != nil {
		t.Fatalf("Visit: %v", err)
	}
	text := string(out.Bytes)
	if !strings.HasPrefix(text, "P1/1: {measure") {
		t.Errorf("unexpected encoding prefix: %q", text)
	}
	if strings.Count(text, "{") != strings.Count(text, "}") {
		t.Error("unbalanced brackets")
	}
	if strings.Contains(text, "t1") {
		t.Error("cross-reference label leaked into encoding")
	}
}

func TestSequenceDocument(t *testing.T) {
	out, err := Visit(KindSequenceDocument, halfNotesTree())
	if err != nil {
		t.Fatalf("Visit: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(out.Bytes), "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if !strings.HasPrefix(lines[0], "P1/1: ") {
		t.Errorf("line missing part/measure key: %q", lines[0])
	}
	if !strings.Contains(lines[0], "voice:voice=1") {
		t.Errorf("line missing voice token: %q", lines[0])
	}
}

func TestMEIDocument(t *testing.T) {
	out, err := Visit(KindMEIDocument, halfNotesTree())
	if err != nil {
		t.Fatalf("Visit: %v", err)
	}
	doc := string(out.Bytes)
	for _, want := range []string{
		`meiversion="5.0"`,
		`ppq="2"`,
		`meter.count="4"`,
		`key.sig="0"`,
		`clef.shape="G"`,
		`<layer n="1">`,
		`pname="c"`,
		`dur.ppq="4"`,
		`<tie startid="#P1.n1" endid="#P1.n2"`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q:\n%s", want, doc)
		}
	}
}

func TestMXMLDocument(t *testing.T) {
	out, err := Visit(KindMXMLDocument, halfNotesTree())
	if err != nil {
		t.Fatalf("Visit: %v", err)
	}
	doc := string(out.Bytes)
	for _, want := range []string{
		`<score-partwise version="4.0">`,
		`<score-part id="P1">`,
		`<divisions>2</divisions>`,
		`<beats>4</beats>`,
		`<step>C</step>`,
		`<type>half</type>`,
		`<tie type="start"`,
		`<tied type="stop"`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q:\n%s", want, doc)
		}
	}
	if !bytes.HasPrefix(out.Bytes, []byte(`<?xml`)) {
		t.Error("missing XML declaration")
	}
}

func TestVisitUnknownKind(t *testing.T) {
	if _, err := Visit(Kind("bogus"), halfNotesTree()); err == nil {
		t.Fatal("expected error for unknown visitor kind")
	}
	if Kind("bogus").IsValid() {
		t.Error("bogus kind reported valid")
	}
	if !KindDotGraph.IsValid() {
		t.Error("dot kind reported invalid")
	}
}

func TestKindsSorted(t *testing.T) {
	kinds := Kinds()
	if len(kinds) != 8 {
		t.Fatalf("got %d kinds, want 8", len(kinds))
	}
	for i := 1; i < len(kinds); i++ {
		if kinds[i-1] >= kinds[i] {
			t.Errorf("kinds not sorted at %d: %s >= %s", i, kinds[i-1], kinds[i])
		}
	}
}
