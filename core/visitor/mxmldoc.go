package visitor

import (
	"strconv"

	"github.com/comref/converter/core/score"
	"github.com/comref/converter/core/xml"
)

// noteTypeByQuarters maps a reduced duration-in-quarters fraction to the
// MusicXML note type. Durations outside the table (dotted values inside
// tuplets and the like) simply omit the optional <type> element.
var noteTypeByQuarters = map[[2]int]string{
	{8, 1}:  "breve",
	{4, 1}:  "whole",
	{2, 1}:  "half",
	{1, 1}:  "quarter",
	{1, 2}:  "eighth",
	{1, 4}:  "16th",
	{1, 8}:  "32nd",
	{1, 16}: "64th",
	{1, 32}: "128th",
}

// visitMXMLDocument serializes the tree as a partwise MusicXML-like
// document.
func visitMXMLDocument(t *score.Tree) (*Output, error) {
	data, err := MXMLDocument(t)
	if err != nil {
		return nil, err
	}
	return &Output{Kind: KindMXMLDocument, Bytes: data}, nil
}

// MXMLDocument renders a Score Tree as partwise MusicXML bytes. The
// MusicXML translator's Emit delegates here.
func MXMLDocument(t *score.Tree) ([]byte, error) {
	root := xml.NewElement("score-partwise").SetAttr("version", "4.0")

	partList := xml.NewElement("part-list")
	for _, part := range t.Root.Children {
		if part.Kind != score.KindPart {
			continue
		}
		scorePart := xml.NewElement("score-part").SetAttr("id", part.ID)
		scorePart.AddText("part-name", part.ID)
		partList.Add(scorePart)
	}
	root.Add(partList)

	for _, part := range t.Root.Children {
		if part.Kind != score.KindPart {
			continue
		}
		root.Add(renderPart(part))
	}
	return root.Render(), nil
}

// slurNumbers assigns MusicXML slur numbers (1-6) to reference labels in
// encounter order within one part.
type slurNumbers struct {
	byRef map[string]int
	next  int
}

func (s *slurNumbers) number(ref string) int {
	if n, ok := s.byRef[ref]; ok {
		return n
	}
	n := s.next%6 + 1
	s.next++
	s.byRef[ref] = n
	return n
}

func renderPart(part *score.Node) *xml.Element {
	out := xml.NewElement("part").SetAttr("id", part.ID)
	slurs := &slurNumbers{byRef: make(map[string]int)}
	divisions := 0

	for _, measure := range part.Children {
		if measure.Kind != score.KindMeasure {
			continue
		}
		m := xml.NewElement("measure").SetAttr("number", measure.Attr(score.AttrNumber))
		if measure.BoolAttr(score.AttrImplicit) {
			m.SetAttr("implicit", "yes")
		}

		attrs := xml.NewElement("attributes")
		if measure.Ctx != nil && measure.Ctx.Divisions != divisions {
			divisions = measure.Ctx.Divisions
			attrs.AddText("divisions", strconv.Itoa(divisions))
		}
		// schema order within attributes is key, time, clef
		var keyNode, timeNode, clefNode *score.Node
		for _, c := range measure.Children {
			switch c.Kind {
			case score.KindKey:
				keyNode = c
			case score.KindTime:
				timeNode = c
			case score.KindClef:
				clefNode = c
			}
		}
		if keyNode != nil {
			key := xml.NewElement("key")
			key.AddText("fifths", keyNode.Attr(score.AttrFifths))
			attrs.Add(key)
		}
		if timeNode != nil {
			tm := xml.NewElement("time")
			tm.AddText("beats", timeNode.Attr(score.AttrBeats))
			tm.AddText("beat-type", timeNode.Attr(score.AttrBeatType))
			attrs.Add(tm)
		}
		if clefNode != nil {
			clef := xml.NewElement("clef")
			clef.AddText("sign", clefNode.Attr(score.AttrSign))
			if line := clefNode.Attr(score.AttrLine); line != "" {
				clef.AddText("line", line)
			}
			attrs.Add(clef)
		}
		if len(attrs.Children) > 0 {
			m.Add(attrs)
		}

		firstVoice := true
		for _, c := range measure.Children {
			switch c.Kind {
			case score.KindVoice:
				if !firstVoice {
					backup := xml.NewElement("backup")
					backup.AddText("duration", strconv.Itoa(voiceSpan(c, measure)))
					m.Add(backup)
				}
				firstVoice = false
				renderVoice(m, c, divisions, slurs)
			case score.KindDirection:
				dir := xml.NewElement("direction")
				dirType := xml.NewElement("direction-type")
				dirType.AddText("words", c.Attr(score.AttrText))
				dir.Add(dirType)
				m.Add(dir)
			case score.KindBarline:
				bar := xml.NewElement("barline").SetAttr("location", "right")
				bar.AddText("bar-style", c.Attr(score.AttrStyle))
				m.Add(bar)
			}
		}
		out.Add(m)
	}
	return out
}

// voiceSpan is the backup distance before a voice: the declared measure
// duration when known, else the previous voice's consumed duration.
func voiceSpan(voice *score.Node, measure *score.Node) int {
	if measure.Ctx != nil {
		if declared, err := measure.Ctx.MeasureDivisions(); err == nil {
			return declared
		}
	}
	span := 0
	for _, item := range voice.Children {
		span += item.Duration()
	}
	return span
}

// noteRender is one flattened note or rest with its group context.
type noteRender struct {
	node      *score.Node
	chord     bool   // subsequent chord note
	beamMark  string // begin/continue/end, "" outside beams
	tuplet    *score.Node
	tupletPos string // start/stop, "" mid-tuplet
}

func renderVoice(m *xml.Element, voice *score.Node, divisions int, slurs *slurNumbers) {
	voiceNum := voice.Attr(score.AttrVoice)
	var flat []noteRender
	for _, item := range voice.Children {
		flattenItem(item, &flat, "", nil)
	}
	markBeams(flat)
	for _, nr := range flat {
		m.Add(renderNote(nr, voiceNum, divisions, slurs))
	}
}

// flattenItem linearizes voice items into noteRender entries, carrying
// beam membership and tuplet ratios down to the notes.
func flattenItem(n *score.Node, out *[]noteRender, beamTag string, tuplet *score.Node) {
	switch n.Kind {
	case score.KindNote, score.KindRest:
		*out = append(*out, noteRender{node: n, beamMark: beamTag, tuplet: tuplet})
	case score.KindChord:
		first := true
		for _, c := range n.Children {
			if c.Kind != score.KindNote {
				continue
			}
			*out = append(*out, noteRender{node: c, chord: !first, beamMark: beamTag, tuplet: tuplet})
			first = false
		}
	case score.KindBeam:
		for _, c := range n.Children {
			flattenItem(c, out, "in", tuplet)
		}
	case score.KindTuplet:
		start := len(*out)
		for _, c := range n.Children {
			flattenItem(c, out, beamTag, n)
		}
		if len(*out) > start {
			(*out)[start].tupletPos = "start"
			(*out)[len(*out)-1].tupletPos = "stop"
		}
	}
}

// markBeams rewrites the "in" membership tags into begin/continue/end runs.
func markBeams(flat []noteRender) {
	i := 0
	for i < len(flat) {
		if flat[i].beamMark != "in" {
			i++
			continue
		}
		j := i
		for j < len(flat) && flat[j].beamMark == "in" {
			j++
		}
		flat[i].beamMark = "begin"
		for k := i + 1; k < j-1; k++ {
			flat[k].beamMark = "continue"
		}
		if j-1 > i {
			flat[j-1].beamMark = "end"
		} else {
			// single-note run carries no beam
			flat[i].beamMark = ""
		}
		i = j
	}
}

func renderNote(nr noteRender, voiceNum string, divisions int, slurs *slurNumbers) *xml.Element {
	n := nr.node
	el := xml.NewElement("note")

	if nr.chord {
		el.Add(xml.NewElement("chord"))
	}
	if n.Kind == score.KindRest {
		el.Add(xml.NewElement("rest"))
	} else {
		step, alter, octave := n.Pitch()
		pitch := xml.NewElement("pitch")
		pitch.AddText("step", step)
		if alter != 0 {
			pitch.AddText("alter", strconv.Itoa(alter))
		}
		pitch.AddText("octave", strconv.Itoa(octave))
		el.Add(pitch)
	}
	el.AddText("duration", n.Attr(score.AttrDuration))

	for _, c := range n.Children {
		if c.Kind == score.KindTie {
			el.Add(xml.NewElement("tie").SetAttr("type", c.Attr(score.AttrSide)))
		}
	}

	el.AddText("voice", voiceNum)
	if typ := noteType(n.IntAttr(score.AttrDuration), divisions, nr.tuplet); typ != "" {
		el.AddText("type", typ)
	}
	if stem := n.Attr(score.AttrStem); stem != "" {
		el.AddText("stem", stem)
	}
	if nr.beamMark != "" {
		beam := xml.NewElement("beam").SetAttr("number", "1")
		beam.Text = nr.beamMark
		el.Add(beam)
	}
	if nr.tuplet != nil {
		tmod := xml.NewElement("time-modification")
		tmod.AddText("actual-notes", nr.tuplet.Attr(score.AttrActual))
		tmod.AddText("normal-notes", nr.tuplet.Attr(score.AttrNormal))
		el.Add(tmod)
	}

	notations := xml.NewElement("notations")
	for _, c := range n.Children {
		switch c.Kind {
		case score.KindTie:
			notations.Add(xml.NewElement("tied").SetAttr("type", c.Attr(score.AttrSide)))
		case score.KindSlur:
			slur := xml.NewElement("slur").
				SetAttr("type", c.Attr(score.AttrSide)).
				SetAttr("number", strconv.Itoa(slurs.number(c.Attr(score.AttrRef))))
			notations.Add(slur)
		}
	}
	if nr.tupletPos != "" {
		notations.Add(xml.NewElement("tuplet").SetAttr("type", nr.tupletPos))
	}
	if len(notations.Children) > 0 {
		el.Add(notations)
	}
	return el
}

// noteType maps a duration in divisions to the written note type. Notes
// under a tuplet report their written (normal) type.
func noteType(duration, divisions int, tuplet *score.Node) string {
	if divisions == 0 || duration == 0 {
		return ""
	}
	num, den := duration, divisions
	if tuplet != nil {
		actual := tuplet.IntAttr(score.AttrActual)
		normal := tuplet.IntAttr(score.AttrNormal)
		if actual > 0 && normal > 0 {
			num *= actual
			den *= normal
		}
	}
	g := gcd(num, den)
	typ, ok := noteTypeByQuarters[[2]int{num / g, den / g}]
	if !ok {
		return ""
	}
	return typ
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}
