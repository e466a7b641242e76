package visitor

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/comref/converter/core/score"
	"github.com/comref/converter/core/xml"
)

// visitMEIDocument serializes the tree as an MEI-like document.
func visitMEIDocument(t *score.Tree) (*Output, error) {
	data, err := MEIDocument(t)
	if err != nil {
		return nil, err
	}
	return &Output{Kind: KindMEIDocument, Bytes: data}, nil
}

// meiSpan tracks one tie or slur while its endpoints are assigned ids.
type meiSpan struct {
	kind    score.Kind
	startID string
	stopID  string
	// stopMeasure is the measure owning the stop note; the span element
	// is emitted there so both endpoints are already declared when a
	// single-pass reader resolves them.
	stopMeasure *score.Node
	order       int
}

// MEIDocument renders a Score Tree as MEI-like bytes. Durations are carried
// in dur.ppq (divisions) units; the scoreDef ppq attribute declares the
// divisions per quarter note. The MEI translator's Emit delegates here.
func MEIDocument(t *score.Tree) ([]byte, error) {
	root := xml.NewElement("mei").SetAttr("meiversion", "5.0")
	music := xml.NewElement("music")
	body := xml.NewElement("body")
	mdiv := xml.NewElement("mdiv")
	scoreEl := xml.NewElement("score")
	root.Add(music)
	music.Add(body)
	body.Add(mdiv)
	mdiv.Add(scoreEl)

	// Note ids and span endpoints are assigned in a pre-pass so span
	// elements can be placed on their stop measure.
	noteIDs := make(map[*score.Node]string)
	spans := make(map[string]*meiSpan)
	order := 0
	for _, part := range t.Root.Children {
		if part.Kind != score.KindPart {
			continue
		}
		seq := 0
		for _, measure := range part.Children {
			if measure.Kind != score.KindMeasure {
				continue
			}
			var assign func(n *score.Node)
			assign = func(n *score.Node) {
				if n.Kind == score.KindNote {
					seq++
					id := n.ID
					if id == "" {
						id = fmt.Sprintf("%s.n%d", part.ID, seq)
					}
					noteIDs[n] = id
					for _, c := range n.Children {
						if c.Kind != score.KindTie && c.Kind != score.KindSlur {
							continue
						}
						ref := c.Attr(score.AttrRef)
						sp := spans[ref]
						if sp == nil {
							sp = &meiSpan{kind: c.Kind, order: order}
							order++
							spans[ref] = sp
						}
						if score.Side(c.Attr(score.AttrSide)) == score.SideStart {
							sp.startID = id
						} else {
							sp.stopID = id
							sp.stopMeasure = measure
						}
					}
					return
				}
				for _, c := range n.Children {
					assign(c)
				}
			}
			assign(measure)
		}
	}

	first := true
	section := xml.NewElement("section")
	for _, part := range t.Root.Children {
		if part.Kind != score.KindPart {
			continue
		}
		for _, measure := range part.Children {
			if measure.Kind != score.KindMeasure {
				continue
			}
			if def := scoreDefFor(measure, first); def != nil {
				if first {
					scoreEl.Add(def)
				} else {
					section.Add(def)
				}
			}
			first = false
			section.Add(renderMEIMeasure(part, measure, noteIDs, spans))
		}
	}
	scoreEl.Add(section)
	return root.Render(), nil
}

// scoreDefFor renders the context declaration preceding a measure: the full
// definition before the first measure, afterwards only when the measure
// declares context changes.
func scoreDefFor(measure *score.Node, first bool) *xml.Element {
	var clef, key, tm *score.Node
	for _, c := range measure.Children {
		switch c.Kind {
		case score.KindClef:
			clef = c
		case score.KindKey:
			key = c
		case score.KindTime:
			tm = c
		}
	}
	if !first && clef == nil && key == nil && tm == nil {
		return nil
	}

	def := xml.NewElement("scoreDef")
	if first && measure.Ctx != nil {
		def.SetAttr("ppq", strconv.Itoa(measure.Ctx.Divisions))
	}
	if tm != nil {
		def.SetAttr("meter.count", tm.Attr(score.AttrBeats))
		def.SetAttr("meter.unit", tm.Attr(score.AttrBeatType))
	}
	if key != nil {
		def.SetAttr("key.sig", meiKeySig(key.IntAttr(score.AttrFifths)))
	}
	if first {
		staffGrp := xml.NewElement("staffGrp")
		staffDef := xml.NewElement("staffDef").SetAttr("n", "1")
		if clef != nil {
			staffDef.SetAttr("clef.shape", clef.Attr(score.AttrSign))
			if line := clef.Attr(score.AttrLine); line != "" {
				staffDef.SetAttr("clef.line", line)
			}
		}
		staffGrp.Add(staffDef)
		def.Add(staffGrp)
	} else if clef != nil {
		def.SetAttr("clef.shape", clef.Attr(score.AttrSign))
		if line := clef.Attr(score.AttrLine); line != "" {
			def.SetAttr("clef.line", line)
		}
	}
	return def
}

func renderMEIMeasure(part, measure *score.Node, noteIDs map[*score.Node]string, spans map[string]*meiSpan) *xml.Element {
	m := xml.NewElement("measure").SetAttr("n", measure.Attr(score.AttrNumber))
	if measure.BoolAttr(score.AttrImplicit) {
		m.SetAttr("metcon", "false")
	}
	for _, c := range measure.Children {
		if c.Kind == score.KindBarline {
			m.SetAttr("right", c.Attr(score.AttrStyle))
		}
	}

	staff := xml.NewElement("staff").SetAttr("n", "1")
	for _, c := range measure.Children {
		if c.Kind != score.KindVoice {
			continue
		}
		layer := xml.NewElement("layer").SetAttr("n", c.Attr(score.AttrVoice))
		for _, item := range c.Children {
			layer.Add(renderMEIItem(item, noteIDs))
		}
		staff.Add(layer)
	}
	m.Add(staff)

	for _, c := range measure.Children {
		if c.Kind == score.KindDirection {
			m.AddText("dir", c.Attr(score.AttrText))
		}
	}

	// Span elements attach to the measure owning their stop note, in
	// deterministic first-encounter order.
	var measureSpans []*meiSpan
	for _, sp := range spans {
		if sp.stopMeasure == measure && sp.startID != "" && sp.stopID != "" {
			measureSpans = append(measureSpans, sp)
		}
	}
	sort.Slice(measureSpans, func(i, j int) bool {
		return measureSpans[i].order < measureSpans[j].order
	})
	for _, sp := range measureSpans {
		name := "tie"
		if sp.kind == score.KindSlur {
			name = "slur"
		}
		m.Add(xml.NewElement(name).
			SetAttr("startid", "#"+sp.startID).
			SetAttr("endid", "#"+sp.stopID))
	}
	return m
}

func renderMEIItem(n *score.Node, noteIDs map[*score.Node]string) *xml.Element {
	switch n.Kind {
	case score.KindNote:
		return renderMEINote(n, noteIDs, true)
	case score.KindRest:
		rest := xml.NewElement("rest")
		rest.SetAttr("dur.ppq", n.Attr(score.AttrDuration))
		return rest
	case score.KindChord:
		chord := xml.NewElement("chord")
		chord.SetAttr("dur.ppq", strconv.Itoa(n.Duration()))
		for _, c := range n.Children {
			if c.Kind == score.KindNote {
				chord.Add(renderMEINote(c, noteIDs, false))
			}
		}
		return chord
	case score.KindBeam:
		beam := xml.NewElement("beam")
		for _, c := range n.Children {
			beam.Add(renderMEIItem(c, noteIDs))
		}
		return beam
	case score.KindTuplet:
		tuplet := xml.NewElement("tuplet").
			SetAttr("num", n.Attr(score.AttrActual)).
			SetAttr("numbase", n.Attr(score.AttrNormal))
		for _, c := range n.Children {
			tuplet.Add(renderMEIItem(c, noteIDs))
		}
		return tuplet
	}
	return xml.NewElement("unsupported")
}

func renderMEINote(n *score.Node, noteIDs map[*score.Node]string, withDur bool) *xml.Element {
	step, alter, octave := n.Pitch()
	note := xml.NewElement("note")
	if id := noteIDs[n]; id != "" {
		note.SetAttr("xml:id", id)
	}
	note.SetAttr("pname", lowerStep(step))
	note.SetAttr("oct", strconv.Itoa(octave))
	if withDur {
		note.SetAttr("dur.ppq", n.Attr(score.AttrDuration))
	}
	if acc := meiAccid(alter); acc != "" {
		note.SetAttr("accid", acc)
	}
	if stem := n.Attr(score.AttrStem); stem != "" {
		note.SetAttr("stem.dir", stem)
	}
	return note
}

func lowerStep(step string) string {
	if step == "" {
		return step
	}
	b := []byte(step)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}

// meiKeySig renders fifths as MEI key.sig notation: "2s", "3f" or "0".
func meiKeySig(fifths int) string {
	switch {
	case fifths > 0:
		return strconv.Itoa(fifths) + "s"
	case fifths < 0:
		return strconv.Itoa(-fifths) + "f"
	}
	return "0"
}

// meiAccid renders a chromatic alteration as an MEI accidental token.
func meiAccid(alter int) string {
	switch alter {
	case 1:
		return "s"
	case 2:
		return "ss"
	case -1:
		return "f"
	case -2:
		return "ff"
	}
	return ""
}
