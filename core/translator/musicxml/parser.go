package musicxml

import (
	"fmt"
	"strconv"

	cerr "github.com/comref/converter/core/errors"
	"github.com/comref/converter/core/groupstack"
	"github.com/comref/converter/core/score"
	"github.com/comref/converter/core/state"
	"github.com/comref/converter/core/symtab"
	"github.com/comref/converter/core/xml"
)

// parser is the pass-scoped state of one MusicXML conversion.
type parser struct {
	syms *symtab.Table

	// tieOpen maps a sounding pitch to the label of its open tie; MusicXML
	// ties carry no identifiers, so the pitch is the join key.
	tieOpen map[string]string

	// slurOpen maps a slur level number to the label of its open slur.
	slurOpen map[string]string
}

func newParser() *parser {
	return &parser{
		syms:     symtab.New(),
		tieOpen:  make(map[string]string),
		slurOpen: make(map[string]string),
	}
}

func (p *parser) parse(root *xml.Node) (*score.Tree, error) {
	scoreNode := score.NewScore(scoreID(root))

	for _, partEl := range root.Children("part") {
		if err := p.parsePart(scoreNode, partEl); err != nil {
			return nil, err
		}
	}
	if err := p.syms.CheckResolved(); err != nil {
		return nil, err
	}

	tree := score.NewTree(scoreNode)
	if errs := score.Validate(tree); len(errs) > 0 {
		return nil, errs[0]
	}
	return tree, nil
}

func (p *parser) parsePart(scoreNode *score.Node, partEl *xml.Node) error {
	part := score.NewPart(partEl.Attr("id"))
	scoreNode.AppendChild(part)

	st := state.New()
	for _, measureEl := range partEl.Children("measure") {
		if err := p.parseMeasure(part, measureEl, st); err != nil {
			return err
		}
	}
	return nil
}

// voiceState accumulates one voice's content within a measure. The group
// stack reconstructs beam and tuplet nesting from per-note markers; pending
// tracks the open chord group while consecutive chord-flagged notes arrive.
type voiceState struct {
	voice   *score.Node
	stack   *groupstack.Stack
	pending *score.Node

	// last is the most recent plain note and lastParent the node holding
	// it; a chord join replaces last within lastParent, which may be a
	// beam or tuplet group that already closed.
	last       *score.Node
	lastParent *score.Node
}

func (p *parser) parseMeasure(part *score.Node, measureEl *xml.Node, st *state.State) error {
	number, _ := strconv.Atoi(measureEl.Attr("number"))
	implicit := measureEl.Attr("implicit") == "yes"
	measure := score.NewMeasure(number, implicit)
	part.AppendChild(measure)
	pos := fmt.Sprintf("%s/%s", part.ID, measureEl.Attr("number"))

	voices := make(map[string]*voiceState)
	var voiceOrder []string
	// directions and barlines attach after the voices, the canonical
	// measure child order
	var trailing []*score.Node

	for _, el := range measureEl.Children() {
		switch el.Name() {
		case "attributes":
			if err := p.parseAttributes(measure, el, st); err != nil {
				return err
			}
		case "note":
			voiceNum := el.ChildText("voice")
			if voiceNum == "" {
				voiceNum = strconv.Itoa(st.Voice())
			}
			vs := voices[voiceNum]
			if vs == nil {
				n, _ := strconv.Atoi(voiceNum)
				if n == 0 {
					n = 1
				}
				voice := score.NewVoice(n)
				vs = &voiceState{voice: voice, stack: groupstack.New(voice)}
				voices[voiceNum] = vs
				voiceOrder = append(voiceOrder, voiceNum)
			}
			if err := p.parseNote(vs, el, pos); err != nil {
				return err
			}
		case "direction":
			if words := directionWords(el); words != "" {
				trailing = append(trailing, score.NewDirection(words))
			}
		case "barline":
			if style := el.ChildText("bar-style"); style != "" {
				trailing = append(trailing, score.NewBarline(style))
			}
		case "backup", "forward":
			// voice placement is keyed by the voice element, so cursor
			// moves carry no information here
		}
	}

	for _, key := range voiceOrder {
		vs := voices[key]
		if err := vs.stack.CheckClosed(); err != nil {
			return err
		}
		measure.AppendChild(vs.voice)
	}
	for _, node := range trailing {
		measure.AppendChild(node)
	}

	ctx := st.Snapshot()
	measure.Ctx = &ctx
	return nil
}

// parseAttributes folds one attributes element into the state and attaches
// the context nodes in clef, key, time order, the canonical child order all
// translators share.
func (p *parser) parseAttributes(measure *score.Node, el *xml.Node, st *state.State) error {
	if d := el.ChildInt("divisions", 0); d > 0 {
		st.SetDivisions(d)
	}
	var nodes []*score.Node
	if clefEl := el.Child("clef"); clefEl != nil {
		nodes = append(nodes, score.NewClef(clefEl.ChildText("sign"), clefEl.ChildInt("line", 0)))
	}
	if keyEl := el.Child("key"); keyEl != nil {
		nodes = append(nodes, score.NewKey(keyEl.ChildInt("fifths", 0)))
	}
	if timeEl := el.Child("time"); timeEl != nil {
		nodes = append(nodes, score.NewTime(timeEl.ChildInt("beats", 0), timeEl.ChildInt("beat-type", 0)))
	}
	for _, node := range nodes {
		if err := st.Apply(node); err != nil {
			return err
		}
		measure.AppendChild(node)
	}
	return nil
}

func (p *parser) parseNote(vs *voiceState, el *xml.Node, pos string) error {
	if el.HasChild("grace") {
		return cerr.NewUnsupportedConstruct("grace note", "grace notes have no duration model", pos)
	}
	duration := el.ChildInt("duration", 0)
	if duration <= 0 {
		return cerr.NewFormat("musicxml", pos, "note without positive duration")
	}

	// Tuplet scopes open before the note attaches and beams nest inside
	// tuplets, so marker handling brackets the attachment.
	tupletStart, tupletStop := tupletMarks(el)
	if tupletStart {
		actual := 0
		normal := 0
		if tmod := el.Child("time-modification"); tmod != nil {
			actual = tmod.ChildInt("actual-notes", 0)
			normal = tmod.ChildInt("normal-notes", 0)
		}
		if actual <= 0 || normal <= 0 {
			return cerr.NewFormat("musicxml", pos, "tuplet start without time-modification")
		}
		vs.stack.Push(groupstack.ScopeTuplet, score.NewTuplet(actual, normal), pos)
		vs.pending = nil
	}
	beamMark := el.ChildText("beam")
	if beamMark == "begin" {
		vs.stack.Push(groupstack.ScopeBeam, score.NewBeam(), pos)
		vs.pending = nil
	}

	var node *score.Node
	if el.HasChild("rest") {
		node = score.NewRest(duration)
		if err := vs.attach(node, false, pos); err != nil {
			return err
		}
	} else {
		pitchEl := el.Child("pitch")
		if pitchEl == nil {
			return cerr.NewFormat("musicxml", pos, "note without pitch or rest")
		}
		node = score.NewNote(
			pitchEl.ChildText("step"),
			pitchEl.ChildInt("alter", 0),
			pitchEl.ChildInt("octave", 0),
			duration,
		)
		if stem := el.ChildText("stem"); stem == score.StemUp || stem == score.StemDown {
			node.SetAttr(score.AttrStem, stem)
		}
		if err := p.parseSpans(node, el, pos); err != nil {
			return err
		}
		if err := vs.attach(node, el.HasChild("chord"), pos); err != nil {
			return err
		}
	}

	if beamMark == "end" {
		if _, err := vs.stack.Pop(groupstack.ScopeBeam, pos); err != nil {
			return err
		}
		vs.pending = nil
	}
	if tupletStop {
		if _, err := vs.stack.Pop(groupstack.ScopeTuplet, pos); err != nil {
			return err
		}
		vs.pending = nil
	}
	return nil
}

// attach places a note or rest in the innermost open scope. A chord-flagged
// note joins the previous note, converting it into a Chord group on the
// second note's arrival. The join happens inside the parent that holds the
// previous note, so a beam or tuplet that closed on that note keeps it.
func (vs *voiceState) attach(node *score.Node, chordFlag bool, pos string) error {
	if !chordFlag {
		parent := vs.voice
		if top, err := vs.stack.Top(); err == nil {
			parent = top.Node
		}
		vs.stack.Attach(node)
		vs.last = node
		vs.lastParent = parent
		vs.pending = nil
		return nil
	}
	if vs.pending != nil {
		vs.pending.AppendChild(node)
		return nil
	}
	if vs.last == nil || vs.last.Kind != score.KindNote {
		return cerr.NewFormat("musicxml", pos, "chord flag without a preceding note")
	}
	parent := vs.lastParent
	if parent == nil || len(parent.Children) == 0 || parent.Children[len(parent.Children)-1] != vs.last {
		return cerr.NewFormat("musicxml", pos, "chord flag cannot join the preceding note")
	}
	chord := score.NewChord()
	parent.Children[len(parent.Children)-1] = chord
	chord.AppendChild(vs.last)
	chord.AppendChild(node)
	vs.pending = chord
	vs.last = nil
	return nil
}

// parseSpans converts tie elements keyed by pitch and slur notations keyed
// by level number into labeled span endpoints.
func (p *parser) parseSpans(node *score.Node, el *xml.Node, pos string) error {
	pitch := node.PitchString()
	for _, tieEl := range el.Children("tie") {
		switch tieEl.Attr("type") {
		case "start":
			label := p.syms.NextLabel("tie")
			span := score.NewTie(score.SideStart, label)
			node.AppendChild(span)
			if err := p.syms.Define(label, span, pos); err != nil {
				return err
			}
			p.syms.Expect(label, pos)
			p.tieOpen[pitch] = label
		case "stop":
			label, ok := p.tieOpen[pitch]
			if !ok {
				return cerr.NewUnresolvedReference("tie stop on "+pitch, pos)
			}
			if _, err := p.syms.Resolve(label, pos); err != nil {
				return err
			}
			delete(p.tieOpen, pitch)
			node.AppendChild(score.NewTie(score.SideStop, label))
		}
	}

	notations := el.Child("notations")
	if notations == nil {
		return nil
	}
	for _, slurEl := range notations.Children("slur") {
		number := slurEl.Attr("number")
		if number == "" {
			number = "1"
		}
		switch slurEl.Attr("type") {
		case "start":
			label := p.syms.NextLabel("slur")
			span := score.NewSlur(score.SideStart, label)
			node.AppendChild(span)
			if err := p.syms.Define(label, span, pos); err != nil {
				return err
			}
			p.syms.Expect(label, pos)
			p.slurOpen[number] = label
		case "stop":
			label, ok := p.slurOpen[number]
			if !ok {
				return cerr.NewUnresolvedReference("slur stop "+number, pos)
			}
			if _, err := p.syms.Resolve(label, pos); err != nil {
				return err
			}
			delete(p.slurOpen, number)
			node.AppendChild(score.NewSlur(score.SideStop, label))
		}
	}
	return nil
}

// tupletMarks reads the tuplet start/stop notations of a note.
func tupletMarks(el *xml.Node) (start, stop bool) {
	notations := el.Child("notations")
	if notations == nil {
		return false, false
	}
	for _, t := range notations.Children("tuplet") {
		switch t.Attr("type") {
		case "start":
			start = true
		case "stop":
			stop = true
		}
	}
	return start, stop
}

func directionWords(el *xml.Node) string {
	if dt := el.Child("direction-type"); dt != nil {
		return dt.ChildText("words")
	}
	return ""
}
