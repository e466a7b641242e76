package mei

import (
	"fmt"
	"strconv"
	"strings"

	cerr "github.com/comref/converter/core/errors"
	"github.com/comref/converter/core/groupstack"
	"github.com/comref/converter/core/score"
	"github.com/comref/converter/core/state"
	"github.com/comref/converter/core/symtab"
	"github.com/comref/converter/core/xml"
)

// parser is the pass-scoped state of one MEI conversion. The modeled MEI
// subset carries a single staff, which maps to one part.
type parser struct {
	syms *symtab.Table
	st   *state.State

	// pending holds clef, key and time nodes declared by a scoreDef,
	// waiting to be attached to the next measure.
	pending []*score.Node
}

func newParser() *parser {
	return &parser{syms: symtab.New(), st: state.New()}
}

func (p *parser) parse(root *xml.Node) (*score.Tree, error) {
	scoreEl := descend(root, "music", "body", "mdiv", "score")
	if scoreEl == nil {
		return nil, cerr.NewFormat("mei", "", "missing music/body/mdiv/score")
	}

	scoreNode := score.NewScore("score")
	part := score.NewPart("P1")
	scoreNode.AppendChild(part)

	for _, el := range scoreEl.Children() {
		switch el.Name() {
		case "scoreDef":
			if err := p.applyScoreDef(el); err != nil {
				return nil, err
			}
		case "section":
			for _, sub := range el.Children() {
				switch sub.Name() {
				case "scoreDef":
					if err := p.applyScoreDef(sub); err != nil {
						return nil, err
					}
				case "measure":
					if err := p.parseMeasure(part, sub); err != nil {
						return nil, err
					}
				}
			}
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

// applyScoreDef folds a context declaration into the running state and
// queues the matching tree nodes for the next measure in clef, key, time
// order, the canonical child order all translators share.
func (p *parser) applyScoreDef(el *xml.Node) error {
	if ppq := el.Attr("ppq"); ppq != "" {
		v, err := strconv.Atoi(ppq)
		if err != nil || v <= 0 {
			return cerr.NewFormat("mei", "", "bad ppq value "+ppq)
		}
		p.st.SetDivisions(v)
	}

	var nodes []*score.Node

	// The clef sits on the scoreDef itself mid-score, on a nested staffDef
	// in the opening declaration.
	clefHost := el
	if grp := el.Child("staffGrp"); grp != nil {
		if def := grp.Child("staffDef"); def != nil {
			clefHost = def
		}
	}
	if shape := clefHost.Attr("clef.shape"); shape != "" {
		line, _ := strconv.Atoi(clefHost.Attr("clef.line"))
		nodes = append(nodes, score.NewClef(shape, line))
	}
	if sig := el.Attr("key.sig"); sig != "" {
		fifths, err := parseKeySig(sig)
		if err != nil {
			return err
		}
		nodes = append(nodes, score.NewKey(fifths))
	}
	if count := el.Attr("meter.count"); count != "" {
		beats, err := strconv.Atoi(count)
		if err != nil {
			return cerr.NewFormat("mei", "", "bad meter.count "+count)
		}
		beatType, err := strconv.Atoi(el.Attr("meter.unit"))
		if err != nil {
			return cerr.NewFormat("mei", "", "bad meter.unit "+el.Attr("meter.unit"))
		}
		nodes = append(nodes, score.NewTime(beats, beatType))
	}

	for _, node := range nodes {
		if err := p.st.Apply(node); err != nil {
			return err
		}
		p.pending = append(p.pending, node)
	}
	return nil
}

func (p *parser) parseMeasure(part *score.Node, el *xml.Node) error {
	number, _ := strconv.Atoi(el.Attr("n"))
	implicit := el.Attr("metcon") == "false"
	measure := score.NewMeasure(number, implicit)
	part.AppendChild(measure)
	pos := fmt.Sprintf("%s/%s", part.ID, el.Attr("n"))

	for _, node := range p.pending {
		measure.AppendChild(node)
	}
	p.pending = nil

	// directions attach after the voices, the canonical measure child
	// order, with the barline last
	var trailing []*score.Node
	for _, child := range el.Children() {
		switch child.Name() {
		case "staff":
			for _, layer := range child.Children("layer") {
				if err := p.parseLayer(measure, layer, pos); err != nil {
					return err
				}
			}
		case "tie", "slur":
			if err := p.parseSpan(child, pos); err != nil {
				return err
			}
		case "dir":
			trailing = append(trailing, score.NewDirection(child.Text()))
		}
	}
	for _, node := range trailing {
		measure.AppendChild(node)
	}

	if right := el.Attr("right"); right != "" {
		measure.AppendChild(score.NewBarline(right))
	}

	ctx := p.st.Snapshot()
	measure.Ctx = &ctx
	return nil
}

func (p *parser) parseLayer(measure *score.Node, el *xml.Node, pos string) error {
	n, _ := strconv.Atoi(el.Attr("n"))
	if n == 0 {
		n = 1
	}
	p.st.SetVoice(n)
	voice := score.NewVoice(n)
	measure.AppendChild(voice)

	stack := groupstack.New(voice)
	for _, item := range el.Children() {
		if err := p.parseItem(stack, item, pos); err != nil {
			return err
		}
	}
	return stack.CheckClosed()
}

func (p *parser) parseItem(stack *groupstack.Stack, el *xml.Node, pos string) error {
	switch el.Name() {
	case "note":
		node, err := p.parseNote(el, 0, pos)
		if err != nil {
			return err
		}
		stack.Attach(node)
	case "rest":
		dur, err := durPPQ(el, pos)
		if err != nil {
			return err
		}
		stack.Attach(score.NewRest(dur))
	case "chord":
		dur, err := durPPQ(el, pos)
		if err != nil {
			return err
		}
		stack.Push(groupstack.ScopeChord, score.NewChord(), pos)
		for _, noteEl := range el.Children("note") {
			node, err := p.parseNote(noteEl, dur, pos)
			if err != nil {
				return err
			}
			stack.Attach(node)
		}
		if _, err := stack.Pop(groupstack.ScopeChord, pos); err != nil {
			return err
		}
	case "beam":
		stack.Push(groupstack.ScopeBeam, score.NewBeam(), pos)
		for _, sub := range el.Children() {
			if err := p.parseItem(stack, sub, pos); err != nil {
				return err
			}
		}
		if _, err := stack.Pop(groupstack.ScopeBeam, pos); err != nil {
			return err
		}
	case "tuplet":
		num, _ := strconv.Atoi(el.Attr("num"))
		numbase, _ := strconv.Atoi(el.Attr("numbase"))
		if num <= 0 || numbase <= 0 {
			return cerr.NewFormat("mei", pos, "tuplet without num/numbase ratio")
		}
		stack.Push(groupstack.ScopeTuplet, score.NewTuplet(num, numbase), pos)
		for _, sub := range el.Children() {
			if err := p.parseItem(stack, sub, pos); err != nil {
				return err
			}
		}
		if _, err := stack.Pop(groupstack.ScopeTuplet, pos); err != nil {
			return err
		}
	default:
		return cerr.NewUnsupportedConstruct(el.Name(), "no layer mapping for element", pos)
	}
	return nil
}

// parseNote builds a Note from an MEI note element. Chord members carry no
// duration of their own and inherit chordDur.
func (p *parser) parseNote(el *xml.Node, chordDur int, pos string) (*score.Node, error) {
	dur := chordDur
	if el.Attr("dur.ppq") != "" {
		var err error
		dur, err = durPPQ(el, pos)
		if err != nil {
			return nil, err
		}
	}
	if dur <= 0 {
		return nil, cerr.NewFormat("mei", pos, "note without positive duration")
	}

	pname := el.Attr("pname")
	if pname == "" {
		return nil, cerr.NewFormat("mei", pos, "note without pname")
	}
	oct, err := strconv.Atoi(el.Attr("oct"))
	if err != nil {
		return nil, cerr.NewFormat("mei", pos, "note without octave")
	}
	alter, err := parseAccid(el.Attr("accid"), pos)
	if err != nil {
		return nil, err
	}

	node := score.NewNote(strings.ToUpper(pname), alter, oct, dur)
	if stem := el.Attr("stem.dir"); stem == score.StemUp || stem == score.StemDown {
		node.SetAttr(score.AttrStem, stem)
	}
	if id := el.Attr("id"); id != "" {
		node.ID = id
		if err := p.syms.Define(id, node, pos); err != nil {
			return nil, err
		}
	}
	return node, nil
}

// parseSpan resolves a tie or slur element's startid/endid against already
// declared notes and attaches labeled endpoints to them.
func (p *parser) parseSpan(el *xml.Node, pos string) error {
	startID := strings.TrimPrefix(el.Attr("startid"), "#")
	endID := strings.TrimPrefix(el.Attr("endid"), "#")
	if startID == "" || endID == "" {
		return cerr.NewFormat("mei", pos, el.Name()+" element requires startid and endid")
	}

	startNote, err := p.syms.Resolve(startID, pos)
	if err != nil {
		return err
	}
	endNote, err := p.syms.Resolve(endID, pos)
	if err != nil {
		return err
	}

	label := p.syms.NextLabel(el.Name())
	if el.Name() == "tie" {
		startNote.AppendChild(score.NewTie(score.SideStart, label))
		endNote.AppendChild(score.NewTie(score.SideStop, label))
	} else {
		startNote.AppendChild(score.NewSlur(score.SideStart, label))
		endNote.AppendChild(score.NewSlur(score.SideStop, label))
	}
	return nil
}

func durPPQ(el *xml.Node, pos string) (int, error) {
	v, err := strconv.Atoi(el.Attr("dur.ppq"))
	if err != nil || v <= 0 {
		return 0, cerr.NewFormat("mei", pos, "bad dur.ppq on "+el.Name())
	}
	return v, nil
}

// parseKeySig reads MEI key.sig notation: "2s", "3f" or "0".
func parseKeySig(sig string) (int, error) {
	if sig == "0" {
		return 0, nil
	}
	n, err := strconv.Atoi(sig[:len(sig)-1])
	if err != nil {
		return 0, cerr.NewFormat("mei", "", "bad key.sig "+sig)
	}
	switch sig[len(sig)-1] {
	case 's':
		return n, nil
	case 'f':
		return -n, nil
	}
	return 0, cerr.NewFormat("mei", "", "bad key.sig "+sig)
}

func parseAccid(accid, pos string) (int, error) {
	switch accid {
	case "":
		return 0, nil
	case "s":
		return 1, nil
	case "ss":
		return 2, nil
	case "f":
		return -1, nil
	case "ff":
		return -2, nil
	}
	return 0, cerr.NewFormat("mei", pos, "unsupported accidental "+accid)
}

// descend walks a chain of child element names.
func descend(n *xml.Node, names ...string) *xml.Node {
	for _, name := range names {
		if n = n.Child(name); n == nil {
			return nil
		}
	}
	return n
}
