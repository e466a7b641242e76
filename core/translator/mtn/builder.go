package mtn

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"

	cerr "github.com/comref/converter/core/errors"
	"github.com/comref/converter/core/groupstack"
	"github.com/comref/converter/core/score"
	"github.com/comref/converter/core/state"
	"github.com/comref/converter/core/symtab"
)

// build lowers a parsed score file into a validated Score Tree. The group
// stack scopes measures, voices and groups; the symbol table resolves tie
// and slur labels; the music state folds attribute changes into per-measure
// context snapshots.
func build(file *scoreFile) (*score.Tree, error) {
	root := score.NewScore(file.ID)
	syms := symtab.New()

	for _, p := range file.Parts {
		if err := buildPart(root, p, syms); err != nil {
			return nil, err
		}
	}
	if err := syms.CheckResolved(); err != nil {
		return nil, err
	}

	tree := score.NewTree(root)
	if errs := score.Validate(tree); len(errs) > 0 {
		return nil, errs[0]
	}
	return tree, nil
}

func buildPart(root *score.Node, p *partBlock, syms *symtab.Table) error {
	part := score.NewPart(p.ID)
	root.AppendChild(part)

	st := state.New()
	stack := groupstack.New(part)

	for _, m := range p.Measures {
		pos := position(m.Pos)
		measure := score.NewMeasure(m.Number, m.Implicit)
		stack.Push(groupstack.ScopeMeasure, measure, pos)

		for _, item := range m.Items {
			switch {
			case item.Attributes != nil:
				if err := applyAttributes(stack, st, item.Attributes); err != nil {
					return err
				}
			case item.Voice != nil:
				if err := buildVoice(stack, st, syms, item.Voice); err != nil {
					return err
				}
			case item.Direction != nil:
				stack.Attach(score.NewDirection(*item.Direction))
			case item.Barline != nil:
				stack.Attach(score.NewBarline(*item.Barline))
			}
		}

		ctx := st.Snapshot()
		measure.Ctx = &ctx
		if _, err := stack.Pop(groupstack.ScopeMeasure, pos); err != nil {
			return err
		}
	}
	return stack.CheckClosed()
}

func applyAttributes(stack *groupstack.Stack, st *state.State, attrs *attributesBlock) error {
	for _, e := range attrs.Entries {
		pos := position(e.Pos)
		switch {
		case e.Divisions != nil:
			if *e.Divisions <= 0 {
				return cerr.NewFormat("mtn", pos, "divisions must be positive")
			}
			st.SetDivisions(*e.Divisions)
		case e.Clef != nil:
			sign, line, err := parseClef(*e.Clef, pos)
			if err != nil {
				return err
			}
			node := score.NewClef(sign, line)
			if err := st.Apply(node); err != nil {
				return err
			}
			stack.Attach(node)
		case e.Key != nil:
			node := score.NewKey(*e.Key)
			if err := st.Apply(node); err != nil {
				return err
			}
			stack.Attach(node)
		case e.Time != nil:
			node := score.NewTime(e.Time.Beats, e.Time.BeatType)
			if err := st.Apply(node); err != nil {
				return err
			}
			stack.Attach(node)
		}
	}
	return nil
}

func buildVoice(stack *groupstack.Stack, st *state.State, syms *symtab.Table, v *voiceBlock) error {
	pos := position(v.Pos)
	st.SetVoice(v.Number)
	voice := score.NewVoice(v.Number)
	stack.Push(groupstack.ScopeVoice, voice, pos)

	for _, item := range v.Items {
		if err := buildItem(stack, syms, item); err != nil {
			return err
		}
	}
	_, err := stack.Pop(groupstack.ScopeVoice, pos)
	return err
}

func buildItem(stack *groupstack.Stack, syms *symtab.Table, item *voiceItem) error {
	switch {
	case item.Note != nil:
		n, err := buildNote(syms, item.Note)
		if err != nil {
			return err
		}
		stack.Attach(n)
	case item.Rest != nil:
		stack.Attach(score.NewRest(item.Rest.Duration))
	case item.Chord != nil:
		pos := position(item.Chord.Pos)
		stack.Push(groupstack.ScopeChord, score.NewChord(), pos)
		for _, ns := range item.Chord.Notes {
			n, err := buildNote(syms, ns)
			if err != nil {
				return err
			}
			stack.Attach(n)
		}
		if _, err := stack.Pop(groupstack.ScopeChord, pos); err != nil {
			return err
		}
	case item.Beam != nil:
		pos := position(item.Beam.Pos)
		stack.Push(groupstack.ScopeBeam, score.NewBeam(), pos)
		for _, sub := range item.Beam.Items {
			if err := buildItem(stack, syms, sub); err != nil {
				return err
			}
		}
		if _, err := stack.Pop(groupstack.ScopeBeam, pos); err != nil {
			return err
		}
	case item.Tuplet != nil:
		pos := position(item.Tuplet.Pos)
		if item.Tuplet.Actual <= 0 || item.Tuplet.Normal <= 0 {
			return cerr.NewFormat("mtn", pos, "tuplet ratio must be positive")
		}
		stack.Push(groupstack.ScopeTuplet, score.NewTuplet(item.Tuplet.Actual, item.Tuplet.Normal), pos)
		for _, sub := range item.Tuplet.Items {
			if err := buildItem(stack, syms, sub); err != nil {
				return err
			}
		}
		if _, err := stack.Pop(groupstack.ScopeTuplet, pos); err != nil {
			return err
		}
	}
	return nil
}

func buildNote(syms *symtab.Table, ns *noteStmt) (*score.Node, error) {
	pos := position(ns.Pos)
	step, alter, octave, err := parsePitch(ns.Pitch, pos)
	if err != nil {
		return nil, err
	}
	if ns.Duration <= 0 {
		return nil, cerr.NewFormat("mtn", pos, "note duration must be positive")
	}
	n := score.NewNote(step, alter, octave, ns.Duration)

	for _, opt := range ns.Options {
		optPos := position(opt.Pos)
		switch opt.Key {
		case "id":
			n.ID = opt.Value
			if err := syms.Define(opt.Value, n, optPos); err != nil {
				return nil, err
			}
		case "stem":
			if opt.Value != score.StemUp && opt.Value != score.StemDown {
				return nil, cerr.NewFormat("mtn", optPos, "stem must be up or down")
			}
			n.SetAttr(score.AttrStem, opt.Value)
		case "tie", "slur":
			if err := buildSpan(syms, n, opt, optPos); err != nil {
				return nil, err
			}
		default:
			return nil, cerr.NewFormat("mtn", optPos, "unknown note option "+opt.Key)
		}
	}
	return n, nil
}

// buildSpan attaches a tie or slur endpoint. A start defines its label and
// registers it as expected; a stop resolves the label, so a stop with no
// earlier start fails immediately.
func buildSpan(syms *symtab.Table, note *score.Node, opt *noteOpt, position string) error {
	if opt.Ref == nil {
		return cerr.NewFormat("mtn", position, opt.Key+" option requires side:label")
	}
	side := score.Side(opt.Value)
	if side != score.SideStart && side != score.SideStop {
		return cerr.NewFormat("mtn", position, opt.Key+" side must be start or stop")
	}
	ref := *opt.Ref

	var span *score.Node
	if opt.Key == "tie" {
		span = score.NewTie(side, ref)
	} else {
		span = score.NewSlur(side, ref)
	}
	note.AppendChild(span)

	if side == score.SideStart {
		if err := syms.Define(ref, span, position); err != nil {
			return err
		}
		syms.Expect(ref, position)
		return nil
	}
	_, err := syms.Resolve(ref, position)
	return err
}

func position(pos lexer.Position) string {
	return fmt.Sprintf("%d:%d", pos.Line, pos.Column)
}
