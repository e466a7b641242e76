package score

import (
	"fmt"

	cerr "github.com/comref/converter/core/errors"
)

// allowedChildren maps each node kind to the set of child kinds it may own.
var allowedChildren = map[Kind]map[Kind]bool{
	KindScore:   {KindPart: true},
	KindPart:    {KindMeasure: true},
	KindMeasure: {KindClef: true, KindKey: true, KindTime: true, KindVoice: true, KindBarline: true, KindDirection: true},
	KindVoice:   {KindNote: true, KindRest: true, KindChord: true, KindBeam: true, KindTuplet: true},
	KindBeam:    {KindNote: true, KindRest: true, KindChord: true, KindBeam: true, KindTuplet: true},
	KindTuplet:  {KindNote: true, KindRest: true, KindChord: true, KindBeam: true, KindTuplet: true},
	KindChord:   {KindNote: true},
	KindNote:    {KindTie: true, KindSlur: true},
}

// Validate checks the invariants every successfully parsed tree must hold:
// a single Score root, legal parent/child kinds, paired tie and slur
// references, and per-voice durations balancing each measure's declared
// duration under its recorded context. It returns all violations found;
// translators fail the conversion on the first.
func Validate(t *Tree) []error {
	var errs []error

	if t == nil || t.Root == nil {
		return []error{cerr.NewFormat("tree", "", "nil tree")}
	}
	if t.Root.Kind != KindScore {
		errs = append(errs, cerr.NewUnsupportedConstruct(
			t.Root.Kind.String(), "tree root must be a score node", "root"))
	}

	type refSides struct{ starts, stops int }
	refs := make(map[string]*refSides)
	refKinds := make(map[string]Kind)

	t.Walk(func(n *Node, depth int) bool {
		allowed := allowedChildren[n.Kind]
		for _, c := range n.Children {
			if !allowed[c.Kind] {
				errs = append(errs, cerr.NewUnsupportedConstruct(
					c.Kind.String(),
					fmt.Sprintf("not a valid child of %s", n.Kind),
					nodePath(n)))
			}
		}

		if n.Kind == KindTie || n.Kind == KindSlur {
			ref := n.Attr(AttrRef)
			if ref == "" {
				errs = append(errs, cerr.NewUnresolvedReference("", nodePath(n)))
				return true
			}
			rs := refs[ref]
			if rs == nil {
				rs = &refSides{}
				refs[ref] = rs
				refKinds[ref] = n.Kind
			}
			if Side(n.Attr(AttrSide)) == SideStart {
				rs.starts++
			} else {
				rs.stops++
			}
		}
		return true
	})

	for ref, rs := range refs {
		if rs.starts != 1 || rs.stops != 1 {
			errs = append(errs, cerr.NewUnresolvedReference(ref,
				fmt.Sprintf("%s has %d start and %d stop endpoints", refKinds[ref], rs.starts, rs.stops)))
		}
	}

	errs = append(errs, validateDurations(t)...)
	return errs
}

// validateDurations checks that within every measure carrying a context,
// each voice's note, rest and chord durations sum to the measure's declared
// duration. Implicit (pickup) measures may sum to less, never more.
func validateDurations(t *Tree) []error {
	var errs []error

	for _, part := range t.Root.Children {
		if part.Kind != KindPart {
			continue
		}
		for _, measure := range part.Children {
			if measure.Kind != KindMeasure || measure.Ctx == nil {
				continue
			}
			declared, err := measure.Ctx.MeasureDivisions()
			if err != nil {
				if measureHasDurations(measure) {
					errs = append(errs, cerr.NewDurationMismatch(
						measureLabel(part, measure), "durated events with no time signature in effect", part.ID))
				}
				continue
			}
			for _, voice := range measure.Children {
				if voice.Kind != KindVoice {
					continue
				}
				sum := 0
				for _, item := range voice.Children {
					sum += item.Duration()
				}
				implicit := measure.BoolAttr(AttrImplicit)
				if sum > declared || (!implicit && sum != declared) {
					errs = append(errs, cerr.NewDurationMismatch(
						fmt.Sprintf("%s voice %d", measureLabel(part, measure), voice.IntAttr(AttrVoice)),
						fmt.Sprintf("durations sum to %d, declared %d", sum, declared),
						part.ID))
				}
			}
		}
	}
	return errs
}

func measureHasDurations(measure *Node) bool {
	for _, voice := range measure.Children {
		if voice.Kind == KindVoice && len(voice.Children) > 0 {
			return true
		}
	}
	return false
}

func measureLabel(part, measure *Node) string {
	return fmt.Sprintf("part %s measure %d", part.ID, measure.IntAttr(AttrNumber))
}

// nodePath renders a short positional description for error context.
func nodePath(n *Node) string {
	if n.ID != "" {
		return fmt.Sprintf("%s %s", n.Kind, n.ID)
	}
	if num := n.Attr(AttrNumber); num != "" {
		return fmt.Sprintf("%s %s", n.Kind, num)
	}
	return n.Kind.String()
}
