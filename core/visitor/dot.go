package visitor

import (
	"fmt"
	"strings"

	"github.com/comref/converter/core/score"
)

// visitDot renders the tree as a Graphviz digraph. Inner nodes are plain
// ellipses; leaves render as boxes. Node names follow a walk counter so the
// same tree always yields the same text.
func visitDot(t *score.Tree) (*Output, error) {
	var b strings.Builder
	b.WriteString("digraph score {\n")

	counter := 0
	var emit func(n *score.Node) int
	emit = func(n *score.Node) int {
		id := counter
		counter++
		shape := ""
		if len(n.Children) == 0 {
			shape = ", shape=box"
		}
		fmt.Fprintf(&b, "  n%d [label=%q%s];\n", id, dotLabel(n), shape)
		for _, c := range n.Children {
			child := emit(c)
			fmt.Fprintf(&b, "  n%d -> n%d;\n", id, child)
		}
		return id
	}
	emit(t.Root)

	b.WriteString("}\n")
	return &Output{Kind: KindDotGraph, Bytes: []byte(b.String())}, nil
}

// dotLabel renders a short human-readable label per node kind.
func dotLabel(n *score.Node) string {
	switch n.Kind {
	case score.KindScore, score.KindPart:
		if n.ID != "" {
			return fmt.Sprintf("%s\n%s", n.Kind, n.ID)
		}
	case score.KindMeasure:
		return fmt.Sprintf("measure %s", n.Attr(score.AttrNumber))
	case score.KindVoice:
		return fmt.Sprintf("voice %s", n.Attr(score.AttrVoice))
	case score.KindNote:
		return fmt.Sprintf("note %s/%d", n.PitchString(), n.Duration())
	case score.KindRest:
		return fmt.Sprintf("rest/%d", n.Duration())
	case score.KindTuplet:
		return fmt.Sprintf("tuplet %s:%s", n.Attr(score.AttrActual), n.Attr(score.AttrNormal))
	case score.KindClef:
		return fmt.Sprintf("clef %s%s", n.Attr(score.AttrSign), n.Attr(score.AttrLine))
	case score.KindKey:
		return fmt.Sprintf("key %s", n.Attr(score.AttrFifths))
	case score.KindTime:
		return fmt.Sprintf("time %s/%s", n.Attr(score.AttrBeats), n.Attr(score.AttrBeatType))
	case score.KindTie, score.KindSlur:
		return fmt.Sprintf("%s %s", n.Kind, n.Attr(score.AttrSide))
	case score.KindBarline:
		return fmt.Sprintf("barline %s", n.Attr(score.AttrStyle))
	case score.KindDirection:
		return fmt.Sprintf("direction %s", n.Attr(score.AttrText))
	}
	return n.Kind.String()
}
