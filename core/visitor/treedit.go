package visitor

import (
	"fmt"
	"strings"

	"github.com/comref/converter/core/score"
)

// visitTreeEdit renders each measure as a bracket encoding suitable for
// tree-edit-distance comparison: one line per measure keyed by part and
// measure number, each node as {label{child}{child}…}. Labels are the node
// kind followed by attribute values in sorted-key order, underscore-joined,
// with cross-reference labels omitted so encodings of the same music from
// different sources compare equal.
func visitTreeEdit(t *score.Tree) (*Output, error) {
	var b strings.Builder

	for _, part := range t.Root.Children {
		if part.Kind != score.KindPart {
			continue
		}
		for _, measure := range part.Children {
			if measure.Kind != score.KindMeasure {
				continue
			}
			fmt.Fprintf(&b, "%s/%s: %s\n", part.ID, measure.Attr(score.AttrNumber), bracket(measure))
		}
	}
	return &Output{Kind: KindTreeEditEncoding, Bytes: []byte(b.String())}, nil
}

func bracket(n *score.Node) string {
	var b strings.Builder
	b.WriteByte('{')
	b.WriteString(editLabel(n))
	for _, c := range n.Children {
		b.WriteString(bracket(c))
	}
	b.WriteByte('}')
	return b.String()
}

func editLabel(n *score.Node) string {
	parts := []string{n.Kind.String()}
	for _, k := range n.AttrKeys() {
		if k == score.AttrRef {
			continue
		}
		parts = append(parts, n.Attrs[k])
	}
	return strings.Join(parts, "_")
}
