package visitor

import (
	"fmt"
	"strings"

	"github.com/comref/converter/core/score"
)

// visitSequence renders the model-readable sequence document: one line per
// measure keyed by part and measure number, holding the space-joined token
// stream of the measure's contents.
func visitSequence(t *score.Tree) (*Output, error) {
	var b strings.Builder

	for _, part := range t.Root.Children {
		if part.Kind != score.KindPart {
			continue
		}
		for _, measure := range part.Children {
			if measure.Kind != score.KindMeasure {
				continue
			}
			var tokens []string
			for _, c := range measure.Children {
				tokens = append(tokens, Tokens(c)...)
			}
			fmt.Fprintf(&b, "%s/%s: %s\n", part.ID, measure.Attr(score.AttrNumber),
				strings.Join(tokens, " "))
		}
	}
	return &Output{Kind: KindSequenceDocument, Bytes: []byte(b.String())}, nil
}
