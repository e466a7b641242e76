package visitor

import (
	"strings"

	"github.com/comref/converter/core/score"
)

// container kinds emit an opening token, their children, then a closing
// "/kind" token, so the stream preserves nesting.
var containerKinds = map[score.Kind]bool{
	score.KindScore:   true,
	score.KindPart:    true,
	score.KindMeasure: true,
	score.KindVoice:   true,
	score.KindBeam:    true,
	score.KindTuplet:  true,
	score.KindChord:   true,
}

// visitTokens flattens the tree into a deterministic token vocabulary.
// Cross-reference labels and node ids are omitted: they vary with the
// source format, and the stream must compare equal across formats for the
// same music.
func visitTokens(t *score.Tree) (*Output, error) {
	return &Output{Kind: KindTokenStream, Tokens: Tokens(t.Root)}, nil
}

// Tokens renders the token stream of any subtree.
func Tokens(n *score.Node) []string {
	var out []string
	emitTokens(n, &out)
	return out
}

func emitTokens(n *score.Node, out *[]string) {
	*out = append(*out, nodeToken(n))
	for _, c := range n.Children {
		emitTokens(c, out)
	}
	if containerKinds[n.Kind] {
		*out = append(*out, "/"+n.Kind.String())
	}
}

// nodeToken renders one node as "kind" or "kind:k=v&k=v" with sorted keys.
func nodeToken(n *score.Node) string {
	var b strings.Builder
	b.WriteString(n.Kind.String())

	sep := ":"
	for _, k := range n.AttrKeys() {
		if k == score.AttrRef {
			continue
		}
		b.WriteString(sep)
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(n.Attrs[k])
		sep = "&"
	}
	return b.String()
}
