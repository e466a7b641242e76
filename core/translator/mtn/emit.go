package mtn

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/comref/converter/core/score"
)

// emit renders a tree in canonical compact notation: two-space indentation,
// one attributes line per measure listing only values that changed, note
// options in id, stem, tie, slur order. Parsing the output reconstructs an
// equal tree.
func emit(t *score.Tree) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "score %q {\n", t.Root.ID)
	for _, part := range t.Root.Children {
		if part.Kind != score.KindPart {
			continue
		}
		fmt.Fprintf(&b, "  part %q {\n", part.ID)
		divisions := 0
		for _, measure := range part.Children {
			if measure.Kind != score.KindMeasure {
				continue
			}
			emitMeasure(&b, measure, &divisions)
		}
		b.WriteString("  }\n")
	}
	b.WriteString("}\n")
	return []byte(b.String()), nil
}

func emitMeasure(b *strings.Builder, measure *score.Node, divisions *int) {
	b.WriteString("    measure ")
	b.WriteString(measure.Attr(score.AttrNumber))
	if measure.BoolAttr(score.AttrImplicit) {
		b.WriteString(" implicit")
	}
	b.WriteString(" {\n")

	if line := attributesLine(measure, divisions); line != "" {
		b.WriteString("      ")
		b.WriteString(line)
		b.WriteByte('\n')
	}

	for _, c := range measure.Children {
		switch c.Kind {
		case score.KindVoice:
			fmt.Fprintf(b, "      voice %s {\n", c.Attr(score.AttrVoice))
			for _, item := range c.Children {
				emitItem(b, item, 4)
			}
			b.WriteString("      }\n")
		case score.KindDirection:
			fmt.Fprintf(b, "      direction %q\n", c.Attr(score.AttrText))
		case score.KindBarline:
			fmt.Fprintf(b, "      barline %s\n", c.Attr(score.AttrStyle))
		}
	}
	b.WriteString("    }\n")
}

// attributesLine renders the measure's context changes, or "" when the
// measure declares none.
func attributesLine(measure *score.Node, divisions *int) string {
	var entries []string
	if measure.Ctx != nil && measure.Ctx.Divisions != *divisions {
		*divisions = measure.Ctx.Divisions
		entries = append(entries, fmt.Sprintf("divisions %d", *divisions))
	}
	for _, c := range measure.Children {
		switch c.Kind {
		case score.KindClef:
			entries = append(entries, fmt.Sprintf("clef %s%s",
				c.Attr(score.AttrSign), c.Attr(score.AttrLine)))
		case score.KindKey:
			entries = append(entries, fmt.Sprintf("key %s", c.Attr(score.AttrFifths)))
		case score.KindTime:
			entries = append(entries, fmt.Sprintf("time %s/%s",
				c.Attr(score.AttrBeats), c.Attr(score.AttrBeatType)))
		}
	}
	if len(entries) == 0 {
		return ""
	}
	return "attributes { " + strings.Join(entries, " ") + " }"
}

func emitItem(b *strings.Builder, n *score.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	switch n.Kind {
	case score.KindNote:
		b.WriteString(indent)
		b.WriteString(noteLine(n))
		b.WriteByte('\n')
	case score.KindRest:
		fmt.Fprintf(b, "%srest %s ;\n", indent, n.Attr(score.AttrDuration))
	case score.KindChord:
		b.WriteString(indent)
		b.WriteString("chord {\n")
		for _, c := range n.Children {
			emitItem(b, c, depth+1)
		}
		b.WriteString(indent)
		b.WriteString("}\n")
	case score.KindBeam:
		b.WriteString(indent)
		b.WriteString("beam {\n")
		for _, c := range n.Children {
			emitItem(b, c, depth+1)
		}
		b.WriteString(indent)
		b.WriteString("}\n")
	case score.KindTuplet:
		fmt.Fprintf(b, "%stuplet %s/%s {\n", indent,
			n.Attr(score.AttrActual), n.Attr(score.AttrNormal))
		for _, c := range n.Children {
			emitItem(b, c, depth+1)
		}
		b.WriteString(indent)
		b.WriteString("}\n")
	}
}

// Values that lex as a single bare token are emitted as is; anything else
// is quoted. A pitch-shaped prefix (an MEI-imported id like "C4x") splits
// into two tokens, so the identifier check alone does not cover it.
var (
	bareIdent   = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)
	barePitch   = regexp.MustCompile(`^[A-G](?:#{1,2}|b{1,2}|x)?[0-9]$`)
	bareInt     = regexp.MustCompile(`^-?[0-9]+$`)
	pitchPrefix = regexp.MustCompile(`^[A-G](?:#{1,2}|b{1,2}|x)?[0-9]`)
)

func optValue(s string) string {
	if barePitch.MatchString(s) || bareInt.MatchString(s) {
		return s
	}
	if bareIdent.MatchString(s) && !pitchPrefix.MatchString(s) {
		return s
	}
	return strconv.Quote(s)
}

func noteLine(n *score.Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "note %s %s", n.PitchString(), n.Attr(score.AttrDuration))
	if n.ID != "" {
		fmt.Fprintf(&b, " id=%s", optValue(n.ID))
	}
	if stem := n.Attr(score.AttrStem); stem != "" {
		fmt.Fprintf(&b, " stem=%s", stem)
	}
	for _, c := range n.Children {
		if c.Kind == score.KindTie {
			fmt.Fprintf(&b, " tie=%s:%s", c.Attr(score.AttrSide), c.Attr(score.AttrRef))
		}
	}
	for _, c := range n.Children {
		if c.Kind == score.KindSlur {
			fmt.Fprintf(&b, " slur=%s:%s", c.Attr(score.AttrSide), c.Attr(score.AttrRef))
		}
	}
	b.WriteString(" ;")
	return b.String()
}
