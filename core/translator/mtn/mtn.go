// Package mtn implements the compact text notation translator. The format
// is brace-scoped and line-oriented: a score block holds parts, parts hold
// measures, measures hold an attributes line, voices and barlines, and
// voices hold notes, rests and nested groups. Tie and slur endpoints carry
// explicit labels, which makes the format the only one of the three that
// round-trips cross-references verbatim.
package mtn

import (
	cerr "github.com/comref/converter/core/errors"
	"github.com/comref/converter/core/score"
	"github.com/comref/converter/core/translator"
)

func init() {
	translator.Register(translator.FormatMTN, func() translator.Translator {
		return &Translator{}
	})
}

// Translator converts between compact notation and the Score Tree.
type Translator struct{}

// Format returns the mtn format tag.
func (*Translator) Format() translator.Format { return translator.FormatMTN }

// Parse converts compact notation source into a validated Score Tree.
func (*Translator) Parse(src []byte) (*score.Tree, error) {
	file, err := mtnParser.ParseBytes("", src)
	if err != nil {
		return nil, cerr.WrapFormat("mtn", err)
	}
	return build(file)
}

// Emit renders a tree in canonical compact notation.
func (*Translator) Emit(t *score.Tree) ([]byte, error) {
	return emit(t)
}
