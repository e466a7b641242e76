// Package mei implements the MEI-like translator. Durations ride dur.ppq
// attributes in divisions units, context lives in scoreDef elements, and
// ties and slurs are standalone measure elements pointing at note xml:ids
// with startid/endid. References are backward only: a span element may only
// point at notes already declared, so parsing stays single-pass.
package mei

import (
	cerr "github.com/comref/converter/core/errors"
	"github.com/comref/converter/core/score"
	"github.com/comref/converter/core/translator"
	"github.com/comref/converter/core/visitor"
	"github.com/comref/converter/core/xml"
)

func init() {
	translator.Register(translator.FormatMEI, func() translator.Translator {
		return &Translator{}
	})
}

// Translator converts between MEI-like documents and the Score Tree.
type Translator struct{}

// Format returns the mei format tag.
func (*Translator) Format() translator.Format { return translator.FormatMEI }

// Parse converts an MEI-like document into a validated Score Tree.
func (*Translator) Parse(src []byte) (*score.Tree, error) {
	doc, err := xml.Parse(src)
	if err != nil {
		return nil, cerr.WrapFormat("mei", err)
	}
	root := doc.Root()
	if root == nil || root.Name() != "mei" {
		return nil, cerr.NewFormat("mei", "", "root element is not mei")
	}
	return newParser().parse(root)
}

// Emit renders a tree as an MEI-like document.
func (*Translator) Emit(t *score.Tree) ([]byte, error) {
	return visitor.MEIDocument(t)
}
