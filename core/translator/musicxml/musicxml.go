// Package musicxml implements the partwise MusicXML translator. Parsing
// reconstructs explicit grouping from the format's per-note markers: beam
// begin/continue/end marks become Beam groups, tuplet start/stop notations
// become Tuplet groups, chord flags fold consecutive notes into Chord
// groups, and ties keyed by pitch plus slurs keyed by level number receive
// generated cross-reference labels.
package musicxml

import (
	cerr "github.com/comref/converter/core/errors"
	"github.com/comref/converter/core/score"
	"github.com/comref/converter/core/translator"
	"github.com/comref/converter/core/visitor"
	"github.com/comref/converter/core/xml"
)

func init() {
	translator.Register(translator.FormatMusicXML, func() translator.Translator {
		return &Translator{}
	})
}

// Translator converts between partwise MusicXML and the Score Tree.
type Translator struct{}

// Format returns the musicxml format tag.
func (*Translator) Format() translator.Format { return translator.FormatMusicXML }

// Parse converts MusicXML source into a validated Score Tree.
func (*Translator) Parse(src []byte) (*score.Tree, error) {
	doc, err := xml.Parse(src)
	if err != nil {
		return nil, cerr.WrapFormat("musicxml", err)
	}
	root := doc.Root()
	if root == nil || root.Name() != "score-partwise" {
		return nil, cerr.NewFormat("musicxml", "", "root element is not score-partwise")
	}
	return newParser().parse(root)
}

// Emit renders a tree as partwise MusicXML.
func (*Translator) Emit(t *score.Tree) ([]byte, error) {
	return visitor.MXMLDocument(t)
}

func scoreID(root *xml.Node) string {
	if w := root.Child("work"); w != nil {
		if title := w.ChildText("work-title"); title != "" {
			return title
		}
	}
	if title := root.ChildText("movement-title"); title != "" {
		return title
	}
	return "score"
}
