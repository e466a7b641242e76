// Package convert is the top-level conversion facade: it links the three
// format translators into one process and exposes parse, emit, convert and
// visit entry points over them. Importing this package is what makes the
// translators available; each registers itself through its init function.
package convert

import (
	"github.com/comref/converter/core/score"
	"github.com/comref/converter/core/translator"
	"github.com/comref/converter/core/visitor"

	_ "github.com/comref/converter/core/translator/mei"
	_ "github.com/comref/converter/core/translator/mtn"
	_ "github.com/comref/converter/core/translator/musicxml"
)

// Parse converts source bytes of the given format into a Score Tree.
func Parse(format translator.Format, src []byte) (*score.Tree, error) {
	tr, err := translator.New(format)
	if err != nil {
		return nil, err
	}
	return tr.Parse(src)
}

// Emit renders a Score Tree in the given format.
func Emit(format translator.Format, t *score.Tree) ([]byte, error) {
	tr, err := translator.New(format)
	if err != nil {
		return nil, err
	}
	return tr.Emit(t)
}

// Convert parses source bytes in one format and emits them in another. The
// formats may be equal, which canonicalizes the input.
func Convert(from, to translator.Format, src []byte) ([]byte, error) {
	t, err := Parse(from, src)
	if err != nil {
		return nil, err
	}
	return Emit(to, t)
}

// Visit parses source bytes and runs a visitor over the resulting tree.
func Visit(format translator.Format, kind visitor.Kind, src []byte) (*visitor.Output, error) {
	t, err := Parse(format, src)
	if err != nil {
		return nil, err
	}
	return visitor.Visit(kind, t)
}

// Formats returns the linked-in formats.
func Formats() []translator.Format {
	return translator.Formats()
}
