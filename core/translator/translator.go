// Package translator defines the format boundary: a Translator parses source
// bytes of one notation format into a Score Tree and emits a tree back out as
// that format. Implementations live in subpackages and register themselves at
// init time; callers select them by Format through New.
package translator

import (
	"sort"
	"sync"

	cerr "github.com/comref/converter/core/errors"
	"github.com/comref/converter/core/score"
)

// Format names a supported notation format.
type Format string

// Supported formats.
const (
	FormatMTN      Format = "mtn"
	FormatMusicXML Format = "musicxml"
	FormatMEI      Format = "mei"
)

// IsValid returns true for registered formats.
func (f Format) IsValid() bool {
	mu.Lock()
	defer mu.Unlock()
	_, ok := registry[f]
	return ok
}

// Translator converts between one notation format and the Score Tree.
// Parse validates structure and durations; a tree returned without error
// always passes score.Validate. Emit is deterministic: the same tree yields
// the same bytes.
type Translator interface {
	Format() Format
	Parse(src []byte) (*score.Tree, error)
	Emit(t *score.Tree) ([]byte, error)
}

var (
	mu       sync.Mutex
	registry = map[Format]func() Translator{}
)

// Register installs a translator constructor. Called from subpackage init
// functions; a duplicate registration panics since it indicates a wiring
// mistake, not runtime input.
func Register(f Format, ctor func() Translator) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[f]; dup {
		panic("translator: duplicate registration for " + string(f))
	}
	registry[f] = ctor
}

// New returns a fresh translator for the format.
func New(f Format) (Translator, error) {
	mu.Lock()
	ctor, ok := registry[f]
	mu.Unlock()
	if !ok {
		return nil, cerr.NewUnsupportedConstruct(string(f), "no translator registered", "")
	}
	return ctor(), nil
}

// Formats returns the registered formats in sorted order.
func Formats() []Format {
	mu.Lock()
	defer mu.Unlock()
	out := make([]Format, 0, len(registry))
	for f := range registry {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
