// Package symtab implements the pass-scoped symbol table resolving
// cross-reference identifiers (tie, slur and repeat endpoints) to tree
// nodes. Entries are write-once within a pass; identifiers registered with
// Expect must be resolved before the pass ends or the conversion fails.
package symtab

import (
	"sort"
	"strconv"

	cerr "github.com/comref/converter/core/errors"
	"github.com/comref/converter/core/score"
)

// Table maps identifiers to non-owning node references for one conversion
// pass. It is never shared across concurrent conversions.
type Table struct {
	entries  map[string]*score.Node
	expected map[string]string // id -> position where the expectation arose
	serial   int
}

// New creates an empty table.
func New() *Table {
	return &Table{
		entries:  make(map[string]*score.Node),
		expected: make(map[string]string),
	}
}

// Define binds an identifier to a node. Rebinding an identifier within the
// same pass is a reference error.
func (t *Table) Define(id string, node *score.Node, position string) error {
	if _, ok := t.entries[id]; ok {
		return cerr.NewDuplicateSymbol(id, position)
	}
	t.entries[id] = node
	return nil
}

// Expect marks an identifier as requiring resolution before end of pass.
// Translators call it when a spanning element opens, so that a start with
// no matching stop surfaces in the end-of-parse audit.
func (t *Table) Expect(id, position string) {
	t.expected[id] = position
}

// Resolve looks up an identifier, clearing any pending expectation on it.
// An unbound identifier is a reference error.
func (t *Table) Resolve(id, position string) (*score.Node, error) {
	node, ok := t.entries[id]
	if !ok {
		return nil, cerr.NewUnresolvedReference(id, position)
	}
	delete(t.expected, id)
	return node, nil
}

// Pending returns the identifiers still awaiting resolution, sorted for
// deterministic error reporting.
func (t *Table) Pending() []string {
	ids := make([]string, 0, len(t.expected))
	for id := range t.expected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CheckResolved returns a reference error naming the first pending
// identifier, or nil when everything resolved.
func (t *Table) CheckResolved() error {
	pending := t.Pending()
	if len(pending) == 0 {
		return nil
	}
	return cerr.NewUnresolvedReference(pending[0], t.expected[pending[0]])
}

// NextLabel generates a fresh label with the given prefix for sources whose
// spanning elements carry no identifiers of their own (MusicXML ties).
func (t *Table) NextLabel(prefix string) string {
	t.serial++
	return prefix + "-" + strconv.Itoa(t.serial)
}

// Len returns the number of bound identifiers.
func (t *Table) Len() int { return len(t.entries) }

// Clear resets the table for a new pass.
func (t *Table) Clear() {
	t.entries = make(map[string]*score.Node)
	t.expected = make(map[string]string)
	t.serial = 0
}
