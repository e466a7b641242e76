package symtab

import (
	"errors"
	"testing"

	cerr "github.com/comref/converter/core/errors"
	"github.com/comref/converter/core/score"
)

// TestDefineResolve verifies the basic bind/lookup cycle.
func TestDefineResolve(t *testing.T) {
	table := New()
	note := score.NewNote("C", 0, 4, 2)

	if err := table.Define("n1", note, "measure 1"); err != nil {
		t.Fatalf("Define failed: %v", err)
	}
	got, err := table.Resolve("n1", "measure 2")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != note {
		t.Error("Resolve returned the wrong node")
	}
}

// TestDuplicateSymbol verifies identifiers are write-once per pass.
func TestDuplicateSymbol(t *testing.T) {
	table := New()
	note := score.NewNote("C", 0, 4, 2)
	if err := table.Define("n1", note, "measure 1"); err != nil {
		t.Fatalf("first Define failed: %v", err)
	}

	err := table.Define("n1", score.NewNote("D", 0, 4, 2), "measure 3")
	if !errors.Is(err, cerr.ErrDuplicateSymbol) {
		t.Errorf("expected ErrDuplicateSymbol, got %v", err)
	}

	var re *cerr.ReferenceError
	if !errors.As(err, &re) || re.ID != "n1" {
		t.Errorf("error should carry the identifier, got %v", err)
	}
}

// TestUnresolvedReference verifies lookups of unbound identifiers fail.
func TestUnresolvedReference(t *testing.T) {
	table := New()
	_, err := table.Resolve("ghost", "measure 5")
	if !errors.Is(err, cerr.ErrUnresolvedReference) {
		t.Errorf("expected ErrUnresolvedReference, got %v", err)
	}
}

// TestPendingAudit verifies the end-of-pass expectation audit.
func TestPendingAudit(t *testing.T) {
	table := New()
	a := score.NewNote("C", 0, 4, 2)
	b := score.NewNote("D", 0, 4, 2)

	if err := table.Define("t1", a, "measure 1"); err != nil {
		t.Fatal(err)
	}
	table.Expect("t1", "measure 1")
	if err := table.Define("t2", b, "measure 2"); err != nil {
		t.Fatal(err)
	}
	table.Expect("t2", "measure 2")

	if _, err := table.Resolve("t1", "measure 2"); err != nil {
		t.Fatal(err)
	}

	pending := table.Pending()
	if len(pending) != 1 || pending[0] != "t2" {
		t.Errorf("Pending = %v, want [t2]", pending)
	}
	if err := table.CheckResolved(); !errors.Is(err, cerr.ErrUnresolvedReference) {
		t.Errorf("CheckResolved = %v", err)
	}

	if _, err := table.Resolve("t2", "measure 3"); err != nil {
		t.Fatal(err)
	}
	if err := table.CheckResolved(); err != nil {
		t.Errorf("all resolved, CheckResolved = %v", err)
	}
}

// TestNextLabelAndClear verifies label generation restarts after Clear.
func TestNextLabelAndClear(t *testing.T) {
	table := New()
	first := table.NextLabel("tie")
	second := table.NextLabel("tie")
	if first == second {
		t.Errorf("labels should be unique: %q vs %q", first, second)
	}
	if first != "tie-1" {
		t.Errorf("first label = %q, want tie-1", first)
	}

	if err := table.Define("x", score.NewRest(1), "m"); err != nil {
		t.Fatal(err)
	}
	table.Clear()
	if table.Len() != 0 {
		t.Error("Clear should empty the table")
	}
	if got := table.NextLabel("tie"); got != "tie-1" {
		t.Errorf("label sequence should restart, got %q", got)
	}
}
