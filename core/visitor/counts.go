package visitor

import (
	"fmt"
	"strings"

	"github.com/comref/converter/core/score"
)

// CountReport aggregates node counts per kind over one tree.
type CountReport struct {
	ByKind map[score.Kind]int
	Total  int
}

// Count returns the count for one kind.
func (r *CountReport) Count(k score.Kind) int {
	return r.ByKind[k]
}

// String renders the report with kinds in canonical order, omitting kinds
// that never occur.
func (r *CountReport) String() string {
	var b strings.Builder
	for _, k := range score.Kinds() {
		if n := r.ByKind[k]; n > 0 {
			fmt.Fprintf(&b, "%-10s %d\n", k, n)
		}
	}
	fmt.Fprintf(&b, "%-10s %d\n", "total", r.Total)
	return b.String()
}

// Merge adds another report's counts into r. The batch driver uses this to
// aggregate statistics across a corpus.
func (r *CountReport) Merge(other *CountReport) {
	for k, n := range other.ByKind {
		r.ByKind[k] += n
	}
	r.Total += other.Total
}

// NewCountReport creates an empty report.
func NewCountReport() *CountReport {
	return &CountReport{ByKind: make(map[score.Kind]int)}
}

func visitCounts(t *score.Tree) (*Output, error) {
	report := NewCountReport()
	t.Walk(func(n *score.Node, depth int) bool {
		report.ByKind[n.Kind]++
		report.Total++
		return true
	})
	return &Output{Kind: KindNodeCounts, Counts: report}, nil
}
