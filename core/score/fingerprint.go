package score

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// Fingerprint returns a stable BLAKE3 digest of the tree's structure and
// attributes. Two trees with identical kinds, attributes and child order
// produce identical fingerprints regardless of the source format's textual
// layout. The batch driver uses fingerprints as cache and index keys.
func Fingerprint(t *Tree) string {
	var b strings.Builder
	t.Walk(func(n *Node, depth int) bool {
		fmt.Fprintf(&b, "%d:%s", depth, n.Kind)
		if n.ID != "" {
			fmt.Fprintf(&b, "#%s", n.ID)
		}
		for _, k := range n.AttrKeys() {
			fmt.Fprintf(&b, ";%s=%s", k, n.Attrs[k])
		}
		b.WriteByte('\n')
		return true
	})
	sum := blake3.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
