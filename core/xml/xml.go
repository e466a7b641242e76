// Package xml provides the shared XML substrate for the MusicXML and MEI
// translators: xmlquery-backed parsing with XPath selection, and an ordered
// element builder for deterministic document emission.
//
// Go's xml.Decoder does not fetch external entities, and xmlquery inherits
// that property, so score files referencing external DTDs parse safely.
package xml

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Document is a parsed XML document.
type Document struct {
	root *xmlquery.Node
}

// Node is an element node within a parsed document.
type Node struct {
	node *xmlquery.Node
}

// Parse parses XML bytes into a Document.
func Parse(data []byte) (*Document, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return &Document{root: root}, nil
}

// Root returns the document's root element, or nil for an empty document.
func (d *Document) Root() *Node {
	if d.root == nil {
		return nil
	}
	for child := d.root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return &Node{node: child}
		}
	}
	return nil
}

// XPath returns all nodes matching the expression, in document order.
func (d *Document) XPath(expr string) ([]*Node, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	nodes, err := xmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query %q: %w", expr, err)
	}
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = &Node{node: n}
	}
	return out, nil
}

// XPathFirst returns the first node matching the expression, or nil.
func (d *Document) XPathFirst(expr string) (*Node, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	node, err := xmlquery.Query(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query %q: %w", expr, err)
	}
	if node == nil {
		return nil, nil
	}
	return &Node{node: node}, nil
}

// Name returns the element name.
func (n *Node) Name() string {
	if n == nil || n.node == nil {
		return ""
	}
	return n.node.Data
}

// Text returns the trimmed text content of the node and its descendants.
func (n *Node) Text() string {
	if n == nil || n.node == nil {
		return ""
	}
	return strings.TrimSpace(n.node.InnerText())
}

// IntText returns the node text parsed as an integer.
func (n *Node) IntText() (int, error) {
	return strconv.Atoi(n.Text())
}

// Attr returns the value of an attribute, or "" when absent. Namespaced
// attributes (xml:id) match on their qualified name or their local name; an
// unprefixed attribute of the same local name wins over a namespaced one.
func (n *Node) Attr(name string) string {
	if n == nil || n.node == nil {
		return ""
	}
	for _, a := range n.node.Attr {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value
		}
	}
	for _, a := range n.node.Attr {
		if a.Name.Space == "" {
			continue
		}
		if a.Name.Local == name || a.Name.Space+":"+a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// HasChild reports whether the node has a direct child element with the
// given name.
func (n *Node) HasChild(name string) bool {
	return n.Child(name) != nil
}

// Child returns the first direct child element with the given name, or nil.
func (n *Node) Child(name string) *Node {
	if n == nil || n.node == nil {
		return nil
	}
	for c := n.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == name {
			return &Node{node: c}
		}
	}
	return nil
}

// ChildText returns the text of the first direct child with the given name,
// or "" when absent.
func (n *Node) ChildText(name string) string {
	c := n.Child(name)
	if c == nil {
		return ""
	}
	return c.Text()
}

// ChildInt returns the integer text of the first direct child with the
// given name, or def when the child is absent or unparseable.
func (n *Node) ChildInt(name string, def int) int {
	c := n.Child(name)
	if c == nil {
		return def
	}
	v, err := c.IntText()
	if err != nil {
		return def
	}
	return v
}

// Children returns the direct child elements in document order. When names
// are given, only elements with one of those names are returned.
func (n *Node) Children(names ...string) []*Node {
	if n == nil || n.node == nil {
		return nil
	}
	want := make(map[string]bool, len(names))
	for _, name := range names {
		want[name] = true
	}
	var out []*Node
	for c := n.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		if len(want) > 0 && !want[c.Data] {
			continue
		}
		out = append(out, &Node{node: c})
	}
	return out
}

// Select returns descendants of the node matching an XPath expression.
func (n *Node) Select(expr string) ([]*Node, error) {
	if n == nil || n.node == nil {
		return nil, nil
	}
	nodes, err := xmlquery.QueryAll(n.node, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query %q: %w", expr, err)
	}
	out := make([]*Node, len(nodes))
	for i, m := range nodes {
		out[i] = &Node{node: m}
	}
	return out, nil
}
