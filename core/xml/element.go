package xml

import (
	"bytes"
	"strings"
)

// Attr is one attribute of an element under construction. Attributes keep
// their insertion order so emitted documents are byte-stable.
type Attr struct {
	Name  string
	Value string
}

// Element is a node of a document under construction. Emitters build an
// Element tree and render it once; there is no mutation after rendering.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []*Element
	Text     string
}

// NewElement creates an element with the given name.
func NewElement(name string) *Element {
	return &Element{Name: name}
}

// SetAttr appends an attribute, preserving insertion order.
func (e *Element) SetAttr(name, value string) *Element {
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
	return e
}

// Add appends child elements and returns the receiver for chaining.
func (e *Element) Add(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// AddText appends a child element holding only text.
func (e *Element) AddText(name, text string) *Element {
	child := NewElement(name)
	child.Text = text
	return e.Add(child)
}

// Render serializes the element tree with an XML declaration and two-space
// indentation. Output is deterministic: same tree, same bytes.
func (e *Element) Render() []byte {
	var buf bytes.Buffer
	buf.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	e.render(&buf, 0)
	return buf.Bytes()
}

func (e *Element) render(buf *bytes.Buffer, depth int) {
	indent := strings.Repeat("  ", depth)
	buf.WriteString(indent)
	buf.WriteByte('<')
	buf.WriteString(e.Name)
	for _, a := range e.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Name)
		buf.WriteString("=\"")
		buf.WriteString(EscapeAttr(a.Value))
		buf.WriteByte('"')
	}

	switch {
	case len(e.Children) == 0 && e.Text == "":
		buf.WriteString("/>\n")
	case len(e.Children) == 0:
		buf.WriteByte('>')
		buf.WriteString(EscapeText(e.Text))
		buf.WriteString("</")
		buf.WriteString(e.Name)
		buf.WriteString(">\n")
	default:
		buf.WriteString(">\n")
		for _, c := range e.Children {
			c.render(buf, depth+1)
		}
		buf.WriteString(indent)
		buf.WriteString("</")
		buf.WriteString(e.Name)
		buf.WriteString(">\n")
	}
}

// EscapeText escapes character data for XML text content.
func EscapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

// EscapeAttr escapes character data for XML attribute values.
func EscapeAttr(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
