package xml

import (
	"strings"
	"testing"
)

const sampleXML = `<?xml version="1.0"?>
<score-partwise version="4.0">
  <part id="P1">
    <measure number="1">
      <note><pitch><step>C</step><octave>4</octave></pitch><duration>2</duration></note>
      <note><pitch><step>G</step><octave>4</octave></pitch><duration>2</duration></note>
    </measure>
  </part>
</score-partwise>`

// TestParseAndRoot verifies parsing and root element access.
func TestParseAndRoot(t *testing.T) {
	doc, err := Parse([]byte(sampleXML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	root := doc.Root()
	if root == nil || root.Name() != "score-partwise" {
		t.Fatalf("Root = %v", root)
	}
	if root.Attr("version") != "4.0" {
		t.Errorf("version attr = %q", root.Attr("version"))
	}
}

// TestNamespacedAttr verifies xml:id resolves by local and qualified name.
func TestNamespacedAttr(t *testing.T) {
	doc, err := Parse([]byte(`<mei><note xml:id="a" pname="c"/></mei>`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	note, err := doc.XPathFirst("//note")
	if err != nil || note == nil {
		t.Fatalf("note lookup failed: %v", err)
	}
	if got := note.Attr("id"); got != "a" {
		t.Errorf("Attr(id) = %q, want a", got)
	}
	if got := note.Attr("xml:id"); got != "a" {
		t.Errorf("Attr(xml:id) = %q, want a", got)
	}
	if got := note.Attr("pname"); got != "c" {
		t.Errorf("Attr(pname) = %q, want c", got)
	}
	if got := note.Attr("missing"); got != "" {
		t.Errorf("Attr(missing) = %q, want empty", got)
	}
}

// TestParseMalformed verifies malformed input fails.
func TestParseMalformed(t *testing.T) {
	if _, err := Parse([]byte("<score><measure></score>")); err == nil {
		t.Error("mismatched tags should fail to parse")
	}
}

// TestXPathQueries verifies document-order XPath selection.
func TestXPathQueries(t *testing.T) {
	doc, err := Parse([]byte(sampleXML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	notes, err := doc.XPath("//note")
	if err != nil {
		t.Fatalf("XPath failed: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("found %d notes, want 2", len(notes))
	}

	first, err := doc.XPathFirst("//pitch/step")
	if err != nil {
		t.Fatalf("XPathFirst failed: %v", err)
	}
	if first.Text() != "C" {
		t.Errorf("first step = %q, want C", first.Text())
	}

	if _, err := doc.XPath("///"); err == nil {
		t.Error("invalid xpath should fail")
	}
}

// TestChildAccessors verifies direct-child helpers.
func TestChildAccessors(t *testing.T) {
	doc, err := Parse([]byte(sampleXML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	note, err := doc.XPathFirst("//note")
	if err != nil || note == nil {
		t.Fatalf("note lookup failed: %v", err)
	}

	if !note.HasChild("pitch") {
		t.Error("note should have a pitch child")
	}
	if note.ChildInt("duration", 0) != 2 {
		t.Errorf("duration = %d, want 2", note.ChildInt("duration", 0))
	}
	if note.Child("pitch").ChildText("step") != "C" {
		t.Errorf("step = %q", note.Child("pitch").ChildText("step"))
	}
	if note.ChildInt("missing", 7) != 7 {
		t.Error("ChildInt should fall back to default")
	}

	measure, err := doc.XPathFirst("//measure")
	if err != nil || measure == nil {
		t.Fatalf("measure lookup failed: %v", err)
	}
	if got := len(measure.Children("note")); got != 2 {
		t.Errorf("Children(note) = %d, want 2", got)
	}
}

// TestElementRender verifies deterministic document building.
func TestElementRender(t *testing.T) {
	root := NewElement("measure").SetAttr("number", "1")
	note := NewElement("note")
	pitch := NewElement("pitch")
	pitch.AddText("step", "C")
	pitch.AddText("octave", "4")
	note.Add(pitch)
	note.AddText("duration", "2")
	root.Add(note)

	out := string(root.Render())
	if !strings.HasPrefix(out, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n") {
		t.Error("missing XML declaration")
	}
	if !strings.Contains(out, "<measure number=\"1\">") {
		t.Errorf("missing measure open tag:\n%s", out)
	}
	if !strings.Contains(out, "    <pitch>\n      <step>C</step>") {
		t.Errorf("unexpected indentation:\n%s", out)
	}

	again := string(root.Render())
	if out != again {
		t.Error("Render should be deterministic")
	}
}

// TestElementEscaping verifies text and attribute escaping.
func TestElementEscaping(t *testing.T) {
	e := NewElement("direction").SetAttr("label", `a"b<c`)
	e.Text = "p < f & sfz"
	out := string(e.Render())
	if !strings.Contains(out, `label="a&quot;b&lt;c"`) {
		t.Errorf("attribute not escaped:\n%s", out)
	}
	if !strings.Contains(out, ">p &lt; f &amp; sfz<") {
		t.Errorf("text not escaped:\n%s", out)
	}
}

// TestEmptyElementSelfCloses verifies childless elements self-close.
func TestEmptyElementSelfCloses(t *testing.T) {
	e := NewElement("chord")
	if !strings.Contains(string(e.Render()), "<chord/>") {
		t.Error("empty element should self-close")
	}
}
