package score

import (
	"fmt"
	"sort"
	"strconv"
)

// Attribute keys used in node attribute maps. Each node kind uses a fixed
// subset of these; anything else is rejected by Validate.
const (
	AttrStep     = "step"      // Note: pitch step A-G
	AttrAlter    = "alter"     // Note: chromatic alteration in semitones
	AttrOctave   = "octave"    // Note: scientific octave number
	AttrDuration = "duration"  // Note/Rest: duration in divisions
	AttrVoice    = "voice"     // Voice: voice number
	AttrStem     = "stem"      // Note: stem direction
	AttrNumber   = "number"    // Measure: measure number
	AttrImplicit = "implicit"  // Measure: pickup measure flag
	AttrSign     = "sign"      // Clef: G, C, F or percussion
	AttrLine     = "line"      // Clef: staff line
	AttrFifths   = "fifths"    // Key: signature in fifths
	AttrBeats    = "beats"     // Time: numerator
	AttrBeatType = "beat-type" // Time: denominator
	AttrActual   = "actual"    // Tuplet: actual note count
	AttrNormal   = "normal"    // Tuplet: normal note count
	AttrSide     = "side"      // Tie/Slur: start or stop
	AttrRef      = "ref"       // Tie/Slur: cross-reference label
	AttrStyle    = "style"     // Barline: style name
	AttrText     = "text"      // Direction: directive text
)

// Side marks the opening or closing end of a spanning element.
type Side string

// Side constants.
const (
	SideStart Side = "start"
	SideStop  Side = "stop"
)

// Stem direction values.
const (
	StemUp   = "up"
	StemDown = "down"
)

// Node is one tagged variant of the Score Tree. A node exclusively owns its
// children; cross-references between nodes go through labels resolved by the
// symbol table, never through pointers, so the tree stays acyclic.
type Node struct {
	// Kind is the variant tag.
	Kind Kind

	// ID is the optional stable identifier used for cross-reference
	// resolution (e.g. a note id that a tie refers to).
	ID string

	// Attrs holds the kind-specific attributes.
	Attrs map[string]string

	// Children are owned child nodes in document order.
	Children []*Node

	// Ctx is the music context recorded when the node was parsed.
	// Set on Measure nodes only.
	Ctx *Context
}

// NewNode creates a node of the given kind with an empty attribute map.
func NewNode(kind Kind) *Node {
	return &Node{Kind: kind, Attrs: make(map[string]string)}
}

// AppendChild appends a child node, transferring ownership to n.
func (n *Node) AppendChild(child *Node) {
	n.Children = append(n.Children, child)
}

// Attr returns the value of an attribute, or "" when absent.
func (n *Node) Attr(key string) string {
	return n.Attrs[key]
}

// SetAttr sets an attribute value.
func (n *Node) SetAttr(key, value string) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = value
}

// IntAttr returns an attribute parsed as an integer, or 0 when absent
// or unparseable.
func (n *Node) IntAttr(key string) int {
	v, err := strconv.Atoi(n.Attrs[key])
	if err != nil {
		return 0
	}
	return v
}

// SetIntAttr sets an integer attribute value.
func (n *Node) SetIntAttr(key string, value int) {
	n.SetAttr(key, strconv.Itoa(value))
}

// BoolAttr returns true when the attribute is set to "yes".
func (n *Node) BoolAttr(key string) bool {
	return n.Attrs[key] == "yes"
}

// AttrKeys returns the node's attribute keys in sorted order. Visitors use
// this for deterministic rendering.
func (n *Node) AttrKeys() []string {
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Pitch returns the note's pitch components (step, alter, octave).
func (n *Node) Pitch() (step string, alter, octave int) {
	return n.Attr(AttrStep), n.IntAttr(AttrAlter), n.IntAttr(AttrOctave)
}

// PitchString renders the note's pitch in compact form, e.g. "C4", "F#3",
// "Bb2". Double alterations render as "##" and "bb".
func (n *Node) PitchString() string {
	step, alter, octave := n.Pitch()
	var accidental string
	switch {
	case alter > 0:
		for i := 0; i < alter; i++ {
			accidental += "#"
		}
	case alter < 0:
		for i := 0; i > alter; i-- {
			accidental += "b"
		}
	}
	return fmt.Sprintf("%s%s%d", step, accidental, octave)
}

// Duration returns the node's duration in divisions. Chords report their
// first note's duration; Beam and Tuplet report the sum of their children;
// other kinds report zero.
func (n *Node) Duration() int {
	switch n.Kind {
	case KindNote, KindRest:
		return n.IntAttr(AttrDuration)
	case KindChord:
		for _, c := range n.Children {
			if c.Kind == KindNote {
				return c.Duration()
			}
		}
		return 0
	case KindBeam, KindTuplet:
		sum := 0
		for _, c := range n.Children {
			sum += c.Duration()
		}
		return sum
	}
	return 0
}

// Tree is a Score Tree rooted at a single Score node. Once a translator has
// built and validated a tree it is immutable; visitors may traverse it
// concurrently without synchronization.
type Tree struct {
	Root *Node
}

// NewTree creates a tree around a Score root node.
func NewTree(root *Node) *Tree {
	return &Tree{Root: root}
}

// Walk traverses the tree in document order (pre-order, children in their
// stored sequence), calling fn with each node and its depth. Traversal stops
// when fn returns false.
func (t *Tree) Walk(fn func(n *Node, depth int) bool) {
	if t == nil || t.Root == nil {
		return
	}
	walk(t.Root, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) bool {
	if !fn(n, depth) {
		return false
	}
	for _, c := range n.Children {
		if !walk(c, depth+1, fn) {
			return false
		}
	}
	return true
}

// NewScore creates a Score root node.
func NewScore(id string) *Node {
	n := NewNode(KindScore)
	n.ID = id
	return n
}

// NewPart creates a Part node.
func NewPart(id string) *Node {
	n := NewNode(KindPart)
	n.ID = id
	return n
}

// NewMeasure creates a Measure node.
func NewMeasure(number int, implicit bool) *Node {
	n := NewNode(KindMeasure)
	n.SetIntAttr(AttrNumber, number)
	if implicit {
		n.SetAttr(AttrImplicit, "yes")
	}
	return n
}

// NewVoice creates a Voice node.
func NewVoice(number int) *Node {
	n := NewNode(KindVoice)
	n.SetIntAttr(AttrVoice, number)
	return n
}

// NewBeam creates a Beam group node.
func NewBeam() *Node { return NewNode(KindBeam) }

// NewTuplet creates a Tuplet group node with an actual/normal ratio.
func NewTuplet(actual, normal int) *Node {
	n := NewNode(KindTuplet)
	n.SetIntAttr(AttrActual, actual)
	n.SetIntAttr(AttrNormal, normal)
	return n
}

// NewChord creates a Chord group node.
func NewChord() *Node { return NewNode(KindChord) }

// NewNote creates a Note node. Duration is in divisions.
func NewNote(step string, alter, octave, duration int) *Node {
	n := NewNode(KindNote)
	n.SetAttr(AttrStep, step)
	if alter != 0 {
		n.SetIntAttr(AttrAlter, alter)
	}
	n.SetIntAttr(AttrOctave, octave)
	n.SetIntAttr(AttrDuration, duration)
	return n
}

// NewRest creates a Rest node. Duration is in divisions.
func NewRest(duration int) *Node {
	n := NewNode(KindRest)
	n.SetIntAttr(AttrDuration, duration)
	return n
}

// NewClef creates a Clef node.
func NewClef(sign string, line int) *Node {
	n := NewNode(KindClef)
	n.SetAttr(AttrSign, sign)
	if line != 0 {
		n.SetIntAttr(AttrLine, line)
	}
	return n
}

// NewKey creates a Key node from a signature in fifths.
func NewKey(fifths int) *Node {
	n := NewNode(KindKey)
	n.SetIntAttr(AttrFifths, fifths)
	return n
}

// NewTime creates a Time node.
func NewTime(beats, beatType int) *Node {
	n := NewNode(KindTime)
	n.SetIntAttr(AttrBeats, beats)
	n.SetIntAttr(AttrBeatType, beatType)
	return n
}

// NewTie creates a Tie node referencing a cross-reference label.
func NewTie(side Side, ref string) *Node {
	n := NewNode(KindTie)
	n.SetAttr(AttrSide, string(side))
	n.SetAttr(AttrRef, ref)
	return n
}

// NewSlur creates a Slur node referencing a cross-reference label.
func NewSlur(side Side, ref string) *Node {
	n := NewNode(KindSlur)
	n.SetAttr(AttrSide, string(side))
	n.SetAttr(AttrRef, ref)
	return n
}

// NewBarline creates a Barline node.
func NewBarline(style string) *Node {
	n := NewNode(KindBarline)
	n.SetAttr(AttrStyle, style)
	return n
}

// NewDirection creates a Direction node carrying directive text.
func NewDirection(text string) *Node {
	n := NewNode(KindDirection)
	n.SetAttr(AttrText, text)
	return n
}
