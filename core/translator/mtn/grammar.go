package mtn

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// mtnLexer tokenizes compact notation source. The Pitch rule precedes Ident
// so that "C4" or "F#3" never lexes as an identifier; clef specs like "G2"
// ride the same rule.
var mtnLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Name: "Pitch", Pattern: `[A-G](?:#{1,2}|b{1,2}|x)?\d`},
	{Name: "Int", Pattern: `-?\d+`},
	{Name: "Ident", Pattern: `[a-zA-Z][a-zA-Z0-9_-]*`},
	{Name: "Punct", Pattern: `[{}=:/;]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// mtnParser parses a whole score file.
var mtnParser = participle.MustBuild[scoreFile](
	participle.Lexer(mtnLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
)

// scoreFile is the grammar root: one score block holding parts.
//
//nolint:govet // participle grammar tags are not standard struct tags
type scoreFile struct {
	ID    string       `"score" @String "{"`
	Parts []*partBlock `@@* "}"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type partBlock struct {
	ID       string          `"part" @String "{"`
	Measures []*measureBlock `@@* "}"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type measureBlock struct {
	Pos      lexer.Position
	Number   int            `"measure" @Int`
	Implicit bool           `@"implicit"? "{"`
	Items    []*measureItem `@@* "}"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type measureItem struct {
	Attributes *attributesBlock `  @@`
	Voice      *voiceBlock      `| @@`
	Direction  *string          `| "direction" @String`
	Barline    *string          `| "barline" @Ident`
}

//nolint:govet // participle grammar tags are not standard struct tags
type attributesBlock struct {
	Entries []*attrEntry `"attributes" "{" @@* "}"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type attrEntry struct {
	Pos       lexer.Position
	Divisions *int      `  "divisions" @Int`
	Clef      *string   `| "clef" @Pitch`
	Key       *int      `| "key" @Int`
	Time      *timeSpec `| @@`
}

//nolint:govet // participle grammar tags are not standard struct tags
type timeSpec struct {
	Beats    int `"time" @Int "/"`
	BeatType int `@Int`
}

//nolint:govet // participle grammar tags are not standard struct tags
type voiceBlock struct {
	Pos    lexer.Position
	Number int          `"voice" @Int "{"`
	Items  []*voiceItem `@@* "}"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type voiceItem struct {
	Note   *noteStmt    `  @@`
	Rest   *restStmt    `| @@`
	Chord  *chordBlock  `| @@`
	Beam   *beamBlock   `| @@`
	Tuplet *tupletBlock `| @@`
}

// noteStmt is one pitched event: "note C4 2 id=n1 tie=start:t1 ;".
//
//nolint:govet // participle grammar tags are not standard struct tags
type noteStmt struct {
	Pos      lexer.Position
	Pitch    string     `"note" @Pitch`
	Duration int        `@Int`
	Options  []*noteOpt `@@* ";"`
}

// noteOpt values accept pitch, number and quoted-string tokens besides plain
// identifiers, so ids imported from other notations survive re-emission.
//
//nolint:govet // participle grammar tags are not standard struct tags
type noteOpt struct {
	Pos   lexer.Position
	Key   string  `@Ident "="`
	Value string  `@(Ident | Pitch | Int | String)`
	Ref   *string `( ":" @Ident )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type restStmt struct {
	Pos      lexer.Position
	Duration int `"rest" @Int ";"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type chordBlock struct {
	Pos   lexer.Position
	Notes []*noteStmt `"chord" "{" @@* "}"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type beamBlock struct {
	Pos   lexer.Position
	Items []*voiceItem `"beam" "{" @@* "}"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type tupletBlock struct {
	Pos    lexer.Position
	Actual int          `"tuplet" @Int "/"`
	Normal int          `@Int "{"`
	Items  []*voiceItem `@@* "}"`
}
