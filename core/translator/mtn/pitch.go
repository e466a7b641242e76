package mtn

import (
	"strconv"

	cerr "github.com/comref/converter/core/errors"
)

// alterBySuffix maps the accidental spelling between step letter and octave
// digit to a chromatic alteration.
var alterBySuffix = map[string]int{
	"":   0,
	"#":  1,
	"##": 2,
	"x":  2,
	"b":  -1,
	"bb": -2,
}

// parsePitch splits a pitch token like "C4", "F#3" or "Ebb2" into its step,
// alteration and octave. The lexer guarantees the shape, so failures here
// mean the token carried an accidental spelling outside the table.
func parsePitch(s, position string) (step string, alter, octave int, err error) {
	if len(s) < 2 {
		return "", 0, 0, cerr.NewFormat("mtn", position, "pitch too short: "+s)
	}
	step = s[:1]
	octave, err = strconv.Atoi(s[len(s)-1:])
	if err != nil {
		return "", 0, 0, cerr.NewFormat("mtn", position, "bad octave in pitch "+s)
	}
	alter, ok := alterBySuffix[s[1:len(s)-1]]
	if !ok {
		return "", 0, 0, cerr.NewFormat("mtn", position, "bad accidental in pitch "+s)
	}
	return step, alter, octave, nil
}

// parseClef splits a clef spec like "G2" or "F4" into sign and line. Clef
// specs ride the pitch lexer rule, so an accidental in the middle is the
// failure mode to reject.
func parseClef(s, position string) (sign string, line int, err error) {
	if len(s) != 2 {
		return "", 0, cerr.NewFormat("mtn", position, "bad clef spec "+s)
	}
	line, err = strconv.Atoi(s[1:])
	if err != nil {
		return "", 0, cerr.NewFormat("mtn", position, "bad clef line in "+s)
	}
	return s[:1], line, nil
}
