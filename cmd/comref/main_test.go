package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ulikunitz/xz"

	"github.com/comref/converter/core/cache"
	cerr "github.com/comref/converter/core/errors"
	"github.com/comref/converter/core/translator"
)

const mtnSample = `score "demo" {
  part "P1" {
    measure 1 {
      attributes { divisions 1 time 4/4 }
      voice 1 {
        note C4 4 ;
      }
    }
  }
}
`

func TestOutputPath(t *testing.T) {
	for _, tc := range []struct {
		in   string
		to   translator.Format
		want string
	}{
		{"scores/a.musicxml", translator.FormatMTN, "out/a.mtn"},
		{"scores/a.musicxml.xz", translator.FormatMEI, "out/a.mei"},
		{"a.mtn", translator.FormatMusicXML, "out/a.musicxml"},
	} {
		got := outputPath("out", tc.in, tc.to)
		if got != filepath.FromSlash(tc.want) {
			t.Errorf("outputPath(%q, %s) = %q, want %q", tc.in, tc.to, got, tc.want)
		}
	}
}

func TestErrorKind(t *testing.T) {
	if k := errorKind(cerr.NewDurationMismatch("measure 1", "sum 5 != declared 4", "")); k != "duration-mismatch" {
		t.Errorf("errorKind = %q", k)
	}
	if k := errorKind(os.ErrNotExist); k != "other" {
		t.Errorf("errorKind = %q", k)
	}
}

func TestReadInputXZ(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "score.mtn.xz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w, err := xz.NewWriter(f)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(mtnSample)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := readInput(path)
	if err != nil {
		t.Fatalf("readInput: %v", err)
	}
	if string(got) != mtnSample {
		t.Errorf("decompressed content differs")
	}
}

func TestConvertOne(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "demo.mtn")
	if err := os.WriteFile(in, []byte(mtnSample), 0o644); err != nil {
		t.Fatal(err)
	}

	trees := cache.NewDefaultTreeCache()
	res := convertOne(in, translator.FormatMTN, translator.FormatMusicXML, dir, trees)
	if res.Err != nil {
		t.Fatalf("convertOne: %v", res.Err)
	}
	out, err := os.ReadFile(res.Output)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(out), "<score-partwise") {
		t.Errorf("output is not MusicXML:\n%s", out)
	}
	if res.Hash == "" {
		t.Error("input hash not recorded")
	}

	// second conversion of the same bytes hits the tree cache
	res2 := convertOne(in, translator.FormatMTN, translator.FormatMEI, dir, trees)
	if res2.Err != nil {
		t.Fatalf("second convertOne: %v", res2.Err)
	}
	if trees.Stats().Hits != 1 {
		t.Errorf("cache stats = %+v", trees.Stats())
	}
}

func TestConvertOneFailure(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.mtn")
	bad := strings.Replace(mtnSample, "note C4 4 ;", "note C4 3 ;", 1)
	if err := os.WriteFile(in, []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}

	res := convertOne(in, translator.FormatMTN, translator.FormatMEI, dir, cache.NewDefaultTreeCache())
	if res.Err == nil {
		t.Fatal("expected conversion failure")
	}
	if res.ErrorKind != "duration-mismatch" {
		t.Errorf("error kind = %q, want duration-mismatch", res.ErrorKind)
	}
}

func TestRunIndex(t *testing.T) {
	dir := t.TempDir()
	idx, err := openIndex(filepath.Join(dir, "runs.db"))
	if err != nil {
		t.Fatalf("openIndex: %v", err)
	}
	defer idx.Close()

	ok := fileResult{Path: "a.mtn", Hash: "abc", Output: "a.mei"}
	fail := fileResult{Path: "b.mtn", Hash: "def", Err: os.ErrInvalid, ErrorKind: "malformed-source"}
	if err := idx.Record("11112222-0000-0000-0000-000000000000", "mtn", "mei", ok); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := idx.Record("11112222-0000-0000-0000-000000000000", "mtn", "mei", fail); err != nil {
		t.Fatalf("Record: %v", err)
	}

	rows, err := idx.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	joined := strings.Join(rows, "\n")
	if !strings.Contains(joined, "a.mtn mtn->mei ok") {
		t.Errorf("missing ok row in:\n%s", joined)
	}
	if !strings.Contains(joined, "(malformed-source)") {
		t.Errorf("missing failure kind in:\n%s", joined)
	}
}
