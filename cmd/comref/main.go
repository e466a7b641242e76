// Command comref converts Common Western Music Notation scores between
// MusicXML-like, MEI-like and compact text notation through a shared score
// tree, and derives analysis outputs from parsed scores.
package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/comref/converter/core/cache"
	"github.com/comref/converter/core/convert"
	cerr "github.com/comref/converter/core/errors"
	"github.com/comref/converter/core/translator"
	"github.com/comref/converter/core/visitor"
)

const version = "0.1.0"

// CLI defines the command-line interface for comref.
var CLI struct {
	Convert ConvertCmd `cmd:"" help:"Convert score files between formats"`
	Inspect InspectCmd `cmd:"" help:"Derive an analysis output from one score file"`
	Stats   StatsCmd   `cmd:"" help:"Aggregate node counts over a corpus"`
	Runs    RunsCmd    `cmd:"" help:"List recorded conversion runs from an index database"`
	Formats FormatsCmd `cmd:"" help:"List supported formats and visitor kinds"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// ConvertCmd converts a batch of score files between formats.
type ConvertCmd struct {
	Paths   []string `arg:"" help:"Score files to convert (.xz accepted)" type:"existingfile"`
	From    string   `required:"" help:"Source format (mtn, musicxml, mei)"`
	To      string   `required:"" help:"Target format (mtn, musicxml, mei)"`
	OutDir  string   `name:"out-dir" default:"." help:"Output directory" type:"path"`
	Workers int      `default:"4" help:"Parallel conversion workers"`
	Index   string   `help:"SQLite database recording run outcomes" type:"path"`
}

// fileResult is the outcome of converting one input file.
type fileResult struct {
	Path      string
	Hash      string
	Output    string
	ErrorKind string
	Err       error
}

func (c *ConvertCmd) Run() error {
	from, to, err := formatPair(c.From, c.To)
	if err != nil {
		return err
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if err := os.MkdirAll(c.OutDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	runID := uuid.New().String()
	trees := cache.NewDefaultTreeCache()

	jobs := make(chan string)
	results := make(chan fileResult)
	var wg sync.WaitGroup
	for i := 0; i < c.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results <- convertOne(path, from, to, c.OutDir, trees)
			}
		}()
	}
	go func() {
		for _, path := range c.Paths {
			jobs <- path
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	var all []fileResult
	for res := range results {
		all = append(all, res)
	}

	report(os.Stdout, runID, all)

	if c.Index != "" {
		idx, err := openIndex(c.Index)
		if err != nil {
			return err
		}
		defer idx.Close()
		for _, res := range all {
			if err := idx.Record(runID, string(from), string(to), res); err != nil {
				return err
			}
		}
	}

	for _, res := range all {
		if res.Err != nil {
			return fmt.Errorf("%d of %d files failed", countFailed(all), len(all))
		}
	}
	return nil
}

// convertOne runs a single file through one parse/emit pass. Failures are
// isolated: each file gets fresh translator state, and the tree cache keyed
// by input hash skips reparsing repeated sources.
func convertOne(path string, from, to translator.Format, outDir string, trees *cache.TreeCache) fileResult {
	res := fileResult{Path: path}

	src, err := readInput(path)
	if err != nil {
		res.Err = err
		res.ErrorKind = "io"
		return res
	}
	sum := blake3.Sum256(src)
	res.Hash = hex.EncodeToString(sum[:])

	tree, ok := trees.Get(res.Hash)
	if !ok {
		tree, err = convert.Parse(from, src)
		if err != nil {
			res.Err = err
			res.ErrorKind = errorKind(err)
			return res
		}
		trees.Put(res.Hash, tree)
	}

	out, err := convert.Emit(to, tree)
	if err != nil {
		res.Err = err
		res.ErrorKind = errorKind(err)
		return res
	}

	res.Output = outputPath(outDir, path, to)
	if err := os.WriteFile(res.Output, out, 0o644); err != nil {
		res.Err = err
		res.ErrorKind = "io"
	}
	return res
}

// report prints the run feedback: per-file outcomes and an aggregation of
// failures by error kind.
func report(w io.Writer, runID string, results []fileResult) {
	byKind := make(map[string]int)
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			byKind[res.ErrorKind]++
			fmt.Fprintf(w, "FAIL %s: %v\n", res.Path, res.Err)
		} else {
			fmt.Fprintf(w, "ok   %s -> %s\n", res.Path, res.Output)
		}
	}
	fmt.Fprintf(w, "run %s: %d converted, %d failed\n", runID, len(results)-failed, failed)
	for _, kind := range sortedKeys(byKind) {
		fmt.Fprintf(w, "  %s: %d\n", kind, byKind[kind])
	}
}

// InspectCmd derives one analysis output from a score file.
type InspectCmd struct {
	Path string `arg:"" help:"Score file (.xz accepted)" type:"existingfile"`
	From string `required:"" help:"Source format (mtn, musicxml, mei)"`
	Kind string `default:"counts" help:"Output kind (tokens, counts, notes, dot, tree-edit, sequence, mei, musicxml)"`
}

func (c *InspectCmd) Run() error {
	format := translator.Format(c.From)
	if !format.IsValid() {
		return fmt.Errorf("unknown format %q", c.From)
	}
	kind := visitor.Kind(c.Kind)
	if !kind.IsValid() {
		return fmt.Errorf("unknown output kind %q", c.Kind)
	}

	src, err := readInput(c.Path)
	if err != nil {
		return err
	}
	out, err := convert.Visit(format, kind, src)
	if err != nil {
		return err
	}

	switch {
	case out.Counts != nil:
		fmt.Print(out.Counts.String())
	case out.Tokens != nil:
		fmt.Println(strings.Join(out.Tokens, " "))
	case out.Notes != nil:
		for _, ev := range out.Notes {
			fmt.Printf("%s/%d v%d @%d %s/%d\n",
				ev.Part, ev.Measure, ev.Voice, ev.Onset, ev.Pitch, ev.Duration)
		}
	default:
		os.Stdout.Write(out.Bytes)
	}
	return nil
}

// StatsCmd aggregates node counts over a corpus of score files.
type StatsCmd struct {
	Paths []string `arg:"" help:"Score files (.xz accepted)" type:"existingfile"`
	From  string   `required:"" help:"Source format (mtn, musicxml, mei)"`
}

func (c *StatsCmd) Run() error {
	format := translator.Format(c.From)
	if !format.IsValid() {
		return fmt.Errorf("unknown format %q", c.From)
	}

	total := visitor.NewCountReport()
	files := 0
	for _, path := range c.Paths {
		src, err := readInput(path)
		if err != nil {
			return err
		}
		out, err := convert.Visit(format, visitor.KindNodeCounts, src)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		total.Merge(out.Counts)
		files++
	}
	fmt.Printf("%d files\n%s", files, total.String())
	return nil
}

// RunsCmd lists recorded conversion runs from an index database.
type RunsCmd struct {
	Index string `required:"" help:"SQLite index database" type:"existingfile"`
}

func (c *RunsCmd) Run() error {
	idx, err := openIndex(c.Index)
	if err != nil {
		return err
	}
	defer idx.Close()

	rows, err := idx.List()
	if err != nil {
		return err
	}
	for _, row := range rows {
		fmt.Println(row)
	}
	return nil
}

// FormatsCmd lists supported formats and visitor kinds.
type FormatsCmd struct{}

func (c *FormatsCmd) Run() error {
	fmt.Print("formats:")
	for _, f := range convert.Formats() {
		fmt.Printf(" %s", f)
	}
	fmt.Print("\noutputs:")
	for _, k := range visitor.Kinds() {
		fmt.Printf(" %s", k)
	}
	fmt.Println()
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("comref %s\n", version)
	return nil
}

// readInput reads a score file, transparently decompressing .xz inputs.
func readInput(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".xz") {
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("opening xz stream %s: %w", path, err)
		}
		r = xr
	}
	return io.ReadAll(r)
}

// outputPath derives the output file name: input base name with .xz and the
// source extension stripped, plus the target format's extension.
func outputPath(outDir, inPath string, to translator.Format) string {
	base := filepath.Base(inPath)
	base = strings.TrimSuffix(base, ".xz")
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outDir, base+"."+string(to))
}

// errorKind extracts the stable taxonomy tag from a conversion error.
func errorKind(err error) string {
	var ce cerr.ConversionError
	if cerr.As(err, &ce) {
		return string(ce.ErrorKind())
	}
	return "other"
}

func formatPair(from, to string) (translator.Format, translator.Format, error) {
	f := translator.Format(from)
	if !f.IsValid() {
		return "", "", fmt.Errorf("unknown source format %q", from)
	}
	t := translator.Format(to)
	if !t.IsValid() {
		return "", "", fmt.Errorf("unknown target format %q", to)
	}
	return f, t, nil
}

func countFailed(results []fileResult) int {
	n := 0
	for _, res := range results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("comref"),
		kong.Description("Music notation converter over a shared score tree"),
		kong.UsageOnError(),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
