package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	mg "github.com/reoring/modelgraph"
	"github.com/reoring/modelgraph/i18n"
	"github.com/reoring/modelgraph/internal/logger"
)

func main() {
	logger.Initialize()
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	sub := os.Args[1]
	switch sub {
	case "fmt":
		fmtCmd(os.Args[2:])
	case "check":
		checkCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "modelgraph CLI\n\nUsage:\n  modelgraph fmt [-in file] [-yaml] [-indent \"  \"] [-o out.json]\n  modelgraph check [-in file] [-yaml] [-strict] [-max-depth N] [-max-bytes N] [-lang en|ja]\n\nNotes:\n  - Input defaults to stdin; files ending in .yaml or .yml are read as YAML.\n  - Set MODELGRAPH_LOGLEVEL=debug or trace for diagnostics.")
}

type inputFlags struct {
	in   string
	yaml bool
}

func (f *inputFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.in, "in", "", "input file (default stdin)")
	fs.BoolVar(&f.yaml, "yaml", false, "read the input as YAML")
}

func (f *inputFlags) source() mg.Source {
	var data []byte
	var err error
	if f.in == "" || f.in == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(f.in)
	}
	if err != nil {
		fatalf("reading input: %v", err)
	}
	ext := strings.ToLower(filepath.Ext(f.in))
	if f.yaml || ext == ".yaml" || ext == ".yml" {
		return mg.YAMLBytes(data)
	}
	return mg.JSONBytes(data)
}

// fmtCmd rewrites a document as JSON. Numbers keep their literal text and
// object keys come out sorted.
func fmtCmd(args []string) {
	fs := flag.NewFlagSet("fmt", flag.ExitOnError)
	var in inputFlags
	var indent, out string
	in.register(fs)
	fs.StringVar(&indent, "indent", "  ", "indentation per level; empty for compact output")
	fs.StringVar(&out, "o", "", "output filename (default stdout)")
	_ = fs.Parse(args)

	v, c := mg.LoadValue(mg.Any(), in.source(), mg.DefaultLoadOpt())
	if !c.Accepts(mg.SeverityError) {
		printSummary(c)
		os.Exit(1)
	}
	buf := append(mg.SaveValue(mg.Any(), v, mg.SaveOpt{Indent: indent}), '\n')
	if out == "" {
		_, _ = os.Stdout.Write(buf)
		return
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		fatalf("creating output dir: %v", err)
	}
	if err := os.WriteFile(out, buf, 0o644); err != nil {
		fatalf("writing output: %v", err)
	}
}

// checkCmd loads a document and reports what the collector saw. The exit
// status is 1 when the load would not be accepted at SeverityError.
func checkCmd(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	var in inputFlags
	var strict bool
	var lang string
	opt := mg.DefaultLoadOpt()
	in.register(fs)
	fs.BoolVar(&strict, "strict", false, "treat duplicate keys as critical")
	fs.IntVar(&opt.MaxDepth, "max-depth", 0, "maximum nesting depth (0 = unlimited)")
	fs.Int64Var(&opt.MaxBytes, "max-bytes", 0, "maximum input size in bytes (0 = unlimited)")
	fs.StringVar(&lang, "lang", "en", "message language (en|ja)")
	_ = fs.Parse(args)

	i18n.SetLanguage(lang)
	if strict {
		opt.Strictness.OnDuplicateKey = mg.SeverityCritical
	}
	_, c := mg.LoadValue(mg.Any(), in.source(), opt)
	printSummary(c)
	if !c.Accepts(mg.SeverityError) {
		os.Exit(1)
	}
}

func printSummary(c *mg.ErrorCollector) {
	fmt.Fprintf(os.Stderr, "severity: %s\n", c.Severity())
	for _, line := range c.Summary() {
		if line.Count > 1 {
			fmt.Fprintf(os.Stderr, "  %s: %s (x%d)\n", line.Severity, line.Message, line.Count)
			continue
		}
		fmt.Fprintf(os.Stderr, "  %s: %s\n", line.Severity, line.Message)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
