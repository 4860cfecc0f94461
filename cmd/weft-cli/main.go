// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"weft/grammar"
	"weft/internal/cfg"
	"weft/internal/directory"
	"weft/internal/errors"
	"weft/internal/lower"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	path       string
	configPath string
	verbosity  int
	noColor    bool
	effects    bool
	summary    bool
}

func parseArgs(args []string, stderr io.Writer) (*options, bool) {
	flagSet := flag.NewFlagSet("weft-cli", flag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.Usage = func() {
		fmt.Fprint(stderr, `
weft-cli - translate a weft source file into control-flow graphs.

Usage:
  weft-cli [options] <file.wf>

The externs and output settings are read from weft.hcl next to the source
file unless -config names another file.

Options:
`)
		flagSet.PrintDefaults()
	}

	opts := &options{}
	flagSet.StringVar(&opts.configPath, "config", "", "Path to the weft.hcl configuration file.")
	flagSet.IntVar(&opts.verbosity, "v", 0, "Log verbosity; 1 shows info messages, 2 shows debug messages.")
	flagSet.BoolVar(&opts.noColor, "no-color", false, "Disable colored graph output.")
	flagSet.BoolVar(&opts.effects, "effects", false, "Annotate statements with their effects.")
	flagSet.BoolVar(&opts.summary, "summary", false, "Print the exit summary of every graph.")

	if err := flagSet.Parse(args); err != nil {
		return nil, false
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return nil, false
	}
	opts.path = flagSet.Arg(0)
	return opts, true
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, ok := parseArgs(args, stderr)
	if !ok {
		return 2
	}
	if opts.verbosity > 0 {
		commonlog.Configure(opts.verbosity, nil)
	}

	startTime := time.Now()
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)

	config, dir, ok := loadConfig(opts, stderr)
	if !ok {
		red.Fprintf(stderr, "Compilation failed after %s\n", formatDuration(time.Since(startTime)))
		return 1
	}

	program, err := grammar.ParseFile(opts.path)
	if err != nil {
		pos, msg, ok := grammar.ErrorPosition(err)
		if !ok {
			fmt.Fprintln(stderr, msg)
			return 1
		}
		fmt.Fprint(stderr, reporterFor(opts.path).FormatError(errors.SyntaxError(msg, pos)))
		red.Fprintf(stderr, "Compilation failed after %s\n", formatDuration(time.Since(startTime)))
		return 1
	}

	out := lower.Lower(program, dir)
	problems := append(append([]errors.CompilerError{}, out.Problems...), out.Validate()...)
	if len(problems) > 0 {
		fmt.Fprint(stderr, reporterFor(opts.path).FormatAll(problems))
	}
	failed := false
	for _, p := range problems {
		if !p.IsWarning() {
			failed = true
		}
	}

	duration := formatDuration(time.Since(startTime))
	if failed {
		red.Fprintf(stderr, "Compilation failed after %s\n", duration)
		return 1
	}

	output := config.Output
	render(stdout, out, cfg.PrinterOptions{
		Color:   output.Color && !opts.noColor,
		Effects: output.Effects || opts.effects,
	}, output.Summary || opts.summary)

	green.Fprintf(stdout, "Successfully processed %s in %s\n", opts.path, duration)
	return 0
}

// loadConfig reads the configuration named by -config, or weft.hcl next
// to the source file. Without either the default configuration is used.
func loadConfig(opts *options, stderr io.Writer) (*directory.Config, *directory.Directory, bool) {
	path := opts.configPath
	if path == "" {
		candidate := filepath.Join(filepath.Dir(opts.path), "weft.hcl")
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if path == "" {
		return directory.Default(), directory.New(), true
	}

	config, err := directory.LoadFile(path)
	var dir *directory.Directory
	if err == nil {
		dir, err = directory.FromConfig(config)
	}
	if err != nil {
		fmt.Fprint(stderr, reporterFor(path).FormatAll(directory.Problems(err)))
		return nil, nil, false
	}
	return config, dir, true
}

// reporterFor reads path again so problems can be shown in context. The
// file is only read when there is something to report.
func reporterFor(path string) *errors.ErrorReporter {
	source, _ := os.ReadFile(path)
	return errors.NewErrorReporter(path, string(source))
}

// render prints every graph in source order, each function followed by
// its nested functions.
func render(w io.Writer, out *lower.Output, opts cfg.PrinterOptions, summary bool) {
	for i, fn := range out.Functions {
		if i > 0 {
			fmt.Fprintln(w)
		}
		printer := cfg.NewPrinter(opts)
		printer.PrintResult(fn.Result)
		fmt.Fprint(w, printer.String())
		if summary {
			fmt.Fprintln(w)
			for _, g := range append([]*cfg.CFG{fn.Result.CFG}, fn.Result.Aux...) {
				fmt.Fprintln(w, formatSummary(cfg.Summarize(g)))
			}
		}
	}
}

func formatSummary(s *cfg.Summary) string {
	line := fmt.Sprintf("; %s: entry %s, success %s, failure %s",
		s.Name, blockList([]cfg.BlockID{s.Entry}), blockList(s.SuccessExits), blockList(s.FailureExits))
	if len(s.Unreachable) > 0 {
		line += ", unreachable " + blockList(s.Unreachable)
	}
	return line
}

func blockList(ids []cfg.BlockID) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("block%d", id)
	}
	return strings.Join(parts, " ")
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%.2fmin", d.Minutes())
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1000000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}
