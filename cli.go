package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/strager/jackc/ast"
	"github.com/strager/jackc/compiler"
	"github.com/strager/jackc/diag"
	"github.com/strager/jackc/logger"
	"github.com/strager/jackc/sexy"
)

const sourceExt = ".jast"

func showUsage(w io.Writer) {
	fmt.Fprintf(w, `jackc - compiles Jack class trees to VM code

Usage:
    jackc <command> [arguments]

Commands:
    build <dir|files>    Compile class trees (.jast) to a .vm file
    check <dir|files>    Type-check class trees without writing code
    symbols <dir|files>  Print the symbol table with storage slots
    verify <cases.md>    Run markdown test cases and report the results
    help                 Show this help message

Examples:
    jackc build -os -o Pong.vm pong/
    jackc check Main.jast Ball.jast
    jackc symbols -os pong/
    jackc verify compiler/testdata/codegen_test.md

Use "jackc <command> -h" for more information about a command.
`)
}

// commonFlags are accepted by every subcommand.
type commonFlags struct {
	verbose   *bool
	logLevel  *string
	logFormat *string
	logFile   *string
	osLibrary *bool
}

func newFlagSet(name, usage, summary string, stderr io.Writer) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	common := &commonFlags{
		verbose:   fs.Bool("v", false, "Log compilation details (same as -log-level debug)"),
		logLevel:  fs.String("log-level", "warn", "Log level: debug, info, warn or error"),
		logFormat: fs.String("log-format", "text", "Log format: text or json"),
		logFile:   fs.String("log-file", "", "Append logs to this file instead of stderr"),
		osLibrary: fs.Bool("os", false, "Declare the standard OS classes"),
	}
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: jackc %s %s\n", name, usage)
		fmt.Fprintf(stderr, "%s\n\n", summary)
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	return fs, common
}

func (c *commonFlags) initLogger(stderr io.Writer) (io.Closer, error) {
	cfg := logger.DefaultConfig()
	level, err := logger.ParseLevel(*c.logLevel)
	if err != nil {
		return nil, err
	}
	cfg.Level = level
	if *c.verbose {
		cfg.Level = slog.LevelDebug
	}
	cfg.Format = *c.logFormat
	cfg.Output = stderr
	cfg.LogFile = *c.logFile
	return logger.Init(cfg)
}

func (c *commonFlags) options() compiler.Options {
	return compiler.Options{OSLibrary: *c.osLibrary}
}

// sourceFiles expands directories into the class tree files they contain.
func sourceFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if filepath.Ext(arg) != sourceExt {
				logger.Warn("Input does not have the class tree extension", "file", arg, "want", sourceExt)
			}
			files = append(files, arg)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(arg, "*"+sourceExt))
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no %s files in %s", sourceExt, arg)
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	return files, nil
}

func loadClasses(args []string) ([]*ast.Node, error) {
	files, err := sourceFiles(args)
	if err != nil {
		return nil, err
	}

	var classes []*ast.Node
	for _, file := range files {
		logger.Debug("Reading class trees", "file", file)
		source, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		decoded, err := ast.Decode(string(source))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		classes = append(classes, decoded...)
	}
	return classes, nil
}

// defaultOutput names the .vm file after the first input.
func defaultOutput(input string) string {
	if info, err := os.Stat(input); err == nil && info.IsDir() {
		clean := filepath.Clean(input)
		return filepath.Join(clean, filepath.Base(clean)+".vm")
	}
	return strings.TrimSuffix(input, sourceExt) + ".vm"
}

// reportFailure prints diagnostics as a list and other errors as a message.
func reportFailure(stderr io.Writer, what string, err error) {
	var diagErr *diag.Error
	if errors.As(err, &diagErr) {
		fmt.Fprintf(stderr, "%s failed with %d errors:\n%s\n", what, len(diagErr.Diagnostics()), err)
		return
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
}

func buildCommand(args []string, stdout, stderr io.Writer) int {
	fs, common := newFlagSet("build", "[-o output] [-os] [-v] <dir|files>", "Compile class trees to VM code", stderr)
	output := fs.String("o", "", "Output file path (default: named after the first input)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(stderr, "Error: expected at least one file or directory\n")
		fs.Usage()
		return 2
	}
	closer, err := common.initLogger(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer closer.Close()

	outputFile := *output
	if outputFile == "" {
		outputFile = defaultOutput(fs.Arg(0))
	}

	classes, err := loadClasses(fs.Args())
	if err != nil {
		reportFailure(stderr, "Loading", err)
		return 1
	}
	code, err := compiler.Compile(classes, common.options())
	if err != nil {
		reportFailure(stderr, "Compilation", err)
		return 1
	}

	if err := os.WriteFile(outputFile, []byte(code), 0644); err != nil {
		fmt.Fprintf(stderr, "Error writing VM file %s: %v\n", outputFile, err)
		return 1
	}

	instructions := strings.Count(code, "\n")
	logger.Info("Wrote VM file", "file", outputFile, "classes", len(classes), "instructions", instructions)
	fmt.Fprintf(stdout, "Generated %s (%d instructions)\n", outputFile, instructions)
	return 0
}

func checkCommand(args []string, stdout, stderr io.Writer) int {
	fs, common := newFlagSet("check", "[-os] [-v] <dir|files>", "Type-check class trees without writing code", stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(stderr, "Error: expected at least one file or directory\n")
		fs.Usage()
		return 2
	}
	closer, err := common.initLogger(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer closer.Close()

	classes, err := loadClasses(fs.Args())
	if err != nil {
		reportFailure(stderr, "Loading", err)
		return 1
	}
	if _, err := compiler.Compile(classes, common.options()); err != nil {
		reportFailure(stderr, "Checking", err)
		return 1
	}

	fmt.Fprintf(stdout, "%d classes: no errors found\n", len(classes))
	return 0
}

func symbolsCommand(args []string, stdout, stderr io.Writer) int {
	fs, common := newFlagSet("symbols", "[-os] [-v] <dir|files>", "Print the symbol table with storage slots", stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(stderr, "Error: expected at least one file or directory\n")
		fs.Usage()
		return 2
	}
	closer, err := common.initLogger(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer closer.Close()

	classes, err := loadClasses(fs.Args())
	if err != nil {
		reportFailure(stderr, "Loading", err)
		return 1
	}
	table, err := compiler.BuildSymbolTable(classes, common.options())
	if err != nil {
		reportFailure(stderr, "Symbol table", err)
		return 1
	}

	fmt.Fprint(stdout, table.Dump())
	return 0
}

func verifyCommand(args []string, stdout, stderr io.Writer) int {
	fs, common := newFlagSet("verify", "[-v] <cases.md>...", "Run markdown test cases and report the results", stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(stderr, "Error: expected at least one markdown file\n")
		fs.Usage()
		return 2
	}
	closer, err := common.initLogger(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer closer.Close()

	passed, failed := 0, 0
	for _, file := range fs.Args() {
		content, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(stderr, "Error reading file %s: %v\n", file, err)
			return 1
		}
		testCases, err := sexy.ExtractTestCases(string(content))
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", file, err)
			return 1
		}

		for _, tc := range testCases {
			result := compiler.RunCase(tc)
			var failures []string
			for _, assertion := range tc.Assertions {
				if err := result.Check(assertion); err != nil {
					failures = append(failures, fmt.Sprintf("%s: %v", assertion.Type, err))
				}
			}
			if len(failures) == 0 {
				passed++
				logger.Debug("Case passed", "file", file, "case", tc.Name)
				fmt.Fprintf(stdout, "PASS %s: %s\n", file, tc.Name)
				continue
			}
			failed++
			fmt.Fprintf(stdout, "FAIL %s:%d: %s\n", file, tc.Line, tc.Name)
			for _, f := range failures {
				fmt.Fprintf(stdout, "    %s\n", strings.ReplaceAll(f, "\n", "\n    "))
			}
		}
	}

	fmt.Fprintf(stdout, "%d passed, %d failed\n", passed, failed)
	if failed > 0 {
		return 1
	}
	return 0
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		showUsage(stderr)
		return 2
	}

	command, rest := args[0], args[1:]
	switch command {
	case "build":
		return buildCommand(rest, stdout, stderr)
	case "check":
		return checkCommand(rest, stdout, stderr)
	case "symbols":
		return symbolsCommand(rest, stdout, stderr)
	case "verify":
		return verifyCommand(rest, stdout, stderr)
	case "help", "-h", "--help":
		showUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", command)
		showUsage(stderr)
		return 2
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
