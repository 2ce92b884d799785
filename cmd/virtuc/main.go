package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/huangsam/virtuc/internal/ast"
	"github.com/huangsam/virtuc/internal/ir"
	"github.com/huangsam/virtuc/internal/logger"
	"github.com/huangsam/virtuc/internal/parser"
	"github.com/huangsam/virtuc/internal/semantic"
	"github.com/huangsam/virtuc/internal/vm"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]

	switch cmd {
	case "run":
		code, err := cmdRun(os.Args[2:])
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		os.Exit(code)
	case "build":
		if err := cmdBuild(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	case "check":
		if err := cmdCheck(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		usage()
	case "version", "-v", "--version":
		fmt.Println("virtuc", version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`VirtuC compiler and virtual machine

Usage:
  virtuc run <file.c|file.vcb> [-verbose] [-max-steps n]
  virtuc build <file.c> [-o out.vcb] [-verbose]
  virtuc check <file.c> [-ast] [-verbose]

Commands:
  run      Compile+run .c source or run .vcb bytecode
  build    Compile .c source into a .vcb bytecode file
  check    Parse and analyze without running
  version  VirtuC version

Flags:
  -o          Output file name for build (default: <input>.vcb)
  -ast        Print the syntax tree during check
  -max-steps  Abort run after n instructions (0 = unlimited)
  -verbose    Enable debug logging
  -no-color   Disable colored log output`)
}

func cmdRun(args []string) (int, error) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var maxSteps int
	var verbose, noColor bool
	fs.IntVar(&maxSteps, "max-steps", 0, "abort after n instructions (0 = unlimited)")
	fs.BoolVar(&verbose, "verbose", false, "enable debug logging")
	fs.BoolVar(&noColor, "no-color", false, "disable colored log output")

	if err := fs.Parse(args); err != nil {
		return 1, err
	}
	logger.Init(verbose, noColor)

	if fs.NArg() < 1 {
		return 1, fmt.Errorf("run: missing input file")
	}
	input := fs.Arg(0)

	var prog *ir.Program
	switch filepath.Ext(input) {
	case ".c":
		p, err := compileSourceFile(input)
		if err != nil {
			return 1, err
		}
		prog = p
	case ".vcb":
		p, err := ir.ReadProgramFromFile(input)
		if err != nil {
			return 1, fmt.Errorf("failed to read bytecode: %w", err)
		}
		prog = p
	default:
		return 1, fmt.Errorf("run: unsupported file extension %q (use .c or .vcb)", filepath.Ext(input))
	}

	machine := vm.New(prog, vm.WithMaxSteps(maxSteps))
	result, err := machine.Run()
	if err != nil {
		return 1, err
	}
	log.Debug("program finished", "result", result.String())

	// main's int result becomes the process exit code.
	return int(result.Int) & 0xFF, nil
}

func cmdBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var out string
	var verbose, noColor bool
	fs.StringVar(&out, "o", "", "output file (default: <input>.vcb)")
	fs.BoolVar(&verbose, "verbose", false, "enable debug logging")
	fs.BoolVar(&noColor, "no-color", false, "disable colored log output")

	if err := fs.Parse(args); err != nil {
		return err
	}
	logger.Init(verbose, noColor)

	if fs.NArg() < 1 {
		return fmt.Errorf("build: missing input file")
	}
	input := fs.Arg(0)

	if filepath.Ext(input) != ".c" {
		return fmt.Errorf("build: input must be a .c source file")
	}

	if out == "" {
		base := input[:len(input)-len(filepath.Ext(input))]
		out = base + ".vcb"
	}

	prog, err := compileSourceFile(input)
	if err != nil {
		return err
	}

	if err := ir.WriteProgramToFile(out, prog); err != nil {
		return fmt.Errorf("failed to write bytecode: %w", err)
	}
	log.Debug("wrote bytecode", "file", out, "instructions", len(prog.Code))

	return nil
}

func cmdCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var dumpAST bool
	var verbose, noColor bool
	fs.BoolVar(&dumpAST, "ast", false, "print the syntax tree")
	fs.BoolVar(&verbose, "verbose", false, "enable debug logging")
	fs.BoolVar(&noColor, "no-color", false, "disable colored log output")

	if err := fs.Parse(args); err != nil {
		return err
	}
	logger.Init(verbose, noColor)

	if fs.NArg() < 1 {
		return fmt.Errorf("check: missing input file")
	}
	input := fs.Arg(0)

	prog, err := parseSourceFile(input)
	if err != nil {
		return err
	}

	if dumpAST {
		fmt.Print(ast.Dump(prog))
	}

	if errs := semantic.Analyze(prog); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "%s\n", e)
		}
		return fmt.Errorf("analysis failed with %d errors", len(errs))
	}

	return nil
}

func parseSourceFile(path string) (*ast.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parser.Parse(string(src))
}

// compileSourceFile runs the full pipeline from source to bytecode.
func compileSourceFile(path string) (*ir.Program, error) {
	prog, err := parseSourceFile(path)
	if err != nil {
		return nil, err
	}

	if errs := semantic.Analyze(prog); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "%s\n", e)
		}
		return nil, fmt.Errorf("analysis failed with %d errors", len(errs))
	}

	return ir.Compile(prog), nil
}
