// Package repl implements the Read-Eval-Print Loop for Meg: each line
// (or file, for the one-shot driver in cmd/meg) is lexed, parsed,
// lowered to IR, and run through the CTFE interpreter, with colored
// diagnostics and results printed as they come in.
package repl

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/akashmaji946/meg/config"
	"github.com/akashmaji946/meg/diag"
	"github.com/akashmaji946/meg/interp"
	"github.com/akashmaji946/meg/ir"
	"github.com/akashmaji946/meg/lexer"
	"github.com/akashmaji946/meg/parser"
)

var (
	blueColor   = color.New(color.FgBlue)
	yellowColor = color.New(color.FgYellow)
	redColor    = color.New(color.FgRed)
	greenColor  = color.New(color.FgGreen)
	cyanColor   = color.New(color.FgCyan)
)

// Repl holds the cosmetic configuration for an interactive session.
type Repl struct {
	Banner  string
	Version string
	Author  string
	Line    string
	License string
	Prompt  string
	Config  config.Config
}

// NewRepl creates a Repl ready for Start.
func NewRepl(banner, version, author, line, license, prompt string, cfg config.Config) *Repl {
	return &Repl{Banner: banner, Version: version, Author: author, Line: line, License: license, Prompt: prompt, Config: cfg}
}

func (r *Repl) PrintBannerInfo(writer io.Writer) {
	blueColor.Fprintf(writer, "%s\n", r.Line)
	greenColor.Fprintf(writer, "%s\n", r.Banner)
	blueColor.Fprintf(writer, "%s\n", r.Line)
	yellowColor.Fprintln(writer, "Version: "+r.Version+" | Author: "+r.Author+" | License: "+r.License)
	blueColor.Fprintf(writer, "%s\n", r.Line)
	cyanColor.Fprintf(writer, "%s\n", "Welcome to Meg!")
	cyanColor.Fprintf(writer, "%s\n", "Type an expression and press enter")
	cyanColor.Fprintf(writer, "%s\n", "Type '/exit' to quit")
	cyanColor.Fprintf(writer, "%s\n", "Use up/down arrows to navigate command history")
	blueColor.Fprintf(writer, "%s\n", r.Line)
}

// Start runs the interactive loop, reading lines from reader and
// writing the banner/results/diagnostics to writer. Passing readline's
// config its own Stdin/Stdout (instead of the package defaulting to
// os.Stdin/os.Stdout) is what lets a net.Conn passed as both reader
// and writer (see cmd/meg's server mode) drive a genuinely separate
// session per client rather than the server process's own terminal.
func (r *Repl) Start(reader io.Reader, writer io.Writer) {
	r.PrintBannerInfo(writer)

	rl, err := readline.NewEx(&readline.Config{
		Prompt: r.Prompt,
		Stdin:  io.NopCloser(reader),
		Stdout: writer,
		Stderr: writer,
	})
	if err != nil {
		panic(err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			writer.Write([]byte("Good bye!\n"))
			return
		}

		line = strings.Trim(line, " \n\t\r")
		if line == "" {
			continue
		}
		if line == "/exit" {
			writer.Write([]byte("Good bye!\n"))
			return
		}
		rl.SaveHistory(line)

		r.evalLine(writer, line)
	}
}

func (r *Repl) evalLine(writer io.Writer, source string) {
	sink, _, interpreter := Evaluate(source, r.Config)

	for _, d := range sink.All() {
		redColor.Fprintf(writer, "%s\n", d.String())
	}
	if sink.HasErrors() {
		return
	}

	stack := interpreter.Stack()
	if len(stack) > 0 {
		yellowColor.Fprintf(writer, "%s\n", stack[len(stack)-1].String())
	}
}

// Evaluate runs one full lex/parse/lower/interpret pass over source
// and returns the diagnostics sink (already containing anything any
// stage reported), the populated IR environment, and the interpreter
// as it stood once the top-level function finished (or gave up). If
// an earlier stage reported a diagnostic, the interpreter is returned
// without having been run.
// cmd/meg's file-execution mode calls this directly so the one-shot
// and interactive drivers never diverge.
func Evaluate(source string, cfg config.Config) (*diag.Sink, *ir.Environment, *interp.Interpreter) {
	sink := diag.New()

	toks := lexer.New(source, sink).ConsumeTokens()
	if cfg.Dump.Tokens {
		for _, t := range toks {
			fmt.Printf("%v %q @%d\n", t.Kind, t.Lexeme, t.Position)
		}
	}

	root := parser.Parse(toks, sink)
	if cfg.Dump.AST {
		fmt.Printf("%#v\n", root)
	}

	gen := ir.NewGenerator(sink)
	env, topID := gen.Generate(root)
	if cfg.Dump.IR {
		for _, fn := range env.Functions {
			for _, blk := range fn.Blocks {
				fmt.Printf("function %d, block %d:\n", fn.ID, blk.ID)
				for _, ins := range blk.Instructions {
					fmt.Printf("  %v\n", ins.Kind)
				}
			}
		}
	}

	it := interp.New(env, topID, sink, interp.Budget(cfg.InstructionBudget))
	if !sink.HasErrors() {
		it.Run()
	}
	return sink, env, it
}
