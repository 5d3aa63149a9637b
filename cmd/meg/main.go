// Command meg is the Meg compiler front end and CTFE driver. It
// provides three modes of operation:
//  1. File mode: lex, parse, lower, and constant-evaluate a source file
//  2. REPL mode (default): an interactive loop over the same pipeline
//  3. Server mode: the same REPL served over TCP, one session per client
package main

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/akashmaji946/meg/config"
	"github.com/akashmaji946/meg/repl"
)

var (
	VERSION = "v0.1.0"
	AUTHOR  = "akashmaji(@iisc.ac.in)"
	LICENSE = "MIT"
	PROMPT  = "meg >>> "
)

var BANNER = `
 ███╗   ███╗ ███████╗  ██████╗
 ████╗ ████║ ██╔════╝ ██╔════╝
 ██╔████╔██║ █████╗   ██║  ███╗
 ██║╚██╔╝██║ ██╔══╝   ██║   ██║
 ██║ ╚═╝ ██║ ███████╗ ╚██████╔╝
 ╚═╝     ╚═╝ ╚══════╝  ╚═════╝
`

var LINE = "----------------------------------------------------------------"

var (
	redColor    = color.New(color.FgRed)
	yellowColor = color.New(color.FgYellow)
	cyanColor   = color.New(color.FgCyan)
)

func main() {
	configPath, args := extractConfigFlag(os.Args[1:])

	if len(args) > 0 {
		arg := args[0]

		switch arg {
		case "--help", "-h":
			showHelp()
			return
		case "--version", "-v":
			showVersion()
			return
		case "server":
			if len(args) < 2 {
				redColor.Fprintf(os.Stderr, "[USAGE ERROR] missing port for server mode. Usage: meg [-config <path>] server <port>\n")
				os.Exit(1)
			}
			startServer(args[1], loadConfig(configPath))
			return
		default:
			runFile(arg, loadConfig(configPath))
			return
		}
	}

	repler := repl.NewRepl(BANNER, VERSION, AUTHOR, LINE, LICENSE, PROMPT, loadConfig(configPath))
	repler.Start(os.Stdin, os.Stdout)
}

// extractConfigFlag pulls a leading "-config <path>" pair out of args
// (in either "-config path" or "-config=path" form), returning the
// config path to load (defaulting to "meg.yaml") and the remaining
// arguments for mode dispatch.
func extractConfigFlag(args []string) (string, []string) {
	configPath := "meg.yaml"
	if len(args) == 0 {
		return configPath, args
	}

	if strings.HasPrefix(args[0], "-config=") {
		configPath = strings.TrimPrefix(args[0], "-config=")
		return configPath, args[1:]
	}
	if args[0] == "-config" {
		if len(args) < 2 {
			redColor.Fprintf(os.Stderr, "[USAGE ERROR] missing path for -config. Usage: meg -config <path> ...\n")
			os.Exit(1)
		}
		return args[1], args[2:]
	}
	return configPath, args
}

func loadConfig(path string) config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		redColor.Fprintf(os.Stderr, "[CONFIG ERROR] %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func showHelp() {
	cyanColor.Println("Meg - a small statically-typed expression-oriented language")
	cyanColor.Println("")
	cyanColor.Println("USAGE:")
	yellowColor.Println("  meg                    Start interactive REPL mode")
	yellowColor.Println("  meg <path-to-file>     Run a Meg source file")
	yellowColor.Println("  meg server <port>      Start a REPL server on the given port")
	yellowColor.Println("  meg --help             Display this help message")
	yellowColor.Println("  meg --version          Display version information")
	cyanColor.Println("")
	cyanColor.Println("  -config <path>         Load config from path instead of ./meg.yaml")
	cyanColor.Println("")
	cyanColor.Println("A meg.yaml file in the working directory, if present (or pointed to")
	cyanColor.Println("with -config), sets the CTFE instruction budget and toggles")
	cyanColor.Println("token/AST/IR dumps.")
}

func showVersion() {
	cyanColor.Printf("Meg %s (%s license, %s)\n", VERSION, LICENSE, AUTHOR)
}

func runFile(fileName string, cfg config.Config) {
	source, err := os.ReadFile(fileName)
	if err != nil {
		redColor.Fprintf(os.Stderr, "[FILE ERROR] could not read file %q: %v\n", fileName, err)
		os.Exit(1)
	}

	sink, _, interpreter := repl.Evaluate(string(source), cfg)

	for _, d := range sink.All() {
		redColor.Fprintf(os.Stderr, "%s\n", d.String())
	}
	if sink.HasErrors() {
		os.Exit(1)
	}

	stack := interpreter.Stack()
	if len(stack) > 0 {
		yellowColor.Fprintf(os.Stdout, "%s\n", stack[len(stack)-1].String())
	}
}

func startServer(port string, cfg config.Config) {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		redColor.Fprintf(os.Stderr, "[SERVER ERROR] failed to start server on port %s: %v\n", port, err)
		os.Exit(1)
	}
	defer listener.Close()
	cyanColor.Printf("Meg REPL server listening on :%s\n", port)

	for {
		conn, err := listener.Accept()
		if err != nil {
			redColor.Fprintf(os.Stderr, "[SERVER ERROR] failed to accept connection: %v\n", err)
			continue
		}
		go handleClient(conn, cfg)
	}
}

func handleClient(conn net.Conn, cfg config.Config) {
	defer conn.Close()
	cyanColor.Printf("new client connected from %s\n", conn.RemoteAddr())
	repler := repl.NewRepl(BANNER, VERSION, AUTHOR, LINE, LICENSE, PROMPT, cfg)
	repler.Start(conn, conn)
	fmt.Printf("client disconnected from %s\n", conn.RemoteAddr())
}
