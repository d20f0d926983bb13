// rivac compiles infix arithmetic expressions to riva bytecode: from a
// source file to an output file, or interactively through a REPL backed by
// an embedded VM.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/rivaLang/riva/pkg/expr"
	"github.com/rivaLang/riva/pkg/instr"
	"github.com/rivaLang/riva/pkg/vm"
)

func main() {
	debug := flag.Bool("debug", false, "Enable per-instruction trace logging")
	output := flag.String("o", "out.rbc", "Output file for compiled bytecode")
	flag.Parse()

	logger := buildLogger(*debug)
	defer logger.Sync()

	args := flag.Args()
	if len(args) == 0 {
		repl(logger)
		return
	}

	source, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	code, err := compileSource(string(source))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compile error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*output, code, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d bytes to %s\n", len(code), *output)
}

// compileSource lowers every expression in the source, each starting at
// register 0, into one flat program.
func compileSource(source string) ([]byte, error) {
	nodes, err := expr.Parse(source)
	if err != nil {
		return nil, err
	}
	var code []byte
	for _, node := range nodes {
		bytes, err := expr.CompileBytes(node, 0)
		if err != nil {
			return nil, err
		}
		code = append(code, bytes...)
	}
	return code, nil
}

func buildLogger(debug bool) *zap.Logger {
	if debug {
		return zap.Must(zap.NewDevelopment())
	}
	return zap.NewNop()
}

func repl(logger *zap.Logger) {
	fmt.Println("rivac expression compiler")
	fmt.Println("Enter an expression, or '.help' for commands")
	fmt.Println()

	m := vm.New(vm.LoggerOpt(logger))
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("- ")
		if !scanner.Scan() {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case ".quit":
			fmt.Println("buh-bye!")
			return
		case ".help":
			printHelp()
		case ".run":
			if err := m.Run(); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
			fmt.Println("Registers:", m.Registers)
		case ".registers":
			fmt.Println("Registers:", m.Registers)
		case ".program":
			fmt.Print(instr.Disassemble(m.Program))
		case ".clear":
			m.Program = nil
			m.Reset()
			fmt.Println("Cleared")
		default:
			node, err := expr.ParseExpr(line)
			if err != nil {
				fmt.Printf("Parse error: %v\n", err)
				continue
			}
			code, err := expr.Compile(node, 0)
			if err != nil {
				fmt.Printf("Compile error: %v\n", err)
				continue
			}
			for _, in := range code {
				fmt.Println(" ", in)
			}
			m.Program = append(m.Program, instr.EncodeProgram(code)...)
			m.Resume()
		}
	}
}

func printHelp() {
	fmt.Print(`Commands:
  .run        - Run the compiled program on the embedded VM
  .registers  - Show registers
  .program    - Disassemble the program buffer
  .clear      - Drop the program and reset the machine
  .quit       - Exit

Any other line is compiled and appended to the program buffer:
  2 - (3 * 2)
  -(1 + 3) ^ 2

The result of each expression lands in register $0.
`)
}
