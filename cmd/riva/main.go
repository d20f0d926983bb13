// riva runs register-machine bytecode: from a file, or interactively
// through a REPL that assembles mnemonic lines into the program buffer.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/rivaLang/riva/pkg/asm"
	"github.com/rivaLang/riva/pkg/instr"
	"github.com/rivaLang/riva/pkg/vm"
)

func main() {
	debug := flag.Bool("debug", false, "Enable per-instruction trace logging")
	disasm := flag.Bool("disasm", false, "Disassemble instead of run")
	flag.Parse()

	logger := buildLogger(*debug)
	defer logger.Sync()

	args := flag.Args()
	if len(args) == 0 {
		repl(logger)
		return
	}

	code, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *disasm {
		fmt.Print(instr.Disassemble(code))
		return
	}

	m := vm.New(vm.LoggerOpt(logger))
	m.Load(code)
	if err := m.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Runtime error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Registers:", m.Registers)
}

func buildLogger(debug bool) *zap.Logger {
	if debug {
		return zap.Must(zap.NewDevelopment())
	}
	return zap.NewNop()
}

func repl(logger *zap.Logger) {
	fmt.Println("riva vm")
	fmt.Println("Enter assembly (one instruction per line), or '.help' for commands")
	fmt.Println()

	m := vm.New(vm.LoggerOpt(logger))
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(">> ")
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
		case ".step":
			if err := m.Step(); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
		case ".run":
			if err := m.Run(); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
		case ".registers":
			fmt.Println("Registers:", m.Registers)
			fmt.Printf("pc=%d cmp=%v remainder=%d\n", m.PC(), m.Cmp(), m.Remainder())
		case ".program":
			fmt.Print(instr.Disassemble(m.Program))
		case ".clear":
			m.Program = nil
			m.Reset()
			fmt.Println("Cleared")
		default:
			code, err := asm.AssembleBytes(line)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Print("Loading: ")
			for _, b := range code {
				fmt.Printf("%#02X ", b)
			}
			fmt.Println()
			m.Program = append(m.Program, code...)
			m.Resume()
		}
	}
}

func printHelp() {
	fmt.Print(`Commands:
  .step       - Execute one instruction
  .run        - Run until halted
  .registers  - Show registers, pc, cmp flag and remainder
  .program    - Disassemble the program buffer
  .clear      - Drop the program and reset the machine
  .quit       - Exit

Any other line is assembled and appended to the program buffer:
  LOAD $0 #9
  LOAD $1 #3
  ADD $0 $1 $0

Mnemonics:
  Arithmetic: ADD SUB MUL DIV POW   ($r1 $r2 $rd)
  Load:       LOAD $r #value
  Compare:    EQ GT GTQ             ($r1 $r2), NOT
  Jumps:      JMP JMPF JMPB JMPIF   ($r)
  Halt:       HLT
`)
}
