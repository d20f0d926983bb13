// Package asm implements the riva textual assembler: one mnemonic per
// line, register operands prefixed $, immediates prefixed #.
// Grammar is defined as participle struct tags, like the other front end.
package asm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/rivaLang/riva/pkg/instr"
)

// Parse tree. Each physical line is parsed on its own, so an instruction
// cannot run past a line break and a second mnemonic on the same line is
// a parse error. Operand shapes are checked after parsing so that a wrong
// operand count reports the mnemonic it belongs to.

type line struct {
	Mnemonic string     `parser:"@Mnemonic"`
	Operands []*operand `parser:"@@*"`
}

type operand struct {
	Pos       lexer.Position
	Register  *string `parser:"  @Register"`
	Immediate *string `parser:"| @Immediate"`
}

var asmLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
	{Name: "Register", Pattern: `\$[0-9]+`},
	{Name: "Immediate", Pattern: `#-?[0-9]+`},
	{Name: "Mnemonic", Pattern: `[A-Z]+`},
})

var parser = participle.MustBuild[line](
	participle.Lexer(asmLexer),
	participle.Elide("Whitespace"),
)

// shape pins the operand layout each mnemonic requires.
type shape struct {
	op   instr.Opcode
	regs int
	imm  bool
}

var shapes = map[string]shape{
	"HLT":   {op: instr.OpHalt},
	"NOT":   {op: instr.OpNot},
	"JMP":   {op: instr.OpJump, regs: 1},
	"JMPF":  {op: instr.OpJumpForward, regs: 1},
	"JMPB":  {op: instr.OpJumpBack, regs: 1},
	"JMPIF": {op: instr.OpJumpIf, regs: 1},
	"EQ":    {op: instr.OpEqual, regs: 2},
	"GT":    {op: instr.OpGreaterThan, regs: 2},
	"GTQ":   {op: instr.OpGreaterThanEqual, regs: 2},
	"ADD":   {op: instr.OpAdd, regs: 3},
	"SUB":   {op: instr.OpSubtract, regs: 3},
	"MUL":   {op: instr.OpMultiply, regs: 3},
	"DIV":   {op: instr.OpDivide, regs: 3},
	"POW":   {op: instr.OpPower, regs: 3},
	"LOAD":  {op: instr.OpLoad, regs: 1, imm: true},
}

// Assemble parses assembly text into instructions, exactly one per
// non-blank line. All-or-nothing: the first line that fails to parse or
// match a mnemonic shape fails the whole input with a positioned error,
// and no partial result is returned.
func Assemble(source string) ([]instr.Instruction, error) {
	var out []instr.Instruction
	for i, text := range strings.Split(source, "\n") {
		if strings.TrimSpace(text) == "" {
			continue
		}
		ln, err := parser.ParseString("", text)
		if err != nil {
			return nil, lineError(i+1, err)
		}
		in, err := ln.instruction()
		if err != nil {
			return nil, lineError(i+1, err)
		}
		out = append(out, in)
	}
	return out, nil
}

// lineError rebases a per-line parse error onto the source line number.
func lineError(n int, err error) error {
	var perr participle.Error
	if errors.As(err, &perr) {
		return fmt.Errorf("%d:%d: %s", n, perr.Position().Column, perr.Message())
	}
	return fmt.Errorf("%d: %w", n, err)
}

// AssembleBytes assembles and encodes in one call.
func AssembleBytes(source string) ([]byte, error) {
	program, err := Assemble(source)
	if err != nil {
		return nil, err
	}
	return instr.EncodeProgram(program), nil
}

func (ln *line) instruction() (instr.Instruction, error) {
	sh, ok := shapes[ln.Mnemonic]
	if !ok {
		return instr.Instruction{}, fmt.Errorf("unknown mnemonic %q", ln.Mnemonic)
	}

	want := sh.regs
	if sh.imm {
		want++
	}
	if len(ln.Operands) != want {
		return instr.Instruction{}, fmt.Errorf("%s takes %d operands, got %d",
			ln.Mnemonic, want, len(ln.Operands))
	}

	in := instr.Instruction{Op: sh.op}
	regs := [3]*instr.Register{&in.R1, &in.R2, &in.R3}
	for i, opnd := range ln.Operands {
		if i < sh.regs {
			r, err := opnd.register()
			if err != nil {
				return instr.Instruction{}, err
			}
			*regs[i] = r
			continue
		}
		v, err := opnd.immediate()
		if err != nil {
			return instr.Instruction{}, err
		}
		in.Imm = v
	}
	return in, nil
}

func (o *operand) register() (instr.Register, error) {
	if o.Register == nil {
		return 0, fmt.Errorf("column %d: expected register operand ($n), got immediate", o.Pos.Column)
	}
	n, err := strconv.ParseUint((*o.Register)[1:], 10, 8)
	if err != nil {
		return 0, fmt.Errorf("column %d: register operand out of range: %s", o.Pos.Column, *o.Register)
	}
	return instr.Register(n), nil
}

func (o *operand) immediate() (instr.Value, error) {
	if o.Immediate == nil {
		return 0, fmt.Errorf("column %d: expected immediate operand (#n), got register", o.Pos.Column)
	}
	n, err := strconv.ParseInt((*o.Immediate)[1:], 10, 16)
	if err != nil {
		return 0, fmt.Errorf("column %d: immediate out of range: %s", o.Pos.Column, *o.Immediate)
	}
	return instr.Value(n), nil
}
