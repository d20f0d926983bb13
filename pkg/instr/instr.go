package instr

import (
	"fmt"
	"strings"
)

// Register is an index into the VM's register file.
type Register = uint8

// Value is a 16-bit immediate as carried by LOAD.
type Value = int16

// Instruction is the decoded, structured form of one operation: an opcode
// plus up to three register operands and one immediate. Build them through
// the constructors below; operand fields an opcode does not use stay zero,
// which is what makes the encode/decode round trip hold under ==.
type Instruction struct {
	Op  Opcode
	R1  Register
	R2  Register
	R3  Register
	Imm Value
}

func Halt() Instruction    { return Instruction{Op: OpHalt} }
func Not() Instruction     { return Instruction{Op: OpNot} }
func Illegal() Instruction { return Instruction{Op: OpIllegal} }

func Jump(r Register) Instruction        { return Instruction{Op: OpJump, R1: r} }
func JumpForward(r Register) Instruction { return Instruction{Op: OpJumpForward, R1: r} }
func JumpBack(r Register) Instruction    { return Instruction{Op: OpJumpBack, R1: r} }
func JumpIf(r Register) Instruction      { return Instruction{Op: OpJumpIf, R1: r} }

func Equal(r1, r2 Register) Instruction { return Instruction{Op: OpEqual, R1: r1, R2: r2} }
func GreaterThan(r1, r2 Register) Instruction {
	return Instruction{Op: OpGreaterThan, R1: r1, R2: r2}
}
func GreaterThanEqual(r1, r2 Register) Instruction {
	return Instruction{Op: OpGreaterThanEqual, R1: r1, R2: r2}
}

func Add(r1, r2, rd Register) Instruction {
	return Instruction{Op: OpAdd, R1: r1, R2: r2, R3: rd}
}
func Subtract(r1, r2, rd Register) Instruction {
	return Instruction{Op: OpSubtract, R1: r1, R2: r2, R3: rd}
}
func Multiply(r1, r2, rd Register) Instruction {
	return Instruction{Op: OpMultiply, R1: r1, R2: r2, R3: rd}
}
func Divide(r1, r2, rd Register) Instruction {
	return Instruction{Op: OpDivide, R1: r1, R2: r2, R3: rd}
}
func Power(r1, r2, rd Register) Instruction {
	return Instruction{Op: OpPower, R1: r1, R2: r2, R3: rd}
}

func Load(r Register, v Value) Instruction { return Instruction{Op: OpLoad, R1: r, Imm: v} }

// SplitImm splits a 16-bit immediate into its encoded big-endian bytes.
func SplitImm(v Value) (hi, lo byte) {
	return byte(uint16(v) >> 8), byte(uint16(v) & 0xFF)
}

// JoinImm is the inverse of SplitImm.
func JoinImm(hi, lo byte) Value {
	return Value(uint16(hi)<<8 | uint16(lo))
}

// Encode emits the byte form of the instruction. Total and deterministic:
// an Instruction whose opcode is not in the defined set encodes as IGL.
func (in Instruction) Encode() []byte {
	switch in.Op {
	case OpHalt, OpNot:
		return []byte{byte(in.Op)}
	case OpJump, OpJumpForward, OpJumpBack, OpJumpIf:
		return []byte{byte(in.Op), in.R1}
	case OpEqual, OpGreaterThan, OpGreaterThanEqual:
		return []byte{byte(in.Op), in.R1, in.R2}
	case OpAdd, OpSubtract, OpMultiply, OpDivide, OpPower:
		return []byte{byte(in.Op), in.R1, in.R2, in.R3}
	case OpLoad:
		hi, lo := SplitImm(in.Imm)
		return []byte{byte(in.Op), in.R1, hi, lo}
	default:
		return []byte{byte(OpIllegal)}
	}
}

// EncodeProgram flattens a sequence of instructions into one program buffer.
func EncodeProgram(program []Instruction) []byte {
	out := make([]byte, 0, len(program)*4)
	for _, in := range program {
		out = append(out, in.Encode()...)
	}
	return out
}

// Decode converts a program buffer back into instructions. Unknown opcode
// bytes decode to Illegal and decoding continues; a buffer that ends in the
// middle of an instruction's operands is an error.
func Decode(code []byte) ([]Instruction, error) {
	var out []Instruction
	pc := 0
	for pc < len(code) {
		op := FromByte(code[pc])
		w := Width(op)
		if pc+1+w > len(code) {
			return nil, fmt.Errorf("offset %d: %s: truncated operands", pc, op)
		}
		in := Instruction{Op: op}
		switch op {
		case OpJump, OpJumpForward, OpJumpBack, OpJumpIf:
			in.R1 = code[pc+1]
		case OpEqual, OpGreaterThan, OpGreaterThanEqual:
			in.R1 = code[pc+1]
			in.R2 = code[pc+2]
		case OpAdd, OpSubtract, OpMultiply, OpDivide, OpPower:
			in.R1 = code[pc+1]
			in.R2 = code[pc+2]
			in.R3 = code[pc+3]
		case OpLoad:
			in.R1 = code[pc+1]
			in.Imm = JoinImm(code[pc+2], code[pc+3])
		}
		out = append(out, in)
		pc += 1 + w
	}
	return out, nil
}

// String renders the instruction in assembler syntax, e.g. "LOAD $2 #-1".
func (in Instruction) String() string {
	var sb strings.Builder
	sb.WriteString(in.Op.String())
	switch in.Op {
	case OpJump, OpJumpForward, OpJumpBack, OpJumpIf:
		fmt.Fprintf(&sb, " $%d", in.R1)
	case OpEqual, OpGreaterThan, OpGreaterThanEqual:
		fmt.Fprintf(&sb, " $%d $%d", in.R1, in.R2)
	case OpAdd, OpSubtract, OpMultiply, OpDivide, OpPower:
		fmt.Fprintf(&sb, " $%d $%d $%d", in.R1, in.R2, in.R3)
	case OpLoad:
		fmt.Fprintf(&sb, " $%d #%d", in.R1, in.Imm)
	}
	return sb.String()
}

// Disassemble converts a program buffer back to text, one instruction per
// line prefixed with its byte offset.
func Disassemble(code []byte) string {
	var sb strings.Builder
	pc := 0
	for pc < len(code) {
		op := FromByte(code[pc])
		w := Width(op)
		fmt.Fprintf(&sb, "%04X: ", pc)
		if pc+1+w > len(code) {
			sb.WriteString("?? (truncated)\n")
			break
		}
		decoded, _ := Decode(code[pc : pc+1+w])
		sb.WriteString(decoded[0].String())
		sb.WriteByte('\n')
		pc += 1 + w
	}
	return sb.String()
}
