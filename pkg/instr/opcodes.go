// Package instr defines the riva instruction set: the opcode tags, the
// structured instruction type, and the byte encoding shared by the
// assembler, the expression compiler and the VM.
package instr

// Bytecode encoding:
//
// Byte 0 of every instruction is the opcode. The opcode alone determines
// how many operand bytes follow:
//
//	HLT, NOT                     no operands
//	JMP, JMPF, JMPB, JMPIF       [r]
//	EQ, GT, GTQ                  [r1][r2]
//	ADD, SUB, MUL, DIV, POW      [r1][r2][rd]
//	LOAD                         [r][hi][lo]   16-bit two's-complement, big-endian
//
// There are no length prefixes and no framing; the stream is self-describing
// through the opcode byte only.

// Opcode is the one-byte tag identifying an operation.
type Opcode byte

// Defined opcodes occupy [0,32). Every other byte value decodes to OpIllegal.
const (
	OpHalt Opcode = 0

	OpLoad Opcode = 1

	OpAdd      Opcode = 2
	OpSubtract Opcode = 3
	OpMultiply Opcode = 4
	OpDivide   Opcode = 5
	OpPower    Opcode = 6

	OpJump        Opcode = 7
	OpJumpForward Opcode = 8
	OpJumpBack    Opcode = 9
	OpJumpIf      Opcode = 10

	OpEqual            Opcode = 11
	OpNot              Opcode = 12
	OpGreaterThan      Opcode = 13
	OpGreaterThanEqual Opcode = 14

	OpIllegal Opcode = 255
)

// FromByte decodes a byte into an Opcode. Total: bytes outside the defined
// set map to OpIllegal, never an error. Executing OpIllegal is the VM's
// problem, not the decoder's.
func FromByte(b byte) Opcode {
	op := Opcode(b)
	switch op {
	case OpHalt, OpLoad,
		OpAdd, OpSubtract, OpMultiply, OpDivide, OpPower,
		OpJump, OpJumpForward, OpJumpBack, OpJumpIf,
		OpEqual, OpNot, OpGreaterThan, OpGreaterThanEqual:
		return op
	default:
		return OpIllegal
	}
}

// Width returns the number of operand bytes that follow the opcode byte.
func Width(op Opcode) int {
	switch op {
	case OpHalt, OpNot, OpIllegal:
		return 0
	case OpJump, OpJumpForward, OpJumpBack, OpJumpIf:
		return 1
	case OpEqual, OpGreaterThan, OpGreaterThanEqual:
		return 2
	case OpLoad, OpAdd, OpSubtract, OpMultiply, OpDivide, OpPower:
		return 3
	default:
		return 0
	}
}

var mnemonics = map[Opcode]string{
	OpHalt:             "HLT",
	OpLoad:             "LOAD",
	OpAdd:              "ADD",
	OpSubtract:         "SUB",
	OpMultiply:         "MUL",
	OpDivide:           "DIV",
	OpPower:            "POW",
	OpJump:             "JMP",
	OpJumpForward:      "JMPF",
	OpJumpBack:         "JMPB",
	OpJumpIf:           "JMPIF",
	OpEqual:            "EQ",
	OpNot:              "NOT",
	OpGreaterThan:      "GT",
	OpGreaterThanEqual: "GTQ",
	OpIllegal:          "IGL",
}

// String returns the assembler mnemonic for the opcode.
func (op Opcode) String() string {
	if name, ok := mnemonics[op]; ok {
		return name
	}
	return "IGL"
}
