package instr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitImm(t *testing.T) {
	tests := []struct {
		v  Value
		hi byte
		lo byte
	}{
		{0b00000010_00000011, 0b00000010, 0b00000011},
		{2, 0, 2},
		{16, 0, 16},
		{256, 1, 0},
		{-1, 0xFF, 0xFF},
		{-2, 0xFF, 0xFE},
	}
	for _, tt := range tests {
		hi, lo := SplitImm(tt.v)
		assert.Equal(t, tt.hi, hi, "hi of %d", tt.v)
		assert.Equal(t, tt.lo, lo, "lo of %d", tt.v)
		assert.Equal(t, tt.v, JoinImm(hi, lo), "join of %d", tt.v)
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		in    Instruction
		bytes []byte
	}{
		{Halt(), []byte{0}},
		{Not(), []byte{12}},
		{Illegal(), []byte{255}},

		{Jump(0), []byte{7, 0}},
		{JumpForward(0), []byte{8, 0}},
		{JumpBack(0), []byte{9, 0}},
		{JumpIf(1), []byte{10, 1}},

		{Load(0, 2), []byte{1, 0, 0, 2}},
		{Load(1, 19), []byte{1, 1, 0, 19}},
		{Load(2, -1), []byte{1, 2, 0xFF, 0xFF}},

		{Equal(0, 2), []byte{11, 0, 2}},
		{GreaterThan(0, 2), []byte{13, 0, 2}},
		{GreaterThanEqual(0, 2), []byte{14, 0, 2}},

		{Add(0, 1, 2), []byte{2, 0, 1, 2}},
		{Subtract(0, 1, 2), []byte{3, 0, 1, 2}},
		{Multiply(0, 1, 2), []byte{4, 0, 1, 2}},
		{Divide(0, 1, 2), []byte{5, 0, 1, 2}},
		{Power(0, 3, 2), []byte{6, 0, 3, 2}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.bytes, tt.in.Encode(), "%s", tt.in)
	}
}

// every representable instruction must survive an encode/decode round trip
func TestRoundTrip(t *testing.T) {
	program := []Instruction{
		Halt(),
		Not(),
		Illegal(),
		Jump(3),
		JumpForward(7),
		JumpBack(31),
		JumpIf(2),
		Equal(1, 2),
		GreaterThan(4, 5),
		GreaterThanEqual(6, 7),
		Add(0, 1, 2),
		Subtract(3, 4, 5),
		Multiply(6, 7, 8),
		Divide(9, 10, 11),
		Power(12, 13, 14),
		Load(0, 0),
		Load(1, 1),
		Load(2, -1),
		Load(3, 32767),
		Load(4, -32768),
	}

	decoded, err := Decode(EncodeProgram(program))
	require.NoError(t, err)
	require.Equal(t, program, decoded)

	for _, in := range program {
		single, err := Decode(in.Encode())
		require.NoError(t, err)
		require.Equal(t, []Instruction{in}, single, "%s", in)
	}
}

func TestFromByteTotal(t *testing.T) {
	for b := 0; b < 256; b++ {
		op := FromByte(byte(b))
		if b < 15 {
			assert.Equal(t, Opcode(b), op)
		} else {
			assert.Equal(t, OpIllegal, op, "byte %d", b)
		}
	}
}

func TestDecodeUnknownByte(t *testing.T) {
	decoded, err := Decode([]byte{200})
	require.NoError(t, err)
	assert.Equal(t, []Instruction{Illegal()}, decoded)
}

func TestDecodeTruncated(t *testing.T) {
	_, err := Decode([]byte{byte(OpLoad), 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated")

	_, err = Decode([]byte{byte(OpAdd), 0, 1})
	require.Error(t, err)
}

func TestString(t *testing.T) {
	tests := []struct {
		in   Instruction
		want string
	}{
		{Halt(), "HLT"},
		{Not(), "NOT"},
		{Jump(2), "JMP $2"},
		{JumpIf(0), "JMPIF $0"},
		{Equal(0, 1), "EQ $0 $1"},
		{Add(0, 1, 2), "ADD $0 $1 $2"},
		{Load(2, -1), "LOAD $2 #-1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.String())
	}
}

func TestDisassemble(t *testing.T) {
	code := EncodeProgram([]Instruction{
		Load(0, 9),
		Load(1, 3),
		Add(0, 1, 0),
		Halt(),
	})
	want := "0000: LOAD $0 #9\n" +
		"0004: LOAD $1 #3\n" +
		"0008: ADD $0 $1 $0\n" +
		"000C: HLT\n"
	assert.Equal(t, want, Disassemble(code))
}

func TestDisassembleTruncated(t *testing.T) {
	out := Disassemble([]byte{byte(OpLoad), 0})
	assert.Contains(t, out, "truncated")
}
