package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivaLang/riva/pkg/instr"
	"github.com/rivaLang/riva/pkg/vm"
)

func compileString(t *testing.T, source string, next instr.Register) []instr.Instruction {
	t.Helper()
	node, err := ParseExpr(source)
	require.NoError(t, err)
	code, err := Compile(node, next)
	require.NoError(t, err)
	return code
}

// the emitted register indices are part of the contract, not just the
// final value
func TestLoweringExact(t *testing.T) {
	got := compileString(t, "2 - (3 * 2)", 0)
	require.Equal(t, []instr.Instruction{
		instr.Load(0, 2),
		instr.Load(1, 3),
		instr.Load(2, 2),
		instr.Multiply(1, 2, 1),
		instr.Subtract(0, 1, 0),
	}, got)
}

func TestLoweringInt(t *testing.T) {
	got := compileString(t, "5", 0)
	assert.Equal(t, []instr.Instruction{instr.Load(0, 5)}, got)

	node, err := ParseExpr("5")
	require.NoError(t, err)
	shifted, err := Compile(node, 3)
	require.NoError(t, err)
	assert.Equal(t, []instr.Instruction{instr.Load(3, 5)}, shifted)
}

func TestLoweringNegate(t *testing.T) {
	got := compileString(t, "-4", 0)
	require.Equal(t, []instr.Instruction{
		instr.Load(0, 4),
		instr.Load(1, -1),
		instr.Multiply(0, 1, 0),
	}, got)
}

func TestLoweringBinOp(t *testing.T) {
	tests := []struct {
		source string
		op     instr.Instruction
	}{
		{"1 + 2", instr.Add(0, 1, 0)},
		{"1 - 2", instr.Subtract(0, 1, 0)},
		{"1 * 2", instr.Multiply(0, 1, 0)},
		{"1 / 2", instr.Divide(0, 1, 0)},
		{"1 ^ 2", instr.Power(0, 1, 0)},
	}
	for _, tt := range tests {
		got := compileString(t, tt.source, 0)
		require.Equal(t, []instr.Instruction{
			instr.Load(0, 1),
			instr.Load(1, 2),
			tt.op,
		}, got, tt.source)
	}
}

func TestLoweringDeepRight(t *testing.T) {
	// right-leaning trees climb the register file one slot per level
	got := compileString(t, "1 + (2 + (3 + 4))", 0)
	require.Equal(t, []instr.Instruction{
		instr.Load(0, 1),
		instr.Load(1, 2),
		instr.Load(2, 3),
		instr.Load(3, 4),
		instr.Add(2, 3, 2),
		instr.Add(1, 2, 1),
		instr.Add(0, 1, 0),
	}, got)
}

func TestCompileLetRejected(t *testing.T) {
	nodes, err := Parse("x = 2")
	require.NoError(t, err)
	_, err = Compile(nodes[0], 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLetNotLowered)
}

func TestCompileTooDeep(t *testing.T) {
	// a right-leaning chain one level deeper than the register file
	node := Node(intN(1))
	for i := 0; i < vm.RegisterCount; i++ {
		node = bin(OpAdd, intN(1), node)
	}
	_, err := Compile(node, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooDeep)

	_, err = Compile(intN(1), vm.RegisterCount)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooDeep)
}

func TestCompileAndRun(t *testing.T) {
	tests := []struct {
		source string
		want   int32
	}{
		{"2 - (3 * 2)", -4},
		{"2 + 4 * 3", 14},
		{"(1 + 2) * 3", 9},
		{"2 ^ 3 ^ 2", 512},
		{"-(1 + 3) * 2", -8},
		{"100 / 7", 14},
		{"--5", 5},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			node, err := ParseExpr(tt.source)
			require.NoError(t, err)
			code, err := CompileBytes(node, 0)
			require.NoError(t, err)

			m := vm.New(vm.ProgramOpt(code))
			require.NoError(t, m.Run())
			assert.Equal(t, tt.want, m.Registers[0])
		})
	}
}
