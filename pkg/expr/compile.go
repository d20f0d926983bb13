package expr

import (
	"errors"
	"fmt"

	"github.com/rivaLang/riva/pkg/instr"
	"github.com/rivaLang/riva/pkg/vm"
)

var (
	// ErrTooDeep means the expression needs more scratch registers than
	// the register file has.
	ErrTooDeep = errors.New("expression too deep for register file")
	// ErrLetNotLowered means a declaration reached the lowering pass.
	ErrLetNotLowered = errors.New("declarations are not yet lowered")
)

// Compile lowers an expression AST into instructions using a linear,
// stack-free register allocator. The result of the subtree ends up in
// register next; registers below next are never touched, so a subtree's
// code may run while enclosing operands are still live above it.
//
// Allocation order is part of the contract: a binary operator lowers its
// left child into next, its right child into next+1, and emits the
// operator with destination next, overwriting the left operand in place.
func Compile(node Node, next instr.Register) ([]instr.Instruction, error) {
	if int(next) >= vm.RegisterCount {
		return nil, fmt.Errorf("%w: register $%d", ErrTooDeep, next)
	}

	switch n := node.(type) {
	case *Int:
		return []instr.Instruction{instr.Load(next, n.Value)}, nil

	case *Negate:
		code, err := Compile(n.Operand, next)
		if err != nil {
			return nil, err
		}
		scratch, err := bump(next)
		if err != nil {
			return nil, err
		}
		code = append(code,
			instr.Load(scratch, -1),
			instr.Multiply(next, scratch, next),
		)
		return code, nil

	case *Binary:
		code, err := Compile(n.Left, next)
		if err != nil {
			return nil, err
		}
		scratch, err := bump(next)
		if err != nil {
			return nil, err
		}
		right, err := Compile(n.Right, scratch)
		if err != nil {
			return nil, err
		}
		code = append(code, right...)

		var op instr.Instruction
		switch n.Op {
		case OpAdd:
			op = instr.Add(next, scratch, next)
		case OpSub:
			op = instr.Subtract(next, scratch, next)
		case OpMul:
			op = instr.Multiply(next, scratch, next)
		case OpDiv:
			op = instr.Divide(next, scratch, next)
		case OpPow:
			op = instr.Power(next, scratch, next)
		default:
			return nil, fmt.Errorf("unknown binary operator %v", n.Op)
		}
		return append(code, op), nil

	case *Let:
		return nil, fmt.Errorf("%w: %q", ErrLetNotLowered, n.Ident)

	default:
		return nil, fmt.Errorf("unknown AST node %T", node)
	}
}

// CompileBytes lowers an expression and encodes the result.
func CompileBytes(node Node, next instr.Register) ([]byte, error) {
	code, err := Compile(node, next)
	if err != nil {
		return nil, err
	}
	return instr.EncodeProgram(code), nil
}

func bump(next instr.Register) (instr.Register, error) {
	if int(next)+1 >= vm.RegisterCount {
		return 0, fmt.Errorf("%w: register $%d", ErrTooDeep, int(next)+1)
	}
	return next + 1, nil
}
