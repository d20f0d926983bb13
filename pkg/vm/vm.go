// Package vm implements the riva execution engine: a register file, a
// program counter and a comparison flag driven by a fetch-decode-execute
// loop over the byte encoding defined in pkg/instr.
package vm

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rivaLang/riva/pkg/instr"
)

// RegisterCount is the size of the register file. Register operands at or
// beyond this index are a bounds violation, never a wraparound.
const RegisterCount = 32

// Execution faults. All of them are fatal: once Step or Run returns one of
// these the VM is halted and must not be resumed.
var (
	ErrIllegalOpcode    = errors.New("illegal opcode")
	ErrDivisionByZero   = errors.New("division by zero")
	ErrNegativeExponent = errors.New("negative exponent")
	ErrRegisterRange    = errors.New("register index out of range")
	ErrPCRange          = errors.New("jump target out of range")
	ErrTruncated        = errors.New("program truncated mid-instruction")
)

// VM is the riva virtual machine. One VM owns its registers, program
// counter, comparison flag and remainder for its whole lifetime; callers
// that share an instance across goroutines must serialize access.
type VM struct {
	// Registers is the fixed-size register file, zero-initialized.
	Registers [RegisterCount]int32
	// Program is the flat byte encoding executed by the VM. Hosts may
	// append to it between runs (the REPL does) but not while running.
	Program []byte

	pc        int
	remainder int32
	cmp       bool
	halted    bool

	logger *zap.Logger
}

// Opt configures a VM.
type Opt func(*VM) *VM

// LoggerOpt sets the logger used for per-instruction tracing.
func LoggerOpt(l *zap.Logger) Opt {
	return func(vm *VM) *VM {
		vm.logger = l
		return vm
	}
}

// ProgramOpt starts the VM with a program already loaded.
func ProgramOpt(program []byte) Opt {
	return func(vm *VM) *VM {
		vm.Program = program
		return vm
	}
}

// New creates a VM with zeroed state.
func New(opts ...Opt) *VM {
	vm := &VM{
		logger: zap.L(),
	}
	for _, opt := range opts {
		vm = opt(vm)
	}
	vm.logger = vm.logger.Named("vm")
	return vm
}

// Load replaces the program buffer and rewinds the program counter.
// Registers, flag and remainder keep their values; call Reset for a
// fresh machine.
func (vm *VM) Load(program []byte) {
	vm.Program = program
	vm.pc = 0
	vm.halted = false
}

// Resume clears the halted latch without touching any other state, so a
// host that has appended new code to the program buffer can continue from
// the current pc. Resuming after a fault is a host error; the machine
// state following a fault carries no guarantees.
func (vm *VM) Resume() {
	vm.halted = false
}

// Reset zeroes every piece of machine state except the program buffer.
func (vm *VM) Reset() {
	vm.Registers = [RegisterCount]int32{}
	vm.pc = 0
	vm.remainder = 0
	vm.cmp = false
	vm.halted = false
}

// PC returns the current program counter (a byte offset).
func (vm *VM) PC() int { return vm.pc }

// Remainder returns the integer remainder of the most recent DIV.
func (vm *VM) Remainder() int32 { return vm.remainder }

// Cmp returns the comparison flag.
func (vm *VM) Cmp() bool { return vm.cmp }

// Halted reports whether the VM has stopped, either by HLT, by running off
// the end of the program, or by a fatal fault.
func (vm *VM) Halted() bool { return vm.halted }

// Run single-steps until the VM halts. Returns the first execution fault.
func (vm *VM) Run() error {
	for !vm.halted {
		if err := vm.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step executes exactly one instruction. Running off the end of the
// program halts the VM exactly as an explicit HLT would. Stepping a halted
// VM is a no-op.
func (vm *VM) Step() error {
	if vm.halted {
		return nil
	}
	if vm.pc >= len(vm.Program) {
		vm.halted = true
		return nil
	}

	at := vm.pc
	op := instr.FromByte(vm.Program[vm.pc])
	vm.pc++

	vm.logger.Debug("step",
		zap.Int("pc", at),
		zap.Stringer("op", op),
	)

	if err := vm.exec(op); err != nil {
		vm.halted = true
		return fmt.Errorf("pc %d: %s: %w", at, op, err)
	}
	return nil
}

func (vm *VM) exec(op instr.Opcode) error {
	switch op {
	case instr.OpHalt:
		vm.logger.Debug("halt")
		vm.halted = true

	case instr.OpLoad:
		dest, err := vm.nextRegisterIndex()
		if err != nil {
			return err
		}
		v, err := vm.nextValue()
		if err != nil {
			return err
		}
		vm.Registers[dest] = v

	case instr.OpAdd, instr.OpSubtract, instr.OpMultiply, instr.OpDivide, instr.OpPower:
		// Both sources are read before the destination is written, so
		// rd may alias r1 or r2.
		a, err := vm.readRegister()
		if err != nil {
			return err
		}
		b, err := vm.readRegister()
		if err != nil {
			return err
		}
		dest, err := vm.nextRegisterIndex()
		if err != nil {
			return err
		}
		switch op {
		case instr.OpAdd:
			vm.Registers[dest] = a + b
		case instr.OpSubtract:
			vm.Registers[dest] = a - b
		case instr.OpMultiply:
			vm.Registers[dest] = a * b
		case instr.OpDivide:
			if b == 0 {
				return ErrDivisionByZero
			}
			vm.Registers[dest] = a / b
			vm.remainder = a % b
		case instr.OpPower:
			if b < 0 {
				return ErrNegativeExponent
			}
			vm.Registers[dest] = ipow(a, b)
		}

	case instr.OpJump:
		target, err := vm.readRegister()
		if err != nil {
			return err
		}
		if err := vm.setPC(int(target)); err != nil {
			return err
		}

	case instr.OpJumpForward:
		offset, err := vm.readRegister()
		if err != nil {
			return err
		}
		if err := vm.setPC(vm.pc + int(offset)); err != nil {
			return err
		}

	case instr.OpJumpBack:
		offset, err := vm.readRegister()
		if err != nil {
			return err
		}
		if err := vm.setPC(vm.pc - int(offset)); err != nil {
			return err
		}

	case instr.OpJumpIf:
		// The operand byte is consumed whether or not the jump is taken;
		// the instruction stream would desync otherwise.
		target, err := vm.readRegister()
		if err != nil {
			return err
		}
		if vm.cmp {
			if err := vm.setPC(int(target)); err != nil {
				return err
			}
		}

	case instr.OpEqual:
		a, b, err := vm.readRegisterPair()
		if err != nil {
			return err
		}
		vm.cmp = a == b

	case instr.OpGreaterThan:
		a, b, err := vm.readRegisterPair()
		if err != nil {
			return err
		}
		vm.cmp = a > b

	case instr.OpGreaterThanEqual:
		a, b, err := vm.readRegisterPair()
		if err != nil {
			return err
		}
		vm.cmp = a >= b

	case instr.OpNot:
		vm.cmp = !vm.cmp

	default:
		return ErrIllegalOpcode
	}
	return nil
}

// setPC moves the program counter to target. A target past the end of
// the program is allowed and halts the machine on the next step; a
// negative target is a fault.
func (vm *VM) setPC(target int) error {
	if target < 0 {
		return fmt.Errorf("%w: %d", ErrPCRange, target)
	}
	vm.pc = target
	return nil
}

func (vm *VM) nextByte() (byte, error) {
	if vm.pc >= len(vm.Program) {
		return 0, ErrTruncated
	}
	b := vm.Program[vm.pc]
	vm.pc++
	return b, nil
}

func (vm *VM) nextRegisterIndex() (int, error) {
	b, err := vm.nextByte()
	if err != nil {
		return 0, err
	}
	if int(b) >= RegisterCount {
		return 0, fmt.Errorf("%w: $%d", ErrRegisterRange, b)
	}
	return int(b), nil
}

func (vm *VM) readRegister() (int32, error) {
	idx, err := vm.nextRegisterIndex()
	if err != nil {
		return 0, err
	}
	return vm.Registers[idx], nil
}

func (vm *VM) readRegisterPair() (int32, int32, error) {
	a, err := vm.readRegister()
	if err != nil {
		return 0, 0, err
	}
	b, err := vm.readRegister()
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// nextValue reads a 16-bit big-endian immediate, sign-extended to the
// register width.
func (vm *VM) nextValue() (int32, error) {
	hi, err := vm.nextByte()
	if err != nil {
		return 0, err
	}
	lo, err := vm.nextByte()
	if err != nil {
		return 0, err
	}
	return int32(instr.JoinImm(hi, lo)), nil
}

// ipow is integer exponentiation with a non-negative exponent. Overflow
// wraps, matching the rest of the 32-bit arithmetic.
func ipow(base, exp int32) int32 {
	var result int32 = 1
	for ; exp > 0; exp-- {
		result *= base
	}
	return result
}
