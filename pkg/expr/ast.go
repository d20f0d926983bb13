// Package expr implements the riva expression front end: an infix
// arithmetic grammar parsed with participle, and a lowering pass that
// turns the AST into register-machine instructions.
package expr

// Node is a node of the expression AST. The node set is closed: Int,
// Negate, Binary (add/sub/mul/div/pow) and Let.
type Node interface {
	node()
}

// Int is a signed 16-bit integer literal.
type Int struct {
	Value int16
}

// Negate is unary minus.
type Negate struct {
	Operand Node
}

// Op identifies a binary arithmetic operator.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpPow
)

var opNames = [...]string{"+", "-", "*", "/", "^"}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "?"
}

// Binary is a binary arithmetic expression. Left and Right are exclusively
// owned by this node.
type Binary struct {
	Op    Op
	Left  Node
	Right Node
}

// Let is a declaration `ident = expr`. Parsed, but not yet lowered by
// Compile.
type Let struct {
	Ident string
	Value Node
}

func (*Int) node()    {}
func (*Negate) node() {}
func (*Binary) node() {}
func (*Let) node()    {}
