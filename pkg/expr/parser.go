package expr

import (
	"fmt"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Parse tree, one struct level per precedence tier (lowest binds first):
// additive < multiplicative < power < unary minus < group/literal.
// Power is right-associative, the other binary tiers left-associative.

type script struct {
	Stmts []*stmt `parser:"@@*"`
}

type stmt struct {
	Let  *letDecl    `parser:"  @@"`
	Expr *expression `parser:"| @@"`
}

type letDecl struct {
	Ident string      `parser:"@Ident \"=\""`
	Value *expression `parser:"@@"`
}

type expression struct {
	Left *term     `parser:"@@"`
	Rest []*exprOp `parser:"@@*"`
}

type exprOp struct {
	Op   string `parser:"@(\"+\" | \"-\")"`
	Term *term  `parser:"@@"`
}

type term struct {
	Left *power    `parser:"@@"`
	Rest []*termOp `parser:"@@*"`
}

type termOp struct {
	Op    string `parser:"@(\"*\" | \"/\")"`
	Power *power `parser:"@@"`
}

type power struct {
	Base *unary `parser:"@@"`
	Exp  *power `parser:"(\"^\" @@)?"`
}

type unary struct {
	Minus []string `parser:"@\"-\"*"`
	Atom  *atom    `parser:"@@"`
}

type atom struct {
	Pos   lexer.Position
	Int   *string     `parser:"  @Int"`
	Group *expression `parser:"| \"(\" @@ \")\""`
}

var exprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[-+*/^()=]`},
})

var parser = participle.MustBuild[script](
	participle.Lexer(exprLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// Parse parses a sequence of whitespace-separated expressions and
// declarations.
func Parse(source string) ([]Node, error) {
	s, err := parser.ParseString("", source)
	if err != nil {
		return nil, err
	}
	nodes := make([]Node, 0, len(s.Stmts))
	for _, st := range s.Stmts {
		n, err := st.ast()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// ParseExpr parses exactly one expression.
func ParseExpr(source string) (Node, error) {
	nodes, err := Parse(source)
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		return nil, fmt.Errorf("expected one expression, got %d", len(nodes))
	}
	if let, ok := nodes[0].(*Let); ok {
		return nil, fmt.Errorf("expected an expression, got declaration of %q", let.Ident)
	}
	return nodes[0], nil
}

// Folding the parse tree into the AST.

func (s *stmt) ast() (Node, error) {
	if s.Let != nil {
		value, err := s.Let.Value.ast()
		if err != nil {
			return nil, err
		}
		return &Let{Ident: s.Let.Ident, Value: value}, nil
	}
	return s.Expr.ast()
}

func (e *expression) ast() (Node, error) {
	left, err := e.Left.ast()
	if err != nil {
		return nil, err
	}
	for _, r := range e.Rest {
		right, err := r.Term.ast()
		if err != nil {
			return nil, err
		}
		op := OpAdd
		if r.Op == "-" {
			op = OpSub
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (t *term) ast() (Node, error) {
	left, err := t.Left.ast()
	if err != nil {
		return nil, err
	}
	for _, r := range t.Rest {
		right, err := r.Power.ast()
		if err != nil {
			return nil, err
		}
		op := OpMul
		if r.Op == "/" {
			op = OpDiv
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *power) ast() (Node, error) {
	base, err := p.Base.ast()
	if err != nil {
		return nil, err
	}
	if p.Exp == nil {
		return base, nil
	}
	exp, err := p.Exp.ast()
	if err != nil {
		return nil, err
	}
	return &Binary{Op: OpPow, Left: base, Right: exp}, nil
}

func (u *unary) ast() (Node, error) {
	n, err := u.Atom.ast()
	if err != nil {
		return nil, err
	}
	for range u.Minus {
		n = &Negate{Operand: n}
	}
	return n, nil
}

func (a *atom) ast() (Node, error) {
	if a.Int != nil {
		v, err := strconv.ParseInt(*a.Int, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%s: integer literal out of range: %s", a.Pos, *a.Int)
		}
		return &Int{Value: int16(v)}, nil
	}
	return a.Group.ast()
}
