// Package simpleexpr provides a small arithmetic expression kernel for Go.
//
// Design goals:
//   - Closed AST: integer constants, variables, binary + - *
//   - Evaluation under a caller-supplied binding
//   - Fully parenthesized, deterministic formatting
//   - Single-pass, rule-based bottom-up simplification
//   - JSON and tool-call APIs for embedding in services
//
// Integer arithmetic is int64 and wraps on overflow.
package simpleexpr

import (
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// ============================================================
// Core Interface
// ============================================================

// Binding maps variable names to values. It is read, never written.
type Binding map[string]int64

// ErrUnboundVariable is returned when a variable has no entry in the Binding.
var ErrUnboundVariable = errors.New("unbound variable")

type Expr interface {
	Eval(env Binding) (int64, error)
	Format() string
	FormatSubstituted(env Binding) (string, error)
	Simplify() Expr
	String() string
	exprType() string
	toJSON() map[string]interface{}
}

func unbound(name string) error {
	return errors.Wrapf(ErrUnboundVariable, "%q", name)
}

// ============================================================
// Op — binary operator
// ============================================================

type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
)

func (op Op) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	}
	return "Op(" + strconv.Itoa(int(op)) + ")"
}

// ParseOp maps an operator symbol to its Op.
func ParseOp(sym string) (Op, error) {
	switch sym {
	case "+":
		return OpAdd, nil
	case "-":
		return OpSub, nil
	case "*":
		return OpMul, nil
	}
	return 0, errors.Errorf("unknown operator: %q", sym)
}

func (op Op) valid() bool { return op >= OpAdd && op <= OpMul }

func (op Op) apply(a, b int64) int64 {
	switch op {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpMul:
		return a * b
	}
	panic("simpleexpr: invalid operator " + op.String())
}

// ============================================================
// Const — integer literal
// ============================================================

type Const struct{ val int64 }

func Cst(v int64) *Const { return &Const{val: v} }

func (c *Const) Eval(Binding) (int64, error)               { return c.val, nil }
func (c *Const) Format() string                            { return strconv.FormatInt(c.val, 10) }
func (c *Const) FormatSubstituted(Binding) (string, error) { return c.Format(), nil }
func (c *Const) Simplify() Expr                            { return c }
func (c *Const) String() string                            { return c.Format() }
func (c *Const) exprType() string                          { return "const" }
func (c *Const) Value() int64                              { return c.val }
func (c *Const) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "const", "value": c.val}
}

// ============================================================
// Var — named variable
// ============================================================

type Var struct{ name string }

func V(name string) *Var { return &Var{name: name} }

func (v *Var) Eval(env Binding) (int64, error) {
	val, ok := env[v.name]
	if !ok {
		return 0, unbound(v.name)
	}
	return val, nil
}

func (v *Var) FormatSubstituted(env Binding) (string, error) {
	val, err := v.Eval(env)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(val, 10), nil
}

func (v *Var) Format() string   { return v.name }
func (v *Var) Simplify() Expr   { return v }
func (v *Var) String() string   { return v.name }
func (v *Var) exprType() string { return "var" }
func (v *Var) Name() string     { return v.name }
func (v *Var) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "var", "name": v.name}
}

// ============================================================
// BinOp — binary operation
// ============================================================

type BinOp struct {
	op          Op
	left, right Expr
}

// BinOf panics if op is not one of OpAdd, OpSub, OpMul.
func BinOf(op Op, left, right Expr) *BinOp {
	if !op.valid() {
		panic("simpleexpr: invalid operator " + op.String())
	}
	return &BinOp{op: op, left: left, right: right}
}

func AddOf(left, right Expr) *BinOp { return BinOf(OpAdd, left, right) }
func SubOf(left, right Expr) *BinOp { return BinOf(OpSub, left, right) }
func MulOf(left, right Expr) *BinOp { return BinOf(OpMul, left, right) }

func (b *BinOp) Eval(env Binding) (int64, error) {
	l, err := b.left.Eval(env)
	if err != nil {
		return 0, err
	}
	r, err := b.right.Eval(env)
	if err != nil {
		return 0, err
	}
	return b.op.apply(l, r), nil
}

func (b *BinOp) Format() string {
	return "(" + b.left.Format() + b.op.String() + b.right.Format() + ")"
}

func (b *BinOp) FormatSubstituted(env Binding) (string, error) {
	l, err := b.left.FormatSubstituted(env)
	if err != nil {
		return "", err
	}
	r, err := b.right.FormatSubstituted(env)
	if err != nil {
		return "", err
	}
	return "(" + l + b.op.String() + r + ")", nil
}

// Simplify rewrites identity and self-cancelling patterns over the already
// simplified children. Each node is rewritten at most once; a rule's result
// is not simplified again.
func (b *BinOp) Simplify() Expr {
	left := b.left.Simplify()
	right := b.right.Simplify()

	switch b.op {
	case OpAdd:
		if isConst(left, 0) {
			return right
		}
		if isConst(right, 0) {
			return left
		}
	case OpSub:
		if isConst(right, 0) {
			return left
		}
		// Textual comparison: (1+1) and 2 do not cancel.
		if left.Format() == right.Format() {
			return Cst(0)
		}
	case OpMul:
		if isConst(right, 1) {
			return left
		}
		if isConst(left, 1) {
			return right
		}
		if isConst(right, 0) || isConst(left, 0) {
			return Cst(0)
		}
	}
	return BinOf(b.op, left, right)
}

func (b *BinOp) String() string   { return b.Format() }
func (b *BinOp) exprType() string { return "binop" }
func (b *BinOp) Op() Op           { return b.op }
func (b *BinOp) Left() Expr       { return b.left }
func (b *BinOp) Right() Expr      { return b.right }
func (b *BinOp) toJSON() map[string]interface{} {
	return map[string]interface{}{
		"type":  "binop",
		"op":    b.op.String(),
		"left":  b.left.toJSON(),
		"right": b.right.toJSON(),
	}
}

func isConst(e Expr, v int64) bool {
	c, ok := e.(*Const)
	return ok && c.val == v
}

// ============================================================
// Public helpers
// ============================================================

func Simplify(e Expr) Expr { return e.Simplify() }
func Format(e Expr) string { return e.Format() }

func Eval(e Expr, env Binding) (int64, error) { return e.Eval(env) }

func FormatSubstituted(e Expr, env Binding) (string, error) {
	return e.FormatSubstituted(env)
}

// FreeVars returns the sorted names of all variables reachable in e.
func FreeVars(e Expr) []string {
	seen := map[string]struct{}{}
	collectVars(e, seen)
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func collectVars(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case *Var:
		out[v.name] = struct{}{}
	case *BinOp:
		collectVars(v.left, out)
		collectVars(v.right, out)
	}
}
