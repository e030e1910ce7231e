// Package expr implements the small typed expression sub-language embedded
// in Expr nodes (spec.md §4.2): arithmetic/vector expressions with
// pre-registered intrinsics, typechecked against an ambient Parameter
// environment and evaluated against a variable/function environment.
package expr

import (
	"github.com/latticeforge/kernel/internal/domain/network"
)

// BinaryOp enumerates the binary operators the grammar supports.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAnd
	OpOr
)

// UnaryOp enumerates the unary operators.
type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpPos
	OpNot
)

// Member enumerates the vector member-access suffixes.
type Member int

const (
	MemberX Member = iota
	MemberY
	MemberZ
)

// Expr is the expression AST, a closed sum type mirroring spec.md §4.2's
// grammar. Exactly one of the Kind-tagged fields is populated per node.
type Expr struct {
	Kind ExprKind

	IntLit    int32
	FloatLit  float64
	BoolLit   bool
	StringLit string
	VarName   string

	UnaryOp  UnaryOp
	Operand  *Expr

	BinOp BinaryOp
	Left  *Expr
	Right *Expr

	CallName string
	CallArgs []*Expr

	CondCond *Expr
	CondThen *Expr
	CondElse *Expr

	MemberTarget *Expr
	MemberField  Member
}

// ExprKind tags which Expr variant is populated.
type ExprKind int

const (
	KindIntLit ExprKind = iota
	KindFloatLit
	KindBoolLit
	KindStringLit
	KindVar
	KindUnary
	KindBinary
	KindCall
	KindConditional
	KindMember
)

func Int(v int32) *Expr        { return &Expr{Kind: KindIntLit, IntLit: v} }
func Float(v float64) *Expr    { return &Expr{Kind: KindFloatLit, FloatLit: v} }
func Bool(v bool) *Expr        { return &Expr{Kind: KindBoolLit, BoolLit: v} }
func String(v string) *Expr    { return &Expr{Kind: KindStringLit, StringLit: v} }
func Var(name string) *Expr    { return &Expr{Kind: KindVar, VarName: name} }
func Unary(op UnaryOp, e *Expr) *Expr { return &Expr{Kind: KindUnary, UnaryOp: op, Operand: e} }
func Binary(l *Expr, op BinaryOp, r *Expr) *Expr {
	return &Expr{Kind: KindBinary, BinOp: op, Left: l, Right: r}
}
func Call(name string, args []*Expr) *Expr { return &Expr{Kind: KindCall, CallName: name, CallArgs: args} }
func Conditional(cond, then, els *Expr) *Expr {
	return &Expr{Kind: KindConditional, CondCond: cond, CondThen: then, CondElse: els}
}
func MemberAccess(target *Expr, m Member) *Expr {
	return &Expr{Kind: KindMember, MemberTarget: target, MemberField: m}
}

// Env is the evaluation environment: a variable binding table. Expr nodes
// resolve free variables against the enclosing network's Parameter nodes
// by name (spec.md §4.1), which the evaluator populates into Env before
// calling Eval.
type Env map[string]network.NetworkResult
