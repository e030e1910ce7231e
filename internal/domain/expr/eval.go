package expr

import (
	"math"

	"github.com/latticeforge/kernel/internal/domain/network"
	"github.com/latticeforge/kernel/pkg/types"
)

// Eval performs pure recursive-descent evaluation of e against env, per
// spec.md §4.2. Errors in any subexpression propagate as a NetworkResult
// Error variant rather than a Go error — Eval itself never fails, mirroring
// the "errors are values" propagation used throughout NetworkResult.
func Eval(e *Expr, env Env) network.NetworkResult {
	switch e.Kind {
	case KindIntLit:
		return network.NewInt(e.IntLit)
	case KindFloatLit:
		return network.NewFloat(e.FloatLit)
	case KindBoolLit:
		return network.NewBool(e.BoolLit)
	case KindStringLit:
		return network.NewString(e.StringLit)

	case KindVar:
		v, ok := env[e.VarName]
		if !ok {
			return network.NewErrorf("unknown variable %q", e.VarName)
		}
		return v

	case KindUnary:
		return evalUnary(e, env)

	case KindBinary:
		return evalBinary(e, env)

	case KindCall:
		return evalCall(e, env)

	case KindConditional:
		c := Eval(e.CondCond, env)
		if c.IsError() {
			return c
		}
		if asBool(c) {
			return Eval(e.CondThen, env)
		}
		return Eval(e.CondElse, env)

	case KindMember:
		t := Eval(e.MemberTarget, env)
		if t.IsError() {
			return t
		}
		return evalMember(t, e.MemberField)
	}
	return network.NewError("unhandled expression kind")
}

func asFloat(r network.NetworkResult) float64 {
	if r.Kind == network.KindInt {
		return float64(r.Int)
	}
	return r.Float
}

func asBool(r network.NetworkResult) bool {
	if r.Kind == network.KindInt {
		return r.Int != 0
	}
	return r.Bool
}

func evalUnary(e *Expr, env Env) network.NetworkResult {
	v := Eval(e.Operand, env)
	if v.IsError() {
		return v
	}
	switch e.UnaryOp {
	case OpPos:
		return v
	case OpNeg:
		switch v.Kind {
		case network.KindInt:
			return network.NewInt(-v.Int)
		case network.KindFloat:
			return network.NewFloat(-v.Float)
		case network.KindVec2:
			return network.NewVec2(v.Vec2.Negate())
		case network.KindVec3:
			return network.NewVec3(v.Vec3.Negate())
		}
		return network.NewError("unary - on unsupported type")
	case OpNot:
		return network.NewBool(!asBool(v))
	}
	return network.NewError("unknown unary operator")
}

func evalBinary(e *Expr, env Env) network.NetworkResult {
	l := Eval(e.Left, env)
	if l.IsError() {
		return l
	}
	r := Eval(e.Right, env)
	if r.IsError() {
		return r
	}

	switch e.BinOp {
	case OpAnd:
		return network.NewBool(asBool(l) && asBool(r))
	case OpOr:
		return network.NewBool(asBool(l) || asBool(r))
	case OpEq:
		return network.NewBool(equalResults(l, r))
	case OpNeq:
		return network.NewBool(!equalResults(l, r))
	case OpLt:
		return network.NewBool(asFloat(l) < asFloat(r))
	case OpLte:
		return network.NewBool(asFloat(l) <= asFloat(r))
	case OpGt:
		return network.NewBool(asFloat(l) > asFloat(r))
	case OpGte:
		return network.NewBool(asFloat(l) >= asFloat(r))
	case OpMod:
		if r.Int == 0 {
			return network.NewError("Modulo by zero")
		}
		return network.NewInt(l.Int % r.Int)
	case OpAdd:
		return evalVectorOrArith(l, r, func(a, b float64) float64 { return a + b },
			func(a, b types.Vec2) types.Vec2 { return a.Add(b) },
			func(a, b types.Vec3) types.Vec3 { return a.Add(b) })
	case OpSub:
		return evalVectorOrArith(l, r, func(a, b float64) float64 { return a - b },
			func(a, b types.Vec2) types.Vec2 { return a.Sub(b) },
			func(a, b types.Vec3) types.Vec3 { return a.Sub(b) })
	case OpPow:
		return network.NewFloat(math.Pow(asFloat(l), asFloat(r)))
	case OpMul:
		return evalMul(l, r)
	case OpDiv:
		return evalDiv(l, r)
	}
	return network.NewError("unknown binary operator")
}

func equalResults(l, r network.NetworkResult) bool {
	if isNumeric(l.Kind) && isNumeric(r.Kind) {
		return asFloat(l) == asFloat(r)
	}
	if l.Kind != r.Kind {
		return false
	}
	switch l.Kind {
	case network.KindBool:
		return l.Bool == r.Bool
	case network.KindString:
		return l.Str == r.Str
	case network.KindVec2:
		return l.Vec2 == r.Vec2
	case network.KindVec3:
		return l.Vec3 == r.Vec3
	}
	return false
}

func evalVectorOrArith(l, r network.NetworkResult, f func(a, b float64) float64, f2 func(a, b types.Vec2) types.Vec2, f3 func(a, b types.Vec3) types.Vec3) network.NetworkResult {
	if l.Kind == network.KindVec2 && r.Kind == network.KindVec2 {
		return network.NewVec2(f2(l.Vec2, r.Vec2))
	}
	if l.Kind == network.KindVec3 && r.Kind == network.KindVec3 {
		return network.NewVec3(f3(l.Vec3, r.Vec3))
	}
	if isNumeric(l.Kind) && isNumeric(r.Kind) {
		result := f(asFloat(l), asFloat(r))
		if l.Kind == network.KindInt && r.Kind == network.KindInt {
			return network.NewInt(int32(result))
		}
		return network.NewFloat(result)
	}
	return network.NewError("incompatible operand types")
}

func evalMul(l, r network.NetworkResult) network.NetworkResult {
	switch {
	case l.Kind == network.KindVec2 && isNumeric(r.Kind):
		return network.NewVec2(l.Vec2.Scale(asFloat(r)))
	case l.Kind == network.KindVec3 && isNumeric(r.Kind):
		return network.NewVec3(l.Vec3.Scale(asFloat(r)))
	case isNumeric(l.Kind) && r.Kind == network.KindVec2:
		return network.NewVec2(r.Vec2.Scale(asFloat(l)))
	case isNumeric(l.Kind) && r.Kind == network.KindVec3:
		return network.NewVec3(r.Vec3.Scale(asFloat(l)))
	case isNumeric(l.Kind) && isNumeric(r.Kind):
		if l.Kind == network.KindInt && r.Kind == network.KindInt {
			return network.NewInt(l.Int * r.Int)
		}
		return network.NewFloat(asFloat(l) * asFloat(r))
	}
	return network.NewError("incompatible operand types for *")
}

func evalDiv(l, r network.NetworkResult) network.NetworkResult {
	switch {
	case l.Kind == network.KindVec2 && isNumeric(r.Kind):
		if asFloat(r) == 0 {
			return network.NewError("Division by zero")
		}
		return network.NewVec2(l.Vec2.Scale(1 / asFloat(r)))
	case l.Kind == network.KindVec3 && isNumeric(r.Kind):
		if asFloat(r) == 0 {
			return network.NewError("Division by zero")
		}
		return network.NewVec3(l.Vec3.Scale(1 / asFloat(r)))
	case isNumeric(l.Kind) && isNumeric(r.Kind):
		if asFloat(r) == 0 {
			return network.NewError("Division by zero")
		}
		if l.Kind == network.KindInt && r.Kind == network.KindInt {
			return network.NewInt(l.Int / r.Int)
		}
		return network.NewFloat(asFloat(l) / asFloat(r))
	}
	return network.NewError("incompatible operand types for /")
}

func evalMember(t network.NetworkResult, m Member) network.NetworkResult {
	switch t.Kind {
	case network.KindVec2:
		switch m {
		case MemberX:
			return network.NewFloat(t.Vec2.X)
		case MemberY:
			return network.NewFloat(t.Vec2.Y)
		}
	case network.KindVec3:
		switch m {
		case MemberX:
			return network.NewFloat(t.Vec3.X)
		case MemberY:
			return network.NewFloat(t.Vec3.Y)
		case MemberZ:
			return network.NewFloat(t.Vec3.Z)
		}
	case network.KindIVec2:
		switch m {
		case MemberX:
			return network.NewInt(t.IVec2.X)
		case MemberY:
			return network.NewInt(t.IVec2.Y)
		}
	case network.KindIVec3:
		switch m {
		case MemberX:
			return network.NewInt(t.IVec3.X)
		case MemberY:
			return network.NewInt(t.IVec3.Y)
		case MemberZ:
			return network.NewInt(t.IVec3.Z)
		}
	}
	return network.NewError("member access on a non-vector type")
}

func evalCall(e *Expr, env Env) network.NetworkResult {
	args := make([]network.NetworkResult, len(e.CallArgs))
	for i, a := range e.CallArgs {
		v := Eval(a, env)
		if v.IsError() {
			return v
		}
		args[i] = v
	}

	switch e.CallName {
	case "sin":
		return network.NewFloat(math.Sin(asFloat(args[0])))
	case "cos":
		return network.NewFloat(math.Cos(asFloat(args[0])))
	case "sqrt":
		return network.NewFloat(math.Sqrt(asFloat(args[0])))
	case "abs":
		return network.NewFloat(math.Abs(asFloat(args[0])))
	case "min":
		return network.NewFloat(math.Min(asFloat(args[0]), asFloat(args[1])))
	case "max":
		return network.NewFloat(math.Max(asFloat(args[0]), asFloat(args[1])))
	case "vec2":
		return network.NewVec2(types.Vec2{X: asFloat(args[0]), Y: asFloat(args[1])})
	case "vec3":
		return network.NewVec3(types.Vec3{X: asFloat(args[0]), Y: asFloat(args[1]), Z: asFloat(args[2])})
	case "ivec2":
		return network.NewIVec2(types.IVec2{X: args[0].Int, Y: args[1].Int})
	case "ivec3":
		return network.NewIVec3(types.IVec3{X: args[0].Int, Y: args[1].Int, Z: args[2].Int})
	case "length2":
		return network.NewFloat(args[0].Vec2.Length())
	case "length3":
		return network.NewFloat(args[0].Vec3.Length())
	case "normalize2":
		return network.NewVec2(args[0].Vec2.Normalize())
	case "normalize3":
		return network.NewVec3(args[0].Vec3.Normalize())
	case "dot2":
		return network.NewFloat(args[0].Vec2.Dot(args[1].Vec2))
	case "dot3":
		return network.NewFloat(args[0].Vec3.Dot(args[1].Vec3))
	case "cross":
		return network.NewVec3(args[0].Vec3.Cross(args[1].Vec3))
	case "distance2":
		return network.NewFloat(args[0].Vec2.Distance(args[1].Vec2))
	case "distance3":
		return network.NewFloat(args[0].Vec3.Distance(args[1].Vec3))
	}
	return network.NewErrorf("unknown function %q", e.CallName)
}
