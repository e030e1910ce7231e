package expr

import (
	"fmt"

	"github.com/latticeforge/kernel/internal/domain/network"
	"github.com/latticeforge/kernel/pkg/errors"
)

// TypeEnv maps a free variable's name to its static DataType, populated by
// the evaluator from the enclosing network's Parameter nodes before
// typechecking an Expr node.
type TypeEnv map[string]network.DataType

// intrinsicSignature describes one pre-registered call's accepted argument
// count. Argument types are checked in typecheckCall only for sin/cos/sqrt/
// abs and min/max (numeric arguments); the other intrinsics check only
// their argument count.
type intrinsicSignature struct {
	minArgs, maxArgs int
}

var intrinsics = map[string]intrinsicSignature{
	"sin": {1, 1}, "cos": {1, 1}, "sqrt": {1, 1}, "abs": {1, 1},
	"min": {2, 2}, "max": {2, 2},
	"vec2": {2, 2}, "vec3": {3, 3}, "ivec2": {2, 2}, "ivec3": {3, 3},
	"length2": {1, 1}, "length3": {1, 1},
	"normalize2": {1, 1}, "normalize3": {1, 1},
	"dot2": {2, 2}, "dot3": {2, 2}, "cross": {2, 2},
	"distance2": {2, 2}, "distance3": {2, 2},
}

func isNumeric(k network.Kind) bool { return k == network.KindInt || k == network.KindFloat }
func isVector(k network.Kind) bool {
	return k == network.KindVec2 || k == network.KindVec3 || k == network.KindIVec2 || k == network.KindIVec3
}

// Typecheck statically validates e against env, returning its resulting
// DataType or a CodeExprTypeError AppError describing the first failure,
// per spec.md §4.2's typing rules.
func Typecheck(e *Expr, env TypeEnv) (network.DataType, error) {
	switch e.Kind {
	case KindIntLit:
		return network.SimpleType(network.KindInt), nil
	case KindFloatLit:
		return network.SimpleType(network.KindFloat), nil
	case KindBoolLit:
		return network.SimpleType(network.KindBool), nil
	case KindStringLit:
		return network.SimpleType(network.KindString), nil

	case KindVar:
		dt, ok := env[e.VarName]
		if !ok {
			return network.DataType{}, errors.New(errors.CodeExprTypeError, fmt.Sprintf("unknown variable %q", e.VarName))
		}
		return dt, nil

	case KindUnary:
		operand, err := Typecheck(e.Operand, env)
		if err != nil {
			return network.DataType{}, err
		}
		switch e.UnaryOp {
		case OpNeg, OpPos:
			if !isNumeric(operand.Kind) && !isVector(operand.Kind) {
				return network.DataType{}, errors.New(errors.CodeExprTypeError, "unary +/- requires a numeric or vector operand")
			}
			return operand, nil
		case OpNot:
			if operand.Kind != network.KindBool && operand.Kind != network.KindInt {
				return network.DataType{}, errors.New(errors.CodeExprTypeError, "! requires a bool or int operand")
			}
			return network.SimpleType(network.KindBool), nil
		}
		return network.DataType{}, errors.New(errors.CodeExprTypeError, "unknown unary operator")

	case KindBinary:
		return typecheckBinary(e, env)

	case KindCall:
		return typecheckCall(e, env)

	case KindConditional:
		condT, err := Typecheck(e.CondCond, env)
		if err != nil {
			return network.DataType{}, err
		}
		if condT.Kind != network.KindBool && condT.Kind != network.KindInt {
			return network.DataType{}, errors.New(errors.CodeExprTypeError, "conditional requires a bool or int condition")
		}
		thenT, err := Typecheck(e.CondThen, env)
		if err != nil {
			return network.DataType{}, err
		}
		elseT, err := Typecheck(e.CondElse, env)
		if err != nil {
			return network.DataType{}, err
		}
		if thenT.Kind != elseT.Kind {
			return network.DataType{}, errors.New(errors.CodeExprTypeError, "conditional branches must have the same type")
		}
		return thenT, nil

	case KindMember:
		targetT, err := Typecheck(e.MemberTarget, env)
		if err != nil {
			return network.DataType{}, err
		}
		if !isVector(targetT.Kind) {
			return network.DataType{}, errors.New(errors.CodeExprTypeError, "member access on a non-vector type")
		}
		if e.MemberField == MemberZ && (targetT.Kind == network.KindVec2 || targetT.Kind == network.KindIVec2) {
			return network.DataType{}, errors.New(errors.CodeExprTypeError, ".z on a 2-component vector")
		}
		if targetT.Kind == network.KindIVec2 || targetT.Kind == network.KindIVec3 {
			return network.SimpleType(network.KindInt), nil
		}
		return network.SimpleType(network.KindFloat), nil
	}
	return network.DataType{}, errors.New(errors.CodeExprTypeError, "unhandled expression kind")
}

func typecheckBinary(e *Expr, env TypeEnv) (network.DataType, error) {
	lt, err := Typecheck(e.Left, env)
	if err != nil {
		return network.DataType{}, err
	}
	rt, err := Typecheck(e.Right, env)
	if err != nil {
		return network.DataType{}, err
	}

	switch e.BinOp {
	case OpAnd, OpOr:
		if !isBoolish(lt.Kind) || !isBoolish(rt.Kind) {
			return network.DataType{}, errors.New(errors.CodeExprTypeError, "&&/|| require bool or int operands")
		}
		return network.SimpleType(network.KindBool), nil

	case OpEq, OpNeq:
		if lt.Kind != rt.Kind && !(isNumeric(lt.Kind) && isNumeric(rt.Kind)) {
			return network.DataType{}, errors.New(errors.CodeExprTypeError, "== / != require numerically-compatible types")
		}
		return network.SimpleType(network.KindBool), nil

	case OpLt, OpLte, OpGt, OpGte:
		if !isNumeric(lt.Kind) || !isNumeric(rt.Kind) {
			return network.DataType{}, errors.New(errors.CodeExprTypeError, "ordering operators require numeric operands")
		}
		return network.SimpleType(network.KindBool), nil

	case OpMod:
		if lt.Kind != network.KindInt || rt.Kind != network.KindInt {
			return network.DataType{}, errors.New(errors.CodeExprTypeError, "%% is integer-only")
		}
		return network.SimpleType(network.KindInt), nil

	case OpMul, OpDiv:
		if isVector(lt.Kind) && isNumeric(rt.Kind) {
			return network.SimpleType(lt.Kind), nil
		}
		if isNumeric(lt.Kind) && isVector(rt.Kind) && e.BinOp == OpMul {
			return network.SimpleType(rt.Kind), nil
		}
		if isNumeric(lt.Kind) && isNumeric(rt.Kind) {
			return arithResult(lt.Kind, rt.Kind), nil
		}
		return network.DataType{}, errors.New(errors.CodeExprTypeError, "invalid operand types for * or /")

	case OpPow:
		if isNumeric(lt.Kind) && isNumeric(rt.Kind) {
			return network.SimpleType(network.KindFloat), nil
		}
		return network.DataType{}, errors.New(errors.CodeExprTypeError, "^ requires numeric operands")

	case OpAdd, OpSub:
		if lt.Kind == rt.Kind && isVector(lt.Kind) {
			return network.SimpleType(lt.Kind), nil
		}
		if isNumeric(lt.Kind) && isNumeric(rt.Kind) {
			return arithResult(lt.Kind, rt.Kind), nil
		}
		return network.DataType{}, errors.New(errors.CodeExprTypeError, "component-wise vector arithmetic requires matching dimension")
	}
	return network.DataType{}, errors.New(errors.CodeExprTypeError, "unknown binary operator")
}

func isBoolish(k network.Kind) bool { return k == network.KindBool || k == network.KindInt }

// arithResult applies Int->Float lifting: the result is Float unless both
// operands are Int.
func arithResult(a, b network.Kind) network.DataType {
	if a == network.KindInt && b == network.KindInt {
		return network.SimpleType(network.KindInt)
	}
	return network.SimpleType(network.KindFloat)
}

func typecheckCall(e *Expr, env TypeEnv) (network.DataType, error) {
	sig, ok := intrinsics[e.CallName]
	if !ok {
		return network.DataType{}, errors.New(errors.CodeExprTypeError, fmt.Sprintf("unknown function %q", e.CallName))
	}
	if len(e.CallArgs) < sig.minArgs || len(e.CallArgs) > sig.maxArgs {
		return network.DataType{}, errors.New(errors.CodeExprTypeError, fmt.Sprintf("%s expects %d argument(s)", e.CallName, sig.minArgs))
	}
	argTypes := make([]network.DataType, len(e.CallArgs))
	for i, a := range e.CallArgs {
		t, err := Typecheck(a, env)
		if err != nil {
			return network.DataType{}, err
		}
		argTypes[i] = t
	}

	switch e.CallName {
	case "sin", "cos", "sqrt", "abs":
		if !isNumeric(argTypes[0].Kind) {
			return network.DataType{}, errors.New(errors.CodeExprTypeError, e.CallName+" requires a numeric argument")
		}
		return network.SimpleType(network.KindFloat), nil
	case "min", "max":
		if !isNumeric(argTypes[0].Kind) || !isNumeric(argTypes[1].Kind) {
			return network.DataType{}, errors.New(errors.CodeExprTypeError, e.CallName+" requires numeric arguments")
		}
		return network.SimpleType(network.KindFloat), nil
	case "vec2":
		return network.SimpleType(network.KindVec2), nil
	case "vec3":
		return network.SimpleType(network.KindVec3), nil
	case "ivec2":
		return network.SimpleType(network.KindIVec2), nil
	case "ivec3":
		return network.SimpleType(network.KindIVec3), nil
	case "length2", "length3", "dot2", "dot3", "distance2", "distance3":
		return network.SimpleType(network.KindFloat), nil
	case "normalize2":
		return network.SimpleType(network.KindVec2), nil
	case "normalize3", "cross":
		return network.SimpleType(network.KindVec3), nil
	}
	return network.DataType{}, errors.New(errors.CodeExprTypeError, "unhandled intrinsic")
}
