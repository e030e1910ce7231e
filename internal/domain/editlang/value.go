package editlang

import (
	"fmt"
	"strings"

	"github.com/latticeforge/kernel/internal/domain/network"
	"github.com/latticeforge/kernel/pkg/types"
)

var kindByName = func() map[string]network.Kind {
	m := make(map[string]network.Kind)
	for k := network.KindNone; k <= network.KindError; k++ {
		m[strings.ToLower(k.String())] = k
	}
	return m
}()

// isLiteralCapable reports whether a parameter of DataType dt may be filled
// in directly from a script literal rather than requiring a wire. The
// domain-construction types (Geometry, Atomic, Motif, ...) have no sensible
// literal form, so an author supplying a literal there gets the "wire-only
// parameter" warning (spec.md §4.7).
func isLiteralCapable(dt network.DataType) bool {
	switch dt.Kind {
	case network.KindBool, network.KindString, network.KindInt, network.KindFloat,
		network.KindVec2, network.KindVec3, network.KindIVec2, network.KindIVec3:
		return true
	case network.KindArray:
		if dt.Elem == nil {
			return false
		}
		return isLiteralCapable(*dt.Elem)
	default:
		return false
	}
}

func numberOf(v Value) (float64, bool) {
	switch v.Kind {
	case ValInt:
		return float64(v.Int), true
	case ValFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

// valueToResult converts a parsed literal Value into a NetworkResult typed
// as target, applying the same Int->Float-style widening the evaluator's
// convertValue applies to wired values, plus array-literal destructuring
// into Vec2/Vec3/IVec2/IVec3 and elementwise Array[T] construction.
func valueToResult(v Value, target network.DataType) (network.NetworkResult, bool) {
	switch target.Kind {
	case network.KindBool:
		if v.Kind == ValBool {
			return network.NewBool(v.Bool), true
		}
	case network.KindString:
		if v.Kind == ValString {
			return network.NewString(v.Str), true
		}
	case network.KindInt:
		if v.Kind == ValInt {
			return network.NewInt(int32(v.Int)), true
		}
	case network.KindFloat:
		if n, ok := numberOf(v); ok {
			return network.NewFloat(n), true
		}
	case network.KindVec2:
		if v.Kind == ValArray && len(v.Array) == 2 {
			x, xok := numberOf(v.Array[0])
			y, yok := numberOf(v.Array[1])
			if xok && yok {
				return network.NewVec2(types.Vec2{X: x, Y: y}), true
			}
		}
	case network.KindVec3:
		if v.Kind == ValArray && len(v.Array) == 3 {
			x, xok := numberOf(v.Array[0])
			y, yok := numberOf(v.Array[1])
			z, zok := numberOf(v.Array[2])
			if xok && yok && zok {
				return network.NewVec3(types.Vec3{X: x, Y: y, Z: z}), true
			}
		}
	case network.KindIVec2:
		if v.Kind == ValArray && len(v.Array) == 2 && v.Array[0].Kind == ValInt && v.Array[1].Kind == ValInt {
			return network.NewIVec2(types.IVec2{X: int32(v.Array[0].Int), Y: int32(v.Array[1].Int)}), true
		}
	case network.KindIVec3:
		if v.Kind == ValArray && len(v.Array) == 3 && v.Array[0].Kind == ValInt && v.Array[1].Kind == ValInt && v.Array[2].Kind == ValInt {
			return network.NewIVec3(types.IVec3{
				X: int32(v.Array[0].Int), Y: int32(v.Array[1].Int), Z: int32(v.Array[2].Int),
			}), true
		}
	case network.KindArray:
		if target.Elem == nil {
			return network.NetworkResult{}, false
		}
		if v.Kind != ValArray {
			c, ok := valueToResult(v, *target.Elem)
			if !ok {
				return network.NetworkResult{}, false
			}
			return network.NewArray([]network.NetworkResult{c}), true
		}
		out := make([]network.NetworkResult, len(v.Array))
		for i, e := range v.Array {
			c, ok := valueToResult(e, *target.Elem)
			if !ok {
				return network.NetworkResult{}, false
			}
			out[i] = c
		}
		return network.NewArray(out), true
	}
	return network.NetworkResult{}, false
}

// valueToResultNatural infers a NetworkResult's type from a literal's own
// shape, for contexts with no declared target type to convert against (a
// Const node's "value" property defines its own type).
func valueToResultNatural(v Value) (network.NetworkResult, bool) {
	switch v.Kind {
	case ValBool:
		return network.NewBool(v.Bool), true
	case ValInt:
		return network.NewInt(int32(v.Int)), true
	case ValFloat:
		return network.NewFloat(v.Float), true
	case ValString:
		return network.NewString(v.Str), true
	case ValArray:
		if len(v.Array) == 2 {
			if r, ok := valueToResult(v, network.SimpleType(network.KindVec2)); ok {
				return r, true
			}
		}
		if len(v.Array) == 3 {
			if r, ok := valueToResult(v, network.SimpleType(network.KindVec3)); ok {
				return r, true
			}
		}
		out := make([]network.NetworkResult, len(v.Array))
		for i, e := range v.Array {
			r, ok := valueToResultNatural(e)
			if !ok {
				return network.NetworkResult{}, false
			}
			out[i] = r
		}
		return network.NewArray(out), true
	}
	return network.NetworkResult{}, false
}

func dataTypeByName(name string) (network.DataType, error) {
	k, ok := kindByName[strings.ToLower(name)]
	if !ok {
		return network.DataType{}, fmt.Errorf("unknown data type %q", name)
	}
	return network.SimpleType(k), nil
}
