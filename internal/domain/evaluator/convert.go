package evaluator

import (
	"github.com/latticeforge/kernel/internal/domain/network"
	"github.com/latticeforge/kernel/pkg/types"
)

// convertValue applies spec.md §4.1/§3's promotion rules to coerce val to
// target: Int->Float, IVecN->VecN, scalar T->Array[T] wrapping, and
// elementwise array conversion. Returns ok=false when network.CanConvert
// itself says the conversion isn't legal.
func convertValue(val network.NetworkResult, target network.DataType) (network.NetworkResult, bool) {
	if !network.CanConvert(network.DataTypeOf(val), target) {
		return network.NetworkResult{}, false
	}

	if target.Kind == network.KindArray {
		if val.Kind == network.KindArray {
			if target.Elem == nil {
				return val, true
			}
			out := make([]network.NetworkResult, len(val.Array))
			for i, v := range val.Array {
				c, ok := convertValue(v, *target.Elem)
				if !ok {
					return network.NetworkResult{}, false
				}
				out[i] = c
			}
			return network.NewArray(out), true
		}
		if target.Elem == nil {
			return network.NewArray([]network.NetworkResult{val}), true
		}
		c, ok := convertValue(val, *target.Elem)
		if !ok {
			return network.NetworkResult{}, false
		}
		return network.NewArray([]network.NetworkResult{c}), true
	}

	if val.Kind == target.Kind {
		return val, true
	}

	switch {
	case val.Kind == network.KindInt && target.Kind == network.KindFloat:
		return network.NewFloat(float64(val.Int)), true
	case val.Kind == network.KindIVec2 && target.Kind == network.KindVec2:
		return network.NewVec2(types.Vec2{X: float64(val.IVec2.X), Y: float64(val.IVec2.Y)}), true
	case val.Kind == network.KindIVec3 && target.Kind == network.KindVec3:
		return network.NewVec3(types.Vec3{X: float64(val.IVec3.X), Y: float64(val.IVec3.Y), Z: float64(val.IVec3.Z)}), true
	}
	return network.NetworkResult{}, false
}
