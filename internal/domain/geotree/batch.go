package geotree

import (
	"math"

	"github.com/latticeforge/kernel/pkg/types"
)

// EvalBatch2D evaluates n at every point in points, writing into out
// (len(out) must equal len(points)). Primitive and combinator kinds use a
// specialized batched path that hoists per-call setup (e.g. the half-plane
// normal) out of the per-point loop; anything else falls back to the naive
// per-point Eval2D.
func (n *GeoNode) EvalBatch2D(points []types.Vec2, out []float64) error {
	switch n.kind {
	case KindHalfPlane:
		dir := n.point2.Sub(n.point1)
		normal := types.Vec2{X: -dir.Y, Y: dir.X}.Normalize()
		for i, p := range points {
			out[i] = normal.Dot(p.Sub(n.point1))
		}
		return nil

	case KindCircle:
		for i, p := range points {
			out[i] = p.Sub(n.center2).Length() - n.radius
		}
		return nil

	case KindUnion2D:
		return combineBatch2D(n.shapes, points, out, minCombine, math.MaxFloat64)

	case KindIntersection2D:
		return combineBatch2D(n.shapes, points, out, maxCombine, -math.MaxFloat64)

	case KindDifference2D:
		return differenceBatch2D(n.base, n.sub, points, out)

	default:
		for i, p := range points {
			v, err := n.Eval2D(p)
			if err != nil {
				return err
			}
			out[i] = v
		}
		return nil
	}
}

// EvalBatch3D is the 3D analogue of EvalBatch2D.
func (n *GeoNode) EvalBatch3D(points []types.Vec3, out []float64) error {
	switch n.kind {
	case KindHalfSpace:
		for i, p := range points {
			out[i] = n.normal.Dot(p.Sub(n.center3))
		}
		return nil

	case KindSphere:
		for i, p := range points {
			out[i] = p.Sub(n.center3).Length() - n.radius
		}
		return nil

	case KindExtrude:
		return extrudeBatch(n.height, n.direction, n.shape, points, out)

	case KindTransform:
		inv := n.transform.Inverse()
		local := make([]types.Vec3, len(points))
		for i, p := range points {
			local[i] = inv.ApplyToPosition(p)
		}
		return n.shape.EvalBatch3D(local, out)

	case KindUnion3D:
		return combineBatch3D(n.shapes, points, out, minCombine, math.MaxFloat64)

	case KindIntersection3D:
		return combineBatch3D(n.shapes, points, out, maxCombine, -math.MaxFloat64)

	case KindDifference3D:
		return differenceBatch3D(n.base, n.sub, points, out)

	default:
		for i, p := range points {
			v, err := n.Eval3D(p)
			if err != nil {
				return err
			}
			out[i] = v
		}
		return nil
	}
}

func minCombine(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxCombine(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func combineBatch2D(shapes []*GeoNode, points []types.Vec2, out []float64, combine func(a, b float64) float64, empty float64) error {
	if len(shapes) == 0 {
		for i := range out {
			out[i] = empty
		}
		return nil
	}
	if err := shapes[0].EvalBatch2D(points, out); err != nil {
		return err
	}
	tmp := make([]float64, len(points))
	for _, s := range shapes[1:] {
		if err := s.EvalBatch2D(points, tmp); err != nil {
			return err
		}
		for i := range out {
			out[i] = combine(out[i], tmp[i])
		}
	}
	return nil
}

func combineBatch3D(shapes []*GeoNode, points []types.Vec3, out []float64, combine func(a, b float64) float64, empty float64) error {
	if len(shapes) == 0 {
		for i := range out {
			out[i] = empty
		}
		return nil
	}
	if err := shapes[0].EvalBatch3D(points, out); err != nil {
		return err
	}
	tmp := make([]float64, len(points))
	for _, s := range shapes[1:] {
		if err := s.EvalBatch3D(points, tmp); err != nil {
			return err
		}
		for i := range out {
			out[i] = combine(out[i], tmp[i])
		}
	}
	return nil
}

func differenceBatch2D(base, sub *GeoNode, points []types.Vec2, out []float64) error {
	if err := base.EvalBatch2D(points, out); err != nil {
		return err
	}
	subResults := make([]float64, len(points))
	if err := sub.EvalBatch2D(points, subResults); err != nil {
		return err
	}
	for i := range out {
		out[i] = maxCombine(out[i], -subResults[i])
	}
	return nil
}

func differenceBatch3D(base, sub *GeoNode, points []types.Vec3, out []float64) error {
	if err := base.EvalBatch3D(points, out); err != nil {
		return err
	}
	subResults := make([]float64, len(points))
	if err := sub.EvalBatch3D(points, subResults); err != nil {
		return err
	}
	for i := range out {
		out[i] = maxCombine(out[i], -subResults[i])
	}
	return nil
}

func extrudeBatch(height float64, direction types.Vec3, shape *GeoNode, points []types.Vec3, out []float64) error {
	horizontal := types.Vec2{X: direction.X, Y: direction.Y}
	heightZ := direction.Z * height
	invDirZ := 1.0 / direction.Z

	points2D := make([]types.Vec2, len(points))
	for i, p := range points {
		out[i] = maxCombine(-p.Z, p.Z-heightZ)
		displacement := horizontal.Scale(p.Z * invDirZ)
		points2D[i] = types.Vec2{X: p.X, Y: p.Y}.Sub(displacement)
	}

	shapeResults := make([]float64, len(points))
	if err := shape.EvalBatch2D(points2D, shapeResults); err != nil {
		return err
	}
	for i := range out {
		out[i] = maxCombine(out[i], shapeResults[i])
	}
	return nil
}
