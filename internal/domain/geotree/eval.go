package geotree

import (
	"math"

	"github.com/latticeforge/kernel/pkg/errors"
	"github.com/latticeforge/kernel/pkg/types"
)

// gradientEpsilon is the step used by the one-sided finite-difference
// gradient. One-sided is cheaper than central differences and accurate
// enough for surface normals and AtomFill's passivation direction.
const gradientEpsilon = 0.001

// BatchSize is the nominal batch width for the batched evaluators.
// EvalBatch2D/EvalBatch3D accept slices of any length, and no caller splits
// its points by this constant: AtomFill passes all queued sites in one call.
const BatchSize = 256

// Is2D reports whether n is one of the six 2D-typed kinds.
func (n *GeoNode) Is2D() bool {
	switch n.kind {
	case KindHalfPlane, KindCircle, KindPolygon, KindUnion2D, KindIntersection2D, KindDifference2D:
		return true
	default:
		return false
	}
}

// Is3D reports whether n is one of the seven 3D-typed kinds.
func (n *GeoNode) Is3D() bool {
	switch n.kind {
	case KindHalfSpace, KindSphere, KindExtrude, KindTransform, KindUnion3D, KindIntersection3D, KindDifference3D:
		return true
	default:
		return false
	}
}

// Eval2D evaluates the signed distance field at sample_point for a
// 2D-typed node. Calling it on a 3D-typed node is a programming error
// (CodeDimensionMismatch) — callers should route through the evaluator's
// type-checked Geometry2D/Geometry argument slots so this never happens in
// practice.
func (n *GeoNode) Eval2D(p types.Vec2) (float64, error) {
	switch n.kind {
	case KindHalfPlane:
		return halfPlaneEval(n.point1, n.point2, p), nil
	case KindCircle:
		return circleEval(n.center2, n.radius, p), nil
	case KindPolygon:
		return polygonEval(n.vertices, p), nil
	case KindUnion2D:
		return union2DEval(n.shapes, p)
	case KindIntersection2D:
		return intersection2DEval(n.shapes, p)
	case KindDifference2D:
		return difference2DEval(n.base, n.sub, p)
	default:
		return 0, errors.New(errors.CodeDimensionMismatch, "node is not a 2D shape").
			WithDetail("kind must be evaluated with Eval3D")
	}
}

// Eval3D is the 3D analogue of Eval2D.
func (n *GeoNode) Eval3D(p types.Vec3) (float64, error) {
	switch n.kind {
	case KindHalfSpace:
		return halfSpaceEval(n.normal, n.center3, p), nil
	case KindSphere:
		return sphereEval(n.center3, n.radius, p), nil
	case KindExtrude:
		return extrudeEval(n.height, n.direction, n.shape, p)
	case KindTransform:
		return transformEval(n.transform, n.shape, p)
	case KindUnion3D:
		return union3DEval(n.shapes, p)
	case KindIntersection3D:
		return intersection3DEval(n.shapes, p)
	case KindDifference3D:
		return difference3DEval(n.base, n.sub, p)
	default:
		return 0, errors.New(errors.CodeDimensionMismatch, "node is not a 3D shape").
			WithDetail("kind must be evaluated with Eval2D")
	}
}

// Gradient2D returns the finite-difference gradient and the value of the
// SDF at p in one pass (the value is a byproduct of the gradient
// computation, so callers that need both should call this rather than
// Eval2D followed by a separate gradient call).
func (n *GeoNode) Gradient2D(p types.Vec2) (types.Vec2, float64, error) {
	value, err := n.Eval2D(p)
	if err != nil {
		return types.Vec2{}, 0, err
	}
	dx, err := n.Eval2D(types.Vec2{X: p.X + gradientEpsilon, Y: p.Y})
	if err != nil {
		return types.Vec2{}, 0, err
	}
	dy, err := n.Eval2D(types.Vec2{X: p.X, Y: p.Y + gradientEpsilon})
	if err != nil {
		return types.Vec2{}, 0, err
	}
	grad := types.Vec2{X: (dx - value) / gradientEpsilon, Y: (dy - value) / gradientEpsilon}
	return grad, value, nil
}

// Gradient3D is the 3D analogue of Gradient2D.
func (n *GeoNode) Gradient3D(p types.Vec3) (types.Vec3, float64, error) {
	value, err := n.Eval3D(p)
	if err != nil {
		return types.Vec3{}, 0, err
	}
	dx, err := n.Eval3D(types.Vec3{X: p.X + gradientEpsilon, Y: p.Y, Z: p.Z})
	if err != nil {
		return types.Vec3{}, 0, err
	}
	dy, err := n.Eval3D(types.Vec3{X: p.X, Y: p.Y + gradientEpsilon, Z: p.Z})
	if err != nil {
		return types.Vec3{}, 0, err
	}
	dz, err := n.Eval3D(types.Vec3{X: p.X, Y: p.Y, Z: p.Z + gradientEpsilon})
	if err != nil {
		return types.Vec3{}, 0, err
	}
	grad := types.Vec3{
		X: (dx - value) / gradientEpsilon,
		Y: (dy - value) / gradientEpsilon,
		Z: (dz - value) / gradientEpsilon,
	}
	return grad, value, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Primitive evaluators
// ─────────────────────────────────────────────────────────────────────────────

func halfSpaceEval(normal, center, p types.Vec3) float64 {
	return normal.Dot(p.Sub(center))
}

func halfPlaneEval(point1, point2, p types.Vec2) float64 {
	dir := point2.Sub(point1)
	normal := types.Vec2{X: -dir.Y, Y: dir.X}.Normalize()
	return normal.Dot(p.Sub(point1))
}

func circleEval(center types.Vec2, radius float64, p types.Vec2) float64 {
	return p.Sub(center).Length() - radius
}

func sphereEval(center types.Vec3, radius float64, p types.Vec3) float64 {
	return p.Sub(center).Length() - radius
}

func polygonEval(vertices []types.Vec2, p types.Vec2) float64 {
	if len(vertices) < 3 {
		return math.MaxFloat64
	}

	minDistance := math.MaxFloat64
	for i := range vertices {
		j := (i + 1) % len(vertices)
		d := pointToSegmentDistance(p, vertices[i], vertices[j])
		if d < minDistance {
			minDistance = d
		}
	}

	if isPointInsidePolygon(p, vertices) {
		return -minDistance
	}
	return minDistance
}

func pointToSegmentDistance(p, a, b types.Vec2) float64 {
	line := b.Sub(a)
	lenSq := line.LengthSquared()
	if lenSq < 1e-10 {
		return p.Sub(a).Length()
	}
	t := p.Sub(a).Dot(line) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := a.Add(line.Scale(t))
	return p.Sub(closest).Length()
}

func isPointInsidePolygon(p types.Vec2, vertices []types.Vec2) bool {
	if len(vertices) < 3 {
		return false
	}
	intersections := 0
	for i := range vertices {
		j := (i + 1) % len(vertices)
		if segmentIntersectsRay(p, vertices[i], vertices[j]) {
			intersections++
		}
	}
	return intersections%2 == 1
}

func segmentIntersectsRay(test, p1, p2 types.Vec2) bool {
	if (p1.Y > test.Y && p2.Y > test.Y) || (p1.Y < test.Y && p2.Y < test.Y) {
		return false
	}
	if p1.X < test.X && p2.X < test.X {
		return false
	}

	if math.Abs(p1.Y-test.Y) < 1e-10 {
		return p1.Y > p2.Y && p1.X >= test.X
	}
	if math.Abs(p2.Y-test.Y) < 1e-10 {
		return p2.Y > p1.Y && p2.X >= test.X
	}

	t := (test.Y - p1.Y) / (p2.Y - p1.Y)
	if t >= 0 && t <= 1 {
		xIntersect := p1.X + t*(p2.X-p1.X)
		return xIntersect >= test.X
	}
	return false
}

func extrudeEval(height float64, direction types.Vec3, shape *GeoNode, p types.Vec3) (float64, error) {
	heightZ := direction.Z * height
	zVal := math.Max(-p.Z, p.Z-heightZ)

	horizontalDisplacement := types.Vec2{X: direction.X, Y: direction.Y}.Scale(p.Z / direction.Z)
	p2 := types.Vec2{X: p.X, Y: p.Y}.Sub(horizontalDisplacement)

	inputVal, err := shape.Eval2D(p2)
	if err != nil {
		return 0, err
	}
	return math.Max(zVal, inputVal), nil
}

func transformEval(transform types.Transform, shape *GeoNode, p types.Vec3) (float64, error) {
	local := transform.Inverse().ApplyToPosition(p)
	return shape.Eval3D(local)
}

func union2DEval(shapes []*GeoNode, p types.Vec2) (float64, error) {
	if len(shapes) == 0 {
		return math.MaxFloat64, nil
	}
	result := math.MaxFloat64
	for _, s := range shapes {
		v, err := s.Eval2D(p)
		if err != nil {
			return 0, err
		}
		if v < result {
			result = v
		}
	}
	return result, nil
}

func union3DEval(shapes []*GeoNode, p types.Vec3) (float64, error) {
	if len(shapes) == 0 {
		return math.MaxFloat64, nil
	}
	result := math.MaxFloat64
	for _, s := range shapes {
		v, err := s.Eval3D(p)
		if err != nil {
			return 0, err
		}
		if v < result {
			result = v
		}
	}
	return result, nil
}

func intersection2DEval(shapes []*GeoNode, p types.Vec2) (float64, error) {
	if len(shapes) == 0 {
		return -math.MaxFloat64, nil
	}
	result := -math.MaxFloat64
	for _, s := range shapes {
		v, err := s.Eval2D(p)
		if err != nil {
			return 0, err
		}
		if v > result {
			result = v
		}
	}
	return result, nil
}

func intersection3DEval(shapes []*GeoNode, p types.Vec3) (float64, error) {
	if len(shapes) == 0 {
		return -math.MaxFloat64, nil
	}
	result := -math.MaxFloat64
	for _, s := range shapes {
		v, err := s.Eval3D(p)
		if err != nil {
			return 0, err
		}
		if v > result {
			result = v
		}
	}
	return result, nil
}

func difference2DEval(base, sub *GeoNode, p types.Vec2) (float64, error) {
	b, err := base.Eval2D(p)
	if err != nil {
		return 0, err
	}
	s, err := sub.Eval2D(p)
	if err != nil {
		return 0, err
	}
	return math.Max(b, -s), nil
}

func difference3DEval(base, sub *GeoNode, p types.Vec3) (float64, error) {
	b, err := base.Eval3D(p)
	if err != nil {
		return 0, err
	}
	s, err := sub.Eval3D(p)
	if err != nil {
		return 0, err
	}
	return math.Max(b, -s), nil
}
