package geotree_test

import (
	"testing"

	"github.com/latticeforge/kernel/internal/domain/geotree"
	"github.com/latticeforge/kernel/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeoNode_HashIsDeterministic(t *testing.T) {
	t.Parallel()

	a := geotree.Sphere(types.Vec3{X: 1, Y: 2, Z: 3}, 5)
	b := geotree.Sphere(types.Vec3{X: 1, Y: 2, Z: 3}, 5)
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestGeoNode_HashDiffersOnFieldChange(t *testing.T) {
	t.Parallel()

	a := geotree.Sphere(types.Vec3{X: 1, Y: 2, Z: 3}, 5)
	b := geotree.Sphere(types.Vec3{X: 1, Y: 2, Z: 3}, 6)
	assert.NotEqual(t, a.Hash(), b.Hash())
}

func TestGeoNode_HashIncludesChildren(t *testing.T) {
	t.Parallel()

	shape1 := geotree.Circle(types.Vec2{}, 1)
	shape2 := geotree.Circle(types.Vec2{}, 2)

	extrude1 := geotree.Extrude(1, types.Vec3{Z: 1}, shape1)
	extrude2 := geotree.Extrude(1, types.Vec3{Z: 1}, shape2)

	assert.NotEqual(t, extrude1.Hash(), extrude2.Hash())
}

func TestGeoNode_HashDistinguishesVariants(t *testing.T) {
	t.Parallel()

	circle := geotree.Circle(types.Vec2{}, 1)
	sphere := geotree.Sphere(types.Vec3{}, 1)
	assert.NotEqual(t, circle.Hash(), sphere.Hash())
}

func TestGeoNode_String_RendersPolygonVertices(t *testing.T) {
	t.Parallel()

	poly := geotree.Polygon([]types.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}})
	s := poly.String()
	assert.Contains(t, s, "Polygon(3 vertices)")
	assert.Contains(t, s, "[0]:")
}

func TestGeoNode_String_NestsChildIndentation(t *testing.T) {
	t.Parallel()

	base := geotree.Sphere(types.Vec3{}, 2)
	sub := geotree.Sphere(types.Vec3{X: 1}, 1)
	diff := geotree.Difference3D(base, sub)

	s := diff.String()
	assert.Contains(t, s, "Difference3D")
	assert.Contains(t, s, "base:")
	assert.Contains(t, s, "sub:")
}

func TestGeoNode_EstimateMemoryBytes_GrowsWithChildren(t *testing.T) {
	t.Parallel()

	leaf := geotree.Sphere(types.Vec3{}, 1)
	union := geotree.Union3D([]*geotree.GeoNode{leaf, leaf})

	require.Greater(t, union.EstimateMemoryBytes(), leaf.EstimateMemoryBytes())
}

func TestGeoNode_KindReflectsConstructor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, geotree.KindCircle, geotree.Circle(types.Vec2{}, 1).Kind())
	assert.Equal(t, geotree.KindSphere, geotree.Sphere(types.Vec3{}, 1).Kind())
	assert.Equal(t, geotree.KindUnion2D, geotree.Union2D(nil).Kind())
}
