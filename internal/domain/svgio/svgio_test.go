package svgio_test

import (
	"strings"
	"testing"

	"github.com/latticeforge/kernel/internal/domain/geotree"
	"github.com/latticeforge/kernel/internal/domain/svgio"
	"github.com/latticeforge/kernel/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ClosedPathBecomesPolygon(t *testing.T) {
	t.Parallel()
	doc := `<svg viewBox="0 0 100 100"><g><path d="M0,0,100,0,100,100 z" fill="black"/></g></svg>`

	root, err := svgio.Parse(doc)
	require.NoError(t, err)
	require.Equal(t, geotree.KindUnion2D, root.Kind())
	require.Len(t, root.Shapes(), 1)

	poly := root.Shapes()[0]
	require.Equal(t, geotree.KindPolygon, poly.Kind())
	assert.Equal(t, []types.Vec2{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}}, poly.Vertices())
}

func TestParse_OpenSubpathIsDiscarded(t *testing.T) {
	t.Parallel()
	doc := `<svg><path d="M0,0 L10,0 L10,10"/></svg>`

	root, err := svgio.Parse(doc)
	require.NoError(t, err)
	assert.Empty(t, root.Shapes())
}

func TestParse_CurveCommandIsUnimplemented(t *testing.T) {
	t.Parallel()
	doc := `<svg><path d="M0,0 C1,1 2,2 3,3 z"/></svg>`

	_, err := svgio.Parse(doc)
	require.Error(t, err)
}

func TestParse_CircleTessellatesToPolygon(t *testing.T) {
	t.Parallel()
	doc := `<svg><circle cx="0" cy="0" r="5"/></svg>`

	root, err := svgio.Parse(doc)
	require.NoError(t, err)
	require.Len(t, root.Shapes(), 1)
	assert.GreaterOrEqual(t, len(root.Shapes()[0].Vertices()), 6)
}

func TestParse_PolygonElement(t *testing.T) {
	t.Parallel()
	doc := `<svg><polygon points="0,0 10,0 10,10 0,10"/></svg>`

	root, err := svgio.Parse(doc)
	require.NoError(t, err)
	require.Len(t, root.Shapes(), 1)
	assert.Len(t, root.Shapes()[0].Vertices(), 4)
}

func TestWrite_RoundTripsThroughParse(t *testing.T) {
	t.Parallel()
	original := geotree.Union2D([]*geotree.GeoNode{
		geotree.Polygon([]types.Vec2{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}}),
	})

	doc, err := svgio.Write(original)
	require.NoError(t, err)
	assert.True(t, strings.Contains(doc, `viewBox="0 0 100 100"`))
	assert.True(t, strings.Contains(doc, `fill-rule="evenodd"`))

	reparsed, err := svgio.Parse(doc)
	require.NoError(t, err)
	require.Len(t, reparsed.Shapes(), 1)
	assert.Equal(t, original.Shapes()[0].Vertices(), reparsed.Shapes()[0].Vertices())
}

func TestWrite_NonPolygonGeometryErrors(t *testing.T) {
	t.Parallel()
	circle := geotree.Circle(types.Vec2{X: 0, Y: 0}, 5)

	_, err := svgio.Write(circle)
	require.Error(t, err)
}
