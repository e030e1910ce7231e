package fill_test

import (
	"testing"

	"github.com/latticeforge/kernel/internal/domain/fill"
	"github.com/latticeforge/kernel/internal/domain/geotree"
	"github.com/latticeforge/kernel/internal/domain/motif"
	"github.com/latticeforge/kernel/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleCubicUnitCell(a float64) types.UnitCell {
	return types.UnitCell{A: types.Vec3{X: a}, B: types.Vec3{Y: a}, C: types.Vec3{Z: a}}
}

func TestRun_SphereFill_AllAtomsWithinThreshold(t *testing.T) {
	t.Parallel()
	cell := simpleCubicUnitCell(2.0)
	// An X-direction bond gives every placed atom a neighbour, so the
	// lone-atom cleanup keeps them all.
	bonds := []motif.MotifBond{{
		Site1:        motif.SiteSpecifier{SiteIndex: 0},
		Site2:        motif.SiteSpecifier{SiteIndex: 0, RelativeCell: types.IVec3{X: 1}},
		Multiplicity: 1,
	}}
	m := motif.New(cell, []motif.Site{{AtomicNumber: 6}}, bonds, nil)
	sphere := geotree.Sphere(types.Vec3{}, 5.0)

	structure, stats := fill.Run(sphere, cell, m, fill.Options{})

	require.Greater(t, structure.NumAtoms(), 0)
	assert.Equal(t, stats.Atoms, structure.NumAtoms())

	for id := uint32(1); id <= structure.MaxAtomID(); id++ {
		a := structure.Get(id)
		if a == nil {
			continue
		}
		d, err := sphere.Eval3D(a.Position)
		require.NoError(t, err)
		assert.LessOrEqual(t, d, fill.CrystalSampleThreshold+1e-9)
	}
}

func TestRun_BondedChain_InteriorAtomsHaveTwoBondsSurfaceAtomsPassivated(t *testing.T) {
	t.Parallel()
	cell := simpleCubicUnitCell(2.0)
	sites := []motif.Site{{AtomicNumber: 6}}
	bonds := []motif.MotifBond{
		{
			Site1:        motif.SiteSpecifier{SiteIndex: 0},
			Site2:        motif.SiteSpecifier{SiteIndex: 0, RelativeCell: types.IVec3{X: 1}},
			Multiplicity: 1,
		},
	}
	m := motif.New(cell, sites, bonds, nil)

	// "Everywhere" SDF; the chain's actual extent is bounded by Options.Volume.
	everywhere := geotree.Sphere(types.Vec3{}, 1e9)
	vol := struct{ Min, Max types.Vec3 }{Min: types.Vec3{X: -0.5, Y: -0.5, Z: -0.5}, Max: types.Vec3{X: 6.5, Y: 0.5, Z: 0.5}}

	structure, _ := fill.Run(everywhere, cell, m, fill.Options{HydrogenPassivation: true, Volume: &vol})

	require.Greater(t, structure.NumAtoms(), 0)

	carbons, hydrogens := 0, 0
	for id := uint32(1); id <= structure.MaxAtomID(); id++ {
		a := structure.Get(id)
		if a == nil {
			continue
		}
		switch a.AtomicNumber {
		case 6:
			carbons++
			assert.Contains(t, []int{1, 2}, structure.Degree(id))
		case 1:
			hydrogens++
			assert.Equal(t, 1, structure.Degree(id))
		}
	}
	assert.Greater(t, carbons, 0)
	assert.Greater(t, hydrogens, 0, "chain endpoints should be hydrogen-passivated")
}

func TestRun_Deterministic_SameInputsSameAtomCount(t *testing.T) {
	t.Parallel()
	cell := simpleCubicUnitCell(2.0)
	m := motif.New(cell, []motif.Site{{AtomicNumber: 14}}, nil, nil)
	sphere := geotree.Sphere(types.Vec3{}, 4.0)

	s1, stats1 := fill.Run(sphere, cell, m, fill.Options{})
	s2, stats2 := fill.Run(sphere, cell, m, fill.Options{})

	assert.Equal(t, stats1.Atoms, stats2.Atoms)
	assert.Equal(t, s1.NumAtoms(), s2.NumAtoms())
}
