package motif_test

import (
	"testing"

	"github.com/latticeforge/kernel/internal/domain/motif"
	"github.com/latticeforge/kernel/pkg/types"
	"github.com/stretchr/testify/assert"
)

func diamondUnitCell() types.UnitCell {
	a := 3.567
	return types.UnitCell{
		A: types.Vec3{X: a},
		B: types.Vec3{Y: a},
		C: types.Vec3{Z: a},
	}
}

func TestMotif_EffectiveAtomicNumber_ConcreteElement(t *testing.T) {
	t.Parallel()
	m := motif.New(diamondUnitCell(), []motif.Site{{AtomicNumber: 6}}, nil, nil)
	assert.EqualValues(t, 6, m.EffectiveAtomicNumber(m.Sites[0], nil))
}

func TestMotif_EffectiveAtomicNumber_ParameterRefUsesDefault(t *testing.T) {
	t.Parallel()
	m := motif.New(diamondUnitCell(),
		[]motif.Site{{AtomicNumber: -1}},
		nil,
		[]motif.Parameter{{Name: "dopant", DefaultAtomicNumber: 14}})

	assert.True(t, m.Sites[0].IsParameterRef())
	assert.EqualValues(t, 14, m.EffectiveAtomicNumber(m.Sites[0], nil))
}

func TestMotif_EffectiveAtomicNumber_ParameterRefUsesUserOverride(t *testing.T) {
	t.Parallel()
	m := motif.New(diamondUnitCell(),
		[]motif.Site{{AtomicNumber: -1}},
		nil,
		[]motif.Parameter{{Name: "dopant", DefaultAtomicNumber: 14}})

	got := m.EffectiveAtomicNumber(m.Sites[0], map[string]int16{"dopant": 32})
	assert.EqualValues(t, 32, got)
}

func TestMotif_BondIndexesByBothEndpoints(t *testing.T) {
	t.Parallel()
	bonds := []motif.MotifBond{
		{Site1: motif.SiteSpecifier{SiteIndex: 0}, Site2: motif.SiteSpecifier{SiteIndex: 1}, Multiplicity: 1},
	}
	m := motif.New(diamondUnitCell(), []motif.Site{{AtomicNumber: 6}, {AtomicNumber: 6}}, bonds, nil)

	assert.Equal(t, []int{0}, m.BondsBySite1Index[0])
	assert.Equal(t, []int{0}, m.BondsBySite2Index[1])
	assert.Empty(t, m.BondsBySite2Index[0])
}
