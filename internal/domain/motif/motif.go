// Package motif describes the atomic content of one crystal unit cell —
// the template AtomFill (internal/domain/fill) stamps across a GeoTree
// region — per spec.md §3's Motif type.
package motif

import (
	"github.com/latticeforge/kernel/pkg/types"
)

// Site is one atom-position slot inside a motif cell: a fractional
// position plus an element. A negative AtomicNumber of -k-1 means "use
// parameter k" (spec.md §3).
type Site struct {
	Position     types.Vec3 // fractional coordinates
	AtomicNumber int16
}

// IsParameterRef reports whether the site's atomic number is a reference
// into the motif's Parameters table rather than a concrete element.
func (s Site) IsParameterRef() bool { return s.AtomicNumber < 0 }

// ParameterIndex returns the parameter index a parameter-ref site points
// at; only valid when IsParameterRef() is true.
func (s Site) ParameterIndex() int { return int(-s.AtomicNumber - 1) }

// SiteSpecifier addresses one site, optionally in a neighboring motif cell
// — used by MotifBond to describe inter-cell bonds.
type SiteSpecifier struct {
	SiteIndex    int
	RelativeCell types.IVec3
}

// MotifBond declares an intra- or inter-cell bond between two sites.
type MotifBond struct {
	Site1, Site2 SiteSpecifier
	Multiplicity uint8
}

// Parameter declares one user-overridable element slot referenced by
// parameter-ref sites.
type Parameter struct {
	Name                string
	DefaultAtomicNumber int16
}

// Motif is the full unit-cell template: sites, intra/inter-cell bonds, and
// parameters, plus bond indexes precomputed for O(1) lookup during fill
// (spec.md §4.5 step 5).
type Motif struct {
	UnitCell   types.UnitCell
	Sites      []Site
	Bonds      []MotifBond
	Parameters []Parameter

	BondsBySite1Index [][]int
	BondsBySite2Index [][]int
}

// New builds a Motif from its sites/bonds/parameters, computing the
// bond-index tables eagerly so every AtomFill call gets O(1) per-site bond
// lookup without re-deriving the index on every run.
func New(cell types.UnitCell, sites []Site, bonds []MotifBond, params []Parameter) *Motif {
	m := &Motif{UnitCell: cell, Sites: sites, Bonds: bonds, Parameters: params}
	m.BondsBySite1Index = make([][]int, len(sites))
	m.BondsBySite2Index = make([][]int, len(sites))
	for bi, b := range bonds {
		m.BondsBySite1Index[b.Site1.SiteIndex] = append(m.BondsBySite1Index[b.Site1.SiteIndex], bi)
		m.BondsBySite2Index[b.Site2.SiteIndex] = append(m.BondsBySite2Index[b.Site2.SiteIndex], bi)
	}
	return m
}

// EffectiveAtomicNumber resolves a site's atomic number against
// userValues (parameter name -> override), falling back to the motif's
// own parameter defaults, per spec.md §4.5 step 3.
func (m *Motif) EffectiveAtomicNumber(site Site, userValues map[string]int16) int16 {
	if !site.IsParameterRef() {
		return site.AtomicNumber
	}
	idx := site.ParameterIndex()
	if idx < 0 || idx >= len(m.Parameters) {
		return 0
	}
	param := m.Parameters[idx]
	if v, ok := userValues[param.Name]; ok {
		return v
	}
	return param.DefaultAtomicNumber
}
