// Package edit implements AtomEdit, the diff-based atomic structure editor
// of spec.md §4.6: every user edit lives in a single AtomicStructure diff;
// evaluating an AtomEdit node applies that diff to its upstream input to
// produce the result, and the diff alone is what gets persisted.
package edit

import (
	"github.com/latticeforge/kernel/internal/domain/atomic"
	"github.com/latticeforge/kernel/pkg/types"
)

// DefaultTolerance is the positional matching tolerance (Å) used to pair a
// diff atom with a base-input atom when the caller doesn't override it.
const DefaultTolerance = 0.1

// Provenance records how every result atom traces back to the base input or
// the diff, so selection and re-evaluation can follow an atom across
// re-applications of the same diff (spec.md §4.6).
type Provenance struct {
	// BaseToResult maps a base-input atom id to its id in the result, for
	// every base atom that survived (matched-and-edited or copied verbatim).
	BaseToResult map[uint32]uint32
	// DiffToResult maps a diff atom id to its id in the result, for every
	// diff atom that produced a result atom (matched edits and pure
	// additions; delete markers have no entry).
	DiffToResult map[uint32]uint32
}

// DiffStats summarizes what one ApplyDiff call did.
type DiffStats struct {
	AtomsAdded             int
	AtomsDeleted           int
	AtomsModified          int
	OrphanedTrackedAtoms   int
	UnmatchedDeleteMarkers int
	OrphanedBonds          int
}

// ApplyDiff applies diff to base per spec.md §4.6's apply_diff semantics,
// returning the merged result plus provenance and statistics.
func ApplyDiff(base, diff *atomic.AtomicStructure, tolerance float64) (*atomic.AtomicStructure, Provenance, DiffStats) {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	result := atomic.New()
	prov := Provenance{BaseToResult: make(map[uint32]uint32), DiffToResult: make(map[uint32]uint32)}
	var stats DiffStats

	matchedBase := make(map[uint32]bool) // base atoms consumed by a diff match (edited or deleted)
	usedBase := make(map[uint32]bool)    // base atoms already claimed as someone's closest match

	for id := uint32(1); id <= diff.MaxAtomID(); id++ {
		d := diff.Get(id)
		if d == nil {
			continue
		}

		matchPos := d.Position
		if anchor, ok := diff.AnchorPositions[id]; ok {
			matchPos = anchor
		}
		baseID, found := closestUnusedAtom(base, matchPos, tolerance, usedBase)

		switch {
		case d.AtomicNumber == atomic.DeletedSiteAtomicNumber:
			if found {
				usedBase[baseID] = true
				matchedBase[baseID] = true
				stats.AtomsDeleted++
			} else {
				stats.UnmatchedDeleteMarkers++
			}

		case found:
			usedBase[baseID] = true
			matchedBase[baseID] = true
			resultID := result.AddAtom(d.AtomicNumber, d.Position)
			prov.BaseToResult[baseID] = resultID
			prov.DiffToResult[id] = resultID
			stats.AtomsModified++
			if _, hasAnchor := diff.AnchorPositions[id]; hasAnchor {
				// fine: tracked atom found its base, nothing orphaned.
			}

		default:
			if _, hasAnchor := diff.AnchorPositions[id]; hasAnchor {
				// This atom was being tracked relative to a base atom (it
				// has a pre-edit anchor) but no base atom matches anymore.
				stats.OrphanedTrackedAtoms++
			}
			resultID := result.AddAtom(d.AtomicNumber, d.Position)
			prov.DiffToResult[id] = resultID
			stats.AtomsAdded++
		}
	}

	for id := uint32(1); id <= base.MaxAtomID(); id++ {
		b := base.Get(id)
		if b == nil || matchedBase[id] {
			continue
		}
		resultID := result.AddAtom(b.AtomicNumber, b.Position)
		prov.BaseToResult[id] = resultID
	}

	reconcileBonds(base, diff, result, &prov, &stats)
	return result, prov, stats
}

// closestUnusedAtom returns the id of the live atom in s closest to p within
// tolerance, excluding ids already in used, tie-breaking on the smaller id.
func closestUnusedAtom(s *atomic.AtomicStructure, p types.Vec3, tolerance float64, used map[uint32]bool) (uint32, bool) {
	best := uint32(0)
	bestDist := tolerance
	found := false
	for _, id := range s.GetAtomsInRadius(p, tolerance) {
		if used[id] {
			continue
		}
		a := s.Get(id)
		if a == nil {
			continue
		}
		d := a.Position.Distance(p)
		if d > tolerance {
			continue
		}
		if !found || d < bestDist || (d == bestDist && id < best) {
			best, bestDist, found = id, d, true
		}
	}
	return best, found
}

// reconcileBonds emits every base bond whose both endpoints survived into
// the result, then applies the diff's own bond additions and deletions
// (spec.md §4.6 step 5).
func reconcileBonds(base, diff, result *atomic.AtomicStructure, prov *Provenance, stats *DiffStats) {
	seen := make(map[atomic.BondReference]bool)

	for id := uint32(1); id <= base.MaxAtomID(); id++ {
		a := base.Get(id)
		if a == nil {
			continue
		}
		for _, bond := range a.Bonds {
			ref := atomic.NewBondReference(id, bond.OtherAtomID)
			if seen[ref] {
				continue
			}
			seen[ref] = true
			r1, ok1 := prov.BaseToResult[ref.AtomID1]
			r2, ok2 := prov.BaseToResult[ref.AtomID2]
			if ok1 && ok2 {
				_ = result.AddBondChecked(r1, r2, bond.Order)
			} else {
				stats.OrphanedBonds++
			}
		}
	}

	seen = make(map[atomic.BondReference]bool)
	for id := uint32(1); id <= diff.MaxAtomID(); id++ {
		a := diff.Get(id)
		if a == nil {
			continue
		}
		for _, bond := range a.Bonds {
			ref := atomic.NewBondReference(id, bond.OtherAtomID)
			if seen[ref] {
				continue
			}
			seen[ref] = true
			r1, ok1 := prov.DiffToResult[ref.AtomID1]
			r2, ok2 := prov.DiffToResult[ref.AtomID2]
			if !ok1 || !ok2 {
				stats.OrphanedBonds++
				continue
			}
			if bond.Order == atomic.BondDeleted {
				_ = result.DeleteBond(atomic.NewBondReference(r1, r2))
			} else {
				_ = result.AddBondChecked(r1, r2, bond.Order)
			}
		}
	}
}
