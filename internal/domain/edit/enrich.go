package edit

import "github.com/latticeforge/kernel/internal/domain/atomic"

// EnrichDiffWithBaseBonds copies every base bond whose both endpoints match
// a diff atom (within tolerance) into diff, so diff-view rendering shows
// the connectivity those atoms have in the applied result — without having
// to actually apply the diff. Matching reuses ApplyDiff's own closest-atom
// rule, run independently here since diff view never computes provenance.
func EnrichDiffWithBaseBonds(diff, base *atomic.AtomicStructure, tolerance float64) {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	diffToBase := make(map[uint32]uint32)
	used := make(map[uint32]bool)
	for id := uint32(1); id <= diff.MaxAtomID(); id++ {
		d := diff.Get(id)
		if d == nil || d.AtomicNumber == atomic.DeletedSiteAtomicNumber {
			continue
		}
		matchPos := d.Position
		if anchor, ok := diff.AnchorPositions[id]; ok {
			matchPos = anchor
		}
		if baseID, found := closestUnusedAtom(base, matchPos, tolerance, used); found {
			used[baseID] = true
			diffToBase[id] = baseID
		}
	}

	baseToDiff := make(map[uint32]uint32, len(diffToBase))
	for diffID, baseID := range diffToBase {
		baseToDiff[baseID] = diffID
	}

	for diffID, baseID := range diffToBase {
		a := base.Get(baseID)
		if a == nil {
			continue
		}
		for _, bond := range a.Bonds {
			otherDiffID, ok := baseToDiff[bond.OtherAtomID]
			if !ok {
				continue
			}
			_ = diff.AddBondChecked(diffID, otherDiffID, bond.Order)
		}
	}
}
