package fill

import "github.com/latticeforge/kernel/internal/domain/atomic"

// removeLoneAtoms deletes every atom with degree 0 (spec.md §4.5 step 6),
// run once before passivation so passivation never bonds to an atom that's
// about to be discarded anyway.
func removeLoneAtoms(s *atomic.AtomicStructure) {
	for _, id := range liveAtomIDs(s) {
		if s.Degree(id) == 0 {
			_ = s.DeleteAtom(id)
		}
	}
}

// removeSingleBondAtomsRecursive repeatedly deletes degree-1 atoms until a
// fixed point (spec.md §4.5 step 6) — useful for stripping surface methyl
// groups before passivation replaces them with hydrogens instead.
func removeSingleBondAtomsRecursive(s *atomic.AtomicStructure) {
	for {
		removed := false
		for _, id := range liveAtomIDs(s) {
			if s.Degree(id) == 1 {
				_ = s.DeleteAtom(id)
				removed = true
			}
		}
		if !removed {
			return
		}
	}
}

// liveAtomIDs snapshots the current set of live atom ids so callers can
// safely delete atoms while iterating.
func liveAtomIDs(s *atomic.AtomicStructure) []uint32 {
	var ids []uint32
	for id := uint32(1); id <= s.MaxAtomID(); id++ {
		if s.Get(id) != nil {
			ids = append(ids, id)
		}
	}
	return ids
}
