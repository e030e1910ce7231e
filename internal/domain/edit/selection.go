package edit

import (
	"github.com/latticeforge/kernel/internal/domain/atomic"
	"github.com/latticeforge/kernel/pkg/types"
)

// Selection is AtomEdit's provenance-based selection state (spec.md §4.6):
// atoms are remembered by base/diff identity rather than result id, so a
// selection survives re-evaluating the diff against an unchanged input.
type Selection struct {
	SelectedBaseAtoms  map[uint32]struct{}
	SelectedDiffAtoms  map[uint32]struct{}
	SelectedBonds      map[atomic.BondReference]struct{}
	SelectionTransform *types.Transform
}

// NewSelection returns an empty selection.
func NewSelection() Selection {
	return Selection{
		SelectedBaseAtoms: make(map[uint32]struct{}),
		SelectedDiffAtoms: make(map[uint32]struct{}),
		SelectedBonds:     make(map[atomic.BondReference]struct{}),
	}
}

func (s *Selection) IsEmpty() bool {
	return len(s.SelectedBaseAtoms) == 0 && len(s.SelectedDiffAtoms) == 0 && len(s.SelectedBonds) == 0
}

func (s *Selection) HasSelectedAtoms() bool {
	return len(s.SelectedBaseAtoms) > 0 || len(s.SelectedDiffAtoms) > 0
}

func (s *Selection) Clear() {
	s.SelectedBaseAtoms = make(map[uint32]struct{})
	s.SelectedDiffAtoms = make(map[uint32]struct{})
	s.SelectedBonds = make(map[atomic.BondReference]struct{})
	s.SelectionTransform = nil
}

// ClearBonds drops bond selection only; called on every diff mutation since
// bond identity in result space is not stable across a structural edit.
func (s *Selection) ClearBonds() {
	s.SelectedBonds = make(map[atomic.BondReference]struct{})
}

// ApplyToResult marks every selected atom/bond on result, translating
// base/diff provenance ids through prov. Stale ids (no longer present in
// prov) are silently skipped, per spec.md §4.6.
func (s *Selection) ApplyToResult(result *atomic.AtomicStructure, prov Provenance) {
	for baseID := range s.SelectedBaseAtoms {
		if resultID, ok := prov.BaseToResult[baseID]; ok {
			result.Select([]uint32{resultID}, nil, atomic.SelectExpand)
		}
	}
	for diffID := range s.SelectedDiffAtoms {
		if resultID, ok := prov.DiffToResult[diffID]; ok {
			result.Select([]uint32{resultID}, nil, atomic.SelectExpand)
		}
	}
	for ref := range s.SelectedBonds {
		result.Select(nil, []atomic.BondReference{ref}, atomic.SelectExpand)
	}
}
