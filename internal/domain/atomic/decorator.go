package atomic

// Decorator holds non-persisted, per-structure display/selection overlay
// state (spec.md §3): bond selection (atom selection lives in Atom.Flags
// instead, since it must survive serialization round trips the same way
// atomic number and position do), guided-placement visuals, and diff
// display flags.
type Decorator struct {
	selectedBonds map[BondReference]struct{}

	// IsDiff mirrors AtomicStructure.IsDiff for renderer convenience.
	IsDiff bool
	// ShowAnchorArrows toggles rendering of anchor-position indicator
	// arrows for moved diff atoms.
	ShowAnchorArrows bool
}

// NewDecorator returns an empty overlay.
func NewDecorator() *Decorator {
	return &Decorator{selectedBonds: make(map[BondReference]struct{})}
}

// IsBondSelected reports whether ref is currently selected.
func (d *Decorator) IsBondSelected(ref BondReference) bool {
	_, ok := d.selectedBonds[ref]
	return ok
}

// SelectedBonds returns every currently selected bond reference.
func (d *Decorator) SelectedBonds() []BondReference {
	out := make([]BondReference, 0, len(d.selectedBonds))
	for ref := range d.selectedBonds {
		out = append(out, ref)
	}
	return out
}

func (d *Decorator) clearAtom(id uint32) {
	for ref := range d.selectedBonds {
		if ref.AtomID1 == id || ref.AtomID2 == id {
			delete(d.selectedBonds, ref)
		}
	}
}

func (d *Decorator) clearBond(ref BondReference) {
	delete(d.selectedBonds, ref)
}
