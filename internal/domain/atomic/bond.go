package atomic

// BondOrder enumerates the bond multiplicities/kinds an InlineBond can
// carry, matching spec.md §3's InlineBond order codes.
type BondOrder uint8

const (
	BondSingle BondOrder = iota + 1
	BondDouble
	BondTriple
	BondAromatic
	BondDative
	BondMetallic
	BondQuadruple
	// BondDeleted is a sentinel order used only inside diffs (§4.6) to mark
	// a bond for removal; it never appears on a non-diff structure.
	BondDeleted
)

// DeletedSiteAtomicNumber is the sentinel atomic number used inside diffs
// to mark a delete-marker atom (§4.4/§4.6). It never appears on a
// non-diff structure.
const DeletedSiteAtomicNumber int16 = -1

// InlineBond is a packed bidirectional bond record stored inline on each
// endpoint atom: the id of the other atom plus the bond's order. spec.md
// §3 packs this into a 32-bit record (29-bit id + 3-bit order); this
// implementation keeps the two fields unpacked since Go has no SmallVec
// inline-storage pressure to optimize for, but preserves the same
// information and range (atom ids fit comfortably in 29 bits for any
// structure this kernel will ever hold).
type InlineBond struct {
	OtherAtomID uint32
	Order       BondOrder
}

// BondReference canonically identifies one bond: the lower atom id is
// always AtomID1, per spec.md §3.
type BondReference struct {
	AtomID1, AtomID2 uint32
}

// NewBondReference canonicalizes (a, b) so AtomID1 < AtomID2.
func NewBondReference(a, b uint32) BondReference {
	if a < b {
		return BondReference{a, b}
	}
	return BondReference{b, a}
}
