// Package atomic implements the packed atomic-structure model (spec.md
// §3/§4.4): a sparse-slot atom store with inline bidirectional bonds, a
// spatial grid for neighbor queries, and a non-persisted decorator overlay
// for display/selection state.
package atomic

import (
	"math"

	"github.com/latticeforge/kernel/pkg/errors"
	"github.com/latticeforge/kernel/pkg/types"
)

// gridCellSize is the edge length, in Angstroms, of one spatial-grid cell.
const gridCellSize = 4.0

// AtomFlag bits packed into Atom.Flags.
const (
	FlagSelected AtomFlag = 1 << iota
	FlagHydrogenPassivation
)

// AtomFlag is a bitmask of per-atom display/state flags.
type AtomFlag uint8

// Atom is one atom slot. Deleted atoms are represented by a nil entry in
// AtomicStructure.atoms rather than a live Atom with a tombstone flag.
type Atom struct {
	ID              uint32
	AtomicNumber    int16
	Position        types.Vec3
	Bonds           []InlineBond
	Flags           AtomFlag
	InCrystalDepth  float32
}

func (a *Atom) hasBondTo(otherID uint32) int {
	for i, b := range a.Bonds {
		if b.OtherAtomID == otherID {
			return i
		}
	}
	return -1
}

// AtomicStructure is the packed atomic model described by spec.md §3/§4.4.
type AtomicStructure struct {
	FrameTransform types.Transform

	atoms    []*Atom // index i holds atom id i+1, or nil if deleted/never allocated
	numAtoms int
	numBonds int

	grid map[types.IVec3][]uint32

	Decorator *Decorator

	// IsDiff marks this structure as an AtomEdit diff (§4.4/§4.6): delete
	// markers and BondDeleted entries are only meaningful when true.
	IsDiff bool
	// AnchorPositions records the pre-edit position of any diff atom moved
	// from its original location, keyed by atom id (§4.4).
	AnchorPositions map[uint32]types.Vec3
}

// New returns an empty AtomicStructure with the identity frame transform.
func New() *AtomicStructure {
	return &AtomicStructure{
		FrameTransform:  types.IdentityTransform(),
		grid:            make(map[types.IVec3][]uint32),
		Decorator:       NewDecorator(),
		AnchorPositions: make(map[uint32]types.Vec3),
	}
}

// NumAtoms returns the number of live (non-deleted) atoms.
func (s *AtomicStructure) NumAtoms() int { return s.numAtoms }

// NumBonds returns the number of live bonds (each pair counted once).
func (s *AtomicStructure) NumBonds() int { return s.numBonds }

// MaxAtomID returns the highest id ever allocated (including deleted
// atoms), or 0 for an empty structure — the upper bound callers need to
// iterate every slot, live or not.
func (s *AtomicStructure) MaxAtomID() uint32 { return uint32(len(s.atoms)) }

func gridKey(p types.Vec3) types.IVec3 {
	return types.IVec3{
		X: int32(math.Floor(p.X / gridCellSize)),
		Y: int32(math.Floor(p.Y / gridCellSize)),
		Z: int32(math.Floor(p.Z / gridCellSize)),
	}
}

func (s *AtomicStructure) gridInsert(id uint32, p types.Vec3) {
	k := gridKey(p)
	s.grid[k] = append(s.grid[k], id)
}

func (s *AtomicStructure) gridRemove(id uint32, p types.Vec3) {
	k := gridKey(p)
	cell := s.grid[k]
	for i, v := range cell {
		if v == id {
			cell[i] = cell[len(cell)-1]
			s.grid[k] = cell[:len(cell)-1]
			break
		}
	}
	if len(s.grid[k]) == 0 {
		delete(s.grid, k)
	}
}

// Get returns the live atom with id, or nil if id is out of range or
// deleted.
func (s *AtomicStructure) Get(id uint32) *Atom {
	if id == 0 || int(id) > len(s.atoms) {
		return nil
	}
	return s.atoms[id-1]
}

// Atoms returns every live atom, in ascending id order.
func (s *AtomicStructure) Atoms() []*Atom {
	out := make([]*Atom, 0, s.numAtoms)
	for _, a := range s.atoms {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}

// AddAtom appends a new atom at pos with the given atomic number and
// returns its freshly allocated id. Ids are 1-based and never reused
// within a structure's lifetime, per spec.md §3.
func (s *AtomicStructure) AddAtom(atomicNumber int16, pos types.Vec3) uint32 {
	id := uint32(len(s.atoms) + 1)
	a := &Atom{ID: id, AtomicNumber: atomicNumber, Position: pos}
	s.atoms = append(s.atoms, a)
	s.numAtoms++
	s.gridInsert(id, pos)
	return id
}

// DeleteAtom removes the atom and every bond incident to it, decrementing
// NumBonds by its degree.
func (s *AtomicStructure) DeleteAtom(id uint32) error {
	a := s.Get(id)
	if a == nil {
		return errors.New(errors.CodeAtomNotFound, "atom not found")
	}
	for _, b := range a.Bonds {
		if other := s.Get(b.OtherAtomID); other != nil {
			if i := other.hasBondTo(id); i >= 0 {
				other.Bonds = append(other.Bonds[:i], other.Bonds[i+1:]...)
			}
		}
	}
	s.numBonds -= len(a.Bonds)
	s.gridRemove(id, a.Position)
	s.atoms[id-1] = nil
	s.numAtoms--
	delete(s.AnchorPositions, id)
	s.Decorator.clearAtom(id)
	return nil
}

// AddBond inserts a bidirectional bond without checking for an existing
// bond between the same pair — the fast unchecked path used by AtomFill
// (§4.5) when both endpoints are known fresh.
func (s *AtomicStructure) AddBond(a, b uint32, order BondOrder) error {
	atomA, atomB := s.Get(a), s.Get(b)
	if atomA == nil || atomB == nil {
		return errors.New(errors.CodeAtomNotFound, "bond endpoint not found")
	}
	atomA.Bonds = append(atomA.Bonds, InlineBond{OtherAtomID: b, Order: order})
	atomB.Bonds = append(atomB.Bonds, InlineBond{OtherAtomID: a, Order: order})
	s.numBonds++
	return nil
}

// AddBondChecked inserts a bond, upgrading an existing bond's order in
// place rather than duplicating it.
func (s *AtomicStructure) AddBondChecked(a, b uint32, order BondOrder) error {
	atomA, atomB := s.Get(a), s.Get(b)
	if atomA == nil || atomB == nil {
		return errors.New(errors.CodeAtomNotFound, "bond endpoint not found")
	}
	if i := atomA.hasBondTo(b); i >= 0 {
		atomA.Bonds[i].Order = order
		if j := atomB.hasBondTo(a); j >= 0 {
			atomB.Bonds[j].Order = order
		}
		return nil
	}
	return s.AddBond(a, b, order)
}

// DeleteBond removes the bond identified by ref, if present.
func (s *AtomicStructure) DeleteBond(ref BondReference) error {
	a, b := s.Get(ref.AtomID1), s.Get(ref.AtomID2)
	if a == nil || b == nil {
		return errors.New(errors.CodeAtomNotFound, "bond endpoint not found")
	}
	removed := false
	if i := a.hasBondTo(ref.AtomID2); i >= 0 {
		a.Bonds = append(a.Bonds[:i], a.Bonds[i+1:]...)
		removed = true
	}
	if i := b.hasBondTo(ref.AtomID1); i >= 0 {
		b.Bonds = append(b.Bonds[:i], b.Bonds[i+1:]...)
	}
	if removed {
		s.numBonds--
		s.Decorator.clearBond(ref)
	}
	return nil
}

// HasBond reports whether a and b are bonded in either direction.
func (s *AtomicStructure) HasBond(a, b uint32) bool {
	atomA := s.Get(a)
	if atomA == nil {
		return false
	}
	return atomA.hasBondTo(b) >= 0
}

// SetAtomPosition moves the atom, updating its spatial-grid cell only when
// the cell actually changes.
func (s *AtomicStructure) SetAtomPosition(id uint32, newPos types.Vec3) error {
	a := s.Get(id)
	if a == nil {
		return errors.New(errors.CodeAtomNotFound, "atom not found")
	}
	oldKey, newKey := gridKey(a.Position), gridKey(newPos)
	if oldKey != newKey {
		s.gridRemove(id, a.Position)
		s.gridInsert(id, newPos)
	}
	a.Position = newPos
	return nil
}

// Transform applies a rigid transform to every live atom's position.
func (s *AtomicStructure) Transform(t types.Transform) {
	for _, a := range s.atoms {
		if a == nil {
			continue
		}
		_ = s.SetAtomPosition(a.ID, t.ApplyToPosition(a.Position))
	}
}

// TransformAtom applies a rigid transform to a single atom's position.
func (s *AtomicStructure) TransformAtom(id uint32, t types.Transform) error {
	a := s.Get(id)
	if a == nil {
		return errors.New(errors.CodeAtomNotFound, "atom not found")
	}
	return s.SetAtomPosition(id, t.ApplyToPosition(a.Position))
}

// GetAtomsInRadius returns every live atom id within r of p (inclusive),
// searched via the cube of grid cells covering the radius. Output order is
// unspecified, matching spec.md §4.4.
func (s *AtomicStructure) GetAtomsInRadius(p types.Vec3, r float64) []uint32 {
	reach := int32(math.Ceil(r / gridCellSize))
	center := gridKey(p)
	r2 := r * r
	var out []uint32
	for dx := -reach; dx <= reach; dx++ {
		for dy := -reach; dy <= reach; dy++ {
			for dz := -reach; dz <= reach; dz++ {
				cellKey := types.IVec3{X: center.X + dx, Y: center.Y + dy, Z: center.Z + dz}
				for _, id := range s.grid[cellKey] {
					a := s.Get(id)
					if a == nil {
						continue
					}
					if a.Position.Sub(p).LengthSquared() <= r2 {
						out = append(out, id)
					}
				}
			}
		}
	}
	return out
}

// Degree returns the number of live bonds incident to id.
func (s *AtomicStructure) Degree(id uint32) int {
	a := s.Get(id)
	if a == nil {
		return 0
	}
	return len(a.Bonds)
}

// Select applies modifier to the given atom/bond id sets, matching
// spec.md §4.4's three-way SelectModifier contract.
func (s *AtomicStructure) Select(atomIDs []uint32, bondRefs []BondReference, modifier SelectModifier) {
	if modifier == SelectReplace {
		for _, a := range s.atoms {
			if a != nil {
				a.Flags &^= FlagSelected
			}
		}
		s.Decorator.selectedBonds = make(map[BondReference]struct{})
	}
	for _, id := range atomIDs {
		a := s.Get(id)
		if a == nil {
			continue
		}
		switch modifier {
		case SelectToggle:
			a.Flags ^= FlagSelected
		default:
			a.Flags |= FlagSelected
		}
	}
	for _, ref := range bondRefs {
		_, already := s.Decorator.selectedBonds[ref]
		switch modifier {
		case SelectToggle:
			if already {
				delete(s.Decorator.selectedBonds, ref)
			} else {
				s.Decorator.selectedBonds[ref] = struct{}{}
			}
		default:
			s.Decorator.selectedBonds[ref] = struct{}{}
		}
	}
}

// SelectModifier drives AtomicStructure.Select (spec.md §4.4).
type SelectModifier int

const (
	SelectReplace SelectModifier = iota
	SelectExpand
	SelectToggle
)

// Clone returns a deep copy of s with atom ids preserved exactly (including
// gaps left by deleted atoms) — unlike AddAtomicStructure, which remaps ids
// into the destination structure's own id space. AtomEdit's diff-view output
// relies on this: a diff atom's id must stay the same id after cloning,
// since nothing else remaps diff-view selection back through provenance
// (spec.md §4.6).
func (s *AtomicStructure) Clone() *AtomicStructure {
	out := New()
	out.IsDiff = s.IsDiff
	out.FrameTransform = s.FrameTransform
	out.atoms = make([]*Atom, len(s.atoms))
	for i, a := range s.atoms {
		if a == nil {
			continue
		}
		cp := *a
		cp.Bonds = append([]InlineBond(nil), a.Bonds...)
		out.atoms[i] = &cp
		out.numAtoms++
		out.numBonds += len(a.Bonds)
		out.gridInsert(cp.ID, cp.Position)
	}
	out.numBonds /= 2
	for id, pos := range s.AnchorPositions {
		out.AnchorPositions[id] = pos
	}
	for ref := range s.Decorator.selectedBonds {
		out.Decorator.selectedBonds[ref] = struct{}{}
	}
	out.Decorator.ShowAnchorArrows = s.Decorator.ShowAnchorArrows
	return out
}

// AddAtomicStructure deep-copies other's atoms and bonds into s, remapping
// ids, and returns the old-id -> new-id map. Anchor positions and bond
// selection are remapped through the same table.
func (s *AtomicStructure) AddAtomicStructure(other *AtomicStructure) map[uint32]uint32 {
	remap := make(map[uint32]uint32, other.numAtoms)
	for _, a := range other.atoms {
		if a == nil {
			continue
		}
		newID := s.AddAtom(a.AtomicNumber, a.Position)
		remap[a.ID] = newID
		s.atoms[newID-1].Flags = a.Flags
		s.atoms[newID-1].InCrystalDepth = a.InCrystalDepth
	}
	for _, a := range other.atoms {
		if a == nil {
			continue
		}
		for _, b := range a.Bonds {
			if a.ID < b.OtherAtomID { // visit each pair once
				_ = s.AddBond(remap[a.ID], remap[b.OtherAtomID], b.Order)
			}
		}
	}
	for oldID, pos := range other.AnchorPositions {
		if newID, ok := remap[oldID]; ok {
			s.AnchorPositions[newID] = pos
		}
	}
	for ref := range other.Decorator.selectedBonds {
		a, ok1 := remap[ref.AtomID1]
		b, ok2 := remap[ref.AtomID2]
		if ok1 && ok2 {
			s.Decorator.selectedBonds[NewBondReference(a, b)] = struct{}{}
		}
	}
	return remap
}
