// Package fill implements AtomFill, the crystal-filler algorithm of
// spec.md §4.5: given a signed-distance field and a Motif, it stamps the
// motif's unit cell across every lattice position whose sites fall inside
// the field, wires up the motif's intra- and inter-cell bonds, and
// optionally caps dangling bonds with passivating hydrogens.
package fill

import (
	"math"

	"github.com/latticeforge/kernel/internal/domain/atomic"
	"github.com/latticeforge/kernel/internal/domain/geotree"
	"github.com/latticeforge/kernel/internal/domain/motif"
	"github.com/latticeforge/kernel/pkg/types"
)

// Tunables fixed by spec.md §4.5 and §8's testable properties — changing
// them changes which atoms a given input produces, so they are not exposed
// as Options.
const (
	// CrystalSampleThreshold is the SDF cutoff (Å) at or below which a site
	// is considered inside the filled region.
	CrystalSampleThreshold = 0.01
	// SmallestFillBoxSize is the per-axis box size (Å) below which the
	// subdivision phase stops splitting and fills directly.
	SmallestFillBoxSize = 4.9
	// ConservativeEpsilon absorbs floating-point error in the prune test and
	// the motif-cell/box overlap test.
	ConservativeEpsilon = 1e-3
	// carbonHydrogenBondLength is the fixed C-H bond length (Å) used in
	// preference to the covalent-radius-sum heuristic for carbon.
	carbonHydrogenBondLength = 1.09
)

// DefaultVolume is the world box the subdivision phase starts from when
// Options.Volume is left zero-valued — large enough to contain any
// interactively-edited structure without the caller having to size it.
var DefaultVolume = struct{ Min, Max types.Vec3 }{
	Min: types.Vec3{X: -500, Y: -500, Z: -500},
	Max: types.Vec3{X: 500, Y: 500, Z: 500},
}

// Options configures one AtomFill run.
type Options struct {
	// MotifOffset shifts the motif lattice relative to the unit cell
	// origin, in fractional lattice coordinates.
	MotifOffset types.Vec3
	// ParameterValues overrides the motif's default element for
	// parameter-referencing sites, keyed by parameter name.
	ParameterValues map[string]int16
	// HydrogenPassivation caps dangling bonds with hydrogen atoms after
	// cleanup (spec.md §4.5 step 8).
	HydrogenPassivation bool
	// RemoveSingleBondAtomsBeforePassivation repeatedly strips degree-1
	// atoms (e.g. surface methyl groups) before passivation runs.
	RemoveSingleBondAtomsBeforePassivation bool
	// Volume bounds the subdivision phase's starting box; the zero value
	// uses DefaultVolume.
	Volume *struct{ Min, Max types.Vec3 }
}

// Statistics reports what one Run did, for diagnostics and tuning — it is
// returned, not logged, so the caller (the evaluator, per SPEC_FULL.md §5)
// decides whether and how to surface it.
type Statistics struct {
	FillBoxCalls        int
	DoFillBoxCalls      int
	MotifCellsProcessed int
	Atoms               int
	Bonds               int
	TotalDepth          float64
	MaxDepth            float64
}

type pendingAtom struct {
	position     types.Vec3
	atomicNumber int16
	motifPos     types.IVec3
	site         int
}

type run struct {
	cell    types.UnitCell
	sdf     *geotree.GeoNode
	motif   *motif.Motif
	opts    Options
	params  map[string]int16
	structure *atomic.AtomicStructure
	stats     Statistics
	tracker   *placedAtomTracker
	processed map[types.IVec3]bool
	pending   []pendingAtom
}

// Run executes AtomFill: sdf is the field to sample (typically a
// GeometrySummary's root node), cell is the unit cell the motif tiles, m is
// the motif to stamp, and opts configures motif offset, parameter overrides
// and passivation. It returns the filled structure and run statistics.
func Run(sdf *geotree.GeoNode, cell types.UnitCell, m *motif.Motif, opts Options) (*atomic.AtomicStructure, Statistics) {
	r := &run{
		cell:      cell,
		sdf:       sdf,
		motif:     m,
		opts:      opts,
		params:    effectiveParameterValues(m, opts.ParameterValues),
		structure: atomic.New(),
		tracker:   newPlacedAtomTracker(),
		processed: make(map[types.IVec3]bool),
	}

	volume := DefaultVolume
	if opts.Volume != nil {
		volume = *opts.Volume
	}
	r.fillBox(boxFromMinMax(volume.Min, volume.Max))
	r.flushPending()
	r.createBonds()

	removeLoneAtoms(r.structure)
	if opts.RemoveSingleBondAtomsBeforePassivation {
		removeSingleBondAtomsRecursive(r.structure)
	}
	if opts.HydrogenPassivation {
		r.hydrogenPassivate()
	}

	return r.structure, r.stats
}

// effectiveParameterValues fills in the motif's own defaults for any
// parameter the caller didn't override (spec.md §4.5 step 3).
func effectiveParameterValues(m *motif.Motif, overrides map[string]int16) map[string]int16 {
	out := make(map[string]int16, len(m.Parameters))
	for _, p := range m.Parameters {
		out[p.Name] = p.DefaultAtomicNumber
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// fillBox is the subdivision phase (spec.md §4.5 step 1): prune boxes
// wholly outside the field, fill boxes wholly inside or too small to split
// further, and otherwise recurse into up to 8 children.
func (r *run) fillBox(b box) {
	r.stats.FillBoxCalls++

	center := b.Center()
	sdfValue, err := r.sdf.Eval3D(center)
	if err != nil {
		return
	}

	size := b.Size()
	halfDiagonal := size.Length() / 2

	if sdfValue > halfDiagonal+CrystalSampleThreshold+ConservativeEpsilon {
		return
	}

	filled := sdfValue < -halfDiagonal-ConservativeEpsilon

	splitX := size.X >= 2*SmallestFillBoxSize
	splitY := size.Y >= 2*SmallestFillBoxSize
	splitZ := size.Z >= 2*SmallestFillBoxSize

	if filled || (!splitX && !splitY && !splitZ) {
		r.doFillBox(b)
		return
	}

	for _, sub := range subdivide(b, splitX, splitY, splitZ) {
		r.fillBox(sub)
	}
}

// doFillBox enumerates every motif cell whose unit-cell AABB overlaps b and
// fills each not-yet-processed cell (spec.md §4.5 step 2).
func (r *run) doFillBox(b box) {
	r.stats.DoFillBoxCalls++

	motifMin, motifSize := r.calculateMotifSpaceBox(b.Min, b.Size())

	for i := int32(0); i < motifSize.X; i++ {
		for j := int32(0); j < motifSize.Y; j++ {
			for k := int32(0); k < motifSize.Z; k++ {
				motifPos := types.IVec3{X: motifMin.X + i, Y: motifMin.Y + j, Z: motifMin.Z + k}
				cellRealPos := r.motifToReal(types.Vec3{X: float64(motifPos.X), Y: float64(motifPos.Y), Z: float64(motifPos.Z)})

				if !unitCellAABB(cellRealPos, r.cell).conservativeOverlap(b, ConservativeEpsilon) {
					continue
				}
				if r.processed[motifPos] {
					continue
				}
				r.processed[motifPos] = true
				r.stats.MotifCellsProcessed++
				r.fillCell(motifPos)
			}
		}
	}
}

// fillCell queues every site of the motif cell at motifPos for batched SDF
// evaluation (spec.md §4.5 step 3).
func (r *run) fillCell(motifPos types.IVec3) {
	for siteIndex, site := range r.motif.Sites {
		if site.IsParameterRef() && site.ParameterIndex() >= len(r.motif.Parameters) {
			continue // invalid parameter reference: skip this site
		}
		atomicNumber := r.motif.EffectiveAtomicNumber(site, r.params)

		motifPosF := types.Vec3{X: float64(motifPos.X), Y: float64(motifPos.Y), Z: float64(motifPos.Z)}
		siteMotifPos := motifPosF.Add(site.Position)
		realPos := r.motifToReal(siteMotifPos)

		r.pending = append(r.pending, pendingAtom{
			position:     realPos,
			atomicNumber: atomicNumber,
			motifPos:     motifPos,
			site:         siteIndex,
		})
	}
}

// flushPending runs the batched SDF evaluation over every queued site and
// places an atom for each one that falls inside the field (spec.md §4.5
// step 4).
func (r *run) flushPending() {
	if len(r.pending) == 0 {
		return
	}
	points := make([]types.Vec3, len(r.pending))
	for i, p := range r.pending {
		points[i] = p.position
	}
	values := make([]float64, len(points))
	if err := r.sdf.EvalBatch3D(points, values); err != nil {
		return
	}

	for i, v := range values {
		if v > CrystalSampleThreshold {
			continue
		}
		p := r.pending[i]
		atomID := r.structure.AddAtom(p.atomicNumber, p.position)
		depth := math.Max(0, -v)
		r.structure.Get(atomID).InCrystalDepth = float32(depth)

		r.stats.TotalDepth += depth
		if depth > r.stats.MaxDepth {
			r.stats.MaxDepth = depth
		}

		r.tracker.record(p.motifPos, p.site, atomID)
		r.stats.Atoms++
	}
}

// createBonds wires up every motif bond whose two endpoints both got placed
// (spec.md §4.5 step 5).
func (r *run) createBonds() {
	r.tracker.forEach(func(motifPos types.IVec3, site int, atomID uint32) {
		for _, bondIdx := range r.motif.BondsBySite1Index[site] {
			b := r.motif.Bonds[bondIdx]
			if id2, ok := r.tracker.getForSpecifier(motifPos, b.Site2); ok {
				_ = r.structure.AddBond(atomID, id2, atomic.BondOrder(b.Multiplicity))
				r.stats.Bonds++
			}
		}
	})
}

// hydrogenPassivate caps every motif bond whose partner site never got
// placed, or was since removed, with a terminating hydrogen (spec.md §4.5
// step 8).
func (r *run) hydrogenPassivate() {
	r.tracker.forEach(func(motifPos types.IVec3, site int, atomID uint32) {
		if r.structure.Get(atomID) == nil {
			return
		}

		for _, bondIdx := range r.motif.BondsBySite1Index[site] {
			b := r.motif.Bonds[bondIdx]
			if !r.siteIsLive(motifPos, b.Site2) {
				r.passivateDanglingBond(b.Site1, b.Site2, atomID)
			}
		}
		for _, bondIdx := range r.motif.BondsBySite2Index[site] {
			b := r.motif.Bonds[bondIdx]
			baseOfSite1 := types.IVec3{
				X: motifPos.X - b.Site2.RelativeCell.X,
				Y: motifPos.Y - b.Site2.RelativeCell.Y,
				Z: motifPos.Z - b.Site2.RelativeCell.Z,
			}
			if !r.siteIsLive(baseOfSite1, b.Site1) {
				r.passivateDanglingBond(b.Site2, b.Site1, atomID)
			}
		}
	})
}

// siteIsLive reports whether the site spec (relative to base) was placed
// and still exists in the structure — a bond to an absent or since-removed
// partner is dangling.
func (r *run) siteIsLive(base types.IVec3, spec motif.SiteSpecifier) bool {
	id, ok := r.tracker.getForSpecifier(base, spec)
	return ok && r.structure.Get(id) != nil
}

// passivateDanglingBond places a hydrogen bonded to foundAtomID in the
// direction notFoundSite would have been, at the appropriate bond length
// (spec.md §4.5 step 8).
func (r *run) passivateDanglingBond(foundSite, notFoundSite motif.SiteSpecifier, foundAtomID uint32) {
	found := r.structure.Get(foundAtomID)
	if found == nil {
		return
	}

	foundSitePos := r.motif.Sites[foundSite.SiteIndex].Position.Add(
		types.Vec3{X: float64(foundSite.RelativeCell.X), Y: float64(foundSite.RelativeCell.Y), Z: float64(foundSite.RelativeCell.Z)})
	notFoundSitePos := r.motif.Sites[notFoundSite.SiteIndex].Position.Add(
		types.Vec3{X: float64(notFoundSite.RelativeCell.X), Y: float64(notFoundSite.RelativeCell.Y), Z: float64(notFoundSite.RelativeCell.Z)})

	relativeMotifPos := notFoundSitePos.Sub(foundSitePos)
	direction := r.cell.LatticeToReal(relativeMotifPos).Normalize()

	bondLength := carbonHydrogenBondLength
	if found.AtomicNumber != 6 {
		bondLength = atomic.CovalentRadius(found.AtomicNumber) + atomic.CovalentRadius(1)
	}

	hydrogenPos := found.Position.Add(direction.Scale(bondLength))
	hydrogenID := r.structure.AddAtom(1, hydrogenPos)
	_ = r.structure.AddBond(foundAtomID, hydrogenID, atomic.BondSingle)

	r.stats.Bonds++
	r.stats.Atoms++
}

// calculateMotifSpaceBox returns the integer motif-cell range [motifMin,
// motifMin+motifSize) that covers the real-space box [boxMin, boxMin+size),
// conservatively inflated (spec.md §4.5 step 2).
func (r *run) calculateMotifSpaceBox(boxMin, size types.Vec3) (types.IVec3, types.IVec3) {
	endPos := boxMin.Add(size)
	startMotif := r.realToMotif(boxMin)
	endMotif := r.realToMotif(endPos)

	minX := math.Floor(minf(startMotif.X, endMotif.X) - ConservativeEpsilon)
	maxX := math.Ceil(maxf(startMotif.X, endMotif.X) + ConservativeEpsilon)
	minY := math.Floor(minf(startMotif.Y, endMotif.Y) - ConservativeEpsilon)
	maxY := math.Ceil(maxf(startMotif.Y, endMotif.Y) + ConservativeEpsilon)
	minZ := math.Floor(minf(startMotif.Z, endMotif.Z) - ConservativeEpsilon)
	maxZ := math.Ceil(maxf(startMotif.Z, endMotif.Z) + ConservativeEpsilon)

	motifMin := types.IVec3{X: int32(minX), Y: int32(minY), Z: int32(minZ)}
	motifSize := types.IVec3{
		X: int32(maxX) - int32(minX) + 1,
		Y: int32(maxY) - int32(minY) + 1,
		Z: int32(maxZ) - int32(minZ) + 1,
	}
	return motifMin, motifSize
}

// motifToReal converts a motif-space (fractional, offset-relative) position
// to a real-space position: it is first re-based onto the canonical lattice
// by adding MotifOffset, then mapped through the unit cell.
func (r *run) motifToReal(motifCoords types.Vec3) types.Vec3 {
	lattice := motifCoords.Add(r.opts.MotifOffset)
	return r.cell.LatticeToReal(lattice)
}

// realToMotif is motifToReal's inverse.
func (r *run) realToMotif(real types.Vec3) types.Vec3 {
	lattice := r.cell.RealToLattice(real)
	return lattice.Sub(r.opts.MotifOffset)
}
