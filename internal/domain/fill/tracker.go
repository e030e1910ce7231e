package fill

import (
	"github.com/latticeforge/kernel/internal/domain/motif"
	"github.com/latticeforge/kernel/pkg/types"
)

// placedKey addresses one motif-site slot: which motif cell, which site
// within it.
type placedKey struct {
	MotifPos types.IVec3
	Site     int
}

// placedAtomTracker records, for every motif site actually placed, the
// atomic-structure id it was given — keyed by motif-space position and site
// index so bond creation and hydrogen passivation can look up a site's
// neighbor in a different motif cell in O(1). Iteration follows insertion
// order, matching spec.md §8's determinism requirement for the order-
// preserving atom tracker.
type placedAtomTracker struct {
	ids   map[placedKey]uint32
	order []placedKey
}

func newPlacedAtomTracker() *placedAtomTracker {
	return &placedAtomTracker{ids: make(map[placedKey]uint32)}
}

func (t *placedAtomTracker) record(motifPos types.IVec3, site int, atomID uint32) {
	k := placedKey{MotifPos: motifPos, Site: site}
	if _, exists := t.ids[k]; !exists {
		t.order = append(t.order, k)
	}
	t.ids[k] = atomID
}

func (t *placedAtomTracker) get(motifPos types.IVec3, site int) (uint32, bool) {
	id, ok := t.ids[placedKey{MotifPos: motifPos, Site: site}]
	return id, ok
}

// getForSpecifier resolves a motif.SiteSpecifier relative to base, the
// motif-space position of the atom that references it.
func (t *placedAtomTracker) getForSpecifier(base types.IVec3, spec motif.SiteSpecifier) (uint32, bool) {
	target := types.IVec3{
		X: base.X + spec.RelativeCell.X,
		Y: base.Y + spec.RelativeCell.Y,
		Z: base.Z + spec.RelativeCell.Z,
	}
	return t.get(target, spec.SiteIndex)
}

// forEach visits every recorded (motifPos, site, atomID) triple in insertion
// order.
func (t *placedAtomTracker) forEach(fn func(motifPos types.IVec3, site int, atomID uint32)) {
	for _, k := range t.order {
		fn(k.MotifPos, k.Site, t.ids[k])
	}
}
