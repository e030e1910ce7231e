package fill

import "github.com/latticeforge/kernel/pkg/types"

// box is an axis-aligned bounding box used by the subdivision phase and by
// the motif-cell/unit-cell overlap tests (spec.md §4.5 steps 1-2).
type box struct {
	Min, Max types.Vec3
}

func boxFromMinMax(min, max types.Vec3) box { return box{Min: min, Max: max} }

func (b box) Size() types.Vec3 { return b.Max.Sub(b.Min) }

func (b box) Center() types.Vec3 { return b.Min.Add(b.Size().Scale(0.5)) }

// conservativeOverlap reports whether b and o overlap once each is inflated
// by eps on every axis — used to avoid missing motif cells at box boundaries
// due to floating-point error (spec.md §4.5 step 2).
func (b box) conservativeOverlap(o box, eps float64) bool {
	return b.Min.X <= o.Max.X+eps && o.Min.X <= b.Max.X+eps &&
		b.Min.Y <= o.Max.Y+eps && o.Min.Y <= b.Max.Y+eps &&
		b.Min.Z <= o.Max.Z+eps && o.Min.Z <= b.Max.Z+eps
}

// axisSplits returns the one or two [lo,hi] sub-ranges of [min,max] along one
// axis: unchanged if split is false, else the two halves.
func axisSplits(min, max float64, split bool) [2][2]float64 {
	if !split {
		return [2][2]float64{{min, max}, {min, max}}
	}
	mid := (min + max) / 2
	return [2][2]float64{{min, mid}, {mid, max}}
}

// subdivide splits b into up to 8 sub-boxes, halving only the axes whose
// corresponding splitX/Y/Z flag is set, in x-then-y-then-z order (spec.md
// §4.5 step 1 and the determinism note in §8).
func subdivide(b box, splitX, splitY, splitZ bool) []box {
	xs := axisSplits(b.Min.X, b.Max.X, splitX)
	ys := axisSplits(b.Min.Y, b.Max.Y, splitY)
	zs := axisSplits(b.Min.Z, b.Max.Z, splitZ)

	seen := make(map[[6]float64]bool)
	var out []box
	for _, x := range xs {
		for _, y := range ys {
			for _, z := range zs {
				key := [6]float64{x[0], x[1], y[0], y[1], z[0], z[1]}
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, box{
					Min: types.Vec3{X: x[0], Y: y[0], Z: z[0]},
					Max: types.Vec3{X: x[1], Y: y[1], Z: z[1]},
				})
			}
		}
	}
	return out
}

// unitCellAABB returns the axis-aligned bounding box of the unit-cell
// parallelepiped with one corner at cellRealPos, covering all 8 corners —
// needed because a skewed/rotated cell's AABB is not simply cellRealPos plus
// the cell's own extents.
func unitCellAABB(cellRealPos types.Vec3, cell types.UnitCell) box {
	corners := [8]types.Vec3{
		cellRealPos,
		cellRealPos.Add(cell.A),
		cellRealPos.Add(cell.B),
		cellRealPos.Add(cell.C),
		cellRealPos.Add(cell.A).Add(cell.B),
		cellRealPos.Add(cell.A).Add(cell.C),
		cellRealPos.Add(cell.B).Add(cell.C),
		cellRealPos.Add(cell.A).Add(cell.B).Add(cell.C),
	}
	min, max := corners[0], corners[0]
	for _, c := range corners[1:] {
		min = types.Vec3{X: minf(min.X, c.X), Y: minf(min.Y, c.Y), Z: minf(min.Z, c.Z)}
		max = types.Vec3{X: maxf(max.X, c.X), Y: maxf(max.Y, c.Y), Z: maxf(max.Z, c.Z)}
	}
	return box{Min: min, Max: max}
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
