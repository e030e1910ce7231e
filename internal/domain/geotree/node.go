// Package geotree implements the implicit-geometry expression tree shared by
// every Geometry/Geometry2D-typed node in a network: a small closed set of
// primitives (HalfSpace, HalfPlane, Circle, Sphere, Polygon) and combinators
// (Extrude, Transform, Union, Intersection, Difference) composed into a DAG
// and evaluated as a signed-distance field.
//
// Every GeoNode carries a BLAKE3 hash of its own construction, computed once
// at build time from a variant tag byte and its fields (and, for combinator
// nodes, its children's hashes). The hash is the node's content address: two
// GeoNodes with the same hash are guaranteed to evaluate identically, which
// the Cache in this package relies on.
package geotree

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/latticeforge/kernel/pkg/types"
	"lukechampine.com/blake3"
)

// Kind discriminates the variant stored in a GeoNode.
type Kind int

const (
	KindHalfSpace Kind = iota
	KindHalfPlane
	KindCircle
	KindSphere
	KindPolygon
	KindExtrude
	KindTransform
	KindUnion2D
	KindUnion3D
	KindIntersection2D
	KindIntersection3D
	KindDifference2D
	KindDifference3D
)

// variant tag bytes, matching the original implicit-geometry kernel's
// construction-time hash preimage byte-for-byte.
const (
	tagHalfSpace       byte = 0x01
	tagHalfPlane       byte = 0x02
	tagCircle          byte = 0x03
	tagSphere          byte = 0x04
	tagPolygon         byte = 0x05
	tagExtrude         byte = 0x06
	tagTransform       byte = 0x07
	tagUnion2D         byte = 0x08
	tagUnion3D         byte = 0x09
	tagIntersection2D  byte = 0x0A
	tagIntersection3D  byte = 0x0B
	tagDifference2D    byte = 0x0C
	tagDifference3D    byte = 0x0D
)

// Hash is a BLAKE3-256 content address.
type Hash [32]byte

func (h Hash) String() string { return fmt.Sprintf("%x", [32]byte(h)) }

// GeoNode is an immutable node in the implicit-geometry expression tree.
// Construct one with the package-level constructor functions (HalfSpace,
// Circle, Union2D, ...), never with a struct literal — the hash must be
// computed from the exact fields at construction time.
type GeoNode struct {
	kind Kind
	hash Hash

	// Leaf fields. Only the subset relevant to kind is populated.
	normal, center3 types.Vec3
	point1, point2  types.Vec2
	center2         types.Vec2
	radius          float64
	vertices        []types.Vec2

	// Combinator fields.
	height     float64
	direction  types.Vec3
	transform  types.Transform
	shape      *GeoNode
	base, sub  *GeoNode
	shapes     []*GeoNode
}

// Kind returns the node's variant.
func (n *GeoNode) Kind() Kind { return n.kind }

// Hash returns the node's content-address hash.
func (n *GeoNode) Hash() Hash { return n.hash }

// Vertices returns a Polygon node's vertex loop. Only meaningful when
// Kind() == KindPolygon.
func (n *GeoNode) Vertices() []types.Vec2 { return n.vertices }

// Center2 returns a Circle node's center. Only meaningful when
// Kind() == KindCircle.
func (n *GeoNode) Center2() types.Vec2 { return n.center2 }

// Radius returns a Circle or Sphere node's radius.
func (n *GeoNode) Radius() float64 { return n.radius }

// Shapes returns a Union2D/Union3D/Intersection2D/Intersection3D node's
// children.
func (n *GeoNode) Shapes() []*GeoNode { return n.shapes }

func newHasher(tag byte) *blake3.Hasher {
	h := blake3.New(32, nil)
	h.Write([]byte{tag})
	return h
}

func writeFloat64(h *blake3.Hasher, f float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
	h.Write(buf[:])
}

func writeUint32(h *blake3.Hasher, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	h.Write(buf[:])
}

func writeVec2(h *blake3.Hasher, v types.Vec2) {
	writeFloat64(h, v.X)
	writeFloat64(h, v.Y)
}

func writeVec3(h *blake3.Hasher, v types.Vec3) {
	writeFloat64(h, v.X)
	writeFloat64(h, v.Y)
	writeFloat64(h, v.Z)
}

func finalizeHash(h *blake3.Hasher) Hash {
	var out Hash
	sum := h.Sum(nil)
	copy(out[:], sum)
	return out
}

// HalfSpace constructs an infinite 3D half-space: points p with
// normal.Dot(p - center) <= 0 are inside.
func HalfSpace(normal, center types.Vec3) *GeoNode {
	h := newHasher(tagHalfSpace)
	writeVec3(h, normal)
	writeVec3(h, center)
	return &GeoNode{kind: KindHalfSpace, normal: normal, center3: center, hash: finalizeHash(h)}
}

// HalfPlane constructs an infinite 2D half-plane bounded by the line through
// point1 and point2; inside is to the left of point1 -> point2.
func HalfPlane(point1, point2 types.Vec2) *GeoNode {
	h := newHasher(tagHalfPlane)
	writeVec2(h, point1)
	writeVec2(h, point2)
	return &GeoNode{kind: KindHalfPlane, point1: point1, point2: point2, hash: finalizeHash(h)}
}

// Circle constructs a 2D disc.
func Circle(center types.Vec2, radius float64) *GeoNode {
	h := newHasher(tagCircle)
	writeVec2(h, center)
	writeFloat64(h, radius)
	return &GeoNode{kind: KindCircle, center2: center, radius: radius, hash: finalizeHash(h)}
}

// Sphere constructs a 3D ball.
func Sphere(center types.Vec3, radius float64) *GeoNode {
	h := newHasher(tagSphere)
	writeVec3(h, center)
	writeFloat64(h, radius)
	return &GeoNode{kind: KindSphere, center3: center, radius: radius, hash: finalizeHash(h)}
}

// Polygon constructs a (possibly non-convex) 2D polygon from an ordered
// vertex loop.
func Polygon(vertices []types.Vec2) *GeoNode {
	h := newHasher(tagPolygon)
	writeUint32(h, uint32(len(vertices)))
	for _, v := range vertices {
		writeVec2(h, v)
	}
	cp := make([]types.Vec2, len(vertices))
	copy(cp, vertices)
	return &GeoNode{kind: KindPolygon, vertices: cp, hash: finalizeHash(h)}
}

// Extrude lifts a 2D shape along direction by height, producing a 3D solid.
func Extrude(height float64, direction types.Vec3, shape *GeoNode) *GeoNode {
	h := newHasher(tagExtrude)
	writeFloat64(h, height)
	writeVec3(h, direction)
	h.Write(shape.hash[:])
	return &GeoNode{kind: KindExtrude, height: height, direction: direction, shape: shape, hash: finalizeHash(h)}
}

// TransformNode applies a rigid transform to shape; evaluation maps sample
// points through transform's inverse before delegating to shape.
func TransformNode(transform types.Transform, shape *GeoNode) *GeoNode {
	h := newHasher(tagTransform)
	writeVec3(h, transform.Translation)
	writeFloat64(h, transform.Rotation.X)
	writeFloat64(h, transform.Rotation.Y)
	writeFloat64(h, transform.Rotation.Z)
	writeFloat64(h, transform.Rotation.W)
	h.Write(shape.hash[:])
	return &GeoNode{kind: KindTransform, transform: transform, shape: shape, hash: finalizeHash(h)}
}

func hashShapeList(h *blake3.Hasher, shapes []*GeoNode) {
	writeUint32(h, uint32(len(shapes)))
	for _, s := range shapes {
		h.Write(s.hash[:])
	}
}

// Union2D is the minimum (nearest-surface) of its children's SDFs; an empty
// union evaluates to math.MaxFloat64 (nothing is inside).
func Union2D(shapes []*GeoNode) *GeoNode {
	h := newHasher(tagUnion2D)
	hashShapeList(h, shapes)
	return &GeoNode{kind: KindUnion2D, shapes: append([]*GeoNode(nil), shapes...), hash: finalizeHash(h)}
}

// Union3D is the 3D analogue of Union2D.
func Union3D(shapes []*GeoNode) *GeoNode {
	h := newHasher(tagUnion3D)
	hashShapeList(h, shapes)
	return &GeoNode{kind: KindUnion3D, shapes: append([]*GeoNode(nil), shapes...), hash: finalizeHash(h)}
}

// Intersection2D is the maximum of its children's SDFs; an empty
// intersection evaluates to -math.MaxFloat64 (everything is inside).
func Intersection2D(shapes []*GeoNode) *GeoNode {
	h := newHasher(tagIntersection2D)
	hashShapeList(h, shapes)
	return &GeoNode{kind: KindIntersection2D, shapes: append([]*GeoNode(nil), shapes...), hash: finalizeHash(h)}
}

// Intersection3D is the 3D analogue of Intersection2D.
func Intersection3D(shapes []*GeoNode) *GeoNode {
	h := newHasher(tagIntersection3D)
	hashShapeList(h, shapes)
	return &GeoNode{kind: KindIntersection3D, shapes: append([]*GeoNode(nil), shapes...), hash: finalizeHash(h)}
}

// Difference2D is base with sub carved out: max(base, -sub).
func Difference2D(base, sub *GeoNode) *GeoNode {
	h := newHasher(tagDifference2D)
	h.Write(base.hash[:])
	h.Write(sub.hash[:])
	return &GeoNode{kind: KindDifference2D, base: base, sub: sub, hash: finalizeHash(h)}
}

// Difference3D is the 3D analogue of Difference2D.
func Difference3D(base, sub *GeoNode) *GeoNode {
	h := newHasher(tagDifference3D)
	h.Write(base.hash[:])
	h.Write(sub.hash[:])
	return &GeoNode{kind: KindDifference3D, base: base, sub: sub, hash: finalizeHash(h)}
}

// ─────────────────────────────────────────────────────────────────────────────
// Display
// ─────────────────────────────────────────────────────────────────────────────

func (n *GeoNode) String() string { return n.displayWithIndent(0) }

func formatF64(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	s := strconv.FormatFloat(f, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

func formatVec2(v types.Vec2) string {
	return fmt.Sprintf("(%s, %s)", formatF64(v.X), formatF64(v.Y))
}

func formatVec3(v types.Vec3) string {
	return fmt.Sprintf("(%s, %s, %s)", formatF64(v.X), formatF64(v.Y), formatF64(v.Z))
}

func (n *GeoNode) displayWithIndent(indent int) string {
	prefix := strings.Repeat("  ", indent)
	childPrefix := strings.Repeat("  ", indent+1)

	switch n.kind {
	case KindHalfSpace:
		return fmt.Sprintf("%sHalfSpace(normal: %s, center: %s)", prefix, formatVec3(n.normal), formatVec3(n.center3))
	case KindHalfPlane:
		return fmt.Sprintf("%sHalfPlane(p1: %s, p2: %s)", prefix, formatVec2(n.point1), formatVec2(n.point2))
	case KindCircle:
		return fmt.Sprintf("%sCircle(center: %s, radius: %s)", prefix, formatVec2(n.center2), formatF64(n.radius))
	case KindSphere:
		return fmt.Sprintf("%sSphere(center: %s, radius: %s)", prefix, formatVec3(n.center3), formatF64(n.radius))
	case KindPolygon:
		var sb strings.Builder
		fmt.Fprintf(&sb, "%sPolygon(%d vertices)", prefix, len(n.vertices))
		for i, v := range n.vertices {
			fmt.Fprintf(&sb, "\n%s  [%d]: %s", prefix, i, formatVec2(v))
		}
		return sb.String()
	case KindExtrude:
		return fmt.Sprintf("%sExtrude(height: %s, direction: %s)\n%s", prefix, formatF64(n.height), formatVec3(n.direction), n.shape.displayWithIndent(indent+1))
	case KindTransform:
		return fmt.Sprintf("%sTransform(translation: %s)\n%s", prefix, formatVec3(n.transform.Translation), n.shape.displayWithIndent(indent+1))
	case KindUnion2D:
		return displayShapeList(prefix, "Union2D", n.shapes, indent)
	case KindUnion3D:
		return displayShapeList(prefix, "Union3D", n.shapes, indent)
	case KindIntersection2D:
		return displayShapeList(prefix, "Intersection2D", n.shapes, indent)
	case KindIntersection3D:
		return displayShapeList(prefix, "Intersection3D", n.shapes, indent)
	case KindDifference2D:
		return displayDifference(prefix, childPrefix, "Difference2D", n.base, n.sub, indent)
	case KindDifference3D:
		return displayDifference(prefix, childPrefix, "Difference3D", n.base, n.sub, indent)
	default:
		return prefix + "<unknown>"
	}
}

func displayShapeList(prefix, name string, shapes []*GeoNode, indent int) string {
	var sb strings.Builder
	sb.WriteString(prefix + name)
	for _, s := range shapes {
		sb.WriteString("\n" + s.displayWithIndent(indent+1))
	}
	return sb.String()
}

func displayDifference(prefix, childPrefix, name string, base, sub *GeoNode, indent int) string {
	return fmt.Sprintf("%s%s\n%sbase:\n%s\n%ssub:\n%s", prefix, name,
		childPrefix, base.displayWithIndent(indent+2),
		childPrefix, sub.displayWithIndent(indent+2))
}

// ─────────────────────────────────────────────────────────────────────────────
// Memory estimation
// ─────────────────────────────────────────────────────────────────────────────

const (
	sizeofFloat64 = 8
	sizeofVec2    = 16
	sizeofVec3    = 24
	sizeofPointer = 8
)

// EstimateMemoryBytes recursively estimates the node's in-memory footprint,
// including every child sub-tree.
func (n *GeoNode) EstimateMemoryBytes() int {
	base := sizeofPointer*4 + sizeofVec3*2 + sizeofVec2*2 + sizeofFloat64

	switch n.kind {
	case KindHalfSpace:
		return base + sizeofVec3*2
	case KindHalfPlane:
		return base + sizeofVec2*2
	case KindCircle:
		return base + sizeofVec2 + sizeofFloat64
	case KindSphere:
		return base + sizeofVec3 + sizeofFloat64
	case KindPolygon:
		return base + sizeofPointer + len(n.vertices)*sizeofVec2
	case KindExtrude:
		return base + sizeofFloat64 + sizeofVec3 + sizeofPointer + n.shape.EstimateMemoryBytes()
	case KindTransform:
		return base + sizeofFloat64*7 + sizeofPointer + n.shape.EstimateMemoryBytes()
	case KindUnion2D, KindUnion3D, KindIntersection2D, KindIntersection3D:
		total := base + sizeofPointer
		for _, s := range n.shapes {
			total += s.EstimateMemoryBytes()
		}
		return total
	case KindDifference2D, KindDifference3D:
		return base + sizeofPointer*2 + n.base.EstimateMemoryBytes() + n.sub.EstimateMemoryBytes()
	default:
		return base
	}
}
