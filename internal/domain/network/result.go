// Package network implements the node-graph data model: the tagged-variant
// value every node produces (NetworkResult), its compile-time descriptor
// (DataType), and the DAG of typed nodes (NodeNetwork / Node / Argument)
// that the evaluator package walks.
package network

import (
	"fmt"

	"github.com/latticeforge/kernel/internal/domain/geotree"
	"github.com/latticeforge/kernel/pkg/types"
)

// Kind identifies which variant a NetworkResult or DataType carries.
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindString
	KindInt
	KindFloat
	KindVec2
	KindVec3
	KindIVec2
	KindIVec3
	KindUnitCell
	KindDrawingPlane
	KindGeometry
	KindGeometry2D
	KindAtomic
	KindMotif
	KindArray
	KindFunction
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindBool:
		return "Bool"
	case KindString:
		return "String"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindVec2:
		return "Vec2"
	case KindVec3:
		return "Vec3"
	case KindIVec2:
		return "IVec2"
	case KindIVec3:
		return "IVec3"
	case KindUnitCell:
		return "UnitCell"
	case KindDrawingPlane:
		return "DrawingPlane"
	case KindGeometry:
		return "Geometry"
	case KindGeometry2D:
		return "Geometry2D"
	case KindAtomic:
		return "Atomic"
	case KindMotif:
		return "Motif"
	case KindArray:
		return "Array"
	case KindFunction:
		return "Function"
	case KindError:
		return "Error"
	default:
		return "Unknown"
	}
}

// GeometrySummary is the 3D SDF result carried by a Geometry NetworkResult:
// a unit cell, the frame transform relating the tree's local space to the
// cell, and the content-addressed GeoNode root.
type GeometrySummary struct {
	UnitCell      types.UnitCell
	FrameTransform types.Transform
	Root          *geotree.GeoNode
}

// GeometrySummary2D is the 2D analogue, anchored to a DrawingPlane instead
// of a UnitCell.
type GeometrySummary2D struct {
	Plane          types.DrawingPlane
	FrameTransform types.Transform
	Root           *geotree.GeoNode
}

// CompatibleWith reports whether two 3D summaries may be combined by a
// binary CSG node: their unit cells must be approximately equal.
func (g GeometrySummary) CompatibleWith(o GeometrySummary) bool {
	return g.UnitCell.ApproxEqual(o.UnitCell)
}

// CompatibleWith reports whether two 2D summaries may be combined: their
// drawing planes' origin/normal must be approximately equal.
func (g GeometrySummary2D) CompatibleWith(o GeometrySummary2D) bool {
	const eps = 1e-5
	return g.Plane.Origin.ApproxEqual(o.Plane.Origin, eps) &&
		g.Plane.Normal.ApproxEqual(o.Plane.Normal, eps)
}

// Closure represents a partially applied node output: a reference to a node
// in a named network plus any arguments already bound to it.
type Closure struct {
	NodeNetworkName       string
	NodeID                uint64
	CapturedArgumentValues []NetworkResult
}

// NetworkResult is the single tagged-variant value carried along every wire
// in the node graph, mirroring spec.md §3's NetworkResult enum.
type NetworkResult struct {
	Kind Kind

	Bool   bool
	Str    string
	Int    int32
	Float  float64
	Vec2   types.Vec2
	Vec3   types.Vec3
	IVec2  types.IVec2
	IVec3  types.IVec3
	UnitCell     types.UnitCell
	DrawingPlane types.DrawingPlane
	Geometry     GeometrySummary
	Geometry2D   GeometrySummary2D
	Atomic       interface{} // *atomic.AtomicStructure; interface{} avoids an import cycle
	Motif        interface{} // *motif.Motif
	Array        []NetworkResult
	Function     Closure
	Error        string
}

func None() NetworkResult                     { return NetworkResult{Kind: KindNone} }
func NewBool(b bool) NetworkResult             { return NetworkResult{Kind: KindBool, Bool: b} }
func NewString(s string) NetworkResult         { return NetworkResult{Kind: KindString, Str: s} }
func NewInt(i int32) NetworkResult             { return NetworkResult{Kind: KindInt, Int: i} }
func NewFloat(f float64) NetworkResult         { return NetworkResult{Kind: KindFloat, Float: f} }
func NewVec2(v types.Vec2) NetworkResult       { return NetworkResult{Kind: KindVec2, Vec2: v} }
func NewVec3(v types.Vec3) NetworkResult       { return NetworkResult{Kind: KindVec3, Vec3: v} }
func NewIVec2(v types.IVec2) NetworkResult     { return NetworkResult{Kind: KindIVec2, IVec2: v} }
func NewIVec3(v types.IVec3) NetworkResult     { return NetworkResult{Kind: KindIVec3, IVec3: v} }
func NewArray(vals []NetworkResult) NetworkResult {
	return NetworkResult{Kind: KindArray, Array: vals}
}
func NewErrorf(format string, args ...interface{}) NetworkResult {
	return NetworkResult{Kind: KindError, Error: fmt.Sprintf(format, args...)}
}
func NewError(msg string) NetworkResult { return NetworkResult{Kind: KindError, Error: msg} }

// IsError reports whether r carries an Error variant.
func (r NetworkResult) IsError() bool { return r.Kind == KindError }

// DataType is the compile-time descriptor of a NetworkResult, used by the
// validator and the expression typechecker.
type DataType struct {
	Kind Kind
	// Elem is the element type when Kind == KindArray.
	Elem *DataType
	// FuncParams/FuncRet describe a KindFunction type.
	FuncParams []DataType
	FuncRet    *DataType
}

func SimpleType(k Kind) DataType { return DataType{Kind: k} }
func ArrayType(elem DataType) DataType { return DataType{Kind: KindArray, Elem: &elem} }

func (d DataType) String() string {
	switch d.Kind {
	case KindArray:
		if d.Elem != nil {
			return "Array<" + d.Elem.String() + ">"
		}
		return "Array<?>"
	case KindFunction:
		return "Function"
	default:
		return d.Kind.String()
	}
}

// scalarRank assigns a promotion rank to the numeric-scalar types; -1 means
// "not a promotable scalar".
func scalarRank(k Kind) int {
	switch k {
	case KindInt:
		return 0
	case KindFloat:
		return 1
	default:
		return -1
	}
}

// CanConvert reports whether a value of type src may be used where dst is
// declared, under spec.md §3's promotion rules: Int→Float, IVecN→VecN,
// scalar T→Array[T] (single-element wrap), and Array[S]→Array[D] when
// S→D converts elementwise.
func CanConvert(src, dst DataType) bool {
	if src.Kind == dst.Kind {
		if src.Kind == KindArray {
			if src.Elem == nil || dst.Elem == nil {
				return true
			}
			return CanConvert(*src.Elem, *dst.Elem)
		}
		return true
	}

	switch {
	case src.Kind == KindInt && dst.Kind == KindFloat:
		return true
	case src.Kind == KindIVec2 && dst.Kind == KindVec2:
		return true
	case src.Kind == KindIVec3 && dst.Kind == KindVec3:
		return true
	}

	// Single-element array wrapping: scalar T -> Array[T] when T converts.
	if dst.Kind == KindArray && dst.Elem != nil && src.Kind != KindArray {
		return CanConvert(src, *dst.Elem)
	}

	return false
}

// DataTypeOf returns the DataType descriptor of a concrete NetworkResult
// value (used when the evaluator needs to classify a value it just
// produced, e.g. to decide whether it matches a declared parameter type).
func DataTypeOf(r NetworkResult) DataType {
	if r.Kind == KindArray {
		if len(r.Array) == 0 {
			return DataType{Kind: KindArray}
		}
		elem := DataTypeOf(r.Array[0])
		return ArrayType(elem)
	}
	return SimpleType(r.Kind)
}
