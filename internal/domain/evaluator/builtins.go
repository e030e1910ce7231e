package evaluator

import (
	"fmt"

	"github.com/latticeforge/kernel/internal/domain/atomic"
	"github.com/latticeforge/kernel/internal/domain/edit"
	"github.com/latticeforge/kernel/internal/domain/expr"
	"github.com/latticeforge/kernel/internal/domain/fill"
	"github.com/latticeforge/kernel/internal/domain/geotree"
	"github.com/latticeforge/kernel/internal/domain/motif"
	"github.com/latticeforge/kernel/internal/domain/network"
	"github.com/latticeforge/kernel/pkg/types"
)

// NewDefaultRegistry returns a registry populated with the kernel's
// built-in node types, grounded on spec.md §3's NetworkResult/GeoTree/
// AtomicStructure vocabulary. This is a representative catalogue covering
// each subsystem (geometry construction/CSG, motif/fill, atom edit) rather
// than an exhaustive port of every node the original UI exposes — see
// DESIGN.md for the node types intentionally left out of this pass.
func NewDefaultRegistry() *network.Registry {
	reg := network.NewRegistry()
	registerGeometryNodes(reg)
	registerAtomicNodes(reg)
	return reg
}

func geom3(root *geotree.GeoNode, cell types.UnitCell) network.NetworkResult {
	return network.NetworkResult{
		Kind: network.KindGeometry,
		Geometry: network.GeometrySummary{
			UnitCell:       cell,
			FrameTransform: types.IdentityTransform(),
			Root:           root,
		},
	}
}

func registerGeometryNodes(reg *network.Registry) {
	vec3 := network.SimpleType(network.KindVec3)
	floatT := network.SimpleType(network.KindFloat)
	geomT := network.SimpleType(network.KindGeometry)
	unitCellT := network.SimpleType(network.KindUnitCell)

	reg.Register(network.NodeType{
		Name:       "Sphere",
		Category:   "geometry",
		Parameters: []network.Parameter{{Name: "center", DataType: vec3}, {Name: "radius", DataType: floatT}},
		OutputType: geomT,
		Eval: func(_ *network.Node, args []network.NetworkResult, _ interface{}) (network.NetworkResult, error) {
			root := geotree.Sphere(args[0].Vec3, args[1].Float)
			return geom3(root, types.UnitCell{}), nil
		},
	})

	reg.Register(network.NodeType{
		Name:       "HalfSpace",
		Category:   "geometry",
		Parameters: []network.Parameter{{Name: "normal", DataType: vec3}, {Name: "point", DataType: vec3}},
		OutputType: geomT,
		Eval: func(_ *network.Node, args []network.NetworkResult, _ interface{}) (network.NetworkResult, error) {
			root := geotree.HalfSpace(args[0].Vec3, args[1].Vec3)
			return geom3(root, types.UnitCell{}), nil
		},
	})

	reg.Register(network.NodeType{
		Name:       "Union3D",
		Category:   "csg",
		Parameters: []network.Parameter{{Name: "shapes", DataType: network.ArrayType(geomT), Multi: true}},
		OutputType: geomT,
		Eval:       csg3(func(shapes []*geotree.GeoNode) *geotree.GeoNode { return geotree.Union3D(shapes) }),
	})

	reg.Register(network.NodeType{
		Name:       "Intersection3D",
		Category:   "csg",
		Parameters: []network.Parameter{{Name: "shapes", DataType: network.ArrayType(geomT), Multi: true}},
		OutputType: geomT,
		Eval:       csg3(func(shapes []*geotree.GeoNode) *geotree.GeoNode { return geotree.Intersection3D(shapes) }),
	})

	reg.Register(network.NodeType{
		Name:       "Difference3D",
		Category:   "csg",
		Parameters: []network.Parameter{{Name: "base", DataType: geomT}, {Name: "subtract", DataType: geomT}},
		OutputType: geomT,
		Eval: func(_ *network.Node, args []network.NetworkResult, _ interface{}) (network.NetworkResult, error) {
			base, sub := args[0].Geometry, args[1].Geometry
			if !base.CompatibleWith(sub) {
				return network.NewError("Unit cell mismatch"), nil
			}
			return geom3(geotree.Difference3D(base.Root, sub.Root), base.UnitCell), nil
		},
	})

	reg.Register(network.NodeType{
		Name:       "Translate3D",
		Category:   "geometry",
		Parameters: []network.Parameter{{Name: "shape", DataType: geomT}, {Name: "offset", DataType: vec3}},
		OutputType: geomT,
		Eval: func(_ *network.Node, args []network.NetworkResult, _ interface{}) (network.NetworkResult, error) {
			g := args[0].Geometry
			t := types.Transform{Translation: args[1].Vec3, Rotation: types.IdentityQuat()}
			return geom3(geotree.TransformNode(t, g.Root), g.UnitCell), nil
		},
	})

	reg.Register(network.NodeType{
		Name:       "WithUnitCell",
		Category:   "geometry",
		Parameters: []network.Parameter{{Name: "shape", DataType: geomT}, {Name: "unit_cell", DataType: unitCellT}},
		OutputType: geomT,
		Eval: func(_ *network.Node, args []network.NetworkResult, _ interface{}) (network.NetworkResult, error) {
			g := args[0].Geometry
			g.UnitCell = args[1].UnitCell
			return network.NetworkResult{Kind: network.KindGeometry, Geometry: g}, nil
		},
	})
}

func csg3(f func([]*geotree.GeoNode) *geotree.GeoNode) network.EvalFunc {
	return func(_ *network.Node, args []network.NetworkResult, _ interface{}) (network.NetworkResult, error) {
		shapes := args[0].Array
		if len(shapes) == 0 {
			return network.NewError("no shapes to combine"), nil
		}
		roots := make([]*geotree.GeoNode, len(shapes))
		cell := shapes[0].Geometry.UnitCell
		for i, s := range shapes {
			if !s.Geometry.UnitCell.ApproxEqual(cell) {
				return network.NewError("Unit cell mismatch"), nil
			}
			roots[i] = s.Geometry.Root
		}
		return geom3(f(roots), cell), nil
	}
}

func registerAtomicNodes(reg *network.Registry) {
	geomT := network.SimpleType(network.KindGeometry)
	motifT := network.SimpleType(network.KindMotif)
	atomicT := network.SimpleType(network.KindAtomic)

	reg.Register(network.NodeType{
		Name:       "AtomFill",
		Category:   "atomic",
		Parameters: []network.Parameter{{Name: "geometry", DataType: geomT}, {Name: "motif", DataType: motifT}},
		OutputType: atomicT,
		Eval: func(node *network.Node, args []network.NetworkResult, _ interface{}) (network.NetworkResult, error) {
			m, ok := args[1].Motif.(*motif.Motif)
			if !ok || m == nil {
				return network.NewError("AtomFill requires a motif input"), nil
			}
			data, _ := node.Data.(*FillData)
			opts := fill.Options{}
			if data != nil {
				opts = data.Options
			}
			g := args[0].Geometry
			structure, stats := fill.Run(g.Root, g.UnitCell, m, opts)
			if data != nil {
				data.LastStats = &stats
			}
			return network.NetworkResult{Kind: network.KindAtomic, Atomic: structure}, nil
		},
	})

	reg.Register(network.NodeType{
		Name:       "AtomEdit",
		Category:   "atomic",
		Parameters: []network.Parameter{{Name: "molecule", DataType: atomicT}},
		OutputType: atomicT,
		Eval: func(node *network.Node, args []network.NetworkResult, _ interface{}) (network.NetworkResult, error) {
			data, ok := node.Data.(*EditorData)
			if !ok || data.Editor == nil {
				return network.NewError("AtomEdit node missing its editor state"), nil
			}
			input, ok := args[0].Atomic.(*atomic.AtomicStructure)
			if !ok || input == nil {
				input = atomic.New()
			}
			out := data.Editor.Eval(input, false)
			return network.NetworkResult{Kind: network.KindAtomic, Atomic: out.Structure}, nil
		},
	})
}

// FillData is an AtomFill node's persistent configuration plus the last
// run's statistics (for subtitle/status display, mirroring AtomEdit's
// last_stats pattern).
type FillData struct {
	Options   fill.Options
	LastStats *fill.Statistics
}

func (f *FillData) NodeTypeName() string { return "AtomFill" }

// EditorData is an AtomEdit node's persistent state: the diff editor.
type EditorData struct {
	Editor *edit.Editor
}

func (e *EditorData) NodeTypeName() string { return "AtomEdit" }

// NewExprNode parses src and type-checks it against env, returning a Node
// whose CustomNodeType carries the resulting output type (spec.md §9
// "dynamic NodeType cached on the Node").
func NewExprNode(id uint64, src string, env expr.TypeEnv) (*network.Node, error) {
	tree, err := expr.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse expr: %w", err)
	}
	outType, err := expr.Typecheck(tree, env)
	if err != nil {
		return nil, fmt.Errorf("typecheck expr: %w", err)
	}
	return &network.Node{
		ID:             id,
		NodeTypeName:   "Expr",
		Data:           &ExprData{Tree: tree, Source: src},
		CustomNodeType: &network.NodeType{Name: "Expr", Parameters: nil, OutputType: outType, Eval: exprEval},
	}, nil
}

// NewParameterNode returns a formal-parameter node for a network: Index is
// its position in the network's parameter list, used to bind positional
// call arguments when the network is invoked as a custom node.
func NewParameterNode(id uint64, name string, index int, dataType network.DataType) *network.Node {
	return &network.Node{
		ID:           id,
		NodeTypeName: "Parameter",
		Data:         &ParameterData{Name: name, Index: index, DataType: dataType},
		CustomNodeType: &network.NodeType{
			Name: "Parameter", Parameters: nil, OutputType: dataType, Eval: parameterEval,
		},
	}
}

// NewConstNode returns a literal constant node holding value verbatim.
func NewConstNode(id uint64, value network.NetworkResult) *network.Node {
	dt := network.DataTypeOf(value)
	return &network.Node{
		ID:           id,
		NodeTypeName: "Const",
		Data:         &ConstData{Value: value},
		CustomNodeType: &network.NodeType{
			Name: "Const", Parameters: nil, OutputType: dt, Eval: constEval,
		},
	}
}
