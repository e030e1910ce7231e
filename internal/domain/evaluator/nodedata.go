package evaluator

import (
	"github.com/latticeforge/kernel/internal/domain/expr"
	"github.com/latticeforge/kernel/internal/domain/network"
)

// ParameterData marks a node as one of a network's formal parameters: when
// the network is invoked as a custom node, the evaluator binds the calling
// argument at Index to Name in the callee's stack frame (spec.md §4.1
// "binds each Parameter node in the called network to the corresponding
// argument value").
type ParameterData struct {
	Name     string
	Index    int
	DataType network.DataType
}

func (p *ParameterData) NodeTypeName() string { return "Parameter" }

// ExprData holds one Expr node's parsed AST plus the source text it was
// parsed from — the AST itself has no stringifier, so Source is what project
// persistence and the node-data API round-trip. Its free variables resolve
// against the enclosing network's Parameter bindings via the evaluator's
// current stack frame, not through wired Arguments.
type ExprData struct {
	Tree   *expr.Expr
	Source string
}

func (e *ExprData) NodeTypeName() string { return "Expr" }

// ConstData is a literal constant node: Value is returned verbatim,
// ignoring any (nonexistent) arguments.
type ConstData struct {
	Value network.NetworkResult
}

func (c *ConstData) NodeTypeName() string { return "Const" }

// ParametersOf returns net's Parameter nodes ordered by Index, i.e. the
// formal parameter list the evaluator binds positional call arguments
// against when net is invoked as a custom node.
func ParametersOf(net *network.NodeNetwork) []*network.Node {
	var params []*network.Node
	for _, n := range net.Nodes {
		if _, ok := n.Data.(*ParameterData); ok {
			params = append(params, n)
		}
	}
	for i := 0; i < len(params); i++ {
		for j := i + 1; j < len(params); j++ {
			pi := params[i].Data.(*ParameterData)
			pj := params[j].Data.(*ParameterData)
			if pj.Index < pi.Index {
				params[i], params[j] = params[j], params[i]
			}
		}
	}
	return params
}

// BuildCustomNodeType synthesizes the NodeType a call site sees for a
// user-defined network callee: one Parameter per ParameterData node (in
// Index order). OutputType is set only when the callee's return node is a
// Const node (the type of its value); for any other return node it is left
// as the zero DataType.
func BuildCustomNodeType(callee *network.NodeNetwork) network.NodeType {
	params := ParametersOf(callee)
	nt := network.NodeType{Name: callee.Name, Category: "custom"}
	for _, p := range params {
		pd := p.Data.(*ParameterData)
		nt.Parameters = append(nt.Parameters, network.Parameter{Name: pd.Name, DataType: pd.DataType})
	}
	if callee.ReturnNodeID != nil {
		if ret, ok := callee.Nodes[*callee.ReturnNodeID]; ok {
			if cd, ok := ret.Data.(*ConstData); ok {
				nt.OutputType = network.DataTypeOf(cd.Value)
			}
		}
	}
	return nt
}
