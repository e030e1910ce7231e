package evaluator

import (
	"fmt"

	"github.com/latticeforge/kernel/internal/domain/expr"
	"github.com/latticeforge/kernel/internal/domain/network"
)

// Validate runs spec.md §4.1's pre-evaluation static pass over net: every
// wire's source exists, every parameter's wired source type converts to the
// declared parameter type, and Expr nodes type-check against the ambient
// Parameter environment. Errors are written into net.ValidationErrors keyed
// by node id, replacing any previous contents, matching
// get_node_network_view's "errors attach to their node id" contract.
func Validate(net *network.NodeNetwork, reg *network.Registry, networks map[string]*network.NodeNetwork) {
	net.ValidationErrors = make(map[uint64]string)

	env := make(expr.TypeEnv)
	for _, p := range ParametersOf(net) {
		pd := p.Data.(*ParameterData)
		env[pd.Name] = pd.DataType
	}

	for id, node := range net.Nodes {
		if err := validateNode(net, node, reg, networks, env); err != nil {
			net.ValidationErrors[id] = err.Error()
		}
	}
}

func validateNode(net *network.NodeNetwork, node *network.Node, reg *network.Registry, networks map[string]*network.NodeNetwork, env expr.TypeEnv) error {
	if ed, ok := node.Data.(*ExprData); ok {
		if _, err := expr.Typecheck(ed.Tree, env); err != nil {
			return err
		}
	}

	var params []network.Parameter
	if callee, ok := networks[node.NodeTypeName]; ok && node.CustomNodeType == nil {
		params = BuildCustomNodeType(callee).Parameters
	} else {
		nt, ok := node.EffectiveNodeType(reg)
		if !ok {
			return fmt.Errorf("unknown node type %q", node.NodeTypeName)
		}
		params = nt.Parameters
	}

	for i, param := range params {
		var entries []network.ArgumentEntry
		if i < len(node.Arguments) {
			entries = node.Arguments[i].Entries
		}
		for _, entry := range entries {
			if entry.OutputPin == network.FunctionOutputPin {
				continue // closures are checked at call time, not statically
			}
			src, ok := net.Nodes[entry.SourceNodeID]
			if !ok {
				return fmt.Errorf("wire into %q references missing node %d", param.Name, entry.SourceNodeID)
			}
			srcType, ok := effectiveOutputType(src, reg, networks)
			if !ok {
				return fmt.Errorf("wire into %q references a node of unknown type", param.Name)
			}
			if !network.CanConvert(srcType, param.DataType) {
				return fmt.Errorf("%s input type %s cannot convert to %s", param.Name, srcType, param.DataType)
			}
		}
	}
	return nil
}

func effectiveOutputType(node *network.Node, reg *network.Registry, networks map[string]*network.NodeNetwork) (network.DataType, bool) {
	if callee, ok := networks[node.NodeTypeName]; ok && node.CustomNodeType == nil {
		return BuildCustomNodeType(callee).OutputType, true
	}
	nt, ok := node.EffectiveNodeType(reg)
	if !ok {
		return network.DataType{}, false
	}
	return nt.OutputType, true
}
