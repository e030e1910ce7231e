package editlang

import (
	"github.com/latticeforge/kernel/internal/domain/evaluator"
	"github.com/latticeforge/kernel/internal/domain/network"
)

// AutoConnect implements spec.md §4.7's auto_connect_to_node: given a drag
// gesture from sourceNodeID's pin (sourceIsOutput: dragging from an output,
// so we're looking for a compatible input on target; otherwise dragging
// from an input, so we wire target's own output into it), it finds the
// first compatible parameter on target and wires it, replacing whatever
// was already wired into that parameter slot. Returns false if no
// compatible pin exists.
func AutoConnect(net *network.NodeNetwork, reg *network.Registry, networks map[string]*network.NodeNetwork, sourceNodeID uint64, sourcePin network.OutputPin, sourceIsOutput bool, targetNodeID uint64) bool {
	source, ok := net.Nodes[sourceNodeID]
	if !ok {
		return false
	}
	target, ok := net.Nodes[targetNodeID]
	if !ok {
		return false
	}

	if !sourceIsOutput {
		// Dragging from an input pin on `source`: target supplies its
		// output into that same pin instead, source and target swap roles.
		source, target = target, source
	}

	sourceType, ok := effectiveOutputType(source, reg, networks)
	if !ok {
		return false
	}

	idx, ok := firstCompatibleParamIndex(target, reg, networks, sourceType)
	if !ok {
		return false
	}

	for len(target.Arguments) <= idx {
		target.Arguments = append(target.Arguments, network.Argument{})
	}
	target.Arguments[idx] = network.Argument{
		Entries: []network.ArgumentEntry{{SourceNodeID: source.ID, OutputPin: sourcePin}},
	}
	return true
}

// CompatiblePins returns the names of every parameter on target that
// sourceType may be wired into, for UI hinting during a drag gesture
// (spec.md §4.7's get_compatible_pins_for_auto_connect).
func CompatiblePins(target *network.Node, reg *network.Registry, networks map[string]*network.NodeNetwork, sourceType network.DataType) []string {
	params, ok := effectiveParameters(target, reg, networks)
	if !ok {
		return nil
	}
	var names []string
	for _, p := range params {
		if network.CanConvert(sourceType, p.DataType) {
			names = append(names, p.Name)
		}
	}
	return names
}

func firstCompatibleParamIndex(target *network.Node, reg *network.Registry, networks map[string]*network.NodeNetwork, sourceType network.DataType) (int, bool) {
	params, ok := effectiveParameters(target, reg, networks)
	if !ok {
		return 0, false
	}
	for i, p := range params {
		if network.CanConvert(sourceType, p.DataType) {
			return i, true
		}
	}
	return 0, false
}

func effectiveOutputType(node *network.Node, reg *network.Registry, networks map[string]*network.NodeNetwork) (network.DataType, bool) {
	if callee, ok := networks[node.NodeTypeName]; ok && node.CustomNodeType == nil {
		return evaluator.BuildCustomNodeType(callee).OutputType, true
	}
	nt, ok := node.EffectiveNodeType(reg)
	if !ok {
		return network.DataType{}, false
	}
	return nt.OutputType, true
}
