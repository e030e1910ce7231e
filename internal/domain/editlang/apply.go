package editlang

import (
	"fmt"

	"github.com/latticeforge/kernel/internal/domain/evaluator"
	"github.com/latticeforge/kernel/internal/domain/expr"
	"github.com/latticeforge/kernel/internal/domain/network"
	"github.com/latticeforge/kernel/pkg/types"
)

// nodeGap is the constant spacing auto-layout offsets a new node from the
// average position of the nodes it wires from (spec.md §4.7 "shifted by a
// constant node gap").
const nodeGap = 220.0

// Apply runs script against net's node graph: parses it, then performs the
// two-pass create/update/wire semantics of spec.md §4.7. It returns
// non-fatal warnings (unknown parameter name, literal onto a wire-only
// parameter, unresolved node reference) and a fatal error only for parse
// failures or a script that is structurally impossible to apply.
func Apply(net *network.NodeNetwork, reg *network.Registry, networks map[string]*network.NodeNetwork, script string, mode Mode) ([]string, error) {
	stmts, err := Parse(script)
	if err != nil {
		return nil, err
	}

	if mode == Replace {
		net.Nodes = make(map[uint64]*network.Node)
		net.DisplayedNodeIDs = make(map[uint64]struct{})
		net.SelectedNodeIDs = make(map[uint64]struct{})
		net.SelectedWires = make(map[network.WireRef]struct{})
		net.ValidationErrors = make(map[uint64]string)
		net.ReturnNodeID = nil
	}

	nameMap := make(map[string]uint64)
	if mode == Incremental {
		for id, n := range net.Nodes {
			if n.CustomName != nil {
				nameMap[*n.CustomName] = id
			}
		}
	}

	var warnings []string
	warnf := func(format string, args ...interface{}) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	env := preScanParameterEnv(stmts)

	// Pass 1: create or update every Def node's shell, recording its name
	// in nameMap so later statements (in either direction) can address it.
	// Matching network_editor.rs's apply(): Delete and Output are deferred
	// to a final pass run only after every wire is in place, not processed
	// inline here.
	for _, stmt := range stmts {
		if stmt.Kind != StmtDef {
			continue
		}
		if err := applyDefShell(net, networks, env, nameMap, stmt); err != nil {
			return warnings, err
		}
		if stmt.Visible {
			net.DisplayedNodeIDs[nameMap[stmt.Name]] = struct{}{}
		}
	}

	// Pass 2: wire every Def node's properties now that every referenced
	// name (forward or backward) has a node id, and compute its
	// auto-layout position.
	for _, stmt := range stmts {
		if stmt.Kind != StmtDef {
			continue
		}
		if isSpecialType(stmt.TypeName) {
			continue // special node kinds consumed their props in pass 1
		}
		id := nameMap[stmt.Name]
		node := net.Nodes[id]
		params, ok := effectiveParameters(node, reg, networks)
		if !ok {
			warnf("line %d: unknown node type %q on node %q", stmt.Line, stmt.TypeName, stmt.Name)
			continue
		}
		paramIndex := make(map[string]int, len(params))
		for i, p := range params {
			paramIndex[p.Name] = i
		}

		node.Arguments = make([]network.Argument, len(params))
		var sourcePositions []types.Vec2

		for _, prop := range stmt.Props {
			if prop.Name == "visible" {
				continue
			}
			idx, ok := paramIndex[prop.Name]
			if !ok {
				warnf("line %d: unknown parameter %q on node %q ignored", stmt.Line, prop.Name, stmt.Name)
				continue
			}
			param := params[idx]

			entries, positions, lit, ok := resolveWireEntries(prop.Value, nameMap, net)
			if ok {
				node.Arguments[idx].Entries = append(node.Arguments[idx].Entries, entries...)
				sourcePositions = append(sourcePositions, positions...)
				continue
			}
			if !lit {
				warnf("line %d: %q references an unknown node", stmt.Line, prop.Name)
				continue
			}
			if !isLiteralCapable(param.DataType) {
				warnf("line %d: literal value for wire-only parameter %q on node %q ignored", stmt.Line, prop.Name, stmt.Name)
				continue
			}
			result, ok := valueToResult(prop.Value, param.DataType)
			if !ok {
				warnf("line %d: literal value for parameter %q on node %q has the wrong shape, ignored", stmt.Line, prop.Name, stmt.Name)
				continue
			}
			constID := net.AddNode(evaluator.NewConstNode(0, result))
			node.Arguments[idx].Entries = append(node.Arguments[idx].Entries, network.ArgumentEntry{SourceNodeID: constID})
		}

		node.Position = autoLayoutPosition(node.Position, sourcePositions)
	}

	// Final pass: Delete and Output, only now that wiring is complete.
	for _, stmt := range stmts {
		switch stmt.Kind {
		case StmtDelete:
			if id, ok := nameMap[stmt.Name]; ok {
				net.DeleteNode(id)
				delete(nameMap, stmt.Name)
			} else {
				warnf("line %d: delete of unknown node %q ignored", stmt.Line, stmt.Name)
			}
		case StmtOutput:
			if id, ok := nameMap[stmt.Name]; ok {
				net.ReturnNodeID = &id
			} else {
				warnf("line %d: output references unknown node %q", stmt.Line, stmt.Name)
			}
		}
	}

	return warnings, nil
}

func isSpecialType(typeName string) bool {
	return typeName == "Parameter" || typeName == "Expr" || typeName == "Const"
}

// preScanParameterEnv builds the free-variable type environment Expr nodes
// type-check against by scanning every Parameter statement up front,
// regardless of where it appears in the script — the two-pass contract
// guarantees forward references resolve.
func preScanParameterEnv(stmts []Statement) expr.TypeEnv {
	env := make(expr.TypeEnv)
	for _, stmt := range stmts {
		if stmt.Kind != StmtDef || stmt.TypeName != "Parameter" {
			continue
		}
		var name, dataType string
		for _, p := range stmt.Props {
			switch p.Name {
			case "name":
				name = p.Value.Str
			case "data_type":
				dataType = p.Value.Str
			}
		}
		if name == "" {
			continue
		}
		dt, err := dataTypeByName(dataType)
		if err != nil {
			continue
		}
		env[name] = dt
	}
	return env
}

// applyDefShell creates or updates a node's identity, type, and (for the
// three special node kinds that carry their own dynamic NodeType) its
// fully-specified Data, without touching Arguments — that's pass 2's job.
func applyDefShell(net *network.NodeNetwork, networks map[string]*network.NodeNetwork, env expr.TypeEnv, nameMap map[string]uint64, stmt Statement) error {
	existingID := nameMap[stmt.Name]

	switch stmt.TypeName {
	case "Parameter":
		var name, dataType string
		var index int64
		for _, p := range stmt.Props {
			switch p.Name {
			case "name":
				name = p.Value.Str
			case "data_type":
				dataType = p.Value.Str
			case "index":
				index = p.Value.Int
			}
		}
		dt, err := dataTypeByName(dataType)
		if err != nil {
			return fmt.Errorf("node %q: %w", stmt.Name, err)
		}
		node := evaluator.NewParameterNode(existingID, name, int(index), dt)
		preserveShellPosition(net, existingID, node)
		customName := stmt.Name
		node.CustomName = &customName
		id := net.AddNode(node)
		nameMap[stmt.Name] = id
		return nil

	case "Expr":
		var src string
		for _, p := range stmt.Props {
			if p.Name == "src" {
				src = p.Value.Str
			}
		}
		node, err := evaluator.NewExprNode(existingID, src, env)
		if err != nil {
			return fmt.Errorf("node %q: %w", stmt.Name, err)
		}
		preserveShellPosition(net, existingID, node)
		customName := stmt.Name
		node.CustomName = &customName
		id := net.AddNode(node)
		nameMap[stmt.Name] = id
		return nil

	case "Const":
		var value network.NetworkResult
		for _, p := range stmt.Props {
			if p.Name == "value" {
				v, ok := valueToResultNatural(p.Value)
				if !ok {
					return fmt.Errorf("node %q: value literal has no natural type", stmt.Name)
				}
				value = v
			}
		}
		node := evaluator.NewConstNode(existingID, value)
		preserveShellPosition(net, existingID, node)
		customName := stmt.Name
		node.CustomName = &customName
		id := net.AddNode(node)
		nameMap[stmt.Name] = id
		return nil

	default:
		var node *network.Node
		if existingID != 0 {
			node = net.Nodes[existingID]
			node.NodeTypeName = stmt.TypeName
			node.CustomNodeType = nil
		} else {
			customName := stmt.Name
			node = &network.Node{NodeTypeName: stmt.TypeName, CustomName: &customName}
		}
		id := net.AddNode(node)
		nameMap[stmt.Name] = id
		_ = networks // custom-network resolution happens in pass 2 via effectiveParameters
		return nil
	}
}

// preserveShellPosition carries an updated node's prior layout position
// forward, since the special node kinds are reconstructed wholesale on
// every update rather than mutated in place.
func preserveShellPosition(net *network.NodeNetwork, existingID uint64, node *network.Node) {
	if existingID == 0 {
		return
	}
	if old, ok := net.Nodes[existingID]; ok {
		node.Position = old.Position
	}
}

func effectiveParameters(node *network.Node, reg *network.Registry, networks map[string]*network.NodeNetwork) ([]network.Parameter, bool) {
	if callee, ok := networks[node.NodeTypeName]; ok && node.CustomNodeType == nil {
		return evaluator.BuildCustomNodeType(callee).Parameters, true
	}
	nt, ok := node.EffectiveNodeType(reg)
	if !ok {
		return nil, false
	}
	return nt.Parameters, true
}

// resolveWireEntries interprets a property value as one or more wire
// entries (a bare node ref, an "@"-prefixed function-pin ref, or an array
// of such refs for a multi-input parameter). ok is true when every element
// resolved to a wire; lit is true when the value looks like a literal
// instead (the caller falls back to valueToResult).
func resolveWireEntries(v Value, nameMap map[string]uint64, net *network.NodeNetwork) (entries []network.ArgumentEntry, positions []types.Vec2, lit bool, ok bool) {
	switch v.Kind {
	case ValNodeRef:
		id, found := nameMap[v.Ref]
		if !found {
			return nil, nil, false, false
		}
		return []network.ArgumentEntry{{SourceNodeID: id, OutputPin: network.NormalOutputPin}},
			[]types.Vec2{net.Nodes[id].Position}, false, true
	case ValFuncRef:
		id, found := nameMap[v.Ref]
		if !found {
			return nil, nil, false, false
		}
		return []network.ArgumentEntry{{SourceNodeID: id, OutputPin: network.FunctionOutputPin}},
			[]types.Vec2{net.Nodes[id].Position}, false, true
	case ValArray:
		if len(v.Array) == 0 {
			return nil, nil, false, true
		}
		for _, e := range v.Array {
			if e.Kind != ValNodeRef && e.Kind != ValFuncRef {
				return nil, nil, true, false
			}
		}
		for _, e := range v.Array {
			es, pos, _, elemOK := resolveWireEntries(e, nameMap, net)
			if !elemOK {
				return nil, nil, false, false
			}
			entries = append(entries, es...)
			positions = append(positions, pos...)
		}
		return entries, positions, false, true
	default:
		return nil, nil, true, false
	}
}

// autoLayoutPosition places a newly-wired node a constant gap to the right
// of the average position of its wired-from neighbors (spec.md §4.7). A
// node with no neighbors keeps its prior position (origin for brand-new
// nodes).
func autoLayoutPosition(current types.Vec2, neighbors []types.Vec2) types.Vec2 {
	if len(neighbors) == 0 {
		return current
	}
	var sum types.Vec2
	for _, p := range neighbors {
		sum.X += p.X
		sum.Y += p.Y
	}
	n := float64(len(neighbors))
	return types.Vec2{X: sum.X/n + nodeGap, Y: sum.Y / n}
}
