package project

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/latticeforge/kernel/internal/domain/evaluator"
	"github.com/latticeforge/kernel/internal/domain/expr"
	"github.com/latticeforge/kernel/internal/domain/network"
	"github.com/latticeforge/kernel/pkg/errors"
	"github.com/latticeforge/kernel/pkg/types"
)

// cnndProject is the root of the `.cnnd` JSON tree (spec.md §6): a named
// collection of node networks plus whichever one is currently active.
type cnndProject struct {
	Networks      []cnndNetwork `json:"networks"`
	ActiveNetwork string        `json:"active_network"`
}

type cnndNetwork struct {
	Name             string      `json:"name"`
	Nodes            []cnndNode  `json:"nodes"`
	Wires            []cnndWire  `json:"wires"`
	ReturnNodeID     *uint64     `json:"return_node_id,omitempty"`
	DisplayedNodeIDs []uint64    `json:"displayed_node_ids,omitempty"`
}

type cnndNode struct {
	ID           uint64          `json:"id"`
	NodeTypeName string          `json:"node_type_name"`
	Position     [2]float64      `json:"position"`
	CustomName   *string         `json:"custom_name,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
}

type cnndWire struct {
	Source          uint64 `json:"source"`
	SourceOutputPin int32  `json:"output_pin_index"`
	Dest            uint64 `json:"dest"`
	DestParamIndex  int    `json:"dest_param_index"`
}

// exprNodeData / constNodeData / parameterNodeData are the per-type "data"
// payloads this package knows how to save and load, per spec.md §6 "each
// node's registered saver/loader". Node kinds with richer persistent state
// (AtomFill's fill.Options, AtomEdit's diff editor) are round-tripped without
// their Data payload — see DESIGN.md for the scope note.
type exprNodeData struct {
	Source string `json:"source"`
}

type constNodeData struct {
	Value interface{} `json:"value"`
}

type parameterNodeData struct {
	Name     string `json:"name"`
	Index    int    `json:"index"`
	DataType string `json:"data_type"`
}

// MarshalProject serializes every network in networks into the `.cnnd` JSON
// tree, name as the active network.
func MarshalProject(name string, networks map[string]*network.NodeNetwork) ([]byte, error) {
	proj := cnndProject{ActiveNetwork: name}

	names := make([]string, 0, len(networks))
	for n := range networks {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		net := networks[n]
		cn := cnndNetwork{Name: net.Name, ReturnNodeID: net.ReturnNodeID}
		for id := range net.DisplayedNodeIDs {
			cn.DisplayedNodeIDs = append(cn.DisplayedNodeIDs, id)
		}
		sort.Slice(cn.DisplayedNodeIDs, func(i, j int) bool { return cn.DisplayedNodeIDs[i] < cn.DisplayedNodeIDs[j] })

		ids := make([]uint64, 0, len(net.Nodes))
		for id := range net.Nodes {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		for _, id := range ids {
			node := net.Nodes[id]
			data, err := marshalNodeData(node)
			if err != nil {
				return nil, err
			}
			cn.Nodes = append(cn.Nodes, cnndNode{
				ID:           id,
				NodeTypeName: node.NodeTypeName,
				Position:     [2]float64{node.Position.X, node.Position.Y},
				CustomName:   node.CustomName,
				Data:         data,
			})
			for paramIndex, arg := range node.Arguments {
				for _, entry := range arg.Entries {
					cn.Wires = append(cn.Wires, cnndWire{
						Source:          entry.SourceNodeID,
						SourceOutputPin: int32(entry.OutputPin),
						Dest:            id,
						DestParamIndex:  paramIndex,
					})
				}
			}
		}
		proj.Networks = append(proj.Networks, cn)
	}

	return json.Marshal(proj)
}

func marshalNodeData(node *network.Node) (json.RawMessage, error) {
	switch data := node.Data.(type) {
	case *evaluator.ExprData:
		return json.Marshal(exprNodeData{Source: data.Source})
	case *evaluator.ConstData:
		return json.Marshal(constNodeData{Value: resultToJSON(data.Value)})
	case *evaluator.ParameterData:
		return json.Marshal(parameterNodeData{Name: data.Name, Index: data.Index, DataType: data.DataType.String()})
	default:
		return nil, nil
	}
}

// UnmarshalProject parses a `.cnnd` JSON tree into the live NodeNetworks it
// describes. Wires are applied after every node exists so forward references
// within a network resolve regardless of array order.
func UnmarshalProject(doc []byte) (map[string]*network.NodeNetwork, error) {
	var proj cnndProject
	if err := json.Unmarshal(doc, &proj); err != nil {
		return nil, errors.New(errors.CodeGeoNodeInvalid, "malformed .cnnd project file").WithCause(err)
	}

	networks := make(map[string]*network.NodeNetwork, len(proj.Networks))
	for _, cn := range proj.Networks {
		net := network.NewNodeNetwork(cn.Name)
		net.ReturnNodeID = cn.ReturnNodeID
		for _, id := range cn.DisplayedNodeIDs {
			net.DisplayedNodeIDs[id] = struct{}{}
		}

		for _, cnode := range cn.Nodes {
			node := &network.Node{
				ID:           cnode.ID,
				NodeTypeName: cnode.NodeTypeName,
				Position:     types.Vec2{X: cnode.Position[0], Y: cnode.Position[1]},
				CustomName:   cnode.CustomName,
			}
			if err := unmarshalNodeData(node, cnode.Data); err != nil {
				return nil, err
			}
			net.AddNode(node)
		}
		for _, w := range cn.Wires {
			dest, ok := net.Nodes[w.Dest]
			if !ok {
				return nil, errors.New(errors.CodeNodeNotFound,
					fmt.Sprintf("wire destination node %d not found in network %q", w.Dest, cn.Name))
			}
			for len(dest.Arguments) <= w.DestParamIndex {
				dest.Arguments = append(dest.Arguments, network.Argument{})
			}
			dest.Arguments[w.DestParamIndex].Entries = append(dest.Arguments[w.DestParamIndex].Entries,
				network.ArgumentEntry{SourceNodeID: w.Source, OutputPin: network.OutputPin(w.SourceOutputPin)})
		}
		networks[net.Name] = net
	}
	return networks, nil
}

func unmarshalNodeData(node *network.Node, raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	switch node.NodeTypeName {
	case "Expr":
		var d exprNodeData
		if err := json.Unmarshal(raw, &d); err != nil {
			return errors.Wrap(err, errors.CodeExprParseError, "malformed Expr node data")
		}
		// Typecheck against an empty environment: at load time other nodes'
		// Parameter declarations may not be populated yet. NewExprNode's own
		// typecheck may therefore reject a source that is actually valid;
		// the next full Validate() call (triggered by any mutation) is the
		// authoritative check, so fall back to a bare parse here.
		built, err := evaluator.NewExprNode(node.ID, d.Source, expr.TypeEnv{})
		if err != nil {
			tree, perr := expr.Parse(d.Source)
			if perr != nil {
				return errors.Wrap(perr, errors.CodeExprParseError, "failed to reparse Expr node source")
			}
			node.Data = &evaluator.ExprData{Tree: tree, Source: d.Source}
			node.CustomNodeType = &network.NodeType{Name: "Expr", OutputType: network.SimpleType(network.KindFloat)}
			return nil
		}
		node.Data = built.Data
		node.CustomNodeType = built.CustomNodeType
	case "Const":
		var d constNodeData
		if err := json.Unmarshal(raw, &d); err != nil {
			return errors.Wrap(err, errors.CodeGeoNodeInvalid, "malformed Const node data")
		}
		result, err := jsonToResult(d.Value)
		if err != nil {
			return err
		}
		built := evaluator.NewConstNode(node.ID, result)
		node.Data = built.Data
		node.CustomNodeType = built.CustomNodeType
	case "Parameter":
		var d parameterNodeData
		if err := json.Unmarshal(raw, &d); err != nil {
			return errors.Wrap(err, errors.CodeGeoNodeInvalid, "malformed Parameter node data")
		}
		built := evaluator.NewParameterNode(node.ID, d.Name, d.Index, network.SimpleType(network.KindFloat))
		node.Data = built.Data
		node.CustomNodeType = built.CustomNodeType
	}
	return nil
}

// resultToJSON projects the scalar subset of NetworkResult that literal
// (Const) node values can hold into a plain JSON-friendly value.
func resultToJSON(r network.NetworkResult) interface{} {
	switch r.Kind {
	case network.KindBool:
		return r.Bool
	case network.KindString:
		return r.Str
	case network.KindInt:
		return r.Int
	case network.KindFloat:
		return r.Float
	case network.KindVec2:
		return map[string]float64{"x": r.Vec2.X, "y": r.Vec2.Y}
	case network.KindVec3:
		return map[string]float64{"x": r.Vec3.X, "y": r.Vec3.Y, "z": r.Vec3.Z}
	default:
		return nil
	}
}

// jsonToResult is resultToJSON's inverse, used by both `.cnnd` loading and
// SetNodeData's generic request body.
func jsonToResult(raw interface{}) (network.NetworkResult, error) {
	switch v := raw.(type) {
	case bool:
		return network.NewBool(v), nil
	case string:
		return network.NewString(v), nil
	case float64:
		return network.NewFloat(v), nil
	case map[string]interface{}:
		x, hasX := v["x"].(float64)
		y, hasY := v["y"].(float64)
		if z, hasZ := v["z"].(float64); hasZ && hasX && hasY {
			return network.NewVec3(types.Vec3{X: x, Y: y, Z: z}), nil
		}
		if hasX && hasY {
			return network.NewVec2(types.Vec2{X: x, Y: y}), nil
		}
		return network.NetworkResult{}, errors.New(errors.CodeGeoNodeInvalid, "malformed vector literal")
	case nil:
		return network.None(), nil
	default:
		return network.NetworkResult{}, errors.New(errors.CodeGeoNodeInvalid, fmt.Sprintf("unsupported literal value type %T", raw))
	}
}
