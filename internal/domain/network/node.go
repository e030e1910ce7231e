package network

import "github.com/latticeforge/kernel/pkg/types"

// OutputPin identifies which output of a source node an Argument draws
// from. Pin 0 is the node's normal value output; pin -1 requests a Closure
// over the node instead of its evaluated value (the "function pin").
type OutputPin int32

const (
	NormalOutputPin   OutputPin = 0
	FunctionOutputPin OutputPin = -1
)

// ArgumentEntry is one wire endpoint feeding a parameter: the id of the
// source node and which of its outputs to draw from.
type ArgumentEntry struct {
	SourceNodeID uint64
	OutputPin    OutputPin
}

// Argument is the ordered set of wires feeding a single parameter slot.
// Single-input parameters hold at most one entry; multi-input (array)
// parameters accumulate several.
type Argument struct {
	Entries []ArgumentEntry
}

// NodeData is the per-kind mutable state a Node carries (e.g. an Expr
// AST, an AtomEdit diff, a literal constant). Every concrete node-data type
// across network/expr/fill/edit implements this so the evaluator can treat
// nodes uniformly, per spec.md §9's "dynamic dispatch over node kinds" note.
type NodeData interface {
	// NodeTypeName returns the registry key this data's owning node was
	// constructed from.
	NodeTypeName() string
}

// Node is one vertex of a NodeNetwork.
type Node struct {
	ID              uint64
	NodeTypeName    string
	Position        types.Vec2
	Arguments       []Argument
	Data            NodeData
	CustomName      *string
	CustomNodeType  *NodeType
}

// Parameter declares one input slot of a NodeType.
type Parameter struct {
	Name     string
	DataType DataType
	// Multi marks an array-valued (multi-input) parameter: it may receive
	// more than one wire and values are collected into a NetworkResult array.
	Multi bool
}

// EvalFunc is the per-kind evaluation body. args are already type-converted
// to the declared parameter types. evalCtx is the evaluator's
// *EvaluationContext (typed interface{} here to avoid an import cycle); nodes
// whose behavior itself recurses (custom-node invocation, closures) use it to
// call back into the evaluator.
type EvalFunc func(node *Node, args []NetworkResult, evalCtx interface{}) (NetworkResult, error)

// NodeType is the declarative schema for one kind of node: its parameters,
// output type, and behavior. Some nodes (Expr, Parameter, user-defined
// custom networks) produce a *dynamic* NodeType cached on the Node as
// CustomNodeType rather than looked up from the registry.
type NodeType struct {
	Name       string
	Category   string
	Parameters []Parameter
	OutputType DataType
	Eval       EvalFunc
}

// NodeNetwork is a named DAG of Nodes.
type NodeNetwork struct {
	Name             string
	Nodes            map[uint64]*Node
	ReturnNodeID     *uint64
	DisplayedNodeIDs map[uint64]struct{}
	SelectedNodeIDs  map[uint64]struct{}
	SelectedWires    map[WireRef]struct{}
	ValidationErrors map[uint64]string
	nextNodeID       uint64
}

// WireRef identifies one wire for selection purposes: the destination node,
// its parameter index, and the position within that parameter's Argument
// entries (supports multi-input parameters).
type WireRef struct {
	DestNodeID    uint64
	ParamIndex    int
	EntryIndex    int
}

// NewNodeNetwork returns an empty network ready for node insertion.
func NewNodeNetwork(name string) *NodeNetwork {
	return &NodeNetwork{
		Name:             name,
		Nodes:            make(map[uint64]*Node),
		DisplayedNodeIDs: make(map[uint64]struct{}),
		SelectedNodeIDs:  make(map[uint64]struct{}),
		SelectedWires:    make(map[WireRef]struct{}),
		ValidationErrors: make(map[uint64]string),
	}
}

// AddNode inserts node, assigning it a fresh id if ID is zero.
func (n *NodeNetwork) AddNode(node *Node) uint64 {
	if node.ID == 0 {
		n.nextNodeID++
		node.ID = n.nextNodeID
	} else if node.ID > n.nextNodeID {
		n.nextNodeID = node.ID
	}
	n.Nodes[node.ID] = node
	return node.ID
}

// DeleteNode removes a node and strips any Argument entries in other nodes
// that referenced it as a source, matching the text-editor's "delete name"
// semantics (§4.7) which also clears incident wires.
func (n *NodeNetwork) DeleteNode(id uint64) {
	delete(n.Nodes, id)
	delete(n.DisplayedNodeIDs, id)
	delete(n.SelectedNodeIDs, id)
	delete(n.ValidationErrors, id)
	if n.ReturnNodeID != nil && *n.ReturnNodeID == id {
		n.ReturnNodeID = nil
	}
	for _, node := range n.Nodes {
		for ai := range node.Arguments {
			kept := node.Arguments[ai].Entries[:0]
			for _, e := range node.Arguments[ai].Entries {
				if e.SourceNodeID != id {
					kept = append(kept, e)
				}
			}
			node.Arguments[ai].Entries = kept
		}
	}
}

// FindByCustomName returns the node whose CustomName equals name, if any —
// used by the text edit language (§4.7) to resolve forward references and
// re-address existing nodes across edits.
func (n *NodeNetwork) FindByCustomName(name string) *Node {
	for _, node := range n.Nodes {
		if node.CustomName != nil && *node.CustomName == name {
			return node
		}
	}
	return nil
}

// EffectiveNodeType resolves a node's NodeType: its CustomNodeType if
// present (Expr/Parameter/custom-network nodes build one dynamically),
// otherwise a registry lookup by NodeTypeName.
func (n *Node) EffectiveNodeType(reg *Registry) (NodeType, bool) {
	if n.CustomNodeType != nil {
		return *n.CustomNodeType, true
	}
	return reg.Lookup(n.NodeTypeName)
}

// HasCycle reports whether the network's wiring contains a cycle, walked
// via depth-first search over Argument source references. The editor is
// expected to reject edits that would introduce one (spec.md §9 "Cyclic
// references: there are none"); this is the defensive check a loader runs
// on untrusted project files.
func (n *NodeNetwork) HasCycle() bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[uint64]int, len(n.Nodes))
	var visit func(id uint64) bool
	visit = func(id uint64) bool {
		switch color[id] {
		case gray:
			return true
		case black:
			return false
		}
		color[id] = gray
		if node, ok := n.Nodes[id]; ok {
			for _, arg := range node.Arguments {
				for _, e := range arg.Entries {
					if visit(e.SourceNodeID) {
						return true
					}
				}
			}
		}
		color[id] = black
		return false
	}
	for id := range n.Nodes {
		if color[id] == white && visit(id) {
			return true
		}
	}
	return false
}
