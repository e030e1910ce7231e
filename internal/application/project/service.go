// Package project is the application-level service sitting between the
// host-UI bridge transports (internal/interfaces/http, internal/interfaces/grpc,
// internal/interfaces/cli) and the kernel's domain packages. It owns the set
// of live NodeNetworks, the shared node-type Registry, and the project
// persistence boundary, following the teacher's application/<domain>/service.go
// shape (Service interface + plain input/output structs) adapted from
// internal/application/molecule/service.go.
package project

import (
	"context"
	"sync"

	"github.com/latticeforge/kernel/internal/domain/atomic"
	"github.com/latticeforge/kernel/internal/domain/evaluator"
	"github.com/latticeforge/kernel/internal/domain/expr"
	"github.com/latticeforge/kernel/internal/domain/network"
	"github.com/latticeforge/kernel/internal/infrastructure/monitoring/logging"
	"github.com/latticeforge/kernel/pkg/errors"
	"github.com/latticeforge/kernel/pkg/types"
)

// Repository persists a project's serialized node-network state (the `.cnnd`
// JSON tree, spec.md §6) keyed by project name.
type Repository interface {
	SaveProject(ctx context.Context, name string, cnnd []byte) error
	LoadProject(ctx context.Context, name string) ([]byte, error)
}

// GraphMirror keeps an out-of-process property-graph view of a network's
// node/wire topology in sync with the live in-memory one (§6-EXP), so
// traversal queries never need to reach into a Service's guarded map. It is
// optional: a Service with no mirror attached behaves exactly as before.
type GraphMirror interface {
	MirrorNetwork(ctx context.Context, net *network.NodeNetwork) error
	DeleteNetwork(ctx context.Context, name string) error
}

// Service implements every operation behind the §6-EXP host-UI bridge: view,
// node/wire mutation, selection, per-node data, and project save/load. One
// Service instance is shared by the HTTP router, the gRPC server, and the CLI
// so all three transports see the same live networks.
type Service struct {
	mu       sync.RWMutex
	registry *network.Registry
	networks map[string]*network.NodeNetwork
	repo     Repository
	log      logging.Logger
	mirror   GraphMirror
}

// NewService constructs a Service with the default builtin node registry and
// an empty network set.
func NewService(repo Repository, log logging.Logger) *Service {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Service{
		registry: evaluator.NewDefaultRegistry(),
		networks: make(map[string]*network.NodeNetwork),
		repo:     repo,
		log:      log,
	}
}

// WithGraphMirror attaches a GraphMirror, returning the same Service for
// chaining at construction time. Every subsequent topology mutation is
// best-effort replicated to it; a mirror failure is logged, never returned
// to the caller, since the authoritative state is always the in-memory
// NodeNetwork.
func (s *Service) WithGraphMirror(m GraphMirror) *Service {
	s.mirror = m
	return s
}

// mirrorTopology pushes net's current node/wire topology to the attached
// GraphMirror, if any. Called with s.mu already held by the mutating method.
func (s *Service) mirrorTopology(ctx context.Context, net *network.NodeNetwork) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.MirrorNetwork(ctx, net); err != nil {
		s.log.Warn("graph mirror update failed",
			logging.String("network", net.Name), logging.Err(err))
	}
}

// networkOrCreate returns the named network, creating an empty one on first
// reference — the host UI addresses networks by name and expects the first
// mutating call against an unseen name to implicitly open it.
func (s *Service) networkOrCreate(name string) *network.NodeNetwork {
	net, ok := s.networks[name]
	if !ok {
		net = network.NewNodeNetwork(name)
		s.networks[name] = net
	}
	return net
}

func (s *Service) network(name string) (*network.NodeNetwork, error) {
	net, ok := s.networks[name]
	if !ok {
		return nil, errors.New(errors.CodeNodeNotFound, "no such network: "+name)
	}
	return net, nil
}

// validateAndEvaluate re-runs §4.1's static validation pass and, if the
// network declares a return node, evaluates it — matching "every mutating
// call triggers a re-evaluation" (SPEC_FULL.md §6-EXP). The returned bool/
// string pair is the `{success, error_message}` shape every mutating HTTP
// handler responds with.
func (s *Service) validateAndEvaluate(net *network.NodeNetwork) (bool, string) {
	evaluator.Validate(net, s.registry, s.networks)
	if len(net.ValidationErrors) > 0 {
		return false, firstValidationError(net)
	}
	if net.ReturnNodeID == nil {
		return true, ""
	}
	ec := evaluator.NewEvaluationContext(s.registry, s.networks)
	result := evaluator.Evaluate(ec, net.Name, *net.ReturnNodeID)
	if result.IsError() {
		return false, result.Error
	}
	return true, ""
}

func firstValidationError(net *network.NodeNetwork) string {
	for _, msg := range net.ValidationErrors {
		return msg
	}
	return "validation failed"
}

// clearInputCaches invalidates every AtomEdit node's input_cache in net, per
// spec.md §4.6 "clear_input_cache is called whenever any upstream node is
// mutated, so the next AtomEdit evaluation re-fetches." Mutation call sites
// invalidate the whole network's AtomEdit caches rather than tracing exact
// wire-reachability from the mutated node: a false invalidation just costs
// one extra re-fetch, whereas a missed one would let an AtomEdit node
// silently evaluate against upstream content that no longer exists.
func (s *Service) clearInputCaches(net *network.NodeNetwork) {
	for _, node := range net.Nodes {
		if data, ok := node.Data.(*evaluator.EditorData); ok && data.Editor != nil {
			data.Editor.ClearInputCache()
		}
	}
}

// NetworkView is the read model behind GET /networks/:name/view.
type NetworkView struct {
	Name         string
	Nodes        []NodeView
	Wires        []WireView
	Success      bool
	ErrorMessage string
}

// NodeView describes one node's placement and type for the view endpoint.
type NodeView struct {
	ID       uint64
	TypeName string
	X, Y     float64
}

// WireView describes one argument connection for the view endpoint.
type WireView struct {
	FromNodeID uint64
	ToNodeID   uint64
	ArgName    string
}

// ViewNetwork renders name's current node/wire layout and evaluation status,
// re-validating first so ErrorMessage always reflects the live state.
func (s *Service) ViewNetwork(ctx context.Context, name string) (*NetworkView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	net, err := s.network(name)
	if err != nil {
		return nil, err
	}
	success, errMsg := s.validateAndEvaluate(net)

	view := &NetworkView{Name: net.Name, Success: success, ErrorMessage: errMsg}
	for id, node := range net.Nodes {
		view.Nodes = append(view.Nodes, NodeView{
			ID: id, TypeName: node.NodeTypeName, X: node.Position.X, Y: node.Position.Y,
		})
		nt, _ := node.EffectiveNodeType(s.registry)
		for pi, arg := range node.Arguments {
			var argName string
			if pi < len(nt.Parameters) {
				argName = nt.Parameters[pi].Name
			}
			for _, entry := range arg.Entries {
				view.Wires = append(view.Wires, WireView{
					FromNodeID: entry.SourceNodeID, ToNodeID: id, ArgName: argName,
				})
			}
		}
	}
	return view, nil
}

// MoveNode repositions a node; spec.md treats this as a pure layout change
// with no re-validation or re-evaluation.
func (s *Service) MoveNode(ctx context.Context, networkName string, nodeID uint64, x, y float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	net, err := s.network(networkName)
	if err != nil {
		return err
	}
	node, ok := net.Nodes[nodeID]
	if !ok {
		return errors.New(errors.CodeNodeNotFound, "no such node in network")
	}
	node.Position = types.Vec2{X: x, Y: y}
	s.mirrorTopology(ctx, net)
	return nil
}

// AddNodeResult is the outcome of CreateNode: the new node's id plus the
// standard mutation response.
type AddNodeResult struct {
	NodeID       uint64
	Success      bool
	ErrorMessage string
}

// CreateNode inserts a node of typeName into networkName at (x, y). Builtin
// registry types are used as-is; the three dynamically-typed kinds (Expr,
// Parameter, Const) are given harmless defaults that SetNodeData then
// refines, matching how the text edit language builds them up incrementally
// (§4.7).
func (s *Service) CreateNode(ctx context.Context, networkName, typeName string, x, y float64) (*AddNodeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	net := s.networkOrCreate(networkName)

	var node *network.Node
	switch typeName {
	case "Expr":
		n, err := evaluator.NewExprNode(0, "0", s.paramEnv(net))
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeExprParseError, "failed to create default Expr node")
		}
		node = n
	case "Parameter":
		node = evaluator.NewParameterNode(0, "", 0, network.SimpleType(network.KindFloat))
	case "Const":
		node = evaluator.NewConstNode(0, network.NewFloat(0))
	default:
		if _, ok := s.registry.Lookup(typeName); !ok {
			if _, ok := s.networks[typeName]; !ok {
				return nil, errors.New(errors.CodeUnknownNodeType, "unknown node type: "+typeName)
			}
		}
		node = &network.Node{NodeTypeName: typeName}
	}
	node.Position = types.Vec2{X: x, Y: y}
	id := net.AddNode(node)

	s.clearInputCaches(net)
	success, errMsg := s.validateAndEvaluate(net)
	s.mirrorTopology(ctx, net)
	return &AddNodeResult{NodeID: id, Success: success, ErrorMessage: errMsg}, nil
}

func (s *Service) paramEnv(net *network.NodeNetwork) expr.TypeEnv {
	env := make(expr.TypeEnv)
	for _, p := range evaluator.ParametersOf(net) {
		pd := p.Data.(*evaluator.ParameterData)
		env[pd.Name] = pd.DataType
	}
	return env
}

// CreateWire connects fromNodeID's normal output to toNodeID's argName
// parameter, appending to any existing entries if the parameter is
// multi-input (§3 Argument).
func (s *Service) CreateWire(ctx context.Context, networkName string, fromNodeID, toNodeID uint64, argName string) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	net, err := s.network(networkName)
	if err != nil {
		return false, "", err
	}
	if _, ok := net.Nodes[fromNodeID]; !ok {
		return false, "", errors.New(errors.CodeNodeNotFound, "source node not found")
	}
	dest, ok := net.Nodes[toNodeID]
	if !ok {
		return false, "", errors.New(errors.CodeNodeNotFound, "destination node not found")
	}
	nt, ok := dest.EffectiveNodeType(s.registry)
	if !ok {
		return false, "", errors.New(errors.CodeUnknownNodeType, "destination node has no resolvable type")
	}
	paramIndex := -1
	for i, p := range nt.Parameters {
		if p.Name == argName {
			paramIndex = i
			break
		}
	}
	if paramIndex < 0 {
		return false, "", errors.New(errors.CodeInvalidParam, "no such parameter: "+argName)
	}
	for len(dest.Arguments) <= paramIndex {
		dest.Arguments = append(dest.Arguments, network.Argument{})
	}
	entry := network.ArgumentEntry{SourceNodeID: fromNodeID, OutputPin: network.NormalOutputPin}
	if nt.Parameters[paramIndex].Multi {
		dest.Arguments[paramIndex].Entries = append(dest.Arguments[paramIndex].Entries, entry)
	} else {
		dest.Arguments[paramIndex].Entries = []network.ArgumentEntry{entry}
	}

	s.clearInputCaches(net)
	success, errMsg := s.validateAndEvaluate(net)
	s.mirrorTopology(ctx, net)
	return success, errMsg, nil
}

// Select replaces networkName's selected-node set with nodeIDs.
func (s *Service) Select(ctx context.Context, networkName string, nodeIDs []uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	net, err := s.network(networkName)
	if err != nil {
		return err
	}
	net.SelectedNodeIDs = make(map[uint64]struct{}, len(nodeIDs))
	for _, id := range nodeIDs {
		net.SelectedNodeIDs[id] = struct{}{}
	}
	return nil
}

// DeleteSelection removes every currently-selected node from networkName,
// per spec.md §9's "delete name" semantics (stripping incident wires too via
// NodeNetwork.DeleteNode), then re-validates.
func (s *Service) DeleteSelection(ctx context.Context, networkName string) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	net, err := s.network(networkName)
	if err != nil {
		return false, "", err
	}
	for id := range net.SelectedNodeIDs {
		net.DeleteNode(id)
	}
	net.SelectedNodeIDs = make(map[uint64]struct{})
	net.SelectedWires = make(map[network.WireRef]struct{})

	s.clearInputCaches(net)
	success, errMsg := s.validateAndEvaluate(net)
	s.mirrorTopology(ctx, net)
	return success, errMsg, nil
}

// NodeDataView is the generic, JSON-friendly projection of a node's literal/
// custom-name payload returned by GetNodeData.
type NodeDataView struct {
	NodeID     uint64
	CustomName string
	Expr       string
	Value      interface{}
}

// GetNodeData reads back a node's custom name plus whatever literal payload
// its NodeData kind carries.
func (s *Service) GetNodeData(ctx context.Context, networkName string, nodeID uint64) (*NodeDataView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	net, err := s.network(networkName)
	if err != nil {
		return nil, err
	}
	node, ok := net.Nodes[nodeID]
	if !ok {
		return nil, errors.New(errors.CodeNodeNotFound, "no such node in network")
	}
	view := &NodeDataView{NodeID: nodeID}
	if node.CustomName != nil {
		view.CustomName = *node.CustomName
	}
	switch data := node.Data.(type) {
	case *evaluator.ExprData:
		view.Expr = data.Source
	case *evaluator.ConstData:
		view.Value = resultToJSON(data.Value)
	}
	return view, nil
}

// SetNodeData overwrites a node's custom name and/or literal payload from a
// generic JSON-decoded map (the HTTP/gRPC request body), then re-validates.
func (s *Service) SetNodeData(ctx context.Context, networkName string, nodeID uint64, data map[string]interface{}) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	net, err := s.network(networkName)
	if err != nil {
		return false, "", err
	}
	node, ok := net.Nodes[nodeID]
	if !ok {
		return false, "", errors.New(errors.CodeNodeNotFound, "no such node in network")
	}

	if name, ok := data["custom_name"].(string); ok {
		node.CustomName = &name
	}
	if src, ok := data["expr"].(string); ok {
		if _, isExpr := node.Data.(*evaluator.ExprData); isExpr {
			updated, err := evaluator.NewExprNode(nodeID, src, s.paramEnv(net))
			if err != nil {
				return false, "", errors.Wrap(err, errors.CodeExprParseError, "failed to update Expr node")
			}
			node.Data = updated.Data
			node.CustomNodeType = updated.CustomNodeType
		}
	}
	if raw, ok := data["value"]; ok {
		if _, isConst := node.Data.(*evaluator.ConstData); isConst {
			result, err := jsonToResult(raw)
			if err != nil {
				return false, "", err
			}
			updated := evaluator.NewConstNode(nodeID, result)
			node.Data = updated.Data
			node.CustomNodeType = updated.CustomNodeType
		}
	}

	s.clearInputCaches(net)
	success, errMsg := s.validateAndEvaluate(net)
	return success, errMsg, nil
}

// EvaluateAtomic runs full evaluation of nodeID in networkName and returns
// its AtomicStructure result. It is the entry point the asynchronous
// AtomFill job worker uses (SPEC_FULL.md §4.5-EXP) to re-run an AtomFill
// node off the interactive thread: unlike validateAndEvaluate, which only
// reports pass/fail for the network's declared return node, this evaluates
// an arbitrary node id and hands back the structural result itself.
func (s *Service) EvaluateAtomic(ctx context.Context, networkName string, nodeID uint64) (*atomic.AtomicStructure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	net, err := s.network(networkName)
	if err != nil {
		return nil, err
	}
	if _, ok := net.Nodes[nodeID]; !ok {
		return nil, errors.New(errors.CodeNodeNotFound, "no such node in network")
	}

	evaluator.Validate(net, s.registry, s.networks)
	if len(net.ValidationErrors) > 0 {
		return nil, errors.New(errors.CodeFillJobFailed, firstValidationError(net))
	}

	ec := evaluator.NewEvaluationContext(s.registry, s.networks)
	result := evaluator.Evaluate(ec, networkName, nodeID)
	if result.IsError() {
		return nil, errors.New(errors.CodeFillJobFailed, result.Error)
	}
	if result.Kind != network.KindAtomic {
		return nil, errors.New(errors.CodeFillJobFailed, "node does not produce an atomic structure")
	}
	structure, ok := result.Atomic.(*atomic.AtomicStructure)
	if !ok || structure == nil {
		return nil, errors.New(errors.CodeFillJobFailed, "atomic result is empty")
	}
	return structure, nil
}

// SaveProject serializes every live network into the `.cnnd` JSON tree and
// hands it to the Repository under name.
func (s *Service) SaveProject(ctx context.Context, name string) error {
	s.mu.RLock()
	cnnd, err := MarshalProject(name, s.networks)
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	if err := s.repo.SaveProject(ctx, name, cnnd); err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "failed to save project")
	}
	return nil
}

// LoadProject replaces the live network set with the one stored under name.
func (s *Service) LoadProject(ctx context.Context, name string) error {
	cnnd, err := s.repo.LoadProject(ctx, name)
	if err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "failed to load project")
	}
	networks, err := UnmarshalProject(cnnd)
	if err != nil {
		return err
	}
	for _, net := range networks {
		if net.HasCycle() {
			return errors.New(errors.CodeCyclicNetwork, "loaded project network "+net.Name+" contains a cycle")
		}
	}

	s.mu.Lock()
	s.networks = networks
	for _, net := range networks {
		s.mirrorTopology(ctx, net)
	}
	s.mu.Unlock()
	return nil
}
