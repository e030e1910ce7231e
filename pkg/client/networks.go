package client

import (
	"context"
	"fmt"
)

// NetworksClient wraps the node-network editing surface: view, node/wire
// mutation, selection, and per-node custom data — every mutating call is
// re-validated and (for small networks) re-evaluated server-side before the
// response is returned.
type NetworksClient struct {
	client *Client
}

// NetworkView is the response shape of GET /networks/:name/view: the node
// list, wire list, and the current evaluation status of the network's
// return node.
type NetworkView struct {
	Name         string     `json:"name"`
	Nodes        []NodeView `json:"nodes"`
	Wires        []WireView `json:"wires"`
	Success      bool       `json:"success"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// NodeView describes one node's placement and type.
type NodeView struct {
	ID       uint64  `json:"id"`
	TypeName string  `json:"type_name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// WireView describes one argument connection between two nodes.
type WireView struct {
	FromNodeID uint64 `json:"from_node_id"`
	ToNodeID   uint64 `json:"to_node_id"`
	ArgName    string `json:"arg_name"`
}

// MutationResponse is the `{success, error_message}` shape shared by every
// mutating endpoint.
type MutationResponse struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// View fetches the current node/wire layout and evaluation status of a
// network by name.
func (n *NetworksClient) View(ctx context.Context, name string) (*NetworkView, error) {
	var view NetworkView
	path := fmt.Sprintf("/networks/%s/view", name)
	if err := n.client.get(ctx, path, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// MoveNodeRequest is the body of POST /nodes/move.
type MoveNodeRequest struct {
	Network string  `json:"network"`
	NodeID  uint64  `json:"node_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// MoveNode repositions a node on its sketch plane; no re-evaluation.
func (n *NetworksClient) MoveNode(ctx context.Context, req MoveNodeRequest) (*MutationResponse, error) {
	var resp MutationResponse
	if err := n.client.post(ctx, "/nodes/move", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateNodeRequest is the body of POST /nodes.
type CreateNodeRequest struct {
	Network  string  `json:"network"`
	TypeName string  `json:"type_name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// CreateNodeResponse is the response shape of POST /nodes.
type CreateNodeResponse struct {
	NodeID       uint64 `json:"node_id"`
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// CreateNode adds a new node to the network and re-validates it.
func (n *NetworksClient) CreateNode(ctx context.Context, req CreateNodeRequest) (*CreateNodeResponse, error) {
	var resp CreateNodeResponse
	if err := n.client.post(ctx, "/nodes", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateWireRequest is the body of POST /wires.
type CreateWireRequest struct {
	Network    string `json:"network"`
	FromNodeID uint64 `json:"from_node_id"`
	ToNodeID   uint64 `json:"to_node_id"`
	ArgName    string `json:"arg_name"`
}

// CreateWire connects one node's output to another node's named argument.
func (n *NetworksClient) CreateWire(ctx context.Context, req CreateWireRequest) (*MutationResponse, error) {
	var resp MutationResponse
	if err := n.client.post(ctx, "/wires", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SelectRequest is the body of POST /select.
type SelectRequest struct {
	Network string   `json:"network"`
	NodeIDs []uint64 `json:"node_ids"`
}

// Select replaces the network's selected-node set.
func (n *NetworksClient) Select(ctx context.Context, req SelectRequest) (*MutationResponse, error) {
	var resp MutationResponse
	if err := n.client.post(ctx, "/select", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClearSelection removes the current selection from a network.
func (n *NetworksClient) ClearSelection(ctx context.Context, network string) (*MutationResponse, error) {
	var resp MutationResponse
	path := fmt.Sprintf("/selection?network=%s", network)
	if err := n.client.delete(ctx, path); err != nil {
		return nil, err
	}
	resp.Success = true
	return &resp, nil
}

// SetNodeDataRequest is the body of POST /nodes/:id/data: a generic
// key/value payload merged directly into the node's data by
// project.Service.SetNodeData, so callers set whichever keys apply to the
// node kind being edited ("custom_name", "expr", "value").
type SetNodeDataRequest map[string]interface{}

// SetNodeData overwrites a node's literal/custom-name payload and
// re-validates the network.
func (n *NetworksClient) SetNodeData(ctx context.Context, network string, nodeID uint64, req SetNodeDataRequest) (*MutationResponse, error) {
	var resp MutationResponse
	path := fmt.Sprintf("/nodes/%d/data?network=%s", nodeID, network)
	if err := n.client.post(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// NodeData is the response shape of GET /nodes/:id/data.
type NodeData struct {
	NodeID     uint64      `json:"node_id"`
	CustomName string      `json:"custom_name,omitempty"`
	Expr       string      `json:"expr,omitempty"`
	Value      interface{} `json:"value,omitempty"`
}

// GetNodeData retrieves a node's literal/custom-name payload.
func (n *NetworksClient) GetNodeData(ctx context.Context, network string, nodeID uint64) (*NodeData, error) {
	var data NodeData
	path := fmt.Sprintf("/nodes/%d/data?network=%s", nodeID, network)
	if err := n.client.get(ctx, path, &data); err != nil {
		return nil, err
	}
	return &data, nil
}
