// Package handlers implements the host-UI bridge's HTTP surface (spec.md
// §6, expanded in SPEC_FULL.md §6-EXP). NetworkHandler covers the mutating
// node/wire/selection verbs; ProjectHandler (project_handler.go) covers
// save/load.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/latticeforge/kernel/internal/application/project"
	"github.com/latticeforge/kernel/pkg/errors"
)

// NetworkHandler exposes project.Service's view/node/wire/selection
// operations over HTTP, one method per SPEC_FULL.md §6-EXP verb.
type NetworkHandler struct {
	svc *project.Service
}

// NewNetworkHandler constructs a NetworkHandler backed by svc.
func NewNetworkHandler(svc *project.Service) *NetworkHandler {
	return &NetworkHandler{svc: svc}
}

// mutationResponse is the `{success, error_message}` shape every mutating
// handler in spec.md §6 responds with.
type mutationResponse struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// View handles GET /networks/:name/view.
func (h *NetworkHandler) View(c *gin.Context) {
	view, err := h.svc.ViewNetwork(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type moveNodeRequest struct {
	Network string  `json:"network" binding:"required"`
	NodeID  uint64  `json:"node_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// MoveNode handles POST /nodes/move.
func (h *NetworkHandler) MoveNode(c *gin.Context) {
	var req moveNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, errors.New(errors.CodeInvalidParam, "invalid request body"))
		return
	}
	if err := h.svc.MoveNode(c.Request.Context(), req.Network, req.NodeID, req.X, req.Y); err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, mutationResponse{Success: true})
}

type createNodeRequest struct {
	Network  string  `json:"network" binding:"required"`
	TypeName string  `json:"type_name" binding:"required"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type createNodeResponse struct {
	NodeID       uint64 `json:"node_id"`
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// CreateNode handles POST /nodes.
func (h *NetworkHandler) CreateNode(c *gin.Context) {
	var req createNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, errors.New(errors.CodeInvalidParam, "invalid request body"))
		return
	}
	result, err := h.svc.CreateNode(c.Request.Context(), req.Network, req.TypeName, req.X, req.Y)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, createNodeResponse{
		NodeID: result.NodeID, Success: result.Success, ErrorMessage: result.ErrorMessage,
	})
}

type createWireRequest struct {
	Network    string `json:"network" binding:"required"`
	FromNodeID uint64 `json:"from_node_id"`
	ToNodeID   uint64 `json:"to_node_id"`
	ArgName    string `json:"arg_name" binding:"required"`
}

// CreateWire handles POST /wires.
func (h *NetworkHandler) CreateWire(c *gin.Context) {
	var req createWireRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, errors.New(errors.CodeInvalidParam, "invalid request body"))
		return
	}
	success, errMsg, err := h.svc.CreateWire(c.Request.Context(), req.Network, req.FromNodeID, req.ToNodeID, req.ArgName)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, mutationResponse{Success: success, ErrorMessage: errMsg})
}

type selectRequest struct {
	Network string   `json:"network" binding:"required"`
	NodeIDs []uint64 `json:"node_ids"`
}

// Select handles POST /select.
func (h *NetworkHandler) Select(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, errors.New(errors.CodeInvalidParam, "invalid request body"))
		return
	}
	if err := h.svc.Select(c.Request.Context(), req.Network, req.NodeIDs); err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, mutationResponse{Success: true})
}

// DeleteSelection handles DELETE /selection.
func (h *NetworkHandler) DeleteSelection(c *gin.Context) {
	name := c.Query("network")
	if name == "" {
		writeError(c, http.StatusBadRequest, errors.New(errors.CodeInvalidParam, "network query parameter is required"))
		return
	}
	success, errMsg, err := h.svc.DeleteSelection(c.Request.Context(), name)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, mutationResponse{Success: success, ErrorMessage: errMsg})
}

// GetNodeData handles GET /nodes/:id/data.
func (h *NetworkHandler) GetNodeData(c *gin.Context) {
	nodeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, errors.New(errors.CodeInvalidParam, "invalid node id"))
		return
	}
	view, err := h.svc.GetNodeData(c.Request.Context(), c.Query("network"), nodeID)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SetNodeData handles POST /nodes/:id/data.
func (h *NetworkHandler) SetNodeData(c *gin.Context) {
	nodeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, errors.New(errors.CodeInvalidParam, "invalid node id"))
		return
	}
	var data map[string]interface{}
	if err := c.ShouldBindJSON(&data); err != nil {
		writeError(c, http.StatusBadRequest, errors.New(errors.CodeInvalidParam, "invalid request body"))
		return
	}
	success, errMsg, err := h.svc.SetNodeData(c.Request.Context(), c.Query("network"), nodeID, data)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, mutationResponse{Success: success, ErrorMessage: errMsg})
}
