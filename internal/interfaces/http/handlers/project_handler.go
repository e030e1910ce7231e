package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/latticeforge/kernel/internal/application/project"
	"github.com/latticeforge/kernel/pkg/errors"
)

// ProjectHandler exposes project.Service's save/load operations over HTTP.
type ProjectHandler struct {
	svc *project.Service
}

// NewProjectHandler constructs a ProjectHandler backed by svc.
func NewProjectHandler(svc *project.Service) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

type projectNameRequest struct {
	Name string `json:"name" binding:"required"`
}

// Save handles POST /projects/save.
func (h *ProjectHandler) Save(c *gin.Context) {
	var req projectNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, errors.New(errors.CodeInvalidParam, "invalid request body"))
		return
	}
	if err := h.svc.SaveProject(c.Request.Context(), req.Name); err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, mutationResponse{Success: true})
}

// Load handles POST /projects/load.
func (h *ProjectHandler) Load(c *gin.Context) {
	var req projectNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, errors.New(errors.CodeInvalidParam, "invalid request body"))
		return
	}
	if err := h.svc.LoadProject(c.Request.Context(), req.Name); err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, mutationResponse{Success: true})
}
