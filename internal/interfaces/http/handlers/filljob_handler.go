package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/latticeforge/kernel/internal/application/filljob"
	"github.com/latticeforge/kernel/pkg/errors"
)

// FillJobHandler exposes filljob.Service over the §4.5-EXP asynchronous
// AtomFill job surface, backing pkg/client's FillJobsClient.
type FillJobHandler struct {
	svc *filljob.Service
}

// NewFillJobHandler constructs a FillJobHandler backed by svc.
func NewFillJobHandler(svc *filljob.Service) *FillJobHandler {
	return &FillJobHandler{svc: svc}
}

type submitFillJobRequest struct {
	NetworkName string `json:"network_name" binding:"required"`
	NodeID      uint64 `json:"node_id"`
}

type fillJobResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	ResultURI    string `json:"result_uri,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

func toFillJobResponse(job *filljob.Job) fillJobResponse {
	return fillJobResponse{
		ID:           job.ID,
		Status:       string(job.Status),
		ResultURI:    job.ResultURI,
		ErrorMessage: job.ErrorMessage,
	}
}

// Submit handles POST /fill-jobs.
func (h *FillJobHandler) Submit(c *gin.Context) {
	var req submitFillJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, errors.New(errors.CodeInvalidParam, "invalid request body"))
		return
	}
	job, err := h.svc.Submit(c.Request.Context(), req.NetworkName, req.NodeID)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, toFillJobResponse(job))
}

// Get handles GET /fill-jobs/:id.
func (h *FillJobHandler) Get(c *gin.Context) {
	job, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFillJobResponse(job))
}
