package execution

import (
	"log/slog"
	"net/http"

	"nodebridge/internal/common"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the execution domain.
type Handler struct {
	service *Service
}

// NewHandler creates a new execution handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Execute handles POST /api/v1/executions
// Runs the batch synchronously and returns the output items.
func (h *Handler) Execute(c *gin.Context) {
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.Execute(c.Request.Context(), &req)
	if err != nil {
		slog.Error("execution failed",
			"error", err,
			"node", req.Node,
			"resource", req.Resource,
			"operation", req.Operation,
		)
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, resp)
}

// Enqueue handles POST /api/v1/executions/async
// Queues the batch for the worker and returns 202 Accepted.
func (h *Handler) Enqueue(c *gin.Context) {
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.Enqueue(c.Request.Context(), &req)
	if err != nil {
		slog.Error("enqueue execution failed",
			"error", err,
			"node", req.Node,
			"resource", req.Resource,
			"operation", req.Operation,
		)
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusAccepted, resp)
}

// GetExecution handles GET /api/v1/executions/:id
func (h *Handler) GetExecution(c *gin.Context) {
	execLog, err := h.service.GetExecution(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, execLog)
}

// ListExecutions handles GET /api/v1/executions
func (h *Handler) ListExecutions(c *gin.Context) {
	var filter ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid query parameters: "+err.Error())
		return
	}

	resp, err := h.service.ListExecutions(c.Request.Context(), filter)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, resp)
}

// ListNodes handles GET /api/v1/nodes
func (h *Handler) ListNodes(c *gin.Context) {
	common.Success(c, http.StatusOK, gin.H{"nodes": h.service.Nodes()})
}

// LoadOptions handles POST /api/v1/nodes/:node/options/:method
// Populates a selection dropdown from the node's remote API.
func (h *Handler) LoadOptions(c *gin.Context) {
	var req OptionsRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	node, method := c.Param("node"), c.Param("method")
	options, err := h.service.LoadOptions(c.Request.Context(), node, method, &req)
	if err != nil {
		slog.Error("load options failed", "node", node, "method", method, "error", err)
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, gin.H{"options": options})
}

// RegisterRoutes registers execution routes to the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/executions", h.Execute)
	rg.POST("/executions/async", h.Enqueue)
	rg.GET("/executions", h.ListExecutions)
	rg.GET("/executions/:id", h.GetExecution)
	rg.GET("/nodes", h.ListNodes)
	rg.POST("/nodes/:node/options/:method", h.LoadOptions)
}
