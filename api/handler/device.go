package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orchestron-orchestrator/netcli/internal/client"
	"github.com/orchestron-orchestrator/netcli/internal/driver"
	"github.com/orchestron-orchestrator/netcli/pkg/logger"
)

// DeviceHandler routes the three driver operations and a state observer
// through the client registry, per SPEC_FULL.md §6.7.
type DeviceHandler struct {
	registry *client.Registry
}

// NewDeviceHandler builds a DeviceHandler bound to registry.
func NewDeviceHandler(registry *client.Registry) *DeviceHandler {
	return &DeviceHandler{registry: registry}
}

func (h *DeviceHandler) lookup(c *gin.Context) (*client.Client, bool) {
	name := c.Param("name")
	cl, ok := h.registry.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Code: "DEVICE_NOT_FOUND", Message: "no such device: " + name})
		return nil, false
	}
	return cl, true
}

type commandRequest struct {
	Command string `json:"command" binding:"required"`
}

// ExecuteCommand handles POST /api/v1/devices/:name/command.
func (h *DeviceHandler) ExecuteCommand(c *gin.Context) {
	cl, ok := h.lookup(c)
	if !ok {
		return
	}

	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: "INVALID_PARAMS", Message: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	response, err := cl.ExecuteCommand(ctx, req.Command)
	if err != nil {
		writeOperationError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: "SUCCESS", Data: gin.H{"response": response}})
}

type configureRequest struct {
	Commands []string `json:"commands" binding:"required"`
}

// Configure handles POST /api/v1/devices/:name/configure.
func (h *DeviceHandler) Configure(c *gin.Context) {
	cl, ok := h.lookup(c)
	if !ok {
		return
	}

	var req configureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: "INVALID_PARAMS", Message: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 120*time.Second)
	defer cancel()

	sessionLog, err := cl.ConfigureAndCommit(ctx, req.Commands)
	if err != nil {
		writeOperationError(c, err, sessionLog)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: "SUCCESS", Data: gin.H{"session_log": sessionLog}})
}

type rollbackRequest struct {
	CommitsBack int `json:"commits_back" binding:"required"`
}

// Rollback handles POST /api/v1/devices/:name/rollback.
func (h *DeviceHandler) Rollback(c *gin.Context) {
	cl, ok := h.lookup(c)
	if !ok {
		return
	}

	var req rollbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: "INVALID_PARAMS", Message: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 120*time.Second)
	defer cancel()

	sessionLog, err := cl.RollbackConfiguration(ctx, req.CommitsBack)
	if err != nil {
		writeOperationError(c, err, sessionLog)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: "SUCCESS", Data: gin.H{"session_log": sessionLog}})
}

// State handles GET /api/v1/devices/:name/state.
func (h *DeviceHandler) State(c *gin.Context) {
	cl, ok := h.lookup(c)
	if !ok {
		return
	}
	state, info := cl.State()
	c.JSON(http.StatusOK, SuccessResponse{Code: "SUCCESS", Data: gin.H{
		"state":       state.String(),
		"device_kind": info.DeviceKind.String(),
		"vendor":      info.Vendor,
		"os":          info.OS,
	}})
}

// writeOperationError maps a driver error to the status codes fixed by
// SPEC_FULL.md §7: a precondition (not-ready) violation is always 409,
// regardless of which operation hit it; anything else observed by the
// driver (commit failure, transport failure) is 502. In addition, a
// context deadline is 504. sessionLog, when non-empty, is attached so a caller can see the
// partial transcript of a failed configure/rollback.
func writeOperationError(c *gin.Context, err error, sessionLog string) {
	if err == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Code: "TIMEOUT", Message: err.Error(), SessionLog: sessionLog})
		return
	}
	if isNotReadyError(err) {
		logger.WithField("device", c.Param("name")).WithError(err).Warn("device not ready for operation")
		c.JSON(http.StatusConflict, ErrorResponse{Code: "NOT_READY", Message: err.Error(), SessionLog: sessionLog})
		return
	}
	c.JSON(http.StatusBadGateway, ErrorResponse{Code: "DEVICE_ERROR", Message: err.Error(), SessionLog: sessionLog})
}

func isNotReadyError(err error) bool {
	_, ok := driver.AsNotReadyError(err)
	return ok
}
