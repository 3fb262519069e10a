package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/orchestron-orchestrator/netcli/internal/database"
	"github.com/orchestron-orchestrator/netcli/internal/model"
	"github.com/orchestron-orchestrator/netcli/pkg/logger"
)

// SessionHandler serves the audit trail built by internal/audit.
type SessionHandler struct{}

// NewSessionHandler builds a SessionHandler.
func NewSessionHandler() *SessionHandler { return &SessionHandler{} }

// List handles GET /api/v1/sessions?device=&operation=&limit=.
func (h *SessionHandler) List(c *gin.Context) {
	device := c.Query("device")
	operation := c.Query("operation")
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		limit = 50
	}

	db := database.GetDB()
	query := db.Model(&model.SessionRecord{}).Order("finished_at DESC").Limit(limit)
	if device != "" {
		query = query.Where("host = ?", device)
	}
	if operation != "" {
		query = query.Where("operation = ?", operation)
	}

	var records []model.SessionRecord
	if err := query.Find(&records).Error; err != nil {
		logger.Error("session: list failed", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "LIST_FAILED", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Code: "SUCCESS", Data: gin.H{"sessions": records}})
}
