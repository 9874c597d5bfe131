package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/halewood/mediasearch/internal/pkg/errcode"
	"github.com/halewood/mediasearch/internal/pkg/response"
)

type HealthHandler struct {
	db *sqlx.DB
}

func NewHealthHandler(db *sqlx.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Liveness answers as long as the process is up.
func (h *HealthHandler) Liveness(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

// Health additionally verifies the index store connection.
func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		response.Error(c, 503, errcode.ErrStoreUnavailable, "index store unreachable")
		return
	}
	response.Success(c, gin.H{"status": "ok"})
}
