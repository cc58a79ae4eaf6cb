package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/sellerstat/sellerstat_api/internal/utils"
)

// HealthHandler reports service liveness.
type HealthHandler struct {
	db *sqlx.DB
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(db *sqlx.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// GetHealth pings the database and reports overall status.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	dbStatus := "up"
	if err := h.db.Ping(); err != nil {
		dbStatus = "down"
	}

	status := 200
	if dbStatus != "up" {
		status = 503
	}
	utils.Success(c, status, "Health check", gin.H{
		"database": dbStatus,
	})
}
