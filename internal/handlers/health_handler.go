package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/northgate-advisors/intake-backend/internal/catalog"
	"github.com/northgate-advisors/intake-backend/internal/database"
	"github.com/northgate-advisors/intake-backend/internal/dto"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db      *gorm.DB
	catalog *catalog.Registry
}

func NewHealthHandler(db *gorm.DB, reg *catalog.Registry) *HealthHandler {
	return &HealthHandler{db: db, catalog: reg}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := database.Ping(h.db); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		FormCount: len(h.catalog.All()),
	})
}
