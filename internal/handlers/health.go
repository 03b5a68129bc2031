package handlers

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// HealthHandler reports service status: both database connections and
// whether Twilio is configured.
type HealthHandler struct {
	Version  string
	BotDB    *gorm.DB
	ValeryDB *gorm.DB
}

func NewHealthHandler(version string, botDB, valeryDB *gorm.DB) *HealthHandler {
	return &HealthHandler{Version: version, BotDB: botDB, ValeryDB: valeryDB}
}

func dbStatus(db *gorm.DB) string {
	if db == nil {
		return "memory"
	}
	sqlDB, err := db.DB()
	if err != nil {
		return "error: " + err.Error()
	}
	if err := sqlDB.Ping(); err != nil {
		return "error: " + err.Error()
	}
	return "connected"
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "OK",
		"service": "GomezBot Backend",
		"version": h.Version,
		"database": fiber.Map{
			"bot":    dbStatus(h.BotDB),
			"valery": dbStatus(h.ValeryDB),
		},
		"twilio": fiber.Map{
			"configured": os.Getenv("TWILIO_ACCOUNT_SID") != "",
		},
	})
}
