package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/gomezmarket/gomezbot-backend/internal/handlers"
	"github.com/gomezmarket/gomezbot-backend/internal/middleware"
	"github.com/gomezmarket/gomezbot-backend/internal/services"
	"github.com/gomezmarket/gomezbot-backend/internal/storage"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, store storage.Store, chatbot *services.ChatbotService, sessions *services.SessionService, botDB, valeryDB *gorm.DB) {
	whatsapp := handlers.NewWhatsAppHandler(chatbot)
	admin := handlers.NewAdminHandler(store, sessions)
	health := handlers.NewHealthHandler("1.0.0", botDB, valeryDB)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to GomezBot Backend!",
			"version": "1.0.0",
			"endpoints": fiber.Map{
				"health":        "/health",
				"webhook":       "/webhook/whatsapp",
				"test_whatsapp": "/test/whatsapp",
				"sessions":      "/api/sessions",
			},
		})
	})

	app.Get("/health", health.Check)

	// Twilio posts inbound WhatsApp messages here. Signature validation is
	// skipped in development so ngrok tunnels work.
	webhooks := app.Group("/webhook")
	if os.Getenv("ENVIRONMENT") == "development" || os.Getenv("DISABLE_WEBHOOK_VALIDATION") == "true" {
		log.Println("⚠️ WhatsApp webhook signature validation DISABLED")
		webhooks.Post("/whatsapp", whatsapp.HandleWebhook)
	} else {
		webhooks.Post("/whatsapp", middleware.ValidateTwilioSignature(), whatsapp.HandleWebhook)
	}

	// Local testing without Twilio.
	app.Post("/test/whatsapp", whatsapp.HandleTestMessage)

	// Read-only operator surface.
	api := app.Group("/api")
	api.Get("/sessions", admin.GetSessionStats)
	api.Get("/sessions/:phone", admin.GetSession)
	api.Get("/sessions/:phone/messages", admin.GetMessages)
	api.Get("/sessions/:phone/searches", admin.GetSearches)
	api.Get("/sessions/:phone/cart", admin.GetCart)
}
