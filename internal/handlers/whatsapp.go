package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/gomezmarket/gomezbot-backend/internal/services"
)

// WhatsAppHandler receives Twilio webhooks and a JSON test endpoint, routes
// the message through the chatbot and replies.
type WhatsAppHandler struct {
	chatbot  *services.ChatbotService
	notifier services.Notifier
}

// NewWhatsAppHandler wires the handler. Twilio is optional so the bot can run
// locally against the test endpoint without credentials.
func NewWhatsAppHandler(chatbot *services.ChatbotService) *WhatsAppHandler {
	h := &WhatsAppHandler{chatbot: chatbot}
	twilioSvc, err := services.NewTwilioService()
	if err != nil {
		log.Printf("⚠️  Twilio service not initialized: %v", err)
	} else {
		h.notifier = twilioSvc
	}
	return h
}

// TwilioWebhookPayload is the inbound WhatsApp message form from Twilio.
type TwilioWebhookPayload struct {
	MessageSid string `form:"MessageSid"`
	AccountSid string `form:"AccountSid"`
	From       string `form:"From"` // whatsapp:+584141234567
	To         string `form:"To"`
	Body       string `form:"Body"`
	NumMedia   string `form:"NumMedia"`
}

// HandleWebhook processes one inbound WhatsApp message. Status callbacks
// arrive on the same URL with an empty body and are acknowledged silently.
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	if payload.Body == "" || payload.From == "" {
		return c.SendStatus(fiber.StatusOK)
	}

	log.Printf("📱 WhatsApp message from %s: %s", payload.From, payload.Body)

	response, err := h.chatbot.ProcessMessage(c.UserContext(), payload.From, payload.Body)
	if err != nil {
		log.Printf("Error processing message: %v", err)
		return c.SendStatus(fiber.StatusOK)
	}

	if h.notifier != nil && response != "" {
		if err := h.notifier.SendWhatsAppMessage(payload.From, response); err != nil {
			log.Printf("❌ Failed to send WhatsApp response: %v", err)
		}
	} else {
		log.Printf("📤 Response (not sent - Twilio not configured): %s", response)
	}

	return c.SendStatus(fiber.StatusOK)
}

// TestMessageRequest is the JSON body of the local test endpoint.
type TestMessageRequest struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// HandleTestMessage runs one turn and returns the reply as JSON instead of
// sending it through Twilio.
func (h *WhatsAppHandler) HandleTestMessage(c *fiber.Ctx) error {
	var req TestMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.From == "" || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "from and message are required",
		})
	}

	response, err := h.chatbot.ProcessMessage(c.UserContext(), req.From, req.Message)
	if err != nil {
		log.Printf("Error processing test message: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process message",
		})
	}
	return c.JSON(fiber.Map{
		"from":     req.From,
		"response": response,
	})
}
