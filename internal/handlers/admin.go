package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/gomezmarket/gomezbot-backend/internal/services"
	"github.com/gomezmarket/gomezbot-backend/internal/storage"
	"github.com/gomezmarket/gomezbot-backend/internal/utils"
)

// AdminHandler is the read-only operator surface over sessions, transcripts
// and search history.
type AdminHandler struct {
	store    storage.Store
	sessions *services.SessionService
}

func NewAdminHandler(store storage.Store, sessions *services.SessionService) *AdminHandler {
	return &AdminHandler{store: store, sessions: sessions}
}

// GetSessionStats reports aggregate session counts.
func (h *AdminHandler) GetSessionStats(c *fiber.Ctx) error {
	active, err := h.sessions.ActiveCount()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to count sessions",
		})
	}
	return c.JSON(fiber.Map{
		"active_sessions": active,
	})
}

// GetSession returns one sender's session.
func (h *AdminHandler) GetSession(c *fiber.Ctx) error {
	phone := utils.NormalizePhone(c.Params("phone"))
	session, err := h.store.FindSession(phone)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}
	return c.JSON(session)
}

// GetMessages returns a sender's transcript, newest first.
func (h *AdminHandler) GetMessages(c *fiber.Ctx) error {
	phone := utils.NormalizePhone(c.Params("phone"))
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	messages, err := h.store.GetMessages(phone, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch messages",
		})
	}
	return c.JSON(fiber.Map{
		"phone":    phone,
		"count":    len(messages),
		"messages": messages,
	})
}

// GetSearches returns a sender's recent search history.
func (h *AdminHandler) GetSearches(c *fiber.Ctx) error {
	phone := utils.NormalizePhone(c.Params("phone"))
	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	searches, err := h.store.GetRecentSearches(phone, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch searches",
		})
	}
	return c.JSON(fiber.Map{
		"phone":    phone,
		"count":    len(searches),
		"searches": searches,
	})
}

// GetCart returns a sender's active cart lines.
func (h *AdminHandler) GetCart(c *fiber.Ctx) error {
	phone := utils.NormalizePhone(c.Params("phone"))
	items, err := h.store.GetActiveCartItems(phone)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch cart",
		})
	}
	return c.JSON(fiber.Map{
		"phone": phone,
		"count": len(items),
		"items": items,
	})
}
