package storage

import (
	"errors"
	"time"

	"github.com/gomezmarket/gomezbot-backend/internal/models"
)

// ErrNotFound is returned by lookups that come back empty.
var ErrNotFound = errors.New("record not found")

// Store defines persistence for the bot's own state: sessions, transcripts,
// search history and carts. The external Valery catalog lives behind the
// valery package, not here.
type Store interface {
	// Session operations. FindSession returns the latest non-ended session
	// for the sender, whatever its status; SaveSession upserts keyed by
	// phone number.
	FindSession(phone string) (*models.Session, error)
	SaveSession(session *models.Session) error
	MarkInactiveSessions(cutoff time.Time) (int64, error)
	CountActiveSessions() (int64, error)

	// Transcript operations
	SaveMessage(message *models.ChatMessage) error
	GetMessages(phone string, limit int) ([]*models.ChatMessage, error)

	// Search history operations
	SaveSearch(record *models.SearchHistory) error
	GetRecentSearches(phone string, limit int) ([]*models.SearchHistory, error)
	// GetSearchSuggestions returns original terms of prior successful
	// searches whose text contains firstToken, most recent first.
	GetSearchSuggestions(phone, firstToken string, limit int) ([]string, error)

	// Cart operations
	GetActiveCartItems(phone string) ([]*models.CartItem, error)
	FindActiveCartItem(phone, productCode string) (*models.CartItem, error)
	SaveCartItem(item *models.CartItem) error
	DeleteCartItem(item *models.CartItem) error
	ClearCart(phone string) (int64, error)
}
