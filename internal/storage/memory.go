package storage

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gomezmarket/gomezbot-backend/internal/models"
)

// MemoryStore holds all bot state in memory. Used for tests and local runs
// with USE_MEMORY_STORE=true.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]*models.Session
	messages  []*models.ChatMessage
	searches  []*models.SearchHistory
	cartItems []*models.CartItem
	nextID    uint
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*models.Session),
	}
}

func (m *MemoryStore) nextRecordID() uint {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) FindSession(phone string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[phone]
	if !exists || session.Status == models.SessionEnded {
		return nil, ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (m *MemoryStore) SaveSession(session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session.ID == 0 {
		session.ID = m.nextRecordID()
		session.CreatedAt = time.Now()
	}
	session.UpdatedAt = time.Now()
	copied := *session
	m.sessions[session.PhoneNumber] = &copied
	return nil
}

func (m *MemoryStore) MarkInactiveSessions(cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var affected int64
	for _, session := range m.sessions {
		if session.Status == models.SessionActive && session.LastActivity.Before(cutoff) {
			session.Status = models.SessionInactive
			affected++
		}
	}
	return affected, nil
}

func (m *MemoryStore) CountActiveSessions() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, session := range m.sessions {
		if session.Status == models.SessionActive {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) SaveMessage(message *models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	message.ID = m.nextRecordID()
	message.CreatedAt = time.Now()
	copied := *message
	m.messages = append(m.messages, &copied)
	return nil
}

func (m *MemoryStore) GetMessages(phone string, limit int) ([]*models.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.ChatMessage
	for i := len(m.messages) - 1; i >= 0 && len(out) < limit; i-- {
		if m.messages[i].PhoneNumber == phone {
			copied := *m.messages[i]
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MemoryStore) SaveSearch(record *models.SearchHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record.ID = m.nextRecordID()
	record.CreatedAt = time.Now()
	copied := *record
	m.searches = append(m.searches, &copied)
	return nil
}

func (m *MemoryStore) GetRecentSearches(phone string, limit int) ([]*models.SearchHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.SearchHistory
	for i := len(m.searches) - 1; i >= 0 && len(out) < limit; i-- {
		if m.searches[i].PhoneNumber == phone {
			copied := *m.searches[i]
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MemoryStore) GetSearchSuggestions(phone, firstToken string, limit int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	token := strings.ToLower(firstToken)
	seen := make(map[string]bool)
	var out []string
	for i := len(m.searches) - 1; i >= 0 && len(out) < limit; i-- {
		record := m.searches[i]
		if record.PhoneNumber != phone || !record.HasResults {
			continue
		}
		if !strings.Contains(strings.ToLower(record.OriginalSearchTerm), token) {
			continue
		}
		if seen[record.OriginalSearchTerm] {
			continue
		}
		seen[record.OriginalSearchTerm] = true
		out = append(out, record.OriginalSearchTerm)
	}
	return out, nil
}

func (m *MemoryStore) GetActiveCartItems(phone string) ([]*models.CartItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.CartItem
	for _, item := range m.cartItems {
		if item.PhoneNumber == phone && item.Status == models.CartItemActive {
			copied := *item
			out = append(out, &copied)
		}
	}
	// newest first, matching the database ordering
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MemoryStore) FindActiveCartItem(phone, productCode string) (*models.CartItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, item := range m.cartItems {
		if item.PhoneNumber == phone && item.ProductCode == productCode && item.Status == models.CartItemActive {
			copied := *item
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) SaveCartItem(item *models.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if item.ID == 0 {
		item.ID = m.nextRecordID()
		item.CreatedAt = time.Now()
	}
	item.UpdatedAt = time.Now()
	for i, existing := range m.cartItems {
		if existing.ID == item.ID {
			copied := *item
			m.cartItems[i] = &copied
			return nil
		}
	}
	copied := *item
	m.cartItems = append(m.cartItems, &copied)
	return nil
}

func (m *MemoryStore) DeleteCartItem(item *models.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.cartItems {
		if existing.ID == item.ID {
			m.cartItems = append(m.cartItems[:i], m.cartItems[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) ClearCart(phone string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var affected int64
	for _, item := range m.cartItems {
		if item.PhoneNumber == phone && item.Status == models.CartItemActive {
			item.Status = models.CartItemCleared
			affected++
		}
	}
	return affected, nil
}
