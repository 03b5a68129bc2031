package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/gomezmarket/gomezbot-backend/internal/models"
)

// DatabaseStore implements Store backed by the bot's Postgres database.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (s *DatabaseStore) FindSession(phone string) (*models.Session, error) {
	var session models.Session
	err := s.db.Where("phone_number = ? AND status <> ?", phone, models.SessionEnded).
		Order("updated_at DESC").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *DatabaseStore) SaveSession(session *models.Session) error {
	return s.db.Save(session).Error
}

func (s *DatabaseStore) MarkInactiveSessions(cutoff time.Time) (int64, error) {
	result := s.db.Model(&models.Session{}).
		Where("status = ? AND last_activity < ?", models.SessionActive, cutoff).
		Update("status", models.SessionInactive)
	return result.RowsAffected, result.Error
}

func (s *DatabaseStore) CountActiveSessions() (int64, error) {
	var count int64
	err := s.db.Model(&models.Session{}).
		Where("status = ?", models.SessionActive).
		Count(&count).Error
	return count, err
}

func (s *DatabaseStore) SaveMessage(message *models.ChatMessage) error {
	return s.db.Create(message).Error
}

func (s *DatabaseStore) GetMessages(phone string, limit int) ([]*models.ChatMessage, error) {
	var messages []*models.ChatMessage
	err := s.db.Where("phone_number = ?", phone).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (s *DatabaseStore) SaveSearch(record *models.SearchHistory) error {
	return s.db.Create(record).Error
}

func (s *DatabaseStore) GetRecentSearches(phone string, limit int) ([]*models.SearchHistory, error) {
	var records []*models.SearchHistory
	err := s.db.Where("phone_number = ?", phone).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

func (s *DatabaseStore) GetSearchSuggestions(phone, firstToken string, limit int) ([]string, error) {
	var rows []struct {
		Term     string
		LastUsed time.Time
	}
	err := s.db.Model(&models.SearchHistory{}).
		Select("original_search_term AS term, MAX(created_at) AS last_used").
		Where("phone_number = ? AND has_results = true AND original_search_term ILIKE ?",
			phone, "%"+firstToken+"%").
		Group("original_search_term").
		Order("last_used DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	terms := make([]string, 0, len(rows))
	for _, row := range rows {
		terms = append(terms, row.Term)
	}
	return terms, nil
}

func (s *DatabaseStore) GetActiveCartItems(phone string) ([]*models.CartItem, error) {
	var items []*models.CartItem
	err := s.db.Where("phone_number = ? AND status = ?", phone, models.CartItemActive).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

func (s *DatabaseStore) FindActiveCartItem(phone, productCode string) (*models.CartItem, error) {
	var item models.CartItem
	err := s.db.Where("phone_number = ? AND product_code = ? AND status = ?",
		phone, productCode, models.CartItemActive).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *DatabaseStore) SaveCartItem(item *models.CartItem) error {
	return s.db.Save(item).Error
}

func (s *DatabaseStore) DeleteCartItem(item *models.CartItem) error {
	return s.db.Delete(item).Error
}

func (s *DatabaseStore) ClearCart(phone string) (int64, error) {
	result := s.db.Model(&models.CartItem{}).
		Where("phone_number = ? AND status = ?", phone, models.CartItemActive).
		Update("status", models.CartItemCleared)
	return result.RowsAffected, result.Error
}
