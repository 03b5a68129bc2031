package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gomezmarket/gomezbot-backend/internal/models"
	"github.com/gomezmarket/gomezbot-backend/internal/storage"
)

// SessionTimeout is how long a session may sit idle before the sweep marks
// it inactive. An inactive session is reactivated in place on the next
// message rather than replaced.
const SessionTimeout = 2 * time.Hour

// SessionService owns the session lifecycle: one session per sender, lazy
// reactivation and the periodic idle sweep.
type SessionService struct {
	store   storage.Store
	timeout time.Duration
}

func NewSessionService(store storage.Store) *SessionService {
	return &SessionService{store: store, timeout: SessionTimeout}
}

// Resolve returns the session for the sender, creating one on first contact.
// A stale or inactive session is reactivated: context reset to the menu (or
// initial if never authenticated) and any half-finished payment draft
// dropped, but identity and counters survive.
func (s *SessionService) Resolve(phone, chatbotID string) (*models.Session, bool, error) {
	session, err := s.store.FindSession(phone)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, false, fmt.Errorf("find session: %w", err)
		}
		session = &models.Session{
			PhoneNumber:  phone,
			ChatbotID:    chatbotID,
			Context:      models.ContextInitial,
			Status:       models.SessionActive,
			LastActivity: time.Now(),
		}
		if err := s.store.SaveSession(session); err != nil {
			return nil, false, fmt.Errorf("create session: %w", err)
		}
		log.Printf("🆕 Nueva sesión para %s", phone)
		return session, true, nil
	}

	stale := time.Since(session.LastActivity) > s.timeout
	if session.Status != models.SessionActive || stale {
		session.Status = models.SessionActive
		session.Metadata.Payment = nil
		if session.IsAuthenticated {
			session.Context = models.ContextMenu
		} else {
			session.Context = models.ContextInitial
		}
		log.Printf("🔄 Sesión reactivada para %s", phone)
	}
	session.LastActivity = time.Now()
	return session, false, nil
}

// Persist writes the session back after a turn.
func (s *SessionService) Persist(session *models.Session) error {
	session.LastActivity = time.Now()
	if err := s.store.SaveSession(session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SweepExpired marks sessions idle past the timeout as inactive and returns
// how many were flipped.
func (s *SessionService) SweepExpired() (int64, error) {
	cutoff := time.Now().Add(-s.timeout)
	n, err := s.store.MarkInactiveSessions(cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	if n > 0 {
		log.Printf("🧹 %d sesiones marcadas inactivas", n)
	}
	return n, nil
}

// ActiveCount reports currently active sessions, exposed on the admin surface.
func (s *SessionService) ActiveCount() (int64, error) {
	return s.store.CountActiveSessions()
}
