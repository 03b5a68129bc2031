package services

import (
	"testing"
	"time"

	"github.com/gomezmarket/gomezbot-backend/internal/models"
	"github.com/gomezmarket/gomezbot-backend/internal/storage"
)

func TestResolveCreatesOnFirstContact(t *testing.T) {
	svc := NewSessionService(storage.NewMemoryStore())

	session, created, err := svc.Resolve("04141234567", "test-bot")
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Error("expected a new session")
	}
	if session.Context != models.ContextInitial {
		t.Errorf("context = %s, want initial", session.Context)
	}
	if session.Status != models.SessionActive {
		t.Errorf("status = %s, want active", session.Status)
	}
}

func TestResolveReturnsSameSession(t *testing.T) {
	svc := NewSessionService(storage.NewMemoryStore())

	first, _, err := svc.Resolve("04141234567", "test-bot")
	if err != nil {
		t.Fatal(err)
	}
	second, created, err := svc.Resolve("04141234567", "test-bot")
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("second resolve created a new session")
	}
	if first.ID != second.ID {
		t.Errorf("session ids differ: %d vs %d", first.ID, second.ID)
	}
}

func TestResolveReactivatesStaleSession(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewSessionService(store)

	session, _, err := svc.Resolve("04141234567", "test-bot")
	if err != nil {
		t.Fatal(err)
	}
	session.IsAuthenticated = true
	session.Context = models.ContextPaymentBank
	session.Metadata.Payment = &models.PaymentDraft{Method: models.PaymentPagoMovil}
	session.LastActivity = time.Now().Add(-3 * time.Hour)
	if err := store.SaveSession(session); err != nil {
		t.Fatal(err)
	}

	resolved, created, err := svc.Resolve("04141234567", "test-bot")
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("stale session replaced instead of reactivated")
	}
	if resolved.ID != session.ID {
		t.Errorf("session id = %d, want %d", resolved.ID, session.ID)
	}
	if resolved.Context != models.ContextMenu {
		t.Errorf("context = %s, want menu", resolved.Context)
	}
	if resolved.Metadata.Payment != nil {
		t.Error("stale payment draft survived reactivation")
	}
	if !resolved.IsAuthenticated {
		t.Error("authentication lost on reactivation")
	}
}

func TestSweepExpired(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewSessionService(store)

	fresh := &models.Session{
		PhoneNumber:  "04140000001",
		Status:       models.SessionActive,
		LastActivity: time.Now(),
	}
	stale := &models.Session{
		PhoneNumber:  "04140000002",
		Status:       models.SessionActive,
		LastActivity: time.Now().Add(-3 * time.Hour),
	}
	for _, s := range []*models.Session{fresh, stale} {
		if err := store.SaveSession(s); err != nil {
			t.Fatal(err)
		}
	}

	n, err := svc.SweepExpired()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("swept %d sessions, want 1", n)
	}

	active, err := svc.ActiveCount()
	if err != nil {
		t.Fatal(err)
	}
	if active != 1 {
		t.Errorf("active = %d, want 1", active)
	}
}
