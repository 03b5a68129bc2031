package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/gomezmarket/gomezbot-backend/internal/models"
)

func TestFindSessionSkipsEnded(t *testing.T) {
	store := NewMemoryStore()

	session := &models.Session{
		PhoneNumber:  "04141234567",
		Status:       models.SessionEnded,
		LastActivity: time.Now(),
	}
	if err := store.SaveSession(session); err != nil {
		t.Fatal(err)
	}

	_, err := store.FindSession("04141234567")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFindSessionReturnsInactive(t *testing.T) {
	store := NewMemoryStore()

	session := &models.Session{
		PhoneNumber:  "04141234567",
		Status:       models.SessionInactive,
		LastActivity: time.Now(),
	}
	if err := store.SaveSession(session); err != nil {
		t.Fatal(err)
	}

	found, err := store.FindSession("04141234567")
	if err != nil {
		t.Fatal(err)
	}
	if found.Status != models.SessionInactive {
		t.Errorf("status = %s", found.Status)
	}
}

func TestSaveSessionReturnsCopies(t *testing.T) {
	store := NewMemoryStore()

	session := &models.Session{PhoneNumber: "04141234567", Status: models.SessionActive}
	if err := store.SaveSession(session); err != nil {
		t.Fatal(err)
	}

	found, err := store.FindSession("04141234567")
	if err != nil {
		t.Fatal(err)
	}
	found.Context = models.ContextMenu

	again, err := store.FindSession("04141234567")
	if err != nil {
		t.Fatal(err)
	}
	if again.Context == models.ContextMenu {
		t.Error("mutation of a returned session leaked into the store")
	}
}

func TestSearchSuggestionsDedupAndOrder(t *testing.T) {
	store := NewMemoryStore()

	terms := []struct {
		term string
		hits int
	}{
		{"harina pan", 5},
		{"harina de trigo", 3},
		{"harina pan", 2}, // repeat, must not duplicate
		{"arroz", 4},
		{"harina quemada", 0}, // no results, must not suggest
	}
	for _, tt := range terms {
		err := store.SaveSearch(&models.SearchHistory{
			PhoneNumber:        "04141234567",
			SearchTerm:         tt.term,
			OriginalSearchTerm: tt.term,
			ResultsCount:       tt.hits,
			HasResults:         tt.hits > 0,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.GetSearchSuggestions("04141234567", "harina", 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"harina pan", "harina de trigo"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("suggestion[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestClearCartMarksLinesCleared(t *testing.T) {
	store := NewMemoryStore()

	for _, code := range []string{"P001", "P002"} {
		err := store.SaveCartItem(&models.CartItem{
			PhoneNumber: "04141234567",
			ProductCode: code,
			Quantity:    1,
			Status:      models.CartItemActive,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	n, err := store.ClearCart("04141234567")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("cleared %d, want 2", n)
	}

	items, err := store.GetActiveCartItems("04141234567")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Errorf("%d active items after clear", len(items))
	}
}
