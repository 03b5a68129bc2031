package services

import (
	"testing"

	"github.com/gomezmarket/gomezbot-backend/internal/models"
	"github.com/gomezmarket/gomezbot-backend/internal/storage"
)

func testSession(phone string) *models.Session {
	return &models.Session{
		PhoneNumber: phone,
		ChatbotID:   "test-bot",
		Context:     models.ContextProductSearch,
		Status:      models.SessionActive,
	}
}

func testProduct() models.Product {
	return models.Product{
		Code:         "P001",
		Name:         "HARINA PAN 1KG",
		UnitPriceUSD: 10,
		IvaPercent:   16,
		Stock:        25,
		ExchangeRate: 36.5,
	}
}

func TestCartAddMergesDuplicates(t *testing.T) {
	cart := NewCartService(storage.NewMemoryStore())
	session := testSession("04141234567")
	product := testProduct()

	if _, err := cart.Add(session, product, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := cart.Add(session, product, 3); err != nil {
		t.Fatal(err)
	}

	items, err := cart.Items(session.PhoneNumber)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d lines, want 1", len(items))
	}
	if items[0].Quantity != 5 {
		t.Errorf("quantity = %d, want 5", items[0].Quantity)
	}
}

func TestCartTotals(t *testing.T) {
	cart := NewCartService(storage.NewMemoryStore())
	session := testSession("04141234567")

	// 3 x $10 with 16% IVA at rate 36.5
	if _, err := cart.Add(session, testProduct(), 3); err != nil {
		t.Fatal(err)
	}

	totals, err := cart.Totals(session.PhoneNumber)
	if err != nil {
		t.Fatal(err)
	}
	if totals.ItemCount != 3 {
		t.Errorf("item count = %d, want 3", totals.ItemCount)
	}
	if totals.TotalUSD != 34.8 {
		t.Errorf("total USD = %.2f, want 34.80", totals.TotalUSD)
	}
	if totals.TotalBs != 1270.2 {
		t.Errorf("total Bs = %.2f, want 1270.20", totals.TotalBs)
	}
}

func TestCartSetQuantityZeroRemoves(t *testing.T) {
	cart := NewCartService(storage.NewMemoryStore())
	session := testSession("04141234567")
	product := testProduct()

	if _, err := cart.Add(session, product, 2); err != nil {
		t.Fatal(err)
	}
	item, err := cart.SetQuantity(session.PhoneNumber, product.Code, 0)
	if err != nil {
		t.Fatal(err)
	}
	if item != nil {
		t.Error("expected line removed, got item back")
	}

	items, err := cart.Items(session.PhoneNumber)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Errorf("got %d lines, want 0", len(items))
	}
}

func TestCartClear(t *testing.T) {
	cart := NewCartService(storage.NewMemoryStore())
	session := testSession("04141234567")

	other := testProduct()
	other.Code = "P002"
	other.Name = "ARROZ 1KG"

	if _, err := cart.Add(session, testProduct(), 1); err != nil {
		t.Fatal(err)
	}
	if _, err := cart.Add(session, other, 1); err != nil {
		t.Fatal(err)
	}

	n, err := cart.Clear(session.PhoneNumber)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("cleared %d lines, want 2", n)
	}

	totals, err := cart.Totals(session.PhoneNumber)
	if err != nil {
		t.Fatal(err)
	}
	if totals.ItemCount != 0 || totals.TotalUSD != 0 {
		t.Errorf("cart not empty after clear: %+v", totals)
	}
}

func TestCartPriceFrozenAtAddTime(t *testing.T) {
	cart := NewCartService(storage.NewMemoryStore())
	session := testSession("04141234567")
	product := testProduct()

	if _, err := cart.Add(session, product, 1); err != nil {
		t.Fatal(err)
	}

	// A later add at a new rate must not reprice the existing line.
	product.ExchangeRate = 40
	if _, err := cart.Add(session, product, 1); err != nil {
		t.Fatal(err)
	}

	items, err := cart.Items(session.PhoneNumber)
	if err != nil {
		t.Fatal(err)
	}
	if items[0].ExchangeRate != 36.5 {
		t.Errorf("rate = %.1f, want the captured 36.5", items[0].ExchangeRate)
	}
}
