package services

import (
	"context"
	"strings"

	"github.com/gomezmarket/gomezbot-backend/internal/models"
)

// fakeCatalog serves a fixed product set with the same matching rules the
// real catalog queries apply.
type fakeCatalog struct {
	products []models.Product
	// byWords forces the substring strategy to miss so the word fallback runs
	byWords bool
}

func (f *fakeCatalog) SearchProducts(ctx context.Context, term string) ([]models.Product, error) {
	if f.byWords {
		return nil, nil
	}
	var out []models.Product
	for _, p := range f.products {
		if strings.Contains(strings.ToLower(p.Name), term) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) SearchProductsByWords(ctx context.Context, words []string) ([]models.Product, error) {
	var out []models.Product
	for _, p := range f.products {
		name := strings.ToLower(p.Name)
		all := true
		for _, w := range words {
			if !strings.Contains(name, w) {
				all = false
				break
			}
		}
		if all {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) SearchProductsAny(ctx context.Context, terms []string) ([]models.Product, error) {
	var out []models.Product
	for _, p := range f.products {
		name := strings.ToLower(p.Name)
		for _, t := range terms {
			if strings.Contains(name, t) {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

// fakeIdentity resolves customers from in-memory maps and records creations.
type fakeIdentity struct {
	byPhone  map[string]*models.Customer
	byRif    map[string]*models.Customer
	byCode   map[string]*models.Customer
	invoices map[string][]models.Invoice
	created  []*models.Customer
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{
		byPhone:  make(map[string]*models.Customer),
		byRif:    make(map[string]*models.Customer),
		byCode:   make(map[string]*models.Customer),
		invoices: make(map[string][]models.Invoice),
	}
}

func (f *fakeIdentity) CustomerByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	return f.byPhone[phone], nil
}

func (f *fakeIdentity) CustomerByRif(ctx context.Context, cedula string) (*models.Customer, error) {
	return f.byRif[cedula], nil
}

func (f *fakeIdentity) CustomerByCode(ctx context.Context, code string) (*models.Customer, error) {
	return f.byCode[code], nil
}

func (f *fakeIdentity) CreateCustomer(ctx context.Context, fullName, cedula, phone string) (*models.Customer, error) {
	rif := cedula
	if !strings.ContainsAny(cedula[:1], "VEJP") {
		rif = "V" + cedula
	}
	customer := &models.Customer{
		ClientCode: cedula,
		Name:       strings.ToUpper(fullName),
		Rif:        rif,
		Phone1:     phone,
	}
	f.created = append(f.created, customer)
	f.byRif[customer.Rif] = customer
	f.byCode[customer.ClientCode] = customer
	return customer, nil
}

func (f *fakeIdentity) Invoices(ctx context.Context, code string) ([]models.Invoice, error) {
	return f.invoices[code], nil
}

// fakeBanks serves a static bank list.
type fakeBanks struct {
	banks []models.Bank
}

func (f *fakeBanks) Banks(ctx context.Context) ([]models.Bank, error) {
	return f.banks, nil
}

// fakeOrders records submitted drafts and returns sequential order ids.
type fakeOrders struct {
	submitted []*models.OrderDraft
	fail      error
}

func (f *fakeOrders) SubmitOrder(ctx context.Context, draft *models.OrderDraft) (*models.OrderReceipt, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.submitted = append(f.submitted, draft)
	return &models.OrderReceipt{
		OrderID:      int64(1000 + len(f.submitted)),
		Total:        draft.TotalUSD,
		CurrencyName: "DOLARES",
		ExchangeRate: 1,
		LineCount:    len(draft.Lines),
	}, nil
}
