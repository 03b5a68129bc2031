// Package valery talks to the external Valery ERP database: catalog,
// customers, banks and order documents. It is query-only except for customer
// registration and order submission; the schema is owned by the ERP and is
// never migrated from here.
package valery

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/gomezmarket/gomezbot-backend/internal/models"
)

// CatalogLookup is the product-search surface consumed by the search engine.
type CatalogLookup interface {
	// SearchProducts runs the substring strategy over accent-folded names
	// (status active, stock >= 2), ranked prefix-first then stock desc,
	// shortest name, alphabetical. Limit 20.
	SearchProducts(ctx context.Context, normalizedTerm string) ([]models.Product, error)
	// SearchProductsByWords requires every token in the name (stock >= 1),
	// ranked stock desc then name. Limit 15.
	SearchProductsByWords(ctx context.Context, words []string) ([]models.Product, error)
	// SearchProductsAny matches any of the terms (stock >= 1), limit 50.
	// Used by the delimited-list search.
	SearchProductsAny(ctx context.Context, terms []string) ([]models.Product, error)
}

// IdentityLookup resolves and registers customers.
type IdentityLookup interface {
	CustomerByPhone(ctx context.Context, phone string) (*models.Customer, error)
	CustomerByRif(ctx context.Context, cedula string) (*models.Customer, error)
	CustomerByCode(ctx context.Context, clientCode string) (*models.Customer, error)
	CreateCustomer(ctx context.Context, fullName, cedula, phone string) (*models.Customer, error)
	Invoices(ctx context.Context, clientCode string) ([]models.Invoice, error)
}

// BankDirectory lists pago móvil banks.
type BankDirectory interface {
	Banks(ctx context.Context) ([]models.Bank, error)
}

// OrderSubmitter writes an order document. Header, lines and the payment
// record are one unit of work; partial creation must not be observable.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, draft *models.OrderDraft) (*models.OrderReceipt, error)
}

// Client implements all collaborator interfaces against the ERP database.
type Client struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewClient wraps the external database connection. Every call carries a
// timeout so a stalled ERP query fails the turn instead of hanging it.
func NewClient(db *gorm.DB) *Client {
	return &Client{db: db, timeout: 10 * time.Second}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}
