package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gomezmarket/gomezbot-backend/internal/models"
	"github.com/gomezmarket/gomezbot-backend/internal/storage"
)

// CartTotals is the priced summary of a cart. USD and Bs totals are each
// accumulated per line and rounded once at the end.
type CartTotals struct {
	Items     []*models.CartItem
	ItemCount int
	TotalUSD  float64
	TotalBs   float64
}

// CartService manages the per-sender cart. Prices and the exchange rate are
// frozen on each line at add-time and never refreshed.
type CartService struct {
	store storage.Store
}

func NewCartService(store storage.Store) *CartService {
	return &CartService{store: store}
}

// Add puts a product in the cart. Adding a code already present increments
// its quantity instead of creating a second line.
func (s *CartService) Add(session *models.Session, product models.Product, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		quantity = 1
	}
	existing, err := s.store.FindActiveCartItem(session.PhoneNumber, product.Code)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("find cart item: %w", err)
	}
	if existing != nil {
		existing.Quantity += quantity
		if err := s.store.SaveCartItem(existing); err != nil {
			return nil, fmt.Errorf("update cart item: %w", err)
		}
		log.Printf("🛒 %s: %s ahora x%d", session.PhoneNumber, product.Code, existing.Quantity)
		return existing, nil
	}

	item := &models.CartItem{
		PhoneNumber:  session.PhoneNumber,
		SessionID:    session.ID,
		ProductCode:  product.Code,
		ProductName:  product.Name,
		UnitPriceUSD: product.UnitPriceUSD,
		IvaTax:       product.IvaPercent,
		Quantity:     quantity,
		ExchangeRate: product.ExchangeRate,
		Status:       models.CartItemActive,
		ChatbotID:    session.ChatbotID,
		Metadata: models.CartItemMetadata{
			AddedAt:       time.Now(),
			SearchContext: session.Context,
		},
	}
	if err := s.store.SaveCartItem(item); err != nil {
		return nil, fmt.Errorf("save cart item: %w", err)
	}
	log.Printf("🛒 %s: agregado %s x%d", session.PhoneNumber, product.Code, quantity)
	return item, nil
}

// SetQuantity changes a line's quantity; zero or less removes the line.
func (s *CartService) SetQuantity(phone, productCode string, quantity int) (*models.CartItem, error) {
	item, err := s.store.FindActiveCartItem(phone, productCode)
	if err != nil {
		return nil, err
	}
	if quantity <= 0 {
		if err := s.store.DeleteCartItem(item); err != nil {
			return nil, fmt.Errorf("delete cart item: %w", err)
		}
		return nil, nil
	}
	item.Quantity = quantity
	if err := s.store.SaveCartItem(item); err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	return item, nil
}

// Remove drops one line from the cart.
func (s *CartService) Remove(phone, productCode string) error {
	item, err := s.store.FindActiveCartItem(phone, productCode)
	if err != nil {
		return err
	}
	if err := s.store.DeleteCartItem(item); err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}

// Clear empties the cart and returns how many lines were dropped.
func (s *CartService) Clear(phone string) (int64, error) {
	n, err := s.store.ClearCart(phone)
	if err != nil {
		return 0, fmt.Errorf("clear cart: %w", err)
	}
	if n > 0 {
		log.Printf("🗑️ Carrito de %s vaciado (%d líneas)", phone, n)
	}
	return n, nil
}

// Items lists the active cart lines.
func (s *CartService) Items(phone string) ([]*models.CartItem, error) {
	return s.store.GetActiveCartItems(phone)
}

// Totals prices the cart. Each line contributes quantity x unit price with
// IVA applied, in USD and in Bs at its captured rate; both totals are rounded
// to two decimals only after accumulating.
func (s *CartService) Totals(phone string) (*CartTotals, error) {
	items, err := s.store.GetActiveCartItems(phone)
	if err != nil {
		return nil, fmt.Errorf("cart items: %w", err)
	}
	totals := &CartTotals{Items: items}
	for _, item := range items {
		lineUSD := float64(item.Quantity) * item.UnitPriceUSD * (1 + item.IvaTax/100)
		totals.TotalUSD += lineUSD
		totals.TotalBs += lineUSD * item.ExchangeRate
		totals.ItemCount += item.Quantity
	}
	totals.TotalUSD = Round2(totals.TotalUSD)
	totals.TotalBs = Round2(totals.TotalBs)
	return totals, nil
}
