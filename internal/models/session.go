package models

import (
	"time"

	"gorm.io/gorm"
)

// DialogContext is the discrete dialogue state that decides which handler
// consumes the next message from a sender.
type DialogContext string

const (
	ContextInitial               DialogContext = "initial"
	ContextMenu                  DialogContext = "menu"
	ContextNewClient             DialogContext = "new_client"
	ContextNewClientRegistration DialogContext = "new_client_registration"
	ContextProductSearch         DialogContext = "product_search"
	ContextOrderStart            DialogContext = "order_start"
	ContextCheckoutPayment       DialogContext = "checkout_payment_selection"
	ContextPaymentBank           DialogContext = "payment_bank_selection"
	ContextPaymentPhone          DialogContext = "payment_phone_input"
	ContextPaymentCedula         DialogContext = "payment_cedula_input"
	ContextPaymentReference      DialogContext = "payment_reference_input"
)

// InCheckout reports whether the context belongs to the payment sub-flow,
// where the raw message is consumed regardless of classified intent.
func (c DialogContext) InCheckout() bool {
	switch c {
	case ContextCheckoutPayment, ContextPaymentBank, ContextPaymentPhone,
		ContextPaymentCedula, ContextPaymentReference:
		return true
	}
	return false
}

// Session statuses. Sessions are never hard-deleted; the sweep flips active
// sessions to inactive once they go stale.
const (
	SessionActive   = "active"
	SessionInactive = "inactive"
	SessionEnded    = "ended"
)

// PaymentDraft accumulates the pago móvil details collected across the
// payment_* contexts. It only reaches the order submitter at the final step.
type PaymentDraft struct {
	Method        int    `json:"method"`
	BankCode      string `json:"bank_code,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
	PayerPhone    string `json:"payer_phone,omitempty"`
	PayerCedula   string `json:"payer_cedula,omitempty"`
	PayerVerified bool   `json:"payer_verified,omitempty"`
}

// ClientInfo caches credit terms captured at authentication time.
type ClientInfo struct {
	HasCredit    bool       `json:"has_credit"`
	CreditDays   int        `json:"credit_days"`
	Balance      float64    `json:"balance"`
	LastPurchase *time.Time `json:"last_purchase,omitempty"`
}

// SessionMetadata is the sub-flow state carried across turns. Fields are
// discriminated by the session context; a cancelled sub-flow clears its field.
type SessionMetadata struct {
	Client  *ClientInfo   `json:"client,omitempty"`
	Payment *PaymentDraft `json:"payment,omitempty"`
}

// Clone returns a deep copy, used to roll a session back to its pre-call
// state when a collaborator fails mid-turn.
func (m SessionMetadata) Clone() SessionMetadata {
	out := SessionMetadata{}
	if m.Client != nil {
		c := *m.Client
		out.Client = &c
	}
	if m.Payment != nil {
		p := *m.Payment
		out.Payment = &p
	}
	return out
}

// Session is the persistent conversation record, one per normalized sender.
type Session struct {
	gorm.Model
	PhoneNumber          string          `json:"phone_number" gorm:"uniqueIndex"`
	ChatbotID            string          `json:"chatbot_id"`
	ClientID             string          `json:"client_id"`
	ClientName           string          `json:"client_name"`
	IdentificationNumber string          `json:"identification_number"`
	IsAuthenticated      bool            `json:"is_authenticated"`
	IsNewClient          bool            `json:"is_new_client"`
	Context              DialogContext   `json:"context"`
	Status               string          `json:"status" gorm:"index"`
	MessageCount         int             `json:"message_count"`
	SearchCount          int             `json:"search_count"`
	LastActivity         time.Time       `json:"last_activity" gorm:"index"`
	LastUserMessage      string          `json:"last_user_message"`
	LastBotResponse      string          `json:"last_bot_response"`
	Metadata             SessionMetadata `json:"metadata" gorm:"serializer:json"`
}

// ChatMessage is one transcript entry; every turn appends two (user, assistant).
type ChatMessage struct {
	gorm.Model
	SessionID   uint      `json:"session_id" gorm:"index"`
	PhoneNumber string    `json:"phone_number" gorm:"index"`
	Sender      string    `json:"sender"` // "user" or "assistant"
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
}

// SearchHistory is append-only; rows are read back for suggestions and for
// the add-to-cart-by-index flow, never mutated.
type SearchHistory struct {
	gorm.Model
	PhoneNumber        string        `json:"phone_number" gorm:"index"`
	SearchTerm         string        `json:"search_term"`
	OriginalSearchTerm string        `json:"original_search_term"`
	ResultsCount       int           `json:"results_count"`
	HasResults         bool          `json:"has_results"`
	SessionContext     DialogContext `json:"session_context"`
	ChatbotID          string        `json:"chatbot_id"`
}

// Cart item statuses.
const (
	CartItemActive  = "active"
	CartItemCleared = "cleared"
)

// CartItemMetadata records the circumstances of the add.
type CartItemMetadata struct {
	AddedAt       time.Time     `json:"added_at"`
	SearchContext DialogContext `json:"search_context"`
}

// CartItem is one active line per (sender, product code). Prices and the
// exchange rate are captured at add-time and never re-priced.
type CartItem struct {
	gorm.Model
	PhoneNumber  string           `json:"phone_number" gorm:"index"`
	SessionID    uint             `json:"session_id"`
	ProductCode  string           `json:"product_code" gorm:"index"`
	ProductName  string           `json:"product_name"`
	UnitPriceUSD float64          `json:"unit_price_usd"`
	IvaTax       float64          `json:"iva_tax"`
	Quantity     int              `json:"quantity"`
	ExchangeRate float64          `json:"exchange_rate"`
	Status       string           `json:"status" gorm:"index"`
	ChatbotID    string           `json:"chatbot_id"`
	Metadata     CartItemMetadata `json:"metadata" gorm:"serializer:json"`
}
