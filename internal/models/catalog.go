package models

import "time"

// Product is a catalog row from the external Valery inventory. Prices are in
// USD; ExchangeRate is the USD->Bs factor current at query time.
type Product struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	UnitPriceUSD float64 `json:"unit_price_usd"`
	IvaPercent   float64 `json:"iva_percent"`
	Stock        int     `json:"stock"`
	ExchangeRate float64 `json:"exchange_rate"`
}

// Customer is a row from the external clientes table.
type Customer struct {
	ClientCode   string     `json:"client_code"`
	Name         string     `json:"name"`
	Rif          string     `json:"rif"`
	Address      string     `json:"address"`
	Phone1       string     `json:"phone1"`
	Phone2       string     `json:"phone2"`
	HasCredit    bool       `json:"has_credit"`
	CreditDays   int        `json:"credit_days"`
	Balance      float64    `json:"balance"`
	LastPurchase *time.Time `json:"last_purchase,omitempty"`
	RegisteredAt *time.Time `json:"registered_at,omitempty"`
}

// Bank is a pago móvil destination, keyed by the national 4-digit code.
type Bank struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Invoice is one header row of the client's purchase history.
type Invoice struct {
	Number        string    `json:"number"`
	IssuedAt      time.Time `json:"issued_at"`
	Subtotal      float64   `json:"subtotal"`
	Iva           float64   `json:"iva"`
	Total         float64   `json:"total"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"payment_method"`
}

// Payment method codes as presented in the checkout menu.
const (
	PaymentPagoMovil   = 1
	PaymentZelle       = 2
	PaymentTransferUSD = 3
	PaymentCashBs      = 4
	PaymentPointOfSale = 5
	PaymentCashUSD     = 6
	PaymentMethodFirst = PaymentPagoMovil
	PaymentMethodLast  = PaymentCashUSD
)

// PaymentMethodName returns the display label for a method code.
func PaymentMethodName(method int) string {
	switch method {
	case PaymentPagoMovil:
		return "PAGO MÓVIL"
	case PaymentZelle:
		return "ZELLE"
	case PaymentTransferUSD:
		return "TRANSFERENCIA USD"
	case PaymentCashBs:
		return "EFECTIVO BOLÍVARES"
	case PaymentPointOfSale:
		return "PUNTO DE VENTA"
	case PaymentCashUSD:
		return "EFECTIVO USD"
	}
	return "DESCONOCIDO"
}

// OrderLine carries the captured price/IVA/quantity of one cart line into the
// order document.
type OrderLine struct {
	ProductCode string  `json:"product_code"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	IvaPercent  float64 `json:"iva_percent"`
	LineTotal   float64 `json:"line_total"`
}

// OrderPayment is the payment record attached to an order. Bank, payer and
// reference fields are only set for pago móvil.
type OrderPayment struct {
	Method      int    `json:"method"`
	BankCode    string `json:"bank_code,omitempty"`
	BankName    string `json:"bank_name,omitempty"`
	PayerPhone  string `json:"payer_phone,omitempty"`
	PayerCedula string `json:"payer_cedula,omitempty"`
	Reference   string `json:"reference,omitempty"`
}

// OrderDraft is what the checkout hands to the order submitter. Totals are in
// USD; the submitter converts them for Bs-denominated payment methods and
// writes header, lines and payment as one transaction.
type OrderDraft struct {
	ClientCode   string       `json:"client_code"`
	ClientName   string       `json:"client_name"`
	Rif          string       `json:"rif"`
	Phone        string       `json:"phone"`
	SubtotalUSD  float64      `json:"subtotal_usd"`
	IvaUSD       float64      `json:"iva_usd"`
	TotalUSD     float64      `json:"total_usd"`
	Observations string       `json:"observations"`
	Lines        []OrderLine  `json:"lines"`
	Payment      OrderPayment `json:"payment"`
}

// OrderReceipt reports a successful submission.
type OrderReceipt struct {
	OrderID      int64   `json:"order_id"`
	Total        float64 `json:"total"`
	CurrencyName string  `json:"currency_name"`
	ExchangeRate float64 `json:"exchange_rate"`
	LineCount    int     `json:"line_count"`
}
