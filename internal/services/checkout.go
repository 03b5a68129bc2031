package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gomezmarket/gomezbot-backend/internal/models"
	"github.com/gomezmarket/gomezbot-backend/internal/utils"
	"github.com/gomezmarket/gomezbot-backend/internal/valery"
)

var (
	mobilePattern    = regexp.MustCompile(`^0?(414|424|412|416|426)\d{7}$`)
	cedulaPattern    = regexp.MustCompile(`^[VEJP]?\d{6,9}$`)
	fourDigitPattern = regexp.MustCompile(`^\d{4}$`)
)

// CheckoutService drives the payment sub-flow. Each payment_* context
// consumes exactly one field; invalid input re-prompts without advancing, and
// *cancelar* abandons the flow with the cart intact.
type CheckoutService struct {
	cart     *CartService
	banks    valery.BankDirectory
	identity valery.IdentityLookup
	orders   valery.OrderSubmitter
}

func NewCheckoutService(cart *CartService, banks valery.BankDirectory, identity valery.IdentityLookup, orders valery.OrderSubmitter) *CheckoutService {
	return &CheckoutService{cart: cart, banks: banks, identity: identity, orders: orders}
}

// Start opens the payment flow. An empty cart never enters checkout.
func (s *CheckoutService) Start(ctx context.Context, session *models.Session) (string, error) {
	totals, err := s.cart.Totals(session.PhoneNumber)
	if err != nil {
		return "", err
	}
	if len(totals.Items) == 0 {
		return "🛒 Tu carrito está vacío. Agrega productos antes de hacer un pedido.", nil
	}
	session.Context = models.ContextCheckoutPayment
	session.Metadata.Payment = &models.PaymentDraft{}
	return replyPaymentMenu(totals), nil
}

// Handle consumes one message inside the checkout contexts.
func (s *CheckoutService) Handle(ctx context.Context, session *models.Session, message string) (string, error) {
	if strings.Contains(strings.ToLower(message), "cancelar") {
		session.Context = models.ContextMenu
		session.Metadata.Payment = nil
		return "❌ Pago cancelado. Tu carrito sigue guardado.\n\n" + replyMenu(), nil
	}

	draft := session.Metadata.Payment
	if draft == nil {
		// The flow lost its draft, usually after a reactivation mid-payment.
		session.Context = models.ContextMenu
		return "⚠️ El proceso de pago se reinició. Escribe *proceder al pago* para intentarlo de nuevo.\n\n" + replyMenu(), nil
	}

	switch session.Context {
	case models.ContextCheckoutPayment:
		return s.handleMethod(ctx, session, draft, message)
	case models.ContextPaymentBank:
		return s.handleBank(ctx, session, draft, message)
	case models.ContextPaymentPhone:
		return s.handlePhone(session, draft, message)
	case models.ContextPaymentCedula:
		return s.handleCedula(ctx, session, draft, message)
	case models.ContextPaymentReference:
		return s.handleReference(ctx, session, draft, message)
	}
	return "", fmt.Errorf("unexpected checkout context %q", session.Context)
}

func (s *CheckoutService) handleMethod(ctx context.Context, session *models.Session, draft *models.PaymentDraft, message string) (string, error) {
	method, err := strconv.Atoi(strings.TrimSpace(message))
	if err != nil || method < models.PaymentMethodFirst || method > models.PaymentMethodLast {
		return "⚠️ Opción no válida. Escribe un número del 1 al 6, o *cancelar*.", nil
	}
	draft.Method = method

	if method == models.PaymentPagoMovil {
		banks, err := s.banks.Banks(ctx)
		if err != nil {
			return "", fmt.Errorf("bank list: %w", err)
		}
		session.Context = models.ContextPaymentBank
		return replyBankList(banks), nil
	}

	// Every method except pago móvil settles against the order directly.
	return s.submit(ctx, session, draft, "")
}

func (s *CheckoutService) handleBank(ctx context.Context, session *models.Session, draft *models.PaymentDraft, message string) (string, error) {
	code := utils.Digits(message)
	if !fourDigitPattern.MatchString(code) {
		return "⚠️ El código del banco son 4 dígitos (ejemplo: 0102). Intenta de nuevo o escribe *cancelar*.", nil
	}
	banks, err := s.banks.Banks(ctx)
	if err != nil {
		return "", fmt.Errorf("bank list: %w", err)
	}
	for _, bank := range banks {
		if bank.Code == code {
			draft.BankCode = bank.Code
			draft.BankName = bank.Name
			session.Context = models.ContextPaymentPhone
			return fmt.Sprintf("🏦 %s seleccionado.\n\n📱 Ahora escribe el *teléfono* desde el que hiciste el pago móvil (ejemplo: 04141234567).", bank.Name), nil
		}
	}
	return "⚠️ Ese código no está en la lista de bancos. Revisa y escribe el código de 4 dígitos.", nil
}

func (s *CheckoutService) handlePhone(session *models.Session, draft *models.PaymentDraft, message string) (string, error) {
	digits := utils.Digits(message)
	if !mobilePattern.MatchString(digits) {
		return "⚠️ Ese número no parece un celular venezolano válido (0414/0424/0412/0416/0426). Intenta de nuevo.", nil
	}
	if !strings.HasPrefix(digits, "0") {
		digits = "0" + digits
	}
	draft.PayerPhone = digits
	session.Context = models.ContextPaymentCedula
	return "🪪 Escribe la *cédula o RIF* del titular del pago (ejemplo: V12345678).", nil
}

func (s *CheckoutService) handleCedula(ctx context.Context, session *models.Session, draft *models.PaymentDraft, message string) (string, error) {
	cedula := strings.ToUpper(utils.AlphaNumeric(message))
	if !cedulaPattern.MatchString(cedula) {
		return "⚠️ La cédula debe tener entre 6 y 9 dígitos, con prefijo opcional V, E, J o P. Intenta de nuevo.", nil
	}
	draft.PayerCedula = cedula

	// Verification is best-effort: an unregistered payer does not block the
	// order, it just goes through unverified.
	customer, err := s.identity.CustomerByRif(ctx, cedula)
	if err != nil {
		return "", fmt.Errorf("verify payer: %w", err)
	}
	draft.PayerVerified = customer != nil
	session.Context = models.ContextPaymentReference

	if customer != nil {
		return fmt.Sprintf("✅ Titular verificado: %s.\n\n🔢 Escribe los *últimos 4 dígitos* de la referencia del pago.", customer.Name), nil
	}
	return "🔢 Escribe los *últimos 4 dígitos* de la referencia del pago.", nil
}

func (s *CheckoutService) handleReference(ctx context.Context, session *models.Session, draft *models.PaymentDraft, message string) (string, error) {
	reference := utils.Digits(message)
	if !fourDigitPattern.MatchString(reference) {
		return "⚠️ La referencia son los últimos 4 dígitos del comprobante. Intenta de nuevo.", nil
	}

	if draft.Method == models.PaymentPagoMovil &&
		(draft.BankCode == "" || draft.PayerPhone == "" || draft.PayerCedula == "") {
		// Draft lost fields somewhere along the way; restart cleanly rather
		// than submit a broken payment.
		session.Context = models.ContextMenu
		session.Metadata.Payment = nil
		log.Printf("⚠️ Pago incompleto descartado para %s", session.PhoneNumber)
		return "⚠️ Faltan datos del pago. Escribe *proceder al pago* para intentarlo de nuevo.\n\n" + replyMenu(), nil
	}
	return s.submit(ctx, session, draft, reference)
}

// submit builds the order from the cart and hands it to the ERP. On success
// the cart is cleared and the session returns to the menu.
func (s *CheckoutService) submit(ctx context.Context, session *models.Session, draft *models.PaymentDraft, reference string) (string, error) {
	totals, err := s.cart.Totals(session.PhoneNumber)
	if err != nil {
		return "", err
	}
	if len(totals.Items) == 0 {
		session.Context = models.ContextMenu
		session.Metadata.Payment = nil
		return "🛒 Tu carrito está vacío. Agrega productos antes de hacer un pedido.", nil
	}

	var subtotal, iva float64
	lines := make([]models.OrderLine, 0, len(totals.Items))
	for _, item := range totals.Items {
		base := float64(item.Quantity) * item.UnitPriceUSD
		lineIva := base * item.IvaTax / 100
		subtotal += base
		iva += lineIva
		lines = append(lines, models.OrderLine{
			ProductCode: item.ProductCode,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPriceUSD,
			IvaPercent:  item.IvaTax,
			LineTotal:   Round2(base + lineIva),
		})
	}

	order := &models.OrderDraft{
		ClientCode:   session.ClientID,
		ClientName:   session.ClientName,
		Rif:          session.IdentificationNumber,
		Phone:        session.PhoneNumber,
		SubtotalUSD:  Round2(subtotal),
		IvaUSD:       Round2(iva),
		TotalUSD:     Round2(subtotal + iva),
		Observations: fmt.Sprintf("Pedido via WhatsApp chatbot (%s) %s", session.PhoneNumber, time.Now().Format("02/01/2006 15:04")),
		Lines:        lines,
		Payment: models.OrderPayment{
			Method:      draft.Method,
			BankCode:    draft.BankCode,
			BankName:    draft.BankName,
			PayerPhone:  draft.PayerPhone,
			PayerCedula: draft.PayerCedula,
			Reference:   reference,
		},
	}

	receipt, err := s.orders.SubmitOrder(ctx, order)
	if err != nil {
		return "", fmt.Errorf("submit order: %w", err)
	}
	if _, err := s.cart.Clear(session.PhoneNumber); err != nil {
		// The order went through; a stuck cart is recoverable by the sender.
		log.Printf("⚠️ No se pudo vaciar el carrito de %s tras el pedido %d: %v", session.PhoneNumber, receipt.OrderID, err)
	}
	session.Context = models.ContextMenu
	session.Metadata.Payment = nil
	log.Printf("📦 Pedido %d registrado para %s (%.2f %s)", receipt.OrderID, session.PhoneNumber, receipt.Total, receipt.CurrencyName)
	return replyOrderConfirmed(receipt), nil
}
