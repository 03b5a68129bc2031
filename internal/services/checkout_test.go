package services

import (
	"context"
	"strings"
	"testing"

	"github.com/gomezmarket/gomezbot-backend/internal/models"
	"github.com/gomezmarket/gomezbot-backend/internal/storage"
)

func newTestCheckout(t *testing.T) (*CheckoutService, *CartService, *fakeOrders, *fakeIdentity) {
	t.Helper()
	store := storage.NewMemoryStore()
	cart := NewCartService(store)
	banks := &fakeBanks{banks: []models.Bank{
		{Code: "0102", Name: "BANCO DE VENEZUELA"},
		{Code: "0105", Name: "MERCANTIL"},
	}}
	identity := newFakeIdentity()
	orders := &fakeOrders{}
	return NewCheckoutService(cart, banks, identity, orders), cart, orders, identity
}

func checkoutSession() *models.Session {
	session := testSession("04141234567")
	session.IsAuthenticated = true
	session.ClientID = "C100"
	session.ClientName = "JUAN PEREZ"
	session.IdentificationNumber = "V12345678"
	return session
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	checkout, _, orders, _ := newTestCheckout(t)
	session := checkoutSession()

	reply, err := checkout.Start(context.Background(), session)
	if err != nil {
		t.Fatal(err)
	}
	if session.Context != models.ContextProductSearch {
		t.Errorf("context changed to %s on empty cart", session.Context)
	}
	if !strings.Contains(reply, "vacío") {
		t.Errorf("reply = %q, want empty-cart notice", reply)
	}
	if len(orders.submitted) != 0 {
		t.Error("order submitted from empty cart")
	}
}

func TestCheckoutPagoMovilFullFlow(t *testing.T) {
	checkout, cart, orders, identity := newTestCheckout(t)
	session := checkoutSession()
	identity.byRif["V12345678"] = &models.Customer{ClientCode: "C100", Name: "JUAN PEREZ", Rif: "V12345678"}

	if _, err := cart.Add(session, testProduct(), 2); err != nil {
		t.Fatal(err)
	}
	if _, err := checkout.Start(context.Background(), session); err != nil {
		t.Fatal(err)
	}
	if session.Context != models.ContextCheckoutPayment {
		t.Fatalf("context = %s after start", session.Context)
	}

	steps := []struct {
		input       string
		wantContext models.DialogContext
	}{
		{"1", models.ContextPaymentBank},
		{"0102", models.ContextPaymentPhone},
		{"04241112233", models.ContextPaymentCedula},
		{"V12345678", models.ContextPaymentReference},
	}
	for _, step := range steps {
		if _, err := checkout.Handle(context.Background(), session, step.input); err != nil {
			t.Fatalf("Handle(%q): %v", step.input, err)
		}
		if session.Context != step.wantContext {
			t.Fatalf("after %q context = %s, want %s", step.input, session.Context, step.wantContext)
		}
	}

	reply, err := checkout.Handle(context.Background(), session, "4821")
	if err != nil {
		t.Fatal(err)
	}
	if len(orders.submitted) != 1 {
		t.Fatal("order not submitted")
	}

	draft := orders.submitted[0]
	if draft.Payment.Method != models.PaymentPagoMovil {
		t.Errorf("method = %d", draft.Payment.Method)
	}
	if draft.Payment.BankCode != "0102" || draft.Payment.BankName != "BANCO DE VENEZUELA" {
		t.Errorf("bank = %s %s", draft.Payment.BankCode, draft.Payment.BankName)
	}
	if draft.Payment.PayerPhone != "04241112233" {
		t.Errorf("payer phone = %s", draft.Payment.PayerPhone)
	}
	if draft.Payment.Reference != "4821" {
		t.Errorf("reference = %s", draft.Payment.Reference)
	}
	// 2 x $10 + 16% IVA
	if draft.TotalUSD != 23.2 {
		t.Errorf("total = %.2f, want 23.20", draft.TotalUSD)
	}

	if session.Context != models.ContextMenu {
		t.Errorf("context = %s after submit, want menu", session.Context)
	}
	if session.Metadata.Payment != nil {
		t.Error("payment draft not cleared after submit")
	}
	items, _ := cart.Items(session.PhoneNumber)
	if len(items) != 0 {
		t.Error("cart not cleared after submit")
	}
	if !strings.Contains(reply, "Pedido registrado") {
		t.Errorf("reply = %q", reply)
	}
}

func TestCheckoutImmediateMethodsSkipBankFlow(t *testing.T) {
	checkout, cart, orders, _ := newTestCheckout(t)
	session := checkoutSession()

	if _, err := cart.Add(session, testProduct(), 1); err != nil {
		t.Fatal(err)
	}
	if _, err := checkout.Start(context.Background(), session); err != nil {
		t.Fatal(err)
	}

	// Zelle submits without bank, phone or reference steps.
	if _, err := checkout.Handle(context.Background(), session, "2"); err != nil {
		t.Fatal(err)
	}
	if len(orders.submitted) != 1 {
		t.Fatal("order not submitted")
	}
	if orders.submitted[0].Payment.Method != models.PaymentZelle {
		t.Errorf("method = %d, want zelle", orders.submitted[0].Payment.Method)
	}
	if session.Context != models.ContextMenu {
		t.Errorf("context = %s, want menu", session.Context)
	}
}

func TestCheckoutInvalidInputKeepsState(t *testing.T) {
	checkout, cart, orders, _ := newTestCheckout(t)
	session := checkoutSession()

	if _, err := cart.Add(session, testProduct(), 1); err != nil {
		t.Fatal(err)
	}
	if _, err := checkout.Start(context.Background(), session); err != nil {
		t.Fatal(err)
	}
	if _, err := checkout.Handle(context.Background(), session, "1"); err != nil {
		t.Fatal(err)
	}

	// Wrong bank codes re-prompt without advancing.
	for _, bad := range []string{"99", "abcd", "9999"} {
		if _, err := checkout.Handle(context.Background(), session, bad); err != nil {
			t.Fatal(err)
		}
		if session.Context != models.ContextPaymentBank {
			t.Fatalf("context = %s after %q, want bank selection", session.Context, bad)
		}
	}
	if session.Metadata.Payment == nil || session.Metadata.Payment.Method != models.PaymentPagoMovil {
		t.Error("draft lost on invalid input")
	}
	if len(orders.submitted) != 0 {
		t.Error("order submitted with invalid bank")
	}
}

func TestCheckoutInvalidPhoneRejected(t *testing.T) {
	checkout, cart, _, _ := newTestCheckout(t)
	session := checkoutSession()

	if _, err := cart.Add(session, testProduct(), 1); err != nil {
		t.Fatal(err)
	}
	if _, err := checkout.Start(context.Background(), session); err != nil {
		t.Fatal(err)
	}
	checkout.Handle(context.Background(), session, "1")
	checkout.Handle(context.Background(), session, "0102")

	// A landline prefix is not a pago móvil source.
	if _, err := checkout.Handle(context.Background(), session, "02121234567"); err != nil {
		t.Fatal(err)
	}
	if session.Context != models.ContextPaymentPhone {
		t.Errorf("context = %s, want phone input", session.Context)
	}
}

func TestCheckoutCancelKeepsCart(t *testing.T) {
	checkout, cart, orders, _ := newTestCheckout(t)
	session := checkoutSession()

	if _, err := cart.Add(session, testProduct(), 2); err != nil {
		t.Fatal(err)
	}
	if _, err := checkout.Start(context.Background(), session); err != nil {
		t.Fatal(err)
	}
	checkout.Handle(context.Background(), session, "1")

	reply, err := checkout.Handle(context.Background(), session, "cancelar")
	if err != nil {
		t.Fatal(err)
	}
	if session.Context != models.ContextMenu {
		t.Errorf("context = %s, want menu", session.Context)
	}
	if session.Metadata.Payment != nil {
		t.Error("payment draft survived cancel")
	}
	items, _ := cart.Items(session.PhoneNumber)
	if len(items) != 1 {
		t.Errorf("cart has %d lines after cancel, want 1", len(items))
	}
	if !strings.Contains(reply, "cancelado") {
		t.Errorf("reply = %q", reply)
	}
	if len(orders.submitted) != 0 {
		t.Error("order submitted after cancel")
	}
}
