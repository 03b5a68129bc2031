package valery

import (
	"testing"

	"github.com/gomezmarket/gomezbot-backend/internal/models"
)

func TestCurrencyFor(t *testing.T) {
	tests := []struct {
		method int
		want   string
	}{
		{models.PaymentPagoMovil, currencyBs},
		{models.PaymentCashBs, currencyBs},
		{models.PaymentZelle, currencyUSD},
		{models.PaymentTransferUSD, currencyUSD},
		{models.PaymentPointOfSale, currencyUSD},
		{models.PaymentCashUSD, currencyUSD},
	}
	for _, tt := range tests {
		if got := currencyFor(tt.method); got != tt.want {
			t.Errorf("currencyFor(%d) = %s, want %s", tt.method, got, tt.want)
		}
	}
}
