package valery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/gomezmarket/gomezbot-backend/internal/models"
)

// Currency codes in the monedas table.
const (
	currencyBs  = "01"
	currencyUSD = "02"
)

// currencyFor picks the transaction currency from the payment method: pago
// móvil and efectivo Bs settle in bolívares, everything else in USD.
func currencyFor(method int) string {
	if method == models.PaymentPagoMovil || method == models.PaymentCashBs {
		return currencyBs
	}
	return currencyUSD
}

type currencyRow struct {
	CodMoneda    string  `gorm:"column:codmoneda"`
	Moneda       string  `gorm:"column:moneda"`
	FactorCambio float64 `gorm:"column:factorcambio"`
}

// SubmitOrder writes the encabedoc header, one movimientosdoc row per line
// and the pagos record inside a single transaction. USD totals are converted
// to bolívares when the payment method settles in Bs.
func (c *Client) SubmitOrder(ctx context.Context, draft *models.OrderDraft) (*models.OrderReceipt, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if len(draft.Lines) == 0 {
		return nil, fmt.Errorf("order draft has no lines")
	}

	var receipt *models.OrderReceipt
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currencies []currencyRow
		if err := tx.Raw(`SELECT codmoneda, moneda, factorcambio FROM monedas`).Scan(&currencies).Error; err != nil {
			return fmt.Errorf("currency table: %w", err)
		}

		find := func(code string) *currencyRow {
			for i := range currencies {
				if strings.TrimSpace(currencies[i].CodMoneda) == code {
					return &currencies[i]
				}
			}
			return nil
		}

		usd := find(currencyUSD)
		if usd == nil {
			return fmt.Errorf("currency %s not defined", currencyUSD)
		}

		currencyCode := currencyFor(draft.Payment.Method)
		transactionCurrency := find(currencyCode)
		if transactionCurrency == nil {
			return fmt.Errorf("currency %s not defined", currencyCode)
		}

		subtotal := draft.SubtotalUSD
		iva := draft.IvaUSD
		total := draft.TotalUSD
		rate := usd.FactorCambio
		if currencyCode == currencyBs {
			rate = transactionCurrency.FactorCambio
			subtotal *= rate
			iva *= rate
			total *= rate
		}

		now := time.Now()
		var header struct {
			IDEncabedoc int64 `gorm:"column:idencabedoc"`
		}
		err := tx.Raw(`
			INSERT INTO encabedoc (
				codcliente, nombrecliente, rif, telefonos,
				vendedorcodigo, nombrevendedor, monedacodigo, moneda, depositocodigo,
				usuariocodigo, tasa, subtotal, iva, total,
				esexento, fechaemision, hora, status, observaciones
			) VALUES (
				?, ?, ?, ?,
				'V001', 'CHATBOT AI', ?, ?, '01',
				'remoto', ?, ?, ?, ?,
				false, ?, ?, 'G', ?
			)
			RETURNING idencabedoc`,
			draft.ClientCode, draft.ClientName, draft.Rif, draft.Phone,
			currencyCode, transactionCurrency.Moneda,
			rate, subtotal, iva, total,
			now.Format("2006-01-02"), now.Format("15:04:05"), draft.Observations,
		).Scan(&header).Error
		if err != nil {
			return fmt.Errorf("order header: %w", err)
		}

		for _, line := range draft.Lines {
			err = tx.Exec(`
				INSERT INTO movimientosdoc (
					idencabedoc, codigo, nombre, descripcionreal,
					esimportacion, esexento, cantidad, precio, iva, preciototal,
					status, desstatus, tiempoentrega
				) VALUES (
					?, ?, ?, ?,
					false, ?, ?, ?, ?, ?,
					'G', 'PRODUCTO EN STOCK', 'INMEDIATO'
				)`,
				header.IDEncabedoc, line.ProductCode, line.ProductName, line.ProductName,
				line.IvaPercent == 0, line.Quantity, line.UnitPrice, line.IvaPercent, line.LineTotal,
			).Error
			if err != nil {
				return fmt.Errorf("order line %s: %w", line.ProductCode, err)
			}
		}

		payment := draft.Payment
		err = tx.Exec(`
			INSERT INTO pagos (
				idencabedoc, idtipo, monto, codigobanco, banco,
				clienteid, telefono, nroreferencia, fechatrans
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_DATE)`,
			header.IDEncabedoc, payment.Method, total,
			nullable(payment.BankCode), nullable(payment.BankName),
			nullable(payment.PayerCedula), nullable(payment.PayerPhone),
			nullable(payment.Reference),
		).Error
		if err != nil {
			return fmt.Errorf("order payment: %w", err)
		}

		receipt = &models.OrderReceipt{
			OrderID:      header.IDEncabedoc,
			Total:        total,
			CurrencyName: strings.TrimSpace(transactionCurrency.Moneda),
			ExchangeRate: rate,
			LineCount:    len(draft.Lines),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
