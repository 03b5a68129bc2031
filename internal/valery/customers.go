package valery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gomezmarket/gomezbot-backend/internal/models"

	"github.com/gomezmarket/gomezbot-backend/internal/utils"
)

type customerRow struct {
	CodigoCliente    string     `gorm:"column:codigocliente"`
	Nombre           string     `gorm:"column:nombre"`
	Rif              string     `gorm:"column:rif"`
	Direccion1       string     `gorm:"column:direccion1"`
	Telefono1        string     `gorm:"column:telefono1"`
	Telefono2        string     `gorm:"column:telefono2"`
	TieneCredito     bool       `gorm:"column:tienecredito"`
	DiasCredito      int        `gorm:"column:diascredito"`
	Saldo            float64    `gorm:"column:saldo"`
	FechaUltimaVenta *time.Time `gorm:"column:fechaultimaventa"`
	FechaCreacion    *time.Time `gorm:"column:fechacreacion"`
}

func (r customerRow) customer() *models.Customer {
	return &models.Customer{
		ClientCode:   r.CodigoCliente,
		Name:         r.Nombre,
		Rif:          r.Rif,
		Address:      r.Direccion1,
		Phone1:       r.Telefono1,
		Phone2:       r.Telefono2,
		HasCredit:    r.TieneCredito,
		CreditDays:   r.DiasCredito,
		Balance:      r.Saldo,
		LastPurchase: r.FechaUltimaVenta,
		RegisteredAt: r.FechaCreacion,
	}
}

const customerColumns = `
	c.codigocliente, c.nombre, c.rif, c.direccion1, c.telefono1, c.telefono2,
	c.tienecredito, c.diascredito, c.saldo, c.fechaultimaventa, c.fechacreacion`

// CustomerByPhone looks up a customer by either phone column, newest sale
// first. Returns (nil, nil) when no customer matches.
func (c *Client) CustomerByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s
		FROM clientes c
		WHERE c.telefono1 = ? OR c.telefono2 = ?
		ORDER BY c.fechaultimaventa DESC NULLS LAST
		LIMIT 1`, customerColumns)

	var rows []customerRow
	if err := c.db.WithContext(ctx).Raw(query, phone, phone).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("customer by phone: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].customer(), nil
}

// CustomerByRif resolves an identification number, trying the bare digits and
// the V/J-prefixed variants. Returns (nil, nil) when unknown.
func (c *Client) CustomerByRif(ctx context.Context, cedula string) (*models.Customer, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	digits := utils.Digits(cedula)
	query := fmt.Sprintf(`
		SELECT %s
		FROM clientes c
		WHERE c.rif IN (?, ?, ?)
		LIMIT 1`, customerColumns)

	var rows []customerRow
	err := c.db.WithContext(ctx).
		Raw(query, digits, "V"+digits, "J"+digits).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("customer by rif: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].customer(), nil
}

func (c *Client) CustomerByCode(ctx context.Context, clientCode string) (*models.Customer, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s
		FROM clientes c
		WHERE c.codigocliente = ?
		LIMIT 1`, customerColumns)

	var rows []customerRow
	if err := c.db.WithContext(ctx).Raw(query, clientCode).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("customer by code: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].customer(), nil
}

// CreateCustomer registers a new customer. The cedula doubles as the client
// code; a bare number gets a V prefix on the rif.
func (c *Client) CreateCustomer(ctx context.Context, fullName, cedula, phone string) (*models.Customer, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	rif := cedula
	switch {
	case strings.HasPrefix(cedula, "V"), strings.HasPrefix(cedula, "E"),
		strings.HasPrefix(cedula, "J"), strings.HasPrefix(cedula, "P"):
	default:
		rif = "V" + cedula
	}

	var nextID struct {
		NextID int64 `gorm:"column:next_id"`
	}
	err := c.db.WithContext(ctx).
		Raw(`SELECT COALESCE(MAX(idcliente), 0) + 1 AS next_id FROM clientes`).
		Scan(&nextID).Error
	if err != nil {
		return nil, fmt.Errorf("customer id sequence: %w", err)
	}

	insert := `
		INSERT INTO clientes (
			idcliente, codigocliente, nombre, rif,
			direccion1, direccion2, idpais, idestado, idciudad, idmunicipio,
			codigopostal, telefono1, telefono2, email,
			tienecredito, esexento, diascredito, saldo, pagos,
			fechacreacion, fechacredito, esagentederetencion, status
		) VALUES (
			?, ?, ?, ?,
			'', '', 1, 1, 1, 1,
			'', ?, '', '',
			false, false, 0, 0, 0,
			NOW(), NOW(), 0, '1'
		)
		RETURNING codigocliente, nombre, rif, telefono1`

	var rows []customerRow
	err = c.db.WithContext(ctx).
		Raw(insert, nextID.NextID, cedula, strings.ToUpper(fullName), rif, phone).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("customer insert: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("customer insert: no row returned")
	}
	return rows[0].customer(), nil
}

// Invoices returns the last 10 invoice headers for a client.
func (c *Client) Invoices(ctx context.Context, clientCode string) ([]models.Invoice, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var rows []struct {
		NumeroFactura string    `gorm:"column:numero_factura"`
		FechaEmision  time.Time `gorm:"column:fecha_emision"`
		Subtotal      float64   `gorm:"column:subtotal"`
		Iva           float64   `gorm:"column:iva"`
		Total         float64   `gorm:"column:total"`
		Estado        string    `gorm:"column:estado"`
		MetodoPago    string    `gorm:"column:metodo_pago"`
	}
	err := c.db.WithContext(ctx).Raw(`
		SELECT f.numero_factura, f.fecha_emision, f.subtotal, f.iva, f.total,
		       f.estado, f.metodo_pago
		FROM facturas f
		WHERE f.codigo_cliente = ?
		ORDER BY f.fecha_emision DESC
		LIMIT 10`, clientCode).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("invoice history: %w", err)
	}

	invoices := make([]models.Invoice, 0, len(rows))
	for _, row := range rows {
		invoices = append(invoices, models.Invoice{
			Number:        row.NumeroFactura,
			IssuedAt:      row.FechaEmision,
			Subtotal:      row.Subtotal,
			Iva:           row.Iva,
			Total:         row.Total,
			Status:        row.Estado,
			PaymentMethod: row.MetodoPago,
		})
	}
	return invoices, nil
}
