package valery

import (
	"context"
	"fmt"
	"strings"

	"github.com/gomezmarket/gomezbot-backend/internal/models"
)

// Stock eligibility thresholds. The substring strategy is deliberately
// stricter than the word strategy so near-zero-stock items are not offered
// first; confirm with the business before changing either.
const (
	minStockExact = 2
	minStockWords = 1
)

const (
	limitExact = 20
	limitWords = 15
	limitList  = 50
)

// foldExpr folds the Spanish accented characters the way names are stored,
// mirroring the normalization applied to terms on the Go side.
const foldExpr = `LOWER(TRANSLATE(%s, 'ñáéíóúüÑÁÉÍÓÚÜ', 'naeiouuNAEIOUU'))`

const productColumns = `
	i.codigo,
	i.nombre,
	i.preciounidad,
	i.alicuotaiva,
	i.existenciaunidad,
	(SELECT factorcambio FROM monedas WHERE codmoneda = '02' LIMIT 1) AS tasa_actual`

type productRow struct {
	Codigo           string  `gorm:"column:codigo"`
	Nombre           string  `gorm:"column:nombre"`
	PrecioUnidad     float64 `gorm:"column:preciounidad"`
	AlicuotaIva      float64 `gorm:"column:alicuotaiva"`
	ExistenciaUnidad int     `gorm:"column:existenciaunidad"`
	TasaActual       float64 `gorm:"column:tasa_actual"`
}

func (r productRow) product() models.Product {
	return models.Product{
		Code:         r.Codigo,
		Name:         r.Nombre,
		UnitPriceUSD: r.PrecioUnidad,
		IvaPercent:   r.AlicuotaIva,
		Stock:        r.ExistenciaUnidad,
		ExchangeRate: r.TasaActual,
	}
}

func toProducts(rows []productRow) []models.Product {
	products := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.product())
	}
	return products
}

func (c *Client) SearchProducts(ctx context.Context, normalizedTerm string) ([]models.Product, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	nameFold := fmt.Sprintf(foldExpr, "i.nombre")
	paramFold := fmt.Sprintf(foldExpr, "?")
	query := fmt.Sprintf(`
		SELECT %s
		FROM inventario i
		WHERE (i.status = 'A' OR i.status = '1')
		  AND i.existenciaunidad >= %d
		  AND %s LIKE %s
		ORDER BY
		  CASE WHEN %s LIKE %s THEN 0 ELSE 1 END,
		  i.existenciaunidad DESC,
		  LENGTH(i.nombre),
		  i.nombre
		LIMIT %d`,
		productColumns, minStockExact, nameFold, paramFold, nameFold, paramFold, limitExact)

	var rows []productRow
	err := c.db.WithContext(ctx).
		Raw(query, "%"+normalizedTerm+"%", normalizedTerm+"%").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("catalog substring search: %w", err)
	}
	return toProducts(rows), nil
}

func (c *Client) SearchProductsByWords(ctx context.Context, words []string) ([]models.Product, error) {
	if len(words) == 0 {
		return nil, nil
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	nameFold := fmt.Sprintf(foldExpr, "i.nombre")
	paramFold := fmt.Sprintf(foldExpr, "?")
	conditions := make([]string, 0, len(words))
	params := make([]interface{}, 0, len(words))
	for _, word := range words {
		conditions = append(conditions, fmt.Sprintf("%s LIKE %s", nameFold, paramFold))
		params = append(params, "%"+word+"%")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM inventario i
		WHERE (i.status = 'A' OR i.status = '1')
		  AND i.existenciaunidad >= %d
		  AND (%s)
		ORDER BY i.existenciaunidad DESC, i.nombre
		LIMIT %d`,
		productColumns, minStockWords, strings.Join(conditions, " AND "), limitWords)

	var rows []productRow
	err := c.db.WithContext(ctx).Raw(query, params...).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("catalog word search: %w", err)
	}
	return toProducts(rows), nil
}

func (c *Client) SearchProductsAny(ctx context.Context, terms []string) ([]models.Product, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	nameFold := fmt.Sprintf(foldExpr, "i.nombre")
	paramFold := fmt.Sprintf(foldExpr, "?")
	conditions := make([]string, 0, len(terms))
	params := make([]interface{}, 0, len(terms))
	for _, term := range terms {
		conditions = append(conditions, fmt.Sprintf("%s LIKE %s", nameFold, paramFold))
		params = append(params, "%"+term+"%")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM inventario i
		WHERE (i.status = 'A' OR i.status = '1')
		  AND i.existenciaunidad >= %d
		  AND (%s)
		ORDER BY i.existenciaunidad DESC, LENGTH(i.nombre), i.nombre
		LIMIT %d`,
		productColumns, minStockWords, strings.Join(conditions, " OR "), limitList)

	var rows []productRow
	err := c.db.WithContext(ctx).Raw(query, params...).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("catalog list search: %w", err)
	}
	return toProducts(rows), nil
}

func (c *Client) Banks(ctx context.Context) ([]models.Bank, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var rows []struct {
		Codigo string `gorm:"column:codigo"`
		Banco  string `gorm:"column:banco"`
	}
	err := c.db.WithContext(ctx).
		Raw(`SELECT codigo, banco FROM bancos WHERE status = 'SI' ORDER BY banco`).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("bank list: %w", err)
	}

	banks := make([]models.Bank, 0, len(rows))
	for _, row := range rows {
		banks = append(banks, models.Bank{Code: row.Codigo, Name: row.Banco})
	}
	return banks, nil
}
