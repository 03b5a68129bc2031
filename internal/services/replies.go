package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/gomezmarket/gomezbot-backend/internal/models"
)

// Reply builders. All user-facing text lives here so handlers and the router
// stay free of formatting.

// productPriceBs is the displayed bolívar price: IVA-inclusive, at the
// current rate, rounded to one decimal.
func productPriceBs(p models.Product) float64 {
	return PriceBs(p.UnitPriceUSD*(1+p.IvaPercent/100), p.ExchangeRate)
}

func firstName(full string) string {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return full
	}
	return fields[0]
}

func greetingForHour(hour int) string {
	switch {
	case hour >= 6 && hour < 12:
		return "¡Buenos días!"
	case hour >= 12 && hour < 19:
		return "¡Buenas tardes!"
	case hour >= 19:
		return "¡Buenas noches!"
	default:
		return "¡Hola!"
	}
}

// replyWelcomeKnown greets a recognized customer, mentioning a saved cart and
// a recent search when there is one worth resuming.
func replyWelcomeKnown(now time.Time, name string, cartCount int, lastSearch string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s, bienvenido de nuevo a *Gómez Market* 🛒\n", greetingForHour(now.Hour()), firstName(name))
	if cartCount > 0 {
		fmt.Fprintf(&b, "\n🛒 Tienes %d producto(s) guardados en tu carrito.\n", cartCount)
	}
	if lastSearch != "" {
		fmt.Fprintf(&b, "🔍 Tu última búsqueda fue: *%s*\n", lastSearch)
	}
	b.WriteString("\n" + replyMenu())
	return b.String()
}

func replyWelcomeNew(now time.Time) string {
	return greetingForHour(now.Hour()) + " Bienvenido a *Gómez Market* 🛒\n\n" +
		"Para atenderte necesito identificarte.\n" +
		"Por favor envíame tu *cédula o RIF* (ejemplo: V12345678)."
}

func replyMenu() string {
	return "¿En qué puedo ayudarte?\n\n" +
		"1️⃣ Buscar productos\n" +
		"2️⃣ Consultar mi saldo\n" +
		"3️⃣ Ver mis últimas facturas\n" +
		"4️⃣ Hacer un pedido\n\n" +
		"Escribe el número de la opción o dime directamente qué producto buscas."
}

func replyAskProduct() string {
	return "🔍 Escribe el nombre del producto que buscas.\n" +
		"También puedes enviarme una lista separada por comas, por ejemplo:\n" +
		"_arroz, harina pan, aceite_"
}

func replyOrderStart() string {
	return "🛒 ¡Vamos a armar tu pedido!\n\n" +
		"Envíame los productos que necesitas, uno a uno o en una lista separada por comas:\n" +
		"_arroz, harina pan, aceite_\n\n" +
		"Cuando tengas todo en el carrito escribe *proceder al pago*."
}

func replyProducts(products []models.Product, header string) string {
	var b strings.Builder
	b.WriteString(header + "\n\n")
	for i, p := range products {
		bs := productPriceBs(p)
		fmt.Fprintf(&b, "*%d.* %s\n   💵 $%.2f | Bs. %.1f | Stock: %d\n", i+1, p.Name, p.UnitPriceUSD, bs, p.Stock)
	}
	b.WriteString("\nPara agregar escribe: *agregar producto N* (ejemplo: agregar producto 1)")
	return b.String()
}

func replyNoResults(term string, suggestions []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "😕 No encontré productos para *%s*.\n", term)
	if len(suggestions) > 0 {
		b.WriteString("\n¿Quizás buscabas alguna de estas búsquedas anteriores?\n")
		for _, s := range suggestions {
			fmt.Fprintf(&b, "• %s\n", s)
		}
	}
	b.WriteString("\nIntenta con otro nombre o una palabra más corta.")
	return b.String()
}

func replyListResults(result *ListResult) string {
	if result.Stats.ProductsFound == 0 {
		return "😕 No encontré productos para tu lista. Revisa los nombres e intenta de nuevo."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Busqué %d producto(s) y encontré %d coincidencias (promedio %.2f por término):\n\n",
		result.Stats.TermsSearched, result.Stats.ProductsFound, result.Stats.AveragePerTerm)
	for i, p := range result.Displayed {
		bs := productPriceBs(p)
		fmt.Fprintf(&b, "*%d.* %s\n   💵 $%.2f | Bs. %.1f | Stock: %d\n", i+1, p.Name, p.UnitPriceUSD, bs, p.Stock)
	}
	if result.Stats.ProductsFound > len(result.Displayed) {
		fmt.Fprintf(&b, "\n(Mostrando %d de %d resultados)\n", len(result.Displayed), result.Stats.ProductsFound)
	}
	b.WriteString("\nPara agregar escribe: *agregar producto N*")
	return b.String()
}

func replyCart(totals *CartTotals) string {
	if len(totals.Items) == 0 {
		return "🛒 Tu carrito está vacío.\n\nEscribe el nombre de un producto para empezar."
	}
	var b strings.Builder
	b.WriteString("🛒 *Tu carrito:*\n\n")
	for i, item := range totals.Items {
		lineUSD := Round2(float64(item.Quantity) * item.UnitPriceUSD * (1 + item.IvaTax/100))
		fmt.Fprintf(&b, "*%d.* %s\n   x%d | $%.2f c/u | Subtotal: $%.2f\n", i+1, item.ProductName, item.Quantity, item.UnitPriceUSD, lineUSD)
	}
	fmt.Fprintf(&b, "\n📦 %d artículo(s)\n💵 Total: *$%.2f* | Bs. %.2f\n", totals.ItemCount, totals.TotalUSD, totals.TotalBs)
	b.WriteString("\nOpciones:\n" +
		"• *quitar producto N*\n" +
		"• *cambiar producto N a X*\n" +
		"• *vaciar carrito*\n" +
		"• *proceder al pago*")
	return b.String()
}

func replyPaymentMenu(totals *CartTotals) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💳 Total a pagar: *$%.2f* (Bs. %.2f)\n\nElige la forma de pago:\n\n", totals.TotalUSD, totals.TotalBs)
	for method := models.PaymentMethodFirst; method <= models.PaymentMethodLast; method++ {
		fmt.Fprintf(&b, "*%d.* %s\n", method, models.PaymentMethodName(method))
	}
	b.WriteString("\nEscribe el número de la opción o *cancelar* para volver al menú.")
	return b.String()
}

func replyBankList(banks []models.Bank) string {
	var b strings.Builder
	b.WriteString("🏦 Bancos disponibles para pago móvil:\n\n")
	for _, bank := range banks {
		fmt.Fprintf(&b, "*%s* - %s\n", bank.Code, bank.Name)
	}
	b.WriteString("\nEscribe el *código de 4 dígitos* de tu banco.")
	return b.String()
}

func replyOrderConfirmed(receipt *models.OrderReceipt) string {
	return fmt.Sprintf("✅ ¡Pedido registrado!\n\n"+
		"📄 Número de pedido: *%d*\n"+
		"💵 Total: %.2f %s\n"+
		"📦 %d línea(s)\n\n"+
		"Gracias por tu compra. En breve procesaremos tu pedido.\n\n%s",
		receipt.OrderID, receipt.Total, receipt.CurrencyName, receipt.LineCount, replyMenu())
}

func replyBalance(client *models.ClientInfo, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💼 *Estado de cuenta de %s*\n\n", name)
	fmt.Fprintf(&b, "Saldo: $%.2f\n", client.Balance)
	if client.HasCredit {
		fmt.Fprintf(&b, "Crédito: SÍ (%d días)\n", client.CreditDays)
	} else {
		b.WriteString("Crédito: NO\n")
	}
	if client.LastPurchase != nil {
		days := int(time.Since(*client.LastPurchase).Hours() / 24)
		fmt.Fprintf(&b, "Última compra: %s (hace %d días)\n", client.LastPurchase.Format("02/01/2006"), days)
	}
	return b.String()
}

func replyInvoices(invoices []models.Invoice) string {
	if len(invoices) == 0 {
		return "📄 No encontré facturas registradas a tu nombre."
	}
	var b strings.Builder
	b.WriteString("📄 *Tus últimas facturas:*\n\n")
	for _, inv := range invoices {
		fmt.Fprintf(&b, "*%s* | %s | $%.2f | %s\n", inv.Number, inv.IssuedAt.Format("02/01/2006"), inv.Total, inv.Status)
	}
	return b.String()
}

func replyInternalError(correlationID string) string {
	return fmt.Sprintf("😔 Lo siento, tuve un problema procesando tu mensaje.\n"+
		"Intenta de nuevo en unos segundos.\n\n(Ref: %s)", correlationID)
}
