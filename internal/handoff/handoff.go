// Package handoff turns a placed order into the message a shopper sends to
// the store over WhatsApp.
package handoff

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"jecistore/internal/domain"
)

const currency = "R$"

// Message formats the order summary: one line per item, the tracking codes
// that exist, and the frozen total.
func Message(storeName string, o domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello, I would like to complete my order at %s!\n", storeName)
	fmt.Fprintf(&b, "Order: %s\n", o.ID)
	b.WriteString("Items:\n")
	var codes []string
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %dx %s (%s%s)\n", it.Quantity, it.ProductName, currency, it.PriceAtPurchase.StringFixed(2))
		if it.TrackingCode != "" {
			codes = append(codes, "    Tracking code: "+it.TrackingCode)
		}
	}
	if len(codes) > 0 {
		b.WriteString("\nProduct tracking codes (for reference):\n")
		b.WriteString(strings.Join(codes, "\n"))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nTotal: %s%s\n", currency, o.TotalPrice.StringFixed(2))
	fmt.Fprintf(&b, "Ship to: %s, %s (%s)\n", o.FullName, o.ShippingAddress, o.ContactInfo)
	b.WriteString("\nPlease help me proceed with payment and shipping.")
	return b.String()
}

// WhatsAppURL builds the wa.me link. Non-digits are stripped from number.
func WhatsAppURL(number, message string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, number)
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + digits + "?text=" + text
}
