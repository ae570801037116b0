package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/DukeRupert/smartmail/internal/billing"
	"github.com/DukeRupert/smartmail/internal/domain"
)

// ReceiptContentType is the media type of stored receipts.
const ReceiptContentType = "text/plain; charset=utf-8"

// FormatAmount renders minor units as "INR 30.00".
func FormatAmount(minor int64, currency string) string {
	return fmt.Sprintf("%s %d.%02d", currency, minor/100, minor%100)
}

// RenderReceipt produces the plain-text receipt for a verified payment.
func RenderReceipt(p *domain.Payment, profile *domain.Profile) string {
	paidAt := p.CreatedAt
	if p.VerifiedAt != nil {
		paidAt = *p.VerifiedAt
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s - Payment Receipt\n", billing.ProductName)
	b.WriteString(strings.Repeat("=", 40) + "\n\n")
	fmt.Fprintf(&b, "Billed to:      %s\n", profile.Name())
	if profile.Email != "" && profile.Email != profile.Name() {
		fmt.Fprintf(&b, "Email:          %s\n", profile.Email)
	}
	fmt.Fprintf(&b, "Order ID:       %s\n", p.OrderID)
	fmt.Fprintf(&b, "Transaction ID: %s\n", p.PaymentID)
	fmt.Fprintf(&b, "Plan:           Pro (%s)\n", p.Plan)
	fmt.Fprintf(&b, "Amount:         %s\n", FormatAmount(p.Amount, p.Currency))
	fmt.Fprintf(&b, "Paid on:        %s\n", paidAt.UTC().Format(time.RFC1123))
	b.WriteString("\nThank you for upgrading to SmartMail AI Pro.\n")
	return b.String()
}
