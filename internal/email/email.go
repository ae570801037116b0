// Package email provides email sending functionality for SmartMail AI.
//
// The only transactional mail is the payment receipt sent after a Pro upgrade
// is verified. Delivery is best-effort; callers log failures and move on.
package email

import (
	"context"
	"time"
)

// =============================================================================
// Interface Definition
// =============================================================================

// EmailService defines the interface for sending transactional emails.
//
// All methods are context-aware for timeout and cancellation support.
type EmailService interface {
	// SendPaymentReceiptEmail sends a receipt for a verified Pro payment.
	// Parameters:
	// - to: Recipient email address
	// - name: Recipient's name for personalization
	// - receipt: Payment details to include
	SendPaymentReceiptEmail(ctx context.Context, to, name string, receipt Receipt) error
}

// =============================================================================
// Email Data Types
// =============================================================================

// Email represents a single email message.
type Email struct {
	To       string // Recipient email address
	Subject  string // Email subject line
	HTMLBody string // HTML content of the email
	TextBody string // Plain text fallback content
}

// Receipt is the payment summary shown in a receipt email.
type Receipt struct {
	OrderID       string
	TransactionID string
	Plan          string // "Monthly" or "Yearly"
	Amount        string // Formatted with currency, e.g. "INR 30.00"
	PaidAt        time.Time
}

// =============================================================================
// Configuration Types
// =============================================================================

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host     string // SMTP server hostname (e.g., "localhost" for Mailhog)
	Port     int    // SMTP server port (e.g., 1025 for Mailhog)
	Username string // SMTP authentication username (empty for Mailhog)
	Password string // SMTP authentication password (empty for Mailhog)
	From     string // Default sender email address
	FromName string // Default sender display name
}

// =============================================================================
// Common Constants
// =============================================================================

const (
	// DefaultFromEmail is the default sender email for transactional emails.
	DefaultFromEmail = "billing@smartmail.app"

	// DefaultFromName is the default sender display name.
	DefaultFromName = "SmartMail AI"
)
