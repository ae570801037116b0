package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// sendFunc matches smtp.SendMail so tests can capture outgoing messages.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// =============================================================================
// SMTP Email Service Implementation
// =============================================================================

// SMTPEmailService sends emails via SMTP.
//
// This implementation works with:
// - Mailhog (development): No authentication required
// - Postmark SMTP (production): Uses username/password authentication
// - Any standard SMTP server
type SMTPEmailService struct {
	config    SMTPConfig
	baseURL   string
	templates *template.Template
	sendMail  sendFunc
	logger    *slog.Logger
}

// NewSMTPEmailService creates a new SMTP-based email service.
//
// Parameters:
// - config: SMTP server configuration
// - baseURL: Front-end base URL for constructing links (e.g., "http://localhost:5173")
// - logger: Structured logger for error reporting
func NewSMTPEmailService(config SMTPConfig, baseURL string, logger *slog.Logger) (*SMTPEmailService, error) {
	// Set defaults
	if config.From == "" {
		config.From = DefaultFromEmail
	}
	if config.FromName == "" {
		config.FromName = DefaultFromName
	}

	templates, err := template.New("email").Funcs(emailTemplateFuncs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &SMTPEmailService{
		config:    config,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		templates: templates,
		sendMail:  smtp.SendMail,
		logger:    logger,
	}, nil
}

// =============================================================================
// EmailService Interface Implementation
// =============================================================================

// SendPaymentReceiptEmail sends a receipt for a verified Pro payment.
func (s *SMTPEmailService) SendPaymentReceiptEmail(ctx context.Context, to, name string, receipt Receipt) error {
	if name == "" {
		name = "there"
	}
	billingURL := s.baseURL + "/billing"

	data := map[string]interface{}{
		"Name":       name,
		"Receipt":    receipt,
		"BillingURL": billingURL,
	}

	htmlBody, err := s.renderTemplate("receipt.html", data)
	if err != nil {
		return fmt.Errorf("failed to render receipt email template: %w", err)
	}

	textBody := fmt.Sprintf(`Hi %s,

Thanks for upgrading! Your payment was verified and your account now has SmartMail AI Pro.

Plan:        Pro %s
Amount:      %s
Order:       %s
Transaction: %s
Date:        %s

View your billing history: %s

Thanks,
The SmartMail AI Team
`, name, receipt.Plan, receipt.Amount, receipt.OrderID, receipt.TransactionID,
		receipt.PaidAt.UTC().Format("2 Jan 2006"), billingURL)

	email := Email{
		To:       to,
		Subject:  "Your SmartMail AI Pro receipt",
		HTMLBody: htmlBody,
		TextBody: textBody,
	}

	return s.send(ctx, email)
}

// =============================================================================
// Internal Methods
// =============================================================================

// send sends an email via SMTP.
func (s *SMTPEmailService) send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Build the email message
	msg := s.buildMessage(email)

	// Create SMTP address
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	// Create auth if credentials are provided (not needed for Mailhog)
	var auth smtp.Auth
	if s.config.Username != "" && s.config.Password != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	// Send the email
	err := s.sendMail(addr, auth, s.config.From, []string{email.To}, msg)
	if err != nil {
		s.logger.Error("failed to send email",
			"to", email.To,
			"subject", email.Subject,
			"error", err,
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		"to", email.To,
		"subject", email.Subject,
	)

	return nil
}

// buildMessage constructs the raw email message with headers.
func (s *SMTPEmailService) buildMessage(email Email) []byte {
	var buf bytes.Buffer

	// From header with display name
	fromHeader := fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)

	// Write headers
	buf.WriteString(fmt.Sprintf("From: %s\r\n", fromHeader))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", email.To))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))
	buf.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z)))
	buf.WriteString("MIME-Version: 1.0\r\n")

	// Create multipart message for HTML + text
	boundary := "===============SMARTMAIL_BOUNDARY==============="
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary))
	buf.WriteString("\r\n")

	// Plain text part
	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(email.TextBody)
	buf.WriteString("\r\n")

	// HTML part
	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(email.HTMLBody)
	buf.WriteString("\r\n")

	// End boundary
	buf.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	return buf.Bytes()
}

// renderTemplate renders an email template with the given data.
func (s *SMTPEmailService) renderTemplate(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// =============================================================================
// Template Functions
// =============================================================================

// emailTemplateFuncs returns template functions available in email templates.
func emailTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"currentYear": func() int {
			return time.Now().Year()
		},
		"formatDate": func(t time.Time) string {
			return t.UTC().Format("2 Jan 2006")
		},
	}
}

// =============================================================================
// Compile-time interface check
// =============================================================================

var _ EmailService = (*SMTPEmailService)(nil)
