// Package domain contains core business types and interfaces.
//
// This file defines email categories, tones, generation requests, and saved emails.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category is the closed set of email kinds the generator understands.
// The value is the routing key; Label is the display text.
type Category string

const (
	CategoryColdEmail   Category = "cold_email"
	CategoryFollowUp    Category = "follow_up"
	CategoryOffer       Category = "offer"
	CategoryApology     Category = "apology"
	CategoryPartnership Category = "partnership"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryColdEmail,
	CategoryFollowUp,
	CategoryOffer,
	CategoryApology,
	CategoryPartnership,
}

// Valid returns true if c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Words returns the category as lower-case words, e.g. "cold email".
func (c Category) Words() string {
	return strings.ReplaceAll(string(c), "_", " ")
}

// Label returns the title-cased display label, e.g. "Cold Email".
func (c Category) Label() string {
	return cases.Title(language.English).String(c.Words())
}

// ParseCategory accepts either a routing key ("follow_up") or a display label ("Follow-up").
func ParseCategory(s string) (Category, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	c := Category(key)
	return c, c.Valid()
}

// Tone is the closed set of writing tones.
type Tone string

const (
	ToneFormal     Tone = "formal"
	ToneFriendly   Tone = "friendly"
	TonePersuasive Tone = "persuasive"
)

// Tones lists every tone.
var Tones = []Tone{ToneFormal, ToneFriendly, TonePersuasive}

// Valid returns true if t is a known tone.
func (t Tone) Valid() bool {
	switch t {
	case ToneFormal, ToneFriendly, TonePersuasive:
		return true
	}
	return false
}

// PersonalizationField is a labelled detail a Pro user adds to a generation brief.
type PersonalizationField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// GenerateRequest is the brief for a single email generation.
type GenerateRequest struct {
	Type            Category               `json:"type"`
	RecipientType   string                 `json:"recipientType"`
	BusinessType    string                 `json:"businessType"`
	Context         string                 `json:"context"`
	Tone            Tone                   `json:"tone"`
	Personalization []PersonalizationField `json:"personalization,omitempty"`
	TemplateID      string                 `json:"templateId,omitempty"`
}

// Maximum accepted lengths for free-text brief fields.
const (
	MaxDescriptorLength = 200
	MaxContextLength    = 4000
)

// Validate checks the request and returns a ValidationError listing every bad field.
func (r *GenerateRequest) Validate(op string) error {
	var ve *ValidationError
	add := func(field, msg string) {
		if ve == nil {
			ve = NewValidationError(op, field, msg)
			return
		}
		ve.Fields[field] = msg
	}

	if !r.Type.Valid() {
		add("type", "must be one of cold_email, follow_up, offer, apology, partnership")
	}
	if !r.Tone.Valid() {
		add("tone", "must be one of formal, friendly, persuasive")
	}
	if strings.TrimSpace(r.RecipientType) == "" {
		add("recipientType", "is required")
	} else if len(r.RecipientType) > MaxDescriptorLength {
		add("recipientType", "is too long")
	}
	if strings.TrimSpace(r.BusinessType) == "" {
		add("businessType", "is required")
	} else if len(r.BusinessType) > MaxDescriptorLength {
		add("businessType", "is too long")
	}
	if strings.TrimSpace(r.Context) == "" {
		add("context", "is required")
	} else if len(r.Context) > MaxContextLength {
		add("context", "is too long")
	}

	if ve != nil {
		return ve
	}
	return nil
}

// HasProExtras reports whether the request uses Pro-only enrichment.
func (r *GenerateRequest) HasProExtras() bool {
	return len(r.Personalization) > 0 || r.TemplateID != ""
}

// EmailSource identifies how a generated email was produced.
type EmailSource string

const (
	SourceAI       EmailSource = "ai"
	SourceFallback EmailSource = "fallback"
)

// GeneratedEmail is the result returned to the caller after generation.
type GeneratedEmail struct {
	Subject string      `json:"subject"`
	Body    string      `json:"body"`
	Source  EmailSource `json:"source"`
}

// SavedEmail is a generated email stored by a Pro user.
type SavedEmail struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"-"`
	Type          Category  `json:"type"`
	RecipientType string    `json:"recipient_type"`
	BusinessType  string    `json:"business_type"`
	Context       string    `json:"context"`
	Tone          Tone      `json:"tone"`
	Subject       string    `json:"subject"`
	Body          string    `json:"body"`
	CreatedAt     time.Time `json:"created_at"`
}

// EmailPage is one page of saved emails with the paging actually applied.
type EmailPage struct {
	Emails []SavedEmail `json:"emails"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// SaveEmailParams holds the fields for storing a generated email.
type SaveEmailParams struct {
	Type          Category `json:"type"`
	RecipientType string   `json:"recipient_type"`
	BusinessType  string   `json:"business_type"`
	Context       string   `json:"context"`
	Tone          Tone     `json:"tone"`
	Subject       string   `json:"subject"`
	Body          string   `json:"body"`
}

// Validate checks the parameters for saving an email.
func (p *SaveEmailParams) Validate(op string) error {
	if !p.Type.Valid() {
		return Invalid(op, "type must be a known email category")
	}
	if !p.Tone.Valid() {
		return Invalid(op, "tone must be formal, friendly, or persuasive")
	}
	if strings.TrimSpace(p.Subject) == "" {
		return Invalid(op, "subject is required")
	}
	if strings.TrimSpace(p.Body) == "" {
		return Invalid(op, "body is required")
	}
	return nil
}
