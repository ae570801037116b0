package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Profile struct {
	UserID                    uuid.UUID
	Email                     string
	DisplayName               string
	IsPro                     bool
	DailyGenerationsCount     int32
	DailyGenerationsResetDate pgtype.Date
	ProUpgradedAt             pgtype.Timestamptz
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

type Email struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Type          string
	RecipientType string
	BusinessType  string
	Context       string
	Tone          string
	Subject       string
	Body          string
	CreatedAt     time.Time
}

type Payment struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	OrderID    string
	PaymentID  string
	Plan       string
	Amount     int64
	Currency   string
	Status     string
	ReceiptKey string
	CreatedAt  time.Time
	VerifiedAt pgtype.Timestamptz
}
