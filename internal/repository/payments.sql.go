package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const paymentColumns = `id, user_id, order_id, payment_id, plan, amount, currency, status, receipt_key, created_at, verified_at`

func scanPayment(row interface{ Scan(dest ...any) error }) (Payment, error) {
	var i Payment
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.OrderID,
		&i.PaymentID,
		&i.Plan,
		&i.Amount,
		&i.Currency,
		&i.Status,
		&i.ReceiptKey,
		&i.CreatedAt,
		&i.VerifiedAt,
	)
	return i, err
}

const createPayment = `-- name: CreatePayment :one
INSERT INTO payments (user_id, order_id, plan, amount, currency, client_ip)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + paymentColumns

type CreatePaymentParams struct {
	UserID   uuid.UUID
	OrderID  string
	Plan     string
	Amount   int64
	Currency string
	ClientIP pqtype.Inet
}

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	row := q.db.QueryRow(ctx, createPayment,
		arg.UserID,
		arg.OrderID,
		arg.Plan,
		arg.Amount,
		arg.Currency,
		arg.ClientIP,
	)
	return scanPayment(row)
}

const getPaymentByOrderID = `-- name: GetPaymentByOrderID :one
SELECT ` + paymentColumns + `
FROM payments
WHERE order_id = $1
`

func (q *Queries) GetPaymentByOrderID(ctx context.Context, orderID string) (Payment, error) {
	row := q.db.QueryRow(ctx, getPaymentByOrderID, orderID)
	return scanPayment(row)
}

const markPaymentVerified = `-- name: MarkPaymentVerified :one
UPDATE payments
SET status = 'verified',
    payment_id = $2,
    verified_at = NOW()
WHERE order_id = $1
RETURNING ` + paymentColumns

type MarkPaymentVerifiedParams struct {
	OrderID   string
	PaymentID string
}

func (q *Queries) MarkPaymentVerified(ctx context.Context, arg MarkPaymentVerifiedParams) (Payment, error) {
	row := q.db.QueryRow(ctx, markPaymentVerified, arg.OrderID, arg.PaymentID)
	return scanPayment(row)
}

const markPaymentFailed = `-- name: MarkPaymentFailed :exec
UPDATE payments
SET status = 'failed',
    payment_id = $2
WHERE order_id = $1
  AND status = 'created'
`

type MarkPaymentFailedParams struct {
	OrderID   string
	PaymentID string
}

// MarkPaymentFailed records a rejected verification. A verified payment is never downgraded.
func (q *Queries) MarkPaymentFailed(ctx context.Context, arg MarkPaymentFailedParams) error {
	_, err := q.db.Exec(ctx, markPaymentFailed, arg.OrderID, arg.PaymentID)
	return err
}

const setPaymentReceiptKey = `-- name: SetPaymentReceiptKey :exec
UPDATE payments
SET receipt_key = $2
WHERE order_id = $1
`

type SetPaymentReceiptKeyParams struct {
	OrderID    string
	ReceiptKey string
}

func (q *Queries) SetPaymentReceiptKey(ctx context.Context, arg SetPaymentReceiptKeyParams) error {
	_, err := q.db.Exec(ctx, setPaymentReceiptKey, arg.OrderID, arg.ReceiptKey)
	return err
}

const listPaymentsByUser = `-- name: ListPaymentsByUser :many
SELECT ` + paymentColumns + `
FROM payments
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`

type ListPaymentsByUserParams struct {
	UserID uuid.UUID
	Limit  int32
}

func (q *Queries) ListPaymentsByUser(ctx context.Context, arg ListPaymentsByUserParams) ([]Payment, error) {
	rows, err := q.db.Query(ctx, listPaymentsByUser, arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Payment
	for rows.Next() {
		i, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
