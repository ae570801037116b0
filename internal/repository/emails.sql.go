package repository

import (
	"context"

	"github.com/google/uuid"
)

const emailColumns = `id, user_id, type, recipient_type, business_type, context, tone, subject, body, created_at`

func scanEmail(row interface{ Scan(dest ...any) error }) (Email, error) {
	var i Email
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Type,
		&i.RecipientType,
		&i.BusinessType,
		&i.Context,
		&i.Tone,
		&i.Subject,
		&i.Body,
		&i.CreatedAt,
	)
	return i, err
}

const createEmail = `-- name: CreateEmail :one
INSERT INTO emails (user_id, type, recipient_type, business_type, context, tone, subject, body)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + emailColumns

type CreateEmailParams struct {
	UserID        uuid.UUID
	Type          string
	RecipientType string
	BusinessType  string
	Context       string
	Tone          string
	Subject       string
	Body          string
}

func (q *Queries) CreateEmail(ctx context.Context, arg CreateEmailParams) (Email, error) {
	row := q.db.QueryRow(ctx, createEmail,
		arg.UserID,
		arg.Type,
		arg.RecipientType,
		arg.BusinessType,
		arg.Context,
		arg.Tone,
		arg.Subject,
		arg.Body,
	)
	return scanEmail(row)
}

const listEmailsByUser = `-- name: ListEmailsByUser :many
SELECT ` + emailColumns + `
FROM emails
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

type ListEmailsByUserParams struct {
	UserID uuid.UUID
	Limit  int32
	Offset int32
}

func (q *Queries) ListEmailsByUser(ctx context.Context, arg ListEmailsByUserParams) ([]Email, error) {
	rows, err := q.db.Query(ctx, listEmailsByUser, arg.UserID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Email
	for rows.Next() {
		i, err := scanEmail(rows)
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

const getEmailByIDAndUser = `-- name: GetEmailByIDAndUser :one
SELECT ` + emailColumns + `
FROM emails
WHERE id = $1 AND user_id = $2
`

type GetEmailByIDAndUserParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) GetEmailByIDAndUser(ctx context.Context, arg GetEmailByIDAndUserParams) (Email, error) {
	row := q.db.QueryRow(ctx, getEmailByIDAndUser, arg.ID, arg.UserID)
	return scanEmail(row)
}

const deleteEmailByIDAndUser = `-- name: DeleteEmailByIDAndUser :execrows
DELETE FROM emails
WHERE id = $1 AND user_id = $2
`

type DeleteEmailByIDAndUserParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) DeleteEmailByIDAndUser(ctx context.Context, arg DeleteEmailByIDAndUserParams) (int64, error) {
	result, err := q.db.Exec(ctx, deleteEmailByIDAndUser, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
