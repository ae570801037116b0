package repository

import (
	"context"

	"github.com/google/uuid"
)

const profileColumns = `user_id, email, display_name, is_pro, daily_generations_count,
       daily_generations_reset_date, pro_upgraded_at, created_at, updated_at`

func scanProfile(row interface{ Scan(dest ...any) error }) (Profile, error) {
	var i Profile
	err := row.Scan(
		&i.UserID,
		&i.Email,
		&i.DisplayName,
		&i.IsPro,
		&i.DailyGenerationsCount,
		&i.DailyGenerationsResetDate,
		&i.ProUpgradedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const ensureProfile = `-- name: EnsureProfile :exec
INSERT INTO profiles (user_id, email, display_name)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO NOTHING
`

type EnsureProfileParams struct {
	UserID      uuid.UUID
	Email       string
	DisplayName string
}

// EnsureProfile creates the profile row for an identity on first sight.
func (q *Queries) EnsureProfile(ctx context.Context, arg EnsureProfileParams) error {
	_, err := q.db.Exec(ctx, ensureProfile, arg.UserID, arg.Email, arg.DisplayName)
	return err
}

const resetDailyGenerationsIfNeeded = `-- name: ResetDailyGenerationsIfNeeded :execrows
UPDATE profiles
SET daily_generations_count = 0,
    daily_generations_reset_date = CURRENT_DATE
WHERE user_id = $1
  AND daily_generations_reset_date < CURRENT_DATE
`

// ResetDailyGenerationsIfNeeded zeroes the counter when its reset date is before today.
// It returns the number of rows changed, which is 1 on the first read of a new day.
// updated_at is left alone because it anchors the subscription window.
func (q *Queries) ResetDailyGenerationsIfNeeded(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, resetDailyGenerationsIfNeeded, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getProfile = `-- name: GetProfile :one
SELECT ` + profileColumns + `
FROM profiles
WHERE user_id = $1
`

func (q *Queries) GetProfile(ctx context.Context, userID uuid.UUID) (Profile, error) {
	row := q.db.QueryRow(ctx, getProfile, userID)
	return scanProfile(row)
}

const incrementDailyGenerations = `-- name: IncrementDailyGenerations :one
UPDATE profiles
SET daily_generations_count = daily_generations_count + 1
WHERE user_id = $1
  AND daily_generations_count < $2
RETURNING daily_generations_count
`

type IncrementDailyGenerationsParams struct {
	UserID uuid.UUID
	Limit  int32
}

// IncrementDailyGenerations atomically bumps the counter while it is below the limit.
// It returns pgx.ErrNoRows when the profile is already at the limit.
// Pro profiles are never counted, so callers skip it for them.
func (q *Queries) IncrementDailyGenerations(ctx context.Context, arg IncrementDailyGenerationsParams) (int32, error) {
	row := q.db.QueryRow(ctx, incrementDailyGenerations, arg.UserID, arg.Limit)
	var count int32
	err := row.Scan(&count)
	return count, err
}

const setProfilePro = `-- name: SetProfilePro :one
UPDATE profiles
SET is_pro = TRUE,
    pro_upgraded_at = NOW(),
    updated_at = NOW()
WHERE user_id = $1
RETURNING ` + profileColumns

func (q *Queries) SetProfilePro(ctx context.Context, userID uuid.UUID) (Profile, error) {
	row := q.db.QueryRow(ctx, setProfilePro, userID)
	return scanProfile(row)
}
