package service

import (
	"context"
	"errors"
	"testing"

	"github.com/DukeRupert/smartmail/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService_EnsureCreatesAndResets(t *testing.T) {
	mock, q := newMock(t)
	svc := NewProfileService(q, 0, testLogger())

	mock.ExpectExec("name: EnsureProfile").
		WithArgs(testUserID, "ada@example.com", "Ada").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("name: ResetDailyGenerationsIfNeeded").
		WithArgs(testUserID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("name: GetProfile").
		WithArgs(testUserID).
		WillReturnRows(profileRows(testUserID, false, 0))

	p, err := svc.Ensure(context.Background(), domain.Identity{
		UserID:      testUserID,
		Email:       "ada@example.com",
		DisplayName: "Ada",
	})
	require.NoError(t, err)
	assert.Equal(t, testUserID, p.UserID)
	assert.False(t, p.IsPro)
	assert.Equal(t, 0, p.DailyGenerationsCount)
	assert.Nil(t, p.ProUpgradedAt)
	assert.Equal(t, domain.DefaultFreeDailyLimit, svc.FreeDailyLimit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileService_EnsureRejectsNilUser(t *testing.T) {
	_, q := newMock(t)
	svc := NewProfileService(q, 3, testLogger())

	_, err := svc.Ensure(context.Background(), domain.Identity{UserID: uuid.Nil})
	assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))
}

func TestProfileService_Get(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(mock pgxmock.PgxPoolIface)
		wantCode string
		wantPro  bool
	}{
		{
			name: "pro profile",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("name: ResetDailyGenerationsIfNeeded").WithArgs(testUserID).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectQuery("name: GetProfile").WithArgs(testUserID).
					WillReturnRows(profileRows(testUserID, true, 7))
			},
			wantPro: true,
		},
		{
			name: "missing profile",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("name: ResetDailyGenerationsIfNeeded").WithArgs(testUserID).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectQuery("name: GetProfile").WithArgs(testUserID).
					WillReturnError(pgx.ErrNoRows)
			},
			wantCode: domain.ENOTFOUND,
		},
		{
			name: "reset fails",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("name: ResetDailyGenerationsIfNeeded").WithArgs(testUserID).
					WillReturnError(errors.New("connection reset"))
			},
			wantCode: domain.EINTERNAL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, q := newMock(t)
			tt.setup(mock)

			p, err := NewProfileService(q, 3, testLogger()).Get(context.Background(), testUserID)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, domain.ErrorCode(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantPro, p.IsPro)
				require.NotNil(t, p.ProUpgradedAt)
				assert.Equal(t, -1, p.RemainingGenerations(3))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSubscriptionService_Status(t *testing.T) {
	t.Run("free profile is not subscribed", func(t *testing.T) {
		mock, q := newMock(t)
		mock.ExpectQuery("name: GetProfile").WithArgs(testUserID).
			WillReturnRows(profileRows(testUserID, false, 1))

		status, err := NewSubscriptionService(q, testLogger()).Status(context.Background(), testUserID)
		require.NoError(t, err)
		assert.False(t, status.Subscribed)
		assert.Nil(t, status.SubscriptionEnd)
	})

	t.Run("pro profile has a 30 day window from the last update", func(t *testing.T) {
		mock, q := newMock(t)
		mock.ExpectQuery("name: GetProfile").WithArgs(testUserID).
			WillReturnRows(profileRows(testUserID, true, 0))

		status, err := NewSubscriptionService(q, testLogger()).Status(context.Background(), testUserID)
		require.NoError(t, err)
		assert.True(t, status.Subscribed)
		assert.Equal(t, domain.TierPro, status.SubscriptionTier)
		require.NotNil(t, status.SubscriptionStart)
		assert.Equal(t, testNow, *status.SubscriptionStart)
		assert.Equal(t, testNow.Add(domain.SubscriptionWindow), *status.SubscriptionEnd)
	})

	t.Run("missing profile", func(t *testing.T) {
		mock, q := newMock(t)
		mock.ExpectQuery("name: GetProfile").WithArgs(testUserID).WillReturnError(pgx.ErrNoRows)

		_, err := NewSubscriptionService(q, testLogger()).Status(context.Background(), testUserID)
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})
}
