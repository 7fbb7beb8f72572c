//go:build unit

package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"handicraft-store/internal/domain/coupon"
	"handicraft-store/internal/infra"
	"handicraft-store/internal/infra/repository"
	"handicraft-store/tests/common/builder"
	dbmock "handicraft-store/tests/mock/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestCouponRepository_FindByCode(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name       string
		row        stubRow
		expectKind infra.RepositoryErrorKind
		verify     func(t *testing.T, c *coupon.Coupon)
	}{
		{
			name: "success: numeric text columns decode into the coupon",
			row: stubRow{values: []any{
				id, "SAVE10", "percent", "10.00", "50000.00",
				pgtype.Timestamptz{}, pgtype.Int4{Int32: 3, Valid: true}, created,
			}},
			verify: func(t *testing.T, c *coupon.Coupon) {
				assert.Equal(t, id, c.ID())
				assert.Equal(t, coupon.KindPercent, c.Discount().Kind())
				assert.True(t, c.Discount().Value().Equal(decimal.NewFromInt(10)))
				assert.True(t, c.MinPurchase().Equal(decimal.NewFromInt(50000)))
				assert.Nil(t, c.ExpiresAt())
				require.NotNil(t, c.UsesRemaining())
				assert.Equal(t, 3, *c.UsesRemaining())
			},
		},
		{
			name:       "error: no rows maps to NOT_FOUND",
			row:        stubRow{err: pgx.ErrNoRows},
			expectKind: infra.KindNotFound,
		},
		{
			name:       "error: driver failure maps to DB_FAILURE",
			row:        stubRow{err: errors.New("connection reset")},
			expectKind: infra.KindDBFailure,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockDB := dbmock.NewMockDBTX(ctrl)
			mockDB.EXPECT().QueryRow(ctx, gomock.Any(), "SAVE10").Return(tc.row)

			repo := repository.NewCouponRepository(mockDB, discardLogger)
			got, err := repo.FindByCode(ctx, coupon.Code("SAVE10"))

			if tc.expectKind != "" {
				require.Error(t, err)
				assert.True(t, infra.IsKind(err, tc.expectKind))
				return
			}
			require.NoError(t, err)
			tc.verify(t, got)
		})
	}
}

func TestCouponRepository_Create(t *testing.T) {
	ctx := context.Background()
	c := builder.NewCouponBuilder().MustBuild()

	testCases := []struct {
		name       string
		execErr    error
		expectKind infra.RepositoryErrorKind
	}{
		{name: "success: coupon inserted"},
		{
			name:       "error: duplicate code",
			execErr:    &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"},
			expectKind: infra.KindDuplicateKey,
		},
		{
			name:       "error: database failure",
			execErr:    errors.New("database connection error"),
			expectKind: infra.KindDBFailure,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockDB := dbmock.NewMockDBTX(ctrl)
			mockDB.EXPECT().Exec(ctx, gomock.Any(), gomock.Any()).
				Return(pgconn.NewCommandTag("INSERT 0 1"), tc.execErr)

			err := repository.NewCouponRepository(mockDB, discardLogger).Create(ctx, c)

			if tc.expectKind != "" {
				assert.True(t, infra.IsKind(err, tc.expectKind))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCouponRepository_ConsumeUse(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	testCases := []struct {
		name       string
		affected   string
		exists     *bool
		expectOK   bool
		expectKind infra.RepositoryErrorKind
	}{
		{name: "success: a use was taken", affected: "UPDATE 1", expectOK: true},
		{name: "exhausted: coupon exists but has no uses left", affected: "UPDATE 0", exists: boolPtr(true)},
		{name: "error: coupon vanished", affected: "UPDATE 0", exists: boolPtr(false), expectKind: infra.KindNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockDB := dbmock.NewMockDBTX(ctrl)
			mockDB.EXPECT().Exec(ctx, gomock.Any(), id).Return(pgconn.NewCommandTag(tc.affected), nil)
			if tc.exists != nil {
				mockDB.EXPECT().QueryRow(ctx, gomock.Any(), id).Return(stubRow{values: []any{*tc.exists}})
			}

			ok, err := repository.NewCouponRepository(mockDB, discardLogger).ConsumeUse(ctx, id)

			if tc.expectKind != "" {
				assert.True(t, infra.IsKind(err, tc.expectKind))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectOK, ok)
		})
	}
}

func boolPtr(b bool) *bool { return &b }
