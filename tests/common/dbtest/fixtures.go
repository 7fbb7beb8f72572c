//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"handicraft-store/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Demo catalog ids, matching the seed migration.
var (
	MochilaID = uuid.MustParse("6f1c1b7e-2d47-4c8e-9a51-0b3f2a6d1c01")
	PotID     = uuid.MustParse("6f1c1b7e-2d47-4c8e-9a51-0b3f2a6d1c02")
	HatID     = uuid.MustParse("6f1c1b7e-2d47-4c8e-9a51-0b3f2a6d1c03")
)

const seedCatalogSQL = `
INSERT INTO products (id, name, base_price) VALUES
    ('6f1c1b7e-2d47-4c8e-9a51-0b3f2a6d1c01', 'Wayuu mochila', 180000),
    ('6f1c1b7e-2d47-4c8e-9a51-0b3f2a6d1c02', 'Ráquira clay pot', 50000),
    ('6f1c1b7e-2d47-4c8e-9a51-0b3f2a6d1c03', 'Sombrero vueltiao', 120000)
ON CONFLICT (id) DO NOTHING;

INSERT INTO product_variants (product_id, variant_id, price_modifier) VALUES
    ('6f1c1b7e-2d47-4c8e-9a51-0b3f2a6d1c01', 'small', -30000),
    ('6f1c1b7e-2d47-4c8e-9a51-0b3f2a6d1c01', 'large', 45000),
    ('6f1c1b7e-2d47-4c8e-9a51-0b3f2a6d1c03', '15-vueltas', 0),
    ('6f1c1b7e-2d47-4c8e-9a51-0b3f2a6d1c03', '21-vueltas', 60000)
ON CONFLICT (product_id, variant_id) DO NOTHING;
`

func CreateTestCoupon(t *testing.T, q db.DBTX, code, kind string, value, minPurchase int64, usesRemaining *int) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := q.Exec(context.Background(),
		`INSERT INTO coupons (id, code, kind, value, min_purchase, expires_at, uses_remaining, created_at)
		 VALUES ($1, $2, $3, $4::numeric, $5::numeric, NULL, $6, now())`,
		id, code, kind, decimal.NewFromInt(value).String(), decimal.NewFromInt(minPurchase).String(), usesRemaining)
	require.NoError(t, err)
	return id
}

// CreateLoyaltyAccount stores an account balance without history entries.
func CreateLoyaltyAccount(t *testing.T, q db.DBTX, userID uuid.UUID, points int64) {
	t.Helper()

	_, err := q.Exec(context.Background(),
		`INSERT INTO loyalty_accounts (user_id, total_points, created_at, updated_at)
		 VALUES ($1, $2, now(), now())`,
		userID, points)
	require.NoError(t, err)
}

func CountNotifications(t *testing.T, q db.DBTX, kind string) int {
	t.Helper()

	var n int
	err := q.QueryRow(context.Background(),
		"SELECT count(*) FROM notification_jobs WHERE kind = $1", kind).Scan(&n)
	require.NoError(t, err)
	return n
}

// SeedReferenceData inserts the catalog every test relies on.
func SeedReferenceData(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := pool.Exec(ctx, seedCatalogSQL)
	return err
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// ResetDB truncates all tables and reseeds reference data.
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}

	return SeedReferenceData(pool)
}
