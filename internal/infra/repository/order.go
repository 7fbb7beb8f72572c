package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"handicraft-store/internal/domain/order"
	"handicraft-store/internal/domain/pricing"
	"handicraft-store/internal/infra"
	"handicraft-store/internal/infra/db"
	"handicraft-store/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const (
	orderColumns = `
id, user_id, status,
subtotal::text, coupon_discount::text, cart_discount::text, discount::text,
subtotal_after_discount::text, shipping::text, tax::text, total::text,
coupon_code, shipping_address, payment_method, points_awarded, created_at, updated_at`

	selectOrderByID = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	selectOrderByIDForUpdate = selectOrderByID + ` FOR UPDATE`

	selectOrdersByUser = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`

	selectOrderLines = `
SELECT order_id, product_id, variant_id, unit_base_price::text, variant_modifier::text, quantity
FROM order_lines WHERE order_id = ANY($1) ORDER BY order_id, position`

	insertOrder = `
INSERT INTO orders (
    id, user_id, status,
    subtotal, coupon_discount, cart_discount, discount,
    subtotal_after_discount, shipping, tax, total,
    coupon_code, shipping_address, payment_method, points_awarded, created_at, updated_at
) VALUES (
    $1, $2, $3,
    $4::numeric, $5::numeric, $6::numeric, $7::numeric,
    $8::numeric, $9::numeric, $10::numeric, $11::numeric,
    $12, $13, $14, $15, $16, $17
)`

	insertOrderLine = `
INSERT INTO order_lines (order_id, position, product_id, variant_id, unit_base_price, variant_modifier, quantity)
VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7)`

	// Lines and pricing are immutable once placed.
	updateOrder = `UPDATE orders SET status = $2, points_awarded = $3, updated_at = $4 WHERE id = $1`

	selectStatusTotals = `
SELECT status, count(*), COALESCE(sum(total), 0)::text
FROM orders GROUP BY status`
)

type OrderRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewOrderRepository(dbtx db.DBTX, logger *slog.Logger) *OrderRepository {
	return &OrderRepository{db: dbtx, logger: logger}
}

func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.findOne(ctx, selectOrderByID, id)
}

func (r *OrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.findOne(ctx, selectOrderByIDForUpdate, id)
}

func (r *OrderRepository) findOne(ctx context.Context, query string, id uuid.UUID) (*order.Order, error) {
	row, err := scanOrderRow(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "order not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to find order", err)
	}

	lines, err := r.findLines(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	return row.toDomain(lines[id]), nil
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	address, err := json.Marshal(o.ShippingAddress())
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to encode shipping address", err)
	}

	p := o.Pricing()
	if _, err := r.db.Exec(ctx, insertOrder,
		o.ID(), o.UserID(), string(o.Status()),
		p.Subtotal.String(), p.CouponDiscount.String(), p.CartDiscount.String(), p.Discount.String(),
		p.SubtotalAfterDiscount.String(), p.Shipping.String(), p.Tax.String(), p.Total.String(),
		pgconv.StringPtrToPgtype(o.CouponCode()), address, string(o.PaymentMethod()), o.PointsAwarded(),
		o.CreatedAt(), o.UpdatedAt(),
	); err != nil {
		if pgconv.IsUniqueViolation(err) {
			return infra.WrapRepoErr(r.logger, infra.KindDuplicateKey, "order already exists", err)
		}
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to create order", err)
	}

	for i, l := range o.Lines() {
		if _, err := r.db.Exec(ctx, insertOrderLine,
			o.ID(), i, l.ProductID, l.VariantID,
			l.UnitBasePrice.String(), l.VariantModifier.String(), l.Quantity,
		); err != nil {
			return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to create order line", err)
		}
	}
	return nil
}

func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	tag, err := r.db.Exec(ctx, updateOrder, o.ID(), string(o.Status()), o.PointsAwarded(), o.UpdatedAt())
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to update order", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindNotFound, "order not found")
	}
	return nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*order.Order, error) {
	rows, err := r.db.Query(ctx, selectOrdersByUser, userID)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to list orders", err)
	}
	orderRows, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*orderRow, error) {
		return scanOrderRow(row)
	})
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan orders", err)
	}
	if len(orderRows) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(orderRows))
	for i, row := range orderRows {
		ids[i] = row.id
	}
	lines, err := r.findLines(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*order.Order, len(orderRows))
	for i, row := range orderRows {
		out[i] = row.toDomain(lines[row.id])
	}
	return out, nil
}

func (r *OrderRepository) StatusTotals(ctx context.Context) ([]order.StatusTotal, error) {
	rows, err := r.db.Query(ctx, selectStatusTotals)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to aggregate orders", err)
	}
	defer rows.Close()

	var out []order.StatusTotal
	for rows.Next() {
		var (
			status  string
			count   int
			revenue decimal.Decimal
		)
		revenueCol := numeric(&revenue)
		if err := rows.Scan(&status, &count, &revenueCol.raw); err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan order totals", err)
		}
		if err := decodeNumerics(revenueCol); err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to decode order totals", err)
		}
		out = append(out, order.StatusTotal{Status: order.Status(status), Count: count, Revenue: revenue})
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to read order totals", err)
	}
	return out, nil
}

func (r *OrderRepository) findLines(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]order.Line, error) {
	rows, err := r.db.Query(ctx, selectOrderLines, orderIDs)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to query order lines", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]order.Line, len(orderIDs))
	for rows.Next() {
		var (
			orderID uuid.UUID
			line    order.Line
		)
		base, modifier := numeric(&line.UnitBasePrice), numeric(&line.VariantModifier)
		if err := rows.Scan(&orderID, &line.ProductID, &line.VariantID, &base.raw, &modifier.raw, &line.Quantity); err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan order line", err)
		}
		if err := decodeNumerics(base, modifier); err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to decode order line", err)
		}
		out[orderID] = append(out[orderID], line)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to read order lines", err)
	}
	return out, nil
}

type orderRow struct {
	id            uuid.UUID
	userID        uuid.UUID
	status        string
	pricing       pricing.Result
	couponCode    pgtype.Text
	address       order.Address
	payment       string
	pointsAwarded bool
	createdAt     time.Time
	updatedAt     time.Time
}

func scanOrderRow(row pgx.Row) (*orderRow, error) {
	var (
		o       orderRow
		address []byte
	)
	p := &o.pricing
	money := []*numericText{
		numeric(&p.Subtotal), numeric(&p.CouponDiscount), numeric(&p.CartDiscount), numeric(&p.Discount),
		numeric(&p.SubtotalAfterDiscount), numeric(&p.Shipping), numeric(&p.Tax), numeric(&p.Total),
	}
	if err := row.Scan(
		&o.id, &o.userID, &o.status,
		&money[0].raw, &money[1].raw, &money[2].raw, &money[3].raw,
		&money[4].raw, &money[5].raw, &money[6].raw, &money[7].raw,
		&o.couponCode, &address, &o.payment, &o.pointsAwarded, &o.createdAt, &o.updatedAt,
	); err != nil {
		return nil, err
	}
	if err := decodeNumerics(money...); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(address, &o.address); err != nil {
		return nil, err
	}
	return &o, nil
}

func (o *orderRow) toDomain(lines []order.Line) *order.Order {
	return order.ReconstructOrder(
		o.id, o.userID, lines, o.pricing,
		pgconv.StringPtrFromPgtype(o.couponCode),
		order.Status(o.status), o.address, order.PaymentMethod(o.payment),
		o.pointsAwarded, o.createdAt, o.updatedAt,
	)
}
