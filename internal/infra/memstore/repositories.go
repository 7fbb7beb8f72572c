package memstore

import (
	"context"
	"slices"
	"time"

	"handicraft-store/internal/domain/cart"
	"handicraft-store/internal/domain/coupon"
	"handicraft-store/internal/domain/loyalty"
	"handicraft-store/internal/domain/order"
	"handicraft-store/internal/domain/pricing"
	"handicraft-store/internal/infra"
	"handicraft-store/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type cartRecord struct {
	lines           []cart.LineItem
	couponCode      *string
	discountPercent *decimal.Decimal
	updatedAt       time.Time
}

type cartRepo struct{ tx *memTx }

func (r *cartRepo) FindByUser(_ context.Context, userID uuid.UUID) (*cart.Cart, error) {
	rec, ok := r.tx.st.carts[userID]
	if !ok {
		return nil, notFound("cart not found")
	}
	return cart.ReconstructCart(userID, rec.lines, rec.couponCode, rec.discountPercent, rec.updatedAt), nil
}

func (r *cartRepo) Save(_ context.Context, c *cart.Cart) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	var pct *decimal.Decimal
	if d := c.DiscountPercent(); !d.IsZero() {
		pct = &d
	}
	r.tx.st.carts[c.OwnerID()] = cartRecord{
		lines:           c.Lines(),
		couponCode:      c.CouponCode(),
		discountPercent: pct,
		updatedAt:       c.UpdatedAt(),
	}
	return nil
}

func (r *cartRepo) Delete(_ context.Context, userID uuid.UUID) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	if _, ok := r.tx.st.carts[userID]; !ok {
		return notFound("cart not found")
	}
	delete(r.tx.st.carts, userID)
	return nil
}

type couponRecord struct {
	id            uuid.UUID
	discount      coupon.Discount
	minPurchase   decimal.Decimal
	expiresAt     *time.Time
	usesRemaining *int
	createdAt     time.Time
}

type couponRepo struct{ tx *memTx }

func (r *couponRepo) FindByCode(_ context.Context, code coupon.Code) (*coupon.Coupon, error) {
	rec, ok := r.tx.st.coupons[code]
	if !ok {
		return nil, notFound("coupon not found")
	}
	return toCoupon(code, rec), nil
}

func (r *couponRepo) Create(_ context.Context, c *coupon.Coupon) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	if _, exists := r.tx.st.coupons[c.Code()]; exists {
		return infra.NewRepoErr(infra.KindDuplicateKey, "coupon code already exists")
	}
	r.tx.st.coupons[c.Code()] = couponRecord{
		id:            c.ID(),
		discount:      c.Discount(),
		minPurchase:   c.MinPurchase(),
		expiresAt:     c.ExpiresAt(),
		usesRemaining: copyInt(c.UsesRemaining()),
		createdAt:     c.CreatedAt(),
	}
	return nil
}

func (r *couponRepo) ConsumeUse(_ context.Context, id uuid.UUID) (bool, error) {
	if err := r.tx.writable(); err != nil {
		return false, err
	}
	for code, rec := range r.tx.st.coupons {
		if rec.id != id {
			continue
		}
		if rec.usesRemaining == nil {
			return true, nil
		}
		if *rec.usesRemaining <= 0 {
			return false, nil
		}
		left := *rec.usesRemaining - 1
		rec.usesRemaining = &left
		r.tx.st.coupons[code] = rec
		return true, nil
	}
	return false, notFound("coupon not found")
}

func (r *couponRepo) List(_ context.Context) ([]*coupon.Coupon, error) {
	out := make([]*coupon.Coupon, 0, len(r.tx.st.coupons))
	for code, rec := range r.tx.st.coupons {
		out = append(out, toCoupon(code, rec))
	}
	slices.SortFunc(out, func(a, b *coupon.Coupon) int { return a.CreatedAt().Compare(b.CreatedAt()) })
	return out, nil
}

func toCoupon(code coupon.Code, rec couponRecord) *coupon.Coupon {
	return coupon.ReconstructCoupon(rec.id, code, rec.discount, rec.minPurchase, rec.expiresAt, copyInt(rec.usesRemaining), rec.createdAt)
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

type orderRecord struct {
	id            uuid.UUID
	userID        uuid.UUID
	lines         []order.Line
	pricing       pricing.Result
	couponCode    *string
	status        order.Status
	address       order.Address
	payment       order.PaymentMethod
	pointsAwarded bool
	createdAt     time.Time
	updatedAt     time.Time
}

func (rec orderRecord) toDomain() *order.Order {
	return order.ReconstructOrder(rec.id, rec.userID, slices.Clone(rec.lines), rec.pricing, rec.couponCode,
		rec.status, rec.address, rec.payment, rec.pointsAwarded, rec.createdAt, rec.updatedAt)
}

func toOrderRecord(o *order.Order) orderRecord {
	return orderRecord{
		id:            o.ID(),
		userID:        o.UserID(),
		lines:         o.Lines(),
		pricing:       o.Pricing(),
		couponCode:    o.CouponCode(),
		status:        o.Status(),
		address:       o.ShippingAddress(),
		payment:       o.PaymentMethod(),
		pointsAwarded: o.PointsAwarded(),
		createdAt:     o.CreatedAt(),
		updatedAt:     o.UpdatedAt(),
	}
}

type orderRepo struct{ tx *memTx }

func (r *orderRepo) FindByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	rec, ok := r.tx.st.orders[id]
	if !ok {
		return nil, notFound("order not found")
	}
	return rec.toDomain(), nil
}

// FindByIDForUpdate needs no row lock: the unit of work already holds the store lock.
func (r *orderRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *orderRepo) Create(_ context.Context, o *order.Order) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	if _, exists := r.tx.st.orders[o.ID()]; exists {
		return infra.NewRepoErr(infra.KindDuplicateKey, "order already exists")
	}
	r.tx.st.orders[o.ID()] = toOrderRecord(o)
	r.tx.st.orderIDs = append(r.tx.st.orderIDs, o.ID())
	return nil
}

func (r *orderRepo) Update(_ context.Context, o *order.Order) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	if _, ok := r.tx.st.orders[o.ID()]; !ok {
		return notFound("order not found")
	}
	r.tx.st.orders[o.ID()] = toOrderRecord(o)
	return nil
}

// ListByUser returns newest first.
func (r *orderRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*order.Order, error) {
	var out []*order.Order
	for i := len(r.tx.st.orderIDs) - 1; i >= 0; i-- {
		rec := r.tx.st.orders[r.tx.st.orderIDs[i]]
		if rec.userID == userID {
			out = append(out, rec.toDomain())
		}
	}
	return out, nil
}

func (r *orderRepo) StatusTotals(_ context.Context) ([]order.StatusTotal, error) {
	orders := make([]*order.Order, 0, len(r.tx.st.orderIDs))
	for _, id := range r.tx.st.orderIDs {
		orders = append(orders, r.tx.st.orders[id].toDomain())
	}
	byStatus := make(map[order.Status]*order.StatusTotal)
	for _, o := range orders {
		t, ok := byStatus[o.Status()]
		if !ok {
			t = &order.StatusTotal{Status: o.Status(), Revenue: decimal.Zero}
			byStatus[o.Status()] = t
		}
		t.Count++
		t.Revenue = t.Revenue.Add(o.Pricing().Total)
	}
	out := make([]order.StatusTotal, 0, len(byStatus))
	for _, s := range order.Statuses {
		if t, ok := byStatus[s]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

type accountRecord struct {
	totalPoints int64
	history     []loyalty.PointEntry
	createdAt   time.Time
	updatedAt   time.Time
}

type loyaltyRepo struct{ tx *memTx }

func (r *loyaltyRepo) FindByUser(_ context.Context, userID uuid.UUID) (*loyalty.Account, error) {
	rec, ok := r.tx.st.accounts[userID]
	if !ok {
		return nil, notFound("loyalty account not found")
	}
	return loyalty.ReconstructAccount(userID, rec.totalPoints, rec.history, rec.createdAt, rec.updatedAt), nil
}

func (r *loyaltyRepo) FindForUpdate(ctx context.Context, userID uuid.UUID) (*loyalty.Account, error) {
	return r.FindByUser(ctx, userID)
}

func (r *loyaltyRepo) EnsureForUpdate(ctx context.Context, userID uuid.UUID, now time.Time) (*loyalty.Account, error) {
	if err := r.tx.writable(); err != nil {
		return nil, err
	}
	if _, ok := r.tx.st.accounts[userID]; !ok {
		r.tx.st.accounts[userID] = accountRecord{createdAt: now, updatedAt: now}
	}
	return r.FindByUser(ctx, userID)
}

func (r *loyaltyRepo) Save(_ context.Context, a *loyalty.Account) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	prev := r.tx.st.accounts[a.UserID()]
	createdAt := prev.createdAt
	if createdAt.IsZero() {
		createdAt = a.CreatedAt()
	}
	r.tx.st.accounts[a.UserID()] = accountRecord{
		totalPoints: a.TotalPoints(),
		history:     slices.Concat(prev.history, a.PendingEntries()),
		createdAt:   createdAt,
		updatedAt:   a.UpdatedAt(),
	}
	a.MarkPersisted()
	return nil
}

type rewardRepo struct{ tx *memTx }

func (r *rewardRepo) FindByID(_ context.Context, id uuid.UUID) (*loyalty.Reward, error) {
	rw, ok := r.tx.st.rewards[id]
	if !ok {
		return nil, notFound("reward not found")
	}
	return rw, nil
}

func (r *rewardRepo) Create(_ context.Context, rw *loyalty.Reward) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	if _, exists := r.tx.st.rewards[rw.ID()]; exists {
		return infra.NewRepoErr(infra.KindDuplicateKey, "reward already exists")
	}
	r.tx.st.rewards[rw.ID()] = rw
	r.tx.st.rewardIDs = append(r.tx.st.rewardIDs, rw.ID())
	return nil
}

func (r *rewardRepo) List(_ context.Context) ([]*loyalty.Reward, error) {
	out := make([]*loyalty.Reward, 0, len(r.tx.st.rewardIDs))
	for _, id := range r.tx.st.rewardIDs {
		out = append(out, r.tx.st.rewards[id])
	}
	return out, nil
}

type notificationRepo struct{ tx *memTx }

func (r *notificationRepo) Enqueue(_ context.Context, job shared.NotificationJob) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	r.tx.st.jobs[job.ID] = job
	r.tx.st.jobIDs = append(r.tx.st.jobIDs, job.ID)
	return nil
}

func (r *notificationRepo) ClaimPending(_ context.Context, limit int, now, leaseUntil time.Time) ([]shared.NotificationJob, error) {
	if err := r.tx.writable(); err != nil {
		return nil, err
	}
	var due []shared.NotificationJob
	for _, id := range r.tx.st.jobIDs {
		job := r.tx.st.jobs[id]
		if job.Status == shared.JobStatusPending && !job.RunAt.After(now) {
			due = append(due, job)
		}
	}
	slices.SortStableFunc(due, func(a, b shared.NotificationJob) int {
		return a.RunAt.Compare(b.RunAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}
	for i := range due {
		due[i].RunAt = leaseUntil
		r.tx.st.jobs[due[i].ID] = due[i]
	}
	return due, nil
}

func (r *notificationRepo) MarkSent(_ context.Context, id uuid.UUID, at time.Time) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	job, ok := r.tx.st.jobs[id]
	if !ok {
		return notFound("notification job not found")
	}
	job.Status = shared.JobStatusSent
	job.Attempts++
	job.SentAt = &at
	r.tx.st.jobs[id] = job
	return nil
}

func (r *notificationRepo) MarkFailed(_ context.Context, id uuid.UUID, lastError string, retryAt time.Time) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	job, ok := r.tx.st.jobs[id]
	if !ok {
		return notFound("notification job not found")
	}
	job.Attempts++
	job.LastError = &lastError
	job.RunAt = retryAt
	r.tx.st.jobs[id] = job
	return nil
}

// Jobs returns every notification job in enqueue order.
func (s *Store) Jobs() []shared.NotificationJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]shared.NotificationJob, 0, len(s.st.jobIDs))
	for _, id := range s.st.jobIDs {
		out = append(out, s.st.jobs[id])
	}
	return out
}

type idempotencyRepo struct{ tx *memTx }

func (r *idempotencyRepo) Find(_ context.Context, key, userID uuid.UUID, now time.Time) (*shared.IdempotencyKey, error) {
	rec, ok := r.tx.st.idemKeys[idemKey{key: key, userID: userID}]
	if !ok || !rec.ExpiresAt.After(now) {
		return nil, notFound("idempotency key not found")
	}
	return &rec, nil
}

func (r *idempotencyRepo) Create(_ context.Context, k shared.IdempotencyKey) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	id := idemKey{key: k.Key, userID: k.UserID}
	if prev, exists := r.tx.st.idemKeys[id]; exists && prev.ExpiresAt.After(k.CreatedAt) {
		return infra.NewRepoErr(infra.KindDuplicateKey, "idempotency key already exists")
	}
	r.tx.st.idemKeys[id] = k
	return nil
}

func (r *idempotencyRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	if err := r.tx.writable(); err != nil {
		return 0, err
	}
	var n int64
	for id, rec := range r.tx.st.idemKeys {
		if !rec.ExpiresAt.After(now) {
			delete(r.tx.st.idemKeys, id)
			n++
		}
	}
	return n, nil
}
