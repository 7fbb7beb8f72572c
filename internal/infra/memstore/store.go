// Package memstore is the in-memory persistence backend. Every read-write
// unit of work runs under one store-wide lock against a private copy of the
// state that replaces the shared state only on success.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sync"

	"handicraft-store/internal/domain/cart"
	"handicraft-store/internal/domain/coupon"
	"handicraft-store/internal/domain/loyalty"
	"handicraft-store/internal/infra"
	"handicraft-store/internal/usecase/shared"

	"github.com/google/uuid"
)

var errReadOnly = infra.NewRepoErr(infra.KindConflict, "write attempted in read-only unit of work")

type state struct {
	carts     map[uuid.UUID]cartRecord
	coupons   map[coupon.Code]couponRecord
	orders    map[uuid.UUID]orderRecord
	orderIDs  []uuid.UUID
	accounts  map[uuid.UUID]accountRecord
	rewards   map[uuid.UUID]*loyalty.Reward
	rewardIDs []uuid.UUID
	jobs      map[uuid.UUID]shared.NotificationJob
	jobIDs    []uuid.UUID
	idemKeys  map[idemKey]shared.IdempotencyKey
}

type idemKey struct {
	key    uuid.UUID
	userID uuid.UUID
}

func newState() *state {
	return &state{
		carts:    make(map[uuid.UUID]cartRecord),
		coupons:  make(map[coupon.Code]couponRecord),
		orders:   make(map[uuid.UUID]orderRecord),
		accounts: make(map[uuid.UUID]accountRecord),
		rewards:  make(map[uuid.UUID]*loyalty.Reward),
		jobs:     make(map[uuid.UUID]shared.NotificationJob),
		idemKeys: make(map[idemKey]shared.IdempotencyKey),
	}
}

// clone is shallow: records are values whose slices are never written in place.
func (s *state) clone() *state {
	return &state{
		carts:     maps.Clone(s.carts),
		coupons:   maps.Clone(s.coupons),
		orders:    maps.Clone(s.orders),
		orderIDs:  slices.Clone(s.orderIDs),
		accounts:  maps.Clone(s.accounts),
		rewards:   maps.Clone(s.rewards),
		rewardIDs: slices.Clone(s.rewardIDs),
		jobs:      maps.Clone(s.jobs),
		jobIDs:    slices.Clone(s.jobIDs),
		idemKeys:  maps.Clone(s.idemKeys),
	}
}

type Store struct {
	mu       sync.RWMutex
	st       *state
	products map[cart.LineKey]shared.CatalogPrice
}

func NewStore() *Store {
	return &Store{
		st:       newState(),
		products: make(map[cart.LineKey]shared.CatalogPrice),
	}
}

func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(ctx, &memTx{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) WithinReadOnly(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx, &memTx{st: s.st, readOnly: true})
}

type memTx struct {
	st       *state
	readOnly bool
}

func (t *memTx) Carts() shared.CartRepository                  { return &cartRepo{t} }
func (t *memTx) Coupons() shared.CouponRepository              { return &couponRepo{t} }
func (t *memTx) Orders() shared.OrderRepository                { return &orderRepo{t} }
func (t *memTx) Loyalty() shared.LoyaltyRepository             { return &loyaltyRepo{t} }
func (t *memTx) Rewards() shared.RewardRepository              { return &rewardRepo{t} }
func (t *memTx) Notifications() shared.NotificationRepository  { return &notificationRepo{t} }
func (t *memTx) IdempotencyKeys() shared.IdempotencyRepository { return &idempotencyRepo{t} }

func (t *memTx) writable() error {
	if t.readOnly {
		return errReadOnly
	}
	return nil
}

func notFound(msg string) error {
	return infra.NewRepoErr(infra.KindNotFound, msg)
}
