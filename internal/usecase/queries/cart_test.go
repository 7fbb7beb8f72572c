//go:build unit

package queries_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"handicraft-store/internal/domain/pricing"
	"handicraft-store/internal/infra/cache"
	"handicraft-store/internal/infra/memstore"
	"handicraft-store/internal/pkg/clock"
	"handicraft-store/internal/usecase/commands"
	"handicraft-store/internal/usecase/queries"
	"handicraft-store/internal/usecase/shared"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var potID = uuid.MustParse("6f1c1b7e-2d47-4c8e-9a51-0b3f2a6d1c02")

// hookedUoW runs afterRead once, right after the first read-only unit of work
// returns and before the caller continues.
type hookedUoW struct {
	shared.UnitOfWork
	once      sync.Once
	afterRead func(ctx context.Context)
}

func (u *hookedUoW) WithinReadOnly(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	err := u.UnitOfWork.WithinReadOnly(ctx, fn)
	if u.afterRead != nil {
		u.once.Do(func() { u.afterRead(ctx) })
	}
	return err
}

type cartEnv struct {
	store  *memstore.Store
	clock  *clock.MockClock
	logger *slog.Logger
	pipe   *pricing.Pipeline
}

func newCartEnv(t *testing.T) cartEnv {
	t.Helper()
	store := memstore.NewStore()
	for _, p := range memstore.DemoProducts() {
		store.AddProduct(p)
	}
	pipe, err := pricing.NewPipeline(pricing.Config{
		TaxRate:     decimal.RequireFromString("0.19"),
		ShippingFee: decimal.NewFromInt(15000),
	})
	require.NoError(t, err)
	return cartEnv{
		store:  store,
		clock:  clock.NewMockClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		pipe:   pipe,
	}
}

func TestGetCart_WriteBetweenReadAndFillIsNotCached(t *testing.T) {
	env := newCartEnv(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cartCache := cache.NewRedisCartCache(client, 10*time.Minute, 0)

	cartCmds := commands.NewCartUseCase(env.store, env.store, cartCache, env.clock, env.logger)
	userID := uuid.New()
	ctx := context.Background()
	_, err := cartCmds.AddLine(ctx, userID, commands.AddLineRequest{ProductID: potID, Quantity: 1})
	require.NoError(t, err)

	uow := &hookedUoW{UnitOfWork: env.store}
	uow.afterRead = func(ctx context.Context) {
		// runs on the shared read goroutine, so no FailNow here
		_, err := cartCmds.AddLine(ctx, userID, commands.AddLineRequest{ProductID: potID, Quantity: 2})
		assert.NoError(t, err)
	}
	q := queries.NewCartQueries(uow, cartCache, env.pipe, env.clock, env.logger)

	first, err := q.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.ItemCount, "the racing read returns its own snapshot")
	assert.False(t, mr.Exists("cart:"+userID.String()), "the stale snapshot must not be cached")

	second, err := q.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, second.ItemCount)
	assert.True(t, mr.Exists("cart:"+userID.String()))

	cached, err := q.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, cached.ItemCount)
}

// blockingUoW holds the first read until release is closed and records
// whether that read's context was still live when it finished.
type blockingUoW struct {
	shared.UnitOfWork
	entered  chan struct{}
	release  chan struct{}
	once     sync.Once
	mu       sync.Mutex
	firstErr error
}

func (u *blockingUoW) WithinReadOnly(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	first := false
	u.once.Do(func() { first = true })
	if first {
		close(u.entered)
		<-u.release
		u.mu.Lock()
		u.firstErr = ctx.Err()
		u.mu.Unlock()
	}
	return u.UnitOfWork.WithinReadOnly(ctx, fn)
}

func TestGetCart_CancelledCallerDoesNotFailSharedRead(t *testing.T) {
	env := newCartEnv(t)
	cartCmds := commands.NewCartUseCase(env.store, env.store, cache.NoopCartCache{}, env.clock, env.logger)
	userID := uuid.New()
	_, err := cartCmds.AddLine(context.Background(), userID, commands.AddLineRequest{ProductID: potID, Quantity: 2})
	require.NoError(t, err)

	uow := &blockingUoW{UnitOfWork: env.store, entered: make(chan struct{}), release: make(chan struct{})}
	q := queries.NewCartQueries(uow, cache.NoopCartCache{}, env.pipe, env.clock, env.logger)

	cancelCtx, cancel := context.WithCancel(context.Background())
	cancelledErr := make(chan error, 1)
	go func() {
		_, err := q.GetCart(cancelCtx, userID)
		cancelledErr <- err
	}()
	<-uow.entered

	type result struct {
		view *queries.CartView
		err  error
	}
	other := make(chan result, 1)
	go func() {
		v, err := q.GetCart(context.Background(), userID)
		other <- result{v, err}
	}()

	cancel()
	require.ErrorIs(t, <-cancelledErr, context.Canceled)

	close(uow.release)
	res := <-other
	require.NoError(t, res.err)
	assert.Equal(t, 2, res.view.ItemCount)

	uow.mu.Lock()
	defer uow.mu.Unlock()
	assert.NoError(t, uow.firstErr)
}

func TestGetCart_VariantOnlyForNonDefaultLines(t *testing.T) {
	env := newCartEnv(t)
	cartCmds := commands.NewCartUseCase(env.store, env.store, cache.NoopCartCache{}, env.clock, env.logger)
	userID := uuid.New()
	ctx := context.Background()
	mochilaID := uuid.MustParse("6f1c1b7e-2d47-4c8e-9a51-0b3f2a6d1c01")
	_, err := cartCmds.AddLine(ctx, userID, commands.AddLineRequest{ProductID: potID, Quantity: 1})
	require.NoError(t, err)
	_, err = cartCmds.AddLine(ctx, userID, commands.AddLineRequest{ProductID: mochilaID, VariantID: "large", Quantity: 1})
	require.NoError(t, err)

	q := queries.NewCartQueries(env.store, cache.NoopCartCache{}, env.pipe, env.clock, env.logger)
	view, err := q.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)

	variants := map[uuid.UUID]*string{}
	for _, l := range view.Lines {
		variants[l.ProductID] = l.VariantID
	}
	assert.Nil(t, variants[potID])
	require.NotNil(t, variants[mochilaID])
	assert.Equal(t, "large", *variants[mochilaID])
}

func TestQuote_ExposesTaxRate(t *testing.T) {
	env := newCartEnv(t)
	cartCmds := commands.NewCartUseCase(env.store, env.store, cache.NoopCartCache{}, env.clock, env.logger)
	userID := uuid.New()
	ctx := context.Background()
	_, err := cartCmds.AddLine(ctx, userID, commands.AddLineRequest{ProductID: potID, Quantity: 2})
	require.NoError(t, err)

	q := queries.NewCartQueries(env.store, cache.NoopCartCache{}, env.pipe, env.clock, env.logger)
	quote, err := q.Quote(ctx, userID)
	require.NoError(t, err)
	assert.True(t, quote.TaxRate.Equal(decimal.RequireFromString("0.19")))
	assert.True(t, quote.Pricing.Tax.Equal(decimal.NewFromInt(19000)), quote.Pricing.Tax.String())
}
