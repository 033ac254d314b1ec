package seckill

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/seckill/cache"
	"github.com/ceyewan/seckill/db"
	"github.com/ceyewan/seckill/dlock"
	"github.com/ceyewan/seckill/idgen"
	"github.com/ceyewan/seckill/testkit"
)

type serviceFixture struct {
	svc   *Service
	store *Store
	stock *StockStore
	db    db.DB
}

func newServiceFixture(t *testing.T) *serviceFixture {
	redisConn := testkit.GetRedisConnector(t)
	sqliteConn := testkit.GetSQLiteConnector(t)
	logger := testkit.NewLogger()
	ns := testkit.NewID()

	database, err := db.New(&db.Config{Driver: "sqlite"},
		db.WithSQLiteConnector(sqliteConn), db.WithLogger(logger))
	require.NoError(t, err)

	c, err := cache.New(&cache.Config{Prefix: "test:" + ns + ":"},
		cache.WithRedisConnector(redisConn), cache.WithLogger(logger))
	require.NoError(t, err)

	store, err := NewStore(database, c, logger)
	require.NoError(t, err)
	require.NoError(t, store.Migrate())

	stock := NewStockStore(redisConn, "test:stock:"+ns+":")

	locker, err := dlock.New(&dlock.Config{
		Driver:     dlock.DriverRedis,
		Prefix:     "test:lock:" + ns + ":",
		DefaultTTL: 10 * time.Second,
	}, dlock.WithRedisConnector(redisConn), dlock.WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = locker.Close() })

	gen, err := idgen.New(redisConn, "test:icr:"+ns)
	require.NoError(t, err)

	svc, err := NewService(store, stock, locker, gen,
		WithServiceLogger(logger),
		WithMetrics(NewMetrics(prometheus.NewRegistry())))
	require.NoError(t, err)

	return &serviceFixture{svc: svc, store: store, stock: stock, db: database}
}

func (f *serviceFixture) createVoucher(t *testing.T, stock int, begin, end time.Time) int64 {
	ctx, cancel := testkit.NewContext(t, 10*time.Second)
	defer cancel()

	v := &Voucher{
		Title:     "test voucher",
		Stock:     stock,
		BeginTime: begin,
		EndTime:   end,
	}
	require.NoError(t, f.svc.CreateVoucher(ctx, v))
	return v.ID
}

func (f *serviceFixture) countOrders(t *testing.T, voucherID int64) int64 {
	ctx, cancel := testkit.NewContext(t, 10*time.Second)
	defer cancel()

	var count int64
	require.NoError(t, f.db.DB(ctx).Model(&VoucherOrder{}).
		Where("voucher_id = ?", voucherID).Count(&count).Error)
	return count
}

func TestPurchase_Success(t *testing.T) {
	f := newServiceFixture(t)
	now := time.Now()
	voucherID := f.createVoucher(t, 10, now.Add(-time.Hour), now.Add(time.Hour))

	ctx, cancel := testkit.NewContext(t, 10*time.Second)
	defer cancel()

	order, err := f.svc.Purchase(ctx, voucherID, 1001)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.NotZero(t, order.ID)
	assert.Equal(t, voucherID, order.VoucherID)
	assert.Equal(t, int64(1001), order.UserID)
	assert.Equal(t, OrderStatusUnpaid, order.Status)

	remaining, err := f.stock.Remaining(ctx, voucherID)
	require.NoError(t, err)
	assert.Equal(t, 9, remaining)
	assert.Equal(t, int64(1), f.countOrders(t, voucherID))
}

func TestPurchase_SaleWindow(t *testing.T) {
	f := newServiceFixture(t)
	now := time.Now()

	ctx, cancel := testkit.NewContext(t, 10*time.Second)
	defer cancel()

	pending := f.createVoucher(t, 10, now.Add(time.Hour), now.Add(2*time.Hour))
	_, err := f.svc.Purchase(ctx, pending, 1001)
	assert.ErrorIs(t, err, ErrNotStarted)

	closed := f.createVoucher(t, 10, now.Add(-2*time.Hour), now.Add(-time.Hour))
	_, err = f.svc.Purchase(ctx, closed, 1001)
	assert.ErrorIs(t, err, ErrEnded)

	// 窗口外的失败不消耗库存
	remaining, err := f.stock.Remaining(ctx, pending)
	require.NoError(t, err)
	assert.Equal(t, 10, remaining)
}

func TestPurchase_VoucherNotFound(t *testing.T) {
	f := newServiceFixture(t)

	ctx, cancel := testkit.NewContext(t, 10*time.Second)
	defer cancel()

	_, err := f.svc.Purchase(ctx, 424242, 1001)
	assert.ErrorIs(t, err, ErrVoucherNotFound)
}

func TestPurchase_OnePerUser(t *testing.T) {
	f := newServiceFixture(t)
	now := time.Now()
	voucherID := f.createVoucher(t, 10, now.Add(-time.Hour), now.Add(time.Hour))

	ctx, cancel := testkit.NewContext(t, 10*time.Second)
	defer cancel()

	_, err := f.svc.Purchase(ctx, voucherID, 1001)
	require.NoError(t, err)

	_, err = f.svc.Purchase(ctx, voucherID, 1001)
	assert.ErrorIs(t, err, ErrAlreadyPurchased)

	// 重复购买不消耗库存
	remaining, err := f.stock.Remaining(ctx, voucherID)
	require.NoError(t, err)
	assert.Equal(t, 9, remaining)
	assert.Equal(t, int64(1), f.countOrders(t, voucherID))
}

// 并发抢购不越卖：库存 N、请求 M>N 时恰好 N 单，其余 SOLD_OUT。
func TestPurchase_NoOversell(t *testing.T) {
	f := newServiceFixture(t)
	now := time.Now()
	const stockN = 5
	const users = 20
	voucherID := f.createVoucher(t, stockN, now.Add(-time.Hour), now.Add(time.Hour))

	ctx, cancel := testkit.NewContext(t, 30*time.Second)
	defer cancel()

	var succeeded, soldOut atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		userID := int64(2000 + i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Purchase(ctx, voucherID, userID)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, ErrSoldOut):
				soldOut.Add(1)
			default:
				t.Errorf("unexpected purchase error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(stockN), succeeded.Load())
	assert.Equal(t, int32(users-stockN), soldOut.Load())
	assert.Equal(t, int64(stockN), f.countOrders(t, voucherID))

	remaining, err := f.stock.Remaining(ctx, voucherID)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

// 同一用户的并发请求至多成功一次，其余要么在途要么已购买。
func TestPurchase_ConcurrentSameUser(t *testing.T) {
	f := newServiceFixture(t)
	now := time.Now()
	voucherID := f.createVoucher(t, 10, now.Add(-time.Hour), now.Add(time.Hour))

	ctx, cancel := testkit.NewContext(t, 30*time.Second)
	defer cancel()

	const attempts = 10
	var succeeded atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Purchase(ctx, voucherID, 1001)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, ErrInFlight), errors.Is(err, ErrAlreadyPurchased):
			default:
				t.Errorf("unexpected purchase error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int64(1), f.countOrders(t, voucherID))
}

func TestCreateVoucher_Validation(t *testing.T) {
	f := newServiceFixture(t)
	now := time.Now()

	ctx, cancel := testkit.NewContext(t, 10*time.Second)
	defer cancel()

	err := f.svc.CreateVoucher(ctx, &Voucher{
		Title: "bad window", Stock: 10,
		BeginTime: now.Add(time.Hour), EndTime: now,
	})
	assert.Error(t, err)

	err = f.svc.CreateVoucher(ctx, &Voucher{
		Title: "bad stock", Stock: -1,
		BeginTime: now, EndTime: now.Add(time.Hour),
	})
	assert.Error(t, err)
}

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrVoucherNotFound, "VOUCHER_NOT_FOUND"},
		{ErrNotStarted, "NOT_STARTED"},
		{ErrEnded, "ENDED"},
		{ErrSoldOut, "SOLD_OUT"},
		{ErrAlreadyPurchased, "ALREADY_PURCHASED"},
		{ErrInFlight, "IN_FLIGHT"},
		{errors.New("boom"), ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Reason(tt.err))
	}

	assert.True(t, Retryable(ErrInFlight))
	assert.False(t, Retryable(ErrSoldOut))
}
