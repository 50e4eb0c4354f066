package gormdb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dom/worknest/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestPool(t *testing.T, size int, timeout time.Duration, observer PoolObserver) *Pool {
	t.Helper()
	dsn := fmt.Sprintf("file:pool_%s?mode=memory&cache=shared", uuid.NewString()[:8])
	pool, err := Open(Options{
		Driver:         DriverSQLite,
		DSN:            dsn,
		PoolSize:       size,
		AcquireTimeout: timeout,
		Observer:       observer,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}

type recordingObserver struct {
	mu        sync.Mutex
	acquired  int
	overloads int
	inUse     []int
}

func (o *recordingObserver) ObserveAcquire(time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.acquired++
}

func (o *recordingObserver) ObserveOverload() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.overloads++
}

func (o *recordingObserver) SetInUse(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inUse = append(o.inUse, n)
}

func TestPool_OverloadedWhenExhausted(t *testing.T) {
	observer := &recordingObserver{}
	pool := newTestPool(t, 1, 50*time.Millisecond, observer)
	ctx := context.Background()

	release, err := pool.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pool.InUse())

	start := time.Now()
	err = pool.Read(ctx, func(tx *gorm.DB) error { return nil })
	assert.ErrorIs(t, err, domain.ErrOverloaded)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	release()
	release() // second call is a no-op
	assert.Equal(t, 0, pool.InUse())

	require.NoError(t, pool.Read(ctx, func(tx *gorm.DB) error { return nil }))

	observer.mu.Lock()
	defer observer.mu.Unlock()
	assert.Equal(t, 2, observer.acquired)
	assert.Equal(t, 1, observer.overloads)
	assert.Equal(t, []int{1, 0, 1, 0}, observer.inUse)
}

func TestPool_CallerContextEndsFirst(t *testing.T) {
	pool := newTestPool(t, 1, time.Minute, nil)

	release, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = pool.Write(ctx, func(tx *gorm.DB) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, domain.ErrOverloaded)
}

func TestPool_BoundsConcurrency(t *testing.T) {
	pool := newTestPool(t, 2, time.Second, nil)

	var (
		mu      sync.Mutex
		current int
		peak    int
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pool.Read(context.Background(), func(tx *gorm.DB) error {
				mu.Lock()
				current++
				if current > peak {
					peak = current
				}
				mu.Unlock()

				time.Sleep(10 * time.Millisecond)

				mu.Lock()
				current--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak, 2)
}

func TestPool_WriteRollsBackOnError(t *testing.T) {
	pool := newTestPool(t, 1, time.Second, nil)
	ctx := context.Background()
	require.NoError(t, pool.Migrate(ctx))

	boom := errors.New("boom")
	err := pool.Write(ctx, func(tx *gorm.DB) error {
		user := &domain.User{ID: uuid.New(), Username: "rollback", Email: "rb@example.com", PasswordHash: "x"}
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.ErrorIs(t, err, boom)

	var n int64
	require.NoError(t, pool.DB().Model(&domain.User{}).Count(&n).Error)
	assert.Zero(t, n)
}
