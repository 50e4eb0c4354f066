package gormdb

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dom/worknest/internal/domain"
	"golang.org/x/sync/semaphore"
	"gorm.io/gorm"
)

const (
	DefaultPoolSize       = 10
	DefaultAcquireTimeout = 5 * time.Second
)

// PoolObserver receives pool admission events, typically for metrics.
type PoolObserver interface {
	ObserveAcquire(wait time.Duration)
	ObserveOverload()
	SetInUse(n int)
}

type nopObserver struct{}

func (nopObserver) ObserveAcquire(time.Duration) {}
func (nopObserver) ObserveOverload()             {}
func (nopObserver) SetInUse(int)                 {}

// Pool bounds concurrent storage access. Every repository goes through Read
// or Write, which hold one slot for the duration of the callback.
type Pool struct {
	db             *gorm.DB
	slots          *semaphore.Weighted
	size           int
	acquireTimeout time.Duration
	inUse          atomic.Int64
	observer       PoolObserver
	writer         *semaphore.Weighted // nil unless writes must be serialised
}

func NewPool(db *gorm.DB, size int, acquireTimeout time.Duration, observer PoolObserver) *Pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	if acquireTimeout <= 0 {
		acquireTimeout = DefaultAcquireTimeout
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Pool{
		db:             db,
		slots:          semaphore.NewWeighted(int64(size)),
		size:           size,
		acquireTimeout: acquireTimeout,
		observer:       observer,
	}
}

func (p *Pool) Size() int { return p.size }

func (p *Pool) InUse() int { return int(p.inUse.Load()) }

// DB returns the underlying handle without taking a slot.
func (p *Pool) DB() *gorm.DB { return p.db }

// Acquire takes a slot, waiting at most the acquire timeout. It fails with
// domain.ErrOverloaded when the wait runs out, or with the context error when
// ctx ends first.
func (p *Pool) Acquire(ctx context.Context) (func(), error) {
	start := time.Now()
	if err := p.wait(ctx, p.slots, "connection"); err != nil {
		return nil, err
	}
	p.observer.ObserveAcquire(time.Since(start))
	p.observer.SetInUse(int(p.inUse.Add(1)))

	var released atomic.Bool
	return func() {
		if released.Swap(true) {
			return
		}
		p.observer.SetInUse(int(p.inUse.Add(-1)))
		p.slots.Release(1)
	}, nil
}

func (p *Pool) wait(ctx context.Context, sem *semaphore.Weighted, what string) error {
	waitCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	if err := sem.Acquire(waitCtx, 1); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		p.observer.ObserveOverload()
		return fmt.Errorf("%w: no %s available after %s", domain.ErrOverloaded, what, p.acquireTimeout)
	}
	return nil
}

// Read runs fn with a session bound to ctx. No transaction is opened.
func (p *Pool) Read(ctx context.Context, fn func(tx *gorm.DB) error) error {
	release, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	return translateError(fn(p.db.WithContext(ctx)))
}

// Write runs fn inside a single transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func (p *Pool) Write(ctx context.Context, fn func(tx *gorm.DB) error) error {
	release, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if p.writer != nil {
		if err := p.wait(ctx, p.writer, "write lock"); err != nil {
			return err
		}
		defer p.writer.Release(1)
	}

	return translateError(p.db.WithContext(ctx).Transaction(fn))
}

func (p *Pool) Ping(ctx context.Context) error {
	return p.Read(ctx, func(tx *gorm.DB) error {
		sqlDB, err := tx.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
}

func (p *Pool) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
