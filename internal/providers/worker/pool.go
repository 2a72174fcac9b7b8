package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/portbridge/internal/domain/messaging"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/infrastructure/monitoring"
)

// Pool manages a pool of reusable worker runtimes
type Pool struct {
	config         Config
	manager        *messaging.Manager
	workers        chan *Runtime
	size           int
	acquireTimeout time.Duration
	metrics        *monitoring.Metrics
	logger         *zap.Logger
	mu             sync.RWMutex
	closed         bool
}

// NewPool creates a worker pool
func NewPool(config Config, manager *messaging.Manager, size int) (*Pool, error) {
	if size <= 0 {
		size = 4
	}

	pool := &Pool{
		config:         config,
		manager:        manager,
		workers:        make(chan *Runtime, size),
		size:           size,
		acquireTimeout: 5 * time.Second,
		logger:         zap.NewNop(),
	}

	// Pre-create workers
	for i := 0; i < size; i++ {
		worker, err := New(config, manager)
		if err != nil {
			pool.Close()
			return nil, err
		}
		pool.workers <- worker
	}

	return pool, nil
}

// WithMetrics adds metrics tracking to every pooled runtime
func (p *Pool) WithMetrics(metrics *monitoring.Metrics) *Pool {
	p.metrics = metrics
	p.each(func(r *Runtime) { r.WithMetrics(metrics) })
	return p
}

// WithLogger sets the logger for every pooled runtime
func (p *Pool) WithLogger(logger *zap.Logger) *Pool {
	if logger != nil {
		p.logger = logger
		p.each(func(r *Runtime) { r.WithLogger(logger) })
	}
	return p
}

// WithAcquireTimeout bounds how long Acquire waits for a free runtime
func (p *Pool) WithAcquireTimeout(timeout time.Duration) *Pool {
	if timeout > 0 {
		p.acquireTimeout = timeout
	}
	return p
}

// each applies fn to the idle runtimes. Only used while configuring the pool.
func (p *Pool) each(fn func(r *Runtime)) {
	for i := 0; i < len(p.workers); i++ {
		r := <-p.workers
		fn(r)
		p.workers <- r
	}
}

// Acquire gets a runtime from pool with timeout
func (p *Pool) Acquire(ctx context.Context) (*Runtime, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	timeout := time.NewTimer(p.acquireTimeout)
	defer timeout.Stop()

	select {
	case worker := <-p.workers:
		return worker, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timeout.C:
		return nil, ErrTimeout
	}
}

// Release returns runtime to pool
func (p *Pool) Release(worker *Runtime) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return worker.Close()
	}

	// Reset runtime state
	if err := worker.Reset(); err != nil {
		worker.Close()
		p.logger.Warn("Replacing worker after failed reset", zap.Stringer("worker_id", worker.ID()), zap.Error(err))
		if fresh, err := New(p.config, p.manager); err == nil {
			p.workers <- fresh.WithMetrics(p.metrics).WithLogger(p.logger)
		}
		return err
	}

	select {
	case p.workers <- worker:
		return nil
	default:
		// Pool full, close runtime
		return worker.Close()
	}
}

// Execute runs script on a pooled runtime
func (p *Pool) Execute(ctx context.Context, script string) (*Result, error) {
	worker, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(worker)

	return worker.Execute(ctx, script)
}

// Close closes pool and all idle runtimes
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	close(p.workers)

	for worker := range p.workers {
		worker.Close()
	}

	return nil
}

// Stats returns pool statistics
func (p *Pool) Stats() PoolStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return PoolStats{
		Size:      p.size,
		Available: len(p.workers),
		InUse:     p.size - len(p.workers),
		Closed:    p.closed,
	}
}
