package uci

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrBinaryNotFound = errors.New("engine binary not found")
	ErrPoolClosed     = errors.New("engine pool closed")
)

type PoolConfig struct {
	BinaryPath string
	Capacity   int
	Options    Options
	Logger     *zap.Logger
}

// Pool keeps a bounded set of warm engine processes. Capacity caps how many
// processes exist at once; Acquire blocks on ctx while all of them are busy.
type Pool struct {
	binaryPath string
	opt        Options
	capacity   int
	logger     *zap.Logger

	mu     sync.Mutex
	total  int
	closed bool
	idle   chan *Session
	freed  chan struct{}
}

func NewPool(cfg PoolConfig) (*Pool, error) {
	if cfg.BinaryPath == "" {
		return nil, fmt.Errorf("binary path required")
	}
	resolved, err := exec.LookPath(cfg.BinaryPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBinaryNotFound, cfg.BinaryPath, err)
	}
	if err := validateOptions(cfg.Options); err != nil {
		return nil, err
	}

	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pool{
		binaryPath: resolved,
		opt:        cfg.Options,
		capacity:   capacity,
		logger:     logger,
		idle:       make(chan *Session, capacity),
		freed:      make(chan struct{}, 1),
	}, nil
}


func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	for {
		if p.isClosed() {
			return nil, ErrPoolClosed
		}

		select {
		case session := <-p.idle:
			if s, ok := p.checkIdle(ctx, session); ok {
				return s, nil
			}
			continue
		default:
		}

		session, err := p.create(ctx)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, errPoolAtCapacity) {
			return nil, err
		}

		select {
		case session := <-p.idle:
			if s, ok := p.checkIdle(ctx, session); ok {
				return s, nil
			}
		case <-p.freed:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (p *Pool) checkIdle(ctx context.Context, session *Session) (*Session, bool) {
	if session == nil {
		return nil, false
	}
	if err := session.EnsureReady(ctx); err != nil {
		p.logger.Debug("discarding unhealthy idle engine", zap.Error(err))
		p.discard(session)
		return nil, false
	}
	return session, true
}

// Release hands a session back. A non-nil err marks the process as broken and
// it is killed instead of being reused.
func (p *Pool) Release(session *Session, err error) {
	if session == nil {
		return
	}
	if err != nil || p.isClosed() {
		p.discard(session)
		return
	}

	resetCtx, cancel := context.WithTimeout(context.Background(), defaultReadyTimeout)
	resetErr := session.NewGame(resetCtx)
	cancel()
	if resetErr != nil {
		p.logger.Debug("engine reset failed", zap.Error(resetErr))
		p.discard(session)
		return
	}

	select {
	case p.idle <- session:
	default:
		p.discard(session)
	}
}

func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	var errs []error
	for {
		select {
		case session := <-p.idle:
			if session == nil {
				continue
			}
			if err := session.Close(); err != nil {
				errs = append(errs, err)
			}
			p.decrement()
		default:
			return errors.Join(errs...)
		}
	}
}

var errPoolAtCapacity = errors.New("engine pool at capacity")

func (p *Pool) create(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	if p.total >= p.capacity {
		p.mu.Unlock()
		return nil, errPoolAtCapacity
	}
	p.total++
	p.mu.Unlock()

	session, err := NewSession(ctx, p.binaryPath, p.opt, p.logger)
	if err != nil {
		p.decrement()
		return nil, err
	}
	return session, nil
}

func (p *Pool) discard(session *Session) {
	_ = session.Close()
	p.decrement()
}

func (p *Pool) decrement() {
	p.mu.Lock()
	if p.total > 0 {
		p.total--
	}
	p.mu.Unlock()
	select {
	case p.freed <- struct{}{}:
	default:
	}
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func defaultCapacity() int {
	cpu := runtime.NumCPU()
	if cpu < 2 {
		return 2
	}
	if cpu > 4 {
		return 4
	}
	return cpu
}
