package uci

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

type PoolConfig struct {
	BinaryPath string
	Capacity   int
	Options    Options
	Logger     *zap.Logger
}

// Pool keeps up to Capacity engine processes alive and hands them out one search at a time.
type Pool struct {
	binaryPath string
	opt        Options
	capacity   int
	logger     *zap.Logger

	mu     sync.Mutex
	total  int
	closed bool
	idle   chan *Session
}

var (
	errPoolAtCapacity = errors.New("engine pool at capacity")
	ErrPoolClosed     = errors.New("engine pool closed")
)

func NewPool(cfg PoolConfig) (*Pool, error) {
	if cfg.BinaryPath == "" {
		return nil, fmt.Errorf("binary path required")
	}
	if _, err := os.Stat(cfg.BinaryPath); err != nil {
		return nil, fmt.Errorf("engine binary check: %w", err)
	}
	opt := cfg.Options.withDefaults()
	if err := validateOptions(opt); err != nil {
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
		binaryPath: cfg.BinaryPath,
		opt:        opt,
		capacity:   capacity,
		logger:     logger,
		idle:       make(chan *Session, capacity),
	}, nil
}

func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	for {
		select {
		case s := <-p.idle:
			if s == nil {
				continue
			}
			if err := s.EnsureReady(ctx); err != nil {
				p.discard(s)
				continue
			}
			return s, nil
		default:
		}

		s, err := p.create(ctx)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, errPoolAtCapacity) {
			return nil, err
		}

		select {
		case s := <-p.idle:
			if s == nil {
				continue
			}
			if err := s.EnsureReady(ctx); err != nil {
				p.discard(s)
				continue
			}
			return s, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Release returns s to the pool. A session that failed a search is closed instead.
func (p *Pool) Release(s *Session, err error) {
	if s == nil {
		return
	}
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if err != nil || closed {
		p.discard(s)
		return
	}
	select {
	case p.idle <- s:
	default:
		p.discard(s)
	}
}

func (p *Pool) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	var errs []error
	for {
		select {
		case s := <-p.idle:
			if s == nil {
				continue
			}
			if err := s.Close(); err != nil {
				errs = append(errs, err)
			}
			p.decrement()
		default:
			return errors.Join(errs...)
		}
	}
}

func (p *Pool) create(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if p.total >= p.capacity {
		p.mu.Unlock()
		return nil, errPoolAtCapacity
	}
	p.total++
	p.mu.Unlock()

	s, err := NewSession(ctx, p.binaryPath, p.opt, p.logger)
	if err != nil {
		p.decrement()
		return nil, err
	}
	return s, nil
}

func (p *Pool) discard(s *Session) {
	_ = s.Close()
	p.decrement()
}

func (p *Pool) decrement() {
	p.mu.Lock()
	if p.total > 0 {
		p.total--
	}
	p.mu.Unlock()
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

// Oracle adapts the pool to analysis.Oracle.
type Oracle struct {
	pool *Pool
}

func NewOracle(pool *Pool) *Oracle {
	return &Oracle{pool: pool}
}

func (o *Oracle) BestMove(ctx context.Context, fen string, depth int) (string, error) {
	s, err := o.pool.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("acquire engine: %w", err)
	}
	resp, err := s.Search(ctx, SearchRequest{FEN: fen, Limits: Limits{Depth: depth}})
	o.pool.Release(s, err)
	if err != nil {
		return "", err
	}
	if resp.BestMove == "" || resp.BestMove == "(none)" {
		return "", fmt.Errorf("engine found no move for %s", fen)
	}
	return resp.BestMove, nil
}
