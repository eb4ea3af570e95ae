// Package analysis asks an external engine for a best move and guards the answer.
package analysis

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-arena/internal/rules"
)

var ErrNoMove = errors.New("oracle returned no move")

// Oracle produces a best move in UCI form for a position searched to depth.
type Oracle interface {
	BestMove(ctx context.Context, fen string, depth int) (string, error)
}

type OracleFunc func(ctx context.Context, fen string, depth int) (string, error)

func (f OracleFunc) BestMove(ctx context.Context, fen string, depth int) (string, error) {
	return f(ctx, fen, depth)
}

// Suggestion is either a legal move or unavailable. It never carries an error.
type Suggestion struct {
	Move      string
	Available bool
}

type AdvisorConfig struct {
	DefaultDepth int
	MaxDepth     int
	Timeout      time.Duration
}

// Advisor wraps an Oracle so that every failure degrades to "no suggestion".
type Advisor struct {
	oracle Oracle
	cfg    AdvisorConfig
	logger *zap.Logger
}

func NewAdvisor(o Oracle, cfg AdvisorConfig, logger *zap.Logger) *Advisor {
	if cfg.DefaultDepth <= 0 {
		cfg.DefaultDepth = 12
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 24
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{oracle: o, cfg: cfg, logger: logger}
}

func (a *Advisor) Enabled() bool { return a != nil && a.oracle != nil }

func (a *Advisor) Suggest(ctx context.Context, fen string, depth int) Suggestion {
	if !a.Enabled() {
		return Suggestion{}
	}
	pos, err := rules.ParseFEN(fen)
	if err != nil {
		a.logger.Debug("analysis_bad_fen", zap.String("fen", fen), zap.Error(err))
		return Suggestion{}
	}
	if depth <= 0 {
		depth = a.cfg.DefaultDepth
	}
	if depth > a.cfg.MaxDepth {
		depth = a.cfg.MaxDepth
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	start := time.Now()
	raw, err := a.oracle.BestMove(ctx, fen, depth)
	if err != nil {
		a.logger.Warn("analysis_unavailable", zap.String("fen", fen), zap.Int("depth", depth), zap.Error(err))
		return Suggestion{}
	}
	mv, err := rules.ParseUCI(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		a.logger.Warn("analysis_malformed", zap.String("fen", fen), zap.String("move", raw))
		return Suggestion{}
	}
	resolved, ok := rules.Resolve(&pos, mv)
	if !ok || pos.At(mv.From).Color() != pos.Turn {
		a.logger.Warn("analysis_illegal", zap.String("fen", fen), zap.String("move", raw))
		return Suggestion{}
	}
	if resolved.IsPromotion() && resolved.Promotion == rules.NoKind {
		resolved.Promotion = rules.Queen
	}
	a.logger.Debug("analysis_suggestion",
		zap.String("move", resolved.UCI()),
		zap.Int("depth", depth),
		zap.Duration("took", time.Since(start)),
	)
	return Suggestion{Move: resolved.UCI(), Available: true}
}
