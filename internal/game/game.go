package game

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-arena/internal/rules"
)

type Option func(*Game)

// WithPromotionTimeout bounds how long a promotion choice may stay pending. Zero disables expiry.
func WithPromotionTimeout(d time.Duration) Option {
	return func(g *Game) { g.promotionTimeout = d }
}

func WithNow(now func() time.Time) Option {
	return func(g *Game) {
		if now != nil {
			g.now = now
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(g *Game) {
		if l != nil {
			g.logger = l
		}
	}
}

// Game sequences turns over a single exclusively owned position.
type Game struct {
	mu sync.Mutex

	initialFEN string
	pos        rules.Position
	state      State
	log        []rules.Move
	pending    *PendingPromotion
	over       *GameOver
	listeners  []func(GameOver)

	promotionTimeout time.Duration
	now              func() time.Time
	logger           *zap.Logger
}

func New(opts ...Option) *Game {
	g, err := NewFromFEN(rules.StartFEN, opts...)
	if err != nil {
		panic(err)
	}
	return g
}

// NewFromFEN starts a game from an arbitrary position. A position that is already
// mate or stalemate starts terminal.
func NewFromFEN(fen string, opts ...Option) (*Game, error) {
	pos, err := rules.ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	g := &Game{
		initialFEN: pos.FEN(),
		pos:        pos,
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.state = stateOf(rules.Evaluate(&g.pos))
	if g.state.Terminal() {
		over := g.terminalFor(g.state)
		g.over = &over
	}
	return g, nil
}

// OnGameOver registers fn for the game-over signal. fn runs immediately if the game already ended.
func (g *Game) OnGameOver(fn func(GameOver)) {
	g.mu.Lock()
	over := g.over
	g.listeners = append(g.listeners, fn)
	g.mu.Unlock()
	if over != nil {
		fn(*over)
	}
}

// Attempt tries to move the piece on from to to. Illegal attempts change nothing.
// A pawn reaching the last rank suspends the move until Promote is called.
func (g *Game) Attempt(from, to rules.Square) (MoveResult, error) {
	return g.play(rules.Move{From: from, To: to})
}

// PlayUCI plays a move in long algebraic form. A trailing promotion letter resolves the promotion at once.
func (g *Game) PlayUCI(s string) (MoveResult, error) {
	m, err := rules.ParseUCI(s)
	if err != nil {
		return MoveResult{}, err
	}
	return g.play(m)
}

func (g *Game) play(want rules.Move) (MoveResult, error) {
	g.mu.Lock()
	if err := g.checkPlayable(); err != nil {
		g.mu.Unlock()
		return MoveResult{}, err
	}
	pc := g.pos.At(want.From)
	if pc.IsEmpty() || pc.Color() != g.pos.Turn {
		g.mu.Unlock()
		return MoveResult{}, fmt.Errorf("%w: %s", ErrNotYourPiece, want.From)
	}
	m, ok := rules.Resolve(&g.pos, want)
	if !ok {
		g.mu.Unlock()
		return MoveResult{}, fmt.Errorf("%w: %s", ErrIllegalMove, want.UCI())
	}
	if m.IsPromotion() && m.Promotion == rules.NoKind {
		now := g.now()
		p := &PendingPromotion{Move: m, Since: now}
		if g.promotionTimeout > 0 {
			p.Deadline = now.Add(g.promotionTimeout)
		}
		g.pending = p
		res := MoveResult{Result: ResultPromotionPending, Move: m, State: g.state, FEN: g.pos.FEN()}
		g.mu.Unlock()
		return res, nil
	}
	return g.completeAndUnlock(m)
}

// Promote resolves the pending promotion and completes the move.
func (g *Game) Promote(kind rules.Kind) (MoveResult, error) {
	g.mu.Lock()
	if g.over != nil {
		g.mu.Unlock()
		return MoveResult{}, ErrGameOver
	}
	if g.pending == nil {
		g.mu.Unlock()
		return MoveResult{}, ErrNoPromotionPending
	}
	if !kind.Promotable() {
		g.mu.Unlock()
		return MoveResult{}, fmt.Errorf("%w: %s", ErrInvalidPromotion, kind)
	}
	if g.pending.Expired(g.now()) {
		g.pending = nil
		g.mu.Unlock()
		return MoveResult{}, ErrPromotionExpired
	}
	m := g.pending.Move.WithPromotion(kind)
	g.pending = nil
	return g.completeAndUnlock(m)
}

// CancelPromotion drops a pending promotion; the same side moves again.
func (g *Game) CancelPromotion() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return false
	}
	g.pending = nil
	return true
}

// ExpirePromotion drops the pending promotion if its deadline passed at now.
func (g *Game) ExpirePromotion(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil || !g.pending.Expired(now) {
		return false
	}
	g.logger.Debug("promotion_expired", zap.String("move", g.pending.Move.UCI()))
	g.pending = nil
	return true
}

// FlagTimeout ends the game because loser ran out of time. A timeout is a
// draw: the signal carries no winner.
func (g *Game) FlagTimeout(loser rules.Color) (GameOver, error) {
	g.mu.Lock()
	if g.over != nil {
		g.mu.Unlock()
		return GameOver{}, ErrGameOver
	}
	g.pending = nil
	g.state = StateTimeout
	g.logger.Debug("flag_timeout", zap.String("flagged", loser.String()))
	over := GameOver{
		Kind:  EndTimeout,
		Draw:  true,
		FEN:   g.pos.FEN(),
		Plies: len(g.log),
	}
	g.over = &over
	listeners := append([]func(GameOver){}, g.listeners...)
	g.mu.Unlock()

	g.announce(over, listeners)
	return over, nil
}

func (g *Game) checkPlayable() error {
	if g.over != nil {
		return ErrGameOver
	}
	if g.pending != nil {
		if !g.pending.Expired(g.now()) {
			return ErrPromotionPending
		}
		g.pending = nil
	}
	return nil
}

// completeAndUnlock applies m, advances the state machine and releases g.mu
// before notifying listeners.
func (g *Game) completeAndUnlock(m rules.Move) (MoveResult, error) {
	g.pos.Apply(m)
	g.log = append(g.log, m)
	g.state = stateOf(rules.Evaluate(&g.pos))
	res := MoveResult{Result: ResultApplied, Move: m, State: g.state, FEN: g.pos.FEN()}

	var (
		over      GameOver
		listeners []func(GameOver)
	)
	ended := g.state.Terminal()
	if ended {
		over = g.terminalFor(g.state)
		g.over = &over
		listeners = append(listeners, g.listeners...)
	}
	g.mu.Unlock()

	if ended {
		g.announce(over, listeners)
	}
	return res, nil
}

func (g *Game) terminalFor(st State) GameOver {
	over := GameOver{FEN: g.pos.FEN(), Plies: len(g.log)}
	switch st {
	case StateCheckmate:
		over.Kind = EndCheckmate
		over.Winner = g.pos.Turn.Other()
	case StateStalemate:
		over.Kind = EndStalemate
		over.Draw = true
	}
	return over
}

func (g *Game) announce(over GameOver, listeners []func(GameOver)) {
	fields := []zap.Field{zap.String("kind", string(over.Kind)), zap.Bool("draw", over.Draw), zap.Int("plies", over.Plies)}
	if !over.Draw {
		fields = append(fields, zap.String("winner", over.Winner.String()))
	}
	g.logger.Debug("game_over", fields...)
	for _, fn := range listeners {
		fn(over)
	}
}

func (g *Game) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Game) Turn() rules.Color {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pos.Turn
}

// Position returns a snapshot; mutating it does not affect the game.
func (g *Game) Position() rules.Position {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pos
}

func (g *Game) FEN() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pos.FEN()
}

func (g *Game) InitialFEN() string { return g.initialFEN }

func (g *Game) Log() []rules.Move {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]rules.Move(nil), g.log...)
}

// MovesUCI returns the move log in long algebraic form.
func (g *Game) MovesUCI() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.log))
	for i, m := range g.log {
		out[i] = m.UCI()
	}
	return out
}

func (g *Game) LastMove() (rules.Move, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.log) == 0 {
		return rules.Move{}, false
	}
	return g.log[len(g.log)-1], true
}

func (g *Game) Pending() (PendingPromotion, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return PendingPromotion{}, false
	}
	return *g.pending, true
}

func (g *Game) Outcome() (GameOver, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.over == nil {
		return GameOver{}, false
	}
	return *g.over, true
}

// LegalTargets lists where the piece on from may move. Empty once the game is over
// or when from does not hold a piece of the side to move.
func (g *Game) LegalTargets(from rules.Square) []rules.Square {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.over != nil {
		return nil
	}
	pc := g.pos.At(from)
	if pc.IsEmpty() || pc.Color() != g.pos.Turn {
		return nil
	}
	return rules.LegalTargets(&g.pos, from)
}

// LegalMoves lists every legal move of the side to move.
func (g *Game) LegalMoves() []rules.Move {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.over != nil {
		return nil
	}
	return rules.LegalMoves(&g.pos, g.pos.Turn)
}
