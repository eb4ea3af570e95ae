package arena

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/cheese-arena/internal/analysis"
	"github.com/park285/cheese-arena/internal/archive"
	"github.com/park285/cheese-arena/internal/domain"
	"github.com/park285/cheese-arena/internal/game"
	"github.com/park285/cheese-arena/internal/msgcat"
	"github.com/park285/cheese-arena/internal/obslog"
	"github.com/park285/cheese-arena/internal/oracle"
	"github.com/park285/cheese-arena/internal/rules"
	"github.com/park285/cheese-arena/internal/store"
	"github.com/park285/cheese-arena/pkg/arenadto"
)

// Manager runs online games. It keeps no board in memory: every call replays
// the stored log, and appends go through the store's optimistic transaction.
type Manager struct {
	store      *store.Store
	oracle     *oracle.Oracle
	crossCheck bool
	advisor    *analysis.Advisor
	archive    archive.Repository
	catalog    *msgcat.Catalog
	now        func() time.Time
}

type Option func(*Manager)

// WithOracle enables SAN, opening labels and, when crossCheck is set, the
// independent verification of every move before it is appended.
func WithOracle(o *oracle.Oracle, crossCheck bool) Option {
	return func(m *Manager) {
		m.oracle = o
		m.crossCheck = crossCheck && o != nil
	}
}

func WithAdvisor(a *analysis.Advisor) Option { return func(m *Manager) { m.advisor = a } }

func WithArchive(r archive.Repository) Option { return func(m *Manager) { m.archive = r } }

func WithCatalog(c *msgcat.Catalog) Option { return func(m *Manager) { m.catalog = c } }

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(st *store.Store, opts ...Option) *Manager {
	m := &Manager{store: st, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// snapshot is a game re-derived from its persisted log.
type snapshot struct {
	rec   *store.GameRecord
	moves []store.MoveRecord
	g     *game.Game
}

func (m *Manager) load(ctx context.Context, id string) (*snapshot, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", store.ErrNotFound)
	}
	rec, err := m.store.LoadGame(ctx, id)
	if err != nil {
		return nil, err
	}
	moves, err := m.store.Moves(ctx, id)
	if err != nil {
		return nil, err
	}
	g, err := game.Replay(rec.InitialFEN, store.Replayable(moves))
	if err != nil {
		obslog.L().Error("arena_replay_error", zap.String("game_id", id), zap.Int("moves", len(moves)), zap.Error(err))
		return nil, fmt.Errorf("replay game %s: %w", id, err)
	}
	return &snapshot{rec: rec, moves: moves, g: g}, nil
}

func seatOf(rec *store.GameRecord, playerID string) (rules.Color, error) {
	switch strings.TrimSpace(playerID) {
	case "":
		return 0, ErrNotParticipant
	case rec.WhiteID:
		return rules.White, nil
	case rec.BlackID:
		return rules.Black, nil
	default:
		return 0, ErrNotParticipant
	}
}

func playerOf(rec *store.GameRecord, c rules.Color) string {
	if c == rules.White {
		return rec.WhiteID
	}
	return rec.BlackID
}

// CreateGame starts a game from the standard position or from req.FEN.
func (m *Manager) CreateGame(ctx context.Context, req arenadto.CreateGameRequest) (*arenadto.GameState, error) {
	white, black := strings.TrimSpace(req.WhiteID), strings.TrimSpace(req.BlackID)
	if white == "" || black == "" || white == black {
		return nil, ErrInvalidPlayers
	}
	fen := strings.TrimSpace(req.FEN)
	if fen == "" {
		fen = rules.StartFEN
	}
	g, err := game.NewFromFEN(fen)
	if err != nil {
		return nil, err
	}
	if g.State().Terminal() {
		return nil, fmt.Errorf("%w: position is already %s", game.ErrGameOver, g.State())
	}
	if m.oracle != nil {
		if err := m.oracle.ValidateFEN(fen); err != nil {
			return nil, err
		}
	}

	now := m.now().UTC()
	rec := &store.GameRecord{
		ID:         uuid.NewString(),
		InitialFEN: g.InitialFEN(),
		FEN:        g.FEN(),
		Turn:       g.Turn().String(),
		State:      g.State().String(),
		Status:     store.StatusActive,
		WhiteID:    white,
		BlackID:    black,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := m.store.CreateGame(ctx, rec); err != nil {
		return nil, err
	}
	obslog.L().Info("arena_game_create",
		zap.String("game_id", rec.ID),
		zap.String("white_id", white),
		zap.String("black_id", black),
		zap.String("fen", rec.InitialFEN),
	)
	return m.view(&snapshot{rec: rec, g: g}), nil
}

func (m *Manager) State(ctx context.Context, id string) (*arenadto.GameState, error) {
	snap, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.view(snap), nil
}

// LegalTargets lists destination squares for the piece on from. Squares of the
// side not to move, empty squares and finished games yield an empty list.
func (m *Manager) LegalTargets(ctx context.Context, id, from string) ([]string, error) {
	sq, err := rules.ParseSquare(from)
	if err != nil {
		return nil, err
	}
	snap, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	out := []string{}
	if !snap.rec.Active() {
		return out, nil
	}
	for _, t := range snap.g.LegalTargets(sq) {
		out = append(out, t.String())
	}
	return out, nil
}

// PlayMove validates uci for playerID against the replayed position and
// appends it. A promotion must name its piece in the trailing letter.
func (m *Manager) PlayMove(ctx context.Context, id, playerID, uci string) (*arenadto.GameState, error) {
	snap, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	rec, g := snap.rec, snap.g
	if !rec.Active() {
		return nil, game.ErrGameOver
	}
	seat, err := seatOf(rec, playerID)
	if err != nil {
		return nil, err
	}
	if g.Turn() != seat {
		return nil, ErrNotYourTurn
	}

	fenBefore := g.FEN()
	res, err := g.PlayUCI(strings.ToLower(strings.TrimSpace(uci)))
	if err != nil {
		return nil, err
	}
	if res.Result == game.ResultPromotionPending {
		return nil, ErrPromotionRequired
	}

	san, err := m.sanFor(fenBefore, res)
	if err != nil {
		return nil, err
	}

	movesUCI := append(uciList(snap.moves), res.Move.UCI())
	over, finished := g.Outcome()
	opening := m.openingLabel(rec.InitialFEN, movesUCI)

	mv := store.MoveRecord{
		From:     res.Move.From.String(),
		To:       res.Move.To.String(),
		UCI:      res.Move.UCI(),
		SAN:      san,
		MoverID:  strings.TrimSpace(playerID),
		FENAfter: res.FEN,
	}
	if res.Move.IsPromotion() {
		mv.Promotion = string(res.Move.Promotion.Letter())
	}

	committedMove, committed, err := m.store.AppendMove(ctx, rec.ID, len(snap.moves), mv, func(r *store.GameRecord) error {
		r.FEN = res.FEN
		r.Turn = g.Turn().String()
		r.State = res.State.String()
		if opening != "" {
			r.Opening = opening
		}
		if finished {
			applyOutcome(r, over)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			obslog.L().Info("arena_move_conflict", zap.String("game_id", rec.ID), zap.String("uci", mv.UCI))
		}
		return nil, err
	}

	obslog.L().Info("arena_move",
		zap.String("game_id", committed.ID),
		zap.Int64("seq", committedMove.Seq),
		zap.String("uci", committedMove.UCI),
		zap.String("san", san),
		zap.String("state", committed.State),
		zap.String("opening", committed.Opening),
	)

	next := &snapshot{rec: committed, moves: append(snap.moves, committedMove), g: g}
	if finished {
		m.finalize(ctx, next)
	}
	return m.view(next), nil
}

// sanFor runs the oracle on the move just applied. With cross-checking on, any
// disagreement rejects the move.
func (m *Manager) sanFor(fenBefore string, res game.MoveResult) (string, error) {
	if m.oracle == nil {
		return "", nil
	}
	uci := res.Move.UCI()
	if m.crossCheck {
		san, err := m.oracle.CrossCheck(fenBefore, uci, res.FEN)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrOracleMismatch, err)
		}
		return san, nil
	}
	step, err := m.oracle.Apply(fenBefore, uci)
	if err != nil {
		obslog.L().Warn("arena_san_unavailable", zap.String("uci", uci), zap.Error(err))
		return "", nil
	}
	return step.SAN, nil
}

func (m *Manager) openingLabel(initialFEN string, moves []string) string {
	if m.oracle == nil || initialFEN != rules.StartFEN {
		return ""
	}
	op, ok := m.oracle.Opening(moves)
	if !ok {
		return ""
	}
	return op.Code + " " + op.Title
}

// Timeout ends the game because color ran out of time. Either participant may
// report it.
func (m *Manager) Timeout(ctx context.Context, id, playerID, color string) (*arenadto.GameState, error) {
	loser, err := rules.ParseColor(color)
	if err != nil {
		return nil, err
	}
	snap, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !snap.rec.Active() {
		return nil, game.ErrGameOver
	}
	if _, err := seatOf(snap.rec, playerID); err != nil {
		return nil, err
	}
	over, err := snap.g.FlagTimeout(loser)
	if err != nil {
		return nil, err
	}
	committed, err := m.store.Finish(ctx, snap.rec.ID, func(r *store.GameRecord) error {
		applyOutcome(r, over)
		r.Flagged = loser.String()
		return nil
	})
	if err != nil {
		return nil, err
	}
	snap.rec = committed
	m.finalize(ctx, snap)
	return m.view(snap), nil
}

func applyOutcome(r *store.GameRecord, over game.GameOver) {
	r.Termination = string(over.Kind)
	r.State = string(over.Kind)
	if over.Draw {
		r.Status = store.StatusDraw
		r.Outcome = "draw"
		r.Winner = ""
		return
	}
	r.Status = store.StatusFinished
	r.Outcome = over.Winner.String()
	r.Winner = playerOf(r, over.Winner)
}

// finalize archives a finished game. Archive failures are logged only; the
// redis record stays authoritative until it expires.
func (m *Manager) finalize(ctx context.Context, snap *snapshot) {
	rec := snap.rec
	ev := m.gameOverEvent(rec)
	obslog.L().Info("arena_game_over",
		zap.String("game_id", rec.ID),
		zap.String("kind", ev.Kind),
		zap.String("winner", ev.Winner),
		zap.Bool("draw", ev.Draw),
		zap.Int("plies", rec.Plies),
	)
	if m.archive == nil {
		return
	}

	movesUCI := uciList(snap.moves)
	movesSAN := make([]string, 0, len(snap.moves))
	for _, mv := range snap.moves {
		movesSAN = append(movesSAN, mv.SAN)
	}
	if m.oracle != nil && hasBlank(movesSAN) {
		if line, err := m.oracle.SANLine(rec.InitialFEN, movesUCI); err == nil {
			movesSAN = line
		}
	}
	ag := &domain.ArchivedGame{
		GameID:      rec.ID,
		WhiteID:     rec.WhiteID,
		BlackID:     rec.BlackID,
		InitialFEN:  rec.InitialFEN,
		FinalFEN:    rec.FEN,
		Result:      rec.Outcome,
		Termination: rec.Termination,
		MovesUCI:    movesUCI,
		MovesSAN:    movesSAN,
		Opening:     rec.Opening,
		StartedAt:   rec.CreatedAt,
		EndedAt:     rec.UpdatedAt,
		Duration:    rec.UpdatedAt.Sub(rec.CreatedAt),
	}
	if err := m.archive.SaveResult(ctx, ag); err != nil {
		obslog.L().Warn("arena_result_persist", zap.String("game_id", rec.ID), zap.Error(err))
	}
}

// Suggest asks the analysis oracle for a move in the current position.
// Failures degrade to an unavailable suggestion.
func (m *Manager) Suggest(ctx context.Context, id string, depth int) (arenadto.SuggestionResponse, error) {
	snap, err := m.load(ctx, id)
	if err != nil {
		return arenadto.SuggestionResponse{}, err
	}
	if !snap.rec.Active() {
		return arenadto.SuggestionResponse{}, game.ErrGameOver
	}
	s := m.advisor.Suggest(ctx, snap.g.FEN(), depth)
	return arenadto.SuggestionResponse{Available: s.Available, Move: s.Move}, nil
}

// ActiveGames lists the player's unfinished games from the stored headers.
func (m *Manager) ActiveGames(ctx context.Context, playerID string) ([]arenadto.GameState, error) {
	recs, err := m.store.ActiveGames(ctx, playerID)
	if err != nil {
		return nil, err
	}
	out := make([]arenadto.GameState, 0, len(recs))
	for _, r := range recs {
		out = append(out, headerView(r))
	}
	return out, nil
}

func (m *Manager) History(ctx context.Context, playerID string, limit int) ([]arenadto.ArchivedGame, error) {
	if m.archive == nil {
		return []arenadto.ArchivedGame{}, nil
	}
	games, err := m.archive.GetRecentGames(ctx, strings.TrimSpace(playerID), limit)
	if err != nil {
		return nil, err
	}
	out := make([]arenadto.ArchivedGame, 0, len(games))
	for _, g := range games {
		out = append(out, archivedView(g))
	}
	return out, nil
}

func (m *Manager) Archived(ctx context.Context, id string) (*arenadto.ArchivedGame, error) {
	if m.archive == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	g, err := m.archive.GetGame(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	v := archivedView(g)
	return &v, nil
}

func (m *Manager) Subscribe(ctx context.Context, id string) (*store.Subscription, error) {
	return m.store.Subscribe(ctx, id)
}

func uciList(moves []store.MoveRecord) []string {
	out := make([]string, 0, len(moves)+1)
	for _, mv := range moves {
		out = append(out, mv.UCI)
	}
	return out
}

func hasBlank(ss []string) bool {
	for _, s := range ss {
		if s == "" {
			return true
		}
	}
	return false
}
