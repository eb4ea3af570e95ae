package arena

import (
	"github.com/park285/cheese-arena/internal/domain"
	"github.com/park285/cheese-arena/internal/rules"
	"github.com/park285/cheese-arena/internal/store"
	"github.com/park285/cheese-arena/pkg/arenadto"
)

func moveView(mv store.MoveRecord) arenadto.MoveView {
	return arenadto.MoveView{
		Seq:       mv.Seq,
		UCI:       mv.UCI,
		SAN:       mv.SAN,
		From:      mv.From,
		To:        mv.To,
		Promotion: mv.Promotion,
		MoverID:   mv.MoverID,
		At:        mv.Timestamp,
	}
}

// headerView renders a game from its stored header only.
func headerView(rec *store.GameRecord) arenadto.GameState {
	return arenadto.GameState{
		ID:         rec.ID,
		WhiteID:    rec.WhiteID,
		BlackID:    rec.BlackID,
		InitialFEN: rec.InitialFEN,
		FEN:        rec.FEN,
		Turn:       rec.Turn,
		State:      rec.State,
		Status:     string(rec.Status),
		InCheck:    rec.State == "check",
		Plies:      rec.Plies,
		Moves:      []arenadto.MoveView{},
		Opening:    rec.Opening,
		Captured:   arenadto.CapturedPieces{White: []string{}, Black: []string{}},
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}
}

func (m *Manager) view(snap *snapshot) *arenadto.GameState {
	st := headerView(snap.rec)
	pos := snap.g.Position()

	st.FEN = snap.g.FEN()
	st.Turn = snap.g.Turn().String()
	st.InCheck = rules.IsInCheck(&pos, pos.Turn)
	st.Plies = len(snap.moves)
	// timeouts live only in the header; the replayed board never sees them
	if !snap.rec.Active() && snap.rec.State != "" {
		st.State = snap.rec.State
	} else {
		st.State = snap.g.State().String()
	}
	for _, mv := range snap.moves {
		st.Moves = append(st.Moves, moveView(mv))
	}
	if n := len(st.Moves); n > 0 {
		last := st.Moves[n-1]
		st.LastMove = &last
	}
	st.Material = materialOf(&pos)
	st.Captured = capturedBy(snap.rec.InitialFEN, snap.moves)
	if !snap.rec.Active() {
		st.Result = m.gameOverEvent(snap.rec)
	}
	return &st
}

func (m *Manager) gameOverEvent(rec *store.GameRecord) *arenadto.GameOverEvent {
	ev := &arenadto.GameOverEvent{
		GameID: rec.ID,
		Kind:   rec.Termination,
		Draw:   rec.Outcome == "draw",
		FEN:    rec.FEN,
		Plies:  rec.Plies,
	}
	if !ev.Draw {
		ev.Winner = rec.Outcome
		ev.WinnerID = rec.Winner
	}
	ev.Message = m.announce(rec)
	return ev
}

// announce renders the game-over text for rec.
func (m *Manager) announce(rec *store.GameRecord) string {
	data := map[string]any{"Plies": rec.Plies}
	key := "game_over." + rec.Termination
	fallback := rec.Termination

	switch rec.Termination {
	case "checkmate":
		data["Winner"] = rec.Winner
		data["WinnerColor"] = rec.Outcome
	case "timeout":
		loser := loserColor(rec)
		data["Loser"] = playerOf(rec, loser)
		data["LoserColor"] = loser.String()
	}
	return m.catalog.RenderOr(key, data, fallback)
}

func loserColor(rec *store.GameRecord) rules.Color {
	if c, err := rules.ParseColor(rec.Flagged); err == nil {
		return c
	}
	if c, err := rules.ParseColor(rec.Outcome); err == nil {
		return c.Other()
	}
	return rules.White
}

func archivedView(g *domain.ArchivedGame) arenadto.ArchivedGame {
	return arenadto.ArchivedGame{
		GameID:      g.GameID,
		WhiteID:     g.WhiteID,
		BlackID:     g.BlackID,
		Result:      g.Result,
		Termination: g.Termination,
		MovesSAN:    append([]string{}, g.MovesSAN...),
		Opening:     g.Opening,
		PGN:         g.PGN,
		StartedAt:   g.StartedAt,
		EndedAt:     g.EndedAt,
		Duration:    g.Duration,
	}
}

// EventEnvelopes converts a store event into the websocket frames peers read.
func (m *Manager) EventEnvelopes(ev store.Event) ([]arenadto.Envelope, error) {
	if ev.Game == nil {
		return nil, nil
	}
	switch ev.Type {
	case store.EventMove:
		if ev.Move == nil {
			return nil, nil
		}
		env, err := arenadto.NewEnvelope(arenadto.EnvelopeMove, arenadto.MoveEvent{
			GameID: ev.Game.ID,
			Move:   moveView(*ev.Move),
			FEN:    ev.Move.FENAfter,
			Turn:   ev.Game.Turn,
			State:  ev.Game.State,
		})
		if err != nil {
			return nil, err
		}
		return []arenadto.Envelope{env}, nil
	case store.EventGameOver:
		env, err := arenadto.NewEnvelope(arenadto.EnvelopeGameOver, m.gameOverEvent(ev.Game))
		if err != nil {
			return nil, err
		}
		return []arenadto.Envelope{env}, nil
	}
	return nil, nil
}
