package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	s, err := Open(context.Background(), fmt.Sprintf("redis://%s/0", mr.Addr()), time.Hour, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func seedGame(t *testing.T, s *Store, id string) *GameRecord {
	t.Helper()
	g := &GameRecord{
		ID:         id,
		InitialFEN: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		Status:     StatusActive,
		WhiteID:    "alice",
		BlackID:    "bob",
		Turn:       "white",
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.CreateGame(context.Background(), g); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	return g
}

func TestCreateAndLoad(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	seedGame(t, s, "g1")

	if err := s.CreateGame(ctx, &GameRecord{ID: "g1"}); !errors.Is(err, ErrExists) {
		t.Fatalf("duplicate create err = %v", err)
	}
	got, err := s.LoadGame(ctx, "g1")
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}
	if got.WhiteID != "alice" || got.BlackID != "bob" || !got.Active() {
		t.Fatalf("unexpected record %+v", got)
	}
	if ttl := mr.TTL(gameKey("g1")); ttl <= 0 || ttl > time.Hour {
		t.Fatalf("ttl = %s", ttl)
	}
	if _, err := s.LoadGame(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing err = %v", err)
	}
}

func TestAppendMoveAssignsSequence(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	seedGame(t, s, "g1")

	for i, uci := range []string{"e2e4", "e7e5", "g1f3"} {
		mv, rec, err := s.AppendMove(ctx, "g1", i, MoveRecord{UCI: uci, MoverID: "x"}, func(g *GameRecord) error {
			g.FEN = "fen-" + uci
			return nil
		})
		if err != nil {
			t.Fatalf("AppendMove %d: %v", i, err)
		}
		if mv.Seq != int64(i+1) || mv.GameID != "g1" || mv.Timestamp.IsZero() {
			t.Fatalf("move %d = %+v", i, mv)
		}
		if rec.Plies != i+1 || rec.FEN != "fen-"+uci {
			t.Fatalf("record after %d = %+v", i, rec)
		}
	}

	moves, err := s.Moves(ctx, "g1")
	if err != nil {
		t.Fatalf("Moves: %v", err)
	}
	if len(moves) != 3 || moves[2].UCI != "g1f3" {
		t.Fatalf("moves = %+v", moves)
	}
	recs := Replayable(moves)
	if recs[0].Seq != 1 || recs[0].UCI != "e2e4" {
		t.Fatalf("replayable = %+v", recs)
	}
}

func TestAppendMoveStaleExpectation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	seedGame(t, s, "g1")

	if _, _, err := s.AppendMove(ctx, "g1", 0, MoveRecord{UCI: "e2e4"}, nil); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if _, _, err := s.AppendMove(ctx, "g1", 0, MoveRecord{UCI: "d2d4"}, nil); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale append err = %v", err)
	}
	moves, _ := s.Moves(ctx, "g1")
	if len(moves) != 1 {
		t.Fatalf("stale append was written: %+v", moves)
	}
}

func TestAppendMoveUpdateErrorWritesNothing(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	seedGame(t, s, "g1")

	boom := errors.New("boom")
	if _, _, err := s.AppendMove(ctx, "g1", 0, MoveRecord{UCI: "e2e4"}, func(*GameRecord) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	moves, _ := s.Moves(ctx, "g1")
	if len(moves) != 0 {
		t.Fatalf("moves written despite error: %+v", moves)
	}
}

func TestConcurrentAppendSingleWinner(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	seedGame(t, s, "g1")

	const writers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.AppendMove(ctx, "g1", 0, MoveRecord{UCI: "e2e4"}, nil)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrConflict) {
				t.Errorf("unexpected err: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("wins = %d, want 1", wins)
	}
	moves, _ := s.Moves(ctx, "g1")
	if len(moves) != 1 || moves[0].Seq != 1 {
		t.Fatalf("moves = %+v", moves)
	}
}

func TestFinishClosesGame(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	seedGame(t, s, "g1")

	rec, err := s.Finish(ctx, "g1", func(g *GameRecord) error {
		g.Status = StatusFinished
		g.Termination = "timeout"
		g.Winner = g.BlackID
		return nil
	})
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if rec.Active() || rec.Winner != "bob" {
		t.Fatalf("record = %+v", rec)
	}
	if _, _, err := s.AppendMove(ctx, "g1", 0, MoveRecord{UCI: "e2e4"}, nil); !errors.Is(err, ErrGameClosed) {
		t.Fatalf("append after finish err = %v", err)
	}
	if _, err := s.Finish(ctx, "g1", func(g *GameRecord) error { g.Status = StatusDraw; return nil }); !errors.Is(err, ErrGameClosed) {
		t.Fatalf("second finish err = %v", err)
	}
}

func TestSubscribeReceivesMoveThenGameOver(t *testing.T) {
	s, _ := newTestStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	seedGame(t, s, "g1")

	sub, err := s.Subscribe(ctx, "g1")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	if _, _, err := s.AppendMove(ctx, "g1", 0, MoveRecord{UCI: "f2f3"}, func(g *GameRecord) error {
		g.Status = StatusFinished
		return nil
	}); err != nil {
		t.Fatalf("AppendMove: %v", err)
	}

	want := []EventType{EventMove, EventGameOver}
	for _, typ := range want {
		select {
		case ev := <-sub.Events():
			if ev.Type != typ || ev.Game == nil || ev.Game.ID != "g1" {
				t.Fatalf("event = %+v, want type %s", ev, typ)
			}
			if typ == EventMove && (ev.Move == nil || ev.Move.Seq != 1) {
				t.Fatalf("move event = %+v", ev.Move)
			}
		case <-ctx.Done():
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
}

func TestActiveGamesIndex(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	seedGame(t, s, "g1")
	seedGame(t, s, "g2")
	if _, err := s.Finish(ctx, "g2", func(g *GameRecord) error { g.Status = StatusDraw; return nil }); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	mr.Del(gameKey("g1"))
	seedGame(t, s, "g3")

	games, err := s.ActiveGames(ctx, "bob")
	if err != nil {
		t.Fatalf("ActiveGames: %v", err)
	}
	if len(games) != 1 || games[0].ID != "g3" {
		t.Fatalf("active = %+v", games)
	}
	if ok, _ := mr.SIsMember(userKey("bob"), "g1"); ok {
		t.Fatalf("stale index entry not removed")
	}
	if games, _ := s.ActiveGames(ctx, ""); games != nil {
		t.Fatalf("blank user should return nil")
	}
}

func TestOpenRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "http://cache", "redis://cache:6379/notadb"} {
		if _, err := Open(context.Background(), raw, time.Hour, nil); err == nil {
			t.Fatalf("%q: expected error", raw)
		}
	}
}

func TestRedisURLOptions(t *testing.T) {
	opts, err := redis.ParseURL("redis://:secret@cache:6380/3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opts.Addr != "cache:6380" || opts.Password != "secret" || opts.DB != 3 || opts.TLSConfig != nil {
		t.Fatalf("opts = %+v", opts)
	}
	tlsOpts, err := redis.ParseURL("rediss://cache:6380/0")
	if err != nil {
		t.Fatalf("parse rediss: %v", err)
	}
	if tlsOpts.TLSConfig == nil || tlsOpts.TLSConfig.ServerName != "cache" {
		t.Fatalf("rediss must enable TLS: %+v", tlsOpts.TLSConfig)
	}
}
