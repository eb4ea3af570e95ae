package game

import (
	"errors"
	"testing"
	"time"

	"github.com/park285/cheese-arena/internal/rules"
)

func playAll(t *testing.T, g *Game, moves ...string) MoveResult {
	t.Helper()
	var res MoveResult
	for _, s := range moves {
		var err error
		res, err = g.PlayUCI(s)
		if err != nil {
			t.Fatalf("PlayUCI(%s): %v", s, err)
		}
	}
	return res
}

func TestFoolsMateSignalsGameOver(t *testing.T) {
	g := New()
	var got []GameOver
	g.OnGameOver(func(o GameOver) { got = append(got, o) })

	res := playAll(t, g, "f2f3", "e7e5", "g2g4", "d8h4")
	if res.State != StateCheckmate {
		t.Fatalf("state = %s, want checkmate", res.State)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly one game-over signal, got %d", len(got))
	}
	if got[0].Kind != EndCheckmate || got[0].Draw || got[0].Winner != rules.Black {
		t.Fatalf("unexpected game over %+v", got[0])
	}
	if _, err := g.PlayUCI("a2a3"); !errors.Is(err, ErrGameOver) {
		t.Fatalf("move after mate: err = %v", err)
	}
	if g.LegalTargets(rules.A2) != nil {
		t.Fatalf("legal targets offered after mate")
	}
}

func TestIllegalAttemptChangesNothing(t *testing.T) {
	g := New()
	playAll(t, g, "e2e4", "e7e5")
	before := g.FEN()

	if _, err := g.Attempt(rules.E4, rules.E5); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("e4e5: err = %v", err)
	}
	if _, err := g.Attempt(rules.E5, rules.E4); !errors.Is(err, ErrNotYourPiece) {
		t.Fatalf("moving the opponent's pawn: err = %v", err)
	}
	if _, err := g.Attempt(rules.E3, rules.E4); !errors.Is(err, ErrNotYourPiece) {
		t.Fatalf("moving from an empty square: err = %v", err)
	}
	if g.FEN() != before || g.Turn() != rules.White || len(g.Log()) != 2 {
		t.Fatalf("state mutated by rejected attempts: %s", g.FEN())
	}
}

func TestCheckState(t *testing.T) {
	g := New()
	res := playAll(t, g, "e2e4", "f7f6", "d1h5")
	if res.State != StateCheck {
		t.Fatalf("state = %s, want check", res.State)
	}
	if res = playAll(t, g, "g7g6"); res.State != StateOngoing {
		t.Fatalf("state after block = %s, want ongoing", res.State)
	}
}

func TestReplayOrdersBySequence(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []Record{
		{Seq: 3, At: base.Add(3 * time.Second), UCI: "g2g4"},
		{Seq: 1, At: base.Add(1 * time.Second), UCI: "f2f3"},
		{Seq: 4, At: base.Add(2 * time.Second), UCI: "d8h4"},
		{Seq: 2, At: base.Add(4 * time.Second), UCI: "e7e5"},
	}
	g, err := Replay(rules.StartFEN, records)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if g.State() != StateCheckmate {
		t.Fatalf("state = %s, want checkmate", g.State())
	}
	if records[0].Seq != 3 {
		t.Fatalf("Replay reordered the caller's slice")
	}
	got := g.MovesUCI()
	want := []string{"f2f3", "e7e5", "g2g4", "d8h4"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("log = %v, want %v", got, want)
		}
	}
}

func TestReplayRejectsBrokenLog(t *testing.T) {
	_, err := Replay(rules.StartFEN, []Record{{Seq: 1, UCI: "e2e4"}, {Seq: 2, UCI: "e2e4"}})
	if !errors.Is(err, ErrNotYourPiece) {
		t.Fatalf("err = %v", err)
	}
	_, err = Replay("4k3/P7/8/8/8/8/8/4K3 w - - 0 1", []Record{{Seq: 1, UCI: "a7a8"}})
	if !errors.Is(err, ErrPromotionPending) {
		t.Fatalf("unresolved promotion in log: err = %v", err)
	}
}

func TestPromotionSuspendsMove(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g, err := NewFromFEN("4k3/P7/8/8/8/8/8/4K3 w - - 0 1", WithNow(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewFromFEN: %v", err)
	}
	before := g.FEN()

	res, err := g.Attempt(rules.A7, rules.A8)
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if res.Result != ResultPromotionPending {
		t.Fatalf("result = %v, want pending", res.Result)
	}
	if g.FEN() != before || g.Turn() != rules.White {
		t.Fatalf("pending promotion mutated the position: %s", g.FEN())
	}
	if _, err := g.Attempt(rules.E1, rules.E2); !errors.Is(err, ErrPromotionPending) {
		t.Fatalf("other move while pending: err = %v", err)
	}
	if _, err := g.Promote(rules.King); !errors.Is(err, ErrInvalidPromotion) {
		t.Fatalf("promote to king: err = %v", err)
	}

	res, err = g.Promote(rules.Rook)
	if err != nil {
		t.Fatalf("Promote: %v", err)
	}
	if res.Result != ResultApplied || res.Move.UCI() != "a7a8r" {
		t.Fatalf("unexpected result %+v", res)
	}
	pos := g.Position()
	if pos.At(rules.A8) != rules.NewPiece(rules.White, rules.Rook) || g.Turn() != rules.Black {
		t.Fatalf("promotion not completed: %s", g.FEN())
	}
	if res.State != StateCheck {
		t.Fatalf("rook on a8 should give check, state = %s", res.State)
	}
}

func TestPromotionExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	g, err := NewFromFEN("4k3/P7/8/8/8/8/8/4K3 w - - 0 1", WithNow(clock), WithPromotionTimeout(30*time.Second))
	if err != nil {
		t.Fatalf("NewFromFEN: %v", err)
	}
	if _, err := g.Attempt(rules.A7, rules.A8); err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if g.ExpirePromotion(now.Add(10 * time.Second)) {
		t.Fatalf("expired before the deadline")
	}
	now = now.Add(31 * time.Second)
	if _, err := g.Promote(rules.Queen); !errors.Is(err, ErrPromotionExpired) {
		t.Fatalf("late promote: err = %v", err)
	}
	if _, ok := g.Pending(); ok {
		t.Fatalf("expired promotion still pending")
	}
	// the same side moves again
	if _, err := g.PlayUCI("e1d2"); err != nil {
		t.Fatalf("move after expiry: %v", err)
	}
}

func TestCancelPromotion(t *testing.T) {
	g, err := NewFromFEN("4k3/P7/8/8/8/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("NewFromFEN: %v", err)
	}
	if g.CancelPromotion() {
		t.Fatalf("cancel with nothing pending")
	}
	if _, err := g.Attempt(rules.A7, rules.A8); err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if !g.CancelPromotion() {
		t.Fatalf("cancel failed")
	}
	if _, err := g.Promote(rules.Queen); !errors.Is(err, ErrNoPromotionPending) {
		t.Fatalf("promote after cancel: err = %v", err)
	}
}

func TestPlayUCIWithPromotionLetter(t *testing.T) {
	g, err := NewFromFEN("4k3/P7/8/8/8/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("NewFromFEN: %v", err)
	}
	res := playAll(t, g, "a7a8q")
	if res.Result != ResultApplied || res.State != StateCheck {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestStalemateIsTerminalDraw(t *testing.T) {
	g, err := NewFromFEN("7k/8/6K1/8/8/8/8/5Q2 w - - 0 1")
	if err != nil {
		t.Fatalf("NewFromFEN: %v", err)
	}
	var over GameOver
	g.OnGameOver(func(o GameOver) { over = o })
	res := playAll(t, g, "f1f7")
	if res.State != StateStalemate {
		t.Fatalf("state = %s, want stalemate", res.State)
	}
	if over.Kind != EndStalemate || !over.Draw {
		t.Fatalf("unexpected game over %+v", over)
	}
}

func TestFlagTimeoutIsDraw(t *testing.T) {
	g := New()
	playAll(t, g, "e2e4")
	var seen []GameOver
	g.OnGameOver(func(o GameOver) { seen = append(seen, o) })

	over, err := g.FlagTimeout(rules.Black)
	if err != nil {
		t.Fatalf("FlagTimeout: %v", err)
	}
	if over.Kind != EndTimeout || !over.Draw || over.Plies != 1 {
		t.Fatalf("unexpected game over %+v", over)
	}
	if len(seen) != 1 || seen[0] != over {
		t.Fatalf("listeners saw %+v", seen)
	}
	if g.State() != StateTimeout {
		t.Fatalf("state = %s", g.State())
	}
	if _, err := g.FlagTimeout(rules.White); !errors.Is(err, ErrGameOver) {
		t.Fatalf("second timeout: err = %v", err)
	}
	if _, err := g.PlayUCI("e7e5"); !errors.Is(err, ErrGameOver) {
		t.Fatalf("move after timeout: err = %v", err)
	}
}

func TestFlagTimeoutNotifiesEveryListener(t *testing.T) {
	g := New()
	calls := 0
	for i := 0; i < 3; i++ {
		g.OnGameOver(func(GameOver) { calls++ })
	}
	if _, err := g.FlagTimeout(rules.White); err != nil {
		t.Fatalf("FlagTimeout: %v", err)
	}
	if calls != 3 {
		t.Fatalf("listeners called %d times, want 3", calls)
	}
}

func TestNewFromFENRejectsCapturableKing(t *testing.T) {
	if _, err := NewFromFEN("4k2R/8/8/8/8/8/8/4K3 w - - 0 1"); !errors.Is(err, rules.ErrInvalidFEN) {
		t.Fatalf("err = %v, want ErrInvalidFEN", err)
	}
}

func TestLateListenerSeesOutcome(t *testing.T) {
	g, err := NewFromFEN("7k/6Q1/6K1/8/8/8/8/8 b - - 0 1")
	if err != nil {
		t.Fatalf("NewFromFEN: %v", err)
	}
	called := false
	g.OnGameOver(func(o GameOver) { called = o.Kind == EndCheckmate && o.Winner == rules.White })
	if !called {
		t.Fatalf("listener on a finished game was not invoked")
	}
}
