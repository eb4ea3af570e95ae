package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/cheese-arena/internal/archive"
	"github.com/park285/cheese-arena/internal/arena"
	"github.com/park285/cheese-arena/internal/msgcat"
	"github.com/park285/cheese-arena/internal/oracle"
	"github.com/park285/cheese-arena/internal/store"
	"github.com/park285/cheese-arena/pkg/arenadto"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	st, err := store.Open(context.Background(), fmt.Sprintf("redis://%s/0", mr.Addr()), time.Hour, nil)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cat, err := msgcat.New("en", "")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	m := arena.NewManager(st,
		arena.WithOracle(oracle.New(nil), true),
		arena.WithArchive(archive.NewMemoryRepository()),
		arena.WithCatalog(cat),
	)
	return New(m, Config{PingInterval: time.Second})
}

func doJSON(t *testing.T, app *fiber.App, method, path, player string, body any, out any) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, path, rd)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if player != "" {
		req.Header.Set("X-Player-ID", player)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func createGame(t *testing.T, app *fiber.App) string {
	t.Helper()
	var st arenadto.GameState
	code := doJSON(t, app, http.MethodPost, "/api/games", "", arenadto.CreateGameRequest{WhiteID: "alice", BlackID: "bob"}, &st)
	if code != fiber.StatusCreated || st.ID == "" {
		t.Fatalf("create: status %d, state %+v", code, st)
	}
	return st.ID
}

func TestGameLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)
	id := createGame(t, app)

	var legal arenadto.LegalTargetsResponse
	if code := doJSON(t, app, http.MethodGet, "/api/games/"+id+"/legal?from=g1", "", nil, &legal); code != 200 {
		t.Fatalf("legal status %d", code)
	}
	if len(legal.Targets) != 2 {
		t.Fatalf("knight targets = %v", legal.Targets)
	}

	for i, uci := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		player := "alice"
		if i%2 == 1 {
			player = "bob"
		}
		var st arenadto.GameState
		if code := doJSON(t, app, http.MethodPost, "/api/games/"+id+"/moves", player, arenadto.PlayMoveRequest{UCI: uci}, &st); code != 200 {
			t.Fatalf("move %s status %d", uci, code)
		}
	}

	var st arenadto.GameState
	if code := doJSON(t, app, http.MethodGet, "/api/games/"+id, "", nil, &st); code != 200 {
		t.Fatalf("state status %d", code)
	}
	if st.State != "checkmate" || st.Result == nil || st.Result.WinnerID != "bob" {
		t.Fatalf("final state = %+v", st)
	}

	var hist arenadto.HistoryResponse
	if code := doJSON(t, app, http.MethodGet, "/api/players/alice/games", "", nil, &hist); code != 200 || len(hist.Games) != 1 {
		t.Fatalf("history status %d, %+v", code, hist)
	}

	req, _ := http.NewRequest(http.MethodGet, "/api/games/"+id+"/archive?format=pgn", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	pgn, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !bytes.Contains(pgn, []byte("Qh4#")) {
		t.Fatalf("pgn = %s", pgn)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	app := newTestApp(t)
	id := createGame(t, app)
	path := "/api/games/" + id + "/moves"

	cases := []struct {
		name   string
		player string
		uci    string
		status int
		code   string
	}{
		{"no player", "", "e2e4", fiber.StatusUnauthorized, arenadto.CodeNotParticipant},
		{"wrong turn", "bob", "e7e5", fiber.StatusForbidden, arenadto.CodeNotYourTurn},
		{"outsider", "carol", "e2e4", fiber.StatusForbidden, arenadto.CodeNotParticipant},
		{"illegal", "alice", "e2e5", fiber.StatusUnprocessableEntity, arenadto.CodeIllegalMove},
		{"garbage", "alice", "xyz", fiber.StatusBadRequest, arenadto.CodeBadRequest},
	}
	for _, tc := range cases {
		var de arenadto.DomainError
		if code := doJSON(t, app, http.MethodPost, path, tc.player, arenadto.PlayMoveRequest{UCI: tc.uci}, &de); code != tc.status || de.Code != tc.code {
			t.Fatalf("%s: status %d code %q, want %d %q", tc.name, code, de.Code, tc.status, tc.code)
		}
	}

	var de arenadto.DomainError
	if code := doJSON(t, app, http.MethodGet, "/api/games/missing", "", nil, &de); code != fiber.StatusNotFound || de.Code != arenadto.CodeNotFound {
		t.Fatalf("missing game: %d %+v", code, de)
	}
	if code := doJSON(t, app, http.MethodGet, "/api/games/"+id+"/legal", "", nil, &de); code != fiber.StatusBadRequest {
		t.Fatalf("legal without from: %d", code)
	}
}

func TestPromotionRequiredIsConflict(t *testing.T) {
	app := newTestApp(t)
	var st arenadto.GameState
	doJSON(t, app, http.MethodPost, "/api/games", "", arenadto.CreateGameRequest{WhiteID: "alice", BlackID: "bob", FEN: "8/P6k/8/8/8/8/8/K7 w - - 0 1"}, &st)

	var de arenadto.DomainError
	if code := doJSON(t, app, http.MethodPost, "/api/games/"+st.ID+"/moves", "alice", arenadto.PlayMoveRequest{UCI: "a7a8"}, &de); code != fiber.StatusConflict || de.Code != arenadto.CodePromotionRequired {
		t.Fatalf("status %d %+v", code, de)
	}
}

func TestTimeoutEndpoint(t *testing.T) {
	app := newTestApp(t)
	id := createGame(t, app)

	var st arenadto.GameState
	if code := doJSON(t, app, http.MethodPost, "/api/games/"+id+"/timeout", "bob", arenadto.TimeoutRequest{Color: "White"}, &st); code != 200 {
		t.Fatalf("timeout status %d", code)
	}
	if st.State != "timeout" || st.Result == nil || !st.Result.Draw || st.Result.Winner != "" {
		t.Fatalf("after timeout: %+v", st.Result)
	}
	var de arenadto.DomainError
	if code := doJSON(t, app, http.MethodPost, "/api/games/"+id+"/moves", "alice", arenadto.PlayMoveRequest{UCI: "e2e4"}, &de); code != fiber.StatusConflict || de.Code != arenadto.CodeGameOver {
		t.Fatalf("move after timeout: %d %+v", code, de)
	}
}

func TestWebsocketPushesSnapshotThenMoves(t *testing.T) {
	app := newTestApp(t)
	id := createGame(t, app)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, fmt.Sprintf("ws://%s/ws/games/%s?playerId=bob", ln.Addr(), id), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	var env arenadto.Envelope
	if err := wsjson.Read(ctx, conn, &env); err != nil || env.Type != arenadto.EnvelopeSnapshot {
		t.Fatalf("snapshot: %+v %v", env, err)
	}

	if code := doJSON(t, app, http.MethodPost, "/api/games/"+id+"/moves", "alice", arenadto.PlayMoveRequest{UCI: "e2e4"}, nil); code != 200 {
		t.Fatalf("move status %d", code)
	}
	if err := wsjson.Read(ctx, conn, &env); err != nil || env.Type != arenadto.EnvelopeMove {
		t.Fatalf("move envelope: %+v %v", env, err)
	}
	var me arenadto.MoveEvent
	if err := env.Decode(&me); err != nil || me.Move.Seq != 1 || me.Move.UCI != "e2e4" {
		t.Fatalf("move event: %+v %v", me, err)
	}
}
