package analysis

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/park285/cheese-arena/internal/fastclient"
	"github.com/park285/cheese-arena/internal/rules"
)

func fixed(move string, err error) Oracle {
	return OracleFunc(func(context.Context, string, int) (string, error) { return move, err })
}

func TestSuggest(t *testing.T) {
	cases := []struct {
		name   string
		oracle Oracle
		fen    string
		want   Suggestion
	}{
		{"legal", fixed("e2e4", nil), rules.StartFEN, Suggestion{Move: "e2e4", Available: true}},
		{"uppercase trimmed", fixed(" G1F3 ", nil), rules.StartFEN, Suggestion{Move: "g1f3", Available: true}},
		{"oracle error", fixed("", errors.New("boom")), rules.StartFEN, Suggestion{}},
		{"malformed", fixed("castle", nil), rules.StartFEN, Suggestion{}},
		{"illegal", fixed("e2e5", nil), rules.StartFEN, Suggestion{}},
		{"wrong side", fixed("e7e5", nil), rules.StartFEN, Suggestion{}},
		{"bad fen", fixed("e2e4", nil), "garbage", Suggestion{}},
		{"promotion defaults to queen", fixed("a7a8", nil), "4k3/P7/8/8/8/8/8/4K3 w - - 0 1", Suggestion{Move: "a7a8q", Available: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := NewAdvisor(tc.oracle, AdvisorConfig{}, nil)
			if got := a.Suggest(context.Background(), tc.fen, 0); got != tc.want {
				t.Fatalf("Suggest = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestSuggestClampsDepthAndTimesOut(t *testing.T) {
	var seen int
	slow := OracleFunc(func(ctx context.Context, _ string, depth int) (string, error) {
		seen = depth
		<-ctx.Done()
		return "", ctx.Err()
	})
	a := NewAdvisor(slow, AdvisorConfig{MaxDepth: 10, Timeout: 20 * time.Millisecond}, nil)
	if got := a.Suggest(context.Background(), rules.StartFEN, 50); got.Available {
		t.Fatalf("timed out oracle produced %+v", got)
	}
	if seen != 10 {
		t.Fatalf("depth passed = %d, want 10", seen)
	}
}

func TestNilAdvisorIsDisabled(t *testing.T) {
	var a *Advisor
	if a.Enabled() || a.Suggest(context.Background(), rules.StartFEN, 1).Available {
		t.Fatalf("nil advisor should be disabled")
	}
}

func newHTTPOracle(t *testing.T, handler fasthttp.RequestHandler) *HTTPOracle {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = fasthttp.Serve(ln, handler) }()
	t.Cleanup(func() { _ = ln.Close() })
	c := fastclient.New("http://engine.test",
		fastclient.WithDial(func(string) (net.Conn, error) { return ln.Dial() }),
		fastclient.WithRetry(1),
	)
	return NewHTTPOracle(c, "/api/s/v2.php")
}

func TestHTTPOracle(t *testing.T) {
	var gotFEN, gotDepth string
	o := newHTTPOracle(t, func(ctx *fasthttp.RequestCtx) {
		gotFEN = string(ctx.QueryArgs().Peek("fen"))
		gotDepth = string(ctx.QueryArgs().Peek("depth"))
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"success":true,"evaluation":0.3,"bestmove":"bestmove e2e4 ponder e7e5"}`)
	})
	mv, err := o.BestMove(context.Background(), rules.StartFEN, 12)
	if err != nil {
		t.Fatalf("BestMove: %v", err)
	}
	if mv != "e2e4" || gotFEN != rules.StartFEN || gotDepth != "12" {
		t.Fatalf("mv=%s fen=%q depth=%q", mv, gotFEN, gotDepth)
	}
}

func TestHTTPOracleFailure(t *testing.T) {
	o := newHTTPOracle(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`{"success":false,"data":"invalid fen"}`)
	})
	if _, err := o.BestMove(context.Background(), "bad", 5); err == nil {
		t.Fatalf("expected error")
	}
	a := NewAdvisor(o, AdvisorConfig{}, nil)
	if got := a.Suggest(context.Background(), rules.StartFEN, 5); got.Available {
		t.Fatalf("failed oracle produced %+v", got)
	}
}

func TestParseBestMove(t *testing.T) {
	cases := map[string]string{
		"bestmove e2e4 ponder e7e5": "e2e4",
		"e7e8q":                     "e7e8q",
		"bestmove (none)":           "",
		"":                          "",
	}
	for in, want := range cases {
		if got := parseBestMove(in); got != want {
			t.Fatalf("parseBestMove(%q) = %q, want %q", in, got, want)
		}
	}
}
