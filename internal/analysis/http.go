package analysis

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/park285/cheese-arena/internal/fastclient"
)

// HTTPOracle queries a web engine endpoint: GET <path>?fen=..&depth=..
// answering {"success":true,"bestmove":"bestmove e2e4 ponder e7e5"}.
type HTTPOracle struct {
	client *fastclient.Client
	path   string
}

type bestMoveResponse struct {
	Success  bool   `json:"success"`
	BestMove string `json:"bestmove"`
	Data     string `json:"data"`
}

func NewHTTPOracle(client *fastclient.Client, path string) *HTTPOracle {
	if path == "" {
		path = "/"
	}
	return &HTTPOracle{client: client, path: path}
}

func (h *HTTPOracle) BestMove(ctx context.Context, fen string, depth int) (string, error) {
	q := url.Values{}
	q.Set("fen", fen)
	q.Set("depth", strconv.Itoa(depth))

	var resp bestMoveResponse
	if err := h.client.GetJSON(ctx, h.path, q, &resp); err != nil {
		return "", fmt.Errorf("analysis request: %w", err)
	}
	if !resp.Success {
		return "", fmt.Errorf("analysis failed: %s", strings.TrimSpace(resp.Data))
	}
	mv := parseBestMove(resp.BestMove)
	if mv == "" {
		return "", ErrNoMove
	}
	return mv, nil
}

// parseBestMove accepts either a bare move or a UCI "bestmove <mv> [ponder <mv>]" line.
func parseBestMove(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		if f == "bestmove" {
			if i+1 < len(fields) && fields[i+1] != "(none)" {
				return fields[i+1]
			}
			return ""
		}
	}
	if len(fields) > 0 && fields[0] != "(none)" {
		return fields[0]
	}
	return ""
}
