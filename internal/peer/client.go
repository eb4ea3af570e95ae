package peer

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"

	"github.com/park285/cheese-arena/internal/fastclient"
	"github.com/park285/cheese-arena/pkg/arenadto"
)

// Client talks to an arena server's REST surface as one player.
type Client struct {
	http     *fastclient.Client
	playerID string
}

func NewClient(baseURL, playerID string, opts ...fastclient.Option) *Client {
	c := &Client{playerID: playerID}
	opts = append([]fastclient.Option{fastclient.WithHeaderProvider(func() map[string]string {
		return map[string]string{"X-Player-ID": c.playerID}
	})}, opts...)
	c.http = fastclient.New(baseURL, opts...)
	return c
}

func (c *Client) PlayerID() string { return c.playerID }

func (c *Client) CreateGame(ctx context.Context, req arenadto.CreateGameRequest) (*arenadto.GameState, error) {
	var st arenadto.GameState
	if err := c.http.PostJSON(ctx, "/api/games", req, &st); err != nil {
		return nil, domainError(err)
	}
	return &st, nil
}

func (c *Client) State(ctx context.Context, gameID string) (*arenadto.GameState, error) {
	var st arenadto.GameState
	if err := c.http.GetJSON(ctx, "/api/games/"+url.PathEscape(gameID), nil, &st); err != nil {
		return nil, domainError(err)
	}
	return &st, nil
}

func (c *Client) LegalTargets(ctx context.Context, gameID, from string) ([]string, error) {
	var out arenadto.LegalTargetsResponse
	q := url.Values{"from": {from}}
	if err := c.http.GetJSON(ctx, "/api/games/"+url.PathEscape(gameID)+"/legal", q, &out); err != nil {
		return nil, domainError(err)
	}
	return out.Targets, nil
}

func (c *Client) PlayMove(ctx context.Context, gameID, uci string) (*arenadto.GameState, error) {
	var st arenadto.GameState
	if err := c.http.PostJSON(ctx, "/api/games/"+url.PathEscape(gameID)+"/moves", arenadto.PlayMoveRequest{UCI: uci}, &st); err != nil {
		return nil, domainError(err)
	}
	return &st, nil
}

func (c *Client) Timeout(ctx context.Context, gameID, color string) (*arenadto.GameState, error) {
	var st arenadto.GameState
	if err := c.http.PostJSON(ctx, "/api/games/"+url.PathEscape(gameID)+"/timeout", arenadto.TimeoutRequest{Color: color}, &st); err != nil {
		return nil, domainError(err)
	}
	return &st, nil
}

func (c *Client) Suggest(ctx context.Context, gameID string, depth int) (arenadto.SuggestionResponse, error) {
	var out arenadto.SuggestionResponse
	var q url.Values
	if depth > 0 {
		q = url.Values{"depth": {strconv.Itoa(depth)}}
	}
	if err := c.http.GetJSON(ctx, "/api/games/"+url.PathEscape(gameID)+"/suggestion", q, &out); err != nil {
		return arenadto.SuggestionResponse{}, domainError(err)
	}
	return out, nil
}

// domainError unwraps the server's DomainError body when there is one.
func domainError(err error) error {
	var se *fastclient.StatusError
	if !errors.As(err, &se) {
		return err
	}
	var de arenadto.DomainError
	if jerr := json.Unmarshal([]byte(se.Body), &de); jerr != nil || de.Code == "" {
		return err
	}
	return de
}
