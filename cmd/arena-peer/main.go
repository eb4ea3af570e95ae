package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	appcfg "github.com/park285/cheese-arena/internal/config"
	"github.com/park285/cheese-arena/internal/fastclient"
	"github.com/park285/cheese-arena/internal/obslog"
	"github.com/park285/cheese-arena/internal/peer"
	"github.com/park285/cheese-arena/pkg/arenadto"
)

func main() {
	server := flag.String("server", envDefault("ARENA_URL", "http://localhost:8080"), "arena server base URL")
	gameID := flag.String("game", "", "game id to follow")
	player := flag.String("player", os.Getenv("ARENA_PLAYER_ID"), "player id sent as X-Player-ID")
	opponent := flag.String("create", "", "create a new game against this player id (caller plays white)")
	local := flag.Bool("local", false, "play a hotseat game in this terminal, no server")
	flag.Parse()

	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()

	if *local {
		cfg, err := appcfg.LoadLocal()
		if err != nil {
			log.Fatalf("config error: %v", err)
		}
		if err := playLocal(os.Stdin, os.Stdout, cfg.PromotionTimeout()); err != nil {
			log.Fatal(err)
		}
		return
	}

	if *player == "" {
		log.Fatal("-player (or ARENA_PLAYER_ID) is required")
	}
	client := peer.NewClient(*server, *player, fastclient.WithTimeout(8*time.Second))
	ctx := context.Background()

	if *opponent != "" {
		st, err := client.CreateGame(ctx, arenadto.CreateGameRequest{WhiteID: *player, BlackID: *opponent})
		if err != nil {
			log.Fatalf("create game: %v", err)
		}
		*gameID = st.ID
		fmt.Printf("created game %s\n", st.ID)
	}
	if *gameID == "" {
		log.Fatal("-game or -create is required")
	}

	wsURL, err := streamURL(*server, *gameID)
	if err != nil {
		log.Fatalf("server url: %v", err)
	}
	header := http.Header{}
	header.Set("X-Player-ID", *player)
	stream := peer.NewStream(wsURL, peer.StreamOptions{
		MaxReconnectAttempts: 5,
		Header:               header,
		Logger:               obslog.Named("peer"),
	})
	stream.OnStateChange(func(state peer.StreamState) {
		log.Printf("WS state: %s", state)
	})

	follower := peer.NewFollower(obslog.Named("follower"))
	follower.OnUpdate(printView)
	stream.OnEnvelope(func(env arenadto.Envelope) {
		if err := follower.Handle(env); err != nil {
			obslog.L().Warn("peer_envelope_error", zap.String("type", env.Type), zap.Error(err))
		}
	})

	cctx, ccancel := context.WithTimeout(ctx, 10*time.Second)
	err = stream.Connect(cctx)
	ccancel()
	if err != nil {
		log.Fatalf("WS connect error: %v", err)
	}

	// each stdin line is a move in UCI form
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			if _, err := client.PlayMove(ctx, *gameID, line); err != nil {
				fmt.Printf("! %v\n", err)
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = stream.Close(closeCtx)
}

func printView(v peer.View) {
	last := "-"
	if v.Last != nil {
		last = v.Last.UCI
		if v.Last.SAN != "" {
			last = v.Last.SAN
		}
	}
	fmt.Printf("[%d] %s  turn=%s state=%s last=%s\n", v.Plies, v.FEN, v.Turn, v.State, last)
	if v.Result != nil {
		fmt.Printf("game over: %s\n", v.Result.Message)
	}
}

func streamURL(base, gameID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/games/" + url.PathEscape(gameID)
	return u.String(), nil
}

func envDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
