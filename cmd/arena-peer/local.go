package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/park285/cheese-arena/internal/game"
	"github.com/park285/cheese-arena/internal/rules"
)

var promotionPieces = map[string]rules.Kind{
	"q": rules.Queen,
	"r": rules.Rook,
	"b": rules.Bishop,
	"n": rules.Knight,
}

// playLocal runs a hotseat game: "e2e4" moves, "flag white|black" ends on
// time, "quit" leaves. A bare pawn move to the last rank asks for a piece.
func playLocal(in io.Reader, out io.Writer, promotionTimeout time.Duration) error {
	g := game.New(game.WithPromotionTimeout(promotionTimeout))
	done := false
	g.OnGameOver(func(over game.GameOver) {
		done = true
		if over.Draw {
			fmt.Fprintf(out, "game over: %s, draw\n", over.Kind)
			return
		}
		fmt.Fprintf(out, "game over: %s, %s wins\n", over.Kind, over.Winner)
	})

	sc := bufio.NewScanner(in)
	fmt.Fprintf(out, "%s (%s to move)\n", g.FEN(), g.Turn())
	for !done && sc.Scan() {
		line := strings.ToLower(strings.TrimSpace(sc.Text()))
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if _, pending := g.Pending(); pending {
			if g.ExpirePromotion(time.Now()) {
				fmt.Fprintln(out, "promotion expired, move again")
				continue
			}
			kind, ok := promotionPieces[fields[0]]
			if !ok {
				if fields[0] == "cancel" {
					g.CancelPromotion()
					fmt.Fprintln(out, "promotion cancelled")
				} else {
					fmt.Fprintln(out, "promote to q, r, b or n (or cancel)")
				}
				continue
			}
			res, err := g.Promote(kind)
			report(out, res, err)
			continue
		}

		switch fields[0] {
		case "quit", "exit":
			return nil
		case "flag":
			if len(fields) < 2 {
				fmt.Fprintln(out, "flag white|black")
				continue
			}
			loser, err := rules.ParseColor(fields[1])
			if err != nil {
				fmt.Fprintf(out, "! %v\n", err)
				continue
			}
			if _, err := g.FlagTimeout(loser); err != nil {
				fmt.Fprintf(out, "! %v\n", err)
			}
			continue
		}

		res, err := g.PlayUCI(fields[0])
		if err == nil && res.Result == game.ResultPromotionPending {
			fmt.Fprintf(out, "%s promotes: q, r, b or n?\n", res.Move.UCI())
			continue
		}
		report(out, res, err)
	}
	return sc.Err()
}

func report(out io.Writer, res game.MoveResult, err error) {
	if err != nil {
		fmt.Fprintf(out, "! %v\n", err)
		return
	}
	fmt.Fprintf(out, "%s  %s (%s)\n", res.Move.UCI(), res.FEN, res.State)
}
