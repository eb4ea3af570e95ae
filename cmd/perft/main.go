package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/park285/cheese-arena/internal/rules"
)

func main() {
	fen := flag.String("fen", rules.StartFEN, "FEN string (defaults to initial position)")
	depth := flag.Int("depth", 0, "Perft depth (required)")
	divide := flag.Bool("divide", false, "Print per-move node counts at root")
	flag.Parse()

	if *depth <= 0 {
		fmt.Fprintln(os.Stderr, "-depth must be > 0")
		os.Exit(2)
	}
	pos, err := rules.ParseFEN(*fen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ParseFEN error: %v\n", err)
		os.Exit(2)
	}

	if *divide {
		div := rules.Divide(&pos, *depth)
		moves := make([]string, 0, len(div))
		var sum uint64
		for m, n := range div {
			moves = append(moves, m)
			sum += n
		}
		sort.Strings(moves)
		for _, m := range moves {
			fmt.Printf("%s: %d\n", m, div[m])
		}
		fmt.Printf("Total: %d\n", sum)
		return
	}

	start := time.Now()
	nodes := rules.Perft(&pos, *depth)
	elapsed := time.Since(start)
	nps := 0.0
	if s := elapsed.Seconds(); s > 0 {
		nps = float64(nodes) / s
	}
	fmt.Printf("depth=%d nodes=%d time=%s nps=%.0f\n", *depth, nodes, elapsed.Round(time.Millisecond), nps)
}
