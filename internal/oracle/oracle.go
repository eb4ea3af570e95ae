// Package oracle checks positions and moves against an independent chess library
// and supplies notation the rules engine does not produce itself (SAN, ECO names).
package oracle

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"
	"go.uber.org/zap"

	"github.com/park285/cheese-arena/internal/rules"
)

var ErrMismatch = errors.New("oracle disagrees with rules engine")

type Opening struct {
	Code  string
	Title string
}

type Oracle struct {
	logger *zap.Logger

	bookOnce sync.Once
	book     *opening.BookECO
}

func New(logger *zap.Logger) *Oracle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Oracle{logger: logger}
}

func (o *Oracle) ecoBook() *opening.BookECO {
	o.bookOnce.Do(func() { o.book = opening.NewBookECO() })
	return o.book
}

func load(fen string) (*nchess.Game, error) {
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rules.ErrInvalidFEN, err)
	}
	return nchess.NewGame(opt), nil
}

// ValidateFEN parses fen with both the rules engine and the oracle.
func (o *Oracle) ValidateFEN(fen string) error {
	if _, err := rules.ParseFEN(fen); err != nil {
		return err
	}
	_, err := load(fen)
	return err
}

// Step is the oracle's view of a single move.
type Step struct {
	SAN string
	FEN string
}

// Apply plays uci on fen and returns the SAN and resulting FEN as the oracle sees them.
func (o *Oracle) Apply(fen, uci string) (Step, error) {
	g, err := load(fen)
	if err != nil {
		return Step{}, err
	}
	return push(g, uci)
}

func push(g *nchess.Game, uci string) (Step, error) {
	pos := g.Position()
	mv, err := nchess.UCINotation{}.Decode(pos, uci)
	if err != nil {
		return Step{}, fmt.Errorf("%w: decode %s: %v", ErrMismatch, uci, err)
	}
	san := nchess.AlgebraicNotation{}.Encode(pos, mv)
	if err := g.PushNotationMove(uci, nchess.UCINotation{}, nil); err != nil {
		return Step{}, fmt.Errorf("%w: %s rejected: %v", ErrMismatch, uci, err)
	}
	return Step{SAN: san, FEN: g.FEN()}, nil
}

// CrossCheck replays uci on fenBefore and compares placement, side to move and
// castling rights with fenAfter. It returns the move's SAN.
func (o *Oracle) CrossCheck(fenBefore, uci, fenAfter string) (string, error) {
	step, err := o.Apply(fenBefore, uci)
	if err != nil {
		return "", err
	}
	if got, want := fenCore(step.FEN), fenCore(fenAfter); got != want {
		o.logger.Warn("oracle_mismatch",
			zap.String("fen_before", fenBefore),
			zap.String("uci", uci),
			zap.String("oracle", step.FEN),
			zap.String("engine", fenAfter),
		)
		return "", fmt.Errorf("%w: after %s oracle has %q, engine has %q", ErrMismatch, uci, got, want)
	}
	return step.SAN, nil
}

// fenCore keeps the fields every FEN writer agrees on.
func fenCore(fen string) string {
	f := strings.Fields(fen)
	if len(f) < 3 {
		return fen
	}
	return strings.Join(f[:3], " ")
}

// SANLine converts a UCI move list played from initialFEN.
func (o *Oracle) SANLine(initialFEN string, moves []string) ([]string, error) {
	g, err := load(initialFEN)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(moves))
	for _, uci := range moves {
		step, err := push(g, uci)
		if err != nil {
			return out, err
		}
		out = append(out, step.SAN)
	}
	return out, nil
}

// Opening names the deepest ECO entry matching moves played from the standard start.
func (o *Oracle) Opening(moves []string) (Opening, bool) {
	if len(moves) == 0 {
		return Opening{}, false
	}
	g := nchess.NewGame()
	for _, uci := range moves {
		if err := g.PushNotationMove(uci, nchess.UCINotation{}, nil); err != nil {
			return Opening{}, false
		}
	}
	eco := o.ecoBook().Find(g.Moves())
	if eco == nil {
		return Opening{}, false
	}
	return Opening{Code: eco.Code(), Title: eco.Title()}, true
}
