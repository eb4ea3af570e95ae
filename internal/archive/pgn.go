package archive

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/cheese-arena/internal/domain"
	"github.com/park285/cheese-arena/internal/rules"
)

func mapResultToPGN(result string) string {
	switch strings.ToLower(strings.TrimSpace(result)) {
	case "white":
		return "1-0"
	case "black":
		return "0-1"
	case "draw":
		return "1/2-1/2"
	default:
		return "*"
	}
}

// BuildPGN renders the game's SAN list. Games that did not start from the
// standard position carry SetUp/FEN tags and may open with a black move.
func BuildPGN(g *domain.ArchivedGame) string {
	if g == nil {
		return ""
	}
	pgnResult := mapResultToPGN(g.Result)

	var b strings.Builder
	date := g.EndedAt
	if date.IsZero() {
		date = time.Now()
	}
	b.WriteString("[Event \"Arena\"]\n")
	b.WriteString("[Site \"cheese-arena\"]\n")
	fmt.Fprintf(&b, "[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day())
	fmt.Fprintf(&b, "[White \"%s\"]\n", sanitizePGN(g.WhiteID))
	fmt.Fprintf(&b, "[Black \"%s\"]\n", sanitizePGN(g.BlackID))
	fmt.Fprintf(&b, "[Result \"%s\"]\n", pgnResult)

	startBlack := false
	fullmove := 1
	if fen := strings.TrimSpace(g.InitialFEN); fen != "" && fen != rules.StartFEN {
		b.WriteString("[SetUp \"1\"]\n")
		fmt.Fprintf(&b, "[FEN \"%s\"]\n", fen)
		if pos, err := rules.ParseFEN(fen); err == nil {
			startBlack = pos.Turn == rules.Black
			fullmove = pos.FullmoveNumber
		}
	}
	if g.Opening != "" {
		fmt.Fprintf(&b, "[Opening \"%s\"]\n", sanitizePGN(g.Opening))
	}
	if g.Termination != "" {
		fmt.Fprintf(&b, "[Termination \"%s\"]\n", sanitizePGN(strings.ToLower(g.Termination)))
	}
	b.WriteString("\n")

	sans := g.MovesSAN
	if startBlack && len(sans) > 0 {
		fmt.Fprintf(&b, "%d... %s ", fullmove, strings.TrimSpace(sans[0]))
		sans = sans[1:]
		fullmove++
	}
	for i := 0; i < len(sans); i += 2 {
		fmt.Fprintf(&b, "%d. %s", fullmove+i/2, strings.TrimSpace(sans[i]))
		if i+1 < len(sans) {
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(sans[i+1]))
		}
		b.WriteString(" ")
	}
	b.WriteString(pgnResult)
	return b.String()
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
