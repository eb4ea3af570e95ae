package game

import (
	"fmt"
	"sort"
	"time"
)

// Record is one entry of a persisted move log.
type Record struct {
	Seq int64
	At  time.Time
	UCI string
}

// SortRecords orders records by server sequence, then by timestamp.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Seq != records[j].Seq {
			return records[i].Seq < records[j].Seq
		}
		return records[i].At.Before(records[j].At)
	})
}

// Replay rebuilds a game by applying the ordered log from the initial position.
// The input slice is not modified.
func Replay(initialFEN string, records []Record, opts ...Option) (*Game, error) {
	g, err := NewFromFEN(initialFEN, opts...)
	if err != nil {
		return nil, err
	}
	ordered := append([]Record(nil), records...)
	SortRecords(ordered)
	for _, r := range ordered {
		res, err := g.PlayUCI(r.UCI)
		if err != nil {
			return nil, fmt.Errorf("replay seq %d (%s): %w", r.Seq, r.UCI, err)
		}
		if res.Result == ResultPromotionPending {
			return nil, fmt.Errorf("replay seq %d (%s): %w", r.Seq, r.UCI, ErrPromotionPending)
		}
	}
	return g, nil
}
