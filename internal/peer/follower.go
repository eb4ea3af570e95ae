package peer

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/park285/cheese-arena/internal/game"
	"github.com/park285/cheese-arena/pkg/arenadto"
)

// View is what a follower currently believes about the game.
type View struct {
	GameID string
	FEN    string
	Turn   string
	State  string
	Plies  int
	Last   *arenadto.MoveView
	Result *arenadto.GameOverEvent
	// Buffered counts move events held back behind a sequence gap.
	Buffered int
}

// Follower rebuilds a game locally from pushed envelopes. Move events may
// arrive out of order or twice; they are applied strictly by seq.
type Follower struct {
	mu      sync.Mutex
	logger  *zap.Logger
	gameID  string
	initial string
	g       *game.Game
	applied int64
	last    *arenadto.MoveView
	pending map[int64]arenadto.MoveView
	result  *arenadto.GameOverEvent

	onUpdate func(View)
}

func NewFollower(logger *zap.Logger) *Follower {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Follower{logger: logger, pending: map[int64]arenadto.MoveView{}}
}

// OnUpdate registers fn to run after every envelope that changed the view.
func (f *Follower) OnUpdate(fn func(View)) {
	f.mu.Lock()
	f.onUpdate = fn
	f.mu.Unlock()
}

// Handle consumes one envelope. Error envelopes are returned as errors.
func (f *Follower) Handle(env arenadto.Envelope) error {
	f.mu.Lock()
	changed, err := f.handleLocked(env)
	fn := f.onUpdate
	view := f.viewLocked()
	f.mu.Unlock()

	if changed && fn != nil {
		fn(view)
	}
	return err
}

func (f *Follower) handleLocked(env arenadto.Envelope) (bool, error) {
	switch env.Type {
	case arenadto.EnvelopeSnapshot:
		var st arenadto.GameState
		if err := env.Decode(&st); err != nil {
			return false, err
		}
		return true, f.reset(&st)
	case arenadto.EnvelopeMove:
		var ev arenadto.MoveEvent
		if err := env.Decode(&ev); err != nil {
			return false, err
		}
		return f.accept(ev.Move)
	case arenadto.EnvelopeGameOver:
		var ev arenadto.GameOverEvent
		if err := env.Decode(&ev); err != nil {
			return false, err
		}
		f.result = &ev
		return true, nil
	case arenadto.EnvelopeError:
		var de arenadto.DomainError
		if err := env.Decode(&de); err != nil {
			return false, err
		}
		return false, de
	default:
		f.logger.Debug("peer_unknown_envelope", zap.String("type", env.Type))
		return false, nil
	}
}

func (f *Follower) reset(st *arenadto.GameState) error {
	records := make([]game.Record, 0, len(st.Moves))
	for _, mv := range st.Moves {
		records = append(records, game.Record{Seq: mv.Seq, At: mv.At, UCI: mv.UCI})
	}
	g, err := game.Replay(st.InitialFEN, records)
	if err != nil {
		return fmt.Errorf("replay snapshot %s: %w", st.ID, err)
	}
	f.gameID = st.ID
	f.initial = st.InitialFEN
	f.g = g
	f.applied = int64(len(records))
	f.last = nil
	if st.LastMove != nil {
		last := *st.LastMove
		f.last = &last
	}
	f.result = st.Result

	// anything buffered beyond the snapshot may still be useful
	for seq := range f.pending {
		if seq <= f.applied {
			delete(f.pending, seq)
		}
	}
	_, err = f.drain()
	return err
}

func (f *Follower) accept(mv arenadto.MoveView) (bool, error) {
	if f.g == nil {
		// no snapshot yet; keep it for later
		f.pending[mv.Seq] = mv
		return false, nil
	}
	if mv.Seq <= f.applied {
		return false, nil
	}
	if _, dup := f.pending[mv.Seq]; dup {
		return false, nil
	}
	f.pending[mv.Seq] = mv
	return f.drain()
}

// drain applies the contiguous run of buffered moves after the applied prefix.
func (f *Follower) drain() (bool, error) {
	changed := false
	for {
		mv, ok := f.pending[f.applied+1]
		if !ok {
			return changed, nil
		}
		delete(f.pending, mv.Seq)
		if _, err := f.g.PlayUCI(mv.UCI); err != nil {
			return changed, fmt.Errorf("apply seq %d (%s): %w", mv.Seq, mv.UCI, err)
		}
		f.applied = mv.Seq
		last := mv
		f.last = &last
		changed = true
	}
}

func (f *Follower) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewLocked()
}

func (f *Follower) viewLocked() View {
	v := View{GameID: f.gameID, Plies: int(f.applied), Last: f.last, Result: f.result, Buffered: len(f.pending)}
	if f.g == nil {
		return v
	}
	v.FEN = f.g.FEN()
	v.Turn = f.g.Turn().String()
	v.State = f.g.State().String()
	if f.result != nil && f.result.Kind == string(game.EndTimeout) {
		v.State = game.StateTimeout.String()
	}
	return v
}
