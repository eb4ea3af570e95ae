package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultTTL = 24 * time.Hour

type Store struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func New(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{rdb: rdb, ttl: ttl, logger: logger, now: time.Now}
}

// Open connects to REDIS_URL and verifies the connection.
func Open(ctx context.Context, redisURL string, ttl time.Duration, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for game store")
	}
	opts, err := redis.ParseURL(strings.TrimSpace(redisURL))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(rdb, ttl, logger), nil
}

func (s *Store) Close() error { return s.rdb.Close() }

func gameKey(id string) string     { return "arena:game:" + strings.TrimSpace(id) }
func movesKey(id string) string    { return gameKey(id) + ":moves" }
func channelKey(id string) string  { return "arena:events:" + strings.TrimSpace(id) }
func userKey(userID string) string { return "arena:user:" + strings.TrimSpace(userID) + ":games" }

func (s *Store) CreateGame(ctx context.Context, g *GameRecord) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, gameKey(g.ID), raw, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrExists, g.ID)
	}
	return s.indexParticipants(ctx, g.ID, g.WhiteID, g.BlackID)
}

func (s *Store) indexParticipants(ctx context.Context, gameID string, users ...string) error {
	pipe := s.rdb.TxPipeline()
	for _, u := range users {
		if strings.TrimSpace(u) == "" {
			continue
		}
		pipe.SAdd(ctx, userKey(u), gameID)
		pipe.Expire(ctx, userKey(u), s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// ActiveGames returns the user's active games, most recently updated first.
func (s *Store) ActiveGames(ctx context.Context, userID string) ([]*GameRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, nil
	}
	ids, err := s.rdb.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	var list []*GameRecord
	for _, id := range ids {
		g, err := getGame(ctx, s.rdb, id)
		if errors.Is(err, ErrNotFound) {
			// expired game; drop the stale index entry
			_ = s.rdb.SRem(ctx, userKey(userID), id).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		if g.Active() {
			list = append(list, g)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
	return list, nil
}

func (s *Store) LoadGame(ctx context.Context, id string) (*GameRecord, error) {
	return getGame(ctx, s.rdb, id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getGame(ctx context.Context, c getter, id string) (*GameRecord, error) {
	raw, err := c.Get(ctx, gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var g GameRecord
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", id, err)
	}
	return &g, nil
}

// Moves returns the log ordered by sequence number.
func (s *Store) Moves(ctx context.Context, id string) ([]MoveRecord, error) {
	raws, err := s.rdb.LRange(ctx, movesKey(id), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]MoveRecord, 0, len(raws))
	for _, raw := range raws {
		var m MoveRecord
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("decode move of %s: %w", id, err)
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// AppendMove commits mv as move number expectedPlies+1. update mutates the game
// header inside the same optimistic transaction. If another writer got there
// first the call fails with ErrConflict and nothing is written.
func (s *Store) AppendMove(ctx context.Context, id string, expectedPlies int, mv MoveRecord, update func(*GameRecord) error) (MoveRecord, *GameRecord, error) {
	gk, mk := gameKey(id), movesKey(id)
	var committed *GameRecord

	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := getGame(ctx, tx, id)
		if err != nil {
			return err
		}
		if !cur.Active() {
			return ErrGameClosed
		}
		n, err := tx.LLen(ctx, mk).Result()
		if err != nil {
			return err
		}
		if int(n) != expectedPlies || cur.Plies != expectedPlies {
			return ErrConflict
		}

		mv.GameID = id
		mv.Seq = n + 1
		mv.Timestamp = s.now().UTC()
		if update != nil {
			if err := update(cur); err != nil {
				return err
			}
		}
		cur.Plies = expectedPlies + 1
		cur.UpdatedAt = mv.Timestamp

		moveRaw, err := json.Marshal(mv)
		if err != nil {
			return err
		}
		gameRaw, err := json.Marshal(cur)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.RPush(ctx, mk, moveRaw)
			pipe.Expire(ctx, mk, s.ttl)
			pipe.Set(ctx, gk, gameRaw, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		committed = cur
		return nil
	}, gk, mk)

	if errors.Is(err, redis.TxFailedErr) {
		return MoveRecord{}, nil, ErrConflict
	}
	if err != nil {
		return MoveRecord{}, nil, err
	}

	s.publish(ctx, Event{Type: EventMove, Move: &mv, Game: committed})
	if !committed.Active() {
		s.publish(ctx, Event{Type: EventGameOver, Game: committed})
	}
	return mv, committed, nil
}

// Finish closes an active game without a move (e.g. timeout). update sets the result fields.
func (s *Store) Finish(ctx context.Context, id string, update func(*GameRecord) error) (*GameRecord, error) {
	gk := gameKey(id)
	var committed *GameRecord

	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := getGame(ctx, tx, id)
		if err != nil {
			return err
		}
		if !cur.Active() {
			return ErrGameClosed
		}
		if err := update(cur); err != nil {
			return err
		}
		if cur.Active() {
			return fmt.Errorf("finish left game %s active", id)
		}
		cur.UpdatedAt = s.now().UTC()
		raw, err := json.Marshal(cur)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, gk, raw, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		committed = cur
		return nil
	}, gk)

	if errors.Is(err, redis.TxFailedErr) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}
	s.publish(ctx, Event{Type: EventGameOver, Game: committed})
	return committed, nil
}

func (s *Store) publish(ctx context.Context, ev Event) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := s.rdb.Publish(ctx, channelKey(ev.Game.ID), raw).Err(); err != nil {
		// subscribers resynchronise from the log on reconnect
		s.logger.Warn("arena_publish_error", zap.String("game_id", ev.Game.ID), zap.String("type", string(ev.Type)), zap.Error(err))
	}
}

// Subscription delivers events of one game until Close or context cancellation.
type Subscription struct {
	ps     *redis.PubSub
	events chan Event
	done   chan struct{}
}

func (s *Store) Subscribe(ctx context.Context, id string) (*Subscription, error) {
	ps := s.rdb.Subscribe(ctx, channelKey(id))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", id, err)
	}
	sub := &Subscription{ps: ps, events: make(chan Event, 16), done: make(chan struct{})}
	go sub.pump(ctx, s.logger)
	return sub, nil
}

func (sub *Subscription) Events() <-chan Event { return sub.events }

func (sub *Subscription) Close() error {
	select {
	case <-sub.done:
		return nil
	default:
	}
	return sub.ps.Close()
}

func (sub *Subscription) pump(ctx context.Context, logger *zap.Logger) {
	defer close(sub.done)
	defer close(sub.events)
	defer sub.ps.Close()

	ch := sub.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Warn("arena_event_decode_error", zap.Error(err))
				continue
			}
			select {
			case sub.events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}
