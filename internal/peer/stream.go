package peer

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/cheese-arena/pkg/arenadto"
)

type StreamState int

const (
	StreamDisconnected StreamState = iota
	StreamConnecting
	StreamConnected
	StreamReconnecting
	StreamFailed
)

func (s StreamState) String() string {
	switch s {
	case StreamConnecting:
		return "connecting"
	case StreamConnected:
		return "connected"
	case StreamReconnecting:
		return "reconnecting"
	case StreamFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

type EnvelopeCallback func(env arenadto.Envelope)

type StateCallback func(state StreamState)

type StreamOptions struct {
	MaxReconnectAttempts int
	PingInterval         time.Duration
	Header               http.Header
	Logger               *zap.Logger
}

// Stream follows one game's websocket push channel. Every (re)connect starts
// with a fresh snapshot envelope from the server.
type Stream struct {
	url  string
	opts StreamOptions

	mu    sync.Mutex
	conn  *websocket.Conn
	state StreamState

	cbM      sync.RWMutex
	envCbs   []EnvelopeCallback
	stateCbs []StateCallback

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc
}

func NewStream(wsURL string, opts StreamOptions) *Stream {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Stream{
		url:        wsURL,
		opts:       opts,
		state:      StreamDisconnected,
		stopCh:     make(chan struct{}),
		rootCtx:    ctx,
		rootCancel: cancel,
	}
}

func (s *Stream) OnEnvelope(cb EnvelopeCallback) {
	s.cbM.Lock()
	s.envCbs = append(s.envCbs, cb)
	s.cbM.Unlock()
}

func (s *Stream) OnStateChange(cb StateCallback) {
	s.cbM.Lock()
	s.stateCbs = append(s.stateCbs, cb)
	s.cbM.Unlock()
}

func (s *Stream) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Stream) Connect(ctx context.Context) error {
	if st := s.State(); st == StreamConnected || st == StreamConnecting {
		return nil
	}
	s.setState(StreamConnecting)
	conn, err := s.dial(ctx)
	if err != nil {
		s.setState(StreamFailed)
		s.scheduleReconnect()
		return err
	}
	s.attach(conn)
	return nil
}

func (s *Stream) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, s.url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      s.opts.Header.Clone(),
	})
	return conn, err
}

func (s *Stream) attach(conn *websocket.Conn) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.setState(StreamConnected)

	connCtx, cancel := context.WithCancel(s.rootCtx)
	s.wg.Add(2)
	go s.listen(connCtx, cancel, conn)
	go s.pingLoop(connCtx, cancel, conn)
}

func (s *Stream) listen(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) {
	defer s.wg.Done()
	defer cancel()
	for {
		var env arenadto.Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			if s.isStopping() {
				return
			}
			s.opts.Logger.Debug("peer_stream_read_error", zap.Error(err))
			s.drop(conn, "reconnect")
			s.scheduleReconnect()
			return
		}
		s.cbM.RLock()
		callbacks := append([]EnvelopeCallback(nil), s.envCbs...)
		s.cbM.RUnlock()
		for _, cb := range callbacks {
			cb(env)
		}
	}
}

func (s *Stream) pingLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) {
	defer s.wg.Done()
	t := time.NewTicker(s.opts.PingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, pcancel := context.WithTimeout(ctx, 3*time.Second)
			err := conn.Ping(pctx)
			pcancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 {
				// listen notices the closed conn and reconnects
				s.drop(conn, "ping failure")
				cancel()
				return
			}
		}
	}
}

func (s *Stream) drop(conn *websocket.Conn, reason string) {
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
	_ = conn.Close(websocket.StatusGoingAway, reason)
	if !s.isStopping() {
		s.setState(StreamDisconnected)
	}
}

func (s *Stream) scheduleReconnect() {
	if s.opts.MaxReconnectAttempts <= 0 || s.isStopping() {
		return
	}
	s.setState(StreamReconnecting)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for attempt := 1; attempt <= s.opts.MaxReconnectAttempts; attempt++ {
			select {
			case <-s.stopCh:
				return
			case <-time.After(backoffDuration(attempt)):
			}
			conn, err := s.dial(s.rootCtx)
			if err != nil {
				s.opts.Logger.Debug("peer_stream_reconnect_failed", zap.Int("attempt", attempt), zap.Error(err))
				continue
			}
			s.attach(conn)
			return
		}
		s.setState(StreamFailed)
	}()
}

func (s *Stream) setState(state StreamState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	s.cbM.RLock()
	callbacks := append([]StateCallback(nil), s.stateCbs...)
	s.cbM.RUnlock()
	for _, cb := range callbacks {
		cb(state)
	}
}

func (s *Stream) Close(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
	}
	s.rootCancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		s.setState(StreamDisconnected)
		return nil
	}
}

func (s *Stream) isStopping() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}
