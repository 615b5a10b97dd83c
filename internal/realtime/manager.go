// Package realtime owns the chat WebSocket: one live socket per manager,
// inbound frame validation, an append-only message log reconciled with
// optimistic sends, and reconnection with bounded exponential backoff.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/complyon/complyon-go/internal/types"
)

// State is the channel lifecycle position.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	// StateClosed is terminal and reached only through Disconnect.
	StateClosed State = "closed"
	// StateLost is terminal for the connection: the reconnect budget is
	// exhausted and the caller must Connect again explicitly.
	StateLost State = "lost"
)

// ErrNotConnected is returned by Send while the channel is not connected.
// The manager never queues outbound messages; callers fall back to the
// REST send path.
var ErrNotConnected = errors.New("realtime channel not connected")

// Conn is the slice of websocket.Conn the manager uses. Tests inject
// scripted implementations.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, payload []byte) error
	Close(code websocket.StatusCode, reason string) error
}

// Dialer opens a Conn for a conversation URL.
type Dialer func(ctx context.Context, url string) (Conn, error)

// wsConn adapts *websocket.Conn to Conn.
type wsConn struct{ c *websocket.Conn }

func (w wsConn) Read(ctx context.Context) ([]byte, error) {
	_, payload, err := w.c.Read(ctx)
	return payload, err
}

func (w wsConn) Write(ctx context.Context, payload []byte) error {
	return w.c.Write(ctx, websocket.MessageText, payload)
}

func (w wsConn) Close(code websocket.StatusCode, reason string) error {
	return w.c.Close(code, reason)
}

// DefaultDialer dials with coder/websocket.
func DefaultDialer(ctx context.Context, url string) (Conn, error) {
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return wsConn{c: c}, nil
}

// Config carries the manager knobs resolved by the root package.
type Config struct {
	WSBaseURL            string
	MaxReconnectAttempts int
	InitialReconnectWait time.Duration
	MaxReconnectWait     time.Duration
}

// Manager owns at most one live socket. Switching conversations fully
// tears down the previous socket before dialing the new one, so two
// sockets can never interleave messages into the same log.
type Manager struct {
	mu sync.Mutex

	cfg   Config
	dial  Dialer
	token func() string // session token appended to the dial URL
	log   zerolog.Logger

	state          State
	conversationID string
	conn           Conn
	mlog           *MessageLog
	cancelRead     context.CancelFunc
	reconnectTimer *time.Timer
	reconnect      *backoff.ExponentialBackOff
	attempts       int
	gen            uint64 // increments on teardown; stale read loops check it

	onMessage func(types.Message)
	onState   func(State)
}

// NewManager builds a disconnected manager. token supplies the bearer
// appended to the dial URL at (re)connect time, so reconnects after a
// refresh pick up the fresh token.
func NewManager(cfg Config, dial Dialer, token func() string, log zerolog.Logger) *Manager {
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = 5
	}
	if cfg.InitialReconnectWait <= 0 {
		cfg.InitialReconnectWait = 3 * time.Second
	}
	if cfg.MaxReconnectWait <= 0 {
		cfg.MaxReconnectWait = 30 * time.Second
	}
	if dial == nil {
		dial = DefaultDialer
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = cfg.InitialReconnectWait
	exp.Multiplier = 2
	exp.MaxInterval = cfg.MaxReconnectWait
	exp.MaxElapsedTime = 0 // the attempt budget bounds reconnection, not time
	exp.Reset()
	return &Manager{
		cfg:       cfg,
		dial:      dial,
		token:     token,
		log:       log,
		state:     StateDisconnected,
		mlog:      NewMessageLog(),
		reconnect: exp,
	}
}

// OnMessage registers the inbound message callback. Set before Connect.
func (m *Manager) OnMessage(fn func(types.Message)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onMessage = fn
}

// OnStateChange registers a state transition callback. Set before Connect.
func (m *Manager) OnStateChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onState = fn
}

// State returns the current channel state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Log returns the conversation's message log. The pointer changes when the
// conversation does, so it is read under the lock.
func (m *Manager) Log() *MessageLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mlog
}

// Connect opens the socket for conversationID. Any socket for a previous
// conversation is torn down first, and a fresh message log is started when
// the conversation changes.
func (m *Manager) Connect(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		return fmt.Errorf("conversationId is required")
	}

	m.mu.Lock()
	if m.conversationID != "" && m.conversationID != conversationID {
		m.teardownLocked(websocket.StatusNormalClosure, "switching conversation")
		m.mlog = NewMessageLog()
	} else {
		m.teardownLocked(websocket.StatusNormalClosure, "reconnecting")
	}
	m.conversationID = conversationID
	m.attempts = 0
	m.reconnect.Reset()
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	return m.open(ctx)
}

// open dials and installs the socket for the current conversation.
func (m *Manager) open(ctx context.Context) error {
	m.mu.Lock()
	convID := m.conversationID
	gen := m.gen
	url := fmt.Sprintf("%s/%s?token=%s", m.cfg.WSBaseURL, convID, m.token())
	m.mu.Unlock()

	conn, err := m.dial(ctx, url)
	if err != nil {
		m.handleDrop(gen, err)
		return err
	}

	readCtx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	if m.gen != gen || m.state == StateClosed {
		m.mu.Unlock()
		cancel()
		_ = conn.Close(websocket.StatusNormalClosure, "superseded")
		return nil
	}
	m.conn = conn
	m.cancelRead = cancel
	m.attempts = 0
	m.reconnect.Reset()
	m.setStateLocked(StateConnected)
	m.mu.Unlock()

	go m.readLoop(readCtx, gen, conn)
	return nil
}

// Send writes a message frame over the live socket. The content enters the
// log optimistically; a failed write removes the placeholder and the
// caller falls back to REST. Returns the placeholder so callers can track
// its confirmation.
func (m *Manager) Send(ctx context.Context, content string) (types.Message, error) {
	m.mu.Lock()
	if m.state != StateConnected || m.conn == nil {
		m.mu.Unlock()
		return types.Message{}, ErrNotConnected
	}
	conn := m.conn
	mlog := m.mlog
	m.mu.Unlock()

	placeholder := mlog.AppendOptimistic(content)
	payload, err := json.Marshal(Frame{Type: FrameMessage, Content: content})
	if err != nil {
		mlog.Drop(placeholder.ID)
		return types.Message{}, err
	}
	if err := conn.Write(ctx, payload); err != nil {
		mlog.Drop(placeholder.ID)
		return types.Message{}, fmt.Errorf("realtime send: %w", err)
	}
	return placeholder, nil
}

// Disconnect closes the channel deliberately. It is idempotent and
// leak-free: repeated calls accumulate no timers or handlers.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateClosed {
		return
	}
	m.teardownLocked(websocket.StatusNormalClosure, "client disconnect")
	m.setStateLocked(StateClosed)
}

// ------------------------------
// Internals
// ------------------------------

// teardownLocked cancels the reconnect timer, stops the read loop, and
// closes the socket. Callers hold m.mu.
func (m *Manager) teardownLocked(code websocket.StatusCode, reason string) {
	m.gen++
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	if m.cancelRead != nil {
		m.cancelRead()
		m.cancelRead = nil
	}
	if m.conn != nil {
		_ = m.conn.Close(code, reason)
		m.conn = nil
	}
}

func (m *Manager) setStateLocked(s State) {
	if m.state == s {
		return
	}
	m.state = s
	if m.onState != nil {
		fn := m.onState
		go fn(s)
	}
}

// readLoop pumps inbound frames until the socket drops or the connection
// generation is superseded.
func (m *Manager) readLoop(ctx context.Context, gen uint64, conn Conn) {
	for {
		payload, err := conn.Read(ctx)
		if err != nil {
			m.handleDrop(gen, err)
			return
		}
		m.dispatch(gen, payload)
	}
}

// dispatch validates one inbound frame and routes it. Malformed payloads
// are counted and logged, never dispatched: one bad frame must not corrupt
// the message history or surface as an error state. A read loop whose
// generation has been superseded must not touch the current conversation's
// log, so the generation is re-checked here, after the blocking Read.
func (m *Manager) dispatch(gen uint64, payload []byte) {
	frame, err := ParseFrame(payload)
	if err != nil {
		droppedFramesTotal.Inc()
		m.log.Warn().Err(err).Msg("dropping malformed frame")
		return
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	mlog := m.mlog
	fn := m.onMessage
	m.mu.Unlock()

	switch frame.Type {
	case FrameMessage:
		msg := frame.Message()
		if msg.Role == "user" {
			// Server echo of our own send: resolve the placeholder.
			mlog.Confirm(msg)
		} else if !mlog.Append(msg) {
			m.log.Debug().Int64("sequence", msg.SequenceNumber).Msg("dropping stale message frame")
			return
		}
		if fn != nil {
			fn(msg)
		}
	case FrameError:
		m.log.Warn().Str("detail", frame.Detail).Msg("server error frame")
	case FrameTyping, FrameConnection:
		// presence/handshake chatter; nothing to record
	}
}

// handleDrop runs after an unexpected socket loss: schedule one reconnect
// attempt with exponential backoff, or give up into StateLost once the
// budget is spent. Deliberate disconnects never arrive here because the
// generation has already moved on.
func (m *Manager) handleDrop(gen uint64, cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen || m.state == StateClosed || m.state == StateLost {
		return
	}
	if m.conn != nil {
		_ = m.conn.Close(websocket.StatusAbnormalClosure, "connection dropped")
		m.conn = nil
	}
	if m.cancelRead != nil {
		m.cancelRead()
		m.cancelRead = nil
	}
	m.setStateLocked(StateDisconnected)

	m.attempts++
	if m.attempts > m.cfg.MaxReconnectAttempts {
		m.log.Warn().Err(cause).Int("attempts", m.attempts-1).Msg("reconnect budget exhausted")
		m.setStateLocked(StateLost)
		return
	}

	wait := m.reconnect.NextBackOff()
	reconnectsTotal.Inc()
	m.log.Debug().Err(cause).Int("attempt", m.attempts).Dur("wait", wait).Msg("scheduling reconnect")

	gen2 := m.gen
	m.setStateLocked(StateConnecting)
	m.reconnectTimer = time.AfterFunc(wait, func() {
		m.mu.Lock()
		stale := m.gen != gen2 || m.state == StateClosed || m.state == StateLost
		m.reconnectTimer = nil
		m.mu.Unlock()
		if stale {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = m.open(ctx)
	})
}
