package connection

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/musikremote/internal/logging"
	"github.com/muurk/musikremote/internal/settings"
)

// State is the lifecycle state of the service
type State string

// Service states
const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	authTimeout             = 10 * time.Second
	closeGracePeriod        = time.Second
)

// Service manages one authenticated websocket connection.
// It is safe for concurrent use.
type Service struct {
	load     func() settings.WorkingSet
	deviceID string

	mu         sync.Mutex
	conn       *websocket.Conn
	state      State
	url        string
	lastErr    error
	dials      int
	disconnect int

	// generation is bumped by Disconnect; a dial started in an older
	// generation is discarded
	generation uint64
}

// NewService creates a disconnected service. load is called on every dial.
func NewService(load func() settings.WorkingSet) *Service {
	return &Service{
		load:     load,
		deviceID: uuid.NewString(),
		state:    StateDisconnected,
	}
}

// EndpointURL returns the websocket URL for ws
func EndpointURL(ws settings.WorkingSet) string {
	scheme := "ws"
	if ws.Bool(settings.KeySSLEnabled) {
		scheme = "wss"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(ws.Str(settings.KeyAddress), strconv.Itoa(ws.Int(settings.KeyMainPort))),
		Path:   "/",
	}
	return u.String()
}

// Conn returns the current connection, dialing and authenticating first if
// there is none. The lock is not held while dialing, so Disconnect and
// Status stay responsive. A Disconnect during the dial makes Conn close the
// new connection and return ErrDisconnected.
func (s *Service) Conn(ctx context.Context) (*websocket.Conn, error) {
	s.mu.Lock()
	if s.conn != nil {
		conn := s.conn
		s.mu.Unlock()
		return conn, nil
	}

	ws := s.load()
	endpoint := EndpointURL(ws)
	s.state = StateConnecting
	s.url = endpoint
	s.dials++
	gen := s.generation
	s.mu.Unlock()

	conn, err := s.dial(ctx, ws, endpoint)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		if conn != nil {
			_ = conn.Close()
		}
		logging.LogConnection(endpoint, "dial abandoned")
		return nil, ErrDisconnected
	}
	if err != nil {
		if s.conn == nil {
			s.state = StateDisconnected
		}
		s.lastErr = err
		logging.Warn("Connection failed", zap.String("url", endpoint), zap.Error(err))
		return nil, err
	}
	if s.conn != nil {
		// a concurrent Conn finished first
		_ = conn.Close()
		return s.conn, nil
	}

	s.conn = conn
	s.state = StateConnected
	s.lastErr = nil
	logging.LogConnection(endpoint, "authenticated")
	return conn, nil
}

func (s *Service) dial(ctx context.Context, ws settings.WorkingSet, endpoint string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		Proxy:             websocket.DefaultDialer.Proxy,
		HandshakeTimeout:  defaultHandshakeTimeout,
		EnableCompression: ws.Bool(settings.KeyMessageCompression),
		// #nosec G402 -- the user explicitly disabled certificate validation
		TLSClientConfig: &tls.Config{InsecureSkipVerify: ws.Bool(settings.KeyCertValidationDisabled)},
	}

	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, &ConnError{Type: ErrTypeDial, URL: endpoint, Err: err}
	}

	if err := s.authenticate(conn, ws.Str(settings.KeyPassword)); err != nil {
		_ = conn.Close()
		var ce *ConnError
		if errors.As(err, &ce) {
			ce.URL = endpoint
			return nil, ce
		}
		return nil, &ConnError{Type: ErrTypeProtocol, URL: endpoint, Err: err}
	}
	return conn, nil
}

func (s *Service) authenticate(conn *websocket.Conn, password string) error {
	req, err := newAuthenticateRequest(s.deviceID, password)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(authTimeout)
	_ = conn.SetWriteDeadline(deadline)
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("send authenticate: %w", err)
	}

	_ = conn.SetReadDeadline(deadline)
	var resp Message
	if err := conn.ReadJSON(&resp); err != nil {
		return fmt.Errorf("read authenticate response: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})
	_ = conn.SetWriteDeadline(time.Time{})

	if resp.Name != authenticateName || resp.Type != messageTypeResponse || resp.ID != req.ID {
		return &ConnError{Type: ErrTypeProtocol,
			Err: fmt.Errorf("unexpected %s %q (id %s)", resp.Type, resp.Name, resp.ID)}
	}

	var result authenticateResult
	if len(resp.Options) > 0 {
		if err := json.Unmarshal(resp.Options, &result); err != nil {
			return &ConnError{Type: ErrTypeProtocol, Err: fmt.Errorf("decode authenticate response: %w", err)}
		}
	}
	if !result.Authenticated {
		return &ConnError{Type: ErrTypeAuth, Err: errors.New("server rejected password")}
	}
	return nil
}

// Disconnect closes the current connection. It is safe to call when
// already disconnected.
func (s *Service) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disconnect++
	s.generation++
	if s.conn == nil {
		s.state = StateDisconnected
		return nil
	}

	conn := s.conn
	s.conn = nil
	s.state = StateDisconnected

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "settings changed")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
	err := conn.Close()

	logging.LogConnection(s.url, "disconnected")
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("close connection: %w", err)
	}
	return nil
}

// Status is a snapshot of the service state
type Status struct {
	State       State  `json:"state"`
	URL         string `json:"url,omitempty"`
	LastError   string `json:"last_error,omitempty"`
	Dials       int    `json:"dials"`
	Disconnects int    `json:"disconnects"`
}

// Status returns the current state
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		State:       s.state,
		URL:         s.url,
		Dials:       s.dials,
		Disconnects: s.disconnect,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}
