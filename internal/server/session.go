package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/holdemd/internal/ident"
	"github.com/lox/holdemd/internal/store"
)

var (
	ErrIdentityTaken  = errors.New("identity already bound to another session")
	ErrUnknownSession = errors.New("unknown session")
)

// Canonicalize normalizes an identity string the way every registry keys it:
// lowercased and trimmed.
func Canonicalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Sender is the transport half a session needs: the ability to push a frame
// to the client. *Connection implements it; tests substitute a recorder.
type Sender interface {
	Send(msg *Message) error
}

// Session binds one transport connection to a player identity and, once
// seated, to a seat at a table. The binding survives the connection: on
// disconnect a grace timer runs, and a REATTACH within it resumes the same
// session on a new socket.
type Session struct {
	id string

	mu           sync.RWMutex
	userID       string
	roomID       string
	seat         int
	chips        int
	nickname     string
	inActiveHand bool
	conn         Sender
	grace        *quartz.Timer
}

// ID returns the server-minted session identifier.
func (s *Session) ID() string { return s.id }

// UserID returns the bound identity, or empty.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// RoomID returns the table this session is viewing, or empty.
func (s *Session) RoomID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roomID
}

// Seat returns the seat index bound to this session, or -1.
func (s *Session) Seat() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seat
}

// Send pushes a frame to the session's current socket. Frames sent while
// disconnected are dropped; the snapshot on reattach resyncs the client.
func (s *Session) Send(msg *Message) error {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()
	if conn == nil {
		return nil
	}
	return conn.Send(msg)
}

// Record is the durable form of a session, everything except the socket and
// the grace timer.
type Record struct {
	SessionID    string `json:"sessionId"`
	UserID       string `json:"userId,omitempty"`
	RoomID       string `json:"roomId,omitempty"`
	Seat         int    `json:"seat"`
	Chips        int    `json:"chips,omitempty"`
	Nickname     string `json:"nickname,omitempty"`
	InActiveHand bool   `json:"inActiveHand,omitempty"`
}

// record snapshots the session under its lock.
func (s *Session) record() Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Record{
		SessionID:    s.id,
		UserID:       s.userID,
		RoomID:       s.roomID,
		Seat:         s.seat,
		Chips:        s.chips,
		Nickname:     s.nickname,
		InActiveHand: s.inActiveHand,
	}
}

// SessionManager owns every live session and the two indices over them. All
// index mutations happen under its lock; per-session fields are guarded by
// the session's own lock, acquired strictly inside the manager's.
type SessionManager struct {
	clock  quartz.Clock
	grace  time.Duration
	store  store.Store
	logger *log.Logger

	mu       sync.Mutex
	byID     map[string]*Session
	byUserID map[string]*Session
}

// NewSessionManager creates a manager with the given reconnect grace period.
func NewSessionManager(clock quartz.Clock, grace time.Duration, st store.Store, logger *log.Logger) *SessionManager {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &SessionManager{
		clock:    clock,
		grace:    grace,
		store:    st,
		logger:   logger.WithPrefix("session"),
		byID:     make(map[string]*Session),
		byUserID: make(map[string]*Session),
	}
}

// Grace returns the reconnect grace period disconnected sessions get.
func (m *SessionManager) Grace() time.Duration {
	return m.grace
}

// Create mints a new session for a freshly accepted connection.
func (m *SessionManager) Create(conn Sender) *Session {
	s := &Session{id: ident.New(), seat: -1, conn: conn}
	m.mu.Lock()
	m.byID[s.id] = s
	m.mu.Unlock()
	return s
}

// Get looks a live session up by id.
func (m *SessionManager) Get(sessionID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[sessionID]
	return s, ok
}

// ByUserID looks a live session up by its bound identity.
func (m *SessionManager) ByUserID(userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byUserID[Canonicalize(userID)]
	return s, ok
}

// Attach binds an identity to the session. It refuses when the identity is
// already owned by another live session, and replaces any identity this
// session held before. The binding is persisted before Attach returns, since
// reconnects depend on it.
func (m *SessionManager) Attach(s *Session, userID string) error {
	normalized := Canonicalize(userID)
	if normalized == "" {
		return errors.New("empty user id")
	}

	m.mu.Lock()
	if other, ok := m.byUserID[normalized]; ok && other != s {
		m.mu.Unlock()
		return ErrIdentityTaken
	}
	s.mu.Lock()
	if s.userID != "" {
		delete(m.byUserID, s.userID)
	}
	s.userID = normalized
	s.mu.Unlock()
	m.byUserID[normalized] = s
	m.mu.Unlock()

	m.persist(s)
	return nil
}

// SetTableBinding records the session's seat at a table and persists it.
func (m *SessionManager) SetTableBinding(s *Session, roomID string, seat, chips int, nickname string) {
	s.mu.Lock()
	s.roomID = roomID
	s.seat = seat
	s.chips = chips
	s.nickname = nickname
	s.mu.Unlock()
	m.persist(s)
}

// SetRoom subscribes the session to a table's broadcasts without seating it.
func (m *SessionManager) SetRoom(s *Session, roomID string) {
	s.mu.Lock()
	s.roomID = roomID
	s.seat = -1
	s.mu.Unlock()
	m.persist(s)
}

// ClearTableBinding removes the seat binding after a leave.
func (m *SessionManager) ClearTableBinding(s *Session) {
	s.mu.Lock()
	s.seat = -1
	s.chips = 0
	s.inActiveHand = false
	s.mu.Unlock()
	m.persist(s)
}

// SetInActiveHand mirrors whether the session's seat is in a live hand.
func (m *SessionManager) SetInActiveHand(s *Session, in bool) {
	s.mu.Lock()
	s.inActiveHand = in
	s.mu.Unlock()
}

// HandleDisconnect detaches the socket and arms the reconnect grace timer.
// onExpire runs if no reattach happens in time, after the session has been
// removed from the indices. A stale disconnect from a socket that was already
// replaced is ignored.
func (m *SessionManager) HandleDisconnect(s *Session, conn Sender, onExpire func(*Session)) {
	s.mu.Lock()
	if s.conn != conn {
		s.mu.Unlock()
		return
	}
	s.conn = nil
	if s.grace != nil {
		s.grace.Stop()
	}
	s.grace = m.clock.AfterFunc(m.grace, func() { m.expire(s, onExpire) })
	s.mu.Unlock()
	m.logger.Debug("disconnect, grace timer armed", "session", s.id, "grace", m.grace)
}

func (m *SessionManager) expire(s *Session, onExpire func(*Session)) {
	m.mu.Lock()
	s.mu.Lock()
	if s.conn != nil { // reattached while the expiry was in flight
		s.mu.Unlock()
		m.mu.Unlock()
		return
	}
	delete(m.byID, s.id)
	if s.userID != "" {
		delete(m.byUserID, s.userID)
	}
	s.mu.Unlock()
	m.mu.Unlock()

	m.logger.Info("session expired after grace period", "session", s.id)
	if onExpire != nil {
		onExpire(s)
	}
	m.deleteRecord(s.id)
}

// HandleReconnect cancels the grace timer after a successful reattach.
func (m *SessionManager) HandleReconnect(s *Session) {
	s.mu.Lock()
	if s.grace != nil {
		s.grace.Stop()
		s.grace = nil
	}
	s.mu.Unlock()
}

// ReplaceSocket swaps the session onto a new transport without touching its
// identity or table binding, cancelling any pending grace timer.
func (m *SessionManager) ReplaceSocket(s *Session, conn Sender) {
	s.mu.Lock()
	s.conn = conn
	if s.grace != nil {
		s.grace.Stop()
		s.grace = nil
	}
	s.mu.Unlock()
}

// Reattach resumes a session on a new socket: from memory when it is still
// live, otherwise restored from the durable store.
func (m *SessionManager) Reattach(sessionID string, conn Sender) (*Session, error) {
	if s, ok := m.Get(sessionID); ok {
		m.ReplaceSocket(s, conn)
		return s, nil
	}
	if err := ident.Validate(sessionID); err != nil {
		return nil, ErrUnknownSession
	}
	raw, err := m.store.Get(context.Background(), sessionKey(sessionID))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.logger.Warn("session lookup failed", "session", sessionID, "err", err)
		}
		return nil, ErrUnknownSession
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		m.logger.Warn("corrupt session record", "session", sessionID, "err", err)
		return nil, ErrUnknownSession
	}
	return m.Restore(rec, conn)
}

// Restore rebuilds a session from its durable record on a new socket.
func (m *SessionManager) Restore(rec Record, conn Sender) (*Session, error) {
	s := &Session{
		id:           rec.SessionID,
		userID:       Canonicalize(rec.UserID),
		roomID:       rec.RoomID,
		seat:         rec.Seat,
		chips:        rec.Chips,
		nickname:     rec.Nickname,
		inActiveHand: rec.InActiveHand,
		conn:         conn,
	}
	m.mu.Lock()
	if s.userID != "" {
		if other, ok := m.byUserID[s.userID]; ok && other.id != s.id {
			m.mu.Unlock()
			return nil, ErrIdentityTaken
		}
	}
	m.byID[s.id] = s
	if s.userID != "" {
		m.byUserID[s.userID] = s
	}
	m.mu.Unlock()
	return s, nil
}

// Remove drops the session and its durable record immediately, with no grace.
func (m *SessionManager) Remove(s *Session) {
	m.mu.Lock()
	s.mu.Lock()
	delete(m.byID, s.id)
	if s.userID != "" && m.byUserID[s.userID] == s {
		delete(m.byUserID, s.userID)
	}
	if s.grace != nil {
		s.grace.Stop()
		s.grace = nil
	}
	s.mu.Unlock()
	m.mu.Unlock()
	m.deleteRecord(s.id)
}

// SessionsInRoom returns every live session subscribed to a table.
func (m *SessionManager) SessionsInRoom(roomID string) []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Session
	for _, s := range m.byID {
		if s.RoomID() == roomID {
			out = append(out, s)
		}
	}
	return out
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// persist writes the session record through, awaited. Store failures are
// logged and tolerated; the in-memory session stays authoritative.
func (m *SessionManager) persist(s *Session) {
	rec := s.record()
	raw, err := json.Marshal(rec)
	if err != nil {
		m.logger.Error("marshal session record", "session", s.id, "err", err)
		return
	}
	if err := m.store.Set(context.Background(), sessionKey(s.id), raw); err != nil {
		m.logger.Warn("persist session record", "session", s.id, "err", err)
	}
}

func (m *SessionManager) deleteRecord(sessionID string) {
	if err := m.store.Del(context.Background(), sessionKey(sessionID)); err != nil {
		m.logger.Warn("delete session record", "session", sessionID, "err", err)
	}
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}
