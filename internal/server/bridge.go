package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/holdemd/internal/game"
	"github.com/lox/holdemd/internal/ident"
	"github.com/lox/holdemd/internal/store"
)

// Client is the bridge's view of one connected peer: a transport to push
// frames down and the session currently bound to it.
type Client interface {
	Sender
	Session() *Session
	SetSession(*Session)
}

// Bridge translates client commands into engine events and fans engine
// emissions back out as broadcasts. It owns the table engines and is the
// single choke point for per-viewer snapshot sanitization: nothing else
// sends table state to a client.
type Bridge struct {
	logger    *log.Logger
	clock     quartz.Clock
	engineCfg game.EngineConfig
	sessions  *SessionManager
	registry  *game.Registry
	store     store.Store

	mu      sync.RWMutex
	engines map[string]*game.Engine
	specs   map[string]TableSpec
	order   []string
}

// NewBridge creates the bridge. Engines are added by CreateTables and
// CREATE_TABLE commands.
func NewBridge(engineCfg game.EngineConfig, clock quartz.Clock, st store.Store, sessions *SessionManager, logger *log.Logger) *Bridge {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Bridge{
		logger:    logger.WithPrefix("bridge"),
		clock:     clock,
		engineCfg: engineCfg,
		sessions:  sessions,
		registry:  game.NewRegistry(),
		store:     st,
		engines:   make(map[string]*game.Engine),
		specs:     make(map[string]TableSpec),
	}
}

// Registry exposes the seat-mapping registry for consistency assertions.
func (b *Bridge) Registry() *game.Registry {
	return b.registry
}

// CreateTables pre-creates an engine for every directory entry, restoring
// persisted table snapshots where available.
func (b *Bridge) CreateTables(ctx context.Context, specs []TableSpec) error {
	for _, spec := range specs {
		if _, err := b.addTable(ctx, spec); err != nil {
			return fmt.Errorf("create table %s: %w", spec.ID, err)
		}
	}
	return nil
}

func (b *Bridge) addTable(ctx context.Context, spec TableSpec) (*game.Engine, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if eng, ok := b.engines[spec.ID]; ok {
		return eng, nil
	}

	table := b.restoreTable(ctx, spec)
	tableID := spec.ID
	eng := game.NewEngine(table, b.engineCfg, b.clock, b.logger, func(entries []game.LogEntry, snap game.Snapshot) {
		b.broadcast(tableID, entries, snap)
	})
	b.engines[spec.ID] = eng
	b.specs[spec.ID] = spec
	b.order = append(b.order, spec.ID)
	return eng, nil
}

// restoreTable rebuilds a table from its persisted snapshot, falling back to
// a fresh one. Seat occupancy from the snapshot re-seeds the registry.
func (b *Bridge) restoreTable(ctx context.Context, spec TableSpec) *game.Table {
	raw, err := b.store.Get(ctx, roomKey(spec.ID))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			b.logger.Warn("table snapshot lookup failed", "table", spec.ID, "err", err)
		}
		return game.NewTable(spec.TableConfig())
	}
	var snap game.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		b.logger.Warn("corrupt table snapshot, starting fresh", "table", spec.ID, "err", err)
		return game.NewTable(spec.TableConfig())
	}
	table, err := game.NewTableFromSnapshot(spec.TableConfig(), snap)
	if err != nil {
		b.logger.Warn("unusable table snapshot, starting fresh", "table", spec.ID, "err", err)
		return game.NewTable(spec.TableConfig())
	}
	for i := range table.Seats {
		if table.Seats[i].Occupied() {
			b.registry.Bind(spec.ID, table.Seats[i].PlayerID, i)
		}
	}
	b.logger.Info("restored table from snapshot", "table", spec.ID, "hand", table.HandNumber)
	return table
}

// Engine returns the engine for a table.
func (b *Bridge) Engine(tableID string) (*game.Engine, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	eng, ok := b.engines[tableID]
	return eng, ok
}

// TableCount returns the number of live tables, for the health endpoint.
func (b *Bridge) TableCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.engines)
}

// Close shuts every engine down, draining in-flight events.
func (b *Bridge) Close() {
	b.mu.Lock()
	engines := make([]*game.Engine, 0, len(b.engines))
	for _, eng := range b.engines {
		engines = append(engines, eng)
	}
	b.mu.Unlock()
	for _, eng := range engines {
		eng.Close()
	}
}

// HandleCommand validates and dispatches one client command. Transport-level
// decode failures are handled by the connection before this point.
func (b *Bridge) HandleCommand(c Client, msg *Message) {
	sess := c.Session()
	if sess == nil {
		return
	}
	b.logger.Debug("command", "type", msg.Type, "session", sess.ID())

	switch msg.Type {
	case MessageTypeListTables:
		b.handleListTables(sess)
	case MessageTypeJoinTable:
		var data JoinTableData
		if !b.decode(sess, msg, &data) {
			return
		}
		b.handleJoinTable(sess, data)
	case MessageTypeCreateTable:
		var data CreateTableData
		if !b.decode(sess, msg, &data) {
			return
		}
		b.handleCreateTable(sess, data)
	case MessageTypeSit:
		var data SitData
		if !b.decode(sess, msg, &data) {
			return
		}
		b.handleSit(sess, data)
	case MessageTypeLeave:
		b.handleLeave(sess)
	case MessageTypeSitOut:
		b.handleSitToggle(sess, true)
	case MessageTypeSitIn:
		b.handleSitToggle(sess, false)
	case MessageTypeAction:
		var data ActionData
		if !b.decode(sess, msg, &data) {
			return
		}
		b.handleAction(sess, data)
	case MessageTypeAttach:
		var data AttachData
		if !b.decode(sess, msg, &data) {
			return
		}
		b.handleAttach(sess, data)
	case MessageTypeReattach:
		var data ReattachData
		if !b.decode(sess, msg, &data) {
			return
		}
		b.handleReattach(c, data)
	default:
		b.sendError(sess, ErrCodeUnknownCommand, "unknown command: "+msg.Type.String())
	}
}

func (b *Bridge) decode(sess *Session, msg *Message, into any) bool {
	if err := json.Unmarshal(msg.Data, into); err != nil {
		b.sendError(sess, ErrCodeBadMessage, "failed to parse "+msg.Type.String()+" payload")
		return false
	}
	return true
}

// canonicalIdentity resolves the identity a command acts as: an explicit
// playerId wins and is bound to the session, then the session's attached
// user, then the session id itself.
func (b *Bridge) canonicalIdentity(sess *Session, playerID string) (string, error) {
	if id := Canonicalize(playerID); id != "" {
		if err := b.sessions.Attach(sess, id); err != nil {
			return "", err
		}
		return id, nil
	}
	if id := sess.UserID(); id != "" {
		return id, nil
	}
	return Canonicalize(sess.ID()), nil
}

func (b *Bridge) handleListTables(sess *Session) {
	b.send(sess, mustMessage(MessageTypeTableList, TableListData{Tables: b.lobbyTables()}))
}

func (b *Bridge) lobbyTables() []LobbyTable {
	b.mu.RLock()
	order := append([]string(nil), b.order...)
	b.mu.RUnlock()

	tables := make([]LobbyTable, 0, len(order))
	for _, id := range order {
		eng, ok := b.Engine(id)
		if !ok {
			continue
		}
		b.mu.RLock()
		spec := b.specs[id]
		b.mu.RUnlock()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		snap, err := eng.Snapshot(ctx)
		cancel()
		if err != nil {
			continue
		}
		tables = append(tables, lobbyTableFrom(spec, snap))
	}
	return tables
}

func lobbyTableFrom(spec TableSpec, snap game.Snapshot) LobbyTable {
	seated := 0
	for _, s := range snap.Seats {
		if s.State != game.SeatEmpty {
			seated++
		}
	}
	return LobbyTable{
		ID:         spec.ID,
		Name:       spec.Name,
		Blinds:     Blinds{Small: spec.SmallBlind, Big: spec.BigBlind},
		BuyIn:      BuyInRange{Min: spec.MinBuyIn, Max: spec.MaxBuyIn, Default: spec.DefaultBuyIn},
		StakeLevel: spec.StakeLevel,
		Seated:     seated,
		Phase:      snap.Phase.String(),
	}
}

func (b *Bridge) handleJoinTable(sess *Session, data JoinTableData) {
	eng, ok := b.Engine(data.TableID)
	if !ok {
		b.sendError(sess, ErrCodeTableNotFound, "no such table: "+data.TableID)
		return
	}
	if sess.Seat() >= 0 && sess.RoomID() != data.TableID {
		b.sendError(sess, ErrCodeCommandFailed, "leave your current seat first")
		return
	}
	if sess.Seat() < 0 {
		b.sessions.SetRoom(sess, data.TableID)
	}
	b.sendSnapshotTo(sess, eng)
}

func (b *Bridge) handleCreateTable(sess *Session, data CreateTableData) {
	if data.Name == "" {
		b.sendError(sess, ErrCodeCommandFailed, "table name required")
		return
	}
	spec := TableSpec{ID: ident.New(), Name: data.Name, SmallBlind: 5, BigBlind: 10}.withDefaults()
	eng, err := b.addTable(context.Background(), spec)
	if err != nil {
		b.sendError(sess, ErrCodeCommandFailed, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	snap, err := eng.Snapshot(ctx)
	cancel()
	if err != nil {
		b.sendError(sess, ErrCodeCommandFailed, err.Error())
		return
	}
	b.send(sess, mustMessage(MessageTypeTableCreated, TableCreatedData{Table: lobbyTableFrom(spec, snap)}))
}

func (b *Bridge) handleSit(sess *Session, data SitData) {
	if data.Seat < 0 || data.Seat >= game.NumSeats {
		b.sendError(sess, ErrCodeCommandFailed, fmt.Sprintf("seat must be 0-%d", game.NumSeats-1))
		return
	}
	if sess.Seat() >= 0 && sess.RoomID() != data.TableID {
		b.sendError(sess, ErrCodeCommandFailed, "leave your current seat first")
		return
	}
	eng, ok := b.Engine(data.TableID)
	if !ok {
		// The fixed directory is pre-created; an unknown id is lazily created
		// as a runtime table with default stakes.
		var err error
		eng, err = b.addTable(context.Background(), TableSpec{ID: data.TableID, SmallBlind: 5, BigBlind: 10}.withDefaults())
		if err != nil {
			b.sendError(sess, ErrCodeTableNotFound, err.Error())
			return
		}
	}

	canonical, err := b.canonicalIdentity(sess, data.PlayerID)
	if err != nil {
		b.sendError(sess, ErrCodeCommandFailed, err.Error())
		return
	}

	b.mu.RLock()
	spec := b.specs[data.TableID]
	b.mu.RUnlock()
	chips := data.Chips
	if chips == 0 {
		chips = spec.DefaultBuyIn
	}
	nickname := data.Nickname
	if nickname == "" {
		nickname = canonical
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = eng.Dispatch(ctx, game.PlayerJoin{Seat: data.Seat, PlayerID: canonical, Nickname: nickname, Chips: chips})
	if err != nil {
		b.sendError(sess, errorCode(err), err.Error())
		b.sendSnapshotTo(sess, eng)
		return
	}

	b.registry.Bind(data.TableID, canonical, data.Seat)
	b.sessions.SetTableBinding(sess, data.TableID, data.Seat, chips, nickname)
	b.sendSnapshotTo(sess, eng)
}

func (b *Bridge) handleLeave(sess *Session) {
	tableID := sess.RoomID()
	seat := sess.Seat()
	if tableID == "" || seat < 0 {
		b.sendError(sess, ErrCodeCommandFailed, "not seated at a table")
		return
	}
	eng, ok := b.Engine(tableID)
	if !ok {
		b.sendError(sess, ErrCodeTableNotFound, "no such table: "+tableID)
		return
	}
	pid, ok := b.registry.PlayerAt(tableID, seat)
	if !ok {
		pid = b.enginePid(eng, sess)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := eng.Dispatch(ctx, game.PlayerLeave{PlayerID: pid}); err != nil {
		b.sendError(sess, errorCode(err), err.Error())
		b.sendSnapshotTo(sess, eng)
		return
	}
	b.registry.Unbind(tableID, pid)
	b.sessions.ClearTableBinding(sess)
}

func (b *Bridge) handleSitToggle(sess *Session, out bool) {
	tableID := sess.RoomID()
	if tableID == "" || sess.Seat() < 0 {
		b.sendError(sess, ErrCodeCommandFailed, "not seated at a table")
		return
	}
	eng, ok := b.Engine(tableID)
	if !ok {
		b.sendError(sess, ErrCodeTableNotFound, "no such table: "+tableID)
		return
	}
	pid, ok := b.registry.PlayerAt(tableID, sess.Seat())
	if !ok {
		pid = b.enginePid(eng, sess)
	}

	var ev game.Event
	if out {
		ev = game.PlayerSitOut{PlayerID: pid}
	} else {
		ev = game.PlayerSitIn{PlayerID: pid}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := eng.Dispatch(ctx, ev); err != nil {
		b.sendError(sess, errorCode(err), err.Error())
		b.sendSnapshotTo(sess, eng)
	}
}

func (b *Bridge) handleAction(sess *Session, data ActionData) {
	kind, err := game.ParseActionKind(data.Action)
	if err != nil {
		b.sendError(sess, ErrCodeIllegalAction, err.Error())
		return
	}
	if (kind == game.ActionBet || kind == game.ActionRaise) && data.Amount <= 0 {
		b.sendError(sess, ErrCodeIllegalAmount, "amount must be positive for bet and raise")
		return
	}
	tableID := sess.RoomID()
	if tableID == "" {
		b.sendError(sess, ErrCodeCommandFailed, "not at a table")
		return
	}
	eng, ok := b.Engine(tableID)
	if !ok {
		b.sendError(sess, ErrCodeTableNotFound, "no such table: "+tableID)
		return
	}

	canonical, err := b.canonicalIdentity(sess, "")
	if err != nil {
		b.sendError(sess, ErrCodeCommandFailed, err.Error())
		return
	}
	pid := b.resolveSeatIdentity(eng, tableID, sess, canonical)
	if pid == "" {
		b.sendError(sess, ErrCodeIllegalAction, "not seated at this table")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = eng.Dispatch(ctx, game.PlayerAction{PlayerID: pid, Action: kind, Amount: data.Amount})
	if err != nil {
		b.sendError(sess, errorCode(err), err.Error())
		b.sendSnapshotTo(sess, eng)
	}
}

// resolveSeatIdentity finds the identity the engine knows this player's seat
// by, repairing the registry on the way. A mapping can go missing or stale
// across reconnects; the engine's seat array is the ground truth it is healed
// from. The registry only ever holds engine-side identities: a player who sat
// before attaching a user id is seated under the session id, and that is what
// every dispatch for the seat must carry.
func (b *Bridge) resolveSeatIdentity(eng *game.Engine, tableID string, sess *Session, canonical string) string {
	if seat, ok := b.registry.SeatOf(tableID, canonical); ok {
		if pid, ok := b.registry.PlayerAt(tableID, seat); ok {
			return pid
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	snap, err := eng.Snapshot(ctx)
	cancel()
	if err != nil {
		return ""
	}
	rawSession := Canonicalize(sess.ID())
	for _, seat := range snap.Seats {
		if seat.State == game.SeatEmpty {
			continue
		}
		if seat.PlayerID == canonical || seat.PlayerID == rawSession {
			b.registry.Bind(tableID, seat.PlayerID, seat.Seat)
			b.logger.Debug("repaired seat mapping", "table", tableID, "seat", seat.Seat, "player", seat.PlayerID)
			return seat.PlayerID
		}
	}
	return ""
}

// enginePid falls back to scanning the engine for the session's seat identity.
func (b *Bridge) enginePid(eng *game.Engine, sess *Session) string {
	canonical := sess.UserID()
	if canonical == "" {
		canonical = Canonicalize(sess.ID())
	}
	return b.resolveSeatIdentity(eng, sess.RoomID(), sess, canonical)
}

func (b *Bridge) handleAttach(sess *Session, data AttachData) {
	if err := b.sessions.Attach(sess, data.UserID); err != nil {
		b.sendError(sess, ErrCodeCommandFailed, err.Error())
		return
	}
	b.send(sess, mustMessage(MessageTypeSession, SessionData{SessionID: sess.ID(), UserID: sess.UserID()}))
}

func (b *Bridge) handleReattach(c Client, data ReattachData) {
	fresh := c.Session()
	restored, err := b.sessions.Reattach(data.SessionID, c)
	if err != nil {
		b.sendError(fresh, ErrCodeCommandFailed, err.Error())
		return
	}
	if fresh != nil && fresh != restored {
		b.sessions.Remove(fresh)
	}
	c.SetSession(restored)
	b.send(restored, mustMessage(MessageTypeSession, SessionData{SessionID: restored.ID(), UserID: restored.UserID()}))
	if tableID := restored.RoomID(); tableID != "" {
		if eng, ok := b.Engine(tableID); ok {
			b.sendSnapshotTo(restored, eng)
		}
	}
}

// HandleDisconnect runs the disconnect flow for a closed connection: announce
// the vacancy, then hand the session to the grace timer. If the grace period
// lapses without a reattach the seat is vacated through the engine.
func (b *Bridge) HandleDisconnect(c Client) {
	sess := c.Session()
	if sess == nil {
		return
	}
	if tableID, seat := sess.RoomID(), sess.Seat(); tableID != "" && seat >= 0 {
		if pid, ok := b.registry.PlayerAt(tableID, seat); ok {
			b.broadcastMessage(tableID, mustMessage(MessageTypePlayerDisconnected, PlayerDisconnectedData{
				TableID:  tableID,
				Seat:     seat,
				PlayerID: pid,
			}))
			b.broadcastMessage(tableID, mustMessage(MessageTypeCountdownStart, CountdownStartData{
				CountdownType: string(game.CountdownReconnect),
				StartTime:     b.clock.Now(),
				DurationMs:    b.sessions.Grace().Milliseconds(),
				Metadata:      map[string]any{"seat": seat, "playerId": pid},
			}))
		}
	}
	b.sessions.HandleDisconnect(sess, c, b.expireSession)
}

func (b *Bridge) expireSession(sess *Session) {
	tableID, seat := sess.RoomID(), sess.Seat()
	if tableID == "" || seat < 0 {
		return
	}
	eng, ok := b.Engine(tableID)
	if !ok {
		return
	}
	pid, ok := b.registry.PlayerAt(tableID, seat)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := eng.Dispatch(ctx, game.PlayerLeave{PlayerID: pid}); err != nil {
		b.logger.Warn("vacating expired session's seat failed", "table", tableID, "seat", seat, "err", err)
	}
	b.registry.Unbind(tableID, pid)
}

// broadcast is the engine notifier: it converts committed log entries into
// wire events, delivers them to every session in the room, then delivers the
// snapshot sanitized per viewer.
func (b *Bridge) broadcast(tableID string, entries []game.LogEntry, snap game.Snapshot) {
	viewers := b.sessions.SessionsInRoom(tableID)

	persist := false
	for _, le := range entries {
		msg := wireEvent(tableID, snap, le.Event)
		if msg != nil {
			for _, v := range viewers {
				_ = v.Send(msg)
			}
		}
		switch le.Event.EventType() {
		case game.EventStartHand:
			b.markSeated(viewers, snap, true)
		case game.EventHandEnd:
			b.markSeated(viewers, snap, false)
			persist = true
		case game.EventPlayerJoin, game.EventPlayerLeave, game.EventPlayerSitOut, game.EventPlayerSitIn:
			persist = true
		}
	}

	for _, v := range viewers {
		b.send(v, snapshotMessage(tableID, snap.SanitizedFor(b.viewerIdentity(v))))
	}

	if persist {
		b.persistRoom(tableID, snap)
	}
}

// markSeated mirrors hand membership onto the seated viewers' sessions.
func (b *Bridge) markSeated(viewers []*Session, snap game.Snapshot, inHand bool) {
	for _, v := range viewers {
		seat := v.Seat()
		if seat < 0 || seat >= len(snap.Seats) {
			continue
		}
		if snap.Seats[seat].State != game.SeatEmpty {
			b.sessions.SetInActiveHand(v, inHand)
		}
	}
}

func snapshotMessage(tableID string, snap game.Snapshot) *Message {
	return mustMessage(MessageTypeTableSnapshot, struct {
		TableID string        `json:"tableId"`
		Table   game.Snapshot `json:"table"`
	}{TableID: tableID, Table: snap})
}

func (b *Bridge) sendSnapshotTo(sess *Session, eng *game.Engine) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := eng.Snapshot(ctx)
	if err != nil {
		return
	}
	b.send(sess, snapshotMessage(eng.ID(), snap.SanitizedFor(b.viewerIdentity(sess))))
}

// viewerIdentity is the identity hole-card visibility is keyed on. For a
// seated session the seat's engine-side identity wins: a later ATTACH must not
// hide the player's own cards behind the new user id.
func (b *Bridge) viewerIdentity(sess *Session) string {
	if tableID, seat := sess.RoomID(), sess.Seat(); tableID != "" && seat >= 0 {
		if pid, ok := b.registry.PlayerAt(tableID, seat); ok {
			return pid
		}
	}
	if id := sess.UserID(); id != "" {
		return id
	}
	return Canonicalize(sess.ID())
}

func (b *Bridge) broadcastMessage(tableID string, msg *Message) {
	for _, v := range b.sessions.SessionsInRoom(tableID) {
		_ = v.Send(msg)
	}
}

func (b *Bridge) persistRoom(tableID string, snap game.Snapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		b.logger.Error("marshal table snapshot", "table", tableID, "err", err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.store.Set(ctx, roomKey(tableID), raw); err != nil {
			b.logger.Warn("persist table snapshot", "table", tableID, "err", err)
		}
	}()
}

func (b *Bridge) send(sess *Session, msg *Message) {
	if err := sess.Send(msg); err != nil {
		b.logger.Debug("send failed", "session", sess.ID(), "type", msg.Type, "err", err)
	}
}

func (b *Bridge) sendError(sess *Session, code, errMsg string) {
	b.send(sess, mustMessage(MessageTypeError, ErrorData{Code: code, Msg: errMsg}))
}

// wireEvent maps one engine event onto its broadcast message. Events with no
// client-facing form (hole-card deals, blind posts) return nil; their effect
// reaches clients through the sanitized snapshot.
func wireEvent(tableID string, snap game.Snapshot, ev game.Event) *Message {
	switch e := ev.(type) {
	case game.StartHand:
		return mustMessage(MessageTypeHandStart, HandStartData{TableID: tableID, HandNumber: snap.HandNumber})
	case game.EnterStreet:
		switch e.Street {
		case game.PhaseFlop:
			return mustMessage(MessageTypeDealFlop, DealFlopData{Cards: e.Cards})
		case game.PhaseTurn:
			return mustMessage(MessageTypeDealTurn, DealTurnData{Card: e.Cards[0]})
		case game.PhaseRiver:
			return mustMessage(MessageTypeDealRiver, DealRiverData{Card: e.Cards[0]})
		}
		return nil
	case game.Payout:
		winners := make([]Winner, 0, len(e.Distributions))
		total := e.Rake
		for _, d := range e.Distributions {
			winners = append(winners, Winner{Seat: d.Seat, PlayerID: d.PlayerID, Amount: d.Amount})
			total += d.Amount
		}
		return mustMessage(MessageTypeWinnerAnnouncement, WinnerAnnouncementData{Winners: winners, PotAmount: total})
	case game.HandEnd:
		return mustMessage(MessageTypeHandEnd, HandEndData{TableID: tableID, HandNumber: e.HandNumber})
	case game.CountdownStart:
		return mustMessage(MessageTypeCountdownStart, CountdownStartData{
			CountdownType: string(e.Kind),
			StartTime:     e.StartTime,
			DurationMs:    e.DurationMs,
			Metadata:      e.Metadata,
		})
	case game.ActionTimeout:
		return mustMessage(MessageTypeTimer, TimerData{Countdown: 0})
	case game.PlayerWaiting:
		return mustMessage(MessageTypePlayerWaiting, PlayerWaitingData{Seat: e.Seat, PlayerID: e.PlayerID})
	default:
		return nil
	}
}

// errorCode maps engine sentinel errors onto wire error codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrIllegalAmount), errors.Is(err, game.ErrInvalidBuyIn):
		return ErrCodeIllegalAmount
	case errors.Is(err, game.ErrIllegalAction), errors.Is(err, game.ErrNotYourTurn),
		errors.Is(err, game.ErrNotSeated), errors.Is(err, game.ErrSeatTaken),
		errors.Is(err, game.ErrAlreadySeated), errors.Is(err, game.ErrSeatOutOfRange):
		return ErrCodeIllegalAction
	default:
		return ErrCodeCommandFailed
	}
}

func roomKey(tableID string) string {
	return "room:" + tableID
}
