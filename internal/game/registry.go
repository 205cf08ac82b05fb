package game

import "sync"

// Registry is the process-wide player-to-seat index, partitioned by table.
// Both directions are kept as mutual inverses so the bridge can resolve a
// seat from an identity and an identity from a seat in constant time. The
// engine loop is the only writer for a given table; readers may come from
// any goroutine.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]*seatMaps
}

type seatMaps struct {
	playerToSeat map[string]int
	seatToPlayer map[int]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tables: make(map[string]*seatMaps)}
}

// Bind maps a player to a seat, evicting any prior mapping of either side.
func (r *Registry) Bind(tableID, playerID string, seat int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.tables[tableID]
	if m == nil {
		m = &seatMaps{playerToSeat: make(map[string]int), seatToPlayer: make(map[int]string)}
		r.tables[tableID] = m
	}
	if prev, ok := m.playerToSeat[playerID]; ok {
		delete(m.seatToPlayer, prev)
	}
	if prev, ok := m.seatToPlayer[seat]; ok {
		delete(m.playerToSeat, prev)
	}
	m.playerToSeat[playerID] = seat
	m.seatToPlayer[seat] = playerID
}

// Unbind removes a player's mapping, if any.
func (r *Registry) Unbind(tableID, playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.tables[tableID]
	if m == nil {
		return
	}
	if seat, ok := m.playerToSeat[playerID]; ok {
		delete(m.playerToSeat, playerID)
		delete(m.seatToPlayer, seat)
	}
}

// SeatOf returns the seat a player holds at a table.
func (r *Registry) SeatOf(tableID, playerID string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.tables[tableID]
	if m == nil {
		return 0, false
	}
	seat, ok := m.playerToSeat[playerID]
	return seat, ok
}

// PlayerAt returns the player holding a seat at a table.
func (r *Registry) PlayerAt(tableID string, seat int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.tables[tableID]
	if m == nil {
		return "", false
	}
	pid, ok := m.seatToPlayer[seat]
	return pid, ok
}

// DropTable forgets every mapping for a table.
func (r *Registry) DropTable(tableID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tables, tableID)
}

// ValidateConsistency reports whether the two maps for a table are exact
// inverses of each other. Test assertions call this after mutations.
func (r *Registry) ValidateConsistency(tableID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.tables[tableID]
	if m == nil {
		return true
	}
	if len(m.playerToSeat) != len(m.seatToPlayer) {
		return false
	}
	for pid, seat := range m.playerToSeat {
		if m.seatToPlayer[seat] != pid {
			return false
		}
	}
	return true
}
