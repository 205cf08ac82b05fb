package game

import (
	"fmt"

	"github.com/lox/holdemd/poker"
)

// Snapshot is the full serialized view of a table: what gets persisted under
// the table's room key and, after SanitizedFor, what clients receive.
type Snapshot struct {
	TableID       string         `json:"tableId"`
	Name          string         `json:"name,omitempty"`
	Phase         Phase          `json:"phase"`
	HandNumber    uint64         `json:"handNumber"`
	SmallBlind    int            `json:"smallBlind"`
	BigBlind      int            `json:"bigBlind"`
	Button        int            `json:"button"`
	Actor         int            `json:"actor"`
	CurrentBet    int            `json:"currentBet"`
	MinRaise      int            `json:"minRaise"`
	Community     []int          `json:"communityCards"`
	Burns         []int          `json:"burns,omitempty"`
	DeckRemaining int            `json:"deckRemaining"`
	Seats         []SeatSnapshot `json:"seats"`
	Pots          []PotSnapshot  `json:"pots,omitempty"`
	PotTotal      int            `json:"potTotal"`
	LegalActions  []LegalAction  `json:"legalActions,omitempty"`
}

// SeatSnapshot is one seat as seen in a snapshot. HoleCards are present only
// for the viewer's own seat once sanitized.
type SeatSnapshot struct {
	Seat            int       `json:"seat"`
	PlayerID        string    `json:"playerId,omitempty"`
	Nickname        string    `json:"nickname,omitempty"`
	Chips           int       `json:"chips"`
	State           SeatState `json:"state"`
	StreetCommitted int       `json:"streetCommitted"`
	HandCommitted   int       `json:"handCommitted"`
	HoleCards       []int     `json:"holeCards,omitempty"`
}

// PotSnapshot is one pot layer with the seats entitled to contest it.
type PotSnapshot struct {
	Amount   int   `json:"amount"`
	Eligible []int `json:"eligibleSeats"`
}

// Snapshot captures the table's current state. The event log and the deck
// order are deliberately excluded; only the count of undealt cards is shown.
func (t *Table) Snapshot() Snapshot {
	snap := Snapshot{
		TableID:      t.ID,
		Name:         t.Name,
		Phase:        t.Phase,
		HandNumber:   t.HandNumber,
		SmallBlind:   t.SmallBlind,
		BigBlind:     t.BigBlind,
		Button:       t.Button,
		Actor:        t.Actor,
		CurrentBet:   t.CurrentBet,
		MinRaise:     t.MinRaise,
		Community:    poker.Codes(t.Community),
		Burns:        poker.Codes(t.Burns),
		Seats:        make([]SeatSnapshot, NumSeats),
		LegalActions: t.LegalActions(),
	}
	if t.deck != nil {
		snap.DeckRemaining = t.deck.CardsRemaining()
	}
	for i := range t.Seats {
		s := &t.Seats[i]
		snap.Seats[i] = SeatSnapshot{
			Seat:            i,
			PlayerID:        s.PlayerID,
			Nickname:        s.Nickname,
			Chips:           s.Chips,
			State:           s.State,
			StreetCommitted: s.StreetCommitted,
			HandCommitted:   s.HandCommitted,
			HoleCards:       poker.Codes(s.HoleCards),
		}
	}
	for _, p := range t.Pots {
		eligible := make([]int, len(p.Eligible))
		copy(eligible, p.Eligible)
		snap.Pots = append(snap.Pots, PotSnapshot{Amount: p.Amount, Eligible: eligible})
		snap.PotTotal += p.Amount
	}
	return snap
}

// SanitizedFor strips everything the given viewer must not see: hole cards of
// other seats and the action prompt unless the viewer is the actor. The
// receiver is not modified.
func (s Snapshot) SanitizedFor(viewerID string) Snapshot {
	out := s
	out.Seats = make([]SeatSnapshot, len(s.Seats))
	copy(out.Seats, s.Seats)
	for i := range out.Seats {
		if out.Seats[i].PlayerID != viewerID || viewerID == "" {
			out.Seats[i].HoleCards = nil
		}
	}
	if s.Actor < 0 || s.Actor >= len(s.Seats) || s.Seats[s.Actor].PlayerID != viewerID {
		out.LegalActions = nil
	}
	return out
}

// NewTableFromSnapshot rebuilds a table from a persisted snapshot. Only the
// between-hands parts carry over: seats, stacks, button and hand counter. A
// snapshot taken mid-hand restores to waiting with all commitments refunded,
// since the deck order is never persisted.
func NewTableFromSnapshot(cfg TableConfig, snap Snapshot) (*Table, error) {
	if len(snap.Seats) != NumSeats {
		return nil, fmt.Errorf("snapshot has %d seats, want %d", len(snap.Seats), NumSeats)
	}
	t := NewTable(cfg)
	t.HandNumber = snap.HandNumber
	t.Button = snap.Button
	for i, ss := range snap.Seats {
		seat := &t.Seats[i]
		seat.PlayerID = ss.PlayerID
		seat.Nickname = ss.Nickname
		seat.Chips = ss.Chips + ss.HandCommitted // committed chips come back
		seat.JoinedHand = snap.HandNumber
		switch ss.State {
		case SeatEmpty:
			*seat = Seat{ID: i}
		case SeatSittingOut:
			seat.State = SeatSittingOut
		default:
			seat.State = SeatActive
			if seat.Chips == 0 {
				seat.State = SeatSittingOut
			}
		}
	}
	return t, nil
}
