package game

import (
	"fmt"

	"github.com/lox/holdemd/poker"
)

// NumSeats is the fixed number of seat slots at every table.
const NumSeats = 9

// SeatState tracks where a seat is in the hand lifecycle.
type SeatState int

const (
	SeatEmpty SeatState = iota
	SeatActive
	SeatFolded
	SeatAllIn
	SeatSittingOut
	SeatWaitingNextHand
)

var seatStateNames = [...]string{"empty", "active", "folded", "all_in", "sitting_out", "waiting_next_hand"}

func (s SeatState) String() string {
	if s < 0 || int(s) >= len(seatStateNames) {
		return "unknown"
	}
	return seatStateNames[s]
}

// MarshalText encodes the state as its snake_case name.
func (s SeatState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a snake_case state name.
func (s *SeatState) UnmarshalText(b []byte) error {
	for i, name := range seatStateNames {
		if string(b) == name {
			*s = SeatState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown seat state %q", b)
}

// Seat is one of the nine slots at a table.
type Seat struct {
	ID              int
	PlayerID        string
	Nickname        string
	Chips           int
	HoleCards       []poker.Card
	StreetCommitted int
	HandCommitted   int
	State           SeatState
	JoinedHand      uint64
}

// Occupied reports whether a player holds this seat.
func (s *Seat) Occupied() bool {
	return s.State != SeatEmpty
}

// InHand reports whether the seat is still contesting the current hand.
func (s *Seat) InHand() bool {
	return s.State == SeatActive || s.State == SeatAllIn
}

// CanAct reports whether the seat can take a betting action.
func (s *Seat) CanAct() bool {
	return s.State == SeatActive && s.Chips > 0
}
