package game

import (
	"fmt"
	"strings"
)

// ActionKind is a betting action. Bet and raise carry an amount meaning the
// seat's total street commitment after the action ("raise to").
type ActionKind string

const (
	ActionFold  ActionKind = "fold"
	ActionCheck ActionKind = "check"
	ActionCall  ActionKind = "call"
	ActionBet   ActionKind = "bet"
	ActionRaise ActionKind = "raise"
	ActionAllIn ActionKind = "allin"
)

// ParseActionKind maps a client-supplied action string onto an ActionKind.
// It accepts any case and both "allin" and "all_in".
func ParseActionKind(s string) (ActionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fold":
		return ActionFold, nil
	case "check":
		return ActionCheck, nil
	case "call":
		return ActionCall, nil
	case "bet":
		return ActionBet, nil
	case "raise":
		return ActionRaise, nil
	case "allin", "all_in", "all-in":
		return ActionAllIn, nil
	default:
		return "", fmt.Errorf("unknown action %q", s)
	}
}

// LegalAction is one action the current actor may take, with amount bounds
// for bet and raise expressed as total street commitments.
type LegalAction struct {
	Action ActionKind `json:"action"`
	Min    int        `json:"min,omitempty"`
	Max    int        `json:"max,omitempty"`
}

// LegalActions lists what the current actor may do. Nil when nobody is to act.
func (t *Table) LegalActions() []LegalAction {
	if t.Actor == -1 || !t.Phase.Betting() {
		return nil
	}
	seat := &t.Seats[t.Actor]
	toCall := t.CurrentBet - seat.StreetCommitted
	total := seat.StreetCommitted + seat.Chips

	actions := []LegalAction{{Action: ActionFold}}
	if toCall <= 0 {
		actions = append(actions, LegalAction{Action: ActionCheck})
	} else {
		pay := min(toCall, seat.Chips)
		actions = append(actions, LegalAction{Action: ActionCall, Min: pay, Max: pay})
	}
	if t.CurrentBet == 0 {
		actions = append(actions, LegalAction{Action: ActionBet, Min: min(t.BigBlind, seat.Chips), Max: seat.Chips})
	} else if !t.acted[t.Actor] && total > t.CurrentBet {
		actions = append(actions, LegalAction{Action: ActionRaise, Min: min(t.CurrentBet+t.MinRaise, total), Max: total})
	}
	actions = append(actions, LegalAction{Action: ActionAllIn, Min: total, Max: total})
	return actions
}

// normalizeAction resolves client-tagged actions against the live betting
// state: a bet into a live bet becomes a raise, a raise into no bet becomes a
// bet, and all-in becomes whichever of bet, call or raise the stack reaches.
func (t *Table) normalizeAction(seatIdx int, kind ActionKind, amount int) (ActionKind, int, error) {
	seat := &t.Seats[seatIdx]
	switch kind {
	case ActionFold, ActionCheck, ActionCall:
		return kind, 0, nil
	case ActionBet:
		if t.CurrentBet > 0 {
			return ActionRaise, amount, nil
		}
		return ActionBet, amount, nil
	case ActionRaise:
		if t.CurrentBet == 0 {
			return ActionBet, amount, nil
		}
		return ActionRaise, amount, nil
	case ActionAllIn:
		total := seat.StreetCommitted + seat.Chips
		switch {
		case t.CurrentBet == 0:
			return ActionBet, total, nil
		case total <= t.CurrentBet:
			return ActionCall, 0, nil
		default:
			return ActionRaise, total, nil
		}
	default:
		return "", 0, fmt.Errorf("%w: unknown action %q", ErrIllegalAction, kind)
	}
}

// validateAction rejects an action that is illegal for the given seat in the
// current betting state. It must not mutate anything.
func (t *Table) validateAction(seatIdx int, kind ActionKind, amount int) error {
	seat := &t.Seats[seatIdx]
	toCall := t.CurrentBet - seat.StreetCommitted
	total := seat.StreetCommitted + seat.Chips

	switch kind {
	case ActionFold:
		return nil

	case ActionCheck:
		if toCall != 0 {
			return fmt.Errorf("%w: must call %d to continue", ErrIllegalAction, toCall)
		}
		return nil

	case ActionCall:
		if toCall <= 0 {
			return fmt.Errorf("%w: nothing to call", ErrIllegalAction)
		}
		return nil

	case ActionBet:
		if amount <= 0 {
			return fmt.Errorf("%w: bet must be positive", ErrIllegalAmount)
		}
		if amount > total {
			return fmt.Errorf("%w: bet %d exceeds stack %d", ErrIllegalAmount, amount, total)
		}
		// an all-in for less than the big blind is allowed
		if amount < t.BigBlind && amount < total {
			return fmt.Errorf("%w: bet %d below big blind %d", ErrIllegalAmount, amount, t.BigBlind)
		}
		return nil

	case ActionRaise:
		if t.acted[seatIdx] {
			return fmt.Errorf("%w: betting was not reopened", ErrIllegalAction)
		}
		if amount <= t.CurrentBet {
			return fmt.Errorf("%w: raise to %d does not exceed current bet %d", ErrIllegalAmount, amount, t.CurrentBet)
		}
		if amount > total {
			return fmt.Errorf("%w: raise to %d exceeds stack %d", ErrIllegalAmount, amount, total)
		}
		// a short all-in raise is allowed, anything else must be full-sized
		if amount < t.CurrentBet+t.MinRaise && amount < total {
			return fmt.Errorf("%w: raise to %d below minimum %d", ErrIllegalAmount, amount, t.CurrentBet+t.MinRaise)
		}
		return nil

	default:
		return fmt.Errorf("%w: unknown action %q", ErrIllegalAction, kind)
	}
}

// performAction applies an already-validated action, moves the turn along and
// runs the round-end checks. It never fails.
func (t *Table) performAction(seatIdx int, kind ActionKind, amount int) {
	seat := &t.Seats[seatIdx]
	t.acted[seatIdx] = true
	if t.Phase == PhasePreflop && seatIdx == t.bbSeat {
		t.bbActed = true
	}

	switch kind {
	case ActionFold:
		seat.State = SeatFolded
		if t.LastAggressor == seatIdx {
			t.LastAggressor = -1
		}

	case ActionCheck:
		// no chips move

	case ActionCall:
		pay := min(t.CurrentBet-seat.StreetCommitted, seat.Chips)
		seat.Chips -= pay
		seat.StreetCommitted += pay
		seat.HandCommitted += pay
		if seat.Chips == 0 {
			seat.State = SeatAllIn
		}

	case ActionBet, ActionRaise:
		// A full-sized bet or raise reopens the betting; a short all-in does
		// not, so seats that already acted may only call or fold behind it.
		fullRaise := amount-t.CurrentBet >= t.MinRaise
		pay := amount - seat.StreetCommitted
		seat.Chips -= pay
		seat.StreetCommitted = amount
		seat.HandCommitted += pay
		if seat.Chips == 0 {
			seat.State = SeatAllIn
		}
		if fullRaise {
			t.MinRaise = amount - t.CurrentBet
			t.LastAggressor = seatIdx
			t.acted = [NumSeats]bool{}
			t.acted[seatIdx] = true
		}
		t.CurrentBet = amount
	}

	t.rebuildPots()
	t.Actor = t.nextToAct(seatIdx + 1)
	t.checkRoundEnd()
}

// roundComplete reports whether the current betting round is finished.
func (t *Table) roundComplete() bool {
	var active []int
	for i := range t.Seats {
		if t.Seats[i].State == SeatActive {
			active = append(active, i)
		}
	}

	// Everyone left is all-in: nothing more to decide.
	if len(active) == 0 {
		return true
	}

	// One seat with chips against all-ins only needs to match the bet; there
	// is nobody left to raise against.
	if len(active) == 1 {
		return t.Seats[active[0]].StreetCommitted == t.CurrentBet
	}

	for _, i := range active {
		if t.Seats[i].StreetCommitted != t.CurrentBet {
			return false
		}
	}
	for _, i := range active {
		if !t.acted[i] {
			return false
		}
	}

	// Preflop with no raise: the big blind still has the option to act even
	// though everyone has matched. The forced post does not count.
	if t.Phase == PhasePreflop && t.LastAggressor == -1 {
		if t.Seats[t.bbSeat].State == SeatActive && !t.bbActed {
			return false
		}
	}

	return true
}
