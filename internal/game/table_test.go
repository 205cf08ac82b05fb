package game

import (
	"errors"
	"testing"
)

const testSeed = 42

func newTestTable() *Table {
	return NewTable(TableConfig{ID: "test", SmallBlind: 5, BigBlind: 10})
}

func join(t *testing.T, tbl *Table, seat int, player string, chips int) {
	t.Helper()
	if err := tbl.Apply(PlayerJoin{Seat: seat, PlayerID: player, Chips: chips}); err != nil {
		t.Fatalf("join %s at seat %d: %v", player, seat, err)
	}
}

// step applies an event and runs any queued street deals, standing in for the
// engine's street timer.
func step(t *testing.T, tbl *Table, ev Event) {
	t.Helper()
	if err := tbl.Apply(ev); err != nil {
		t.Fatalf("apply %s: %v", ev.EventType(), err)
	}
	runStreets(tbl)
	if err := tbl.checkInvariants(); err != nil {
		t.Fatalf("invariant violated after %s: %v", ev.EventType(), err)
	}
}

func runStreets(tbl *Table) {
	for tbl.pendingStreet != PhaseWaiting {
		tbl.dealNextStreet()
	}
}

func act(t *testing.T, tbl *Table, player string, action ActionKind, amount int) {
	t.Helper()
	step(t, tbl, PlayerAction{PlayerID: player, Action: action, Amount: amount})
}

// totalChips sums stacks plus live commitments, which must be conserved by
// every hand.
func totalChips(tbl *Table) int {
	sum := 0
	for i := range tbl.Seats {
		sum += tbl.Seats[i].Chips + tbl.Seats[i].HandCommitted
	}
	return sum
}

func lastPayout(t *testing.T, tbl *Table) Payout {
	t.Helper()
	for i := len(tbl.Log) - 1; i >= 0; i-- {
		if p, ok := tbl.Log[i].Event.(Payout); ok {
			return p
		}
	}
	t.Fatal("no payout event in log")
	return Payout{}
}

func hasEvent(tbl *Table, et EventType) bool {
	for _, le := range tbl.Log {
		if le.Event.EventType() == et {
			return true
		}
	}
	return false
}

func TestHeadsUpBlindsAndOrder(t *testing.T) {
	tbl := newTestTable()
	join(t, tbl, 0, "alice", 100)
	join(t, tbl, 1, "bob", 100)
	step(t, tbl, StartHand{Seed: testSeed})

	if tbl.Button != 0 {
		t.Errorf("button = %d, want 0", tbl.Button)
	}
	// heads-up the button posts the small blind and acts first preflop
	if got := tbl.Seats[0].StreetCommitted; got != 5 {
		t.Errorf("button street commitment = %d, want small blind 5", got)
	}
	if got := tbl.Seats[1].StreetCommitted; got != 10 {
		t.Errorf("big blind street commitment = %d, want 10", got)
	}
	if tbl.Actor != 0 {
		t.Errorf("preflop actor = %d, want button seat 0", tbl.Actor)
	}
	for i := 0; i < 2; i++ {
		if got := len(tbl.Seats[i].HoleCards); got != 2 {
			t.Errorf("seat %d dealt %d cards, want 2", i, got)
		}
	}

	act(t, tbl, "alice", ActionCall, 0)
	if tbl.Actor != 1 {
		t.Errorf("actor after limp = %d, want big blind seat 1", tbl.Actor)
	}
	act(t, tbl, "bob", ActionCheck, 0)

	// postflop the non-button acts first
	if tbl.Phase != PhaseFlop {
		t.Fatalf("phase = %s, want flop", tbl.Phase)
	}
	if tbl.Actor != 1 {
		t.Errorf("flop actor = %d, want seat 1", tbl.Actor)
	}
	if got := len(tbl.Community); got != 3 {
		t.Errorf("flop community cards = %d, want 3", got)
	}
}

func TestHeadsUpFoldPreflop(t *testing.T) {
	tbl := newTestTable()
	join(t, tbl, 0, "alice", 100)
	join(t, tbl, 1, "bob", 100)
	step(t, tbl, StartHand{Seed: testSeed})
	act(t, tbl, "alice", ActionFold, 0)

	if tbl.Phase != PhaseWaiting {
		t.Fatalf("phase = %s, want waiting", tbl.Phase)
	}
	if got := tbl.Seats[0].Chips; got != 95 {
		t.Errorf("alice chips = %d, want 95", got)
	}
	if got := tbl.Seats[1].Chips; got != 105 {
		t.Errorf("bob chips = %d, want 105", got)
	}

	payout := lastPayout(t, tbl)
	if len(payout.Distributions) != 1 {
		t.Fatalf("distributions = %d, want 1", len(payout.Distributions))
	}
	d := payout.Distributions[0]
	if d.Seat != 1 || d.Amount != 15 || d.Reason != "uncontested" {
		t.Errorf("distribution = %+v, want seat 1 amount 15 uncontested", d)
	}
	if !hasEvent(tbl, EventHandEnd) {
		t.Error("no hand_end event in log")
	}
	if hasEvent(tbl, EventShowdown) {
		t.Error("unexpected showdown on an uncontested hand")
	}
}

func TestUncalledRaiseReturned(t *testing.T) {
	tbl := newTestTable()
	join(t, tbl, 0, "alice", 100)
	join(t, tbl, 1, "bob", 100)
	step(t, tbl, StartHand{Seed: testSeed})

	act(t, tbl, "alice", ActionRaise, 50)
	act(t, tbl, "bob", ActionFold, 0)

	if got := tbl.Seats[0].Chips; got != 110 {
		t.Errorf("alice chips = %d, want 110 (raise returned plus blinds)", got)
	}
	if got := tbl.Seats[1].Chips; got != 90 {
		t.Errorf("bob chips = %d, want 90", got)
	}
}

func TestCheckdownConservesChips(t *testing.T) {
	tbl := newTestTable()
	join(t, tbl, 0, "alice", 100)
	join(t, tbl, 1, "bob", 100)
	step(t, tbl, StartHand{Seed: testSeed})

	act(t, tbl, "alice", ActionCall, 0)
	act(t, tbl, "bob", ActionCheck, 0)
	for _, street := range []Phase{PhaseFlop, PhaseTurn, PhaseRiver} {
		if tbl.Phase != street {
			t.Fatalf("phase = %s, want %s", tbl.Phase, street)
		}
		act(t, tbl, "bob", ActionCheck, 0)
		act(t, tbl, "alice", ActionCheck, 0)
	}

	if tbl.Phase != PhaseWaiting {
		t.Fatalf("phase = %s, want waiting after river checkdown", tbl.Phase)
	}
	if got := len(tbl.Community); got != 5 {
		t.Errorf("community cards = %d, want 5", got)
	}
	if got := totalChips(tbl); got != 200 {
		t.Errorf("chips on table = %d, want 200", got)
	}
	if !hasEvent(tbl, EventShowdown) {
		t.Error("no showdown event after a contested river")
	}

	payout := lastPayout(t, tbl)
	total := 0
	for _, d := range payout.Distributions {
		total += d.Amount
	}
	if total != 20 {
		t.Errorf("payout total = %d, want pot of 20", total)
	}
}

func TestAllInPreflopRunsOut(t *testing.T) {
	tbl := newTestTable()
	join(t, tbl, 0, "alice", 100)
	join(t, tbl, 1, "bob", 100)
	step(t, tbl, StartHand{Seed: testSeed})

	act(t, tbl, "alice", ActionRaise, 30)
	act(t, tbl, "bob", ActionAllIn, 0)
	act(t, tbl, "alice", ActionAllIn, 0) // covers exactly, becomes a call

	if tbl.Phase != PhaseWaiting {
		t.Fatalf("phase = %s, want waiting after runout", tbl.Phase)
	}
	if got := len(tbl.Community); got != 5 {
		t.Errorf("community cards = %d, want full board", got)
	}
	if got := totalChips(tbl); got != 200 {
		t.Errorf("chips on table = %d, want 200", got)
	}

	payout := lastPayout(t, tbl)
	total := 0
	for _, d := range payout.Distributions {
		total += d.Amount
	}
	if total != 200 {
		t.Errorf("payout total = %d, want 200", total)
	}
}

func TestShortAllInSidePots(t *testing.T) {
	tbl := newTestTable()
	join(t, tbl, 0, "alice", 100)
	join(t, tbl, 1, "bob", 100)
	join(t, tbl, 2, "cara", 30)
	step(t, tbl, StartHand{Seed: testSeed})

	// button 0, blinds 1 and 2, alice opens the action
	act(t, tbl, "alice", ActionAllIn, 0)
	act(t, tbl, "bob", ActionAllIn, 0)
	act(t, tbl, "cara", ActionAllIn, 0)

	if tbl.Phase != PhaseWaiting {
		t.Fatalf("phase = %s, want waiting", tbl.Phase)
	}
	if got := totalChips(tbl); got != 230 {
		t.Errorf("chips on table = %d, want 230", got)
	}

	// main pot 3 x 30, side pot 2 x 70
	payout := lastPayout(t, tbl)
	potTotals := map[int]int{}
	for _, d := range payout.Distributions {
		potTotals[d.PotIndex] += d.Amount
		if d.PotIndex == 1 && d.Seat == 2 {
			t.Errorf("short stack seat 2 paid from side pot: %+v", d)
		}
	}
	if potTotals[0] != 90 {
		t.Errorf("main pot = %d, want 90", potTotals[0])
	}
	if potTotals[1] != 140 {
		t.Errorf("side pot = %d, want 140", potTotals[1])
	}
}

func TestUncalledPortionOfAllIn(t *testing.T) {
	tbl := newTestTable()
	join(t, tbl, 0, "alice", 100)
	join(t, tbl, 1, "bob", 100)
	join(t, tbl, 2, "cara", 30)
	step(t, tbl, StartHand{Seed: testSeed})

	act(t, tbl, "alice", ActionAllIn, 0)
	act(t, tbl, "bob", ActionFold, 0)
	act(t, tbl, "cara", ActionAllIn, 0) // 30 total, a call for less

	if got := totalChips(tbl); got != 230 {
		t.Errorf("chips on table = %d, want 230", got)
	}

	// alice's stack above cara's 30 was never called and comes straight back
	payout := lastPayout(t, tbl)
	var uncalled *Distribution
	for i, d := range payout.Distributions {
		if d.Reason == "uncalled" {
			uncalled = &payout.Distributions[i]
		}
	}
	if uncalled == nil {
		t.Fatal("no uncalled distribution in payout")
	}
	if uncalled.Seat != 0 || uncalled.Amount != 70 {
		t.Errorf("uncalled return = %+v, want seat 0 amount 70", *uncalled)
	}
}

func TestBigBlindOption(t *testing.T) {
	tbl := newTestTable()
	join(t, tbl, 0, "alice", 100)
	join(t, tbl, 1, "bob", 100)
	join(t, tbl, 2, "cara", 100)
	step(t, tbl, StartHand{Seed: testSeed})

	act(t, tbl, "alice", ActionCall, 0)
	act(t, tbl, "bob", ActionCall, 0)

	// everyone has matched but the big blind still holds the option
	if tbl.Phase != PhasePreflop {
		t.Fatalf("phase = %s, want preflop while the option is live", tbl.Phase)
	}
	if tbl.Actor != 2 {
		t.Fatalf("actor = %d, want big blind seat 2", tbl.Actor)
	}

	act(t, tbl, "cara", ActionCheck, 0)
	if tbl.Phase != PhaseFlop {
		t.Errorf("phase = %s, want flop after the option check", tbl.Phase)
	}
	if tbl.Actor != 1 {
		t.Errorf("flop actor = %d, want first seat after button", tbl.Actor)
	}
}

func TestShortAllInDoesNotReopenBetting(t *testing.T) {
	tbl := newTestTable()
	join(t, tbl, 0, "alice", 100)
	join(t, tbl, 1, "bob", 100)
	join(t, tbl, 2, "cara", 25)
	step(t, tbl, StartHand{Seed: testSeed})

	act(t, tbl, "alice", ActionRaise, 20)
	act(t, tbl, "bob", ActionCall, 0)
	act(t, tbl, "cara", ActionAllIn, 0) // to 25 total, below the minimum raise

	// the short all-in does not give alice a new raising right
	err := tbl.Apply(PlayerAction{PlayerID: "alice", Action: ActionRaise, Amount: 40})
	if !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("raise behind short all-in: err = %v, want ErrIllegalAction", err)
	}

	act(t, tbl, "alice", ActionCall, 0)
	act(t, tbl, "bob", ActionCall, 0)
	if tbl.Phase != PhaseFlop {
		t.Fatalf("phase = %s, want flop", tbl.Phase)
	}

	for tbl.Phase.Betting() {
		act(t, tbl, "alice", ActionCheck, 0)
		if !tbl.Phase.Betting() {
			break
		}
		act(t, tbl, "bob", ActionCheck, 0)
	}
	if got := totalChips(tbl); got != 225 {
		t.Errorf("chips on table = %d, want 225", got)
	}
}

func TestFullRaiseReopensBetting(t *testing.T) {
	tbl := newTestTable()
	join(t, tbl, 0, "alice", 500)
	join(t, tbl, 1, "bob", 500)
	step(t, tbl, StartHand{Seed: testSeed})

	act(t, tbl, "alice", ActionRaise, 30)
	act(t, tbl, "bob", ActionRaise, 90) // full raise, alice may raise again
	if err := tbl.Apply(PlayerAction{PlayerID: "alice", Action: ActionRaise, Amount: 200}); err != nil {
		t.Fatalf("re-raise after full raise: %v", err)
	}
	runStreets(tbl)
	if tbl.CurrentBet != 200 {
		t.Errorf("current bet = %d, want 200", tbl.CurrentBet)
	}
	if tbl.MinRaise != 110 {
		t.Errorf("min raise = %d, want 110", tbl.MinRaise)
	}
}

func TestBlindAllInShortStack(t *testing.T) {
	tbl := newTestTable()
	join(t, tbl, 0, "alice", 100)
	join(t, tbl, 1, "bob", 10) // exactly the big blind
	step(t, tbl, StartHand{Seed: testSeed})

	if tbl.Seats[1].State != SeatAllIn {
		t.Fatalf("bob state = %s, want all_in from posting", tbl.Seats[1].State)
	}
	if tbl.Actor != 0 {
		t.Fatalf("actor = %d, want alice", tbl.Actor)
	}

	act(t, tbl, "alice", ActionCall, 0)
	if tbl.Phase != PhaseWaiting {
		t.Fatalf("phase = %s, want waiting after runout", tbl.Phase)
	}
	if got := len(tbl.Community); got != 5 {
		t.Errorf("community cards = %d, want 5", got)
	}
	if got := totalChips(tbl); got != 110 {
		t.Errorf("chips on table = %d, want 110", got)
	}
}

func TestActionValidation(t *testing.T) {
	tbl := newTestTable()
	join(t, tbl, 0, "alice", 100)
	join(t, tbl, 1, "bob", 100)
	step(t, tbl, StartHand{Seed: testSeed})

	// failed applies leave the table unchanged, so one hand serves all cases
	tests := []struct {
		name    string
		ev      Event
		wantErr error
	}{
		{"raise below minimum", PlayerAction{PlayerID: "alice", Action: ActionRaise, Amount: 15}, ErrIllegalAmount},
		{"raise above stack", PlayerAction{PlayerID: "alice", Action: ActionRaise, Amount: 150}, ErrIllegalAmount},
		{"check facing a bet", PlayerAction{PlayerID: "alice", Action: ActionCheck}, ErrIllegalAction},
		{"out of turn", PlayerAction{PlayerID: "bob", Action: ActionCall}, ErrNotYourTurn},
		{"stranger acts", PlayerAction{PlayerID: "mallory", Action: ActionFold}, ErrNotSeated},
		{"start during hand", StartHand{Seed: 1}, ErrHandInProgress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tbl.Apply(tt.ev)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if tbl.Actor != 0 || tbl.CurrentBet != 10 {
		t.Errorf("rejected events mutated the table: actor=%d bet=%d", tbl.Actor, tbl.CurrentBet)
	}
}

func TestJoinValidation(t *testing.T) {
	tbl := NewTable(TableConfig{ID: "test", SmallBlind: 5, BigBlind: 10, MinBuyIn: 200, MaxBuyIn: 2000})
	join(t, tbl, 0, "alice", 1000)

	tests := []struct {
		name    string
		ev      PlayerJoin
		wantErr error
	}{
		{"seat below range", PlayerJoin{Seat: -1, PlayerID: "bob", Chips: 1000}, ErrSeatOutOfRange},
		{"seat above range", PlayerJoin{Seat: NumSeats, PlayerID: "bob", Chips: 1000}, ErrSeatOutOfRange},
		{"seat taken", PlayerJoin{Seat: 0, PlayerID: "bob", Chips: 1000}, ErrSeatTaken},
		{"already seated", PlayerJoin{Seat: 1, PlayerID: "alice", Chips: 1000}, ErrAlreadySeated},
		{"zero buy-in", PlayerJoin{Seat: 1, PlayerID: "bob", Chips: 0}, ErrInvalidBuyIn},
		{"below minimum", PlayerJoin{Seat: 1, PlayerID: "bob", Chips: 100}, ErrInvalidBuyIn},
		{"above maximum", PlayerJoin{Seat: 1, PlayerID: "bob", Chips: 5000}, ErrInvalidBuyIn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tbl.Apply(tt.ev)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStartHandNeedsTwoPlayers(t *testing.T) {
	tbl := newTestTable()
	if err := tbl.Apply(StartHand{Seed: 1}); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Errorf("empty table: err = %v, want ErrNotEnoughPlayers", err)
	}
	join(t, tbl, 0, "alice", 100)
	if err := tbl.Apply(StartHand{Seed: 1}); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Errorf("single player: err = %v, want ErrNotEnoughPlayers", err)
	}
	// a stack below the big blind cannot be dealt in
	join(t, tbl, 1, "bob", 100)
	tbl.Seats[1].Chips = 5
	if err := tbl.Apply(StartHand{Seed: 1}); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Errorf("short stack: err = %v, want ErrNotEnoughPlayers", err)
	}
}

func TestActionTimeoutChecksWhenFree(t *testing.T) {
	tbl := newTestTable()
	join(t, tbl, 0, "alice", 100)
	join(t, tbl, 1, "bob", 100)
	step(t, tbl, StartHand{Seed: testSeed})
	act(t, tbl, "alice", ActionCall, 0)

	// bob holds the big blind option; the timeout checks it away
	step(t, tbl, ActionTimeout{HandNumber: tbl.HandNumber, Seat: 1})
	if tbl.Phase != PhaseFlop {
		t.Errorf("phase = %s, want flop after timed-out option check", tbl.Phase)
	}
	if got := tbl.Seats[1].Chips; got != 90 {
		t.Errorf("bob chips = %d, want 90 (no extra chips taken)", got)
	}
}

func TestActionTimeoutFoldsFacingBet(t *testing.T) {
	tbl := newTestTable()
	join(t, tbl, 0, "alice", 100)
	join(t, tbl, 1, "bob", 100)
	step(t, tbl, StartHand{Seed: testSeed})
	act(t, tbl, "alice", ActionCall, 0)
	act(t, tbl, "bob", ActionCheck, 0)
	act(t, tbl, "bob", ActionBet, 20)

	step(t, tbl, ActionTimeout{HandNumber: tbl.HandNumber, Seat: 0})
	if tbl.Phase != PhaseWaiting {
		t.Fatalf("phase = %s, want waiting after fold ends the hand", tbl.Phase)
	}
	if got := tbl.Seats[1].Chips; got != 110 {
		t.Errorf("bob chips = %d, want 110", got)
	}
	if got := tbl.Seats[0].Chips; got != 90 {
		t.Errorf("alice chips = %d, want 90", got)
	}
}

func TestStaleActionTimeoutDropped(t *testing.T) {
	tbl := newTestTable()
	join(t, tbl, 0, "alice", 100)
	join(t, tbl, 1, "bob", 100)
	step(t, tbl, StartHand{Seed: testSeed})

	if err := tbl.Apply(ActionTimeout{HandNumber: 99, Seat: tbl.Actor}); !errors.Is(err, errStaleTrigger) {
		t.Errorf("wrong hand: err = %v, want stale trigger", err)
	}
	if err := tbl.Apply(ActionTimeout{HandNumber: tbl.HandNumber, Seat: 1}); !errors.Is(err, errStaleTrigger) {
		t.Errorf("wrong seat: err = %v, want stale trigger", err)
	}
	if tbl.Actor != 0 {
		t.Errorf("stale timeout moved the action: actor = %d", tbl.Actor)
	}
}

func TestJoinMidHandWaitsForNextHand(t *testing.T) {
	tbl := newTestTable()
	join(t, tbl, 0, "alice", 100)
	join(t, tbl, 1, "bob", 100)
	step(t, tbl, StartHand{Seed: testSeed})

	join(t, tbl, 4, "cara", 100)
	if got := tbl.Seats[4].State; got != SeatWaitingNextHand {
		t.Fatalf("cara state = %s, want waiting_next_hand", got)
	}
	if len(tbl.Seats[4].HoleCards) != 0 {
		t.Error("cara was dealt into a live hand")
	}
	if !hasEvent(tbl, EventPlayerWaiting) {
		t.Error("no player_waiting event for the mid-hand join")
	}

	act(t, tbl, "alice", ActionFold, 0)
	step(t, tbl, StartHand{Seed: testSeed + 1})
	if got := tbl.Seats[4].State; got != SeatActive {
		t.Errorf("cara state = %s, want active in the next hand", got)
	}
	if got := len(tbl.Seats[4].HoleCards); got != 2 {
		t.Errorf("cara dealt %d cards, want 2", got)
	}
}

func TestLeaveMidHandFoldsAndVacates(t *testing.T) {
	tbl := newTestTable()
	join(t, tbl, 0, "alice", 100)
	join(t, tbl, 1, "bob", 100)
	join(t, tbl, 2, "cara", 100)
	step(t, tbl, StartHand{Seed: testSeed})

	act(t, tbl, "alice", ActionCall, 0)
	act(t, tbl, "bob", ActionCall, 0)
	act(t, tbl, "cara", ActionCheck, 0)

	// bob leaves on the flop; his 10 preflop chips stay in the pot
	step(t, tbl, PlayerLeave{PlayerID: "bob"})
	if tbl.Seats[1].Occupied() {
		t.Fatal("bob's seat still occupied after leave")
	}
	if tbl.Phase != PhaseFlop {
		t.Fatalf("phase = %s, want hand still live on the flop", tbl.Phase)
	}

	for tbl.Phase.Betting() {
		act(t, tbl, "cara", ActionCheck, 0)
		if !tbl.Phase.Betting() {
			break
		}
		act(t, tbl, "alice", ActionCheck, 0)
	}

	remaining := tbl.Seats[0].Chips + tbl.Seats[2].Chips
	if remaining != 210 {
		t.Errorf("remaining stacks = %d, want 210 (bob left with 90)", remaining)
	}
}

func TestLeaveOnTurnFoldsImplicitly(t *testing.T) {
	tbl := newTestTable()
	join(t, tbl, 0, "alice", 100)
	join(t, tbl, 1, "bob", 100)
	step(t, tbl, StartHand{Seed: testSeed})

	// alice leaves while facing the big blind; the hand ends for bob
	step(t, tbl, PlayerLeave{PlayerID: "alice"})
	if tbl.Phase != PhaseWaiting {
		t.Fatalf("phase = %s, want waiting", tbl.Phase)
	}
	if got := tbl.Seats[1].Chips; got != 105 {
		t.Errorf("bob chips = %d, want 105", got)
	}
	if tbl.Seats[0].Occupied() {
		t.Error("alice's seat still occupied")
	}
}

func TestButtonRotates(t *testing.T) {
	tbl := newTestTable()
	join(t, tbl, 0, "alice", 100)
	join(t, tbl, 1, "bob", 100)
	join(t, tbl, 2, "cara", 100)

	step(t, tbl, StartHand{Seed: testSeed})
	if tbl.Button != 0 {
		t.Fatalf("first button = %d, want 0", tbl.Button)
	}
	act(t, tbl, "alice", ActionFold, 0)
	act(t, tbl, "bob", ActionFold, 0)

	step(t, tbl, StartHand{Seed: testSeed + 1})
	if tbl.Button != 1 {
		t.Errorf("second button = %d, want 1", tbl.Button)
	}
}

func TestSitOutAndSitIn(t *testing.T) {
	tbl := newTestTable()
	join(t, tbl, 0, "alice", 100)
	join(t, tbl, 1, "bob", 100)
	step(t, tbl, StartHand{Seed: testSeed})

	// sitting out mid-hand folds the seat, which ends a heads-up hand
	step(t, tbl, PlayerSitOut{PlayerID: "alice"})
	if tbl.Phase != PhaseWaiting {
		t.Fatalf("phase = %s, want waiting", tbl.Phase)
	}
	if got := tbl.Seats[0].State; got != SeatSittingOut {
		t.Fatalf("alice state = %s, want sitting_out", got)
	}

	if err := tbl.Apply(StartHand{Seed: 1}); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Fatalf("start with one sitting out: err = %v, want ErrNotEnoughPlayers", err)
	}
	if err := tbl.Apply(PlayerSitOut{PlayerID: "alice"}); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("double sit-out: err = %v, want ErrIllegalAction", err)
	}

	step(t, tbl, PlayerSitIn{PlayerID: "alice"})
	if !tbl.CanStartHand() {
		t.Error("table not startable after sit-in")
	}
}

func TestRakeOnContestedPot(t *testing.T) {
	tbl := NewTable(TableConfig{ID: "test", SmallBlind: 5, BigBlind: 10, RakeBps: 500, RakeCap: 3})
	join(t, tbl, 0, "alice", 100)
	join(t, tbl, 1, "bob", 100)
	step(t, tbl, StartHand{Seed: testSeed})

	act(t, tbl, "alice", ActionRaise, 50)
	act(t, tbl, "bob", ActionCall, 0)
	for tbl.Phase.Betting() {
		act(t, tbl, "bob", ActionCheck, 0)
		if !tbl.Phase.Betting() {
			break
		}
		act(t, tbl, "alice", ActionCheck, 0)
	}

	payout := lastPayout(t, tbl)
	if payout.Rake != 3 {
		t.Errorf("rake = %d, want 3 (5%% of 100 capped)", payout.Rake)
	}
	total := 0
	for _, d := range payout.Distributions {
		total += d.Amount
	}
	if total != 97 {
		t.Errorf("distributed = %d, want 97", total)
	}
	if got := totalChips(tbl); got != 197 {
		t.Errorf("chips on table = %d, want 197 after rake", got)
	}
}

func TestNoRakeWithoutFlop(t *testing.T) {
	tbl := NewTable(TableConfig{ID: "test", SmallBlind: 5, BigBlind: 10, RakeBps: 500, RakeCap: 3})
	join(t, tbl, 0, "alice", 100)
	join(t, tbl, 1, "bob", 100)
	step(t, tbl, StartHand{Seed: testSeed})

	act(t, tbl, "alice", ActionRaise, 50)
	act(t, tbl, "bob", ActionFold, 0)

	if payout := lastPayout(t, tbl); payout.Rake != 0 {
		t.Errorf("rake = %d, want 0 on a preflop fold", payout.Rake)
	}
	if got := totalChips(tbl); got != 200 {
		t.Errorf("chips on table = %d, want 200", got)
	}
}

func TestLegalActionsPreflop(t *testing.T) {
	tbl := newTestTable()
	join(t, tbl, 0, "alice", 100)
	join(t, tbl, 1, "bob", 100)
	step(t, tbl, StartHand{Seed: testSeed})

	got := map[ActionKind]LegalAction{}
	for _, la := range tbl.LegalActions() {
		got[la.Action] = la
	}
	if _, ok := got[ActionFold]; !ok {
		t.Error("fold missing from legal actions")
	}
	if call, ok := got[ActionCall]; !ok || call.Min != 5 || call.Max != 5 {
		t.Errorf("call = %+v, want min/max 5", got[ActionCall])
	}
	if raise, ok := got[ActionRaise]; !ok || raise.Min != 20 || raise.Max != 100 {
		t.Errorf("raise = %+v, want min 20 max 100", got[ActionRaise])
	}
	if allin, ok := got[ActionAllIn]; !ok || allin.Min != 100 {
		t.Errorf("allin = %+v, want 100", got[ActionAllIn])
	}
	if _, ok := got[ActionCheck]; ok {
		t.Error("check offered while facing the big blind")
	}
}

func TestParseActionKind(t *testing.T) {
	tests := []struct {
		in   string
		want ActionKind
		ok   bool
	}{
		{"fold", ActionFold, true},
		{"CHECK", ActionCheck, true},
		{" call ", ActionCall, true},
		{"all_in", ActionAllIn, true},
		{"all-in", ActionAllIn, true},
		{"shove", "", false},
	}
	for _, tt := range tests {
		got, err := ParseActionKind(tt.in)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("ParseActionKind(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
		if !tt.ok && err == nil {
			t.Errorf("ParseActionKind(%q) accepted", tt.in)
		}
	}
}

func TestLogTrimsAfterHandEnd(t *testing.T) {
	tbl := newTestTable()
	join(t, tbl, 0, "alice", 100)
	join(t, tbl, 1, "bob", 100)
	step(t, tbl, StartHand{Seed: testSeed})
	act(t, tbl, "alice", ActionFold, 0)

	tbl.trimLog()
	if len(tbl.Log) != 0 {
		t.Errorf("log has %d entries after trim, want 0", len(tbl.Log))
	}
}
