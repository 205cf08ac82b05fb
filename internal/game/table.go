package game

import (
	"fmt"
	"sort"
	"time"

	"github.com/lox/holdemd/internal/randutil"
	"github.com/lox/holdemd/poker"
)

// Phase is the top-level state of a table's hand cycle.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhasePreflop
	PhaseFlop
	PhaseTurn
	PhaseRiver
	PhaseShowdown
	PhaseSettling
)

var phaseNames = [...]string{"waiting", "preflop", "flop", "turn", "river", "showdown", "settling"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Betting reports whether the phase is a betting round.
func (p Phase) Betting() bool {
	return p >= PhasePreflop && p <= PhaseRiver
}

// MarshalText encodes the phase as its lowercase name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a lowercase phase name.
func (p *Phase) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if string(b) == name {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

// TableConfig carries the static parameters of one table.
type TableConfig struct {
	ID         string
	Name       string
	SmallBlind int
	BigBlind   int
	MinBuyIn   int // 0 means any positive buy-in
	MaxBuyIn   int // 0 means uncapped
	RakeBps    int // basis points taken from contested pots
	RakeCap    int // per-hand rake ceiling, 0 means uncapped
}

// Table holds the authoritative state of one poker table. It is not safe for
// concurrent use; the Engine serializes all access to it.
type Table struct {
	ID         string
	Name       string
	SmallBlind int
	BigBlind   int
	MinBuyIn   int
	MaxBuyIn   int
	RakeBps    int
	RakeCap    int

	Phase         Phase
	Seats         [NumSeats]Seat
	Community     []poker.Card
	Burns         []poker.Card
	Button        int // -1 before the first hand
	Actor         int // -1 when nobody is to act
	CurrentBet    int
	MinRaise      int
	LastAggressor int // -1 when the street has no full bet or raise yet
	HandNumber    uint64
	Pots          []Pot
	Log           []LogEntry

	deck          *poker.Deck
	acted         [NumSeats]bool
	bbActed       bool
	sbSeat        int
	bbSeat        int
	handTotal     int   // chips on the table at hand start, adjusted by joins and leaves
	pendingStreet Phase // PhaseWaiting when no street deal is queued
	seq           uint64
	now           func() time.Time
}

// NewTable creates an empty table in the waiting phase.
func NewTable(cfg TableConfig) *Table {
	t := &Table{
		ID:            cfg.ID,
		Name:          cfg.Name,
		SmallBlind:    cfg.SmallBlind,
		BigBlind:      cfg.BigBlind,
		MinBuyIn:      cfg.MinBuyIn,
		MaxBuyIn:      cfg.MaxBuyIn,
		RakeBps:       cfg.RakeBps,
		RakeCap:       cfg.RakeCap,
		Button:        -1,
		Actor:         -1,
		LastAggressor: -1,
		now:           time.Now,
	}
	for i := range t.Seats {
		t.Seats[i].ID = i
	}
	return t
}

// Apply validates an input event against the current state and applies it.
// On success the event and everything derived from it have been committed to
// the log; on failure the table is unchanged.
func (t *Table) Apply(ev Event) error {
	switch e := ev.(type) {
	case PlayerJoin:
		return t.applyJoin(e)
	case PlayerLeave:
		return t.applyLeave(e)
	case PlayerSitOut:
		return t.applySitOut(e)
	case PlayerSitIn:
		return t.applySitIn(e)
	case StartHand:
		return t.applyStartHand(e)
	case PlayerAction:
		return t.applyAction(e)
	case ActionTimeout:
		return t.applyActionTimeout(e)
	case advanceStreet:
		if !t.Phase.Betting() || e.HandNumber != t.HandNumber || t.pendingStreet != e.Street {
			return errStaleTrigger
		}
		t.dealNextStreet()
		return nil
	default:
		return fmt.Errorf("%w: %T is not an input event", ErrIllegalAction, ev)
	}
}

func (t *Table) applyJoin(e PlayerJoin) error {
	if e.Seat < 0 || e.Seat >= NumSeats {
		return fmt.Errorf("%w: %d", ErrSeatOutOfRange, e.Seat)
	}
	if e.PlayerID == "" {
		return fmt.Errorf("%w: empty player id", ErrIllegalAction)
	}
	if t.Seats[e.Seat].Occupied() {
		return fmt.Errorf("%w: seat %d", ErrSeatTaken, e.Seat)
	}
	if t.SeatOf(e.PlayerID) != -1 {
		return fmt.Errorf("%w: %s", ErrAlreadySeated, e.PlayerID)
	}
	if e.Chips <= 0 {
		return fmt.Errorf("%w: buy-in must be positive", ErrInvalidBuyIn)
	}
	if t.MinBuyIn > 0 && e.Chips < t.MinBuyIn {
		return fmt.Errorf("%w: %d below table minimum %d", ErrInvalidBuyIn, e.Chips, t.MinBuyIn)
	}
	if t.MaxBuyIn > 0 && e.Chips > t.MaxBuyIn {
		return fmt.Errorf("%w: %d above table maximum %d", ErrInvalidBuyIn, e.Chips, t.MaxBuyIn)
	}

	t.append(e, false)
	seat := &t.Seats[e.Seat]
	seat.PlayerID = e.PlayerID
	seat.Nickname = e.Nickname
	seat.Chips = e.Chips
	seat.HoleCards = nil
	seat.StreetCommitted = 0
	seat.HandCommitted = 0
	seat.JoinedHand = t.HandNumber

	if t.Phase == PhaseWaiting {
		seat.State = SeatActive
	} else {
		seat.State = SeatWaitingNextHand
		t.handTotal += e.Chips
		t.appendDerived(PlayerWaiting{Seat: e.Seat, PlayerID: e.PlayerID})
	}
	return nil
}

func (t *Table) applyLeave(e PlayerLeave) error {
	seatIdx := t.SeatOf(e.PlayerID)
	if seatIdx == -1 {
		return fmt.Errorf("%w: %s", ErrNotSeated, e.PlayerID)
	}

	t.append(e, false)
	seat := &t.Seats[seatIdx]
	if t.Phase.Betting() && seat.InHand() {
		// Committed chips stay in the pot; the remaining stack leaves with
		// the player.
		t.handTotal -= seat.Chips
		t.foldOut(seatIdx, SeatFolded)
	} else if t.Phase.Betting() {
		t.handTotal -= seat.Chips
	}
	t.clearSeat(seatIdx)
	return nil
}

func (t *Table) applySitOut(e PlayerSitOut) error {
	seatIdx := t.SeatOf(e.PlayerID)
	if seatIdx == -1 {
		return fmt.Errorf("%w: %s", ErrNotSeated, e.PlayerID)
	}
	seat := &t.Seats[seatIdx]

	switch seat.State {
	case SeatSittingOut:
		return fmt.Errorf("%w: already sitting out", ErrIllegalAction)
	case SeatAllIn:
		return fmt.Errorf("%w: cannot sit out while all in", ErrIllegalAction)
	case SeatActive:
		t.append(e, false)
		if t.Phase.Betting() {
			t.foldOut(seatIdx, SeatSittingOut)
		} else {
			seat.State = SeatSittingOut
		}
	case SeatFolded, SeatWaitingNextHand:
		t.append(e, false)
		seat.State = SeatSittingOut
	default:
		return fmt.Errorf("%w: %s", ErrNotSeated, e.PlayerID)
	}
	return nil
}

func (t *Table) applySitIn(e PlayerSitIn) error {
	seatIdx := t.SeatOf(e.PlayerID)
	if seatIdx == -1 {
		return fmt.Errorf("%w: %s", ErrNotSeated, e.PlayerID)
	}
	seat := &t.Seats[seatIdx]
	if seat.State != SeatSittingOut {
		return fmt.Errorf("%w: not sitting out", ErrIllegalAction)
	}
	if seat.Chips <= 0 {
		return fmt.Errorf("%w: no chips to play with", ErrIllegalAction)
	}

	t.append(e, false)
	if t.Phase == PhaseWaiting {
		seat.State = SeatActive
	} else {
		seat.State = SeatWaitingNextHand
		t.appendDerived(PlayerWaiting{Seat: seatIdx, PlayerID: e.PlayerID})
	}
	return nil
}

func (t *Table) applyStartHand(e StartHand) error {
	if t.Phase != PhaseWaiting {
		return ErrHandInProgress
	}
	ready := 0
	for i := range t.Seats {
		s := &t.Seats[i]
		if (s.State == SeatActive || s.State == SeatWaitingNextHand) && s.Chips >= t.BigBlind {
			ready++
		}
	}
	if ready < 2 {
		return ErrNotEnoughPlayers
	}

	t.append(e, false)
	t.HandNumber++
	t.Community = nil
	t.Burns = nil
	t.Pots = nil
	t.CurrentBet = 0
	t.MinRaise = t.BigBlind
	t.LastAggressor = -1
	t.bbActed = false
	t.acted = [NumSeats]bool{}
	t.pendingStreet = PhaseWaiting

	var participants []int
	t.handTotal = 0
	for i := range t.Seats {
		s := &t.Seats[i]
		s.HoleCards = nil
		s.StreetCommitted = 0
		s.HandCommitted = 0
		if s.State == SeatWaitingNextHand && s.Chips > 0 {
			s.State = SeatActive
		}
		if s.Occupied() {
			t.handTotal += s.Chips
		}
		if s.State == SeatActive && s.Chips > 0 {
			participants = append(participants, i)
		}
	}

	if t.Button < 0 {
		t.Button = participants[0]
	} else {
		t.Button = t.nextToAct(t.Button + 1)
	}
	t.Phase = PhasePreflop

	// Heads-up the button posts the small blind.
	if len(participants) == 2 {
		t.sbSeat = t.Button
		t.bbSeat = t.nextToAct(t.Button + 1)
	} else {
		t.sbSeat = t.nextToAct(t.Button + 1)
		t.bbSeat = t.nextToAct(t.sbSeat + 1)
	}
	t.postBlind(t.sbSeat, "small", t.SmallBlind)
	t.postBlind(t.bbSeat, "big", t.BigBlind)
	t.CurrentBet = t.BigBlind

	rng := randutil.New(e.Seed)
	t.deck = poker.NewDeck(rng)
	t.deck.Shuffle()
	for _, idx := range clockwiseFrom(t.sbSeat, participants) {
		seat := &t.Seats[idx]
		cards := t.deck.Deal(2)
		seat.HoleCards = cards
		t.appendDerived(DealHole{Seat: idx, PlayerID: seat.PlayerID, Cards: poker.Codes(cards)})
	}

	t.rebuildPots()
	t.Actor = t.nextToAct(t.bbSeat + 1)
	t.checkRoundEnd()
	return nil
}

func (t *Table) applyAction(e PlayerAction) error {
	if !t.Phase.Betting() {
		return fmt.Errorf("%w: no betting round in progress", ErrIllegalAction)
	}
	seatIdx := t.SeatOf(e.PlayerID)
	if seatIdx == -1 {
		return fmt.Errorf("%w: %s", ErrNotSeated, e.PlayerID)
	}
	if seatIdx != t.Actor {
		return fmt.Errorf("%w: seat %d", ErrNotYourTurn, seatIdx)
	}

	kind, amount, err := t.normalizeAction(seatIdx, e.Action, e.Amount)
	if err != nil {
		return err
	}
	if err := t.validateAction(seatIdx, kind, amount); err != nil {
		return err
	}

	t.append(e, false)
	t.performAction(seatIdx, kind, amount)
	return nil
}

func (t *Table) applyActionTimeout(e ActionTimeout) error {
	if !t.Phase.Betting() || e.HandNumber != t.HandNumber || e.Seat != t.Actor {
		return errStaleTrigger
	}

	t.append(e, false)
	seat := &t.Seats[e.Seat]
	kind := ActionFold
	if seat.StreetCommitted == t.CurrentBet {
		kind = ActionCheck
	}
	t.appendDerived(PlayerAction{PlayerID: seat.PlayerID, Action: kind})
	t.performAction(e.Seat, kind, 0)
	return nil
}

func (t *Table) postBlind(seatIdx int, blind string, amount int) {
	seat := &t.Seats[seatIdx]
	posted := min(amount, seat.Chips)
	seat.Chips -= posted
	seat.StreetCommitted += posted
	seat.HandCommitted += posted
	allIn := seat.Chips == 0
	if allIn {
		seat.State = SeatAllIn
	}
	t.appendDerived(PostBlind{Seat: seatIdx, PlayerID: seat.PlayerID, Blind: blind, Amount: posted, AllIn: allIn})
}

// foldOut takes a seat out of the hand regardless of turn order, used for
// voluntary folds through sit-out and for leaves. The resulting state is
// SeatFolded or SeatSittingOut; both stop contesting the pots.
func (t *Table) foldOut(seatIdx int, to SeatState) {
	seat := &t.Seats[seatIdx]
	seat.State = to
	t.acted[seatIdx] = true
	if t.Phase == PhasePreflop && seatIdx == t.bbSeat {
		t.bbActed = true
	}
	if t.LastAggressor == seatIdx {
		t.LastAggressor = -1
	}
	t.rebuildPots()
	if t.Actor == seatIdx {
		t.Actor = t.nextToAct(seatIdx + 1)
	}
	t.checkRoundEnd()
}

// checkRoundEnd settles the hand, queues the next street deal, or leaves the
// action where it is. Called after every mutation during a betting phase.
func (t *Table) checkRoundEnd() {
	if !t.Phase.Betting() {
		return
	}
	if len(t.contenders()) <= 1 {
		t.settle()
		return
	}
	if !t.roundComplete() {
		return
	}
	t.Actor = -1
	if t.Phase == PhaseRiver {
		t.settle()
		return
	}
	t.pendingStreet = t.Phase + 1
}

// dealNextStreet deals the queued street and opens its betting round.
func (t *Table) dealNextStreet() {
	street := t.pendingStreet
	t.pendingStreet = PhaseWaiting
	if street < PhaseFlop || street > PhaseRiver {
		return
	}

	t.Phase = street
	t.Burns = append(t.Burns, t.deck.DealOne())
	n := 1
	if street == PhaseFlop {
		n = 3
	}
	cards := t.deck.Deal(n)
	t.Community = append(t.Community, cards...)

	t.CurrentBet = 0
	t.MinRaise = t.BigBlind
	t.LastAggressor = -1
	t.acted = [NumSeats]bool{}
	for i := range t.Seats {
		t.Seats[i].StreetCommitted = 0
	}

	t.appendDerived(EnterStreet{Street: street, Cards: poker.Codes(cards)})
	t.Actor = t.nextToAct(t.Button + 1)
	t.checkRoundEnd()
}

// settle awards the pots and closes the hand. Reached from the river's round
// end, or early when only one seat is left contesting.
func (t *Table) settle() {
	t.rebuildPots()
	t.pendingStreet = PhaseWaiting
	contenders := t.contenders()

	if len(contenders) > 1 {
		t.Phase = PhaseShowdown
		board := poker.NewHand(t.Community...)
		reveals := make([]Reveal, 0, len(contenders))
		for _, i := range contenders {
			seat := &t.Seats[i]
			rank := poker.Evaluate7Cards(poker.NewHand(seat.HoleCards...) | board)
			reveals = append(reveals, Reveal{
				Seat:     i,
				PlayerID: seat.PlayerID,
				Cards:    poker.Codes(seat.HoleCards),
				HandRank: rank.String(),
			})
		}
		t.appendDerived(Showdown{Reveals: reveals})
	}

	t.Phase = PhaseSettling
	t.Actor = -1

	dists, rake := t.distribute(contenders)
	t.appendDerived(Payout{Distributions: dists, Rake: rake})
	for _, d := range dists {
		t.Seats[d.Seat].Chips += d.Amount
	}

	t.appendDerived(HandEnd{HandNumber: t.HandNumber})
	t.finishHand()
}

// finishHand returns the table to waiting. The board and any shown hole cards
// stay visible until the next hand is dealt.
func (t *Table) finishHand() {
	t.Phase = PhaseWaiting
	t.Actor = -1
	t.CurrentBet = 0
	t.MinRaise = 0
	t.LastAggressor = -1
	t.Pots = nil
	for i := range t.Seats {
		s := &t.Seats[i]
		s.StreetCommitted = 0
		s.HandCommitted = 0
		if s.State == SeatFolded || s.State == SeatAllIn {
			s.State = SeatActive
		}
		if s.State == SeatActive && s.Chips == 0 {
			s.State = SeatSittingOut
		}
	}
}

// CanStartHand reports whether a new hand could begin right now.
func (t *Table) CanStartHand() bool {
	if t.Phase != PhaseWaiting {
		return false
	}
	ready := 0
	for i := range t.Seats {
		s := &t.Seats[i]
		if (s.State == SeatActive || s.State == SeatWaitingNextHand) && s.Chips >= t.BigBlind {
			ready++
		}
	}
	return ready >= 2
}

// SeatOf returns the seat index held by a player, or -1.
func (t *Table) SeatOf(playerID string) int {
	for i := range t.Seats {
		if t.Seats[i].Occupied() && t.Seats[i].PlayerID == playerID {
			return i
		}
	}
	return -1
}

// nextToAct scans clockwise from the given seat for one that can act.
func (t *Table) nextToAct(from int) int {
	from = ((from % NumSeats) + NumSeats) % NumSeats
	for i := 0; i < NumSeats; i++ {
		idx := (from + i) % NumSeats
		if t.Seats[idx].CanAct() {
			return idx
		}
	}
	return -1
}

// contenders returns the seats still contesting the current hand.
func (t *Table) contenders() []int {
	var out []int
	for i := range t.Seats {
		if t.Seats[i].InHand() {
			out = append(out, i)
		}
	}
	return out
}

func (t *Table) clearSeat(i int) {
	t.Seats[i] = Seat{ID: i}
}

// clockwiseFrom orders seat indices by their clockwise distance from start.
func clockwiseFrom(start int, seats []int) []int {
	start = ((start % NumSeats) + NumSeats) % NumSeats
	out := make([]int, len(seats))
	copy(out, seats)
	sort.Slice(out, func(a, b int) bool {
		return (out[a]-start+NumSeats)%NumSeats < (out[b]-start+NumSeats)%NumSeats
	})
	return out
}

func (t *Table) append(ev Event, derived bool) {
	t.seq++
	t.Log = append(t.Log, LogEntry{Seq: t.seq, At: t.now(), Derived: derived, Event: ev})
}

func (t *Table) appendDerived(ev Event) {
	t.append(ev, true)
}

// trimLog drops everything up to and including the last hand_end entry. The
// retained tail is what a replay of the in-flight hand needs on top of the
// persisted pre-hand snapshot.
func (t *Table) trimLog() {
	for i := len(t.Log) - 1; i >= 0; i-- {
		if t.Log[i].Event.EventType() == EventHandEnd {
			t.Log = append(t.Log[:0:0], t.Log[i+1:]...)
			return
		}
	}
}

// checkInvariants verifies the structural invariants that must hold between
// dispatches. A non-nil return means the table state is corrupt.
func (t *Table) checkInvariants() error {
	if t.Actor != -1 {
		s := &t.Seats[t.Actor]
		if !s.CanAct() {
			return fmt.Errorf("actor seat %d is %s with %d chips", t.Actor, s.State, s.Chips)
		}
	}
	if !t.Phase.Betting() {
		return nil
	}

	committed := 0
	stacks := 0
	for i := range t.Seats {
		s := &t.Seats[i]
		committed += s.HandCommitted
		stacks += s.Chips
		if s.InHand() && s.StreetCommitted > t.CurrentBet {
			return fmt.Errorf("seat %d street commitment %d exceeds current bet %d", i, s.StreetCommitted, t.CurrentBet)
		}
	}
	potSum := 0
	for _, p := range t.Pots {
		potSum += p.Amount
	}
	if potSum != committed {
		return fmt.Errorf("pot total %d does not match hand commitments %d", potSum, committed)
	}
	if stacks+committed != t.handTotal {
		return fmt.Errorf("chips on table %d do not match hand start total %d", stacks+committed, t.handTotal)
	}
	return nil
}

// forceWaiting aborts the current hand after an invariant violation. Hand
// commitments are refunded so no chips are lost.
func (t *Table) forceWaiting() {
	for i := range t.Seats {
		s := &t.Seats[i]
		if s.Occupied() {
			s.Chips += s.HandCommitted
		}
	}
	t.Pots = nil
	t.pendingStreet = PhaseWaiting
	t.finishHand()
}
