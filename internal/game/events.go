package game

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType identifies an event variant in the table log.
type EventType string

const (
	EventPlayerJoin     EventType = "player_join"
	EventPlayerLeave    EventType = "player_leave"
	EventPlayerSitOut   EventType = "player_sit_out"
	EventPlayerSitIn    EventType = "player_sit_in"
	EventStartHand      EventType = "start_hand"
	EventPlayerAction   EventType = "player_action"
	EventActionTimeout  EventType = "action_timeout"
	EventPostBlind      EventType = "post_blind"
	EventDealHole       EventType = "deal_hole"
	EventEnterStreet    EventType = "enter_street"
	EventShowdown       EventType = "showdown"
	EventPayout         EventType = "payout"
	EventHandEnd        EventType = "hand_end"
	EventCountdownStart EventType = "countdown_start"
	EventPlayerWaiting  EventType = "player_waiting"

	// engine-internal trigger, never logged or serialized
	eventAdvanceStreet EventType = "advance_street"
)

// String returns the string representation of the event type.
func (et EventType) String() string {
	return string(et)
}

// Event is a tagged variant applied to table state. Input events arrive from
// clients and timers and are the only events a replay needs; derived events
// are produced while an input is applied and are regenerated by replaying it.
type Event interface {
	EventType() EventType
}

// PlayerJoin seats a player with a buy-in.
type PlayerJoin struct {
	Seat     int    `json:"seat"`
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname,omitempty"`
	Chips    int    `json:"chips"`
}

func (PlayerJoin) EventType() EventType { return EventPlayerJoin }

// PlayerLeave vacates a player's seat. Mid-hand the seat is folded out first
// and any committed chips stay in the pot.
type PlayerLeave struct {
	PlayerID string `json:"playerId"`
}

func (PlayerLeave) EventType() EventType { return EventPlayerLeave }

// PlayerSitOut takes a seat out of upcoming hands. Mid-hand it folds the seat.
type PlayerSitOut struct {
	PlayerID string `json:"playerId"`
}

func (PlayerSitOut) EventType() EventType { return EventPlayerSitOut }

// PlayerSitIn returns a sitting-out seat to play.
type PlayerSitIn struct {
	PlayerID string `json:"playerId"`
}

func (PlayerSitIn) EventType() EventType { return EventPlayerSitIn }

// StartHand begins a new hand. The seed fixes the deck shuffle so a replay
// deals the same cards.
type StartHand struct {
	Seed int64 `json:"seed"`
}

func (StartHand) EventType() EventType { return EventStartHand }

// PlayerAction is a betting action from the seat whose turn it is. Amount is
// the total street commitment for bet and raise, and ignored otherwise.
type PlayerAction struct {
	PlayerID string     `json:"playerId"`
	Action   ActionKind `json:"action"`
	Amount   int        `json:"amount,omitempty"`
}

func (PlayerAction) EventType() EventType { return EventPlayerAction }

// ActionTimeout reports that the actor's clock ran out. It carries the hand
// and seat it was armed for so a late firing can be recognized and dropped.
type ActionTimeout struct {
	HandNumber uint64 `json:"handNumber"`
	Seat       int    `json:"seat"`
}

func (ActionTimeout) EventType() EventType { return EventActionTimeout }

// PostBlind records a forced blind post.
type PostBlind struct {
	Seat     int    `json:"seat"`
	PlayerID string `json:"playerId"`
	Blind    string `json:"blind"` // "small" or "big"
	Amount   int    `json:"amount"`
	AllIn    bool   `json:"allIn,omitempty"`
}

func (PostBlind) EventType() EventType { return EventPostBlind }

// DealHole records the hole cards dealt to one seat. Log-only: hole cards are
// never broadcast, viewers get their own via sanitized snapshots.
type DealHole struct {
	Seat     int    `json:"seat"`
	PlayerID string `json:"playerId"`
	Cards    []int  `json:"cards"`
}

func (DealHole) EventType() EventType { return EventDealHole }

// EnterStreet records community cards dealt for a new street.
type EnterStreet struct {
	Street Phase `json:"street"`
	Cards  []int `json:"cards"`
}

func (EnterStreet) EventType() EventType { return EventEnterStreet }

// Reveal is one seat's cards shown at showdown.
type Reveal struct {
	Seat     int    `json:"seat"`
	PlayerID string `json:"playerId"`
	Cards    []int  `json:"cards"`
	HandRank string `json:"handRank"`
}

// Showdown records the reveal of every hand still contesting the pot.
type Showdown struct {
	Reveals []Reveal `json:"reveals"`
}

func (Showdown) EventType() EventType { return EventShowdown }

// Distribution is one slice of one pot paid to one seat.
type Distribution struct {
	Seat     int    `json:"seat"`
	PlayerID string `json:"playerId"`
	Amount   int    `json:"amount"`
	PotIndex int    `json:"potIndex"`
	Reason   string `json:"reason"` // "showdown", "uncontested" or "uncalled"
}

// Payout records how the pots were awarded, including any rake taken.
type Payout struct {
	Distributions []Distribution `json:"distributions"`
	Rake          int            `json:"rake,omitempty"`
}

func (Payout) EventType() EventType { return EventPayout }

// HandEnd closes a hand and returns the table to waiting.
type HandEnd struct {
	HandNumber uint64 `json:"handNumber"`
}

func (HandEnd) EventType() EventType { return EventHandEnd }

// CountdownKind names the timer a CountdownStart announces.
type CountdownKind string

const (
	CountdownAction     CountdownKind = "action"
	CountdownStreetDeal CountdownKind = "streetDeal"
	CountdownNewHand    CountdownKind = "newHand"
	CountdownReconnect  CountdownKind = "reconnect"
)

// CountdownStart announces an armed timer so clients can render a countdown
// against the server's clock. It does not mutate table state.
type CountdownStart struct {
	Kind       CountdownKind  `json:"countdownType"`
	StartTime  time.Time      `json:"startTime"`
	DurationMs int64          `json:"durationMs"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func (CountdownStart) EventType() EventType { return EventCountdownStart }

// PlayerWaiting marks a seat that joined mid-hand and will be dealt in next.
type PlayerWaiting struct {
	Seat     int    `json:"seat"`
	PlayerID string `json:"playerId"`
}

func (PlayerWaiting) EventType() EventType { return EventPlayerWaiting }

// advanceStreet is the internal trigger fired by the street-deal timer. It is
// applied through the same loop as everything else but never logged; the
// enter_street entry it produces is the durable record.
type advanceStreet struct {
	HandNumber uint64
	Street     Phase
}

func (advanceStreet) EventType() EventType { return eventAdvanceStreet }

// LogEntry is one committed event in a table's append-only log. Derived
// entries are skipped on replay because applying the inputs regenerates them.
type LogEntry struct {
	Seq     uint64
	At      time.Time
	Derived bool
	Event   Event
}

type logEntryJSON struct {
	Seq     uint64          `json:"seq"`
	At      time.Time       `json:"at"`
	Derived bool            `json:"derived,omitempty"`
	Type    EventType       `json:"type"`
	Data    json.RawMessage `json:"data"`
}

// MarshalJSON encodes the entry as a {type, data} envelope.
func (le LogEntry) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(le.Event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(logEntryJSON{
		Seq:     le.Seq,
		At:      le.At,
		Derived: le.Derived,
		Type:    le.Event.EventType(),
		Data:    data,
	})
}

// UnmarshalJSON decodes the envelope and the concrete event it carries.
func (le *LogEntry) UnmarshalJSON(b []byte) error {
	var raw logEntryJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	ev, err := decodeEvent(raw.Type, raw.Data)
	if err != nil {
		return err
	}
	le.Seq = raw.Seq
	le.At = raw.At
	le.Derived = raw.Derived
	le.Event = ev
	return nil
}

func decodeEvent(t EventType, data json.RawMessage) (Event, error) {
	switch t {
	case EventPlayerJoin:
		var e PlayerJoin
		return e, json.Unmarshal(data, &e)
	case EventPlayerLeave:
		var e PlayerLeave
		return e, json.Unmarshal(data, &e)
	case EventPlayerSitOut:
		var e PlayerSitOut
		return e, json.Unmarshal(data, &e)
	case EventPlayerSitIn:
		var e PlayerSitIn
		return e, json.Unmarshal(data, &e)
	case EventStartHand:
		var e StartHand
		return e, json.Unmarshal(data, &e)
	case EventPlayerAction:
		var e PlayerAction
		return e, json.Unmarshal(data, &e)
	case EventActionTimeout:
		var e ActionTimeout
		return e, json.Unmarshal(data, &e)
	case EventPostBlind:
		var e PostBlind
		return e, json.Unmarshal(data, &e)
	case EventDealHole:
		var e DealHole
		return e, json.Unmarshal(data, &e)
	case EventEnterStreet:
		var e EnterStreet
		return e, json.Unmarshal(data, &e)
	case EventShowdown:
		var e Showdown
		return e, json.Unmarshal(data, &e)
	case EventPayout:
		var e Payout
		return e, json.Unmarshal(data, &e)
	case EventHandEnd:
		var e HandEnd
		return e, json.Unmarshal(data, &e)
	case EventCountdownStart:
		var e CountdownStart
		return e, json.Unmarshal(data, &e)
	case EventPlayerWaiting:
		var e PlayerWaiting
		return e, json.Unmarshal(data, &e)
	default:
		return nil, fmt.Errorf("unknown event type %q", t)
	}
}
