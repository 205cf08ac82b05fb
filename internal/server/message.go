package server

import (
	"encoding/json"
	"time"
)

// MessageType tags a frame on the wire. Commands flow client to server,
// events flow server to client; both share the same envelope.
type MessageType string

const (
	// client → server commands
	MessageTypeListTables  MessageType = "LIST_TABLES"
	MessageTypeJoinTable   MessageType = "JOIN_TABLE"
	MessageTypeCreateTable MessageType = "CREATE_TABLE"
	MessageTypeSit         MessageType = "SIT"
	MessageTypeLeave       MessageType = "LEAVE"
	MessageTypeSitOut      MessageType = "SIT_OUT"
	MessageTypeSitIn       MessageType = "SIT_IN"
	MessageTypeAction      MessageType = "ACTION"
	MessageTypeAttach      MessageType = "ATTACH"
	MessageTypeReattach    MessageType = "REATTACH"

	// server → client events
	MessageTypeSession            MessageType = "SESSION"
	MessageTypeTableList          MessageType = "TABLE_LIST"
	MessageTypeTableCreated       MessageType = "TABLE_CREATED"
	MessageTypeTableSnapshot      MessageType = "TABLE_SNAPSHOT"
	MessageTypeHandStart          MessageType = "HAND_START"
	MessageTypeDealFlop           MessageType = "DEAL_FLOP"
	MessageTypeDealTurn           MessageType = "DEAL_TURN"
	MessageTypeDealRiver          MessageType = "DEAL_RIVER"
	MessageTypeHandEnd            MessageType = "HAND_END"
	MessageTypeWinnerAnnouncement MessageType = "WINNER_ANNOUNCEMENT"
	MessageTypeCountdownStart     MessageType = "COUNTDOWN_START"
	MessageTypeTimer              MessageType = "TIMER"
	MessageTypePlayerWaiting      MessageType = "PLAYER_WAITING"
	MessageTypePlayerDisconnected MessageType = "PLAYER_DISCONNECTED"
	MessageTypeError              MessageType = "ERROR"
)

// String returns the string representation of the message type.
func (mt MessageType) String() string {
	return string(mt)
}

// Wire error codes carried by ERROR events.
const (
	ErrCodeUnknownCommand = "UNKNOWN_COMMAND"
	ErrCodeCommandFailed  = "COMMAND_FAILED"
	ErrCodeTableNotFound  = "TABLE_NOT_FOUND"
	ErrCodeBadMessage     = "BAD_MESSAGE"
	ErrCodeIllegalAction  = "ILLEGAL_ACTION"
	ErrCodeIllegalAmount  = "ILLEGAL_AMOUNT"
)

// Message is the newline-free JSON envelope every frame travels in.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a message with the current timestamp.
func NewMessage(messageType MessageType, data any) (*Message, error) {
	var dataBytes json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		dataBytes = b
	}
	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// mustMessage is for payloads built from our own types, which always marshal.
func mustMessage(messageType MessageType, data any) *Message {
	msg, err := NewMessage(messageType, data)
	if err != nil {
		panic("server: marshal " + string(messageType) + ": " + err.Error())
	}
	return msg
}

// Client → Server payloads

type JoinTableData struct {
	TableID string `json:"tableId"`
}

type CreateTableData struct {
	Name string `json:"name"`
}

type SitData struct {
	TableID  string `json:"tableId"`
	Seat     int    `json:"seat"`
	Chips    int    `json:"chips,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
	Nickname string `json:"nickname,omitempty"`
}

type ActionData struct {
	Action string `json:"action"`
	Amount int    `json:"amount,omitempty"`
}

type AttachData struct {
	UserID string `json:"userId"`
}

type ReattachData struct {
	SessionID string `json:"sessionId"`
}

// Server → Client payloads

type SessionData struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId,omitempty"`
}

// Blinds is the forced-bet sizing of a table.
type Blinds struct {
	Small int `json:"small"`
	Big   int `json:"big"`
}

// BuyInRange bounds what a player may sit down with.
type BuyInRange struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Default int `json:"default"`
}

// LobbyTable is the directory listing entry for one table.
type LobbyTable struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Blinds     Blinds     `json:"blinds"`
	BuyIn      BuyInRange `json:"buyInRange"`
	StakeLevel string     `json:"stakeLevel"`
	Seated     int        `json:"seated"`
	Phase      string     `json:"phase"`
}

type TableListData struct {
	Tables []LobbyTable `json:"tables"`
}

type TableCreatedData struct {
	Table LobbyTable `json:"table"`
}

type HandStartData struct {
	TableID    string `json:"tableId"`
	HandNumber uint64 `json:"handNumber"`
}

type DealFlopData struct {
	Cards []int `json:"cards"`
}

type DealTurnData struct {
	Card int `json:"card"`
}

type DealRiverData struct {
	Card int `json:"card"`
}

type HandEndData struct {
	TableID    string `json:"tableId"`
	HandNumber uint64 `json:"handNumber"`
}

// Winner is one seat in a WINNER_ANNOUNCEMENT.
type Winner struct {
	Seat     int    `json:"seat"`
	PlayerID string `json:"playerId"`
	Amount   int    `json:"amount"`
}

type WinnerAnnouncementData struct {
	Winners   []Winner `json:"winners"`
	PotAmount int      `json:"potAmount"`
}

type CountdownStartData struct {
	CountdownType string         `json:"countdownType"`
	StartTime     time.Time      `json:"startTime"`
	DurationMs    int64          `json:"durationMs"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

type TimerData struct {
	Countdown int `json:"countdown"`
}

type PlayerWaitingData struct {
	Seat     int    `json:"seat"`
	PlayerID string `json:"playerId"`
}

type PlayerDisconnectedData struct {
	TableID  string `json:"tableId"`
	Seat     int    `json:"seat"`
	PlayerID string `json:"playerId"`
}

type ErrorData struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
