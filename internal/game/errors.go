package game

import "errors"

// Sentinel errors returned from event dispatch. The bridge maps these onto
// wire error codes; everything else surfaces as a generic command failure.
var (
	ErrIllegalAction    = errors.New("illegal action")
	ErrIllegalAmount    = errors.New("illegal amount")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrSeatOutOfRange   = errors.New("seat out of range")
	ErrSeatTaken        = errors.New("seat taken")
	ErrAlreadySeated    = errors.New("player already seated")
	ErrNotSeated        = errors.New("player not seated")
	ErrInvalidBuyIn     = errors.New("invalid buy-in")
	ErrHandInProgress   = errors.New("hand in progress")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrEngineClosed     = errors.New("engine closed")
)

// errStaleTrigger marks a timer event that arrived after the state it was
// armed for has already moved on. Callers drop it without logging.
var errStaleTrigger = errors.New("stale timer trigger")
