// Package game implements the authoritative per-table hold'em engine.
//
// A Table is a plain state machine: input events (joins, actions, timeouts)
// are validated and applied one at a time, each append-only committed to the
// table's event log together with whatever the engine derived from it (blind
// posts, street deals, payouts). The Engine wraps a Table in a single-writer
// loop so concurrent dispatchers are serialized, and owns the table's timers:
// action timeouts, street-deal pauses, and the delay before the next hand.
//
// Replaying the input events of a log against a table restored from the
// pre-hand snapshot reproduces the exact same state; the deck is reshuffled
// from the seed recorded in the hand's start_hand event.
package game
