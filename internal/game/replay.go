package game

import (
	"errors"
	"fmt"
)

// Replay applies the input entries of an event log to a table, regenerating
// every derived event along the way. Street deals that were timer-driven in
// the live game are advanced inline just before the first event that depends
// on them. Replaying a finished hand's log against the pre-hand state yields
// the identical final state because the deck is reshuffled from the seed in
// the start_hand entry.
func Replay(t *Table, entries []LogEntry) error {
	for _, le := range entries {
		if le.Derived {
			continue
		}
		for t.pendingStreet != PhaseWaiting {
			t.dealNextStreet()
		}
		if err := t.Apply(le.Event); err != nil {
			if errors.Is(err, errStaleTrigger) {
				continue
			}
			return fmt.Errorf("replay seq %d (%s): %w", le.Seq, le.Event.EventType(), err)
		}
	}
	for t.pendingStreet != PhaseWaiting {
		t.dealNextStreet()
	}
	return nil
}
