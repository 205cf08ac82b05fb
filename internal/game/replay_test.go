package game

import (
	"reflect"
	"testing"
)

func TestReplayReproducesFinishedHand(t *testing.T) {
	cfg := TableConfig{ID: "replay", SmallBlind: 5, BigBlind: 10}
	live := NewTable(cfg)
	join(t, live, 0, "alice", 100)
	join(t, live, 1, "bob", 100)
	join(t, live, 2, "cara", 100)
	step(t, live, StartHand{Seed: 7})

	// limp and check down so the play is independent of the cards dealt
	act(t, live, "alice", ActionCall, 0)
	act(t, live, "bob", ActionCall, 0)
	act(t, live, "cara", ActionCheck, 0)
	for live.Phase.Betting() {
		act(t, live, "bob", ActionCheck, 0)
		act(t, live, "cara", ActionCheck, 0)
		act(t, live, "alice", ActionCheck, 0)
	}
	if live.Phase != PhaseWaiting {
		t.Fatalf("phase = %s, want waiting", live.Phase)
	}

	replayed := NewTable(cfg)
	if err := Replay(replayed, live.Log); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if got, want := replayed.Snapshot(), live.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("replayed snapshot differs:\n got %+v\nwant %+v", got, want)
	}
	if got, want := len(replayed.Log), len(live.Log); got != want {
		t.Errorf("replayed log has %d entries, want %d", got, want)
	}
}

func TestReplayReproducesMidHandState(t *testing.T) {
	cfg := TableConfig{ID: "replay", SmallBlind: 5, BigBlind: 10}
	live := NewTable(cfg)
	join(t, live, 0, "alice", 100)
	join(t, live, 1, "bob", 100)
	step(t, live, StartHand{Seed: 11})
	act(t, live, "alice", ActionCall, 0)
	act(t, live, "bob", ActionCheck, 0)
	act(t, live, "bob", ActionBet, 20)

	replayed := NewTable(cfg)
	if err := Replay(replayed, live.Log); err != nil {
		t.Fatalf("replay: %v", err)
	}

	got, want := replayed.Snapshot(), live.Snapshot()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("mid-hand snapshot differs:\n got %+v\nwant %+v", got, want)
	}
	// the seeded deck must have dealt identical cards
	for i := range live.Seats {
		if !reflect.DeepEqual(live.Seats[i].HoleCards, replayed.Seats[i].HoleCards) {
			t.Errorf("seat %d hole cards differ after replay", i)
		}
	}
}

func TestReplayHandlesTimeouts(t *testing.T) {
	cfg := TableConfig{ID: "replay", SmallBlind: 5, BigBlind: 10}
	live := NewTable(cfg)
	join(t, live, 0, "alice", 100)
	join(t, live, 1, "bob", 100)
	step(t, live, StartHand{Seed: 13})
	act(t, live, "alice", ActionCall, 0)
	step(t, live, ActionTimeout{HandNumber: live.HandNumber, Seat: 1})

	replayed := NewTable(cfg)
	if err := Replay(replayed, live.Log); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !reflect.DeepEqual(replayed.Snapshot(), live.Snapshot()) {
		t.Error("snapshot differs after replaying a timeout")
	}
}
