package game

import (
	"sort"

	"github.com/lox/holdemd/poker"
)

// Pot is one layer of the pot. Seats all-in for less than the table's largest
// commitment are only eligible for the layers they reached.
type Pot struct {
	Amount   int   `json:"amount"`
	Eligible []int `json:"eligibleSeats"`
}

// rebuildPots derives the pot layers from every seat's hand commitment. One
// layer is cut at each distinct commitment level among seats still contesting;
// folded money lands in the layer it reached. Anything above the top
// contender level, an uncalled bet or dead money from a folded seat, joins
// the top layer so the total always matches the chips committed.
func (t *Table) rebuildPots() {
	var levels []int
	total := 0
	for i := range t.Seats {
		s := &t.Seats[i]
		total += s.HandCommitted
		if s.InHand() && s.HandCommitted > 0 {
			levels = append(levels, s.HandCommitted)
		}
	}
	if len(levels) == 0 {
		t.Pots = nil
		return
	}

	sort.Ints(levels)
	distinct := levels[:1]
	for _, l := range levels[1:] {
		if l != distinct[len(distinct)-1] {
			distinct = append(distinct, l)
		}
	}

	pots := make([]Pot, 0, len(distinct))
	assigned := 0
	for _, level := range distinct {
		amount := -assigned
		var eligible []int
		for i := range t.Seats {
			s := &t.Seats[i]
			amount += min(s.HandCommitted, level)
			if s.InHand() && s.HandCommitted >= level {
				eligible = append(eligible, i)
			}
		}
		if amount <= 0 {
			continue
		}
		pots = append(pots, Pot{Amount: amount, Eligible: eligible})
		assigned += amount
	}
	if leftover := total - assigned; leftover > 0 && len(pots) > 0 {
		pots[len(pots)-1].Amount += leftover
	}
	t.Pots = pots
}

// distribute computes the payout for every pot. Contested pots go to the best
// hand among the eligible seats, ties split with odd chips to the earliest
// seat clockwise from the button. A single-eligible pot is either the whole
// pot won uncontested or the uncalled tail of a bet handed back.
func (t *Table) distribute(contenders []int) ([]Distribution, int) {
	var dists []Distribution
	totalRake := 0
	rakeable := t.RakeBps > 0 && len(t.Community) >= 3 // no flop, no drop

	for pi, pot := range t.Pots {
		if pot.Amount == 0 || len(pot.Eligible) == 0 {
			continue
		}

		if len(pot.Eligible) == 1 {
			idx := pot.Eligible[0]
			reason := "uncalled"
			if len(contenders) <= 1 {
				reason = "uncontested"
			}
			dists = append(dists, Distribution{
				Seat:     idx,
				PlayerID: t.Seats[idx].PlayerID,
				Amount:   pot.Amount,
				PotIndex: pi,
				Reason:   reason,
			})
			continue
		}

		amount := pot.Amount
		if rakeable {
			rake := amount * t.RakeBps / 10000
			if t.RakeCap > 0 && totalRake+rake > t.RakeCap {
				rake = t.RakeCap - totalRake
			}
			amount -= rake
			totalRake += rake
		}

		winners := clockwiseFrom(t.Button+1, t.bestAmong(pot.Eligible))
		share := amount / len(winners)
		odd := amount % len(winners)
		for wi, idx := range winners {
			amt := share
			if wi < odd {
				amt++
			}
			dists = append(dists, Distribution{
				Seat:     idx,
				PlayerID: t.Seats[idx].PlayerID,
				Amount:   amt,
				PotIndex: pi,
				Reason:   "showdown",
			})
		}
	}
	return dists, totalRake
}

// bestAmong returns the seats holding the strongest hand.
func (t *Table) bestAmong(eligible []int) []int {
	board := poker.NewHand(t.Community...)
	var best poker.HandRank
	var winners []int
	for _, i := range eligible {
		seat := &t.Seats[i]
		rank := poker.Evaluate7Cards(poker.NewHand(seat.HoleCards...) | board)
		if len(winners) == 0 {
			best = rank
			winners = []int{i}
			continue
		}
		switch poker.CompareHands(rank, best) {
		case 1:
			best = rank
			winners = []int{i}
		case 0:
			winners = append(winners, i)
		}
	}
	return winners
}
