package server

import "github.com/lox/holdemd/internal/game"

// TableSpec is one directory entry: the static parameters a table is created
// with. Buy-in bounds default to 20 and 200 big blinds with a 100bb default.
type TableSpec struct {
	ID           string
	Name         string
	SmallBlind   int
	BigBlind     int
	MinBuyIn     int
	MaxBuyIn     int
	DefaultBuyIn int
	StakeLevel   string
	RakeBps      int
	RakeCap      int
}

// withDefaults fills in the derived fields the spec left zero.
func (s TableSpec) withDefaults() TableSpec {
	if s.Name == "" {
		s.Name = s.ID
	}
	if s.MinBuyIn == 0 {
		s.MinBuyIn = 20 * s.BigBlind
	}
	if s.MaxBuyIn == 0 {
		s.MaxBuyIn = 200 * s.BigBlind
	}
	if s.DefaultBuyIn == 0 {
		s.DefaultBuyIn = 100 * s.BigBlind
	}
	if s.StakeLevel == "" {
		s.StakeLevel = stakeLevelFor(s.BigBlind)
	}
	return s
}

// TableConfig converts the directory entry into engine table parameters.
func (s TableSpec) TableConfig() game.TableConfig {
	return game.TableConfig{
		ID:         s.ID,
		Name:       s.Name,
		SmallBlind: s.SmallBlind,
		BigBlind:   s.BigBlind,
		MinBuyIn:   s.MinBuyIn,
		MaxBuyIn:   s.MaxBuyIn,
		RakeBps:    s.RakeBps,
		RakeCap:    s.RakeCap,
	}
}

func stakeLevelFor(bigBlind int) string {
	switch {
	case bigBlind <= 10:
		return "micro"
	case bigBlind <= 50:
		return "low"
	case bigBlind <= 200:
		return "mid"
	default:
		return "high"
	}
}

// BuiltinDirectory is the catalog used when no table blocks are configured.
// Engines for these tables are pre-created at server startup.
func BuiltinDirectory() []TableSpec {
	specs := []TableSpec{
		{ID: "micro-1", Name: "Micro Stakes I", SmallBlind: 1, BigBlind: 2},
		{ID: "micro-2", Name: "Micro Stakes II", SmallBlind: 2, BigBlind: 5},
		{ID: "low-1", Name: "Low Stakes I", SmallBlind: 5, BigBlind: 10},
		{ID: "low-2", Name: "Low Stakes II", SmallBlind: 10, BigBlind: 25},
		{ID: "mid-1", Name: "Mid Stakes", SmallBlind: 25, BigBlind: 50},
		{ID: "high-1", Name: "High Stakes", SmallBlind: 100, BigBlind: 200},
	}
	for i := range specs {
		specs[i] = specs[i].withDefaults()
	}
	return specs
}
