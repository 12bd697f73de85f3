package arena

import "fmt"

// Team is one of the two sides of a match.
type Team int

const (
	TeamRed Team = iota
	TeamBlue
)

func (t Team) String() string {
	if t == TeamBlue {
		return "blue"
	}
	return "red"
}

// Enemy returns the opposing team.
func (t Team) Enemy() Team {
	if t == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

// TeamForIndex alternates teams by spawn index: even red, odd blue.
func TeamForIndex(i int) Team {
	if i%2 == 0 {
		return TeamRed
	}
	return TeamBlue
}

// BugSort is the species of a bug. It decides physical parameters
// and combat bonuses.
type BugSort int

const (
	SortBeetle BugSort = iota
	SortLadybug
	SortAnt
)

func (s BugSort) String() string {
	switch s {
	case SortLadybug:
		return "ladybug"
	case SortAnt:
		return "ant"
	default:
		return "beetle"
	}
}

// ParseBugSort parses a sort name as used in data files.
func ParseBugSort(name string) (BugSort, error) {
	switch name {
	case "beetle":
		return SortBeetle, nil
	case "ladybug":
		return SortLadybug, nil
	case "ant":
		return SortAnt, nil
	}
	return SortBeetle, fmt.Errorf("unknown bug sort %q", name)
}

// SortParams holds the per-sort stats used by physics and combat.
type SortParams struct {
	Mass        float64
	Restitution float64
	MaxHealth   int
	BonusDamage int // extra damage dealt by the faster bug in an impact
}

// SortTable maps every sort to its stats.
type SortTable map[BugSort]SortParams

// DefaultSorts returns the built-in stat table. Data files may override it.
func DefaultSorts() SortTable {
	return SortTable{
		SortBeetle:  {Mass: 1.0, Restitution: 0.7, MaxHealth: 5},
		SortLadybug: {Mass: 0.9, Restitution: 0.75, MaxHealth: 4},
		SortAnt:     {Mass: 0.6, Restitution: 0.95, MaxHealth: 3, BonusDamage: 1},
	}
}
