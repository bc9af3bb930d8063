// Package level resolves an aggregate score to a reputation tier. Resolution
// is a pure lookup over an ordered threshold table.
package level

// Level is the resolved tier for a score.
type Level struct {
	Number   int    `json:"level"`
	Label    string `json:"label"`
	MinScore int64  `json:"min_score"`

	// NextMin is the threshold of the next tier, nil at the top.
	NextMin *int64 `json:"next_min,omitempty"`
}

// Tier is one row of the threshold table.
type Tier struct {
	MinScore int64
	Label    string
}

// Table is an ordered list of tiers, monotonically increasing in MinScore.
type Table struct {
	tiers []Tier
}

// NewTable validates and builds a threshold table. Thresholds must be
// strictly increasing and the table non-empty.
func NewTable(tiers []Tier) (Table, error) {
	if len(tiers) == 0 {
		return Table{}, ErrEmptyTable
	}
	for i := 1; i < len(tiers); i++ {
		if tiers[i].MinScore <= tiers[i-1].MinScore {
			return Table{}, ErrUnorderedTable
		}
	}
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return Table{tiers: out}, nil
}

// Default returns the seven-tier table used when no overrides are configured.
func Default() Table {
	t, _ := NewTable([]Tier{
		{MinScore: 0, Label: "Newcomer"},
		{MinScore: 100, Label: "Contributor"},
		{MinScore: 500, Label: "Regular"},
		{MinScore: 1500, Label: "Expert"},
		{MinScore: 5000, Label: "Veteran"},
		{MinScore: 15000, Label: "Master"},
		{MinScore: 50000, Label: "Legend"},
	})
	return t
}

// Resolve returns the highest tier whose minimum score is at most score.
// Scores below the first threshold resolve to the first tier.
func (t Table) Resolve(score int64) Level {
	idx := 0
	for i, tier := range t.tiers {
		if score >= tier.MinScore {
			idx = i
		} else {
			break
		}
	}

	lvl := Level{
		Number:   idx + 1,
		Label:    t.tiers[idx].Label,
		MinScore: t.tiers[idx].MinScore,
	}
	if idx+1 < len(t.tiers) {
		next := t.tiers[idx+1].MinScore
		lvl.NextMin = &next
	}
	return lvl
}

// Size returns the number of tiers.
func (t Table) Size() int { return len(t.tiers) }
