// Package criteria models badge qualification rules as a closed set of
// predicate shapes so invalid rules are rejected at load time.
package criteria

// Kind tags the predicate shape of a badge rule.
type Kind string

const (
	// KindReputation qualifies users whose aggregate score reaches a minimum.
	KindReputation Kind = "reputation"
	// KindActionCount qualifies users who performed an action a minimum
	// number of times.
	KindActionCount Kind = "action_count"
)

// Criteria is a badge qualification predicate. Exactly one shape applies,
// selected by Kind.
type Criteria struct {
	Kind Kind `json:"kind"`

	// MinScore applies when Kind is KindReputation.
	MinScore int64 `json:"min_score,omitempty"`

	// Action and MinCount apply when Kind is KindActionCount.
	Action   string `json:"action,omitempty"`
	MinCount int64  `json:"min_count,omitempty"`
}

// Snapshot carries the qualifying statistics a predicate is evaluated against.
type Snapshot struct {
	Score  int64
	Counts map[string]int64
}

// Parse validates a raw rule into a Criteria. Unknown kinds, non-positive
// values, and count rules without an action are load-time errors.
func Parse(kind string, value int64, action string) (Criteria, error) {
	switch Kind(kind) {
	case KindReputation:
		if value <= 0 {
			return Criteria{}, ErrInvalidCriteria
		}
		return Criteria{Kind: KindReputation, MinScore: value}, nil
	case KindActionCount:
		if value <= 0 || action == "" {
			return Criteria{}, ErrInvalidCriteria
		}
		return Criteria{Kind: KindActionCount, Action: action, MinCount: value}, nil
	default:
		return Criteria{}, ErrUnknownKind
	}
}

// Reputation builds a score-threshold rule.
func Reputation(minScore int64) Criteria {
	return Criteria{Kind: KindReputation, MinScore: minScore}
}

// ActionCount builds an action-count rule.
func ActionCount(action string, minCount int64) Criteria {
	return Criteria{Kind: KindActionCount, Action: action, MinCount: minCount}
}

// Met reports whether the snapshot satisfies the predicate. Unknown kinds
// never qualify.
func (c Criteria) Met(s Snapshot) bool {
	switch c.Kind {
	case KindReputation:
		return s.Score >= c.MinScore
	case KindActionCount:
		return s.Counts[c.Action] >= c.MinCount
	default:
		return false
	}
}

// Progress reports how far the snapshot is toward the predicate target,
// used as the grant's progress indicator.
func (c Criteria) Progress(s Snapshot) int64 {
	switch c.Kind {
	case KindReputation:
		return s.Score
	case KindActionCount:
		return s.Counts[c.Action]
	default:
		return 0
	}
}
