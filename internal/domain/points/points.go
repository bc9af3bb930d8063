// Package points maps action types to point values. The table is static
// configuration fed at construction, never runtime-mutable by users.
package points

// Well-known action types emitted by collaborators.
const (
	ActionCreateContent     = "create_content"
	ActionPublishContent    = "publish_content"
	ActionContentLiked      = "content_liked"
	ActionContentBookmarked = "content_bookmarked"
	ActionCreateDiscussion  = "create_discussion"
	ActionReplyDiscussion   = "reply_discussion"
	ActionBestAnswer        = "best_answer"
	ActionCompleteLesson    = "complete_lesson"
	ActionCompletePath      = "complete_path"
	ActionPassAssessment    = "pass_assessment"
	ActionDailyLogin        = "daily_login"
)

// Table maps an action type to its point delta.
type Table struct {
	values map[string]int64
}

// Default returns the stock point-value table.
func Default() Table {
	return Table{values: map[string]int64{
		ActionCreateContent:     10,
		ActionPublishContent:    50,
		ActionContentLiked:      2,
		ActionContentBookmarked: 3,
		ActionCreateDiscussion:  5,
		ActionReplyDiscussion:   3,
		ActionBestAnswer:        25,
		ActionCompleteLesson:    10,
		ActionCompletePath:      100,
		ActionPassAssessment:    20,
		ActionDailyLogin:        1,
	}}
}

// New builds a table from the defaults with the given overrides applied.
// Overrides may introduce new action types.
func New(overrides map[string]int64) Table {
	t := Default()
	for action, value := range overrides {
		t.values[action] = value
	}
	return t
}

// Value returns the point delta for an action type.
func (t Table) Value(action string) (int64, bool) {
	v, ok := t.values[action]
	return v, ok
}
