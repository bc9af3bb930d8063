package cache

import "fmt"

// All engine keys live under the rep: prefix so pattern invalidation cannot
// touch foreign keys in a shared Redis.
const keyPrefix = "rep"

// UserSummaryKey caches the computed summary view for a user.
func UserSummaryKey(userID string) string {
	return fmt.Sprintf("%s:user:%s:summary", keyPrefix, userID)
}

// UserBreakdownKey caches the per-action breakdown for a user.
func UserBreakdownKey(userID string) string {
	return fmt.Sprintf("%s:user:%s:breakdown", keyPrefix, userID)
}

// UserBadgesKey caches a user's badge grants.
func UserBadgesKey(userID string) string {
	return fmt.Sprintf("%s:user:%s:badges", keyPrefix, userID)
}

// CatalogKey caches the badge catalog.
func CatalogKey() string {
	return keyPrefix + ":badges:catalog"
}

// LeaderboardKey caches one leaderboard page.
func LeaderboardKey(timeframe string, limit int) string {
	return fmt.Sprintf("%s:lb:%s:%d", keyPrefix, timeframe, limit)
}

// LeaderboardPattern matches every cached page of a timeframe.
func LeaderboardPattern(timeframe string) string {
	return fmt.Sprintf("%s:lb:%s:*", keyPrefix, timeframe)
}
