package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/lorehub/reputation/internal/domain/model"
)

func entry(userID, action string, points int64, at time.Time) model.LedgerEntry {
	return model.LedgerEntry{
		ID:         fmt.Sprintf("%s-%s-%d", userID, action, at.UnixNano()),
		UserID:     userID,
		ActionType: action,
		Points:     points,
		CreatedAt:  at,
	}
}

func TestAppendEntry(t *testing.T) {
	Convey("Given an empty store", t, func() {
		store := NewMemStore()
		ctx := context.Background()
		now := time.Now()

		Convey("When appending entries for a user", func() {
			s1, err1 := store.AppendEntry(ctx, entry("u1", "create_discussion", 5, now))
			s2, err2 := store.AppendEntry(ctx, entry("u1", "best_answer", 25, now.Add(time.Second)))

			Convey("Then the running score tracks each append", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(s1, ShouldEqual, 5)
				So(s2, ShouldEqual, 30)
			})

			Convey("And the score equals the sum of all entries", func() {
				score, err := store.Score(ctx, "u1")
				So(err, ShouldBeNil)

				entries, err := store.Entries(ctx, "u1", 100, 0)
				So(err, ShouldBeNil)

				var sum int64
				for _, e := range entries {
					sum += e.Points
				}
				So(score, ShouldEqual, sum)
			})
		})

		Convey("When appending without a user id", func() {
			_, err := store.AppendEntry(ctx, model.LedgerEntry{ActionType: "x", Points: 1})

			Convey("Then it should be rejected", func() {
				So(err, ShouldEqual, ErrEmptyUserID)
			})
		})
	})
}

func TestConcurrentAppends(t *testing.T) {
	Convey("Given concurrent awards against one user", t, func() {
		store := NewMemStore()
		ctx := context.Background()

		const workers = 50
		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func(i int) {
				defer wg.Done()
				e := entry("u1", "content_liked", 2, time.Now())
				e.ID = fmt.Sprintf("e-%d", i)
				_, _ = store.AppendEntry(ctx, e)
			}(i)
		}
		wg.Wait()

		Convey("Then no increment is lost", func() {
			score, err := store.Score(ctx, "u1")
			So(err, ShouldBeNil)
			So(score, ShouldEqual, int64(workers*2))

			entries, err := store.Entries(ctx, "u1", workers*2, 0)
			So(err, ShouldBeNil)
			So(len(entries), ShouldEqual, workers)
		})
	})
}

func TestEntriesPagination(t *testing.T) {
	Convey("Given a user with an ordered ledger", t, func() {
		store := NewMemStore()
		ctx := context.Background()
		base := time.Now()
		for i := 0; i < 5; i++ {
			e := entry("u1", "reply_discussion", 3, base.Add(time.Duration(i)*time.Second))
			e.ID = fmt.Sprintf("e-%d", i)
			_, err := store.AppendEntry(ctx, e)
			So(err, ShouldBeNil)
		}

		Convey("When reading the first page", func() {
			page, err := store.Entries(ctx, "u1", 2, 0)

			Convey("Then it returns the newest entries first", func() {
				So(err, ShouldBeNil)
				So(len(page), ShouldEqual, 2)
				So(page[0].ID, ShouldEqual, "e-4")
				So(page[1].ID, ShouldEqual, "e-3")
			})
		})

		Convey("When reading with an offset", func() {
			page, err := store.Entries(ctx, "u1", 2, 2)

			Convey("Then it continues where the first page ended", func() {
				So(err, ShouldBeNil)
				So(len(page), ShouldEqual, 2)
				So(page[0].ID, ShouldEqual, "e-2")
			})
		})

		Convey("When reading with an invalid limit", func() {
			_, err := store.Entries(ctx, "u1", 0, 0)

			Convey("Then it should be rejected", func() {
				So(err, ShouldEqual, ErrInvalidLimit)
			})
		})
	})
}

func TestSummaryAndBreakdown(t *testing.T) {
	Convey("Given a mixed ledger", t, func() {
		store := NewMemStore()
		ctx := context.Background()
		now := time.Now()

		_, _ = store.AppendEntry(ctx, entry("u1", "publish_content", 50, now))
		_, _ = store.AppendEntry(ctx, entry("u1", "publish_content", 50, now.Add(time.Second)))
		_, _ = store.AppendEntry(ctx, entry("u1", "moderation_penalty", -10, now.Add(2*time.Second)))

		Convey("Then the summary splits earned and lost points", func() {
			s, err := store.Summary(ctx, "u1")
			So(err, ShouldBeNil)
			So(s.TotalEarned, ShouldEqual, 100)
			So(s.TotalLost, ShouldEqual, 10)
			So(s.TotalActions, ShouldEqual, 3)
			So(s.CurrentScore, ShouldEqual, 90)
		})

		Convey("And the breakdown groups by action type", func() {
			b, err := store.Breakdown(ctx, "u1")
			So(err, ShouldBeNil)
			So(b["publish_content"].Count, ShouldEqual, 2)
			So(b["publish_content"].TotalPoints, ShouldEqual, 100)
			So(b["moderation_penalty"].TotalPoints, ShouldEqual, -10)
		})
	})
}

func TestHasEntryBetween(t *testing.T) {
	Convey("Given a daily_login entry at a known time", t, func() {
		store := NewMemStore()
		ctx := context.Background()
		at := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
		_, _ = store.AppendEntry(ctx, entry("u1", "daily_login", 1, at))

		dayStart := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
		dayEnd := dayStart.AddDate(0, 0, 1)

		Convey("Then the probe finds it inside the day", func() {
			ok, err := store.HasEntryBetween(ctx, "u1", "daily_login", dayStart, dayEnd)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
		})

		Convey("And misses outside the day", func() {
			ok, err := store.HasEntryBetween(ctx, "u1", "daily_login", dayEnd, dayEnd.AddDate(0, 0, 1))
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("And misses for another action type", func() {
			ok, err := store.HasEntryBetween(ctx, "u1", "best_answer", dayStart, dayEnd)
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestGrantBadge(t *testing.T) {
	Convey("Given a store with a grant", t, func() {
		store := NewMemStore()
		ctx := context.Background()
		grant := model.UserBadge{UserID: "u1", BadgeID: "b1", EarnedAt: time.Now()}

		granted, err := store.GrantBadge(ctx, grant)
		So(err, ShouldBeNil)
		So(granted, ShouldBeTrue)

		Convey("When granting the same pair again", func() {
			again, err := store.GrantBadge(ctx, grant)

			Convey("Then the duplicate is silently ignored", func() {
				So(err, ShouldBeNil)
				So(again, ShouldBeFalse)
			})

			Convey("And the user still holds exactly one grant", func() {
				grants, err := store.UserBadges(ctx, "u1")
				So(err, ShouldBeNil)
				So(len(grants), ShouldEqual, 1)
			})
		})
	})
}

func TestTopScores(t *testing.T) {
	Convey("Given three users with all-time scores", t, func() {
		store := NewMemStore()
		ctx := context.Background()
		now := time.Now()

		_, _ = store.AppendEntry(ctx, entry("a", "publish_content", 80, now))
		_, _ = store.AppendEntry(ctx, entry("b", "publish_content", 50, now))
		_, _ = store.AppendEntry(ctx, entry("c", "publish_content", 30, now))

		Convey("Then all-time top scores order by score descending", func() {
			top, err := store.TopScores(ctx, time.Time{}, "", 10)
			So(err, ShouldBeNil)
			So(len(top), ShouldEqual, 3)
			So(top[0].UserID, ShouldEqual, "a")
			So(top[1].UserID, ShouldEqual, "b")
			So(top[2].UserID, ShouldEqual, "c")
		})

		Convey("And ties break deterministically by user id", func() {
			_, _ = store.AppendEntry(ctx, entry("d", "publish_content", 50, now))
			top, err := store.TopScores(ctx, time.Time{}, "", 10)
			So(err, ShouldBeNil)
			So(top[1].UserID, ShouldEqual, "b")
			So(top[2].UserID, ShouldEqual, "d")
		})

		Convey("And a window start excludes older entries", func() {
			_, _ = store.AppendEntry(ctx, entry("a", "best_answer", 25, now.Add(2*time.Hour)))
			top, err := store.TopScores(ctx, now.Add(time.Hour), "", 10)
			So(err, ShouldBeNil)
			So(top[0].UserID, ShouldEqual, "a")
			So(top[0].Score, ShouldEqual, 25)
		})

		Convey("And an action filter restricts the sum", func() {
			_, _ = store.AppendEntry(ctx, entry("b", "best_answer", 25, now))
			top, err := store.TopScores(ctx, time.Time{}, "best_answer", 10)
			So(err, ShouldBeNil)
			So(top[0].UserID, ShouldEqual, "b")
			So(top[0].Score, ShouldEqual, 25)
		})
	})
}

func TestSnapshots(t *testing.T) {
	Convey("Given a persisted snapshot", t, func() {
		store := NewMemStore()
		ctx := context.Background()

		first := []model.LeaderboardEntry{
			{Rank: 1, UserID: "a", Score: 80},
			{Rank: 2, UserID: "b", Score: 50},
		}
		So(store.ReplaceSnapshot(ctx, model.TimeframeWeekly, first), ShouldBeNil)

		Convey("When replacing it", func() {
			second := []model.LeaderboardEntry{
				{Rank: 1, UserID: "c", Score: 120},
			}
			So(store.ReplaceSnapshot(ctx, model.TimeframeWeekly, second), ShouldBeNil)

			Convey("Then readers observe only the new set", func() {
				snap, err := store.Snapshot(ctx, model.TimeframeWeekly)
				So(err, ShouldBeNil)
				So(len(snap), ShouldEqual, 1)
				So(snap[0].UserID, ShouldEqual, "c")
			})
		})

		Convey("And other timeframes are unaffected", func() {
			snap, err := store.Snapshot(ctx, model.TimeframeDaily)
			So(err, ShouldBeNil)
			So(len(snap), ShouldEqual, 0)
		})
	})
}
