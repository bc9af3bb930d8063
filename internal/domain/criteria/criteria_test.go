package criteria

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Given raw badge rules", t, func() {
		Convey("When parsing a reputation rule", func() {
			c, err := Parse("reputation", 500, "")

			Convey("Then it should produce a score-threshold predicate", func() {
				So(err, ShouldBeNil)
				So(c.Kind, ShouldEqual, KindReputation)
				So(c.MinScore, ShouldEqual, 500)
			})
		})

		Convey("When parsing an action-count rule", func() {
			c, err := Parse("action_count", 3, "publish_content")

			Convey("Then it should produce a count predicate", func() {
				So(err, ShouldBeNil)
				So(c.Kind, ShouldEqual, KindActionCount)
				So(c.Action, ShouldEqual, "publish_content")
				So(c.MinCount, ShouldEqual, 3)
			})
		})

		Convey("When parsing an unknown kind", func() {
			_, err := Parse("streak", 7, "")

			Convey("Then it should be rejected at load time", func() {
				So(err, ShouldEqual, ErrUnknownKind)
			})
		})

		Convey("When parsing a count rule without an action", func() {
			_, err := Parse("action_count", 3, "")

			Convey("Then it should be rejected", func() {
				So(err, ShouldEqual, ErrInvalidCriteria)
			})
		})

		Convey("When parsing a rule with a non-positive value", func() {
			_, err := Parse("reputation", 0, "")

			Convey("Then it should be rejected", func() {
				So(err, ShouldEqual, ErrInvalidCriteria)
			})
		})
	})
}

func TestMet(t *testing.T) {
	Convey("Given a qualifying snapshot", t, func() {
		snap := Snapshot{
			Score:  600,
			Counts: map[string]int64{"publish_content": 3},
		}

		Convey("Then threshold rules compare against the score", func() {
			So(Reputation(500).Met(snap), ShouldBeTrue)
			So(Reputation(600).Met(snap), ShouldBeTrue)
			So(Reputation(601).Met(snap), ShouldBeFalse)
		})

		Convey("And count rules compare against the matching count", func() {
			So(ActionCount("publish_content", 3).Met(snap), ShouldBeTrue)
			So(ActionCount("publish_content", 4).Met(snap), ShouldBeFalse)
			So(ActionCount("create_discussion", 1).Met(snap), ShouldBeFalse)
		})

		Convey("And an unknown kind never qualifies", func() {
			So(Criteria{Kind: "streak"}.Met(snap), ShouldBeFalse)
		})
	})
}

func TestProgress(t *testing.T) {
	Convey("Given a snapshot", t, func() {
		snap := Snapshot{Score: 42, Counts: map[string]int64{"best_answer": 2}}

		Convey("Then progress reflects the relevant statistic", func() {
			So(Reputation(100).Progress(snap), ShouldEqual, 42)
			So(ActionCount("best_answer", 5).Progress(snap), ShouldEqual, 2)
		})
	})
}
