package points

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTable(t *testing.T) {
	Convey("Given the default point-value table", t, func() {
		tbl := Default()

		Convey("Then stock actions carry their documented values", func() {
			cases := map[string]int64{
				ActionCreateContent:    10,
				ActionPublishContent:   50,
				ActionCreateDiscussion: 5,
				ActionBestAnswer:       25,
				ActionCompletePath:     100,
				ActionDailyLogin:       1,
			}
			for action, want := range cases {
				v, ok := tbl.Value(action)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, want)
			}
		})

		Convey("And unknown actions are reported as missing", func() {
			_, ok := tbl.Value("downvote")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given configuration overrides", t, func() {
		tbl := New(map[string]int64{
			ActionBestAnswer: 30,
			"host_event":     40,
		})

		Convey("Then overrides win over defaults", func() {
			v, ok := tbl.Value(ActionBestAnswer)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 30)
		})

		Convey("And new action types become awardable", func() {
			v, ok := tbl.Value("host_event")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 40)
		})

		Convey("And untouched defaults remain", func() {
			v, ok := tbl.Value(ActionDailyLogin)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 1)
		})
	})
}
