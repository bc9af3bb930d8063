package level

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNewTable(t *testing.T) {
	Convey("Given tier definitions", t, func() {
		Convey("When the table is empty", func() {
			_, err := NewTable(nil)

			Convey("Then it should be rejected", func() {
				So(err, ShouldEqual, ErrEmptyTable)
			})
		})

		Convey("When thresholds are not strictly increasing", func() {
			_, err := NewTable([]Tier{
				{MinScore: 0, Label: "a"},
				{MinScore: 100, Label: "b"},
				{MinScore: 100, Label: "c"},
			})

			Convey("Then it should be rejected", func() {
				So(err, ShouldEqual, ErrUnorderedTable)
			})
		})

		Convey("When thresholds are valid", func() {
			tbl, err := NewTable([]Tier{
				{MinScore: 0, Label: "a"},
				{MinScore: 10, Label: "b"},
			})

			Convey("Then the table should be built", func() {
				So(err, ShouldBeNil)
				So(tbl.Size(), ShouldEqual, 2)
			})
		})
	})
}

func TestResolveBoundaries(t *testing.T) {
	Convey("Given the default seven-tier table", t, func() {
		tbl := Default()
		So(tbl.Size(), ShouldEqual, 7)

		Convey("Then boundary scores resolve to the expected levels", func() {
			So(tbl.Resolve(0).Number, ShouldEqual, 1)
			So(tbl.Resolve(99).Number, ShouldEqual, 1)
			So(tbl.Resolve(100).Number, ShouldEqual, 2)
			So(tbl.Resolve(499).Number, ShouldEqual, 2)
			So(tbl.Resolve(500).Number, ShouldEqual, 3)
			So(tbl.Resolve(50000).Number, ShouldEqual, 7)
			So(tbl.Resolve(999999).Number, ShouldEqual, 7)
		})

		Convey("And scores below the first threshold resolve to level one", func() {
			So(tbl.Resolve(-10).Number, ShouldEqual, 1)
		})

		Convey("And the next threshold is exposed below the top tier", func() {
			lvl := tbl.Resolve(0)
			So(lvl.NextMin, ShouldNotBeNil)
			So(*lvl.NextMin, ShouldEqual, 100)

			top := tbl.Resolve(60000)
			So(top.NextMin, ShouldBeNil)
		})
	})
}
