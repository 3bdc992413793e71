package layout_test

import (
	"testing"

	"github.com/gameday-grid/gameday/internal/domain/layout"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLayoutTable(t *testing.T) {
	Convey("Given the layout table", t, func() {
		Convey("Then MaxSlots equals the largest view count", func() {
			maxViews := 0
			for _, l := range layout.All() {
				if l.Views > maxViews {
					maxViews = l.Views
				}
			}
			So(layout.MaxSlots, ShouldEqual, maxViews)
		})

		Convey("Then every id resolves to itself", func() {
			for id := 0; id < layout.Count(); id++ {
				l, ok := layout.Lookup(id)
				So(ok, ShouldBeTrue)
				So(l.ID, ShouldEqual, id)
				So(l.Views, ShouldBeGreaterThan, 0)
			}
		})

		Convey("Then All lists each layout once in display order", func() {
			all := layout.All()
			So(len(all), ShouldEqual, layout.Count())
			seen := make(map[int]bool)
			for _, l := range all {
				So(seen[l.ID], ShouldBeFalse)
				seen[l.ID] = true
			}
			So(all[0].ID, ShouldEqual, 0)
			So(all[len(all)-1].Views, ShouldEqual, layout.MaxSlots)
		})

		Convey("When looking up unknown ids", func() {
			_, ok := layout.Lookup(-1)
			So(ok, ShouldBeFalse)
			views, ok := layout.ViewsFor(layout.Count())
			So(ok, ShouldBeFalse)
			So(views, ShouldEqual, 0)
			So(layout.Valid(99), ShouldBeFalse)
		})

		Convey("When looking up the quad view", func() {
			views, ok := layout.ViewsFor(3)
			So(ok, ShouldBeTrue)
			So(views, ShouldEqual, 4)
		})
	})
}
