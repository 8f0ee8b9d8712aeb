package model_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	model "github.com/okian/bizlens/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestReportSnapshot(t *testing.T) {
	convey.Convey("Given a new snapshot", t, func() {
		at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
		s := model.NewSnapshot(model.OpScorecard, at, 12, nil)

		convey.Convey("Then it has a uuid and a UTC timestamp", func() {
			_, err := uuid.Parse(s.ID)
			convey.So(err, convey.ShouldBeNil)
			convey.So(s.GeneratedAt.Location(), convey.ShouldEqual, time.UTC)
			convey.So(s.GeneratedAt.Equal(at), convey.ShouldBeTrue)
			convey.So(s.Operation, convey.ShouldEqual, model.OpScorecard)
			convey.So(s.TotalEntities, convey.ShouldEqual, 12)
			convey.So(s.Degraded(), convey.ShouldBeFalse)
		})

		convey.Convey("When another is created", func() {
			other := model.NewSnapshot(model.OpScorecard, at, 12, []string{"entities unavailable"})

			convey.Convey("Then ids differ and warnings mark it degraded", func() {
				convey.So(other.ID, convey.ShouldNotEqual, s.ID)
				convey.So(other.Degraded(), convey.ShouldBeTrue)
			})
		})
	})
}
