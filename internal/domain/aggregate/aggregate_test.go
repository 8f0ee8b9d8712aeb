package aggregate_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/bizlens/internal/domain/aggregate"
	"github.com/okian/bizlens/internal/domain/record"
	. "github.com/smartystreets/goconvey/convey"
)

func decode(s string) []record.Record {
	recs, err := record.DecodeList([]byte(s))
	if err != nil {
		panic(err)
	}
	return recs
}

func TestProcessEntities(t *testing.T) {
	Convey("Given entities with types and values", t, func() {
		entities := decode(`[
			{"type":"A","value":1,"active":true},
			{"type":"A","value":2,"active":false},
			{"type":"A","value":3},
			{"type":"B","value":2,"active":true},
			{"type":"B","value":4},
			{"type":"B","value":6},
			{"type":"C","value":"n/a"},
			{"value":10}
		]`)

		res := aggregate.ProcessEntities(entities)

		Convey("Then entities are counted by type", func() {
			So(res.Distribution, ShouldResemble, map[string]int64{"A": 3, "B": 3, "C": 1})
		})

		Convey("And numeric values are summarized", func() {
			So(res.Performance, ShouldContainKey, "A")
			So(res.Performance, ShouldNotContainKey, "C")
			So(res.Performance["B"].Mean, ShouldEqual, 4)
			So(res.Performance["B"].Median, ShouldEqual, 4)
			So(res.Performance["A"].Count, ShouldEqual, 3)
			So(res.Growth, ShouldBeEmpty)
		})

		Convey("And equal-length series are correlated pairwise", func() {
			corr := res.Correlations()
			So(corr, ShouldResemble, map[string]float64{"A_B": 1})
		})

		Convey("And active entities are counted", func() {
			So(aggregate.ActiveCount(entities), ShouldEqual, 2)
		})
	})

	Convey("Given no entities", t, func() {
		res := aggregate.ProcessEntities(nil)
		So(res.Distribution, ShouldNotBeNil)
		So(res.Performance, ShouldNotBeNil)
		So(res.Correlations(), ShouldBeEmpty)

		data, err := json.Marshal(res)
		So(err, ShouldBeNil)
		So(string(data), ShouldEqual, `{"distribution":{},"performance":{},"growth":{}}`)
	})
}

func TestEntityTypes(t *testing.T) {
	types := decode(`[
		{"id":1,"nom":"A","description":"first","type":"SA","status":"ACTIVE"},
		{"id":2,"nom":"B"},
		{"id":3,"nom":"C"},
		{"id":4}
	]`)

	Convey("Given a taxonomy and no matching entities", t, func() {
		res := aggregate.EntityTypes(nil, types)

		Convey("Then every named type is seeded at zero", func() {
			So(res.Distribution, ShouldResemble, map[string]int64{"A": 0, "B": 0, "C": 0})
			So(res.TotalTypes, ShouldEqual, 4)
			So(res.TotalEntities, ShouldEqual, 0)
		})

		Convey("And percentages are 0 rather than NaN", func() {
			So(res.Performance["A"].Percentage, ShouldEqual, 0)
			data, err := json.Marshal(res)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, `"percentage":0`)
		})
	})

	Convey("Given entities referencing types by id", t, func() {
		entities := decode(`[
			{"typeEntrepriseId":1},
			{"typeEntrepriseId":"1"},
			{"typeEntrepriseId":3},
			{"typeEntrepriseId":99},
			{"nom":"no type"}
		]`)
		res := aggregate.EntityTypes(entities, types)

		So(res.Distribution, ShouldResemble, map[string]int64{"A": 2, "B": 0, "C": 1})
		So(res.Performance["A"].Percentage, ShouldEqual, 40)
		So(res.Performance["C"].Count, ShouldEqual, 1)

		desc, ok := res.Performance["A"].Details["description"].AsString()
		So(ok, ShouldBeTrue)
		So(desc, ShouldEqual, "first")
		So(res.Performance["B"].Details["status"].IsNull(), ShouldBeTrue)
	})
}

func TestSectors(t *testing.T) {
	now := time.Date(2024, time.June, 30, 12, 0, 0, 0, time.UTC)
	secteurs := decode(`[{"nom":"Tech"},{"nom":"Agri"},{"nom":"Energy"}]`)
	sous := decode(`[{"nom":"Software"},{"nom":"Crops"}]`)

	Convey("Given entities with and without business data", t, func() {
		entities := decode(`[
			{"createdAt":"2024-06-25T09:00:00","entiteBusiness":{"secteur":"Tech","sousSecteur":"Software"}},
			{"createdAt":"2024-01-01T09:00:00","entiteBusiness":{"secteur":"Tech","sousSecteur":"Software"}},
			{"created_at":"2024-06-29 08:00:00","entiteBusiness":{"secteur":"Agri"}},
			{"createdAt":"2024-06-29T08:00:00+05:00","entiteBusiness":{"secteur":"Mining","sousSecteur":"Coal"}},
			{"createdAt":"2024-06-29T08:00:00"}
		]`)

		res := aggregate.Sectors(entities, secteurs, sous, now, aggregate.DefaultRecentWindow)

		Convey("Then distributions are seeded and counted", func() {
			So(res.Secteurs, ShouldResemble, map[string]int64{"Tech": 2, "Agri": 1, "Energy": 0, "Mining": 1})
			So(res.SousSecteurs, ShouldResemble, map[string]int64{"Software": 2, "Crops": 0, "Coal": 1})
		})

		Convey("And percentages use the full entity count", func() {
			So(res.Performance["Tech"].Percentage, ShouldEqual, 40)
			So(res.Performance["Energy"].Percentage, ShouldEqual, 0)
		})

		Convey("And growth is the recent share of each sector", func() {
			So(res.Trends["Tech"], ShouldResemble, aggregate.SectorTrend{Total: 2, Growth: 50})
			So(res.Trends["Agri"].Growth, ShouldEqual, 100)
			So(res.Trends["Mining"].Growth, ShouldEqual, 100)
			So(res.Trends["Energy"], ShouldResemble, aggregate.SectorTrend{Total: 0, Growth: 0})
		})

		Convey("And the result depends on the supplied clock only", func() {
			later := aggregate.Sectors(entities, secteurs, sous, now.AddDate(1, 0, 0), aggregate.DefaultRecentWindow)
			So(later.Trends["Tech"].Growth, ShouldEqual, 0)
		})
	})

	Convey("Given no entities", t, func() {
		res := aggregate.Sectors(nil, secteurs, nil, now, aggregate.DefaultRecentWindow)
		So(res.Secteurs, ShouldHaveLength, 3)
		So(res.SousSecteurs, ShouldBeEmpty)
		So(res.Performance["Tech"].Percentage, ShouldEqual, 0)
	})
}

func TestTimestamps(t *testing.T) {
	Convey("Given records with mixed timestamps", t, func() {
		recs := decode(`[
			{"createdAt":"2024-01-05T10:00:00"},
			{"created_at":"2024-01-20 10:00:00"},
			{"createdAt":"garbage"},
			{"createdAt":12345},
			{"id":1}
		]`)
		ts, skipped := aggregate.Timestamps(recs, record.FieldCreatedAt)
		So(ts, ShouldHaveLength, 2)
		So(skipped, ShouldEqual, 2)
	})
}
