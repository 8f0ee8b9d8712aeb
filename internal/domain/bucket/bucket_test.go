package bucket_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/okian/bizlens/internal/domain/bucket"
	. "github.com/smartystreets/goconvey/convey"
)

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestParseInterval(t *testing.T) {
	Convey("Given interval selectors", t, func() {
		iv, ok := bucket.ParseInterval("MONTHLY")
		So(ok, ShouldBeTrue)
		So(iv, ShouldEqual, bucket.Monthly)

		iv, ok = bucket.ParseInterval(" yearly ")
		So(ok, ShouldBeTrue)
		So(iv, ShouldEqual, bucket.Yearly)

		iv, ok = bucket.ParseInterval("hourly")
		So(ok, ShouldBeFalse)
		So(iv, ShouldEqual, bucket.Daily)
	})
}

func TestKey(t *testing.T) {
	Convey("Given a timestamp", t, func() {
		ts := at("2024-05-16T13:45:00") // Thursday

		So(bucket.Key(ts, bucket.Daily), ShouldEqual, "2024-05-16")
		So(bucket.Key(ts, bucket.Weekly), ShouldEqual, "2024-05-13")
		So(bucket.Key(ts, bucket.Monthly), ShouldEqual, "2024-05")
		So(bucket.Key(ts, bucket.Quarterly), ShouldEqual, "2024-Q2")
		So(bucket.Key(ts, bucket.Yearly), ShouldEqual, "2024")
		So(bucket.Key(ts, bucket.Interval("bogus")), ShouldEqual, "2024-05-16")

		Convey("Weekly keys of a Monday and a Sunday", func() {
			So(bucket.Key(at("2024-05-13T00:00:00"), bucket.Weekly), ShouldEqual, "2024-05-13")
			So(bucket.Key(at("2024-05-19T23:59:59"), bucket.Weekly), ShouldEqual, "2024-05-13")
			So(bucket.Key(at("2024-01-02T08:00:00"), bucket.Weekly), ShouldEqual, "2024-01-01")
			So(bucket.Key(at("2023-01-01T08:00:00"), bucket.Weekly), ShouldEqual, "2022-12-26")
		})

		Convey("Quarter boundaries", func() {
			So(bucket.Key(at("2024-03-31T23:59:59"), bucket.Quarterly), ShouldEqual, "2024-Q1")
			So(bucket.Key(at("2024-04-01T00:00:00"), bucket.Quarterly), ShouldEqual, "2024-Q2")
			So(bucket.Key(at("2024-12-01T00:00:00"), bucket.Quarterly), ShouldEqual, "2024-Q4")
		})
	})
}

func TestCount(t *testing.T) {
	Convey("Given three creation timestamps", t, func() {
		ts := []time.Time{at("2024-01-05T10:00:00"), at("2024-01-20T10:00:00"), at("2024-02-01T10:00:00")}

		Convey("Monthly buckets are ordered chronologically", func() {
			So(bucket.Count(ts, bucket.Monthly, bucket.Range{}), ShouldResemble, []bucket.Bucket{
				{Key: "2024-01", Count: 2},
				{Key: "2024-02", Count: 1},
			})
		})

		Convey("Range bounds are inclusive", func() {
			start, end := at("2024-01-20T10:00:00"), at("2024-02-01T10:00:00")
			got := bucket.Count(ts, bucket.Daily, bucket.Range{Start: &start, End: &end})
			So(got, ShouldResemble, []bucket.Bucket{
				{Key: "2024-01-20", Count: 1},
				{Key: "2024-02-01", Count: 1},
			})
		})
	})

	Convey("Bucketing partitions the filtered input", t, func() {
		r := rand.New(rand.NewSource(5))
		base := at("2023-01-01T00:00:00")
		ts := make([]time.Time, 500)
		for i := range ts {
			ts[i] = base.Add(time.Duration(r.Int63n(int64(700 * 24 * time.Hour))))
		}
		start, end := at("2023-03-01T00:00:00"), at("2024-06-30T00:00:00")
		rng := bucket.Range{Start: &start, End: &end}

		inside := 0
		for _, x := range ts {
			if rng.Contains(x) {
				inside++
			}
		}
		for _, iv := range []bucket.Interval{bucket.Daily, bucket.Weekly, bucket.Monthly, bucket.Quarterly, bucket.Yearly} {
			var sum int64
			for _, b := range bucket.Count(ts, iv, rng) {
				sum += b.Count
			}
			So(sum, ShouldEqual, inside)
		}
	})
}

func TestTimePoints(t *testing.T) {
	Convey("Given a range", t, func() {
		start, end := at("2024-01-31T00:00:00"), at("2024-04-30T00:00:00")

		Convey("TimePoints is inclusive of end", func() {
			So(bucket.TimePoints(start, start, bucket.Daily), ShouldHaveLength, 1)
			So(bucket.TimePoints(end, start, bucket.Daily), ShouldBeEmpty)
			So(bucket.TimePoints(at("2024-01-01T00:00:00"), at("2024-01-15T00:00:00"), bucket.Weekly), ShouldHaveLength, 3)
		})

		Convey("Keys starts at the bucket of start", func() {
			So(bucket.Keys(start, end, bucket.Monthly), ShouldResemble, []string{"2024-01", "2024-02", "2024-03", "2024-04"})
			So(bucket.Keys(start, end, bucket.Quarterly), ShouldResemble, []string{"2024-Q1", "2024-Q2"})
			So(bucket.Keys(start, end, bucket.Yearly), ShouldResemble, []string{"2024"})
		})

		Convey("FillGaps adds zero buckets", func() {
			got := bucket.FillGaps([]bucket.Bucket{{Key: "2024-03", Count: 4}}, bucket.Keys(start, end, bucket.Monthly))
			So(got, ShouldResemble, []bucket.Bucket{
				{Key: "2024-01", Count: 0},
				{Key: "2024-02", Count: 0},
				{Key: "2024-03", Count: 4},
				{Key: "2024-04", Count: 0},
			})
			So(bucket.Values(got), ShouldResemble, []float64{0, 0, 4, 0})
		})
	})
}
