// Package bucket groups timestamps into calendar intervals.
package bucket

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Interval selects the bucket granularity.
type Interval string

const (
	Daily     Interval = "daily"
	Weekly    Interval = "weekly"
	Monthly   Interval = "monthly"
	Quarterly Interval = "quarterly"
	Yearly    Interval = "yearly"
)

// ParseInterval maps a selector to an Interval, case-insensitively. Unknown
// selectors fall back to Daily and report ok=false.
func ParseInterval(s string) (Interval, bool) {
	switch iv := Interval(strings.ToLower(strings.TrimSpace(s))); iv {
	case Daily, Weekly, Monthly, Quarterly, Yearly:
		return iv, true
	default:
		return Daily, false
	}
}

// Key returns the bucket key of t. Keys sort lexicographically in calendar order.
func Key(t time.Time, iv Interval) string {
	switch iv {
	case Weekly:
		return weekStart(t).Format("2006-01-02")
	case Monthly:
		return t.Format("2006-01")
	case Quarterly:
		return fmt.Sprintf("%04d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
	case Yearly:
		return fmt.Sprintf("%04d", t.Year())
	default:
		return t.Format("2006-01-02")
	}
}

// weekStart returns midnight of the Monday on or before t.
func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	d := t.AddDate(0, 0, -offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, t.Location())
}

// Start returns the first instant of the bucket containing t.
func Start(t time.Time, iv Interval) time.Time {
	loc := t.Location()
	switch iv {
	case Weekly:
		return weekStart(t)
	case Monthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	case Quarterly:
		q := (int(t.Month()) - 1) / 3
		return time.Date(t.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, loc)
	case Yearly:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	}
}

// Next advances t by one interval.
func Next(t time.Time, iv Interval) time.Time {
	switch iv {
	case Weekly:
		return t.AddDate(0, 0, 7)
	case Monthly:
		return t.AddDate(0, 1, 0)
	case Quarterly:
		return t.AddDate(0, 3, 0)
	case Yearly:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// maxTimePoints bounds TimePoints so a wide daily range cannot allocate without limit.
const maxTimePoints = 100_000

// TimePoints enumerates start, start+iv, ... while not after end.
func TimePoints(start, end time.Time, iv Interval) []time.Time {
	var out []time.Time
	for cur := start; !cur.After(end) && len(out) < maxTimePoints; cur = Next(cur, iv) {
		out = append(out, cur)
	}
	return out
}

// Keys returns the bucket keys covering [start, end], in order.
func Keys(start, end time.Time, iv Interval) []string {
	points := TimePoints(Start(start, iv), end, iv)
	out := make([]string, 0, len(points))
	for _, p := range points {
		out = append(out, Key(p, iv))
	}
	return out
}

// Range is an optional inclusive time window. A nil bound is open.
type Range struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether t lies in the range, both ends inclusive.
func (r Range) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

// Bounded reports whether both ends are set.
func (r Range) Bounded() bool {
	return r.Start != nil && r.End != nil
}

// Bucket is one point of a bucketed series.
type Bucket struct {
	Key   string `json:"date"`
	Count int64  `json:"value"`
}

// Count buckets every timestamp inside r and returns the buckets sorted by key.
func Count(ts []time.Time, iv Interval, r Range) []Bucket {
	counts := CountMap(ts, iv, r)
	out := make([]Bucket, 0, len(counts))
	for k, c := range counts {
		out = append(out, Bucket{Key: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// CountMap is Count without ordering.
func CountMap(ts []time.Time, iv Interval, r Range) map[string]int64 {
	counts := make(map[string]int64)
	for _, t := range ts {
		if !r.Contains(t) {
			continue
		}
		counts[Key(t, iv)]++
	}
	return counts
}

// FillGaps inserts zero buckets for every key in keys that is missing from bs
// and returns the merged series sorted by key.
func FillGaps(bs []Bucket, keys []string) []Bucket {
	seen := make(map[string]int64, len(bs)+len(keys))
	for _, b := range bs {
		seen[b.Key] = b.Count
	}
	for _, k := range keys {
		if _, ok := seen[k]; !ok {
			seen[k] = 0
		}
	}
	out := make([]Bucket, 0, len(seen))
	for k, c := range seen {
		out = append(out, Bucket{Key: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Values extracts the counts of bs as float64, in order.
func Values(bs []Bucket) []float64 {
	out := make([]float64, len(bs))
	for i, b := range bs {
		out[i] = float64(b.Count)
	}
	return out
}
