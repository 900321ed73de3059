// Copyright 2021 Shiwen Cheng. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package relay

import (
	"strings"
)

type GroupingStrategy int

const (
	// PerMetricSeries writes each metric to its own series "<check>.<client>.<metric>" with no tags.
	PerMetricSeries GroupingStrategy = iota
	// SingleSeriesWithTags writes the whole event to series "<check>" tagged with host and metric.
	SingleSeriesWithTags
)

const (
	GroupingPerMetric    = "per_metric"
	GroupingSingleSeries = "single_series"

	TagHost   = "host"
	TagMetric = "metric"
)

func ParseGroupingStrategy(s string) (GroupingStrategy, error) {
	switch s {
	case "", GroupingPerMetric:
		return PerMetricSeries, nil
	case GroupingSingleSeries:
		return SingleSeriesWithTags, nil
	}
	return 0, ErrInvalidGrouping
}

func (g GroupingStrategy) String() string {
	if g == SingleSeriesWithTags {
		return GroupingSingleSeries
	}
	return GroupingPerMetric
}

type Point struct {
	Time  float64
	Value Value
	Tags  map[string]string
}

type SeriesPoints struct {
	Series string
	Points []Point
}

// PointBatch keeps series in first-seen order and points in input order.
type PointBatch struct {
	Entries []*SeriesPoints
	index   map[string]int
}

func NewPointBatch() *PointBatch {
	return &PointBatch{index: make(map[string]int)}
}

func (pb *PointBatch) Add(series string, p Point) {
	i, ok := pb.index[series]
	if !ok {
		i = len(pb.Entries)
		pb.index[series] = i
		pb.Entries = append(pb.Entries, &SeriesPoints{Series: series})
	}
	pb.Entries[i].Points = append(pb.Entries[i].Points, p)
}

func (pb *PointBatch) Get(series string) []Point {
	if i, ok := pb.index[series]; ok {
		return pb.Entries[i].Points
	}
	return nil
}

func (pb *PointBatch) Len() int {
	return len(pb.Entries)
}

func (pb *PointBatch) PointCount() (n int) {
	for _, e := range pb.Entries {
		n += len(e.Points)
	}
	return
}

func GetSeriesKey(parts ...string) string {
	return strings.Join(parts, ".")
}

func Assemble(samples []Sample, host, checkName, clientName string, strategy GroupingStrategy) *PointBatch {
	pb := NewPointBatch()
	base := GetSeriesKey(checkName, clientName)
	for _, s := range samples {
		p := Point{Time: s.Timestamp, Value: s.Value}
		switch strategy {
		case SingleSeriesWithTags:
			p.Tags = map[string]string{TagHost: host, TagMetric: s.Metric}
			pb.Add(checkName, p)
		default:
			pb.Add(GetSeriesKey(base, s.Metric), p)
		}
	}
	return pb
}
