// Package timeseries provides annual series and regressor data structures.
package timeseries

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrEmptySeries        = errors.New("empty series")
	ErrInvalidWindow      = errors.New("invalid window")
	ErrInsufficientLength = errors.New("insufficient series length")
	ErrDuplicateYear      = errors.New("duplicate year")
)

// Point is a single annual observation.
type Point struct {
	Year  int
	Value float64
}

// Series represents an annual time series with strictly increasing years.
// A Series is never mutated after construction; every transformation
// returns a new Series.
type Series struct {
	Name   string
	Years  []int
	Values []float64
}

// Load creates a series from raw points. Points with a missing (NaN or
// infinite) value are dropped and the rest are sorted by year.
func Load(name string, points []Point) (*Series, error) {
	valid := make([]Point, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		valid = append(valid, p)
	}
	if len(valid) == 0 {
		return nil, ErrEmptySeries
	}

	sort.SliceStable(valid, func(i, j int) bool { return valid[i].Year < valid[j].Year })

	s := &Series{
		Name:   name,
		Years:  make([]int, len(valid)),
		Values: make([]float64, len(valid)),
	}
	for i, p := range valid {
		if i > 0 && p.Year == valid[i-1].Year {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateYear, p.Year)
		}
		s.Years[i] = p.Year
		s.Values[i] = p.Value
	}
	return s, nil
}

// FromValues creates a series from consecutive years starting at startYear.
func FromValues(name string, startYear int, values []float64) (*Series, error) {
	points := make([]Point, len(values))
	for i, v := range values {
		points[i] = Point{Year: startYear + i, Value: v}
	}
	return Load(name, points)
}

// Len returns the length of the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// MinYear returns the first year of the series.
func (s *Series) MinYear() int {
	if len(s.Years) == 0 {
		return 0
	}
	return s.Years[0]
}

// MaxYear returns the last year of the series.
func (s *Series) MaxYear() int {
	if len(s.Years) == 0 {
		return 0
	}
	return s.Years[len(s.Years)-1]
}

// IndexOf returns the position of year in the series, or -1.
func (s *Series) IndexOf(year int) int {
	i := sort.SearchInts(s.Years, year)
	if i < len(s.Years) && s.Years[i] == year {
		return i
	}
	return -1
}

// Value returns the observation for year.
func (s *Series) Value(year int) (float64, bool) {
	i := s.IndexOf(year)
	if i < 0 {
		return 0, false
	}
	return s.Values[i], true
}

// Points returns the series as (year, value) pairs.
func (s *Series) Points() []Point {
	points := make([]Point, len(s.Values))
	for i := range s.Values {
		points[i] = Point{Year: s.Years[i], Value: s.Values[i]}
	}
	return points
}

// Window returns a new series truncated to years <= endYear.
func (s *Series) Window(endYear int) (*Series, error) {
	if s.Len() == 0 || endYear < s.MinYear() {
		return nil, fmt.Errorf("%w: end year %d precedes %d", ErrInvalidWindow, endYear, s.MinYear())
	}
	end := sort.SearchInts(s.Years, endYear+1)
	return s.Slice(0, end), nil
}

// Difference applies order successive first differences. The result is
// shorter by order and its years start at the (order+1)-th original year.
func (s *Series) Difference(order int) (*Series, error) {
	if order < 0 {
		return nil, fmt.Errorf("%w: negative order %d", ErrInsufficientLength, order)
	}
	if order >= s.Len() {
		return nil, fmt.Errorf("%w: order %d for length %d", ErrInsufficientLength, order, s.Len())
	}

	values := slices.Clone(s.Values)
	for range order {
		for i := 0; i < len(values)-1; i++ {
			values[i] = values[i+1] - values[i]
		}
		values = values[:len(values)-1]
	}

	years := slices.Clone(s.Years[order:])

	name := s.Name
	if order > 0 {
		name = fmt.Sprintf("%s_diff%d", s.Name, order)
	}
	return &Series{
		Name:   name,
		Years:  years,
		Values: values,
	}, nil
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return stat.Mean(s.Values, nil)
}

// Variance calculates the sample variance of the series.
func (s *Series) Variance() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	return stat.Variance(s.Values, nil)
}

// Std calculates the standard deviation of the series.
func (s *Series) Std() float64 {
	return math.Sqrt(s.Variance())
}

// Min returns the smallest value, or NaN for an empty series.
func (s *Series) Min() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return floats.Min(s.Values)
}

// Max returns the largest value, or NaN for an empty series.
func (s *Series) Max() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return floats.Max(s.Values)
}

// Median returns the middle value, averaging the two central values of an
// even-length series. It is NaN for an empty series.
func (s *Series) Median() float64 {
	n := len(s.Values)
	if n == 0 {
		return math.NaN()
	}
	sorted := slices.Sorted(slices.Values(s.Values))
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Slice returns the observations at positions [start, end), clamped to the
// series bounds. The result shares no memory with s.
func (s *Series) Slice(start, end int) *Series {
	start = max(start, 0)
	end = min(end, len(s.Values))
	if start >= end {
		return &Series{Name: s.Name, Years: []int{}, Values: []float64{}}
	}
	return &Series{
		Name:   s.Name,
		Years:  slices.Clone(s.Years[start:end]),
		Values: slices.Clone(s.Values[start:end]),
	}
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	return s.Slice(0, s.Len())
}
