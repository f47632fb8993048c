package timeseries

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrRegressorMisalignment = errors.New("regressor misalignment")
	ErrYearNotFound          = errors.New("year not found")
)

// Covariate is a labelled column of annual regressor values.
type Covariate struct {
	Label  string
	Values []float64
}

// RegressorSet is a named, year-aligned matrix of exogenous covariates.
// Column order is the order the covariates were given to Build.
type RegressorSet struct {
	Name    string
	years   []int
	labels  []string
	columns [][]float64
}

// Row is a single row of regressor values, used as the future input of a
// forecast.
type Row struct {
	Year   int
	Labels []string
	Values []float64
}

// NewRow creates a row from hand-entered values.
func NewRow(year int, labels []string, values []float64) (Row, error) {
	if len(labels) != len(values) {
		return Row{}, fmt.Errorf("%w: %d labels, %d values", ErrRegressorMisalignment, len(labels), len(values))
	}
	return Row{
		Year:   year,
		Labels: slices.Clone(labels),
		Values: slices.Clone(values),
	}, nil
}

// Build validates covariates against years and creates a regressor set.
func Build(name string, years []int, covariates ...Covariate) (*RegressorSet, error) {
	for i := 1; i < len(years); i++ {
		if years[i] <= years[i-1] {
			return nil, fmt.Errorf("%w: years not strictly increasing at %d", ErrRegressorMisalignment, years[i])
		}
	}

	rs := &RegressorSet{
		Name:    name,
		years:   slices.Clone(years),
		labels:  make([]string, 0, len(covariates)),
		columns: make([][]float64, 0, len(covariates)),
	}
	seen := make(map[string]bool, len(covariates))
	for _, c := range covariates {
		if c.Label == "" {
			return nil, fmt.Errorf("%w: empty covariate label", ErrRegressorMisalignment)
		}
		if seen[c.Label] {
			return nil, fmt.Errorf("%w: duplicate covariate %q", ErrRegressorMisalignment, c.Label)
		}
		seen[c.Label] = true

		if len(c.Values) != len(years) {
			return nil, fmt.Errorf("%w: covariate %q has %d values for %d years",
				ErrRegressorMisalignment, c.Label, len(c.Values), len(years))
		}
		for i, v := range c.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: covariate %q missing value for %d",
					ErrRegressorMisalignment, c.Label, years[i])
			}
		}
		rs.labels = append(rs.labels, c.Label)
		rs.columns = append(rs.columns, slices.Clone(c.Values))
	}
	return rs, nil
}

// Len returns the number of rows (years).
func (r *RegressorSet) Len() int {
	return len(r.years)
}

// Width returns the number of covariates.
func (r *RegressorSet) Width() int {
	return len(r.labels)
}

// Years returns a copy of the row years.
func (r *RegressorSet) Years() []int {
	return slices.Clone(r.years)
}

// Labels returns a copy of the covariate labels in column order.
func (r *RegressorSet) Labels() []string {
	return slices.Clone(r.labels)
}

// Column returns a copy of the values of the named covariate.
func (r *RegressorSet) Column(label string) ([]float64, bool) {
	i := slices.Index(r.labels, label)
	if i < 0 {
		return nil, false
	}
	return slices.Clone(r.columns[i]), true
}

// At returns the value of covariate j at row i.
func (r *RegressorSet) At(i, j int) float64 {
	return r.columns[j][i]
}

// Slice returns the rows whose year satisfies keep, preserving column order.
func (r *RegressorSet) Slice(keep func(year int) bool) *RegressorSet {
	idx := make([]int, 0, len(r.years))
	for i, y := range r.years {
		if keep(y) {
			idx = append(idx, i)
		}
	}
	return r.pick(idx)
}

// AlignTo selects exactly the given years. Every year must be present.
func (r *RegressorSet) AlignTo(years []int) (*RegressorSet, error) {
	idx := make([]int, len(years))
	for i, y := range years {
		j, found := slices.BinarySearch(r.years, y)
		if !found {
			return nil, fmt.Errorf("%w: set %q has no row for %d", ErrRegressorMisalignment, r.Name, y)
		}
		idx[i] = j
	}
	return r.pick(idx), nil
}

func (r *RegressorSet) pick(idx []int) *RegressorSet {
	out := &RegressorSet{
		Name:    r.Name,
		years:   make([]int, len(idx)),
		labels:  slices.Clone(r.labels),
		columns: make([][]float64, len(r.columns)),
	}
	for i, k := range idx {
		out.years[i] = r.years[k]
	}
	for j, col := range r.columns {
		out.columns[j] = make([]float64, len(idx))
		for i, k := range idx {
			out.columns[j][i] = col[k]
		}
	}
	return out
}

// Row returns the regressor values for year.
func (r *RegressorSet) Row(year int) (Row, error) {
	i, found := slices.BinarySearch(r.years, year)
	if !found {
		return Row{}, fmt.Errorf("%w: %d in set %q", ErrYearNotFound, year, r.Name)
	}
	values := make([]float64, len(r.columns))
	for j, col := range r.columns {
		values[j] = col[i]
	}
	return Row{Year: year, Labels: slices.Clone(r.labels), Values: values}, nil
}

// Matrix returns the regressors as a Len x Width dense matrix. It returns
// nil for a set without rows or columns.
func (r *RegressorSet) Matrix() *mat.Dense {
	if r.Len() == 0 || r.Width() == 0 {
		return nil
	}
	m := mat.NewDense(r.Len(), r.Width(), nil)
	for j, col := range r.columns {
		m.SetCol(j, col)
	}
	return m
}
