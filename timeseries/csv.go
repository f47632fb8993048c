package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	YearColumn string // Column holding the year or a date (default: "year")
	DateFormat string // Date format tried before the built-in ones (optional)
	Delimiter  rune   // Field delimiter (default: ',')
	SkipRows   int    // Number of rows to skip before the header
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		YearColumn: "year",
		Delimiter:  ',',
	}
}

// Table holds one mean value per year for every numeric column of a CSV
// file. Years without an observation for a column hold NaN.
type Table struct {
	Years   []int
	Columns map[string][]float64
	order   []string
}

// ColumnNames returns the column names in file order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.order))
	copy(names, t.order)
	return names
}

// Series extracts a column as a series. Years with no observation are dropped.
func (t *Table) Series(column string) (*Series, error) {
	values, ok := t.Columns[column]
	if !ok {
		return nil, fmt.Errorf("unknown column %q", column)
	}
	points := make([]Point, len(values))
	for i, v := range values {
		points[i] = Point{Year: t.Years[i], Value: v}
	}
	return Load(column, points)
}

// Regressors builds a regressor set from columns, restricted to years.
func (t *Table) Regressors(name string, years []int, columns ...string) (*RegressorSet, error) {
	index := make(map[int]int, len(t.Years))
	for i, y := range t.Years {
		index[y] = i
	}

	covariates := make([]Covariate, 0, len(columns))
	for _, c := range columns {
		values, ok := t.Columns[c]
		if !ok {
			return nil, fmt.Errorf("unknown column %q", c)
		}
		picked := make([]float64, 0, len(years))
		for _, y := range years {
			i, ok := index[y]
			if !ok {
				continue
			}
			picked = append(picked, values[i])
		}
		covariates = append(covariates, Covariate{Label: c, Values: picked})
	}
	return Build(name, years, covariates...)
}

// LoadCSV loads an annual table from a CSV file.
func LoadCSV(filename string, opts *CSVOptions) (*Table, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	defer file.Close()

	return LoadCSVFromReader(file, opts)
}

// LoadCSVFromReader reads rows keyed by a year or date column and averages
// every other column per year. Non-numeric and missing cells are skipped.
func LoadCSVFromReader(r io.Reader, opts *CSVOptions) (*Table, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}
	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}

	reader := csv.NewReader(r)
	reader.Comma = delim
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, fmt.Errorf("skip row %d: %w", i+1, err)
		}
	}

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	yearIdx := -1
	var names []string
	var nameIdx []int
	for i, h := range header {
		h = strings.TrimSpace(strings.Trim(h, "\""))
		if strings.EqualFold(h, opts.YearColumn) {
			yearIdx = i
			continue
		}
		names = append(names, h)
		nameIdx = append(nameIdx, i)
	}
	if yearIdx == -1 {
		return nil, fmt.Errorf("year column %q not found", opts.YearColumn)
	}

	type acc struct {
		sum   float64
		count int
	}
	sums := make(map[int][]acc)

	line := 1 + opts.SkipRows
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		if yearIdx >= len(record) {
			continue
		}

		year, ok := parseYear(clean(record[yearIdx]), opts.DateFormat)
		if !ok {
			continue
		}
		row, ok := sums[year]
		if !ok {
			row = make([]acc, len(names))
			sums[year] = row
		}
		for j, idx := range nameIdx {
			if idx >= len(record) {
				continue
			}
			v, ok := parseValue(clean(record[idx]))
			if !ok {
				continue
			}
			row[j].sum += v
			row[j].count++
		}
	}

	if len(sums) == 0 {
		return nil, errors.New("no valid data found in CSV")
	}

	years := make([]int, 0, len(sums))
	for y := range sums {
		years = append(years, y)
	}
	sort.Ints(years)

	table := &Table{
		Years:   years,
		Columns: make(map[string][]float64, len(names)),
		order:   names,
	}
	for j, name := range names {
		col := make([]float64, len(years))
		for i, y := range years {
			a := sums[y][j]
			if a.count == 0 {
				col[i] = math.NaN()
				continue
			}
			col[i] = a.sum / float64(a.count)
		}
		table.Columns[name] = col
	}
	return table, nil
}

func clean(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\""))
}

func parseValue(s string) (float64, bool) {
	if s == "" || s == "NA" || s == "NaN" || s == "null" {
		return 0, false
	}
	s = strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseYear(s, layout string) (int, bool) {
	if y, err := strconv.Atoi(s); err == nil {
		return y, true
	}

	formats := []string{
		"2006-01-02",
		"2006-01-02T15:04:05",
		"2006/01/02",
		"01/02/2006",
		"02-Jan-2006",
	}
	if layout != "" {
		formats = append([]string{layout}, formats...)
	}
	for _, f := range formats {
		if ts, err := time.Parse(f, s); err == nil {
			return ts.Year(), true
		}
	}
	return 0, false
}
