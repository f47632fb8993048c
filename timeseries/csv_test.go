package timeseries

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nan() float64 { return math.NaN() }

func TestLoadCSVFromReader(t *testing.T) {
	// Daily brand-level observations are averaged per year.
	csvData := `date,brand,growth_rate,gdp
2003-02-01,A,4.0,100
2003-08-01,B,6.0,102
2004-01-15,A,3.0,104
2004-06-30,B,NA,106
2005-03-03,A,5.5,
`
	table, err := LoadCSVFromReader(strings.NewReader(csvData), &CSVOptions{YearColumn: "date"})
	require.NoError(t, err)

	assert.Equal(t, []int{2003, 2004, 2005}, table.Years)
	assert.Equal(t, []string{"brand", "growth_rate", "gdp"}, table.ColumnNames())

	growth := table.Columns["growth_rate"]
	assert.InDelta(t, 5.0, growth[0], 1e-12)
	assert.InDelta(t, 3.0, growth[1], 1e-12)
	assert.InDelta(t, 5.5, growth[2], 1e-12)

	gdp := table.Columns["gdp"]
	assert.InDelta(t, 101.0, gdp[0], 1e-12)
	assert.InDelta(t, 105.0, gdp[1], 1e-12)
	assert.True(t, math.IsNaN(gdp[2]))

	// Non-numeric columns never hold a value.
	for _, v := range table.Columns["brand"] {
		assert.True(t, math.IsNaN(v))
	}

	t.Logf("Loaded %d years: %v", len(table.Years), growth)
}

func TestTableSeriesAndRegressors(t *testing.T) {
	csvData := `year,growth_rate,gdp,gini
2003,4.1,100,0.30
2004,5.2,102,0.31
2005,,104,0.32
2006,6.3,106,0.33
`
	table, err := LoadCSVFromReader(strings.NewReader(csvData), nil)
	require.NoError(t, err)

	series, err := table.Series("growth_rate")
	require.NoError(t, err)
	assert.Equal(t, []int{2003, 2004, 2006}, series.Years)

	regs, err := table.Regressors("macro", series.Years, "gdp", "gini")
	require.NoError(t, err)
	col, _ := regs.Column("gdp")
	assert.Equal(t, []float64{100, 102, 106}, col)

	_, err = table.Series("missing")
	assert.Error(t, err)

	// A year absent from the table cannot be aligned.
	_, err = table.Regressors("macro", []int{2003, 2010}, "gdp")
	assert.ErrorIs(t, err, ErrRegressorMisalignment)
}

func TestLoadCSVOptions(t *testing.T) {
	csvData := `# exported
yr;value
2001;1,5
2002;2
`
	opts := &CSVOptions{YearColumn: "yr", Delimiter: ';', SkipRows: 1}
	table, err := LoadCSVFromReader(strings.NewReader(csvData), opts)
	require.NoError(t, err)

	// "1,5" is not a float with the default locale and is skipped.
	values := table.Columns["value"]
	assert.True(t, math.IsNaN(values[0]))
	assert.Equal(t, 2.0, values[1])
}

func TestLoadCSVKeepsOptions(t *testing.T) {
	opts := &CSVOptions{YearColumn: "year"}
	table, err := LoadCSVFromReader(strings.NewReader("year,value\n2001,1.5\n"), opts)
	require.NoError(t, err)
	assert.Equal(t, []int{2001}, table.Years)
	assert.Equal(t, rune(0), opts.Delimiter, "caller options are not modified")
}

func TestLoadCSVErrors(t *testing.T) {
	_, err := LoadCSVFromReader(strings.NewReader("a,b\n1,2\n"), nil)
	assert.Error(t, err, "missing year column")

	_, err = LoadCSVFromReader(strings.NewReader("year,b\nfoo,2\n"), nil)
	assert.Error(t, err, "no parseable rows")

	_, err = LoadCSVFromReader(strings.NewReader(""), nil)
	assert.Error(t, err)
}

func TestLoadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lux.csv")
	require.NoError(t, os.WriteFile(path, []byte("year,growth_rate\n2020,1\n2021,2\n"), 0o600))

	table, err := LoadCSV(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{2020, 2021}, table.Years)

	_, err = LoadCSV(filepath.Join(t.TempDir(), "nope.csv"), nil)
	assert.Error(t, err)
}
