// Package config loads the luxcast YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/sartorproj/goarimax/arima"
	"github.com/sartorproj/goarimax/diagnostics"
	"github.com/sartorproj/goarimax/forecast"
	"github.com/sartorproj/goarimax/search"
	"github.com/sartorproj/goarimax/timeseries"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the top-level configuration.
type Config struct {
	Data          DataConfig           `yaml:"data"`
	RegressorSets []RegressorSetConfig `yaml:"regressor_sets"`
	Grid          []OrderConfig        `yaml:"grid"`
	Diagnostics   DiagnosticsConfig    `yaml:"diagnostics"`
	Search        SearchConfig         `yaml:"search"`
	Forecast      ForecastConfig       `yaml:"forecast"`
}

// DataConfig locates the annual data table.
type DataConfig struct {
	File         string `yaml:"file"`          // CSV path, relative to the config file
	YearColumn   string `yaml:"year_column"`   // Column holding the year or a date
	TargetColumn string `yaml:"target_column"` // Column modelled as the series
	DateFormat   string `yaml:"date_format"`   // Go layout for date-valued year columns
}

// RegressorSetConfig names a set of regressor columns.
type RegressorSetConfig struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
}

// OrderConfig is an ARIMA (p, d, q) order.
type OrderConfig struct {
	P int `yaml:"p"`
	D int `yaml:"d"`
	Q int `yaml:"q"`
}

// Order converts to an arima.Order.
func (o OrderConfig) Order() arima.Order {
	return arima.Order{P: o.P, D: o.D, Q: o.Q}
}

// DiagnosticsConfig configures the residual tests.
type DiagnosticsConfig struct {
	Threshold    float64 `yaml:"threshold"`
	LjungBoxLags int     `yaml:"ljung_box_lags"`
	FitDF        int     `yaml:"fit_df"`
	Portmanteau  string  `yaml:"portmanteau"` // "ljung-box" or "box-pierce"
}

// SearchConfig configures the model search.
type SearchConfig struct {
	Workers   int    `yaml:"workers"`
	Intercept string `yaml:"intercept"` // "auto", "always" or "never"
}

// ForecastConfig configures the forecast command. Order and RegressorSet
// default to the top ranked search candidate.
type ForecastConfig struct {
	RegressorSet string             `yaml:"regressor_set"`
	Order        *OrderConfig       `yaml:"order"`
	TrainEndYear int                `yaml:"train_end_year"` // 0 uses every year
	Horizon      int                `yaml:"horizon"`
	Confidence   float64            `yaml:"confidence"`
	Future       map[string]float64 `yaml:"future"` // Regressor values for the target year
	Actual       *float64           `yaml:"actual"`
}

// Default returns the default configuration.
func Default() *Config {
	grid := search.DefaultGrid()
	orders := make([]OrderConfig, len(grid))
	for i, o := range grid {
		orders[i] = OrderConfig{P: o.P, D: o.D, Q: o.Q}
	}

	return &Config{
		Data: DataConfig{
			YearColumn:   "year",
			TargetColumn: "growth_rate",
		},
		Grid: orders,
		Diagnostics: DiagnosticsConfig{
			Threshold:    diagnostics.DefaultThreshold,
			LjungBoxLags: diagnostics.DefaultLags,
			Portmanteau:  diagnostics.NameLjungBox,
		},
		Search: SearchConfig{
			Workers:   runtime.GOMAXPROCS(0),
			Intercept: "auto",
		},
		Forecast: ForecastConfig{
			Horizon:    1,
			Confidence: 0.95,
		},
	}
}

// Load reads the configuration at path over the defaults and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if cfg.Data.File != "" && !filepath.IsAbs(cfg.Data.File) {
		cfg.Data.File = filepath.Join(filepath.Dir(path), cfg.Data.File)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem in the configuration.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Data.File == "" {
		add("data.file is required")
	}
	if c.Data.TargetColumn == "" {
		add("data.target_column is required")
	}

	seen := make(map[string]bool)
	for i, rs := range c.RegressorSets {
		if rs.Name == "" {
			add("regressor_sets[%d]: name is required", i)
		}
		if seen[rs.Name] {
			add("regressor_sets[%d]: duplicate name %q", i, rs.Name)
		}
		seen[rs.Name] = true
		if len(rs.Columns) == 0 {
			add("regressor_sets[%d]: at least one column is required", i)
		}
	}

	if len(c.Grid) == 0 {
		add("grid must contain at least one order")
	}
	for i, o := range c.Grid {
		if err := o.Order().Validate(); err != nil {
			add("grid[%d]: %v", i, err)
		}
	}

	if !(c.Diagnostics.Threshold > 0 && c.Diagnostics.Threshold < 1) {
		add("diagnostics.threshold %v must be in (0, 1)", c.Diagnostics.Threshold)
	}
	if c.Diagnostics.LjungBoxLags < 1 {
		add("diagnostics.ljung_box_lags must be at least 1")
	}
	if c.Diagnostics.FitDF < 0 {
		add("diagnostics.fit_df must be non-negative")
	}
	if _, err := diagnostics.ParsePortmanteau(c.Diagnostics.Portmanteau); err != nil {
		add("diagnostics.portmanteau: %v", err)
	}

	if c.Search.Workers < 0 {
		add("search.workers must be non-negative")
	}
	if _, err := arima.ParseInterceptMode(c.Search.Intercept); err != nil {
		add("search.intercept: %v", err)
	}

	if c.Forecast.Horizon < 1 {
		add("forecast.horizon must be at least 1")
	}
	if !(c.Forecast.Confidence > 0 && c.Forecast.Confidence < 1) {
		add("forecast.confidence %v must be in (0, 1)", c.Forecast.Confidence)
	}
	if c.Forecast.RegressorSet != "" && !seen[c.Forecast.RegressorSet] {
		add("forecast.regressor_set %q is not defined", c.Forecast.RegressorSet)
	}
	if c.Forecast.Order != nil {
		if err := c.Forecast.Order.Order().Validate(); err != nil {
			add("forecast.order: %v", err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Orders returns the search grid.
func (c *Config) Orders() []arima.Order {
	orders := make([]arima.Order, len(c.Grid))
	for i, o := range c.Grid {
		orders[i] = o.Order()
	}
	return orders
}

// CSVOptions returns the table loading options.
func (c *Config) CSVOptions() *timeseries.CSVOptions {
	opts := timeseries.DefaultCSVOptions()
	if c.Data.YearColumn != "" {
		opts.YearColumn = c.Data.YearColumn
	}
	opts.DateFormat = c.Data.DateFormat
	return opts
}

// Suite returns the configured diagnostic suite.
func (c *Config) Suite() *diagnostics.Suite {
	p, _ := diagnostics.ParsePortmanteau(c.Diagnostics.Portmanteau)
	return &diagnostics.Suite{
		Threshold:   c.Diagnostics.Threshold,
		Lags:        c.Diagnostics.LjungBoxLags,
		FitDF:       c.Diagnostics.FitDF,
		Portmanteau: p,
	}
}

// EstimatorOptions returns the estimation options.
func (c *Config) EstimatorOptions() *arima.Options {
	opts := arima.DefaultOptions()
	opts.Intercept, _ = arima.ParseInterceptMode(c.Search.Intercept)
	return opts
}

// SearchOptions returns the search options without logger or metrics.
func (c *Config) SearchOptions() *search.Options {
	opts := search.DefaultOptions()
	if c.Search.Workers > 0 {
		opts.Workers = c.Search.Workers
	}
	opts.Suite = c.Suite()
	opts.Estimator = c.EstimatorOptions()
	return opts
}

// ForecastOptions returns the forecast options.
func (c *Config) ForecastOptions() *forecast.Options {
	return &forecast.Options{
		Horizon:    c.Forecast.Horizon,
		Confidence: c.Forecast.Confidence,
		Actual:     c.Forecast.Actual,
	}
}

// FutureRow orders the configured future regressor values by labels. It
// returns an empty row when no future values are configured.
func (c *Config) FutureRow(year int, labels []string) (timeseries.Row, error) {
	if len(c.Forecast.Future) == 0 {
		return timeseries.Row{}, nil
	}
	values := make([]float64, len(labels))
	for i, l := range labels {
		v, ok := c.Forecast.Future[l]
		if !ok {
			return timeseries.Row{}, fmt.Errorf("%w: forecast.future has no value for %q", ErrInvalidConfig, l)
		}
		values[i] = v
	}
	if len(c.Forecast.Future) != len(labels) {
		return timeseries.Row{}, fmt.Errorf("%w: forecast.future has %d values for %d regressors",
			ErrInvalidConfig, len(c.Forecast.Future), len(labels))
	}
	return timeseries.NewRow(year, labels, values)
}

// RegressorSet returns the named set definition.
func (c *Config) RegressorSet(name string) (RegressorSetConfig, bool) {
	for _, rs := range c.RegressorSets {
		if rs.Name == name {
			return rs, true
		}
	}
	return RegressorSetConfig{}, false
}
