package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/sartorproj/goarimax/diagnostics"
	"github.com/sartorproj/goarimax/forecast"
	"github.com/sartorproj/goarimax/search"
	"github.com/sartorproj/goarimax/stats"
	"github.com/sartorproj/goarimax/timeseries"
)

// CandidateRow is one ranked candidate.
type CandidateRow struct {
	Rank          int      `json:"rank"`
	Order         string   `json:"order"`
	RegressorSet  string   `json:"regressor_set"`
	AIC           float64  `json:"aic"`
	AICc          *float64 `json:"aicc"`
	BIC           float64  `json:"bic"`
	Autocorr      *float64 `json:"autocorrelation_p"`
	Normality     *float64 `json:"normality_p"`
	Heterosked    *float64 `json:"heteroskedasticity_p"`
	Valid         bool     `json:"valid"`
	FailedChecks  []string `json:"failed_checks,omitempty"`
	DurbinWatson  *float64 `json:"durbin_watson,omitempty"`
	ResidualYears int      `json:"n_obs"`
}

// FailureRow is a candidate that could not be fitted.
type FailureRow struct {
	Order        string `json:"order"`
	RegressorSet string `json:"regressor_set"`
	Error        string `json:"error"`
}

// SearchReport is the output of the search command.
type SearchReport struct {
	RunID     string         `json:"run_id"`
	Evaluated int            `json:"evaluated"`
	Fitted    int            `json:"fitted"`
	Valid     int            `json:"valid"`
	Ranked    []CandidateRow `json:"ranked"`
	Failures  []FailureRow   `json:"failures,omitempty"`
}

func newSearchReport(res *search.Result, ranked []*search.Candidate) *SearchReport {
	r := &SearchReport{
		RunID:     res.RunID,
		Evaluated: res.Len(),
		Fitted:    len(res.Candidates),
		Valid:     len(res.Ranked()),
	}
	for i, c := range ranked {
		p := c.Verdict.PValues()
		r.Ranked = append(r.Ranked, CandidateRow{
			Rank:          i + 1,
			Order:         c.Order.String(),
			RegressorSet:  orNone(c.SetName),
			AIC:           c.Model.AIC,
			AICc:          num(c.Model.AICc),
			BIC:           c.Model.BIC,
			Autocorr:      num(p[0]),
			Normality:     num(p[1]),
			Heterosked:    num(p[2]),
			Valid:         c.Valid(),
			FailedChecks:  c.Verdict.Failures(),
			DurbinWatson:  num(c.Verdict.DurbinWatson),
			ResidualYears: c.Model.NObs(),
		})
	}
	for _, f := range res.Failures {
		r.Failures = append(r.Failures, FailureRow{
			Order:        f.Order.String(),
			RegressorSet: orNone(f.SetName),
			Error:        f.Err.Error(),
		})
	}
	return r
}

func (r *SearchReport) writeText(w io.Writer) error {
	fmt.Fprintf(w, "Run %s: %d evaluated, %d fitted, %d valid\n\n", r.RunID, r.Evaluated, r.Fitted, r.Valid)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tORDER\tSET\tAIC\tBIC\tAUTOCORR P\tNORMALITY P\tHETERO P\tVALID")
	for _, c := range r.Ranked {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.3f\t%.3f\t%s\t%s\t%s\t%v\n",
			c.Rank, c.Order, c.RegressorSet, c.AIC, c.BIC,
			fmtPtr(c.Autocorr), fmtPtr(c.Normality), fmtPtr(c.Heterosked), c.Valid)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Failures) > 0 {
		fmt.Fprintf(w, "\n%d failed:\n", len(r.Failures))
		for _, f := range r.Failures {
			fmt.Fprintf(w, "  %s %s: %s\n", f.Order, f.RegressorSet, f.Error)
		}
	}
	return nil
}

// ForecastReport is the output of the forecast command.
type ForecastReport struct {
	Order           string             `json:"order"`
	RegressorSet    string             `json:"regressor_set"`
	TrainEnd        int                `json:"train_end_year"`
	Year            int                `json:"year"`
	Horizon         int                `json:"horizon"`
	Point           float64            `json:"point"`
	StdErr          float64            `json:"std_err"`
	Confidence      float64            `json:"confidence"`
	Lower           float64            `json:"lower"`
	Upper           float64            `json:"upper"`
	Path            []float64          `json:"path"`
	Actual          *float64           `json:"actual,omitempty"`
	AbsoluteError   *float64           `json:"absolute_error,omitempty"`
	PercentageError *float64           `json:"percentage_error,omitempty"`
	AR              []float64          `json:"ar"`
	MA              []float64          `json:"ma"`
	Beta            map[string]float64 `json:"beta,omitempty"`
	Intercept       *float64           `json:"intercept,omitempty"`
	Variance        float64            `json:"variance"`
	AIC             float64            `json:"aic"`
	BIC             float64            `json:"bic"`
	PValues         [3]*float64        `json:"p_values"`
	Valid           bool               `json:"valid"`
}

func newForecastReport(res *forecast.Result, set string, verdict *diagnostics.Verdict) *ForecastReport {
	m := res.Model
	r := &ForecastReport{
		Order:        m.Order.String(),
		RegressorSet: set,
		TrainEnd:     m.Series().MaxYear(),
		Year:         res.Year,
		Horizon:      res.Horizon,
		Point:        res.Point,
		StdErr:       res.StdErr,
		Confidence:   res.Confidence,
		Lower:        res.Lower,
		Upper:        res.Upper,
		Path:         res.Path,
		AR:           m.ARCoeffs,
		MA:           m.MACoeffs,
		Variance:     m.Variance,
		AIC:          m.AIC,
		BIC:          m.BIC,
		Valid:        verdict.Valid,
	}
	if res.HasActual() {
		r.Actual = res.Actual
		r.AbsoluteError = num(res.AbsoluteError)
		r.PercentageError = num(res.PercentageError)
	}
	if labels := m.Labels(); len(labels) > 0 {
		r.Beta = make(map[string]float64, len(labels))
		for i, l := range labels {
			r.Beta[l] = m.Beta[i]
		}
	}
	if m.HasIntercept {
		r.Intercept = num(m.Intercept)
	}
	for i, p := range verdict.PValues() {
		r.PValues[i] = num(p)
	}
	return r
}

func (r *ForecastReport) writeText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Model\t%s on %s, trained through %d\n", r.Order, r.RegressorSet, r.TrainEnd)
	fmt.Fprintf(tw, "AR\t%s\n", fmtSlice(r.AR))
	fmt.Fprintf(tw, "MA\t%s\n", fmtSlice(r.MA))
	for _, label := range slices.Sorted(maps.Keys(r.Beta)) {
		fmt.Fprintf(tw, "beta[%s]\t%.4f\n", label, r.Beta[label])
	}
	if r.Intercept != nil {
		fmt.Fprintf(tw, "Intercept\t%.4f\n", *r.Intercept)
	}
	fmt.Fprintf(tw, "AIC / BIC\t%.3f / %.3f\n", r.AIC, r.BIC)
	fmt.Fprintf(tw, "Residual p-values\t%s %s %s (valid: %v)\n",
		fmtPtr(r.PValues[0]), fmtPtr(r.PValues[1]), fmtPtr(r.PValues[2]), r.Valid)
	fmt.Fprintf(tw, "Forecast %d\t%.3f\n", r.Year, r.Point)
	fmt.Fprintf(tw, "%.0f%% interval\t[%.3f, %.3f] (se %.3f)\n", r.Confidence*100, r.Lower, r.Upper, r.StdErr)
	if r.Horizon > 1 {
		fmt.Fprintf(tw, "Path\t%s\n", fmtSlice(r.Path))
	}
	if r.Actual != nil {
		fmt.Fprintf(tw, "Actual\t%.3f\n", *r.Actual)
		fmt.Fprintf(tw, "Absolute error\t%s\n", fmtPtr(r.AbsoluteError))
		fmt.Fprintf(tw, "Percentage error\t%s%%\n", fmtPtr(r.PercentageError))
	}
	return tw.Flush()
}

// exploreReport prints a correlogram of one series.
type exploreReport struct {
	series *timeseries.Series
	acf    *stats.CorrelogramResult
	pacf   *stats.CorrelogramResult
}

func newExploreReport(s *timeseries.Series, acf, pacf *stats.CorrelogramResult) *exploreReport {
	return &exploreReport{series: s, acf: acf, pacf: pacf}
}

func (r *exploreReport) writeText(w io.Writer) error {
	s := r.series
	fmt.Fprintf(w, "%s: %d years (%d-%d), mean %.3f, std %.3f, median %.3f, range [%.3f, %.3f]\n",
		s.Name, s.Len(), s.MinYear(), s.MaxYear(), s.Mean(), s.Std(), s.Median(), s.Min(), s.Max())
	fmt.Fprintf(w, "Confidence bound: ±%.3f\n\n", r.acf.ConfBounds)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LAG\tACF\tPACF")
	for i := 1; i < len(r.acf.Values); i++ {
		pacf := math.NaN()
		if i < len(r.pacf.Values) {
			pacf = r.pacf.Values[i]
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i, mark(r.acf.Values[i], r.acf.ConfBounds), mark(pacf, r.pacf.ConfBounds))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nSignificant ACF lags: %v\n", r.acf.SignificantLags())
	fmt.Fprintf(w, "Significant PACF lags: %v\n", r.pacf.SignificantLags())
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// num returns nil for values JSON cannot represent.
func num(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func fmtPtr(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *v)
}

func fmtSlice(vs []float64) string {
	if len(vs) == 0 {
		return "-"
	}
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprintf("%.4f", v)
	}
	return strings.Join(parts, " ")
}

// mark flags values outside the confidence bound.
func mark(v, bound float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	if math.Abs(v) > bound {
		return fmt.Sprintf("%+.3f *", v)
	}
	return fmt.Sprintf("%+.3f", v)
}

func orNone(name string) string {
	if name == "" {
		return "none"
	}
	return name
}
