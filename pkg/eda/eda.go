// Package eda runs the exploratory analysis of the sales dataset: summary
// statistics, outliers, hypothesis tests and group summaries.
package eda

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/RoaringBitmap/roaring"
	"github.com/op/go-logging"
	arimastats "github.com/sartorproj/goarima/stats"
	"github.com/sartorproj/goarima/timeseries"

	"salesforecast/pkg/data"
	"salesforecast/pkg/dataprep"
	"salesforecast/pkg/stats"
)

var log = logging.MustGetLogger("log")

// DefaultAlpha is the significance level used by the report.
const DefaultAlpha = 0.05

// MaxACFLag bounds the autocorrelation of daily sales.
const MaxACFLag = 30

// GroupSummary holds sales statistics of one group of rows.
type GroupSummary struct {
	Key    string
	Count  int
	Mean   float64
	Median float64
}

// Finding is a hypothesis test together with what it says about sales.
type Finding struct {
	Name       string
	Result     stats.TestResult
	Conclusion string
	Err        error // set when the test could not be computed
}

type Report struct {
	Rows    int
	Missing map[string]int // before forward fill
	Numeric map[string]stats.Summary

	SalesLower, SalesUpper float64
	Outliers               *roaring.Bitmap

	Findings []Finding

	CorrelationColumns []string
	Correlation        [][]float64

	Monthly    []GroupSummary
	ByCategory map[string][]GroupSummary

	ACF             []float64
	ACFBound        float64
	SignificantLags []int
}

// Analyze computes the full report. The input table is not modified; the
// analysis runs on a forward-filled copy.
func Analyze(table *data.Table, alpha float64) (*Report, error) {
	if table.Len() == 0 {
		return nil, errors.New("eda: empty table")
	}
	r := &Report{
		Rows:       table.Len(),
		Missing:    dataprep.MissingCounts(table),
		Numeric:    map[string]stats.Summary{},
		ByCategory: map[string][]GroupSummary{},
	}
	filled := dataprep.ForwardFillTable(table)

	columns := make([][]float64, 0, len(data.NumericColumns))
	for _, name := range data.NumericColumns {
		col, err := filled.Column(name)
		if err != nil {
			return nil, err
		}
		r.Numeric[name] = stats.Describe(col)
		columns = append(columns, col)
	}

	sales, _ := filled.Column(data.ColSales)
	if present := dropNaN(sales); len(present) == len(sales) {
		r.Outliers = stats.Outliers(sales)
		r.SalesLower, r.SalesUpper = stats.IQRBounds(sales)
	} else {
		lower, upper := stats.IQRBounds(present)
		r.SalesLower, r.SalesUpper = lower, upper
		r.Outliers = filled.Where(func(rec data.Record) bool { return rec.Sales < lower || rec.Sales > upper })
	}
	log.Infof("Sales outliers: %d rows outside [%.2f, %.2f]", r.Outliers.GetCardinality(), r.SalesLower, r.SalesUpper)

	findings, err := HypothesisTests(filled, alpha)
	if err != nil {
		return nil, err
	}
	r.Findings = findings

	r.CorrelationColumns = data.NumericColumns
	r.Correlation = stats.CorrelationMatrix(dropNaNRows(columns))

	if r.Monthly, err = MonthlySales(filled); err != nil {
		return nil, err
	}
	for _, col := range []string{data.ColStoreType, data.ColLocationType, data.ColRegionCode, data.ColDiscount} {
		keys, groups, err := filled.GroupBy(col)
		if err != nil {
			return nil, err
		}
		if r.ByCategory[col], err = summarize(filled, keys, groups); err != nil {
			return nil, err
		}
	}

	if err := r.autocorrelation(filled); err != nil {
		log.Warningf("Skipping sales autocorrelation: %v", err)
	}
	return r, nil
}

// HypothesisTests runs the five sales hypotheses over table. The tests are
// independent: one that cannot be computed is reported with its Err set and
// NaN statistics, and the others still run.
func HypothesisTests(table *data.Table, alpha float64) ([]Finding, error) {
	var findings []Finding
	add := func(name string, res stats.TestResult, err error, conclude func(stats.TestResult) string) {
		f := Finding{Name: name, Result: res}
		if err != nil {
			f.Err = err
			f.Result = stats.TestResult{Statistic: math.NaN(), PValue: math.NaN()}
			f.Conclusion = "not computed: " + err.Error()
		} else {
			f.Conclusion = conclude(res)
		}
		findings = append(findings, f)
	}

	discount := table.Where(func(r data.Record) bool { return r.Discount == "Yes" })
	noDiscount := table.Where(func(r data.Record) bool { return r.Discount == "No" })
	res, err := welch(table, discount, noDiscount)
	add("Discount vs sales (Welch t-test)", res, err, func(r stats.TestResult) string {
		return twoSample(r, alpha, "higher with discount", "lower with discount", "discount")
	})

	holiday := table.Where(func(r data.Record) bool { return r.Holiday == 1 })
	workday := table.Where(func(r data.Record) bool { return r.Holiday == 0 })
	res, err = welch(table, holiday, workday)
	add("Holiday vs sales (Welch t-test)", res, err, func(r stats.TestResult) string {
		return twoSample(r, alpha, "higher on holidays", "lower on holidays", "holidays")
	})

	groups, err := salesGroups(table, data.ColStoreType)
	if err != nil {
		return nil, err
	}
	res, err = stats.OneWayANOVA(groups)
	add("Store type vs sales (one-way ANOVA)", res, err, func(r stats.TestResult) string {
		return kSample(r, alpha, "store types")
	})

	groups, err = salesGroups(table, data.ColRegionCode)
	if err != nil {
		return nil, err
	}
	res, err = stats.KruskalWallis(groups)
	add("Region vs sales (Kruskal-Wallis)", res, err, func(r stats.TestResult) string {
		return kSample(r, alpha, "regions")
	})

	orders, _ := table.Column(data.ColOrders)
	sales, _ := table.Column(data.ColSales)
	cols := dropNaNRows([][]float64{orders, sales})
	res, err = stats.PearsonTest(cols[0], cols[1])
	add("Orders vs sales (Pearson correlation)", res, err, func(r stats.TestResult) string {
		return correlation(r, alpha)
	})

	for _, f := range findings {
		if f.Err != nil {
			log.Warningf("%s: %v", f.Name, f.Err)
			continue
		}
		log.Infof("%s: statistic=%.4f p=%.4g -> %s", f.Name, f.Result.Statistic, f.Result.PValue, f.Conclusion)
	}
	return findings, nil
}

func welch(table *data.Table, a, b *roaring.Bitmap) (stats.TestResult, error) {
	x, err := table.Values(data.ColSales, a)
	if err != nil {
		return stats.TestResult{}, err
	}
	y, err := table.Values(data.ColSales, b)
	if err != nil {
		return stats.TestResult{}, err
	}
	return stats.WelchTTest(dropNaN(x), dropNaN(y))
}

func salesGroups(table *data.Table, column string) ([][]float64, error) {
	keys, masks, err := table.GroupBy(column)
	if err != nil {
		return nil, err
	}
	groups := make([][]float64, 0, len(keys))
	for _, k := range keys {
		v, err := table.Values(data.ColSales, masks[k])
		if err != nil {
			return nil, err
		}
		if v = dropNaN(v); len(v) > 0 {
			groups = append(groups, v)
		}
	}
	return groups, nil
}

func twoSample(res stats.TestResult, alpha float64, higher, lower, subject string) string {
	if !res.Significant(alpha) {
		return "no significant difference in sales on " + subject
	}
	if res.Direction() > 0 {
		return "sales are significantly " + higher
	}
	return "sales are significantly " + lower
}

func kSample(res stats.TestResult, alpha float64, subject string) string {
	if !res.Significant(alpha) {
		return "no significant difference in sales across " + subject
	}
	return "sales differ significantly across " + subject
}

func correlation(res stats.TestResult, alpha float64) string {
	if !res.Significant(alpha) {
		return "no significant correlation between orders and sales"
	}
	if res.Direction() > 0 {
		return fmt.Sprintf("orders and sales are positively correlated (r=%.3f)", res.Statistic)
	}
	return fmt.Sprintf("orders and sales are negatively correlated (r=%.3f)", res.Statistic)
}

// MonthlySales summarizes sales per calendar month, in month order.
func MonthlySales(table *data.Table) ([]GroupSummary, error) {
	masks := map[string]*roaring.Bitmap{}
	for i, r := range table.Records {
		key := r.Date.Format("2006-01")
		if masks[key] == nil {
			masks[key] = roaring.New()
		}
		masks[key].Add(uint32(i))
	}
	keys := make([]string, 0, len(masks))
	for k := range masks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return summarize(table, keys, masks)
}

func summarize(table *data.Table, keys []string, masks map[string]*roaring.Bitmap) ([]GroupSummary, error) {
	out := make([]GroupSummary, 0, len(keys))
	for _, k := range keys {
		v, err := table.Values(data.ColSales, masks[k])
		if err != nil {
			return nil, err
		}
		v = dropNaN(v)
		g := GroupSummary{Key: k, Count: len(v), Mean: math.NaN(), Median: math.NaN()}
		if len(v) > 0 {
			g.Mean = stats.Mean(v)
			g.Median = stats.Median(v)
		}
		out = append(out, g)
	}
	return out, nil
}

func (r *Report) autocorrelation(table *data.Table) error {
	dates, daily, err := dataprep.DailySales(table)
	if err != nil {
		return err
	}
	dates, daily = dropNaNDays(dates, daily)
	if len(daily) < 3 {
		return fmt.Errorf("only %d days of sales", len(daily))
	}
	series, err := timeseries.NewWithTimestamps(dates, daily)
	if err != nil {
		return err
	}
	acf := arimastats.ACFWithConfidence(series, MaxACFLag)
	if acf == nil {
		return errors.New("constant series")
	}
	r.ACF = acf.Values
	r.ACFBound = acf.ConfBounds
	r.SignificantLags = arimastats.SignificantLags(acf.Values, acf.ConfBounds)
	return nil
}

func dropNaN(x []float64) []float64 {
	out := x[:0:0]
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// dropNaNRows keeps the positions where every column is present.
func dropNaNRows(columns [][]float64) [][]float64 {
	out := make([][]float64, len(columns))
	if len(columns) == 0 {
		return out
	}
	for i := range columns[0] {
		keep := true
		for _, col := range columns {
			if math.IsNaN(col[i]) {
				keep = false
				break
			}
		}
		if keep {
			for j, col := range columns {
				out[j] = append(out[j], col[i])
			}
		}
	}
	return out
}

func dropNaNDays(dates []time.Time, values []float64) ([]time.Time, []float64) {
	var d []time.Time
	var v []float64
	for i, x := range values {
		if !math.IsNaN(x) {
			d = append(d, dates[i])
			v = append(v, x)
		}
	}
	return d, v
}
