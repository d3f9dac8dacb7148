package eda

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"salesforecast/pkg/data"
)

// Print writes a plain-text rendering of the report.
func Print(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	p := func(format string, args ...any) { fmt.Fprintf(tw, format, args...) }

	p("Rows: %d\n\n", r.Rows)

	p("Missing values\n")
	for _, col := range data.Columns {
		p("  %s\t%d\n", col, r.Missing[col])
	}

	p("\nSummary statistics\n")
	p("  column\tcount\tmean\tstd\tmin\t25%%\t50%%\t75%%\tmax\n")
	for _, col := range data.NumericColumns {
		s := r.Numeric[col]
		p("  %s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
			col, s.Count, s.Mean, s.Std, s.Min, s.Q1, s.Median, s.Q3, s.Max)
	}

	p("\nSales outliers: %d (bounds %.2f .. %.2f)\n", r.Outliers.GetCardinality(), r.SalesLower, r.SalesUpper)

	p("\nHypothesis tests\n")
	for _, f := range r.Findings {
		p("  %s\tstatistic=%.4f\tp=%.4g\t%s\n", f.Name, f.Result.Statistic, f.Result.PValue, f.Conclusion)
	}

	if len(r.Correlation) > 0 {
		p("\nCorrelation matrix\n")
		p("  \t%s\n", strings.Join(r.CorrelationColumns, "\t"))
		for i, row := range r.Correlation {
			cells := make([]string, len(row))
			for j, v := range row {
				cells[j] = fmt.Sprintf("%.3f", v)
			}
			p("  %s\t%s\n", r.CorrelationColumns[i], strings.Join(cells, "\t"))
		}
	}

	printGroups(p, "Monthly sales", r.Monthly)
	for _, col := range []string{data.ColStoreType, data.ColLocationType, data.ColRegionCode, data.ColDiscount} {
		printGroups(p, "Sales by "+col, r.ByCategory[col])
	}

	if len(r.ACF) > 0 {
		p("\nDaily sales autocorrelation: significant lags %v (bound %.3f)\n", r.SignificantLags, r.ACFBound)
	}
	return tw.Flush()
}

func printGroups(p func(string, ...any), title string, groups []GroupSummary) {
	if len(groups) == 0 {
		return
	}
	p("\n%s\n", title)
	p("  group\tcount\tmean\tmedian\n")
	for _, g := range groups {
		p("  %s\t%d\t%.2f\t%.2f\n", g.Key, g.Count, g.Mean, g.Median)
	}
}
