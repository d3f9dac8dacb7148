package dataprep

import (
	"math"
	"sort"
	"time"

	"salesforecast/pkg/data"
	"salesforecast/pkg/stats"
)

// Engineered feature names.
const (
	FeatDayOfWeek       = "DayOfWeek"
	FeatWeekOfYear      = "WeekOfYear"
	FeatYear            = "Year"
	FeatIsWeekend       = "IsWeekend"
	FeatSalesLag7       = "Sales_Lag_7"
	FeatSalesMovingAvg7 = "Sales_Moving_Avg_7"
	FeatSalesLag30      = "Sales_Lag_30"
)

// Calendar holds the features derived from a single date.
type Calendar struct {
	DayOfWeek  float64 // 0 = Monday
	WeekOfYear float64 // ISO week
	Year       float64
	IsWeekend  float64
}

// CalendarFeatures derives the calendar features of t.
func CalendarFeatures(t time.Time) Calendar {
	dow := (int(t.Weekday()) + 6) % 7
	_, week := t.ISOWeek()
	weekend := 0.0
	if dow >= 5 {
		weekend = 1
	}
	return Calendar{
		DayOfWeek:  float64(dow),
		WeekOfYear: float64(week),
		Year:       float64(t.Year()),
		IsWeekend:  weekend,
	}
}

// Map returns the features keyed by name.
func (c Calendar) Map() map[string]float64 {
	return map[string]float64{
		FeatDayOfWeek:  c.DayOfWeek,
		FeatWeekOfYear: c.WeekOfYear,
		FeatYear:       c.Year,
		FeatIsWeekend:  c.IsWeekend,
	}
}

// LagFeatures are per-row sales history aggregates, aligned with the rows of
// the table they were computed from.
type LagFeatures struct {
	Lag7       []float64
	MovingAvg7 []float64
	Lag30      []float64
}

// ComputeLags builds Sales_Lag_7, Sales_Lag_30 and Sales_Moving_Avg_7 per
// store in date order. The moving average covers the 7 observations before
// the row. Rows without enough history get 0.
func ComputeLags(table *data.Table) LagFeatures {
	n := table.Len()
	out := LagFeatures{
		Lag7:       make([]float64, n),
		MovingAvg7: make([]float64, n),
		Lag30:      make([]float64, n),
	}

	stores := map[float64][]int{}
	for i, r := range table.Records {
		stores[r.StoreID] = append(stores[r.StoreID], i)
	}
	for _, rows := range stores {
		sort.SliceStable(rows, func(a, b int) bool {
			return table.Records[rows[a]].Date.Before(table.Records[rows[b]].Date)
		})
		window := 0.0
		for k, row := range rows {
			if k >= 7 {
				out.Lag7[row] = table.Records[rows[k-7]].Sales
				out.MovingAvg7[row] = window / 7
				window -= table.Records[rows[k-7]].Sales
			}
			if k >= 30 {
				out.Lag30[row] = table.Records[rows[k-30]].Sales
			}
			window += table.Records[row].Sales
		}
	}
	return out
}

// LogTransform applies log(x+1) to each value.
func LogTransform(X []float64) []float64 {
	out := make([]float64, len(X))
	for i, v := range X {
		out[i] = math.Log1p(v)
	}
	return out
}

// InverseLogTransform undoes LogTransform.
func InverseLogTransform(X []float64) []float64 {
	out := make([]float64, len(X))
	for i, v := range X {
		out[i] = math.Expm1(v)
	}
	return out
}

// DailySales returns the mean sales per date, in date order. Missing sales
// values are ignored; a date with none of them averages to NaN.
func DailySales(table *data.Table) ([]time.Time, []float64, error) {
	keys, groups, err := table.GroupBy(data.ColDate)
	if err != nil {
		return nil, nil, err
	}
	dates := make([]time.Time, 0, len(keys))
	means := make([]float64, 0, len(keys))
	for _, k := range keys {
		d, err := data.ParseDate(k)
		if err != nil {
			return nil, nil, err
		}
		sales, err := table.Values(data.ColSales, groups[k])
		if err != nil {
			return nil, nil, err
		}
		present := nonMissing(sales)
		mean := math.NaN()
		if len(present) > 0 {
			mean = stats.Mean(present)
		}
		dates = append(dates, d)
		means = append(means, mean)
	}
	return dates, means, nil
}
