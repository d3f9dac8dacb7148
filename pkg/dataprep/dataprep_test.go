package dataprep

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesforecast/pkg/data"
)

func day(d int) time.Time {
	return time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func TestImpute(t *testing.T) {
	x := []float64{1, math.NaN(), 3, math.NaN(), 8}
	assert.Equal(t, 3.0, ImputeMedian(x))
	assert.Equal(t, []float64{1, 3, 3, 3, 8}, x)

	y := []float64{2, math.NaN(), 4}
	assert.Equal(t, 3.0, ImputeMean(y))
	assert.Equal(t, []float64{2, 3, 4}, y)
}

func TestForwardFill(t *testing.T) {
	x := []float64{math.NaN(), 1, math.NaN(), math.NaN(), 4}
	ForwardFill(x)
	assert.True(t, math.IsNaN(x[0]))
	assert.Equal(t, []float64{1, 1, 1, 4}, x[1:])

	s := []string{"a", "", "b", ""}
	ForwardFillStrings(s)
	assert.Equal(t, []string{"a", "a", "b", "b"}, s)
}

func TestClean(t *testing.T) {
	dup := data.Record{ID: "T1", StoreID: 1, StoreType: "S1", LocationType: "L1", RegionCode: "R1", Date: day(0), Discount: "Yes", Orders: 10, Sales: 100}
	table := data.NewTable([]data.Record{
		dup,
		dup,
		{ID: "T2", StoreID: 2, StoreType: "", LocationType: "L2", RegionCode: "R2", Date: day(0), Discount: "No", Orders: math.NaN(), Sales: 300},
		{ID: "T3", StoreID: 3, StoreType: "S2", LocationType: "L1", RegionCode: "R1", Date: day(1), Discount: "No", Orders: 30, Sales: math.NaN()},
	})

	cleaned := Clean(table)
	require.Equal(t, 3, cleaned.Len())
	// median of 100, 100, 300
	assert.Equal(t, 100.0, cleaned.Records[2].Sales)
	// mean of 10, 10, 30
	assert.InDelta(t, 50.0/3, cleaned.Records[1].Orders, 1e-9)
	assert.Equal(t, Unknown, cleaned.Records[1].StoreType)

	// input untouched
	assert.True(t, math.IsNaN(table.Records[3].Sales))
}

func TestForwardFillTable(t *testing.T) {
	table := data.NewTable([]data.Record{
		{StoreType: "S1", Orders: 5, Sales: 10},
		{StoreType: "", Orders: math.NaN(), Sales: math.NaN()},
	})
	filled := ForwardFillTable(table)
	assert.Equal(t, "S1", filled.Records[1].StoreType)
	assert.Equal(t, 5.0, filled.Records[1].Orders)
	assert.Equal(t, 10.0, filled.Records[1].Sales)

	missing := MissingCounts(table)
	assert.Equal(t, 1, missing[data.ColSales])
	assert.Equal(t, 1, missing[data.ColStoreType])
	assert.Equal(t, 0, missing[data.ColStoreID])
}

func TestCalendarFeatures(t *testing.T) {
	// 2019-01-05 is a Saturday in ISO week 1.
	c := CalendarFeatures(time.Date(2019, time.January, 5, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 5.0, c.DayOfWeek)
	assert.Equal(t, 1.0, c.WeekOfYear)
	assert.Equal(t, 2019.0, c.Year)
	assert.Equal(t, 1.0, c.IsWeekend)

	// 2018-12-31 is a Monday in ISO week 1 of 2019.
	c = CalendarFeatures(time.Date(2018, time.December, 31, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 0.0, c.DayOfWeek)
	assert.Equal(t, 1.0, c.WeekOfYear)
	assert.Equal(t, 0.0, c.IsWeekend)
	assert.Len(t, c.Map(), 4)
}

func TestComputeLags(t *testing.T) {
	var records []data.Record
	for d := 0; d < 40; d++ {
		records = append(records,
			data.Record{StoreID: 1, Date: day(d), Sales: float64(d)},
			data.Record{StoreID: 2, Date: day(d), Sales: 1000},
		)
	}
	// shuffle store 1 order a little to check per-store date sorting
	records[0], records[2] = records[2], records[0]
	table := data.NewTable(records)
	lags := ComputeLags(table)

	idx := func(store float64, d int) int {
		for i, r := range table.Records {
			if r.StoreID == store && r.Date.Equal(day(d)) {
				return i
			}
		}
		t.Fatalf("row not found")
		return -1
	}

	assert.Equal(t, 0.0, lags.Lag7[idx(1, 6)])
	assert.Equal(t, 0.0, lags.MovingAvg7[idx(1, 6)])
	assert.Equal(t, 3.0, lags.Lag7[idx(1, 10)])
	// mean of 3..9
	assert.InDelta(t, 6.0, lags.MovingAvg7[idx(1, 10)], 1e-9)
	assert.Equal(t, 0.0, lags.Lag30[idx(1, 29)])
	assert.Equal(t, 5.0, lags.Lag30[idx(1, 35)])
	assert.InDelta(t, 1000.0, lags.MovingAvg7[idx(2, 20)], 1e-9)
}

func TestLogTransformRoundTrip(t *testing.T) {
	x := []float64{0, 1, 99.5, 12345}
	back := InverseLogTransform(LogTransform(x))
	for i := range x {
		assert.InDelta(t, x[i], back[i], 1e-6)
	}
}

func TestOneHotEncoder(t *testing.T) {
	enc := NewOneHotEncoder(true)
	cols := []string{"Store_Type", "Discount"}
	rows := [][]string{{"S2", "No"}, {"S1", "Yes"}, {"S3", "No"}}
	out, err := enc.FitTransform(cols, rows)
	require.NoError(t, err)

	assert.Equal(t, []string{"Store_Type_S2", "Store_Type_S3", "Discount_Yes"}, enc.FeatureNames())
	assert.Equal(t, [][]float64{{1, 0, 0}, {0, 0, 1}, {0, 1, 0}}, out)

	unknown, err := enc.TransformRow([]string{Unknown, "Maybe"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, unknown)

	_, err = enc.TransformRow([]string{"S1"})
	assert.Error(t, err)

	_, err = NewOneHotEncoder(false).TransformRow([]string{"x"})
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestDailySales(t *testing.T) {
	table := data.NewTable([]data.Record{
		{StoreID: 2, Date: day(1), Sales: 30},
		{StoreID: 1, Date: day(0), Sales: 10},
		{StoreID: 2, Date: day(0), Sales: 20},
		{StoreID: 1, Date: day(1), Sales: math.NaN()},
		{StoreID: 1, Date: day(2), Sales: math.NaN()},
	})
	dates, means, err := DailySales(table)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(0), day(1), day(2)}, dates)
	assert.Equal(t, 15.0, means[0])
	assert.Equal(t, 30.0, means[1])
	assert.True(t, math.IsNaN(means[2]))
}
