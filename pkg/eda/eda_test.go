package eda

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesforecast/pkg/data"
)

func findings(t *testing.T, table *data.Table) map[string]Finding {
	fs, err := HypothesisTests(table, DefaultAlpha)
	require.NoError(t, err)
	require.Len(t, fs, 5)
	out := map[string]Finding{}
	for _, f := range fs {
		out[f.Name] = f
	}
	return out
}

func TestHypothesisDirections(t *testing.T) {
	fs := findings(t, data.GenerateSales(data.DefaultSyntheticConfig()))

	discount := fs["Discount vs sales (Welch t-test)"]
	assert.True(t, discount.Result.Significant(DefaultAlpha))
	assert.Equal(t, 1, discount.Result.Direction())
	assert.Equal(t, "sales are significantly higher with discount", discount.Conclusion)

	holiday := fs["Holiday vs sales (Welch t-test)"]
	assert.True(t, holiday.Result.Significant(DefaultAlpha))
	assert.Equal(t, -1, holiday.Result.Direction())
	assert.Equal(t, "sales are significantly lower on holidays", holiday.Conclusion)

	orders := fs["Orders vs sales (Pearson correlation)"]
	assert.True(t, orders.Result.Significant(DefaultAlpha))
	assert.Equal(t, 1, orders.Result.Direction())
	assert.Greater(t, orders.Result.Statistic, 0.5)

	for _, name := range []string{"Store type vs sales (one-way ANOVA)", "Region vs sales (Kruskal-Wallis)"} {
		f := fs[name]
		assert.GreaterOrEqual(t, f.Result.PValue, 0.0, name)
		assert.LessOrEqual(t, f.Result.PValue, 1.0, name)
	}
}

func TestHypothesisReversedEffects(t *testing.T) {
	cfg := data.DefaultSyntheticConfig()
	cfg.DiscountEffect = -8000
	cfg.HolidayEffect = 9000
	fs := findings(t, data.GenerateSales(cfg))

	assert.Equal(t, -1, fs["Discount vs sales (Welch t-test)"].Result.Direction())
	assert.Equal(t, "sales are significantly lower with discount", fs["Discount vs sales (Welch t-test)"].Conclusion)
	assert.Equal(t, 1, fs["Holiday vs sales (Welch t-test)"].Result.Direction())
	assert.Equal(t, "sales are significantly higher on holidays", fs["Holiday vs sales (Welch t-test)"].Conclusion)
}

func TestAnalyze(t *testing.T) {
	table := data.GenerateSales(data.DefaultSyntheticConfig())
	table.Records[3].Sales = math.NaN()
	table.Records[5].Discount = ""

	r, err := Analyze(table, DefaultAlpha)
	require.NoError(t, err)

	assert.Equal(t, 720, r.Rows)
	assert.Equal(t, 1, r.Missing[data.ColSales])
	assert.Equal(t, 1, r.Missing[data.ColDiscount])
	assert.True(t, math.IsNaN(table.Records[3].Sales), "input must not be modified")
	assert.Equal(t, 720, r.Numeric[data.ColSales].Count)

	assert.Less(t, r.SalesLower, r.SalesUpper)
	it := r.Outliers.Iterator()
	for it.HasNext() {
		s := table.Records[it.Next()].Sales
		if math.IsNaN(s) {
			continue
		}
		assert.True(t, s < r.SalesLower || s > r.SalesUpper)
	}

	assert.Len(t, r.Findings, 5)
	require.Len(t, r.Correlation, 4)
	for i := range r.Correlation {
		assert.InDelta(t, 1.0, r.Correlation[i][i], 1e-9)
	}

	require.Len(t, r.Monthly, 4)
	assert.Equal(t, "2018-01", r.Monthly[0].Key)
	assert.Equal(t, 31*6, r.Monthly[0].Count)
	assert.Equal(t, 28*6, r.Monthly[1].Count)

	storeTypes := r.ByCategory[data.ColStoreType]
	require.Len(t, storeTypes, 4)
	assert.Equal(t, "S1", storeTypes[0].Key)

	discount := r.ByCategory[data.ColDiscount]
	require.Len(t, discount, 2)
	assert.Greater(t, discount[1].Median, discount[0].Median)

	require.Len(t, r.ACF, MaxACFLag+1)
	assert.InDelta(t, 1.0, r.ACF[0], 1e-9)

	var buf bytes.Buffer
	require.NoError(t, Print(&buf, r))
	assert.Contains(t, buf.String(), "Hypothesis tests")
	assert.Contains(t, buf.String(), "sales are significantly higher with discount")
}

func TestAnalyzeRejectsEmptyTable(t *testing.T) {
	_, err := Analyze(data.NewTable(nil), DefaultAlpha)
	assert.Error(t, err)
}

func TestHypothesisTestsAreIndependent(t *testing.T) {
	table := data.GenerateSales(data.DefaultSyntheticConfig())
	for i := range table.Records {
		table.Records[i].Discount = "Yes"
	}

	fs := findings(t, table)
	discount := fs["Discount vs sales (Welch t-test)"]
	assert.Error(t, discount.Err)
	assert.True(t, math.IsNaN(discount.Result.PValue))
	assert.False(t, discount.Result.Significant(DefaultAlpha))
	assert.Contains(t, discount.Conclusion, "not computed")

	for name, f := range fs {
		if name == discount.Name {
			continue
		}
		assert.NoError(t, f.Err, name)
		assert.False(t, math.IsNaN(f.Result.PValue), name)
	}
	assert.Equal(t, -1, fs["Holiday vs sales (Welch t-test)"].Result.Direction())

	r, err := Analyze(table, DefaultAlpha)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, r))
	assert.Contains(t, buf.String(), "not computed")
}
