package charts

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesforecast/pkg/data"
)

func TestRenderWritesEveryChart(t *testing.T) {
	cfg := data.DefaultSyntheticConfig()
	cfg.Days = 30
	dir := filepath.Join(t.TempDir(), "charts")

	paths, err := Render(dir, data.GenerateSales(cfg))
	require.NoError(t, err)
	require.Len(t, paths, 4)
	for _, name := range []string{HistogramFile, BoxPlotFile, DiscountFile, DailySalesFile} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
}

func TestRenderDisabledWithoutDir(t *testing.T) {
	paths, err := Render("", data.GenerateSales(data.DefaultSyntheticConfig()))
	assert.NoError(t, err)
	assert.Empty(t, paths)
}

func TestRenderRejectsEmptySales(t *testing.T) {
	_, err := Render(t.TempDir(), data.NewTable(nil))
	assert.Error(t, err)
}

func TestSalesByDiscountOneBoxPerGroup(t *testing.T) {
	p, err := SalesByDiscount(data.GenerateSales(data.DefaultSyntheticConfig()))
	require.NoError(t, err)
	assert.Len(t, p.X.Tick.Marker.Ticks(0, 1), 2)
}
