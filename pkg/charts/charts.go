// Package charts renders the exploratory sales charts as PNG files.
package charts

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/op/go-logging"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"salesforecast/pkg/data"
	"salesforecast/pkg/dataprep"
)

var log = logging.MustGetLogger("log")

// Output file names.
const (
	HistogramFile  = "sales_histogram.png"
	BoxPlotFile    = "sales_boxplot.png"
	DiscountFile   = "sales_by_discount.png"
	DailySalesFile = "daily_sales.png"
)

const bins = 50

var (
	blue = color.RGBA{R: 50, G: 50, B: 255, A: 255}
	red  = color.RGBA{R: 255, A: 255}
)

// Render writes every chart into dir and returns the paths written. An empty
// dir disables rendering.
func Render(dir string, table *data.Table) ([]string, error) {
	if dir == "" {
		log.Debugf("Chart directory not configured, skipping charts")
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("charts: %w", err)
	}

	sales, err := table.Column(data.ColSales)
	if err != nil {
		return nil, err
	}
	sales = present(sales)
	if len(sales) == 0 {
		return nil, errors.New("charts: no sales values")
	}

	var written []string
	for _, c := range []struct {
		file string
		draw func() (*plot.Plot, error)
	}{
		{HistogramFile, func() (*plot.Plot, error) { return SalesHistogram(sales) }},
		{BoxPlotFile, func() (*plot.Plot, error) { return SalesBoxPlot(sales) }},
		{DiscountFile, func() (*plot.Plot, error) { return SalesByDiscount(table) }},
		{DailySalesFile, func() (*plot.Plot, error) { return DailySales(table) }},
	} {
		p, err := c.draw()
		if err != nil {
			return written, fmt.Errorf("charts: %s: %w", c.file, err)
		}
		path := filepath.Join(dir, c.file)
		if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
			return written, fmt.Errorf("charts: save %s: %w", c.file, err)
		}
		log.Infof("Saved chart to %s", path)
		written = append(written, path)
	}
	return written, nil
}

// SalesHistogram plots the distribution of sales.
func SalesHistogram(sales []float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Distribution of Sales"
	p.X.Label.Text = "Sales"
	p.Y.Label.Text = "Count"

	h, err := plotter.NewHist(plotter.Values(sales), bins)
	if err != nil {
		return nil, err
	}
	h.FillColor = blue
	p.Add(h)
	return p, nil
}

// SalesBoxPlot shows the spread and outliers of sales.
func SalesBoxPlot(sales []float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Sales Box Plot"
	p.Y.Label.Text = "Sales"

	b, err := plotter.NewBoxPlot(vg.Points(40), 0, plotter.Values(sales))
	if err != nil {
		return nil, err
	}
	p.Add(b)
	p.NominalX("Sales")
	return p, nil
}

// SalesByDiscount draws one box per discount value.
func SalesByDiscount(table *data.Table) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Sales by Discount"
	p.Y.Label.Text = "Sales"

	keys, groups, err := table.GroupBy(data.ColDiscount)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, k := range keys {
		v, err := table.Values(data.ColSales, groups[k])
		if err != nil {
			return nil, err
		}
		if v = present(v); len(v) == 0 {
			continue
		}
		b, err := plotter.NewBoxPlot(vg.Points(40), float64(len(names)), plotter.Values(v))
		if err != nil {
			return nil, err
		}
		p.Add(b)
		if k == "" {
			k = dataprep.Unknown
		}
		names = append(names, k)
	}
	if len(names) == 0 {
		return nil, errors.New("no sales values")
	}
	p.NominalX(names...)
	return p, nil
}

// DailySales plots mean sales per day.
func DailySales(table *data.Table) (*plot.Plot, error) {
	dates, means, err := dataprep.DailySales(table)
	if err != nil {
		return nil, err
	}
	pts := make(plotter.XYs, 0, len(dates))
	for i, d := range dates {
		if math.IsNaN(means[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(d.Unix()), Y: means[i]})
	}
	if len(pts) == 0 {
		return nil, errors.New("no daily sales")
	}

	p := plot.New()
	p.Title.Text = "Daily Average Sales"
	p.Y.Label.Text = "Sales"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02", Time: plot.UnixTimeIn(time.UTC)}

	l, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	l.Color = red
	l.LineStyle.Width = vg.Points(1)
	p.Add(l)
	return p, nil
}

func present(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
