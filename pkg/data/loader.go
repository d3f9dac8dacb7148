package data

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("log")

var columnTypes = map[string]series.Type{
	ColID:           series.String,
	ColStoreID:      series.Float,
	ColStoreType:    series.String,
	ColLocationType: series.String,
	ColRegionCode:   series.String,
	ColDate:         series.String,
	ColHoliday:      series.Float,
	ColDiscount:     series.String,
	ColOrders:       series.Float,
	ColSales:        series.Float,
}

// LoadCSV opens path and parses it with ReadCSV.
func LoadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("data: open %q: %w", path, err)
	}
	defer file.Close()

	table, err := ReadCSV(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("data: %q: %w", path, err)
	}
	log.Infof("Loaded %d rows from %s", table.Len(), path)
	return table, nil
}

// ReadCSV parses a sales CSV into a Table. Every column in Columns must be
// present; extra columns are ignored.
func ReadCSV(r io.Reader) (*Table, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.WithTypes(columnTypes),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("read csv: %w", df.Err)
	}

	present := make(map[string]bool, df.Ncol())
	for _, name := range df.Names() {
		present[name] = true
	}
	for _, name := range Columns {
		if !present[name] {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	floats := make(map[string][]float64, len(NumericColumns))
	for _, name := range NumericColumns {
		floats[name] = df.Col(name).Float()
	}
	strs := make(map[string][]string, len(CategoricalColumns)+1)
	for _, name := range append([]string{ColDate}, CategoricalColumns...) {
		strs[name] = df.Col(name).Records()
	}

	n := df.Nrow()
	records := make([]Record, n)
	for i := 0; i < n; i++ {
		date, err := ParseDate(strs[ColDate][i])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		records[i] = Record{
			ID:           category(strs[ColID][i]),
			StoreID:      floats[ColStoreID][i],
			StoreType:    category(strs[ColStoreType][i]),
			LocationType: category(strs[ColLocationType][i]),
			RegionCode:   category(strs[ColRegionCode][i]),
			Date:         date,
			Holiday:      floats[ColHoliday][i],
			Discount:     category(strs[ColDiscount][i]),
			Orders:       floats[ColOrders][i],
			Sales:        floats[ColSales][i],
		}
	}
	return NewTable(records), nil
}

// category normalises the missing-value markers gota emits for strings.
func category(s string) string {
	s = strings.TrimSpace(s)
	switch s {
	case "NaN", "NA", "<nil>":
		return ""
	}
	return s
}
