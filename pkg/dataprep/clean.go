package dataprep

import (
	"fmt"

	"github.com/op/go-logging"

	"salesforecast/pkg/data"
)

var log = logging.MustGetLogger("log")

// Clean prepares a table for training: Sales gaps are filled with the median,
// #Order gaps with the mean, missing categoricals with Unknown, and exact
// duplicate rows are dropped. The input table is not modified.
func Clean(table *data.Table) *data.Table {
	records := make([]data.Record, table.Len())
	copy(records, table.Records)

	sales := make([]float64, len(records))
	orders := make([]float64, len(records))
	for i, r := range records {
		sales[i] = r.Sales
		orders[i] = r.Orders
	}
	median := ImputeMedian(sales)
	mean := ImputeMean(orders)
	log.Debugf("Imputed Sales with median %.4f and #Order with mean %.4f", median, mean)

	filled := 0
	for i := range records {
		records[i].Sales = sales[i]
		records[i].Orders = orders[i]
		for _, field := range []*string{&records[i].StoreType, &records[i].LocationType, &records[i].RegionCode, &records[i].Discount} {
			if *field == "" {
				*field = Unknown
				filled++
			}
		}
	}
	if filled > 0 {
		log.Infof("Filled %d missing categorical values with %q", filled, Unknown)
	}

	deduped := DropDuplicates(records)
	if dropped := len(records) - len(deduped); dropped > 0 {
		log.Infof("Dropped %d duplicate rows", dropped)
	}
	return data.NewTable(deduped)
}

// DropDuplicates removes rows that repeat an earlier row exactly.
func DropDuplicates(records []data.Record) []data.Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]data.Record, 0, len(records))
	for _, r := range records {
		key := fmt.Sprintf("%s|%v|%s|%s|%s|%d|%v|%s|%v|%v",
			r.ID, r.StoreID, r.StoreType, r.LocationType, r.RegionCode,
			r.Date.Unix(), r.Holiday, r.Discount, r.Orders, r.Sales)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

// ForwardFillTable fills every missing value with the previous row's value,
// column by column. The input table is not modified.
func ForwardFillTable(table *data.Table) *data.Table {
	records := make([]data.Record, table.Len())
	copy(records, table.Records)

	numeric := map[string]func(*data.Record) *float64{
		data.ColStoreID: func(r *data.Record) *float64 { return &r.StoreID },
		data.ColHoliday: func(r *data.Record) *float64 { return &r.Holiday },
		data.ColOrders:  func(r *data.Record) *float64 { return &r.Orders },
		data.ColSales:   func(r *data.Record) *float64 { return &r.Sales },
	}
	for _, field := range numeric {
		col := make([]float64, len(records))
		for i := range records {
			col[i] = *field(&records[i])
		}
		ForwardFill(col)
		for i := range records {
			*field(&records[i]) = col[i]
		}
	}

	categorical := map[string]func(*data.Record) *string{
		data.ColID:           func(r *data.Record) *string { return &r.ID },
		data.ColStoreType:    func(r *data.Record) *string { return &r.StoreType },
		data.ColLocationType: func(r *data.Record) *string { return &r.LocationType },
		data.ColRegionCode:   func(r *data.Record) *string { return &r.RegionCode },
		data.ColDiscount:     func(r *data.Record) *string { return &r.Discount },
	}
	for _, field := range categorical {
		col := make([]string, len(records))
		for i := range records {
			col[i] = *field(&records[i])
		}
		ForwardFillStrings(col)
		for i := range records {
			*field(&records[i]) = col[i]
		}
	}
	return data.NewTable(records)
}

// MissingCounts reports the number of missing values per column.
func MissingCounts(table *data.Table) map[string]int {
	counts := make(map[string]int, len(data.Columns))
	for _, name := range data.Columns {
		counts[name] = 0
	}
	for _, r := range table.Records {
		for _, name := range data.NumericColumns {
			if v, _ := r.Float(name); v != v {
				counts[name]++
			}
		}
		for _, name := range data.CategoricalColumns {
			if v, _ := r.String(name); v == "" {
				counts[name]++
			}
		}
		if r.Date.IsZero() {
			counts[data.ColDate]++
		}
	}
	return counts
}
