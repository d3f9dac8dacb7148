package data

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring"
)

// Column names of the sales CSV.
const (
	ColID           = "ID"
	ColStoreID      = "Store_id"
	ColStoreType    = "Store_Type"
	ColLocationType = "Location_Type"
	ColRegionCode   = "Region_Code"
	ColDate         = "Date"
	ColHoliday      = "Holiday"
	ColDiscount     = "Discount"
	ColOrders       = "#Order"
	ColSales        = "Sales"
)

// Columns lists every column the loader requires, in file order.
var Columns = []string{
	ColID, ColStoreID, ColStoreType, ColLocationType, ColRegionCode,
	ColDate, ColHoliday, ColDiscount, ColOrders, ColSales,
}

// NumericColumns are the columns parsed as float64.
var NumericColumns = []string{ColStoreID, ColHoliday, ColOrders, ColSales}

// CategoricalColumns are the columns kept as strings.
var CategoricalColumns = []string{ColID, ColStoreType, ColLocationType, ColRegionCode, ColDiscount}

var (
	ErrMissingColumn = errors.New("missing column")
	ErrUnknownColumn = errors.New("unknown column")
	ErrBadDate       = errors.New("unparsable date")
)

var dateLayouts = []string{"2006-01-02", "02-01-2006", "2006-01-02 15:04:05", time.RFC3339}

// ParseDate accepts the date layouts found in the sales exports
// (YYYY-MM-DD and DD-MM-YYYY).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
}

// Record is one row of the sales dataset. Missing numeric values are NaN,
// missing categoricals are "".
type Record struct {
	ID           string
	StoreID      float64
	StoreType    string
	LocationType string
	RegionCode   string
	Date         time.Time
	Holiday      float64
	Discount     string
	Orders       float64
	Sales        float64
}

// Float returns a numeric column of the record.
func (r Record) Float(column string) (float64, error) {
	switch column {
	case ColStoreID:
		return r.StoreID, nil
	case ColHoliday:
		return r.Holiday, nil
	case ColOrders:
		return r.Orders, nil
	case ColSales:
		return r.Sales, nil
	}
	return math.NaN(), fmt.Errorf("%w: %q is not numeric", ErrUnknownColumn, column)
}

// String returns a categorical column of the record.
func (r Record) String(column string) (string, error) {
	switch column {
	case ColID:
		return r.ID, nil
	case ColStoreType:
		return r.StoreType, nil
	case ColLocationType:
		return r.LocationType, nil
	case ColRegionCode:
		return r.RegionCode, nil
	case ColDiscount:
		return r.Discount, nil
	case ColDate:
		return r.Date.Format("2006-01-02"), nil
	}
	return "", fmt.Errorf("%w: %q is not categorical", ErrUnknownColumn, column)
}

// Table is an ordered, in-memory set of records.
type Table struct {
	Records []Record
}

func NewTable(records []Record) *Table {
	return &Table{Records: records}
}

func (t *Table) Len() int { return len(t.Records) }

// Column extracts a numeric column.
func (t *Table) Column(name string) ([]float64, error) {
	out := make([]float64, len(t.Records))
	for i, r := range t.Records {
		v, err := r.Float(name)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Strings extracts a categorical column.
func (t *Table) Strings(name string) ([]string, error) {
	out := make([]string, len(t.Records))
	for i, r := range t.Records {
		v, err := r.String(name)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Where returns the indices of the rows matching pred.
func (t *Table) Where(pred func(Record) bool) *roaring.Bitmap {
	mask := roaring.New()
	for i, r := range t.Records {
		if pred(r) {
			mask.Add(uint32(i))
		}
	}
	return mask
}

// Select returns a new table holding the rows in mask, in row order.
func (t *Table) Select(mask *roaring.Bitmap) *Table {
	out := make([]Record, 0, mask.GetCardinality())
	it := mask.Iterator()
	for it.HasNext() {
		out = append(out, t.Records[it.Next()])
	}
	return &Table{Records: out}
}

// Values returns column values for the rows in mask.
func (t *Table) Values(name string, mask *roaring.Bitmap) ([]float64, error) {
	out := make([]float64, 0, mask.GetCardinality())
	it := mask.Iterator()
	for it.HasNext() {
		v, err := t.Records[it.Next()].Float(name)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// GroupBy partitions the rows by the value of a categorical column. Keys are
// returned sorted.
func (t *Table) GroupBy(column string) ([]string, map[string]*roaring.Bitmap, error) {
	groups := make(map[string]*roaring.Bitmap)
	for i, r := range t.Records {
		key, err := r.String(column)
		if err != nil {
			return nil, nil, err
		}
		g, ok := groups[key]
		if !ok {
			g = roaring.New()
			groups[key] = g
		}
		g.Add(uint32(i))
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, groups, nil
}

// SortByDate orders the records by date, then store, keeping the original
// order for ties.
func (t *Table) SortByDate() {
	sort.SliceStable(t.Records, func(i, j int) bool {
		a, b := t.Records[i], t.Records[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.StoreID < b.StoreID
	})
}
