package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time { return time.Date(2019, 3, d, 0, 0, 0, 0, time.UTC) }

func sampleTable() *Table {
	return NewTable([]Record{
		{StoreID: 2, StoreType: "S1", Discount: "Yes", Date: day(2), Sales: 100},
		{StoreID: 1, StoreType: "S2", Discount: "No", Date: day(2), Sales: 50},
		{StoreID: 1, StoreType: "S2", Discount: "Yes", Date: day(1), Sales: 80},
		{StoreID: 3, StoreType: "S1", Discount: "No", Date: day(1), Sales: 20},
	})
}

func TestWhereAndValues(t *testing.T) {
	table := sampleTable()
	mask := table.Where(func(r Record) bool { return r.Discount == "Yes" })

	assert.Equal(t, uint64(2), mask.GetCardinality())
	sales, err := table.Values(ColSales, mask)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 80}, sales)

	sub := table.Select(mask)
	assert.Equal(t, 2, sub.Len())
	assert.Equal(t, "S2", sub.Records[1].StoreType)
}

func TestGroupBy(t *testing.T) {
	keys, groups, err := sampleTable().GroupBy(ColStoreType)
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "S2"}, keys)
	assert.Equal(t, []uint32{0, 3}, groups["S1"].ToArray())
	assert.Equal(t, []uint32{1, 2}, groups["S2"].ToArray())

	_, _, err = sampleTable().GroupBy(ColSales)
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestColumnAccessors(t *testing.T) {
	table := sampleTable()
	sales, err := table.Column(ColSales)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 50, 80, 20}, sales)

	_, err = table.Column(ColStoreType)
	assert.ErrorIs(t, err, ErrUnknownColumn)

	types, err := table.Strings(ColStoreType)
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "S2", "S2", "S1"}, types)
}

func TestSortByDate(t *testing.T) {
	table := sampleTable()
	table.SortByDate()

	var got []float64
	for _, r := range table.Records {
		got = append(got, r.StoreID)
	}
	assert.Equal(t, []float64{1, 3, 1, 2}, got)
}
