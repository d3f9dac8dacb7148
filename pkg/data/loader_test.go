package data

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `ID,Store_id,Store_Type,Location_Type,Region_Code,Date,Holiday,Discount,#Order,Sales
T1000001,1,S1,L3,R1,2018-01-01,1,Yes,9,7011.84
T1000002,253,S4,L2,R1,2018-01-01,1,Yes,60,51789.12
T1000003,252,S3,L2,R1,02-01-2018,0,No,,36868.2
T1000004,251,,L3,R1,2018-01-03,1,Yes,40,
`

func TestReadCSV(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Equal(t, 4, table.Len())

	first := table.Records[0]
	assert.Equal(t, "T1000001", first.ID)
	assert.Equal(t, 1.0, first.StoreID)
	assert.Equal(t, "S1", first.StoreType)
	assert.Equal(t, "Yes", first.Discount)
	assert.Equal(t, 7011.84, first.Sales)
	assert.Equal(t, time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), first.Date)

	// DD-MM-YYYY is accepted.
	assert.Equal(t, time.Date(2018, 1, 2, 0, 0, 0, 0, time.UTC), table.Records[2].Date)

	assert.True(t, math.IsNaN(table.Records[2].Orders))
	assert.True(t, math.IsNaN(table.Records[3].Sales))
	assert.Equal(t, "", table.Records[3].StoreType)
}

func TestReadCSVMissingColumn(t *testing.T) {
	csv := "ID,Store_id,Date,Sales\nT1,1,2018-01-01,10\n"
	_, err := ReadCSV(strings.NewReader(csv))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadCSVBadDate(t *testing.T) {
	csv := strings.Replace(sampleCSV, "2018-01-03", "yesterday", 1)
	_, err := ReadCSV(strings.NewReader(csv))
	assert.ErrorIs(t, err, ErrBadDate)
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "TRAIN.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	table, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 4, table.Len())

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
