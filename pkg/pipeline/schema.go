package pipeline

import (
	"salesforecast/pkg/data"
	"salesforecast/pkg/dataprep"
)

// Feature groups, in the order they appear in a feature row.
var (
	PassthroughFeatures = []string{data.ColStoreID, data.ColHoliday, data.ColOrders}
	CalendarFeatures    = []string{dataprep.FeatDayOfWeek, dataprep.FeatWeekOfYear, dataprep.FeatYear, dataprep.FeatIsWeekend}
	LagFeatures         = []string{dataprep.FeatSalesLag7, dataprep.FeatSalesMovingAvg7, dataprep.FeatSalesLag30}
)

// EncodedColumns are the categorical inputs of the one-hot encoder.
var EncodedColumns = []string{data.ColStoreType, data.ColLocationType, data.ColDiscount, data.ColRegionCode}

// ScaledColumns are min-max scaled after alignment.
var ScaledColumns = []string{dataprep.FeatSalesLag7, dataprep.FeatSalesMovingAvg7, dataprep.FeatSalesLag30, data.ColOrders}

// Schema describes the structure of a feature row.
type Schema struct {
	FeatureNames []string
}

// NewSchema lays out passthrough, calendar and lag features followed by the
// encoder's output columns.
func NewSchema(enc *dataprep.OneHotEncoder) Schema {
	var names []string
	names = append(names, PassthroughFeatures...)
	names = append(names, CalendarFeatures...)
	names = append(names, LagFeatures...)
	names = append(names, enc.FeatureNames()...)
	return Schema{FeatureNames: names}
}

// Index maps each feature name to its position.
func (s Schema) Index() map[string]int {
	idx := make(map[string]int, len(s.FeatureNames))
	for i, n := range s.FeatureNames {
		idx[n] = i
	}
	return idx
}
