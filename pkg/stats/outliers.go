package stats

import "github.com/RoaringBitmap/roaring"

// IQRBounds returns the Tukey fences Q1 - 1.5*IQR and Q3 + 1.5*IQR.
func IQRBounds(x []float64) (lower, upper float64) {
	q1, q3 := Percentile(x, 25), Percentile(x, 75)
	iqr := q3 - q1
	return q1 - 1.5*iqr, q3 + 1.5*iqr
}

// Outliers returns the indices of x lying outside the IQR bounds.
func Outliers(x []float64) *roaring.Bitmap {
	lower, upper := IQRBounds(x)
	out := roaring.New()
	for i, v := range x {
		if v < lower || v > upper {
			out.Add(uint32(i))
		}
	}
	return out
}
