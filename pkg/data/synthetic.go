package data

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// SyntheticConfig shapes a generated sales dataset. The effects are added
// to a base level so tests can assert the direction of each one.
type SyntheticConfig struct {
	Stores         int
	Days           int
	Start          time.Time
	Seed           int64
	BaseSales      float64
	DiscountEffect float64 // added on discount days
	HolidayEffect  float64 // added on holidays
	OrderValue     float64 // sales per order
	Noise          float64 // std of gaussian noise
}

// DefaultSyntheticConfig mirrors the shape of the real dataset at a small
// scale: discounts raise sales, holidays lower them.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Stores:         6,
		Days:           120,
		Start:          time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC),
		Seed:           42,
		BaseSales:      20000,
		DiscountEffect: 8000,
		HolidayEffect:  -5000,
		OrderValue:     600,
		Noise:          1500,
	}
}

var (
	storeTypes    = []string{"S1", "S2", "S3", "S4"}
	locationTypes = []string{"L1", "L2", "L3"}
	regionCodes   = []string{"R1", "R2", "R3", "R4"}
)

// GenerateSales builds a table with one row per store per day.
func GenerateSales(cfg SyntheticConfig) *Table {
	rng := rand.New(rand.NewSource(cfg.Seed))
	weekly := []float64{0, -0.02, 0.01, 0.03, 0.06, 0.12, 0.08}
	records := make([]Record, 0, cfg.Stores*cfg.Days)
	n := 0
	for d := 0; d < cfg.Days; d++ {
		date := cfg.Start.AddDate(0, 0, d)
		holiday := 0.0
		if rng.Float64() < 0.1 {
			holiday = 1
		}
		for s := 1; s <= cfg.Stores; s++ {
			n++
			discount := "No"
			if rng.Float64() < 0.4 {
				discount = "Yes"
			}
			orders := math.Round(30 + 10*rng.NormFloat64())
			if orders < 1 {
				orders = 1
			}
			sales := cfg.BaseSales*(1+weekly[(int(date.Weekday())+6)%7]) +
				cfg.OrderValue*(orders-30) + cfg.Noise*rng.NormFloat64()
			if discount == "Yes" {
				sales += cfg.DiscountEffect
			}
			sales += holiday * cfg.HolidayEffect
			records = append(records, Record{
				ID:           fmt.Sprintf("T%07d", 1000000+n),
				StoreID:      float64(s),
				StoreType:    storeTypes[s%len(storeTypes)],
				LocationType: locationTypes[s%len(locationTypes)],
				RegionCode:   regionCodes[(s/2)%len(regionCodes)],
				Date:         date,
				Holiday:      holiday,
				Discount:     discount,
				Orders:       orders,
				Sales:        math.Max(0, math.Round(sales*100)/100),
			})
		}
	}
	return NewTable(records)
}
