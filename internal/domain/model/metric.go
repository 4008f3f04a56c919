// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// ColumnCount is the arity of a MetricRow on both the source and the sink side.
const ColumnCount = 7

// Columns are the sink column names in positional order.
var Columns = [ColumnCount]string{
	"month",
	"sat_mean_trip_count",
	"sat_mean_fare_per_trip",
	"sat_mean_duration_per_trip",
	"sun_mean_trip_count",
	"sun_mean_fare_per_trip",
	"sun_mean_duration_per_trip",
}

// Sentinel kinds for row validation.
var (
	ErrInvalidMonth   = errors.New("invalid month")
	ErrDuplicateMonth = errors.New("duplicate month")
)

var monthPattern = regexp.MustCompile(`^[0-9]{4}-(0[1-9]|1[0-2])$`)

// MetricRow is one month of weekend trip aggregates.
// A side of the weekend may be entirely null when the source had no trips for it.
type MetricRow struct {
	Month string // YYYY-MM

	SaturdayMeanTripCount       decimal.NullDecimal
	SaturdayMeanFarePerTrip     decimal.NullDecimal
	SaturdayMeanDurationPerTrip decimal.NullDecimal // minutes

	SundayMeanTripCount       decimal.NullDecimal
	SundayMeanFarePerTrip     decimal.NullDecimal
	SundayMeanDurationPerTrip decimal.NullDecimal // minutes
}

// Values returns the row in sink column order.
func (r MetricRow) Values() []any {
	return []any{
		r.Month,
		r.SaturdayMeanTripCount,
		r.SaturdayMeanFarePerTrip,
		r.SaturdayMeanDurationPerTrip,
		r.SundayMeanTripCount,
		r.SundayMeanFarePerTrip,
		r.SundayMeanDurationPerTrip,
	}
}

// HasSaturday reports whether any Saturday metric is present.
func (r MetricRow) HasSaturday() bool {
	return r.SaturdayMeanTripCount.Valid || r.SaturdayMeanFarePerTrip.Valid || r.SaturdayMeanDurationPerTrip.Valid
}

// HasSunday reports whether any Sunday metric is present.
func (r MetricRow) HasSunday() bool {
	return r.SundayMeanTripCount.Valid || r.SundayMeanFarePerTrip.Valid || r.SundayMeanDurationPerTrip.Valid
}

// Validate checks the month key.
func (r MetricRow) Validate() error {
	if !monthPattern.MatchString(r.Month) {
		return fmt.Errorf("%w: %q", ErrInvalidMonth, r.Month)
	}
	return nil
}

// ValidateBatch validates every row and checks that months are unique.
func ValidateBatch(rows []MetricRow) error {
	seen := make(map[string]int, len(rows))
	for i, r := range rows {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		if j, ok := seen[r.Month]; ok {
			return fmt.Errorf("row %d: %w %s (first at row %d)", i, ErrDuplicateMonth, r.Month, j)
		}
		seen[r.Month] = i
	}
	return nil
}

// NullDecimal converts a nullable float into a decimal. The source rounds to
// one decimal place, so the shortest float representation is exact enough.
// v must be finite; decimal panics on NaN and infinities.
func NullDecimal(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*v))
}
