package normalize

import "github.com/amishk599/jobflow/internal/model"

// Working hours and days per month used for monthly equivalents.
const (
	HoursPerMonth = 209
	DaysPerMonth  = 20
)

// MonthlyWage converts an amount to its monthly equivalent. Annual pay is
// divided by 12 and rounded to two decimals. Unknown periods or a missing
// amount yield nil.
func MonthlyWage(wage model.WageType, value *float64) *float64 {
	if value == nil {
		return nil
	}
	var m float64
	switch wage {
	case model.WageHourly:
		m = *value * HoursPerMonth
	case model.WageDaily:
		m = *value * DaysPerMonth
	case model.WageMonthly:
		m = *value
	case model.WageAnnual:
		m = round(*value/12, 2)
	default:
		return nil
	}
	return &m
}
