package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/amishk599/jobflow/internal/model"
)

// Keyword markers are checked in this order; the first hit wins.
var wageMarkers = []struct {
	keyword string
	wage    model.WageType
}{
	{"시급", model.WageHourly},
	{"일급", model.WageDaily},
	{"월급", model.WageMonthly},
	{"연봉", model.WageAnnual},
	{"내규", model.WageByPolicy},
}

var (
	digitsRe       = regexp.MustCompile(`\d+`)
	thousandsSepRe = regexp.MustCompile(`(\d),(\d{3})`)
	explicitWageRe = regexp.MustCompile(`\(?(월급|시급)\)?\s*[/\\]?\s*([0-9,\.]+)\s*(만원|원)?`)
	fallbackWageRe = regexp.MustCompile(`([0-9,\.]+)\s*(만원|원)`)
)

const tenThousand = 10000

// ParseSalary reads a free-text salary condition such as "월급 200만원 ~ 250만원"
// and returns the pay period and the amount in won.
//
// Blank text yields (WageUnspecified, nil). Text without digits yields the
// detected period and nil. A "~" range averages every number, "이하" takes the
// largest, "이상"/"초과" the smallest, otherwise the first number is used.
func ParseSalary(text string) (model.WageType, *float64) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.WageUnspecified, nil
	}

	wage := model.WageAnnual
	for _, m := range wageMarkers {
		if strings.Contains(text, m.keyword) {
			wage = m.wage
			break
		}
	}

	nums := integerTokens(text)
	if len(nums) == 0 {
		return wage, nil
	}

	var value float64
	switch {
	case strings.Contains(text, "~"):
		value = mean(nums)
	case strings.Contains(text, "이하"):
		value = maxOf(nums)
	case strings.Contains(text, "이상"), strings.Contains(text, "초과"):
		value = minOf(nums)
	default:
		value = nums[0]
	}

	if strings.Contains(text, "만원") {
		value *= tenThousand
	}
	value = round(value, 1)
	return wage, &value
}

// ParseWage reads the pattern-style wage text used by the Seoul feed, e.g.
// "(시급) 10,030원" or "월급 / 250만원". A missing period is inferred from the
// amount: one million won or more is treated as annual pay.
func ParseWage(text string) (model.WageType, *float64) {
	wage, value := matchWage(strings.TrimSpace(text))
	if wage != "" {
		return wage, value
	}
	if value != nil && *value >= 1_000_000 {
		return model.WageAnnual, value
	}
	return model.WageUnspecified, value
}

func matchWage(s string) (model.WageType, *float64) {
	if s == "" {
		return "", nil
	}
	if m := explicitWageRe.FindStringSubmatch(s); m != nil {
		return model.WageType(m[1]), wageAmount(m[2], m[3])
	}
	if m := fallbackWageRe.FindStringSubmatch(s); m != nil {
		var wage model.WageType
		switch {
		case strings.Contains(s, "월"):
			wage = model.WageMonthly
		case strings.Contains(s, "시"):
			wage = model.WageHourly
		}
		return wage, wageAmount(m[1], m[2])
	}
	return "", nil
}

// wageAmount truncates the captured number to whole won before applying the
// 만원 multiplier.
func wageAmount(num, unit string) *float64 {
	f, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
	if err != nil {
		return nil
	}
	v := math.Trunc(f)
	if unit == "만원" {
		v *= tenThousand
	}
	return &v
}

func integerTokens(text string) []float64 {
	folded := text
	for {
		next := thousandsSepRe.ReplaceAllString(folded, "$1$2")
		if next == folded {
			break
		}
		folded = next
	}
	var nums []float64
	for _, tok := range digitsRe.FindAllString(folded, -1) {
		n, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			continue
		}
		nums = append(nums, n)
	}
	return nums
}

func mean(nums []float64) float64 {
	var sum float64
	for _, n := range nums {
		sum += n
	}
	return sum / float64(len(nums))
}

func maxOf(nums []float64) float64 {
	m := nums[0]
	for _, n := range nums[1:] {
		if n > m {
			m = n
		}
	}
	return m
}

func minOf(nums []float64) float64 {
	m := nums[0]
	for _, n := range nums[1:] {
		if n < m {
			m = n
		}
	}
	return m
}

// round rounds to places decimals with halves away from zero (2.25 -> 2.3),
// not to the nearest even digit.
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
