package normalize

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"testing/quick"

	"github.com/amishk599/jobflow/internal/model"
)

func floatPtr(f float64) *float64 { return &f }

func equalPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return math.Abs(*a-*b) < 1e-9
}

func fmtPtr(f *float64) string {
	if f == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%v", *f)
}

func TestParseSalary(t *testing.T) {
	tests := []struct {
		text      string
		wantType  model.WageType
		wantValue *float64
	}{
		{"", model.WageUnspecified, nil},
		{"   ", model.WageUnspecified, nil},
		{"회사내규에 따름", model.WageByPolicy, nil},
		{"시급 10030원", model.WageHourly, floatPtr(10030)},
		{"일급 15만원", model.WageDaily, floatPtr(150000)},
		{"월급 200만원 ~ 250만원", model.WageMonthly, floatPtr(2250000)},
		{"연봉 3000만원 이상", model.WageAnnual, floatPtr(30000000)},
		{"연봉 2400만원 ~ 3000만원 이상", model.WageAnnual, floatPtr(27000000)},
		{"월 300만원 이하 (250만원부터)", model.WageAnnual, floatPtr(3000000)},
		{"2800만원 초과 3200만원", model.WageAnnual, floatPtr(28000000)},
		{"3500", model.WageAnnual, floatPtr(3500)},
		{"월급 2,500,000원", model.WageMonthly, floatPtr(2500000)},
		{"시급 10 ~ 11", model.WageHourly, floatPtr(10.5)},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			gotType, gotValue := ParseSalary(tt.text)
			if gotType != tt.wantType {
				t.Errorf("type = %q, want %q", gotType, tt.wantType)
			}
			if !equalPtr(gotValue, tt.wantValue) {
				t.Errorf("value = %s, want %s", fmtPtr(gotValue), fmtPtr(tt.wantValue))
			}
		})
	}
}

func TestParseSalary_RangeIsMeanOfAllTokens(t *testing.T) {
	prop := func(raw []uint16) bool {
		if len(raw) == 0 {
			return true
		}
		parts := make([]string, len(raw))
		var sum float64
		for i, n := range raw {
			parts[i] = fmt.Sprint(n)
			sum += float64(n)
		}
		text := "월급 " + strings.Join(parts, " ~ ")

		_, got := ParseSalary(text)
		want := math.Round(sum/float64(len(raw))*10) / 10
		return got != nil && math.Abs(*got-want) < 1e-9
	}
	if err := quick.Check(prop, nil); err != nil {
		t.Error(err)
	}
}

func TestParseWage(t *testing.T) {
	tests := []struct {
		text      string
		wantType  model.WageType
		wantValue *float64
	}{
		{"", model.WageUnspecified, nil},
		{"(시급) 10,030원", model.WageHourly, floatPtr(10030)},
		{"월급 / 250만원", model.WageMonthly, floatPtr(2500000)},
		{"월급\\2,600,000원", model.WageMonthly, floatPtr(2600000)},
		{"시급 9860", model.WageHourly, floatPtr(9860)},
		{"매월 220만원", model.WageMonthly, floatPtr(2200000)},
		{"시간당 1.2만원", model.WageHourly, floatPtr(10000)},
		{"3600만원", model.WageAnnual, floatPtr(36000000)},
		{"50만원", model.WageUnspecified, floatPtr(500000)},
		{"협의", model.WageUnspecified, nil},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			gotType, gotValue := ParseWage(tt.text)
			if gotType != tt.wantType {
				t.Errorf("type = %q, want %q", gotType, tt.wantType)
			}
			if !equalPtr(gotValue, tt.wantValue) {
				t.Errorf("value = %s, want %s", fmtPtr(gotValue), fmtPtr(tt.wantValue))
			}
		})
	}
}

func TestMonthlyWage(t *testing.T) {
	tests := []struct {
		wage  model.WageType
		value *float64
		want  *float64
	}{
		{model.WageHourly, floatPtr(10000), floatPtr(2090000)},
		{model.WageDaily, floatPtr(100000), floatPtr(2000000)},
		{model.WageMonthly, floatPtr(2500000), floatPtr(2500000)},
		{model.WageAnnual, floatPtr(36000000), floatPtr(3000000)},
		{model.WageAnnual, floatPtr(1000), floatPtr(83.33)},
		{model.WageByPolicy, floatPtr(1000), nil},
		{model.WageUnspecified, floatPtr(1000), nil},
		{model.WageHourly, nil, nil},
	}
	for _, tt := range tests {
		got := MonthlyWage(tt.wage, tt.value)
		if !equalPtr(got, tt.want) {
			t.Errorf("MonthlyWage(%q, %s) = %s, want %s", tt.wage, fmtPtr(tt.value), fmtPtr(got), fmtPtr(tt.want))
		}
	}
}

func TestSplitRegion(t *testing.T) {
	got := SplitRegion("수원시, 서울 강남구", "경기")
	want := [5]string{"경기 수원시", "서울 강남구", "", "", ""}
	if got != want {
		t.Errorf("SplitRegion = %q, want %q", got, want)
	}
}

func TestSplitRegion_AbsentAndNone(t *testing.T) {
	for _, in := range []string{"", "  ", "None", "NONE", "none"} {
		if got := SplitRegion(in, "경기"); got != [5]string{} {
			t.Errorf("SplitRegion(%q) = %q, want all empty", in, got)
		}
	}
}

func TestSplitRegion_TruncatesAndDropsEmptySegments(t *testing.T) {
	got := SplitRegion("a,,b, c ,d,e,f,g", "경기")
	want := [5]string{"경기 a", "경기 b", "경기 c", "경기 d", "경기 e"}
	if got != want {
		t.Errorf("SplitRegion = %q, want %q", got, want)
	}
}

func TestSplitRegion_AllowList(t *testing.T) {
	got := SplitRegion("전국, 광주광역시 북구, 광주시, 제주 서귀포시", "경기")
	want := [5]string{"전국", "광주광역시 북구", "경기 광주시", "제주 서귀포시", ""}
	if got != want {
		t.Errorf("SplitRegion = %q, want %q", got, want)
	}
}

func TestSplitRegion_EmptyPrefix(t *testing.T) {
	got := SplitRegion("강남구, 서초구", "")
	want := [5]string{"강남구", "서초구", "", "", ""}
	if got != want {
		t.Errorf("SplitRegion = %q, want %q", got, want)
	}
}

func TestJoinRegion(t *testing.T) {
	if got := JoinRegion("수원시, 서울 강남구,a,b,c,d", "경기"); got != "경기 수원시, 서울 강남구, 경기 a, 경기 b, 경기 c, 경기 d" {
		t.Errorf("JoinRegion = %q", got)
	}
	if got := JoinRegion("none", "경기"); got != "" {
		t.Errorf("JoinRegion(none) = %q, want empty", got)
	}
}

func TestCareerLevelFromCodes(t *testing.T) {
	tests := []struct {
		in   string
		want model.CareerLevel
	}{
		{"03,04", model.CareerRequired},
		{"01,02", model.CareerAny},
		{"4", model.CareerAny},
		{"3", model.CareerRequired},
		{"04, 003", model.CareerRequired},
		{"05", model.CareerUnknown},
		{"", model.CareerUnknown},
		{"경력무관", model.CareerUnknown},
	}
	for _, tt := range tests {
		if got := CareerLevelFromCodes(tt.in); got != tt.want {
			t.Errorf("CareerLevelFromCodes(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitDescriptor(t *testing.T) {
	tests := []struct {
		in         string
		wantRegion string
		wantCareer string
	}{
		{"정규직/서울 강남구/경력무관", "서울 강남구", "경력무관"},
		{"정규직 / 서울 중구", "서울 중구", ""},
		{"정규직", "", ""},
		{"", "", ""},
		{"a/b/c/d", "b", "c"},
	}
	for _, tt := range tests {
		region, career := SplitDescriptor(tt.in)
		if region != tt.wantRegion || career != tt.wantCareer {
			t.Errorf("SplitDescriptor(%q) = (%q, %q), want (%q, %q)", tt.in, region, career, tt.wantRegion, tt.wantCareer)
		}
	}
}

func TestJobClassCode(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"123456", "1234"},
		{"", MissingJobCode},
		{"  ", MissingJobCode},
		{"23456", "0234"},
		{"12", "12"},
		{"123", "1"},
		{"A1234", "A1234"},
	}
	for _, tt := range tests {
		if got := JobClassCode(tt.in); got != tt.want {
			t.Errorf("JobClassCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRound_HalvesAwayFromZero(t *testing.T) {
	tests := []struct {
		v      float64
		places int
		want   float64
	}{
		{2.5, 0, 3},
		{0.25, 1, 0.3},
		{-2.5, 0, -3},
		{3000000, 1, 3000000},
	}
	for _, tt := range tests {
		if got := round(tt.v, tt.places); got != tt.want {
			t.Errorf("round(%v, %d) = %v, want %v", tt.v, tt.places, got, tt.want)
		}
	}
}

func TestJobCodePrefix(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"12345678", "1234"},
		{"123456", "1234"},
		{"12345", "1234"},
		{"1234", "1234"},
		{"12", "12"},
		{" 851234 ", "8512"},
		{"", MissingJobCode},
		{"   ", MissingJobCode},
	}
	for _, tt := range tests {
		if got := JobCodePrefix(tt.in, 4); got != tt.want {
			t.Errorf("JobCodePrefix(%q, 4) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("123456", 4); got != "1234" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("12", 4); got != "12" {
		t.Errorf("Truncate short = %q", got)
	}
	if got := Truncate("서울특별시", 2); got != "서울" {
		t.Errorf("Truncate runes = %q", got)
	}
}

func TestEducationCode(t *testing.T) {
	if got := EducationCode(""); got != MissingEducationCode {
		t.Errorf("EducationCode(\"\") = %q", got)
	}
	if got := EducationCode(" 04 "); got != "04" {
		t.Errorf("EducationCode = %q", got)
	}
}
