package model

import "time"

// RawRecord is one row of an upstream API envelope, decoded verbatim.
// Fields may be absent or null.
type RawRecord map[string]any

// String returns the field as trimmed text, or "" when absent or null.
// Numbers are formatted without a trailing ".0".
func (r RawRecord) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	return stringify(v)
}

// Has reports whether key is present with a non-null, non-blank value.
func (r RawRecord) Has(key string) bool {
	return r.String(key) != ""
}

// WageType is the pay period of a listing.
type WageType string

const (
	WageHourly      WageType = "시급"
	WageDaily       WageType = "일급"
	WageMonthly     WageType = "월급"
	WageAnnual      WageType = "연봉"
	WageByPolicy    WageType = "내규"
	WageUnspecified WageType = "공고확인"
)

// CareerLevel is the simplified experience requirement of a listing.
type CareerLevel string

const (
	CareerUnknown  CareerLevel = ""
	CareerAny      CareerLevel = "경력 무관"
	CareerRequired CareerLevel = "경력"
)

// RegionSlotCount is the fixed number of region slots on a Record.
const RegionSlotCount = 5

// Record is a normalized job listing. The field set is fixed whatever the
// upstream source provided; missing inputs map to documented absent values.
type Record struct {
	Company          string                  `json:"company"`
	JobTitle         string                  `json:"job_title"`
	WageType         WageType                `json:"wage_type"`
	WageValue        *float64                `json:"wage_value_krw"`
	Region           string                  `json:"region"`
	RegionSlots      [RegionSlotCount]string `json:"region_slots"` // "" = absent
	RegionJoined     string                  `json:"region_joined"`
	Career           string                  `json:"career"`
	CareerLevel      CareerLevel             `json:"career_level"`
	JobCode          string                  `json:"RCRIT_JSSFC_CMMN_CODE_SE"`
	JobCodeName      string                  `json:"JOBCODE_NM"`
	CareerCode       string                  `json:"CAREER_CND_CMMN_CODE_SE"`
	EducationCode    string                  `json:"ACDMCR_CMMN_CODE_SE"`
	WageValueMonthly *float64                `json:"wage_value_monthly"`
}

// Cursor is the persisted pagination position of a source.
type Cursor struct {
	NextStart   int
	LastUpdated time.Time // zero until the first save
}

// Chunk is one fetched page of raw records. Next is Start plus the number of
// records actually returned.
type Chunk struct {
	Start   int
	Next    int
	Records []RawRecord
}

// Batch is a transformed chunk on its way to the sinks.
type Batch struct {
	RunID     string
	Source    string
	Start     int
	Next      int
	FetchedAt time.Time
	Records   []Record
}

// TickStatus is the outcome of one poll of a source.
type TickStatus string

const (
	TickRunning   TickStatus = "running"
	TickSucceeded TickStatus = "succeeded"
	TickEmpty     TickStatus = "empty"
	TickFailed    TickStatus = "failed"
)

// TickReport summarizes one poll of a source.
type TickReport struct {
	RunID      string
	Source     string
	Start      int
	Next       int
	Fetched    int
	Delivered  int
	ObjectKey  string
	Status     TickStatus
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}
