package filter

import (
	"strings"

	"github.com/amishk599/jobflow/internal/model"
)

var _ model.RecordFilter = (*RecordFilter)(nil)

// RecordFilter drops rows that carry no usable listing and rows outside the
// configured scope. Keyword matching is a case-insensitive substring test.
type RecordFilter struct {
	dropBlank            bool
	titleExcludeKeywords []string
	regions              []string
}

// NewRecordFilter returns a filter. dropBlank rejects rows with neither a
// company nor a title; an empty regions list accepts every region.
func NewRecordFilter(dropBlank bool, titleExcludeKeywords, regions []string) *RecordFilter {
	return &RecordFilter{
		dropBlank:            dropBlank,
		titleExcludeKeywords: titleExcludeKeywords,
		regions:              regions,
	}
}

// Keep reports whether rec should be delivered.
func (f *RecordFilter) Keep(rec model.Record) bool {
	if f.dropBlank && strings.TrimSpace(rec.Company) == "" && strings.TrimSpace(rec.JobTitle) == "" {
		return false
	}

	titleLower := strings.ToLower(rec.JobTitle)
	for _, kw := range f.titleExcludeKeywords {
		if strings.Contains(titleLower, strings.ToLower(kw)) {
			return false
		}
	}

	if len(f.regions) > 0 {
		regionLower := strings.ToLower(rec.Region + " " + rec.RegionJoined)
		for _, r := range f.regions {
			if strings.Contains(regionLower, strings.ToLower(r)) {
				return true
			}
		}
		return false
	}

	return true
}
