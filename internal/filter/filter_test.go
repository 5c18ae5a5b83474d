package filter

import (
	"testing"

	"github.com/amishk599/jobflow/internal/model"
)

func record(company, title, region string) model.Record {
	return model.Record{Company: company, JobTitle: title, Region: region, RegionJoined: region}
}

func TestRecordFilter_Keep(t *testing.T) {
	tests := []struct {
		name         string
		dropBlank    bool
		titleExclude []string
		regions      []string
		rec          model.Record
		want         bool
	}{
		{
			name: "empty filter keeps everything",
			rec:  record("", "", ""),
			want: true,
		},
		{
			name:      "blank row dropped",
			dropBlank: true,
			rec:       record(" ", "", "서울 강남구"),
			want:      false,
		},
		{
			name:      "company alone is enough",
			dropBlank: true,
			rec:       record("가나다상사", "", ""),
			want:      true,
		},
		{
			name:         "excluded title keyword",
			titleExclude: []string{"알바"},
			rec:          record("가나다상사", "주말 알바 모집", "서울"),
			want:         false,
		},
		{
			name:         "exclusion is case insensitive",
			titleExclude: []string{"intern"},
			rec:          record("Acme", "Backend INTERN", "서울"),
			want:         false,
		},
		{
			name:    "region match",
			regions: []string{"수원"},
			rec:     record("가나다상사", "경리", "경기 수원시"),
			want:    true,
		},
		{
			name:    "region miss",
			regions: []string{"수원", "성남"},
			rec:     record("가나다상사", "경리", "서울 중구"),
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewRecordFilter(tt.dropBlank, tt.titleExclude, tt.regions)
			if got := f.Keep(tt.rec); got != tt.want {
				t.Errorf("Keep() = %v, want %v", got, tt.want)
			}
		})
	}
}
