package transform

import (
	"fmt"
	"strings"

	"github.com/amishk599/jobflow/internal/model"
	"github.com/amishk599/jobflow/internal/normalize"
)

// Source kinds understood by NewNormalizer.
const (
	KindSeoul    = "seoul"
	KindGyeonggi = "gyeonggi"
)

// NewNormalizer returns the field strategy for a source kind. A defaultRegion
// of "none" disables region prefixing.
func NewNormalizer(kind, defaultRegion string) (model.Normalizer, error) {
	noPrefix := strings.EqualFold(defaultRegion, "none")
	if noPrefix {
		defaultRegion = ""
	}
	switch kind {
	case KindSeoul:
		return SeoulNormalizer{DefaultRegion: defaultRegion}, nil
	case KindGyeonggi:
		if defaultRegion == "" && !noPrefix {
			defaultRegion = "경기"
		}
		return GyeonggiNormalizer{DefaultRegion: defaultRegion}, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", kind)
	}
}

// SeoulNormalizer maps GetJobInfo rows. Region and career come from the
// slash-delimited GUI_LN descriptor; wages use the pattern parser.
type SeoulNormalizer struct {
	DefaultRegion string
}

func (n SeoulNormalizer) Normalize(raw model.RawRecord) model.Record {
	wage, value := normalize.ParseWage(raw.String("HOPE_WAGE"))
	region, career := normalize.SplitDescriptor(raw.String("GUI_LN"))
	careerCode := raw.String("CAREER_CND_CMMN_CODE_SE")

	return model.Record{
		Company:          raw.String("CMPNY_NM"),
		JobTitle:         raw.String("JO_SJ"),
		WageType:         wage,
		WageValue:        value,
		Region:           region,
		RegionSlots:      normalize.SplitRegion(region, n.DefaultRegion),
		RegionJoined:     normalize.JoinRegion(region, n.DefaultRegion),
		Career:           career,
		CareerLevel:      normalize.CareerLevelFromCodes(careerCode),
		JobCode:          normalize.JobClassCode(raw.String("RCRIT_JSSFC_CMMN_CODE_SE")),
		JobCodeName:      raw.String("JOBCODE_NM"),
		CareerCode:       careerCode,
		EducationCode:    normalize.EducationCode(raw.String("ACDMCR_CMMN_CODE_SE")),
		WageValueMonthly: normalize.MonthlyWage(wage, value),
	}
}

// GyeonggiNormalizer maps GGJOBABARECRUSTM rows. Work regions are a comma
// list prefixed with the provincial default; wages use the keyword parser.
type GyeonggiNormalizer struct {
	DefaultRegion string
}

func (n GyeonggiNormalizer) Normalize(raw model.RawRecord) model.Record {
	wage, value := normalize.ParseSalary(raw.String("SALARY_COND"))
	regions := raw.String("WORK_REGION_CONT")
	slots := normalize.SplitRegion(regions, n.DefaultRegion)
	careerCode := raw.String("CAREER_CD_NM")
	level := normalize.CareerLevelFromCodes(careerCode)

	jobCode := normalize.JobCodePrefix(raw.String("RECRUT_FIELD_CD_NM"), 4)

	return model.Record{
		Company:          raw.String("ENTRPRS_NM"),
		JobTitle:         raw.String("PBANC_CONT"),
		WageType:         wage,
		WageValue:        value,
		Region:           slots[0],
		RegionSlots:      slots,
		RegionJoined:     normalize.JoinRegion(regions, n.DefaultRegion),
		Career:           string(level),
		CareerLevel:      level,
		JobCode:          jobCode,
		JobCodeName:      raw.String("RECRUT_FIELD_NM"),
		CareerCode:       careerCode,
		EducationCode:    normalize.EducationCode(raw.String("ACDMCR_CD_NM")),
		WageValueMonthly: normalize.MonthlyWage(wage, value),
	}
}
