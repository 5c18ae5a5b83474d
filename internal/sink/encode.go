package sink

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/amishk599/jobflow/internal/model"
)

// Format is an output encoding for batches.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string {
	if f == FormatJSON {
		return "json"
	}
	return "csv"
}

// ContentType returns the MIME type written alongside encoded objects.
func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv; charset=utf-8"
}

// ParseFormat accepts "csv" or "json"; empty means csv.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// CSVHeader is the column order of encoded CSV batches. The first eleven
// columns match the job_total_info layout; region slots and the career level
// follow.
var CSVHeader = []string{
	"company",
	"job_title",
	"wage_type",
	"wage_value_krw",
	"region",
	"career",
	"RCRIT_JSSFC_CMMN_CODE_SE",
	"JOBCODE_NM",
	"CAREER_CND_CMMN_CODE_SE",
	"ACDMCR_CMMN_CODE_SE",
	"wage_value_monthly",
	"region1",
	"region2",
	"region3",
	"region4",
	"region5",
	"career_level",
}

// Encode serializes records in the given format.
func Encode(f Format, records []model.Record) ([]byte, error) {
	switch f {
	case FormatJSON:
		return encodeJSON(records)
	case FormatCSV, "":
		return encodeCSV(records)
	}
	return nil, fmt.Errorf("unknown output format %q", f)
}

// encodeCSV writes a header plus one row per record, prefixed with a UTF-8
// byte order mark so spreadsheet tools detect the encoding.
func encodeCSV(records []model.Record) ([]byte, error) {
	var buf bytes.Buffer
	bom := transform.NewWriter(&buf, unicode.UTF8BOM.NewEncoder())
	w := csv.NewWriter(bom)

	if err := w.Write(CSVHeader); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}
	for i, r := range records {
		if err := w.Write(csvRow(r)); err != nil {
			return nil, fmt.Errorf("writing csv row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	if err := bom.Close(); err != nil {
		return nil, fmt.Errorf("closing csv encoder: %w", err)
	}
	return buf.Bytes(), nil
}

func csvRow(r model.Record) []string {
	row := []string{
		r.Company,
		r.JobTitle,
		string(r.WageType),
		formatAmount(r.WageValue),
		r.Region,
		r.Career,
		r.JobCode,
		r.JobCodeName,
		r.CareerCode,
		r.EducationCode,
		formatAmount(r.WageValueMonthly),
	}
	row = append(row, r.RegionSlots[:]...)
	return append(row, string(r.CareerLevel))
}

func formatAmount(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func encodeJSON(records []model.Record) ([]byte, error) {
	if records == nil {
		records = []model.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding json: %w", err)
	}
	return data, nil
}
