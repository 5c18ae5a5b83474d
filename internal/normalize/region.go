package normalize

import (
	"strings"

	"github.com/amishk599/jobflow/internal/model"
)

// topLevelRegions are the administrative prefixes that are left untouched.
// "광주광" avoids matching 광주시 in Gyeonggi.
var topLevelRegions = []string{
	"전국", "서울", "인천", "경기", "강원", "충북", "충남", "대전", "세종",
	"경북", "경남", "대구", "부산", "울산", "전북", "전남", "광주광", "제주",
}

// SplitRegion splits a comma-separated region list into exactly five slots.
// Segments that do not start with a top-level region get defaultPrefix and a
// space prepended; an empty defaultPrefix leaves them as they are. Extra
// segments beyond five are dropped and missing slots are "".
func SplitRegion(text, defaultPrefix string) [model.RegionSlotCount]string {
	var slots [model.RegionSlotCount]string
	for i, r := range prefixedRegions(text, defaultPrefix) {
		if i == len(slots) {
			break
		}
		slots[i] = r
	}
	return slots
}

// JoinRegion applies the same prefixing as SplitRegion but keeps every
// segment, joined with ", ".
func JoinRegion(text, defaultPrefix string) string {
	return strings.Join(prefixedRegions(text, defaultPrefix), ", ")
}

func prefixedRegions(text, defaultPrefix string) []string {
	text = strings.TrimSpace(text)
	if text == "" || strings.EqualFold(text, "none") {
		return nil
	}
	var out []string
	for _, seg := range strings.Split(text, ",") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if defaultPrefix != "" && !hasTopLevelPrefix(seg) {
			seg = defaultPrefix + " " + seg
		}
		out = append(out, seg)
	}
	return out
}

func hasTopLevelPrefix(s string) bool {
	for _, p := range topLevelRegions {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// SplitDescriptor splits a "<kind>/<region>/<career>" descriptor and returns
// the trimmed second and third segments, "" where missing.
func SplitDescriptor(text string) (region, career string) {
	if strings.TrimSpace(text) == "" {
		return "", ""
	}
	parts := strings.Split(text, "/")
	if len(parts) >= 2 {
		region = strings.TrimSpace(parts[1])
	}
	if len(parts) >= 3 {
		career = strings.TrimSpace(parts[2])
	}
	return region, career
}
