package normalize

import (
	"strings"

	"github.com/amishk599/jobflow/internal/model"
)

// Fallback codes for missing upstream values.
const (
	MissingJobCode       = "999999"
	MissingEducationCode = "0"
)

// CareerLevelFromCodes simplifies a list of career codes such as "03,04".
// Code 3 (experienced) wins over everything else; codes 1, 2 and 4 mean any
// experience is accepted.
func CareerLevelFromCodes(text string) model.CareerLevel {
	codes := make(map[string]bool)
	for _, tok := range digitsRe.FindAllString(text, -1) {
		tok = strings.TrimLeft(tok, "0")
		if tok == "" {
			tok = "0"
		}
		codes[tok] = true
	}
	if codes["3"] {
		return model.CareerRequired
	}
	if codes["1"] || codes["2"] || codes["4"] {
		return model.CareerAny
	}
	return model.CareerUnknown
}

// JobClassCode normalizes an occupation classification code. Numeric codes
// are left-padded from five to six digits and lose their last two digits.
// Non-numeric codes pass through; a missing code becomes MissingJobCode.
func JobClassCode(text string) string {
	code := strings.TrimSpace(text)
	if code == "" {
		return MissingJobCode
	}
	if !isDigits(code) {
		return code
	}
	if len(code) == 5 {
		code = "0" + code
	}
	if len(code) > 2 {
		code = code[:len(code)-2]
	}
	return code
}

// JobCodePrefix keeps the leading n characters of a classification code
// without any padding. A missing code becomes MissingJobCode, untruncated.
func JobCodePrefix(text string, n int) string {
	code := strings.TrimSpace(text)
	if code == "" {
		return MissingJobCode
	}
	return Truncate(code, n)
}

// Truncate returns at most n leading runes of s.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// EducationCode returns the code, or MissingEducationCode when blank.
func EducationCode(text string) string {
	if code := strings.TrimSpace(text); code != "" {
		return code
	}
	return MissingEducationCode
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}
