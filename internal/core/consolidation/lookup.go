package consolidation

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
)

const (
	courtCodeLength  = 3
	caseNumberLength = 8
)

var caseNumberPattern = regexp.MustCompile(`^\d{2}-\d{5}$`)

// ComputeLeadCaseID joins a court code and a case number into a case ID.
// It returns "" unless court is exactly 3 characters and number is exactly
// 8 characters shaped NN-NNNNN. No registry lookup is performed.
func ComputeLeadCaseID(court, number string) string {
	if len(court) != courtCodeLength || len(number) != caseNumberLength {
		return ""
	}
	if !caseNumberPattern.MatchString(number) {
		return ""
	}
	return court + "-" + number
}

// NormalizeCaseNumber turns free text into the NN-NNNNN shape used by case
// numbers. Non-digits are dropped, the dash is inserted after the second
// digit and the result is truncated to 8 characters.
//
//	"2312345"   -> "23-12345"
//	"23-123"    -> "23-123"
//	"23 123456" -> "23-12345"
func NormalizeCaseNumber(input string) string {
	var digits strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	d := digits.String()
	if len(d) <= 2 {
		return d
	}

	out := d[:2] + "-" + d[2:]
	if len(out) > caseNumberLength {
		out = out[:caseNumberLength]
	}
	return out
}

// CaseNumber returns the case number portion of a case ID ("081-23-12345"
// becomes "23-12345"). IDs without a court prefix are returned unchanged.
func CaseNumber(caseID string) string {
	if len(caseID) == courtCodeLength+1+caseNumberLength && caseID[courtCodeLength] == '-' {
		return caseID[courtCodeLength+1:]
	}
	return caseID
}

// UniqueDivisionCode returns the division code shared by every case. ok is
// false when cases is empty or spans more than one division.
func UniqueDivisionCode(cases []OrderCase) (code string, ok bool) {
	if len(cases) == 0 {
		return "", false
	}

	code = cases[0].CourtDivisionCode
	for _, c := range cases[1:] {
		if c.CourtDivisionCode != code {
			return "", false
		}
	}
	return code, true
}

// FetchAttorneysForCase returns the names of the staff assigned to caseID.
// Failures are logged and reported as no assignments.
func FetchAttorneysForCase(ctx context.Context, svc AssignmentService, caseID string) []string {
	assignments, err := svc.GetCaseAssignments(ctx, caseID)
	if err != nil {
		log.Debug().Err(err).Str("case_id", caseID).Msg("case assignment lookup failed")
		return []string{}
	}

	names := make([]string, 0, len(assignments))
	for _, a := range assignments {
		names = append(names, a.Name)
	}
	return names
}

// FormatAttorneys renders a list of names for display.
func FormatAttorneys(names []string) string {
	switch len(names) {
	case 0:
		return "(unassigned)"
	case 1, 2:
		return strings.Join(names, " and ")
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
	}
}

// SanitizeText trims s and removes control characters other than newlines.
func SanitizeText(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(cleaned)
}
