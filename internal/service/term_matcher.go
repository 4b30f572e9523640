package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/canannounce/canannounce/pkg/canvas"
)

// TermMatcher decides whether a course belongs to the current academic
// period. The default implementation matches naming conventions; it can be
// swapped for an authoritative term-ID comparison without touching callers.
type TermMatcher interface {
	Matches(course canvas.Course) bool
}

// SemesterPatternMatcher approximates "current term" by checking whether
// any of the conventional semester labels for the current date appears in
// the course name or term name. Best effort: false positives and negatives
// are expected where naming conventions drift.
type SemesterPatternMatcher struct {
	now func() time.Time
}

// NewSemesterPatternMatcher constructs the default matcher. A nil clock
// falls back to time.Now.
func NewSemesterPatternMatcher(now func() time.Time) *SemesterPatternMatcher {
	if now == nil {
		now = time.Now
	}
	return &SemesterPatternMatcher{now: now}
}

// sectionCodes mark names like "JOUR-4734-01" that carry a section number
// instead of a semester label.
var sectionCodes = []string{"-01", "-02", "-03", "-1", "-2", "-3", "-section"}

// Matches reports whether the course looks like it belongs to the current
// semester.
func (m *SemesterPatternMatcher) Matches(course canvas.Course) bool {
	now := m.now()
	name := strings.ToLower(course.Name)
	termName := ""
	if course.Term != nil {
		termName = strings.ToLower(course.Term.Name)
	}

	for _, pattern := range semesterPatterns(now) {
		pattern = strings.ToLower(pattern)
		if strings.Contains(name, pattern) || (termName != "" && strings.Contains(termName, pattern)) {
			return true
		}
	}

	// Year plus a section-style course code is accepted when no semester
	// label matched.
	year := fmt.Sprint(now.Year())
	if strings.Contains(course.Name, year) {
		for _, code := range sectionCodes {
			if strings.Contains(course.Name, code) {
				return true
			}
		}
	}

	return false
}

// semesterName maps a month to the semester it falls in.
func semesterName(month time.Month) string {
	switch {
	case month >= time.January && month <= time.May:
		return "Spring"
	case month >= time.June && month <= time.July:
		return "Summer"
	default:
		return "Fall"
	}
}

// semesterPatterns generates the label variants institutions use for the
// current semester: full names, 2-letter abbreviations, year-first forms,
// 2-digit-year forms and the concatenated code form.
func semesterPatterns(now time.Time) []string {
	semester := semesterName(now.Month())
	year := fmt.Sprint(now.Year())
	shortYear := year[2:]
	abbrev := strings.ToUpper(semester[:2])

	return []string{
		fmt.Sprintf("%s %s", semester, year),
		fmt.Sprintf("%s%s", semester, year),
		fmt.Sprintf("%s%s", abbrev, year),
		fmt.Sprintf("%s-%s", abbrev, year),
		fmt.Sprintf("%s %s", abbrev, year),
		fmt.Sprintf("%s%s", year, abbrev),
		fmt.Sprintf("%s-%s", year, abbrev),
		fmt.Sprintf("%s %s", year, abbrev),
		fmt.Sprintf("%s %s", semester, shortYear),
		fmt.Sprintf("%s%s", semester, shortYear),
		fmt.Sprintf("%s%s", abbrev, shortYear),
		fmt.Sprintf("%s%s", shortYear, abbrev),
		fmt.Sprintf("%s%s", year, semester[:2]),
	}
}
