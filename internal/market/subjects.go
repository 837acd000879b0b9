// internal/market/subjects.go
package market

import (
	"regexp"
	"strings"

	"github.com/cmass/marketshare-backend/internal/domain"
)

// Subject names embed semester marks that look like grade numbers but are
// not: "한국사 1" / "한국사 2" are first and second semester of the same
// grade-1 course, and "미술 ①" / "미술 ②" likewise. Grade placement must
// never be read off these digits.
var semesterSuffix = regexp.MustCompile(`\s*[①②③④⑤⑥0-9]+\s*$`)

// BaseSubject strips trailing semester marks: "한국사 1" -> "한국사".
func BaseSubject(name string) string {
	return strings.TrimSpace(semesterSuffix.ReplaceAllString(strings.TrimSpace(name), ""))
}

// subjectGrade is a curated placement for subjects whose grade is fixed by
// the national curriculum rather than per-school scheduling.
type subjectGrade struct {
	level domain.SchoolLevel
	grade int // 0 = taught across grades
}

var curriculumGrades = map[string]subjectGrade{
	"정보":      {level: domain.LevelMiddle, grade: 1},
	"보건":      {level: domain.LevelMiddle, grade: 2},
	"진로와 직업":  {level: domain.LevelMiddle, grade: 1},
	"미술":      {level: domain.LevelMiddle, grade: 0},
	"체육":      {level: domain.LevelMiddle, grade: 0},
	"음악":      {level: domain.LevelMiddle, grade: 0},
	"한국사":     {level: domain.LevelHigh, grade: 1},
	"인공지능 기초": {level: domain.LevelHigh, grade: 1},
}

// CurriculumGrade places a subject from the curated curriculum table
// (strategy C). It is the coarsest strategy, used for subject-level reports
// where no per-school signal exists. Elective high-school subjects spread
// over grades 2-3 and come back as AllGrades.
func CurriculumGrade(subjectName string, level domain.SchoolLevel) GradeAssignment {
	base := BaseSubject(subjectName)
	if base == "" {
		return IndeterminateGrade()
	}

	if m, ok := curriculumGrades[base]; ok {
		if level == domain.LevelUnknown || m.level == level {
			if m.grade > 0 {
				return SpecificGrade(m.grade)
			}
			return AllGrades()
		}
	}

	// Keyword fallbacks for name variants ("정보 ①", "진로와직업").
	switch level {
	case domain.LevelMiddle:
		if strings.Contains(base, "정보") || strings.Contains(base, "진로") {
			return SpecificGrade(1)
		}
		if strings.Contains(base, "보건") {
			return SpecificGrade(2)
		}
		return AllGrades()
	case domain.LevelHigh:
		if strings.Contains(base, "한국사") || strings.Contains(base, "인공지능") {
			return SpecificGrade(1)
		}
		return AllGrades()
	}

	return IndeterminateGrade()
}

// DisplaySubject prefixes a subject title with its school level the way the
// dashboard labels it, so "[중등] 정보" and "[고등] 정보" stay distinct.
func DisplaySubject(title string, level domain.SchoolLevel) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	switch level {
	case domain.LevelMiddle:
		return "[중등] " + title
	case domain.LevelHigh:
		return "[고등] " + title
	default:
		return title
	}
}
