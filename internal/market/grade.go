// internal/market/grade.go
package market

import (
	"fmt"
	"sort"

	"github.com/cmass/marketshare-backend/internal/domain"
)

// GradeKind classifies the outcome of grade inference.
type GradeKind int

const (
	// GradeSpecific means the book could be placed at a single grade.
	GradeSpecific GradeKind = iota
	// GradeAll means the book is taught across grades and should be
	// measured against the whole level population.
	GradeAll
	// GradeUnknown means no confident placement; callers fall back to the
	// whole-population denominator.
	GradeUnknown
)

// GradeAssignment is the result of grade inference for a (school, book) pair.
type GradeAssignment struct {
	Kind  GradeKind
	Grade int // valid only when Kind == GradeSpecific
}

func (g GradeAssignment) String() string {
	switch g.Kind {
	case GradeSpecific:
		return fmt.Sprintf("grade %d", g.Grade)
	case GradeAll:
		return "all grades"
	default:
		return "indeterminate"
	}
}

func SpecificGrade(grade int) GradeAssignment {
	return GradeAssignment{Kind: GradeSpecific, Grade: grade}
}

func AllGrades() GradeAssignment { return GradeAssignment{Kind: GradeAll} }

func IndeterminateGrade() GradeAssignment { return GradeAssignment{Kind: GradeUnknown} }

// ratioTolerance is the relative-error band for enrollment matching. The
// value is empirical, carried over for output parity; tune with care.
const ratioTolerance = 0.15

// GradeAssigner infers which grade a textbook edition is taught to. The
// order data never states this directly, and the numbers embedded in subject
// names are semesters, not grades, so placement has to be inferred.
type GradeAssigner struct {
	Tolerance float64
}

func NewGradeAssigner() *GradeAssigner {
	return &GradeAssigner{Tolerance: ratioTolerance}
}

// InferFromEnrollment places a book by comparing the school's order quantity
// against its enrollment per grade (strategy A). A single grade within
// tolerance wins; a multi-grade combination within tolerance means the book
// is not grade-specific; otherwise the placement is indeterminate.
func (a *GradeAssigner) InferFromEnrollment(quantity int, gradeCounts map[int]int) GradeAssignment {
	if quantity <= 0 || len(gradeCounts) == 0 {
		return IndeterminateGrade()
	}

	tol := a.Tolerance
	if tol <= 0 {
		tol = ratioTolerance
	}

	grades := make([]int, 0, len(gradeCounts))
	for g, count := range gradeCounts {
		if count > 0 {
			grades = append(grades, g)
		}
	}
	if len(grades) == 0 {
		return IndeterminateGrade()
	}
	sort.Ints(grades)

	bestGrade, bestErr := 0, -1.0
	for _, g := range grades {
		e := relErr(quantity, gradeCounts[g])
		if bestErr < 0 || e < bestErr {
			bestGrade, bestErr = g, e
		}
	}
	if bestErr >= 0 && bestErr < tol {
		return SpecificGrade(bestGrade)
	}

	// Adjacent pairs, then the full span: a match here means the order
	// covers several grades at once, so no single grade applies.
	for i := 0; i+1 < len(grades); i++ {
		sum := gradeCounts[grades[i]] + gradeCounts[grades[i+1]]
		if sum > 0 && relErr(quantity, sum) < tol {
			return AllGrades()
		}
	}
	if len(grades) > 2 {
		sum := 0
		for _, g := range grades {
			sum += gradeCounts[g]
		}
		if sum > 0 && relErr(quantity, sum) < tol {
			return AllGrades()
		}
	}

	return IndeterminateGrade()
}

// InferFromYearPattern places a book from which school years it was ordered
// in (strategy B). A book ordered in both adjacent years serves the incoming
// grade-1 cohort each year; a book appearing only in the later year serves a
// cohort that rolled over from the prior intake, so grade 2. This is a
// domain heuristic, not a guarantee.
func (a *GradeAssigner) InferFromYearPattern(years []int, earlier, later int) GradeAssignment {
	var hasEarlier, hasLater bool
	for _, y := range years {
		switch y {
		case earlier:
			hasEarlier = true
		case later:
			hasLater = true
		}
	}

	switch {
	case hasEarlier && hasLater:
		return SpecificGrade(1)
	case hasLater:
		return SpecificGrade(2)
	case hasEarlier:
		return SpecificGrade(1)
	default:
		return IndeterminateGrade()
	}
}

// Assign runs the strategies in precision order for one (school, book) pair:
// enrollment-ratio matching first, then the year-presence pattern.
func (a *GradeAssigner) Assign(quantity int, school *domain.SchoolRoster, years []int, earlier, later int) GradeAssignment {
	if school != nil && len(school.Grades) > 0 {
		if g := a.InferFromEnrollment(quantity, school.Grades); g.Kind != GradeUnknown {
			return g
		}
	}
	if len(years) > 0 {
		return a.InferFromYearPattern(years, earlier, later)
	}
	return IndeterminateGrade()
}

func relErr(quantity, students int) float64 {
	if students <= 0 {
		return -1
	}
	diff := quantity - students
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) / float64(students)
}
