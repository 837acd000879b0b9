// internal/market/marketsize.go
package market

import (
	"github.com/cmass/marketshare-backend/internal/domain"
)

// Calculator computes market sizes: the student population that could
// plausibly adopt a book, used as the share denominator.
//
// The dominant convention is next-year usage: an order placed in year Y is
// for students one grade higher in Y+1, so a grade-specific lookup shifts by
// +1 against the current roster. NextYearShift(false) models same-year usage
// (the 2025 order cohort).
type Calculator struct {
	nextYearShift bool
}

func NewCalculator() *Calculator {
	return &Calculator{nextYearShift: true}
}

// NextYearShift returns a calculator with the given shift convention.
func (c *Calculator) NextYearShift(on bool) *Calculator {
	return &Calculator{nextYearShift: on}
}

// MarketSize sums the relevant enrollment over schools, which the caller has
// already filtered to the entity being measured (one school, a distributor's
// schools, a region, or the nation).
//
// A specific grade beyond the level's range after shifting returns 0: that
// cohort has graduated and there is no market. Zero is a valid size; share
// computation guards the division.
func (c *Calculator) MarketSize(schools []domain.SchoolRoster, level domain.SchoolLevel, assign GradeAssignment) int {
	if assign.Kind == GradeSpecific {
		grade := assign.Grade
		if c.nextYearShift {
			grade++
		}
		if grade < 1 || (level != domain.LevelUnknown && grade > level.MaxGrade()) {
			return 0
		}
		total := 0
		for _, s := range schools {
			if level != domain.LevelUnknown && s.Level != level {
				continue
			}
			total += s.GradeCount(grade)
		}
		return total
	}

	return c.levelPopulation(schools, level)
}

// levelPopulation is the whole-population fallback for all-grades and
// indeterminate books. For middle and high schools only grades 1-2 count:
// grade-3 students graduate before next year's edition reaches them, so the
// adoptable population excludes them. Elementary sums all six grades.
func (c *Calculator) levelPopulation(schools []domain.SchoolRoster, level domain.SchoolLevel) int {
	total := 0
	for _, s := range schools {
		if level != domain.LevelUnknown && s.Level != level {
			continue
		}
		total += adoptablePopulation(s)
	}
	return total
}

// SchoolMarketSize is MarketSize scoped to one school's own enrollment.
func (c *Calculator) SchoolMarketSize(school domain.SchoolRoster, assign GradeAssignment) int {
	return c.MarketSize([]domain.SchoolRoster{school}, school.Level, assign)
}

// LevelMarketSizes returns the adoptable population per school level across
// the given schools, plus the combined total under key LevelUnknown.
func (c *Calculator) LevelMarketSizes(schools []domain.SchoolRoster) map[domain.SchoolLevel]int {
	out := make(map[domain.SchoolLevel]int)
	for _, s := range schools {
		out[s.Level] += adoptablePopulation(s)
	}
	combined := 0
	for lvl, n := range out {
		if lvl != domain.LevelUnknown {
			combined += n
		}
	}
	out[domain.LevelUnknown] = combined
	return out
}

func adoptablePopulation(s domain.SchoolRoster) int {
	max := s.Level.MaxGrade()
	if max == 0 {
		return 0
	}
	top := max
	if s.Level == domain.LevelMiddle || s.Level == domain.LevelHigh {
		top = 2
	}
	total := 0
	for g := 1; g <= top; g++ {
		total += s.GradeCount(g)
	}
	return total
}
