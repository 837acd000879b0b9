// internal/market/marketsize_test.go
package market

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmass/marketshare-backend/internal/domain"
)

func testSchools() []domain.SchoolRoster {
	return []domain.SchoolRoster{
		{
			SchoolCode: "M001",
			Level:      domain.LevelMiddle,
			Grades:     map[int]int{1: 100, 2: 110, 3: 120},
		},
		{
			SchoolCode: "M002",
			Level:      domain.LevelMiddle,
			Grades:     map[int]int{1: 50, 2: 60, 3: 70},
		},
		{
			SchoolCode: "H001",
			Level:      domain.LevelHigh,
			Grades:     map[int]int{1: 200, 2: 210, 3: 220},
		},
		{
			SchoolCode: "E001",
			Level:      domain.LevelElementary,
			Grades:     map[int]int{1: 30, 2: 31, 3: 32, 4: 33, 5: 34, 6: 35},
		},
	}
}

func TestMarketSizeNextYearShift(t *testing.T) {
	calc := NewCalculator()
	schools := testSchools()

	// a grade-1 order serves next year's grade-2 cohort
	got := calc.MarketSize(schools, domain.LevelMiddle, SpecificGrade(1))
	require.Equal(t, 110+60, got)

	// grade-2 orders look up grade 3
	got = calc.MarketSize(schools, domain.LevelMiddle, SpecificGrade(2))
	require.Equal(t, 120+70, got)

	// grade-3 cohorts graduate: the shifted grade is out of range
	got = calc.MarketSize(schools, domain.LevelHigh, SpecificGrade(3))
	require.Equal(t, 0, got)
}

func TestMarketSizeSameYear(t *testing.T) {
	calc := NewCalculator().NextYearShift(false)
	schools := testSchools()

	got := calc.MarketSize(schools, domain.LevelMiddle, SpecificGrade(1))
	require.Equal(t, 100+50, got)

	got = calc.MarketSize(schools, domain.LevelHigh, SpecificGrade(3))
	require.Equal(t, 220, got)
}

func TestMarketSizeAllGradesExcludesGraduatingCohort(t *testing.T) {
	calc := NewCalculator()
	schools := testSchools()

	// middle and high count grades 1-2 only
	got := calc.MarketSize(schools, domain.LevelMiddle, AllGrades())
	require.Equal(t, 100+110+50+60, got)

	got = calc.MarketSize(schools, domain.LevelHigh, IndeterminateGrade())
	require.Equal(t, 200+210, got)

	// elementary counts all six grades
	got = calc.MarketSize(schools, domain.LevelElementary, AllGrades())
	require.Equal(t, 30+31+32+33+34+35, got)
}

func TestSchoolMarketSize(t *testing.T) {
	calc := NewCalculator()
	school := testSchools()[0]

	require.Equal(t, 110, calc.SchoolMarketSize(school, SpecificGrade(1)))
	require.Equal(t, 210, calc.SchoolMarketSize(school, AllGrades()))
}

func TestLevelMarketSizes(t *testing.T) {
	calc := NewCalculator()
	sizes := calc.LevelMarketSizes(testSchools())

	require.Equal(t, 320, sizes[domain.LevelMiddle])
	require.Equal(t, 410, sizes[domain.LevelHigh])
	require.Equal(t, 195, sizes[domain.LevelElementary])
	require.Equal(t, 320+410+195, sizes[domain.LevelUnknown])
}
