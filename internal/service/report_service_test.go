// internal/service/report_service_test.go
package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmass/marketshare-backend/internal/domain"
)

func testDataset() *domain.Dataset {
	return &domain.Dataset{
		Roster: []domain.SchoolRoster{
			{
				SchoolCode: "S1", SchoolName: "중앙중", Level: domain.LevelMiddle,
				Region: "경남", Distributor: "이문당", OfficialDist: "이문당",
				Grades: map[int]int{1: 120, 2: 100, 3: 90}, TotalStudents: 310,
			},
			{
				SchoolCode: "S2", SchoolName: "중앙고", Level: domain.LevelHigh,
				Region: "서울", Distributor: "한국서적", OfficialDist: "한국서적총판",
				Grades: map[int]int{1: 300, 2: 310, 3: 320}, TotalStudents: 930,
			},
		},
		Orders: []domain.OrderRecord{
			{
				SchoolCode: "S1", SchoolYear: 2026, BookCode: "1001",
				Subject: "정보", DisplaySubject: "[중등] 정보", Level: domain.LevelMiddle,
				Quantity: 115, Amount: 1035000,
				DistributorCode: "0102", OfficialDist: "이문당",
				TargetTag: domain.TargetSubject1, Region: "경남",
			},
			{
				SchoolCode: "S1", SchoolYear: 2025, BookCode: "1001",
				Subject: "정보", DisplaySubject: "[중등] 정보", Level: domain.LevelMiddle,
				Quantity: 110, Amount: 990000,
				DistributorCode: "0102", OfficialDist: "이문당",
				TargetTag: domain.TargetSubject1, Region: "경남",
			},
			{
				SchoolCode: "S2", SchoolYear: 2026, BookCode: "2001",
				Subject: "한국사 1", DisplaySubject: "[고등] 한국사", Level: domain.LevelHigh,
				Quantity: 290, Amount: 2610000,
				DistributorCode: "0077", OfficialDist: "한국서적총판",
				TargetTag: domain.TargetSubject2, Region: "서울",
			},
			{
				SchoolCode: "S2", SchoolYear: 2026, BookCode: "9999",
				Subject: "미지정", Quantity: 10, Amount: 90000,
				DistributorCode: "5001", Region: "서울",
			},
		},
		Targets: []domain.SalesTarget{
			{DistributorCode: "102", DistributorName: "이문당", TargetSubject1: 100, TargetSubject2: 0},
			{DistributorCode: "77", DistributorName: "한국서적총판", TargetSubject1: 0, TargetSubject2: 500},
			{DistributorCode: "350", DistributorName: "남부교육유통", TargetSubject1: 200},
		},
		Distributors: []domain.DistributorEntry{
			{Code: "102", Name: "통영)이문당", OfficialName: "이문당", GradeLetter: "B"},
			{Code: "77", Name: "한국서적", OfficialName: "한국서적총판", GradeLetter: "S"},
			{Code: "350", Name: "남부유통", OfficialName: "남부교육유통", GradeLetter: "A"},
		},
		HasGradeEnrollment: true,
		HasTargetTags:      true,
		HasYears:           true,
	}
}

func newTestService() *ReportService {
	return NewReportService(testDataset(), nil, 2026)
}

func TestSharesBySubjectConservation(t *testing.T) {
	svc := newTestService()
	rows, err := svc.SharesBySubject(context.Background())
	require.NoError(t, err)

	total := 0
	for _, r := range rows {
		total += r.Quantity
	}
	// 2026 orders only
	require.Equal(t, 115+290+10, total)
}

func TestSharesByDistributorExcludesUnmappedFromShares(t *testing.T) {
	svc := newTestService()
	rows, err := svc.SharesByDistributor(context.Background())
	require.NoError(t, err)

	for _, r := range rows {
		if r.Distributor == "" {
			require.Equal(t, 10, r.Quantity)
			require.Zero(t, r.SharePct)
		}
	}
}

func TestAchievement(t *testing.T) {
	svc := newTestService()
	rows, err := svc.Achievement(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	byName := make(map[string]domain.AchievementRow)
	for _, r := range rows {
		byName[r.Distributor] = r
	}

	lee := byName["이문당"]
	require.Equal(t, 115, lee.Actual1)
	require.InDelta(t, 115.0, lee.AchievementPct, 0.001)

	// targeted but order-less distributor still present
	idle := byName["남부교육유통"]
	require.Equal(t, 0, idle.Actual)
	require.Zero(t, idle.AchievementPct)
}

func TestYearComparison(t *testing.T) {
	svc := newTestService()
	rows, churn, err := svc.YearComparison(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, churn.Retained) // S1 ordered both years
	require.Equal(t, 1, churn.New)      // S2 only in 2026

	var info *domain.YearComparisonRow
	for i := range rows {
		if rows[i].Key == "[중등] 정보" {
			info = &rows[i]
		}
	}
	require.NotNil(t, info)
	require.Equal(t, 5, info.Delta)
	require.InDelta(t, 5.0/110.0*100, info.GrowthPct, 0.001)
}

func TestSummary(t *testing.T) {
	svc := newTestService()
	sum, err := svc.Summary(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1240, sum.TotalStudents)
	require.Equal(t, 415, sum.TotalOrders)
	require.Equal(t, 2, sum.OrderSchools)
	require.InDelta(t, 100.0, sum.PenetrationPct, 0.001)
	require.Equal(t, 2, sum.Subjects)
	require.Equal(t, 2, sum.Distributors)
}

func TestBuildAll(t *testing.T) {
	svc := newTestService()
	bundle, err := svc.BuildAll(context.Background())
	require.NoError(t, err)

	require.NotNil(t, bundle.Summary)
	require.NotEmpty(t, bundle.SharesBySubject)
	require.NotEmpty(t, bundle.SharesByDistributor)
	require.NotEmpty(t, bundle.Achievement)
	require.Len(t, bundle.Unmapped, 1)
	require.Equal(t, "5001", bundle.Unmapped[0].RawCode)
	require.Len(t, bundle.DistributorMarkets, 3)
}

func TestReloadSwapsDataset(t *testing.T) {
	svc := newTestService()

	empty := &domain.Dataset{}
	svc.Reload(context.Background(), empty)

	rows, err := svc.SharesBySubject(context.Background())
	require.NoError(t, err)
	require.Empty(t, rows)
}
