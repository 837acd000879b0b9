// internal/market/achievement_test.go
package market

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmass/marketshare-backend/internal/domain"
)

func achievementDirectory() *Directory {
	return BuildDirectory([]domain.DistributorEntry{
		{Code: "77", OfficialName: "한국서적총판", GradeLetter: "S"},
		{Code: "102", OfficialName: "이문당", GradeLetter: "B"},
	})
}

func TestBucket(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{0, BucketBelow50},
		{49.9, BucketBelow50},
		{50, Bucket50To80},
		{79.9, Bucket50To80},
		{80, Bucket80To100},
		{99.9, Bucket80To100},
		{100, Bucket100To120},
		{120, Bucket100To120},
		{120.1, BucketAbove120},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Bucket(tt.pct), "Bucket(%v)", tt.pct)
	}
}

func TestFilterTargetOrders(t *testing.T) {
	engine := NewAchievementEngine(achievementDirectory(), 2026)
	orders := []domain.OrderRecord{
		{SchoolYear: 2026, TargetTag: domain.TargetSubject1, Quantity: 10},
		{SchoolYear: 2026, TargetTag: domain.TargetSubject2, Quantity: 20},
		{SchoolYear: 2026, TargetTag: domain.TargetNone, Quantity: 99},
		{SchoolYear: 2025, TargetTag: domain.TargetSubject1, Quantity: 99},
	}

	got := engine.FilterTargetOrders(orders)
	require.Len(t, got, 2)
	require.Equal(t, 10, got[0].Quantity)
	require.Equal(t, 20, got[1].Quantity)
}

func TestBuildAchievementScenario(t *testing.T) {
	engine := NewAchievementEngine(achievementDirectory(), 2026)

	// targets arrive as comma-formatted strings upstream; by now they are
	// parsed, and the code still needs normalization
	targets := []domain.SalesTarget{
		{DistributorCode: "77.0", DistributorName: "한국서적", TargetSubject1: 1000, TargetSubject2: 500},
	}
	orders := []domain.OrderRecord{
		{SchoolYear: 2026, SchoolCode: "S1", DistributorCode: "0077", TargetTag: domain.TargetSubject1, Quantity: 1200, Amount: 100},
		{SchoolYear: 2026, SchoolCode: "S2", DistributorCode: "0077", TargetTag: domain.TargetSubject2, Quantity: 600, Amount: 50},
	}

	rows := engine.Build(orders, targets, nil)
	require.Len(t, rows, 1)

	row := rows[0]
	require.Equal(t, "한국서적총판", row.Distributor) // official name wins over the target sheet's
	require.Equal(t, 1500, row.CombinedTarget)
	require.Equal(t, 1800, row.Actual)
	require.InDelta(t, 120.0, row.AchievementPct, 0.001)
	require.Equal(t, 300, row.Gap)
	require.Equal(t, Bucket100To120, row.Bucket)
	require.Equal(t, 1200, row.Actual1)
	require.InDelta(t, 120.0, row.Rate1, 0.001)
	require.Equal(t, 600, row.Actual2)
	require.InDelta(t, 120.0, row.Rate2, 0.001)
	require.Equal(t, 2, row.Schools)
	require.Equal(t, int64(150), row.Amount)
	require.Equal(t, "S", row.GradeLetter)
}

func TestBuildKeepsTargetedDistributorsWithoutOrders(t *testing.T) {
	engine := NewAchievementEngine(achievementDirectory(), 2026)
	targets := []domain.SalesTarget{
		{DistributorCode: "102", DistributorName: "이문당", TargetSubject1: 400},
	}

	rows := engine.Build(nil, targets, nil)
	require.Len(t, rows, 1)
	require.Equal(t, 0, rows[0].Actual)
	require.Zero(t, rows[0].AchievementPct)
	require.Equal(t, BucketBelow50, rows[0].Bucket)
	require.Equal(t, -400, rows[0].Gap)
}

func TestBuildExclusions(t *testing.T) {
	engine := NewAchievementEngine(achievementDirectory(), 2026)

	targets := []domain.SalesTarget{
		{DistributorCode: "102", DistributorName: "이문당"}, // zero combined target
		{DistributorCode: "", DistributorName: "코드없음", TargetSubject1: 100},
	}
	// order volume for a distributor with no target row stays out of the table
	orders := []domain.OrderRecord{
		{SchoolYear: 2026, DistributorCode: "0077", TargetTag: domain.TargetSubject1, Quantity: 500},
	}

	rows := engine.Build(orders, targets, nil)
	require.Empty(t, rows)
}

func TestBuildDuplicateTargetCodeKeepsFirst(t *testing.T) {
	engine := NewAchievementEngine(achievementDirectory(), 2026)
	targets := []domain.SalesTarget{
		{DistributorCode: "0102", TargetSubject1: 400},
		{DistributorCode: "102", TargetSubject1: 900},
	}

	rows := engine.Build(nil, targets, nil)
	require.Len(t, rows, 1)
	require.Equal(t, 400, rows[0].CombinedTarget)
}

func TestBucketCounts(t *testing.T) {
	rows := []domain.AchievementRow{
		{Bucket: BucketBelow50},
		{Bucket: BucketBelow50},
		{Bucket: Bucket100To120},
	}
	counts := BucketCounts(rows)
	require.Equal(t, 2, counts[BucketBelow50])
	require.Equal(t, 1, counts[Bucket100To120])
	require.Equal(t, 0, counts[BucketAbove120])
}
