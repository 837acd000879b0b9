// internal/ingest/loader_test.go
package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmass/marketshare-backend/internal/config"
	"github.com/cmass/marketshare-backend/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testLoader(t *testing.T) *Loader {
	t.Helper()
	dir := t.TempDir()

	roster := "\uFEFF정보공시 학교코드,학교명,학교급코드,시도,시군구,총판,1학년,2학년,3학년\n" +
		"7530145,중앙중학교,3,경남,창원,통영)이문당,120,100,90\n" +
		"7530146,중앙고등학교,4,경남,창원,한국서적,300,310,320\n" +
		",빈코드학교,3,경남,창원,,10,10,10\n"

	orders := "정보공시 학교코드,학년도,도서코드,과목,부수,금액,총판명,총판코드\n" +
		"7530145,2026,1001,정보,115,\"1,035,000\",이문당,102.0\n" +
		"7530145,2025,1001,정보,110,990000,이문당,102\n" +
		"7530146,2026,2001,한국사 1,290,2610000,한국서적,77\n" +
		"7530146,2026,9999,미지정도서,10,90000,떠돌이서점,5001\n"

	targets := "총판코드,총판명,목표과목1 부수,목표과목2 부수\n" +
		"102,이문당,\"1,000\",500\n"

	products := "도서코드,학교급코드,과목계열,서명,목표과목\n" +
		"1001,3,정보,정보,1\n" +
		"2001,4,한국사,한국사 1,2\n"

	distributors := "총판코드,총판명,총판명(공식),등급\n" +
		"102,통영)이문당,이문당,B\n" +
		"77,한국서적,한국서적총판,S\n"

	cfg := config.DataConfig{
		RosterFile:      writeFile(t, dir, "roster.csv", roster),
		OrderFile:       writeFile(t, dir, "orders.csv", orders),
		TargetFile:      writeFile(t, dir, "targets.csv", targets),
		ProductFile:     writeFile(t, dir, "products.csv", products),
		DistributorFile: writeFile(t, dir, "distributors.csv", distributors),
	}
	return NewLoader(cfg)
}

func TestLoadDataset(t *testing.T) {
	ds, err := testLoader(t).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, ds.Roster, 2) // the codeless row is dropped
	require.Len(t, ds.Orders, 4)
	require.Len(t, ds.Targets, 1)
	require.True(t, ds.HasGradeEnrollment)
	require.True(t, ds.HasTargetTags)
	require.True(t, ds.HasYears)

	school := ds.Roster[0]
	require.Equal(t, "7530145", school.SchoolCode)
	require.Equal(t, domain.LevelMiddle, school.Level)
	require.Equal(t, map[int]int{1: 120, 2: 100, 3: 90}, school.Grades)
	require.Equal(t, 310, school.TotalStudents)
	// roster distributor resolved through the reference table's name variant
	require.Equal(t, "이문당", school.OfficialDist)

	order := ds.Orders[0]
	require.Equal(t, "7530145", order.SchoolCode)
	require.Equal(t, 2026, order.SchoolYear)
	require.Equal(t, 115, order.Quantity)
	require.Equal(t, int64(1035000), order.Amount)
	// "102.0" normalizes and resolves like "0102"
	require.Equal(t, "0102", order.DistributorCode)
	require.Equal(t, "이문당", order.OfficialDist)
	require.Equal(t, domain.LevelMiddle, order.Level)
	require.Equal(t, domain.TargetSubject1, order.TargetTag)
	require.Equal(t, "[중등] 정보", order.DisplaySubject)

	history := ds.Orders[2]
	require.Equal(t, domain.TargetSubject2, history.TargetTag)
	require.Equal(t, "[고등] 한국사", history.DisplaySubject)

	unmapped := ds.Orders[3]
	require.Equal(t, "", unmapped.OfficialDist)
	require.Equal(t, "5001", unmapped.DistributorCode)
	require.Equal(t, domain.LevelUnknown, unmapped.Level)

	target := ds.Targets[0]
	require.Equal(t, "0102", target.DistributorCode)
	require.Equal(t, 1000, target.TargetSubject1)
	require.Equal(t, 1500, target.Combined())
}

func TestLoadMissingOptionalFiles(t *testing.T) {
	loader := testLoader(t)
	loader.cfg.TargetFile = filepath.Join(t.TempDir(), "absent.csv")
	loader.cfg.ProductFile = filepath.Join(t.TempDir(), "absent.csv")

	ds, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, ds.Targets)
	require.False(t, ds.HasTargetTags)
	// without the catalog there is no level join, so no level prefix
	require.Equal(t, "정보", ds.Orders[0].DisplaySubject)
	require.Equal(t, domain.LevelUnknown, ds.Orders[0].Level)
}

func TestLoadMissingRosterFails(t *testing.T) {
	loader := testLoader(t)
	loader.cfg.RosterFile = filepath.Join(t.TempDir(), "absent.csv")

	_, err := loader.Load(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "roster")
}

func TestLoadCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testLoader(t).Load(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
