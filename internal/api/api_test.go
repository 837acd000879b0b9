// internal/api/api_test.go
package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/cmass/marketshare-backend/internal/domain"
	"github.com/cmass/marketshare-backend/internal/service"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ds := &domain.Dataset{
		Roster: []domain.SchoolRoster{
			{
				SchoolCode: "S1", Level: domain.LevelMiddle, Region: "경남",
				Distributor: "이문당", OfficialDist: "이문당",
				Grades: map[int]int{1: 120, 2: 100, 3: 90}, TotalStudents: 310,
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
				SchoolCode: "S1", SchoolYear: 2026, BookCode: "9999",
				Subject: "미지정", Quantity: 10, DistributorCode: "5001", Region: "경남",
			},
		},
		Targets: []domain.SalesTarget{
			{DistributorCode: "102", DistributorName: "이문당", TargetSubject1: 100},
		},
		Distributors: []domain.DistributorEntry{
			{Code: "102", Name: "통영)이문당", OfficialName: "이문당", GradeLetter: "B"},
		},
		HasGradeEnrollment: true,
		HasTargetTags:      true,
	}

	svc := service.NewReportService(ds, nil, 2026)
	return NewRouter(&Services{ReportService: svc}, []string{"*"})
}

func getJSON(t *testing.T, router http.Handler, path string) map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, "GET %s: %s", path, rec.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestReportEndpoints(t *testing.T) {
	router := testRouter(t)

	body := getJSON(t, router, "/api/v1/reports/summary")
	require.EqualValues(t, 2026, body["year"])
	summary := body["summary"].(map[string]any)
	require.EqualValues(t, 125, summary["total_orders"])

	for _, path := range []string{
		"/api/v1/reports/shares/subject",
		"/api/v1/reports/shares/distributor",
		"/api/v1/reports/shares/region",
		"/api/v1/reports/shares/matrix",
	} {
		body := getJSON(t, router, path)
		rows := body["rows"].([]any)
		require.NotEmpty(t, rows, path)

		total := 0.0
		for _, raw := range rows {
			row := raw.(map[string]any)
			total += row["quantity"].(float64)
		}
		require.EqualValues(t, 125, total, path)
	}
}

func TestAchievementEndpoint(t *testing.T) {
	router := testRouter(t)

	body := getJSON(t, router, "/api/v1/reports/achievement")
	rows := body["rows"].([]any)
	require.Len(t, rows, 1)
	row := rows[0].(map[string]any)
	require.Equal(t, "이문당", row["distributor"])
	require.InDelta(t, 115.0, row["achievement_pct"].(float64), 0.001)
}

func TestDiagnosticsEndpoints(t *testing.T) {
	router := testRouter(t)

	body := getJSON(t, router, "/api/v1/diagnostics/unmapped")
	rows := body["rows"].([]any)
	require.Len(t, rows, 1)
	row := rows[0].(map[string]any)
	require.Equal(t, "5001", row["raw_code"])

	body = getJSON(t, router, "/api/v1/diagnostics/suggestions")
	require.EqualValues(t, 0, body["count"])
}

func TestUnknownRoute(t *testing.T) {
	router := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
