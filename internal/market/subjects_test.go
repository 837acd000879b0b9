// internal/market/subjects_test.go
package market

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmass/marketshare-backend/internal/domain"
)

func TestBaseSubjectStripsSemesterMarks(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"한국사 1", "한국사"},
		{"한국사 2", "한국사"},
		{"미술 ①", "미술"},
		{"미술②", "미술"},
		{"정보", "정보"},
		{"인공지능 기초", "인공지능 기초"},
		{"  체육 1  ", "체육"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, BaseSubject(tt.in), "BaseSubject(%q)", tt.in)
	}
}

func TestCurriculumGrade(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		level   domain.SchoolLevel
		want    GradeAssignment
	}{
		{name: "middle informatics", subject: "정보", level: domain.LevelMiddle, want: SpecificGrade(1)},
		{name: "middle health", subject: "보건", level: domain.LevelMiddle, want: SpecificGrade(2)},
		{name: "middle career", subject: "진로와 직업", level: domain.LevelMiddle, want: SpecificGrade(1)},
		{name: "middle art spreads over grades", subject: "미술 ①", level: domain.LevelMiddle, want: AllGrades()},
		{name: "high korean history", subject: "한국사 2", level: domain.LevelHigh, want: SpecificGrade(1)},
		{name: "high ai basics", subject: "인공지능 기초", level: domain.LevelHigh, want: SpecificGrade(1)},
		{name: "high elective", subject: "미적분", level: domain.LevelHigh, want: AllGrades()},
		{name: "name variant via keyword", subject: "진로와직업", level: domain.LevelMiddle, want: SpecificGrade(1)},
		{name: "unknown level", subject: "미적분", level: domain.LevelUnknown, want: IndeterminateGrade()},
		{name: "empty name", subject: "  ", level: domain.LevelMiddle, want: IndeterminateGrade()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CurriculumGrade(tt.subject, tt.level))
		})
	}
}

func TestDisplaySubject(t *testing.T) {
	require.Equal(t, "[중등] 정보", DisplaySubject("정보", domain.LevelMiddle))
	require.Equal(t, "[고등] 정보", DisplaySubject("정보", domain.LevelHigh))
	require.Equal(t, "수학", DisplaySubject("수학", domain.LevelElementary))
	require.Equal(t, "", DisplaySubject("  ", domain.LevelMiddle))
}
