package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/univlabs/campus-portal-api/internal/models"
)

type attendanceRepoStub struct {
	records map[string][]models.SubjectAttendance
	upserts []models.SubjectAttendance
}

func newAttendanceRepoStub() *attendanceRepoStub {
	return &attendanceRepoStub{records: make(map[string][]models.SubjectAttendance)}
}

func (a *attendanceRepoStub) ListByStudent(ctx context.Context, studentID string) ([]models.SubjectAttendance, error) {
	return a.records[studentID], nil
}

func (a *attendanceRepoStub) Upsert(ctx context.Context, record *models.SubjectAttendance) error {
	a.upserts = append(a.upserts, *record)
	return nil
}

func TestAttendancePercentage(t *testing.T) {
	svc := NewAttendanceService(newAttendanceRepoStub(), nil, nil, 75, nil)

	cases := []struct {
		attended, total int
		want            *int
	}{
		{0, 0, nil},
		{3, 4, intPtr(75)},
		{2, 3, intPtr(67)},
		{74, 100, intPtr(74)},
		{10, 10, intPtr(100)},
		{0, 5, intPtr(0)},
	}
	for _, tc := range cases {
		got := svc.Percentage(models.SubjectAttendance{Attended: tc.attended, Total: tc.total})
		if tc.want == nil {
			require.Nil(t, got, "%d/%d", tc.attended, tc.total)
			continue
		}
		require.NotNil(t, got, "%d/%d", tc.attended, tc.total)
		require.Equal(t, *tc.want, *got, "%d/%d", tc.attended, tc.total)
	}
}

func TestAttendanceOverallIsWeighted(t *testing.T) {
	svc := NewAttendanceService(newAttendanceRepoStub(), nil, nil, 75, nil)

	overall := svc.Overall([]models.SubjectAttendance{
		{Attended: 2, Total: 4},
		{Attended: 1, Total: 2},
	})
	require.NotNil(t, overall)
	require.Equal(t, 50, *overall)

	// 1/1 and 0/9: the ten-class total dominates, so the overall is 10,
	// not the 50 a percentage average would give.
	overall = svc.Overall([]models.SubjectAttendance{
		{Attended: 1, Total: 1},
		{Attended: 0, Total: 9},
	})
	require.NotNil(t, overall)
	require.Equal(t, 10, *overall)
}

func TestAttendanceOverallNoData(t *testing.T) {
	svc := NewAttendanceService(newAttendanceRepoStub(), nil, nil, 75, nil)

	require.Nil(t, svc.Overall(nil))
	require.Nil(t, svc.Overall([]models.SubjectAttendance{{Attended: 0, Total: 0}}))
}

func TestAttendanceAtRisk(t *testing.T) {
	svc := NewAttendanceService(newAttendanceRepoStub(), nil, nil, 75, nil)

	require.True(t, svc.AtRisk(intPtr(74)))
	require.False(t, svc.AtRisk(intPtr(75)))
	require.False(t, svc.AtRisk(nil))
}

func TestAttendanceRecordRejectsOvercount(t *testing.T) {
	repo := newAttendanceRepoStub()
	svc := NewAttendanceService(repo, nil, nil, 75, nil)

	_, err := svc.Record(context.Background(), RecordAttendanceRequest{
		StudentID: "s1",
		Subject:   "Math",
		Attended:  5,
		Total:     4,
	})
	require.Error(t, err)
	require.Empty(t, repo.upserts)
}

func TestAttendanceStudentReport(t *testing.T) {
	repo := newAttendanceRepoStub()
	repo.records["s1"] = []models.SubjectAttendance{
		{StudentID: "s1", Subject: "Math", Attended: 3, Total: 4},
		{StudentID: "s1", Subject: "Labs", Attended: 0, Total: 0},
	}
	svc := NewAttendanceService(repo, nil, nil, 75, nil)

	report, err := svc.StudentReport(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, report.Subjects, 2)
	require.Equal(t, 75, *report.Subjects[0].Percentage)
	require.Nil(t, report.Subjects[1].Percentage)
	require.False(t, report.Subjects[1].AtRisk)
	require.Equal(t, 75, *report.Overall)
	require.False(t, report.AtRisk)
}

func intPtr(v int) *int {
	return &v
}
