package stats

import (
	"context"
	"errors"
	"testing"

	"marketplace/candidates/internal/apperr"
	"marketplace/candidates/internal/model"
)

type fakeSource struct {
	count       int64
	branches    []string
	statuses    []model.InterviewStatus
	branchesErr error
}

func (f fakeSource) CountStudents(context.Context) (int64, error) { return f.count, nil }

func (f fakeSource) ListStudentBranches(context.Context) ([]string, error) {
	return f.branches, f.branchesErr
}

func (f fakeSource) ListInterviewStatuses(context.Context) ([]model.InterviewStatus, error) {
	return f.statuses, nil
}

func str(s string) *string { return &s }

func TestBranchDistributionTopThreeAndOther(t *testing.T) {
	svc := NewService(fakeSource{branches: []string{
		"CSE", "Computer Science", "cs", "Information Technology", "IT",
		"ECE", "Mechanical", "Electrical", "", "",
	}})
	got, err := svc.BranchDistribution(context.Background())
	if err != nil {
		t.Fatalf("distribution: %v", err)
	}
	want := []BranchSlice{
		{Label: "CSE", Count: 3, Percent: 30, Tone: "primary-900"},
		{Label: "IT", Count: 2, Percent: 20, Tone: "primary-400"},
		{Label: "ECE", Count: 1, Percent: 10, Tone: "primary-200"},
		{Label: "Other", Count: 2, Percent: 20, Tone: "neutral-100"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d slices, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("slice %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestBranchDistributionWithoutOther(t *testing.T) {
	svc := NewService(fakeSource{branches: []string{"CSE", "IT"}})
	got, err := svc.BranchDistribution(context.Background())
	if err != nil {
		t.Fatalf("distribution: %v", err)
	}
	if len(got) != 2 || got[1].Label != "IT" || got[1].Percent != 50 {
		t.Fatalf("unexpected distribution %+v", got)
	}
}

func TestBranchDistributionEmpty(t *testing.T) {
	svc := NewService(fakeSource{})
	got, err := svc.BranchDistribution(context.Background())
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty distribution, got %+v (%v)", got, err)
	}
}

func TestVerdictSummaryBucketsAlwaysPresent(t *testing.T) {
	svc := NewService(fakeSource{statuses: []model.InterviewStatus{
		{AuditFinalStatus: str("Strong Hire")},
		{OverallLabel: str("medium")},
		{},
	}})
	got, err := svc.VerdictSummary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	want := []VerdictBucket{{"Strong", 1}, {"Medium", 1}, {"Low", 1}}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("bucket %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}

	empty, _ := NewService(fakeSource{}).VerdictSummary(context.Background())
	if len(empty) != 3 || empty[0].Count != 0 || empty[2].Label != "Low" {
		t.Fatalf("expected zeroed buckets, got %+v", empty)
	}
}

func TestSummaryComposes(t *testing.T) {
	svc := NewService(fakeSource{count: 4, branches: []string{"CSE", "CSE", "IT", "ME"}})
	got, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if got.TotalCandidates != 4 || len(got.BranchDistribution) != 3 || len(got.VerdictSummary) != 3 {
		t.Fatalf("unexpected summary %+v", got)
	}
}

func TestSummaryFailsWhenAnyPartFails(t *testing.T) {
	svc := NewService(fakeSource{count: 4, branchesErr: errors.New("timeout")})
	_, err := svc.Summary(context.Background())
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind != apperr.KindDatabase {
		t.Fatalf("expected database error, got %v", err)
	}
}
