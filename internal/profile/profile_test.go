package profile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"marketplace/candidates/internal/apperr"
	"marketplace/candidates/internal/model"
)

type fakeSource struct {
	mu        sync.Mutex
	record    model.StudentRecord
	err       error
	scores    map[string][]model.AssessmentScore
	scoreErrs map[string]error
	fetched   []string
}

func (f *fakeSource) GetStudentRecord(_ context.Context, id string) (model.StudentRecord, error) {
	if f.err != nil {
		return model.StudentRecord{}, f.err
	}
	if id != f.record.ID {
		return model.StudentRecord{}, pgx.ErrNoRows
	}
	rec := f.record
	rec.Assessments = append([]model.Assessment(nil), f.record.Assessments...)
	rec.Interviews = append([]model.Interview(nil), f.record.Interviews...)
	return rec, nil
}

func (f *fakeSource) ListAssessmentScores(_ context.Context, assessmentID string) ([]model.AssessmentScore, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, assessmentID)
	f.mu.Unlock()
	if err := f.scoreErrs[assessmentID]; err != nil {
		return nil, err
	}
	return f.scores[assessmentID], nil
}

func f64(v float64) *float64 { return &v }
func str(s string) *string   { return &s }

func record() model.StudentRecord {
	return model.StudentRecord{
		ID:       "stu-1",
		FullName: "Arjun Rao",
		Email:    str("arjun@example.com"),
		College:  &model.College{Name: "NIT Warangal", Branch: "CSE"},
		Assessments: []model.Assessment{
			{ID: "old", TakenAt: "2023-06-01T00:00:00Z", TotalStudentScore: f64(50), TotalAssessmentScore: f64(100), Scores: []model.AssessmentScore{}},
			{ID: "new", TakenAt: "2024-06-01T00:00:00Z", TotalStudentScore: f64(90), TotalAssessmentScore: f64(100), Scores: []model.AssessmentScore{}},
			{ID: "broken", TakenAt: "not a date", Scores: []model.AssessmentScore{}},
		},
		Interviews: []model.Interview{
			{ID: "i-old", InterviewDate: "2023-07-01", AuditFinalStatus: str("Consider")},
			{ID: "i-new", InterviewDate: "2024-07-01", AuditFinalStatus: str("Strong Hire")},
		},
	}
}

func TestGetSortsHistoryAndBackfills(t *testing.T) {
	src := &fakeSource{
		record: record(),
		scores: map[string][]model.AssessmentScore{
			"new": {{ID: "sc1", Score: 45, MaxScore: 50, ScoreType: &model.ScoreType{Key: "coding", DisplayName: "Coding"}}},
		},
	}
	svc := NewService(src, zap.NewNop())

	p, err := svc.Get(context.Background(), "stu-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.LatestAssessment == nil || p.LatestAssessment.AssessmentID != "new" {
		t.Fatalf("expected newest assessment first, got %+v", p.LatestAssessment)
	}
	if len(p.AllAssessments) != 3 || p.AllAssessments[2].AssessmentID != "broken" {
		t.Fatalf("expected unparsable date last, got %+v", p.AllAssessments)
	}
	if p.LatestInterview == nil || p.LatestInterview.InterviewID != "i-new" {
		t.Fatalf("expected newest interview first")
	}
	if p.Recommendation != model.VerdictStrongHire {
		t.Fatalf("expected verdict from newest interview, got %s", p.Recommendation)
	}
	if len(p.LatestAssessment.Scores) != 1 {
		t.Fatalf("expected backfilled scores, got %+v", p.LatestAssessment.Scores)
	}
	if len(p.Skills) == 0 || p.Skills[0] != "Strong Problem Solving" {
		t.Fatalf("expected skills from backfilled scores, got %v", p.Skills)
	}
	if len(src.fetched) != 3 {
		t.Fatalf("expected a backfill per empty assessment, got %v", src.fetched)
	}
	if p.Name == "Arjun Rao" || p.Email == nil || *p.Email == "arjun@example.com" {
		t.Fatalf("profile must be anonymized")
	}
}

func TestBackfillFailureIsNotFatal(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	src := &fakeSource{
		record:    record(),
		scoreErrs: map[string]error{"new": errors.New("statement timeout")},
	}
	svc := NewService(src, zap.New(core))

	p, err := svc.Get(context.Background(), "stu-1")
	if err != nil {
		t.Fatalf("expected profile despite backfill failure, got %v", err)
	}
	if p.LatestAssessment == nil || p.LatestAssessment.Scores == nil || len(p.LatestAssessment.Scores) != 0 {
		t.Fatalf("expected empty score list, got %+v", p.LatestAssessment)
	}
	if logs.FilterMessage("assessment score backfill failed").Len() != 1 {
		t.Fatalf("expected one warning, got %d", logs.Len())
	}
}

func TestGetNotFound(t *testing.T) {
	svc := NewService(&fakeSource{record: record()}, nil)
	_, err := svc.Get(context.Background(), "missing")
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err.Error() != "Student not found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestGetWrapsPrimaryFailure(t *testing.T) {
	svc := NewService(&fakeSource{err: errors.New("connection reset")}, nil)
	_, err := svc.Get(context.Background(), "stu-1")
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind != apperr.KindDatabase {
		t.Fatalf("expected database error, got %v", err)
	}
}

func TestGetComplete(t *testing.T) {
	svc := NewService(&fakeSource{record: record()}, nil)
	rec, err := svc.GetComplete(context.Background(), "stu-1")
	if err != nil {
		t.Fatalf("get complete: %v", err)
	}
	if rec.FullName != "Arjun Rao" || rec.Email == nil || *rec.Email != "arjun@example.com" {
		t.Fatalf("complete record must carry raw fields, got %+v", rec.StudentRecord)
	}
	if rec.Assessments[0].ID != "new" {
		t.Fatalf("expected sorted history in complete mode")
	}
}
