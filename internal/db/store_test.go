package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("CANDIDATES_TEST_DB")
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		t.Skip("CANDIDATES_TEST_DB or DATABASE_URL not set")
		return nil
	}
	pool, err := NewPool(context.Background(), url)
	if err != nil {
		t.Skipf("db unavailable: %v", err)
		return nil
	}
	t.Cleanup(pool.Close)
	store := NewStore(pool)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

type seeded struct {
	studentID    string
	assessmentID string
}

func seedStudent(t *testing.T, store *Store, name string) seeded {
	t.Helper()
	ctx := context.Background()
	var collegeID, studentID, assessmentID string
	tag := uuid.NewString()

	if err := store.Pool.QueryRow(ctx, `
INSERT INTO colleges (name, branch) VALUES ($1, 'Computer Science') RETURNING college_id::text
`, "College "+tag).Scan(&collegeID); err != nil {
		t.Fatalf("seed college: %v", err)
	}
	if err := store.Pool.QueryRow(ctx, `
INSERT INTO students (full_name, email, cgpa, college_id) VALUES ($1, $2, 8.5, $3) RETURNING user_id::text
`, name, tag+"@example.com", collegeID).Scan(&studentID); err != nil {
		t.Fatalf("seed student: %v", err)
	}
	if err := store.Pool.QueryRow(ctx, `
INSERT INTO assessments (student_id, taken_at, total_student_score, total_assessment_score)
VALUES ($1, '2024-01-15T10:00:00Z', 80, 100) RETURNING assessment_id::text
`, studentID).Scan(&assessmentID); err != nil {
		t.Fatalf("seed assessment: %v", err)
	}
	var typeID int
	if err := store.Pool.QueryRow(ctx, `
INSERT INTO score_types (key, display_name) VALUES ($1, 'Aptitude') RETURNING score_type_id
`, "aptitude-"+tag).Scan(&typeID); err != nil {
		t.Fatalf("seed score type: %v", err)
	}
	if _, err := store.Pool.Exec(ctx, `
INSERT INTO assessment_scores (assessment_id, score_type_id, score, max_score) VALUES ($1, $2, 40, 50)
`, assessmentID, typeID); err != nil {
		t.Fatalf("seed score: %v", err)
	}
	if _, err := store.Pool.Exec(ctx, `
INSERT INTO interviews (student_id, interview_date, overall_interview_score_out_of_100, audit_final_status)
VALUES ($1, '2024-02-01', 82, 'Strong Hire')
`, studentID); err != nil {
		t.Fatalf("seed interview: %v", err)
	}

	t.Cleanup(func() {
		_, _ = store.Pool.Exec(context.Background(), `DELETE FROM students WHERE user_id = $1`, studentID)
		_, _ = store.Pool.Exec(context.Background(), `DELETE FROM colleges WHERE college_id = $1`, collegeID)
		_, _ = store.Pool.Exec(context.Background(), `DELETE FROM score_types WHERE score_type_id = $1`, typeID)
	})
	return seeded{studentID: studentID, assessmentID: assessmentID}
}

func TestStudentRecordRelations(t *testing.T) {
	store := openTestStore(t)
	name := "Relations " + uuid.NewString()
	s := seedStudent(t, store, name)

	rec, err := store.GetStudentRecord(context.Background(), s.studentID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec.FullName != name {
		t.Fatalf("expected name %q, got %q", name, rec.FullName)
	}
	if rec.College == nil || rec.College.Branch != "Computer Science" {
		t.Fatalf("expected college attached, got %+v", rec.College)
	}
	if len(rec.Assessments) != 1 || len(rec.Assessments[0].Scores) != 1 {
		t.Fatalf("expected one assessment with one score, got %+v", rec.Assessments)
	}
	if rec.Assessments[0].Scores[0].ScoreType == nil {
		t.Fatalf("expected score type joined")
	}
	if len(rec.Interviews) != 1 || rec.Interviews[0].Verdict() != "Strong Hire" {
		t.Fatalf("expected one strong interview, got %+v", rec.Interviews)
	}

	scores, err := store.ListAssessmentScores(context.Background(), s.assessmentID)
	if err != nil || len(scores) != 1 {
		t.Fatalf("expected one score, got %d (%v)", len(scores), err)
	}
}

func TestListStudentRecordsSearch(t *testing.T) {
	store := openTestStore(t)
	tag := uuid.NewString()
	seedStudent(t, store, "Search_"+tag)

	records, err := store.ListStudentRecords(context.Background(), ListStudentRecordsParams{Search: "search_" + tag})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 match, got %d", len(records))
	}

	records, err = store.ListStudentRecords(context.Background(), ListStudentRecordsParams{Search: "%" + tag + "x"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected wildcard to be literal, got %d", len(records))
	}
}

func TestGetStudentRecordMissing(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.GetStudentRecord(context.Background(), uuid.NewString()); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
	if _, err := store.GetStudentRecord(context.Background(), "not-a-uuid"); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected ErrNoRows for malformed id, got %v", err)
	}
}

func TestCandidateViewsRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	s := seedStudent(t, store, "Viewed "+uuid.NewString())
	email := uuid.NewString() + "@corp.example"

	var userID string
	err := store.WithTx(ctx, func(q *Queries) error {
		id, err := q.CreateUser(ctx, CreateUserParams{Email: email, Name: "Recruiter"})
		if err != nil {
			return err
		}
		userID = id
		for i := 0; i < 2; i++ {
			if _, err := q.InsertCandidateView(ctx, InsertCandidateViewParams{
				UserID:        id,
				CandidateID:   s.studentID,
				CandidateName: "Viewed",
				ViewedAt:      time.Now().Add(time.Duration(i) * time.Minute),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
	t.Cleanup(func() {
		_, _ = store.Pool.Exec(context.Background(), `DELETE FROM users WHERE user_id = $1`, userID)
	})

	user, err := store.GetUserByEmail(ctx, email)
	if err != nil || user.ID != userID {
		t.Fatalf("expected user lookup by email, got %+v (%v)", user, err)
	}
	count, err := store.CountUserViews(ctx, userID)
	if err != nil || count != 2 {
		t.Fatalf("expected 2 views, got %d (%v)", count, err)
	}
	totals, err := store.GetCandidateViewTotals(ctx, s.studentID)
	if err != nil || totals.TotalViews != 2 || totals.UniqueViewers != 1 {
		t.Fatalf("unexpected totals %+v (%v)", totals, err)
	}
	viewers, err := store.ListCandidateViewers(ctx, ListCandidateViewersParams{CandidateID: s.studentID, Limit: 10})
	if err != nil || len(viewers) != 2 {
		t.Fatalf("expected 2 viewer rows, got %d (%v)", len(viewers), err)
	}
	if viewers[0].Name == nil || *viewers[0].Name != "Recruiter" {
		t.Fatalf("expected joined user name")
	}
	if !viewers[0].ViewedAt.After(viewers[1].ViewedAt) {
		t.Fatalf("expected newest view first")
	}
}
