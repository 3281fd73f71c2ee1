package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"marketplace/candidates/internal/model"
)

type StudentSort int

const (
	SortCreatedAt StudentSort = iota
	SortCGPA
)

type ListStudentRecordsParams struct {
	Search    string
	Sort      StudentSort
	Ascending bool
}

const selectStudents = `
SELECT s.user_id::text, s.full_name, s.phone, s.email, s.gender, s.resume_url,
       s.cgpa::float8, s.graduation_year, s.college_id::text, s.created_at,
       c.college_id::text, c.name, c.degree, c.branch, c.nirf_ranking, c.city, c.state
FROM students s
LEFT JOIN colleges c ON c.college_id = s.college_id
`

// ListStudentRecords returns every matching student with college,
// assessments (with sub-scores) and interviews attached. Search matches
// name, college name or branch, case-insensitively.
func (q *Queries) ListStudentRecords(ctx context.Context, arg ListStudentRecordsParams) ([]model.StudentRecord, error) {
	query := selectStudents
	args := []interface{}{}
	if arg.Search != "" {
		query += `WHERE s.full_name ILIKE $1 ESCAPE '\' OR c.name ILIKE $1 ESCAPE '\' OR c.branch ILIKE $1 ESCAPE '\'
`
		args = append(args, "%"+escapeLike(arg.Search)+"%")
	}
	query += orderClause(arg)

	records, err := q.queryStudents(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if err := q.attachRelations(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetStudentRecord returns pgx.ErrNoRows when the student does not exist.
func (q *Queries) GetStudentRecord(ctx context.Context, id string) (model.StudentRecord, error) {
	studentID, err := parseID(id)
	if err != nil {
		return model.StudentRecord{}, err
	}
	records, err := q.queryStudents(ctx, selectStudents+"WHERE s.user_id = $1", studentID)
	if err != nil {
		return model.StudentRecord{}, err
	}
	if len(records) == 0 {
		return model.StudentRecord{}, pgx.ErrNoRows
	}
	if err := q.attachRelations(ctx, records); err != nil {
		return model.StudentRecord{}, err
	}
	return records[0], nil
}

func orderClause(arg ListStudentRecordsParams) string {
	dir := "DESC"
	if arg.Ascending {
		dir = "ASC"
	}
	if arg.Sort == SortCGPA {
		return "ORDER BY s.cgpa " + dir + " NULLS LAST, s.user_id"
	}
	return "ORDER BY s.created_at " + dir + ", s.user_id"
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (q *Queries) queryStudents(ctx context.Context, query string, args ...interface{}) ([]model.StudentRecord, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]model.StudentRecord, 0)
	for rows.Next() {
		var (
			rec         model.StudentRecord
			collegeID   *string
			collegeName *string
			branch      *string
			college     model.College
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.FullName,
			&rec.Phone,
			&rec.Email,
			&rec.Gender,
			&rec.ResumeURL,
			&rec.CGPA,
			&rec.GraduationYear,
			&rec.CollegeID,
			&rec.CreatedAt,
			&collegeID,
			&collegeName,
			&college.Degree,
			&branch,
			&college.NIRFRanking,
			&college.City,
			&college.State,
		); err != nil {
			return nil, err
		}
		if collegeID != nil {
			college.ID = *collegeID
			college.Name = deref(collegeName)
			college.Branch = deref(branch)
			rec.College = &college
		}
		rec.Assessments = []model.Assessment{}
		rec.Interviews = []model.Interview{}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// attachRelations loads assessments, their scores and interviews for all
// records in three batched queries.
func (q *Queries) attachRelations(ctx context.Context, records []model.StudentRecord) error {
	if len(records) == 0 {
		return nil
	}
	index := make(map[string]int, len(records))
	ids := make([]string, 0, len(records))
	for i, rec := range records {
		index[rec.ID] = i
		ids = append(ids, rec.ID)
	}

	assessments, err := q.listAssessments(ctx, ids)
	if err != nil {
		return err
	}
	assessmentIDs := make([]string, 0, len(assessments))
	for _, a := range assessments {
		assessmentIDs = append(assessmentIDs, a.ID)
	}
	scores, err := q.listScores(ctx, assessmentIDs)
	if err != nil {
		return err
	}
	for _, a := range assessments {
		a.Scores = scores[a.ID]
		if a.Scores == nil {
			a.Scores = []model.AssessmentScore{}
		}
		i := index[a.StudentID]
		records[i].Assessments = append(records[i].Assessments, a)
	}

	interviews, err := q.listInterviews(ctx, ids)
	if err != nil {
		return err
	}
	for _, iv := range interviews {
		i := index[iv.StudentID]
		records[i].Interviews = append(records[i].Interviews, iv)
	}
	return nil
}

const listAssessments = `
SELECT assessment_id::text, student_id::text, taken_at, report_url,
       total_student_score::float8, total_assessment_score::float8, percent::float8
FROM assessments
WHERE student_id = ANY($1)
ORDER BY taken_at DESC, assessment_id
`

func (q *Queries) listAssessments(ctx context.Context, studentIDs []string) ([]model.Assessment, error) {
	rows, err := q.db.Query(ctx, listAssessments, parseIDs(studentIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Assessment, 0)
	for rows.Next() {
		var a model.Assessment
		if err := rows.Scan(
			&a.ID,
			&a.StudentID,
			&a.TakenAt,
			&a.ReportURL,
			&a.TotalStudentScore,
			&a.TotalAssessmentScore,
			&a.Percent,
		); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

const listScores = `
SELECT sc.score_id::text, sc.assessment_id::text, sc.score::float8, sc.max_score::float8,
       st.score_type_id::text, st.key, st.display_name
FROM assessment_scores sc
LEFT JOIN score_types st ON st.score_type_id = sc.score_type_id
WHERE sc.assessment_id = ANY($1)
ORDER BY sc.assessment_id, sc.score_id
`

func (q *Queries) listScores(ctx context.Context, assessmentIDs []string) (map[string][]model.AssessmentScore, error) {
	grouped := make(map[string][]model.AssessmentScore)
	if len(assessmentIDs) == 0 {
		return grouped, nil
	}
	rows, err := q.db.Query(ctx, listScores, parseIDs(assessmentIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		score, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		grouped[score.AssessmentID] = append(grouped[score.AssessmentID], score)
	}
	return grouped, rows.Err()
}

// ListAssessmentScores fetches one assessment's sub-scores.
func (q *Queries) ListAssessmentScores(ctx context.Context, assessmentID string) ([]model.AssessmentScore, error) {
	grouped, err := q.listScores(ctx, []string{assessmentID})
	if err != nil {
		return nil, err
	}
	scores := grouped[assessmentID]
	if scores == nil {
		scores = []model.AssessmentScore{}
	}
	return scores, nil
}

func scanScore(row pgx.Row) (model.AssessmentScore, error) {
	var (
		score       model.AssessmentScore
		typeID      *string
		key         *string
		displayName *string
	)
	if err := row.Scan(
		&score.ID,
		&score.AssessmentID,
		&score.Score,
		&score.MaxScore,
		&typeID,
		&key,
		&displayName,
	); err != nil {
		return score, err
	}
	if typeID != nil {
		score.ScoreType = &model.ScoreType{ID: *typeID, Key: deref(key), DisplayName: deref(displayName)}
	}
	return score, nil
}

const listInterviews = `
SELECT interview_id::text, student_id::text, interview_date, recording_url,
       self_intro_rating::float8, problem1_solving_rating::float8, problem1_code_implementation_rating::float8,
       problem2_solving_rating::float8, problem2_code_implementation_rating::float8,
       communication_rating::float8, dsa_theory_rating::float8, core_cs_theory_rating::float8,
       overall_interview_score_out_of_100::float8, audit_final_status, notes,
       problem_solving_rating::float8, conceptual_rating::float8, overall_interview_rating::float8, overall_label
FROM interviews
WHERE student_id = ANY($1)
ORDER BY interview_date DESC, interview_id
`

func (q *Queries) listInterviews(ctx context.Context, studentIDs []string) ([]model.Interview, error) {
	rows, err := q.db.Query(ctx, listInterviews, parseIDs(studentIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Interview, 0)
	for rows.Next() {
		var iv model.Interview
		if err := rows.Scan(
			&iv.ID,
			&iv.StudentID,
			&iv.InterviewDate,
			&iv.RecordingURL,
			&iv.SelfIntroRating,
			&iv.Problem1SolvingRating,
			&iv.Problem1CodeRating,
			&iv.Problem2SolvingRating,
			&iv.Problem2CodeRating,
			&iv.CommunicationRating,
			&iv.DSATheoryRating,
			&iv.CoreCSTheoryRating,
			&iv.OverallScore,
			&iv.AuditFinalStatus,
			&iv.Notes,
			&iv.ProblemSolvingRating,
			&iv.ConceptualRating,
			&iv.OverallRating,
			&iv.OverallLabel,
		); err != nil {
			return nil, err
		}
		items = append(items, iv)
	}
	return items, rows.Err()
}

func (q *Queries) CountStudents(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM students`).Scan(&count)
	return count, err
}

// ListStudentBranches returns one entry per student, empty when the student
// has no college or branch.
func (q *Queries) ListStudentBranches(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, `
SELECT COALESCE(c.branch, '')
FROM students s
LEFT JOIN colleges c ON c.college_id = s.college_id
`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (q *Queries) ListInterviewStatuses(ctx context.Context) ([]model.InterviewStatus, error) {
	rows, err := q.db.Query(ctx, `SELECT audit_final_status, overall_label FROM interviews`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.InterviewStatus, error) {
		var status model.InterviewStatus
		err := row.Scan(&status.AuditFinalStatus, &status.OverallLabel)
		return status, err
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
