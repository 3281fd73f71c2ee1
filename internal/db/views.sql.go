package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"marketplace/candidates/internal/model"
)

// GetStudentName returns pgx.ErrNoRows for unknown students.
func (q *Queries) GetStudentName(ctx context.Context, id string) (string, error) {
	studentID, err := parseID(id)
	if err != nil {
		return "", err
	}
	var name string
	err = q.db.QueryRow(ctx, `SELECT full_name FROM students WHERE user_id = $1`, studentID).Scan(&name)
	return name, err
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	err := q.db.QueryRow(ctx, `
SELECT user_id::text, email, name, company, phone, created_at
FROM users
WHERE lower(email) = lower($1)
`, email).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Company,
		&user.Phone,
		&user.CreatedAt,
	)
	return user, err
}

type UpdateUserParams struct {
	ID      string
	Name    *string
	Company *string
	Phone   *string
}

// UpdateUser overwrites only the fields that are set.
func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) error {
	userID, err := parseID(arg.ID)
	if err != nil {
		return err
	}
	_, err = q.db.Exec(ctx, `
UPDATE users
SET name = COALESCE($2, name),
    company = COALESCE($3, company),
    phone = COALESCE($4, phone)
WHERE user_id = $1
`, userID, arg.Name, arg.Company, arg.Phone)
	return err
}

type CreateUserParams struct {
	Email   string
	Name    string
	Company *string
	Phone   *string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (string, error) {
	var id string
	err := q.db.QueryRow(ctx, `
INSERT INTO users (email, name, company, phone)
VALUES ($1, $2, $3, $4)
RETURNING user_id::text
`, arg.Email, arg.Name, arg.Company, arg.Phone).Scan(&id)
	return id, err
}

type InsertCandidateViewParams struct {
	UserID        string
	CandidateID   string
	CandidateName string
	ViewedAt      time.Time
}

type InsertCandidateViewRow struct {
	ID       string
	ViewedAt time.Time
}

func (q *Queries) InsertCandidateView(ctx context.Context, arg InsertCandidateViewParams) (InsertCandidateViewRow, error) {
	var row InsertCandidateViewRow
	userID, err := parseID(arg.UserID)
	if err != nil {
		return row, err
	}
	candidateID, err := parseID(arg.CandidateID)
	if err != nil {
		return row, err
	}
	err = q.db.QueryRow(ctx, `
INSERT INTO candidate_views (user_id, candidate_id, candidate_name, viewed_at)
VALUES ($1, $2, $3, $4)
RETURNING view_id::text, viewed_at
`, userID, candidateID, arg.CandidateName, arg.ViewedAt).Scan(&row.ID, &row.ViewedAt)
	return row, err
}

func (q *Queries) CountUserViews(ctx context.Context, userID string) (int64, error) {
	id, err := parseID(userID)
	if err != nil {
		return 0, nil
	}
	var count int64
	err = q.db.QueryRow(ctx, `SELECT count(*) FROM candidate_views WHERE user_id = $1`, id).Scan(&count)
	return count, err
}

type ListUserViewsParams struct {
	UserID     string
	SortByName bool
	Ascending  bool
	Limit      int32
	Offset     int32
}

func (q *Queries) ListUserViews(ctx context.Context, arg ListUserViewsParams) ([]model.CandidateView, error) {
	id, err := parseID(arg.UserID)
	if err != nil {
		return []model.CandidateView{}, nil
	}
	column := "viewed_at"
	if arg.SortByName {
		column = "candidate_name"
	}
	dir := "DESC"
	if arg.Ascending {
		dir = "ASC"
	}
	rows, err := q.db.Query(ctx, `
SELECT view_id::text, user_id::text, candidate_id::text, candidate_name, viewed_at
FROM candidate_views
WHERE user_id = $1
ORDER BY `+column+` `+dir+`, view_id
LIMIT $2 OFFSET $3
`, id, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanCandidateView)
}

// ListUserViewTimes returns all of a user's views, oldest first.
func (q *Queries) ListUserViewTimes(ctx context.Context, userID string) ([]model.CandidateView, error) {
	id, err := parseID(userID)
	if err != nil {
		return []model.CandidateView{}, nil
	}
	rows, err := q.db.Query(ctx, `
SELECT view_id::text, user_id::text, candidate_id::text, candidate_name, viewed_at
FROM candidate_views
WHERE user_id = $1
ORDER BY viewed_at ASC, view_id
`, id)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanCandidateView)
}

func scanCandidateView(row pgx.CollectableRow) (model.CandidateView, error) {
	var v model.CandidateView
	err := row.Scan(&v.ID, &v.UserID, &v.CandidateID, &v.CandidateName, &v.ViewedAt)
	return v, err
}

type CandidateSummaryRow struct {
	ID      string
	CGPA    *float64
	College *string
	Branch  *string
}

func (q *Queries) ListCandidateSummaries(ctx context.Context, ids []string) ([]CandidateSummaryRow, error) {
	if len(ids) == 0 {
		return []CandidateSummaryRow{}, nil
	}
	rows, err := q.db.Query(ctx, `
SELECT s.user_id::text, s.cgpa::float8, c.name, c.branch
FROM students s
LEFT JOIN colleges c ON c.college_id = s.college_id
WHERE s.user_id = ANY($1)
`, parseIDs(ids))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (CandidateSummaryRow, error) {
		var r CandidateSummaryRow
		err := row.Scan(&r.ID, &r.CGPA, &r.College, &r.Branch)
		return r, err
	})
}

type CandidateViewTotals struct {
	TotalViews    int64
	UniqueViewers int64
}

func (q *Queries) GetCandidateViewTotals(ctx context.Context, candidateID string) (CandidateViewTotals, error) {
	var totals CandidateViewTotals
	id, err := parseID(candidateID)
	if err != nil {
		return totals, nil
	}
	err = q.db.QueryRow(ctx, `
SELECT count(*), count(DISTINCT user_id)
FROM candidate_views
WHERE candidate_id = $1
`, id).Scan(&totals.TotalViews, &totals.UniqueViewers)
	return totals, err
}

type ListCandidateViewersParams struct {
	CandidateID string
	Ascending   bool
	Limit       int32
	Offset      int32
}

// CandidateViewerRow carries the viewer's user columns, nil when the user
// row no longer exists.
type CandidateViewerRow struct {
	ViewID   string
	UserID   string
	ViewedAt time.Time
	Email    *string
	Name     *string
	Company  *string
	Phone    *string
}

func (q *Queries) ListCandidateViewers(ctx context.Context, arg ListCandidateViewersParams) ([]CandidateViewerRow, error) {
	id, err := parseID(arg.CandidateID)
	if err != nil {
		return []CandidateViewerRow{}, nil
	}
	dir := "DESC"
	if arg.Ascending {
		dir = "ASC"
	}
	rows, err := q.db.Query(ctx, `
SELECT v.view_id::text, v.user_id::text, v.viewed_at, u.email, u.name, u.company, u.phone
FROM candidate_views v
LEFT JOIN users u ON u.user_id = v.user_id
WHERE v.candidate_id = $1
ORDER BY v.viewed_at `+dir+`, v.view_id
LIMIT $2 OFFSET $3
`, id, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (CandidateViewerRow, error) {
		var r CandidateViewerRow
		err := row.Scan(&r.ViewID, &r.UserID, &r.ViewedAt, &r.Email, &r.Name, &r.Company, &r.Phone)
		return r, err
	})
}
