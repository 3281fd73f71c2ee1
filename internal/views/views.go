// Package views records recruiter views of candidate profiles and reports
// them back with contact details masked and candidates aliased.
package views

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"marketplace/candidates/internal/anonymize"
	"marketplace/candidates/internal/apperr"
	"marketplace/candidates/internal/db"
	"marketplace/candidates/internal/model"
	"marketplace/candidates/internal/normalize"
)

const (
	SortViewedAt      = "viewed_at"
	SortCandidateName = "candidate_name"
	SortUserName      = "user_name"

	statsDays     = 30
	statsDayStamp = "2006-01-02"
	loggedMessage = "View logged successfully"
	unknownViewer = "Unknown"
)

// IST is the zone views are bucketed in for daily stats.
var IST = time.FixedZone("IST", 5*60*60+30*60)

type Queries interface {
	GetStudentName(ctx context.Context, id string) (string, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	UpdateUser(ctx context.Context, arg db.UpdateUserParams) error
	CreateUser(ctx context.Context, arg db.CreateUserParams) (string, error)
	InsertCandidateView(ctx context.Context, arg db.InsertCandidateViewParams) (db.InsertCandidateViewRow, error)
	CountUserViews(ctx context.Context, userID string) (int64, error)
	ListUserViews(ctx context.Context, arg db.ListUserViewsParams) ([]model.CandidateView, error)
	ListUserViewTimes(ctx context.Context, userID string) ([]model.CandidateView, error)
	ListCandidateSummaries(ctx context.Context, ids []string) ([]db.CandidateSummaryRow, error)
	GetCandidateViewTotals(ctx context.Context, candidateID string) (db.CandidateViewTotals, error)
	ListCandidateViewers(ctx context.Context, arg db.ListCandidateViewersParams) ([]db.CandidateViewerRow, error)
}

type Source interface {
	Queries
	InTx(ctx context.Context, fn func(Queries) error) error
}

type storeSource struct {
	*db.Store
}

func (s storeSource) InTx(ctx context.Context, fn func(Queries) error) error {
	return s.WithTx(ctx, func(q *db.Queries) error { return fn(q) })
}

// FromStore adapts the postgres store.
func FromStore(store *db.Store) Source {
	return storeSource{Store: store}
}

type Viewer struct {
	Email   string  `json:"email" validate:"required,email,max=255"`
	Name    string  `json:"name" validate:"required,min=1,max=255"`
	Company *string `json:"company,omitempty" validate:"omitempty,max=255"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=20"`
}

type LogResult struct {
	Message     string    `json:"message"`
	ViewID      string    `json:"viewId"`
	UserID      string    `json:"userId"`
	CandidateID string    `json:"candidateId"`
	ViewedAt    time.Time `json:"viewedAt"`
}

type PageFilters struct {
	Page  int    `json:"page" validate:"min=1"`
	Limit int    `json:"limit" validate:"min=1,max=100"`
	Order string `json:"order,omitempty" validate:"omitempty,oneof=asc desc"`
}

type HistoryFilters struct {
	PageFilters
	Sort string `json:"sort,omitempty" validate:"omitempty,oneof=viewed_at candidate_name"`
}

type ViewerFilters struct {
	PageFilters
	Sort string `json:"sort,omitempty" validate:"omitempty,oneof=viewed_at user_name"`
}

func (f PageFilters) normalize() PageFilters {
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Order == "" {
		f.Order = "desc"
	}
	return f
}

type UserSummary struct {
	UserID  string  `json:"userId"`
	Email   string  `json:"email"`
	Name    string  `json:"name"`
	Company *string `json:"company,omitempty"`
	Phone   *string `json:"phone,omitempty"`
}

type CandidateSummary struct {
	CGPA    string `json:"cgpa"`
	College string `json:"college"`
	Branch  string `json:"branch"`
}

type HistoryEntry struct {
	ViewID        string            `json:"viewId"`
	CandidateID   string            `json:"candidateId"`
	CandidateName string            `json:"candidateName"`
	ViewedAt      time.Time         `json:"viewedAt"`
	Candidate     *CandidateSummary `json:"candidate"`
}

type History struct {
	User       UserSummary      `json:"user"`
	Views      []HistoryEntry   `json:"views"`
	Pagination model.Pagination `json:"pagination"`
}

type CandidateTotals struct {
	CandidateID   string `json:"candidateId"`
	CandidateName string `json:"candidateName"`
	TotalViews    int    `json:"totalViews"`
	UniqueViewers int    `json:"uniqueViewers"`
}

type ViewerEntry struct {
	ViewID   string      `json:"viewId"`
	ViewedAt time.Time   `json:"viewedAt"`
	User     UserSummary `json:"user"`
}

type Viewers struct {
	Candidate  CandidateTotals  `json:"candidate"`
	Viewers    []ViewerEntry    `json:"viewers"`
	Pagination model.Pagination `json:"pagination"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type Stats struct {
	User             UserSummary `json:"user"`
	TotalViews       int         `json:"totalViews"`
	UniqueCandidates int         `json:"uniqueCandidates"`
	FirstViewAt      *time.Time  `json:"firstViewAt"`
	LastViewAt       *time.Time  `json:"lastViewAt"`
	ViewsByDate      []DayCount  `json:"viewsByDate"`
}

type Service struct {
	source Source
	now    func() time.Time
}

func NewService(source Source) *Service {
	return &Service{source: source, now: time.Now}
}

// LogView records one view, creating the viewer on first sight and
// refreshing their details otherwise.
func (s *Service) LogView(ctx context.Context, candidateID string, viewer Viewer) (LogResult, error) {
	var result LogResult
	err := s.source.InTx(ctx, func(q Queries) error {
		name, err := q.GetStudentName(ctx, candidateID)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("Candidate")
		}
		if err != nil {
			return err
		}

		userID, err := upsertUser(ctx, q, viewer)
		if err != nil {
			return err
		}

		row, err := q.InsertCandidateView(ctx, db.InsertCandidateViewParams{
			UserID:        userID,
			CandidateID:   candidateID,
			CandidateName: name,
			ViewedAt:      s.now().UTC(),
		})
		if err != nil {
			return err
		}
		result = LogResult{
			Message:     loggedMessage,
			ViewID:      row.ID,
			UserID:      userID,
			CandidateID: candidateID,
			ViewedAt:    row.ViewedAt,
		}
		return nil
	})
	if err != nil {
		return LogResult{}, apperr.Boundary("Failed to log candidate view", err)
	}
	return result, nil
}

func upsertUser(ctx context.Context, q Queries, viewer Viewer) (string, error) {
	user, err := q.GetUserByEmail(ctx, viewer.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return q.CreateUser(ctx, db.CreateUserParams{
			Email:   viewer.Email,
			Name:    viewer.Name,
			Company: viewer.Company,
			Phone:   viewer.Phone,
		})
	}
	if err != nil {
		return "", err
	}
	name := viewer.Name
	err = q.UpdateUser(ctx, db.UpdateUserParams{
		ID:      user.ID,
		Name:    &name,
		Company: viewer.Company,
		Phone:   viewer.Phone,
	})
	return user.ID, err
}

// UserHistory pages through the candidates a user has viewed. Stored names
// never leave the server; entries carry the alias.
func (s *Service) UserHistory(ctx context.Context, email string, f HistoryFilters) (History, error) {
	f.PageFilters = f.PageFilters.normalize()
	user, err := s.lookupUser(ctx, email)
	if err != nil {
		return History{}, err
	}

	total, err := s.source.CountUserViews(ctx, user.ID)
	if err != nil {
		return History{}, apperr.Boundary("Failed to fetch view history", err)
	}
	pagination := model.NewPagination(f.Page, f.Limit, int(total))
	views, err := s.source.ListUserViews(ctx, db.ListUserViewsParams{
		UserID:     user.ID,
		SortByName: f.Sort == SortCandidateName,
		Ascending:  f.Order == "asc",
		Limit:      int32(f.Limit),
		Offset:     int32(pagination.Offset()),
	})
	if err != nil {
		return History{}, apperr.Boundary("Failed to fetch view history", err)
	}

	ids := make([]string, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.CandidateID)
	}
	summaries, err := s.source.ListCandidateSummaries(ctx, ids)
	if err != nil {
		return History{}, apperr.Boundary("Failed to fetch view history", err)
	}
	byID := make(map[string]*CandidateSummary, len(summaries))
	for _, row := range summaries {
		summary := CandidateSummary{
			CGPA:    "0.00",
			College: deref(row.College),
			Branch:  normalize.BranchName(deref(row.Branch)),
		}
		if row.CGPA != nil {
			summary.CGPA = normalize.FormatFixed2(*row.CGPA)
		}
		byID[row.ID] = &summary
	}

	entries := make([]HistoryEntry, 0, len(views))
	for _, v := range views {
		entries = append(entries, HistoryEntry{
			ViewID:        v.ID,
			CandidateID:   v.CandidateID,
			CandidateName: anonymize.CandidateAlias(v.CandidateID),
			ViewedAt:      v.ViewedAt,
			Candidate:     byID[v.CandidateID],
		})
	}
	return History{User: maskUser(user), Views: entries, Pagination: pagination}, nil
}

// CandidateViewers pages through who viewed a candidate. Sorting by user
// name orders the current page only.
func (s *Service) CandidateViewers(ctx context.Context, candidateID string, f ViewerFilters) (Viewers, error) {
	f.PageFilters = f.PageFilters.normalize()
	if _, err := s.source.GetStudentName(ctx, candidateID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Viewers{}, apperr.NotFound("Candidate")
		}
		return Viewers{}, apperr.Boundary("Failed to fetch candidate viewers", err)
	}

	totals, err := s.source.GetCandidateViewTotals(ctx, candidateID)
	if err != nil {
		return Viewers{}, apperr.Boundary("Failed to fetch candidate viewers", err)
	}
	pagination := model.NewPagination(f.Page, f.Limit, int(totals.TotalViews))
	ascending := f.Order == "asc"
	rows, err := s.source.ListCandidateViewers(ctx, db.ListCandidateViewersParams{
		CandidateID: candidateID,
		Ascending:   ascending && f.Sort != SortUserName,
		Limit:       int32(f.Limit),
		Offset:      int32(pagination.Offset()),
	})
	if err != nil {
		return Viewers{}, apperr.Boundary("Failed to fetch candidate viewers", err)
	}

	entries := make([]ViewerEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, ViewerEntry{
			ViewID:   row.ViewID,
			ViewedAt: row.ViewedAt,
			User:     viewerSummary(row),
		})
	}
	if f.Sort == SortUserName {
		sort.SliceStable(entries, func(i, j int) bool {
			a, b := strings.ToLower(entries[i].User.Name), strings.ToLower(entries[j].User.Name)
			if ascending {
				return a < b
			}
			return a > b
		})
	}

	return Viewers{
		Candidate: CandidateTotals{
			CandidateID:   candidateID,
			CandidateName: anonymize.CandidateAlias(candidateID),
			TotalViews:    int(totals.TotalViews),
			UniqueViewers: int(totals.UniqueViewers),
		},
		Viewers:    entries,
		Pagination: pagination,
	}, nil
}

// UserStats summarizes a user's viewing activity with a per-day series in
// IST, newest day first.
func (s *Service) UserStats(ctx context.Context, email string) (Stats, error) {
	user, err := s.lookupUser(ctx, email)
	if err != nil {
		return Stats{}, err
	}
	views, err := s.source.ListUserViewTimes(ctx, user.ID)
	if err != nil {
		return Stats{}, apperr.Boundary("Failed to fetch view stats", err)
	}

	stats := Stats{User: maskUser(user), TotalViews: len(views), ViewsByDate: []DayCount{}}
	if len(views) == 0 {
		return stats, nil
	}

	candidates := make(map[string]struct{}, len(views))
	days := make(map[string]int)
	first, last := views[0].ViewedAt, views[0].ViewedAt
	for _, v := range views {
		candidates[v.CandidateID] = struct{}{}
		days[v.ViewedAt.In(IST).Format(statsDayStamp)]++
		if v.ViewedAt.Before(first) {
			first = v.ViewedAt
		}
		if v.ViewedAt.After(last) {
			last = v.ViewedAt
		}
	}
	stats.UniqueCandidates = len(candidates)
	stats.FirstViewAt = &first
	stats.LastViewAt = &last

	for day, count := range days {
		stats.ViewsByDate = append(stats.ViewsByDate, DayCount{Date: day, Count: count})
	}
	sort.Slice(stats.ViewsByDate, func(i, j int) bool {
		return stats.ViewsByDate[i].Date > stats.ViewsByDate[j].Date
	})
	if len(stats.ViewsByDate) > statsDays {
		stats.ViewsByDate = stats.ViewsByDate[:statsDays]
	}
	return stats, nil
}

func (s *Service) lookupUser(ctx context.Context, email string) (model.User, error) {
	user, err := s.source.GetUserByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, apperr.NotFound("User")
	}
	if err != nil {
		return model.User{}, apperr.Boundary("Failed to fetch user", err)
	}
	return user, nil
}

func maskUser(user model.User) UserSummary {
	return UserSummary{
		UserID:  user.ID,
		Email:   anonymize.MaskEmail(user.Email),
		Name:    user.Name,
		Company: user.Company,
		Phone:   anonymize.MaskPhone(user.Phone),
	}
}

func viewerSummary(row db.CandidateViewerRow) UserSummary {
	if row.Email == nil {
		return UserSummary{
			UserID: row.UserID,
			Email:  anonymize.MaskEmail(""),
			Name:   unknownViewer,
		}
	}
	return UserSummary{
		UserID:  row.UserID,
		Email:   anonymize.MaskEmail(*row.Email),
		Name:    deref(row.Name),
		Company: row.Company,
		Phone:   anonymize.MaskPhone(row.Phone),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
