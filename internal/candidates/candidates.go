// Package candidates implements the listing pipeline: fetch, transform,
// aggregate over the searched set, sort by derived scores, filter by
// verdict, paginate.
package candidates

import (
	"context"
	"sort"

	"marketplace/candidates/internal/apperr"
	"marketplace/candidates/internal/db"
	"marketplace/candidates/internal/model"
	"marketplace/candidates/internal/normalize"
	"marketplace/candidates/internal/transform"
)

const (
	SortLatest     = "latest"
	SortCGPA       = "cgpa"
	SortAssessment = "assessment_avg"
	SortInterview  = "interview_avg"

	OrderAsc  = "asc"
	OrderDesc = "desc"

	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

type Filters struct {
	Page           int    `json:"page" validate:"min=1"`
	Limit          int    `json:"limit" validate:"min=1,max=100"`
	Search         string `json:"search,omitempty" validate:"max=200"`
	Verdict        string `json:"verdict,omitempty" validate:"omitempty,oneof=Strong Medium Low All"`
	Sort           string `json:"sort,omitempty" validate:"omitempty,oneof=assessment_avg interview_avg cgpa latest"`
	Order          string `json:"order,omitempty" validate:"omitempty,oneof=asc desc"`
	IncludeAllData bool   `json:"includeAllData,omitempty"`
}

// Normalize fills zero values with defaults.
func (f Filters) Normalize() Filters {
	if f.Page == 0 {
		f.Page = DefaultPage
	}
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	if f.Sort == "" {
		f.Sort = SortLatest
	}
	if f.Order == "" {
		f.Order = OrderDesc
	}
	return f
}

type BranchShare struct {
	Label   string `json:"label"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

type Result[T any] struct {
	Data          []T                 `json:"data"`
	Pagination    model.Pagination    `json:"pagination"`
	VerdictCounts model.VerdictCounts `json:"verdictCounts"`
	BranchMix     []BranchShare       `json:"branchMix"`
}

type Source interface {
	ListStudentRecords(ctx context.Context, arg db.ListStudentRecordsParams) ([]model.StudentRecord, error)
}

type Service struct {
	source Source
}

func NewService(source Source) *Service {
	return &Service{source: source}
}

// List returns anonymized candidates.
func (s *Service) List(ctx context.Context, f Filters) (Result[transform.Candidate], error) {
	return run(ctx, s.source, f, transform.ToCandidate)
}

// ListComplete returns unmasked records. Callers gate it behind an explicit
// opt-in.
func (s *Service) ListComplete(ctx context.Context, f Filters) (Result[transform.CompleteRecord], error) {
	return run(ctx, s.source, f, transform.ToCompleteRecord)
}

func run[T transform.Row](ctx context.Context, source Source, f Filters, convert func(model.StudentRecord) T) (Result[T], error) {
	f = f.Normalize()

	records, err := source.ListStudentRecords(ctx, queryParams(f))
	if err != nil {
		return Result[T]{}, apperr.Boundary("Failed to fetch candidates", err)
	}

	rows := make([]T, 0, len(records))
	for i := range records {
		records[i].SortHistory()
		rows = append(rows, convert(records[i]))
	}

	counts, mix := aggregate(rows)

	switch f.Sort {
	case SortAssessment:
		sortRows(rows, func(r T) float64 { return r.AssessmentSortKey() }, f.Order == OrderAsc)
	case SortInterview:
		sortRows(rows, func(r T) float64 { return r.InterviewSortKey() }, f.Order == OrderAsc)
	}

	if verdict, ok := model.VerdictForFilter(f.Verdict); ok {
		filtered := rows[:0:0]
		for _, row := range rows {
			if row.RowVerdict() == verdict {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	pagination := model.NewPagination(f.Page, f.Limit, len(rows))
	return Result[T]{
		Data:          page(rows, pagination),
		Pagination:    pagination,
		VerdictCounts: counts,
		BranchMix:     mix,
	}, nil
}

// queryParams pushes stored-column sorts to the data source. Derived sorts
// fetch by creation time in the requested direction, which orders their
// ties, and are sorted after transformation.
func queryParams(f Filters) db.ListStudentRecordsParams {
	params := db.ListStudentRecordsParams{
		Search:    f.Search,
		Sort:      db.SortCreatedAt,
		Ascending: f.Order == OrderAsc,
	}
	if f.Sort == SortCGPA {
		params.Sort = db.SortCGPA
	}
	return params
}

func aggregate[T transform.Row](rows []T) (model.VerdictCounts, []BranchShare) {
	var counts model.VerdictCounts
	branches := make([]string, 0, len(rows))
	for _, row := range rows {
		counts.Add(row.RowVerdict())
		branches = append(branches, row.RowBranch())
	}

	histogram := normalize.CountBranches(branches)
	mix := make([]BranchShare, 0, len(histogram))
	for _, b := range histogram {
		mix = append(mix, BranchShare{
			Label:   b.Label,
			Count:   b.Count,
			Percent: normalize.Percent(b.Count, len(rows)),
		})
	}
	return counts, mix
}

func sortRows[T any](rows []T, key func(T) float64, ascending bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		if ascending {
			return key(rows[i]) < key(rows[j])
		}
		return key(rows[i]) > key(rows[j])
	})
}

func page[T any](rows []T, p model.Pagination) []T {
	start := p.Offset()
	if start >= len(rows) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
