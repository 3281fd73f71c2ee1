package stats

import (
	"context"

	"golang.org/x/sync/errgroup"

	"marketplace/candidates/internal/apperr"
	"marketplace/candidates/internal/model"
	"marketplace/candidates/internal/normalize"
)

const (
	topBranches = 3
	otherLabel  = "Other"
	otherTone   = "neutral-100"
)

var rankTones = [topBranches]string{"primary-900", "primary-400", "primary-200"}

type Source interface {
	CountStudents(ctx context.Context) (int64, error)
	ListStudentBranches(ctx context.Context) ([]string, error)
	ListInterviewStatuses(ctx context.Context) ([]model.InterviewStatus, error)
}

type BranchSlice struct {
	Label   string `json:"label"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
	Tone    string `json:"tone"`
}

type VerdictBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type Summary struct {
	TotalCandidates    int             `json:"totalCandidates"`
	BranchDistribution []BranchSlice   `json:"branchDistribution"`
	VerdictSummary     []VerdictBucket `json:"verdictSummary"`
}

type Service struct {
	source Source
}

func NewService(source Source) *Service {
	return &Service{source: source}
}

func (s *Service) TotalCount(ctx context.Context) (int, error) {
	count, err := s.source.CountStudents(ctx)
	if err != nil {
		return 0, apperr.Boundary("Failed to fetch candidate count", err)
	}
	return int(count), nil
}

// BranchDistribution returns the three largest branches plus an "Other"
// bucket. Percentages are of all students, including those without a
// branch.
func (s *Service) BranchDistribution(ctx context.Context) ([]BranchSlice, error) {
	branches, err := s.source.ListStudentBranches(ctx)
	if err != nil {
		return nil, apperr.Boundary("Failed to fetch branch distribution", err)
	}

	total := len(branches)
	histogram := normalize.CountBranches(branches)
	slices := make([]BranchSlice, 0, topBranches+1)
	other := 0
	for i, b := range histogram {
		if i >= topBranches {
			other += b.Count
			continue
		}
		slices = append(slices, BranchSlice{
			Label:   b.Label,
			Count:   b.Count,
			Percent: normalize.Percent(b.Count, total),
			Tone:    rankTones[i],
		})
	}
	if other > 0 {
		slices = append(slices, BranchSlice{
			Label:   otherLabel,
			Count:   other,
			Percent: normalize.Percent(other, total),
			Tone:    otherTone,
		})
	}
	return slices, nil
}

// VerdictSummary always returns Strong, Medium and Low in that order.
func (s *Service) VerdictSummary(ctx context.Context) ([]VerdictBucket, error) {
	statuses, err := s.source.ListInterviewStatuses(ctx)
	if err != nil {
		return nil, apperr.Boundary("Failed to fetch verdict summary", err)
	}
	var counts model.VerdictCounts
	for _, status := range statuses {
		counts.Add(model.ResolveVerdict(status.AuditFinalStatus, status.OverallLabel))
	}
	return []VerdictBucket{
		{Label: model.FilterStrong, Count: counts.Strong},
		{Label: model.FilterMedium, Count: counts.Medium},
		{Label: model.FilterLow, Count: counts.Low},
	}, nil
}

// Summary runs the three reads concurrently. Any failure fails the whole
// summary.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	var summary Summary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, err := s.TotalCount(gctx)
		summary.TotalCandidates = total
		return err
	})
	g.Go(func() error {
		branches, err := s.BranchDistribution(gctx)
		summary.BranchDistribution = branches
		return err
	})
	g.Go(func() error {
		verdicts, err := s.VerdictSummary(gctx)
		summary.VerdictSummary = verdicts
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return summary, nil
}
