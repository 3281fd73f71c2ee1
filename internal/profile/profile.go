package profile

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"marketplace/candidates/internal/apperr"
	"marketplace/candidates/internal/model"
	"marketplace/candidates/internal/transform"
)

const backfillConcurrency = 4

type Source interface {
	GetStudentRecord(ctx context.Context, id string) (model.StudentRecord, error)
	ListAssessmentScores(ctx context.Context, assessmentID string) ([]model.AssessmentScore, error)
}

type Service struct {
	source Source
	logger *zap.Logger
}

func NewService(source Source, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, logger: logger}
}

// Get returns the anonymized profile.
func (s *Service) Get(ctx context.Context, id string) (transform.StudentProfile, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return transform.StudentProfile{}, err
	}
	return transform.ToStudentProfile(rec), nil
}

// GetComplete returns the unmasked record.
func (s *Service) GetComplete(ctx context.Context, id string) (transform.CompleteRecord, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return transform.CompleteRecord{}, err
	}
	return transform.ToCompleteRecord(rec), nil
}

func (s *Service) load(ctx context.Context, id string) (model.StudentRecord, error) {
	rec, err := s.source.GetStudentRecord(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.StudentRecord{}, apperr.NotFound("Student")
	}
	if err != nil {
		return model.StudentRecord{}, apperr.Boundary("Failed to fetch student profile", err)
	}
	rec.SortHistory()
	s.backfillScores(ctx, rec.Assessments)
	return rec, nil
}

// backfillScores refetches sub-scores for assessments whose join came back
// empty. Failures leave an empty list.
func (s *Service) backfillScores(ctx context.Context, assessments []model.Assessment) {
	var g errgroup.Group
	g.SetLimit(backfillConcurrency)
	for i := range assessments {
		if len(assessments[i].Scores) > 0 {
			continue
		}
		a := &assessments[i]
		g.Go(func() error {
			scores, err := s.source.ListAssessmentScores(ctx, a.ID)
			if err != nil {
				s.logger.Warn("assessment score backfill failed",
					zap.String("assessment_id", a.ID),
					zap.Error(err),
				)
				scores = nil
			}
			if scores == nil {
				scores = []model.AssessmentScore{}
			}
			a.Scores = scores
			return nil
		})
	}
	_ = g.Wait()
}
