package transform

import (
	"marketplace/candidates/internal/model"
	"marketplace/candidates/internal/normalize"
)

// CompleteRecord is the unmasked view: every stored field verbatim plus the
// derived values the listing sorts and filters on. Only served when the
// caller explicitly asks for complete data.
type CompleteRecord struct {
	model.StudentRecord
	Recommendation  model.Verdict `json:"recommendation"`
	BranchLabel     string        `json:"branch_normalized"`
	AssessmentScore string        `json:"assessment_score_display"`
	InterviewScore  string        `json:"interview_score_display"`
	Skills          []string      `json:"skills"`
}

func (c CompleteRecord) RowVerdict() model.Verdict  { return c.Recommendation }
func (c CompleteRecord) RowBranch() string          { return c.BranchLabel }
func (c CompleteRecord) AssessmentSortKey() float64 { return normalize.ParseScoreFraction(c.AssessmentScore) }
func (c CompleteRecord) InterviewSortKey() float64  { return normalize.ParseScoreFraction(c.InterviewScore) }

func ToCompleteRecord(rec model.StudentRecord) CompleteRecord {
	latestAssessment := rec.LatestAssessment()
	latestInterview := rec.LatestInterview()
	return CompleteRecord{
		StudentRecord:   rec,
		Recommendation:  latestVerdict(latestInterview),
		BranchLabel:     normalize.BranchName(rec.Branch()),
		AssessmentScore: AssessmentScore(latestAssessment),
		InterviewScore:  InterviewScore(latestInterview),
		Skills:          DeriveSkills(latestAssessment, latestInterview),
	}
}
