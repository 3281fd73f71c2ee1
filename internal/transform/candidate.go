// Package transform maps joined student records onto the public response
// shapes. Callers pass records whose history is already sorted newest first.
package transform

import (
	"marketplace/candidates/internal/anonymize"
	"marketplace/candidates/internal/model"
	"marketplace/candidates/internal/normalize"
)

const (
	scoreNA             = "N/A"
	skillThreshold      = 0.7
	communicationStrong = 4
)

var skillLabels = map[string]string{
	"coding":  "Strong Problem Solving",
	"dsa":     "Strong DSA",
	"cs_fund": "Strong Theory",
}

// Row is the part of a listing row the query pipeline needs for
// aggregation, sorting and filtering.
type Row interface {
	RowVerdict() model.Verdict
	RowBranch() string
	AssessmentSortKey() float64
	InterviewSortKey() float64
}

type Candidate struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	College         string        `json:"college"`
	Branch          string        `json:"branch"`
	CGPA            string        `json:"cgpa"`
	AssessmentScore string        `json:"assessmentScore"`
	AssessmentMeta  string        `json:"assessmentMeta"`
	InterviewScore  string        `json:"interviewScore"`
	InterviewMeta   string        `json:"interviewMeta"`
	Skills          []string      `json:"skills"`
	Recommendation  model.Verdict `json:"recommendation"`
	ResumeURL       []string      `json:"resumeUrl"`
}

func (c Candidate) RowVerdict() model.Verdict  { return c.Recommendation }
func (c Candidate) RowBranch() string          { return c.Branch }
func (c Candidate) AssessmentSortKey() float64 { return normalize.ParseScoreFraction(c.AssessmentScore) }
func (c Candidate) InterviewSortKey() float64  { return normalize.ParseScoreFraction(c.InterviewScore) }

// ToCandidate builds the anonymized summary row.
func ToCandidate(rec model.StudentRecord) Candidate {
	latestAssessment := rec.LatestAssessment()
	latestInterview := rec.LatestInterview()

	assessmentMeta := "No assessment"
	if latestAssessment != nil && latestAssessment.HasScore() {
		assessmentMeta = "Last taken: " + normalize.FormatDate(latestAssessment.TakenAt)
	}
	interviewMeta := "Not recorded"
	if latestInterview != nil && latestInterview.RecordingURL != nil && *latestInterview.RecordingURL != "" {
		interviewMeta = "Recorded"
	}

	return Candidate{
		ID:              rec.ID,
		Name:            anonymize.CandidateAlias(rec.ID),
		College:         rec.CollegeName(),
		Branch:          normalize.BranchName(rec.Branch()),
		CGPA:            formatCGPA(rec.CGPA),
		AssessmentScore: AssessmentScore(latestAssessment),
		AssessmentMeta:  assessmentMeta,
		InterviewScore:  InterviewScore(latestInterview),
		InterviewMeta:   interviewMeta,
		Skills:          DeriveSkills(latestAssessment, latestInterview),
		Recommendation:  latestVerdict(latestInterview),
		ResumeURL:       anonymize.Redacted(),
	}
}

// AssessmentScore is "S / M", or "N/A" when either total is missing or zero.
func AssessmentScore(a *model.Assessment) string {
	if a == nil || !a.HasScore() {
		return scoreNA
	}
	return normalize.FormatNumber(*a.TotalStudentScore) + " / " + normalize.FormatNumber(*a.TotalAssessmentScore)
}

// InterviewScore prefers the out-of-100 score, zero included, then the
// legacy out-of-10 rating.
func InterviewScore(iv *model.Interview) string {
	switch {
	case iv == nil:
		return scoreNA
	case iv.OverallScore != nil:
		return normalize.FormatNumber(*iv.OverallScore) + " / 100"
	case iv.OverallRating != nil:
		return normalize.FormatNumber(*iv.OverallRating) + " / 10"
	default:
		return scoreNA
	}
}

// DeriveSkills lists skill tags in sub-score order, then communication.
func DeriveSkills(a *model.Assessment, iv *model.Interview) []string {
	skills := make([]string, 0, 4)
	if a != nil {
		for _, score := range a.Scores {
			if score.ScoreType == nil {
				continue
			}
			label, ok := skillLabels[score.ScoreType.Key]
			if ok && score.Ratio() > skillThreshold {
				skills = append(skills, label)
			}
		}
	}
	if iv != nil && iv.CommunicationRating != nil && *iv.CommunicationRating >= communicationStrong {
		skills = append(skills, "Strong Communication")
	}
	return skills
}

func latestVerdict(iv *model.Interview) model.Verdict {
	if iv == nil {
		return model.VerdictConsider
	}
	return iv.Verdict()
}

func formatCGPA(cgpa *float64) string {
	if cgpa == nil {
		return "0.00"
	}
	return normalize.FormatFixed2(*cgpa)
}
