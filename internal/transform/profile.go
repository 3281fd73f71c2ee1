package transform

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"marketplace/candidates/internal/anonymize"
	"marketplace/candidates/internal/model"
	"marketplace/candidates/internal/normalize"
)

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]`)

type ScoreSummary struct {
	Percentage int    `json:"percentage"`
	Raw        string `json:"raw"`
}

type CollegeSummary struct {
	Name        string  `json:"name"`
	Branch      string  `json:"branch"`
	NIRFRanking *int    `json:"nirfRanking,omitempty"`
	City        *string `json:"city,omitempty"`
	State       *string `json:"state,omitempty"`
}

type AssessmentScoreDetail struct {
	Type       string           `json:"type"`
	Label      string           `json:"label"`
	Score      float64          `json:"score"`
	MaxScore   float64          `json:"maxScore"`
	Percentage int              `json:"percentage"`
	Rating     normalize.Rating `json:"rating"`
}

type InterviewScoreDetail struct {
	Criteria string           `json:"criteria"`
	Score    float64          `json:"score"`
	Max      float64          `json:"max"`
	Rating   normalize.Rating `json:"rating"`
}

type LatestAssessment struct {
	AssessmentID         string                  `json:"assessmentId"`
	TakenAt              string                  `json:"takenAt"`
	ReportURL            []string                `json:"reportUrl"`
	TotalStudentScore    float64                 `json:"totalStudentScore"`
	TotalAssessmentScore float64                 `json:"totalAssessmentScore"`
	Percent              float64                 `json:"percent"`
	Scores               []AssessmentScoreDetail `json:"scores"`
}

type LatestInterview struct {
	InterviewID           string                 `json:"interviewId"`
	InterviewDate         string                 `json:"interviewDate"`
	RecordingURL          []string               `json:"recordingUrl"`
	Scores                []InterviewScoreDetail `json:"scores"`
	OverallRating         float64                `json:"overallRating"`
	OverallLabel          model.Verdict          `json:"overallLabel"`
	Notes                 *string                `json:"notes,omitempty"`
	Problem1SolvingRating *float64               `json:"problem1_solving_rating,omitempty"`
	Problem1CodeRating    *float64               `json:"problem1_solving_rating_code,omitempty"`
	Problem2SolvingRating *float64               `json:"problem2_solving_rating,omitempty"`
	Problem2CodeRating    *float64               `json:"problem2_solving_rating_code,omitempty"`
	DSATheory             *float64               `json:"DSA_Theory,omitempty"`
	CoreCSTheory          *float64               `json:"Core_CS_Theory,omitempty"`
	OverallScore          *float64               `json:"overall_interview_score_out_of_100,omitempty"`
}

type AssessmentHistoryEntry struct {
	AssessmentID string   `json:"assessmentId"`
	TakenAt      string   `json:"takenAt"`
	Percent      float64  `json:"percent"`
	ReportURL    []string `json:"reportUrl"`
}

type InterviewHistoryEntry struct {
	InterviewID   string        `json:"interviewId"`
	InterviewDate string        `json:"interviewDate"`
	OverallLabel  model.Verdict `json:"overallLabel"`
	RecordingURL  []string      `json:"recordingUrl"`
}

type StudentProfile struct {
	ID                string                   `json:"id"`
	Name              string                   `json:"name"`
	Initials          string                   `json:"initials"`
	Meta              string                   `json:"meta"`
	CGPA              string                   `json:"cgpa"`
	Skills            []string                 `json:"skills"`
	Recommendation    model.Verdict            `json:"recommendation"`
	Gender            *string                  `json:"gender,omitempty"`
	Phone             *string                  `json:"phone,omitempty"`
	Email             *string                  `json:"email,omitempty"`
	ResumeURL         []string                 `json:"resumeUrl"`
	College           CollegeSummary           `json:"college"`
	AssessmentOverall ScoreSummary             `json:"assessmentOverall"`
	InterviewOverall  ScoreSummary             `json:"interviewOverall"`
	LatestAssessment  *LatestAssessment        `json:"latestAssessment,omitempty"`
	LatestInterview   *LatestInterview         `json:"latestInterview,omitempty"`
	AllAssessments    []AssessmentHistoryEntry `json:"allAssessments"`
	AllInterviews     []InterviewHistoryEntry  `json:"allInterviews"`
}

// ToStudentProfile builds the anonymized detail view.
func ToStudentProfile(rec model.StudentRecord) StudentProfile {
	alias := anonymize.CandidateAlias(rec.ID)
	latestAssessment := rec.LatestAssessment()
	latestInterview := rec.LatestInterview()

	profile := StudentProfile{
		ID:                rec.ID,
		Name:              alias,
		Initials:          initials(alias),
		Meta:              profileMeta(rec),
		CGPA:              formatCGPA(rec.CGPA) + " / 10.0",
		Skills:            DeriveSkills(latestAssessment, latestInterview),
		Recommendation:    latestVerdict(latestInterview),
		Gender:            rec.Gender,
		Phone:             anonymize.MaskPhone(rec.Phone),
		ResumeURL:         anonymize.Redacted(),
		AssessmentOverall: assessmentOverall(latestAssessment),
		InterviewOverall:  interviewOverall(latestInterview),
		AllAssessments:    make([]AssessmentHistoryEntry, 0, len(rec.Assessments)),
		AllInterviews:     make([]InterviewHistoryEntry, 0, len(rec.Interviews)),
	}
	if rec.Email != nil && *rec.Email != "" {
		masked := anonymize.MaskEmail(*rec.Email)
		profile.Email = &masked
	}
	if rec.College != nil {
		profile.College = CollegeSummary{
			Name:        rec.College.Name,
			Branch:      rec.College.Branch,
			NIRFRanking: rec.College.NIRFRanking,
			City:        rec.College.City,
			State:       rec.College.State,
		}
	}
	if latestAssessment != nil {
		profile.LatestAssessment = &LatestAssessment{
			AssessmentID:         latestAssessment.ID,
			TakenAt:              latestAssessment.TakenAt,
			ReportURL:            anonymize.Redacted(),
			TotalStudentScore:    valueOr(latestAssessment.TotalStudentScore, 0),
			TotalAssessmentScore: valueOr(latestAssessment.TotalAssessmentScore, 0),
			Percent:              latestAssessment.PercentValue(),
			Scores:               assessmentBreakdown(latestAssessment),
		}
	}
	if latestInterview != nil {
		overall := valueOr(latestInterview.OverallRating, 0)
		if latestInterview.OverallScore != nil {
			overall = *latestInterview.OverallScore
		}
		profile.LatestInterview = &LatestInterview{
			InterviewID:           latestInterview.ID,
			InterviewDate:         latestInterview.InterviewDate,
			RecordingURL:          anonymize.Redacted(),
			Scores:                InterviewBreakdown(latestInterview),
			OverallRating:         overall,
			OverallLabel:          latestInterview.Verdict(),
			Notes:                 latestInterview.Notes,
			Problem1SolvingRating: latestInterview.Problem1SolvingRating,
			Problem1CodeRating:    latestInterview.Problem1CodeRating,
			Problem2SolvingRating: latestInterview.Problem2SolvingRating,
			Problem2CodeRating:    latestInterview.Problem2CodeRating,
			DSATheory:             latestInterview.DSATheoryRating,
			CoreCSTheory:          latestInterview.CoreCSTheoryRating,
			OverallScore:          latestInterview.OverallScore,
		}
	}
	for _, a := range rec.Assessments {
		profile.AllAssessments = append(profile.AllAssessments, AssessmentHistoryEntry{
			AssessmentID: a.ID,
			TakenAt:      a.TakenAt,
			Percent:      a.PercentValue(),
			ReportURL:    anonymize.Redacted(),
		})
	}
	for _, iv := range rec.Interviews {
		profile.AllInterviews = append(profile.AllInterviews, InterviewHistoryEntry{
			InterviewID:   iv.ID,
			InterviewDate: iv.InterviewDate,
			OverallLabel:  iv.Verdict(),
			RecordingURL:  anonymize.Redacted(),
		})
	}
	return profile
}

func initials(alias string) string {
	letters := []rune(nonAlnum.ReplaceAllString(alias, ""))
	if len(letters) > 2 {
		letters = letters[:2]
	}
	for len(letters) < 2 {
		letters = append(letters, 'X')
	}
	return strings.ToUpper(string(letters))
}

func profileMeta(rec model.StudentRecord) string {
	var b strings.Builder
	if rec.College != nil {
		b.WriteString(rec.College.Name)
		if rec.College.NIRFRanking != nil && *rec.College.NIRFRanking != 0 {
			b.WriteString(" (NIRF: " + strconv.Itoa(*rec.College.NIRFRanking) + ")")
		}
	}
	b.WriteString(" • ")
	b.WriteString(rec.Branch())
	b.WriteString(" • ")
	if rec.GraduationYear != nil && *rec.GraduationYear != 0 {
		b.WriteString("Class of " + strconv.Itoa(*rec.GraduationYear))
	}
	return strings.TrimSpace(b.String())
}

func assessmentOverall(a *model.Assessment) ScoreSummary {
	if a == nil {
		return ScoreSummary{Percentage: 0, Raw: "0 / 0"}
	}
	pct := a.PercentValue()
	if pct == 0 {
		return ScoreSummary{Percentage: 0, Raw: "0 / 0"}
	}
	return ScoreSummary{
		Percentage: int(math.Round(pct)),
		Raw:        normalize.FormatNumber(valueOr(a.TotalStudentScore, 0)) + " / " + normalize.FormatNumber(valueOr(a.TotalAssessmentScore, 0)),
	}
}

func interviewOverall(iv *model.Interview) ScoreSummary {
	switch {
	case iv != nil && iv.OverallScore != nil:
		return ScoreSummary{
			Percentage: int(math.Round(*iv.OverallScore)),
			Raw:        normalize.FormatNumber(*iv.OverallScore) + " / 100",
		}
	case iv != nil && iv.OverallRating != nil:
		return ScoreSummary{
			Percentage: int(math.Round(*iv.OverallRating * 10)),
			Raw:        normalize.FormatNumber(*iv.OverallRating) + " / 10",
		}
	default:
		return ScoreSummary{Percentage: 0, Raw: "0 / 100"}
	}
}

// assessmentBreakdown skips sub-scores without a score type.
func assessmentBreakdown(a *model.Assessment) []AssessmentScoreDetail {
	details := make([]AssessmentScoreDetail, 0, len(a.Scores))
	for _, score := range a.Scores {
		if score.ScoreType == nil || score.MaxScore <= 0 {
			continue
		}
		details = append(details, AssessmentScoreDetail{
			Type:       score.ScoreType.Key,
			Label:      score.ScoreType.DisplayName,
			Score:      score.Score,
			MaxScore:   score.MaxScore,
			Percentage: int(math.Round(score.Ratio() * 100)),
			Rating:     normalize.CalculateRating(score.Score, score.MaxScore),
		})
	}
	return details
}

// InterviewBreakdown lists per-criterion ratings. Zero ratings are kept,
// missing ones are left out. The legacy problem-solving and conceptual
// ratings only appear when no newer rating covers them.
func InterviewBreakdown(iv *model.Interview) []InterviewScoreDetail {
	details := make([]InterviewScoreDetail, 0, 8)
	add := func(criteria string, score *float64, outOf float64) bool {
		if score == nil {
			return false
		}
		details = append(details, InterviewScoreDetail{
			Criteria: criteria,
			Score:    *score,
			Max:      outOf,
			Rating:   normalize.CalculateRating(*score, outOf),
		})
		return true
	}

	add("Self Introduction", iv.SelfIntroRating, 5)
	problems := add("Problem 1 Solving", iv.Problem1SolvingRating, 5)
	problems = add("Problem 2 Solving", iv.Problem2SolvingRating, 5) || problems
	if !problems {
		add("Problem Solving & Coding", iv.ProblemSolvingRating, 35)
	}
	add("Communication Skills", iv.CommunicationRating, 5)
	theory := add("DSA Theory", iv.DSATheoryRating, 5)
	theory = add("Core CS Theory", iv.CoreCSTheoryRating, 5) || theory
	if !theory {
		add("Conceptual & Theoretical", iv.ConceptualRating, 6)
	}
	return details
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
