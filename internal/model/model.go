package model

import (
	"sort"
	"time"

	"marketplace/candidates/internal/normalize"
)

type College struct {
	ID          string  `json:"college_id"`
	Name        string  `json:"name"`
	Degree      *string `json:"degree,omitempty"`
	Branch      string  `json:"branch"`
	NIRFRanking *int    `json:"nirf_ranking,omitempty"`
	City        *string `json:"city,omitempty"`
	State       *string `json:"state,omitempty"`
}

type ScoreType struct {
	ID          string `json:"score_type_id"`
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
}

type AssessmentScore struct {
	ID           string     `json:"score_id"`
	AssessmentID string     `json:"assessment_id"`
	Score        float64    `json:"score"`
	MaxScore     float64    `json:"max_score"`
	ScoreType    *ScoreType `json:"score_types"`
}

// Ratio is score/max_score, zero when max_score is not positive.
func (s AssessmentScore) Ratio() float64 {
	if s.MaxScore <= 0 {
		return 0
	}
	return s.Score / s.MaxScore
}

type Assessment struct {
	ID                   string            `json:"assessment_id"`
	StudentID            string            `json:"student_id"`
	TakenAt              string            `json:"taken_at"`
	ReportURL            *string           `json:"report_url"`
	TotalStudentScore    *float64          `json:"total_student_score"`
	TotalAssessmentScore *float64          `json:"total_assessment_score"`
	Percent              *float64          `json:"percent"`
	Scores               []AssessmentScore `json:"assessment_scores"`
}

// HasScore reports whether both totals are present and non-zero.
func (a Assessment) HasScore() bool {
	return a.TotalStudentScore != nil && *a.TotalStudentScore != 0 &&
		a.TotalAssessmentScore != nil && *a.TotalAssessmentScore != 0
}

// PercentValue returns the stored percent, or derives it from the totals.
func (a Assessment) PercentValue() float64 {
	if a.Percent != nil {
		return *a.Percent
	}
	if a.TotalStudentScore != nil && a.TotalAssessmentScore != nil && *a.TotalStudentScore > 0 && *a.TotalAssessmentScore > 0 {
		return *a.TotalStudentScore / *a.TotalAssessmentScore * 100
	}
	return 0
}

// Interview carries both rating generations. The legacy columns
// (ProblemSolvingRating, ConceptualRating, OverallRating, OverallLabel) are
// only read when the newer ones are absent.
type Interview struct {
	ID                    string   `json:"interview_id"`
	StudentID             string   `json:"student_id"`
	InterviewDate         string   `json:"interview_date"`
	RecordingURL          *string  `json:"recording_url"`
	SelfIntroRating       *float64 `json:"self_intro_rating"`
	Problem1SolvingRating *float64 `json:"problem1_solving_rating"`
	Problem1CodeRating    *float64 `json:"problem1_code_implementation_rating"`
	Problem2SolvingRating *float64 `json:"problem2_solving_rating"`
	Problem2CodeRating    *float64 `json:"problem2_code_implementation_rating"`
	CommunicationRating   *float64 `json:"communication_rating"`
	DSATheoryRating       *float64 `json:"dsa_theory_rating"`
	CoreCSTheoryRating    *float64 `json:"core_cs_theory_rating"`
	OverallScore          *float64 `json:"overall_interview_score_out_of_100"`
	AuditFinalStatus      *string  `json:"audit_final_status"`
	Notes                 *string  `json:"notes"`

	ProblemSolvingRating *float64 `json:"problem_solving_rating"`
	ConceptualRating     *float64 `json:"conceptual_rating"`
	OverallRating        *float64 `json:"overall_interview_rating"`
	OverallLabel         *string  `json:"overall_label"`
}

func (iv Interview) Verdict() Verdict {
	return ResolveVerdict(iv.AuditFinalStatus, iv.OverallLabel)
}

type StudentRecord struct {
	ID             string       `json:"user_id"`
	FullName       string       `json:"full_name"`
	Phone          *string      `json:"phone"`
	Email          *string      `json:"email"`
	Gender         *string      `json:"gender"`
	ResumeURL      *string      `json:"resume_url"`
	CGPA           *float64     `json:"cgpa"`
	GraduationYear *int         `json:"graduation_year"`
	CollegeID      *string      `json:"college_id"`
	CreatedAt      time.Time    `json:"created_at"`
	College        *College     `json:"colleges"`
	Assessments    []Assessment `json:"assessments"`
	Interviews     []Interview  `json:"interviews"`
}

func (r StudentRecord) LatestAssessment() *Assessment {
	if len(r.Assessments) == 0 {
		return nil
	}
	return &r.Assessments[0]
}

func (r StudentRecord) LatestInterview() *Interview {
	if len(r.Interviews) == 0 {
		return nil
	}
	return &r.Interviews[0]
}

func (r StudentRecord) CollegeName() string {
	if r.College == nil {
		return ""
	}
	return r.College.Name
}

func (r StudentRecord) Branch() string {
	if r.College == nil {
		return ""
	}
	return r.College.Branch
}

// SortHistory orders assessments and interviews newest first. Dates that do
// not parse go last, keeping their relative order.
func (r *StudentRecord) SortHistory() {
	sort.SliceStable(r.Assessments, func(i, j int) bool {
		return newer(r.Assessments[i].TakenAt, r.Assessments[j].TakenAt)
	})
	sort.SliceStable(r.Interviews, func(i, j int) bool {
		return newer(r.Interviews[i].InterviewDate, r.Interviews[j].InterviewDate)
	})
}

func newer(a, b string) bool {
	ta, okA := normalize.ParseTimestamp(a)
	tb, okB := normalize.ParseTimestamp(b)
	switch {
	case okA && okB:
		return ta.After(tb)
	case okA:
		return true
	default:
		return false
	}
}

type InterviewStatus struct {
	AuditFinalStatus *string
	OverallLabel     *string
}

type User struct {
	ID        string
	Email     string
	Name      string
	Company   *string
	Phone     *string
	CreatedAt time.Time
}

type CandidateView struct {
	ID            string
	UserID        string
	CandidateID   string
	CandidateName string
	ViewedAt      time.Time
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// Offset is the index of the first row of the page.
func (p Pagination) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}
