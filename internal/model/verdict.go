package model

import "strings"

type Verdict string

const (
	VerdictStrongHire Verdict = "Strong Hire"
	VerdictMediumFit  Verdict = "Medium Fit"
	VerdictConsider   Verdict = "Consider"
)

// Filter values accepted by the listing endpoint.
const (
	FilterStrong = "Strong"
	FilterMedium = "Medium"
	FilterLow    = "Low"
	FilterAll    = "All"
)

// ParseVerdict maps any status string onto one of the three verdicts.
// Anything without STRONG or MEDIUM in it is Consider.
func ParseVerdict(raw string) Verdict {
	upper := strings.ToUpper(raw)
	switch {
	case strings.Contains(upper, "STRONG"):
		return VerdictStrongHire
	case strings.Contains(upper, "MEDIUM"):
		return VerdictMediumFit
	default:
		return VerdictConsider
	}
}

// ResolveVerdict reads audit_final_status first and falls back to the legacy
// overall_label column.
func ResolveVerdict(auditFinalStatus, overallLabel *string) Verdict {
	if auditFinalStatus != nil && strings.TrimSpace(*auditFinalStatus) != "" {
		return ParseVerdict(*auditFinalStatus)
	}
	if overallLabel != nil {
		return ParseVerdict(*overallLabel)
	}
	return VerdictConsider
}

// Bucket is the short label used by verdict counts and filters.
func (v Verdict) Bucket() string {
	switch v {
	case VerdictStrongHire:
		return FilterStrong
	case VerdictMediumFit:
		return FilterMedium
	default:
		return FilterLow
	}
}

// VerdictForFilter returns the verdict a filter value selects. ok is false
// for All, empty and unknown values.
func VerdictForFilter(filter string) (Verdict, bool) {
	switch filter {
	case FilterStrong:
		return VerdictStrongHire, true
	case FilterMedium:
		return VerdictMediumFit, true
	case FilterLow:
		return VerdictConsider, true
	default:
		return "", false
	}
}

type VerdictCounts struct {
	Strong int `json:"Strong"`
	Medium int `json:"Medium"`
	Low    int `json:"Low"`
}

func (c *VerdictCounts) Add(v Verdict) {
	switch v {
	case VerdictStrongHire:
		c.Strong++
	case VerdictMediumFit:
		c.Medium++
	default:
		c.Low++
	}
}

func (c VerdictCounts) Total() int {
	return c.Strong + c.Medium + c.Low
}
