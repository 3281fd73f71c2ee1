// Package normalize holds the formatting and canonicalization helpers shared
// by the transform and aggregation code.
package normalize

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

type branchRule struct {
	label    string
	keywords []string
}

// Checked in order, first match wins.
var branchRules = []branchRule{
	{label: "CSE", keywords: []string{"computer science", "cse", "cs"}},
	{label: "IT", keywords: []string{"information technology", "it"}},
	{label: "ECE", keywords: []string{"electronics", "ece", "e&c"}},
	{label: "EEE", keywords: []string{"electrical", "eee"}},
	{label: "ME", keywords: []string{"mechanical", "me"}},
}

// BranchName canonicalizes a free-text branch. Unknown branches of up to five
// characters are upper-cased, longer ones are cut to their first ten.
func BranchName(branch string) string {
	if label, ok := matchBranch(branch); ok {
		return label
	}
	runes := []rune(branch)
	if len(runes) <= 5 {
		// Upper-casing can fold runes like 'ſ' into a keyword.
		upper := strings.ToUpper(branch)
		if label, ok := matchBranch(upper); ok {
			return label
		}
		return upper
	}
	if len(runes) > 10 {
		runes = runes[:10]
	}
	return string(runes)
}

func matchBranch(branch string) (string, bool) {
	lowered := strings.ToLower(strings.TrimSpace(branch))
	for _, rule := range branchRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lowered, keyword) {
				return rule.label, true
			}
		}
	}
	return "", false
}

type BranchCount struct {
	Label string
	Count int
}

// CountBranches builds a histogram of canonical branch labels, skipping
// blank branches. Sorted by count descending, ties keep first-seen order.
func CountBranches(branches []string) []BranchCount {
	index := make(map[string]int)
	counts := make([]BranchCount, 0)
	for _, branch := range branches {
		if branch == "" {
			continue
		}
		label := BranchName(branch)
		if i, ok := index[label]; ok {
			counts[i].Count++
			continue
		}
		index[label] = len(counts)
		counts = append(counts, BranchCount{Label: label, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

// Percent is count/total*100 rounded to the nearest integer. A zero total is
// treated as one.
func Percent(count, total int) int {
	if total <= 0 {
		total = 1
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp accepts ISO-8601 dates and Postgres text timestamps.
// Values without an offset are read as UTC.
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatDate renders "D Mon" in UTC. Unparsable input is returned as is.
func FormatDate(raw string) string {
	t, ok := ParseTimestamp(raw)
	if !ok {
		return raw
	}
	return strconv.Itoa(t.Day()) + " " + t.Format("Jan")
}

type Rating string

const (
	RatingExcellent Rating = "Excellent"
	RatingGood      Rating = "Good"
	RatingFair      Rating = "Fair"
	RatingPoor      Rating = "Poor"
)

// CalculateRating buckets score/outOf. outOf must be positive.
func CalculateRating(score, outOf float64) Rating {
	pct := score / outOf * 100
	switch {
	case pct >= 80:
		return RatingExcellent
	case pct >= 60:
		return RatingGood
	case pct >= 40:
		return RatingFair
	default:
		return RatingPoor
	}
}

// ParseScoreFraction returns X from "X / Y". "N/A" and anything unparsable
// give 0.
func ParseScoreFraction(s string) float64 {
	head, _, _ := strings.Cut(s, " / ")
	v, err := strconv.ParseFloat(strings.TrimSpace(head), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// FormatNumber prints a number the shortest way that round-trips, so 150
// renders as "150" and 7.5 as "7.5".
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatFixed2 prints v with two decimals.
func FormatFixed2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
