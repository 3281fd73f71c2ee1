package normalize

import "testing"

func TestBranchName(t *testing.T) {
	cases := map[string]string{
		"Computer Science and Engineering": "CSE",
		"CSE":                              "CSE",
		"  cs ":                            "CSE",
		"Information Technology":           "IT",
		"it":                               "IT",
		"ECE":                              "ECE",
		"E&C":                              "ECE",
		"Electrical":                       "EEE",
		"EEE":                              "EEE",
		"Mechanical Engineering":           "ME",
		"civil":                            "CIVIL",
		"Aeronautical Engineering":         "Aeronautic",
		"Textile":                          "Textile",
		"cſ":                               "CSE",
		"":                                 "",
	}
	for input, expected := range cases {
		if got := BranchName(input); got != expected {
			t.Fatalf("BranchName(%q) expected %q, got %q", input, expected, got)
		}
	}
}

func TestBranchNameIdempotent(t *testing.T) {
	inputs := []string{
		"Computer Science", "cse", "IT", "Electronics", "Electrical and Electronics",
		"Mechanical", "Civil", "Chemical Engineering", "Biotechnology", "aero", "",
		"Metallurgy", "Data Science", "MBA", "Architecture and Planning", "xyz",
		"cſ", "ſ", "ıt", "ſe",
	}
	for _, input := range inputs {
		once := BranchName(input)
		if twice := BranchName(once); twice != once {
			t.Fatalf("BranchName not idempotent for %q: %q then %q", input, once, twice)
		}
	}
}

func TestCountBranches(t *testing.T) {
	counts := CountBranches([]string{"CSE", "Computer Science", "IT", "", "Mechanical", "it", "cs"})
	if len(counts) != 3 {
		t.Fatalf("expected 3 labels, got %+v", counts)
	}
	if counts[0].Label != "CSE" || counts[0].Count != 3 {
		t.Fatalf("expected CSE x3 first, got %+v", counts[0])
	}
	if counts[1].Label != "IT" || counts[1].Count != 2 {
		t.Fatalf("expected IT x2 second, got %+v", counts[1])
	}
	if counts[2].Label != "ME" {
		t.Fatalf("expected ME last, got %+v", counts[2])
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(1, 3); got != 33 {
		t.Fatalf("expected 33, got %d", got)
	}
	if got := Percent(2, 3); got != 67 {
		t.Fatalf("expected 67, got %d", got)
	}
	if got := Percent(0, 0); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestFormatDate(t *testing.T) {
	cases := map[string]string{
		"2024-03-05T10:00:00Z":      "5 Mar",
		"2024-12-25":                "25 Dec",
		"2024-01-09 23:30:00+00":    "9 Jan",
		"2024-07-01T01:00:00+05:30": "30 Jun",
		"garbage":                   "garbage",
	}
	for input, expected := range cases {
		if got := FormatDate(input); got != expected {
			t.Fatalf("FormatDate(%q) expected %q, got %q", input, expected, got)
		}
	}
}

func TestCalculateRating(t *testing.T) {
	cases := []struct {
		score, max float64
		expected   Rating
	}{
		{4, 5, RatingExcellent},
		{3, 5, RatingGood},
		{2, 5, RatingFair},
		{1, 5, RatingPoor},
		{28, 35, RatingExcellent},
		{0, 6, RatingPoor},
	}
	for _, tc := range cases {
		if got := CalculateRating(tc.score, tc.max); got != tc.expected {
			t.Fatalf("CalculateRating(%v, %v) expected %s, got %s", tc.score, tc.max, tc.expected, got)
		}
	}
}

func TestParseScoreFraction(t *testing.T) {
	cases := map[string]float64{
		"150 / 210": 150,
		"7.5 / 10":  7.5,
		"0 / 100":   0,
		"N/A":       0,
		"":          0,
		"abc / 10":  0,
	}
	for input, expected := range cases {
		if got := ParseScoreFraction(input); got != expected {
			t.Fatalf("ParseScoreFraction(%q) expected %v, got %v", input, expected, got)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(150); got != "150" {
		t.Fatalf("expected 150, got %s", got)
	}
	if got := FormatNumber(7.5); got != "7.5" {
		t.Fatalf("expected 7.5, got %s", got)
	}
	if got := FormatFixed2(8.5); got != "8.50" {
		t.Fatalf("expected 8.50, got %s", got)
	}
}
