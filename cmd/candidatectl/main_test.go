package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestParseListFlags(t *testing.T) {
	f, err := parseListFlags([]string{"-search", "iiit", "-verdict", "Strong", "-sort", "cgpa", "-limit", "2"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Search != "iiit" || f.Verdict != "Strong" || f.Sort != "cgpa" || f.Limit != 2 || f.Page != 1 {
		t.Fatalf("unexpected filters %+v", f)
	}
	if _, err := parseListFlags([]string{"extra"}); err == nil {
		t.Fatalf("expected error for positional argument")
	}
}

func TestParseCommand(t *testing.T) {
	for _, args := range [][]string{{"stats"}, {"profile", "id-1"}, {"list"}} {
		if _, err := parseCommand(args[0], args[1:]); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}
	if _, err := parseCommand("profile", nil); err == nil {
		t.Fatalf("expected error without id")
	}
	if _, err := parseCommand("delete", nil); err == nil {
		t.Fatalf("expected error for unknown command")
	}
}

func TestRunRequiresCommandAndToken(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), nil, &out); err == nil || !strings.Contains(err.Error(), "missing command") {
		t.Fatalf("expected missing command error, got %v", err)
	}

	t.Setenv("SERVICE_AUTH_TOKEN", "")
	err := run(context.Background(), []string{"-addr", "127.0.0.1:1", "stats"}, &out)
	if err == nil || !strings.Contains(err.Error(), "service auth token") {
		t.Fatalf("expected token error, got %v", err)
	}
}

func TestPrintJSONIndents(t *testing.T) {
	var out bytes.Buffer
	if err := printJSON(&out, map[string]int{"totalCandidates": 3}); err != nil {
		t.Fatalf("print: %v", err)
	}
	if out.String() != "{\n  \"totalCandidates\": 3\n}\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}
