// Command candidatectl queries a running candidates service over gRPC.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"

	"marketplace/candidates/internal/candidates"
	"marketplace/candidates/internal/clients"
)

const usage = `usage: candidatectl [-addr host:port] [-timeout d] <command> [flags]

commands:
  list     [-search s] [-verdict v] [-sort k] [-order o] [-page n] [-limit n]
  stats
  profile  <id>
`

func main() {
	_ = godotenv.Load()
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "candidatectl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("candidatectl", flag.ContinueOnError)
	global.Usage = func() { fmt.Fprint(global.Output(), usage) }
	addr := global.String("addr", getenv("GRPC_TARGET", "127.0.0.1:9095"), "gRPC address of the candidates service")
	timeout := global.Duration("timeout", 10*time.Second, "dial and call timeout")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("missing command")
	}

	command, rest := global.Arg(0), global.Args()[1:]
	call, err := parseCommand(command, rest)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	c, err := clients.New(ctx, *addr, os.Getenv("SERVICE_AUTH_TOKEN"), *timeout)
	if err != nil {
		return err
	}
	defer c.Close()

	result, err := call(ctx, c.Candidates)
	if err != nil {
		return err
	}
	return printJSON(out, result)
}

type commandFunc func(ctx context.Context, client *clients.CandidateQueryClient) (interface{}, error)

func parseCommand(name string, args []string) (commandFunc, error) {
	switch name {
	case "list":
		filters, err := parseListFlags(args)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, client *clients.CandidateQueryClient) (interface{}, error) {
			return client.ListCandidates(ctx, filters)
		}, nil
	case "stats":
		return func(ctx context.Context, client *clients.CandidateQueryClient) (interface{}, error) {
			return client.GetStatsSummary(ctx)
		}, nil
	case "profile":
		if len(args) != 1 {
			return nil, errors.New("profile takes exactly one student id")
		}
		id := args[0]
		return func(ctx context.Context, client *clients.CandidateQueryClient) (interface{}, error) {
			return client.GetProfile(ctx, id)
		}, nil
	default:
		return nil, fmt.Errorf("unknown command %q", name)
	}
}

func parseListFlags(args []string) (candidates.Filters, error) {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	var f candidates.Filters
	fs.StringVar(&f.Search, "search", "", "match name, college or branch")
	fs.StringVar(&f.Verdict, "verdict", "", "Strong, Medium, Low or All")
	fs.StringVar(&f.Sort, "sort", "", "latest, cgpa, assessment_avg or interview_avg")
	fs.StringVar(&f.Order, "order", "", "asc or desc")
	fs.IntVar(&f.Page, "page", candidates.DefaultPage, "page number")
	fs.IntVar(&f.Limit, "limit", candidates.DefaultLimit, "page size (max 100)")
	if err := fs.Parse(args); err != nil {
		return candidates.Filters{}, err
	}
	if fs.NArg() > 0 {
		return candidates.Filters{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return f, nil
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
