package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jobmonitor/backend/internal/client"
	"github.com/jobmonitor/backend/internal/config"
	"github.com/jobmonitor/backend/internal/infrastructure/logger"
	"github.com/spf13/pflag"
)

const usage = `usage: jobctl [flags] <command> [args]

commands:
  submit <task> [key=value...]    create a job, add --poll to wait for it
  task <task> [key=value...]      create a job and check its task result
  fetch <job-id>                  show the state of a job
  list <file>                     list the keys of a histogram file
  histogram <file> <key>          print a TH1F histogram as plot points
`

func main() {
	fs := pflag.NewFlagSet("jobctl", pflag.ExitOnError)
	server := fs.StringP("server", "s", envOr("JOBMONITOR_URL", "http://localhost:5000"), "base URL of the job monitor")
	token := fs.String("token", os.Getenv("JOBMONITOR_API_TOKEN"), "API token for job creation")
	pollRate := fs.Duration("poll-rate", client.DefaultPollRate, "interval between status polls")
	timeout := fs.Duration("timeout", 2*time.Minute, "give up after this long")
	poll := fs.Bool("poll", false, "wait for submitted jobs to finish")
	verbose := fs.BoolP("verbose", "v", false, "log requests to stderr")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage, "\nflags:\n", fs.FlagUsages())
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(2)
	}

	log := logger.NewNop()
	if *verbose {
		l, err := logger.New(config.LoggerConfig{Level: "debug", OutputPaths: []string{"stderr"}})
		if err == nil {
			log = l
		}
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	c := client.New(client.Config{
		BaseURL:  *server,
		APIToken: *token,
		PollRate: *pollRate,
		Logger:   log,
	})

	out, err := run(ctx, c, args, *poll)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *client.Client, args []string, poll bool) (any, error) {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "submit", "task":
		if len(rest) < 1 {
			return nil, fmt.Errorf("%s needs a task name", cmd)
		}
		taskArgs, err := parseArgs(rest[1:])
		if err != nil {
			return nil, err
		}
		if cmd == "submit" {
			return c.SubmitJob(ctx, rest[0], taskArgs, poll)
		}
		return c.CreateTask(ctx, rest[0], taskArgs)
	case "fetch":
		if len(rest) != 1 {
			return nil, fmt.Errorf("fetch needs a job id")
		}
		return c.Fetch(ctx, rest[0])
	case "list":
		if len(rest) != 1 {
			return nil, fmt.Errorf("list needs a file name")
		}
		return c.ListFile(ctx, rest[0])
	case "histogram":
		if len(rest) != 2 {
			return nil, fmt.Errorf("histogram needs a file name and a key")
		}
		return c.LoadHistogram(ctx, rest[0], rest[1])
	default:
		return nil, fmt.Errorf("unknown command %q", cmd)
	}
}

// parseArgs turns key=value pairs into task arguments. Values that parse
// as JSON keep their type, anything else is passed as a string.
func parseArgs(pairs []string) (map[string]any, error) {
	args := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q is not key=value", pair)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		args[key] = v
	}
	return args, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
