package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"webscout/internal/adapter/gateway"
	"webscout/internal/adapter/mcpserver"
	"webscout/internal/infra/config"
	"webscout/internal/infra/logger"
	"webscout/internal/infra/metrics"
	"webscout/internal/infra/tracer"
	"webscout/pkg/scout"
)

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "--help", "-h", "help":
		showUsage()
		return
	case "--version", "version":
		fmt.Println("webscout " + config.Version)
		return
	}

	cmd := os.Args[1]
	args, err := parseArgs(os.Args[2:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "search", "fetch", "enhance", "serve", "mcp":
		err = runCommand(ctx, cmd, args, os.Stdout)
	case "doctor":
		err = runDoctor(ctx, os.Stdout, configPath())
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\nRun 'webscout --help' for usage\n", cmd)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
		stop()
		os.Exit(1)
	}
}

// cliArgs holds the flags shared by the subcommands.
type cliArgs struct {
	Positional []string
	Max        int    // --max
	MaxLength  int    // --max-length
	URL        string // --url
	JSON       bool   // --json
}

// parseArgs extracts flags from args. --config is skipped here and read by
// configPath. Anything not recognized as a flag is positional.
func parseArgs(args []string) (cliArgs, error) {
	var out cliArgs
	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, value, hasValue := strings.Cut(arg, "=")
		if !strings.HasPrefix(name, "--") {
			out.Positional = append(out.Positional, arg)
			continue
		}

		takeValue := func() (string, error) {
			if hasValue {
				return value, nil
			}
			if i+1 >= len(args) {
				return "", fmt.Errorf("flag %s needs a value", name)
			}
			i++
			return args[i], nil
		}

		switch name {
		case "--json":
			out.JSON = true
		case "--config":
			if _, err := takeValue(); err != nil {
				return out, err
			}
		case "--url":
			v, err := takeValue()
			if err != nil {
				return out, err
			}
			out.URL = v
		case "--max", "--max-length":
			v, err := takeValue()
			if err != nil {
				return out, err
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return out, fmt.Errorf("flag %s: %q is not a non-negative number", name, v)
			}
			if name == "--max" {
				out.Max = n
			} else {
				out.MaxLength = n
			}
		default:
			return out, fmt.Errorf("unknown flag %s", name)
		}
	}
	return out, nil
}

// configPath returns --config, then $WEBSCOUT_CONFIG, then config.yaml.
func configPath() string {
	for i, arg := range os.Args {
		if arg == "--config" && i+1 < len(os.Args) {
			return os.Args[i+1]
		}
		if strings.HasPrefix(arg, "--config=") {
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	if p := os.Getenv("WEBSCOUT_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}

// app is everything a subcommand needs, built once from the config.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	client  *scout.Client
	cleanup []func()
}

func (a *app) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
}

func bootstrap(ctx context.Context, cfgPath, cmd string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	// stdout carries the MCP protocol.
	if cmd == "mcp" && strings.EqualFold(cfg.Logger.Output, "stdout") {
		cfg.Logger.Output = "stderr"
	}

	a := &app{cfg: cfg}
	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	a.logger = log
	a.cleanup = append(a.cleanup, func() { _ = logCloser() })

	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("tracer: %w", err)
	}
	a.cleanup = append(a.cleanup, func() { _ = tracerShutdown(context.Background()) })

	if cfg.Metrics.Enabled {
		a.metrics = metrics.New(cfg.Metrics.Namespace)
	}

	client, err := scout.New(cfg, scout.WithLogger(log), scout.WithMetrics(a.metrics))
	if err != nil {
		a.close()
		return nil, err
	}
	a.client = client
	a.cleanup = append(a.cleanup, func() {
		if err := client.Close(); err != nil {
			log.Warn("close client", "error", err)
		}
	})
	return a, nil
}

func runCommand(ctx context.Context, cmd string, args cliArgs, out io.Writer) error {
	a, err := bootstrap(ctx, configPath(), cmd)
	if err != nil {
		return err
	}
	defer a.close()

	switch cmd {
	case "search":
		return runSearch(ctx, a, args, out)
	case "fetch":
		return runFetch(ctx, a, args, out)
	case "enhance":
		return runEnhance(ctx, a, args, out)
	case "serve":
		srv := gateway.NewServer(ctx, a.client, a.cfg.Gateway, a.cfg.Search, a.metrics, a.logger)
		return srv.Start(ctx)
	case "mcp":
		name := a.cfg.MCP.Name
		if name == "" {
			name = "webscout"
		}
		return mcpserver.New(a.client, name, a.cfg.Search, a.logger).Serve(ctx, os.Stdin, out)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func queryFrom(args cliArgs) (string, error) {
	query := strings.TrimSpace(strings.Join(args.Positional, " "))
	if query == "" {
		return "", fmt.Errorf("a query is required")
	}
	return query, nil
}

func resultCount(cfg *config.Config, requested int) int {
	if requested > 0 {
		return requested
	}
	return cfg.Search.DefaultResults
}

func runSearch(ctx context.Context, a *app, args cliArgs, out io.Writer) error {
	query, err := queryFrom(args)
	if err != nil {
		return err
	}
	results := a.client.Search(ctx, query, resultCount(a.cfg, args.Max))
	if args.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	_, err = fmt.Fprintln(out, scout.FormatResults(query, results))
	return err
}

func runFetch(ctx context.Context, a *app, args cliArgs, out io.Writer) error {
	if len(args.Positional) != 1 {
		return fmt.Errorf("usage: webscout fetch <url> [--max-length N]")
	}
	page, ok := a.client.FetchContent(ctx, args.Positional[0], args.MaxLength)
	if !ok {
		return fmt.Errorf("could not fetch readable content from %s", args.Positional[0])
	}
	if args.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}
	_, err := fmt.Fprintf(out, "Title: %s\nSource: %s\n\n%s\n", page.Title, page.Source, page.Content)
	return err
}

func runEnhance(ctx context.Context, a *app, args cliArgs, out io.Writer) error {
	query, err := queryFrom(args)
	if err != nil {
		return err
	}
	var prompt string
	if args.URL != "" {
		prompt = a.client.EnhanceWithPage(ctx, query, args.URL, args.MaxLength)
	} else {
		prompt = a.client.Enhance(ctx, query, resultCount(a.cfg, args.Max))
	}
	_, err = fmt.Fprintln(out, prompt)
	return err
}

func showUsage() {
	fmt.Println(`webscout - Web search aggregation and page extraction

USAGE:
    webscout <COMMAND> [OPTIONS]

COMMANDS:
    search <query...>     Search the web and print the results
    fetch <url>           Fetch a page and print its readable text
    enhance <query...>    Print the query framed with search results
    serve                 Start the HTTP API
    mcp                   Serve the web_search and fetch_page tools over stdio
    doctor                Check configuration and provider reachability
    version               Print the version

OPTIONS:
    --config <path>       Config file (default: $WEBSCOUT_CONFIG or config.yaml)
    --max <n>             Number of results for search and enhance (1-10)
    --max-length <n>      Maximum characters of page content for fetch and enhance --url
    --url <url>           enhance: frame the query with this page instead of search results
    --json                search, fetch: print JSON
    -h, --help            Show this help

EXAMPLES:
    webscout search weather auckland --max 3
    webscout fetch go.dev/doc/effective_go --max-length 4000
    webscout enhance "what is new in go" --url go.dev/blog
    webscout serve --config /etc/webscout/config.yaml

A missing config file is not an error: built-in defaults apply, and
WEBSCOUT_* environment variables override either.`)
}
