package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"webscout/internal/adapter/backend"
	"webscout/internal/adapter/cache"
	"webscout/internal/adapter/fetch"
	"webscout/internal/domain"
	"webscout/internal/infra/config"
	"webscout/internal/infra/logger"
)

// CheckStatus represents the result of a health check.
type CheckStatus string

const (
	StatusPass CheckStatus = "PASS"
	StatusWarn CheckStatus = "WARN"
	StatusFail CheckStatus = "FAIL"
)

// CheckResult holds the outcome of a single health check.
type CheckResult struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string // optional fix suggestion
}

// Check is a named health check function.
type Check struct {
	Name string
	Fn   func(ctx context.Context, cfg *config.Config) CheckResult
}

const checkTimeout = 5 * time.Second

// runDoctor executes all health checks and reports results to w.
func runDoctor(ctx context.Context, w io.Writer, cfgPath string) error {
	// Some checks work without a loaded config.
	cfg, cfgErr := config.Load(cfgPath)

	var fetcher *fetch.Client
	if cfg != nil {
		fetcher = fetch.New(cfg.Fetch, logger.Discard())
	}

	checks := []Check{
		{Name: "Config file", Fn: checkConfigFile(cfgPath, cfgErr)},
		{Name: "Strategies", Fn: checkStrategies},
		{Name: "Result cache", Fn: checkCache},
		{Name: "Network", Fn: checkNetwork},
		{Name: "Providers", Fn: checkProviders(fetcher)},
	}
	return report(ctx, w, checks, cfg)
}

func report(ctx context.Context, w io.Writer, checks []Check, cfg *config.Config) error {
	fmt.Fprintln(w, "webscout doctor")
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintln(w)

	var pass, warn, fail int
	for _, check := range checks {
		result := check.Fn(ctx, cfg)
		result.Name = check.Name

		fmt.Fprintf(w, "  %s %s: %s\n", statusIcon(result.Status), result.Name, result.Message)
		if result.Fix != "" {
			fmt.Fprintf(w, "      Fix: %s\n", result.Fix)
		}

		switch result.Status {
		case StatusPass:
			pass++
		case StatusWarn:
			warn++
		case StatusFail:
			fail++
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintf(w, "Results: %d passed, %d warnings, %d failed\n", pass, warn, fail)

	if fail > 0 {
		fmt.Fprintln(w, "\nFix the FAIL issues above before relying on webscout.")
		return fmt.Errorf("%d check(s) failed", fail)
	}
	if warn > 0 {
		fmt.Fprintln(w, "\nwebscout should work, but consider addressing the warnings.")
	} else {
		fmt.Fprintln(w, "\nAll checks passed.")
	}
	return nil
}

func statusIcon(s CheckStatus) string {
	switch s {
	case StatusPass:
		return "[PASS]"
	case StatusWarn:
		return "[WARN]"
	case StatusFail:
		return "[FAIL]"
	default:
		return "[????]"
	}
}

// checkConfigFile returns a check that verifies the config file parses.
// A missing file only warns: defaults apply.
func checkConfigFile(cfgPath string, cfgErr error) func(context.Context, *config.Config) CheckResult {
	return func(context.Context, *config.Config) CheckResult {
		if cfgErr != nil {
			return CheckResult{
				Status:  StatusFail,
				Message: fmt.Sprintf("config error: %v", cfgErr),
				Fix:     fmt.Sprintf("Check the YAML in %s", cfgPath),
			}
		}
		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			return CheckResult{
				Status:  StatusWarn,
				Message: fmt.Sprintf("no config file at %s, using built-in defaults", cfgPath),
				Fix:     "Create config.yaml or set WEBSCOUT_CONFIG to customize providers",
			}
		}
		return CheckResult{
			Status:  StatusPass,
			Message: fmt.Sprintf("config loaded from %s", cfgPath),
		}
	}
}

// checkStrategies builds the backend chain without running it.
func checkStrategies(_ context.Context, cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Status: StatusFail, Message: "cannot check, config not loaded"}
	}
	fetcher := fetch.New(cfg.Fetch, logger.Discard())
	if _, err := backend.Build(cfg, fetcher, nil, logger.Discard(), nil); err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: err.Error(),
			Fix:     "Valid strategies are category, multi_engine, html_scrape and instant_answer",
		}
	}
	return CheckResult{
		Status:  StatusPass,
		Message: strings.Join(cfg.Search.Strategies, " -> "),
	}
}

// checkCache pings Redis when it is the configured cache.
func checkCache(ctx context.Context, cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Status: StatusFail, Message: "cannot check, config not loaded"}
	}
	if cfg.Cache.Backend != "redis" {
		backendName := cfg.Cache.Backend
		if backendName == "" {
			backendName = "memory"
		}
		return CheckResult{Status: StatusPass, Message: fmt.Sprintf("%s cache, nothing to reach", backendName)}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	rc := cache.NewRedis(client, cfg.Cache.KeyPrefix)
	defer rc.Close()

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("redis not reachable at %s: %v", cfg.Cache.RedisAddr, err),
			Fix:     "Start Redis or set cache.backend to memory",
		}
	}
	return CheckResult{Status: StatusPass, Message: "redis reachable at " + cfg.Cache.RedisAddr}
}

func checkNetwork(ctx context.Context, _ *config.Config) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	var d net.Dialer
	for _, addr := range []string{"1.1.1.1:443", "8.8.8.8:443"} {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			conn.Close()
			return CheckResult{Status: StatusPass, Message: "internet connectivity OK"}
		}
	}
	return CheckResult{
		Status:  StatusFail,
		Message: "no internet connectivity detected",
		Fix:     "Check your network connection and firewall settings",
	}
}

// endpoint is one provider host the configured strategies depend on.
type endpoint struct {
	name string
	url  string
}

// providerEndpoints lists the provider hosts used by the enabled strategies.
// Category shortcuts point at fixed sites and are not checked.
func providerEndpoints(cfg *config.Config) []endpoint {
	var out []endpoint
	for _, s := range cfg.Search.Strategies {
		switch s {
		case backend.NameMultiEngine:
			for _, e := range cfg.Backends.Engines {
				out = append(out, endpoint{name: e.Name, url: e.URL})
			}
		case backend.NameHTMLScrape:
			out = append(out, endpoint{name: "html_scrape", url: cfg.Backends.HTMLScrapeURL})
		case backend.NameInstantAnswer:
			out = append(out, endpoint{name: "instant_answer", url: cfg.Backends.InstantAPIURL})
		}
	}
	return out
}

// hostRoot reduces a provider URL, which may carry a {query} placeholder,
// to scheme://host/.
func hostRoot(raw string) (string, error) {
	u, err := url.Parse(strings.ReplaceAll(raw, "{query}", ""))
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%q is not an absolute URL", raw)
	}
	return u.Scheme + "://" + u.Host + "/", nil
}

// checkProviders returns a check that requests the root of every provider
// host. A reply with an error status still proves the host is reachable.
func checkProviders(fetcher *fetch.Client) func(context.Context, *config.Config) CheckResult {
	return func(ctx context.Context, cfg *config.Config) CheckResult {
		if cfg == nil || fetcher == nil {
			return CheckResult{Status: StatusFail, Message: "cannot check, config not loaded"}
		}
		endpoints := providerEndpoints(cfg)
		if len(endpoints) == 0 {
			return CheckResult{Status: StatusPass, Message: "no remote providers configured"}
		}

		var unreachable, refused []string
		for _, ep := range endpoints {
			root, err := hostRoot(ep.url)
			if err != nil {
				unreachable = append(unreachable, fmt.Sprintf("%s (%v)", ep.name, err))
				continue
			}
			_, err = fetcher.Get(ctx, fetch.Request{URL: root, Identity: fetch.IdentityBrowser, Timeout: checkTimeout})
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrHTTPStatus):
				refused = append(refused, ep.name)
			default:
				unreachable = append(unreachable, ep.name)
			}
		}

		switch {
		case len(unreachable) == len(endpoints):
			return CheckResult{
				Status:  StatusFail,
				Message: "no provider reachable: " + strings.Join(unreachable, ", "),
				Fix:     "Check network access to the search providers or adjust backends in config.yaml",
			}
		case len(unreachable) > 0:
			return CheckResult{
				Status:  StatusWarn,
				Message: "unreachable: " + strings.Join(unreachable, ", "),
				Fix:     "Searches fall through to the remaining strategies",
			}
		case len(refused) > 0:
			return CheckResult{
				Status:  StatusWarn,
				Message: fmt.Sprintf("%d provider(s) reachable, error status from: %s", len(endpoints), strings.Join(refused, ", ")),
			}
		}
		return CheckResult{Status: StatusPass, Message: fmt.Sprintf("%d provider(s) reachable", len(endpoints))}
	}
}
