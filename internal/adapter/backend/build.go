package backend

import (
	"fmt"
	"log/slog"

	"webscout/internal/domain"
	"webscout/internal/infra/config"
	"webscout/internal/infra/metrics"
)

// Build creates the guarded backends listed in cfg.Search.Strategies, in
// that order. All of them share the configured denylist; the scraping
// sources also apply it before counting and probing links.
func Build(cfg *config.Config, fetcher Fetcher, extractor domain.Extractor, logger *slog.Logger, m *metrics.Metrics) ([]*Guarded, error) {
	filter := NewFilter(cfg.Denylist)
	matcher := NewMatcher(cfg.Categories)

	out := make([]*Guarded, 0, len(cfg.Search.Strategies))
	for _, name := range cfg.Search.Strategies {
		var src Source
		switch name {
		case NameCategory:
			src = NewCategory(cfg.Categories, extractor)
		case NameMultiEngine:
			me, err := NewMultiEngine(fetcher, cfg.Backends, filter, cfg.Fetch.TitleTimeout, logger)
			if err != nil {
				return nil, err
			}
			src = me
		case NameHTMLScrape:
			src = NewHTMLScrape(fetcher, cfg.Backends.HTMLScrapeURL, matcher, filter, logger)
		case NameInstantAnswer:
			src = NewInstant(fetcher, cfg.Backends.InstantAPIURL, cfg.Fetch.APITimeout, logger)
		default:
			return nil, fmt.Errorf("unknown search strategy %q", name)
		}
		out = append(out, Guard(src, cfg.Backends.Breaker, filter, logger, m))
	}
	return out, nil
}
