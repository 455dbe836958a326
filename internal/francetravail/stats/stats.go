package stats

import (
	"context"
	"fmt"
	"strings"

	"github.com/datalab-emploi/francetravail-stats/internal/francetravail/client"
)

// Indicator names one of the statistics endpoints.
type Indicator int

// Known indicators.
const (
	// JobSeekers counts job seekers who registered over the last 12 months
	JobSeekers Indicator = iota
	// Hiring reports hiring statistics
	Hiring
	// JobOffers reports job offer statistics
	JobOffers
)

const indicatorPrefix = "stats-offres-demandes-emploi/v1/indicateur/"

var indicatorNames = map[Indicator]string{
	JobSeekers: "job-seekers",
	Hiring:     "hiring",
	JobOffers:  "job-offers",
}

var indicatorPaths = map[Indicator]string{
	JobSeekers: indicatorPrefix + "stat-demandeurs-entrant",
	Hiring:     indicatorPrefix + "stat-embauches",
	JobOffers:  indicatorPrefix + "stat-offres",
}

// Indicators returns every known indicator.
func Indicators() []Indicator {
	return []Indicator{JobSeekers, Hiring, JobOffers}
}

func (i Indicator) String() string {
	if name, ok := indicatorNames[i]; ok {
		return name
	}
	return fmt.Sprintf("indicator(%d)", int(i))
}

// Path returns the endpoint path relative to the API base URL.
func (i Indicator) Path() string {
	return indicatorPaths[i]
}

// ParseIndicator resolves a name as returned by Indicator.String.
func ParseIndicator(name string) (Indicator, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, i := range Indicators() {
		if i.String() == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown indicator %q", name)
}

// Service exposes the statistical queries. It holds the classification
// defaults and delegates fetching and parsing to the client.
type Service struct {
	fetcher        client.Fetcher
	classification Classification
	logger         client.Logger
}

// New creates a statistics service on top of fetcher.
func New(fetcher client.Fetcher, classification Classification, logger client.Logger) *Service {
	if logger == nil {
		logger = client.NewNoopLogger()
	}
	return &Service{
		fetcher:        fetcher,
		classification: classification,
		logger:         logger,
	}
}

// NewFromConfig builds the API client from cfg, obtaining a token unless
// cfg.Testing is set, and wraps it in a Service.
func NewFromConfig(ctx context.Context, cfg client.Config, classification Classification) (*Service, error) {
	if err := classification.Validate(); err != nil {
		return nil, err
	}
	c, err := client.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(c, classification, cfg.Logger), nil
}

// Classification returns the defaults applied to every query.
func (s *Service) Classification() Classification {
	return s.classification
}

// Params returns the request body for opts: classification defaults, then
// opts on top.
func (s *Service) Params(opts Options) client.Params {
	return s.classification.Params().Merge(opts.Params())
}

// Fetch queries the endpoint of indicator.
func (s *Service) Fetch(ctx context.Context, indicator Indicator, opts Options) (client.Table, error) {
	path := indicator.Path()
	if path == "" {
		return client.Table{}, fmt.Errorf("unknown indicator %d", int(indicator))
	}

	body := s.Params(opts)
	fingerprint := RequestFingerprint(path, body)

	s.logger.Info(ctx, "Fetching statistics", map[string]interface{}{
		"operation":  "fetch",
		"indicator":  indicator.String(),
		"query_hash": fingerprint,
	})

	table, err := s.fetcher.FetchEndpoint(ctx, path, body)
	if err != nil {
		s.logger.Error(ctx, "Statistics fetch failed", map[string]interface{}{
			"operation":  "fetch",
			"indicator":  indicator.String(),
			"query_hash": fingerprint,
			"error":      err,
		})
		return client.Table{}, fmt.Errorf("fetching %s: %w", indicator, err)
	}

	rows, cols := table.Shape()
	s.logger.Info(ctx, "Fetched statistics", map[string]interface{}{
		"operation":  "fetch",
		"indicator":  indicator.String(),
		"query_hash": fingerprint,
		"rows":       rows,
		"columns":    cols,
	})

	return table, nil
}

// JobSeekersLast12Months returns the number of job seekers registered over
// the last 12 months.
//
// https://francetravail.io/data/api/marche-travail/documentation#/api-reference/operations/rechercherStatDemandeursEntrants
func (s *Service) JobSeekersLast12Months(ctx context.Context, opts Options) (client.Table, error) {
	return s.Fetch(ctx, JobSeekers, opts)
}

// HiringStatistics returns statistics about hiring.
//
// https://francetravail.io/data/api/marche-travail/documentation#/api-reference/operations/rechercherStatEmbauches
func (s *Service) HiringStatistics(ctx context.Context, opts Options) (client.Table, error) {
	return s.Fetch(ctx, Hiring, opts)
}

// JobOffersStatistics returns statistics about job offers.
func (s *Service) JobOffersStatistics(ctx context.Context, opts Options) (client.Table, error) {
	return s.Fetch(ctx, JobOffers, opts)
}
