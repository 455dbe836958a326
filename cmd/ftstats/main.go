// Package main provides the CLI entry point for the France Travail statistics client.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/datalab-emploi/francetravail-stats/internal/config"
	"github.com/datalab-emploi/francetravail-stats/internal/francetravail/client"
	"github.com/datalab-emploi/francetravail-stats/internal/francetravail/stats"
)

// version is set at build time via ldflags.
var version = "dev"

// rootOptions holds the persistent flags.
type rootOptions struct {
	configPath     string
	testing        bool
	logLevel       string
	format         string
	traceEndpoint  string
	classification stats.Classification
}

func buildRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "ftstats",
		Short: "Fetch labor-market statistics from the France Travail API",
		Long: `Exchanges partner credentials (GOUV_API_CLIENT_ID, GOUV_API_SECRET_KEY) for an
access token and queries the stats-offres-demandes-emploi indicators, printing
the XML responses as tables.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to YAML configuration file")
	flags.BoolVar(&opts.testing, "testing", false, "Skip the token exchange and use a fixed test token")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVarP(&opts.format, "format", "o", "table", "Output format (table, csv, json)")
	flags.StringVar(&opts.traceEndpoint, "trace-endpoint", "", "OTLP/HTTP endpoint URL for request traces")
	flags.StringVar(&opts.classification.TerritoryType, "territory-type", "", "Territory type code (REG, DEP, COM, PAYS)")
	flags.StringVar(&opts.classification.Territory, "territory", "", "Territory code")
	flags.StringVar(&opts.classification.ActivityType, "activity-type", "", "Activity type code (NAF, ROME)")
	flags.StringVar(&opts.classification.Activity, "activity", "", "Activity code")
	flags.StringVar(&opts.classification.PeriodType, "period-type", "", "Period type code (ANNEE, TRIMESTRE)")
	flags.StringVar(&opts.classification.NomenclatureType, "nomenclature-type", "", "Nomenclature type code")

	for _, indicator := range stats.Indicators() {
		rootCmd.AddCommand(buildIndicatorCmd(indicator, opts))
	}
	rootCmd.AddCommand(buildTokenCmd(opts))

	return rootCmd
}

var indicatorShort = map[stats.Indicator]string{
	stats.JobSeekers: "Job seekers registered over the last 12 months",
	stats.Hiring:     "Hiring statistics",
	stats.JobOffers:  "Job offer statistics",
}

func buildIndicatorCmd(indicator stats.Indicator, root *rootOptions) *cobra.Command {
	var (
		opts  stats.Options
		extra map[string]string
	)

	cmd := &cobra.Command{
		Use:   indicator.String(),
		Short: indicatorShort[indicator],
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd.Context(), root, func(ctx context.Context, s *session) error {
				if len(extra) > 0 {
					opts.Extra = client.Params{}
					for k, v := range extra {
						opts.Extra[k] = v
					}
				}

				svc := stats.New(s.client, s.cfg.Classification, s.logger)
				table, err := svc.Fetch(ctx, indicator, opts)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), table, root.format)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.LatestPeriodOnly, "latest-period", false, "Only return the most recent period")
	cmd.Flags().StringSliceVar(&opts.PeriodCodes, "period", nil, "Period code (repeatable)")
	cmd.Flags().StringSliceVar(&opts.NomenclatureCodes, "nomenclature", nil, "Nomenclature code (repeatable)")
	cmd.Flags().BoolVar(&opts.NoCharacteristics, "no-characteristics", false, "Omit the breakdown by characteristic")
	cmd.Flags().StringToStringVar(&extra, "param", nil, "Extra request body field as key=value, sent as a JSON string (repeatable)")

	return cmd
}

func buildTokenCmd(root *rootOptions) *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Obtain an access token and print its metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd.Context(), root, func(_ context.Context, s *session) error {
				token := s.client.Token()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "token_type: %s\n", token.TokenType)
				fmt.Fprintf(out, "scope: %s\n", token.Scope)
				if !token.ExpiresAt.IsZero() {
					fmt.Fprintf(out, "expires_at: %s\n", token.ExpiresAt.Format(time.RFC3339))
				}
				if show {
					fmt.Fprintf(out, "access_token: %s\n", token.AccessToken)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "Also print the access token")
	return cmd
}

// session is the state shared by a single command run.
type session struct {
	cfg    *config.Config
	client client.Client
	logger client.Logger
}

func withSession(ctx context.Context, opts *rootOptions, fn func(context.Context, *session) error) error {
	if err := config.LoadDotenv(); err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	opts.applyTo(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if !validFormat(opts.format) {
		return fmt.Errorf("unknown output format %q", opts.format)
	}

	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := client.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if opts.traceEndpoint != "" {
		shutdown, err := setupTracing(ctx, opts.traceEndpoint)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn(ctx, "Failed to flush traces", map[string]interface{}{"error": err})
			}
		}()
	}

	c, err := client.New(ctx, cfg.ClientConfig(logger))
	if err != nil {
		return err
	}

	return fn(ctx, &session{cfg: cfg, client: c, logger: logger})
}

// applyTo overlays flags that were set on cfg.
func (o *rootOptions) applyTo(cfg *config.Config) {
	if o.testing {
		cfg.Testing = true
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	c := o.classification
	if c.TerritoryType != "" {
		cfg.Classification.TerritoryType = c.TerritoryType
	}
	if c.Territory != "" {
		cfg.Classification.Territory = c.Territory
	}
	if c.ActivityType != "" {
		cfg.Classification.ActivityType = c.ActivityType
	}
	if c.Activity != "" {
		cfg.Classification.Activity = c.Activity
	}
	if c.PeriodType != "" {
		cfg.Classification.PeriodType = c.PeriodType
	}
	if c.NomenclatureType != "" {
		cfg.Classification.NomenclatureType = c.NomenclatureType
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func main() {
	ctx := context.Background()
	rootCmd := buildRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
