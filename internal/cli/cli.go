package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mintydevdaz/gigs/internal/config"
	"github.com/mintydevdaz/gigs/internal/crawler"
	"github.com/mintydevdaz/gigs/internal/crypto"
	"github.com/mintydevdaz/gigs/internal/dedupe"
	"github.com/mintydevdaz/gigs/internal/filter"
	"github.com/mintydevdaz/gigs/internal/gig"
	"github.com/mintydevdaz/gigs/internal/logger"
	"github.com/mintydevdaz/gigs/internal/pipeline"
	"github.com/mintydevdaz/gigs/internal/sink"
	"github.com/mintydevdaz/gigs/internal/source"
	"github.com/mintydevdaz/gigs/internal/venue"
)

const (
	ExitSuccess       = 0
	ExitError         = 1
	ExitSourceFailure = 2
)

// errSourceFailure marks a run that finished and wrote output but had
// at least one source contribute nothing. It flows back through RunE so
// deferred cleanup still runs; Execute maps it to ExitSourceFailure.
var errSourceFailure = errors.New("one or more sources failed")

// passphraseEnv names the environment variable holding the passphrase
// for sealed header values in the config.
const passphraseEnv = "GIGS_PASSPHRASE"

var (
	flagConfig  string
	flagFormat  string
	flagFilter  string
	flagDryRun  bool
	flagVerbose bool
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gigs",
		Short: "Aggregate live music listings into one sorted feed",
		Long: `Crawls the configured listing sources, normalizes every event into
one canonical record, enriches venues with suburb and state, removes
duplicates, and writes the date-sorted result as JSON.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runPipeline,
	}

	cmd.Flags().StringVar(&flagConfig, "config", "gigs.yaml", "Path to the run configuration")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Summary format: text or json")
	cmd.Flags().StringVar(&flagFilter, "filter", "",
		`Filter query, e.g. 'state:NSW max:50 weekends' (replaces the config filter)`)
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Run the pipeline without writing output")
	cmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(newSealCmd())

	return cmd
}

// newSealCmd creates the seal subcommand, which encrypts one credential
// value for pasting into the config.
func newSealCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seal <value>",
		Short: "Encrypt a header value for the run configuration",
		Long: `Encrypts a credential with the passphrase from ` + passphraseEnv + ` so it
can be committed inside a source's headers. The pipeline decrypts it at
load time with the same passphrase.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sealer := crypto.NewSealer(os.Getenv(passphraseEnv))
			sealed, err := sealer.Seal(args[0])
			if err != nil {
				return fmt.Errorf("set %s before sealing: %w", passphraseEnv, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), sealed)
			return nil
		},
	}
}

// runPipeline is the main command logic.
func runPipeline(cmd *cobra.Command, args []string) error {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}

	if flagVerbose {
		logger.SetDefault(logger.New(logger.LevelDebug, os.Stderr))
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	// Sealed header values are opened with the passphrase from the
	// environment before any extractor sees them.
	sealer := crypto.NewSealer(os.Getenv(passphraseEnv))
	for i := range cfg.Sources {
		opened, err := sealer.OpenMap(cfg.Sources[i].Headers)
		if err != nil {
			return fmt.Errorf("source %q: %w", cfg.Sources[i].Name, err)
		}
		cfg.Sources[i].Headers = opened
	}

	runFilter, err := buildFilter(cfg.Filter)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := source.NewHTTPClient(cfg.Timeout)

	jobs := make([]pipeline.SourceJob, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		ex, err := source.NewFromConfig(sc, client, cfg.UserAgent)
		if err != nil {
			return err
		}
		jobs = append(jobs, pipeline.SourceJob{
			Extractor: ex,
			Crawl: crawler.Options{
				Workers:   cfg.Workers,
				Retries:   cfg.Retries,
				Backoff:   cfg.Backoff,
				FirstPage: *sc.FirstPage,
				PageBound: sc.PageBound,
			},
		})
	}

	dir, err := venue.LoadDirectory(cfg.VenuesPath)
	if err != nil {
		return fmt.Errorf("loading venue directory: %w", err)
	}
	var lookup venue.Lookup
	if cfg.Venues.BaseURL != "" {
		lookup = venue.NewMoshtixLookup(cfg.Venues.BaseURL, client, cfg.UserAgent)
	}
	resolver := venue.NewResolver(dir, lookup, cfg.VenuesPath, cfg.Workers)

	var out sink.Sink = sink.NewJSONFile(cfg.OutputPath)
	if cfg.CalendarPath != "" {
		out = sink.Multi{out, sink.NewICSFile(cfg.CalendarPath)}
	}
	if flagDryRun {
		out = sink.Discard{}
	}

	summary, err := pipeline.Run(ctx, pipeline.Options{
		Sources:   jobs,
		Resolver:  resolver,
		Sink:      out,
		Normalize: normalizeOptions(cfg.Normalize),
		Dedupe: dedupe.Options{
			Keep:          dedupe.KeepPolicy(cfg.Dedupe.Keep),
			TitleTieBreak: cfg.Dedupe.TitleTieBreak,
		},
		Filter:     runFilter,
		WindowDays: cfg.WindowDays,
	})
	if err != nil {
		return err
	}

	if err := WriteSummary(os.Stdout, summary, format); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	for _, s := range summary.Sources {
		if s.Err != "" {
			return errSourceFailure
		}
	}
	return nil
}

// buildFilter converts the config filter block, unless a --filter query
// replaces it for this run.
func buildFilter(fc config.FilterConfig) (*filter.Filter, error) {
	if flagFilter != "" {
		f, err := filter.Parse(flagFilter)
		if err != nil {
			return nil, fmt.Errorf("invalid --filter: %w", err)
		}
		return f, nil
	}

	f := filter.New()
	f.Titles = fc.Titles
	f.Venues = fc.Venues
	f.Suburbs = fc.Suburbs
	f.States = fc.States
	f.Genres = fc.Genres
	f.WeekendsOnly = fc.WeekendsOnly
	f.MaxPrice = fc.MaxPrice

	if fc.From != "" {
		t, err := time.Parse("2006-01-02", fc.From)
		if err != nil {
			return nil, fmt.Errorf("invalid filter.from %q (want YYYY-MM-DD)", fc.From)
		}
		f.DateFrom = &t
	}
	if fc.To != "" {
		t, err := time.Parse("2006-01-02", fc.To)
		if err != nil {
			return nil, fmt.Errorf("invalid filter.to %q (want YYYY-MM-DD)", fc.To)
		}
		end := t.Add(24*time.Hour - time.Second)
		f.DateTo = &end
	}
	return f, nil
}

// normalizeOptions maps config case styles onto the normalizer options,
// falling back to the defaults for unset fields.
func normalizeOptions(nc config.NormalizeConfig) gig.Options {
	opts := gig.DefaultOptions()
	if nc.TitleStyle != "" {
		opts.TitleStyle = gig.CaseStyle(nc.TitleStyle)
	}
	if nc.VenueStyle != "" {
		opts.VenueStyle = gig.CaseStyle(nc.VenueStyle)
	}
	if nc.SuburbStyle != "" {
		opts.SuburbStyle = gig.CaseStyle(nc.SuburbStyle)
	}
	return opts
}

// exitCode maps a command error to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errSourceFailure):
		return ExitSourceFailure
	default:
		return ExitError
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
