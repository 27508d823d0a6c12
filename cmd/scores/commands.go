package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/okian/scores/internal/adapters/repository"
	"github.com/okian/scores/internal/adapters/source"
	app "github.com/okian/scores/internal/app"
	"github.com/okian/scores/internal/config"
	"github.com/okian/scores/internal/domain/csvparse"
	"github.com/okian/scores/internal/loadgen"
	"github.com/okian/scores/pkg/logger"
)

// errInvalidSheet is returned by validate when any line fails.
var errInvalidSheet = errors.New("score sheet is invalid")

type rootOptions struct {
	logLevel string
	maxBytes int64
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "scores",
		Short: "Validate score sheets and report top scorers",
		Long: `Validate CSV score sheets and report top scorers.

A sheet starts with the header "First Name,Second Name,Score" and holds one
record per line. Scores are integers from 0 to 100.

Examples:
  scores top scores.csv          # Print the top score and who holds it
  scores validate scores.csv     # List every invalid line
  scores import a.csv b.csv      # Store sheets in the configured store
  scores loadgen --sheets 500    # Drive a running server with generated sheets`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return logger.SetLevelString(opts.logLevel)
		},
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	root.PersistentFlags().Int64Var(&opts.maxBytes, "max-bytes", 10<<20, "Largest sheet accepted, in bytes")

	root.AddCommand(newTopCmd(opts), newValidateCmd(opts), newImportCmd(opts), newLoadgenCmd())
	return root
}

func newTopCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "top FILE",
		Short: "Print the top score and every person holding it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc := newService(opts)
			defer func() { _ = svc.Stop(ctx) }()

			res, err := svc.ProcessFile(ctx, args[0])
			if err != nil {
				return describe(err, args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\nTop score: %d\n", res.TopScore)
			fmt.Fprintln(out, "\nTop scorers:")
			for _, sc := range res.Top {
				fmt.Fprintf(out, "%s %s\n", sc.FirstName, sc.SecondName)
			}
			return nil
		},
	}
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a sheet and list every invalid line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc := newService(opts)
			defer func() { _ = svc.Stop(ctx) }()

			content, err := source.NewFileSource(source.WithMaxBytes(opts.maxBytes)).Read(ctx, args[0])
			if err != nil {
				return describe(err, args[0])
			}

			rep := svc.Preview(ctx, content)
			out := cmd.OutOrStdout()
			if len(rep.Errors) == 0 {
				fmt.Fprintln(out, pterm.Success.Sprintf("%d valid records", len(rep.Records)))
				return nil
			}

			table, err := renderIssues(rep.Errors)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, table)
			return fmt.Errorf("%w: %d of %d lines failed", errInvalidSheet, len(rep.Errors), len(rep.Errors)+len(rep.Records))
		},
	}
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE...",
		Short: "Parse sheets and store them in the configured store",
		Long: `Parse sheets and store them in the store selected by configuration.

The store is chosen with SCORES_STORE_DRIVER (memory, sqlite or postgres).
Each file is stored whole or not at all.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			store, err := repository.Open(ctx, cfg)
			if err != nil {
				return fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
			}

			svc := newService(opts, app.WithStore(store))
			defer func() { _ = svc.Stop(ctx) }()

			out := cmd.OutOrStdout()
			for _, path := range args {
				scores, err := svc.ImportFile(ctx, path)
				if err != nil {
					return describe(err, path)
				}
				fmt.Fprintln(out, pterm.Success.Sprintf("%s: %d scores imported", path, len(scores)))
			}

			total, err := store.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, pterm.Info.Sprintf("%d scores in %s store", total, cfg.StoreDriver))
			return nil
		},
	}
}

func newLoadgenCmd() *cobra.Command {
	var cfg loadgen.Config

	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Submit generated sheets to a running server and verify the top scorers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := loadgen.Run(cmd.Context(), cfg, logger.Named("loadgen"))
			if err != nil {
				return err
			}

			table, err := pterm.DefaultTable.WithData(pterm.TableData{
				{"Sheets", strconv.Itoa(stats.SheetsGenerated)},
				{"Rows", strconv.Itoa(stats.RowsGenerated)},
				{"Accepted", strconv.Itoa(stats.Accepted)},
				{"Duplicate", strconv.Itoa(stats.Duplicate)},
				{"Submit failures", strconv.Itoa(stats.Failed)},
				{"Rows imported", strconv.Itoa(stats.Imported)},
				{"Failed imports", strconv.Itoa(stats.ImportFailed)},
				{"Top score", strconv.Itoa(stats.TopScore)},
				{"Top scorers", strconv.Itoa(stats.TopScorers)},
				{"Duration", stats.Duration.String()},
			}).Srender()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Base URL of the service")
	f.IntVar(&cfg.Sheets, "sheets", 100, "Number of sheets to submit")
	f.IntVar(&cfg.RowsPerSheet, "rows", 100, "Data rows per sheet")
	f.IntVar(&cfg.Workers, "workers", 8, "Concurrent submitters")
	f.DurationVar(&cfg.Timeout, "timeout", 30*time.Second, "HTTP request timeout")
	f.DurationVar(&cfg.WaitTimeout, "wait", 2*time.Minute, "How long to wait for imports to finish")
	f.Uint64Var(&cfg.Seed, "seed", 1, "Seed for the row generator")
	return cmd
}

func newService(opts *rootOptions, extra ...app.Option) *app.Service {
	return app.New(append([]app.Option{
		app.WithLogger(logger.Named("cli")),
		app.WithMaxBytes(opts.maxBytes),
	}, extra...)...)
}

// describe turns service errors into messages for the terminal.
func describe(err error, path string) error {
	var pe *csvparse.ParseError
	switch {
	case errors.Is(err, source.ErrSourceNotFound):
		return fmt.Errorf("file not found at %s", path)
	case errors.As(err, &pe) && pe.Line > 0:
		return fmt.Errorf("%s: %w\n  %s", path, err, pe.Raw)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("error processing %s: %w", path, err)
	}
}

func renderIssues(errs csvparse.ParseErrors) (string, error) {
	data := pterm.TableData{{"Line", "Kind", "Problem", "Text"}}
	for _, e := range errs {
		data = append(data, []string{strconv.Itoa(e.Line), e.Kind.String(), e.Message, e.Raw})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}
