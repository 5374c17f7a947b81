// Package main provides poke-cli, the command-line front end of the Pokédex.
//
// Run with: go run ./cmd/cli lookup pikachu
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fleveque/poke-finder/internal/app"
	"github.com/fleveque/poke-finder/internal/config"
	"github.com/fleveque/poke-finder/internal/controller"
	"github.com/fleveque/poke-finder/internal/export"
	"github.com/fleveque/poke-finder/internal/model"
	"github.com/fleveque/poke-finder/internal/search"
	"github.com/fleveque/poke-finder/internal/tui"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootCmd creates the root command:
// poke-cli lookup pikachu
// poke-cli export --gen 1 --format parquet --out gen1.parquet
func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "poke-cli",
		Short:        "Pokédex lookups, browsing and exports",
		SilenceUsage: true,
	}

	root.AddCommand(
		lookupCmd(),
		searchCmd(),
		genCmd(),
		browseCmd(),
		importSpritesCmd(),
		exportCmd(),
		entryCmd(),
	)
	return root
}

// setup loads config and a development logger (always, for the CLI).
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(os.Getenv(config.EnvConfigPath))
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	return cfg, logger, nil
}

// signalContext is cancelled on Ctrl+C so long imports stop cleanly.
func signalContext(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <name>",
		Short: "Show one Pokémon with its stats and alternate forms",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			pokedex := app.NewPokedex(cfg, logger)
			detail, err := pokedex.Entity(ctx, args[0])
			if err != nil {
				return err
			}
			if detail == nil {
				return fmt.Errorf("no pokemon named %q", args[0])
			}
			forms, err := pokedex.Forms(ctx, detail)
			if err != nil {
				return err
			}
			printDetail(cmd.OutOrStdout(), detail, forms)
			return nil
		},
	}
}

func printDetail(w io.Writer, d *model.EntityDetail, forms []model.FormOption) {
	fmt.Fprintf(w, "%s #%d\n", d.DisplayName(), d.ID)
	fmt.Fprintf(w, "Types: %s\n", strings.Join(d.TypeNames(), ", "))
	for _, s := range d.Stats {
		fmt.Fprintf(w, "  %-16s %3d\n", s.Label(), s.BaseStat)
	}
	for _, f := range forms {
		fmt.Fprintf(w, "Form: %s (%s)\n", f.Label, f.Name)
	}
	if img := d.ImageURL(); img != "" {
		fmt.Fprintf(w, "Image: %s\n", img)
	}
}

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "List up to 10 names containing query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			index, err := app.NewPokedex(cfg, logger).Index(cmd.Context())
			if err != nil {
				return err
			}
			for _, r := range search.Filter(args[0], index) {
				fmt.Fprintln(cmd.OutOrStdout(), r.Name)
			}
			return nil
		},
	}
}

func genCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gen <generation>",
		Short: "List the Pokémon of a generation (genOne or 1 ... genNine or 9)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := model.LookupGeneration(args[0])
			if err != nil {
				return err
			}
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			list, err := app.NewPokedex(cfg, logger).Range(cmd.Context(), gen)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s (#%d-#%d)\n", gen.Label, gen.Start, gen.End)
			for _, r := range list {
				card := model.NewListCard(r, cfg.Sprites.BaseURL)
				fmt.Fprintf(w, "%4d %s\n", card.ID, card.DisplayName)
			}
			return nil
		},
	}
}

func browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Interactive terminal Pokédex",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(os.Getenv(config.EnvConfigPath))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			// Log output would corrupt the full-screen UI.
			logger := zap.NewNop()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			ctrl := controller.New(app.NewPokedex(cfg, logger), cfg.Sprites.BaseURL, logger)
			p := tea.NewProgram(tui.NewModel(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
			_, err = p.Run()
			return err
		},
	}
}

func importSpritesCmd() *cobra.Command {
	var genFlag string

	cmd := &cobra.Command{
		Use:   "import-sprites",
		Short: "Download and resize every sprite of a generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := model.LookupGeneration(genFlag)
			if err != nil {
				return err
			}
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			a, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext(cmd.Context(), logger)
			defer cancel()

			stats, err := a.Sprites.ImportGeneration(ctx, gen, a.Pokedex)
			if err != nil {
				return fmt.Errorf("bulk import: %w", err)
			}

			logger.Info("import complete",
				zap.String("generation", gen.Key),
				zap.Int("total", stats.Total),
				zap.Int("imported", stats.Imported),
				zap.Int("skipped", stats.Skipped),
				zap.Int("failed", stats.Failed),
			)
			if len(stats.Errors) > 0 {
				logger.Warn("import had errors", zap.Int("count", len(stats.Errors)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&genFlag, "gen", model.DefaultGeneration().Key, "Generation to import (genOne or 1 ... genNine or 9)")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		genFlag     string
		formatFlag  string
		out         string
		bucket      string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a generation as CSV or Parquet, optionally to S3",
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := model.LookupGeneration(genFlag)
			if err != nil {
				return err
			}
			format, err := export.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := signalContext(cmd.Context(), logger)
			defer cancel()

			rows, err := export.Collect(ctx, app.NewPokedex(cfg, logger), gen, concurrency, logger)
			if err != nil {
				return err
			}
			data, err := export.Encode(rows, format)
			if err != nil {
				return err
			}

			switch out {
			case "":
			case "-":
				if _, err := cmd.OutOrStdout().Write(data); err != nil {
					return err
				}
			default:
				if err := os.WriteFile(out, data, 0644); err != nil {
					return fmt.Errorf("writing %s: %w", out, err)
				}
				logger.Info("export written", zap.String("path", out), zap.Int("rows", len(rows)))
			}

			if bucket == "" {
				bucket = cfg.Export.S3Bucket
			}
			if bucket == "" {
				if out == "" {
					return fmt.Errorf("nothing to do: give --out or --s3-bucket")
				}
				return nil
			}

			uploader, err := export.NewS3Uploader(ctx, cfg.Export.S3Region, bucket)
			if err != nil {
				return err
			}
			loc, err := uploader.Upload(ctx, export.ObjectKey(rows, format), data)
			if err != nil {
				return err
			}
			logger.Info("export uploaded", zap.String("location", loc), zap.Int("size", len(data)))
			return nil
		},
	}

	cmd.Flags().StringVar(&genFlag, "gen", model.DefaultGeneration().Key, "Generation to export")
	cmd.Flags().StringVar(&formatFlag, "format", string(export.FormatCSV), "Output format: csv or parquet")
	cmd.Flags().StringVar(&out, "out", "", "Output file, or - for stdout")
	cmd.Flags().StringVar(&bucket, "s3-bucket", "", "Upload to this bucket (defaults to export.s3_bucket)")
	cmd.Flags().IntVar(&concurrency, "concurrency", export.DefaultConcurrency, "Parallel detail fetches")
	return cmd
}

func entryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entry <name>",
		Short: "Show the Pokédex entry, writing one with an LLM if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			a, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			entry, err := a.Entries.GetEntry(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s: the %s\n", model.Capitalize(entry.Name), entry.Category)
			fmt.Fprintln(w, entry.Text)
			return nil
		},
	}
}
