package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/alex-user-go/nearby/internal/config"
	apperrors "github.com/alex-user-go/nearby/internal/errors"
	"github.com/alex-user-go/nearby/internal/present"
	"github.com/alex-user-go/nearby/internal/search"
)

// flagKeys binds command-line flags to configuration keys.
var flagKeys = map[string]string{
	"limit":     "search.limit",
	"address":   "server.address",
	"timeout":   "fetch.timeout",
	"log-level": "log.level",
}

// cli carries state from the root command's pre-run into the subcommands.
type cli struct {
	configFile string
	logOutput  io.Writer
	app        *App
}

// NewRootCmd creates the nearby command tree.
func NewRootCmd() *cobra.Command {
	c := &cli{logOutput: os.Stderr}

	root := &cobra.Command{
		Use:   "nearby",
		Short: "Find hotels near a point",
		Long: `nearby fetches a hotel listing from a named source, measures each hotel's
distance from a coordinate and prints the hotels ordered by proximity or price.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				slog.Error("Error displaying help", "error", err)
			}
		},
	}

	root.PersistentFlags().StringVar(&c.configFile, "config", "", "Path to a config file (default ./nearby.yaml or ~/.config/nearby/nearby.yaml)")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().Duration("timeout", 0, "Source fetch timeout (default from config)")

	root.AddCommand(c.searchCmd(), c.sourcesCmd(), c.serveCmd())
	return root
}

// setup loads the configuration, binds the invoked command's flags over it
// and builds the application.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	config.LoadEnv(slog.Default())

	v, err := config.NewViper(c.configFile)
	if err != nil {
		return err
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = v.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return fmt.Errorf("bind flags: %w", bindErr)
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	logger := cfg.Log.NewLogger(c.logOutput)
	slog.SetDefault(logger)

	c.app, err = New(cfg, logger)
	return err
}

func (c *cli) searchCmd() *cobra.Command {
	var (
		lat, lon, orderBy, source string
		page                      int
		asJSON, asTable           bool
		addSources                []string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search hotels near a coordinate",
		Example: `  nearby search --lat 38.7071 --lon -9.13549
  nearby search --lat 38.7071 --lon -9.13549 --order-by price_per_night --json
  nearby search --lat 38.7071 --lon -9.13549 --add-source mine=https://example.com/hotels.json --source mine`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			extra, err := parseSourceFlags(addSources)
			if err != nil {
				return err
			}
			// Flags come from the operator, so they may name s3 and file
			// locations the way the config file can.
			if len(extra) > 0 {
				if _, err := c.app.Service.Registry().Seed(extra); err != nil {
					return err
				}
			}

			q := search.NewQuery(lat, lon)
			q.OrderBy = orderBy
			q.Page = page
			q.Limit = c.app.Config.Search.Limit
			q.Structured = asJSON
			q.SelectSource = source

			result, err := c.app.Service.Search(cmd.Context(), q)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asTable {
				return present.Table(out, result.Page, c.app.Formatter)
			}
			if err := present.Write(out, result, asJSON, c.app.Formatter); err != nil {
				return err
			}
			if !asJSON {
				_, err = fmt.Fprintln(out)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&lat, "lat", "", "Origin latitude")
	cmd.Flags().StringVar(&lon, "lon", "", "Origin longitude")
	cmd.Flags().StringVar(&orderBy, "order-by", "proximity", "Sort order (proximity, price_per_night)")
	cmd.Flags().IntVar(&page, "page", 0, "Page to show, starting at 0")
	cmd.Flags().Int("limit", 0, "Hotels per page (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the structured JSON page")
	cmd.Flags().BoolVar(&asTable, "table", false, "Print the page as a table")
	cmd.Flags().StringVar(&source, "source", "", "Source to search (default from config)")
	cmd.Flags().StringArrayVar(&addSources, "add-source", nil, "Extra source as NAME=URL, repeatable")
	cmd.MarkFlagsMutuallyExclusive("json", "table")

	return cmd
}

func (c *cli) sourcesCmd() *cobra.Command {
	var addSources []string

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List the registered sources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			extra, err := parseSourceFlags(addSources)
			if err != nil {
				return err
			}

			registry := c.app.Service.Registry().Clone()
			if len(extra) > 0 {
				if _, err := registry.Seed(extra); err != nil {
					return err
				}
			}
			return present.Sources(cmd.OutOrStdout(), registry.Sources(), registry.Active())
		},
	}

	cmd.Flags().StringArrayVar(&addSources, "add-source", nil, "Extra source as NAME=URL, repeatable")
	return cmd
}

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve searches over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Serve(cmd.Context(), c.app.Config.Server.Address)
		},
	}

	cmd.Flags().String("address", ":8080", "Address to listen on")
	return cmd
}

// parseSourceFlags turns NAME=URL pairs into a source map.
func parseSourceFlags(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, location, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, apperrors.Invalid(fmt.Sprintf("invalid source %q, want NAME=URL", pair))
		}
		out[strings.TrimSpace(name)] = strings.TrimSpace(location)
	}
	return out, nil
}
