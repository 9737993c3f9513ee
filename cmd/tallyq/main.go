// Command tallyq queries a Tally instance from the command line.
//
// It is a thin front end over the connector: it loads configuration,
// builds a transport, and prints the requested masters. When Tally is
// unreachable, previously cached responses are used transparently.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/amanabt/tendril-connector-tally/cachestore"
	"github.com/amanabt/tendril-connector-tally/config"
	"github.com/amanabt/tendril-connector-tally/masters"
	"github.com/amanabt/tendril-connector-tally/report"
	"github.com/amanabt/tendril-connector-tally/transport"
)

const version = "0.2.0"

var (
	cfgFile string
	verbose bool
)

func main() {
	root := &cobra.Command{
		Use:   "tallyq",
		Short: "Query a Tally instance over its XML interface",
		Long: `tallyq fetches reports and masters from a running Tally instance
and prints them as tables. Raw responses are cached on disk, so previously
fetched reports remain available when Tally is offline.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(unitsCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tallyq version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("tallyq", version)
		},
	}
}

func unitsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "units <company>",
		Short: "List unit masters for a company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			rpt := newRegistry(cfg, log).Units(args[0])
			units, err := rpt.Units(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSIMPLE\tDECIMALS\tCONVERSION")
			for _, u := range unitList(units) {
				conv := "-"
				if u.Conversion != nil {
					conv = fmt.Sprintf("%g %s", *u.Conversion, u.AdditionalUnits)
				}
				fmt.Fprintf(w, "%s\t%v\t%d\t%s\n", u.Name, u.IsSimpleUnit, u.DecimalPlaces, conv)
			}
			return w.Flush()
		},
	}
}

// setup loads configuration and builds the logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	zcfg := zap.NewProductionConfig()
	if verbose {
		zcfg = zap.NewDevelopmentConfig()
	}
	log, err := zcfg.Build()
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// newRegistry wires the transport, store and logger into a master
// registry.
func newRegistry(cfg *config.Config, log *zap.Logger) *masters.Registry {
	var store *cachestore.Store
	tOpts := []transport.Option{
		transport.WithHost(cfg.Host),
		transport.WithPort(cfg.Port),
		transport.WithLogger(log),
	}
	rOpts := []report.Option{report.WithLogger(log)}

	if cfg.CacheDir != "" {
		store = cachestore.New(cfg.CacheDir)
		tOpts = append(tOpts, transport.WithStore(store))
		rOpts = append(rOpts, report.WithStore(store))
	}

	return masters.NewRegistry(transport.New(tOpts...), rOpts...)
}

// unitList flattens a units mapping into typed values in document order.
func unitList(m *report.Mapping) []*masters.Unit {
	return lo.Map(m.Keys(), func(key string, _ int) *masters.Unit {
		v, _ := m.Get(key)
		return v.(*masters.Unit)
	})
}
