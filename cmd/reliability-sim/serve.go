package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/jhaugland01/ReliabilitySim/internal/api"
	"github.com/jhaugland01/ReliabilitySim/internal/config"
	"github.com/jhaugland01/ReliabilitySim/internal/logging"
	"github.com/jhaugland01/ReliabilitySim/internal/store"
)

var serveSeedPresets bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the scenario and run API",
	Long: `serve exposes scenarios and runs over HTTP, streams live runs over SSE
and WebSocket, and publishes Prometheus metrics on /metrics.

Settings can also come from the environment: RELSIM_ADDR, RELSIM_STORE_DRIVER,
RELSIM_STORE_DSN.

Example:
  reliability-sim serve --seed-presets
  reliability-sim serve --store mysql --mysql-dsn "user:pass@tcp(localhost:3306)/relsim"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.LoadSettings(v)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		log := logging.FromContext(ctx)

		st, err := store.Open(ctx, settings.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		log.Info("store ready", "driver", settings.Store.Driver)

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		srv := api.NewServer(st, api.WithLogger(log), api.WithRegistry(reg))
		if serveSeedPresets {
			if err := srv.SeedPresets(ctx); err != nil {
				return err
			}
		}
		return srv.Start(ctx, settings.Addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().String("store", "memory", "store driver (memory or mysql)")
	serveCmd.Flags().String("mysql-dsn", "", "MySQL DSN, user:password@tcp(host:port)/database")
	serveCmd.Flags().BoolVar(&serveSeedPresets, "seed-presets", false, "store the built-in scenarios on startup")

	_ = v.BindPFlag("addr", serveCmd.Flags().Lookup("addr"))
	_ = v.BindPFlag("store.driver", serveCmd.Flags().Lookup("store"))
	_ = v.BindPFlag("store.dsn", serveCmd.Flags().Lookup("mysql-dsn"))
}
