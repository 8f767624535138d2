package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gitlab.com/resynctech/resync-cloud/fleetsim/config"
)

type app struct {
	v            *viper.Viper
	cfgFile      string
	ensureSchema bool
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "fleetsim",
		Short: "Simulate a fleet of commercial freezers",
		Long: `Replays a historical freezer dataset as five virtual freezers, each with its
own behaviour, and delivers one reading per freezer per cycle to a sink.
Without a subcommand readings are POSTed to --server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.Init(a.v, a.cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), openHTTP)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfgFile, "config", "", "config file (default ./fleetsim.yaml)")
	f.BoolVar(&a.ensureSchema, "ensure-schema", false, "create the sink table before sending, where supported")
	f.String("csv", "", "path to the historical dataset CSV")
	f.String("server", "", "URL readings are POSTed to")
	f.Float64("interval", 0, "seconds between cycles")
	f.Bool("test", false, "run a single cycle and exit")
	f.Int64("seed", 0, "random seed, 0 seeds from the clock")
	f.Duration("timeout", 0, "per-reading delivery timeout")
	f.String("latency-file", "", "append per-send latencies to this CSV file")
	f.String("metrics-addr", "", "serve prometheus metrics on this address, e.g. :9100")
	f.String("log-level", "", "log level (debug, info, warn, error)")
	f.String("log-format", "", "log format (text, json)")

	bind(a.v, root, map[string]string{
		"csv":          "csv",
		"server":       "server",
		"interval":     "interval",
		"test":         "test",
		"seed":         "seed",
		"timeout":      "timeout",
		"latency_file": "latency-file",
		"metrics_addr": "metrics-addr",
		"log.level":    "log-level",
		"log.format":   "log-format",
	})

	root.AddCommand(sinkCommands(a)...)
	return root
}

// bind maps config keys to persistent flags. A flag only overrides the
// config when it is set on the command line.
func bind(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
}
