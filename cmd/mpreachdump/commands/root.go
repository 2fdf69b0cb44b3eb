package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jwhited/mpreach"
	"github.com/jwhited/mpreach/internal/config"
	"github.com/jwhited/mpreach/internal/metrics"
)

// app carries the state shared by all subcommands, set up in
// PersistentPreRunE.
type app struct {
	// flags
	configPath   string
	outputFormat string
	logLevel     string

	cfg     *config.Config
	logger  *slog.Logger
	reg     *prometheus.Registry
	metrics *metrics.Collector
	addPath *mpreach.AddPathTable
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := checkFormat(a.outputFormat); err != nil {
		return err
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg

	a.logger = newLogger(cfg.Log, cmd.ErrOrStderr())
	mpreach.SetLogger(a.logger)

	a.addPath, err = cfg.Decode.AddPathTable()
	if err != nil {
		return err
	}

	a.reg = prometheus.NewRegistry()
	a.metrics = metrics.NewCollector(a.reg)
	return nil
}

// decoderOptions returns the options every decoder is built with. addPath
// overrides the configured add-path families when not nil.
func (a *app) decoderOptions(addPath mpreach.AddPathChecker) []mpreach.DecoderOption {
	if addPath == nil {
		addPath = a.addPath
	}
	return []mpreach.DecoderOption{
		mpreach.WithAddPath(addPath),
		mpreach.WithLogger(a.logger),
		mpreach.WithObserver(a.metrics),
	}
}

// newLogger creates a slog.Logger writing to w in the configured format.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: config.ParseLogLevel(cfg.Level)}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// newRootCmd builds the mpreachdump command tree.
func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "mpreachdump",
		Short: "Decode BGP multiprotocol reachability attributes",
		Long: "mpreachdump decodes MP_REACH_NLRI and MP_UNREACH_NLRI attributes " +
			"(IPv4/IPv6 unicast and labeled unicast, with optional add-path) " +
			"from hex input, UPDATE messages and MRT dumps.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd)
		},
		// Silence cobra's built-in usage/error printing so we control it.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "",
		"path to configuration file (YAML)")
	rootCmd.PersistentFlags().StringVar(&a.outputFormat, "format", formatTable,
		"output format: table, json")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "info",
		"log level: debug, info, warn, error (overrides log.level)")

	rootCmd.AddCommand(decodeCmd(a))
	rootCmd.AddCommand(updateCmd(a))
	rootCmd.AddCommand(mrtCmd(a))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
