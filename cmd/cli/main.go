package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dvloznov/spendlens/internal/config"
	"github.com/dvloznov/spendlens/internal/ledger"
	"github.com/dvloznov/spendlens/internal/logger"
	"github.com/dvloznov/spendlens/internal/pipeline"
)

// app carries what every command needs once flags are parsed.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	log     zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	rootCmd := &cobra.Command{
		Use:           "spendlens",
		Short:         "Extract, normalize and summarize bank statement transactions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Show help when no subcommand is provided
			return cmd.Help()
		},
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "Config file (default "+config.DefaultPath()+")")
	flags.String("ledger", "", "Ledger snapshot file")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	_ = a.v.BindPFlag("ledger.path", flags.Lookup("ledger"))
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))

	rootCmd.AddCommand(
		a.ingestCmd(),
		a.uploadCmd(),
		a.inspectCmd(),
		a.summaryCmd(),
		a.listCmd(),
		a.removeCmd(),
		a.resetCmd(),
		a.recurringCmd(),
		a.configCmd(),
	)
	return rootCmd
}

// load reads .env and the configuration, then builds the logger.
func (a *app) load() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.NewWithLevel(level)
	return nil
}

// context returns a context carrying the logger.
func (a *app) context(cmd *cobra.Command) context.Context {
	return logger.WithContext(cmd.Context(), a.log)
}

func (a *app) loadLedger() (*ledger.Ledger, error) {
	return ledger.LoadFile(a.cfg.Ledger.Path)
}

func (a *app) saveLedger(l *ledger.Ledger) error {
	if err := l.SaveFile(a.cfg.Ledger.Path); err != nil {
		return err
	}
	a.log.Debug().Str("path", a.cfg.Ledger.Path).Int("transactions", l.Len()).Msg("ledger saved")
	return nil
}

func (a *app) runtime(ctx context.Context) (*pipeline.Runtime, error) {
	return pipeline.NewRuntime(ctx, a.cfg)
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
