package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"vocabmine/config"
	"vocabmine/logger"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is shared by every command once the configuration is loaded.
type app struct {
	fs         afero.Fs
	cfg        *config.Config
	log        logger.Logger
	configPath string
	logLevel   string
	dumpDir    string
}

func newRootCommand() *cobra.Command {
	a := &app{fs: afero.NewOsFs()}
	cmd := &cobra.Command{
		Use:           "vocabmine",
		Short:         "Mine Japanese vocabulary from text and subtitle files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn, error or disabled")
	cmd.PersistentFlags().StringVar(&a.dumpDir, "dump", "", "write JSON results into this directory")

	cmd.AddCommand(newAnalyzeCommand(a))
	cmd.AddCommand(newTreeCommand(a))
	cmd.AddCommand(newBalanceCommand(a))
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.NewLoader(a.fs).Load(cmd.Context(), a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.dumpDir != "" {
		cfg.Log.DumpDir = a.dumpDir
	}
	a.cfg = cfg
	a.log = logger.NewLogger(cfg.LoggerConfig())
	logger.Init(cfg.LoggerConfig())
	cmd.SetContext(logger.ContextWithLogger(cmd.Context(), a.log))
	if cfg.Log.DumpDir != "" {
		if err := logger.InitLogs(cfg.Log.DumpDir); err != nil {
			return fmt.Errorf("prepare dump directory: %w", err)
		}
	}
	return nil
}

// dump writes v to the dump directory when one is configured.
func (a *app) dump(name string, v any) {
	if a.cfg.Log.DumpDir == "" {
		return
	}
	if err := logger.LogJSON(a.cfg.Log.DumpDir, name, v); err != nil {
		a.log.Warn("failed to write dump", "name", name, "error", err)
	}
}
