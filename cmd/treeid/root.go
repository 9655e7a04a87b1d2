package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/nativetree/internal/adapters/device"
	"github.com/okian/nativetree/internal/client"
	"github.com/okian/nativetree/internal/config"
	"github.com/okian/nativetree/pkg/logger"
)

// settings holds the global flags and the App built from them.
type settings struct {
	configPath string
	logLevel   string

	// opts are extra App options; tests use them to inject fakes.
	opts     []client.Option
	position *device.Fixed
	app      *client.App
}

// rootCommand creates the treeid root command. Call s.close once it has
// executed.
func rootCommand(s *settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "treeid",
		Short:        "Identify Philippine native trees and record where they grow",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&s.configPath, "config", "c", os.Getenv("NATIVETREE_CONFIG"), "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&s.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		identifyCommand(s),
		historyCommand(s),
		treeCommand(s),
		treesCommand(s),
		locationsCommand(s),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return s.initialize(cmd)
	}

	return rootCmd
}

// initialize loads configuration and builds the App before any subcommand.
func (s *settings) initialize(cmd *cobra.Command) error {
	cfg, err := config.LoadFile(s.configPath)
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if s.logLevel != "" {
		level = s.logLevel
	}
	if err := logger.SetLevelString(level); err != nil {
		return err
	}

	s.position = device.NewFixed()
	opts := append([]client.Option{client.WithPosition(s.position)}, s.opts...)
	app, err := client.New(cfg, opts...)
	if err != nil {
		return fmt.Errorf("failed to set up client: %w", err)
	}
	s.app = app
	logger.Get().Debug(cmd.Context(), "client ready",
		logger.String("backend", cfg.BackendURL),
		logger.String("cache", cfg.CacheDriver))
	return nil
}

// close releases the App, if one was built.
func (s *settings) close() error {
	if s.app == nil {
		return nil
	}
	err := s.app.Close()
	s.app = nil
	return err
}
