package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/runeforge/internal/config"
	"github.com/xkilldash9x/runeforge/internal/observability"
)

type contextKey string

const (
	configKey  contextKey = "config"
	loggerKey  contextKey = "logger"
	metricsKey contextKey = "metrics"
)

// NewRootCommand builds a fresh command tree. Each call returns independent
// flag state, so tests can run commands side by side.
func NewRootCommand() *cobra.Command {
	var cfgFile, envFile string

	rootCmd := &cobra.Command{
		Use:   "runeforge",
		Short: "Runeforge selects a technology stack from a project blueprint.",
		Long: `Runeforge scores the candidates of a rules catalog against a project
blueprint and emits a reproducible stack plan. The same blueprint, rules and
seed always yield a byte-identical plan.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := config.NewViper()
			if err := initializeConfig(v, cfgFile, envFile); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger())
			logger := observability.GetLogger().With(zap.String("run_id", uuid.NewString()))
			logger.Debug("Starting runeforge", zap.String("version", Version), zap.String("command", cmd.Name()))

			ctx := context.WithValue(cmd.Context(), configKey, cfg)
			ctx = context.WithValue(ctx, loggerKey, logger)
			ctx = context.WithValue(ctx, metricsKey, observability.NewMetrics())
			cmd.SetContext(ctx)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./runeforge.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded into the environment before configuration")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newDiffCmd())
	rootCmd.AddCommand(newExplainCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the command tree and reports the error, if any, on stderr.
// The caller maps the returned error to an exit code.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		observability.GetLogger().Debug("Command execution failed", zap.Error(err))
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	}
	observability.Sync()
	return err
}

// initializeConfig loads the dotenv file and the optional config file into v.
// Environment variables already set win over dotenv entries.
func initializeConfig(v *viper.Viper, cfgFile, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error loading env file %s: %w", envFile, err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("runeforge")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and environment apply.
	}
	return nil
}

// getConfigFromContext returns the configuration stored by the root command.
func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not found in context")
	}
	return cfg, nil
}

// getLoggerFromContext returns the run-scoped logger, falling back to the
// global one.
func getLoggerFromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return observability.GetLogger()
}

// getMetricsFromContext returns the run's metrics recorder, or a fresh one
// when the command was not started through the root command.
func getMetricsFromContext(ctx context.Context) *observability.Metrics {
	if m, ok := ctx.Value(metricsKey).(*observability.Metrics); ok && m != nil {
		return m
	}
	return observability.NewMetrics()
}
