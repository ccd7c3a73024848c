package cmd

import (
	"fmt"

	"github.com/kryptostream/obengine/internal/app"
	"github.com/kryptostream/obengine/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the order book engine",
	Long: `Starts the order book engine, which will:
1. Connect to the level2 WebSocket feed for a single product
2. Maintain the live bid/ask book and derived mid-price statistics
3. Refit a seasonal mid-price forecast on a rolling basis
4. Serve stats, health, and metrics over HTTP`,
	RunE: runEngine,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("product", "", "Product to track (overrides PRODUCT env var)")
	runCmd.Flags().String("url", "", "WebSocket feed URL (overrides WS_URL env var)")
	runCmd.Flags().String("cache", "", "Directory to write raw feed frames to (overrides CACHE_DIR env var)")
	runCmd.Flags().Bool("debug", false, "Enable debug logging")
}

func runEngine(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := applyFlagOverrides(cmd, cfg); err != nil {
		return fmt.Errorf("apply flags: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	logLevel := cfg.LogLevel
	if cfg.Debug {
		logLevel = "debug"
	}

	logger, err := config.NewLogger(logLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	application, err := app.New(cfg, logger, &app.Options{})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	if err := application.Run(); err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("product") {
		product, err := cmd.Flags().GetString("product")
		if err != nil {
			return err
		}
		cfg.Product = product
	}

	if cmd.Flags().Changed("url") {
		url, err := cmd.Flags().GetString("url")
		if err != nil {
			return err
		}
		cfg.WSURL = url
	}

	if cmd.Flags().Changed("cache") {
		cache, err := cmd.Flags().GetString("cache")
		if err != nil {
			return err
		}
		cfg.CacheDir = cache
	}

	if cmd.Flags().Changed("debug") {
		debug, err := cmd.Flags().GetBool("debug")
		if err != nil {
			return err
		}
		cfg.Debug = debug
	}

	return nil
}
