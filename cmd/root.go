package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	config "task-review-system.com/task-review-system/internal/configs"
)

var rootCmd = &cobra.Command{
	Use:           "task-review",
	Short:         "Task review service",
	Long:          "Runs the learner task review pipeline: submission, accessor assessment, IQA and EQA review",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads .env and the environment, then builds the logger and opens
// the database.
func bootstrap() (config.Config, *zap.Logger, *gorm.DB, error) {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	if envErr != nil {
		logger.Debug(".env file not found, using environment variables")
	}

	db, err := config.NewDatabaseClient(cfg.DatabaseDSN, logger)
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	return cfg, logger, db, nil
}
