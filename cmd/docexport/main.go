package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "docexport",
	Short: "Word export endpoints kept for compatibility",
	Long: `docexport serves the withdrawn Word export entry points. Every call is
rejected with a FeatureDisabled error; rejections can be recorded to
PostgreSQL, published to Redis and alerted to Slack.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if err := loadEnvFile(envFile); err != nil {
			return err
		}
		setupLogging()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading configuration")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("docexport failed")
	}
}

// loadEnvFile populates the environment from path. Variables already set
// take precedence; a missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// logLevel parses DOCEXPORT_LOG_LEVEL. Levels above warn are capped at warn
// so the per-call diagnostic of a disabled feature is never filtered out.
func logLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	if level > zerolog.WarnLevel {
		return zerolog.WarnLevel
	}
	return level
}

func setupLogging() {
	zerolog.SetGlobalLevel(logLevel(os.Getenv("DOCEXPORT_LOG_LEVEL")))

	if os.Getenv("DOCEXPORT_LOG_FORMAT") == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
