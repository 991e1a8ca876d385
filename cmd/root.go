package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	dbPath  string
	cfgPath string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "lolfeatures",
	Short: "LoL player feature pipeline",
	Long: `Fetch League of Legends match histories, flatten them into tabular
records and aggregate them into per-player feature vectors joined with
survey profiles.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Secrets (RIOT_API_KEY) may live in a local .env file.
		_ = godotenv.Load()

		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(level).With().Timestamp().Logger()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultDB := filepath.Join(mustUserHome(), ".lolfeatures", "features.db")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "lolfeatures.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(targetsCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
}

func mustUserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// loadRiotAPIKey returns the Riot API key from the RIOT_API_KEY environment
// variable or ~/.lolfeatures/riot_api_key.
func loadRiotAPIKey() (string, error) {
	if key := os.Getenv("RIOT_API_KEY"); key != "" {
		return key, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(home, ".lolfeatures", "riot_api_key"))
	if err != nil {
		return "", fmt.Errorf("riot API key not found: set RIOT_API_KEY or create ~/.lolfeatures/riot_api_key")
	}
	return strings.TrimSpace(string(data)), nil
}
