package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/lectern/internal/config"
	"github.com/abhisek/lectern/internal/platform/logger"
	"github.com/abhisek/lectern/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "lectern",
	Short: "Voice-style lesson sessions for scripture study",
	Long: `Lectern walks a learner through seven-segment lessons driven by spoken
commands such as "begin the lesson" and "read the passage". It runs as a
terminal client (the default) or as an HTTP API for a browser client.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd, "", false)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite journal (overrides LECTERN_DB)")
	pf.String("config", "", "Path to config file (overrides LECTERN_CONFIG)")
	pf.String("curriculum", "", "Curriculum directory holding lessons/*.json")
	pf.String("log-mode", "", "Log mode: dev, prod or quiet")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lessonsCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and environment, then applies flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if v, _ := cmd.Flags().GetString("curriculum"); v != "" {
		cfg.Curriculum = v
	}
	if v, _ := cmd.Flags().GetString("log-mode"); v != "" {
		cfg.LogMode = v
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.DB = v
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config) (*logger.Logger, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log, nil
}

// resolveDBPath returns the --db flag or config value, falling back to
// LECTERN_DB and the XDG data path.
func resolveDBPath(cfg config.Config) (string, error) {
	if cfg.DB != "" {
		return cfg.DB, store.EnsureDir(cfg.DB)
	}
	return store.DefaultDBPath()
}

// openStore resolves and opens the journal.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
