package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lazypower/legacy/internal/config"
	"github.com/lazypower/legacy/internal/engine"
	"github.com/lazypower/legacy/internal/notify"
	"github.com/lazypower/legacy/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "legacy",
	Short: "Inactivity notifier for digital legacy",
	Long: "Legacy watches for principals who stop interacting and, once their inactivity\n" +
		"threshold passes, notifies their chosen beneficiary and warns the principal.",
	SilenceUsage: true,
}

var (
	configPath string
	dbOverride string
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $LEGACY_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&dbOverride, "db", "", "Database path (overrides config and $LEGACY_DB)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(touchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(tokenCmd)
}

// loadConfig resolves the config file, environment and flags, in that
// order of increasing precedence.
func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("LEGACY_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()
	if dbOverride != "" {
		cfg.Database.Path = dbOverride
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func openDB(cfg config.Config) (*store.DB, error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// newSender builds the configured delivery provider. A provider that
// cannot be built degrades to one that fails every send, so episodes
// stay armed until the transport is fixed.
func newSender(cfg config.Config, logger *slog.Logger) notify.Sender {
	sender, err := notify.NewSender(cfg.Delivery)
	if err != nil {
		logger.Warn("delivery not configured, notifications will be retried", "err", err)
		return notify.Unconfigured{Reason: err.Error()}
	}
	if _, ok := sender.(notify.Unconfigured); ok {
		logger.Warn("no delivery provider selected, notifications will be retried until one is configured")
	}
	return sender
}

func engineOptions(cfg config.Config, logger *slog.Logger, metrics *engine.Metrics) engine.Options {
	return engine.Options{
		Logger:              logger,
		Metrics:             metrics,
		Interval:            cfg.Sweep.Interval,
		CandidateTimeout:    cfg.Sweep.CandidateTimeout,
		Workers:             cfg.Sweep.Workers,
		RunOnStart:          cfg.Sweep.RunOnStart,
		RequireEmailContact: cfg.Delivery.Provider != config.ProviderWebhook,
	}
}

// localEngine opens the database and wires an engine for one-shot
// commands. The caller closes the returned DB.
func localEngine(cmd *cobra.Command) (*engine.Engine, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	db, err := openDB(cfg)
	if err != nil {
		return nil, cfg, err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Log.Level)
	eng := engine.New(db, newSender(cfg, logger), engineOptions(cfg, logger, nil))
	return eng, cfg, nil
}
