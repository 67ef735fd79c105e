package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"timecard/config"
	"timecard/database"
	"timecard/holiday"
	"timecard/timecard"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "timecard",
	Short: "Employee attendance tracking",
	Long:  `Stamp working hours, submit monthly timecards and approve them.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		initLogger(cfg)
		return database.Init(cfg.DatabaseDriver, cfg.DatabaseURL, database.LogLevel(cfg.LogLevel))
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: environment and .env only)")
}

func initLogger(cfg *config.Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	slog.Debug("Logger initialized", "level", cfg.SlogLevel().String())
	return logger
}

// newService wires the timecard service from the loaded configuration.
func newService() (*timecard.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	cal, err := holiday.Load(cfg.HolidayFile)
	if err != nil {
		return nil, err
	}
	if cal.Len() > 0 {
		slog.Info("Holiday calendar loaded", "file", cfg.HolidayFile, "holidays", cal.Len())
	}
	return timecard.NewService(database.NewStore(database.GetDB()), timecard.Options{
		Location: loc,
		Calendar: cal,
		Logger:   slog.Default(),
	}), nil
}
