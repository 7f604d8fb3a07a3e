// Package app wires configuration, secret store, fetcher, destination and
// writer into the running sync client. Construction is explicit: every
// dependency is built once here and passed down, nothing reads global state.
package app

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"exchangesync/config"
	"exchangesync/internal/app/fetcher"
	"exchangesync/internal/app/logwriter"
	"exchangesync/internal/app/secrets"
	"exchangesync/internal/app/service"
	"exchangesync/internal/app/sheets"
)

type App struct {
	cfg     *config.Config
	service *service.Service
}

func NewApp(cfg *config.Config) (*App, error) {
	cfg.ApplyLogging()
	if cfg.LogToFile {
		hook, err := logwriter.NewHook(cfg.LogDir)
		if err != nil {
			return nil, err
		}
		logrus.AddHook(hook)
	}

	store := secrets.NewStore(cfg.Dir)
	apiKey, err := store.Get(secrets.KeyAPIKey)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"api_key": secrets.Preview(apiKey)}).Debug("credential loaded")

	f := fetcher.New(fetcher.Options{
		Timeout:       cfg.Timeout,
		HealthTimeout: cfg.HealthTimeout,
		RetryDelay:    cfg.RetryDelay,
		UserAgent:     cfg.UserAgent,
	})

	dest, err := newDestination(cfg, store)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:     cfg,
		service: service.NewService(f, sheets.NewWriter(dest), cfg, apiKey),
	}, nil
}

func newDestination(cfg *config.Config, store *secrets.Store) (sheets.Destination, error) {
	switch cfg.Backend {
	case "google":
		creds, err := store.Get(secrets.KeySheetsCreds)
		if err != nil {
			return nil, err
		}
		if cfg.SpreadsheetID == "" {
			return nil, fmt.Errorf("sheets.spreadsheet_id is required for the google backend")
		}
		return sheets.NewGoogleSheets(creds, cfg.SpreadsheetID, cfg.MaxColumnWidth)
	case "xlsx":
		return sheets.NewWorkbook(cfg.WorkbookPath, cfg.MaxColumnWidth), nil
	default:
		return nil, fmt.Errorf("unknown sheets backend %q", cfg.Backend)
	}
}

// Service exposes the refresh operations to the CLI.
func (a *App) Service() *service.Service {
	return a.service
}

// Run is the scheduler: an endless iteration loop with a quiet-hours window.
// Failures inside an iteration are logged and absorbed; only a bad interval
// stops the loop.
func (a *App) Run() error {
	interval, err := time.ParseDuration(a.cfg.Interval)
	if err != nil {
		return fmt.Errorf("parsing schedule.interval: %w", err)
	}
	for {
		now := time.Now()
		if inQuietHours(now.Hour(), a.cfg.QuietFrom, a.cfg.QuietTo) {
			logrus.Info("quiet hours, sleeping")
			time.Sleep(time.Hour)
			continue
		}
		logrus.Info("sync iteration started")
		a.service.RefreshAll()
		logrus.WithFields(logrus.Fields{"next_in": interval.String()}).Info("sync iteration complete")
		time.Sleep(interval)
	}
}

// inQuietHours reports whether hour falls in [from, to), with wraparound
// when the window crosses midnight. from == to disables the window.
func inQuietHours(hour, from, to int) bool {
	if from == to {
		return false
	}
	if from < to {
		return hour >= from && hour < to
	}
	return hour >= from || hour < to
}
