// Package service ties the fetcher and the sheet writer into the refresh
// operations callers see: a propagating Refresh, a boolean TriggerRefresh
// for callers that must never see a panic or error, and the scheduled
// RefreshAll that only logs.
package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"exchangesync/config"
	"exchangesync/internal/app/secrets"
	"exchangesync/internal/models"
)

type Fetcher interface {
	Fetch(endpoint, apiKey string, maxAttempts int) ([]models.Record, error)
	CheckHealth(url string) (*models.Health, error)
}

type SheetWriter interface {
	Write(records []models.Record, sheet string) (int, error)
}

type Service struct {
	fetcher Fetcher
	writer  SheetWriter
	cfg     *config.Config
	apiKey  string
}

func NewService(f Fetcher, w SheetWriter, cfg *config.Config, apiKey string) *Service {
	return &Service{fetcher: f, writer: w, cfg: cfg, apiKey: apiKey}
}

// Refresh syncs one data type end to end and propagates any failure, so
// programmatic callers observe it. Zero records is a hard failure: an empty
// dataset would blank the sheet for no reason.
func (s *Service) Refresh(dataType string) (*models.RefreshResult, error) {
	target, ok := s.cfg.Target(dataType)
	if !ok {
		return nil, fmt.Errorf("unknown data type %q", dataType)
	}
	start := time.Now()
	log := logrus.WithFields(logrus.Fields{
		"data_type": dataType,
		"sheet":     target.Sheet,
		"api_key":   secrets.Preview(s.apiKey),
	})
	log.Info("refresh started")

	records, err := s.fetcher.Fetch(s.endpoint(target.Path), s.apiKey, s.cfg.MaxAttempts)
	if err != nil {
		log.Errorf("refresh failed: %v", err)
		return nil, err
	}
	if len(records) == 0 {
		err := fmt.Errorf("no data received for %s", dataType)
		log.Error(err)
		return nil, err
	}

	rows, err := s.writer.Write(records, target.Sheet)
	if err != nil {
		log.Errorf("refresh failed: %v", err)
		return nil, err
	}

	result := &models.RefreshResult{
		Success:       true,
		DataType:      dataType,
		RowsUpdated:   rows - 1, // header row excluded
		ExecutionTime: time.Since(start).Seconds(),
	}
	log.WithFields(logrus.Fields{
		"rows_updated":   result.RowsUpdated,
		"execution_time": result.ExecutionTime,
	}).Info("refresh complete")
	return result, nil
}

// TriggerRefresh is the non-throwing wrapper: every failure becomes false.
func (s *Service) TriggerRefresh(dataType string) bool {
	_, err := s.Refresh(dataType)
	return err == nil
}

// RefreshAll runs every configured target, absorbing and logging per-target
// failures. One broken endpoint must not stop the others from syncing.
func (s *Service) RefreshAll() {
	for _, target := range s.cfg.Targets {
		if _, err := s.Refresh(target.Name); err != nil {
			logrus.WithFields(logrus.Fields{"data_type": target.Name}).
				Errorf("scheduled refresh failed: %v", err)
		}
	}
}

// Health probes the API's health endpoint.
func (s *Service) Health() (*models.Health, error) {
	return s.fetcher.CheckHealth(s.endpoint("/health"))
}

func (s *Service) endpoint(path string) string {
	return strings.TrimRight(s.cfg.BaseURL, "/") + path
}
