// Package repository is the API server's read-only view of the exchange
// database. It serves the two datasets the API exposes, converted to ordered
// records in SELECT column order.
package repository

import (
	"database/sql"

	"exchangesync/internal/models"
)

type Database interface {
	ExchangeScores() ([]models.Record, error)
	ExchangeCertificates() ([]models.Record, error)
	Ping() error
}

type Repository struct {
	Database
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Database: NewRequests(db),
	}
}
