package models

// RefreshResult is returned to callers of a refresh operation.
type RefreshResult struct {
	Success       bool    `json:"success"`
	DataType      string  `json:"dataType"`
	RowsUpdated   int     `json:"rowsUpdated"`
	ExecutionTime float64 `json:"executionTime"` // seconds
}

// Health mirrors the API health endpoint body.
type Health struct {
	Status        string `json:"status"`
	Timestamp     string `json:"timestamp"`
	Database      string `json:"database"`
	APIVersion    string `json:"api_version"`
	SecretManager bool   `json:"secret_manager"`
}
