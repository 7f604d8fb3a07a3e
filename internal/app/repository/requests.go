package repository

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"exchangesync/internal/models"
)

const exchangeScoresQuery = `
SELECT
    e.id   AS exchange_id,
    e.name AS exchange_name,
    es.*
FROM
    exchange AS e
INNER JOIN
    exchange_score AS es
        ON e.id = es.exchange_id
ORDER BY
    exchange_name`

// Bug bounty entries are not certificates and are excluded at the source.
const exchangeCertificatesQuery = `
SELECT
    e.name AS exchange_name,
    e.id   AS exchange_id,
    c.*
FROM
    exchange AS e
INNER JOIN
    exchange_certificate AS ec
    ON e.id = ec.exchange_id
INNER JOIN
    certificate AS c
    ON ec.certificate_id = c.id
WHERE
    c.name <> 'BUG_BOUNTY'
ORDER BY
    c.active_until ASC`

type Requests struct {
	db *sql.DB
}

func NewRequests(db *sql.DB) *Requests {
	return &Requests{
		db: db,
	}
}

func (r *Requests) ExchangeScores() ([]models.Record, error) {
	return r.queryRecords(exchangeScoresQuery)
}

func (r *Requests) ExchangeCertificates() ([]models.Record, error) {
	return r.queryRecords(exchangeCertificatesQuery)
}

func (r *Requests) Ping() error {
	return r.db.Ping()
}

// queryRecords scans every row into a Record whose field order is the SELECT
// column order, so the API response preserves it.
func (r *Requests) queryRecords(query string) ([]models.Record, error) {
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := []models.Record{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		var record models.Record
		for i, col := range cols {
			record.Set(col, convertValue(values[i]))
		}
		results = append(results, record)
	}
	return results, rows.Err()
}

// convertValue maps a scanned database value to its sheet-friendly form:
// NULL becomes an empty string rather than JSON null, timestamps become ISO
// strings.
func convertValue(v any) models.Value {
	switch x := v.(type) {
	case nil:
		return models.StringValue("")
	case time.Time:
		return models.StringValue(x.Format(time.RFC3339))
	case bool:
		return models.BoolValue(x)
	case int64:
		return models.NumberValue(strconv.FormatInt(x, 10))
	case float64:
		return models.NumberValue(strconv.FormatFloat(x, 'f', -1, 64))
	case []byte:
		return models.StringValue(string(x))
	case string:
		return models.StringValue(x)
	default:
		return models.StringValue(fmt.Sprint(x))
	}
}
