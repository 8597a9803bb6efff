package postgres

import (
	"database/sql"
	"time"
)

type sourceTableModel struct {
	ID              int64        `db:"id"`
	Name            string       `db:"name"`
	Kind            string       `db:"kind"`
	Endpoint        string       `db:"endpoint"`
	Params          string       `db:"params"`
	Description     string       `db:"description"`
	Enabled         bool         `db:"enabled"`
	IntervalSeconds int          `db:"interval_seconds"`
	Status          string       `db:"status"`
	LastRunAt       sql.NullTime `db:"last_run_at"`
	NextRunAt       sql.NullTime `db:"next_run_at"`
	ErrorCount      int          `db:"error_count"`
	LastError       string       `db:"last_error"`
	CreatedAt       time.Time    `db:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at"`
}

type sourceInsertModel struct {
	Name            string     `db:"name"`
	Kind            string     `db:"kind"`
	Endpoint        string     `db:"endpoint"`
	Params          string     `db:"params"`
	Description     string     `db:"description"`
	Enabled         bool       `db:"enabled"`
	IntervalSeconds int        `db:"interval_seconds"`
	Status          string     `db:"status"`
	NextRunAt       *time.Time `db:"next_run_at"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

var sourceColumns = []string{
	"id", "name", "kind", "endpoint", "params::text AS params", "description", "enabled",
	"interval_seconds", "status", "last_run_at", "next_run_at", "error_count", "last_error",
	"created_at", "updated_at",
}
