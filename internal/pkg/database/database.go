// Package database opens the PostgreSQL connection behind the session journal.
package database

import (
	"fmt"
	"os"
	"time"

	"engage-track/tools"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const (
	pgHostEnvName = "ENGAGE_TRACK__PG_HOST"
	pgPortEnvName = "ENGAGE_TRACK__PG_PORT"

	// pgDbEnvName is the env variable key for the PostgreSQL database name.
	// The journal is enabled only when it is set.
	pgDbEnvName = "ENGAGE_TRACK__PG_NAME"

	// pgDbUserName is the env variable key for the PostgreSQL database username.
	pgDbUserName = "ENGAGE_TRACK__PG_USER"

	// pgPassEnvName is the env variable key for the PostgreSQL database password.
	pgPassEnvName = "ENGAGE_TRACK__PG_PASS"

	maxIdleConns    = 10
	connMaxIdleTime = 5 * time.Minute
)

// Enabled reports whether a journal database is configured.
func Enabled() bool {
	return os.Getenv(pgDbEnvName) != ""
}

// FromEnv connects to the journal database named by the ENGAGE_TRACK__PG_* variables.
// A missing variable is fatal.
func FromEnv() (db *sqlx.DB, err error) {
	tools.CheckEnvs(pgDbEnvName, pgDbUserName, pgPassEnvName)

	return GetDatabase(os.Getenv(pgDbEnvName), os.Getenv(pgDbUserName), os.Getenv(pgPassEnvName))
}

// GetDatabase connects to dbName on the host and port from the environment.
func GetDatabase(dbName, user, password string) (db *sqlx.DB, err error) {

	tools.CheckEnvs(pgHostEnvName, pgPortEnvName)

	db, err = sqlx.Connect("postgres", connString(os.Getenv(pgHostEnvName), os.Getenv(pgPortEnvName), dbName, user, password))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database %s: %w", dbName, err)
	}

	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	return db, nil
}

func connString(host, port, dbName, user, password string) string {
	return fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=disable",
		host, port, dbName, user, password)
}
