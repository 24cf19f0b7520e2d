package db

import (
	"database/sql"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	_ "github.com/lib/pq"
)

// NewPostgresDB connects to a postgres primary for writes and a replica for reads
func NewPostgresDB(address common.Address, username, password, name, host, rhost string) (*DB, error) {
	connStr := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=5432 sslmode=disable", username, password, name, host)
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	rdb := db
	if rhost != "" && rhost != host {
		rconnStr := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=5432 sslmode=disable", username, password, name, rhost)
		rdb, err = sql.Open("postgres", rconnStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
	}

	d := newDB(address, db, rdb)
	d.tableExists = d.postgresTableExists

	err = d.ensureTables()
	if err != nil {
		return nil, err
	}

	return d, nil
}

// postgresTableExists checks if a table exists in the database
func (d *DB) postgresTableExists(tableName string) (bool, error) {
	var exists bool
	err := d.db.QueryRow(`
    SELECT EXISTS (
        SELECT 1
        FROM information_schema.tables
        WHERE table_schema = 'public'
        AND table_name = $1
    );
    `, tableName).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}
