package db

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
)

type TreasuryDB struct {
	suffix string
	db     *sql.DB
	rdb    *sql.DB
}

func NewTreasuryDB(db, rdb *sql.DB, name string) *TreasuryDB {
	return &TreasuryDB{
		suffix: name,
		db:     db,
		rdb:    rdb,
	}
}

// CreateTreasuryTable creates a single row table holding the funding balance
func (db *TreasuryDB) CreateTreasuryTable() error {
	_, err := db.db.Exec(fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS t_treasury_%s(
		id integer NOT NULL PRIMARY KEY,
		balance text NOT NULL,
		updated_at text NOT NULL
	);
	`, db.suffix))

	return err
}

func (db *TreasuryDB) SetBalance(ctx context.Context, tx execer, balance *big.Int) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf(`
	INSERT INTO t_treasury_%s (id, balance, updated_at)
	VALUES (1, $1, $2)
	ON CONFLICT (id) DO UPDATE SET
		balance = excluded.balance,
		updated_at = excluded.updated_at
	`, db.suffix), balance.String(), now())

	return err
}

// GetBalance returns the stored balance, zero if none was stored yet
func (db *TreasuryDB) GetBalance(ctx context.Context) (*big.Int, error) {
	var balance string

	err := db.rdb.QueryRowContext(ctx, fmt.Sprintf(`
	SELECT balance FROM t_treasury_%s WHERE id = 1
	`, db.suffix)).Scan(&balance)
	if err == sql.ErrNoRows {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, err
	}

	return parseBig(balance)
}
