package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
)

type ReceiptDB struct {
	suffix string
	db     *sql.DB
	rdb    *sql.DB
}

func NewReceiptDB(db, rdb *sql.DB, name string) *ReceiptDB {
	return &ReceiptDB{
		suffix: name,
		db:     db,
		rdb:    rdb,
	}
}

// CreateReceiptsTable creates a table to store ballots, one per proposal and voter
func (db *ReceiptDB) CreateReceiptsTable() error {
	_, err := db.db.Exec(fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS t_receipts_%s(
		proposal_id integer NOT NULL,
		voter text NOT NULL,
		support boolean NOT NULL,
		votes text NOT NULL,
		created_at text NOT NULL,
		UNIQUE (proposal_id, voter)
	);
	`, db.suffix))

	return err
}

func (db *ReceiptDB) AddReceipt(ctx context.Context, tx execer, id uint64, voter common.Address, r dao.Receipt) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf(`
	INSERT INTO t_receipts_%s (proposal_id, voter, support, votes, created_at)
	VALUES ($1, $2, $3, $4, $5)
	`, db.suffix), id, voter.Hex(), r.Support, r.Votes.String(), now())

	return err
}

// GetReceipts returns every ballot grouped by proposal
func (db *ReceiptDB) GetReceipts(ctx context.Context) (map[uint64]map[common.Address]dao.Receipt, error) {
	rows, err := db.rdb.QueryContext(ctx, fmt.Sprintf(`
	SELECT proposal_id, voter, support, votes
	FROM t_receipts_%s
	`, db.suffix))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	receipts := map[uint64]map[common.Address]dao.Receipt{}
	for rows.Next() {
		var id uint64
		var voter, votes string
		r := dao.Receipt{HasVoted: true}

		err = rows.Scan(&id, &voter, &r.Support, &votes)
		if err != nil {
			return nil, err
		}

		r.Votes, err = parseBig(votes)
		if err != nil {
			return nil, err
		}

		if receipts[id] == nil {
			receipts[id] = map[common.Address]dao.Receipt{}
		}
		receipts[id][common.HexToAddress(voter)] = r
	}

	return receipts, rows.Err()
}
