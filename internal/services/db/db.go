package db

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/citizenwallet/dao/internal/storage"
	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
	_ "github.com/mattn/go-sqlite3"
)

const (
	dbBaseFolder   = "data"
	dbConfigString = "cache=private&_journal=WAL&mode=rwc&_txlock=immediate&_busy_timeout=10000"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type DB struct {
	suffix string
	mu     sync.Mutex
	db     *sql.DB
	rdb    *sql.DB

	tableExists func(name string) (bool, error)

	MemberDB   *MemberDB
	ProposalDB *ProposalDB
	ReceiptDB  *ReceiptDB
	TreasuryDB *TreasuryDB
}

// NewDB opens the sqlite database of the dao at address, creating it under basePath if needed
func NewDB(address common.Address, basePath string) (*DB, error) {
	folderPath := fmt.Sprintf("%s/%s", basePath, dbBaseFolder)
	path := fmt.Sprintf("%s/dao.db", folderPath)

	err := storage.EnsureDir(folderPath)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", path, dbConfigString))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(1)

	d := newDB(address, db, db)
	d.tableExists = d.sqliteTableExists

	err = d.ensureTables()
	if err != nil {
		return nil, err
	}

	return d, nil
}

func newDB(address common.Address, db, rdb *sql.DB) *DB {
	suffix := TableNameSuffix(address)

	return &DB{
		suffix:     suffix,
		db:         db,
		rdb:        rdb,
		MemberDB:   NewMemberDB(db, rdb, suffix),
		ProposalDB: NewProposalDB(db, rdb, suffix),
		ReceiptDB:  NewReceiptDB(db, rdb, suffix),
		TreasuryDB: NewTreasuryDB(db, rdb, suffix),
	}
}

// TableNameSuffix returns the suffix of every table belonging to the dao at address
func TableNameSuffix(address common.Address) string {
	return strings.ToLower(strings.TrimPrefix(address.Hex(), "0x"))
}

func (d *DB) ensureTables() error {
	tables := []struct {
		prefix  string
		create  func() error
		indexes func() error
	}{
		{"t_members", d.MemberDB.CreateMembersTable, d.MemberDB.CreateMembersTableIndexes},
		{"t_proposals", d.ProposalDB.CreateProposalsTable, d.ProposalDB.CreateProposalsTableIndexes},
		{"t_receipts", d.ReceiptDB.CreateReceiptsTable, nil},
		{"t_treasury", d.TreasuryDB.CreateTreasuryTable, nil},
	}

	for _, t := range tables {
		exists, err := d.tableExists(fmt.Sprintf("%s_%s", t.prefix, d.suffix))
		if err != nil {
			return err
		}

		if exists {
			continue
		}

		err = t.create()
		if err != nil {
			return fmt.Errorf("creating %s: %w", t.prefix, err)
		}

		if t.indexes != nil {
			err = t.indexes()
			if err != nil {
				return fmt.Errorf("indexing %s: %w", t.prefix, err)
			}
		}
	}

	return nil
}

// sqliteTableExists checks if a table exists in the database
func (d *DB) sqliteTableExists(tableName string) (bool, error) {
	row := d.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", tableName)
	var name string
	err := row.Scan(&name)
	if err != nil {
		if err == sql.ErrNoRows {
			// Table does not exist
			return false, nil
		} else {
			// A database error occurred
			return false, err
		}
	}

	return true, nil
}

// write runs f in a single transaction
func (d *DB) write(ctx context.Context, f func(tx *sql.Tx) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	err = f(tx)
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// RecordMember stores a member and the treasury balance its payment changed
func (d *DB) RecordMember(ctx context.Context, m dao.Member, treasury *big.Int) error {
	return d.write(ctx, func(tx *sql.Tx) error {
		err := d.MemberDB.UpsertMember(ctx, tx, m)
		if err != nil {
			return err
		}

		return d.TreasuryDB.SetBalance(ctx, tx, treasury)
	})
}

func (d *DB) RecordProposal(ctx context.Context, p *dao.Proposal) error {
	return d.write(ctx, func(tx *sql.Tx) error {
		return d.ProposalDB.AddProposal(ctx, tx, p)
	})
}

// RecordVote stores a ballot together with the tally it changed
func (d *DB) RecordVote(ctx context.Context, p *dao.Proposal, voter common.Address, r dao.Receipt) error {
	return d.write(ctx, func(tx *sql.Tx) error {
		err := d.ReceiptDB.AddReceipt(ctx, tx, p.ID, voter, r)
		if err != nil {
			return err
		}

		return d.ProposalDB.UpdateProposal(ctx, tx, p)
	})
}

func (d *DB) RecordExecution(ctx context.Context, p *dao.Proposal, treasury *big.Int) error {
	return d.write(ctx, func(tx *sql.Tx) error {
		err := d.ProposalDB.UpdateProposal(ctx, tx, p)
		if err != nil {
			return err
		}

		return d.TreasuryDB.SetBalance(ctx, tx, treasury)
	})
}

// Load reads back everything that was recorded
func (d *DB) Load(ctx context.Context) (*dao.Snapshot, error) {
	members, err := d.MemberDB.GetMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading members: %w", err)
	}

	proposals, err := d.ProposalDB.GetProposals(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading proposals: %w", err)
	}

	receipts, err := d.ReceiptDB.GetReceipts(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading receipts: %w", err)
	}

	treasury, err := d.TreasuryDB.GetBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading treasury: %w", err)
	}

	return &dao.Snapshot{
		Members:   members,
		Proposals: proposals,
		Receipts:  receipts,
		Treasury:  treasury,
	}, nil
}

// Close closes the db
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.rdb != d.db {
		err := d.rdb.Close()
		if err != nil {
			return err
		}
	}

	return d.db.Close()
}
