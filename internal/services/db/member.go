package db

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"

	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
)

type MemberDB struct {
	suffix string
	db     *sql.DB
	rdb    *sql.DB
}

func NewMemberDB(db, rdb *sql.DB, name string) *MemberDB {
	return &MemberDB{
		suffix: name,
		db:     db,
		rdb:    rdb,
	}
}

// CreateMembersTable creates a table to store the members of a dao
func (db *MemberDB) CreateMembersTable() error {
	_, err := db.db.Exec(fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS t_members_%s(
		address text NOT NULL PRIMARY KEY,
		joined boolean NOT NULL,
		balance text NOT NULL,
		delegate text NOT NULL,
		created_at text NOT NULL,
		updated_at text NOT NULL
	);
	`, db.suffix))

	return err
}

// CreateMembersTableIndexes creates the indexes for members
func (db *MemberDB) CreateMembersTableIndexes() error {
	_, err := db.db.Exec(fmt.Sprintf(`
	CREATE INDEX IF NOT EXISTS idx_members_%s_delegate ON t_members_%s (delegate);
	`, db.suffix, db.suffix))

	return err
}

// UpsertMember writes the current view of a member
func (db *MemberDB) UpsertMember(ctx context.Context, tx execer, m dao.Member) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf(`
	INSERT INTO t_members_%s (address, joined, balance, delegate, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $5)
	ON CONFLICT (address) DO UPDATE SET
		joined = excluded.joined,
		balance = excluded.balance,
		delegate = excluded.delegate,
		updated_at = excluded.updated_at
	`, db.suffix), m.Address.Hex(), m.Joined, m.Balance.String(), m.Delegate.Hex(), now())

	return err
}

// GetMembers returns every stored member
func (db *MemberDB) GetMembers(ctx context.Context) ([]dao.Member, error) {
	rows, err := db.rdb.QueryContext(ctx, fmt.Sprintf(`
	SELECT address, joined, balance, delegate
	FROM t_members_%s
	ORDER BY created_at ASC, address ASC
	`, db.suffix))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []dao.Member{}
	for rows.Next() {
		var addr, balance, delegate string
		var m dao.Member

		err = rows.Scan(&addr, &m.Joined, &balance, &delegate)
		if err != nil {
			return nil, err
		}

		m.Address = common.HexToAddress(addr)
		m.Delegate = common.HexToAddress(delegate)

		m.Balance, err = parseBig(balance)
		if err != nil {
			return nil, err
		}

		members = append(members, m)
	}

	return members, rows.Err()
}

func parseBig(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid stored amount %q", s)
	}

	return n, nil
}
