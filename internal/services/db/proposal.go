package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
)

type ProposalDB struct {
	suffix string
	db     *sql.DB
	rdb    *sql.DB
}

func NewProposalDB(db, rdb *sql.DB, name string) *ProposalDB {
	return &ProposalDB{
		suffix: name,
		db:     db,
		rdb:    rdb,
	}
}

// CreateProposalsTable creates a table to store proposals, the action arrays are json encoded
func (db *ProposalDB) CreateProposalsTable() error {
	_, err := db.db.Exec(fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS t_proposals_%s(
		id integer NOT NULL PRIMARY KEY,
		proposer text NOT NULL,
		targets text NOT NULL,
		valuez text NOT NULL,
		signatures text NOT NULL,
		calldatas text NOT NULL,
		description text NOT NULL,
		created_at text NOT NULL,
		for_votes text NOT NULL,
		against_votes text NOT NULL,
		executed boolean NOT NULL DEFAULT false
	);
	`, db.suffix))

	return err
}

// CreateProposalsTableIndexes creates the indexes for proposals
func (db *ProposalDB) CreateProposalsTableIndexes() error {
	_, err := db.db.Exec(fmt.Sprintf(`
	CREATE INDEX IF NOT EXISTS idx_proposals_%s_proposer ON t_proposals_%s (proposer);
	`, db.suffix, db.suffix))

	return err
}

func (db *ProposalDB) AddProposal(ctx context.Context, tx execer, p *dao.Proposal) error {
	targets, err := json.Marshal(p.Targets)
	if err != nil {
		return err
	}

	values, err := json.Marshal(p.Values)
	if err != nil {
		return err
	}

	signatures, err := json.Marshal(p.Signatures)
	if err != nil {
		return err
	}

	calldatas, err := json.Marshal(p.Calldatas)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
	INSERT INTO t_proposals_%s (id, proposer, targets, valuez, signatures, calldatas, description, created_at, for_votes, against_votes, executed)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, db.suffix), p.ID, p.Proposer.Hex(), string(targets), string(values), string(signatures), string(calldatas), p.Description, dbTime(p.CreatedAt), p.ForVotes.String(), p.AgainstVotes.String(), p.Executed)

	return err
}

// UpdateProposal writes the mutable columns of a proposal
func (db *ProposalDB) UpdateProposal(ctx context.Context, tx execer, p *dao.Proposal) error {
	res, err := tx.ExecContext(ctx, fmt.Sprintf(`
	UPDATE t_proposals_%s SET for_votes = $1, against_votes = $2, executed = $3
	WHERE id = $4
	`, db.suffix), p.ForVotes.String(), p.AgainstVotes.String(), p.Executed, p.ID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if n != 1 {
		return fmt.Errorf("%w: %d", dao.ErrUnknownProposal, p.ID)
	}

	return nil
}

// GetProposals returns every stored proposal by ascending id
func (db *ProposalDB) GetProposals(ctx context.Context) ([]*dao.Proposal, error) {
	rows, err := db.rdb.QueryContext(ctx, fmt.Sprintf(`
	SELECT id, proposer, targets, valuez, signatures, calldatas, description, created_at, for_votes, against_votes, executed
	FROM t_proposals_%s
	ORDER BY id ASC
	`, db.suffix))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	proposals := []*dao.Proposal{}
	for rows.Next() {
		var p dao.Proposal
		var proposer, targets, values, signatures, calldatas, forVotes, againstVotes string
		var createdAt dbTime

		err = rows.Scan(&p.ID, &proposer, &targets, &values, &signatures, &calldatas, &p.Description, &createdAt, &forVotes, &againstVotes, &p.Executed)
		if err != nil {
			return nil, err
		}

		p.Proposer = common.HexToAddress(proposer)
		p.CreatedAt = createdAt.Time()

		for _, col := range []struct {
			raw string
			dst any
		}{
			{targets, &p.Targets},
			{values, &p.Values},
			{signatures, &p.Signatures},
			{calldatas, &p.Calldatas},
		} {
			err = json.Unmarshal([]byte(col.raw), col.dst)
			if err != nil {
				return nil, fmt.Errorf("proposal %d: %w", p.ID, err)
			}
		}

		p.ForVotes, err = parseBig(forVotes)
		if err != nil {
			return nil, err
		}

		p.AgainstVotes, err = parseBig(againstVotes)
		if err != nil {
			return nil, err
		}

		proposals = append(proposals, &p)
	}

	return proposals, rows.Err()
}
