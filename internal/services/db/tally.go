package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/wehave/market/pkg/market"
)

type TallyDB struct {
	p *DB
}

func (tdb *TallyDB) name() string {
	return tdb.p.tableName("tallies")
}

func (tdb *TallyDB) Create() error {
	_, err := tdb.p.db.Exec(fmt.Sprintf(`
	CREATE TABLE %s(
		dao text NOT NULL,
		proposal_index bigint NOT NULL,
		item_index bigint NOT NULL,
		question text NOT NULL,
		options text ARRAY NOT NULL,
		percentages numeric ARRAY NOT NULL,
		voters integer NOT NULL,
		ballots jsonb NOT NULL DEFAULT '{}',
		updated_at timestamp NOT NULL,
		UNIQUE (dao, proposal_index)
	);
	`, tdb.name()))

	return err
}

func (tdb *TallyDB) drop() error {
	_, err := tdb.p.db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s;`, tdb.name()))
	return err
}

func (tdb *TallyDB) ensureExists() error {
	exists, err := tdb.p.checkTableExists(tdb.name())
	if err != nil {
		return err
	}

	if !exists {
		return tdb.Create()
	}

	_, err = tdb.p.db.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS ballots jsonb NOT NULL DEFAULT '{}'`, tdb.name()))
	return err
}

// Save replaces the snapshot with tallies. The user vote is session state and
// is not stored, the ballots it is derived from are.
func (tdb *TallyDB) Save(ctx context.Context, tallies []*market.ProposalTally) error {
	tx, err := tdb.p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, tdb.name()))
	if err != nil {
		return err
	}

	for _, t := range tallies {
		pcts := make([]string, len(t.Percentages))
		for i, p := range t.Percentages {
			pcts[i] = p.String()
		}

		ballots := t.Ballots
		if ballots == nil {
			ballots = map[string]int{}
		}

		b, err := json.Marshal(ballots)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (dao, proposal_index, item_index, question, options, percentages, voters, ballots, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, tdb.name()), t.DAO, t.ProposalIndex, t.ItemIndex, t.Question, pq.Array(t.Options), pq.Array(pcts), t.Voters, string(b), t.UpdatedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (tdb *TallyDB) All(ctx context.Context) ([]*market.ProposalTally, error) {
	tallies := []*market.ProposalTally{}

	rows, err := tdb.p.rdb.QueryContext(ctx, fmt.Sprintf(`
		SELECT dao, proposal_index, item_index, question, options, percentages::text[], voters, ballots::text, updated_at
		FROM %s
		ORDER BY item_index ASC, proposal_index ASC
		`, tdb.name()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var t market.ProposalTally
		var pcts []string
		var ballots string

		err := rows.Scan(&t.DAO, &t.ProposalIndex, &t.ItemIndex, &t.Question, pq.Array(&t.Options), pq.Array(&pcts), &t.Voters, &ballots, &t.UpdatedAt)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal([]byte(ballots), &t.Ballots); err != nil {
			return nil, err
		}

		t.Percentages = make([]decimal.Decimal, len(pcts))
		for i, p := range pcts {
			t.Percentages[i], err = decimal.NewFromString(p)
			if err != nil {
				return nil, err
			}
		}

		tallies = append(tallies, &t)
	}

	return tallies, rows.Err()
}
