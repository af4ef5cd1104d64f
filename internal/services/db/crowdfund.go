package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/wehave/market/pkg/market"
)

type CrowdfundDB struct {
	p *DB
}

func (cdb *CrowdfundDB) name() string {
	return cdb.p.tableName("crowdfunds")
}

func (cdb *CrowdfundDB) Create() error {
	_, err := cdb.p.db.Exec(fmt.Sprintf(`
	CREATE TABLE %s(
		idx bigint NOT NULL PRIMARY KEY,
		title text NOT NULL,
		metadata text NOT NULL,
		goal numeric(39, 0) NOT NULL,
		progress numeric(39, 0),
		fee_percentage double precision,
		updated_at timestamp NOT NULL
	);
	`, cdb.name()))

	return err
}

func (cdb *CrowdfundDB) drop() error {
	_, err := cdb.p.db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s;`, cdb.name()))
	return err
}

func (cdb *CrowdfundDB) ensureExists() error {
	exists, err := cdb.p.checkTableExists(cdb.name())
	if err != nil {
		return err
	}

	if !exists {
		return cdb.Create()
	}

	return nil
}

// Save replaces the snapshot with cfs in one transaction.
func (cdb *CrowdfundDB) Save(ctx context.Context, cfs []*market.Crowdfund) error {
	tx, err := cdb.p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, cdb.name()))
	if err != nil {
		return err
	}

	for _, cf := range cfs {
		meta, err := json.Marshal(cf.Metadata)
		if err != nil {
			return err
		}

		var progress sql.NullString
		if cf.Progress != nil {
			progress = sql.NullString{String: cf.Progress.String(), Valid: true}
		}

		var fee sql.NullFloat64
		if cf.FeePercentage != nil {
			fee = sql.NullFloat64{Float64: *cf.FeePercentage, Valid: true}
		}

		_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (idx, title, metadata, goal, progress, fee_percentage, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, cdb.name()), cf.Index, cf.Metadata.Title, string(meta), cf.Goal.String(), progress, fee, cf.UpdatedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (cdb *CrowdfundDB) All(ctx context.Context) ([]*market.Crowdfund, error) {
	cfs := []*market.Crowdfund{}

	rows, err := cdb.p.rdb.QueryContext(ctx, fmt.Sprintf(`
		SELECT idx, metadata, goal::text, progress::text, fee_percentage, updated_at
		FROM %s
		ORDER BY idx ASC
		`, cdb.name()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var cf market.Crowdfund
		var meta, goal string
		var progress sql.NullString
		var fee sql.NullFloat64

		err := rows.Scan(&cf.Index, &meta, &goal, &progress, &fee, &cf.UpdatedAt)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal([]byte(meta), &cf.Metadata); err != nil {
			return nil, err
		}

		cf.Goal, err = market.ParseAmount(goal)
		if err != nil {
			return nil, err
		}

		if progress.Valid {
			p, err := market.ParseAmount(progress.String)
			if err != nil {
				return nil, err
			}
			cf.Progress = &p
		}

		if fee.Valid {
			f := fee.Float64
			cf.FeePercentage = &f
		}

		cfs = append(cfs, &cf)
	}

	return cfs, rows.Err()
}
