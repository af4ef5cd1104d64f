package db

import (
	"context"
	"fmt"
	"time"

	"github.com/wehave/market/internal/common"
	"github.com/wehave/market/pkg/market"
)

type PushTokenDB struct {
	p *DB
}

func (db *PushTokenDB) name() string {
	return db.p.tableName("push_token")
}

// CreatePushTable creates a table to store push tokens in the given db
func (db *PushTokenDB) CreatePushTable() error {
	_, err := db.p.db.Exec(fmt.Sprintf(`
	CREATE TABLE %s(
		token TEXT NOT NULL PRIMARY KEY,
		account text NOT NULL,
		created_at timestamp NOT NULL,
		updated_at timestamp NOT NULL,
		UNIQUE (token, account)
	);
	`, db.name()))

	return err
}

// CreatePushTableIndexes creates the indexes for push in the given db
func (db *PushTokenDB) CreatePushTableIndexes() error {
	suffix := common.ShortenName(db.p.suffix, 6)

	// fetch tokens for an account
	_, err := db.p.db.Exec(fmt.Sprintf(`
	CREATE INDEX idx_push_%s_account ON %s (account);
	`, suffix, db.name()))

	return err
}

func (db *PushTokenDB) drop() error {
	_, err := db.p.db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s;`, db.name()))
	return err
}

func (db *PushTokenDB) ensureExists() error {
	exists, err := db.p.checkTableExists(db.name())
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	if err := db.CreatePushTable(); err != nil {
		return err
	}

	return db.CreatePushTableIndexes()
}

// AddToken adds a token to the db, a token moved to another account follows it
func (db *PushTokenDB) AddToken(ctx context.Context, p *market.PushToken) error {
	now := time.Now().UTC()

	_, err := db.p.db.ExecContext(ctx, fmt.Sprintf(`
	INSERT INTO %s (token, account, created_at, updated_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT(token) DO UPDATE SET
		account = excluded.account,
		updated_at = excluded.updated_at
	`, db.name()), p.Token, p.Account, now, now)

	return err
}

// GetTokens returns every registered push token
func (db *PushTokenDB) GetTokens(ctx context.Context) ([]*market.PushToken, error) {
	pt := []*market.PushToken{}

	rows, err := db.p.rdb.QueryContext(ctx, fmt.Sprintf(`
		SELECT token, account, created_at, updated_at
		FROM %s
		ORDER BY created_at ASC
		`, db.name()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p market.PushToken

		err := rows.Scan(&p.Token, &p.Account, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}

		pt = append(pt, &p)
	}

	return pt, rows.Err()
}

// RemoveAccountPushToken removes a push token for a given account from the db
func (db *PushTokenDB) RemoveAccountPushToken(ctx context.Context, token, account string) error {
	_, err := db.p.db.ExecContext(ctx, fmt.Sprintf(`
	DELETE FROM %s WHERE token = $1 AND account = $2
	`, db.name()), token, account)

	return err
}

// RemovePushToken removes a push token from the db
func (db *PushTokenDB) RemovePushToken(ctx context.Context, token string) error {
	_, err := db.p.db.ExecContext(ctx, fmt.Sprintf(`
	DELETE FROM %s WHERE token = $1
	`, db.name()), token)

	return err
}
