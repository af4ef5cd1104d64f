package db

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/lib/pq"
	"github.com/wehave/market/pkg/market"
)

var suffixPattern = regexp.MustCompile(`[^a-z0-9_]`)

// DB stores marketplace snapshots and push tokens in postgres, one set of
// tables per network.
type DB struct {
	suffix string
	db     *sql.DB
	rdb    *sql.DB

	CrowdfundDB *CrowdfundDB
	TallyDB     *TallyDB
	PushTokenDB *PushTokenDB

	testing bool
}

// NewDBConnection opens the writer and reader connections.
func NewDBConnection(username, password, name, host, rhost string) (*sql.DB, *sql.DB, error) {
	connStr := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=5432 sslmode=disable", username, password, name, host)
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if rhost == "" || rhost == host {
		return db, db, nil
	}

	rconnStr := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=5432 sslmode=disable", username, password, name, rhost)
	rdb, err := sql.Open("postgres", rconnStr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to reader database: %w", err)
	}

	err = rdb.Ping()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to ping reader database: %w", err)
	}

	return db, rdb, nil
}

// TableNameSuffix turns a network id into something usable in a table name.
func TableNameSuffix(network string) string {
	return suffixPattern.ReplaceAllString(strings.ToLower(network), "_")
}

func NewDB(network, username, password, name, host, rhost string) (*DB, error) {
	db, rdb, err := NewDBConnection(username, password, name, host, rhost)
	if err != nil {
		return nil, err
	}

	d := &DB{
		suffix: TableNameSuffix(network),
		db:     db,
		rdb:    rdb,
	}
	d.CrowdfundDB = &CrowdfundDB{p: d}
	d.TallyDB = &TallyDB{p: d}
	d.PushTokenDB = &PushTokenDB{p: d}

	if err = d.CrowdfundDB.ensureExists(); err != nil {
		return nil, err
	}

	if err = d.TallyDB.ensureExists(); err != nil {
		return nil, err
	}

	if err = d.PushTokenDB.ensureExists(); err != nil {
		return nil, err
	}

	return d, nil
}

// SetTesting makes Close drop the tables.
func (d *DB) SetTesting() {
	d.testing = true
}

func (d *DB) Close() error {
	if d.testing {
		d.CrowdfundDB.drop()
		d.TallyDB.drop()
		d.PushTokenDB.drop()
	}

	if d.rdb != d.db {
		d.rdb.Close()
	}

	return d.db.Close()
}

func (d *DB) tableName(name string) string {
	return fmt.Sprintf("t_%s_%s", name, d.suffix)
}

func (d *DB) checkTableExists(tname string) (bool, error) {
	var exists bool
	err := d.db.QueryRow(`
    SELECT EXISTS (
        SELECT 1
        FROM information_schema.tables
        WHERE table_schema = 'public'
        AND table_name = $1
    );
    `, tname).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (d *DB) SaveCrowdfunds(ctx context.Context, cfs []*market.Crowdfund) error {
	return d.CrowdfundDB.Save(ctx, cfs)
}

func (d *DB) Crowdfunds(ctx context.Context) ([]*market.Crowdfund, error) {
	return d.CrowdfundDB.All(ctx)
}

func (d *DB) SaveTallies(ctx context.Context, tallies []*market.ProposalTally) error {
	return d.TallyDB.Save(ctx, tallies)
}

func (d *DB) Tallies(ctx context.Context) ([]*market.ProposalTally, error) {
	return d.TallyDB.All(ctx)
}

func (d *DB) AddToken(ctx context.Context, p *market.PushToken) error {
	return d.PushTokenDB.AddToken(ctx, p)
}

func (d *DB) RemoveAccountToken(ctx context.Context, token, account string) error {
	return d.PushTokenDB.RemoveAccountPushToken(ctx, token, account)
}

func (d *DB) RemoveToken(ctx context.Context, token string) error {
	return d.PushTokenDB.RemovePushToken(ctx, token)
}

func (d *DB) Tokens(ctx context.Context) ([]*market.PushToken, error) {
	return d.PushTokenDB.GetTokens(ctx)
}
