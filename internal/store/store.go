// Package store implements the sales storage on SQLite through sqlx.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"api_pos/internal/sales"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DB is the transactional store. Every unit of work runs in its own sqlx.Tx
// bounded by txTimeout.
type DB struct {
	db        *sqlx.DB
	txTimeout time.Duration
}

// Open connects to the SQLite database behind dsn.
func Open(dsn string, txTimeout time.Duration) (*DB, error) {
	db, err := sqlx.Connect("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY between our own transactions.
	db.SetMaxOpenConns(1)
	return &DB{db: db, txTimeout: txTimeout}, nil
}

// Close closes the underlying pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks the connection.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// WithinTx implements sales.Storage.
func (d *DB) WithinTx(ctx context.Context, fn func(ctx context.Context, tx sales.Tx) error) (err error) {
	if d.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.txTimeout)
		defer cancel()
	}

	t, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = t.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, &tx{tx: t}); err != nil {
		if rbErr := t.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := t.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

type tx struct {
	tx *sqlx.Tx
}

func (t *tx) Catalog() sales.Catalog          { return catalog{t.tx} }
func (t *tx) Stock() sales.StockLedger        { return stockLedger{t.tx} }
func (t *tx) Sales() sales.SaleRepository     { return saleRepo{t.tx} }
func (t *tx) Credits() sales.CreditRepository { return creditRepo{t.tx} }
func (t *tx) Ledger() sales.CompanyLedger     { return companyLedger{t.tx} }
func (t *tx) Visits() sales.VisitLinker       { return visitLinker{t.tx} }

// notFound maps sql.ErrNoRows onto the domain error.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sales.ErrNotFound
	}
	return err
}

func withPragmas(dsn string) string {
	pragmas := []string{}
	if !strings.Contains(dsn, "foreign_keys") {
		pragmas = append(pragmas, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "busy_timeout") {
		pragmas = append(pragmas, "_pragma=busy_timeout(5000)")
	}
	if len(pragmas) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(pragmas, "&")
}
