// Package sqlite provides SQLite3 database utils for the switchd
// state and event files.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/packetplane/switchd/pkg/log"

	_ "github.com/mattn/go-sqlite3"
)

type Op struct {
	readOnly bool
	cache    string // cache mode for in-memory databases (e.g., "shared")
}

type OpOption func(*Op)

func (op *Op) applyOpts(opts []OpOption) {
	for _, opt := range opts {
		opt(op)
	}
}

func WithReadOnly(b bool) OpOption {
	return func(op *Op) {
		op.readOnly = b
	}
}

// WithCache sets the cache mode for in-memory databases. Use "shared"
// to let multiple connections see the same in-memory database.
func WithCache(mode string) OpOption {
	return func(op *Op) {
		op.cache = mode
	}
}

// Open opens a SQLite3 database in URI format with a busy timeout and
// WAL journaling.
func Open(file string, opts ...OpOption) (*sql.DB, error) {
	op := &Op{}
	op.applyOpts(opts)

	conns := "file:" + file
	conns += "?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL"
	if op.cache != "" {
		conns += "&cache=" + op.cache
	}

	if op.readOnly {
		conns += "&mode=ro"
	} else {
		conns += "&_txlock=immediate"
	}

	db, err := sql.Open("sqlite3", conns)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite3 database: %w (%q)", err, conns)
	}

	if !op.readOnly {
		// single connection for writing
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	}

	return db, nil
}

func ReadDBSize(ctx context.Context, db *sql.DB) (uint64, error) {
	var pageCount uint64
	err := db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	if err == sql.ErrNoRows {
		return 0, errors.New("no page count")
	}
	if err != nil {
		return 0, err
	}

	var pageSize uint64
	err = db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
	if err == sql.ErrNoRows {
		return 0, errors.New("no page size")
	}
	if err != nil {
		return 0, err
	}

	return pageCount * pageSize, nil
}

// Compact compacts the database by running the VACUUM command.
func Compact(ctx context.Context, db *sql.DB) error {
	log.Logger.Infow("compacting event database")
	_, err := db.ExecContext(ctx, "VACUUM;")
	if err != nil {
		return err
	}
	log.Logger.Infow("successfully compacted event database")
	return nil
}

// RunCompact compacts the database and prints the size before and
// after.
func RunCompact(ctx context.Context, dbFile string) error {
	dbRW, err := Open(dbFile)
	if err != nil {
		return fmt.Errorf("failed to open event file: %w", err)
	}
	defer dbRW.Close()

	dbRO, err := Open(dbFile, WithReadOnly(true))
	if err != nil {
		return fmt.Errorf("failed to open event file: %w", err)
	}
	defer dbRO.Close()

	dbSize, err := ReadDBSize(ctx, dbRO)
	if err != nil {
		return fmt.Errorf("failed to read event file size: %w", err)
	}
	log.Logger.Infow("event file size before compact", "size", humanize.Bytes(dbSize))

	if err := Compact(ctx, dbRW); err != nil {
		return fmt.Errorf("failed to compact event file: %w", err)
	}

	dbSize, err = ReadDBSize(ctx, dbRO)
	if err != nil {
		return fmt.Errorf("failed to read event file size: %w", err)
	}
	log.Logger.Infow("event file size after compact", "size", humanize.Bytes(dbSize))

	return nil
}
