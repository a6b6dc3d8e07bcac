package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/packetplane/switchd/pkg/log"
	"github.com/packetplane/switchd/pkg/state"
)

// Suffix with the version, in case we change the table schema.
const tableName = "lane_events_v1"

const (
	columnTimestamp       = "timestamp"
	columnControllingPort = "controlling_port"
	columnAttempt         = "attempt"
	columnName            = "name"
	columnFromMode        = "from_mode"
	columnToMode          = "to_mode"
	columnMessage         = "message"
	columnExtraInfo       = "extra_info"
)

var _ Store = &database{}

type database struct {
	rootCtx    context.Context
	rootCancel context.CancelFunc

	retention     time.Duration
	purgeInterval time.Duration

	dbRW *sql.DB
	dbRO *sql.DB
}

// New creates the journal table if needed and starts the retention
// purge when retention is non-zero.
func New(dbRW *sql.DB, dbRO *sql.DB, retention time.Duration) (Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err := createTable(ctx, dbRW)
	cancel()
	if err != nil {
		return nil, err
	}

	// actual check interval should be lower than the retention period
	// in case of restarts
	purgeInterval := retention / 5
	if purgeInterval < time.Second {
		purgeInterval = time.Second
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	d := &database{
		rootCtx:       rootCtx,
		rootCancel:    rootCancel,
		retention:     retention,
		purgeInterval: purgeInterval,
		dbRW:          dbRW,
		dbRO:          dbRO,
	}
	if retention > time.Second {
		go d.runPurge()
	}
	return d, nil
}

func (d *database) runPurge() {
	log.Logger.Infow("start purging journal", "retention", d.retention, "checkInterval", d.purgeInterval)
	for {
		select {
		case <-d.rootCtx.Done():
			return
		case <-time.After(d.purgeInterval):
		}

		now := time.Now().UTC()
		purged, err := d.Purge(d.rootCtx, now.Add(-d.retention).Unix())
		if err != nil {
			log.Logger.Errorw("failed to purge journal", "retention", d.retention, "error", err)
		} else if purged > 0 {
			log.Logger.Infow("purged journal", "retention", d.retention, "purged", purged)
		}
	}
}

func (d *database) Close() {
	if d.rootCancel != nil {
		log.Logger.Debugw("closing the journal")
		d.rootCancel()
	}
}

func createTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	%s INTEGER NOT NULL,
	%s INTEGER NOT NULL,
	%s TEXT NOT NULL,
	%s TEXT NOT NULL,
	%s TEXT,
	%s TEXT,
	%s TEXT,
	%s TEXT
);`, tableName,
		columnTimestamp,
		columnControllingPort,
		columnAttempt,
		columnName,
		columnFromMode,
		columnToMode,
		columnMessage,
		columnExtraInfo,
	))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s);",
		tableName, columnTimestamp, tableName, columnTimestamp))
	return err
}

func (d *database) Insert(ctx context.Context, ev Event) error {
	extra := ""
	if len(ev.ExtraInfo) > 0 {
		b, err := json.Marshal(ev.ExtraInfo)
		if err != nil {
			return err
		}
		extra = string(b)
	}

	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	_, err := d.dbRW.ExecContext(ctx, fmt.Sprintf(`
INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s) VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
		tableName,
		columnTimestamp,
		columnControllingPort,
		columnAttempt,
		columnName,
		columnFromMode,
		columnToMode,
		columnMessage,
		columnExtraInfo,
	),
		ev.Time.UTC().Unix(),
		int64(ev.ControllingPort),
		ev.Attempt,
		ev.Name,
		ev.FromMode,
		ev.ToMode,
		ev.Message,
		extra,
	)
	return err
}

func (d *database) Get(ctx context.Context, since time.Time) (Events, error) {
	rows, err := d.dbRO.QueryContext(ctx, fmt.Sprintf(`
SELECT %s, %s, %s, %s, %s, %s, %s, %s FROM %s WHERE %s >= ? ORDER BY %s DESC;`,
		columnTimestamp,
		columnControllingPort,
		columnAttempt,
		columnName,
		columnFromMode,
		columnToMode,
		columnMessage,
		columnExtraInfo,
		tableName,
		columnTimestamp,
		columnTimestamp,
	), since.UTC().Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events Events
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

func (d *database) Latest(ctx context.Context) (*Event, error) {
	row := d.dbRO.QueryRowContext(ctx, fmt.Sprintf(`
SELECT %s, %s, %s, %s, %s, %s, %s, %s FROM %s ORDER BY %s DESC LIMIT 1;`,
		columnTimestamp,
		columnControllingPort,
		columnAttempt,
		columnName,
		columnFromMode,
		columnToMode,
		columnMessage,
		columnExtraInfo,
		tableName,
		columnTimestamp,
	))
	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func (d *database) Purge(ctx context.Context, beforeTimestamp int64) (int, error) {
	res, err := d.dbRW.ExecContext(ctx, fmt.Sprintf(
		"DELETE FROM %s WHERE %s < ?;", tableName, columnTimestamp), beforeTimestamp)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanEvent(row scannable) (*Event, error) {
	var (
		ev        Event
		timestamp int64
		ctlPort   int64
		extra     string
	)
	if err := row.Scan(
		&timestamp,
		&ctlPort,
		&ev.Attempt,
		&ev.Name,
		&ev.FromMode,
		&ev.ToMode,
		&ev.Message,
		&extra,
	); err != nil {
		return nil, err
	}
	ev.Time = time.Unix(timestamp, 0).UTC()
	ev.ControllingPort = state.PortID(ctlPort)
	if extra != "" {
		if err := json.Unmarshal([]byte(extra), &ev.ExtraInfo); err != nil {
			return nil, err
		}
	}
	return &ev, nil
}
