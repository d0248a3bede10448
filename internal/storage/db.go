// Package storage keeps runs, their iteration history and position
// snapshots in a SQLite database, and exports snapshots as CSV or JSON.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/san-kum/tenpush/internal/sim"
)

const FileName = "tenpush.db"

var (
	ErrNotFound  = errors.New("storage: run not found")
	ErrAmbiguous = errors.New("storage: run prefix matches several runs")
	ErrNoData    = errors.New("storage: run has no snapshot")
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusConverged = "converged"
	StatusLimit     = "limit"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

type Run struct {
	ID        string  `db:"id" json:"id"`
	Created   int64   `db:"created" json:"created"`
	Field     string  `db:"field" json:"field"`
	Dim       int     `db:"dim" json:"dim"`
	Threads   int     `db:"threads" json:"threads"`
	Things    int     `db:"things" json:"things"`
	Iters     int     `db:"iters" json:"iters"`
	MeanSpeed float64 `db:"mean_speed" json:"mean_speed"`
	Status    string  `db:"status" json:"status"`
	Config    string  `db:"config" json:"config"`
}

func (r Run) CreatedAt() time.Time { return time.Unix(r.Created, 0) }

type HistoryRow struct {
	Iter       int     `db:"iter" json:"iter"`
	MeanSpeed  float64 `db:"mean_speed" json:"mean_speed"`
	Things     int     `db:"things" json:"things"`
	Tractlets  int     `db:"tractlets" json:"tractlets"`
	Vertices   int     `db:"vertices" json:"vertices"`
	Coincident int     `db:"coincident" json:"coincident"`
	Destroyed  int     `db:"destroyed" json:"destroyed"`
	ElapsedNs  int64   `db:"elapsed_ns" json:"elapsed_ns"`
}

type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// OpenDir creates dir if needed and opens the database inside it.
func OpenDir(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return Open(filepath.Join(dir, FileName))
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created INTEGER NOT NULL,
		field TEXT NOT NULL,
		dim INTEGER NOT NULL,
		threads INTEGER NOT NULL,
		things INTEGER NOT NULL DEFAULT 0,
		iters INTEGER NOT NULL DEFAULT 0,
		mean_speed REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		config TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		iter INTEGER NOT NULL,
		dim INTEGER NOT NULL,
		positions BLOB NOT NULL,
		tensors BLOB NOT NULL,
		things BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS history (
		run_id TEXT NOT NULL REFERENCES runs(id),
		iter INTEGER NOT NULL,
		mean_speed REAL NOT NULL,
		things INTEGER NOT NULL,
		tractlets INTEGER NOT NULL,
		vertices INTEGER NOT NULL,
		coincident INTEGER NOT NULL,
		destroyed INTEGER NOT NULL,
		elapsed_ns INTEGER NOT NULL,
		PRIMARY KEY (run_id, iter)
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_run ON snapshots(run_id, iter);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// CreateRun records a new run and returns its ID.
func (db *DB) CreateRun(config, field string, dim, threads int) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(`INSERT INTO runs (id, created, field, dim, threads, status, config)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().Unix(), field, dim, threads, StatusRunning, config)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// FinishRun stores the outcome of a run.
func (db *DB) FinishRun(id string, iters, things int, meanSpeed float64, status string) error {
	res, err := db.conn.Exec(`UPDATE runs SET iters = ?, things = ?, mean_speed = ?, status = ? WHERE id = ?`,
		iters, things, meanSpeed, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Run looks a run up by ID or unique ID prefix.
func (db *DB) Run(idOrPrefix string) (Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, `SELECT * FROM runs WHERE id LIKE ? || '%' LIMIT 2`, idOrPrefix)
	if err != nil {
		return Run{}, err
	}
	switch len(runs) {
	case 0:
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	case 1:
		return runs[0], nil
	}
	for _, r := range runs {
		if r.ID == idOrPrefix {
			return r, nil
		}
	}
	return Run{}, fmt.Errorf("%w: %s", ErrAmbiguous, idOrPrefix)
}

// Runs returns every run, newest first.
func (db *DB) Runs() ([]Run, error) {
	runs := make([]Run, 0)
	err := db.conn.Select(&runs, `SELECT * FROM runs ORDER BY created DESC, id`)
	return runs, err
}

// AppendHistory stores per-iteration statistics.
func (db *DB) AppendHistory(id string, hist []sim.IterStats) error {
	if len(hist) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT OR REPLACE INTO history
		(run_id, iter, mean_speed, things, tractlets, vertices, coincident, destroyed, elapsed_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, st := range hist {
		_, err := stmt.Exec(id, st.Iter, st.MeanSpeed, st.Things, st.Tractlets,
			st.Vertices, st.Coincident, st.Rebin.Destroyed, st.Elapsed.Nanoseconds())
		if err != nil {
			return fmt.Errorf("insert history %d: %w", st.Iter, err)
		}
	}
	return tx.Commit()
}

func (db *DB) History(id string) ([]HistoryRow, error) {
	rows := make([]HistoryRow, 0)
	err := db.conn.Select(&rows, `SELECT iter, mean_speed, things, tractlets, vertices,
		coincident, destroyed, elapsed_ns FROM history WHERE run_id = ? ORDER BY iter`, id)
	return rows, err
}

func (db *DB) SaveSnapshot(id string, sn *sim.Snapshot) error {
	_, err := db.conn.Exec(`INSERT INTO snapshots (run_id, iter, dim, positions, tensors, things)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, sn.Iter, sn.Dim, encodeFloats(sn.Positions), encodeFloats(sn.Tensors), encodeRecords(sn.Things))
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the snapshot with the highest iteration.
func (db *DB) LatestSnapshot(id string) (*sim.Snapshot, error) {
	var row struct {
		Iter      int    `db:"iter"`
		Dim       int    `db:"dim"`
		Positions []byte `db:"positions"`
		Tensors   []byte `db:"tensors"`
		Things    []byte `db:"things"`
	}
	err := db.conn.Get(&row, `SELECT iter, dim, positions, tensors, things FROM snapshots
		WHERE run_id = ? ORDER BY iter DESC, id DESC LIMIT 1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNoData, id)
	}
	if err != nil {
		return nil, err
	}

	sn := &sim.Snapshot{Dim: row.Dim, Iter: row.Iter}
	if sn.Positions, err = decodeFloats(row.Positions); err != nil {
		return nil, err
	}
	if sn.Tensors, err = decodeFloats(row.Tensors); err != nil {
		return nil, err
	}
	if sn.Things, err = decodeRecords(row.Things); err != nil {
		return nil, err
	}
	return sn, nil
}
