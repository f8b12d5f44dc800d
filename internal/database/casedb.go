package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/picase/internal/model"
)

// FileName is the database file created inside the database directory.
const FileName = "picase.db"

// ErrSnapshotNotFound is returned when no snapshot has the requested id.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// CaseDB provides SQLite-based storage for case record snapshots.
// A snapshot is the full record JSON plus a few key figures, so history can
// be listed without decoding every record.
type CaseDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures CaseDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// ReadOnlyOptions opens an existing database without creating it.
func ReadOnlyOptions() Options {
	return Options{}
}

// Open opens or creates a CaseDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CaseDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("database not found at %s: run 'picase run' first to record history", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CaseDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the database file path.
func (cdb *CaseDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CaseDB) Close() error {
	return cdb.db.Close()
}

func (cdb *CaseDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		case_id TEXT NOT NULL,
		report_id TEXT,
		case_folder TEXT,
		timestamp DATETIME NOT NULL,
		fingerprint TEXT NOT NULL,
		record_json TEXT NOT NULL,
		total_billed INTEGER NOT NULL DEFAULT 0,
		total_outstanding INTEGER NOT NULL DEFAULT 0,
		total_coverage INTEGER NOT NULL DEFAULT 0,
		meets_threshold INTEGER NOT NULL DEFAULT 0,
		diagnoses INTEGER NOT NULL DEFAULT 0,
		actions INTEGER NOT NULL DEFAULT 0,
		issues INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_case ON snapshots(case_id);
	CREATE INDEX IF NOT EXISTS idx_snapshots_fingerprint ON snapshots(case_id, fingerprint);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// Snapshot is the stored metadata of one rendered case record.
type Snapshot struct {
	ID          int64     `json:"id"`
	CaseID      string    `json:"case_id"`
	ReportID    string    `json:"report_id"`
	CaseFolder  string    `json:"case_folder"`
	Timestamp   time.Time `json:"timestamp"`
	Fingerprint string    `json:"fingerprint"`

	TotalBilled      model.Money `json:"total_billed"`
	TotalOutstanding model.Money `json:"total_outstanding"`
	TotalCoverage    model.Money `json:"total_coverage"`
	MeetsThreshold   bool        `json:"meets_threshold"`
	Diagnoses        int         `json:"diagnoses"`
	Actions          int         `json:"actions"`
	Issues           int         `json:"data_quality_issues"`
}

// CaseSummary describes the stored history of one case.
type CaseSummary struct {
	CaseID    string    `json:"case_id"`
	Snapshots int       `json:"snapshots"`
	LastRun   time.Time `json:"last_run"`
}

// Fingerprint returns the SHA3-256 hex digest of the record JSON.
// The report id and generation time are left out, so rendering unchanged
// documents twice gives the same fingerprint.
func Fingerprint(record *model.CaseRecord) (string, error) {
	stripped := *record
	stripped.ReportID = ""
	stripped.GeneratedAt = time.Time{}

	data, err := json.Marshal(&stripped)
	if err != nil {
		return "", fmt.Errorf("failed to serialize record: %w", err)
	}
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// SaveSnapshot stores record unless the latest snapshot of the same case has
// the same fingerprint. It returns the stored (or matching) snapshot and
// whether a new row was written.
func (cdb *CaseDB) SaveSnapshot(ctx context.Context, record *model.CaseRecord, caseFolder string) (*Snapshot, bool, error) {
	fingerprint, err := Fingerprint(record)
	if err != nil {
		return nil, false, err
	}

	latest, err := cdb.latestSnapshot(ctx, record.CaseID)
	if err != nil {
		return nil, false, err
	}
	if latest != nil && latest.Fingerprint == fingerprint {
		return latest, false, nil
	}

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return nil, false, fmt.Errorf("failed to serialize record: %w", err)
	}

	s := &Snapshot{
		CaseID:           record.CaseID,
		ReportID:         record.ReportID,
		CaseFolder:       caseFolder,
		Timestamp:        record.GeneratedAt.UTC().Truncate(time.Second),
		Fingerprint:      fingerprint,
		TotalBilled:      record.Bills.TotalBilled,
		TotalOutstanding: record.Bills.TotalOutstanding,
		TotalCoverage:    record.Coverage.TotalAvailable,
		MeetsThreshold:   record.Threshold.MeetsThreshold,
		Diagnoses:        len(record.Injuries.Diagnoses),
		Actions:          len(record.RecommendedActions),
		Issues:           len(record.DataQuality),
	}

	query := `
	INSERT INTO snapshots (case_id, report_id, case_folder, timestamp, fingerprint, record_json,
		total_billed, total_outstanding, total_coverage, meets_threshold, diagnoses, actions, issues)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := cdb.db.ExecContext(ctx, query,
		s.CaseID,
		s.ReportID,
		s.CaseFolder,
		s.Timestamp.Format(timestampFormats[0]),
		s.Fingerprint,
		string(recordJSON),
		int64(s.TotalBilled),
		int64(s.TotalOutstanding),
		int64(s.TotalCoverage),
		boolToInt(s.MeetsThreshold),
		s.Diagnoses,
		s.Actions,
		s.Issues,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to save snapshot: %w", err)
	}

	if s.ID, err = result.LastInsertId(); err != nil {
		return nil, false, fmt.Errorf("failed to read snapshot id: %w", err)
	}
	return s, true, nil
}

const snapshotColumns = `id, case_id, report_id, case_folder, timestamp, fingerprint,
	total_billed, total_outstanding, total_coverage, meets_threshold, diagnoses, actions, issues`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*Snapshot, error) {
	var (
		s                             Snapshot
		reportID, folder              sql.NullString
		timestamp                     string
		billed, outstanding, coverage int64
		meets                         int
	)
	if err := row.Scan(&s.ID, &s.CaseID, &reportID, &folder, &timestamp, &s.Fingerprint,
		&billed, &outstanding, &coverage, &meets, &s.Diagnoses, &s.Actions, &s.Issues); err != nil {
		return nil, err
	}
	s.ReportID = reportID.String
	s.CaseFolder = folder.String
	s.Timestamp = parseTimestamp(timestamp)
	s.TotalBilled = model.Money(billed)
	s.TotalOutstanding = model.Money(outstanding)
	s.TotalCoverage = model.Money(coverage)
	s.MeetsThreshold = meets != 0
	return &s, nil
}

// latestSnapshot returns nil when the case has no snapshot.
func (cdb *CaseDB) latestSnapshot(ctx context.Context, caseID string) (*Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots WHERE case_id = ? ORDER BY id DESC LIMIT 1`

	s, err := scanSnapshot(cdb.db.QueryRowContext(ctx, query, caseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return s, nil
}

// ListSnapshots returns the snapshots of a case, newest first.
func (cdb *CaseDB) ListSnapshots(ctx context.Context, caseID string) ([]Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots WHERE case_id = ? ORDER BY id DESC`

	rows, err := cdb.db.QueryContext(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, *s)
	}
	return snapshots, rows.Err()
}

// ListCases returns every case with at least one snapshot, ordered by case id.
func (cdb *CaseDB) ListCases(ctx context.Context) ([]CaseSummary, error) {
	query := `
	SELECT case_id, COUNT(*), MAX(timestamp)
	FROM snapshots
	GROUP BY case_id
	ORDER BY case_id
	`

	rows, err := cdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer rows.Close()

	var cases []CaseSummary
	for rows.Next() {
		var c CaseSummary
		var lastRun string
		if err := rows.Scan(&c.CaseID, &c.Snapshots, &lastRun); err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		c.LastRun = parseTimestamp(lastRun)
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

// GetSnapshot returns the snapshot with the given id and its decoded record.
func (cdb *CaseDB) GetSnapshot(ctx context.Context, id int64) (*Snapshot, *model.CaseRecord, error) {
	query := `SELECT ` + snapshotColumns + `, record_json FROM snapshots WHERE id = ?`

	var recordJSON string
	row := cdb.db.QueryRowContext(ctx, query, id)
	s, err := scanSnapshot(scannerFunc(func(dest ...any) error {
		return row.Scan(append(dest, &recordJSON)...)
	}))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %d", ErrSnapshotNotFound, id)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var record model.CaseRecord
	if err := json.Unmarshal([]byte(recordJSON), &record); err != nil {
		return nil, nil, fmt.Errorf("failed to parse snapshot %d: %w", id, err)
	}
	return s, &record, nil
}

type scannerFunc func(dest ...any) error

func (f scannerFunc) Scan(dest ...any) error {
	return f(dest...)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The first one is also the format snapshots are written in.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp tries each of timestampFormats and returns the zero time
// when none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
