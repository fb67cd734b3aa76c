package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/transfermap/transfermap/internal/model"
)

// SemesterPolicy decides what happens when an Equivalency is observed
// again with a different semester. The unique key excludes semester, so
// the fact cannot be appended; it can only overwrite or stand.
type SemesterPolicy string

const (
	// PolicyOverwrite replaces the stored semester with the most
	// recently scraped value. Single current-term snapshot semantics;
	// this is the default and matches the upstream source's behavior.
	PolicyOverwrite SemesterPolicy = "overwrite"

	// PolicyKeep retains the first-observed semester.
	PolicyKeep SemesterPolicy = "keep"
)

// ParseSemesterPolicy validates a policy string.
func ParseSemesterPolicy(s string) (SemesterPolicy, error) {
	switch SemesterPolicy(s) {
	case PolicyOverwrite, PolicyKeep:
		return SemesterPolicy(s), nil
	case "":
		return PolicyOverwrite, nil
	default:
		return "", fmt.Errorf("unknown semester policy %q (want overwrite or keep)", s)
	}
}

// IntegrityError marks a persistence failure caused by a constraint
// violation. The record's transaction was rolled back; the pipeline
// buckets it under INTEGRITY_VIOLATION and continues.
type IntegrityError struct {
	// Op names the upsert step that failed.
	Op string

	// Err is the driver error.
	Err error
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation in %s: %v", e.Op, e.Err)
}

// Unwrap returns the driver error.
func (e *IntegrityError) Unwrap() error {
	return e.Err
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file and directory if absent.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool

	// SemesterPolicy controls repeat-observation semantics.
	SemesterPolicy SemesterPolicy
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
		SemesterPolicy:    PolicyOverwrite,
	}
}

// Store is the SQLite-backed relational store.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string

	// policy controls Equivalency semester collisions.
	policy SemesterPolicy
}

// Open opens or creates a Store at the given database file path.
func Open(dbPath string, opts Options) (*Store, error) {
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
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

	s := &Store{
		db:     db,
		dbPath: dbPath,
		policy: opts.SemesterPolicy,
	}
	if s.policy == "" {
		s.policy = PolicyOverwrite
	}

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if opts.EnableWAL {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTables creates the schema if it doesn't exist. Deletions cascade
// from School and GTCourse to their dependents; the pipeline itself never
// deletes.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS School (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS GTCourse (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		creditHours REAL NOT NULL CHECK (creditHours > 0)
	);

	CREATE TABLE IF NOT EXISTS ExternalCourse (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		schoolId INTEGER NOT NULL REFERENCES School(id) ON DELETE CASCADE,
		code TEXT NOT NULL,
		title TEXT NOT NULL,
		creditHours REAL NOT NULL CHECK (creditHours > 0),
		UNIQUE(schoolId, code)
	);

	CREATE TABLE IF NOT EXISTS Equivalency (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		gtCourseId INTEGER NOT NULL REFERENCES GTCourse(id) ON DELETE CASCADE,
		schoolId INTEGER NOT NULL REFERENCES School(id) ON DELETE CASCADE,
		externalCourseCode TEXT NOT NULL,
		semester TEXT NOT NULL,
		UNIQUE(gtCourseId, schoolId, externalCourseCode)
	);

	CREATE INDEX IF NOT EXISTS idx_equivalency_gt ON Equivalency(gtCourseId);
	CREATE INDEX IF NOT EXISTS idx_equivalency_school ON Equivalency(schoolId);
	CREATE INDEX IF NOT EXISTS idx_external_school ON ExternalCourse(schoolId);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Persist upserts one normalized record inside a single transaction:
// School, GTCourse, ExternalCourse, then Equivalency. Any constraint
// violation rolls the whole record back and returns an *IntegrityError;
// other records are unaffected.
func (s *Store) Persist(ctx context.Context, rec model.NormalizedRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	schoolID, err := s.upsertSchool(ctx, tx, rec.SchoolName)
	if err != nil {
		return wrapIntegrity("school upsert", err)
	}

	gtCourseID, err := s.upsertGTCourse(ctx, tx, rec.GTCode, rec.GTTitle, rec.GTCreditHours)
	if err != nil {
		return wrapIntegrity("gt course upsert", err)
	}

	if err := s.upsertExternalCourse(ctx, tx, schoolID, rec.ExternalCode, rec.ExternalTitle, rec.ExternalCreditHours); err != nil {
		return wrapIntegrity("external course upsert", err)
	}

	if err := s.upsertEquivalency(ctx, tx, gtCourseID, schoolID, rec.ExternalCode, rec.Semester); err != nil {
		return wrapIntegrity("equivalency upsert", err)
	}

	if err := tx.Commit(); err != nil {
		return wrapIntegrity("commit", err)
	}
	return nil
}

// upsertSchool inserts the school if absent and returns its ID. Schools
// are created lazily on first reference and never modified after.
func (s *Store) upsertSchool(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, "SELECT id FROM School WHERE name = ?", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	res, err := tx.ExecContext(ctx, "INSERT INTO School (name) VALUES (?)", name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// upsertGTCourse inserts the course if absent; if present with differing
// title or credit hours it updates in place, because freshly scraped data
// is authoritative over stale local data.
func (s *Store) upsertGTCourse(ctx context.Context, tx *sql.Tx, code, title string, hours float64) (int64, error) {
	var id int64
	var curTitle string
	var curHours float64

	err := tx.QueryRowContext(ctx,
		"SELECT id, title, creditHours FROM GTCourse WHERE code = ?", code).
		Scan(&id, &curTitle, &curHours)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx,
			"INSERT INTO GTCourse (code, title, creditHours) VALUES (?, ?, ?)",
			code, title, hours)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	case err != nil:
		return 0, err
	}

	if curTitle != title || curHours != hours {
		if _, err := tx.ExecContext(ctx,
			"UPDATE GTCourse SET title = ?, creditHours = ? WHERE id = ?",
			title, hours, id); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// upsertExternalCourse inserts or updates the course scoped by school.
func (s *Store) upsertExternalCourse(ctx context.Context, tx *sql.Tx, schoolID int64, code, title string, hours float64) error {
	var id int64
	var curTitle string
	var curHours float64

	err := tx.QueryRowContext(ctx,
		"SELECT id, title, creditHours FROM ExternalCourse WHERE schoolId = ? AND code = ?",
		schoolID, code).
		Scan(&id, &curTitle, &curHours)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err := tx.ExecContext(ctx,
			"INSERT INTO ExternalCourse (schoolId, code, title, creditHours) VALUES (?, ?, ?, ?)",
			schoolID, code, title, hours)
		return err
	case err != nil:
		return err
	}

	if curTitle != title || curHours != hours {
		_, err := tx.ExecContext(ctx,
			"UPDATE ExternalCourse SET title = ?, creditHours = ? WHERE id = ?",
			title, hours, id)
		return err
	}
	return nil
}

// upsertEquivalency inserts the mapping fact if its (gtCourse, school,
// externalCode) triple is absent. On a repeat observation the semester
// policy decides: overwrite to the newest scrape, or keep the first.
func (s *Store) upsertEquivalency(ctx context.Context, tx *sql.Tx, gtCourseID, schoolID int64, externalCode, semester string) error {
	var id int64
	var curSemester string

	err := tx.QueryRowContext(ctx,
		"SELECT id, semester FROM Equivalency WHERE gtCourseId = ? AND schoolId = ? AND externalCourseCode = ?",
		gtCourseID, schoolID, externalCode).
		Scan(&id, &curSemester)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err := tx.ExecContext(ctx,
			"INSERT INTO Equivalency (gtCourseId, schoolId, externalCourseCode, semester) VALUES (?, ?, ?, ?)",
			gtCourseID, schoolID, externalCode, semester)
		return err
	case err != nil:
		return err
	}

	if s.policy == PolicyOverwrite && curSemester != semester {
		_, err := tx.ExecContext(ctx,
			"UPDATE Equivalency SET semester = ? WHERE id = ?", semester, id)
		return err
	}
	return nil
}

// wrapIntegrity classifies constraint violations; other errors pass
// through wrapped with the operation name.
func wrapIntegrity(op string, err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(strings.ToLower(err.Error()), "constraint") {
		return &IntegrityError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// EquivalenciesForCourse returns every equivalency for a canonical GT
// course code, joined with School, GTCourse, and (when its full record is
// known) ExternalCourse, ordered by school name then external course
// code. The ExternalCourse join is LEFT because an equivalency may cite a
// course code before that course's record was scraped.
func (s *Store) EquivalenciesForCourse(ctx context.Context, gtCode string) ([]model.EquivalencyView, error) {
	query := `
	SELECT g.code, g.title, g.creditHours,
	       sc.name, e.externalCourseCode,
	       COALESCE(x.title, ''), COALESCE(x.creditHours, 0),
	       e.semester
	FROM Equivalency e
	JOIN GTCourse g ON g.id = e.gtCourseId
	JOIN School sc ON sc.id = e.schoolId
	LEFT JOIN ExternalCourse x ON x.schoolId = e.schoolId AND x.code = e.externalCourseCode
	WHERE g.code = ?
	ORDER BY sc.name, e.externalCourseCode
	`

	rows, err := s.db.QueryContext(ctx, query, gtCode)
	if err != nil {
		return nil, fmt.Errorf("failed to query equivalencies: %w", err)
	}
	defer rows.Close()

	var results []model.EquivalencyView
	for rows.Next() {
		var v model.EquivalencyView
		if err := rows.Scan(
			&v.GTCode, &v.GTTitle, &v.GTCreditHours,
			&v.SchoolName, &v.ExternalCode,
			&v.ExternalTitle, &v.ExternalCreditHours,
			&v.Semester,
		); err != nil {
			return nil, fmt.Errorf("failed to scan equivalency: %w", err)
		}
		results = append(results, v)
	}

	return results, rows.Err()
}

// Snapshot reads the full dataset in deterministic order for export.
func (s *Store) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	snap := &model.Snapshot{ExportedAt: time.Now().UTC()}

	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM School ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to read schools: %w", err)
	}
	for rows.Next() {
		var sc model.SnapshotSchool
		if err := rows.Scan(&sc.ID, &sc.Name); err != nil {
			rows.Close()
			return nil, err
		}
		snap.Schools = append(snap.Schools, sc)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, "SELECT id, code, title, creditHours FROM GTCourse ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("failed to read gt courses: %w", err)
	}
	for rows.Next() {
		var c model.SnapshotGTCourse
		if err := rows.Scan(&c.ID, &c.Code, &c.Title, &c.CreditHours); err != nil {
			rows.Close()
			return nil, err
		}
		snap.GTCourses = append(snap.GTCourses, c)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, "SELECT id, schoolId, code, title, creditHours FROM ExternalCourse ORDER BY schoolId, code")
	if err != nil {
		return nil, fmt.Errorf("failed to read external courses: %w", err)
	}
	for rows.Next() {
		var c model.SnapshotExternalCourse
		if err := rows.Scan(&c.ID, &c.SchoolID, &c.Code, &c.Title, &c.CreditHours); err != nil {
			rows.Close()
			return nil, err
		}
		snap.ExternalCourses = append(snap.ExternalCourses, c)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, "SELECT id, gtCourseId, schoolId, externalCourseCode, semester FROM Equivalency ORDER BY gtCourseId, schoolId, externalCourseCode")
	if err != nil {
		return nil, fmt.Errorf("failed to read equivalencies: %w", err)
	}
	for rows.Next() {
		var e model.SnapshotEquivalency
		if err := rows.Scan(&e.ID, &e.GTCourseID, &e.SchoolID, &e.ExternalCourseCode, &e.Semester); err != nil {
			rows.Close()
			return nil, err
		}
		snap.Equivalencies = append(snap.Equivalencies, e)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	return snap, nil
}

// closeRows closes rows and surfaces the iteration error.
func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}
