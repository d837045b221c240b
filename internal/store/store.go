// Package store handles SQLite persistence of the adaptation database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/aiprimer/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// importTimeLayout keeps every timestamp the same width so imported_at
// sorts chronologically as text.
const importTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for lap time data.
type Store struct {
	db *sql.DB
}

// ImportRecord describes one ingested export file.
type ImportRecord struct {
	ID         string
	Path       string
	ImportedAt time.Time
	Added      bool
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tracks (
			class_id TEXT NOT NULL,
			track_id TEXT NOT NULL,
			min_ai INTEGER,
			max_ai INTEGER,
			PRIMARY KEY (class_id, track_id)
		);`,
		`CREATE TABLE IF NOT EXISTS lap_times (
			class_id TEXT NOT NULL,
			track_id TEXT NOT NULL,
			level INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			lap_time REAL NOT NULL,
			PRIMARY KEY (class_id, track_id, level, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS sample_counts (
			class_id TEXT NOT NULL,
			track_id TEXT NOT NULL,
			level INTEGER NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (class_id, track_id, level)
		);`,
		`CREATE TABLE IF NOT EXISTS player_times (
			class_id TEXT NOT NULL,
			track_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			lap_time REAL NOT NULL,
			PRIMARY KEY (class_id, track_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS imports (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			imported_at TEXT NOT NULL,
			added INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_imports_imported_at ON imports(imported_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Save replaces the stored database and player times in one transaction.
// Import history is kept.
func (s *Store) Save(ctx context.Context, db *model.Database, pt *model.PlayerTimes) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	for _, table := range []string{"tracks", "lap_times", "sample_counts", "player_times"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	trackStmt, err := tx.PrepareContext(ctx, `INSERT INTO tracks (class_id, track_id, min_ai, max_ai) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer closeStmt(trackStmt)
	timeStmt, err := tx.PrepareContext(ctx, `INSERT INTO lap_times (class_id, track_id, level, seq, lap_time) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer closeStmt(timeStmt)
	countStmt, err := tx.PrepareContext(ctx, `INSERT INTO sample_counts (class_id, track_id, level, count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer closeStmt(countStmt)
	playerStmt, err := tx.PrepareContext(ctx, `INSERT INTO player_times (class_id, track_id, seq, lap_time) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer closeStmt(playerStmt)

	for _, classID := range db.ClassIDs() {
		class := db.Classes[classID]
		for _, trackID := range class.TrackIDs() {
			track := class.Tracks[trackID]
			var minAI, maxAI sql.NullInt64
			if track.Bounds != nil {
				minAI = sql.NullInt64{Int64: int64(track.Bounds.Min), Valid: true}
				maxAI = sql.NullInt64{Int64: int64(track.Bounds.Max), Valid: true}
			}
			if _, err = trackStmt.ExecContext(ctx, classID, trackID, minAI, maxAI); err != nil {
				return fmt.Errorf("failed to save track %s/%s: %w", classID, trackID, err)
			}
			for level, times := range track.AILevels {
				for seq, v := range times {
					if _, err = timeStmt.ExecContext(ctx, classID, trackID, level, seq, v); err != nil {
						return fmt.Errorf("failed to save lap time: %w", err)
					}
				}
			}
			for level, count := range track.SampleCounts {
				if _, err = countStmt.ExecContext(ctx, classID, trackID, level, count); err != nil {
					return fmt.Errorf("failed to save sample count: %w", err)
				}
			}
		}
	}

	for _, classID := range pt.ClassIDs() {
		for trackID, track := range pt.Classes[classID].Tracks {
			for seq, v := range track.AllTimes {
				if _, err = playerStmt.ExecContext(ctx, classID, trackID, seq, v); err != nil {
					return fmt.Errorf("failed to save player time: %w", err)
				}
			}
		}
	}

	return tx.Commit()
}

// Load reads the stored database and player times. Bounds are recomputed
// from the loaded levels.
func (s *Store) Load(ctx context.Context) (*model.Database, *model.PlayerTimes, error) {
	db := model.NewDatabase()
	pt := model.NewPlayerTimes()

	if err := s.queryEach(ctx, `SELECT class_id, track_id FROM tracks`, func(rows *sql.Rows) error {
		var classID, trackID string
		if err := rows.Scan(&classID, &trackID); err != nil {
			return err
		}
		db.EnsureTrack(classID, trackID)
		return nil
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to load tracks: %w", err)
	}

	if err := s.queryEach(ctx, `SELECT class_id, track_id, level, lap_time FROM lap_times ORDER BY class_id, track_id, level, seq`, func(rows *sql.Rows) error {
		var classID, trackID string
		var level int
		var v float64
		if err := rows.Scan(&classID, &trackID, &level, &v); err != nil {
			return err
		}
		track := db.EnsureTrack(classID, trackID)
		track.AILevels[level] = append(track.AILevels[level], v)
		return nil
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to load lap times: %w", err)
	}

	if err := s.queryEach(ctx, `SELECT class_id, track_id, level, count FROM sample_counts`, func(rows *sql.Rows) error {
		var classID, trackID string
		var level, count int
		if err := rows.Scan(&classID, &trackID, &level, &count); err != nil {
			return err
		}
		db.EnsureTrack(classID, trackID).SampleCounts[level] = count
		return nil
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to load sample counts: %w", err)
	}

	player := map[[2]string][]float64{}
	if err := s.queryEach(ctx, `SELECT class_id, track_id, lap_time FROM player_times ORDER BY class_id, track_id, seq`, func(rows *sql.Rows) error {
		var key [2]string
		var v float64
		if err := rows.Scan(&key[0], &key[1], &v); err != nil {
			return err
		}
		player[key] = append(player[key], v)
		return nil
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to load player times: %w", err)
	}
	for key, times := range player {
		pt.Set(key[0], key[1], times)
	}

	db.RecomputeBounds()
	return db, pt, nil
}

// RecordImport appends an entry to the import history.
func (s *Store) RecordImport(ctx context.Context, path string, added bool, at time.Time) (ImportRecord, error) {
	rec := ImportRecord{
		ID:         uuid.NewString(),
		Path:       path,
		ImportedAt: at.UTC(),
		Added:      added,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO imports (id, path, imported_at, added) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.Path, rec.ImportedAt.Format(importTimeLayout), rec.Added)
	if err != nil {
		return ImportRecord{}, fmt.Errorf("failed to record import: %w", err)
	}
	return rec, nil
}

// ListImports returns the most recent imports first. A non-positive limit
// returns all of them.
func (s *Store) ListImports(ctx context.Context, limit int) ([]ImportRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	var result []ImportRecord
	err := s.queryEach(ctx, `SELECT id, path, imported_at, added FROM imports ORDER BY imported_at DESC, rowid DESC LIMIT ?`, func(rows *sql.Rows) error {
		var rec ImportRecord
		var importedAt string
		if err := rows.Scan(&rec.ID, &rec.Path, &importedAt, &rec.Added); err != nil {
			return err
		}
		parsed, err := time.Parse(importTimeLayout, importedAt)
		if err != nil {
			return err
		}
		rec.ImportedAt = parsed
		result = append(result, rec)
		return nil
	}, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}
	return result, nil
}

func (s *Store) queryEach(ctx context.Context, query string, scan func(*sql.Rows) error, args ...any) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func closeStmt(stmt *sql.Stmt) {
	if cerr := stmt.Close(); cerr != nil {
		// Best-effort statement close.
		_ = cerr
	}
}
