package cache

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrUnavailable wraps any store-open or IO failure, surfaced to callers
// as the engine's CacheUnavailable error class (§7 "Error taxonomy").
var ErrUnavailable = errors.New("cache: store unavailable")

// Store is the sqlite-backed durable analysis cache. All writes and
// reads are serialized behind mu, matching §5's "analysis cache owned by
// a single mutex" resource policy — the library scanner's worker pool
// writes through this same lock.
type Store struct {
	mu *sync.Mutex
	db *sql.DB
}

// Open opens (or creates) the sqlite database at dbPath in WAL mode and
// applies any pending embedded migrations.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s := &Store{mu: &sync.Mutex{}, db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return err
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return err
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		var version int
		if _, err := fmt.Sscanf(entry.Name(), "%d_", &version); err != nil || version <= current {
			continue
		}
		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return err
		}
		log.Debug("applying cache migration", "version", version, "file", entry.Name())
		if _, err := s.db.Exec(string(content)); err != nil {
			return err
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations(version) VALUES (?)", version); err != nil {
			return err
		}
	}
	return nil
}

// Get looks up a record by its full cache key. A mismatch on size or
// mtime is treated identically to a miss — the caller re-analyzes.
func (s *Store) Get(path string, fileSize, modifiedTime int64) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT path, file_size, modified_time, duration_secs, bpm,
		bpm_confidence, key, key_confidence, title, artist, analyzed_at
		FROM analysis_records WHERE path = ? AND file_size = ? AND modified_time = ?`,
		path, fileSize, modifiedTime)

	rec, err := scanRecord(row)
	if err != nil {
		return Record{}, false
	}
	return rec, true
}

// GetByKey returns every cached record, exact cached Camelot key.
func (s *Store) GetByKey(key string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT path, file_size, modified_time, duration_secs, bpm,
		bpm_confidence, key, key_confidence, title, artist, analyzed_at
		FROM analysis_records WHERE key = ?`, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()
	return scanAll(rows)
}

// GetAll returns every record sorted by key (NULLs last) then BPM
// ascending, per §6 "Cache store" / §4.8 "final merged list" ordering.
func (s *Store) GetAll() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT path, file_size, modified_time, duration_secs, bpm,
		bpm_confidence, key, key_confidence, title, artist, analyzed_at
		FROM analysis_records
		ORDER BY (key IS NULL), key, (bpm IS NULL), bpm ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()
	return scanAll(rows)
}

// Store upserts a record by path (idempotent).
func (s *Store) Store(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO analysis_records
		(path, file_size, modified_time, duration_secs, bpm, bpm_confidence, key, key_confidence, title, artist, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			file_size = excluded.file_size,
			modified_time = excluded.modified_time,
			duration_secs = excluded.duration_secs,
			bpm = excluded.bpm,
			bpm_confidence = excluded.bpm_confidence,
			key = excluded.key,
			key_confidence = excluded.key_confidence,
			title = excluded.title,
			artist = excluded.artist,
			analyzed_at = excluded.analyzed_at`,
		r.Path, r.FileSize, r.ModifiedTime, r.DurationSecs, r.BPM, r.BPMConfidence,
		r.Key, r.KeyConfidence, r.Title, r.Artist, r.AnalyzedAt)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Remove deletes the record for path, if any.
func (s *Store) Remove(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM analysis_records WHERE path = ?", path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Clear deletes every record.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM analysis_records")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Count returns the number of cached records.
func (s *Store) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM analysis_records").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var r Record
	if err := row.Scan(&r.Path, &r.FileSize, &r.ModifiedTime, &r.DurationSecs, &r.BPM,
		&r.BPMConfidence, &r.Key, &r.KeyConfidence, &r.Title, &r.Artist, &r.AnalyzedAt); err != nil {
		return Record{}, err
	}
	return r, nil
}

func scanAll(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DefaultPath returns the conventional cache database path under dataDir.
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, "ole-analysis-cache.db")
}
