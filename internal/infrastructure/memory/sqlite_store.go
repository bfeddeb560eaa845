// Package memory persists the audit log, preferences, facts, and the
// semantic recall index in a SQLite database.
package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/harshaljain-cs/jarvis-go/internal/domain"
	"github.com/harshaljain-cs/jarvis-go/internal/ports"
)

// SQLiteStore persists assistant state in ~/.jarvis/storage/jarvis.db (or
// whatever data dir the configuration names). All writes are serialized
// through a mutex; SQLite handles read consistency.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteStore opens (or creates) the database under dataDir.
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(dataDir, "jarvis.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	store := &SQLiteStore{db: db, path: path}
	if err := store.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS commands (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT,
			command TEXT,
			intent TEXT,
			entities TEXT,
			success INTEGER,
			execution_time REAL
		);
		CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT,
			updated_at TEXT
		);
		CREATE TABLE IF NOT EXISTS facts (
			key TEXT PRIMARY KEY,
			value TEXT,
			updated_at TEXT
		);
		CREATE TABLE IF NOT EXISTS memories (
			id TEXT PRIMARY KEY,
			content TEXT,
			kind TEXT,
			embedding BLOB,
			created_at TEXT
		);`)
	return err
}

// LogCommand appends one audit log entry.
func (s *SQLiteStore) LogCommand(record domain.CommandRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entities, err := json.Marshal(record.Entities)
	if err != nil {
		return err
	}
	ts := record.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err = s.db.Exec(`INSERT INTO commands
		(timestamp, command, intent, entities, success, execution_time)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ts.Format(time.RFC3339),
		record.Command,
		record.Intent,
		string(entities),
		boolToInt(record.Success),
		record.ExecutionTime,
	)
	return err
}

// RecentCommands returns the newest entries first.
func (s *SQLiteStore) RecentCommands(limit int) ([]domain.CommandRecord, error) {
	query := `SELECT id, timestamp, command, intent, entities, success, execution_time
		FROM commands ORDER BY id DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.CommandRecord
	for rows.Next() {
		var rec domain.CommandRecord
		var ts, entities string
		var success int
		if err := rows.Scan(&rec.ID, &ts, &rec.Command, &rec.Intent, &entities, &success, &rec.ExecutionTime); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			rec.Timestamp = t
		}
		rec.Success = success == 1
		if entities != "" {
			_ = json.Unmarshal([]byte(entities), &rec.Entities)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CommandStats aggregates the audit log.
func (s *SQLiteStore) CommandStats() (domain.CommandStats, error) {
	stats := domain.CommandStats{TopIntents: map[string]int{}}
	row := s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(success), 0), COALESCE(AVG(execution_time), 0) FROM commands`)
	if err := row.Scan(&stats.Total, &stats.Successful, &stats.AvgTime); err != nil {
		return stats, err
	}
	rows, err := s.db.Query(`SELECT intent, COUNT(*) AS n FROM commands
		GROUP BY intent ORDER BY n DESC LIMIT 5`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var intent string
		var count int
		if err := rows.Scan(&intent, &count); err != nil {
			return stats, err
		}
		stats.TopIntents[intent] = count
	}
	return stats, rows.Err()
}

// StorePreference upserts a user preference.
func (s *SQLiteStore) StorePreference(key, value string) error {
	return s.upsert("preferences", key, value)
}

// Preference looks up a preference; the bool reports existence.
func (s *SQLiteStore) Preference(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// StoreFact upserts a remembered fact.
func (s *SQLiteStore) StoreFact(key, value string) error {
	return s.upsert("facts", key, value)
}

// Facts returns all remembered facts.
func (s *SQLiteStore) Facts() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM facts ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	facts := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		facts[key] = value
	}
	return facts, rows.Err()
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) upsert(table, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	query := fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, table)
	_, err := s.db.Exec(query, key, value, time.Now().Format(time.RFC3339))
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ ports.MemoryRepository = (*SQLiteStore)(nil)
