package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"studytimer/internal/core/model"
	"studytimer/internal/platform"

	_ "github.com/mattn/go-sqlite3"
)

const historyFileName = "history.db"

// HistoryStore records finished study sessions in sqlite.
type HistoryStore struct {
	db *sql.DB
}

// OpenHistory opens (or creates) the history database at path.
func OpenHistory(path string) (*HistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}

	store := &HistoryStore{db: db}
	if err := store.initTables(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// OpenDefaultHistory opens the history database in the user config directory.
func OpenDefaultHistory(appName string) (*HistoryStore, error) {
	configDir, err := platform.ConfigDir()
	if err != nil {
		return nil, err
	}
	return OpenHistory(filepath.Join(configDir, appName, historyFileName))
}

func (store *HistoryStore) initTables() error {
	_, err := store.db.Exec(`
        CREATE TABLE IF NOT EXISTS study_sessions (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            topic TEXT NOT NULL,
            started_at INTEGER NOT NULL,
            ended_at INTEGER NOT NULL,
            planned_seconds INTEGER NOT NULL,
            outcome TEXT NOT NULL
        )
    `)
	if err != nil {
		return fmt.Errorf("create study_sessions table: %w", err)
	}
	return nil
}

// Record appends a finished session.
func (store *HistoryStore) Record(record model.HistoryRecord) error {
	_, err := store.db.Exec(`
        INSERT INTO study_sessions (topic, started_at, ended_at, planned_seconds, outcome)
        VALUES (?, ?, ?, ?, ?)
    `, record.Topic, record.StartedAt.UnixMilli(), record.EndedAt.UnixMilli(),
		int64(record.Planned/time.Second), string(record.Outcome))
	if err != nil {
		return fmt.Errorf("insert study session: %w", err)
	}
	return nil
}

// Recent returns up to limit sessions, newest first.
func (store *HistoryStore) Recent(limit int) ([]model.HistoryRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := store.db.Query(`
        SELECT id, topic, started_at, ended_at, planned_seconds, outcome
        FROM study_sessions
        ORDER BY ended_at DESC, id DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("query study sessions: %w", err)
	}
	defer rows.Close()

	var records []model.HistoryRecord
	for rows.Next() {
		var (
			record         model.HistoryRecord
			startedAt      int64
			endedAt        int64
			plannedSeconds int64
			outcome        string
		)
		if err := rows.Scan(&record.ID, &record.Topic, &startedAt, &endedAt, &plannedSeconds, &outcome); err != nil {
			return nil, fmt.Errorf("scan study session: %w", err)
		}
		record.StartedAt = time.UnixMilli(startedAt)
		record.EndedAt = time.UnixMilli(endedAt)
		record.Planned = time.Duration(plannedSeconds) * time.Second
		record.Outcome = model.Outcome(outcome)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate study sessions: %w", err)
	}
	return records, nil
}

// CompletedSince counts completed sessions ending at or after since and sums
// their planned length.
func (store *HistoryStore) CompletedSince(since time.Time) (int, time.Duration, error) {
	var (
		count   int
		seconds int64
	)
	err := store.db.QueryRow(`
        SELECT COUNT(*), COALESCE(SUM(planned_seconds), 0)
        FROM study_sessions
        WHERE outcome = ? AND ended_at >= ?
    `, string(model.OutcomeCompleted), since.UnixMilli()).Scan(&count, &seconds)
	if err != nil {
		return 0, 0, fmt.Errorf("query completed sessions: %w", err)
	}
	return count, time.Duration(seconds) * time.Second, nil
}

// Close closes the database.
func (store *HistoryStore) Close() error {
	return store.db.Close()
}
