package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"optoutserver/filing"
)

// JournalDB обертка для работы с журналом отправок.
// Журнал только дописывается: записи никогда не изменяются и не
// удаляются, сессия из журнала не восстанавливается.
type JournalDB struct {
	conn *sql.DB
}

// NewJournalDB открывает (или создает) БД журнала по указанному пути
func NewJournalDB(path string) (*JournalDB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to journal database: %w", err)
	}

	db := &JournalDB{conn: conn}
	if err := db.createTables(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

// Close закрывает подключение к БД журнала
func (db *JournalDB) Close() error {
	return db.conn.Close()
}

// createTables создает таблицу журнала отправок
func (db *JournalDB) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS submission_journal (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		patent_number TEXT NOT NULL,
		ok INTEGER NOT NULL,
		request_id TEXT,
		error_message TEXT,
		reception_time TEXT,
		submitted_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_submission_journal_run ON submission_journal(run_id);
	CREATE INDEX IF NOT EXISTS idx_submission_journal_patent ON submission_journal(patent_number);
	`

	_, err := db.conn.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create submission journal table: %w", err)
	}

	return nil
}

// RecordResult дописывает исход одной отправки в журнал
func (db *JournalDB) RecordResult(runID string, result filing.SubmissionResult) error {
	query := `
		INSERT INTO submission_journal (
			run_id, patent_number, ok, request_id, error_message, reception_time, submitted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.conn.Exec(query,
		runID,
		result.PatentNumber,
		boolToInt(result.OK),
		result.RequestID,
		result.ErrorMessage,
		result.ReceptionTime,
		result.Timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record submission result: %w", err)
	}

	return nil
}

// GetRunResults возвращает записи журнала одного запуска в порядке добавления
func (db *JournalDB) GetRunResults(runID string) ([]filing.SubmissionResult, error) {
	query := `
		SELECT patent_number, ok, request_id, error_message, reception_time, submitted_at
		FROM submission_journal
		WHERE run_id = ?
		ORDER BY id
	`

	rows, err := db.conn.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query submission journal: %w", err)
	}
	defer rows.Close()

	var results []filing.SubmissionResult
	for rows.Next() {
		var result filing.SubmissionResult
		var ok int
		var submittedAt string

		if err := rows.Scan(&result.PatentNumber, &ok, &result.RequestID, &result.ErrorMessage, &result.ReceptionTime, &submittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}

		result.OK = ok != 0
		if ts, err := time.Parse(time.RFC3339, submittedAt); err == nil {
			result.Timestamp = ts
		}

		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal rows: %w", err)
	}

	return results, nil
}

// CountRunResults возвращает число успешных и неуспешных записей запуска
func (db *JournalDB) CountRunResults(runID string) (succeeded, failed int, err error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN ok = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN ok = 0 THEN 1 ELSE 0 END), 0)
		FROM submission_journal
		WHERE run_id = ?
	`

	if err := db.conn.QueryRow(query, runID).Scan(&succeeded, &failed); err != nil {
		return 0, 0, fmt.Errorf("failed to count journal results: %w", err)
	}

	return succeeded, failed, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
