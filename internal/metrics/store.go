// Package metrics keeps local per-command usage counts in SQLite and reports
// them as an OpenTelemetry gauge.
package metrics

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// Command names a tracked CLI operation.
type Command string

const (
	CommandSearch  Command = "search"
	CommandGet     Command = "get"
	CommandSuggest Command = "suggest"
	CommandDocs    Command = "docs"
	CommandIndex   Command = "index"
)

// Commands lists every tracked command in display order.
var Commands = []Command{CommandSearch, CommandGet, CommandSuggest, CommandDocs, CommandIndex}

// Store persists daily usage counts.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultPath is ~/.fluentsearch/stats.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".fluentsearch", "stats.db"), nil
}

// OpenStore opens or creates the database at path, creating parent directories.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create stats directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS command_counts (
			command TEXT NOT NULL,
			index_name TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL,
			count INTEGER NOT NULL DEFAULT 0,
			failures INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (command, index_name, date)
		);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Increment counts one invocation of cmd against index for today.
func (s *Store) Increment(cmd Command, index string, failed bool) error {
	failures := 0
	if failed {
		failures = 1
	}

	_, err := s.db.Exec(`
		INSERT INTO command_counts (command, index_name, date, count, failures)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(command, index_name, date) DO UPDATE SET
			count = count + 1,
			failures = failures + excluded.failures;
	`, string(cmd), index, s.now().Format(dateLayout), failures)
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", cmd, err)
	}
	return nil
}

// Usage is the aggregated count for one command.
type Usage struct {
	Command  Command `json:"command"`
	Count    int64   `json:"count"`
	Failures int64   `json:"failures"`
}

// Totals returns cumulative usage per command. Every known command is present,
// with zero counts when it was never run.
func (s *Store) Totals() (map[Command]Usage, error) {
	out := make(map[Command]Usage, len(Commands))
	for _, cmd := range Commands {
		out[cmd] = Usage{Command: cmd}
	}

	rows, err := s.db.Query(`
		SELECT command, COALESCE(SUM(count), 0), COALESCE(SUM(failures), 0)
		FROM command_counts GROUP BY command
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u Usage
		var name string
		if err := rows.Scan(&name, &u.Count, &u.Failures); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		u.Command = Command(name)
		out[u.Command] = u
	}
	return out, rows.Err()
}

// CountOn returns the invocation count of cmd across indices on date (YYYY-MM-DD).
func (s *Store) CountOn(cmd Command, date string) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		"SELECT COALESCE(SUM(count), 0) FROM command_counts WHERE command = ? AND date = ?",
		string(cmd), date,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get count for %s on %s: %w", cmd, date, err)
	}
	return count, nil
}

// ByIndex returns cumulative invocation counts of all commands grouped by index.
func (s *Store) ByIndex() (map[string]int64, error) {
	rows, err := s.db.Query("SELECT index_name, SUM(count) FROM command_counts GROUP BY index_name")
	if err != nil {
		return nil, fmt.Errorf("failed to query index totals: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var name string
		var total int64
		if err := rows.Scan(&name, &total); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out[name] = total
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
