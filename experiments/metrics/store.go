package metrics

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store persists experiment records in SQLite
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path, creating the
// parent directories and the schema if needed.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS experiments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			time_control TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS games (
			experiment_id INTEGER NOT NULL REFERENCES experiments(id),
			game INTEGER NOT NULL,
			white INTEGER NOT NULL,
			black INTEGER NOT NULL,
			winner TEXT NOT NULL DEFAULT '',
			flagged TEXT NOT NULL DEFAULT '',
			total_moves INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			PRIMARY KEY (experiment_id, game)
		);

		CREATE TABLE IF NOT EXISTS moves (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			experiment_id INTEGER NOT NULL REFERENCES experiments(id),
			game INTEGER NOT NULL,
			step INTEGER NOT NULL,
			player TEXT NOT NULL,
			clock_before INTEGER NOT NULL,
			clock_after INTEGER NOT NULL,
			optimum INTEGER NOT NULL,
			maximum INTEGER NOT NULL,
			available INTEGER NOT NULL,
			elapsed INTEGER NOT NULL,
			depth INTEGER NOT NULL,
			nodes INTEGER NOT NULL,
			stopped_by TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_moves_game ON moves(experiment_id, game);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveExperiment stores all records of one experiment in a single
// transaction and returns the experiment ID.
func (s *Store) SaveExperiment(name, timeControl string, games []GameRecord, moves []MoveRecord) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("INSERT INTO experiments (name, time_control) VALUES (?, ?)", name, timeControl)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save experiment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	for _, g := range games {
		_, err = tx.Exec(
			`INSERT INTO games (experiment_id, game, white, black, winner, flagged, total_moves, duration_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, g.ID, g.White, g.Black, g.Winner, g.Flagged, g.TotalMoves, g.Duration.Milliseconds(),
		)
		if err != nil {
			return 0, fmt.Errorf("storage: cannot save game %d: %w", g.ID, err)
		}
	}

	stmt, err := tx.Prepare(
		`INSERT INTO moves (experiment_id, game, step, player, clock_before, clock_after,
		                    optimum, maximum, available, elapsed, depth, nodes, stopped_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot prepare move insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range moves {
		_, err = stmt.Exec(id, m.Game, m.Step, m.Player, m.ClockBefore, m.ClockAfter,
			m.Optimum, m.Maximum, m.Available, m.Elapsed, m.Depth, m.Nodes, m.StoppedBy)
		if err != nil {
			return 0, fmt.Errorf("storage: cannot save move %d of game %d: %w", m.Step, m.Game, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage: cannot commit experiment: %w", err)
	}
	return id, nil
}

// RecentMoves returns the last limit moves stored, newest first
func (s *Store) RecentMoves(limit int) ([]MoveRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT game, step, player, clock_before, clock_after, optimum, maximum,
		        available, elapsed, depth, nodes, stopped_by
		 FROM moves
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query moves: %w", err)
	}
	defer rows.Close()

	var records []MoveRecord
	for rows.Next() {
		var r MoveRecord
		if err := rows.Scan(&r.Game, &r.Step, &r.Player, &r.ClockBefore, &r.ClockAfter, &r.Optimum,
			&r.Maximum, &r.Available, &r.Elapsed, &r.Depth, &r.Nodes, &r.StoppedBy); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return records, nil
}

// FlagCount returns how many games of an experiment were lost on time
func (s *Store) FlagCount(experimentID int64) (int, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM games WHERE experiment_id = ? AND flagged != ''",
		experimentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot count flags: %w", err)
	}
	return count, nil
}
