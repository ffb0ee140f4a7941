package dataset

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps one row per training sample. Save replaces the whole
// table in a single transaction.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path. Use ":memory:" for
// a throwaway store.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// a single connection keeps ":memory:" databases alive across calls
	db.SetMaxOpenConns(1)

	s, err := NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an open database and creates the schema if needed.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate dataset schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
    CREATE TABLE IF NOT EXISTS training_samples (
        id INTEGER PRIMARY KEY,
        ph REAL NOT NULL,
        temperature REAL NOT NULL,
        conductivity REAL NOT NULL,
        oxygen REAL NOT NULL,
        turbidity REAL NOT NULL,
        label TEXT NOT NULL
    );`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

func (s *SQLiteStore) Load(ctx context.Context) (Dataset, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT ph, temperature, conductivity, oxygen, turbidity, label
        FROM training_samples
        ORDER BY id
    `)
	if err != nil {
		return Dataset{}, fmt.Errorf("query training samples: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ds Dataset
	for rows.Next() {
		row := make([]float64, 5)
		var label string
		if err := rows.Scan(&row[0], &row[1], &row[2], &row[3], &row[4], &label); err != nil {
			return Dataset{}, fmt.Errorf("scan training sample: %w", err)
		}
		ds.X = append(ds.X, row)
		ds.Y = append(ds.Y, label)
	}
	if err := rows.Err(); err != nil {
		return Dataset{}, err
	}
	if ds.Len() == 0 {
		return Dataset{}, ErrNotFound
	}
	return ds, nil
}

func (s *SQLiteStore) Save(ctx context.Context, ds Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM training_samples`); err != nil {
		return fmt.Errorf("clear training samples: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO training_samples (
		id, ph, temperature, conductivity, oxygen, turbidity, label
	) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, row := range ds.X {
		if _, err := stmt.ExecContext(ctx, i, row[0], row[1], row[2], row[3], row[4], ds.Y[i]); err != nil {
			return fmt.Errorf("insert training sample %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit training samples: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
