package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alphabot-ai/boxshare/internal/model"

	_ "modernc.org/sqlite"
)

// Snapshot keeps the box collection in a sqlite table. Every Save replaces
// the table contents in one transaction.
type Snapshot struct {
	db *sql.DB
}

func Open(path string) (*Snapshot, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Snapshot{db: db}, nil
}

func (s *Snapshot) Close() error {
	return s.db.Close()
}

// migrations is an ordered list of SQL migrations.
// Each migration runs exactly once, tracked by schema_version table.
var migrations = []string{
	`
CREATE TABLE IF NOT EXISTS boxes (
	position INTEGER NOT NULL,
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	author TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL,
	code TEXT,
	file_path TEXT,
	is_flagged INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_boxes_position ON boxes(position);
`,
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return err
	}

	var currentVersion int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	for i := currentVersion; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, i+1); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
	}

	return nil
}

func (s *Snapshot) Load(ctx context.Context) ([]model.Box, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, title, author, type, code, file_path, is_flagged, created_at
FROM boxes
ORDER BY position ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	boxes := []model.Box{}
	for rows.Next() {
		var (
			b         model.Box
			boxType   string
			code      sql.NullString
			filePath  sql.NullString
			flagged   int
			createdAt int64
		)
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &boxType, &code, &filePath, &flagged, &createdAt); err != nil {
			return nil, err
		}
		b.Type = model.BoxType(boxType)
		b.Code = code.String
		b.FilePath = filePath.String
		b.IsFlagged = flagged == 1
		b.CreatedAt = time.UnixMilli(createdAt).UTC()
		boxes = append(boxes, b)
	}
	return boxes, rows.Err()
}

func (s *Snapshot) Save(ctx context.Context, boxes []model.Box) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM boxes`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO boxes (position, id, title, author, type, code, file_path, is_flagged, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, b := range boxes {
		if _, err := stmt.ExecContext(ctx, i, b.ID, b.Title, b.Author, string(b.Type),
			nullIfEmpty(b.Code), nullIfEmpty(b.FilePath), boolToInt(b.IsFlagged), b.CreatedAt.UnixMilli()); err != nil {
			return fmt.Errorf("insert box %s: %w", b.ID, err)
		}
	}
	return tx.Commit()
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
