// Package postgres implements the file index on a PostgreSQL table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"
	"github.com/syntrixbase/filecatalog/internal/core/index"
	"github.com/syntrixbase/filecatalog/pkg/model"
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Store is an index.Store over one table.
type Store struct {
	db    *sql.DB
	table string
}

var _ index.Store = (*Store)(nil)

// NewStore creates a Store on table, which must be a plain identifier.
func NewStore(db *sql.DB, table string) (*Store, error) {
	if table == "" {
		table = "files"
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}
	return &Store{db: db, table: table}, nil
}

// EnsureSchema creates the table and its name index if they don't exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	schema := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
    id       TEXT PRIMARY KEY,
    name     TEXT NOT NULL,
    path     TEXT NOT NULL,
    size     BIGINT NOT NULL DEFAULT 0,
    tags     TEXT[] NOT NULL DEFAULT '{}',
    version  BIGINT NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_%[1]s_name ON %[1]s(name, id);
`, s.table)
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) Get(ctx context.Context, id string) (*model.FileRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, path, size, tags, version FROM `+s.table+` WHERE id = $1`, id)
	return scanRecord(row)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*model.FileRecord, error) {
	var r model.FileRecord
	err := row.Scan(&r.ID, &r.Name, &r.Path, &r.Size, pq.Array(&r.Tags), &r.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, model.WrapError(err)
	}
	return r.Normalize(), nil
}

func (s *Store) insertSQL() string {
	return `INSERT INTO ` + s.table + ` (id, name, path, size, tags, version)
		VALUES ($1, $2, $3, $4, $5, 1)
		ON CONFLICT (id) DO NOTHING`
}

func insertArgs(rec *model.FileRecord) []any {
	// PostgreSQL doesn't accept NULL for the NOT NULL array column
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	return []any{rec.ID, rec.Name, rec.Path, rec.Size, pq.Array(tags)}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insert(ctx context.Context, db execer, rec *model.FileRecord) (bool, error) {
	res, err := db.ExecContext(ctx, s.insertSQL(), insertArgs(rec)...)
	if err != nil {
		return false, model.WrapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) CreateIfAbsent(ctx context.Context, rec *model.FileRecord) (bool, error) {
	return s.insert(ctx, s.db, rec)
}

// BulkCreateIfAbsent inserts the batch in one transaction. A statement error
// rolls back the batch and every record is reported as failed.
func (s *Store) BulkCreateIfAbsent(ctx context.Context, recs []*model.FileRecord) (index.BulkResult, error) {
	var res index.BulkResult
	if len(recs) == 0 {
		return res, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return index.BulkResult{Failed: len(recs)}, model.WrapError(err)
	}
	for _, rec := range recs {
		created, err := s.insert(ctx, tx, rec)
		if err != nil {
			_ = tx.Rollback()
			return index.BulkResult{Failed: len(recs)}, fmt.Errorf("bulk insert %s: %w", rec.ID, err)
		}
		if created {
			res.Created++
		} else {
			res.Skipped++
		}
	}
	if err := tx.Commit(); err != nil {
		return index.BulkResult{Failed: len(recs)}, model.WrapError(err)
	}
	return res, nil
}

func (s *Store) UpdatePartial(ctx context.Context, id string, patch index.Patch, opts index.UpdateOptions) error {
	ctx, cancel := index.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	tags := patch.Tags
	if tags == nil {
		tags = []string{}
	}

	// A single statement commits before returning, so WaitForRefresh needs
	// nothing extra here.
	var (
		res sql.Result
		err error
	)
	if opts.ExpectedVersion > 0 {
		res, err = s.db.ExecContext(ctx,
			`UPDATE `+s.table+` SET tags = $1, version = version + 1 WHERE id = $2 AND version = $3`,
			pq.Array(tags), id, opts.ExpectedVersion)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE `+s.table+` SET tags = $1, version = version + 1 WHERE id = $2`,
			pq.Array(tags), id)
	}
	if err != nil {
		return model.WrapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM `+s.table+` WHERE id = $1)`, id).Scan(&exists); err != nil {
		return model.WrapError(err)
	}
	if !exists {
		return model.ErrNotFound
	}
	return model.ErrConflict
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds an ILIKE substring pattern with wildcards in text escaped.
func likePattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}

func (s *Store) SearchByName(ctx context.Context, text string, offset, limit int) ([]*model.FileRecord, error) {
	out := []*model.FileRecord{}
	if limit <= 0 {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, path, size, tags, version FROM `+s.table+`
		WHERE name ILIKE $1 ESCAPE '\'
		ORDER BY name, id
		OFFSET $2 LIMIT $3`, likePattern(text), offset, limit)
	if err != nil {
		return nil, model.WrapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, model.WrapError(err)
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}
