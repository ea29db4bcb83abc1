package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"clientfiles/internal/repository"
)

// Store is a PostgreSQL implementation of repository.Store.
// It uses database/sql with parameterized queries and contains no business logic.
type Store struct {
	db *sql.DB
}

// NewStore creates a new PostgreSQL-backed remote store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

var _ repository.Store = (*Store)(nil)

// Insert adds one row.
func (s *Store) Insert(ctx context.Context, table repository.Table, values repository.Values) error {
	cols, err := values.Columns(table)
	if err != nil {
		return err
	}
	q, args := insertSQL(table, cols, values)
	_, err = s.db.ExecContext(ctx, q, args...)
	return err
}

// Update patches one row by primary key.
func (s *Store) Update(ctx context.Context, table repository.Table, id string, values repository.Values) error {
	cols, err := values.Columns(table)
	if err != nil {
		return err
	}
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", c, i+1)
		args = append(args, values[c])
	}
	args = append(args, id)
	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		table, strings.Join(sets, ", "), repository.PrimaryKey(table), len(args))
	_, err = s.db.ExecContext(ctx, q, args...)
	return err
}

// Delete removes a row by primary key. It does not return an error if the row does not exist.
func (s *Store) Delete(ctx context.Context, table repository.Table, id string) error {
	if _, err := repository.CheckColumns(table); err != nil {
		return err
	}
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", table, repository.PrimaryKey(table))
	_, err := s.db.ExecContext(ctx, q, id)
	return err
}

// DeleteWhere removes every row matching column = value.
func (s *Store) DeleteWhere(ctx context.Context, table repository.Table, column string, value any) error {
	if _, err := repository.CheckColumns(table, column); err != nil {
		return err
	}
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", table, column)
	_, err := s.db.ExecContext(ctx, q, value)
	return err
}

// Upsert inserts a row or overwrites its non-key columns when conflictColumn collides.
func (s *Store) Upsert(ctx context.Context, table repository.Table, conflictColumn string, values repository.Values) error {
	cols, err := values.Columns(table)
	if err != nil {
		return err
	}
	if _, err := repository.CheckColumns(table, conflictColumn); err != nil {
		return err
	}
	q, args := insertSQL(table, cols, values)
	var sets []string
	for _, c := range cols {
		if c != conflictColumn {
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
		}
	}
	if len(sets) == 0 {
		q += fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", conflictColumn)
	} else {
		q += fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", conflictColumn, strings.Join(sets, ", "))
	}
	_, err = s.db.ExecContext(ctx, q, args...)
	return err
}

func insertSQL(table repository.Table, cols []string, values repository.Values) (string, []any) {
	marks := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		marks[i] = fmt.Sprintf("$%d", i+1)
		args[i] = values[c]
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(marks, ", "))
	return q, args
}
