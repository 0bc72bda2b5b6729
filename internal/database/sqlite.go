package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/fabrikdata/fabrik/internal/types"
)

type SQLiteAdapter struct {
	db *sql.DB
	qb squirrel.StatementBuilderType
}

func NewSQLiteAdapter() *SQLiteAdapter {
	return &SQLiteAdapter{
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

func (s *SQLiteAdapter) Connect(ctx context.Context, url string) error {
	db, err := sql.Open("sqlite3", url)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// Single writer; sqlite locks the whole file anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

func (s *SQLiteAdapter) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteAdapter) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteAdapter) CreateTable(ctx context.Context, table types.TableSchema) error {
	if err := validateTable(table); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, renderCreateTable(table, sqliteColumnType))
	return err
}

// InsertRows inserts one row at a time inside a transaction. Multi-row
// statements gain little here and blow past sqlite's variable limit fast.
func (s *SQLiteAdapter) InsertRows(ctx context.Context, table types.TableSchema, rows []types.Row) error {
	if len(rows) == 0 {
		return nil
	}
	if err := validateTable(table); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	columns := columnOrder(table)
	for _, row := range rows {
		values := make([]interface{}, len(columns))
		for i, name := range columns {
			values[i] = row[name]
		}
		query, args, err := s.qb.Insert(table.Name).Columns(columns...).Values(values...).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build insert for %s: %w", table.Name, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table.Name, err)
		}
	}

	return tx.Commit()
}
