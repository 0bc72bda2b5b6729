package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/go-sql-driver/mysql"

	"github.com/fabrikdata/fabrik/internal/types"
)

type MySQLAdapter struct {
	db *sql.DB
	qb squirrel.StatementBuilderType
}

func NewMySQLAdapter() *MySQLAdapter {
	return &MySQLAdapter{
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

func (m *MySQLAdapter) Connect(ctx context.Context, url string) error {
	db, err := sql.Open("mysql", url)
	if err != nil {
		return fmt.Errorf("failed to open mysql connection: %w", err)
	}

	db.SetMaxOpenConns(2)
	db.SetConnMaxLifetime(15 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping mysql: %w", err)
	}

	m.db = db
	return nil
}

func (m *MySQLAdapter) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

func (m *MySQLAdapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *MySQLAdapter) CreateTable(ctx context.Context, table types.TableSchema) error {
	if err := validateTable(table); err != nil {
		return err
	}
	_, err := m.db.ExecContext(ctx, renderCreateTable(table, mysqlColumnType))
	return err
}

func (m *MySQLAdapter) InsertRows(ctx context.Context, table types.TableSchema, rows []types.Row) error {
	if len(rows) == 0 {
		return nil
	}
	if err := validateTable(table); err != nil {
		return err
	}

	columns := columnOrder(table)
	builder := m.qb.Insert(table.Name).Columns(columns...)
	for _, row := range rows {
		values := make([]interface{}, len(columns))
		for i, name := range columns {
			values[i] = row[name]
		}
		builder = builder.Values(values...)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert for %s: %w", table.Name, err)
	}
	if _, err := m.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table.Name, err)
	}
	return nil
}
