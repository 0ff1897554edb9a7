package dbhost

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xycloo/zephyr-vm-go/host/wire"
)

// PostgresBackend is the default production Backend, storing each logical
// table as a physical table named zephyr_<hex16(digest)> with BYTEA
// columns named after the caller-supplied column symbol.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend wraps an already-connected pool.
func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

func physicalTableName(digest [16]byte) string {
	return "zephyr_" + hex.EncodeToString(digest[:])
}

func columnName(sym int64) string {
	if name, err := symbolDecodeSafe(sym); err == nil {
		return name
	}
	return fmt.Sprintf("c%d", sym)
}

func symbolDecodeSafe(sym int64) (string, error) {
	return symbolName(sym), nil
}

func (b *PostgresBackend) ensureTable(ctx context.Context, digest [16]byte, columns []int64) error {
	table := physicalTableName(digest)
	cols := make([]string, 0, len(columns))
	for _, c := range columns {
		cols = append(cols, fmt.Sprintf("%s BYTEA", columnName(c)))
	}
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(cols, ", "))
	_, err := b.pool.Exec(ctx, stmt)
	return err
}

func (b *PostgresBackend) Write(tenant int64, digest [16]byte, row Row) error {
	ctx := context.Background()
	if err := b.ensureTable(ctx, digest, row.Columns); err != nil {
		return fmt.Errorf("dbhost/postgres: ensure table: %w", err)
	}

	names := make([]string, 0, len(row.Columns))
	placeholders := make([]string, 0, len(row.Columns))
	args := make([]any, 0, len(row.Columns))
	for i, c := range row.Columns {
		names = append(names, columnName(c))
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, row.Values[i])
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		physicalTableName(digest), strings.Join(names, ", "), strings.Join(placeholders, ", "))

	_, err := b.pool.Exec(ctx, stmt, args...)
	return err
}

func (b *PostgresBackend) Update(tenant int64, digest [16]byte, row Row, preds []Predicate) error {
	ctx := context.Background()
	if err := b.ensureTable(ctx, digest, row.Columns); err != nil {
		return fmt.Errorf("dbhost/postgres: ensure table: %w", err)
	}

	sets := make([]string, 0, len(row.Columns))
	args := make([]any, 0, len(row.Columns)+len(preds))
	i := 1
	for idx, c := range row.Columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", columnName(c), i))
		args = append(args, row.Values[idx])
		i++
	}

	where, whereArgs := buildWhere(preds, &i)
	args = append(args, whereArgs...)

	stmt := fmt.Sprintf("UPDATE %s SET %s", physicalTableName(digest), strings.Join(sets, ", "))
	if where != "" {
		stmt += " WHERE " + where
	}

	_, err := b.pool.Exec(ctx, stmt, args...)
	return err
}

func (b *PostgresBackend) Read(tenant int64, digest [16]byte, columns []int64, preds []Predicate) ([]byte, error) {
	ctx := context.Background()

	names := make([]string, 0, len(columns))
	for _, c := range columns {
		names = append(names, columnName(c))
	}

	i := 1
	where, args := buildWhere(preds, &i)

	stmt := fmt.Sprintf("SELECT %s FROM %s", strings.Join(names, ", "), physicalTableName(digest))
	if where != "" {
		stmt += " WHERE " + where
	}

	rows, err := b.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	encoded, err := encodeRows(rows, len(names))
	if err != nil {
		return nil, err
	}
	return encoded, nil
}

func encodeRows(rows pgx.Rows, numColumns int) ([]byte, error) {
	var out []*wire.Row
	for rows.Next() {
		raw, err := rows.Values()
		if err != nil {
			return nil, err
		}
		values := make([][]byte, numColumns)
		for i, v := range raw {
			if b, ok := v.([]byte); ok {
				values[i] = b
			}
		}
		out = append(out, &wire.Row{Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return wire.MarshalRowSet(out)
}

func operatorSQL(op Operator) string {
	switch op {
	case OpEqual:
		return "="
	case OpGT:
		return ">"
	case OpLT:
		return "<"
	default:
		return "="
	}
}

func buildWhere(preds []Predicate, nextArg *int) (string, []any) {
	if len(preds) == 0 {
		return "", nil
	}
	clauses := make([]string, 0, len(preds))
	args := make([]any, 0, len(preds))
	for _, p := range preds {
		clauses = append(clauses, fmt.Sprintf("%s %s $%d", columnName(p.Column), operatorSQL(p.Operator), *nextArg))
		args = append(args, p.Value)
		*nextArg++
	}
	return strings.Join(clauses, " AND "), args
}
