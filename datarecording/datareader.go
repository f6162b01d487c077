package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"strings"
)

// QueryParams narrows and orders the rows that Query returns.
type QueryParams struct {
	// Where is a condition without the WHERE keyword, for example
	// "Cache = ?". Placeholders are bound to Args.
	Where string
	Args  []any

	// Limit caps the number of rows. Zero means no limit. Offset is only
	// applied together with a limit.
	Limit  int
	Offset int

	// OrderBy is an ordering without the ORDER BY keywords, for example
	// "Access DESC".
	OrderBy string
}

// DataReader reads back the tables that a DataRecorder wrote.
type DataReader interface {
	// MapTable tells the reader which struct a table's rows decode into.
	MapTable(table string, sampleEntry any)

	// Tables lists the tables stored in the database.
	Tables(ctx context.Context) ([]string, error)

	// Query returns pointers to decoded rows and the number of rows that
	// match params before the limit is applied.
	Query(ctx context.Context, table string, params QueryParams) (
		rows []any,
		total int,
		err error,
	)

	Close() error
}

type sqliteReader struct {
	db      *sql.DB
	typeMap map[string]reflect.Type
}

// NewReader opens an existing database file for reading.
func NewReader(path string) (DataReader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	return &sqliteReader{
		db:      db,
		typeMap: make(map[string]reflect.Type),
	}, nil
}

func (r *sqliteReader) MapTable(table string, sampleEntry any) {
	r.typeMap[table] = reflect.TypeOf(sampleEntry)
}

func (r *sqliteReader) Tables(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}

		tables = append(tables, name)
	}

	return tables, rows.Err()
}

func (r *sqliteReader) Query(
	ctx context.Context,
	table string,
	params QueryParams,
) ([]any, int, error) {
	structType, ok := r.typeMap[table]
	if !ok {
		return nil, 0, fmt.Errorf("table %s is not mapped", table)
	}

	where := ""
	if params.Where != "" {
		where = " WHERE " + params.Where
	}

	var total int

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+table+where, params.Args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	var stmt strings.Builder

	stmt.WriteString("SELECT * FROM " + table + where)

	if params.OrderBy != "" {
		stmt.WriteString(" ORDER BY " + params.OrderBy)
	}

	if params.Limit > 0 {
		fmt.Fprintf(&stmt, " LIMIT %d OFFSET %d", params.Limit, params.Offset)
	}

	rows, err := r.db.QueryContext(ctx, stmt.String(), params.Args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results, err := decodeRows(rows, structType)
	if err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

// decodeRows fills one new struct per row, matching columns to fields by
// name. Columns without a field are skipped.
func decodeRows(rows *sql.Rows, structType reflect.Type) ([]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []any

	for rows.Next() {
		entry := reflect.New(structType)
		targets := make([]any, len(columns))

		for i, col := range columns {
			field := entry.Elem().FieldByName(col)
			if field.IsValid() {
				targets[i] = field.Addr().Interface()
			} else {
				targets[i] = new(any)
			}
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}

		results = append(results, entry.Interface())
	}

	return results, rows.Err()
}

func (r *sqliteReader) Close() error {
	return r.db.Close()
}
