package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql" // registers "mysql"
	_ "modernc.org/sqlite"             // registers "sqlite"

	"github.com/okian/podium/internal/domain/model"
)

// Driver names accepted by NewSQL.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// SQLSource reads the dataset columns from a single table.
type SQLSource struct {
	db      *sql.DB
	driver  string
	table   string
	columns []string
}

// NewSQL opens a database handle. The connection is established lazily on
// the first Fetch, so an unreachable server surfaces as ErrOpen there.
func NewSQL(driver, dsn, table string, columns []string) (*SQLSource, error) {
	switch driver {
	case DriverSQLite, DriverMySQL:
	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", ErrOpen, driver)
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%w: %s dsn is required", ErrOpen, driver)
	}
	if strings.TrimSpace(table) == "" || len(columns) == 0 {
		return nil, fmt.Errorf("%w: table and columns are required", ErrQuery)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	return &SQLSource{db: db, driver: driver, table: table, columns: columns}, nil
}

// Name identifies the source in logs.
func (s *SQLSource) Name() string {
	return s.driver + ":" + s.table
}

// Close releases the database handle.
func (s *SQLSource) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Fetch selects the configured columns from every row of the table.
func (s *SQLSource) Fetch(ctx context.Context) ([]model.RawRow, error) {
	if err := s.db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}

	quoted := make([]string, len(s.columns))
	for i, c := range s.columns {
		quoted[i] = s.quote(c)
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), s.quote(s.table))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.RawRow
	for rows.Next() {
		values := make([]any, len(s.columns))
		ptrs := make([]any, len(s.columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", ErrQuery, err)
		}
		row := make(model.RawRow, len(s.columns))
		for i, c := range s.columns {
			row[c] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	return out, nil
}

// quote escapes an identifier for the active driver.
func (s *SQLSource) quote(ident string) string {
	if s.driver == DriverMySQL {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
