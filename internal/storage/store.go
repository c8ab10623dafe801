// Package storage is the read-only access layer over the inventory database.
// Callers pass filter queries; the store compiles them, checks out a pooled
// connection for the duration of one query and returns raw rows.
package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql" // mysql driver
	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver, registered as "pgx"
	_ "modernc.org/sqlite"             // Pure Go SQLite driver

	"govinv/internal/errors"
	"govinv/internal/filter"
)

// Options selects and tunes the database connection.
type Options struct {
	Driver       string // sqlite, postgres, mysql
	Path         string // sqlite file
	DSN          string // postgres/mysql
	MaxOpenConns int
	QueryTimeout time.Duration
	// Writable opens sqlite without mode=ro. Only schema setup uses it.
	Writable bool
}

// Querier is the read surface services depend on. *Store implements it.
type Querier interface {
	Query(ctx context.Context, q filter.Query) ([]Row, error)
	Count(ctx context.Context, q filter.Count) (int, error)
}

// Store is an explicit handle over a connection pool. It is safe for
// concurrent use and holds no other state.
type Store struct {
	db      *sql.DB
	dialect filter.Dialect
	timeout time.Duration
	logger  *slog.Logger
}

// Open connects to the configured database and verifies it with a ping.
// Any failure is reported as StoreUnavailable.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*Store, error) {
	driverName, dsn, dialect, err := resolveDriver(opts)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.NewStoreUnavailable(err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxOpenConns)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.NewStoreUnavailable(err)
	}

	timeout := opts.QueryTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	logger.Debug("Inventory store opened",
		"driver", opts.Driver,
		"dialect", string(dialect),
	)

	return &Store{db: db, dialect: dialect, timeout: timeout, logger: logger}, nil
}

func resolveDriver(opts Options) (driverName, dsn string, dialect filter.Dialect, err error) {
	switch opts.Driver {
	case "", "sqlite":
		if opts.Path == "" {
			return "", "", "", errors.NewStoreUnavailable(fmt.Errorf("no sqlite path configured"))
		}
		if !opts.Writable {
			if _, statErr := os.Stat(opts.Path); statErr != nil {
				return "", "", "", errors.NewStoreUnavailable(statErr)
			}
		}
		return "sqlite", sqliteDSN(opts.Path, opts.Writable), filter.SQLite, nil
	case "postgres":
		return "pgx", opts.DSN, filter.Postgres, nil
	case "mysql":
		return "mysql", opts.DSN, filter.MySQL, nil
	default:
		return "", "", "", errors.NewInvalidEnum("store.driver", opts.Driver, []string{"sqlite", "postgres", "mysql"})
	}
}

func sqliteDSN(path string, writable bool) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	if writable {
		q.Add("_pragma", "foreign_keys(1)")
	} else {
		q.Set("mode", "ro")
	}
	return "file:" + path + "?" + q.Encode()
}

// Close closes the connection pool
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Dialect returns the SQL dialect queries are compiled for.
func (s *Store) Dialect() filter.Dialect {
	return s.dialect
}

// DB returns the underlying pool. Engine code never writes through it.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return errors.NewStoreUnavailable(err)
	}
	return nil
}

// Query compiles q and returns every resulting row in order.
func (s *Store) Query(ctx context.Context, q filter.Query) ([]Row, error) {
	sqlText, args, err := filter.Compile(q, s.dialect)
	if err != nil {
		return nil, errors.NewQueryFailed("compile query", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, errors.NewStoreUnavailable(err)
	}
	defer conn.Close()

	start := time.Now()
	rows, err := conn.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, classify(err)
	}

	s.logger.Debug("Query executed",
		"sql", sqlText,
		"args", len(args),
		"rows", len(out),
		"durationMs", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// Count runs a count query and returns the number.
func (s *Store) Count(ctx context.Context, q filter.Count) (int, error) {
	rows, err := s.Query(ctx, q)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Int("count"), nil
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// classify maps a driver error to StoreUnavailable for connection-level
// failures and QueryFailed otherwise.
func classify(err error) error {
	var netErr net.Error
	switch {
	case stderrors.Is(err, driver.ErrBadConn), stderrors.Is(err, sql.ErrConnDone), stderrors.As(err, &netErr):
		return errors.NewStoreUnavailable(err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewQueryFailed("query timed out", err)
	default:
		return errors.NewQueryFailed("query", err)
	}
}
