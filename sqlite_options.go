package docshift

import (
	"database/sql"
	"github.com/denismitr/docshift/internal/docdb/sqldoc"
	"time"
)

type ConnectOptionFunc func(*ConnectOptions)

func UseSqlite(db *sql.DB, options ...ConnectOptionFunc) OptionFunc {
	return useSQL(db, sqldoc.NewSqliteDialect(), options)
}

func UsePostgres(db *sql.DB, options ...ConnectOptionFunc) OptionFunc {
	return useSQL(db, sqldoc.NewPostgresDialect(), options)
}

func useSQL(db *sql.DB, d sqldoc.Dialect, options []ConnectOptionFunc) OptionFunc {
	return func(m *Migrator) error {
		connectOpts := newDefaultConnectOptions()
		for _, oFunc := range options {
			oFunc(connectOpts)
		}

		m.connect = sqlConnector(db, d, connectOpts)

		return nil
	}
}

func WithConnectionTimeout(timeout time.Duration) ConnectOptionFunc {
	return func(connectOpts *ConnectOptions) {
		connectOpts.MaxTimeout = timeout
	}
}

func WithMaxConnectionAttempts(attempts int) ConnectOptionFunc {
	return func(connectOpts *ConnectOptions) {
		connectOpts.MaxAttempts = attempts
	}
}
