package docshift

import (
	"database/sql"
	"github.com/denismitr/docshift/internal/docdb/sqldoc"
	"time"
)

type mysqlOptions struct {
	charset string
}

type MySQLOptionFunc func(*mysqlOptions, *ConnectOptions)

// UseMySQL stores documents in JSON columns of a MySQL 8 database
func UseMySQL(db *sql.DB, options ...MySQLOptionFunc) OptionFunc {
	return func(m *Migrator) error {
		mysqlOpts := &mysqlOptions{charset: sqldoc.DefaultMySQLCharset}
		connectOpts := newDefaultConnectOptions()

		for _, oFunc := range options {
			oFunc(mysqlOpts, connectOpts)
		}

		m.connect = sqlConnector(db, sqldoc.NewMySQLDialect(mysqlOpts.charset), connectOpts)

		return nil
	}
}

func WithMySQLCharset(charset string) MySQLOptionFunc {
	return func(mysqlOpts *mysqlOptions, connectOpts *ConnectOptions) {
		mysqlOpts.charset = charset
	}
}

func WithMySQLConnectionTimeout(timeout time.Duration) MySQLOptionFunc {
	return func(mysqlOpts *mysqlOptions, connectOpts *ConnectOptions) {
		connectOpts.MaxTimeout = timeout
	}
}

func WithMySQLMaxConnectionAttempts(attempts int) MySQLOptionFunc {
	return func(mysqlOpts *mysqlOptions, connectOpts *ConnectOptions) {
		connectOpts.MaxAttempts = attempts
	}
}
