package docshift

import (
	"context"
	"database/sql"
	"github.com/denismitr/docshift/docdb"
	"github.com/denismitr/docshift/internal/docdb/boltdoc"
	"github.com/denismitr/docshift/internal/docdb/memdb"
	"github.com/denismitr/docshift/internal/docdb/mongodoc"
	"github.com/denismitr/docshift/internal/docdb/sqldoc"
	"github.com/denismitr/docshift/internal/logger"
	"github.com/denismitr/docshift/internal/retry"
	"github.com/denismitr/docshift/migration"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"time"
)

const (
	defaultMaxConnectAttempts = 5
	defaultConnectTimeout     = 10 * time.Second
	defaultConnectStep        = 200 * time.Millisecond
)

type ConnectOptions struct {
	MaxAttempts int
	MaxTimeout  time.Duration
}

func newDefaultConnectOptions() *ConnectOptions {
	return &ConnectOptions{
		MaxAttempts: defaultMaxConnectAttempts,
		MaxTimeout:  defaultConnectTimeout,
	}
}

// UseHandle runs migrations against an already built handle. The migrator
// does not close it.
func UseHandle(db docdb.Handle) OptionFunc {
	return func(m *Migrator) error {
		if db == nil {
			return &migration.ValidationError{Err: ErrHandleNotInitialized}
		}

		m.connect = func(_ logger.Logger) (docdb.Handle, CloserFunc, error) {
			return db, nil, nil
		}

		return nil
	}
}

// UseInMemory keeps tables in process memory, they are gone once the migrator is
func UseInMemory() OptionFunc {
	return UseHandle(memdb.New())
}

// UseBolt stores tables as buckets of the bolt file at path
func UseBolt(path string) OptionFunc {
	return func(m *Migrator) error {
		m.connect = func(_ logger.Logger) (docdb.Handle, CloserFunc, error) {
			h, err := boltdoc.Open(path)
			if err != nil {
				return nil, nil, err
			}

			return h, h.Close, nil
		}

		return nil
	}
}

// UseMongo maps tables to collections of database. The client is
// disconnected when the migrator is closed.
func UseMongo(client *mongo.Client, database string) OptionFunc {
	return func(m *Migrator) error {
		if database == "" {
			return &migration.ValidationError{Err: mongodoc.ErrNoDatabase}
		}

		m.connect = func(lg logger.Logger) (docdb.Handle, CloserFunc, error) {
			h := mongodoc.New(client, database, lg)
			return h, h.Close, nil
		}

		return nil
	}
}

func sqlConnector(db *sql.DB, d sqldoc.Dialect, connectOpts *ConnectOptions) connector {
	return func(lg logger.Logger) (docdb.Handle, CloserFunc, error) {
		if db == nil {
			return nil, nil, ErrHandleNotInitialized
		}

		ctx, cancel := context.WithTimeout(context.Background(), connectOpts.MaxTimeout)
		defer cancel()

		err := retry.Incremental(ctx, defaultConnectStep, connectOpts.MaxAttempts, func(attempt int) error {
			if err := db.PingContext(ctx); err != nil {
				lg.Debugf("could not ping %s, attempt %d: %s", d.DriverName(), attempt, err)
				return retry.Error(err, attempt)
			}

			return nil
		})
		if err != nil {
			if closeErr := db.Close(); closeErr != nil {
				lg.Error(closeErr)
			}

			return nil, nil, errors.Wrapf(err, "could not connect to %s", d.DriverName())
		}

		h := sqldoc.Wrap(db, d, lg)
		return h, h.Close, nil
	}
}
