// Package docshift applies timestamp ordered migrations to a document
// database and keeps track of them in a ledger table.
package docshift

import (
	"context"
	"github.com/denismitr/docshift/docdb"
	"github.com/denismitr/docshift/event"
	"github.com/denismitr/docshift/internal/ledger"
	"github.com/denismitr/docshift/internal/logger"
	"github.com/denismitr/docshift/internal/retry"
	"github.com/denismitr/docshift/internal/runner"
	"github.com/denismitr/docshift/internal/schedule"
	"github.com/denismitr/docshift/internal/source"
	"github.com/denismitr/docshift/migration"
	"github.com/pkg/errors"
	"time"
)

var ErrHandleNotInitialized = errors.New("database handle has not been initialized")

const defaultWaitStep = 250 * time.Millisecond

type CloserFunc func() error

type connector func(lg logger.Logger) (docdb.Handle, CloserFunc, error)

type sourceFactory func(lg logger.Logger) (source.Source, string)

// Migrator runs migrations of one source against one database. Two migrators
// must not run against the same ledger at the same time, nothing prevents
// them from applying the same migrations twice.
type Migrator struct {
	lg        logger.Logger
	connect   connector
	db        docdb.Handle
	closerFns []CloserFunc
	newSource sourceFactory
	src       source.Source
	folder    string
	table     string
	observer  event.Observer
	wait      time.Duration
	waitStep  time.Duration
}

// State describes a finished run
type State struct {
	Direction       migration.Direction
	MigrationsTable string
	Folder          string
	Executed        []migration.Unit
}

// NewMigrator creates a migrator from option callbacks. A database handle
// option is required, when no source is given migrations are discovered in
// ./migrations and resolved from the default registry.
func NewMigrator(opts ...OptionFunc) (*Migrator, CloserFunc, error) {
	m := new(Migrator)
	m.lg = &logger.NullLogger{}
	m.table = ledger.DefaultTable
	m.waitStep = defaultWaitStep

	for _, oFunc := range opts {
		if err := oFunc(m); err != nil {
			return nil, nil, err
		}
	}

	if m.connect == nil {
		return nil, nil, &migration.ValidationError{Err: ErrHandleNotInitialized}
	}

	if err := docdb.ValidateIdentifier(m.table); err != nil {
		return nil, nil, &migration.ValidationError{Err: errors.Wrap(err, "migrations table")}
	}

	db, closer, err := m.connect(m.lg)
	if err != nil {
		return nil, nil, &migration.ConnectionError{Err: err}
	}

	m.db = db
	if closer != nil {
		m.closerFns = append(m.closerFns, closer)
	}

	// Default source implementation
	if m.newSource == nil {
		m.newSource = localFolderSource(source.DefaultMigrationsFolder, sourceConfig{registry: migration.DefaultRegistry})
	}

	m.src, m.folder = m.newSource(m.lg)

	m.observer = event.Multi(logger.Observer(m.lg), m.observer)

	return m, m.close, nil
}

// Up runs every migration newer than the latest ledger entry
func (m *Migrator) Up(ctx context.Context) (*State, error) {
	return m.Run(ctx, migration.Up)
}

// Down reverts every migration in the ledger, most recent first
func (m *Migrator) Down(ctx context.Context) (*State, error) {
	return m.Run(ctx, migration.Down)
}

// Run resolves, executes and records migrations of one direction. When a
// migration fails the returned state lists the ones that ran before it and
// the ledger is left as it was.
func (m *Migrator) Run(ctx context.Context, dir migration.Direction) (*State, error) {
	if err := m.waitUntilReady(ctx); err != nil {
		m.lg.Error(err)
		return nil, err
	}

	store, err := ledger.NewStore(m.db, m.table, m.lg)
	if err != nil {
		return nil, &migration.ValidationError{Err: err}
	}

	plan, err := schedule.For(ctx, dir, store, m.src)
	if err != nil {
		m.lg.Error(err)
		return nil, err
	}

	m.observer.Notify(event.Resolved, event.ResolvedPayload{Direction: dir, Count: len(plan.Migrations)})

	state := &State{
		Direction:       dir,
		MigrationsTable: m.table,
		Folder:          m.folder,
	}

	res := runner.Run(ctx, dir, plan.Migrations, m.db, m.observer)
	state.Executed = res.Completed.Units()

	if res.Err != nil {
		m.lg.Error(res.Err)
		return state, res.Err
	}

	if plan.Empty() {
		return state, nil
	}

	if err := m.persist(ctx, dir, res.Completed); err != nil {
		m.lg.Error(err)
		return state, err
	}

	return state, nil
}

func (m *Migrator) persist(ctx context.Context, dir migration.Direction, completed migration.Migrations) error {
	w := ledger.NewWriter(m.db, m.table)

	entries := 0
	if dir == migration.Down {
		if err := w.Clear(ctx); err != nil {
			return err
		}
	} else {
		n, err := w.Record(ctx, completed.Units())
		if err != nil {
			return err
		}
		entries = n
	}

	m.observer.Notify(event.LedgerUpdated, event.LedgerPayload{Direction: dir, Table: m.table, Entries: entries})

	return nil
}

func (m *Migrator) waitUntilReady(ctx context.Context) error {
	if m.wait <= 0 {
		return nil
	}

	p, ok := m.db.(docdb.Pinger)
	if !ok {
		return nil
	}

	err := retry.Within(ctx, m.wait, m.waitStep, func(attempt int) error {
		if err := p.Ping(ctx); err != nil {
			m.lg.Debugf("database is not ready, attempt %d: %s", attempt, err)
			return retry.Error(err, attempt)
		}

		return nil
	})
	if err != nil {
		return &migration.ConnectionError{Err: errors.Wrapf(err, "database was not ready within %s", m.wait)}
	}

	return nil
}

// Source returns the local folder source when the migrator uses one
func (m *Migrator) Source() *source.LocalFolderSource {
	if lfs, ok := m.src.(*source.LocalFolderSource); ok {
		return lfs
	}

	return nil
}

func (m *Migrator) close() error {
	var result error
	for i := len(m.closerFns) - 1; i >= 0; i-- {
		if err := m.closerFns[i](); err != nil {
			m.lg.Error(err)
			if result == nil {
				result = err
			}
		}
	}

	return result
}
