package docshift

import (
	"github.com/denismitr/docshift/event"
	"github.com/denismitr/docshift/internal/logger"
	"time"
)

type OptionFunc func(*Migrator) error

func UseColorLogger(p logger.Printer, printSql, printDebug bool) OptionFunc {
	return func(m *Migrator) error {
		m.lg = logger.NewColorLogger(p, printSql, printDebug)
		return nil
	}
}

func UseLogger(p logger.Printer, printSql, printDebug bool) OptionFunc {
	return func(m *Migrator) error {
		m.lg = logger.NewBWLogger(p, printSql, printDebug)
		return nil
	}
}

// UseObserver registers an observer of run milestones,
// it is notified after the logger.
func UseObserver(o event.Observer) OptionFunc {
	return func(m *Migrator) error {
		m.observer = o
		return nil
	}
}

// WithMigrationsTable changes the name of the ledger table
func WithMigrationsTable(table string) OptionFunc {
	return func(m *Migrator) error {
		m.table = table
		return nil
	}
}

// WithReadinessWait makes every run ping the database until it answers
// or timeout elapses. Zero disables the wait.
func WithReadinessWait(timeout time.Duration) OptionFunc {
	return func(m *Migrator) error {
		m.wait = timeout
		return nil
	}
}
