package migration

import (
	"fmt"
	"github.com/pkg/errors"
)

var (
	ErrNotAMigrationFile = errors.New("not a migration file")
	ErrNotRegistered     = errors.New("migration is not registered")
	ErrMissingFunc       = errors.New("migration must define both up and down")
	ErrDuplicateFile     = errors.New("migration is already registered")
)

type Stage string

const (
	StageValidation  Stage = "validation"
	StageConnection  Stage = "connection"
	StageDiscovery   Stage = "discovery"
	StageLoad        Stage = "load"
	StageLedger      Stage = "ledger"
	StageExecution   Stage = "execution"
	StagePersistence Stage = "persistence"
)

type staged interface {
	error
	Stage() Stage
}

// StageOf reports the stage of the first stage error in the chain
func StageOf(err error) (Stage, bool) {
	var s staged
	if errors.As(err, &s) {
		return s.Stage(), true
	}

	return "", false
}

type ValidationError struct{ Err error }

func (e *ValidationError) Error() string { return formatStage(StageValidation, e.Err) }
func (e *ValidationError) Unwrap() error { return e.Err }
func (e *ValidationError) Stage() Stage  { return StageValidation }

type ConnectionError struct{ Err error }

func (e *ConnectionError) Error() string { return formatStage(StageConnection, e.Err) }
func (e *ConnectionError) Unwrap() error { return e.Err }
func (e *ConnectionError) Stage() Stage  { return StageConnection }

type DiscoveryError struct{ Err error }

func (e *DiscoveryError) Error() string { return formatStage(StageDiscovery, e.Err) }
func (e *DiscoveryError) Unwrap() error { return e.Err }
func (e *DiscoveryError) Stage() Stage  { return StageDiscovery }

type LoadError struct {
	Filename string
	Err      error
}

func (e *LoadError) Error() string {
	return formatStage(StageLoad, errors.Wrapf(e.Err, "[%s]", e.Filename))
}
func (e *LoadError) Unwrap() error { return e.Err }
func (e *LoadError) Stage() Stage  { return StageLoad }

type LedgerError struct{ Err error }

func (e *LedgerError) Error() string { return formatStage(StageLedger, e.Err) }
func (e *LedgerError) Unwrap() error { return e.Err }
func (e *LedgerError) Stage() Stage  { return StageLedger }

// MigrationExecutionError identifies the unit whose up or down failed
type MigrationExecutionError struct {
	Unit      Unit
	Direction Direction
	Err       error
}

func (e *MigrationExecutionError) Error() string {
	return fmt.Sprintf(
		"%s failed: migration %s [%s] %s: %v",
		StageExecution, e.Unit.Name, e.Unit.Filename, e.Direction, e.Err,
	)
}
func (e *MigrationExecutionError) Unwrap() error { return e.Err }
func (e *MigrationExecutionError) Stage() Stage  { return StageExecution }

type PersistenceError struct{ Err error }

func (e *PersistenceError) Error() string { return formatStage(StagePersistence, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }
func (e *PersistenceError) Stage() Stage  { return StagePersistence }

func formatStage(s Stage, err error) string {
	if err == nil {
		return fmt.Sprintf("%s failed", s)
	}

	return fmt.Sprintf("%s failed: %v", s, err)
}
