package runner

import (
	"context"
	"github.com/denismitr/docshift/docdb"
	"github.com/denismitr/docshift/event"
	"github.com/denismitr/docshift/migration"
)

// Policy names what happens to already executed migrations when one fails
type Policy string

// StopOnFirstFailure stops at the failing migration. Migrations that already
// ran in the same invocation are not reverted and the ledger is not written.
const StopOnFirstFailure Policy = "stop-on-first-failure"

// Result holds the executed prefix of the input and the error that stopped the run
type Result struct {
	Policy    Policy
	Completed migration.Migrations
	Err       error
}

func (r Result) Ok() bool {
	return r.Err == nil
}

// Run executes migrations strictly in order, one at a time
func Run(
	ctx context.Context,
	dir migration.Direction,
	migrations migration.Migrations,
	db docdb.Handle,
	observer event.Observer,
) Result {
	if observer == nil {
		observer = event.Nop
	}

	result := Result{
		Policy:    StopOnFirstFailure,
		Completed: make(migration.Migrations, 0, len(migrations)),
	}

	for _, m := range migrations {
		if err := ctx.Err(); err != nil {
			result.Err = &migration.MigrationExecutionError{Unit: m.Unit, Direction: dir, Err: err}
			return result
		}

		if err := m.Run(ctx, dir, db); err != nil {
			result.Err = &migration.MigrationExecutionError{Unit: m.Unit, Direction: dir, Err: err}
			return result
		}

		result.Completed = append(result.Completed, m)
		observer.Notify(eventFor(dir), event.UnitPayload{Direction: dir, Unit: m.Unit})
	}

	return result
}

func eventFor(dir migration.Direction) string {
	if dir == migration.Down {
		return event.RolledBack
	}

	return event.Migrated
}
