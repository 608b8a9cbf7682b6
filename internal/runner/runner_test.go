package runner

import (
	"context"
	"fmt"
	"github.com/denismitr/docshift/docdb"
	"github.com/denismitr/docshift/event"
	"github.com/denismitr/docshift/internal/docdb/memdb"
	"github.com/denismitr/docshift/migration"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

type journal struct {
	calls []string
}

func (j *journal) migration(ts string, failUp bool) *migration.Migration {
	u, err := migration.ParseFilename(fmt.Sprintf("%s-m%s.go", ts, ts))
	if err != nil {
		panic(err)
	}

	return &migration.Migration{
		Unit: u,
		Code: migration.Funcs{
			UpFn: func(context.Context, docdb.Handle) error {
				j.calls = append(j.calls, "up "+ts)
				if failUp {
					return errors.New("duplicate key")
				}
				return nil
			},
			DownFn: func(context.Context, docdb.Handle) error {
				j.calls = append(j.calls, "down "+ts)
				return nil
			},
		},
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("runs all migrations in order", func(t *testing.T) {
		j := &journal{}
		rec := &event.Recorder{}
		ms := migration.Migrations{
			j.migration("20210101000000", false),
			j.migration("20210102000000", false),
			j.migration("20210103000000", false),
		}

		res := Run(context.Background(), migration.Up, ms, memdb.New(), rec)
		require.True(t, res.Ok())
		assert.Equal(t, StopOnFirstFailure, res.Policy)
		assert.Len(t, res.Completed, 3)
		assert.Equal(t, []string{"up 20210101000000", "up 20210102000000", "up 20210103000000"}, j.calls)
		assert.Equal(t, []string{event.Migrated, event.Migrated, event.Migrated}, rec.Names())
	})

	t.Run("stops at the first failure without reverting", func(t *testing.T) {
		j := &journal{}
		rec := &event.Recorder{}
		ms := migration.Migrations{
			j.migration("20210101000000", false),
			j.migration("20210102000000", false),
			j.migration("20210103000000", true),
			j.migration("20210104000000", false),
			j.migration("20210105000000", false),
		}

		res := Run(context.Background(), migration.Up, ms, memdb.New(), rec)
		require.False(t, res.Ok())
		assert.Len(t, res.Completed, 2)
		assert.Equal(t, []string{"up 20210101000000", "up 20210102000000", "up 20210103000000"}, j.calls)
		assert.Len(t, rec.Events(), 2)

		var exErr *migration.MigrationExecutionError
		require.True(t, errors.As(res.Err, &exErr))
		assert.Equal(t, "20210103000000-m20210103000000.go", exErr.Unit.Filename)
		assert.Equal(t, migration.Up, exErr.Direction)
		assert.EqualError(t, errors.Cause(exErr.Err), "duplicate key")
	})

	t.Run("down emits rolled back events", func(t *testing.T) {
		j := &journal{}
		rec := &event.Recorder{}
		ms := migration.Migrations{
			j.migration("20210102000000", false),
			j.migration("20210101000000", false),
		}

		res := Run(context.Background(), migration.Down, ms, memdb.New(), rec)
		require.NoError(t, res.Err)
		assert.Equal(t, []string{"down 20210102000000", "down 20210101000000"}, j.calls)
		assert.Equal(t, []string{event.RolledBack, event.RolledBack}, rec.Names())
	})

	t.Run("empty list is a no-op", func(t *testing.T) {
		res := Run(context.Background(), migration.Up, nil, memdb.New(), nil)
		assert.True(t, res.Ok())
		assert.Empty(t, res.Completed)
	})

	t.Run("cancelled context fails the next migration", func(t *testing.T) {
		j := &journal{}
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()

		res := Run(ctx, migration.Up, migration.Migrations{j.migration("20210101000000", false)}, memdb.New(), nil)
		assert.True(t, errors.Is(res.Err, context.DeadlineExceeded))
		assert.Empty(t, j.calls)
	})
}
