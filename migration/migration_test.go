package migration

import (
	"context"
	"github.com/denismitr/docshift/docdb"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sort"
	"testing"
	"time"
)

func noop(context.Context, docdb.Handle) error { return nil }

func Test_ParseFilename(t *testing.T) {
	t.Parallel()

	tt := []struct {
		filename  string
		timestamp time.Time
		name      string
	}{
		{
			filename:  "20210101120000-add-users.js",
			timestamp: time.Date(2021, 1, 1, 12, 0, 0, 0, time.UTC),
			name:      "add-users",
		},
		{
			filename:  "20200229235959-leap_day.go",
			timestamp: time.Date(2020, 2, 29, 23, 59, 59, 0, time.UTC),
			name:      "leap_day",
		},
		{
			filename:  "/var/migrations/19991231000000-a.b.go",
			timestamp: time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC),
			name:      "a.b",
		},
	}

	for _, tc := range tt {
		tc := tc
		t.Run(tc.filename, func(t *testing.T) {
			u, err := ParseFilename(tc.filename)
			require.NoError(t, err)
			assert.True(t, tc.timestamp.Equal(u.Timestamp))
			assert.Equal(t, time.UTC, u.Timestamp.Location())
			assert.Equal(t, tc.name, u.Name)
		})
	}

	t.Run("non migration files", func(t *testing.T) {
		for _, f := range []string{"notes.txt", "2021-add.go", "202101011200-add.go", "20210101120000-.go", "20210101120000-add"} {
			_, err := ParseFilename(f)
			assert.True(t, errors.Is(err, ErrNotAMigrationFile), f)
		}
	})

	t.Run("invalid calendar timestamp", func(t *testing.T) {
		_, err := ParseFilename("20211301120000-bad-month.go")
		require.Error(t, err)

		var dErr *DiscoveryError
		assert.True(t, errors.As(err, &dErr))

		stage, ok := StageOf(err)
		assert.True(t, ok)
		assert.Equal(t, StageDiscovery, stage)
	})
}

func Test_MigrationsCanBeSortedByTimestamp(t *testing.T) {
	at := func(s string) time.Time {
		ts, err := time.Parse(TimestampLayout, s)
		require.NoError(t, err)
		return ts
	}

	m1 := &Migration{Unit: Unit{Timestamp: at("20200808143247"), Name: "foo"}}
	m2 := &Migration{Unit: Unit{Timestamp: at("20200414210607"), Name: "bar"}}
	m3 := &Migration{Unit: Unit{Timestamp: at("20200820043257"), Name: "baz"}}
	m4 := &Migration{Unit: Unit{Timestamp: at("20200101163247"), Name: "foo-baz"}}

	migrations := Migrations{m1, m2, m3, m4}
	sort.Stable(migrations)

	assert.Equal(t, []string{"foo-baz", "bar", "foo", "baz"}, []string{
		migrations[0].Name, migrations[1].Name, migrations[2].Name, migrations[3].Name,
	})
}

func TestFilenameFor(t *testing.T) {
	ts := time.Date(2021, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "20210101120000-add-users.go", FilenameFor(ts, "Add  Users", ".go"))

	u, err := ParseFilename(FilenameFor(ts, "add users", "go"))
	require.NoError(t, err)
	assert.Equal(t, "20210101120000", u.Version())
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("lookup by filename", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Add("20210102000000-second.go", Funcs{UpFn: noop, DownFn: noop}))
		require.NoError(t, r.Add("20210101000000-first.go", Funcs{UpFn: noop, DownFn: noop}))

		code, err := r.Lookup("20210101000000-first.go")
		require.NoError(t, err)
		assert.NotNil(t, code)

		units := r.Units()
		require.Len(t, units, 2)
		assert.Equal(t, "first", units[0].Name)
		assert.Equal(t, "second", units[1].Name)

		_, err = r.Lookup("20210103000000-third.go")
		assert.True(t, errors.Is(err, ErrNotRegistered))
	})

	t.Run("rejects duplicates and incomplete code", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Add("20210101000000-first.go", Funcs{UpFn: noop, DownFn: noop}))

		err := r.Add("20210101000000-first.go", Funcs{UpFn: noop, DownFn: noop})
		assert.True(t, errors.Is(err, ErrDuplicateFile))

		err = r.Add("20210104000000-no-down.go", Funcs{UpFn: noop})
		assert.True(t, errors.Is(err, ErrMissingFunc))

		err = r.Add("readme.md", Funcs{UpFn: noop, DownFn: noop})
		assert.True(t, errors.Is(err, ErrNotAMigrationFile))

		assert.Equal(t, 1, r.Len())
	})
}

func TestMigration_Run(t *testing.T) {
	var calls []string
	m := &Migration{
		Unit: Unit{Name: "x"},
		Code: Funcs{
			UpFn: func(context.Context, docdb.Handle) error {
				calls = append(calls, "up")
				return nil
			},
			DownFn: func(context.Context, docdb.Handle) error {
				calls = append(calls, "down")
				return errors.New("boom")
			},
		},
	}

	assert.NoError(t, m.Run(context.Background(), Up, nil))
	assert.Error(t, m.Run(context.Background(), Down, nil))
	assert.Equal(t, []string{"up", "down"}, calls)
	assert.Equal(t, "down", Down.String())
}

func TestStageErrors(t *testing.T) {
	cause := errors.New("connection refused")

	tt := []struct {
		err   error
		stage Stage
	}{
		{&ValidationError{Err: cause}, StageValidation},
		{&ConnectionError{Err: cause}, StageConnection},
		{&LoadError{Filename: "f.go", Err: cause}, StageLoad},
		{&LedgerError{Err: cause}, StageLedger},
		{&MigrationExecutionError{Unit: Unit{Name: "x", Filename: "x.go"}, Err: cause}, StageExecution},
		{&PersistenceError{Err: cause}, StagePersistence},
	}

	for _, tc := range tt {
		wrapped := errors.Wrap(tc.err, "docshift")

		stage, ok := StageOf(wrapped)
		assert.True(t, ok)
		assert.Equal(t, tc.stage, stage)
		assert.True(t, errors.Is(wrapped, cause))
		assert.Contains(t, wrapped.Error(), string(tc.stage))
	}

	_, ok := StageOf(cause)
	assert.False(t, ok)
}
