package schedule

import (
	"context"
	"github.com/denismitr/docshift/docdb"
	"github.com/denismitr/docshift/internal/docdb/memdb"
	"github.com/denismitr/docshift/internal/ledger"
	"github.com/denismitr/docshift/internal/source"
	"github.com/denismitr/docshift/migration"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func noop(context.Context, docdb.Handle) error { return nil }

func registry(t *testing.T, filenames ...string) *migration.Registry {
	t.Helper()
	r := migration.NewRegistry()
	for _, f := range filenames {
		require.NoError(t, r.Add(f, migration.Funcs{UpFn: noop, DownFn: noop}))
	}
	return r
}

func filenames(m migration.Migrations) []string {
	var result []string
	for i := range m {
		result = append(result, m[i].Filename)
	}
	return result
}

func record(t *testing.T, db docdb.Handle, m migration.Migrations) {
	t.Helper()
	_, err := ledger.NewWriter(db, "").Record(context.Background(), m.Units())
	require.NoError(t, err)
}

func TestForUp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty ledger yields every unit in ascending order", func(t *testing.T) {
		db := memdb.New()
		store, err := ledger.NewStore(db, "", nil)
		require.NoError(t, err)

		src := source.NewRegistrySource(registry(t,
			"20210301000000-c.go",
			"20210101000000-a.go",
			"20210201000000-b.go",
		))

		p, err := ForUp(ctx, store, src)
		require.NoError(t, err)
		assert.Equal(t, migration.Up, p.Direction)
		assert.Equal(t, []string{
			"20210101000000-a.go",
			"20210201000000-b.go",
			"20210301000000-c.go",
		}, filenames(p.Migrations))

		tables, err := db.ListTables(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{ledger.DefaultTable}, tables)
	})

	t.Run("second resolution after recording is empty", func(t *testing.T) {
		db := memdb.New()
		store, err := ledger.NewStore(db, "", nil)
		require.NoError(t, err)

		src := source.NewRegistrySource(registry(t, "20210101000000-a.go", "20210201000000-b.go"))

		p, err := ForUp(ctx, store, src)
		require.NoError(t, err)
		record(t, db, p.Migrations)

		again, err := ForUp(ctx, store, src)
		require.NoError(t, err)
		assert.True(t, again.Empty())
		assert.Equal(t, "20210201000000-b.go", again.Latest.Filename)
	})

	t.Run("only units strictly after the latest entry are kept", func(t *testing.T) {
		db := memdb.New()
		store, err := ledger.NewStore(db, "", nil)
		require.NoError(t, err)

		applied := source.NewRegistrySource(registry(t, "20210201000000-b.go"))
		p, err := ForUp(ctx, store, applied)
		require.NoError(t, err)
		record(t, db, p.Migrations)

		src := source.NewRegistrySource(registry(t,
			"20210101000000-older.go",
			"20210201000000-b.go",
			"20210301000000-newer.go",
		))

		p, err = ForUp(ctx, store, src)
		require.NoError(t, err)
		assert.Equal(t, []string{"20210301000000-newer.go"}, filenames(p.Migrations))
	})

	t.Run("load failure stops resolution", func(t *testing.T) {
		store, err := ledger.NewStore(memdb.New(), "", nil)
		require.NoError(t, err)

		_, err = ForUp(ctx, store, brokenSource{})
		var lErr *migration.LoadError
		assert.True(t, errors.As(err, &lErr))
	})
}

func TestForDown(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("every entry in descending order across runs", func(t *testing.T) {
		db := memdb.New()
		store, err := ledger.NewStore(db, "", nil)
		require.NoError(t, err)

		r := registry(t, "20210101000000-a.go", "20210201000000-b.go")
		p, err := ForUp(ctx, store, source.NewRegistrySource(r))
		require.NoError(t, err)
		record(t, db, p.Migrations)

		require.NoError(t, r.Add("20210301000000-c.go", migration.Funcs{UpFn: noop, DownFn: noop}))
		p, err = ForUp(ctx, store, source.NewRegistrySource(r))
		require.NoError(t, err)
		require.Len(t, p.Migrations, 1)
		record(t, db, p.Migrations)

		down, err := For(ctx, migration.Down, store, source.NewRegistrySource(r))
		require.NoError(t, err)
		assert.Equal(t, migration.Down, down.Direction)
		assert.Equal(t, []string{
			"20210301000000-c.go",
			"20210201000000-b.go",
			"20210101000000-a.go",
		}, filenames(down.Migrations))
	})

	t.Run("empty ledger yields empty plan", func(t *testing.T) {
		store, err := ledger.NewStore(memdb.New(), "", nil)
		require.NoError(t, err)

		p, err := ForDown(ctx, store, source.NewRegistrySource(migration.NewRegistry()))
		require.NoError(t, err)
		assert.True(t, p.Empty())
	})

	t.Run("entry missing from registry is a load error", func(t *testing.T) {
		db := memdb.New()
		store, err := ledger.NewStore(db, "", nil)
		require.NoError(t, err)

		p, err := ForUp(ctx, store, source.NewRegistrySource(registry(t, "20210101000000-a.go")))
		require.NoError(t, err)
		record(t, db, p.Migrations)

		_, err = ForDown(ctx, store, source.NewRegistrySource(migration.NewRegistry()))
		assert.True(t, errors.Is(err, migration.ErrNotRegistered))
	})
}

type brokenSource struct{}

func (brokenSource) Discover(context.Context) ([]migration.Unit, error) {
	u, _ := migration.ParseFilename("20210101000000-a.go")
	return []migration.Unit{u}, nil
}

func (brokenSource) Load(_ context.Context, u migration.Unit) (*migration.Migration, error) {
	return nil, &migration.LoadError{Filename: u.Filename, Err: migration.ErrMissingFunc}
}
