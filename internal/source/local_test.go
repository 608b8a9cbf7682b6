package source

import (
	"context"
	"github.com/denismitr/docshift/docdb"
	"github.com/denismitr/docshift/internal/logger"
	"github.com/denismitr/docshift/migration"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func noop(context.Context, docdb.Handle) error { return nil }

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("package migrations\n"), 0644))
	}
}

func Test_LocalFolderDiscovery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("migration files are discovered in timestamp order", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir,
			"20210301000000-third.go",
			"20210101120000-add-users.js",
			"notes.txt",
			"README.md",
			"20210201000000-second.go",
			"20210201000000-second_test.go",
		)
		require.NoError(t, os.Mkdir(filepath.Join(dir, "20210401000000-dir.go"), 0755))

		lfs := NewLocalFolderSource(dir, "", nil, logger.NullLogger{})
		units, err := lfs.Discover(ctx)
		require.NoError(t, err)
		require.Len(t, units, 3)

		assert.Equal(t, "add-users", units[0].Name)
		assert.Equal(t, "20210101120000-add-users.js", units[0].Filename)
		assert.True(t, time.Date(2021, 1, 1, 12, 0, 0, 0, time.UTC).Equal(units[0].Timestamp))
		assert.Equal(t, "second", units[1].Name)
		assert.Equal(t, "third", units[2].Name)
	})

	t.Run("absent folder is a discovery error", func(t *testing.T) {
		lfs := NewLocalFolderSource(filepath.Join(t.TempDir(), "nope"), "", nil, nil)
		assert.False(t, lfs.IsValid())

		_, err := lfs.Discover(ctx)
		var dErr *migration.DiscoveryError
		assert.True(t, errors.As(err, &dErr))
	})

	t.Run("invalid timestamps are a discovery error", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "20210101120000-ok.go", "20219999999999-broken.go")

		_, err := NewLocalFolderSource(dir, "", nil, nil).Discover(ctx)
		stage, ok := migration.StageOf(err)
		require.True(t, ok)
		assert.Equal(t, migration.StageDiscovery, stage)
	})

	t.Run("folder is resolved relative to a base", func(t *testing.T) {
		base := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(base, "db"), 0755))
		touch(t, filepath.Join(base, "db"), "20210101120000-add-users.go")

		lfs := NewLocalFolderSource("db", base, nil, nil)
		assert.Equal(t, filepath.Join(base, "db"), lfs.Folder())
		assert.True(t, lfs.IsValid())

		units, err := lfs.Discover(ctx)
		require.NoError(t, err)
		assert.Len(t, units, 1)

		assert.Equal(t, "/abs/db", ResolveFolder("/abs/db", base))
	})
}

func Test_Load(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := migration.NewRegistry()
	require.NoError(t, r.Add("20210101120000-add-users.go", migration.Funcs{UpFn: noop, DownFn: noop}))

	dir := t.TempDir()
	touch(t, dir, "20210101120000-add-users.go", "20210102120000-unregistered.go")

	lfs := NewLocalFolderSource(dir, "", r, nil)
	units, err := lfs.Discover(ctx)
	require.NoError(t, err)
	require.Len(t, units, 2)

	m, err := lfs.Load(ctx, units[0])
	require.NoError(t, err)
	assert.Equal(t, "add-users", m.Name)
	assert.NotNil(t, m.Code)

	_, err = lfs.Load(ctx, units[1])
	var lErr *migration.LoadError
	require.True(t, errors.As(err, &lErr))
	assert.Equal(t, "20210102120000-unregistered.go", lErr.Filename)
	assert.True(t, errors.Is(err, migration.ErrNotRegistered))

	_, err = LoadAll(ctx, lfs, units)
	assert.True(t, errors.Is(err, migration.ErrNotRegistered))

	loaded, err := LoadAll(ctx, lfs, units[:1])
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func Test_RegistrySource(t *testing.T) {
	r := migration.NewRegistry()
	require.NoError(t, r.Add("20210201000000-second.go", migration.Funcs{UpFn: noop, DownFn: noop}))
	require.NoError(t, r.Add("20210101000000-first.go", migration.Funcs{UpFn: noop, DownFn: noop}))

	rs := NewRegistrySource(r)
	units, err := rs.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "first", units[0].Name)

	m, err := rs.Load(context.Background(), units[1])
	require.NoError(t, err)
	assert.Equal(t, "20210201000000-second.go", m.Filename)
}

func Test_Create(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "migrations")
	require.NoError(t, os.Mkdir(dir, 0755))

	lfs := NewLocalFolderSource(dir, "", migration.NewRegistry(), nil)
	ts := time.Date(2021, 1, 1, 12, 0, 0, 0, time.UTC)

	u, err := lfs.Create(ts, "Add users")
	require.NoError(t, err)
	assert.Equal(t, "20210101120000-add-users.go", u.Filename)

	b, err := os.ReadFile(filepath.Join(dir, u.Filename))
	require.NoError(t, err)
	contents := string(b)
	assert.True(t, strings.HasPrefix(contents, "package migrations\n"))
	assert.Contains(t, contents, "migration.Register(up20210101120000, down20210101120000)")

	assert.True(t, lfs.AlreadyExists(ts.Add(time.Hour), "add users"))
	_, err = lfs.Create(ts, "something else")
	assert.True(t, errors.Is(err, ErrMigrationAlreadyExists))

	units, err := lfs.Discover(context.Background())
	require.NoError(t, err)
	assert.Len(t, units, 1)
}
