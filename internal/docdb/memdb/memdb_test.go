package memdb

import (
	"context"
	"github.com/denismitr/docshift/docdb"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestHandle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("tables can be created once", func(t *testing.T) {
		h := New()

		require.NoError(t, h.CreateTable(ctx, "users"))
		err := h.CreateTable(ctx, "users")
		assert.True(t, errors.Is(err, docdb.ErrTableExists))

		tables, err := h.ListTables(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"users"}, tables)
	})

	t.Run("indexes require an existing table", func(t *testing.T) {
		h := New()

		err := h.CreateIndex(ctx, "users", "email")
		assert.True(t, errors.Is(err, docdb.ErrTableNotFound))

		require.NoError(t, h.CreateTable(ctx, "users"))
		require.NoError(t, h.CreateIndex(ctx, "users", "email"))
		assert.True(t, errors.Is(h.CreateIndex(ctx, "users", "email"), docdb.ErrIndexExists))
		require.NoError(t, h.WaitForIndex(ctx, "users"))

		indexes, err := h.Indexes("users")
		require.NoError(t, err)
		assert.Equal(t, []string{"email"}, indexes)
	})

	t.Run("documents are found in requested order and can be deleted", func(t *testing.T) {
		h := New()
		require.NoError(t, h.CreateTable(ctx, "events"))

		require.NoError(t, h.Insert(ctx, "events", docdb.Document{"at": "2020-01-01T00:00:00Z"}))
		require.NoError(t, h.Insert(ctx, "events", docdb.Document{"at": "2022-01-01T00:00:00Z"}))
		require.NoError(t, h.Insert(ctx, "events", docdb.Document{"at": "2021-01-01T00:00:00Z"}))

		docs, err := h.Find(ctx, "events", docdb.OrderBy("at", docdb.DESC))
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, "2022-01-01T00:00:00Z", docs[0]["at"])
		assert.Equal(t, "2021-01-01T00:00:00Z", docs[1]["at"])
		assert.Equal(t, "2020-01-01T00:00:00Z", docs[2]["at"])

		docs[0]["at"] = "mutated"
		again, err := h.Find(ctx, "events", docdb.OrderBy("at", docdb.DESC))
		require.NoError(t, err)
		assert.Equal(t, "2022-01-01T00:00:00Z", again[0]["at"])

		require.NoError(t, h.DeleteAll(ctx, "events"))
		docs, err = h.Find(ctx, "events", docdb.Query{})
		require.NoError(t, err)
		assert.Len(t, docs, 0)
	})

	t.Run("invalid table names are rejected", func(t *testing.T) {
		h := New()
		err := h.CreateTable(ctx, "users; drop")
		assert.True(t, errors.Is(err, docdb.ErrInvalidIdentifier))
	})
}
