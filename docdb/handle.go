// Package docdb describes the capability a migration needs from a document
// database: listing and creating tables, secondary indexes, ordered reads,
// inserts and bulk deletes. Concrete handles for SQL engines, MongoDB, bolt
// and an in-memory store satisfy the same Handle interface.
package docdb

import (
	"context"
	"github.com/pkg/errors"
)

var (
	ErrTableExists   = errors.New("table already exists")
	ErrTableNotFound = errors.New("table not found")
	ErrIndexExists   = errors.New("index already exists")
	ErrIndexNotFound = errors.New("index not found")
)

type SortOrder string

const (
	ASC  SortOrder = "ASC"
	DESC SortOrder = "DESC"
)

type (
	// Document is a single schemaless record
	Document map[string]interface{}

	// Query describes an ordered scan of a whole table
	Query struct {
		OrderBy string
		Order   SortOrder
	}

	// Handle is an already connected database, pointed at the target database.
	// Every method blocks until the database acknowledged the operation.
	Handle interface {
		ListTables(ctx context.Context) ([]string, error)
		CreateTable(ctx context.Context, name string) error
		CreateIndex(ctx context.Context, table, field string) error
		WaitForIndex(ctx context.Context, table string) error
		Find(ctx context.Context, table string, q Query) ([]Document, error)
		Insert(ctx context.Context, table string, doc Document) error
		DeleteAll(ctx context.Context, table string) error
	}

	// Pinger is implemented by handles that can report readiness
	Pinger interface {
		Ping(ctx context.Context) error
	}

	// Closer is implemented by handles owning a connection
	Closer interface {
		Close() error
	}
)

// OrderBy - creates a query sorted by field in the given order
func OrderBy(field string, order SortOrder) Query {
	return Query{OrderBy: field, Order: order}
}

// Desc reports whether the query asks for descending order
func (q Query) Desc() bool {
	return q.Order == DESC
}

// ContainsTable reports whether name is present in tables
func ContainsTable(tables []string, name string) bool {
	for i := range tables {
		if tables[i] == name {
			return true
		}
	}

	return false
}
