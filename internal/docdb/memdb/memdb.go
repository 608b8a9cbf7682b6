package memdb

import (
	"context"
	"github.com/denismitr/docshift/docdb"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"sort"
	"sync"
)

type table struct {
	indexes map[string]struct{}
	ids     []string
	docs    map[string]docdb.Document
}

// Handle is an in-memory implementation of docdb.Handle.
// It is safe for concurrent use.
type Handle struct {
	mu     sync.RWMutex
	tables map[string]*table
}

var _ docdb.Handle = (*Handle)(nil)
var _ docdb.Pinger = (*Handle)(nil)

func New() *Handle {
	return &Handle{tables: make(map[string]*table)}
}

func (h *Handle) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (h *Handle) ListTables(ctx context.Context) ([]string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make([]string, 0, len(h.tables))
	for name := range h.tables {
		result = append(result, name)
	}

	sort.Strings(result)

	return result, nil
}

func (h *Handle) CreateTable(ctx context.Context, name string) error {
	if err := docdb.ValidateIdentifier(name); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.tables[name]; ok {
		return errors.Wrapf(docdb.ErrTableExists, "[%s]", name)
	}

	h.tables[name] = &table{
		indexes: make(map[string]struct{}),
		docs:    make(map[string]docdb.Document),
	}

	return nil
}

func (h *Handle) CreateIndex(ctx context.Context, tableName, field string) error {
	if err := docdb.ValidateIdentifier(field); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	t, err := h.table(tableName)
	if err != nil {
		return err
	}

	if _, ok := t.indexes[field]; ok {
		return errors.Wrapf(docdb.ErrIndexExists, "[%s.%s]", tableName, field)
	}

	t.indexes[field] = struct{}{}

	return nil
}

// WaitForIndex returns immediately, in-memory indexes are ready once created
func (h *Handle) WaitForIndex(ctx context.Context, tableName string) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, err := h.table(tableName)

	return err
}

// Indexes lists the indexed fields of a table
func (h *Handle) Indexes(tableName string) ([]string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	t, err := h.table(tableName)
	if err != nil {
		return nil, err
	}

	var result []string
	for field := range t.indexes {
		result = append(result, field)
	}

	sort.Strings(result)

	return result, nil
}

func (h *Handle) Find(ctx context.Context, tableName string, q docdb.Query) ([]docdb.Document, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	t, err := h.table(tableName)
	if err != nil {
		return nil, err
	}

	result := make([]docdb.Document, 0, len(t.ids))
	for _, id := range t.ids {
		result = append(result, docdb.Copy(t.docs[id]))
	}

	docdb.Sort(result, q)

	return result, nil
}

func (h *Handle) Insert(ctx context.Context, tableName string, doc docdb.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	t, err := h.table(tableName)
	if err != nil {
		return err
	}

	id := uuid.New().String()
	t.ids = append(t.ids, id)
	t.docs[id] = docdb.Copy(doc)

	return nil
}

func (h *Handle) DeleteAll(ctx context.Context, tableName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	t, err := h.table(tableName)
	if err != nil {
		return err
	}

	t.ids = nil
	t.docs = make(map[string]docdb.Document)

	return nil
}

func (h *Handle) table(name string) (*table, error) {
	t, ok := h.tables[name]
	if !ok {
		return nil, errors.Wrapf(docdb.ErrTableNotFound, "[%s]", name)
	}

	return t, nil
}
