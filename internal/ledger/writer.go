package ledger

import (
	"context"
	"github.com/denismitr/docshift/docdb"
	"github.com/denismitr/docshift/migration"
	"github.com/pkg/errors"
)

// Writer persists the outcome of a fully successful run
type Writer struct {
	db    docdb.Handle
	table string
}

func NewWriter(db docdb.Handle, table string) *Writer {
	if table == "" {
		table = DefaultTable
	}

	return &Writer{db: db, table: table}
}

// Record inserts one entry per unit in the given order. Entries inserted
// before a failure are kept.
func (w *Writer) Record(ctx context.Context, units []migration.Unit) (int, error) {
	for i := range units {
		if err := w.db.Insert(ctx, w.table, FromUnit(units[i]).Document()); err != nil {
			return i, &migration.PersistenceError{
				Err: errors.Wrapf(err, "could not record %s in %s", units[i].Filename, w.table),
			}
		}
	}

	return len(units), nil
}

// Clear removes every entry from the ledger in a single operation
func (w *Writer) Clear(ctx context.Context) error {
	if err := w.db.DeleteAll(ctx, w.table); err != nil {
		return &migration.PersistenceError{Err: errors.Wrapf(err, "could not clear %s", w.table)}
	}

	return nil
}
