package boltdoc

import (
	"context"
	"encoding/binary"
	"github.com/denismitr/docshift/docdb"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
	"sort"
	"strings"
	"time"
)

// not a valid identifier, so it never collides with a table
var metaBucket = []byte("docshift:indexes")

// Handle keeps every table in its own bucket of a bolt file. Documents are
// keyed by insertion sequence and sorted in process on reads.
type Handle struct {
	db *bbolt.DB
}

var _ docdb.Handle = (*Handle)(nil)
var _ docdb.Pinger = (*Handle)(nil)
var _ docdb.Closer = (*Handle)(nil)

func Open(path string) (*Handle, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "could not open bolt file %s", path)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(metaBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "could not prepare bolt file")
	}

	return &Handle{db: db}, nil
}

func (h *Handle) Ping(ctx context.Context) error {
	return h.db.View(func(tx *bbolt.Tx) error {
		return nil
	})
}

func (h *Handle) Close() error {
	return h.db.Close()
}

func (h *Handle) ListTables(ctx context.Context) ([]string, error) {
	var result []string

	err := h.db.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			if string(name) != string(metaBucket) {
				result = append(result, string(name))
			}
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not list buckets")
	}

	sort.Strings(result)

	return result, nil
}

func (h *Handle) CreateTable(ctx context.Context, name string) error {
	if err := docdb.ValidateIdentifier(name); err != nil {
		return err
	}

	err := h.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucket([]byte(name))
		return err
	})
	if errors.Is(err, bbolt.ErrBucketExists) {
		return errors.Wrapf(docdb.ErrTableExists, "[%s]", name)
	}

	return errors.Wrapf(err, "could not create bucket %s", name)
}

// CreateIndex only records the field, reads are sorted in process
func (h *Handle) CreateIndex(ctx context.Context, table, field string) error {
	if err := docdb.ValidateIdentifier(field); err != nil {
		return err
	}

	return h.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(table)) == nil {
			return errors.Wrapf(docdb.ErrTableNotFound, "[%s]", table)
		}

		meta := tx.Bucket(metaBucket)
		key := indexKey(table, field)
		if meta.Get(key) != nil {
			return errors.Wrapf(docdb.ErrIndexExists, "[%s.%s]", table, field)
		}

		return meta.Put(key, []byte(field))
	})
}

func (h *Handle) WaitForIndex(ctx context.Context, table string) error {
	return h.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(table)) == nil {
			return errors.Wrapf(docdb.ErrTableNotFound, "[%s]", table)
		}
		return nil
	})
}

// Indexes lists the fields recorded for a table
func (h *Handle) Indexes(table string) ([]string, error) {
	var result []string

	err := h.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(metaBucket).Cursor()
		prefix := []byte(table + "/")
		for k, v := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, v = c.Next() {
			result = append(result, string(v))
		}
		return nil
	})

	return result, err
}

func (h *Handle) Find(ctx context.Context, table string, q docdb.Query) ([]docdb.Document, error) {
	var result []docdb.Document

	err := h.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(table))
		if b == nil {
			return errors.Wrapf(docdb.ErrTableNotFound, "[%s]", table)
		}

		return b.ForEach(func(_, v []byte) error {
			doc, err := docdb.Decode(v)
			if err != nil {
				return err
			}

			result = append(result, doc)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	docdb.Sort(result, q)

	return result, nil
}

func (h *Handle) Insert(ctx context.Context, table string, doc docdb.Document) error {
	v, err := docdb.Encode(doc)
	if err != nil {
		return err
	}

	return h.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(table))
		if b == nil {
			return errors.Wrapf(docdb.ErrTableNotFound, "[%s]", table)
		}

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}

		return b.Put(itob(seq), v)
	})
}

func (h *Handle) DeleteAll(ctx context.Context, table string) error {
	return h.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(table)); err != nil {
			if errors.Is(err, bbolt.ErrBucketNotFound) {
				return errors.Wrapf(docdb.ErrTableNotFound, "[%s]", table)
			}
			return err
		}

		_, err := tx.CreateBucket([]byte(table))
		return err
	})
}

func indexKey(table, field string) []byte {
	return []byte(table + "/" + field)
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
