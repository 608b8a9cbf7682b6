package ledger

import (
	"context"
	"github.com/denismitr/docshift/docdb"
	"github.com/denismitr/docshift/internal/logger"
	"github.com/denismitr/docshift/migration"
	"github.com/pkg/errors"
	"time"
)

const (
	DefaultTable   = "_migrations"
	TimestampField = "timestamp"
	nameField      = "name"
	filenameField  = "filename"
)

var ErrMalformedEntry = errors.New("malformed ledger entry")

// Entry records a migration that has been applied
type Entry struct {
	Timestamp time.Time
	Name      string
	Filename  string
}

func FromUnit(u migration.Unit) Entry {
	return Entry{Timestamp: u.Timestamp.UTC(), Name: u.Name, Filename: u.Filename}
}

func (e Entry) Unit() migration.Unit {
	return migration.Unit{Timestamp: e.Timestamp, Name: e.Name, Filename: e.Filename}
}

func (e Entry) Document() docdb.Document {
	return docdb.Document{
		TimestampField: e.Timestamp.UTC().Format(time.RFC3339),
		nameField:      e.Name,
		filenameField:  e.Filename,
	}
}

func EntryFromDocument(doc docdb.Document) (Entry, error) {
	var e Entry

	switch ts := doc[TimestampField].(type) {
	case string:
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return e, errors.Wrapf(ErrMalformedEntry, "timestamp [%s]: %v", ts, err)
		}
		e.Timestamp = t.UTC()
	case time.Time:
		e.Timestamp = ts.UTC()
	default:
		return e, errors.Wrapf(ErrMalformedEntry, "timestamp [%v]", doc[TimestampField])
	}

	name, _ := doc[nameField].(string)
	filename, ok := doc[filenameField].(string)
	if !ok || filename == "" {
		return e, errors.Wrapf(ErrMalformedEntry, "filename [%v]", doc[filenameField])
	}

	e.Name = name
	e.Filename = filename

	return e, nil
}

// Store reads the ledger and makes sure its table exists
type Store struct {
	db    docdb.Handle
	table string
	lg    logger.Logger
}

func NewStore(db docdb.Handle, table string, lg logger.Logger) (*Store, error) {
	if table == "" {
		table = DefaultTable
	}

	if err := docdb.ValidateIdentifier(table); err != nil {
		return nil, err
	}

	if lg == nil {
		lg = logger.NullLogger{}
	}

	return &Store{db: db, table: table, lg: lg}, nil
}

func (s *Store) Table() string {
	return s.table
}

// Ensure creates the ledger table and its timestamp index when absent.
// An existing table is left untouched.
func (s *Store) Ensure(ctx context.Context) error {
	tables, err := s.db.ListTables(ctx)
	if err != nil {
		return &migration.LedgerError{Err: errors.Wrap(err, "could not list tables")}
	}

	if !docdb.ContainsTable(tables, s.table) {
		created, err := s.createTable(ctx)
		if err != nil {
			return &migration.LedgerError{Err: err}
		}

		if created {
			s.lg.Debugf("ledger table %s created", s.table)
			if err := s.db.CreateIndex(ctx, s.table, TimestampField); err != nil && !errors.Is(err, docdb.ErrIndexExists) {
				return &migration.LedgerError{
					Err: errors.Wrapf(err, "could not create index %s on %s", TimestampField, s.table),
				}
			}
		}
	}

	if err := s.db.WaitForIndex(ctx, s.table); err != nil {
		return &migration.LedgerError{Err: errors.Wrapf(err, "index on %s is not ready", s.table)}
	}

	return nil
}

func (s *Store) createTable(ctx context.Context) (bool, error) {
	err := s.db.CreateTable(ctx, s.table)
	if err == nil {
		return true, nil
	}

	// created concurrently between the listing and now
	if errors.Is(err, docdb.ErrTableExists) {
		return false, nil
	}

	return false, errors.Wrapf(err, "could not create ledger table %s", s.table)
}

// ReadDesc returns all entries, most recently applied first
func (s *Store) ReadDesc(ctx context.Context) ([]Entry, error) {
	docs, err := s.db.Find(ctx, s.table, docdb.OrderBy(TimestampField, docdb.DESC))
	if err != nil {
		return nil, &migration.LedgerError{Err: errors.Wrapf(err, "could not read ledger %s", s.table)}
	}

	result := make([]Entry, 0, len(docs))
	for i := range docs {
		e, err := EntryFromDocument(docs[i])
		if err != nil {
			return nil, &migration.LedgerError{Err: err}
		}

		result = append(result, e)
	}

	return result, nil
}

// Latest returns the timestamp of the most recent entry or migration.Epoch
func Latest(entries []Entry) time.Time {
	if len(entries) == 0 {
		return migration.Epoch
	}

	return entries[0].Timestamp
}
