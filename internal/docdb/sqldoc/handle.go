package sqldoc

import (
	"context"
	"database/sql"
	"fmt"
	sq "github.com/Masterminds/squirrel"
	"github.com/denismitr/docshift/docdb"
	"github.com/denismitr/docshift/internal/logger"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Handle stores documents as JSON rows of (id, document) in SQL tables
type Handle struct {
	db      *sqlx.DB
	dialect Dialect
	lg      logger.Logger
}

var _ docdb.Handle = (*Handle)(nil)
var _ docdb.Pinger = (*Handle)(nil)
var _ docdb.Closer = (*Handle)(nil)

func New(db *sqlx.DB, d Dialect, lg logger.Logger) *Handle {
	if lg == nil {
		lg = logger.NullLogger{}
	}

	return &Handle{db: db, dialect: d, lg: lg}
}

// Wrap adapts an already opened *sql.DB
func Wrap(db *sql.DB, d Dialect, lg logger.Logger) *Handle {
	return New(sqlx.NewDb(db, d.DriverName()), d, lg)
}

// Open connects with the dialect's driver
func Open(d Dialect, dsn string, lg logger.Logger) (*Handle, error) {
	db, err := sqlx.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s database", d.DriverName())
	}

	return New(db, d, lg), nil
}

func (h *Handle) Ping(ctx context.Context) error {
	return h.db.PingContext(ctx)
}

func (h *Handle) Close() error {
	return h.db.Close()
}

func (h *Handle) ListTables(ctx context.Context) ([]string, error) {
	query := h.dialect.ShowTablesQuery()
	h.lg.SQL(query)

	var tables []string
	if err := h.db.SelectContext(ctx, &tables, query); err != nil {
		return nil, errors.Wrap(err, "could not list tables")
	}

	return tables, nil
}

func (h *Handle) CreateTable(ctx context.Context, name string) error {
	if err := docdb.ValidateIdentifier(name); err != nil {
		return err
	}

	if err := h.exec(ctx, h.dialect.CreateTableQuery(name)); err != nil {
		if h.dialect.IsTableExists(err) {
			return errors.Wrapf(docdb.ErrTableExists, "[%s]", name)
		}

		return errors.Wrapf(err, "could not create table %s", name)
	}

	return nil
}

func (h *Handle) CreateIndex(ctx context.Context, table, field string) error {
	if err := validate(table, field); err != nil {
		return err
	}

	if err := h.exec(ctx, h.dialect.CreateIndexQuery(table, field)); err != nil {
		if h.dialect.IsIndexExists(err) {
			return errors.Wrapf(docdb.ErrIndexExists, "[%s.%s]", table, field)
		}

		return errors.Wrapf(err, "could not create index on %s.%s", table, field)
	}

	return nil
}

// WaitForIndex only checks the table, SQL indexes are usable once created
func (h *Handle) WaitForIndex(ctx context.Context, table string) error {
	tables, err := h.ListTables(ctx)
	if err != nil {
		return err
	}

	if !docdb.ContainsTable(tables, table) {
		return errors.Wrapf(docdb.ErrTableNotFound, "[%s]", table)
	}

	return nil
}

func (h *Handle) Find(ctx context.Context, table string, q docdb.Query) ([]docdb.Document, error) {
	if err := docdb.ValidateIdentifier(table); err != nil {
		return nil, err
	}

	b := sq.Select(documentColumn).From(h.dialect.Quote(table)).PlaceholderFormat(h.dialect.Placeholder())
	if q.OrderBy != "" {
		if err := docdb.ValidateIdentifier(q.OrderBy); err != nil {
			return nil, err
		}

		order := docdb.ASC
		if q.Desc() {
			order = docdb.DESC
		}

		b = b.OrderBy(fmt.Sprintf("%s %s", h.dialect.FieldExpr(q.OrderBy), order))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "could not build select query")
	}

	h.lg.SQL(query, args...)

	var rows []string
	if err := h.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrapf(err, "could not read from %s", table)
	}

	result := make([]docdb.Document, 0, len(rows))
	for i := range rows {
		doc, err := docdb.Decode([]byte(rows[i]))
		if err != nil {
			return nil, err
		}

		result = append(result, doc)
	}

	return result, nil
}

func (h *Handle) Insert(ctx context.Context, table string, doc docdb.Document) error {
	if err := docdb.ValidateIdentifier(table); err != nil {
		return err
	}

	b, err := docdb.Encode(doc)
	if err != nil {
		return err
	}

	query, args, err := sq.Insert(h.dialect.Quote(table)).
		Columns(idColumn, documentColumn).
		Values(uuid.New().String(), string(b)).
		PlaceholderFormat(h.dialect.Placeholder()).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "could not build insert query")
	}

	if err := h.exec(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "could not insert into %s", table)
	}

	return nil
}

func (h *Handle) DeleteAll(ctx context.Context, table string) error {
	if err := docdb.ValidateIdentifier(table); err != nil {
		return err
	}

	query, args, err := sq.Delete(h.dialect.Quote(table)).PlaceholderFormat(h.dialect.Placeholder()).ToSql()
	if err != nil {
		return errors.Wrap(err, "could not build delete query")
	}

	if err := h.exec(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "could not delete from %s", table)
	}

	return nil
}

func (h *Handle) exec(ctx context.Context, query string, args ...interface{}) error {
	h.lg.SQL(query, args...)

	if _, err := h.db.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	return nil
}

func validate(names ...string) error {
	for _, name := range names {
		if err := docdb.ValidateIdentifier(name); err != nil {
			return err
		}
	}

	return nil
}
