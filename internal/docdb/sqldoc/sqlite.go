package sqldoc

import (
	"fmt"
	sq "github.com/Masterminds/squirrel"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"strings"
)

type SqliteDialect struct{}

var _ Dialect = (*SqliteDialect)(nil)

func NewSqliteDialect() *SqliteDialect {
	return &SqliteDialect{}
}

func (d SqliteDialect) DriverName() string {
	return "sqlite3"
}

func (d SqliteDialect) Placeholder() sq.PlaceholderFormat {
	return sq.Question
}

func (d SqliteDialect) ShowTablesQuery() string {
	return "SELECT name FROM sqlite_master WHERE type='table' ORDER BY name"
}

func (d SqliteDialect) Quote(identifier string) string {
	return `"` + identifier + `"`
}

func (d SqliteDialect) CreateTableQuery(table string) string {
	return fmt.Sprintf(`CREATE TABLE %s (id TEXT PRIMARY KEY, document TEXT NOT NULL)`, d.Quote(table))
}

func (d SqliteDialect) CreateIndexQuery(table, field string) string {
	return fmt.Sprintf(`CREATE INDEX %s ON %s (%s)`, d.Quote(indexName(table, field)), d.Quote(table), d.FieldExpr(field))
}

func (d SqliteDialect) FieldExpr(field string) string {
	return fmt.Sprintf("json_extract(document, '$.%s')", field)
}

func (d SqliteDialect) IsTableExists(err error) bool {
	return isSqliteAlreadyExists(err)
}

func (d SqliteDialect) IsIndexExists(err error) bool {
	return isSqliteAlreadyExists(err)
}

// sqlite reports both as a generic error with an "already exists" message
func isSqliteAlreadyExists(err error) bool {
	var sErr sqlite3.Error
	if errors.As(err, &sErr) {
		return sErr.Code == sqlite3.ErrError && strings.Contains(sErr.Error(), "already exists")
	}

	return false
}
