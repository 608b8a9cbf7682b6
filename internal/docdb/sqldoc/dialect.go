package sqldoc

import (
	"fmt"
	sq "github.com/Masterminds/squirrel"
)

const (
	idColumn       = "id"
	documentColumn = "document"
)

// Dialect knows how a SQL engine stores JSON documents and reports
// already existing tables and indexes.
type Dialect interface {
	DriverName() string
	Placeholder() sq.PlaceholderFormat
	ShowTablesQuery() string
	Quote(identifier string) string
	CreateTableQuery(table string) string
	CreateIndexQuery(table, field string) string
	FieldExpr(field string) string
	IsTableExists(err error) bool
	IsIndexExists(err error) bool
}

func indexName(table, field string) string {
	return fmt.Sprintf("idx_%s_%s", table, field)
}
