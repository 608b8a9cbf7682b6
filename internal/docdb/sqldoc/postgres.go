package sqldoc

import (
	"fmt"
	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// duplicate_table is reported for tables and indexes alike
const postgresDuplicateTable = "42P07"

type PostgresDialect struct{}

var _ Dialect = (*PostgresDialect)(nil)

func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (d PostgresDialect) DriverName() string {
	return "postgres"
}

func (d PostgresDialect) Placeholder() sq.PlaceholderFormat {
	return sq.Dollar
}

func (d PostgresDialect) ShowTablesQuery() string {
	return "SELECT tablename FROM pg_catalog.pg_tables WHERE schemaname = current_schema() ORDER BY tablename"
}

// Quote keeps the case of identifiers, pg_tables reports them as written
func (d PostgresDialect) Quote(identifier string) string {
	return pq.QuoteIdentifier(identifier)
}

func (d PostgresDialect) CreateTableQuery(table string) string {
	const createSQL = `CREATE TABLE %s (id VARCHAR(36) PRIMARY KEY, document JSONB NOT NULL)`
	return fmt.Sprintf(createSQL, d.Quote(table))
}

func (d PostgresDialect) CreateIndexQuery(table, field string) string {
	const indexSQL = `CREATE INDEX %s ON %s ((%s))`
	return fmt.Sprintf(indexSQL, d.Quote(indexName(table, field)), d.Quote(table), d.FieldExpr(field))
}

func (d PostgresDialect) FieldExpr(field string) string {
	return fmt.Sprintf("document->>'%s'", field)
}

func (d PostgresDialect) IsTableExists(err error) bool {
	return isPostgresError(err, postgresDuplicateTable)
}

func (d PostgresDialect) IsIndexExists(err error) bool {
	return isPostgresError(err, postgresDuplicateTable)
}

func isPostgresError(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == code
	}

	return false
}
