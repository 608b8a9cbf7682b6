package sqldoc

import (
	"fmt"
	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

const (
	DefaultMySQLCharset = "utf8mb4"

	mysqlTableExists  = 1050
	mysqlDuplicateKey = 1061
)

type MySQLDialect struct {
	charset string
}

var _ Dialect = (*MySQLDialect)(nil)

func NewMySQLDialect(charset string) *MySQLDialect {
	if charset == "" {
		charset = DefaultMySQLCharset
	}

	return &MySQLDialect{charset: charset}
}

func (d MySQLDialect) DriverName() string {
	return "mysql"
}

func (d MySQLDialect) Placeholder() sq.PlaceholderFormat {
	return sq.Question
}

func (d MySQLDialect) ShowTablesQuery() string {
	return "SHOW TABLES"
}

func (d MySQLDialect) Quote(identifier string) string {
	return "`" + identifier + "`"
}

func (d MySQLDialect) CreateTableQuery(table string) string {
	const createSQL = "CREATE TABLE %s (`id` VARCHAR(36) PRIMARY KEY, `document` JSON NOT NULL) ENGINE=InnoDB CHARACTER SET=%s"
	return fmt.Sprintf(createSQL, d.Quote(table), d.charset)
}

// CreateIndexQuery uses a functional index, available since MySQL 8.0.13
func (d MySQLDialect) CreateIndexQuery(table, field string) string {
	const indexSQL = "CREATE INDEX %s ON %s ((CAST(%s AS CHAR(64)) COLLATE utf8mb4_bin))"
	return fmt.Sprintf(indexSQL, d.Quote(indexName(table, field)), d.Quote(table), d.FieldExpr(field))
}

func (d MySQLDialect) FieldExpr(field string) string {
	return fmt.Sprintf("`document`->>'$.%s'", field)
}

func (d MySQLDialect) IsTableExists(err error) bool {
	return isMySQLError(err, mysqlTableExists)
}

func (d MySQLDialect) IsIndexExists(err error) bool {
	return isMySQLError(err, mysqlDuplicateKey)
}

func isMySQLError(err error, number uint16) bool {
	var mErr *mysql.MySQLError
	if errors.As(err, &mErr) {
		return mErr.Number == number
	}

	return false
}
