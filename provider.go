package sqlmap

import (
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Provider identifies a supported database backend. The set is closed; the
// provider decides the driver, the bind style and how a generated key is read
// back after insert.
type Provider int

const (
	ProviderUnknown Provider = iota
	ProviderPgx
	ProviderPostgres
	ProviderSQLite
	ProviderSQLite3
	ProviderMySQL
)

var providerNames = map[string]Provider{
	"pgx":      ProviderPgx,
	"postgres": ProviderPostgres,
	"sqlite":   ProviderSQLite,
	"sqlite3":  ProviderSQLite3,
	"mysql":    ProviderMySQL,
}

// ParseProvider resolves a provider identifier, which is also the
// database/sql driver name.
func ParseProvider(name string) (Provider, error) {
	if p, ok := providerNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p, nil
	}

	return ProviderUnknown, fmt.Errorf("%w: unsupported provider %q", ErrConfiguration, name)
}

func (p Provider) String() string {
	return p.DriverName()
}

// DriverName is the name the provider's driver registers with database/sql.
func (p Provider) DriverName() string {
	switch p {
	case ProviderPgx:
		return "pgx"
	case ProviderPostgres:
		return "postgres"
	case ProviderSQLite:
		return "sqlite"
	case ProviderSQLite3:
		return "sqlite3"
	case ProviderMySQL:
		return "mysql"
	default:
		return "unknown"
	}
}

func (p Provider) bindType() int {
	switch p {
	case ProviderPgx, ProviderPostgres:
		return sqlx.DOLLAR
	default:
		return sqlx.QUESTION
	}
}

// returnsGeneratedKey reports whether the generated key comes back as a result
// row of the insert statement itself. Otherwise it is read from
// sql.Result.LastInsertId.
func (p Provider) returnsGeneratedKey() bool {
	return p != ProviderMySQL
}

// generatedKeyClause is appended to an insert statement to return the key.
func (p Provider) generatedKeyClause(keyColumn string) string {
	if !p.returnsGeneratedKey() {
		return ""
	}

	return "RETURNING " + keyColumn
}

// emptyInsert renders an insert without explicit columns.
func (p Provider) emptyInsert(table string) string {
	if p == ProviderMySQL {
		return fmt.Sprintf("INSERT INTO %s() VALUES()", table)
	}

	return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", table)
}

// limitOffsetClause renders paging. SQLite and MySQL need a LIMIT before
// OFFSET, so an unbounded one is written when only an offset is set.
func (p Provider) limitOffsetClause(limit int, offset int64) string {
	if limit < 0 {
		limit = 0
	}

	qry := strings.Builder{}
	if limit > 0 {
		qry.WriteString(fmt.Sprintf(" LIMIT %d", limit))
	} else if offset > 0 {
		switch p {
		case ProviderSQLite, ProviderSQLite3:
			qry.WriteString(" LIMIT -1")
		case ProviderMySQL:
			qry.WriteString(" LIMIT 18446744073709551615")
		}
	}

	if offset > 0 {
		qry.WriteString(fmt.Sprintf(" OFFSET %d", offset))
	}

	return qry.String()
}
