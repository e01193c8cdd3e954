package sqlmap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// makeSortClause turns sorter entries like "-Price" into an ORDER BY list
// over the mapped columns. Entries may name a field or a column.
func makeSortClause(sorter []string, tc *TableConfiguration) (string, error) {
	if len(sorter) == 0 {
		return "", nil
	}

	var srt []string
	for _, s := range sorter {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}

		op := "ASC"
		field := s
		if s[:1] == "-" || s[:1] == "+" {
			if s[:1] == "-" {
				op = "DESC"
			}
			field = s[1:]
		}

		column, ok := sortColumn(field, tc)
		if !ok {
			return "", fmt.Errorf("%w: cannot sort %s by %q", ErrArgument, tc.TableMap.EntityType, field)
		}

		srt = append(srt, fmt.Sprintf("%s %s", column, op))
	}

	return strings.Join(srt, ", "), nil
}

func sortColumn(name string, tc *TableConfiguration) (string, bool) {
	if pm, ok := tc.PropertyMap(name); ok {
		return pm.ColumnName, true
	}

	for _, pm := range tc.PropertyMaps {
		if strings.EqualFold(pm.ColumnName, name) {
			return pm.ColumnName, true
		}
	}

	return "", false
}

const (
	mysqlDupEntry           = 1062
	mysqlRowIsReferenced    = 1451
	mysqlNoReferencedRow    = 1452
	sqliteConstraintForeign = sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
)

// IsUniqueViolation reports whether err is a unique or primary key
// constraint violation raised by one of the supported drivers. err is not
// modified.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgerrcode.UniqueViolation
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDupEntry
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	return false
}

// IsForeignKeyViolation reports whether err is a foreign key constraint
// violation raised by one of the supported drivers.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.ForeignKeyViolation
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgerrcode.ForeignKeyViolation
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlNoReferencedRow || myErr.Number == mysqlRowIsReferenced
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqliteConstraintForeign
	}

	return false
}
