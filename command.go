package sqlmap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type CommandType int

const (
	CommandText CommandType = iota
	// CommandStoredProcedure treats the command text as a procedure name,
	// called with the parameters in the order they were set.
	CommandStoredProcedure
)

// Parameter is a named value bound to one command.
type Parameter struct {
	Name  string
	Value any
	Kind  ValueKind
}

// runner is satisfied by *sqlx.DB and *sqlx.Tx.
type runner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// command resolves its runner when it executes, so one built before
// BeginTransaction still joins the transaction.
type command struct {
	db     *Database
	bind   int
	log    *zap.Logger
	text   string
	typ    CommandType
	params []Parameter
}

// Parameters returns the parameters in bind order.
func (c *command) Parameters() []Parameter {
	return append([]Parameter(nil), c.params...)
}

// setParameter adds a parameter or overwrites the one with the same name in
// place.
func (c *command) setParameter(name string, value any, kind ...ValueKind) {
	name = parameterPrefix + bareParameterName(name)
	k := KindAuto
	if len(kind) > 0 {
		k = kind[0]
	}

	for i := range c.params {
		if c.params[i].Name == name {
			c.params[i].Value = value
			c.params[i].Kind = k
			return
		}
	}

	c.params = append(c.params, Parameter{Name: name, Value: value, Kind: k})
}

// build renders the driver query and its positional arguments.
func (c *command) build() (string, []any, error) {
	text := c.text
	if c.typ == CommandStoredProcedure {
		names := sliceMap(c.params, func(p Parameter) string {
			return p.Name
		})
		text = fmt.Sprintf("CALL %s(%s)", strings.TrimSpace(c.text), strings.Join(names, ", "))
	}

	if len(c.params) == 0 {
		return text, nil, nil
	}

	arg := make(map[string]any, len(c.params))
	for _, p := range c.params {
		v, err := coerceParameter(p.Value, p.Kind)
		if err != nil {
			return "", nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		arg[bareParameterName(p.Name)] = v
	}

	query, args, err := sqlx.Named(text, arg)
	if err != nil {
		return "", nil, err
	}

	return sqlx.Rebind(c.bind, query), args, nil
}

func (c *command) exec(ctx context.Context) (sql.Result, error) {
	query, args, err := c.build()
	if err != nil {
		return nil, err
	}

	c.log.Debug("exec", zap.String("sql", query), zap.Int("params", len(args)))
	return c.db.runner().ExecContext(ctx, query, args...)
}

// query runs the command for rows. The caller closes them.
func (c *command) query(ctx context.Context) (*sql.Rows, error) {
	query, args, err := c.build()
	if err != nil {
		return nil, err
	}

	c.log.Debug("query", zap.String("sql", query), zap.Int("params", len(args)))
	return c.db.runner().QueryContext(ctx, query, args...)
}

// scalar returns the first column of the first row, or nil without rows.
func (c *command) scalar(ctx context.Context) (any, error) {
	rows, err := c.query(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	if len(cols) == 0 {
		return nil, nil
	}

	values, dest := scanTargets(len(cols))
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	return values[0], nil
}

func scanTargets(n int) ([]any, []any) {
	values := make([]any, n)
	dest := make([]any, n)
	for i := range values {
		dest[i] = &values[i]
	}

	return values, dest
}

type NonQueryCommand struct {
	command
}

func (c *NonQueryCommand) Parameter(name string, value any, kind ...ValueKind) *NonQueryCommand {
	c.setParameter(name, value, kind...)
	return c
}

// Execute runs the command for its side effects.
func (c *NonQueryCommand) Execute(ctx context.Context) error {
	_, err := c.exec(ctx)
	return err
}

type ScalarCommand[T any] struct {
	command
}

func (c *ScalarCommand[T]) Parameter(name string, value any, kind ...ValueKind) *ScalarCommand[T] {
	c.setParameter(name, value, kind...)
	return c
}

// Execute returns the first column of the first row converted to T. A NULL
// or missing value fails unless T can represent absence.
func (c *ScalarCommand[T]) Execute(ctx context.Context) (T, error) {
	var zero T
	v, err := c.scalar(ctx)
	if err != nil {
		return zero, err
	}

	t := typeOf[T]()
	if v == nil && !hasAbsenceMarker(t) {
		return zero, fmt.Errorf("%w: null value cannot be converted to %s", ErrTypeConversion, t)
	}

	rv, err := convertValue(v, t)
	if err != nil {
		return zero, err
	}

	out, _ := rv.Interface().(T)
	return out, nil
}
