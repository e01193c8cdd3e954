package sqlmap

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Database runs CRUD operations for configured entity types over one
// connection. At most one transaction is active at a time; every command
// built while it is active runs inside it. A Database is not safe for
// concurrent use.
type Database struct {
	db       *sqlx.DB
	tx       *sqlx.Tx
	provider Provider
	registry *Registry
	log      *zap.Logger
}

func newDatabase(db *sqlx.DB, provider Provider, registry *Registry) *Database {
	return &Database{
		db:       db,
		provider: provider,
		registry: registry,
		log:      registry.opts.logger,
	}
}

func (d *Database) Registry() *Registry {
	return d.registry
}

func (d *Database) Provider() Provider {
	return d.provider
}

// Close rolls back an active transaction and closes the connection.
func (d *Database) Close() error {
	if d.tx != nil {
		_ = d.tx.Rollback()
		d.tx = nil
	}

	return d.db.Close()
}

func (d *Database) BeginTransaction(ctx context.Context) error {
	if d.tx != nil {
		return fmt.Errorf("%w: transaction already active", ErrState)
	}

	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	d.log.Debug("transaction begin")
	d.tx = tx
	return nil
}

func (d *Database) CommitTransaction() error {
	if d.tx == nil {
		return fmt.Errorf("%w: no active transaction", ErrState)
	}

	tx := d.tx
	d.tx = nil
	d.log.Debug("transaction commit")
	return tx.Commit()
}

func (d *Database) RollbackTransaction() error {
	if d.tx == nil {
		return fmt.Errorf("%w: no active transaction", ErrState)
	}

	tx := d.tx
	d.tx = nil
	d.log.Debug("transaction rollback")
	return tx.Rollback()
}

// InTransaction reports whether a transaction is active.
func (d *Database) InTransaction() bool {
	return d.tx != nil
}

// Insert inserts obj into its table. When the key is generated, obj must be a
// pointer and its key field receives the value produced by the database.
func (d *Database) Insert(ctx context.Context, obj any) error {
	v, tc, err := d.entityOf(obj)
	if err != nil {
		return err
	}

	key, err := tc.KeyMap()
	if err != nil {
		return err
	}

	generated := key.KeyType == KeyGenerated
	if generated && !v.CanAddr() {
		return fmt.Errorf("%w: %s has a generated key and must be passed by pointer", ErrArgument, v.Type())
	}

	maps := sliceFilter(tc.PropertyMaps, func(pm *PropertyMap) bool {
		return pm.KeyType != KeyGenerated
	})

	table := tc.TableMap.TableName
	var qry string
	if len(maps) == 0 {
		qry = d.provider.emptyInsert(table)
	} else {
		columns := sliceMap(maps, func(pm *PropertyMap) string { return pm.ColumnName })
		params := sliceMap(maps, func(pm *PropertyMap) string { return pm.ParameterName })
		qry = fmt.Sprintf("INSERT INTO %s(%s) VALUES(%s)", table, strings.Join(columns, ", "), strings.Join(params, ", "))
	}

	if generated && d.provider.returnsGeneratedKey() {
		qry = fmt.Sprintf("%s %s", qry, d.provider.generatedKeyClause(key.ColumnName))
	}

	cmd := d.newCommand(qry, CommandText)
	bindProperties(&cmd, maps, v)

	if !generated {
		_, err := cmd.exec(ctx)
		return err
	}

	var id any
	if d.provider.returnsGeneratedKey() {
		if id, err = cmd.scalar(ctx); err != nil {
			return err
		}
	} else {
		res, err := cmd.exec(ctx)
		if err != nil {
			return err
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
	}

	if id == nil {
		return fmt.Errorf("%w: insert into %s returned no key", ErrTypeConversion, table)
	}

	return key.field.set(v, id)
}

// Update writes every non-key column of obj, matched on its key.
func (d *Database) Update(ctx context.Context, obj any) error {
	v, tc, err := d.entityOf(obj)
	if err != nil {
		return err
	}

	key, err := tc.KeyMap()
	if err != nil {
		return err
	}

	maps := sliceFilter(tc.PropertyMaps, func(pm *PropertyMap) bool {
		return !pm.IsKey()
	})
	if len(maps) == 0 {
		return fmt.Errorf("%w: no updatable columns for type %s", ErrConfiguration, tc.TableMap.EntityType)
	}

	sets := sliceMap(maps, func(pm *PropertyMap) string {
		return fmt.Sprintf("%s = %s", pm.ColumnName, pm.ParameterName)
	})
	qry := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s", tc.TableMap.TableName, strings.Join(sets, ", "), key.ColumnName, key.ParameterName)

	cmd := d.newCommand(qry, CommandText)
	bindProperties(&cmd, tc.PropertyMaps, v)

	_, err = cmd.exec(ctx)
	return err
}

// Delete removes the row matching obj's key.
func (d *Database) Delete(ctx context.Context, obj any) error {
	v, tc, err := d.entityOf(obj)
	if err != nil {
		return err
	}

	key, err := tc.KeyMap()
	if err != nil {
		return err
	}

	qry := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", tc.TableMap.TableName, key.ColumnName, key.ParameterName)
	cmd := d.newCommand(qry, CommandText)
	bindProperties(&cmd, []*PropertyMap{key}, v)

	_, err = cmd.exec(ctx)
	return err
}

// NonQuery returns a command for raw SQL run for its side effects.
func (d *Database) NonQuery(text string, typ ...CommandType) *NonQueryCommand {
	return &NonQueryCommand{command: d.newCommand(text, typ...)}
}

// Scalar returns a command for raw SQL producing a single value.
func Scalar[T any](d *Database, text string, typ ...CommandType) *ScalarCommand[T] {
	return &ScalarCommand[T]{command: d.newCommand(text, typ...)}
}

// Query returns a command for raw SQL whose rows are materialized into T.
func Query[T any](d *Database, text string, typ ...CommandType) *QueryCommand[T] {
	return &QueryCommand[T]{
		command:  d.newCommand(text, typ...),
		registry: d.registry,
	}
}

// Select returns every row of T's table.
func Select[T any](ctx context.Context, d *Database, options ...QueryOption) ([]T, error) {
	opt := &queryOption{}
	for _, op := range options {
		op(opt)
	}

	tc, err := LookupType[T](d.registry)
	if err != nil {
		return nil, err
	}

	qry := fmt.Sprintf("SELECT %s FROM %s", strings.Join(tc.ColumnNames(), ", "), tc.TableMap.TableName)

	sorter, err := makeSortClause(opt.Sorter, tc)
	if err != nil {
		return nil, err
	}
	if sorter != "" {
		qry += " ORDER BY " + sorter
	}
	qry += d.provider.limitOffsetClause(opt.Limit, opt.Offset)

	q := Query[T](d, qry)
	for _, pm := range tc.PropertyMaps {
		q.mapField(pm.FieldName, pm.ColumnName)
	}

	return q.Execute(ctx)
}

// SelectByKey returns the row of T whose key equals key, or nil when there is
// none.
func SelectByKey[T any](ctx context.Context, d *Database, key any) (*T, error) {
	tc, err := LookupType[T](d.registry)
	if err != nil {
		return nil, err
	}

	keyMap, err := tc.KeyMap()
	if err != nil {
		return nil, err
	}

	qry := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s", strings.Join(tc.ColumnNames(), ", "), tc.TableMap.TableName, keyMap.ColumnName, keyMap.ParameterName)

	q := Query[T](d, qry)
	q.setParameter(keyMap.ParameterName, key, keyMap.Kind)
	for _, pm := range tc.PropertyMaps {
		q.mapField(pm.FieldName, pm.ColumnName)
	}

	rows, err := q.Execute(ctx)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, nil
	}

	return &rows[0], nil
}

func (d *Database) runner() runner {
	if d.tx != nil {
		return d.tx
	}

	return d.db
}

func (d *Database) newCommand(text string, typ ...CommandType) command {
	ct := CommandText
	if len(typ) > 0 {
		ct = typ[0]
	}

	return command{
		db:   d,
		bind: d.provider.bindType(),
		log:  d.log,
		text: text,
		typ:  ct,
	}
}

// entityOf resolves obj to its struct value and table configuration.
func (d *Database) entityOf(obj any) (reflect.Value, *TableConfiguration, error) {
	if obj == nil {
		return reflect.Value{}, nil, fmt.Errorf("%w: obj is nil", ErrArgument)
	}

	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}, nil, fmt.Errorf("%w: obj is a nil %s", ErrArgument, v.Type())
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return reflect.Value{}, nil, fmt.Errorf("%w: obj must be a struct, got %s", ErrArgument, v.Type())
	}

	tc, err := d.registry.Lookup(v.Type())
	if err != nil {
		return reflect.Value{}, nil, err
	}

	return v, tc, nil
}

func bindProperties(cmd *command, maps []*PropertyMap, v reflect.Value) {
	for _, pm := range maps {
		cmd.setParameter(pm.ParameterName, pm.field.get(v), pm.Kind)
	}
}
