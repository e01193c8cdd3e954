package sqlmap

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// QueryCommand runs a read command and materializes each row into a T.
type QueryCommand[T any] struct {
	command
	registry *Registry
	fields   []string
	columns  map[string]string
	err      error
}

func (q *QueryCommand[T]) Parameter(name string, value any, kind ...ValueKind) *QueryCommand[T] {
	q.setParameter(name, value, kind...)
	return q
}

// Map binds the selected field to a result column, overriding any earlier
// mapping of the same field.
func (q *QueryCommand[T]) Map(sel func(*T) any, column string) *QueryCommand[T] {
	if q.err != nil {
		return q
	}
	if sel == nil {
		q.err = fmt.Errorf("%w: nil field selector for %s", ErrArgument, typeOf[T]())
		return q
	}

	info, err := q.registry.entity(typeOf[T]())
	if err != nil {
		q.err = err
		return q
	}

	fa, err := info.resolve(func(probe reflect.Value) any {
		return sel(probe.Interface().(*T))
	})
	if err != nil {
		q.err = err
		return q
	}

	q.mapField(fa.name, column)
	return q
}

func (q *QueryCommand[T]) mapField(field, column string) {
	if q.columns == nil {
		q.columns = make(map[string]string)
	}

	if _, ok := q.columns[field]; !ok {
		q.fields = append(q.fields, field)
	}
	q.columns[field] = column
}

// Execute runs the query and returns one T per row, in row order. Columns
// without a matching field are skipped; NULL leaves a field at its absence
// marker.
func (q *QueryCommand[T]) Execute(ctx context.Context) ([]T, error) {
	if q.err != nil {
		return nil, q.err
	}

	info, err := q.registry.entity(typeOf[T]())
	if err != nil {
		return nil, err
	}

	if len(q.fields) == 0 {
		q.defaultMaps(info)
	}

	fieldOf := make(map[string]string, len(q.fields))
	for _, f := range q.fields {
		fieldOf[strings.ToLower(q.columns[f])] = f
	}

	rows, err := q.query(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	targets := make([]*fieldAccessor, len(cols))
	for i, col := range cols {
		name := col
		if f, ok := fieldOf[strings.ToLower(col)]; ok {
			name = f
		}
		if fa, ok := info.field(name); ok {
			targets[i] = fa
		}
	}

	result := make([]T, 0)
	for rows.Next() {
		values, dest := scanTargets(len(cols))
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		obj := reflect.New(info.typ).Elem()
		for i, fa := range targets {
			if fa == nil {
				continue
			}
			if err := fa.set(obj, values[i]); err != nil {
				return nil, err
			}
		}

		result = append(result, obj.Interface().(T))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// defaultMaps uses the registered property maps of T, or maps every field to
// a column of the same name when T is not configured.
func (q *QueryCommand[T]) defaultMaps(info *entityInfo) {
	if tc, ok := q.registry.find(info.typ); ok {
		for _, pm := range tc.PropertyMaps {
			q.mapField(pm.FieldName, pm.ColumnName)
		}
		return
	}

	for _, name := range info.names() {
		q.mapField(name, name)
	}
}
