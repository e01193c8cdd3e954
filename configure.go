package sqlmap

import (
	"fmt"
	"reflect"
)

// TableBuilder configures the table binding of entity type T. Calls chain
// until Commit publishes the configuration to the registry.
type TableBuilder[T any] struct {
	registry  *Registry
	info      *entityInfo
	tableName string
	maps      []*PropertyMap
	ignores   []string
	err       error
}

// ConfigureTable starts the configuration of T on the factory's registry.
// Without a table name, T.TableName() is used when T implements TableNamer,
// otherwise the table naming function applied to the type name.
func ConfigureTable[T any](f *Factory, tableName ...string) *TableBuilder[T] {
	return Configure[T](f.registry, tableName...)
}

// Configure starts the configuration of T on r.
func Configure[T any](r *Registry, tableName ...string) *TableBuilder[T] {
	b := &TableBuilder[T]{registry: r}

	b.info, b.err = r.entity(typeOf[T]())
	if b.err != nil {
		return b
	}

	if len(tableName) > 0 && tableName[0] != "" {
		b.tableName = tableName[0]
	} else {
		b.tableName = defaultTableName(b.info.typ, r.opts.tableNaming)
	}

	return b
}

// Key flags the selected field as the entity key, clearing any key flagged
// before. A generated key is assigned by the database on insert and read back.
func (b *TableBuilder[T]) Key(sel func(*T) any, generated bool) *TableBuilder[T] {
	fa := b.resolve(sel)
	if fa == nil {
		return b
	}

	for _, pm := range b.maps {
		pm.KeyType = KeyNone
	}

	keyType := KeyNatural
	if generated {
		keyType = KeyGenerated
	}
	b.addKey(fa, keyType)

	return b
}

// Property maps the selected field. Without Column, the column name comes
// from the column naming function.
func (b *TableBuilder[T]) Property(sel func(*T) any, opts ...PropertyOption) *TableBuilder[T] {
	fa := b.resolve(sel)
	if fa == nil {
		return b
	}

	po := &propertyOption{}
	for _, op := range opts {
		op(po)
	}

	column := po.column
	if column == "" {
		column = b.registry.opts.columnNaming(fa.name)
	}

	if pm := b.mapOf(fa.name); pm != nil {
		pm.ColumnName = column
		pm.ParameterName = parameterName(column)
		pm.Kind = po.kind
		return b
	}

	pm := b.newPropertyMap(fa, KeyNone)
	pm.ColumnName = column
	pm.ParameterName = parameterName(column)
	pm.Kind = po.kind
	b.maps = append(b.maps, pm)

	return b
}

// Ignore excludes the selected field from property inference.
func (b *TableBuilder[T]) Ignore(sel func(*T) any) *TableBuilder[T] {
	fa := b.resolve(sel)
	if fa == nil {
		return b
	}

	if !sliceContains(b.ignores, fa.name) {
		b.ignores = append(b.ignores, fa.name)
	}

	return b
}

// Commit applies the key and property conventions and registers the table
// configuration, replacing any earlier configuration of T.
func (b *TableBuilder[T]) Commit() error {
	if b.err != nil {
		return b.err
	}

	if len(sliceFilter(b.maps, (*PropertyMap).IsKey)) == 0 {
		b.inferKey()
	}

	nonKey := sliceFilter(b.maps, func(pm *PropertyMap) bool {
		return !pm.IsKey()
	})
	if len(nonKey) == 0 {
		b.inferProperties()
	}
	uniqueParameterNames(b.maps)

	tc := &TableConfiguration{
		TableMap: TableMap{
			EntityType: b.info.typ,
			TableName:  b.tableName,
		},
		PropertyMaps: b.maps,
	}
	b.registry.put(tc.clone())

	return nil
}

func (b *TableBuilder[T]) inferKey() {
	typeKey := normalizeName(b.info.typ.Name()) + "id"
	for _, fa := range b.info.fields {
		name := normalizeName(fa.name)
		if name == "id" || name == typeKey {
			b.addKey(fa, KeyNatural)
			return
		}
	}
}

func (b *TableBuilder[T]) inferProperties() {
	for _, fa := range b.info.fields {
		if b.mapOf(fa.name) != nil || sliceContains(b.ignores, fa.name) {
			continue
		}

		b.maps = append(b.maps, b.newPropertyMap(fa, KeyNone))
	}
}

func (b *TableBuilder[T]) addKey(fa *fieldAccessor, keyType KeyType) {
	if pm := b.mapOf(fa.name); pm != nil {
		pm.KeyType = keyType
		return
	}

	b.maps = append(b.maps, b.newPropertyMap(fa, keyType))
}

func (b *TableBuilder[T]) newPropertyMap(fa *fieldAccessor, keyType KeyType) *PropertyMap {
	column := b.registry.opts.columnNaming(fa.name)
	return &PropertyMap{
		FieldName:     fa.name,
		FieldType:     fa.typ,
		ColumnName:    column,
		ParameterName: parameterName(column),
		KeyType:       keyType,
		field:         fa,
	}
}

func (b *TableBuilder[T]) mapOf(fieldName string) *PropertyMap {
	for _, pm := range b.maps {
		if pm.FieldName == fieldName {
			return pm
		}
	}

	return nil
}

func (b *TableBuilder[T]) resolve(sel func(*T) any) *fieldAccessor {
	if b.err != nil {
		return nil
	}

	if sel == nil {
		b.err = fmt.Errorf("%w: nil field selector for %s", ErrArgument, b.info.typ)
		return nil
	}

	fa, err := b.info.resolve(func(probe reflect.Value) any {
		return sel(probe.Interface().(*T))
	})
	if err != nil {
		b.err = err
		return nil
	}

	return fa
}
