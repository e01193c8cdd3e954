package sqlmap

import (
	"fmt"
	"reflect"
	"strings"
)

// fieldAccessor reads and writes one mappable field of a struct value.
type fieldAccessor struct {
	name  string
	typ   reflect.Type
	index []int
	get   func(obj reflect.Value) any
	set   func(obj reflect.Value, value any) error
}

// entityInfo is the accessor table of a struct type, built once per type.
type entityInfo struct {
	typ     reflect.Type
	fields  []*fieldAccessor
	byName  map[string]*fieldAccessor
	byLower map[string]*fieldAccessor
}

func newEntityInfo(t reflect.Type) (*entityInfo, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct type", ErrArgument, t)
	}

	info := &entityInfo{
		typ:     t,
		byName:  make(map[string]*fieldAccessor),
		byLower: make(map[string]*fieldAccessor),
	}

	for _, sf := range reflect.VisibleFields(t) {
		if sf.Anonymous || !sf.IsExported() || dbTagOmits(sf.Tag.Get("db")) {
			continue
		}
		if unreachable(t, sf.Index) {
			continue
		}

		fa := newFieldAccessor(sf)
		info.fields = append(info.fields, fa)
		info.byName[fa.name] = fa
		lower := strings.ToLower(fa.name)
		if _, ok := info.byLower[lower]; !ok {
			info.byLower[lower] = fa
		}
	}

	return info, nil
}

// unreachable reports whether reaching a promoted field hops through an
// embedded pointer, which may be nil on a fresh value.
func unreachable(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		sf := t.Field(i)
		if sf.Type.Kind() == reflect.Ptr {
			return true
		}
		t = sf.Type
	}

	return false
}

func newFieldAccessor(sf reflect.StructField) *fieldAccessor {
	index := sf.Index
	ft := sf.Type
	name := sf.Name

	return &fieldAccessor{
		name:  name,
		typ:   ft,
		index: index,
		get: func(obj reflect.Value) any {
			return obj.FieldByIndex(index).Interface()
		},
		set: func(obj reflect.Value, value any) error {
			fv := obj.FieldByIndex(index)
			if value == nil && !hasAbsenceMarker(ft) {
				return nil
			}

			cv, err := convertValue(value, ft)
			if err != nil {
				return fmt.Errorf("field %s: %w", name, err)
			}

			fv.Set(cv)
			return nil
		},
	}
}

// field looks a field up by exact name first, then case-insensitively.
func (e *entityInfo) field(name string) (*fieldAccessor, bool) {
	if fa, ok := e.byName[name]; ok {
		return fa, true
	}

	fa, ok := e.byLower[strings.ToLower(name)]
	return fa, ok
}

// resolve maps a field selector to the accessor of the field whose address it
// returns. sel receives a fresh *T probe.
func (e *entityInfo) resolve(sel func(probe reflect.Value) any) (*fieldAccessor, error) {
	probe := reflect.New(e.typ)
	ret := sel(probe)
	if ret == nil {
		return nil, fmt.Errorf("%w: field selector for %s returned nil", ErrArgument, e.typ)
	}

	ptr := reflect.ValueOf(ret)
	if ptr.Kind() != reflect.Ptr || ptr.IsNil() {
		return nil, fmt.Errorf("%w: field selector for %s must return a field address, got %T", ErrArgument, e.typ, ret)
	}

	root := probe.Elem()
	for _, fa := range e.fields {
		fv := root.FieldByIndex(fa.index)
		if fv.Addr().Pointer() == ptr.Pointer() && fv.Type() == ptr.Type().Elem() {
			return fa, nil
		}
	}

	return nil, fmt.Errorf("%w: field selector for %s does not address a mappable field", ErrArgument, e.typ)
}

func (e *entityInfo) names() []string {
	return sliceMap(e.fields, func(fa *fieldAccessor) string {
		return fa.name
	})
}
