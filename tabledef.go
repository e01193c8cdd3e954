package sqlmap

import (
	"fmt"
	"reflect"
	"strings"
)

type KeyType int

const (
	KeyNone KeyType = iota
	KeyNatural
	KeyGenerated
)

func (k KeyType) String() string {
	switch k {
	case KeyNatural:
		return "NaturalKey"
	case KeyGenerated:
		return "GeneratedKey"
	default:
		return "None"
	}
}

// PropertyMap describes how one field of an entity is persisted.
type PropertyMap struct {
	FieldName     string
	FieldType     reflect.Type
	ColumnName    string
	ParameterName string
	Kind          ValueKind
	KeyType       KeyType

	field *fieldAccessor
}

func (pm *PropertyMap) IsKey() bool {
	return pm.KeyType != KeyNone
}

type TableMap struct {
	EntityType reflect.Type
	TableName  string
}

// TableConfiguration is the table binding plus the ordered property maps of
// one entity type. Values handed out by the Registry are never mutated.
type TableConfiguration struct {
	TableMap     TableMap
	PropertyMaps []*PropertyMap
}

// KeyMap returns the property map flagged as key.
func (tc *TableConfiguration) KeyMap() (*PropertyMap, error) {
	for _, pm := range tc.PropertyMaps {
		if pm.IsKey() {
			return pm, nil
		}
	}

	return nil, fmt.Errorf("%w: key not configured for type %s", ErrConfiguration, tc.TableMap.EntityType)
}

func (tc *TableConfiguration) ColumnNames() []string {
	return sliceMap(tc.PropertyMaps, func(pm *PropertyMap) string {
		return pm.ColumnName
	})
}

// PropertyMap returns the map of the named field, matched case-insensitively.
func (tc *TableConfiguration) PropertyMap(fieldName string) (*PropertyMap, bool) {
	for _, pm := range tc.PropertyMaps {
		if strings.EqualFold(pm.FieldName, fieldName) {
			return pm, true
		}
	}

	return nil, false
}

func (tc *TableConfiguration) clone() *TableConfiguration {
	maps := make([]*PropertyMap, len(tc.PropertyMaps))
	for i, pm := range tc.PropertyMaps {
		cp := *pm
		maps[i] = &cp
	}

	return &TableConfiguration{
		TableMap:     tc.TableMap,
		PropertyMaps: maps,
	}
}
