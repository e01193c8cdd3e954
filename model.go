package sqlmap

import "reflect"

// TableNamer lets an entity name its own table. It is consulted when
// ConfigureTable is called without a table name.
type TableNamer interface {
	TableName() string
}

func defaultTableName(t reflect.Type, naming NamingFunc) string {
	if tn, ok := reflect.New(t).Interface().(TableNamer); ok {
		if name := tn.TableName(); name != "" {
			return name
		}
	}

	return naming(t.Name())
}
