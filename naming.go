package sqlmap

import (
	"github.com/go-openapi/inflect"
	"github.com/iancoleman/strcase"
)

// NamingFunc turns a Go identifier into a table or column name.
type NamingFunc func(name string) string

func SameName(name string) string {
	return name
}

// SnakeCaseNames maps ProductId to product_id.
func SnakeCaseNames(name string) string {
	return strcase.ToSnake(name)
}

// ScreamingSnakeNames maps ProductId to PRODUCT_ID.
func ScreamingSnakeNames(name string) string {
	return strcase.ToScreamingSnake(name)
}

// PluralTableNames maps Category to Categories.
func PluralTableNames(name string) string {
	return inflect.Pluralize(name)
}

// PluralSnakeTableNames maps ProductCategory to product_categories.
func PluralSnakeTableNames(name string) string {
	return strcase.ToSnake(inflect.Pluralize(name))
}
