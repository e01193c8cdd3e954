package sqlmap

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

const parameterPrefix = ":"

var folder = cases.Fold()

// normalizeName keeps letters and digits only and case-folds the rest.
func normalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}

	return folder.String(b.String())
}

// parameterName derives a bindable parameter name from a column name. A
// column with nothing bindable in it gets ":p".
func parameterName(column string) string {
	var b strings.Builder
	b.Grow(len(column) + 1)
	b.WriteString(parameterPrefix)
	for _, r := range column {
		if r == '_' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))) {
			b.WriteRune(r)
		}
	}
	if b.Len() == len(parameterPrefix) {
		b.WriteString("p")
	}

	return b.String()
}

// uniqueParameterNames suffixes repeated parameter names with _2, _3 and so
// on, in mapping order.
func uniqueParameterNames(maps []*PropertyMap) {
	used := make(map[string]bool, len(maps))
	for _, pm := range maps {
		name := pm.ParameterName
		for i := 2; used[strings.ToLower(name)]; i++ {
			name = fmt.Sprintf("%s_%d", pm.ParameterName, i)
		}
		used[strings.ToLower(name)] = true
		pm.ParameterName = name
	}
}

// bareParameterName strips the bind prefix callers may have written.
func bareParameterName(name string) string {
	name = strings.TrimSpace(name)
	if len(name) > 0 && (name[0] == ':' || name[0] == '@') {
		return name[1:]
	}

	return name
}

// dbTagOmits reports whether a `db` struct tag excludes the field from mapping.
func dbTagOmits(value string) bool {
	return strings.TrimSpace(strings.Split(value, ",")[0]) == "-"
}

func sliceMap[In any, Out any](list []In, mapFn func(val In) Out) []Out {
	var newSlice = make([]Out, len(list))
	for i, val := range list {
		newSlice[i] = mapFn(val)
	}

	return newSlice
}

func sliceContains[T comparable](list []T, val T) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}

	return false
}

func sliceFilter[T any](slice []T, filterFunc func(val T) bool) []T {
	var newSlice []T
	for i, val := range slice {
		if filterFunc(val) {
			newSlice = append(newSlice, slice[i])
		}
	}

	return newSlice
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
