package sqlmap

import "go.uber.org/zap"

type Option func(o *options)

type options struct {
	logger       *zap.Logger
	tableNaming  NamingFunc
	columnNaming NamingFunc
}

func defaultOptions() options {
	return options{
		logger:       zap.NewNop(),
		tableNaming:  SameName,
		columnNaming: SameName,
	}
}

// WithLogger sets the logger used for executed commands and transactions.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTableNaming sets how a Go type name becomes a table name when
// ConfigureTable is not given one.
func WithTableNaming(fn NamingFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.tableNaming = fn
		}
	}
}

// WithColumnNaming sets how a field name becomes a column name when the column
// is not configured explicitly.
func WithColumnNaming(fn NamingFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.columnNaming = fn
		}
	}
}

type PropertyOption func(o *propertyOption)

type propertyOption struct {
	column string
	kind   ValueKind
}

// Column overrides the column name of a property.
func Column(name string) PropertyOption {
	return func(o *propertyOption) {
		o.column = name
	}
}

// Kind declares the parameter value kind of a property.
func Kind(kind ValueKind) PropertyOption {
	return func(o *propertyOption) {
		o.kind = kind
	}
}

type QueryOption func(o *queryOption)

type queryOption struct {
	Limit  int
	Offset int64
	Sorter []string
}

// WithLimit returns a QueryOption that sets the limit for the
// number of rows to return.
func WithLimit(limit int) QueryOption {
	return func(o *queryOption) {
		o.Limit = limit
	}
}

// WithOffset returns a QueryOption that sets the offset for the
// rows returned.
func WithOffset(offset int64) QueryOption {
	return func(o *queryOption) {
		o.Offset = offset
	}
}

// WithSorter returns a QueryOption that sets the sorting order for the query.
// The sorter parameter is a variadic slice of field names to sort by, prefixed by "-" for descending order, and prefixed by "+" for ascending order.
//
// example:
//
//	WithSorter("-Name", "+Price")
func WithSorter(sorter ...string) QueryOption {
	return func(o *queryOption) {
		o.Sorter = sorter
	}
}
