package sqlmap

import "errors"

var (
	ErrConfiguration  = errors.New("configuration error")
	ErrArgument       = errors.New("invalid argument")
	ErrState          = errors.New("invalid state")
	ErrTypeConversion = errors.New("type conversion error")
)
