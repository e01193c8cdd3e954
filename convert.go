package sqlmap

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// ValueKind is an explicit parameter type. KindAuto leaves the value as is.
type ValueKind int

const (
	KindAuto ValueKind = iota
	KindString
	KindInt64
	KindFloat64
	KindBool
	KindTime
	KindBytes
	KindUUID
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindBytes:
		return "bytes"
	case KindUUID:
		return "uuid"
	default:
		return "auto"
	}
}

var (
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	timeType    = reflect.TypeOf(time.Time{})
	bytesType   = reflect.TypeOf([]byte(nil))
)

// coerceParameter converts a parameter value to its declared kind before
// binding. Pointers are dereferenced whatever the kind; a nil pointer binds
// as NULL.
func coerceParameter(value any, kind ValueKind) (any, error) {
	if value == nil {
		return nil, nil
	}

	if rv := reflect.ValueOf(value); rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		if _, ok := value.(driver.Valuer); !ok {
			value = rv.Elem().Interface()
		}
	}

	if kind == KindAuto {
		return value, nil
	}

	if v, ok := value.(driver.Valuer); ok {
		dv, err := v.Value()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTypeConversion, err)
		}
		if dv == nil {
			return nil, nil
		}
		value = dv
	}

	var target reflect.Type
	switch kind {
	case KindString:
		target = reflect.TypeOf("")
	case KindInt64:
		target = reflect.TypeOf(int64(0))
	case KindFloat64:
		target = reflect.TypeOf(float64(0))
	case KindBool:
		target = reflect.TypeOf(false)
	case KindTime:
		target = timeType
	case KindBytes:
		target = bytesType
	case KindUUID:
		return toUUID(value)
	default:
		return nil, fmt.Errorf("%w: unknown value kind %d", ErrTypeConversion, kind)
	}

	rv, err := convertValue(value, target)
	if err != nil {
		return nil, err
	}

	return rv.Interface(), nil
}

func toUUID(value any) (any, error) {
	switch v := value.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTypeConversion, err)
		}
		return id, nil
	case []byte:
		parse := uuid.ParseBytes
		if len(v) == 16 {
			parse = uuid.FromBytes
		}
		id, err := parse(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTypeConversion, err)
		}
		return id, nil
	default:
		return nil, fmt.Errorf("%w: cannot convert %T to uuid", ErrTypeConversion, value)
	}
}

// hasAbsenceMarker reports whether NULL has a representation in t.
func hasAbsenceMarker(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
		return true
	}

	return reflect.PointerTo(t).Implements(scannerType)
}

// convertValue coerces a driver value into a value of type t. A nil src
// yields the absence marker of t, or the zero value when t has none.
func convertValue(src any, t reflect.Type) (reflect.Value, error) {
	if src != nil {
		if sv := reflect.ValueOf(src); sv.Type().AssignableTo(t) {
			return sv, nil
		}
	}

	if reflect.PointerTo(t).Implements(scannerType) {
		dst := reflect.New(t)
		if err := dst.Interface().(sql.Scanner).Scan(src); err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %v", ErrTypeConversion, err)
		}
		return dst.Elem(), nil
	}

	if src == nil {
		return reflect.Zero(t), nil
	}

	if t.Kind() == reflect.Ptr {
		inner, err := convertValue(src, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(inner)
		return ptr, nil
	}

	if b, ok := src.([]byte); ok && t != bytesType {
		src = string(b)
	}
	sv := reflect.ValueOf(src)

	out := reflect.New(t).Elem()
	var err error
	switch t.Kind() {
	case reflect.String:
		var s string
		if s, err = cast.ToStringE(src); err == nil {
			out.SetString(s)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var n int64
		if n, err = toInt64(sv); err == nil {
			if out.OverflowInt(n) {
				err = fmt.Errorf("value %d overflows %s", n, t)
			} else {
				out.SetInt(n)
			}
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		var n uint64
		if n, err = toUint64(sv); err == nil {
			if out.OverflowUint(n) {
				err = fmt.Errorf("value %d overflows %s", n, t)
			} else {
				out.SetUint(n)
			}
		}
	case reflect.Float32, reflect.Float64:
		var f float64
		if f, err = cast.ToFloat64E(src); err == nil {
			if out.OverflowFloat(f) {
				err = fmt.Errorf("value %v overflows %s", f, t)
			} else {
				out.SetFloat(f)
			}
		}
	case reflect.Bool:
		var b bool
		if b, err = toBool(sv); err == nil {
			out.SetBool(b)
		}
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			if s, ok := src.(string); ok {
				out.SetBytes([]byte(s))
				break
			}
		}
		err = convertible(sv, t, out)
	default:
		if t == timeType {
			var tm time.Time
			if tm, err = cast.ToTimeE(src); err == nil {
				out.Set(reflect.ValueOf(tm))
			}
			break
		}
		err = convertible(sv, t, out)
	}

	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: cannot convert %T to %s: %v", ErrTypeConversion, src, t, err)
	}

	return out, nil
}

func convertible(sv reflect.Value, t reflect.Type, out reflect.Value) error {
	if !sv.Type().ConvertibleTo(t) {
		return errIncompatible
	}

	out.Set(sv.Convert(t))
	return nil
}

var (
	errIncompatible = errors.New("incompatible types")
	errFraction     = errors.New("value has a fractional part")
	errRange        = errors.New("value out of range")
	errNegative     = errors.New("negative value")
)

// Driver values narrow to integers only when no digit is lost. Text is read
// as base 10, so "010" is ten and "20.00" is twenty.
func toInt64(sv reflect.Value) (int64, error) {
	switch sv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return sv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n := sv.Uint(); n <= math.MaxInt64 {
			return int64(n), nil
		}
		return 0, errRange
	case reflect.Float32, reflect.Float64:
		return int64FromFloat(sv.Float())
	case reflect.String:
		s := strings.TrimSpace(sv.String())
		n, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return n, nil
		}
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0, err
		}
		return int64FromFloat(f)
	}

	return cast.ToInt64E(sv.Interface())
}

func int64FromFloat(f float64) (int64, error) {
	if math.Trunc(f) != f {
		return 0, errFraction
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, errRange
	}

	return int64(f), nil
}

func toUint64(sv reflect.Value) (uint64, error) {
	switch sv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n := sv.Int(); n >= 0 {
			return uint64(n), nil
		}
		return 0, errNegative
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return sv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return uint64FromFloat(sv.Float())
	case reflect.String:
		s := strings.TrimSpace(sv.String())
		n, err := strconv.ParseUint(s, 10, 64)
		if err == nil {
			return n, nil
		}
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0, err
		}
		return uint64FromFloat(f)
	}

	return cast.ToUint64E(sv.Interface())
}

func uint64FromFloat(f float64) (uint64, error) {
	if math.Trunc(f) != f {
		return 0, errFraction
	}
	if f < 0 {
		return 0, errNegative
	}
	if f >= math.MaxUint64 {
		return 0, errRange
	}

	return uint64(f), nil
}

// toBool accepts 0 and 1 or the words true and false.
func toBool(sv reflect.Value) (bool, error) {
	switch sv.Kind() {
	case reflect.Bool:
		return sv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch sv.Int() {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		switch sv.Uint() {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
	case reflect.Float32, reflect.Float64:
		switch sv.Float() {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
	case reflect.String:
		switch s := strings.TrimSpace(sv.String()); {
		case s == "0" || strings.EqualFold(s, "false"):
			return false, nil
		case s == "1" || strings.EqualFold(s, "true"):
			return true, nil
		}
	}

	return false, fmt.Errorf("%v is not a boolean", sv.Interface())
}
