package sqlmap

import (
	"fmt"
	"reflect"
	"sync"
)

// Registry holds the table configurations of every configured entity type.
// A Factory owns one; each Database built from it shares it.
type Registry struct {
	mu       sync.RWMutex
	opts     options
	configs  map[reflect.Type]*TableConfiguration
	order    []reflect.Type
	entities map[reflect.Type]*entityInfo
}

func NewRegistry(opts ...Option) *Registry {
	o := defaultOptions()
	for _, op := range opts {
		op(&o)
	}

	return newRegistry(o)
}

func newRegistry(o options) *Registry {
	return &Registry{
		opts:     o,
		configs:  make(map[reflect.Type]*TableConfiguration),
		entities: make(map[reflect.Type]*entityInfo),
	}
}

// Lookup returns the table configuration of t. Pointer types resolve to
// their element type.
func (r *Registry) Lookup(t reflect.Type) (*TableConfiguration, error) {
	t = indirectType(t)
	if tc, ok := r.find(t); ok {
		return tc, nil
	}

	return nil, fmt.Errorf("%w: type %s has not been configured", ErrConfiguration, t)
}

// LookupType is Lookup for a type parameter.
func LookupType[T any](r *Registry) (*TableConfiguration, error) {
	return r.Lookup(typeOf[T]())
}

// Types lists the configured entity types in first-registration order.
func (r *Registry) Types() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]reflect.Type(nil), r.order...)
}

func (r *Registry) find(t reflect.Type) (*TableConfiguration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tc, ok := r.configs[t]
	return tc, ok
}

// put registers tc, replacing any previous configuration of the same type.
func (r *Registry) put(tc *TableConfiguration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := tc.TableMap.EntityType
	if _, ok := r.configs[t]; !ok {
		r.order = append(r.order, t)
	}
	r.configs[t] = tc
}

// entity returns the cached accessor table of t, building it on first use.
func (r *Registry) entity(t reflect.Type) (*entityInfo, error) {
	r.mu.RLock()
	info, ok := r.entities[t]
	r.mu.RUnlock()
	if ok {
		return info, nil
	}

	info, err := newEntityInfo(t)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.entities[t]; ok {
		return cached, nil
	}
	r.entities[t] = info

	return info, nil
}

func indirectType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return t
}
