package sqlmap

import (
	"context"
	"fmt"
	"reflect"
)

// Repository is a typed view over the CRUD operations of one configured
// entity type T whose key field has type K.
type Repository[K comparable, T any] struct {
	db *Database
}

// NewRepository checks that T is configured on db's registry with a key of
// type K.
func NewRepository[K comparable, T any](db *Database) (*Repository[K, T], error) {
	repo := &Repository[K, T]{db: db}
	if _, err := repo.keyMap(); err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *Repository[K, T]) keyMap() (*PropertyMap, error) {
	tc, err := LookupType[T](r.db.registry)
	if err != nil {
		return nil, err
	}

	key, err := tc.KeyMap()
	if err != nil {
		return nil, err
	}

	if kt := typeOf[K](); key.FieldType != kt {
		return nil, fmt.Errorf("%w: key %s of %s is %s, not %s", ErrConfiguration, key.FieldName, tc.TableMap.EntityType, key.FieldType, kt)
	}

	return key, nil
}

// Get returns the entity with the given key, or nil when there is none.
func (r *Repository[K, T]) Get(ctx context.Context, id K) (*T, error) {
	return SelectByKey[T](ctx, r.db, id)
}

func (r *Repository[K, T]) All(ctx context.Context, options ...QueryOption) ([]T, error) {
	return Select[T](ctx, r.db, options...)
}

// Insert inserts value and returns its key, generated or not.
func (r *Repository[K, T]) Insert(ctx context.Context, value *T) (K, error) {
	var id K
	key, err := r.keyMap()
	if err != nil {
		return id, err
	}

	if err := r.db.Insert(ctx, value); err != nil {
		return id, err
	}

	id, _ = key.field.get(reflect.ValueOf(value).Elem()).(K)
	return id, nil
}

// InsertAll inserts values in order inside one transaction, unless a
// transaction is already active on the database, in which case it joins it.
func (r *Repository[K, T]) InsertAll(ctx context.Context, values []*T) ([]K, error) {
	own := !r.db.InTransaction()
	if own {
		if err := r.db.BeginTransaction(ctx); err != nil {
			return nil, err
		}
	}

	ids := make([]K, 0, len(values))
	for _, value := range values {
		id, err := r.Insert(ctx, value)
		if err != nil {
			if own {
				_ = r.db.RollbackTransaction()
			}
			return nil, err
		}
		ids = append(ids, id)
	}

	if own {
		if err := r.db.CommitTransaction(); err != nil {
			return nil, err
		}
	}

	return ids, nil
}

func (r *Repository[K, T]) Update(ctx context.Context, value *T) error {
	return r.db.Update(ctx, value)
}

// Delete removes the entity with the given key.
func (r *Repository[K, T]) Delete(ctx context.Context, id K) error {
	key, err := r.keyMap()
	if err != nil {
		return err
	}

	obj := new(T)
	if err := key.field.set(reflect.ValueOf(obj).Elem(), id); err != nil {
		return err
	}

	return r.db.Delete(ctx, obj)
}
