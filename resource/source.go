package resource

import (
	"context"
	"fmt"
	"sync"

	restnest "github.com/harvard-lil/restnest"
	"github.com/harvard-lil/restnest/postgres"
)

// Source abstracts where a resource's objects live. Filters are column-name
// keyed; slice values mean "any of".
type Source[T any] interface {
	Select(ctx context.Context, filters map[string]any) ([]T, error)
	Insert(ctx context.Context, obj *T) error
	Update(ctx context.Context, obj *T) error
	Delete(ctx context.Context, filters map[string]any) (int64, error)
}

// DBSource backs a resource with a postgres.DB table.
type DBSource[T any] struct {
	db *postgres.DB
}

func NewDBSource[T any](db *postgres.DB) DBSource[T] {
	return DBSource[T]{db: db}
}

func (s DBSource[T]) Select(ctx context.Context, filters map[string]any) ([]T, error) {
	var objs []T
	err := s.db.WithContext(ctx).Model(new(T)).FilterMap(filters).Find(&objs)

	return objs, err
}

func (s DBSource[T]) Insert(ctx context.Context, obj *T) error {
	return s.db.WithContext(ctx).Create(obj)
}

func (s DBSource[T]) Update(ctx context.Context, obj *T) error {
	return s.db.WithContext(ctx).Save(obj)
}

func (s DBSource[T]) Delete(ctx context.Context, filters map[string]any) (int64, error) {
	return s.db.WithContext(ctx).Model(new(T)).FilterMap(filters).Delete(new(T))
}

// MemorySource keeps objects in a slice. It exists for tests and for
// resources whose data is assembled in process; semantics mirror DBSource
// closely enough that handlers cannot tell them apart.
type MemorySource[T any] struct {
	mu     sync.Mutex
	objs   []T
	nextID uint
}

func NewMemorySource[T any](seed ...T) *MemorySource[T] {
	src := &MemorySource[T]{objs: make([]T, 0, len(seed))}
	for _, obj := range seed {
		if err := src.Insert(context.Background(), &obj); err != nil {
			continue
		}
	}

	return src
}

func (s *MemorySource[T]) Select(_ context.Context, filters map[string]any) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var objs []T
	for _, obj := range s.objs {
		ok, err := matchesFilters(obj, filters)
		if err != nil {
			return nil, err
		}

		if ok {
			objs = append(objs, obj)
		}
	}

	return objs, nil
}

func (s *MemorySource[T]) Insert(_ context.Context, obj *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	if err := assignID(obj, s.nextID); err != nil {
		return err
	}

	s.objs = append(s.objs, *obj)

	return nil
}

func (s *MemorySource[T]) Update(_ context.Context, obj *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := columnValue(*obj, "id")
	if err != nil {
		return err
	}

	for i, existing := range s.objs {
		existingID, err := columnValue(existing, "id")
		if err != nil {
			return err
		}

		if fmt.Sprint(existingID) == fmt.Sprint(id) {
			s.objs[i] = *obj
			return nil
		}
	}

	return fmt.Errorf("%w: no record to update", restnest.ErrNotFound)
}

func (s *MemorySource[T]) Delete(_ context.Context, filters map[string]any) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []T
	var removed int64
	for _, obj := range s.objs {
		ok, err := matchesFilters(obj, filters)
		if err != nil {
			return 0, err
		}

		if ok {
			removed++
			continue
		}

		kept = append(kept, obj)
	}
	s.objs = kept

	return removed, nil
}
