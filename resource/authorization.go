package resource

import (
	"errors"
	"net/http"
)

// ErrUnauthorized is returned by authorizers to refuse an operation.
// The dispatch pipeline renders it as a 401.
var ErrUnauthorized = errors.New("unauthorized")

// Authorizer decides what a request may do with a resource's objects once
// authentication has already passed. ReadList filters rather than refuses:
// returning a subset silently narrows what the caller sees.
type Authorizer[T any] interface {
	ReadList(r *http.Request, objs []T) []T
	ReadDetail(r *http.Request, obj T) error
	Create(r *http.Request, obj T) error
	Update(r *http.Request, obj T) error
	Delete(r *http.Request, obj T) error
}

// FullAccess permits everything. It is the default authorizer.
type FullAccess[T any] struct{}

func (FullAccess[T]) ReadList(_ *http.Request, objs []T) []T  { return objs }
func (FullAccess[T]) ReadDetail(_ *http.Request, _ T) error   { return nil }
func (FullAccess[T]) Create(_ *http.Request, _ T) error       { return nil }
func (FullAccess[T]) Update(_ *http.Request, _ T) error       { return nil }
func (FullAccess[T]) Delete(_ *http.Request, _ T) error       { return nil }

// NestedAuthorizer lets a parent resource's authorizer take over list limiting
// for its nested relations. When the parent's authorizer implements this and
// reports the relation handled, the child's own ReadList is skipped.
//
// name is the relation as declared on the parent, parent the resolved parent
// object. Return handled == false to fall back to the child's authorizer.
type NestedAuthorizer interface {
	LimitNested(name string, r *http.Request, parent any, objs []any) (limited []any, handled bool)
}

// applyAuthLimits narrows a candidate list. On a plain dispatch that is the
// resource's own ReadList; on a nested dispatch the parent's authorizer gets
// first refusal via NestedAuthorizer.
func (res *Resource[T]) applyAuthLimits(r *http.Request, kwargs Kwargs, objs []T) []T {
	parent, ok := kwargs[ParentResourceKey].(Restable)
	if !ok {
		return res.authz.ReadList(r, objs)
	}

	limiter, ok := parent.authorization().(NestedAuthorizer)
	if !ok {
		return res.authz.ReadList(r, objs)
	}

	name, _ := kwargs[NestedNameKey].(string)
	parentObj := kwargs[ParentObjectKey]

	candidates := make([]any, len(objs))
	for i, obj := range objs {
		candidates[i] = obj
	}

	limited, handled := limiter.LimitNested(name, r, parentObj, candidates)
	if !handled {
		return res.authz.ReadList(r, objs)
	}

	kept := make([]T, 0, len(limited))
	for _, candidate := range limited {
		if obj, ok := candidate.(T); ok {
			kept = append(kept, obj)
		}
	}

	return kept
}
