package resource

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Kwargs is the per-request lookup state a dispatch accumulates:
// values captured from the URL plus the synthetic bookkeeping keys
// nested dispatch introduces.
//
// Synthetic keys exist only to thread nested context between resources.
// They must never reach the query layer; every CRUD wrapper calls
// StripReserved before building filters.
type Kwargs map[string]any

const (
	// ParentResourceKey holds the Restable a nested dispatch came through.
	ParentResourceKey = "parentResource"

	// ParentObjectKey holds the resolved parent object.
	ParentObjectKey = "parentObject"

	// NestedNameKey holds the declared name of the nested relation.
	NestedNameKey = "nestedName"

	// RelatedQueryKey holds the implicit filter tying a related collection
	// back to its parent.
	RelatedQueryKey = "relatedQuery"

	// ChildObjectKey holds a single-valued relation's resolved object.
	ChildObjectKey = "childObject"
)

var reservedKeys = []string{
	ParentResourceKey,
	ParentObjectKey,
	NestedNameKey,
	RelatedQueryKey,
	ChildObjectKey,
}

// StripReserved returns a copy of kw without any synthetic bookkeeping keys,
// suitable for handing to the query layer.
func (kw Kwargs) StripReserved() Kwargs {
	subset := kw.clone()
	for _, key := range reservedKeys {
		delete(subset, key)
	}

	return subset
}

// nested asserts whether kw carries nested dispatch context.
func (kw Kwargs) nested() bool {
	_, ok := kw[ParentResourceKey]
	return ok
}

func (kw Kwargs) clone() Kwargs {
	dup := make(Kwargs, len(kw))
	for k, v := range kw {
		dup[k] = v
	}

	return dup
}

// filters converts kw into the filter map the query layer consumes.
// Call StripReserved first.
func (kw Kwargs) filters() map[string]any {
	m := make(map[string]any, len(kw))
	for k, v := range kw {
		m[k] = v
	}

	return m
}

// varsKwargs seeds Kwargs from the route variables mux captured.
func varsKwargs(r *http.Request) Kwargs {
	vars := mux.Vars(r)
	kw := make(Kwargs, len(vars))
	for k, v := range vars {
		kw[k] = v
	}

	return kw
}
