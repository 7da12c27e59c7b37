package resource

import (
	"fmt"
	"net/http"
	"sort"

	restnest "github.com/harvard-lil/restnest"
	"github.com/harvard-lil/restnest/http/req"
	"github.com/harvard-lil/restnest/http/resp"
	"github.com/harvard-lil/restnest/http/router"
	"github.com/harvard-lil/restnest/logger"
)

// Restable is the type-erased face of a Resource. It is what an Api mounts
// and what parents hold their nested children as, so resources over
// different model types can nest freely.
type Restable interface {
	Meta() Meta
	Routes() []router.Route
	Schema() Schema

	dispatchList(w http.ResponseWriter, r *http.Request, kwargs Kwargs)
	dispatchDetail(w http.ResponseWriter, r *http.Request, kwargs Kwargs)
	authorization() any
	apiName() string
	setApiName(name string)
}

// Resource exposes a model type as a REST endpoint set: list, detail,
// schema, bulk set, and any nested relations declared on it.
type Resource[T restnest.Modelable] struct {
	meta Meta
	api  string

	nested      map[string]NestedField
	nestedNames []string
	actions     []router.Route

	src   Source[T]
	authz Authorizer[T]
	cache Cacher[T]

	d      *resp.Responder
	parser *req.Parser
	log    logger.Logger

	dehydrate func(*Bundle)
}

// OptFn configures a Resource under construction.
type OptFn[T restnest.Modelable] func(*Resource[T])

// WithSource sets where the resource's objects live. Required.
func WithSource[T restnest.Modelable](src Source[T]) OptFn[T] {
	return func(res *Resource[T]) { res.src = src }
}

// WithAuthorizer replaces the default allow-everything authorizer.
func WithAuthorizer[T restnest.Modelable](authz Authorizer[T]) OptFn[T] {
	return func(res *Resource[T]) { res.authz = authz }
}

// WithCache fronts detail lookups with c.
func WithCache[T restnest.Modelable](c Cacher[T]) OptFn[T] {
	return func(res *Resource[T]) { res.cache = c }
}

// WithResponder shares a responder across resources.
func WithResponder[T restnest.Modelable](d *resp.Responder) OptFn[T] {
	return func(res *Resource[T]) { res.d = d }
}

// WithLogger sets the resource's logger.
func WithLogger[T restnest.Modelable](log logger.Logger) OptFn[T] {
	return func(res *Resource[T]) { res.log = log }
}

// WithNested declares a nested relation served under the resource's detail
// URL, e.g. WithNested("comments", commentResource, Collection(...)) serves
// /posts/{id}/comments/.
func WithNested[T restnest.Modelable](name string, child Restable, attr Attribute) OptFn[T] {
	return func(res *Resource[T]) {
		res.nested[name] = NestedField{Resource: child, Attribute: attr}
	}
}

// WithDetailActions appends extra routes under the detail URL, e.g. a
// Route{Path: "publish/", Method: POST} serves /posts/{id}/publish/.
func WithDetailActions[T restnest.Modelable](routes ...router.Route) OptFn[T] {
	return func(res *Resource[T]) { res.actions = append(res.actions, routes...) }
}

// WithDehydrate hooks the representation step: fn may reshape Bundle.Data
// after the default struct-to-map conversion.
func WithDehydrate[T restnest.Modelable](fn func(*Bundle)) OptFn[T] {
	return func(res *Resource[T]) { res.dehydrate = fn }
}

// New constructs a *Resource from meta and opts, validating the combination.
func New[T restnest.Modelable](meta Meta, opts ...OptFn[T]) (*Resource[T], error) {
	meta.applyDefaults()
	if err := meta.valid(); err != nil {
		return nil, err
	}

	res := &Resource[T]{
		meta:   meta,
		nested: make(map[string]NestedField),
	}
	for _, opt := range opts {
		opt(res)
	}

	if res.src == nil {
		return nil, fmt.Errorf("%w: resource %q needs a Source", restnest.ErrBadConfig, meta.Name)
	}

	if res.authz == nil {
		res.authz = FullAccess[T]{}
	}

	if res.cache == nil {
		res.cache = NoopCache[T]{}
	}

	if res.d == nil {
		res.d = resp.NewResponder()
	}

	if res.parser == nil {
		res.parser = req.NewParser()
	}

	if res.log == nil {
		res.log = logger.New()
	}

	for name, nf := range res.nested {
		if !nameRegexp.MatchString(name) || name == "schema" || name == "set" {
			return nil, fmt.Errorf("%w: bad nested name %q on resource %q", restnest.ErrBadConfig, name, meta.Name)
		}

		if nf.Resource == nil || nf.Attribute == nil {
			return nil, fmt.Errorf("%w: nested %q on resource %q needs a resource and an attribute", restnest.ErrBadConfig, name, meta.Name)
		}

		res.nestedNames = append(res.nestedNames, name)
	}
	sort.Strings(res.nestedNames)

	return res, nil
}

// Meta returns a copy of the resource's configuration.
func (res *Resource[T]) Meta() Meta { return res.meta }

func (res *Resource[T]) authorization() any { return res.authz }

func (res *Resource[T]) apiName() string { return res.api }

func (res *Resource[T]) setApiName(name string) { res.api = name }
