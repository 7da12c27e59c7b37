package resource

import (
	"github.com/harvard-lil/restnest/http/middleware"
	"github.com/harvard-lil/restnest/http/router"
)

// Api groups resources under a shared URL prefix, e.g. NewApi("v1") serves
// its resources below /v1/.
//
// Nested resources need not be registered themselves: a child reached only
// through its parent's detail URL inherits the parent's prefix at dispatch
// and gets no top-level routes of its own.
type Api struct {
	name      string
	resources []Restable
}

func NewApi(name string) *Api {
	return &Api{name: name}
}

// Register adds resources to the Api, claiming them for its prefix.
func (a *Api) Register(resources ...Restable) {
	for _, res := range resources {
		res.setApiName(a.name)
		a.resources = append(a.resources, res)
	}
}

// Mount registers every resource's routes on r under the Api's prefix.
// Middlewares apply to every mounted route, after the router's own stack.
func (a *Api) Mount(r *router.Router, middlewares ...middleware.Adapter) {
	sub := r
	if a.name != "" {
		sub = r.Subrouter("/" + a.name)
	}

	for _, res := range a.resources {
		sub.HandleRoutes(res.Routes(), middlewares...)
	}
}
