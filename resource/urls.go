package resource

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/harvard-lil/restnest/http/router"
)

// Routes builds the resource's URL table:
//
//	/<name>/                        list
//	/<name>/schema/                 schema
//	/<name>/set/<id;id;...>/        bulk set
//	/<name>/<id>/                   detail
//	/<name>/<id>/<nested>/          one per declared nested relation
//	/<name>/<id>/<action>           one per declared detail action
//
// Schema and set register before detail so a literal "schema" or "set"
// segment never parses as a detail identifier. List and detail routes carry
// no method restriction: their handlers dispatch on the method themselves
// to answer 405 with an accurate Allow header.
func (res *Resource[T]) Routes() []router.Route {
	detailPath := fmt.Sprintf("/%s/{%s:%s}/", res.meta.Name, res.meta.DetailParam, res.meta.DetailPattern)

	routes := []router.Route{
		{
			Path:    fmt.Sprintf("/%s/", res.meta.Name),
			Handler: res.handleList,
		},
		{
			Path:    fmt.Sprintf("/%s/schema/", res.meta.Name),
			Method:  http.MethodGet,
			Handler: res.handleSchema,
		},
		{
			Path:    fmt.Sprintf("/%s/set/{%s_list:(?:%s;?)+}/", res.meta.Name, res.meta.DetailParam, res.meta.DetailPattern),
			Method:  http.MethodGet,
			Handler: res.handleSet,
		},
		{
			Path:    detailPath,
			Handler: res.handleDetail,
		},
	}

	for _, name := range res.nestedNames {
		routes = append(routes, router.Route{
			Path:    detailPath + name + "/",
			Handler: res.handleNested(name),
		})
	}

	for _, action := range res.actions {
		routes = append(routes, router.Route{
			Path:        detailPath + strings.TrimPrefix(action.Path, "/"),
			Method:      action.Method,
			Handler:     action.Handler,
			Middlewares: action.Middlewares,
		})
	}

	return routes
}

// detailURI renders the canonical detail location for obj,
// e.g. /v1/posts/42/.
func (res *Resource[T]) detailURI(obj T) string {
	val, err := columnValue(obj, res.meta.DetailParam)
	if err != nil {
		return ""
	}

	var b strings.Builder
	if res.api != "" {
		b.WriteString("/" + res.api)
	}
	fmt.Fprintf(&b, "/%s/%v/", res.meta.Name, val)

	return b.String()
}
