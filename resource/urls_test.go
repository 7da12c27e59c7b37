package resource_test

import (
	"net/http"
	"testing"

	restnest "github.com/harvard-lil/restnest"
	"github.com/harvard-lil/restnest/http/router"
	"github.com/harvard-lil/restnest/resource"
	"github.com/stretchr/testify/require"
)

func TestRoutes(t *testing.T) {
	// Arrange
	type item struct {
		restnest.Model
		Label string `json:"label"`
	}

	children, err := resource.New[item](
		resource.Meta{Name: "parts"},
		resource.WithSource[item](resource.NewMemorySource[item]()),
		resource.WithResponder[item](quietResponder()),
		resource.WithLogger[item](quietLogger()),
	)
	require.Nil(t, err)

	items, err := resource.New[item](
		resource.Meta{Name: "items"},
		resource.WithSource[item](resource.NewMemorySource[item]()),
		resource.WithResponder[item](quietResponder()),
		resource.WithLogger[item](quietLogger()),
		resource.WithNested[item]("parts", children, resource.Collection(func(p any) map[string]any {
			return map[string]any{"item_id": p.(item).ID}
		})),
		resource.WithDetailActions[item](router.Route{
			Path:    "archive/",
			Method:  http.MethodPost,
			Handler: func(w http.ResponseWriter, r *http.Request) {},
		}),
	)
	require.Nil(t, err)

	// Act
	routes := items.Routes()

	// Assert
	paths := make([]string, 0, len(routes))
	for _, route := range routes {
		paths = append(paths, route.Path)
	}

	require.Equal(t, []string{
		"/items/",
		"/items/schema/",
		`/items/set/{id_list:(?:\w[\w-]*;?)+}/`,
		`/items/{id:\w[\w-]*}/`,
		`/items/{id:\w[\w-]*}/parts/`,
		`/items/{id:\w[\w-]*}/archive/`,
	}, paths)

	// Assert the fixed-segment endpoints register before the detail pattern
	// that would otherwise swallow them
	require.Equal(t, "/items/schema/", routes[1].Path)
	require.Equal(t, http.MethodGet, routes[1].Method)
}

func TestRoutesCustomIdentifier(t *testing.T) {
	// Arrange
	type page struct {
		restnest.Model
		Slug string `json:"slug"`
	}

	pages, err := resource.New[page](
		resource.Meta{Name: "pages", DetailParam: "slug", DetailPattern: `[a-z-]+`},
		resource.WithSource[page](resource.NewMemorySource[page]()),
		resource.WithResponder[page](quietResponder()),
		resource.WithLogger[page](quietLogger()),
	)
	require.Nil(t, err)

	// Act
	routes := pages.Routes()

	// Assert
	require.Equal(t, `/pages/{slug:[a-z-]+}/`, routes[3].Path)
	require.Equal(t, `/pages/set/{slug_list:(?:[a-z-]+;?)+}/`, routes[2].Path)
}

func TestNewValidation(t *testing.T) {
	// Act + Assert: no name
	_, err := resource.New[post](resource.Meta{})
	require.ErrorIs(t, err, restnest.ErrBadConfig)

	// Act + Assert: no source
	_, err = resource.New[post](resource.Meta{Name: "posts"})
	require.ErrorIs(t, err, restnest.ErrBadConfig)

	// Act + Assert: a nested name that would shadow a fixed endpoint
	_, err = resource.New[post](
		resource.Meta{Name: "posts"},
		resource.WithSource[post](resource.NewMemorySource[post]()),
		resource.WithNested[post]("schema", nil, resource.Attr("Author")),
	)
	require.ErrorIs(t, err, restnest.ErrBadConfig)

	// Act + Assert: a detail pattern that does not compile
	_, err = resource.New[post](
		resource.Meta{Name: "posts", DetailPattern: `[`},
		resource.WithSource[post](resource.NewMemorySource[post]()),
	)
	require.ErrorIs(t, err, restnest.ErrBadConfig)
}
