package resource

import (
	"fmt"
	"net/http"
	"regexp"

	restnest "github.com/harvard-lil/restnest"
	"github.com/harvard-lil/restnest/auth"
)

const (
	// defaultDetailPattern admits any alphanumeric value and "-",
	// so detail identifiers need not be numeric: UUIDs and slugs route fine.
	defaultDetailPattern = `\w[\w-]*`

	defaultDetailParam = "id"
	defaultPerPage     = int64(20)
)

var nameRegexp = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Meta is the configuration block a resource is constructed around.
// It is read at construction time and never mutated afterwards.
type Meta struct {
	// Name is the resource's URL segment, e.g. "posts".
	Name string

	// DetailParam names the identifier column detail URLs look objects up by.
	// Defaults to "id".
	DetailParam string

	// DetailPattern is the regex detail identifiers must match.
	// Defaults to word characters and hyphens; override for stricter keys.
	DetailPattern string

	// PerPage caps list page sizes. Defaults to 20.
	PerPage int64

	// Filterable whitelists the query params list endpoints accept as filters.
	Filterable []string

	// ListMethods and DetailMethods restrict the HTTP methods each endpoint
	// answers; anything else draws a 405.
	ListMethods   []string
	DetailMethods []string

	// Authenticator, when set, vets every request before dispatch.
	Authenticator auth.Authenticator

	// Throttle, when set, rate limits dispatches per client.
	Throttle *Throttle
}

func (m *Meta) applyDefaults() {
	if m.DetailParam == "" {
		m.DetailParam = defaultDetailParam
	}

	if m.DetailPattern == "" {
		m.DetailPattern = defaultDetailPattern
	}

	if m.PerPage == 0 {
		m.PerPage = defaultPerPage
	}

	if m.ListMethods == nil {
		m.ListMethods = []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		}
	}

	if m.DetailMethods == nil {
		m.DetailMethods = []string{
			http.MethodGet,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		}
	}
}

func (m *Meta) valid() error {
	if m.Name == "" {
		return fmt.Errorf("%w: resource needs a Name", restnest.ErrBadConfig)
	}

	if !nameRegexp.MatchString(m.Name) {
		return fmt.Errorf("%w: resource name %q is not URL-safe", restnest.ErrBadConfig, m.Name)
	}

	if _, err := regexp.Compile(m.DetailPattern); err != nil {
		return fmt.Errorf("%w: bad detail pattern: %s", restnest.ErrBadConfig, err)
	}

	return nil
}
