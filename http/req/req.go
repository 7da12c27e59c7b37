package req

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"

	restnest "github.com/harvard-lil/restnest"
	"github.com/gorilla/schema"
)

// Parser decodes the parts of an HTTP request a resource consumes:
// JSON bodies and query params.
type Parser struct {
	queryParamDecoder *schema.Decoder
}

func NewParser() *Parser {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)

	return &Parser{queryParamDecoder: dec}
}

// ParseBody decodes into a pointer to a struct the JSON data in *http.Request.Body.
//
// ParseBody reads the entire body and can't be read from again.
// Use a [io.TeeReader] if the body needs to be reused after calling ParseBody.
func (p *Parser) ParseBody(body io.Reader, structPtr any) error {
	var ourFault *json.InvalidUnmarshalError
	err := json.NewDecoder(body).Decode(structPtr)
	if errors.As(err, &ourFault) {
		return fmt.Errorf("restnest/http/req: %w: ParseBody called with non-pointer: %s", restnest.ErrUnexpected, err)
	}

	if err != nil {
		return fmt.Errorf("restnest/http/req: %w: failed decoding request body: %s", restnest.ErrNotValid, err)
	}

	return nil
}

// ParseQueryParams decodes into a pointer to a struct the query param data in *http.Request.URL.Query.
func (p *Parser) ParseQueryParams(params url.Values, structPtr any) error {
	if err := p.queryParamDecoder.Decode(structPtr, params); err != nil {
		return fmt.Errorf("restnest/http/req: %w: failed decoding request query params: %s", restnest.ErrNotValid, err)
	}

	return nil
}

// ListParams are the pagination controls every list endpoint accepts.
type ListParams struct {
	Page    int64 `schema:"page"`
	PerPage int64 `schema:"per_page"`
}

// Filters narrows params down to the allowed keys,
// building the filter map a list query runs with.
//
// Repeated params become slice values, matching any of the given values.
func Filters(params url.Values, allowed []string) map[string]any {
	filters := make(map[string]any)
	for _, key := range allowed {
		vals, ok := params[key]
		if !ok || len(vals) == 0 {
			continue
		}

		if len(vals) == 1 {
			filters[key] = vals[0]
			continue
		}

		filters[key] = vals
	}

	return filters
}
