package resource

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	restnest "github.com/harvard-lil/restnest"
)

// Bundle carries one object through the representation step.
type Bundle struct {
	Request *http.Request
	Obj     any
	Data    map[string]any
}

// fullDehydrate converts obj into its wire representation: the default
// struct-to-map conversion via JSON tags, then the resource's dehydrate
// hook when one is set.
func (res *Resource[T]) fullDehydrate(r *http.Request, obj T) (map[string]any, error) {
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", restnest.ErrUnexpected, err)
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %s", restnest.ErrUnexpected, err)
	}

	if res.dehydrate != nil {
		b := &Bundle{Request: r, Obj: obj, Data: data}
		res.dehydrate(b)
		data = b.Data
	}

	return data, nil
}

func (res *Resource[T]) dehydrateAll(r *http.Request, objs []T) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(objs))
	for _, obj := range objs {
		data, err := res.fullDehydrate(r, obj)
		if err != nil {
			return nil, err
		}

		out = append(out, data)
	}

	return out, nil
}

// Schema describes a resource's shape to API consumers.
type Schema struct {
	Name          string                 `json:"resourceName"`
	DetailParam   string                 `json:"detailParam"`
	DetailPattern string                 `json:"detailPattern"`
	ListMethods   []string               `json:"allowedListMethods"`
	DetailMethods []string               `json:"allowedDetailMethods"`
	Filterable    []string               `json:"filterable,omitempty"`
	Nested        []string               `json:"nested,omitempty"`
	Fields        map[string]SchemaField `json:"fields"`
}

type SchemaField struct {
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// Schema derives the resource's schema from its Meta and from T's
// exported fields as JSON renders them.
func (res *Resource[T]) Schema() Schema {
	return Schema{
		Name:          res.meta.Name,
		DetailParam:   res.meta.DetailParam,
		DetailPattern: res.meta.DetailPattern,
		ListMethods:   res.meta.ListMethods,
		DetailMethods: res.meta.DetailMethods,
		Filterable:    res.meta.Filterable,
		Nested:        res.nestedNames,
		Fields:        schemaFields(reflect.TypeOf(*new(T))),
	}
}

func schemaFields(t reflect.Type) map[string]SchemaField {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}

	fields := make(map[string]SchemaField)
	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous || !f.IsExported() {
			continue
		}

		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			if tag == "-" {
				continue
			}

			if comma := strings.IndexByte(tag, ','); comma >= 0 {
				tag = tag[:comma]
			}

			if tag != "" {
				name = tag
			}
		}

		fields[name] = SchemaField{
			Type:     schemaType(f.Type),
			Nullable: f.Type.Kind() == reflect.Pointer,
		}
	}

	return fields
}

func schemaType(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return "string"

	case reflect.Bool:
		return "boolean"

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"

	case reflect.Float32, reflect.Float64:
		return "float"

	case reflect.Slice, reflect.Array:
		return "list"

	case reflect.Map, reflect.Struct:
		return "object"

	default:
		return t.Kind().String()
	}
}
