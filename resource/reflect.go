package resource

import (
	"fmt"
	"reflect"
	"strings"

	restnest "github.com/harvard-lil/restnest"
)

// columnValue reads the field of obj whose column name is col.
// Column names follow the postgres package's convention: the db tag when
// present, the snake_cased field name otherwise.
func columnValue(obj any, col string) (any, error) {
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("%w: nil object", restnest.ErrMissingData)
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T has no columns", restnest.ErrNotValid, obj)
	}

	for _, f := range reflect.VisibleFields(v.Type()) {
		if f.Anonymous || !f.IsExported() {
			continue
		}

		if columnName(f) == col {
			return v.FieldByIndex(f.Index).Interface(), nil
		}
	}

	return nil, fmt.Errorf("%w: %T has no column %q", restnest.ErrNotValid, obj, col)
}

// attrValue reads the named Go struct field off obj, dereferencing pointers.
// A nil pointer field resolves to nil rather than an error, matching the
// "relation not set" case a nested dispatch must render as absent.
func attrValue(obj any, field string) (any, error) {
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T has no fields", restnest.ErrNotValid, obj)
	}

	fv := v.FieldByName(field)
	if !fv.IsValid() {
		return nil, fmt.Errorf("%w: %T has no field %q", restnest.ErrNotValid, obj, field)
	}

	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return nil, nil
		}
		fv = fv.Elem()
	}

	return fv.Interface(), nil
}

// matchesFilters reports whether obj satisfies every filter pair.
// Values compare by their string forms, matching how URL captures arrive.
func matchesFilters(obj any, filters map[string]any) (bool, error) {
	for col, want := range filters {
		got, err := columnValue(obj, col)
		if err != nil {
			return false, err
		}

		if !looseEqual(got, want) {
			return false, nil
		}
	}

	return true, nil
}

func looseEqual(got, want any) bool {
	wv := reflect.ValueOf(want)
	if wv.Kind() == reflect.Slice {
		for i := 0; i < wv.Len(); i++ {
			if fmt.Sprint(got) == fmt.Sprint(wv.Index(i).Interface()) {
				return true
			}
		}

		return false
	}

	return fmt.Sprint(got) == fmt.Sprint(want)
}

// assignID sets obj's id column when it is an unset uint, so in-memory
// inserts pick up sequential identifiers the way a serial column would.
func assignID(obj any, id uint) error {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("%w: insert needs a non-nil pointer", restnest.ErrNotValid)
	}
	v = v.Elem()

	if v.Kind() != reflect.Struct {
		return nil
	}

	for _, f := range reflect.VisibleFields(v.Type()) {
		if f.Anonymous || !f.IsExported() || columnName(f) != "id" {
			continue
		}

		fv := v.FieldByIndex(f.Index)
		if fv.CanUint() && fv.Uint() == 0 && fv.CanSet() {
			fv.SetUint(uint64(id))
		}

		return nil
	}

	return nil
}

func columnName(f reflect.StructField) string {
	if tag, ok := f.Tag.Lookup("db"); ok {
		return tag
	}

	return snakeCase(f.Name)
}

func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}

	return b.String()
}
