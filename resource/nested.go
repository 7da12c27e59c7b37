package resource

// Attribute describes how a nested relation resolves off a parent object.
// Use one of the three constructors; the form decides whether the nested
// URL behaves as a collection or a single object.
type Attribute interface {
	sealedAttribute()
}

// fieldAttr names a struct field on the parent holding a single related object.
type fieldAttr string

// funcAttr computes a single related object from the parent.
type funcAttr func(parent any) (any, error)

// collectionAttr yields the filter tying a related collection to its parent,
// e.g. func(p any) map[string]any { return map[string]any{"post_id": p.(Post).ID} }.
type collectionAttr func(parent any) map[string]any

func (fieldAttr) sealedAttribute()      {}
func (funcAttr) sealedAttribute()       {}
func (collectionAttr) sealedAttribute() {}

// Attr resolves the relation by reading the named struct field off the parent.
// The nested URL serves the field's value as a single object.
func Attr(field string) Attribute {
	return fieldAttr(field)
}

// AttrFunc resolves the relation by calling fn with the parent object.
// The nested URL serves the returned value as a single object.
func AttrFunc(fn func(parent any) (any, error)) Attribute {
	return funcAttr(fn)
}

// Collection marks the relation as one-to-many: fn maps the parent object to
// the filter the child resource lists by. The nested URL behaves as a full
// list endpoint, reads only.
func Collection(fn func(parent any) map[string]any) Attribute {
	return collectionAttr(fn)
}

// NestedField pairs a child resource with the attribute resolving it from
// the parent.
type NestedField struct {
	Resource  Restable
	Attribute Attribute
}
