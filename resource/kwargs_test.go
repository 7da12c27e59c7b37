package resource_test

import (
	"testing"

	"github.com/harvard-lil/restnest/resource"
	"github.com/stretchr/testify/require"
)

func TestStripReserved(t *testing.T) {
	// Arrange
	kw := resource.Kwargs{
		"id":                        "42",
		"status":                    "published",
		resource.ParentResourceKey:  struct{}{},
		resource.ParentObjectKey:    struct{}{},
		resource.NestedNameKey:      "comments",
		resource.RelatedQueryKey:    map[string]any{"post_id": uint(42)},
		resource.ChildObjectKey:     struct{}{},
	}

	// Act
	stripped := kw.StripReserved()

	// Assert
	require.Equal(t, resource.Kwargs{"id": "42", "status": "published"}, stripped)

	// Assert the original is untouched
	require.Len(t, kw, 7)
}

func TestStripReservedEmpty(t *testing.T) {
	require.Equal(t, resource.Kwargs{}, resource.Kwargs{}.StripReserved())
}
