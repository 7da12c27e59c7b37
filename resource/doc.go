/*
Package resource exposes model types as REST endpoint sets with nested
relations served under parent detail URLs.

A Resource wraps a model type with a Source (where objects live), an
Authorizer (what a request may do), and an optional Cacher, then derives its
URL table: list, schema, bulk set, detail, and one route per declared nested
relation. An Api groups resources under a shared prefix and mounts them on a
router.Router.

Nested relations are declared with WithNested plus an Attribute:

	posts, _ := resource.New[Post](
		resource.Meta{Name: "posts"},
		resource.WithSource[Post](resource.NewDBSource[Post](db)),
		resource.WithNested[Post]("comments", comments, resource.Collection(func(p any) map[string]any {
			return map[string]any{"post_id": p.(Post).ID}
		})),
	)

GET /posts/42/comments/ then lists comments filtered to post 42, running
the comment resource's own pipeline with the parent context attached.
Parents whose authorizers implement NestedAuthorizer take over list
limiting for their relations.

Bookkeeping about a nested dispatch travels in Kwargs under reserved keys
and is stripped before any database filter is built.
*/
package resource
