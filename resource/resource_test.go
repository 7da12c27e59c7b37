package resource_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	restnest "github.com/harvard-lil/restnest"
	"github.com/harvard-lil/restnest/http/resp"
	"github.com/harvard-lil/restnest/http/router"
	"github.com/harvard-lil/restnest/logger"
	"github.com/harvard-lil/restnest/resource"
	"github.com/stretchr/testify/require"
)

// **************************************************************************
// FIXTURES
// **************************************************************************

type author struct {
	restnest.Model
	Name string `json:"name"`
}

type post struct {
	restnest.Model
	Title    string  `json:"title"`
	AuthorID uint    `db:"author_id" json:"authorId"`
	Author   *author `db:"-" json:"author,omitempty"`
}

type comment struct {
	restnest.Model
	PostID uint   `db:"post_id" json:"postId"`
	Body   string `json:"body"`
}

// recordingSource wraps a MemorySource and keeps every filter map it sees,
// so tests can assert what actually reached the query layer.
type recordingSource struct {
	inner   *resource.MemorySource[comment]
	filters []map[string]any
}

func (s *recordingSource) Select(ctx context.Context, filters map[string]any) ([]comment, error) {
	s.filters = append(s.filters, filters)
	return s.inner.Select(ctx, filters)
}

func (s *recordingSource) Insert(ctx context.Context, obj *comment) error {
	return s.inner.Insert(ctx, obj)
}

func (s *recordingSource) Update(ctx context.Context, obj *comment) error {
	return s.inner.Update(ctx, obj)
}

func (s *recordingSource) Delete(ctx context.Context, filters map[string]any) (int64, error) {
	s.filters = append(s.filters, filters)
	return s.inner.Delete(ctx, filters)
}

type fixture struct {
	router   *router.Router
	posts    *resource.MemorySource[post]
	comments *recordingSource
}

func quietLogger() logger.Logger {
	return logger.New(logger.WithLevel(logger.LogLevelFatal))
}

func quietResponder() *resp.Responder {
	return resp.NewResponder(resp.WithLogger(quietLogger()))
}

// newFixture stands up a blog-shaped API under /v1: posts with a nested
// comment collection, a nested single-valued author, and a publish action.
func newFixture(t *testing.T, postOpts ...resource.OptFn[post]) *fixture {
	t.Helper()

	ada := author{Name: "ada"}
	authors := resource.NewMemorySource(ada)
	ada.ID = 1

	posts := resource.NewMemorySource(
		post{Title: "intro", AuthorID: 1, Author: &ada},
		post{Title: "followup", AuthorID: 1},
	)
	comments := &recordingSource{inner: resource.NewMemorySource(
		comment{PostID: 1, Body: "first"},
		comment{PostID: 1, Body: "second"},
		comment{PostID: 2, Body: "third"},
	)}

	authorsRes, err := resource.New[author](
		resource.Meta{Name: "authors"},
		resource.WithSource[author](authors),
		resource.WithResponder[author](quietResponder()),
		resource.WithLogger[author](quietLogger()),
	)
	require.Nil(t, err)

	commentsRes, err := resource.New[comment](
		resource.Meta{Name: "comments", Filterable: []string{"post_id"}},
		resource.WithSource[comment](comments),
		resource.WithResponder[comment](quietResponder()),
		resource.WithLogger[comment](quietLogger()),
	)
	require.Nil(t, err)

	opts := []resource.OptFn[post]{
		resource.WithSource[post](posts),
		resource.WithResponder[post](quietResponder()),
		resource.WithLogger[post](quietLogger()),
		resource.WithNested[post]("comments", commentsRes, resource.Collection(func(p any) map[string]any {
			return map[string]any{"post_id": p.(post).ID}
		})),
		resource.WithNested[post]("author", authorsRes, resource.Attr("Author")),
		resource.WithDetailActions[post](router.Route{
			Path:   "publish/",
			Method: http.MethodPost,
			Handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				fmt.Fprintf(w, `{"published":%q}`, mux.Vars(r)["id"])
			},
		}),
	}
	opts = append(opts, postOpts...)

	postsRes, err := resource.New[post](resource.Meta{Name: "posts"}, opts...)
	require.Nil(t, err)

	api := resource.NewApi("v1")
	api.Register(postsRes, commentsRes, authorsRes)

	rt := router.New("development", nil)
	api.Mount(rt)

	return &fixture{router: rt, posts: posts, comments: comments}
}

func do(t *testing.T, rt *router.Router, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var rdr *strings.Reader
	if body == "" {
		rdr = strings.NewReader("")
	} else {
		rdr = strings.NewReader(body)
	}

	r := httptest.NewRequest(method, "https://example.com"+target, rdr)
	rr := httptest.NewRecorder()
	rt.ServeHTTP(rr, r)

	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var data map[string]any
	require.Nil(t, json.Unmarshal(rr.Body.Bytes(), &data))

	return data
}

// **************************************************************************
// LIST + DETAIL
// **************************************************************************

func TestGetList(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	rr := do(t, f.router, http.MethodGet, "/v1/posts/", "")

	// Assert
	require.Equal(t, http.StatusOK, rr.Code)

	data := decode(t, rr)
	require.Equal(t, float64(2), data["totalItems"])
	require.Len(t, data["items"], 2)
}

func TestGetListPagination(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	rr := do(t, f.router, http.MethodGet, "/v1/comments/?page=2&per_page=2", "")

	// Assert
	require.Equal(t, http.StatusOK, rr.Code)

	data := decode(t, rr)
	require.Equal(t, float64(2), data["page"])
	require.Equal(t, float64(3), data["totalItems"])
	require.Equal(t, float64(2), data["totalPages"])
	require.Len(t, data["items"], 1)
}

func TestGetListFiltered(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	rr := do(t, f.router, http.MethodGet, "/v1/comments/?post_id=2", "")

	// Assert
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, decode(t, rr)["items"], 1)

	// Act: params outside the whitelist are ignored, not applied
	rr = do(t, f.router, http.MethodGet, "/v1/comments/?body=first", "")

	// Assert
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, decode(t, rr)["items"], 3)
}

func TestGetDetail(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	rr := do(t, f.router, http.MethodGet, "/v1/posts/1/", "")

	// Assert
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "intro", decode(t, rr)["title"])
}

func TestGetDetailNotFound(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	rr := do(t, f.router, http.MethodGet, "/v1/posts/99/", "")

	// Assert
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetDetailMultipleMatches(t *testing.T) {
	// Arrange: two books share the title the detail URL looks up by
	type book struct {
		restnest.Model
		Title string `json:"title"`
	}

	books, err := resource.New[book](
		resource.Meta{Name: "books", DetailParam: "title"},
		resource.WithSource[book](resource.NewMemorySource(
			book{Title: "dup"},
			book{Title: "dup"},
		)),
		resource.WithResponder[book](quietResponder()),
		resource.WithLogger[book](quietLogger()),
	)
	require.Nil(t, err)

	api := resource.NewApi("v1")
	api.Register(books)

	rt := router.New("development", nil)
	api.Mount(rt)

	// Act
	rr := do(t, rt, http.MethodGet, "/v1/books/dup/", "")

	// Assert
	require.Equal(t, http.StatusMultipleChoices, rr.Code)
}

// **************************************************************************
// MUTATIONS
// **************************************************************************

func TestPostList(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	rr := do(t, f.router, http.MethodPost, "/v1/posts/", `{"title":"brand new","authorId":1}`)

	// Assert
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, "/v1/posts/3/", rr.Header().Get("Location"))
	require.Equal(t, float64(3), decode(t, rr)["id"])
}

func TestPostListBadBody(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	rr := do(t, f.router, http.MethodPost, "/v1/posts/", `{"title":`)

	// Assert
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPutDetail(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	rr := do(t, f.router, http.MethodPut, "/v1/posts/1/", `{"title":"edited"}`)

	// Assert
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, f.router, http.MethodGet, "/v1/posts/1/", "")
	require.Equal(t, "edited", decode(t, rr)["title"])
}

func TestPatchDetail(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	rr := do(t, f.router, http.MethodPatch, "/v1/posts/2/", `{"title":"revised"}`)

	// Assert
	require.Equal(t, http.StatusAccepted, rr.Code)

	rr = do(t, f.router, http.MethodGet, "/v1/posts/2/", "")
	require.Equal(t, "revised", decode(t, rr)["title"])
}

func TestDeleteDetail(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	rr := do(t, f.router, http.MethodDelete, "/v1/posts/2/", "")

	// Assert
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, f.router, http.MethodGet, "/v1/posts/2/", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPatchList(t *testing.T) {
	// Arrange
	f := newFixture(t)

	body := `{"objects":[{"id":1,"title":"patched","authorId":1},{"title":"added","authorId":1}],"deletedObjects":["2"]}`

	// Act
	rr := do(t, f.router, http.MethodPatch, "/v1/posts/", body)

	// Assert
	require.Equal(t, http.StatusAccepted, rr.Code)

	rr = do(t, f.router, http.MethodGet, "/v1/posts/1/", "")
	require.Equal(t, "patched", decode(t, rr)["title"])

	rr = do(t, f.router, http.MethodGet, "/v1/posts/2/", "")
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, f.router, http.MethodGet, "/v1/posts/", "")
	require.Equal(t, float64(2), decode(t, rr)["totalItems"])
}

// **************************************************************************
// EXTRA ENDPOINTS
// **************************************************************************

func TestSchema(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	rr := do(t, f.router, http.MethodGet, "/v1/posts/schema/", "")

	// Assert
	require.Equal(t, http.StatusOK, rr.Code)

	data := decode(t, rr)
	require.Equal(t, "posts", data["resourceName"])
	require.Equal(t, "id", data["detailParam"])
	require.ElementsMatch(t, []any{"author", "comments"}, data["nested"])

	fields := data["fields"].(map[string]any)
	require.Contains(t, fields, "title")
	require.Contains(t, fields, "id")
}

func TestSet(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	rr := do(t, f.router, http.MethodGet, "/v1/posts/set/1;2;99/", "")

	// Assert
	require.Equal(t, http.StatusOK, rr.Code)

	data := decode(t, rr)
	require.Len(t, data["objects"], 2)
	require.Equal(t, []any{"99"}, data["notFound"])
}

func TestDetailAction(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	rr := do(t, f.router, http.MethodPost, "/v1/posts/1/publish/", "")

	// Assert
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "1", decode(t, rr)["published"])
}

func TestMethodNotAllowed(t *testing.T) {
	// Arrange: a read-only resource
	f := newFixture(t)

	readonly, err := resource.New[comment](
		resource.Meta{
			Name:          "notes",
			ListMethods:   []string{http.MethodGet},
			DetailMethods: []string{http.MethodGet},
		},
		resource.WithSource[comment](resource.NewMemorySource(comment{Body: "hi"})),
		resource.WithResponder[comment](quietResponder()),
		resource.WithLogger[comment](quietLogger()),
	)
	require.Nil(t, err)

	api := resource.NewApi("v1")
	api.Register(readonly)
	api.Mount(f.router)

	// Act
	rr := do(t, f.router, http.MethodPost, "/v1/notes/", `{"body":"nope"}`)

	// Assert
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	require.Equal(t, "GET", rr.Header().Get("Allow"))

	// Act + Assert: detail too
	rr = do(t, f.router, http.MethodDelete, "/v1/notes/1/", "")
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestCustomDetailPattern(t *testing.T) {
	// Arrange: identifiers are numeric only
	nums, err := resource.New[comment](
		resource.Meta{Name: "nums", DetailPattern: `[0-9]+`},
		resource.WithSource[comment](resource.NewMemorySource(comment{Body: "one"})),
		resource.WithResponder[comment](quietResponder()),
		resource.WithLogger[comment](quietLogger()),
	)
	require.Nil(t, err)

	api := resource.NewApi("v1")
	api.Register(nums)

	rt := router.New("development", nil)
	api.Mount(rt)

	// Act + Assert: a numeric identifier routes
	rr := do(t, rt, http.MethodGet, "/v1/nums/1/", "")
	require.Equal(t, http.StatusOK, rr.Code)

	// Act + Assert: a non-numeric one never reaches the resource
	rr = do(t, rt, http.MethodGet, "/v1/nums/abc/", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
}
