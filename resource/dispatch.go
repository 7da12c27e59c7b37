package resource

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	restnest "github.com/harvard-lil/restnest"
	"github.com/harvard-lil/restnest/http/req"
	"github.com/harvard-lil/restnest/logger"
	"github.com/harvard-lil/restnest/postgres"
)

// **************************************************************************
// HANDLERS
//
// The http.HandlerFuncs Routes registers. Each seeds Kwargs from the URL
// and hands off to a dispatch method, so nested resources can re-enter the
// same pipeline with synthetic context attached.
// **************************************************************************

func (res *Resource[T]) handleList(w http.ResponseWriter, r *http.Request) {
	res.dispatchList(w, r, varsKwargs(r))
}

func (res *Resource[T]) handleDetail(w http.ResponseWriter, r *http.Request) {
	res.dispatchDetail(w, r, varsKwargs(r))
}

func (res *Resource[T]) handleSchema(w http.ResponseWriter, r *http.Request) {
	if !res.guard(w, r) {
		return
	}

	_ = res.d.Json(w, r, http.StatusOK, res.Schema())
}

// handleSet serves /<name>/set/<id;id;...>/: the named objects in one
// response, with identifiers that matched nothing reported rather than
// failing the whole request.
func (res *Resource[T]) handleSet(w http.ResponseWriter, r *http.Request) {
	if !res.guard(w, r) {
		return
	}

	kwargs := varsKwargs(r)
	raw, _ := kwargs[res.meta.DetailParam+"_list"].(string)

	var ids []string
	for _, id := range strings.Split(raw, ";") {
		if id != "" {
			ids = append(ids, id)
		}
	}

	objs, err := res.src.Select(r.Context(), map[string]any{res.meta.DetailParam: ids})
	if err != nil {
		res.respondError(w, r, err)
		return
	}
	objs = res.authz.ReadList(r, objs)

	data, err := res.dehydrateAll(r, objs)
	if err != nil {
		res.d.Err(w, r, err)
		return
	}

	found := make(map[string]bool, len(objs))
	for _, obj := range objs {
		if val, err := columnValue(obj, res.meta.DetailParam); err == nil {
			found[fmt.Sprint(val)] = true
		}
	}

	var notFound []string
	for _, id := range ids {
		if !found[id] {
			notFound = append(notFound, id)
		}
	}

	_ = res.d.Json(w, r, http.StatusOK, struct {
		Objects  []map[string]any `json:"objects"`
		NotFound []string         `json:"notFound,omitempty"`
	}{Objects: data, NotFound: notFound})
}

// handleNested serves /<name>/<id>/<nested>/. It resolves the parent object,
// attaches the synthetic nested context to Kwargs, and re-dispatches into
// the child resource as a list or a detail depending on the attribute form.
func (res *Resource[T]) handleNested(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !res.guard(w, r) {
			return
		}

		nf := res.nested[name]
		kwargs := varsKwargs(r)

		parentObj, err := res.cachedObjGet(r, kwargs)
		if err != nil {
			if errors.Is(err, restnest.ErrMultipleMatches) {
				res.d.MultipleChoices(w, r, "more than one parent matches this URI")
				return
			}

			res.respondLookupError(w, r, err)
			return
		}

		child := nf.Resource
		if child.apiName() == "" {
			child.setApiName(res.api)
		}

		res.log.Debug(fmt.Sprintf("dispatching nested %q through %s", name, res.meta.Name), &logger.LogContext{Request: r})

		// The captured identifier names the parent, not the children.
		delete(kwargs, res.meta.DetailParam)
		kwargs[ParentResourceKey] = res
		kwargs[ParentObjectKey] = parentObj
		kwargs[NestedNameKey] = name

		switch attr := nf.Attribute.(type) {
		case collectionAttr:
			kwargs[RelatedQueryKey] = attr(parentObj)
			child.dispatchList(w, r, kwargs)

		case fieldAttr:
			val, err := attrValue(parentObj, string(attr))
			if err != nil {
				res.d.Err(w, r, err)
				return
			}

			kwargs[ChildObjectKey] = val
			child.dispatchDetail(w, r, kwargs)

		case funcAttr:
			val, err := attr(parentObj)
			if err != nil {
				res.d.Err(w, r, err)
				return
			}

			kwargs[ChildObjectKey] = val
			child.dispatchDetail(w, r, kwargs)
		}
	}
}

// **************************************************************************
// DISPATCH
//
// Method gating and fan-out. Both run for plain and nested requests; the
// only difference is what Kwargs carries.
// **************************************************************************

func (res *Resource[T]) dispatchList(w http.ResponseWriter, r *http.Request, kwargs Kwargs) {
	if !res.guard(w, r) {
		return
	}

	if !methodAllowed(res.meta.ListMethods, r.Method) {
		res.d.MethodNotAllowed(w, r, res.meta.ListMethods)
		return
	}

	switch r.Method {
	case http.MethodGet:
		res.getList(w, r, kwargs)
	case http.MethodPost:
		res.postList(w, r, kwargs)
	case http.MethodPut:
		res.putList(w, r, kwargs)
	case http.MethodPatch:
		res.patchList(w, r, kwargs)
	case http.MethodDelete:
		res.deleteList(w, r, kwargs)
	default:
		res.d.MethodNotAllowed(w, r, res.meta.ListMethods)
	}
}

func (res *Resource[T]) dispatchDetail(w http.ResponseWriter, r *http.Request, kwargs Kwargs) {
	if !res.guard(w, r) {
		return
	}

	if !methodAllowed(res.meta.DetailMethods, r.Method) {
		res.d.MethodNotAllowed(w, r, res.meta.DetailMethods)
		return
	}

	switch r.Method {
	case http.MethodGet:
		res.getDetail(w, r, kwargs)
	case http.MethodPut:
		res.putDetail(w, r, kwargs)
	case http.MethodPatch:
		res.patchDetail(w, r, kwargs)
	case http.MethodDelete:
		res.deleteDetail(w, r, kwargs)
	default:
		res.d.MethodNotAllowed(w, r, res.meta.DetailMethods)
	}
}

// **************************************************************************
// LIST OPERATIONS
// **************************************************************************

func (res *Resource[T]) getList(w http.ResponseWriter, r *http.Request, kwargs Kwargs) {
	var lp req.ListParams
	if err := res.parser.ParseQueryParams(r.URL.Query(), &lp); err != nil {
		res.respondError(w, r, err)
		return
	}

	extra := req.Filters(r.URL.Query(), res.meta.Filterable)

	objs, err := res.objGetList(r, kwargs, extra)
	if err != nil {
		res.respondError(w, r, err)
		return
	}

	page, perPage := clampPaging(lp, res.meta.PerPage)
	window := pageSlice(objs, page, perPage)

	data, err := res.dehydrateAll(r, window)
	if err != nil {
		res.d.Err(w, r, err)
		return
	}

	_ = res.d.Json(w, r, http.StatusOK, postgres.PagedData{
		Items:      data,
		Page:       page,
		PerPage:    perPage,
		TotalItems: int64(len(objs)),
		TotalPages: pageCount(int64(len(objs)), perPage),
	})
}

func (res *Resource[T]) postList(w http.ResponseWriter, r *http.Request, kwargs Kwargs) {
	if kwargs.nested() {
		res.d.NotImplemented(w, r, "cannot create objects through a nested URI")
		return
	}

	obj := new(T)
	if err := res.parser.ParseBody(r.Body, obj); err != nil {
		res.respondError(w, r, err)
		return
	}

	if err := res.authz.Create(r, *obj); err != nil {
		res.d.Unauthorized(w, r, "")
		return
	}

	if err := res.objCreate(r, kwargs, obj); err != nil {
		res.respondError(w, r, err)
		return
	}

	data, err := res.fullDehydrate(r, *obj)
	if err != nil {
		res.d.Err(w, r, err)
		return
	}

	w.Header().Set("Location", res.detailURI(*obj))
	_ = res.d.Json(w, r, http.StatusCreated, data)
}

func (res *Resource[T]) putList(w http.ResponseWriter, r *http.Request, kwargs Kwargs) {
	if kwargs.nested() {
		res.d.NotImplemented(w, r, "cannot replace a collection through a nested URI")
		return
	}

	var envelope struct {
		Objects []T `json:"objects"`
	}
	if err := res.parser.ParseBody(r.Body, &envelope); err != nil {
		res.respondError(w, r, err)
		return
	}

	if err := res.objDeleteList(r, kwargs); err != nil {
		res.respondError(w, r, err)
		return
	}

	for i := range envelope.Objects {
		obj := &envelope.Objects[i]
		if err := res.authz.Create(r, *obj); err != nil {
			res.d.Unauthorized(w, r, "")
			return
		}

		if err := res.objCreate(r, kwargs, obj); err != nil {
			res.respondError(w, r, err)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (res *Resource[T]) patchList(w http.ResponseWriter, r *http.Request, kwargs Kwargs) {
	if kwargs.nested() {
		res.d.NotImplemented(w, r, "cannot modify a collection through a nested URI")
		return
	}

	var envelope struct {
		Objects        []T      `json:"objects"`
		DeletedObjects []string `json:"deletedObjects"`
	}
	if err := res.parser.ParseBody(r.Body, &envelope); err != nil {
		res.respondError(w, r, err)
		return
	}

	for i := range envelope.Objects {
		obj := &envelope.Objects[i]

		if (*obj).Exists() {
			if err := res.authz.Update(r, *obj); err != nil {
				res.d.Unauthorized(w, r, "")
				return
			}

			if err := res.objUpdate(r, kwargs, obj); err != nil {
				res.respondError(w, r, err)
				return
			}

			continue
		}

		if err := res.authz.Create(r, *obj); err != nil {
			res.d.Unauthorized(w, r, "")
			return
		}

		if err := res.objCreate(r, kwargs, obj); err != nil {
			res.respondError(w, r, err)
			return
		}
	}

	for _, id := range envelope.DeletedObjects {
		kw := kwargs.StripReserved()
		kw[res.meta.DetailParam] = id

		err := res.objDelete(r, kw)
		if err != nil && !errors.Is(err, restnest.ErrNotFound) {
			res.respondError(w, r, err)
			return
		}
	}

	w.WriteHeader(http.StatusAccepted)
}

func (res *Resource[T]) deleteList(w http.ResponseWriter, r *http.Request, kwargs Kwargs) {
	if err := res.objDeleteList(r, kwargs); err != nil {
		res.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// **************************************************************************
// DETAIL OPERATIONS
// **************************************************************************

func (res *Resource[T]) getDetail(w http.ResponseWriter, r *http.Request, kwargs Kwargs) {
	if raw, ok := kwargs[ChildObjectKey]; ok {
		// A single-valued nested relation: the parent already resolved the
		// object, so no lookup or read check of our own applies.
		obj, ok := childObject[T](raw)
		if !ok {
			res.d.NotFound(w, r, "")
			return
		}

		res.renderDetail(w, r, obj, http.StatusOK)
		return
	}

	obj, err := res.cachedObjGet(r, kwargs)
	if err != nil {
		res.respondLookupError(w, r, err)
		return
	}

	res.renderDetail(w, r, obj, http.StatusOK)
}

func (res *Resource[T]) putDetail(w http.ResponseWriter, r *http.Request, kwargs Kwargs) {
	obj, err := res.objGet(r, kwargs)
	if err != nil {
		res.respondLookupError(w, r, err)
		return
	}

	if err := res.parser.ParseBody(r.Body, &obj); err != nil {
		res.respondError(w, r, err)
		return
	}

	if err := res.authz.Update(r, obj); err != nil {
		res.d.Unauthorized(w, r, "")
		return
	}

	if err := res.objUpdate(r, kwargs, &obj); err != nil {
		res.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (res *Resource[T]) patchDetail(w http.ResponseWriter, r *http.Request, kwargs Kwargs) {
	obj, err := res.objGet(r, kwargs)
	if err != nil {
		res.respondLookupError(w, r, err)
		return
	}

	if err := res.parser.ParseBody(r.Body, &obj); err != nil {
		res.respondError(w, r, err)
		return
	}

	if err := res.authz.Update(r, obj); err != nil {
		res.d.Unauthorized(w, r, "")
		return
	}

	if err := res.objUpdate(r, kwargs, &obj); err != nil {
		res.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (res *Resource[T]) deleteDetail(w http.ResponseWriter, r *http.Request, kwargs Kwargs) {
	obj, err := res.objGet(r, kwargs)
	if err != nil {
		res.respondLookupError(w, r, err)
		return
	}

	if err := res.authz.Delete(r, obj); err != nil {
		res.d.Unauthorized(w, r, "")
		return
	}

	if err := res.objDelete(r, kwargs); err != nil {
		res.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (res *Resource[T]) renderDetail(w http.ResponseWriter, r *http.Request, obj T, code int) {
	data, err := res.fullDehydrate(r, obj)
	if err != nil {
		res.d.Err(w, r, err)
		return
	}

	_ = res.d.Json(w, r, code, data)
}

// **************************************************************************
// CRUD WRAPPERS
//
// Every wrapper strips the synthetic nested keys off Kwargs before any
// filter map is built, so bookkeeping state never leaks into a query.
// **************************************************************************

// objGetList selects the objects matching kwargs plus extra filters,
// including the implicit related filter on a nested dispatch, then narrows
// the result through authorization.
func (res *Resource[T]) objGetList(r *http.Request, kwargs Kwargs, extra map[string]any) ([]T, error) {
	filters := kwargs.StripReserved().filters()

	if related, ok := kwargs[RelatedQueryKey].(map[string]any); ok {
		for col, val := range related {
			filters[col] = val
		}
	}

	for col, val := range extra {
		filters[col] = val
	}

	objs, err := res.src.Select(r.Context(), filters)
	if err != nil {
		return nil, err
	}

	return res.applyAuthLimits(r, kwargs, objs), nil
}

// objGet selects the single object matching kwargs. Zero matches is
// ErrNotExist, more than one is ErrMultipleMatches; the read check runs on
// the survivor.
func (res *Resource[T]) objGet(r *http.Request, kwargs Kwargs) (T, error) {
	var zero T

	objs, err := res.src.Select(r.Context(), kwargs.StripReserved().filters())
	if err != nil {
		return zero, err
	}

	switch len(objs) {
	case 0:
		return zero, fmt.Errorf("%w: no %s matches the provided arguments", restnest.ErrNotExist, res.meta.Name)
	case 1:
	default:
		return zero, fmt.Errorf("%w: more than one %s matches the provided arguments", restnest.ErrMultipleMatches, res.meta.Name)
	}

	obj := objs[0]
	if err := res.authz.ReadDetail(r, obj); err != nil {
		return zero, fmt.Errorf("%w: %s", ErrUnauthorized, err)
	}

	return obj, nil
}

// cachedObjGet is objGet behind the resource's cacher. The read check runs
// even on a hit, so a cache shared across callers cannot launder access.
func (res *Resource[T]) cachedObjGet(r *http.Request, kwargs Kwargs) (T, error) {
	key := cacheKey(res.meta.Name, kwargs.StripReserved().filters())

	if obj, ok := res.cache.Get(r.Context(), key); ok {
		var zero T
		if err := res.authz.ReadDetail(r, obj); err != nil {
			return zero, fmt.Errorf("%w: %s", ErrUnauthorized, err)
		}

		return obj, nil
	}

	obj, err := res.objGet(r, kwargs)
	if err != nil {
		return obj, err
	}
	res.cache.Set(r.Context(), key, obj)

	return obj, nil
}

func (res *Resource[T]) objCreate(r *http.Request, _ Kwargs, obj *T) error {
	return res.src.Insert(r.Context(), obj)
}

func (res *Resource[T]) objUpdate(r *http.Request, kwargs Kwargs, obj *T) error {
	if err := res.src.Update(r.Context(), obj); err != nil {
		return err
	}

	res.cache.Set(r.Context(), cacheKey(res.meta.Name, kwargs.StripReserved().filters()), *obj)

	return nil
}

// objDelete removes the object matching kwargs; deleting nothing is
// ErrNotFound.
func (res *Resource[T]) objDelete(r *http.Request, kwargs Kwargs) error {
	removed, err := res.src.Delete(r.Context(), kwargs.StripReserved().filters())
	if err != nil {
		return err
	}

	if removed == 0 {
		return fmt.Errorf("%w: no %s matches the provided arguments", restnest.ErrNotFound, res.meta.Name)
	}

	return nil
}

// objDeleteList removes every object in the current scope, including the
// implicit related filter on a nested dispatch. Removing nothing is fine.
func (res *Resource[T]) objDeleteList(r *http.Request, kwargs Kwargs) error {
	filters := kwargs.StripReserved().filters()

	if related, ok := kwargs[RelatedQueryKey].(map[string]any); ok {
		for col, val := range related {
			filters[col] = val
		}
	}

	_, err := res.src.Delete(r.Context(), filters)

	return err
}

// **************************************************************************
// HELPERS
// **************************************************************************

// guard runs the pre-dispatch checks: authentication, then throttling.
func (res *Resource[T]) guard(w http.ResponseWriter, r *http.Request) bool {
	if res.meta.Authenticator != nil {
		if err := res.meta.Authenticator.Authenticate(r); err != nil {
			res.d.Unauthorized(w, r, "")
			return false
		}
	}

	if res.meta.Throttle != nil && !res.meta.Throttle.Allow(r) {
		res.d.TooManyRequests(w, r)
		return false
	}

	return true
}

// respondError maps pipeline errors for list and mutation paths,
// where a malformed value is the caller's fault: 400.
func (res *Resource[T]) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		res.d.Unauthorized(w, r, "")

	case errors.Is(err, restnest.ErrMultipleMatches):
		res.d.MultipleChoices(w, r, "")

	case errors.Is(err, restnest.ErrNotExist), errors.Is(err, restnest.ErrNotFound):
		res.d.NotFound(w, r, "")

	case errors.Is(err, restnest.ErrNotValid):
		res.d.BadRequest(w, r, "")

	default:
		res.d.Err(w, r, err)
	}
}

// respondLookupError maps errors from detail lookups, where a malformed
// identifier means the URI names nothing: 404, not 400.
func (res *Resource[T]) respondLookupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		res.d.Unauthorized(w, r, "")

	case errors.Is(err, restnest.ErrMultipleMatches):
		res.d.MultipleChoices(w, r, "more than one resource is found at this URI")

	case errors.Is(err, restnest.ErrNotExist),
		errors.Is(err, restnest.ErrNotFound),
		errors.Is(err, restnest.ErrNotValid):
		res.d.NotFound(w, r, "")

	default:
		res.d.Err(w, r, err)
	}
}

func childObject[T any](raw any) (T, bool) {
	var zero T
	if raw == nil {
		return zero, false
	}

	if obj, ok := raw.(T); ok {
		return obj, true
	}

	if ptr, ok := raw.(*T); ok && ptr != nil {
		return *ptr, true
	}

	return zero, false
}

func methodAllowed(allowed []string, method string) bool {
	for _, m := range allowed {
		if m == method {
			return true
		}
	}

	return false
}

func clampPaging(lp req.ListParams, defaultPerPage int64) (page, perPage int64) {
	page = lp.Page
	if page < 1 {
		page = 1
	}

	perPage = lp.PerPage
	if perPage < 1 || perPage > defaultPerPage {
		perPage = defaultPerPage
	}

	return page, perPage
}

func pageSlice[T any](objs []T, page, perPage int64) []T {
	start := (page - 1) * perPage
	if start >= int64(len(objs)) {
		return nil
	}

	end := start + perPage
	if end > int64(len(objs)) {
		end = int64(len(objs))
	}

	return objs[start:end]
}

func pageCount(total, perPage int64) int64 {
	if total == 0 {
		return 0
	}

	return (total + perPage - 1) / perPage
}
