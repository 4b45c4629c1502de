package typedapi

import (
	"context"
	"net/http"
	"reflect"
	"time"

	"github.com/typedapi/typedapi/pkg/binder"
	"github.com/typedapi/typedapi/pkg/session"
	"github.com/typedapi/typedapi/pkg/tasks"
)

// Handler is a typed route handler. The request struct describes
// extraction through its tags; the response is serialized per the route's
// response class.
type Handler[Req, Resp any] func(ctx context.Context, req *Req) (*Resp, error)

// RawHandler is the escape hatch for routes that own the response writer.
type RawHandler func(w http.ResponseWriter, r *http.Request) error

// Get registers a GET route.
func Get[Req, Resp any](a *App, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(a, http.MethodGet, pattern, h, opts...)
}

// Post registers a POST route. Default success status is 201.
func Post[Req, Resp any](a *App, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(a, http.MethodPost, pattern, h, opts...)
}

// Put registers a PUT route.
func Put[Req, Resp any](a *App, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(a, http.MethodPut, pattern, h, opts...)
}

// Patch registers a PATCH route.
func Patch[Req, Resp any](a *App, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(a, http.MethodPatch, pattern, h, opts...)
}

// Delete registers a DELETE route.
func Delete[Req, Resp any](a *App, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(a, http.MethodDelete, pattern, h, opts...)
}

// Head registers a HEAD route.
func Head[Req, Resp any](a *App, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(a, http.MethodHead, pattern, h, opts...)
}

// Options registers an OPTIONS route.
func Options[Req, Resp any](a *App, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(a, http.MethodOptions, pattern, h, opts...)
}

// Raw registers a handler that writes the response itself. Returned errors
// still flow through the app's error handler.
func Raw(a *App, method, pattern string, h RawHandler, opts ...RouteOption) {
	ri := &routeInfo{
		method:        method,
		pattern:       pattern,
		status:        http.StatusOK,
		responseClass: classStream,
	}
	for _, opt := range opts {
		opt(ri)
	}
	ri.handler = func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			a.errors(w, r, err)
		}
	}
	a.addRoute(ri)
}

func register[Req, Resp any](a *App, method, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	ri := &routeInfo{
		method:        method,
		pattern:       pattern,
		responseClass: classJSON,
		reqType:       typeOf[Req](),
		respType:      typeOf[Resp](),
	}
	for _, opt := range opts {
		opt(ri)
	}

	plan := planFor(ri.reqType, method)
	ri.hasBody = plan.hasBody
	for _, inj := range plan.injects {
		if inj.kind == injectDep {
			ri.deps = append(ri.deps, inj.typ)
		}
	}

	if ri.status == 0 {
		switch {
		case ri.respType == voidType:
			ri.status = http.StatusNoContent
		case method == http.MethodPost:
			ri.status = http.StatusCreated
		default:
			ri.status = http.StatusOK
		}
	}

	if plan.hasBody {
		registerBodySchema(a, ri.reqType)
	}
	registerBodySchema(a, ri.respType)

	ri.handler = buildDispatcher(a, ri, plan, h)
	a.addRoute(ri)
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

var (
	voidType     = reflect.TypeFor[Void]()
	requestType  = reflect.TypeFor[*http.Request]()
	sessionType  = reflect.TypeFor[*session.Session]()
	tasksType    = reflect.TypeFor[*tasks.Queue]()
	responseType = reflect.TypeFor[Response]()
	timeType     = reflect.TypeFor[time.Time]()
)

type injectKind int

const (
	injectRequest injectKind = iota
	injectSession
	injectTasks
	injectDep
)

type injectEntry struct {
	index []int
	kind  injectKind
	typ   reflect.Type
}

type argPlan struct {
	binders []func(*http.Request, any) error
	injects []injectEntry
	hasBody bool
}

var paramTags = []string{"path", "query", "header", "cookie", "form", "file"}

// planFor derives the extraction plan from the request struct's shape.
// Binders run in a fixed order: path, query, header, cookie, then the body
// binder the struct calls for. Fields of framework types and dep-tagged
// fields are filled by injection after binding.
func planFor(t reflect.Type, method string) argPlan {
	var plan argPlan
	if t == voidType || t.Kind() != reflect.Struct {
		return plan
	}

	if binder.HasTag(t, "path") {
		plan.binders = append(plan.binders, binder.Path())
	}
	if binder.HasTag(t, "query") {
		plan.binders = append(plan.binders, binder.Query())
	}
	if binder.HasTag(t, "header") {
		plan.binders = append(plan.binders, binder.Header())
	}
	if binder.HasTag(t, "cookie") {
		plan.binders = append(plan.binders, binder.Cookie())
	}

	switch {
	case binder.HasTag(t, "file"):
		plan.binders = append(plan.binders, binder.Files())
		if binder.HasTag(t, "form") {
			plan.binders = append(plan.binders, binder.Form())
		}
		plan.hasBody = true
	case binder.HasTag(t, "form"):
		plan.binders = append(plan.binders, binder.Form())
		plan.hasBody = true
	case methodAllowsBody(method) && hasBodyFields(t):
		plan.binders = append(plan.binders, binder.JSON())
		plan.hasBody = true
	}

	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		switch f.Type {
		case requestType:
			plan.injects = append(plan.injects, injectEntry{index: f.Index, kind: injectRequest})
			continue
		case sessionType:
			plan.injects = append(plan.injects, injectEntry{index: f.Index, kind: injectSession})
			continue
		case tasksType:
			plan.injects = append(plan.injects, injectEntry{index: f.Index, kind: injectTasks})
			continue
		}
		if _, ok := f.Tag.Lookup("dep"); ok {
			plan.injects = append(plan.injects, injectEntry{index: f.Index, kind: injectDep, typ: f.Type})
		}
	}

	return plan
}

func methodAllowsBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// hasBodyFields reports whether the struct declares at least one field
// that belongs to the request body rather than to a parameter location.
func hasBodyFields(t reflect.Type) bool {
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if isParamField(f) || isInjectedField(f) {
			continue
		}
		if f.Tag.Get("json") == "-" {
			continue
		}
		return true
	}
	return false
}

func isParamField(f reflect.StructField) bool {
	for _, tag := range paramTags {
		if _, ok := f.Tag.Lookup(tag); ok {
			return true
		}
	}
	return false
}

func isInjectedField(f reflect.StructField) bool {
	if _, ok := f.Tag.Lookup("dep"); ok {
		return true
	}
	switch f.Type {
	case requestType, sessionType, tasksType:
		return true
	}
	return false
}

// registerBodySchema records a struct type in the registry so the
// document can reference it. Non-model types are skipped.
func registerBodySchema(a *App, t reflect.Type) {
	for t != nil && (t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice) {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return
	}
	if t == voidType || t == timeType || reflect.PointerTo(t).Implements(responseType) || t.Implements(responseType) {
		return
	}
	if err := a.schemas.Register(t); err != nil {
		a.log.Warn("Schema registration skipped", "type", t.String(), "err", err)
	}
}
