package typedapi

import (
	"net/http"
	"reflect"
	"strings"
	"time"
)

// Pseudo-methods for routes that upgrade or hold the connection.
const (
	MethodWS  = "WS"
	MethodSSE = "SSE"
)

// Response classes. The class drives response conversion and whether the
// outer middleware may buffer or cache the body.
const (
	classJSON     = "json"
	classText     = "text"
	classHTML     = "html"
	classRedirect = "redirect"
	classStream   = "stream"
	classSSE      = "sse"
	classWS       = "ws"
)

// SecurityRequirement names an authentication scheme and the scopes a
// caller must hold for the operation.
type SecurityRequirement struct {
	Scheme string
	Scopes []string
}

// Callback describes an out-of-band request the service makes back to the
// caller. Expression is an OpenAPI runtime expression such as
// {$request.body#/callbackUrl}; Target names the operation that documents
// the callback request and is resolved at freeze time.
type Callback struct {
	Name       string
	Expression string
	Target     string

	target *routeInfo
}

// ExternalDocs links an operation to external documentation.
type ExternalDocs struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

type routeInfo struct {
	method  string
	pattern string

	operationID string
	summary     string
	description string
	tags        []string
	deprecated  bool

	status        int
	responseClass string
	timeout       time.Duration

	security     []SecurityRequirement
	callbacks    []Callback
	externalDocs *ExternalDocs
	extensions   map[string]any

	reqType  reflect.Type
	respType reflect.Type
	hasBody  bool
	deps     []reflect.Type

	handler http.HandlerFunc
}

// defaultOperationID derives an id like getUsersId from the method and
// path template.
func (ri *routeInfo) defaultOperationID() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(ri.method))
	for _, seg := range strings.Split(ri.pattern, "/") {
		seg = strings.Trim(seg, "{}")
		if seg == "" {
			continue
		}
		b.WriteString(strings.ToUpper(seg[:1]))
		b.WriteString(seg[1:])
	}
	return b.String()
}

// RouteOption customizes a route registration.
type RouteOption func(*routeInfo)

// WithSummary sets the operation summary.
func WithSummary(s string) RouteOption {
	return func(ri *routeInfo) { ri.summary = s }
}

// WithDescription sets the operation description.
func WithDescription(s string) RouteOption {
	return func(ri *routeInfo) { ri.description = s }
}

// WithOperationID overrides the derived operation id.
func WithOperationID(id string) RouteOption {
	return func(ri *routeInfo) { ri.operationID = id }
}

// WithTags assigns documentation tags to the operation.
func WithTags(tags ...string) RouteOption {
	return func(ri *routeInfo) { ri.tags = append(ri.tags, tags...) }
}

// WithStatus sets the success status code. Defaults: 200, 201 for POST,
// 204 for Void responses.
func WithStatus(status int) RouteOption {
	return func(ri *routeInfo) { ri.status = status }
}

// WithTimeout bounds the handler's execution; on elapse the dispatcher
// emits 504 and cancels the request context.
func WithTimeout(d time.Duration) RouteOption {
	return func(ri *routeInfo) { ri.timeout = d }
}

// Deprecated marks the operation deprecated in the document.
func Deprecated() RouteOption {
	return func(ri *routeInfo) { ri.deprecated = true }
}

// WithSecurity requires the named scheme, optionally with scopes, for the
// operation. The scheme must be configured on the App.
func WithSecurity(scheme string, scopes ...string) RouteOption {
	return func(ri *routeInfo) {
		ri.security = append(ri.security, SecurityRequirement{Scheme: scheme, Scopes: scopes})
	}
}

// WithCallback documents an out-of-band callback. The target operation id
// is resolved when the App freezes; an unknown id is a startup error.
func WithCallback(name, expression, targetOperationID string) RouteOption {
	return func(ri *routeInfo) {
		ri.callbacks = append(ri.callbacks, Callback{Name: name, Expression: expression, Target: targetOperationID})
	}
}

// WithExternalDocs links the operation to external documentation.
func WithExternalDocs(url, description string) RouteOption {
	return func(ri *routeInfo) {
		ri.externalDocs = &ExternalDocs{URL: url, Description: description}
	}
}

// WithExtension adds an x- extension field to the operation object.
func WithExtension(name string, value any) RouteOption {
	return func(ri *routeInfo) {
		if !strings.HasPrefix(name, "x-") {
			name = "x-" + name
		}
		if ri.extensions == nil {
			ri.extensions = make(map[string]any)
		}
		ri.extensions[name] = value
	}
}

// Uses declares container types the handler resolves at runtime. Declared
// deps are verified against the registered providers at freeze time.
// Obtain type keys with di.Dep[T]().
func Uses(deps ...reflect.Type) RouteOption {
	return func(ri *routeInfo) { ri.deps = append(ri.deps, deps...) }
}
