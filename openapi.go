package typedapi

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/typedapi/typedapi/pkg/schema"
)

// Info is the document's info object.
type Info struct {
	Title       string   `json:"title"`
	Version     string   `json:"version"`
	Description string   `json:"description,omitempty"`
	Contact     *Contact `json:"contact,omitempty"`
	License     *License `json:"license,omitempty"`
}

type Contact struct {
	Name  string `json:"name,omitempty"`
	URL   string `json:"url,omitempty"`
	Email string `json:"email,omitempty"`
}

type License struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Server is one entry of the document's servers list.
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// SecurityScheme documents an authentication scheme under
// components.securitySchemes. Enforcement is configured separately through
// WithAuth; the document only describes the scheme.
type SecurityScheme struct {
	Type         string      `json:"type"`
	Scheme       string      `json:"scheme,omitempty"`
	BearerFormat string      `json:"bearerFormat,omitempty"`
	In           string      `json:"in,omitempty"`
	Name         string      `json:"name,omitempty"`
	Description  string      `json:"description,omitempty"`
	Flows        *OAuthFlows `json:"flows,omitempty"`
}

type OAuthFlows struct {
	Password          *OAuthFlow `json:"password,omitempty"`
	ClientCredentials *OAuthFlow `json:"clientCredentials,omitempty"`
}

type OAuthFlow struct {
	TokenURL   string            `json:"tokenUrl"`
	RefreshURL string            `json:"refreshUrl,omitempty"`
	Scopes     map[string]string `json:"scopes"`
}

// BearerScheme documents an Authorization: Bearer scheme.
func BearerScheme(format string) SecurityScheme {
	return SecurityScheme{Type: "http", Scheme: "bearer", BearerFormat: format}
}

// BasicScheme documents an Authorization: Basic scheme.
func BasicScheme() SecurityScheme {
	return SecurityScheme{Type: "http", Scheme: "basic"}
}

// APIKeyScheme documents an API key carried in a header or cookie.
func APIKeyScheme(in, name string) SecurityScheme {
	return SecurityScheme{Type: "apiKey", In: in, Name: name}
}

// OAuth2PasswordScheme documents an OAuth2 password flow.
func OAuth2PasswordScheme(tokenURL string, scopes map[string]string) SecurityScheme {
	if scopes == nil {
		scopes = map[string]string{}
	}
	return SecurityScheme{Type: "oauth2", Flows: &OAuthFlows{Password: &OAuthFlow{TokenURL: tokenURL, Scopes: scopes}}}
}

// Document is an OpenAPI 3.1 document. Map-valued sections marshal with
// sorted keys, so a fixed app produces a byte-identical document on every
// run.
type Document struct {
	OpenAPI    string                          `json:"openapi"`
	Info       Info                            `json:"info"`
	Servers    []Server                        `json:"servers,omitempty"`
	Paths      map[string]map[string]*Operation `json:"paths,omitempty"`
	Webhooks   map[string]map[string]*Operation `json:"webhooks,omitempty"`
	Components *Components                     `json:"components,omitempty"`
}

type Components struct {
	Schemas         map[string]*schema.Schema `json:"schemas,omitempty"`
	SecuritySchemes map[string]SecurityScheme `json:"securitySchemes,omitempty"`
}

type Parameter struct {
	Name        string         `json:"name"`
	In          string         `json:"in"`
	Description string         `json:"description,omitempty"`
	Required    bool           `json:"required,omitempty"`
	Schema      *schema.Schema `json:"schema,omitempty"`
}

type RequestBody struct {
	Required bool                 `json:"required,omitempty"`
	Content  map[string]MediaType `json:"content"`
}

type MediaType struct {
	Schema *schema.Schema `json:"schema,omitempty"`
}

type ResponseObject struct {
	Description string               `json:"description"`
	Content     map[string]MediaType `json:"content,omitempty"`
}

// Operation is one method entry of a path item.
type Operation struct {
	OperationID  string                                `json:"operationId,omitempty"`
	Summary      string                                `json:"summary,omitempty"`
	Description  string                                `json:"description,omitempty"`
	Tags         []string                              `json:"tags,omitempty"`
	Deprecated   bool                                  `json:"deprecated,omitempty"`
	ExternalDocs *ExternalDocs                         `json:"externalDocs,omitempty"`
	Parameters   []*Parameter                          `json:"parameters,omitempty"`
	RequestBody  *RequestBody                          `json:"requestBody,omitempty"`
	Responses    map[string]*ResponseObject            `json:"responses,omitempty"`
	Security     []map[string][]string                 `json:"security,omitempty"`
	Callbacks    map[string]map[string]map[string]*Operation `json:"callbacks,omitempty"`

	Extensions map[string]any `json:"-"`
}

// MarshalJSON merges x- extension fields into the operation object.
func (op *Operation) MarshalJSON() ([]byte, error) {
	type alias Operation
	base, err := json.Marshal((*alias)(op))
	if err != nil {
		return nil, err
	}
	if len(op.Extensions) == 0 {
		return base, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for name, value := range op.Extensions {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		merged[name] = raw
	}
	return json.Marshal(merged)
}

// OpenAPI synthesizes the document from the frozen registries. The result
// is rebuilt on each call; freeze before serving to keep it stable.
func (a *App) OpenAPI() *Document {
	doc := &Document{
		OpenAPI: "3.1.0",
		Info:    a.info,
		Servers: a.servers,
		Paths:   make(map[string]map[string]*Operation),
	}

	for _, ri := range a.routes {
		if ri.responseClass == classWS {
			// WebSocket routes have no HTTP response to document.
			continue
		}
		item, ok := doc.Paths[ri.pattern]
		if !ok {
			item = make(map[string]*Operation)
			doc.Paths[ri.pattern] = item
		}
		item[docMethod(ri.method)] = a.buildOperation(ri, true)
	}

	if len(a.webhooks) > 0 {
		doc.Webhooks = make(map[string]map[string]*Operation)
		for _, ri := range a.webhooks {
			doc.Webhooks[ri.operationID] = map[string]*Operation{
				docMethod(ri.method): a.buildOperation(ri, false),
			}
		}
	}

	components := &Components{Schemas: a.schemas.Components()}
	if components.Schemas == nil {
		components.Schemas = make(map[string]*schema.Schema)
	}
	components.Schemas["Error"] = errorSchema()
	if len(a.securitySchemes) > 0 {
		components.SecuritySchemes = a.securitySchemes
	}
	doc.Components = components

	return doc
}

func docMethod(method string) string {
	if method == MethodSSE {
		return "get"
	}
	return strings.ToLower(method)
}

func (a *App) buildOperation(ri *routeInfo, includeCallbacks bool) *Operation {
	op := &Operation{
		OperationID:  ri.operationID,
		Summary:      ri.summary,
		Description:  ri.description,
		Tags:         ri.tags,
		Deprecated:   ri.deprecated,
		ExternalDocs: ri.externalDocs,
		Parameters:   a.buildParameters(ri.reqType),
		Responses:    a.buildResponses(ri),
		Extensions:   ri.extensions,
	}

	if ri.hasBody {
		op.RequestBody = a.buildRequestBody(ri)
	}

	for _, req := range ri.security {
		op.Security = append(op.Security, map[string][]string{req.Scheme: append([]string{}, req.Scopes...)})
	}

	if includeCallbacks && len(ri.callbacks) > 0 {
		op.Callbacks = make(map[string]map[string]map[string]*Operation)
		for _, cb := range ri.callbacks {
			op.Callbacks[cb.Name] = map[string]map[string]*Operation{
				cb.Expression: {
					docMethod(cb.target.method): a.buildOperation(cb.target, false),
				},
			}
		}
	}

	return op
}

var paramLocations = []struct {
	tag string
	in  string
}{
	{"path", "path"},
	{"query", "query"},
	{"header", "header"},
	{"cookie", "cookie"},
}

func (a *App) buildParameters(t reflect.Type) []*Parameter {
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	var params []*Parameter
	for _, loc := range paramLocations {
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name, ok := f.Tag.Lookup(loc.tag)
			if !ok || name == "" || name == "-" {
				continue
			}
			params = append(params, &Parameter{
				Name:        name,
				In:          loc.in,
				Description: f.Tag.Get("doc"),
				Required:    loc.in == "path" || isRequiredParam(f),
				Schema:      paramSchema(f.Type),
			})
		}
	}
	return params
}

// isRequiredParam mirrors the binder's contract: a non-pointer, non-slice
// field with no default is required.
func isRequiredParam(f reflect.StructField) bool {
	if _, ok := f.Tag.Lookup("default"); ok {
		return false
	}
	k := f.Type.Kind()
	return k != reflect.Pointer && k != reflect.Slice
}

func paramSchema(t reflect.Type) *schema.Schema {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == reflect.TypeFor[time.Time]() {
		return &schema.Schema{Type: "string", Format: "date-time"}
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &schema.Schema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return &schema.Schema{Type: "number"}
	case reflect.Bool:
		return &schema.Schema{Type: "boolean"}
	case reflect.Slice:
		return &schema.Schema{Type: "array", Items: paramSchema(t.Elem())}
	default:
		return &schema.Schema{Type: "string"}
	}
}

func (a *App) buildRequestBody(ri *routeInfo) *RequestBody {
	contentType := "application/json"
	switch {
	case hasFileTag(ri.reqType):
		contentType = "multipart/form-data"
	case hasFormTag(ri.reqType):
		contentType = "application/x-www-form-urlencoded"
	}

	media := MediaType{}
	if ref, err := a.schemas.RefFor(ri.reqType, schema.ViewRequest); err == nil {
		media.Schema = &schema.Schema{Ref: ref}
	}
	return &RequestBody{
		Required: true,
		Content:  map[string]MediaType{contentType: media},
	}
}

func hasFileTag(t reflect.Type) bool { return structHasTag(t, "file") }
func hasFormTag(t reflect.Type) bool { return structHasTag(t, "form") }

func structHasTag(t reflect.Type, tag string) bool {
	if t == nil || t.Kind() != reflect.Struct {
		return false
	}
	for i := range t.NumField() {
		if _, ok := t.Field(i).Tag.Lookup(tag); ok {
			return true
		}
	}
	return false
}

func (a *App) buildResponses(ri *routeInfo) map[string]*ResponseObject {
	responses := make(map[string]*ResponseObject)

	success := &ResponseObject{Description: "Successful response"}
	switch {
	case ri.respType == voidType || ri.status == 204:
		success.Description = "No content"
	case ri.responseClass == classSSE:
		success.Content = map[string]MediaType{"text/event-stream": {}}
	case ri.respType != nil:
		media := MediaType{}
		if ref, err := a.schemas.RefFor(ri.respType, schema.ViewResponse); err == nil {
			media.Schema = &schema.Schema{Ref: ref}
		}
		success.Content = map[string]MediaType{"application/json": media}
	}
	responses[strconv.Itoa(ri.status)] = success

	errRef := &schema.Schema{Ref: "#/components/schemas/Error"}
	errContent := map[string]MediaType{"application/json": {Schema: errRef}}

	if ri.reqType != nil && ri.reqType != voidType {
		responses["400"] = &ResponseObject{Description: "Bad request", Content: errContent}
		responses["422"] = &ResponseObject{Description: "Validation failed", Content: errContent}
	}
	if ri.hasBody {
		responses["415"] = &ResponseObject{Description: "Unsupported media type", Content: errContent}
	}
	if len(ri.security) > 0 || a.authCfg != nil {
		responses["401"] = &ResponseObject{Description: "Missing or invalid credentials", Content: errContent}
		responses["403"] = &ResponseObject{Description: "Insufficient scope", Content: errContent}
	}
	if a.rateCfg != nil {
		responses["429"] = &ResponseObject{Description: "Rate limit exceeded", Content: errContent}
	}
	responses["500"] = &ResponseObject{Description: "Internal server error", Content: errContent}
	if ri.timeout > 0 {
		responses["504"] = &ResponseObject{Description: "Request timed out", Content: errContent}
	}

	return responses
}

func errorSchema() *schema.Schema {
	return &schema.Schema{
		Type: "object",
		Properties: map[string]*schema.Schema{
			"error":   {Type: "string"},
			"details": {Type: "array", Items: &schema.Schema{}},
		},
		Required: []string{"error"},
	}
}
