package schema

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// View selects which visibility plane a schema is rendered for. Request
// schemas omit read-only fields; response schemas omit write-only fields.
type View int

const (
	ViewResponse View = iota
	ViewRequest
)

var (
	ErrNotRegistered = errors.New("schema: model not registered")
	ErrNameConflict  = errors.New("schema: model name already registered")
	ErrFrozen        = errors.New("schema: registry is frozen")
	ErrNotStruct     = errors.New("schema: model must be a struct type")
)

// Registry collects model descriptors during application construction and
// renders JSON schemas for OpenAPI documents. After Freeze it is read-only
// and safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	byType    map[reflect.Type]*Descriptor
	byName    map[string]reflect.Type
	skipField func(reflect.StructField) bool
	frozen    bool
}

// RegistryOption configures a Registry at construction time.
type RegistryOption func(*Registry)

// WithFieldFilter excludes matching struct fields from reflected
// descriptors. Fields populated outside the request body, such as
// injected dependencies, must not surface as model properties.
func WithFieldFilter(fn func(reflect.StructField) bool) RegistryOption {
	return func(r *Registry) { r.skipField = fn }
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		byType: make(map[reflect.Type]*Descriptor),
		byName: make(map[string]reflect.Type),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a struct type and, recursively, every struct type it
// references. Registering the same type twice is a no-op; registering a
// different type under an already-taken name is an error.
func (r *Registry) Register(t reflect.Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrFrozen
	}
	return r.register(t)
}

func (r *Registry) register(t reflect.Type) error {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("%w: %s", ErrNotStruct, t)
	}
	if t == timeType {
		return nil
	}
	if _, ok := r.byType[t]; ok {
		return nil
	}

	d, nested := r.reflectDescriptor(t)
	if existing, ok := r.byName[d.Name]; ok && existing != t {
		return fmt.Errorf("%w: %q maps to both %s and %s", ErrNameConflict, d.Name, existing, t)
	}

	r.byType[t] = d
	r.byName[d.Name] = t

	for _, nt := range nested {
		if err := r.register(nt); err != nil {
			return err
		}
	}
	return nil
}

// Freeze makes the registry immutable. Called once route registration is
// complete, before the server starts accepting requests.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Descriptor returns the model descriptor for a registered type.
func (r *Registry) Descriptor(t reflect.Type) (*Descriptor, bool) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byType[t]
	return d, ok
}

// RefFor returns the $ref pointer for a registered type in the given view.
func (r *Registry) RefFor(t reflect.Type, view View) (string, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byType[t]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotRegistered, t)
	}
	return "#/components/schemas/" + r.componentName(d, view), nil
}

// Describe renders the JSON schema for a registered type in the given view.
func (r *Registry) Describe(t reflect.Type, view View) (*Schema, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byType[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, t)
	}
	return r.render(d, view), nil
}

// Components renders every registered model. Models whose request and
// response schemas differ get a second component with an Input suffix.
// Names are returned sorted so callers iterate deterministically.
func (r *Registry) Components() map[string]*Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*Schema, len(r.byType))
	for _, d := range r.byType {
		out[d.Name] = r.render(d, ViewResponse)
		if d.HasVisibilitySplit() {
			out[d.Name+"Input"] = r.render(d, ViewRequest)
		}
	}
	return out
}

// ComponentNames returns the sorted component names Components would emit.
func (r *Registry) ComponentNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byType))
	for _, d := range r.byType {
		names = append(names, d.Name)
		if d.HasVisibilitySplit() {
			names = append(names, d.Name+"Input")
		}
	}
	sort.Strings(names)
	return names
}

// componentName resolves the component a view of a model lives under.
// Models without read-only or write-only fields share one component.
func (r *Registry) componentName(d *Descriptor, view View) string {
	if view == ViewRequest && d.HasVisibilitySplit() {
		return d.Name + "Input"
	}
	return d.Name
}

func (r *Registry) render(d *Descriptor, view View) *Schema {
	if d.Union != nil {
		return r.renderUnion(d.Union, view)
	}

	s := &Schema{
		Type:       "object",
		Properties: make(map[string]*Schema),
	}

	for _, f := range d.Fields {
		if view == ViewRequest && f.ReadOnly {
			continue
		}
		if view == ViewResponse && f.WriteOnly {
			continue
		}

		prop := r.renderType(f.Type, view)
		prop.Description = f.Description
		prop.Example = f.Example
		applyRules(prop, f.Rules)

		s.Properties[f.Name] = prop
		if f.Rules.Required {
			s.Required = append(s.Required, f.Name)
		}
	}

	sort.Strings(s.Required)
	return s
}

func (r *Registry) renderUnion(u *Union, view View) *Schema {
	s := &Schema{
		Discriminator: &Discriminator{
			PropertyName: u.Property,
			Mapping:      make(map[string]string, len(u.Mapping)),
		},
	}

	tags := make([]string, 0, len(u.Mapping))
	for tag := range u.Mapping {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, tag := range tags {
		ref := r.refByName(u.Mapping[tag], view)
		s.OneOf = append(s.OneOf, &Schema{Ref: ref})
		s.Discriminator.Mapping[tag] = ref
	}
	return s
}

func (r *Registry) renderType(ref TypeRef, view View) *Schema {
	switch ref.Kind {
	case KindInteger:
		return &Schema{Type: "integer"}
	case KindNumber:
		return &Schema{Type: "number"}
	case KindString:
		return &Schema{Type: "string"}
	case KindBoolean:
		return &Schema{Type: "boolean"}
	case KindDateTime:
		return &Schema{Type: "string", Format: "date-time"}
	case KindDuration:
		return &Schema{Type: "string", Format: "duration"}
	case KindBinary:
		return &Schema{Type: "string", Format: "byte"}
	case KindEnum:
		return &Schema{Type: "string", Enum: ref.Enum}
	case KindArray:
		items := r.renderType(*ref.Elem, view)
		return &Schema{Type: "array", Items: items}
	case KindMap:
		values := r.renderType(*ref.Elem, view)
		return &Schema{Type: "object", AdditionalProperties: values}
	case KindModel, KindUnion:
		return &Schema{Ref: r.refByName(ref.Model, view)}
	default:
		return &Schema{}
	}
}

func (r *Registry) refByName(name string, view View) string {
	if t, ok := r.byName[name]; ok {
		if d, ok := r.byType[t]; ok {
			return "#/components/schemas/" + r.componentName(d, view)
		}
	}
	return "#/components/schemas/" + name
}

func applyRules(s *Schema, rs RuleSet) {
	s.Minimum = rs.Minimum
	s.Maximum = rs.Maximum
	s.MinLength = rs.MinLength
	s.MaxLength = rs.MaxLength
	s.MinItems = rs.MinItems
	s.MaxItems = rs.MaxItems
	s.Pattern = rs.Pattern
	if rs.Email {
		s.Format = "email"
	}
}
