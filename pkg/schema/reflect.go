package schema

import (
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Discriminated marks a type as a tagged union. The property names the JSON
// field carrying the tag; the mapping associates each tag value with a zero
// value of the variant type.
type Discriminated interface {
	Discriminator() (property string, mapping map[string]any)
}

// boundTags mark fields bound outside the body model: request envelope
// parameters and injected dependencies.
var boundTags = []string{"path", "query", "header", "cookie", "form", "file", "dep"}

var (
	timeType     = reflect.TypeFor[time.Time]()
	durationType = reflect.TypeFor[time.Duration]()
	discType     = reflect.TypeFor[Discriminated]()
)

// reflectDescriptor builds a model descriptor for a struct type and reports
// the nested struct types it references, so the registry can register them
// too.
func (r *Registry) reflectDescriptor(t reflect.Type) (*Descriptor, []reflect.Type) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if union, variants := unionOf(t); union != nil {
		return &Descriptor{Name: modelName(t), Union: union}, variants
	}

	d := &Descriptor{Name: modelName(t)}
	var nested []reflect.Type

	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() || isBoundField(sf) {
			continue
		}
		if r.skipField != nil && r.skipField(sf) {
			continue
		}

		name := jsonFieldName(sf)
		if name == "-" {
			continue
		}

		ref, more := typeRefOf(sf.Type)
		nested = append(nested, more...)

		f := Field{
			Name:        name,
			Type:        ref,
			Description: sf.Tag.Get("doc"),
			Rules:       parseRules(sf.Tag.Get("validate")),
			ReadOnly:    sf.Tag.Get("readonly") == "true",
			WriteOnly:   sf.Tag.Get("writeonly") == "true",
		}

		if ex := sf.Tag.Get("example"); ex != "" {
			f.Example = coerceExample(ex, ref.Kind)
		}

		// Structural required-ness: non-nullable fields without omitempty
		// are part of the required list even without a validate tag.
		if !f.Rules.Required && !ref.Nullable && !hasOmitempty(sf) {
			f.Rules.Required = true
		}

		// Enum choices declared through validation flow into the type.
		if choices := enumChoices(sf.Tag.Get("validate")); len(choices) > 0 {
			f.Type.Kind = KindEnum
			f.Type.Enum = choices
		}

		d.Fields = append(d.Fields, f)
	}

	return d, nested
}

// typeRefOf maps a Go type onto a semantic type reference, collecting any
// struct types that need their own descriptors.
func typeRefOf(t reflect.Type) (TypeRef, []reflect.Type) {
	nullable := false
	for t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}

	switch t {
	case timeType:
		return TypeRef{Kind: KindDateTime, Nullable: nullable}, nil
	case durationType:
		return TypeRef{Kind: KindDuration, Nullable: nullable}, nil
	}

	switch t.Kind() {
	case reflect.String:
		return TypeRef{Kind: KindString, Nullable: nullable}, nil
	case reflect.Bool:
		return TypeRef{Kind: KindBoolean, Nullable: nullable}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeRef{Kind: KindInteger, Nullable: nullable}, nil
	case reflect.Float32, reflect.Float64:
		return TypeRef{Kind: KindNumber, Nullable: nullable}, nil

	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return TypeRef{Kind: KindBinary, Nullable: nullable}, nil
		}
		elem, nested := typeRefOf(t.Elem())
		return TypeRef{Kind: KindArray, Elem: &elem, Nullable: true}, nested

	case reflect.Map:
		elem, nested := typeRefOf(t.Elem())
		return TypeRef{Kind: KindMap, Elem: &elem, Nullable: nullable}, nested

	case reflect.Struct:
		kind := KindModel
		if isUnionType(t) {
			kind = KindUnion
		}
		return TypeRef{Kind: kind, Model: modelName(t), Nullable: nullable}, []reflect.Type{t}

	default:
		return TypeRef{Kind: KindAny, Nullable: nullable}, nil
	}
}

func isUnionType(t reflect.Type) bool {
	return t.Implements(discType) || reflect.PointerTo(t).Implements(discType)
}

// unionOf returns the union descriptor for a Discriminated type, plus the
// variant types that need registration.
func unionOf(t reflect.Type) (*Union, []reflect.Type) {
	if !isUnionType(t) {
		return nil, nil
	}

	var d Discriminated
	if t.Implements(discType) {
		d = reflect.New(t).Elem().Interface().(Discriminated)
	} else {
		d = reflect.New(t).Interface().(Discriminated)
	}

	property, mapping := d.Discriminator()
	union := &Union{Property: property, Mapping: make(map[string]string, len(mapping))}

	var variants []reflect.Type
	for tag, zero := range mapping {
		vt := reflect.TypeOf(zero)
		for vt.Kind() == reflect.Pointer {
			vt = vt.Elem()
		}
		union.Mapping[tag] = modelName(vt)
		variants = append(variants, vt)
	}

	return union, variants
}

// parseRules translates a validate tag into JSON-schema keyword form.
func parseRules(tag string) RuleSet {
	var rs RuleSet
	if tag == "" || tag == "-" {
		return rs
	}

	for _, raw := range strings.Split(tag, ",") {
		name, arg, _ := strings.Cut(strings.TrimSpace(raw), "=")
		switch name {
		case "required":
			rs.Required = true
		case "min":
			if v, err := strconv.ParseFloat(arg, 64); err == nil {
				rs.Minimum = &v
			}
		case "max":
			if v, err := strconv.ParseFloat(arg, 64); err == nil {
				rs.Maximum = &v
			}
		case "minLength":
			if v, err := strconv.Atoi(arg); err == nil {
				rs.MinLength = &v
			}
		case "maxLength":
			if v, err := strconv.Atoi(arg); err == nil {
				rs.MaxLength = &v
			}
		case "minItems":
			if v, err := strconv.Atoi(arg); err == nil {
				rs.MinItems = &v
			}
		case "maxItems":
			if v, err := strconv.Atoi(arg); err == nil {
				rs.MaxItems = &v
			}
		case "pattern":
			rs.Pattern = arg
		case "email":
			rs.Email = true
		}
	}
	return rs
}

func enumChoices(tag string) []string {
	for _, raw := range strings.Split(tag, ",") {
		name, arg, _ := strings.Cut(strings.TrimSpace(raw), "=")
		if name == "enum" && arg != "" {
			return strings.Fields(arg)
		}
	}
	return nil
}

func coerceExample(raw string, kind Kind) any {
	switch kind {
	case KindInteger:
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return v
		}
	case KindNumber:
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	case KindBoolean:
		if v, err := strconv.ParseBool(raw); err == nil {
			return v
		}
	}
	return raw
}

func jsonFieldName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "" {
		return sf.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return sf.Name
	}
	return name
}

func hasOmitempty(sf reflect.StructField) bool {
	_, opts, _ := strings.Cut(sf.Tag.Get("json"), ",")
	for _, opt := range strings.Split(opts, ",") {
		if opt == "omitempty" {
			return true
		}
	}
	return false
}

func isBoundField(sf reflect.StructField) bool {
	for _, tag := range boundTags {
		if _, ok := sf.Tag.Lookup(tag); ok {
			return true
		}
	}
	return false
}

func modelName(t reflect.Type) string {
	if name := t.Name(); name != "" {
		return name
	}
	return "Anonymous"
}
