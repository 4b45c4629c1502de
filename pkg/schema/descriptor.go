package schema

// Kind is the semantic type of a field.
type Kind int

const (
	KindAny Kind = iota
	KindInteger
	KindNumber
	KindString
	KindBoolean
	KindArray
	KindMap
	KindEnum
	KindModel
	KindUnion
	KindBinary
	KindDateTime
	KindDuration
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBoolean:
		return "boolean"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindEnum:
		return "enum"
	case KindModel:
		return "model"
	case KindUnion:
		return "union"
	case KindBinary:
		return "binary"
	case KindDateTime:
		return "date-time"
	case KindDuration:
		return "duration"
	default:
		return "any"
	}
}

// TypeRef describes a field's semantic type. Array and Map kinds carry an
// Elem; Model and Union kinds carry the referenced model name; Enum carries
// its choices.
type TypeRef struct {
	Kind     Kind
	Elem     *TypeRef
	Model    string
	Enum     []string
	Nullable bool
}

// RuleSet holds the validation constraints a field declares, already parsed
// into JSON-schema keyword form.
type RuleSet struct {
	Required  bool
	Minimum   *float64
	Maximum   *float64
	MinLength *int
	MaxLength *int
	MinItems  *int
	MaxItems  *int
	Pattern   string
	Email     bool
}

// Field is a single named member of a model descriptor.
type Field struct {
	Name        string
	Type        TypeRef
	Description string
	Example     any
	Rules       RuleSet
	ReadOnly    bool
	WriteOnly   bool
}

// Union marks a descriptor as a discriminated union: Property names the tag
// field and Mapping associates each tag value with a variant model name.
type Union struct {
	Property string
	Mapping  map[string]string
}

// Descriptor is a named model: an ordered list of fields, or a discriminated
// union over other models.
type Descriptor struct {
	Name   string
	Fields []Field
	Union  *Union
}

// HasVisibilitySplit reports whether any field is marked read-only or
// write-only, meaning request and response schemas differ.
func (d *Descriptor) HasVisibilitySplit() bool {
	for _, f := range d.Fields {
		if f.ReadOnly || f.WriteOnly {
			return true
		}
	}
	return false
}
