package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Struct applies the rules declared in `validate` struct tags to every
// exported field of v, recursing into nested structs with dotted paths.
// It returns Errors on failure, nil otherwise.
//
// Supported tag rules, applied in declaration order after presence:
//
//	required            non-zero value
//	min=N / max=N       numeric bounds (inclusive)
//	minLength=N         minimum string length
//	maxLength=N         maximum string length
//	minItems=N          minimum slice length
//	maxItems=N          maximum slice length
//	pattern=RE          regular expression match
//	email               RFC 5322 address
//	enum=a b c          value must be one of the space-separated choices
//
// Field paths use the json tag name when present, the lowercased Go name
// otherwise.
func Struct(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	var errs Errors
	validateStruct(rv, "", &errs)

	if errs.IsEmpty() {
		return nil
	}
	return errs
}

func validateStruct(rv reflect.Value, prefix string, errs *Errors) {
	rt := rv.Type()

	for i := range rt.NumField() {
		ft := rt.Field(i)
		if !ft.IsExported() {
			continue
		}

		fv := rv.Field(i)
		path := joinPath(prefix, fieldPath(ft))

		tag := ft.Tag.Get("validate")
		if tag != "" && tag != "-" {
			applyTagRules(fv, path, tag, errs)
		}

		// Recurse into nested structs and struct pointers so nested model
		// rules fire with dotted paths.
		elem := fv
		for elem.Kind() == reflect.Pointer {
			if elem.IsNil() {
				elem = reflect.Value{}
				break
			}
			elem = elem.Elem()
		}
		if elem.IsValid() && elem.Kind() == reflect.Struct && elem.Type() != timeType {
			validateStruct(elem, path, errs)
		}
	}
}

// time.Time is a struct but carries no validate tags and its unexported
// fields must not be walked.
var timeType = reflect.TypeFor[time.Time]()

func applyTagRules(fv reflect.Value, path, tag string, errs *Errors) {
	// Optional pointer fields: absent value skips all but required.
	deref := fv
	isNilPtr := false
	for deref.Kind() == reflect.Pointer {
		if deref.IsNil() {
			isNilPtr = true
			break
		}
		deref = deref.Elem()
	}

	for _, raw := range strings.Split(tag, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		name, arg, _ := strings.Cut(raw, "=")

		if name == "required" {
			if isNilPtr || deref.IsZero() {
				errs.Add(Error{Path: path, Rule: "required", Message: "field is required"})
				return
			}
			continue
		}

		// Remaining rules only fire on present values.
		if isNilPtr {
			continue
		}

		if rule, ok := buildRule(deref, path, name, arg); ok {
			if !rule.Check() {
				errs.Add(rule.Error)
			}
		}
	}
}

func buildRule(fv reflect.Value, path, name, arg string) (Rule, bool) {
	switch name {
	case "min":
		bound, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return Rule{}, false
		}
		return Min(path, numericValue(fv), bound), true
	case "max":
		bound, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return Rule{}, false
		}
		return Max(path, numericValue(fv), bound), true
	case "minLength":
		n, err := strconv.Atoi(arg)
		if err != nil || fv.Kind() != reflect.String {
			return Rule{}, false
		}
		return MinLenString(path, fv.String(), n), true
	case "maxLength":
		n, err := strconv.Atoi(arg)
		if err != nil || fv.Kind() != reflect.String {
			return Rule{}, false
		}
		return MaxLenString(path, fv.String(), n), true
	case "minItems":
		n, err := strconv.Atoi(arg)
		if err != nil || fv.Kind() != reflect.Slice {
			return Rule{}, false
		}
		length := fv.Len()
		return Rule{
			Check: func() bool { return length >= n },
			Error: Error{Path: path, Rule: "minItems", Message: fmt.Sprintf("must contain at least %d items", n)},
		}, true
	case "maxItems":
		n, err := strconv.Atoi(arg)
		if err != nil || fv.Kind() != reflect.Slice {
			return Rule{}, false
		}
		length := fv.Len()
		return Rule{
			Check: func() bool { return length <= n },
			Error: Error{Path: path, Rule: "maxItems", Message: fmt.Sprintf("must contain at most %d items", n)},
		}, true
	case "pattern":
		if fv.Kind() != reflect.String {
			return Rule{}, false
		}
		re, err := compilePattern(arg)
		if err != nil {
			return Rule{}, false
		}
		return Pattern(path, fv.String(), re), true
	case "email":
		if fv.Kind() != reflect.String {
			return Rule{}, false
		}
		return ValidEmail(path, fv.String()), true
	case "enum":
		if fv.Kind() != reflect.String || arg == "" {
			return Rule{}, false
		}
		return InChoices(path, fv.String(), strings.Fields(arg)), true
	default:
		return Rule{}, false
	}
}

func numericValue(fv reflect.Value) float64 {
	switch fv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(fv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(fv.Uint())
	case reflect.Float32, reflect.Float64:
		return fv.Float()
	default:
		return 0
	}
}

var (
	patternMu    sync.RWMutex
	patternCache = make(map[string]*regexp.Regexp)
)

// compilePattern caches compiled expressions; tags are static so the cache
// is bounded by the number of distinct patterns in the program.
func compilePattern(expr string) (*regexp.Regexp, error) {
	patternMu.RLock()
	re, ok := patternCache[expr]
	patternMu.RUnlock()
	if ok {
		return re, nil
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}

	patternMu.Lock()
	patternCache[expr] = re
	patternMu.Unlock()
	return re, nil
}

func fieldPath(ft reflect.StructField) string {
	for _, tagName := range []string{"json", "query", "form", "path"} {
		tag := ft.Tag.Get(tagName)
		if tag == "" || tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name != "" {
			return name
		}
	}
	return strings.ToLower(ft.Name)
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
