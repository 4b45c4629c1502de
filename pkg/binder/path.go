package binder

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/go-chi/chi/v5"
)

// Path creates a path parameter binder backed by the chi route context.
//
// It binds struct fields tagged `path:"name"` from URL parameters:
//
//	type GetUserRequest struct {
//		ID int64 `path:"id"`
//	}
//
// Path parameters are always required; a missing or unparsable segment is a
// binding failure.
func Path() func(r *http.Request, v any) error {
	return PathWith(chi.URLParam)
}

// PathWith creates a path parameter binder using a custom extractor,
// allowing routers other than chi to supply URL parameters.
func PathWith(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if extractor == nil {
			return fmt.Errorf("%w: extractor function is nil", ErrInvalidPath)
		}

		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer || rv.IsNil() {
			return fmt.Errorf("%w: target must be a non-nil pointer", ErrInvalidPath)
		}

		rv = rv.Elem()
		if rv.Kind() != reflect.Struct {
			return fmt.Errorf("%w: target must be a pointer to struct", ErrInvalidPath)
		}

		rt := rv.Type()

		for i := 0; i < rv.NumField(); i++ {
			field := rv.Field(i)
			fieldType := rt.Field(i)

			if !field.CanSet() {
				continue
			}

			paramName, explicit, skip := parseFieldTag(fieldType, "path")
			if skip || !explicit {
				continue
			}

			value := extractor(r, paramName)
			if value == "" {
				return fmt.Errorf("%w: %w: %s", ErrInvalidPath, ErrMissingRequired, paramName)
			}

			if err := setFieldValue(field, fieldType.Type, []string{value}); err != nil {
				return fmt.Errorf("%w: field %s: %v", ErrInvalidPath, fieldType.Name, err)
			}
		}

		return nil
	}
}
