package binder

import (
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"reflect"
	"strings"
)

// File represents an uploaded file from a multipart form.
type File struct {
	Filename string
	Size     int64
	Header   map[string][]string

	fh *multipart.FileHeader
}

// Open returns a reader over the uploaded content. The caller closes it.
func (f *File) Open() (multipart.File, error) {
	if f.fh == nil {
		return nil, fmt.Errorf("%w: file not initialized", ErrInvalidFile)
	}
	return f.fh.Open()
}

// ContentType returns the declared Content-Type of the uploaded part.
func (f *File) ContentType() string {
	if f.fh == nil {
		return ""
	}
	return f.fh.Header.Get("Content-Type")
}

var fileType = reflect.TypeFor[*File]()
var fileSliceType = reflect.TypeFor[[]*File]()

// Files creates a binder for multipart file uploads.
//
// Struct fields tagged `file:"name"` of type *File receive the first upload
// for that part; []*File fields receive all of them. Non-slice fields are
// required.
//
//	type UploadRequest struct {
//		Avatar      *binder.File   `file:"avatar"`
//		Attachments []*binder.File `file:"attachments"`
//	}
func Files() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			return fmt.Errorf("%w: Content-Type header required for file upload", ErrMissingContentType)
		}
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
			return fmt.Errorf("%w: expected multipart/form-data, got %q", ErrUnsupportedMediaType, contentType)
		}

		if r.MultipartForm == nil {
			if err := r.ParseMultipartForm(defaultMaxMemory); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidFile, err)
			}
		}

		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer || rv.IsNil() {
			return fmt.Errorf("%w: target must be a non-nil pointer", ErrInvalidFile)
		}
		rv = rv.Elem()
		if rv.Kind() != reflect.Struct {
			return fmt.Errorf("%w: target must be a pointer to struct", ErrInvalidFile)
		}
		rt := rv.Type()

		for i := 0; i < rv.NumField(); i++ {
			field := rv.Field(i)
			fieldType := rt.Field(i)
			if !field.CanSet() {
				continue
			}

			paramName, explicit, skip := parseFieldTag(fieldType, "file")
			if skip || !explicit {
				continue
			}

			headers := r.MultipartForm.File[paramName]

			switch fieldType.Type {
			case fileType:
				if len(headers) == 0 {
					return fmt.Errorf("%w: %w: %s", ErrInvalidFile, ErrMissingRequired, paramName)
				}
				field.Set(reflect.ValueOf(newFile(headers[0])))

			case fileSliceType:
				files := make([]*File, 0, len(headers))
				for _, fh := range headers {
					files = append(files, newFile(fh))
				}
				field.Set(reflect.ValueOf(files))

			default:
				return fmt.Errorf("%w: field %s must be *binder.File or []*binder.File", ErrInvalidFile, fieldType.Name)
			}
		}

		return nil
	}
}

func newFile(fh *multipart.FileHeader) *File {
	return &File{
		Filename: fh.Filename,
		Size:     fh.Size,
		Header:   fh.Header,
		fh:       fh,
	}
}
