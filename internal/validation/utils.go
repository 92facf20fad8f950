package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/deppfellow/bookshelf/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validatable is implemented by request payload types that know how to
// validate themselves, usually by calling Struct on their tags.
type Validatable interface {
	Validate() error
}

// Normalizer is implemented by payloads that clean their input (for
// example trimming whitespace) before validation.
type Normalizer interface {
	Normalize()
}

// validate is shared because validator caches struct metadata per instance.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON names so errors match the request body.
	v.RegisterTagNameFunc(jsonFieldName)

	return v
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return strings.ToLower(field.Name)
	}
	return name
}

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	return validate.Struct(s)
}

// BindAndValidate binds path params and the JSON body into payload and
// validates it.
//
// Flow:
//  1. Path params (`param` tags). A param that cannot be parsed cannot name a
//     record, so it is reported as 404.
//  2. JSON body (`json` tags), skipped for GET, HEAD and DELETE. Malformed
//     JSON is a 400. A key sent as null or with a value of the wrong type is
//     a field error.
//  3. payload.Normalize(), if implemented.
//  4. payload.Validate(). Failures become a 422 listing every field.
func BindAndValidate(c echo.Context, payload Validatable) error {
	binder := &echo.DefaultBinder{}

	if err := binder.BindPathParams(c, payload); err != nil {
		return errs.NewNotFoundError("Resource not found", false, nil)
	}

	var bodyErrors []errs.FieldError
	if bindsBody(c.Request().Method) {
		fieldErrors, err := bindBody(c, binder, payload)
		if err != nil {
			return err
		}
		bodyErrors = fieldErrors
	}

	if n, ok := payload.(Normalizer); ok {
		n.Normalize()
	}

	fieldErrors := mergeFieldErrors(payload, bodyErrors, validateStruct(payload))
	if len(fieldErrors) > 0 {
		return errs.NewUnprocessableEntityError(fieldErrors)
	}

	return nil
}

func bindsBody(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return false
	default:
		return true
	}
}

// bindBody decodes the body into payload and returns the per-field errors
// found in it. The decoder reports only the first type mismatch, so JSON
// bodies are buffered and every present key is checked again on its own.
func bindBody(c echo.Context, binder *echo.DefaultBinder, payload any) ([]errs.FieldError, error) {
	req := c.Request()
	if req.ContentLength == 0 {
		return nil, nil
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, errs.NewBadRequestError("Invalid request body", false, nil, nil)
	}
	req.Body = io.NopCloser(bytes.NewReader(body))

	var typeErrors []errs.FieldError
	if err := binder.BindBody(c, payload); err != nil {
		fieldErrors, bindErr := extractBindError(err)
		if bindErr != nil {
			return nil, bindErr
		}
		typeErrors = fieldErrors
	}

	if !strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return typeErrors, nil
	}

	if fieldErrors := checkBodyFields(body, payload); len(fieldErrors) > 0 {
		return fieldErrors, nil
	}
	return typeErrors, nil
}

// checkBodyFields decodes every key of a JSON object body that maps to a
// payload field on its own. An explicit null is reported as missing.
func checkBodyFields(body []byte, payload any) []errs.FieldError {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || len(raw) == 0 {
		return nil
	}

	// Keys match fields case-insensitively, as in encoding/json.
	values := make(map[string]json.RawMessage, len(raw))
	for key, value := range raw {
		values[strings.ToLower(key)] = value
	}

	t := structType(payload)
	if t == nil {
		return nil
	}

	var fieldErrors []errs.FieldError
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name := jsonFieldName(field)
		if name == "" || !field.IsExported() {
			continue
		}

		value, ok := values[strings.ToLower(name)]
		if !ok {
			continue
		}

		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			fieldErrors = append(fieldErrors, errs.FieldError{Field: name, Error: "is required"})
			continue
		}

		if err := json.Unmarshal(value, reflect.New(field.Type).Interface()); err != nil {
			fieldErrors = append(fieldErrors, errs.FieldError{Field: name, Error: typeMessage(field.Type)})
		}
	}

	return fieldErrors
}

func structType(v any) reflect.Type {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	return t
}

// extractBindError classifies a body binding failure. Type mismatches are
// returned as field errors so they can be reported together with the
// payload's own validation; everything else is returned as a ready error.
func extractBindError(err error) ([]errs.FieldError, error) {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return []errs.FieldError{{
			Field: typeErr.Field,
			Error: typeMessage(typeErr.Type),
		}}, nil
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) || errors.As(err, &typeErr) {
		return nil, errs.NewBadRequestError("Malformed JSON request body", false, nil, nil)
	}

	// Echo's own errors (e.g. 415 Unsupported Media Type) keep their status.
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		return nil, echoErr
	}

	return nil, errs.NewBadRequestError("Invalid request body", false, nil, nil)
}

func typeMessage(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "has an invalid type"
	}

	switch t.Kind() {
	case reflect.String:
		return "must be a string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "must be an integer"
	default:
		return "has an invalid type"
	}
}

// mergeFieldErrors lists at most one error per field, in the payload's
// field order. A body error wins over a validation error on the same field.
func mergeFieldErrors(payload any, bodyErrors, validationErrors []errs.FieldError) []errs.FieldError {
	if len(bodyErrors) == 0 {
		return validationErrors
	}

	byField := make(map[string]errs.FieldError, len(bodyErrors)+len(validationErrors))
	var order []string
	for _, list := range [][]errs.FieldError{bodyErrors, validationErrors} {
		for _, fe := range list {
			if _, ok := byField[fe.Field]; ok {
				continue
			}
			byField[fe.Field] = fe
			order = append(order, fe.Field)
		}
	}

	merged := make([]errs.FieldError, 0, len(byField))
	if t := structType(payload); t != nil {
		for i := 0; i < t.NumField(); i++ {
			name := jsonFieldName(t.Field(i))
			if fe, ok := byField[name]; ok && name != "" {
				merged = append(merged, fe)
				delete(byField, name)
			}
		}
	}
	for _, field := range order {
		if fe, ok := byField[field]; ok {
			merged = append(merged, fe)
		}
	}
	return merged
}

// validateStruct calls v.Validate() and extracts field errors if validation fails.
func validateStruct(v Validatable) []errs.FieldError {
	if err := v.Validate(); err != nil {
		return extractValidationError(err)
	}
	return nil
}

func extractValidationError(err error) []errs.FieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []errs.FieldError{{Field: "body", Error: err.Error()}}
	}

	fieldErrors := make([]errs.FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		var msg string

		switch fe.Tag() {
		case "required":
			msg = "is required"

		case "min":
			// min on strings is a length; min=1 is how optional fields say "non-empty".
			if fe.Kind() == reflect.String {
				if fe.Param() == "1" {
					msg = "must not be empty"
				} else {
					msg = fmt.Sprintf("must be at least %s characters", fe.Param())
				}
			} else {
				msg = fmt.Sprintf("must be at least %s", fe.Param())
			}

		case "max":
			if fe.Kind() == reflect.String {
				msg = fmt.Sprintf("must not exceed %s characters", fe.Param())
			} else {
				msg = fmt.Sprintf("must not exceed %s", fe.Param())
			}

		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", fe.Param())

		default:
			if fe.Param() != "" {
				msg = fmt.Sprintf("failed %s:%s", fe.Tag(), fe.Param())
			} else {
				msg = fmt.Sprintf("failed %s", fe.Tag())
			}
		}

		fieldErrors = append(fieldErrors, errs.FieldError{
			Field: fe.Field(),
			Error: msg,
		})
	}

	return fieldErrors
}
