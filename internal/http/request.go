package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/example/timetracker/internal/application"
)

// timestampLayout accepts RFC 3339 instants with an explicit offset;
// fractional seconds are accepted while parsing.
const timestampLayout = "2006-01-02T15:04:05Z07:00"

const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is empty")

// nullableString distinguishes an omitted JSON member from an explicit null.
type nullableString struct {
	Set   bool
	Value *string
}

func (n *nullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	n.Value = &value
	return nil
}

func (n nullableString) note() application.OptionalNote {
	return application.OptionalNote{Set: n.Set, Value: n.Value}
}

// newValidator reports fields by their JSON names and validates a
// nullableString as its string value.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if n, ok := field.Interface().(nullableString); ok && n.Value != nil {
			return *n.Value
		}
		return nil
	}, nullableString{})
	return v
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// An empty body decodes as an empty object when allowEmpty is set.
func decodeAndValidate(r *http.Request, v *validator.Validate, dst any, allowEmpty bool) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		if !allowEmpty {
			return errEmptyBody
		}
		body = []byte("{}")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return validateStruct(v, dst)
}

func validateStruct(v *validator.Validate, dst any) error {
	err := v.Struct(dst)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	vErr := &application.ValidationError{FieldErrors: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		field := fieldPath(fe)
		if _, exists := vErr.FieldErrors[field]; !exists {
			vErr.FieldErrors[field] = describeFieldError(fe)
		}
	}
	return vErr
}

// fieldPath drops the struct name prefix validator puts on namespaces.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "datetime":
		return "must be an ISO 8601 timestamp with offset"
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	default:
		return "is invalid"
	}
}

func parseTimestamp(value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	parsed, err := time.Parse(timestampLayout, *value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func badRequestBody(err error) *application.ValidationError {
	return &application.ValidationError{FieldErrors: map[string]string{"body": bodyErrorMessage(err)}}
}

func bodyErrorMessage(err error) string {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, errEmptyBody):
		return "request body is required"
	case errors.As(err, &syntaxErr):
		return "malformed JSON"
	case errors.As(err, &typeErr):
		return fmt.Sprintf("%s has the wrong type", typeErr.Field)
	default:
		return "invalid request body"
	}
}

// requestError turns a decode or validation failure into the error handed
// to the responder.
func requestError(err error) error {
	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		return vErr
	}
	return badRequestBody(err)
}
