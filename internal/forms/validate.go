package forms

import (
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^[0-9 ()+\-.]{10,20}$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator with the custom tags registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// ValidationError lists the rejected fields of a payload.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

// Validate checks v against its struct tags.
func Validate(v interface{}) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &ValidationError{Message: "Invalid request body"}
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return name + " must be a valid email address"
	case "phone":
		return name + " must be a valid phone number"
	case "max", "lte":
		switch fe.Kind() {
		case reflect.String:
			return name + " must be at most " + fe.Param() + " characters"
		case reflect.Slice, reflect.Map:
			return name + " must have at most " + fe.Param() + " entries"
		}
		return name + " must be at most " + fe.Param()
	case "min", "gte":
		switch fe.Kind() {
		case reflect.String:
			return name + " must be at least " + fe.Param() + " characters"
		case reflect.Slice, reflect.Map:
			return name + " must have at least " + fe.Param() + " entries"
		}
		return name + " must be at least " + fe.Param()
	case "required_if":
		return name + " is required"
	case "oneof":
		return name + " must be one of: " + fe.Param()
	case "uuid":
		return name + " must be a valid id"
	case "url":
		return name + " must be a valid URL"
	case "datetime":
		return name + " must be a date (YYYY-MM-DD)"
	case "len", "numeric":
		return name + " is invalid"
	default:
		return name + " is invalid"
	}
}
