package middleware

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/dealerflow/backend/internal/domain/sales"
	"github.com/dealerflow/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var setupValidatorOnce sync.Once

// SetupValidator registers the custom binding tags on gin's validator:
//
//	document_type  value parses as a sales.DocumentType
//	doc_prefix     value is a valid document number prefix
//
// It also reports JSON (or form) field names in validation errors.
func SetupValidator() {
	setupValidatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
		_ = v.RegisterValidation("document_type", func(fl validator.FieldLevel) bool {
			_, err := sales.ParseDocumentType(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("doc_prefix", func(fl validator.FieldLevel) bool {
			return sales.ValidatePrefix(fl.Field().String()) == nil
		})
	})
}

// ValidationDetails converts a binding error into field details.
// Returns nil when err is not a validator error (malformed JSON, bad types).
func ValidationDetails(err error) []dto.ValidationDetail {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	details := make([]dto.ValidationDetail, 0, len(validationErrors))
	for _, e := range validationErrors {
		details = append(details, dto.ValidationDetail{
			Field:   e.Field(),
			Message: validationMessage(e),
		})
	}
	return details
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Type().Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Type().Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "document_type":
		return "Must be one of: " + strings.Join(documentTypeNames(), ", ")
	case "doc_prefix":
		return "Must be at most 10 letters, digits, '-' or '/'"
	default:
		return "Invalid value"
	}
}

func documentTypeNames() []string {
	types := sales.AllDocumentTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return names
}
