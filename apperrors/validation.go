package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// FromBindError converts request decoding and struct validation failures into a
// validation error with one detail per offending field.
func FromBindError(err error) *Error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]ValidationDetail, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, ValidationDetail{
				Field:   fieldPath(fe.Namespace()),
				Message: describeTag(fe),
			})
		}
		return &Error{Kind: KindValidation, Message: "invalid request", Details: details, Cause: err}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &Error{
			Kind:    KindValidation,
			Message: "invalid request body",
			Details: []ValidationDetail{{Field: typeErr.Field, Message: "must be a " + typeErr.Type.String()}},
			Cause:   err,
		}
	}

	return &Error{Kind: KindValidation, Message: "invalid request body", Cause: err}
}

// fieldPath turns "PlaceOrderRequest.Address.PostalCode" into "address.postalCode".
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = lowerFirst(p)
	}
	return strings.Join(parts, ".")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
