// Package validation checks request payloads and account records against the
// account schema and converts failures into field-level errors.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/example/venuebook/internal/autherr"
	"github.com/example/venuebook/internal/models"
)

var (
	pinCodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	mobilePattern  = regexp.MustCompile(`^(\+91)?[6-9][0-9]{9}$`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return lowerFirst(fld.Name)
		}
		return name
	})

	_ = v.RegisterValidation("pincode", func(fl validator.FieldLevel) bool {
		return pinCodePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return mobilePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("businesstype", func(fl validator.FieldLevel) bool {
		return slices.Contains(models.BusinessTypes, fl.Field().String())
	})
	_ = v.RegisterValidation("amenity", func(fl validator.FieldLevel) bool {
		return slices.Contains(models.Amenities, fl.Field().String())
	})

	return v
}

// Struct validates s and returns a ValidationError listing every failing field.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return autherr.Validation([]autherr.FieldError{{Message: err.Error()}})
	}

	fields := make([]autherr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, autherr.FieldError{
			Field:   fieldPath(fe),
			Message: message(fe),
		})
	}
	return autherr.Validation(fields)
}

// IsStrongPassword requires at least 8 characters with a lowercase letter, an
// uppercase letter and a digit.
func IsStrongPassword(pw string) bool {
	if len(pw) < 8 {
		return false
	}
	var lower, upper, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// fieldPath drops the top-level struct name: "signupRequest.address.city" → "address.city".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "pincode":
		return "must be a 6-digit pin code"
	case "mobile":
		return "must be a valid 10-digit mobile number"
	case "strongpassword":
		return "must be at least 8 characters and contain an uppercase letter, a lowercase letter and a number"
	case "businesstype":
		return "must be one of: " + strings.Join(models.BusinessTypes, " ")
	case "amenity":
		return "must be one of: " + strings.Join(models.Amenities, " ")
	case "unique":
		return "must not contain duplicates"
	default:
		return "is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
