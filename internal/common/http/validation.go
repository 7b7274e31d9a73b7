package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	commonerrors "github.com/AlibekovAA/authify/backend/internal/common/errors"
)

var (
	ErrInvalidJSON = commonerrors.NewDomainError(
		CodeInvalidJSON,
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"invalid request body",
	)

	ErrRequestTooLarge = commonerrors.NewDomainError(
		CodeRequestTooLarge,
		commonerrors.CategoryValidation,
		http.StatusRequestEntityTooLarge,
		"request body too large",
	)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("maxbytes", maxBytes)
	return v
}

// maxBytes bounds the encoded length of a string. bcrypt rejects input past
// 72 bytes, which `max` does not catch for multibyte runes.
func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// Normalizer is implemented by request types that clean up decoded input
// before validation.
type Normalizer interface {
	Normalize()
}

// DecodeAndValidate decodes a JSON body into dst, rejecting unknown fields,
// and runs the struct's `validate` tags. Failures are DomainErrors with a
// message fit for the caller.
func DecodeAndValidate(r *http.Request, dst any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrRequestTooLarge.WithCause(err)
		}
		return ErrInvalidJSON.WithCause(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrInvalidJSON.WithCause(errors.New("body must contain a single JSON object"))
	}

	if n, ok := dst.(Normalizer); ok {
		n.Normalize()
	}
	return Validate(dst)
}

func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return commonerrors.ErrValidation.WithCause(err)
	}

	return commonerrors.NewDomainError(
		commonerrors.ErrValidation.Code(),
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		fieldMessage(fieldErrs[0]),
	).WithCause(err)
}

func fieldMessage(fe validator.FieldError) string {
	label := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "email":
		return "Invalid email address format"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", label, fe.Param())
	case "maxbytes":
		return fmt.Sprintf("%s must be at most %s bytes long", label, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// humanize turns a JSON field name such as "currentPassword" into
// "Current password".
func humanize(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
