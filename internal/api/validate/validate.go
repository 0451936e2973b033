package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

type ErrField struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

type Errs []ErrField

func (e Errs) Error() string { // error interface
	var b strings.Builder
	for i, ef := range e {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ef.Field + ": " + ef.Msg)
	}
	return b.String()
}

// Has reports whether field has at least one error.
func (e Errs) Has(field string) bool {
	for _, ef := range e {
		if ef.Field == field {
			return true
		}
	}
	return false
}

// Helpers
func Required(field, value string) *ErrField {
	if strings.TrimSpace(value) == "" {
		return &ErrField{Field: field, Msg: "can't be blank"}
	}
	return nil
}

// Collect returns the non-nil fields as Errs, or nil when there are none.
func Collect(fields ...*ErrField) error {
	var out Errs
	for _, f := range fields {
		if f != nil {
			out = append(out, *f)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

var emailRe = regexp.MustCompile(`(?i)\A[\w+\-.]+@[a-z\d\-.]+\.[a-z]+\z`)

// ValidEmail applies the account email format.
func ValidEmail(s string) bool { return emailRe.MatchString(s) }

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("account_email", func(fl validator.FieldLevel) bool {
			return ValidEmail(fl.Field().String())
		})
		// max_bytes bounds the encoded length, not the rune count.
		_ = v.RegisterValidation("max_bytes", func(fl validator.FieldLevel) bool {
			n, err := strconv.Atoi(fl.Param())
			return err == nil && len(fl.Field().String()) <= n
		})
	})
	return v
}

// Struct validates s by its `validate` tags and reports every failing
// field with a readable message, in declaration order.
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := make(Errs, 0, len(ves))
	for _, fe := range ves {
		out = append(out, ErrField{Field: fe.Field(), Msg: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "can't be blank"
	case "max":
		return "is too long (maximum is " + fe.Param() + " characters)"
	case "max_bytes":
		return "is too long (maximum is " + fe.Param() + " bytes)"
	case "min":
		return "is too short (minimum is " + fe.Param() + " characters)"
	case "eqfield":
		return "doesn't match " + strings.ToLower(fe.Param())
	default:
		return "is invalid"
	}
}
