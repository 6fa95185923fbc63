// Package validation wraps go-playground/validator and converts its errors into problems.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"bookstore/internal/problem"
)

var regPublishedYear = regexp.MustCompile(`^\d{4}(-\d{2}(-\d{2})?)?$`)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// Only the leading year is used by range filters, but month and day must be well formed if present.
	_ = v.RegisterValidation("published_year", func(fl validator.FieldLevel) bool {
		return regPublishedYear.MatchString(fl.Field().String())
	})

	return &Validator{v: v}
}

// Validate returns nil or a validation problem naming every offending field.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldName(fe)+" "+friendlyMessage(fe))
	}
	sort.Strings(msgs)

	return problem.Validation("Invalid value", strings.Join(msgs, "; "))
}

// fieldName drops the struct prefix but keeps slice indexes, e.g. "authors[1]".
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func friendlyMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", fe.Param())
	case "url":
		return "must be a valid URL"
	case "published_year":
		return "must look like YYYY, YYYY-MM or YYYY-MM-DD"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}
