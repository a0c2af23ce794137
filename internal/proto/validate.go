package proto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks a join request.
func (j JoinRoom) Validate() error {
	return describe(validate.Struct(j))
}

// Validate checks a stroke. maxPoints <= 0 disables the upper bound.
func (s Stroke) Validate(maxPoints int) error {
	if err := describe(validate.Struct(s)); err != nil {
		return err
	}
	if maxPoints > 0 && len(s.Points) > maxPoints {
		return fmt.Errorf("points: %d exceeds limit of %d", len(s.Points), maxPoints)
	}
	return nil
}

// describe flattens validator errors into a short message naming the json fields.
func describe(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(parts, "; "))
}
