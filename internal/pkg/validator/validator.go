package validator

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var phonePattern = regexp.MustCompile(`^\+?[0-9()\-\s]{3,30}$`)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// "phone" accepts the empty string; pair it with required to demand a value.
	_ = validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		return v == "" || phonePattern.MatchString(v)
	})
}

// Validate struct fields. Keys are json names where the field has one.
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	errs := make(map[string]string, len(verrs))
	for _, e := range verrs {
		errs[e.Field()] = e.Tag()
	}
	return errs
}
