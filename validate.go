package pit

import (
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared, it caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// ext checks a path extension, case insensitive: `validate:"ext=.csv"`.
	v.RegisterValidation("ext", func(fl validator.FieldLevel) bool {
		return strings.EqualFold(filepath.Ext(fl.Field().String()), fl.Param())
	})
	return v
}

// Validate checks a source configuration against its `validate` struct tags.
func Validate(config any) error {
	return validate.Struct(config)
}
