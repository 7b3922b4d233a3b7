package config

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/leapstack-labs/projnorm/internal/manifest"
	"github.com/leapstack-labs/projnorm/internal/project"
)

var (
	prefixPattern  = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*\.)+$`)
	variantPattern = regexp.MustCompile(`^[a-z][A-Za-z0-9]*$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("namespace_prefix", func(fl validator.FieldLevel) bool {
		return prefixPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("variant", func(fl validator.FieldLevel) bool {
		return variantPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("subproject_id", func(fl validator.FieldLevel) bool {
		return project.ValidateID(fl.Field().String()) == nil
	})
	return v
}

// Validate checks the configuration. Every problem is reported, not only the first.
func (c *Config) Validate() error {
	var errs []error

	if err := newValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs = append(errs, fieldError(fe))
		}
	}
	if err := c.Toolchain.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := manifest.ValidateGlobs(c.ManifestGlobs); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func fieldError(fe validator.FieldError) error {
	key := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", key)
	case "namespace_prefix":
		return fmt.Errorf("%s %q must be dot-separated identifiers ending in '.', e.g. com.example.", key, fe.Value())
	case "variant":
		return fmt.Errorf("%s %q must be a lowerCamelCase build variant, e.g. freeDebug", key, fe.Value())
	case "subproject_id":
		return fmt.Errorf("%s %q is not a valid subproject id", key, fe.Value())
	case "oneof":
		return fmt.Errorf("%s %q must be one of: %s", key, fe.Value(), fe.Param())
	default:
		return fmt.Errorf("%s failed %q validation", key, fe.Tag())
	}
}
