package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"nllbd/internal/common/fsutil"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize expands paths and lower-cases enumerations in place.
func (c *Config) Normalize() error {
	dir, err := fsutil.ExpandHome(strings.TrimSpace(c.CacheDir))
	if err != nil {
		return err
	}
	c.CacheDir = dir
	if c.LanguagesFile != "" {
		if c.LanguagesFile, err = fsutil.ExpandHome(c.LanguagesFile); err != nil {
			return err
		}
	}
	c.Transport = strings.ToLower(c.Transport)
	c.Engine = strings.ToLower(c.Engine)
	c.Device = strings.ToLower(c.Device)
	c.ComputeType = strings.ToLower(c.ComputeType)
	c.LogLevel = strings.ToLower(c.LogLevel)
	c.LogFormat = strings.ToLower(c.LogFormat)
	return nil
}

// Validate checks field constraints and reports every violation at once.
func (c Config) Validate() error {
	var errs []error
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs = append(errs, fieldError(fe))
		}
	}
	if c.Engine == "remote" && c.EngineURL == "" {
		errs = append(errs, fmt.Errorf("engine_url: required when engine is remote"))
	}
	if c.MaxInflight > c.MaxQueueDepth {
		errs = append(errs, fmt.Errorf("max_inflight (%d) exceeds max_queue_depth (%d)", c.MaxInflight, c.MaxQueueDepth))
	}
	return errors.Join(errs...)
}

func fieldError(fe validator.FieldError) error {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s: required", name)
	case "oneof":
		return fmt.Errorf("%s: %q is not one of [%s]", name, fmt.Sprint(fe.Value()), fe.Param())
	case "min", "gt":
		return fmt.Errorf("%s: must be %s %s", name, map[string]string{"min": ">=", "gt": ">"}[fe.Tag()], fe.Param())
	case "max":
		return fmt.Errorf("%s: must be <= %s", name, fe.Param())
	case "url":
		return fmt.Errorf("%s: %q is not a URL", name, fmt.Sprint(fe.Value()))
	default:
		return fmt.Errorf("%s: failed %s", name, fe.Tag())
	}
}
