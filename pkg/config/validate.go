package config

import (
	"fmt"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the loaded configuration for structural errors.
// All failures here are startup-fatal: the server must not begin
// listening with a broken configuration.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range errs {
				return fmt.Errorf("field %s failed %q validation (value: %v)",
					fe.Namespace(), fe.Tag(), fe.Value())
			}
		}
		return err
	}

	// linuxpath has always been documented as absolute
	if !filepath.IsAbs(cfg.FilePath) {
		return fmt.Errorf("linuxpath must be an absolute path, got %q", cfg.FilePath)
	}

	return nil
}
