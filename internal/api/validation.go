package api

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var requestValidator = validator.New()

func validateStruct(dst any) error {
	err := requestValidator.Struct(dst)
	if err == nil {
		return nil
	}

	if validationErrors, ok := err.(validator.ValidationErrors); ok && len(validationErrors) > 0 {
		first := validationErrors[0]
		field := strings.ToLower(first.Field())
		switch first.Tag() {
		case "required":
			return fmt.Errorf("%s is required", field)
		case "max":
			return fmt.Errorf("%s is too long", field)
		case "min":
			return fmt.Errorf("%s is too short", field)
		default:
			return fmt.Errorf("invalid %s", field)
		}
	}

	return fmt.Errorf("invalid request payload")
}
