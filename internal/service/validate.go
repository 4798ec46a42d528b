package service

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/nikolayk812/storefront/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateInput(input any) error {
	if err := validate.Struct(input); err != nil {
		return fmt.Errorf("validate.Struct: %w: %w", domain.ErrInvalidRequest, err)
	}
	return nil
}
