package handlers

import (
	"fmt"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the custom binding tags used by the DTOs.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("booking_status", validateBookingStatus); err != nil {
		return fmt.Errorf("register booking_status validator: %w", err)
	}
	if err := v.RegisterValidation("iso_currency", validateCurrency); err != nil {
		return fmt.Errorf("register iso_currency validator: %w", err)
	}
	return nil
}

func validateBookingStatus(fl validator.FieldLevel) bool {
	return domain.BookingStatus(fl.Field().String()).IsValid()
}

func validateCurrency(fl validator.FieldLevel) bool {
	_, err := domain.ParseCurrency(fl.Field().String())
	return err == nil
}
