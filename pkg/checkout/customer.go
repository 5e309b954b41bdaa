package checkout

import (
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// validationError communicates rule violations back to HTTP handlers.
type validationError struct {
	message string
}

func (e validationError) Error() string { return e.message }

func newValidationError(msg string) error {
	return validationError{message: msg}
}

// IsValidation helps callers distinguish between customer mistakes and infrastructure failures.
func IsValidation(err error) bool {
	var v validationError
	return errors.As(err, &v)
}

// DeliveryMethod is how the order reaches the customer.
type DeliveryMethod string

const (
	DeliveryMethodDelivery DeliveryMethod = "delivery"
	DeliveryMethodPickup   DeliveryMethod = "pickup"
)

// CustomerInfo is the contact and address block of the checkout form.
type CustomerInfo struct {
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone"`
	Address        string         `json:"address"`
	City           string         `json:"city"`
	ZipCode        string         `json:"zipCode"`
	Notes          string         `json:"notes,omitempty"`
	DeliveryMethod DeliveryMethod `json:"deliveryMethod,omitempty"`
}

// Validate applies the checkout form rules and reports the first violation.
func (c CustomerInfo) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return newValidationError("name is required")
	}
	if !validEmail(c.Email) {
		return newValidationError("invalid email address")
	}
	if utf8.RuneCountInString(strings.TrimSpace(c.Phone)) < 10 {
		return newValidationError("phone number must be at least 10 digits")
	}
	if utf8.RuneCountInString(strings.TrimSpace(c.Address)) < 5 {
		return newValidationError("address is required")
	}
	if strings.TrimSpace(c.City) == "" {
		return newValidationError("city is required")
	}
	if utf8.RuneCountInString(strings.TrimSpace(c.ZipCode)) < 5 {
		return newValidationError("ZIP code is required")
	}
	switch c.DeliveryMethod {
	case "", DeliveryMethodDelivery, DeliveryMethodPickup:
	default:
		return newValidationError("delivery method must be pickup or delivery")
	}
	return nil
}

// Method returns the delivery method, defaulting to delivery.
func (c CustomerInfo) Method() DeliveryMethod {
	if c.DeliveryMethod == "" {
		return DeliveryMethodDelivery
	}
	return c.DeliveryMethod
}

// validEmail accepts a bare address only; display-name forms are rejected.
func validEmail(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return false
	}
	return addr.Address == trimmed && strings.Contains(trimmed[strings.LastIndex(trimmed, "@"):], ".")
}
