package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// Settlement error taxonomy.
var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrCurrencyMismatch       = errors.New("currency mismatch")
	ErrPolicyDisabled         = errors.New("deposit policy disabled for listing")
	ErrDuplicateDeposit       = errors.New("booking already has a security deposit")
	ErrBookingNotPayable      = errors.New("booking is not in a payable state")
	ErrInvalidTransition      = errors.New("invalid state transition")
	ErrNotAuthorized          = errors.New("caller is not authorized for this action")
	ErrConcurrentModification = errors.New("record was modified concurrently")
	ErrExternalCapability     = errors.New("payment processor call failed")
	ErrOutOfOrderEvent        = errors.New("out of order event")
	ErrDataIntegrity          = errors.New("data integrity error")
	ErrInsufficientFunds      = errors.New("insufficient wallet balance")
	ErrDisputeOpen            = errors.New("booking has an open dispute")
)

// Kind is the machine-readable error kind returned to API callers.
type Kind string

const (
	KindNotFound               Kind = "NotFound"
	KindValidation             Kind = "Validation"
	KindDuplicate              Kind = "Duplicate"
	KindInvalidAmount          Kind = "InvalidAmount"
	KindCurrencyMismatch       Kind = "CurrencyMismatch"
	KindPolicyDisabled         Kind = "PolicyDisabled"
	KindDuplicateDeposit       Kind = "DuplicateDeposit"
	KindBookingNotPayable      Kind = "BookingNotPayable"
	KindInvalidTransition      Kind = "InvalidTransition"
	KindNotAuthorized          Kind = "NotAuthorized"
	KindConcurrentModification Kind = "ConcurrentModification"
	KindExternalCapability     Kind = "ExternalCapabilityError"
	KindOutOfOrderEvent        Kind = "OutOfOrderEvent"
	KindDataIntegrity          Kind = "DataIntegrityError"
	KindInsufficientFunds      Kind = "InsufficientFunds"
	KindDisputeOpen            Kind = "DisputeOpen"
	KindInternal               Kind = "Internal"
)

type kindMapping struct {
	err    error
	kind   Kind
	status int
}

// Order matters: the first sentinel found in the chain wins.
var kindMappings = []kindMapping{
	{ErrDataIntegrity, KindDataIntegrity, http.StatusConflict},
	{ErrConcurrentModification, KindConcurrentModification, http.StatusConflict},
	{ErrExternalCapability, KindExternalCapability, http.StatusBadGateway},
	{ErrOutOfOrderEvent, KindOutOfOrderEvent, http.StatusConflict},
	{ErrInvalidTransition, KindInvalidTransition, http.StatusConflict},
	{ErrNotAuthorized, KindNotAuthorized, http.StatusForbidden},
	{ErrInvalidAmount, KindInvalidAmount, http.StatusBadRequest},
	{ErrCurrencyMismatch, KindCurrencyMismatch, http.StatusBadRequest},
	{ErrPolicyDisabled, KindPolicyDisabled, http.StatusUnprocessableEntity},
	{ErrDuplicateDeposit, KindDuplicateDeposit, http.StatusConflict},
	{ErrBookingNotPayable, KindBookingNotPayable, http.StatusConflict},
	{ErrInsufficientFunds, KindInsufficientFunds, http.StatusUnprocessableEntity},
	{ErrDisputeOpen, KindDisputeOpen, http.StatusConflict},
	{ErrNotFound, KindNotFound, http.StatusNotFound},
	{ErrDuplicate, KindDuplicate, http.StatusConflict},
	{ErrValidation, KindValidation, http.StatusBadRequest},
}

// KindOf classifies err into an API error kind and its HTTP status code.
func KindOf(err error) (Kind, int) {
	for _, m := range kindMappings {
		if errors.Is(err, m.err) {
			return m.kind, m.status
		}
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return KindInternal, appErr.Code
	}
	return KindInternal, http.StatusInternalServerError
}

// AppError carries an HTTP status code alongside an underlying error.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that wraps ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: message, Err: ErrNotFound}
}
