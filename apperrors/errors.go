package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for propagation, HTTP mapping and retry decisions.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindValidation
	KindInvalidQuantity
	KindEmptyCart
	KindPriceResolutionFailed
	KindOrderCreationFailed
	KindIllegalTransition
	KindOrderFinalized
	KindTransitionNotPermitted
	KindConflict
	KindNotEligible
	KindCheckoutInProgress
	KindNetworkFailure
)

var kindCodes = map[Kind]string{
	KindInternal:               "INTERNAL_ERROR",
	KindUnauthenticated:        "UNAUTHENTICATED",
	KindForbidden:              "FORBIDDEN",
	KindNotFound:               "NOT_FOUND",
	KindValidation:             "VALIDATION_ERROR",
	KindInvalidQuantity:        "INVALID_QUANTITY",
	KindEmptyCart:              "EMPTY_CART",
	KindPriceResolutionFailed:  "PRICE_RESOLUTION_FAILED",
	KindOrderCreationFailed:    "ORDER_CREATION_FAILED",
	KindIllegalTransition:      "ILLEGAL_TRANSITION",
	KindOrderFinalized:         "ORDER_FINALIZED",
	KindTransitionNotPermitted: "TRANSITION_NOT_PERMITTED",
	KindConflict:               "CONFLICT",
	KindNotEligible:            "NOT_ELIGIBLE",
	KindCheckoutInProgress:     "CHECKOUT_IN_PROGRESS",
	KindNetworkFailure:         "NETWORK_FAILURE",
}

var kindStatus = map[Kind]int{
	KindInternal:               http.StatusInternalServerError,
	KindUnauthenticated:        http.StatusUnauthorized,
	KindForbidden:              http.StatusForbidden,
	KindNotFound:               http.StatusNotFound,
	KindValidation:             http.StatusBadRequest,
	KindInvalidQuantity:        http.StatusBadRequest,
	KindEmptyCart:              http.StatusBadRequest,
	KindPriceResolutionFailed:  http.StatusUnprocessableEntity,
	KindOrderCreationFailed:    http.StatusInternalServerError,
	KindIllegalTransition:      http.StatusConflict,
	KindOrderFinalized:         http.StatusConflict,
	KindTransitionNotPermitted: http.StatusForbidden,
	KindConflict:               http.StatusConflict,
	KindNotEligible:            http.StatusForbidden,
	KindCheckoutInProgress:     http.StatusConflict,
	KindNetworkFailure:         http.StatusBadGateway,
}

// Code returns the stable wire code for the kind.
func (k Kind) Code() string {
	if c, ok := kindCodes[k]; ok {
		return c
	}
	return kindCodes[KindInternal]
}

// HTTPStatus returns the status code a handler responds with for the kind.
func (k Kind) HTTPStatus() int {
	if s, ok := kindStatus[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func (k Kind) String() string {
	return k.Code()
}

// KindFromCode maps a wire code back to its kind. Unknown codes map to KindInternal.
func KindFromCode(code string) Kind {
	for k, c := range kindCodes {
		if c == code {
			return k
		}
	}
	return KindInternal
}

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Kind    Kind
	Message string
	Details []ValidationDetail
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Code()
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is. Never return these directly; use New or Wrap.
var (
	ErrInternal               = &Error{Kind: KindInternal}
	ErrUnauthenticated        = &Error{Kind: KindUnauthenticated}
	ErrForbidden              = &Error{Kind: KindForbidden}
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrValidation             = &Error{Kind: KindValidation}
	ErrInvalidQuantity        = &Error{Kind: KindInvalidQuantity}
	ErrEmptyCart              = &Error{Kind: KindEmptyCart}
	ErrPriceResolutionFailed  = &Error{Kind: KindPriceResolutionFailed}
	ErrOrderCreationFailed    = &Error{Kind: KindOrderCreationFailed}
	ErrIllegalTransition      = &Error{Kind: KindIllegalTransition}
	ErrOrderFinalized         = &Error{Kind: KindOrderFinalized}
	ErrTransitionNotPermitted = &Error{Kind: KindTransitionNotPermitted}
	ErrConflict               = &Error{Kind: KindConflict}
	ErrNotEligible            = &Error{Kind: KindNotEligible}
	ErrCheckoutInProgress     = &Error{Kind: KindCheckoutInProgress}
	ErrNetworkFailure         = &Error{Kind: KindNetworkFailure}
)

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func NewValidationError(message string, details ...ValidationDetail) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// Message returns the user-facing message of err.
func Message(err error) string {
	if e, ok := As(err); ok && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// IsRetryable reports whether the caller may retry err at its own discretion.
// Only transport failures qualify; application rejections need a re-fetch instead.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetworkFailure)
}
