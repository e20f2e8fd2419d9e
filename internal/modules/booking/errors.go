package booking

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                  = errors.New("booking not found")
	ErrUnauthorized              = errors.New("actor not allowed on this booking")
	ErrInvalidTransition         = errors.New("invalid status transition")
	ErrInvalidState              = errors.New("invalid booking state")
	ErrAlreadyAssigned           = errors.New("booking already assigned")
	ErrNotActiveCandidate        = errors.New("technician does not hold the pending offer")
	ErrLocationNotServed         = errors.New("location not serviceable")
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
	ErrConflict                  = errors.New("concurrent update conflict")
	ErrBadRequest                = errors.New("bad request")

	ErrOTPMismatch     = fmt.Errorf("%w: otp mismatch", ErrInvalidState)
	ErrPendingCharges  = fmt.Errorf("%w: extra charges pending", ErrInvalidState)
	ErrChargeNotFound  = fmt.Errorf("%w: extra charge", ErrNotFound)
	ErrChargeResolved  = fmt.Errorf("%w: extra charge already resolved", ErrInvalidState)
	ErrNoPaymentOrder  = fmt.Errorf("%w: no payment order", ErrInvalidState)
	ErrCustomerMissing = fmt.Errorf("%w: customer", ErrNotFound)
	ErrServiceMissing  = fmt.Errorf("%w: service", ErrNotFound)
)
