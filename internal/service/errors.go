package service

import "errors"

var (
	ErrValidation    = errors.New("validation")        // 400
	ErrUnauthorized  = errors.New("unauthorized")      // 401/403
	ErrNotFound      = errors.New("not found")         // 404
	ErrConflict      = errors.New("conflict")          // 409
	ErrOutOfStock    = errors.New("out of stock")      // 409
	ErrNotApplicable = errors.New("not applicable")    // 422
	ErrEmptyCart     = errors.New("empty cart")        // 422
	ErrPaymentFailed = errors.New("payment failed")    // 502
)
