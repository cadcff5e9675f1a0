package models

import (
	"errors"
	"fmt"
)

// Error categories. Specific sentinels below wrap one of these so callers
// can match either the exact condition or the whole class via errors.Is.
var (
	ErrValidation = errors.New("invalid input")
	ErrNotFound   = errors.New("requested entity does not exist")
	ErrPolicy     = errors.New("operation is not allowed in the current state")
	ErrDependency = errors.New("dependency failure")
)

var (
	ErrNoTender   = fmt.Errorf("%w: tender", ErrNotFound)
	ErrNoBid      = fmt.Errorf("%w: bid", ErrNotFound)
	ErrNoContract = fmt.Errorf("%w: contract", ErrNotFound)
	ErrNoUser     = fmt.Errorf("%w: user", ErrNotFound)

	ErrTenderNotPublished = fmt.Errorf("%w: tender has not been published", ErrPolicy)
	ErrTenderNotOpen      = fmt.Errorf("%w: tender is not open for bids", ErrPolicy)
	ErrStandstillActive   = fmt.Errorf("%w: standstill period has not ended", ErrPolicy)
	ErrAlreadyAwarded     = fmt.Errorf("%w: tender is already awarded", ErrPolicy)
	ErrContractFinalized  = fmt.Errorf("%w: contract is already signed", ErrPolicy)
)
