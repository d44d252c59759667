package subscription

import "errors"

// Sentinel errors for the subscription service layer.
var (
	ErrDuplicateSubscriber = errors.New("subscriber already exists")
	ErrSubscriberNotFound  = errors.New("subscriber not found")
	ErrMissingToken        = errors.New("subscription token is required")
	ErrTokenNotFound       = errors.New("subscription token not recognised")
)
