package subscription

import "net/http"

// Outcome is the terminal state of one Subscribe call.
type Outcome int

const (
	OutcomeAccepted Outcome = iota
	OutcomeRejectedInvalidInput
	OutcomeRejectedPersistenceFailure
	OutcomeRejectedDeliveryFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejectedInvalidInput:
		return "rejected_invalid_input"
	case OutcomeRejectedPersistenceFailure:
		return "rejected_persistence_failure"
	case OutcomeRejectedDeliveryFailure:
		return "rejected_delivery_failure"
	default:
		return "unknown"
	}
}

// HTTPStatus maps the outcome to the status returned to the client. Only
// invalid input is the caller's fault.
func (o Outcome) HTTPStatus() int {
	switch o {
	case OutcomeAccepted:
		return http.StatusOK
	case OutcomeRejectedInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
