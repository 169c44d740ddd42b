package domain

import "strconv"

// OutcomeKind classifies how a submission attempt ended.
type OutcomeKind int

const (
	OutcomeDelivered OutcomeKind = iota
	OutcomeRejected
	OutcomeTimedOut
	OutcomeTransportError
)

// Outcome is the terminal result of a single submission attempt.
// HTTPStatus is set for Delivered and Rejected, Err for TransportError.
type Outcome struct {
	Kind       OutcomeKind
	HTTPStatus int
	Err        string
}

// String renders the outcome as user-visible status text.
func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeDelivered:
		return "sent: HTTP " + strconv.Itoa(o.HTTPStatus)
	case OutcomeRejected:
		return "send rejected: HTTP " + strconv.Itoa(o.HTTPStatus)
	case OutcomeTimedOut:
		return "send timed out"
	case OutcomeTransportError:
		return "send failed: " + o.Err
	}
	return "unknown outcome"
}
