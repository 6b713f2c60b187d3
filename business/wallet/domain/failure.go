package domain

import "github.com/fd1az/walletd/internal/apperror"

// Failure is the outcome class of a failed wallet request.
type Failure int

const (
	// FailureOther covers transient and unexpected errors.
	FailureOther Failure = iota
	// FailureRejected means the user declined the request in the wallet.
	FailureRejected
	// FailureAlreadyProcessing means an identical request is already pending.
	FailureAlreadyProcessing
)

func (f Failure) String() string {
	switch f {
	case FailureRejected:
		return "Rejected"
	case FailureAlreadyProcessing:
		return "AlreadyProcessing"
	default:
		return "Other"
	}
}

// Classify maps an adapter error to its Failure class.
func Classify(err error) Failure {
	switch {
	case apperror.HasCode(err, apperror.CodeRequestRejected, apperror.CodeSignRejected, apperror.CodeNetworkSwitchRejected):
		return FailureRejected
	case apperror.HasCode(err, apperror.CodeRequestPending):
		return FailureAlreadyProcessing
	default:
		return FailureOther
	}
}
